package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
	"fleet-ledger/backend/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult *dto.TokenResponse
	loginErr    error
	logoutErr   error
	logoutJTI   string
}

func (m *mockAuthService) AdminLogin(_ context.Context, _ *dto.AdminLoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) DriverLogin(_ context.Context, _ *dto.DriverLoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Logout(_ context.Context, jti string, _ time.Time) error {
	m.logoutJTI = jti
	return m.logoutErr
}

// ── Mock ExpenseService ──

type mockExpenseService struct {
	gotReq         *dto.ExpenseRequest
	gotAttachments []dto.Attachment
	result         *dto.ExpenseResponse
	err            error
}

func (m *mockExpenseService) UpsertExpense(_ context.Context, _ service.Actor, _ string, req *dto.ExpenseRequest, attachments []dto.Attachment) (*dto.ExpenseResponse, error) {
	m.gotReq = req
	m.gotAttachments = attachments
	return m.result, m.err
}
func (m *mockExpenseService) GetExpense(_ context.Context, _ service.Actor, _ string) (*model.Expense, error) {
	return nil, m.err
}
func (m *mockExpenseService) ReleaseExpenseClaim(_ context.Context, _ service.Actor, _ string) (*model.Expense, error) {
	return nil, m.err
}

// ── Mock DutyService ──

type mockDutyService struct {
	gotReq *dto.DutyRequest
	err    error
}

func (m *mockDutyService) UpsertDuty(_ context.Context, _ service.Actor, _ string, req *dto.DutyRequest) (*dto.DutyResponse, error) {
	m.gotReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.DutyResponse{}, nil
}

func (m *mockDutyService) GetDuty(context.Context, service.Actor, string) (*dto.DutyStatusResponse, error) {
	return &dto.DutyStatusResponse{}, nil
}

// ── Mock SettlementService ──

type mockSettlementService struct {
	processResult *dto.ProcessSettlementResponse
	processErr    error
	gotProcess    *dto.ProcessSettlementRequest
	reverseErr    error
	listSummary   *dto.SettlementSummary
}

func (m *mockSettlementService) Preview(_ context.Context, _ string) (*dto.SettlementPreviewResponse, error) {
	return &dto.SettlementPreviewResponse{}, nil
}
func (m *mockSettlementService) Process(_ context.Context, _ service.Actor, _ string, req *dto.ProcessSettlementRequest) (*dto.ProcessSettlementResponse, error) {
	m.gotProcess = req
	return m.processResult, m.processErr
}
func (m *mockSettlementService) RecordTransfer(_ context.Context, _ service.Actor, _ string) (*dto.RecordTransferResponse, error) {
	return nil, nil
}
func (m *mockSettlementService) Reverse(_ context.Context, _ service.Actor, _, _ string) (*dto.ReverseSettlementResponse, error) {
	return &dto.ReverseSettlementResponse{}, m.reverseErr
}
func (m *mockSettlementService) ListDriverSettlements(_ context.Context, _, _ string, _ *dto.PaginationRequest) ([]dto.SettlementItem, int64, *dto.SettlementSummary, error) {
	return []dto.SettlementItem{}, 0, m.listSummary, nil
}
func (m *mockSettlementService) ListPending(_ context.Context) ([]dto.PendingSettlementItem, error) {
	return nil, nil
}
func (m *mockSettlementService) MySettlements(_ context.Context, _ string, _ *dto.PaginationRequest) ([]dto.SettlementItem, int64, *dto.SettlementSummary, error) {
	return []dto.SettlementItem{}, 0, m.listSummary, nil
}
func (m *mockSettlementService) MyBookingSettlement(_ context.Context, _, _ string) (*dto.BookingSettlementResponse, error) {
	return nil, nil
}

// ── Mock WalletService ──

type mockWalletService struct {
	err      error
	gotOwner service.WalletOwner
}

func (m *mockWalletService) Credit(_ context.Context, _ service.Actor, owner service.WalletOwner, _ decimal.Decimal, _ string) (*dto.WalletMutationResponse, error) {
	m.gotOwner = owner
	return &dto.WalletMutationResponse{}, m.err
}
func (m *mockWalletService) Debit(_ context.Context, _ service.Actor, owner service.WalletOwner, _ decimal.Decimal, _ string) (*dto.WalletMutationResponse, error) {
	m.gotOwner = owner
	return &dto.WalletMutationResponse{}, m.err
}
func (m *mockWalletService) Transfer(_ context.Context, _ service.Actor, _, _ service.WalletOwner, _ decimal.Decimal, _ string) (*dto.WalletTransferResponse, error) {
	return &dto.WalletTransferResponse{}, m.err
}
func (m *mockWalletService) CollectFromDriver(_ context.Context, _ service.Actor, _ *dto.CollectFromDriverRequest) (*dto.WalletTransferResponse, error) {
	return &dto.WalletTransferResponse{}, m.err
}
func (m *mockWalletService) GetWalletDetails(_ context.Context, owner service.WalletOwner) (*dto.WalletDetailsResponse, error) {
	m.gotOwner = owner
	return &dto.WalletDetailsResponse{OwnerKind: owner.Kind, OwnerID: owner.ID}, m.err
}
func (m *mockWalletService) ListTransactions(_ context.Context, _ service.WalletOwner, _ *dto.PaginationRequest) ([]model.WalletTransaction, int64, error) {
	return nil, 0, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportWalletStatement(_ context.Context, _ service.WalletOwner) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}
func (m *mockExportService) SettlementStatementPDF(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ── Mock AttachmentStore ──

type mockStore struct {
	saved []string
	err   error
}

func (m *mockStore) Save(_ context.Context, fh *multipart.FileHeader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved = append(m.saved, fh.Filename)
	return "uploads/" + fh.Filename, nil
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "admin")
	c.Set("token_jti", "test-jti")
	c.Set("token_exp", time.Now().Add(15*time.Minute))
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// serve 注册单条路由（带认证上下文）并执行请求
func serve(method, pattern string, h gin.HandlerFunc, req *http.Request, auth bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := gin.New()
	r.Handle(method, pattern, func(c *gin.Context) {
		if auth {
			setAuth(c)
		}
		h(c)
	})
	r.ServeHTTP(w, req)
	return w
}

func newJSONRequest(method, path string, v interface{}) *http.Request {
	req := httptest.NewRequest(method, path, jsonBody(v))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_AdminLogin_Success(t *testing.T) {
	mock := &mockAuthService{loginResult: &dto.TokenResponse{AccessToken: "test-access-token", ExpiresIn: 900, Role: "admin"}}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/admin/login", h.AdminLogin,
		newJSONRequest("POST", "/auth/admin/login", dto.AdminLoginRequest{Email: "a@fleet.io", Password: "Test1234"}), false)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_AdminLogin_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	req := httptest.NewRequest("POST", "/auth/admin/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")
	w := serve("POST", "/auth/admin/login", h.AdminLogin, req, false)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_AdminLogin_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := serve("POST", "/auth/admin/login", h.AdminLogin,
		newJSONRequest("POST", "/auth/admin/login", dto.AdminLoginRequest{Email: "a@fleet.io", Password: "wrong"}), false)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_DriverLogin_Inactive(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrDriverInactive})

	w := serve("POST", "/auth/driver/login", h.DriverLogin,
		newJSONRequest("POST", "/auth/driver/login", dto.DriverLoginRequest{DriverCode: "D001", Password: "x"}), false)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11002 {
		t.Errorf("expected error code 11002, got %d", resp.Code)
	}
}

func TestAuthHandler_Logout_UsesTokenJTI(t *testing.T) {
	mock := &mockAuthService{}
	h := NewAuthHandler(mock)

	w := serve("POST", "/auth/logout", h.Logout, httptest.NewRequest("POST", "/auth/logout", nil), true)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.logoutJTI != "test-jti" {
		t.Errorf("expected jti test-jti, got %q", mock.logoutJTI)
	}
}

// ═══════════════════════════════════════════════════════════
// LedgerHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLedgerHandler_UpsertDuty_LooseKmReachesValidation(t *testing.T) {
	duty := &mockDutyService{err: &service.ValidationError{Problems: []string{"dutyStartKm must be a number", "dutyType is required"}}}
	h := NewLedgerHandler(duty, nil, nil, &mockStore{})

	req := httptest.NewRequest("PUT", "/bookings/bk-1/duty",
		strings.NewReader(`{"duty_start_km":"abc","duty_end_km":"120.5"}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve("PUT", "/bookings/:id/duty", h.UpsertDuty, req, true)

	if duty.gotReq == nil {
		t.Fatal("里程格式错误不应在绑定阶段被拦截")
	}
	if string(*duty.gotReq.DutyStartKm) != "abc" || string(*duty.gotReq.DutyEndKm) != "120.5" {
		t.Errorf("里程原文应保留，实际 %q %q", *duty.gotReq.DutyStartKm, *duty.gotReq.DutyEndKm)
	}
	resp := parseResponse(w)
	if w.Code != http.StatusBadRequest || len(resp.Errors) != 2 {
		t.Errorf("expected 400 with 2 problems, got %d %+v", w.Code, resp)
	}
}

func TestLedgerHandler_UpsertDuty_WrongTypeNamesField(t *testing.T) {
	duty := &mockDutyService{}
	h := NewLedgerHandler(duty, nil, nil, &mockStore{})

	req := httptest.NewRequest("PUT", "/bookings/bk-1/duty", strings.NewReader(`{"duty_type":5}`))
	req.Header.Set("Content-Type", "application/json")
	w := serve("PUT", "/bookings/:id/duty", h.UpsertDuty, req, true)

	resp := parseResponse(w)
	if w.Code != http.StatusBadRequest || len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0], "duty_type") {
		t.Errorf("expected problem naming duty_type, got %d %+v", w.Code, resp)
	}
	if duty.gotReq != nil {
		t.Error("类型错误时不应调用业务层")
	}
}

func TestLedgerHandler_UpsertExpense_Unauthenticated(t *testing.T) {
	h := NewLedgerHandler(nil, &mockExpenseService{}, nil, &mockStore{})

	w := serve("PUT", "/bookings/:id/expense", h.UpsertExpense,
		newJSONRequest("PUT", "/bookings/bk-1/expense", map[string]string{}), false)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestLedgerHandler_UpsertExpense_Multipart(t *testing.T) {
	exp := &mockExpenseService{result: &dto.ExpenseResponse{}}
	store := &mockStore{}
	h := NewLedgerHandler(nil, exp, nil, store)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	mw.WriteField("billing_items", `[{"category":"Fuel","amount":"100"}]`)
	mw.WriteField("daily_allowance", "25.50")
	mw.WriteField("night_allowance", "")
	fw, _ := mw.CreateFormFile("billingItems[0].image", "receipt.jpg")
	fw.Write([]byte("jpeg-bytes"))
	mw.Close()

	req := httptest.NewRequest("PUT", "/bookings/bk-1/expense", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve("PUT", "/bookings/:id/expense", h.UpsertExpense, req, true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if exp.gotReq.DailyAllowance == nil || !exp.gotReq.DailyAllowance.Equal(decimal.RequireFromString("25.50")) {
		t.Errorf("daily_allowance not decoded: %v", exp.gotReq.DailyAllowance)
	}
	if exp.gotReq.NightAllowance != nil {
		t.Errorf("blank field should stay nil, got %v", exp.gotReq.NightAllowance)
	}
	// multipart 中 billing_items 以 JSON 字符串形式传递
	if !strings.HasPrefix(string(exp.gotReq.BillingItems), `"`) {
		t.Errorf("billing_items should arrive as JSON string, got %s", exp.gotReq.BillingItems)
	}
	if len(exp.gotAttachments) != 1 || exp.gotAttachments[0].Field != "billingItems[0].image" || exp.gotAttachments[0].Path != "uploads/receipt.jpg" {
		t.Errorf("unexpected attachments: %+v", exp.gotAttachments)
	}
}

func TestLedgerHandler_UpsertExpense_RejectedUpload(t *testing.T) {
	h := NewLedgerHandler(nil, &mockExpenseService{}, nil, &mockStore{err: storage.ErrFileTypeNotAllow})

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, _ := mw.CreateFormFile("billingItems[0].image", "run.exe")
	fw.Write([]byte("MZ"))
	mw.Close()

	req := httptest.NewRequest("PUT", "/bookings/bk-1/expense", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve("PUT", "/bookings/:id/expense", h.UpsertExpense, req, true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15005 {
		t.Errorf("expected error code 15005, got %d", resp.Code)
	}
}

func TestLedgerHandler_UpsertExpense_DutyInfoRequired(t *testing.T) {
	exp := &mockExpenseService{err: &service.DutyInfoRequiredError{DriverID: "drv-1", BookingID: "bk-1"}}
	h := NewLedgerHandler(nil, exp, nil, &mockStore{})

	w := serve("PUT", "/bookings/:id/expense", h.UpsertExpense,
		newJSONRequest("PUT", "/bookings/bk-1/expense", map[string]interface{}{"billing_items": []interface{}{}}), true)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	resp := parseResponse(w)
	if resp.Code != 14002 {
		t.Errorf("expected error code 14002, got %d", resp.Code)
	}
	data, _ := resp.Data.(map[string]interface{})
	if data["requires_duty_info"] != true || data["booking_id"] != "bk-1" {
		t.Errorf("unexpected data: %v", resp.Data)
	}
}

func TestLedgerHandler_UpsertExpense_ValidationProblems(t *testing.T) {
	exp := &mockExpenseService{err: &service.ValidationError{Problems: []string{"a", "b", "c"}}}
	h := NewLedgerHandler(nil, exp, nil, &mockStore{})

	w := serve("PUT", "/bookings/:id/expense", h.UpsertExpense,
		newJSONRequest("PUT", "/bookings/bk-1/expense", map[string]interface{}{}), true)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); len(resp.Errors) != 3 {
		t.Errorf("expected 3 problems, got %v", resp.Errors)
	}
}

func TestLedgerHandler_UpsertExpense_ClaimedByOther(t *testing.T) {
	h := NewLedgerHandler(nil, &mockExpenseService{err: service.ErrEntryClaimed}, nil, &mockStore{})

	w := serve("PUT", "/bookings/:id/expense", h.UpsertExpense,
		newJSONRequest("PUT", "/bookings/bk-1/expense", map[string]interface{}{}), true)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 15001 {
		t.Errorf("expected error code 15001, got %d", resp.Code)
	}
}

func TestLedgerHandler_ReleaseClaim_NotClaimed(t *testing.T) {
	h := NewLedgerHandler(nil, &mockExpenseService{err: service.ErrEntryNotClaimed}, nil, &mockStore{})

	w := serve("DELETE", "/bookings/:id/expense/claim", h.ReleaseExpenseClaim,
		httptest.NewRequest("DELETE", "/bookings/bk-1/expense/claim", nil), true)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// SettlementHandler Tests
// ═══════════════════════════════════════════════════════════

func TestSettlementHandler_Process_EmptyBody(t *testing.T) {
	mock := &mockSettlementService{processResult: &dto.ProcessSettlementResponse{BookingID: "bk-1"}}
	h := NewSettlementHandler(mock)

	w := serve("POST", "/bookings/:id/settlement", h.Process,
		httptest.NewRequest("POST", "/bookings/bk-1/settlement", nil), true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotProcess == nil || mock.gotProcess.ManualAmount != nil {
		t.Errorf("expected empty request, got %+v", mock.gotProcess)
	}
}

func TestSettlementHandler_Process_AlreadySettled(t *testing.T) {
	h := NewSettlementHandler(&mockSettlementService{processErr: service.ErrAlreadySettled})

	w := serve("POST", "/bookings/:id/settlement", h.Process,
		newJSONRequest("POST", "/bookings/bk-1/settlement", map[string]interface{}{"manual_amount": "10"}), true)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 16001 {
		t.Errorf("expected error code 16001, got %d", resp.Code)
	}
}

func TestSettlementHandler_Reverse_RequiresReason(t *testing.T) {
	h := NewSettlementHandler(&mockSettlementService{})

	w := serve("POST", "/bookings/:id/settlement/reverse", h.Reverse,
		newJSONRequest("POST", "/bookings/bk-1/settlement/reverse", map[string]string{}), true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestSettlementHandler_Reverse_Forbidden(t *testing.T) {
	h := NewSettlementHandler(&mockSettlementService{reverseErr: service.ErrForbidden})

	w := serve("POST", "/bookings/:id/settlement/reverse", h.Reverse,
		newJSONRequest("POST", "/bookings/bk-1/settlement/reverse", dto.ReverseSettlementRequest{Reason: "录错"}), true)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestSettlementHandler_ListDriverSettlements_Summary(t *testing.T) {
	mock := &mockSettlementService{listSummary: &dto.SettlementSummary{
		TotalSettledAmount:   decimal.RequireFromString("350"),
		CurrentWalletBalance: decimal.RequireFromString("350"),
	}}
	h := NewSettlementHandler(mock)

	w := serve("GET", "/drivers/:id/settlements", h.ListDriverSettlements,
		httptest.NewRequest("GET", "/drivers/drv-1/settlements?status=completed", nil), true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data, _ := parseResponse(w).Data.(map[string]interface{})
	summary, _ := data["summary"].(map[string]interface{})
	if summary["total_settled_amount"] != "350" {
		t.Errorf("unexpected summary: %v", data["summary"])
	}
}

// ═══════════════════════════════════════════════════════════
// WalletHandler Tests
// ═══════════════════════════════════════════════════════════

func TestWalletHandler_Credit_UnknownKind(t *testing.T) {
	h := NewWalletHandler(&mockWalletService{})

	w := serve("POST", "/wallets/:kind/:id/credit", h.Credit,
		newJSONRequest("POST", "/wallets/company/x/credit", map[string]string{"amount": "10"}), true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 17004 {
		t.Errorf("expected error code 17004, got %d", resp.Code)
	}
}

func TestWalletHandler_Debit_Insufficient(t *testing.T) {
	mock := &mockWalletService{err: service.ErrInsufficientBalance}
	h := NewWalletHandler(mock)

	w := serve("POST", "/wallets/:kind/:id/debit", h.Debit,
		newJSONRequest("POST", "/wallets/admin/adm-1/debit", map[string]string{"amount": "10"}), true)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
	if mock.gotOwner.Kind != model.OwnerAdmin || mock.gotOwner.ID != "adm-1" {
		t.Errorf("unexpected owner: %+v", mock.gotOwner)
	}
}

func TestWalletHandler_MyWallet_DriverOwner(t *testing.T) {
	mock := &mockWalletService{}
	h := NewWalletHandler(mock)

	w := serve("GET", "/me/wallet", h.MyWallet, httptest.NewRequest("GET", "/me/wallet", nil), true)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.gotOwner != service.DriverWallet("test-user-id") {
		t.Errorf("unexpected owner: %+v", mock.gotOwner)
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_SettlementStatement_Success(t *testing.T) {
	mock := &mockExportService{buf: bytes.NewBufferString("%PDF-1.3"), filename: "结算单_bk-1.pdf"}
	h := NewExportHandler(mock)

	w := serve("GET", "/exports/bookings/:id/settlement", h.SettlementStatement,
		httptest.NewRequest("GET", "/exports/bookings/bk-1/settlement", nil), true)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "filename*=UTF-8''") {
		t.Errorf("unexpected disposition: %s", cd)
	}
}

func TestExportHandler_SettlementStatement_NotSettled(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNotSettled})

	w := serve("GET", "/exports/bookings/:id/settlement", h.SettlementStatement,
		httptest.NewRequest("GET", "/exports/bookings/bk-1/settlement", nil), true)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 19001 {
		t.Errorf("expected error code 19001, got %d", resp.Code)
	}
}

func TestExportHandler_WalletStatement_BadKind(t *testing.T) {
	h := NewExportHandler(&mockExportService{})

	w := serve("GET", "/exports/wallets/:kind/:id", h.ExportWalletStatement,
		httptest.NewRequest("GET", "/exports/wallets/x/1", nil), true)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}
