package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
)

// ── 测试辅助 ──

type ledgerFixture struct {
	st        *testStore
	duty      DutyService
	expense   ExpenseService
	receiving ReceivingService
}

func setupLedger(autoReconcile bool) *ledgerFixture {
	st := newTestStore()
	logger := zap.NewNop()
	st.addDriver("drv-1", "D001", "0")
	st.addBooking("bk-1", strPtr("drv-1"))
	return &ledgerFixture{
		st:        st,
		duty:      NewDutyService(st.repo, logger),
		expense:   NewExpenseService(st.repo, logger, autoReconcile),
		receiving: NewReceivingService(st.repo, logger),
	}
}

func (f *ledgerFixture) createDuty(t *testing.T) {
	t.Helper()
	if _, err := f.duty.UpsertDuty(context.Background(), driverActor("drv-1"), "bk-1", sameDayDuty()); err != nil {
		t.Fatalf("创建出车记录失败: %v", err)
	}
}

// expenseRequest 票据合计 500，补贴合计 300
func expenseRequest() *dto.ExpenseRequest {
	return &dto.ExpenseRequest{LedgerEntryRequest: dto.LedgerEntryRequest{
		BillingItems:        json.RawMessage(`[{"category":"Fuel","amount":300},{"category":"Toll","amount":"200"}]`),
		DailyAllowance:      decp("100"),
		OutstationAllowance: decp("150"),
		NightAllowance:      decp("50"),
	}}
}

// receivingRequest 票据合计 200，客户收款 250
func receivingRequest() *dto.ReceivingRequest {
	return &dto.ReceivingRequest{
		LedgerEntryRequest: dto.LedgerEntryRequest{
			BillingItems: json.RawMessage(`[{"category":"Parking","amount":200}]`),
		},
		ReceivedFromClient: decp("250"),
	}
}

// ── 出车记录前置 ──

func TestUpsertExpense_RequiresDutyRecord(t *testing.T) {
	f := setupLedger(false)
	ctx := context.Background()

	_, err := f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	var gate *DutyInfoRequiredError
	if !errors.As(err, &gate) {
		t.Fatalf("期望 DutyInfoRequiredError，实际: %v", err)
	}
	if gate.DriverID != "drv-1" || gate.BookingID != "bk-1" {
		t.Errorf("错误携带的上下文不正确: %+v", gate)
	}

	f.createDuty(t)
	resp, err := f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	if err != nil {
		t.Fatalf("出车记录存在后应成功: %v", err)
	}
	expense := resp.Expense.(*model.Expense)
	if !expense.TotalDriverExpense.Equal(decimal.NewFromInt(800)) {
		t.Errorf("期望 totalDriverExpense=800，实际 %s", expense.TotalDriverExpense)
	}
	if !expense.TotalAllowances.Equal(decimal.NewFromInt(300)) {
		t.Errorf("期望 totalAllowances=300，实际 %s", expense.TotalAllowances)
	}
}

func TestUpsertReceiving_RequiresDutyRecord(t *testing.T) {
	f := setupLedger(false)
	_, err := f.receiving.UpsertReceiving(context.Background(), adminActor("adm-1"), "bk-1", receivingRequest(), nil)
	var gate *DutyInfoRequiredError
	if !errors.As(err, &gate) {
		t.Fatalf("期望 DutyInfoRequiredError，实际: %v", err)
	}
}

// ── 认领 ──

func TestUpsertExpense_OwnershipConflict(t *testing.T) {
	f := setupLedger(false)
	f.createDuty(t)
	ctx := context.Background()

	if _, err := f.expense.UpsertExpense(ctx, adminActor("adm-a"), "bk-1", expenseRequest(), nil); err != nil {
		t.Fatalf("管理员 A 创建失败: %v", err)
	}

	_, err := f.expense.UpsertExpense(ctx, subadminActor("adm-b"), "bk-1", expenseRequest(), nil)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("管理员 B 编辑应被拒绝，实际: %v", err)
	}
	if !errors.Is(err, ErrEntryClaimed) {
		t.Errorf("期望 ErrEntryClaimed，实际: %v", err)
	}

	if _, err := f.expense.UpsertExpense(ctx, adminActor("adm-a"), "bk-1", expenseRequest(), nil); err != nil {
		t.Errorf("管理员 A 再次编辑应成功: %v", err)
	}
}

func TestReleaseExpenseClaim_AllowsOtherAdmin(t *testing.T) {
	f := setupLedger(false)
	f.createDuty(t)
	ctx := context.Background()

	if _, err := f.expense.UpsertExpense(ctx, subadminActor("sub-a"), "bk-1", expenseRequest(), nil); err != nil {
		t.Fatalf("创建失败: %v", err)
	}

	// 非认领人的 subadmin 不能释放
	if _, err := f.expense.ReleaseExpenseClaim(ctx, subadminActor("sub-b"), "bk-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("期望 ErrForbidden，实际: %v", err)
	}

	released, err := f.expense.ReleaseExpenseClaim(ctx, subadminActor("sub-a"), "bk-1")
	if err != nil {
		t.Fatalf("认领人释放失败: %v", err)
	}
	if released.ClaimState != model.ClaimReleased {
		t.Errorf("期望 released，实际 %s", released.ClaimState)
	}

	if _, err := f.expense.ReleaseExpenseClaim(ctx, adminActor("adm-1"), "bk-1"); !errors.Is(err, ErrEntryNotClaimed) {
		t.Errorf("重复释放期望 ErrEntryNotClaimed，实际: %v", err)
	}

	if _, err := f.expense.UpsertExpense(ctx, subadminActor("sub-b"), "bk-1", expenseRequest(), nil); err != nil {
		t.Errorf("释放后其他管理员应可认领: %v", err)
	}
}

func TestUpsertExpense_DriverBypassesClaim(t *testing.T) {
	f := setupLedger(false)
	f.createDuty(t)
	ctx := context.Background()

	if _, err := f.expense.UpsertExpense(ctx, adminActor("adm-a"), "bk-1", expenseRequest(), nil); err != nil {
		t.Fatalf("创建失败: %v", err)
	}
	if _, err := f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", expenseRequest(), nil); err != nil {
		t.Errorf("司机自助编辑不受认领限制: %v", err)
	}
}

// ── 票据校验 ──

func TestUpsertExpense_BillingProblemsBatched(t *testing.T) {
	f := setupLedger(false)
	f.createDuty(t)

	req := expenseRequest()
	req.BillingItems = json.RawMessage(`[
		{"category":"Snacks","amount":10},
		{"category":"Fuel","amount":"ten"},
		{"category":"","amount":5}
	]`)
	_, err := f.expense.UpsertExpense(context.Background(), driverActor("drv-1"), "bk-1", req, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("期望 ValidationError，实际: %v", err)
	}
	if len(ve.Problems) != 3 {
		t.Fatalf("期望 3 个问题，实际 %d: %v", len(ve.Problems), ve.Problems)
	}
	if len(f.st.expenses.expenses) != 0 {
		t.Error("校验失败不应写入支出")
	}
}

func TestUpsertExpense_InvalidBillingJSON(t *testing.T) {
	f := setupLedger(false)
	f.createDuty(t)

	req := expenseRequest()
	req.BillingItems = json.RawMessage(`"[{\"category\": "`)
	_, err := f.expense.UpsertExpense(context.Background(), driverActor("drv-1"), "bk-1", req, nil)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("期望 ErrInvalidFormat，实际: %v", err)
	}
}

func TestParseBillingItems_StringEncodedAndAttachments(t *testing.T) {
	existing := model.BillingItems{
		{Category: model.CategoryFuel, Amount: decimal.NewFromInt(1), Image: strPtr("old/0.jpg")},
		{Category: model.CategoryToll, Amount: decimal.NewFromInt(1), Image: strPtr("old/1.jpg")},
	}
	raw := json.RawMessage(`"[{\"category\":\"Fuel\",\"amount\":10},{\"category\":\"Toll\",\"amount\":\"2.50\"}]"`)
	attachments := []dto.Attachment{{Field: "billingItems[1].image", Path: "new/1.jpg"}}

	items, problems, err := parseBillingItems(raw, existing, attachments)
	if err != nil || len(problems) != 0 {
		t.Fatalf("解析应成功: err=%v problems=%v", err, problems)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 条票据，实际 %d", len(items))
	}
	if items[0].Image == nil || *items[0].Image != "old/0.jpg" {
		t.Error("无新上传时应沿用原图片")
	}
	if items[1].Image == nil || *items[1].Image != "new/1.jpg" {
		t.Error("新上传应替换原图片")
	}
	if !items.Sum().Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("期望合计 12.5，实际 %s", items.Sum())
	}
}

// ── 收款 ──

func TestUpsertReceiving_TotalsAndBookingLink(t *testing.T) {
	f := setupLedger(false)
	f.createDuty(t)

	req := receivingRequest()
	req.DailyAllowance = decp("40")
	req.ClientBonusAmount = decp("10")
	receiving, err := f.receiving.UpsertReceiving(context.Background(), adminActor("adm-1"), "bk-1", req, nil)
	if err != nil {
		t.Fatalf("保存收款失败: %v", err)
	}
	// 补贴 40 + 客户 250 + 奖励 10；票据不计入
	if !receiving.TotalReceivingAmount.Equal(decimal.NewFromInt(300)) {
		t.Errorf("期望 totalReceivingAmount=300，实际 %s", receiving.TotalReceivingAmount)
	}
	if receiving.ClaimState != model.ClaimClaimed || receiving.ClaimedBy == nil || *receiving.ClaimedBy != "adm-1" {
		t.Error("后台录入应认领该记录")
	}
	booking := f.st.bookings.bookings["bk-1"]
	if booking.ReceivingID == nil || *booking.ReceivingID != receiving.ReceivingID {
		t.Error("订单应关联收款记录")
	}
}

// ── 自动对账 ──

func TestAutoReconcile_Disabled(t *testing.T) {
	f := setupLedger(false)
	f.createDuty(t)

	resp, err := f.expense.UpsertExpense(context.Background(), driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if resp.AutoReconcile.Status != ReconcileDisabled {
		t.Errorf("期望 disabled，实际 %s", resp.AutoReconcile.Status)
	}
}

func TestAutoReconcile_WaitsForReceiving(t *testing.T) {
	f := setupLedger(true)
	f.createDuty(t)

	resp, err := f.expense.UpsertExpense(context.Background(), driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if resp.AutoReconcile.Status != ReconcileWaitingReceiving {
		t.Errorf("期望 waiting_receiving，实际 %s", resp.AutoReconcile.Status)
	}
	if len(f.st.txns.txns) != 0 {
		t.Error("无收款时不应产生流水")
	}
}

func TestAutoReconcile_AppliesDeltaOnly(t *testing.T) {
	f := setupLedger(true)
	f.createDuty(t)
	ctx := context.Background()

	if _, err := f.receiving.UpsertReceiving(ctx, adminActor("adm-1"), "bk-1", receivingRequest(), nil); err != nil {
		t.Fatalf("保存收款失败: %v", err)
	}

	resp, err := f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	if err != nil {
		t.Fatalf("保存支出失败: %v", err)
	}
	ar := resp.AutoReconcile
	if ar.Status != ReconcileApplied {
		t.Fatalf("期望 applied，实际 %s", ar.Status)
	}
	if !ar.Difference.Equal(decimal.NewFromInt(350)) || !ar.Delta.Equal(decimal.NewFromInt(350)) {
		t.Errorf("期望 difference=delta=350，实际 %s / %s", ar.Difference, ar.Delta)
	}
	if !f.st.driverBalance("drv-1").Equal(decimal.NewFromInt(350)) {
		t.Errorf("期望司机余额 350，实际 %s", f.st.driverBalance("drv-1"))
	}

	// 同样内容再次保存：差额未变，不再入账
	resp, err = f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	if err != nil {
		t.Fatalf("再次保存失败: %v", err)
	}
	if resp.AutoReconcile.Status != ReconcileUnchanged {
		t.Errorf("期望 unchanged，实际 %s", resp.AutoReconcile.Status)
	}

	// 支出增加 50：只调整增量
	req := expenseRequest()
	req.NightAllowance = decp("100")
	resp, err = f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", req, nil)
	if err != nil {
		t.Fatalf("第三次保存失败: %v", err)
	}
	if !resp.AutoReconcile.Delta.Equal(decimal.NewFromInt(50)) {
		t.Errorf("期望增量 50，实际 %s", resp.AutoReconcile.Delta)
	}
	if !f.st.driverBalance("drv-1").Equal(decimal.NewFromInt(400)) {
		t.Errorf("期望司机余额 400，实际 %s", f.st.driverBalance("drv-1"))
	}
	if len(f.st.txns.txns) != 2 {
		t.Errorf("期望 2 条对账流水，实际 %d", len(f.st.txns.txns))
	}
	if !f.st.bookings.bookings["bk-1"].AutoReconciledAmount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("订单已对账金额应为 400")
	}
}

func TestAutoReconcile_SkipsDebitOnInsufficientBalance(t *testing.T) {
	f := setupLedger(true)
	f.createDuty(t)
	ctx := context.Background()

	req := receivingRequest()
	req.ReceivedFromClient = decp("1000")
	if _, err := f.receiving.UpsertReceiving(ctx, adminActor("adm-1"), "bk-1", req, nil); err != nil {
		t.Fatalf("保存收款失败: %v", err)
	}

	resp, err := f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	if err != nil {
		t.Fatalf("支出保存不应因对账失败: %v", err)
	}
	if resp.AutoReconcile.Status != ReconcileSkippedInsufficient {
		t.Errorf("期望 skipped_insufficient_balance，实际 %s", resp.AutoReconcile.Status)
	}
	if !f.st.driverBalance("drv-1").IsZero() {
		t.Errorf("余额不应变化，实际 %s", f.st.driverBalance("drv-1"))
	}
}

func TestAutoReconcile_SkipsSettledBooking(t *testing.T) {
	f := setupLedger(true)
	f.createDuty(t)
	ctx := context.Background()

	if _, err := f.receiving.UpsertReceiving(ctx, adminActor("adm-1"), "bk-1", receivingRequest(), nil); err != nil {
		t.Fatalf("保存收款失败: %v", err)
	}
	f.st.bookings.bookings["bk-1"].Settlement.IsSettled = true

	resp, err := f.expense.UpsertExpense(ctx, driverActor("drv-1"), "bk-1", expenseRequest(), nil)
	if err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	if resp.AutoReconcile.Status != ReconcileSkippedSettled {
		t.Errorf("期望 skipped_settled，实际 %s", resp.AutoReconcile.Status)
	}
}
