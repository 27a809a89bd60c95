package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
	"fleet-ledger/backend/pkg/storage"
)

// AttachmentStore 票据图片存储
type AttachmentStore interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

// LedgerHandler 出车记录、支出、收款 HTTP 处理器
// 司机与后台共用同一组路由，归属校验在业务层完成
type LedgerHandler struct {
	dutySvc      service.DutyService
	expenseSvc   service.ExpenseService
	receivingSvc service.ReceivingService
	store        AttachmentStore
}

// NewLedgerHandler 创建 LedgerHandler
func NewLedgerHandler(dutySvc service.DutyService, expenseSvc service.ExpenseService, receivingSvc service.ReceivingService, store AttachmentStore) *LedgerHandler {
	return &LedgerHandler{dutySvc: dutySvc, expenseSvc: expenseSvc, receivingSvc: receivingSvc, store: store}
}

// ────────────────────── 出车记录 ──────────────────────

// UpsertDuty 新建或更新出车记录
// PUT /api/v1/bookings/:id/duty
func (h *LedgerHandler) UpsertDuty(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.DutyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			response.ValidationFailed(c, 10001, "参数校验失败",
				[]string{fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type.Kind())})
			return
		}
		response.BadRequest(c, 10001, "参数格式错误")
		return
	}

	duty, err := h.dutySvc.UpsertDuty(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, duty)
}

// GetDuty 查询出车记录
// GET /api/v1/bookings/:id/duty
func (h *LedgerHandler) GetDuty(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	status, err := h.dutySvc.GetDuty(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, status)
}

// ────────────────────── 支出 ──────────────────────

// UpsertExpense 新建或更新支出（JSON 或 multipart 携带票据图片）
// PUT /api/v1/bookings/:id/expense
func (h *LedgerHandler) UpsertExpense(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ExpenseRequest
	attachments, ok := h.bindLedgerRequest(c, &req)
	if !ok {
		return
	}

	result, err := h.expenseSvc.UpsertExpense(c.Request.Context(), actor, c.Param("id"), &req, attachments)
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}
	response.OK(c, result)
}

// GetExpense 查询支出
// GET /api/v1/bookings/:id/expense
func (h *LedgerHandler) GetExpense(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	expense, err := h.expenseSvc.GetExpense(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}
	response.OK(c, expense)
}

// ReleaseExpenseClaim 释放支出认领
// DELETE /api/v1/bookings/:id/expense/claim
func (h *LedgerHandler) ReleaseExpenseClaim(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	expense, err := h.expenseSvc.ReleaseExpenseClaim(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}
	response.OK(c, expense)
}

// ────────────────────── 收款 ──────────────────────

// UpsertReceiving 新建或更新收款
// PUT /api/v1/bookings/:id/receiving
func (h *LedgerHandler) UpsertReceiving(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ReceivingRequest
	attachments, ok := h.bindLedgerRequest(c, &req)
	if !ok {
		return
	}

	receiving, err := h.receivingSvc.UpsertReceiving(c.Request.Context(), actor, c.Param("id"), &req, attachments)
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}
	response.OK(c, receiving)
}

// GetReceiving 查询收款
// GET /api/v1/bookings/:id/receiving
func (h *LedgerHandler) GetReceiving(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	receiving, err := h.receivingSvc.GetReceiving(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}
	response.OK(c, receiving)
}

// ReleaseReceivingClaim 释放收款认领
// DELETE /api/v1/bookings/:id/receiving/claim
func (h *LedgerHandler) ReleaseReceivingClaim(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	receiving, err := h.receivingSvc.ReleaseReceivingClaim(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleLedgerError(c, err)
		return
	}
	response.OK(c, receiving)
}

// ────────────────────── 请求解析 ──────────────────────

// bindLedgerRequest 解析 JSON 或 multipart 请求
// multipart 时文本字段按 JSON 字段名提交，文件字段名形如 billingItems[0].image
func (h *LedgerHandler) bindLedgerRequest(c *gin.Context, dst interface{}) ([]dto.Attachment, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(dst); err != nil {
			response.BadRequest(c, 10006, "数据格式错误")
			return nil, false
		}
		return nil, true
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, 10006, "无法解析表单")
		return nil, false
	}

	fields := make(map[string]string, len(form.Value))
	for key, values := range form.Value {
		if len(values) > 0 && strings.TrimSpace(values[0]) != "" {
			fields[key] = values[0]
		}
	}
	raw, _ := json.Marshal(fields)
	if err := json.Unmarshal(raw, dst); err != nil {
		response.BadRequest(c, 10006, "数据格式错误")
		return nil, false
	}

	var attachments []dto.Attachment
	for field, files := range form.File {
		for _, fh := range files {
			path, err := h.store.Save(c.Request.Context(), fh)
			if err != nil {
				h.handleLedgerError(c, err)
				return nil, false
			}
			attachments = append(attachments, dto.Attachment{Field: field, Path: path})
		}
	}
	return attachments, true
}

func (h *LedgerHandler) handleLedgerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExpenseNotFound), errors.Is(err, service.ErrReceivingNotFound):
		response.NotFound(c, 15002, err.Error())
	case errors.Is(err, service.ErrEntryNotClaimed):
		response.Conflict(c, 15003, "该记录当前未被认领")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 15004, "上传文件过大")
	case errors.Is(err, storage.ErrFileTypeNotAllow):
		response.BadRequest(c, 15005, "不支持的文件类型")
	default:
		writeError(c, err)
	}
}
