package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
)

// SettlementHandler 结算模块 HTTP 处理器
type SettlementHandler struct {
	settlementSvc service.SettlementService
}

// NewSettlementHandler 创建 SettlementHandler
func NewSettlementHandler(settlementSvc service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlementSvc: settlementSvc}
}

// Preview 结算预览（不写入任何数据）
// GET /api/v1/bookings/:id/settlement/preview
func (h *SettlementHandler) Preview(c *gin.Context) {
	preview, err := h.settlementSvc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleSettlementError(c, err)
		return
	}
	response.OK(c, preview)
}

// Process 执行结算
// POST /api/v1/bookings/:id/settlement
func (h *SettlementHandler) Process(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ProcessSettlementRequest
	// 请求体可为空
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, 10001, "参数校验失败")
			return
		}
	}

	result, err := h.settlementSvc.Process(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.handleSettlementError(c, err)
		return
	}
	response.OK(c, result)
}

// RecordTransfer 登记线下转账（从当前账号钱包支出）
// POST /api/v1/bookings/:id/settlement/transfer
func (h *SettlementHandler) RecordTransfer(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	result, err := h.settlementSvc.RecordTransfer(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleSettlementError(c, err)
		return
	}
	response.OK(c, result)
}

// Reverse 冲正结算（仅 admin）
// POST /api/v1/bookings/:id/settlement/reverse
func (h *SettlementHandler) Reverse(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.ReverseSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "请填写冲正原因")
		return
	}

	result, err := h.settlementSvc.Reverse(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		h.handleSettlementError(c, err)
		return
	}
	response.OK(c, result)
}

// ListPending 待结算订单
// GET /api/v1/settlements/pending
func (h *SettlementHandler) ListPending(c *gin.Context) {
	items, err := h.settlementSvc.ListPending(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, items)
}

// ListDriverSettlements 司机结算记录（附汇总）
// GET /api/v1/drivers/:id/settlements
func (h *SettlementHandler) ListDriverSettlements(c *gin.Context) {
	var req dto.SettlementListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, summary, err := h.settlementSvc.ListDriverSettlements(c.Request.Context(), c.Param("id"), req.Status, &req.PaginationRequest)
	if err != nil {
		h.handleSettlementError(c, err)
		return
	}
	response.OKPageWithSummary(c, items, total, req.GetPage(), req.GetPageSize(), summary)
}

// MySettlements 司机本人结算记录
// GET /api/v1/me/settlements
func (h *SettlementHandler) MySettlements(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	items, total, summary, err := h.settlementSvc.MySettlements(c.Request.Context(), userID, &page)
	if err != nil {
		h.handleSettlementError(c, err)
		return
	}
	response.OKPageWithSummary(c, items, total, page.GetPage(), page.GetPageSize(), summary)
}

// MyBookingSettlement 司机查看单个订单结算
// GET /api/v1/me/bookings/:id/settlement
func (h *SettlementHandler) MyBookingSettlement(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	result, err := h.settlementSvc.MyBookingSettlement(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		h.handleSettlementError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *SettlementHandler) handleSettlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadySettled):
		response.Conflict(c, 16001, "该订单已结算")
	case errors.Is(err, service.ErrNotSettled):
		response.Conflict(c, 16002, "该订单尚未结算")
	case errors.Is(err, service.ErrSettlementNoExpense):
		response.Unprocessable(c, 16003, err.Error())
	case errors.Is(err, service.ErrSettlementInProgress):
		response.Conflict(c, 16004, err.Error())
	case errors.Is(err, service.ErrTransferAlreadyRecorded):
		response.Conflict(c, 16005, err.Error())
	case errors.Is(err, service.ErrNoTransferRequired):
		response.Unprocessable(c, 16006, err.Error())
	default:
		writeError(c, err)
	}
}
