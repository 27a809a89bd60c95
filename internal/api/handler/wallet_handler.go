package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
)

// WalletHandler 钱包模块 HTTP 处理器
type WalletHandler struct {
	walletSvc service.WalletService
}

// NewWalletHandler 创建 WalletHandler
func NewWalletHandler(walletSvc service.WalletService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// walletOwnerParam 从路径 /wallets/:kind/:id 解析钱包归属
func walletOwnerParam(c *gin.Context) (service.WalletOwner, bool) {
	kind := c.Param("kind")
	if kind != model.OwnerDriver && kind != model.OwnerAdmin {
		response.BadRequest(c, 17004, "钱包类型只能为 driver 或 admin")
		return service.WalletOwner{}, false
	}
	return service.WalletOwner{Kind: kind, ID: c.Param("id")}, true
}

// Credit 入账
// POST /api/v1/wallets/:kind/:id/credit
func (h *WalletHandler) Credit(c *gin.Context) {
	h.mutate(c, false)
}

// Debit 出账
// POST /api/v1/wallets/:kind/:id/debit
func (h *WalletHandler) Debit(c *gin.Context) {
	h.mutate(c, true)
}

func (h *WalletHandler) mutate(c *gin.Context, debit bool) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	owner, ok := walletOwnerParam(c)
	if !ok {
		return
	}
	var req dto.WalletAmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	var (
		result *dto.WalletMutationResponse
		err    error
	)
	if debit {
		result, err = h.walletSvc.Debit(c.Request.Context(), actor, owner, req.Amount, req.Description)
	} else {
		result, err = h.walletSvc.Credit(c.Request.Context(), actor, owner, req.Amount, req.Description)
	}
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.OK(c, result)
}

// Transfer 钱包间转账
// POST /api/v1/wallets/transfer
func (h *WalletHandler) Transfer(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.WalletTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	from := service.WalletOwner{Kind: req.FromKind, ID: req.FromID}
	to := service.WalletOwner{Kind: req.ToKind, ID: req.ToID}
	result, err := h.walletSvc.Transfer(c.Request.Context(), actor, from, to, req.Amount, req.Description)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.OK(c, result)
}

// CollectFromDriver 向欠款司机收款，收入当前账号钱包
// POST /api/v1/wallets/collect
func (h *WalletHandler) CollectFromDriver(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.CollectFromDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.walletSvc.CollectFromDriver(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.OK(c, result)
}

// GetWallet 钱包详情
// GET /api/v1/wallets/:kind/:id
func (h *WalletHandler) GetWallet(c *gin.Context) {
	owner, ok := walletOwnerParam(c)
	if !ok {
		return
	}
	h.writeDetails(c, owner)
}

// ListTransactions 钱包流水
// GET /api/v1/wallets/:kind/:id/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	owner, ok := walletOwnerParam(c)
	if !ok {
		return
	}
	h.writeTransactions(c, owner)
}

// MyWallet 司机本人钱包
// GET /api/v1/me/wallet
func (h *WalletHandler) MyWallet(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	h.writeDetails(c, service.DriverWallet(userID))
}

// MyTransactions 司机本人钱包流水
// GET /api/v1/me/wallet/transactions
func (h *WalletHandler) MyTransactions(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	h.writeTransactions(c, service.DriverWallet(userID))
}

// AdminWallet 当前后台账号钱包
// GET /api/v1/admins/me/wallet
func (h *WalletHandler) AdminWallet(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	h.writeDetails(c, service.AdminWallet(userID))
}

func (h *WalletHandler) writeDetails(c *gin.Context, owner service.WalletOwner) {
	details, err := h.walletSvc.GetWalletDetails(c.Request.Context(), owner)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.OK(c, details)
}

func (h *WalletHandler) writeTransactions(c *gin.Context, owner service.WalletOwner) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	txns, total, err := h.walletSvc.ListTransactions(c.Request.Context(), owner, &page)
	if err != nil {
		h.handleWalletError(c, err)
		return
	}
	response.OKPage(c, txns, total, page.GetPage(), page.GetPageSize())
}

func (h *WalletHandler) handleWalletError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSameWallet):
		response.BadRequest(c, 17003, "转出与转入钱包不能相同")
	case errors.Is(err, service.ErrUnknownWalletOwner):
		response.BadRequest(c, 17004, "未知的钱包归属类型")
	case errors.Is(err, service.ErrDriverNotInDebt):
		response.Unprocessable(c, 17005, "该司机当前没有欠款")
	case errors.Is(err, service.ErrAmountExceedsDebt):
		response.Unprocessable(c, 17006, "收款金额超过司机欠款")
	default:
		writeError(c, err)
	}
}
