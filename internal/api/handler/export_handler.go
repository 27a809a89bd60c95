package handler

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportWalletStatement 导出钱包流水
// GET /api/v1/exports/wallets/:kind/:id
func (h *ExportHandler) ExportWalletStatement(c *gin.Context) {
	owner, ok := walletOwnerParam(c)
	if !ok {
		return
	}
	buf, filename, err := h.exportSvc.ExportWalletStatement(c.Request.Context(), owner)
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeXLSX)
}

// ExportMyWalletStatement 司机导出本人钱包流水
// GET /api/v1/me/wallet/export
func (h *ExportHandler) ExportMyWalletStatement(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	buf, filename, err := h.exportSvc.ExportWalletStatement(c.Request.Context(), service.DriverWallet(userID))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypeXLSX)
}

// SettlementStatement 导出订单结算单 PDF
// GET /api/v1/exports/bookings/:id/settlement
func (h *ExportHandler) SettlementStatement(c *gin.Context) {
	buf, filename, err := h.exportSvc.SettlementStatementPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	sendFile(c, buf, filename, contentTypePDF)
}

// sendFile 设置下载响应头并写出文件
func sendFile(c *gin.Context, buf *bytes.Buffer, filename, contentType string) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", contentType)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNotSettled):
		response.Conflict(c, 19001, "订单尚未结算，无法导出结算单")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		writeError(c, err)
	}
}
