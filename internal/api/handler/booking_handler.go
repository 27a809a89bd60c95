package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/service"
	"fleet-ledger/backend/pkg/response"
)

// BookingHandler 订单模块 HTTP 处理器
type BookingHandler struct {
	bookingSvc service.BookingService
	labelSvc   service.LabelService
}

// NewBookingHandler 创建 BookingHandler
func NewBookingHandler(bookingSvc service.BookingService, labelSvc service.LabelService) *BookingHandler {
	return &BookingHandler{bookingSvc: bookingSvc, labelSvc: labelSvc}
}

// ImportBookings 批量导入订单（.xlsx / .csv，字段名 file）
// POST /api/v1/bookings/import
func (h *BookingHandler) ImportBookings(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传导入文件")
		return
	}
	file, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 13101, "无法读取上传文件")
		return
	}
	defer file.Close()

	rows, err := h.bookingSvc.ParseUploadFile(fh.Filename, file)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}

	result, err := h.bookingSvc.IngestRows(c.Request.Context(), actor, rows)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, result)
}

// ListBookings 订单列表
// GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	var req dto.BookingListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	bookings, total, err := h.bookingSvc.ListBookings(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, bookings, total, req.GetPage(), req.GetPageSize())
}

// GetBooking 订单详情（含出车、支出、收款与差额）
// GET /api/v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	detail, err := h.bookingSvc.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, detail)
}

// AssignDriver 分配/取消分配司机
// PUT /api/v1/bookings/:id/driver
func (h *BookingHandler) AssignDriver(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.AssignDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	booking, err := h.bookingSvc.AssignDriver(c.Request.Context(), actor, c.Param("id"), req.DriverID)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, booking)
}

// UpdateStatus 更新订单状态
// PUT /api/v1/bookings/:id/status
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	booking, err := h.bookingSvc.UpdateStatus(c.Request.Context(), actor, c.Param("id"), *req.Status)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, booking)
}

// SetLabels 设置订单标签
// PUT /api/v1/bookings/:id/labels
func (h *BookingHandler) SetLabels(c *gin.Context) {
	var req dto.SetBookingLabelsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	booking, err := h.labelSvc.SetBookingLabels(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleBookingError(c, err)
		return
	}
	response.OK(c, booking)
}

// MyBookings 司机自己的订单
// GET /api/v1/me/bookings
func (h *BookingHandler) MyBookings(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	bookings, total, err := h.bookingSvc.ListDriverBookings(c.Request.Context(), userID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, bookings, total, page.GetPage(), page.GetPageSize())
}

func (h *BookingHandler) handleBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnsupportedFile):
		response.BadRequest(c, 13102, "仅支持 .xlsx 与 .csv 文件")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 13103, "导入文件无数据行")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 13104, err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 13105, "订单状态只能为 0 或 1")
	case errors.Is(err, service.ErrDriverInactive):
		response.Unprocessable(c, 13106, "司机已停用")
	case errors.Is(err, service.ErrLabelNotFound):
		response.NotFound(c, 18001, "标签不存在")
	case errors.Is(err, service.ErrAlreadySettled):
		response.Conflict(c, 16001, "该订单已结算，请先冲正")
	default:
		writeError(c, err)
	}
}
