package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet-ledger/backend/internal/service"
	pkgerrors "fleet-ledger/backend/pkg/errors"
	"fleet-ledger/backend/pkg/response"
)

// handleCommonError 处理跨模块共用的业务错误
// 返回 false 表示未识别，由调用方按 500 处理
func handleCommonError(c *gin.Context, err error) bool {
	var ve *service.ValidationError
	var dutyErr *service.DutyInfoRequiredError

	switch {
	case errors.As(err, &ve):
		response.ValidationFailed(c, 10001, "参数校验失败", ve.Problems)
	case errors.As(err, &dutyErr):
		response.ErrorWithData(c, http.StatusConflict, 14002, dutyErr.Error(), gin.H{
			"requires_duty_info": true,
			"booking_id":         dutyErr.BookingID,
			"driver_id":          dutyErr.DriverID,
		})
	case errors.Is(err, service.ErrInvalidFormat):
		response.BadRequest(c, 10006, err.Error())
	case errors.Is(err, service.ErrEntryClaimed):
		response.Forbidden(c, 15001, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权执行该操作")
	case errors.Is(err, service.ErrBookingNotFound):
		response.NotFound(c, 13001, "订单不存在")
	case errors.Is(err, service.ErrBookingNoDriver):
		response.Error(c, http.StatusConflict, 13002, "订单尚未分配司机")
	case errors.Is(err, service.ErrDriverNotFound):
		response.NotFound(c, 12001, "司机不存在")
	case errors.Is(err, service.ErrAdminNotFound):
		response.NotFound(c, 12002, "后台账号不存在")
	case errors.Is(err, service.ErrInsufficientBalance):
		response.Unprocessable(c, 17001, "钱包余额不足")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 10007, err.Error())
	case errors.Is(err, pkgerrors.ErrRecordExists):
		response.Conflict(c, 10008, err.Error())
	default:
		return false
	}
	return true
}

// writeError 先按共用错误处理，未识别时返回 500
func writeError(c *gin.Context, err error) {
	if !handleCommonError(c, err) {
		_ = c.Error(err)
		response.InternalError(c)
	}
}
