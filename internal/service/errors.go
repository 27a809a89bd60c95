package service

import (
	"errors"
	"fmt"
	"strings"
)

// ── 通用业务错误 ──

var (
	ErrForbidden     = errors.New("无权执行该操作")
	ErrInvalidFormat = errors.New("数据格式错误")

	ErrBookingNotFound = errors.New("订单不存在")
	ErrBookingNoDriver = errors.New("订单尚未分配司机")
	ErrDriverNotFound  = errors.New("司机不存在")
	ErrAdminNotFound   = errors.New("后台账号不存在")
)

// ValidationError 参数校验失败，Problems 收集全部问题而非首个
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "参数校验失败: " + strings.Join(e.Problems, "; ")
}

// newValidationError 无问题时返回 nil
func newValidationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// DutyInfoRequiredError 录入支出/收款前须先填写出车记录
type DutyInfoRequiredError struct {
	DriverID  string
	BookingID string
}

func (e *DutyInfoRequiredError) Error() string {
	return fmt.Sprintf("请先填写出车记录 (booking=%s)", e.BookingID)
}

// invalidFormat 附带具体原因的格式错误，errors.Is(err, ErrInvalidFormat) 成立
func invalidFormat(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, reason)
}
