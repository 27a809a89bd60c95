package dto

import "fleet-ledger/backend/internal/model"

// ── 订单 DTO ──

// BookingListRequest 订单列表查询参数
type BookingListRequest struct {
	PaginationRequest
	DriverID string `form:"driver_id" binding:"omitempty,uuid"`
	Status   *int   `form:"status"    binding:"omitempty,oneof=0 1"`
	LabelID  string `form:"label_id"  binding:"omitempty,uuid"`
	Settled  *bool  `form:"settled"`
	Keyword  string `form:"keyword"   binding:"omitempty,max=100"`
}

// AssignDriverRequest 分配/取消分配司机；DriverID 为空表示取消
type AssignDriverRequest struct {
	DriverID *string `json:"driver_id" binding:"omitempty,uuid"`
}

// UpdateBookingStatusRequest 更新订单状态
type UpdateBookingStatusRequest struct {
	Status *int `json:"status" binding:"required,oneof=0 1"`
}

// BookingDetailResponse 订单详情
type BookingDetailResponse struct {
	Booking     *model.Booking         `json:"booking"`
	Duty        *DutyResponse          `json:"duty,omitempty"`
	Expense     *model.Expense         `json:"expense,omitempty"`
	Receiving   *model.Receiving       `json:"receiving,omitempty"`
	Calculation *SettlementCalculation `json:"calculation,omitempty"`
}

// ImportBookingResponse 订单批量导入结果
type ImportBookingResponse struct {
	Total      int                  `json:"total"`
	Created    int                  `json:"created"`
	Updated    int                  `json:"updated"`
	Reassigned int                  `json:"reassigned"`
	Unassigned int                  `json:"unassigned"`
	Skipped    int                  `json:"skipped"`
	Errors     []ImportBookingError `json:"errors,omitempty"`
}

// ImportBookingError 导入错误详情
type ImportBookingError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}
