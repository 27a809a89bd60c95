package dto

// ── 标签 DTO ──

// CreateLabelRequest 新建标签
type CreateLabelRequest struct {
	Name  string `json:"name"  binding:"required,max=100"`
	Color string `json:"color" binding:"omitempty,max=20"`
}

// UpdateLabelRequest 更新标签
type UpdateLabelRequest struct {
	Name  *string `json:"name"  binding:"omitempty,min=1,max=100"`
	Color *string `json:"color" binding:"omitempty,max=20"`
}

// SetBookingLabelsRequest 设置订单标签
type SetBookingLabelsRequest struct {
	LabelIDs []string `json:"label_ids" binding:"dive,uuid"`
	Mode     string   `json:"mode"      binding:"omitempty,oneof=replace add remove"`
}
