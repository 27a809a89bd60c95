package model

// DefaultLabelColor 未指定颜色时的默认值
const DefaultLabelColor = "#888888"

// Label 订单标签表 — 对应 labels
type Label struct {
	LabelID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"label_id"`
	Name    string `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	Color   string `gorm:"type:varchar(20);not null;default:'#888888'"    json:"color"`
	Role    string `gorm:"type:varchar(20);not null"                      json:"role"`
	BaseModel
}

// TableName 指定表名
func (Label) TableName() string { return "labels" }
