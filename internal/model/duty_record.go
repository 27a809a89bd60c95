package model

import "time"

// DutyRecord 出车记录表 — 对应 duty_records
// (driver_id, booking_id) 唯一；Total* 为写入时派生字段
type DutyRecord struct {
	DutyRecordID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"     json:"duty_record_id"`
	DriverID       string     `gorm:"type:uuid;not null;uniqueIndex:uq_duty_driver_booking" json:"driver_id"`
	BookingID      string     `gorm:"type:uuid;not null;uniqueIndex:uq_duty_driver_booking" json:"booking_id"`
	DutyStartDate  time.Time  `gorm:"type:date;not null"                                 json:"duty_start_date"`
	DutyStartTime  string     `gorm:"type:varchar(5);not null"                           json:"duty_start_time"`
	DutyEndDate    time.Time  `gorm:"type:date;not null"                                 json:"duty_end_date"`
	DutyEndTime    string     `gorm:"type:varchar(5);not null"                           json:"duty_end_time"`
	DutyStartKm    float64    `gorm:"not null"                                           json:"duty_start_km"`
	DutyEndKm      float64    `gorm:"not null"                                           json:"duty_end_km"`
	DutyType       string     `gorm:"type:varchar(50);not null"                          json:"duty_type"`
	Notes          string     `gorm:"type:text;not null;default:''"                      json:"notes"`
	TotalKm        float64    `gorm:"not null;default:0"                                 json:"total_km"`
	TotalHours     float64    `gorm:"not null;default:0"                                 json:"total_hours"`
	TotalDays      int        `gorm:"not null;default:1"                                 json:"total_days"`
	CreatedByRole  string     `gorm:"type:varchar(20);not null;default:'driver'"         json:"created_by_role"`
	CreatedByAdmin *string    `gorm:"type:uuid"                                          json:"created_by_admin,omitempty"`
	LastEditedBy   *string    `gorm:"type:uuid"                                          json:"last_edited_by,omitempty"`
	LastEditedRole string     `gorm:"type:varchar(20);not null;default:''"               json:"last_edited_role,omitempty"`
	LastEditedAt   *time.Time `json:"last_edited_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (DutyRecord) TableName() string { return "duty_records" }
