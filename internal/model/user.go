package model

import (
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Driver 司机表 — 对应 drivers
// WalletBalance 为正表示公司欠司机，为负表示司机欠公司
type Driver struct {
	DriverID      string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"driver_id"`
	Name          string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Email         string          `gorm:"type:varchar(255)"                              json:"email"`
	Mobile        string          `gorm:"type:varchar(20)"                               json:"mobile"`
	DriverCode    string          `gorm:"type:varchar(50);not null;uniqueIndex"          json:"driver_code"`
	PasswordHash  string          `gorm:"type:varchar(255);not null"                     json:"-"`
	IsActive      bool            `gorm:"not null;default:true"                          json:"is_active"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"wallet_balance"`
	BaseModel
}

// TableName 指定表名
func (Driver) TableName() string { return "drivers" }

// Admin 后台账号表 — 对应 admins
// 后台钱包余额不允许为负
type Admin struct {
	AdminID       string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"admin_id"`
	Name          string          `gorm:"type:varchar(100);not null"                     json:"name"`
	Email         string          `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash  string          `gorm:"type:varchar(255);not null"                     json:"-"`
	Role          string          `gorm:"type:varchar(20);not null;default:'subadmin'"   json:"role"`
	Permissions   pq.StringArray  `gorm:"type:text[]"                                    json:"permissions"`
	WalletBalance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"wallet_balance"`
	BaseModel
}

// TableName 指定表名
func (Admin) TableName() string { return "admins" }
