package model

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// 订单状态
const (
	BookingStatusOpen      = 0
	BookingStatusCompleted = 1
)

// 结算状态
const (
	SettlementPending   = "pending"
	SettlementCompleted = "completed"
	SettlementReversed  = "reversed"
)

// DataPair 外部导入的订单字段（键唯一，保持导入列序）
type DataPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DataPairs 对应 jsonb 列
type DataPairs []DataPair

// Scan 实现 sql.Scanner
func (p *DataPairs) Scan(src interface{}) error {
	var out DataPairs
	if err := scanJSON(src, &out, "DataPairs"); err != nil {
		return err
	}
	*p = out
	return nil
}

// Value 实现 driver.Valuer
func (p DataPairs) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return valueJSON(p)
}

// Get 按键取值
func (p DataPairs) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Settlement 订单内嵌的结算子记录（settlement_ 前缀列）
type Settlement struct {
	IsSettled             bool            `gorm:"not null;default:false"                       json:"is_settled"`
	Status                string          `gorm:"type:varchar(20);not null;default:'pending'"  json:"status"`
	SettlementAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"        json:"settlement_amount"`
	CalculatedAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"        json:"calculated_amount"`
	AdminAdjustments      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"        json:"admin_adjustments"`
	Notes                 string          `gorm:"type:text;not null;default:''"                json:"notes"`
	SettledAt             *time.Time      `json:"settled_at,omitempty"`
	SettledBy             *string         `gorm:"type:uuid"                                    json:"settled_by,omitempty"`
	SettledByRole         string          `gorm:"type:varchar(20);not null;default:''"         json:"settled_by_role,omitempty"`
	TransactionID         *string         `gorm:"type:uuid"                                    json:"transaction_id,omitempty"`
	DriverID              *string         `gorm:"type:uuid"                                    json:"driver_id,omitempty"`
	MarkedCompleted       bool            `gorm:"not null;default:false"                       json:"marked_completed"`
	AdminWalletAdjusted   bool            `gorm:"not null;default:false"                       json:"admin_wallet_adjusted"`
	AdminTransactionID    *string         `gorm:"type:uuid"                                    json:"admin_transaction_id,omitempty"`
	AdminID               *string         `gorm:"type:uuid"                                    json:"admin_id,omitempty"`
	ReversedAt            *time.Time      `json:"reversed_at,omitempty"`
	ReversedBy            *string         `gorm:"type:uuid"                                    json:"reversed_by,omitempty"`
	ReversalReason        string          `gorm:"type:text;not null;default:''"                json:"reversal_reason,omitempty"`
	ReversalTransactionID *string         `gorm:"type:uuid"                                    json:"reversal_transaction_id,omitempty"`
}

// Booking 订单表 — 对应 bookings
type Booking struct {
	BookingID            string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"booking_id"`
	DriverID             *string         `gorm:"type:uuid;index"                                json:"driver_id"`
	ExternalDutyID       *string         `gorm:"type:varchar(100);uniqueIndex"                  json:"external_duty_id,omitempty"`
	Data                 DataPairs       `gorm:"type:jsonb;not null;default:'[]'"               json:"data"`
	DutyRecordID         *string         `gorm:"type:uuid"                                      json:"duty_record_id,omitempty"`
	ReceivingID          *string         `gorm:"type:uuid"                                      json:"receiving_id,omitempty"`
	Status               int             `gorm:"not null;default:0"                             json:"status"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty"`
	AutoReconciledAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"          json:"auto_reconciled_amount"`
	Settlement           Settlement      `gorm:"embedded;embeddedPrefix:settlement_"            json:"settlement"`
	VersionedModel

	// 关联
	Driver *Driver `gorm:"foreignKey:DriverID;references:DriverID"                                       json:"driver,omitempty"`
	Labels []Label `gorm:"many2many:booking_labels;joinForeignKey:BookingID;joinReferences:LabelID" json:"labels,omitempty"`
}

// TableName 指定表名
func (Booking) TableName() string { return "bookings" }

// HasDriver 是否已分配司机
func (b *Booking) HasDriver() bool {
	return b.DriverID != nil && *b.DriverID != ""
}
