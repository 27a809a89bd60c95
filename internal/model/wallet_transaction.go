package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 钱包归属
const (
	OwnerDriver = "driver"
	OwnerAdmin  = "admin"
)

// 交易方向
const (
	TxnCredit = "credit"
	TxnDebit  = "debit"
)

// 交易类别
const (
	CategoryUserWallet  = "user_wallet"
	CategoryAdminWallet = "admin_wallet"
	CategoryTransfer    = "transfer"
)

// WalletTransaction 钱包流水表 — 对应 wallet_transactions
// 只追加：创建后不修改、不删除，冲正以反向新流水表示
type WalletTransaction struct {
	TransactionID string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"transaction_id"`
	FromAdminID   *string         `gorm:"type:uuid"                                      json:"from_admin_id,omitempty"`
	OwnerKind     string          `gorm:"type:varchar(10);not null"                      json:"owner_kind"`
	DriverID      *string         `gorm:"type:uuid;index"                                json:"driver_id,omitempty"`
	AdminID       *string         `gorm:"type:uuid;index"                                json:"admin_id,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,2);not null"                    json:"amount"`
	Type          string          `gorm:"type:varchar(10);not null"                      json:"type"`
	Category      string          `gorm:"type:varchar(20);not null"                      json:"category"`
	Description   string          `gorm:"type:text;not null;default:''"                  json:"description"`
	BalanceAfter  decimal.Decimal `gorm:"type:numeric(14,2);not null"                    json:"balance_after"`
	Reference     *string         `gorm:"type:uuid;index"                                json:"reference,omitempty"`
	BookingID     *string         `gorm:"type:uuid;index"                                json:"booking_id,omitempty"`
	DedupKey      *string         `gorm:"type:varchar(200);uniqueIndex"                  json:"-"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (WalletTransaction) TableName() string { return "wallet_transactions" }
