package model

import (
	"database/sql/driver"
	"time"

	"github.com/shopspring/decimal"
)

// 票据类目（封闭集合）
const (
	CategoryParking       = "Parking"
	CategoryToll          = "Toll"
	CategoryMCD           = "MCD"
	CategoryInterstateTax = "InterstateTax"
	CategoryFuel          = "Fuel"
	CategoryOther         = "Other"
)

// BillingCategories 合法类目
var BillingCategories = map[string]bool{
	CategoryParking:       true,
	CategoryToll:          true,
	CategoryMCD:           true,
	CategoryInterstateTax: true,
	CategoryFuel:          true,
	CategoryOther:         true,
}

// 认领状态：unclaimed → claimed(by X) → released
const (
	ClaimUnclaimed = "unclaimed"
	ClaimClaimed   = "claimed"
	ClaimReleased  = "released"
)

// BillingItem 单条票据
type BillingItem struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Image    *string         `json:"image"`
	Note     string          `json:"note"`
}

// BillingItems 对应 jsonb 列
type BillingItems []BillingItem

// Scan 实现 sql.Scanner
func (b *BillingItems) Scan(src interface{}) error {
	var out BillingItems
	if err := scanJSON(src, &out, "BillingItems"); err != nil {
		return err
	}
	*b = out
	return nil
}

// Value 实现 driver.Valuer
func (b BillingItems) Value() (driver.Value, error) {
	if b == nil {
		return "[]", nil
	}
	return valueJSON(b)
}

// Sum 票据金额合计
func (b BillingItems) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b {
		total = total.Add(item.Amount)
	}
	return total
}

// EntryClaim 后台编辑认领
type EntryClaim struct {
	ClaimState string     `gorm:"type:varchar(20);not null;default:'unclaimed'" json:"claim_state"`
	ClaimedBy  *string    `gorm:"type:uuid"                                     json:"claimed_by,omitempty"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
}

// EntryAudit 创建/编辑来源
type EntryAudit struct {
	CreatedByRole  string     `gorm:"type:varchar(20);not null;default:'driver'" json:"created_by_role"`
	CreatedByAdmin *string    `gorm:"type:uuid"                                  json:"created_by_admin,omitempty"`
	LastEditedBy   *string    `gorm:"type:uuid"                                  json:"last_edited_by,omitempty"`
	LastEditedRole string     `gorm:"type:varchar(20);not null;default:''"       json:"last_edited_role,omitempty"`
	LastEditedAt   *time.Time `json:"last_edited_at,omitempty"`
}

// Allowances 三项固定补贴
type Allowances struct {
	DailyAllowance      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"daily_allowance"`
	OutstationAllowance decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"outstation_allowance"`
	NightAllowance      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"night_allowance"`
}

// Total 补贴合计
func (a Allowances) Total() decimal.Decimal {
	return a.DailyAllowance.Add(a.OutstationAllowance).Add(a.NightAllowance)
}

// Expense 司机支出表 — 对应 expenses
type Expense struct {
	ExpenseID          string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"         json:"expense_id"`
	DriverID           string       `gorm:"type:uuid;not null;uniqueIndex:uq_expense_driver_booking" json:"driver_id"`
	BookingID          string       `gorm:"type:uuid;not null;uniqueIndex:uq_expense_driver_booking" json:"booking_id"`
	BillingItems       BillingItems `gorm:"type:jsonb;not null;default:'[]'"                       json:"billing_items"`
	Allowances         `gorm:"embedded"`
	Notes              string          `gorm:"type:text;not null;default:''"                          json:"notes"`
	TotalAllowances    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                  json:"total_allowances"`
	TotalDriverExpense decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                  json:"total_driver_expense"`
	EntryClaim         `gorm:"embedded"`
	EntryAudit         `gorm:"embedded"`
	BaseModel
}

// TableName 指定表名
func (Expense) TableName() string { return "expenses" }

// Recalculate 重新计算派生合计
func (e *Expense) Recalculate() {
	e.TotalAllowances = e.Allowances.Total()
	e.TotalDriverExpense = e.TotalAllowances.Add(e.BillingItems.Sum())
}

// Receiving 司机收款表 — 对应 receivings
type Receiving struct {
	ReceivingID          string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"            json:"receiving_id"`
	DriverID             string       `gorm:"type:uuid;not null;uniqueIndex:uq_receiving_driver_booking" json:"driver_id"`
	BookingID            string       `gorm:"type:uuid;not null;uniqueIndex:uq_receiving_driver_booking" json:"booking_id"`
	BillingItems         BillingItems `gorm:"type:jsonb;not null;default:'[]'"                          json:"billing_items"`
	Allowances           `gorm:"embedded"`
	ReceivedFromClient   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                     json:"received_from_client"`
	ClientAdvanceAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                     json:"client_advance_amount"`
	ClientBonusAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                     json:"client_bonus_amount"`
	IncentiveAmount      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                     json:"incentive_amount"`
	Notes                string          `gorm:"type:text;not null;default:''"                             json:"notes"`
	TotalAllowances      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                     json:"total_allowances"`
	TotalReceivingAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0"                     json:"total_receiving_amount"`
	EntryClaim           `gorm:"embedded"`
	EntryAudit           `gorm:"embedded"`
	BaseModel
}

// TableName 指定表名
func (Receiving) TableName() string { return "receivings" }

// Recalculate 重新计算派生合计（票据金额不计入 TotalReceivingAmount）
func (r *Receiving) Recalculate() {
	r.TotalAllowances = r.Allowances.Total()
	r.TotalReceivingAmount = r.TotalAllowances.
		Add(r.ReceivedFromClient).
		Add(r.ClientAdvanceAmount).
		Add(r.ClientBonusAmount).
		Add(r.IncentiveAmount)
}
