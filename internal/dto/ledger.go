package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// ── 支出 / 收款 DTO ──

// Attachment 已落盘的上传文件
// Field 为表单字段名，如 billingItems[0].image
type Attachment struct {
	Field string
	Path  string
}

// LedgerEntryRequest 支出与收款共用字段
// BillingItems 可为 JSON 数组或 JSON 编码后的字符串
type LedgerEntryRequest struct {
	BillingItems        json.RawMessage  `json:"billing_items"`
	DailyAllowance      *decimal.Decimal `json:"daily_allowance"`
	OutstationAllowance *decimal.Decimal `json:"outstation_allowance"`
	NightAllowance      *decimal.Decimal `json:"night_allowance"`
	Notes               string           `json:"notes"`
}

// ExpenseRequest 支出提交
type ExpenseRequest struct {
	LedgerEntryRequest
}

// ReceivingRequest 收款提交
type ReceivingRequest struct {
	LedgerEntryRequest
	ReceivedFromClient  *decimal.Decimal `json:"received_from_client"`
	ClientAdvanceAmount *decimal.Decimal `json:"client_advance_amount"`
	ClientBonusAmount   *decimal.Decimal `json:"client_bonus_amount"`
	IncentiveAmount     *decimal.Decimal `json:"incentive_amount"`
}

// AutoReconcileResult 支出保存后的自动对账结果
type AutoReconcileResult struct {
	Status        string          `json:"status"` // applied | unchanged | skipped_insufficient_balance | disabled | waiting_receiving
	Difference    decimal.Decimal `json:"difference"`
	Delta         decimal.Decimal `json:"delta"`
	TransactionID string          `json:"transaction_id,omitempty"`
}

// ExpenseResponse 支出保存结果
type ExpenseResponse struct {
	Expense       interface{}          `json:"expense"`
	AutoReconcile *AutoReconcileResult `json:"auto_reconcile,omitempty"`
}
