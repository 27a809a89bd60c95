package dto

import (
	"github.com/shopspring/decimal"

	"fleet-ledger/backend/internal/model"
)

// ── 结算 DTO ──

// ProcessSettlementRequest 结算请求
// ManualAmount 为空时使用计算差额
type ProcessSettlementRequest struct {
	ManualAmount    *decimal.Decimal `json:"manual_amount"`
	AdminAdjustment decimal.Decimal  `json:"admin_adjustment"`
	Notes           string           `json:"notes"           binding:"max=1000"`
	MarkCompleted   bool             `json:"mark_completed"`
}

// ReverseSettlementRequest 冲正请求
type ReverseSettlementRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// SettlementListRequest 结算列表查询参数
type SettlementListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending completed reversed"`
}

// SideBreakdown 一侧金额明细
type SideBreakdown struct {
	BillingTotal   decimal.Decimal `json:"billing_total"`
	AllowanceTotal decimal.Decimal `json:"allowance_total"`
	ClientTotal    decimal.Decimal `json:"client_total"`
	Total          decimal.Decimal `json:"total"`
	Present        bool            `json:"present"`
}

// SettlementCalculation 差额计算结果（正数：公司欠司机）
type SettlementCalculation struct {
	Expense        SideBreakdown   `json:"expense"`
	Receiving      SideBreakdown   `json:"receiving"`
	ExpenseTotal   decimal.Decimal `json:"expense_total"`
	ReceivingTotal decimal.Decimal `json:"receiving_total"`
	Difference     decimal.Decimal `json:"difference"`
}

// SettlementPreviewResponse 结算预览
type SettlementPreviewResponse struct {
	BookingID              string                `json:"booking_id"`
	DriverID               string                `json:"driver_id"`
	Calculation            SettlementCalculation `json:"calculation"`
	CurrentWalletBalance   decimal.Decimal       `json:"current_wallet_balance"`
	Action                 string                `json:"action"` // credit | debit | none
	AbsAmount              decimal.Decimal       `json:"abs_amount"`
	ProjectedWalletBalance decimal.Decimal       `json:"projected_wallet_balance"`
	Explanation            string                `json:"explanation"`
	IsSettled              bool                  `json:"is_settled"`
	AutoReconciledAmount   decimal.Decimal       `json:"auto_reconciled_amount"`
	AutoReconcileWarning   string                `json:"auto_reconcile_warning,omitempty"`
}

// ProcessSettlementResponse 结算结果
type ProcessSettlementResponse struct {
	BookingID              string           `json:"booking_id"`
	Settlement             model.Settlement `json:"settlement"`
	FinalAmount            decimal.Decimal  `json:"final_amount"`
	WalletBalance          decimal.Decimal  `json:"wallet_balance"`
	TransactionID          string           `json:"transaction_id"`
	ManualTransferRequired bool             `json:"manual_transfer_required"`
	NextStep               string           `json:"next_step,omitempty"`
	AutoReconciledAmount   decimal.Decimal  `json:"auto_reconciled_amount"`
	AutoReconcileWarning   string           `json:"auto_reconcile_warning,omitempty"`
}

// RecordTransferResponse 线下转账登记结果
type RecordTransferResponse struct {
	BookingID          string          `json:"booking_id"`
	AdminID            string          `json:"admin_id"`
	AdminTransactionID string          `json:"admin_transaction_id"`
	AdminBalance       decimal.Decimal `json:"admin_balance"`
}

// ReverseSettlementResponse 冲正结果
type ReverseSettlementResponse struct {
	BookingID             string          `json:"booking_id"`
	ReversedAmount        decimal.Decimal `json:"reversed_amount"`
	WalletBalance         decimal.Decimal `json:"wallet_balance"`
	ReversalTransactionID string          `json:"reversal_transaction_id"`
	AdminReversalTxnID    string          `json:"admin_reversal_transaction_id,omitempty"`
}

// SettlementItem 已结算订单条目
type SettlementItem struct {
	BookingID   string           `json:"booking_id"`
	DutyID      string           `json:"duty_id,omitempty"`
	Settlement  model.Settlement `json:"settlement"`
	BookingData model.DataPairs  `json:"booking_data"`
}

// SettlementSummary 司机结算汇总
type SettlementSummary struct {
	TotalSettledAmount   decimal.Decimal `json:"total_settled_amount"`
	CurrentWalletBalance decimal.Decimal `json:"current_wallet_balance"`
}

// PendingSettlementItem 待结算订单
type PendingSettlementItem struct {
	BookingID      string                `json:"booking_id"`
	DriverID       string                `json:"driver_id"`
	DriverName     string                `json:"driver_name"`
	WalletBalance  decimal.Decimal       `json:"wallet_balance"`
	Calculation    SettlementCalculation `json:"calculation"`
	RequiresAction bool                  `json:"requires_action"`
}

// BookingSettlementResponse 司机查看单个订单结算
type BookingSettlementResponse struct {
	BookingID   string                `json:"booking_id"`
	Settlement  model.Settlement      `json:"settlement"`
	Calculation SettlementCalculation `json:"calculation"`
}
