package dto

import (
	"github.com/shopspring/decimal"

	"fleet-ledger/backend/internal/model"
)

// ── 钱包 DTO ──

// WalletAmountRequest 入账/出账请求
type WalletAmountRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

// WalletTransferRequest 钱包间转账
type WalletTransferRequest struct {
	FromKind    string          `json:"from_kind"   binding:"required,oneof=driver admin"`
	FromID      string          `json:"from_id"     binding:"required,uuid"`
	ToKind      string          `json:"to_kind"     binding:"required,oneof=driver admin"`
	ToID        string          `json:"to_id"       binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

// CollectFromDriverRequest 向欠款司机收款
type CollectFromDriverRequest struct {
	DriverID    string          `json:"driver_id"   binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=500"`
}

// WalletMutationResponse 单笔入账/出账结果
type WalletMutationResponse struct {
	Transaction *model.WalletTransaction `json:"transaction"`
	Balance     decimal.Decimal          `json:"balance"`
}

// WalletTransferResponse 转账结果
type WalletTransferResponse struct {
	Reference   string                   `json:"reference"`
	Debit       *model.WalletTransaction `json:"debit"`
	Credit      *model.WalletTransaction `json:"credit"`
	FromBalance decimal.Decimal          `json:"from_balance"`
	ToBalance   decimal.Decimal          `json:"to_balance"`
}

// WalletDetailsResponse 钱包详情
type WalletDetailsResponse struct {
	OwnerKind        string          `json:"owner_kind"`
	OwnerID          string          `json:"owner_id"`
	Balance          decimal.Decimal `json:"balance"`
	TotalCredit      decimal.Decimal `json:"total_credit"`
	TotalDebit       decimal.Decimal `json:"total_debit"`
	TransactionCount int64           `json:"transaction_count"`
	Explanation      string          `json:"explanation"`
}
