package service

import (
	"github.com/shopspring/decimal"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
)

// CalculateSettlement 计算支出与收款差额
// difference = round2(支出合计 − 收款合计)；正数表示公司欠司机；缺失一侧按 0 计
func CalculateSettlement(expense *model.Expense, receiving *model.Receiving) dto.SettlementCalculation {
	var calc dto.SettlementCalculation

	if expense != nil {
		billing := expense.BillingItems.Sum()
		calc.Expense = dto.SideBreakdown{
			BillingTotal:   billing,
			AllowanceTotal: expense.TotalAllowances,
			Total:          billing.Add(expense.TotalAllowances),
			Present:        true,
		}
	}
	if receiving != nil {
		billing := receiving.BillingItems.Sum()
		client := receiving.TotalReceivingAmount.Sub(receiving.TotalAllowances)
		calc.Receiving = dto.SideBreakdown{
			BillingTotal:   billing,
			AllowanceTotal: receiving.TotalAllowances,
			ClientTotal:    client,
			Total:          billing.Add(receiving.TotalReceivingAmount),
			Present:        true,
		}
	}

	calc.ExpenseTotal = calc.Expense.Total.Round(2)
	calc.ReceivingTotal = calc.Receiving.Total.Round(2)
	calc.Difference = calc.Expense.Total.Sub(calc.Receiving.Total).Round(2)
	return calc
}

// settlementAction credit | debit | none
func settlementAction(amount decimal.Decimal) string {
	switch amount.Sign() {
	case 1:
		return model.TxnCredit
	case -1:
		return model.TxnDebit
	default:
		return "none"
	}
}
