package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet-ledger/backend/internal/model"
)

// WalletRepository 钱包余额读写
// LockBalance 必须在事务内调用，行锁持有到事务结束
type WalletRepository interface {
	GetBalance(ctx context.Context, ownerKind, ownerID string) (decimal.Decimal, error)
	LockBalance(ctx context.Context, ownerKind, ownerID string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, ownerKind, ownerID string, balance decimal.Decimal) error
}

type walletRepo struct {
	db *gorm.DB
}

// NewWalletRepo 创建 WalletRepository 实例
func NewWalletRepo(db *gorm.DB) WalletRepository {
	return &walletRepo{db: db}
}

// walletTable 返回钱包所在表与主键列
func walletTable(ownerKind string) (table, idColumn string, err error) {
	switch ownerKind {
	case model.OwnerDriver:
		return "drivers", "driver_id", nil
	case model.OwnerAdmin:
		return "admins", "admin_id", nil
	default:
		return "", "", fmt.Errorf("未知的钱包归属: %q", ownerKind)
	}
}

type balanceRow struct {
	WalletBalance decimal.Decimal
}

func (r *walletRepo) GetBalance(ctx context.Context, ownerKind, ownerID string) (decimal.Decimal, error) {
	return r.selectBalance(ctx, ownerKind, ownerID, false)
}

func (r *walletRepo) LockBalance(ctx context.Context, ownerKind, ownerID string) (decimal.Decimal, error) {
	return r.selectBalance(ctx, ownerKind, ownerID, true)
}

func (r *walletRepo) selectBalance(ctx context.Context, ownerKind, ownerID string, forUpdate bool) (decimal.Decimal, error) {
	table, idColumn, err := walletTable(ownerKind)
	if err != nil {
		return decimal.Zero, err
	}

	var row balanceRow
	db := r.db.WithContext(ctx).Table(table).Select("wallet_balance").Where(idColumn+" = ?", ownerID)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := db.Take(&row).Error; err != nil {
		return decimal.Zero, err
	}
	return row.WalletBalance, nil
}

func (r *walletRepo) SetBalance(ctx context.Context, ownerKind, ownerID string, balance decimal.Decimal) error {
	table, idColumn, err := walletTable(ownerKind)
	if err != nil {
		return err
	}

	result := r.db.WithContext(ctx).
		Table(table).
		Where(idColumn+" = ?", ownerID).
		Updates(map[string]interface{}{
			"wallet_balance": balance,
			"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
