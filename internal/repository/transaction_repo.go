package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fleet-ledger/backend/internal/model"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// TransactionSummary 钱包流水汇总
type TransactionSummary struct {
	TotalCredit decimal.Decimal
	TotalDebit  decimal.Decimal
	Count       int64
}

// TransactionRepository 钱包流水数据访问接口（只追加，无 Update/Delete）
type TransactionRepository interface {
	Create(ctx context.Context, txn *model.WalletTransaction) error
	GetByID(ctx context.Context, id string) (*model.WalletTransaction, error)
	ExistsByDedupKey(ctx context.Context, key string) (bool, error)
	ListByOwner(ctx context.Context, ownerKind, ownerID string, offset, limit int) ([]model.WalletTransaction, int64, error)
	ListAllByOwner(ctx context.Context, ownerKind, ownerID string) ([]model.WalletTransaction, error)
	ListByBooking(ctx context.Context, bookingID string) ([]model.WalletTransaction, error)
	SummarizeByOwner(ctx context.Context, ownerKind, ownerID string) (*TransactionSummary, error)
}

type transactionRepo struct {
	db *gorm.DB
}

// NewTransactionRepo 创建 TransactionRepository 实例
func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db: db}
}

func ownerColumn(ownerKind string) string {
	if ownerKind == model.OwnerAdmin {
		return "admin_id"
	}
	return "driver_id"
}

func (r *transactionRepo) Create(ctx context.Context, txn *model.WalletTransaction) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(txn).Error)
}

func (r *transactionRepo) GetByID(ctx context.Context, id string) (*model.WalletTransaction, error) {
	var txn model.WalletTransaction
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", id).First(&txn).Error; err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *transactionRepo) ExistsByDedupKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Where("dedup_key = ?", key).
		Count(&count).Error
	return count > 0, err
}

func (r *transactionRepo) ListByOwner(ctx context.Context, ownerKind, ownerID string, offset, limit int) ([]model.WalletTransaction, int64, error) {
	var txns []model.WalletTransaction
	var total int64

	db := r.db.WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Where("owner_kind = ? AND "+ownerColumn(ownerKind)+" = ?", ownerKind, ownerID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&txns).Error; err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

func (r *transactionRepo) ListAllByOwner(ctx context.Context, ownerKind, ownerID string) ([]model.WalletTransaction, error) {
	var txns []model.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("owner_kind = ? AND "+ownerColumn(ownerKind)+" = ?", ownerKind, ownerID).
		Order("created_at ASC").
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.WalletTransaction, error) {
	var txns []model.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&txns).Error
	return txns, err
}

func (r *transactionRepo) SummarizeByOwner(ctx context.Context, ownerKind, ownerID string) (*TransactionSummary, error) {
	var row struct {
		TotalCredit decimal.Decimal
		TotalDebit  decimal.Decimal
		Count       int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.WalletTransaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS total_credit, "+
				"COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS total_debit, "+
				"COUNT(*) AS count",
			model.TxnCredit, model.TxnDebit,
		).
		Where("owner_kind = ? AND "+ownerColumn(ownerKind)+" = ?", ownerKind, ownerID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &TransactionSummary{TotalCredit: row.TotalCredit, TotalDebit: row.TotalDebit, Count: row.Count}, nil
}
