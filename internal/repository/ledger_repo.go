package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet-ledger/backend/internal/model"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// ── 支出 ──

// ExpenseRepository 支出数据访问接口
type ExpenseRepository interface {
	Create(ctx context.Context, expense *model.Expense) error
	Update(ctx context.Context, expense *model.Expense) error
	GetByID(ctx context.Context, id string) (*model.Expense, error)
	GetByDriverAndBooking(ctx context.Context, driverID, bookingID string) (*model.Expense, error)
	// GetLatestByBooking 订单的主支出：最近更新的一条
	GetLatestByBooking(ctx context.Context, bookingID string) (*model.Expense, error)
	ListByBooking(ctx context.Context, bookingID string) ([]model.Expense, error)
	ListByDriver(ctx context.Context, driverID string, offset, limit int) ([]model.Expense, int64, error)
}

type expenseRepo struct {
	db *gorm.DB
}

// NewExpenseRepo 创建 ExpenseRepository 实例
func NewExpenseRepo(db *gorm.DB) ExpenseRepository {
	return &expenseRepo{db: db}
}

func (r *expenseRepo) Create(ctx context.Context, expense *model.Expense) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(expense).Error)
}

func (r *expenseRepo) Update(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Save(expense).Error
}

func (r *expenseRepo) GetByID(ctx context.Context, id string) (*model.Expense, error) {
	var expense model.Expense
	if err := r.db.WithContext(ctx).Where("expense_id = ?", id).First(&expense).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepo) GetByDriverAndBooking(ctx context.Context, driverID, bookingID string) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND booking_id = ?", driverID, bookingID).
		First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepo) GetLatestByBooking(ctx context.Context, bookingID string) (*model.Expense, error) {
	var expense model.Expense
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("updated_at DESC").
		First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.Expense, error) {
	var expenses []model.Expense
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("updated_at DESC").
		Find(&expenses).Error
	return expenses, err
}

func (r *expenseRepo) ListByDriver(ctx context.Context, driverID string, offset, limit int) ([]model.Expense, int64, error) {
	var expenses []model.Expense
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Expense{}).Where("driver_id = ?", driverID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&expenses).Error; err != nil {
		return nil, 0, err
	}
	return expenses, total, nil
}

// ── 收款 ──

// ReceivingRepository 收款数据访问接口
type ReceivingRepository interface {
	Create(ctx context.Context, receiving *model.Receiving) error
	Update(ctx context.Context, receiving *model.Receiving) error
	GetByID(ctx context.Context, id string) (*model.Receiving, error)
	GetByDriverAndBooking(ctx context.Context, driverID, bookingID string) (*model.Receiving, error)
	ListByBooking(ctx context.Context, bookingID string) ([]model.Receiving, error)
	ListByDriver(ctx context.Context, driverID string, offset, limit int) ([]model.Receiving, int64, error)
}

type receivingRepo struct {
	db *gorm.DB
}

// NewReceivingRepo 创建 ReceivingRepository 实例
func NewReceivingRepo(db *gorm.DB) ReceivingRepository {
	return &receivingRepo{db: db}
}

func (r *receivingRepo) Create(ctx context.Context, receiving *model.Receiving) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(receiving).Error)
}

func (r *receivingRepo) Update(ctx context.Context, receiving *model.Receiving) error {
	return r.db.WithContext(ctx).Save(receiving).Error
}

func (r *receivingRepo) GetByID(ctx context.Context, id string) (*model.Receiving, error) {
	var receiving model.Receiving
	if err := r.db.WithContext(ctx).Where("receiving_id = ?", id).First(&receiving).Error; err != nil {
		return nil, err
	}
	return &receiving, nil
}

func (r *receivingRepo) GetByDriverAndBooking(ctx context.Context, driverID, bookingID string) (*model.Receiving, error) {
	var receiving model.Receiving
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND booking_id = ?", driverID, bookingID).
		First(&receiving).Error
	if err != nil {
		return nil, err
	}
	return &receiving, nil
}

func (r *receivingRepo) ListByBooking(ctx context.Context, bookingID string) ([]model.Receiving, error) {
	var receivings []model.Receiving
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("updated_at DESC").
		Find(&receivings).Error
	return receivings, err
}

func (r *receivingRepo) ListByDriver(ctx context.Context, driverID string, offset, limit int) ([]model.Receiving, int64, error) {
	var receivings []model.Receiving
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Receiving{}).Where("driver_id = ?", driverID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&receivings).Error; err != nil {
		return nil, 0, err
	}
	return receivings, total, nil
}
