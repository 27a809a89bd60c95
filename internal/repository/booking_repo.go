package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"fleet-ledger/backend/internal/model"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// BookingFilter 订单列表筛选条件
type BookingFilter struct {
	DriverID string
	Status   *int
	LabelID  string
	Settled  *bool
	Keyword  string
}

// BookingRepository 订单数据访问接口
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error)
	GetByExternalDutyID(ctx context.Context, dutyID string) (*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
	List(ctx context.Context, filter BookingFilter, offset, limit int) ([]model.Booking, int64, error)
	ListSettledByDriver(ctx context.Context, driverID, status string, offset, limit int) ([]model.Booking, int64, error)
	SumSettledByDriver(ctx context.Context, driverID, status string) (decimal.Decimal, error)
	ListPendingSettlement(ctx context.Context) ([]model.Booking, error)
	ReplaceLabels(ctx context.Context, bookingID string, labels []model.Label) error
	AddLabels(ctx context.Context, bookingID string, labels []model.Label) error
	RemoveLabels(ctx context.Context, bookingID string, labels []model.Label) error
}

type bookingRepo struct {
	db *gorm.DB
}

// NewBookingRepo 创建 BookingRepository 实例
func NewBookingRepo(db *gorm.DB) BookingRepository {
	return &bookingRepo{db: db}
}

func (r *bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error)
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Preload("Driver").
		Preload("Labels").
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetByIDForUpdate 读取并锁定订单行（须在事务内调用）
func (r *bookingRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_id = ?", id).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepo) GetByExternalDutyID(ctx context.Context, dutyID string) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.WithContext(ctx).
		Where("external_duty_id = ?", dutyID).
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// Update 乐观锁更新：version 不匹配时返回 ErrOptimisticLock
func (r *bookingRepo) Update(ctx context.Context, booking *model.Booking) error {
	oldVersion := booking.Version
	s := booking.Settlement
	result := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("booking_id = ? AND version = ?", booking.BookingID, oldVersion).
		Updates(map[string]interface{}{
			"driver_id":              booking.DriverID,
			"external_duty_id":       booking.ExternalDutyID,
			"data":                   booking.Data,
			"duty_record_id":         booking.DutyRecordID,
			"receiving_id":           booking.ReceivingID,
			"status":                 booking.Status,
			"completed_at":           booking.CompletedAt,
			"auto_reconciled_amount": booking.AutoReconciledAmount,

			"settlement_is_settled":              s.IsSettled,
			"settlement_status":                  s.Status,
			"settlement_settlement_amount":       s.SettlementAmount,
			"settlement_calculated_amount":       s.CalculatedAmount,
			"settlement_admin_adjustments":       s.AdminAdjustments,
			"settlement_notes":                   s.Notes,
			"settlement_settled_at":              s.SettledAt,
			"settlement_settled_by":              s.SettledBy,
			"settlement_settled_by_role":         s.SettledByRole,
			"settlement_transaction_id":          s.TransactionID,
			"settlement_driver_id":               s.DriverID,
			"settlement_marked_completed":        s.MarkedCompleted,
			"settlement_admin_wallet_adjusted":   s.AdminWalletAdjusted,
			"settlement_admin_transaction_id":    s.AdminTransactionID,
			"settlement_admin_id":                s.AdminID,
			"settlement_reversed_at":             s.ReversedAt,
			"settlement_reversed_by":             s.ReversedBy,
			"settlement_reversal_reason":         s.ReversalReason,
			"settlement_reversal_transaction_id": s.ReversalTransactionID,

			"updated_by": booking.UpdatedBy,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return pkgerrors.TranslateDuplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	booking.Version = oldVersion + 1
	return nil
}

func (r *bookingRepo) List(ctx context.Context, filter BookingFilter, offset, limit int) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Booking{})
	if filter.DriverID != "" {
		db = db.Where("driver_id = ?", filter.DriverID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.Settled != nil {
		db = db.Where("settlement_is_settled = ?", *filter.Settled)
	}
	if filter.LabelID != "" {
		db = db.Where("booking_id IN (?)",
			r.db.Table("booking_labels").Select("booking_id").Where("label_id = ?", filter.LabelID))
	}
	if filter.Keyword != "" {
		// data 为 [{key,value}] 数组，按任意字段值模糊匹配
		db = db.Where("EXISTS (SELECT 1 FROM jsonb_array_elements(data) e WHERE e->>'value' ILIKE ?)",
			"%"+filter.Keyword+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Driver").Preload("Labels").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepo) settledByDriver(ctx context.Context, driverID, status string) *gorm.DB {
	db := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("driver_id = ? AND settlement_is_settled = ?", driverID, true)
	if status != "" {
		db = db.Where("settlement_status = ?", status)
	}
	return db
}

func (r *bookingRepo) ListSettledByDriver(ctx context.Context, driverID, status string, offset, limit int) ([]model.Booking, int64, error) {
	var bookings []model.Booking
	var total int64

	if err := r.settledByDriver(ctx, driverID, status).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.settledByDriver(ctx, driverID, status).
		Order("settlement_settled_at DESC").
		Offset(offset).Limit(limit).
		Find(&bookings).Error; err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *bookingRepo) SumSettledByDriver(ctx context.Context, driverID, status string) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.settledByDriver(ctx, driverID, status).
		Select("COALESCE(SUM(settlement_settlement_amount), 0) AS total").
		Scan(&row).Error
	return row.Total, err
}

func (r *bookingRepo) ListPendingSettlement(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Preload("Driver").
		Where("settlement_status = ? AND driver_id IS NOT NULL", model.SettlementPending).
		Order("created_at ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *bookingRepo) association(ctx context.Context, bookingID string) *gorm.Association {
	return r.db.WithContext(ctx).Model(&model.Booking{BookingID: bookingID}).Association("Labels")
}

func (r *bookingRepo) ReplaceLabels(ctx context.Context, bookingID string, labels []model.Label) error {
	if len(labels) == 0 {
		return r.association(ctx, bookingID).Clear()
	}
	return r.association(ctx, bookingID).Replace(labels)
}

func (r *bookingRepo) AddLabels(ctx context.Context, bookingID string, labels []model.Label) error {
	if len(labels) == 0 {
		return nil
	}
	return r.association(ctx, bookingID).Append(labels)
}

func (r *bookingRepo) RemoveLabels(ctx context.Context, bookingID string, labels []model.Label) error {
	if len(labels) == 0 {
		return nil
	}
	return r.association(ctx, bookingID).Delete(labels)
}
