package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet-ledger/backend/internal/model"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// DutyRecordRepository 出车记录数据访问接口
type DutyRecordRepository interface {
	Create(ctx context.Context, record *model.DutyRecord) error
	Update(ctx context.Context, record *model.DutyRecord) error
	GetByID(ctx context.Context, id string) (*model.DutyRecord, error)
	GetByBooking(ctx context.Context, bookingID string) (*model.DutyRecord, error)
	GetByDriverAndBooking(ctx context.Context, driverID, bookingID string) (*model.DutyRecord, error)
	ListByDriver(ctx context.Context, driverID string, offset, limit int) ([]model.DutyRecord, int64, error)
}

type dutyRecordRepo struct {
	db *gorm.DB
}

// NewDutyRecordRepo 创建 DutyRecordRepository 实例
func NewDutyRecordRepo(db *gorm.DB) DutyRecordRepository {
	return &dutyRecordRepo{db: db}
}

func (r *dutyRecordRepo) Create(ctx context.Context, record *model.DutyRecord) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(record).Error)
}

func (r *dutyRecordRepo) Update(ctx context.Context, record *model.DutyRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

func (r *dutyRecordRepo) GetByID(ctx context.Context, id string) (*model.DutyRecord, error) {
	var record model.DutyRecord
	if err := r.db.WithContext(ctx).Where("duty_record_id = ?", id).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetByBooking 一个订单至多一条出车记录（取最早创建的一条）
func (r *dutyRecordRepo) GetByBooking(ctx context.Context, bookingID string) (*model.DutyRecord, error) {
	var record model.DutyRecord
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *dutyRecordRepo) GetByDriverAndBooking(ctx context.Context, driverID, bookingID string) (*model.DutyRecord, error) {
	var record model.DutyRecord
	err := r.db.WithContext(ctx).
		Where("driver_id = ? AND booking_id = ?", driverID, bookingID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *dutyRecordRepo) ListByDriver(ctx context.Context, driverID string, offset, limit int) ([]model.DutyRecord, int64, error) {
	var records []model.DutyRecord
	var total int64

	db := r.db.WithContext(ctx).Model(&model.DutyRecord{}).Where("driver_id = ?", driverID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("duty_start_date DESC").Offset(offset).Limit(limit).Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
