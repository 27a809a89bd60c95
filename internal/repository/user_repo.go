package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet-ledger/backend/internal/model"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// ── 司机 ──

// DriverRepository 司机数据访问接口
// 钱包余额只能经由 WalletRepository 修改
type DriverRepository interface {
	Create(ctx context.Context, driver *model.Driver) error
	GetByID(ctx context.Context, id string) (*model.Driver, error)
	GetByCode(ctx context.Context, code string) (*model.Driver, error)
	List(ctx context.Context, keyword string, offset, limit int) ([]model.Driver, int64, error)
	SetActive(ctx context.Context, id string, active bool, updatedBy string) error
}

type driverRepo struct {
	db *gorm.DB
}

// NewDriverRepo 创建 DriverRepository 实例
func NewDriverRepo(db *gorm.DB) DriverRepository {
	return &driverRepo{db: db}
}

func (r *driverRepo) Create(ctx context.Context, driver *model.Driver) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(driver).Error)
}

func (r *driverRepo) GetByID(ctx context.Context, id string) (*model.Driver, error) {
	var driver model.Driver
	if err := r.db.WithContext(ctx).Where("driver_id = ?", id).First(&driver).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepo) GetByCode(ctx context.Context, code string) (*model.Driver, error) {
	var driver model.Driver
	if err := r.db.WithContext(ctx).Where("driver_code = ?", code).First(&driver).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}

func (r *driverRepo) List(ctx context.Context, keyword string, offset, limit int) ([]model.Driver, int64, error) {
	var drivers []model.Driver
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Driver{})
	if keyword != "" {
		like := "%" + keyword + "%"
		db = db.Where("name ILIKE ? OR driver_code ILIKE ? OR mobile ILIKE ?", like, like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&drivers).Error; err != nil {
		return nil, 0, err
	}
	return drivers, total, nil
}

func (r *driverRepo) SetActive(ctx context.Context, id string, active bool, updatedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Driver{}).
		Where("driver_id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_by": updatedBy})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ── 后台账号 ──

// AdminRepository 后台账号数据访问接口
type AdminRepository interface {
	Create(ctx context.Context, admin *model.Admin) error
	GetByID(ctx context.Context, id string) (*model.Admin, error)
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	List(ctx context.Context) ([]model.Admin, error)
}

type adminRepo struct {
	db *gorm.DB
}

// NewAdminRepo 创建 AdminRepository 实例
func NewAdminRepo(db *gorm.DB) AdminRepository {
	return &adminRepo{db: db}
}

func (r *adminRepo) Create(ctx context.Context, admin *model.Admin) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(admin).Error)
}

func (r *adminRepo) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Where("admin_id = ?", id).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepo) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepo) List(ctx context.Context) ([]model.Admin, error) {
	var admins []model.Admin
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}
