package repository

import (
	"context"

	"gorm.io/gorm"

	"fleet-ledger/backend/internal/model"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// LabelRepository 订单标签数据访问接口
type LabelRepository interface {
	Create(ctx context.Context, label *model.Label) error
	Update(ctx context.Context, label *model.Label) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Label, error)
	GetByIDs(ctx context.Context, ids []string) ([]model.Label, error)
	List(ctx context.Context) ([]model.Label, error)
}

type labelRepo struct {
	db *gorm.DB
}

// NewLabelRepo 创建 LabelRepository 实例
func NewLabelRepo(db *gorm.DB) LabelRepository {
	return &labelRepo{db: db}
}

func (r *labelRepo) Create(ctx context.Context, label *model.Label) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Create(label).Error)
}

func (r *labelRepo) Update(ctx context.Context, label *model.Label) error {
	return pkgerrors.TranslateDuplicate(r.db.WithContext(ctx).Save(label).Error)
}

// Delete 删除标签及其订单关联
func (r *labelRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM booking_labels WHERE label_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Where("label_id = ?", id).Delete(&model.Label{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *labelRepo) GetByID(ctx context.Context, id string) (*model.Label, error) {
	var label model.Label
	if err := r.db.WithContext(ctx).Where("label_id = ?", id).First(&label).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

func (r *labelRepo) GetByIDs(ctx context.Context, ids []string) ([]model.Label, error) {
	var labels []model.Label
	if len(ids) == 0 {
		return labels, nil
	}
	err := r.db.WithContext(ctx).Where("label_id IN ?", ids).Find(&labels).Error
	return labels, err
}

func (r *labelRepo) List(ctx context.Context) ([]model.Label, error) {
	var labels []model.Label
	err := r.db.WithContext(ctx).Order("name ASC").Find(&labels).Error
	return labels, err
}
