package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
)

// Actor 当前操作者（来自 JWT）
type Actor struct {
	ID   string
	Role string
}

// IsDriver 司机自助路径
func (a Actor) IsDriver() bool { return a.Role == model.RoleDriver }

// IsAdmin admin 或 subadmin
func (a Actor) IsAdmin() bool { return model.IsAdminRole(a.Role) }

// withTx 在一个数据库事务中执行 fn
// 未绑定数据库时 tx 为 nil，fn 直接使用原聚合
func withTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(txRepo *repository.Repository) error) (err error) {
	tx, err := repo.BeginTx(ctx)
	if err != nil {
		logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	if err := fn(repo.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func isNotFound(err error) bool { return err != nil && errors.Is(err, gorm.ErrRecordNotFound) }
