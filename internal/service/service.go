package service

import (
	"go.uber.org/zap"

	"fleet-ledger/backend/config"
	"fleet-ledger/backend/internal/repository"
	"fleet-ledger/backend/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	User       UserService
	Wallet     WalletService
	Booking    BookingService
	Duty       DutyService
	Expense    ExpenseService
	Receiving  ReceivingService
	Settlement SettlementService
	Label      LabelService
	Export     ExportService
}

// NewService 创建 Service 聚合
// locker 与 blacklist 可为 nil（未配置 Redis）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	locker Locker,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:       NewUserService(repo, logger),
		Wallet:     NewWalletService(repo, logger),
		Booking:    NewBookingService(repo, logger),
		Duty:       NewDutyService(repo, logger),
		Expense:    NewExpenseService(repo, logger, cfg.Feature.AutoReconcileEnabled),
		Receiving:  NewReceivingService(repo, logger),
		Settlement: NewSettlementService(repo, logger, locker, cfg.Settlement.LockTTL),
		Label:      NewLabelService(repo, logger),
		Export:     NewExportService(repo, logger),
	}
}
