package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
)

var (
	ErrAlreadySettled          = errors.New("该订单已结算")
	ErrNotSettled              = errors.New("该订单尚未结算")
	ErrSettlementNoExpense     = errors.New("订单缺少支出记录，且未提供手工金额")
	ErrSettlementInProgress    = errors.New("该订单正在结算中，请稍后重试")
	ErrTransferAlreadyRecorded = errors.New("该订单的线下转账已登记")
	ErrNoTransferRequired      = errors.New("结算金额为 0，无需转账")
)

// Locker 分布式互斥锁（由 Redis 客户端实现）
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

// SettlementService 结算业务接口
type SettlementService interface {
	Preview(ctx context.Context, bookingID string) (*dto.SettlementPreviewResponse, error)
	Process(ctx context.Context, actor Actor, bookingID string, req *dto.ProcessSettlementRequest) (*dto.ProcessSettlementResponse, error)
	RecordTransfer(ctx context.Context, actor Actor, bookingID string) (*dto.RecordTransferResponse, error)
	Reverse(ctx context.Context, actor Actor, bookingID, reason string) (*dto.ReverseSettlementResponse, error)

	ListDriverSettlements(ctx context.Context, driverID, status string, page *dto.PaginationRequest) ([]dto.SettlementItem, int64, *dto.SettlementSummary, error)
	ListPending(ctx context.Context) ([]dto.PendingSettlementItem, error)
	MySettlements(ctx context.Context, driverID string, page *dto.PaginationRequest) ([]dto.SettlementItem, int64, *dto.SettlementSummary, error)
	MyBookingSettlement(ctx context.Context, driverID, bookingID string) (*dto.BookingSettlementResponse, error)
}

type settlementService struct {
	repo    *repository.Repository
	logger  *zap.Logger
	locker  Locker
	lockTTL time.Duration
}

// NewSettlementService 创建 SettlementService 实例
// locker 为 nil 时仅依赖数据库行锁
func NewSettlementService(repo *repository.Repository, logger *zap.Logger, locker Locker, lockTTL time.Duration) SettlementService {
	return &settlementService{repo: repo, logger: logger, locker: locker, lockTTL: lockTTL}
}

// acquire 获取订单结算锁；Redis 不可用时降级为仅行锁
func (s *settlementService) acquire(ctx context.Context, bookingID string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}
	key := "settlement:lock:" + bookingID
	token, ok, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		s.logger.Warn("获取结算锁失败，降级为数据库行锁", zap.String("booking_id", bookingID), zap.Error(err))
		return noop, nil
	}
	if !ok {
		return nil, ErrSettlementInProgress
	}
	return func() {
		if err := s.locker.Release(context.Background(), key, token); err != nil {
			s.logger.Warn("释放结算锁失败", zap.String("booking_id", bookingID), zap.Error(err))
		}
	}, nil
}

// lockBooking 事务内锁定订单行
func lockBooking(ctx context.Context, txRepo *repository.Repository, bookingID string) (*model.Booking, error) {
	booking, err := txRepo.Booking.GetByIDForUpdate(ctx, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

// ────────────────────── Preview ──────────────────────

func (s *settlementService) Preview(ctx context.Context, bookingID string) (*dto.SettlementPreviewResponse, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.HasDriver() {
		return nil, ErrBookingNoDriver
	}
	driverID := *booking.DriverID
	if booking.Settlement.IsSettled {
		driverID = settledDriverID(booking)
	}

	expense, receiving, err := loadLedgerSides(ctx, s.repo, booking)
	if err != nil {
		s.logger.Error("读取支出/收款失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	balance, err := s.repo.Wallet.GetBalance(ctx, model.OwnerDriver, driverID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDriverNotFound
		}
		s.logger.Error("查询司机余额失败", zap.String("driver_id", driverID), zap.Error(err))
		return nil, err
	}

	calc := CalculateSettlement(expense, receiving)
	return &dto.SettlementPreviewResponse{
		BookingID:              bookingID,
		DriverID:               driverID,
		Calculation:            calc,
		CurrentWalletBalance:   balance,
		Action:                 settlementAction(calc.Difference),
		AbsAmount:              calc.Difference.Abs(),
		ProjectedWalletBalance: balance.Add(calc.Difference),
		Explanation:            explainDifference(calc.Difference),
		IsSettled:              booking.Settlement.IsSettled,
		AutoReconciledAmount:   booking.AutoReconciledAmount,
		AutoReconcileWarning:   autoReconcileWarning(booking.AutoReconciledAmount),
	}, nil
}

// autoReconcileWarning 自动对账与结算分别入账，结算不扣除已自动入账的金额
func autoReconcileWarning(applied decimal.Decimal) string {
	if applied.IsZero() {
		return ""
	}
	return fmt.Sprintf("auto reconciliation already applied %s to the driver wallet; settlement applies its amount in full on top",
		applied.StringFixed(2))
}

func explainDifference(diff decimal.Decimal) string {
	amount := diff.Abs().StringFixed(2)
	switch diff.Sign() {
	case 1:
		return fmt.Sprintf("company owes driver %s; driver wallet will be credited", amount)
	case -1:
		return fmt.Sprintf("driver owes company %s; driver wallet will be debited", amount)
	default:
		return "expense and receiving are balanced; wallet unchanged"
	}
}

// ────────────────────── Process ──────────────────────

func (s *settlementService) Process(ctx context.Context, actor Actor, bookingID string, req *dto.ProcessSettlementRequest) (*dto.ProcessSettlementResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	release, err := s.acquire(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer release()

	resp := &dto.ProcessSettlementResponse{BookingID: bookingID}
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		booking, err := lockBooking(ctx, txRepo, bookingID)
		if err != nil {
			return err
		}
		if !booking.HasDriver() {
			return ErrBookingNoDriver
		}
		if booking.Settlement.IsSettled {
			return ErrAlreadySettled
		}

		expense, receiving, err := loadLedgerSides(ctx, txRepo, booking)
		if err != nil {
			return err
		}
		if expense == nil && req.ManualAmount == nil {
			return ErrSettlementNoExpense
		}

		calc := CalculateSettlement(expense, receiving)
		base := calc.Difference
		if req.ManualAmount != nil {
			base = *req.ManualAmount
		}
		final := base.Add(req.AdminAdjustment).Round(2)

		txn, balance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       DriverWallet(*booking.DriverID),
			Delta:       final,
			Category:    model.CategoryUserWallet,
			Description: fmt.Sprintf("settlement for booking %s", bookingID),
			ActorID:     actor.ID,
			BookingID:   strPtr(bookingID),
		})
		if err != nil {
			return err
		}

		now := time.Now()
		booking.Settlement = model.Settlement{
			IsSettled:        true,
			Status:           model.SettlementCompleted,
			SettlementAmount: final,
			CalculatedAmount: calc.Difference,
			AdminAdjustments: req.AdminAdjustment,
			Notes:            req.Notes,
			SettledAt:        &now,
			SettledBy:        strPtr(actor.ID),
			SettledByRole:    actor.Role,
			TransactionID:    strPtr(txn.TransactionID),
			DriverID:         strPtr(*booking.DriverID),
		}
		if req.MarkCompleted {
			booking.Status = model.BookingStatusCompleted
			booking.CompletedAt = &now
			booking.Settlement.MarkedCompleted = true
		}
		booking.UpdatedBy = strPtr(actor.ID)
		if err := txRepo.Booking.Update(ctx, booking); err != nil {
			return err
		}

		resp.Settlement = booking.Settlement
		resp.FinalAmount = final
		resp.WalletBalance = balance
		resp.TransactionID = txn.TransactionID
		resp.AutoReconciledAmount = booking.AutoReconciledAmount
		resp.AutoReconcileWarning = autoReconcileWarning(booking.AutoReconciledAmount)
		return nil
	})
	if err != nil {
		if !isSettlementBusinessErr(err) {
			s.logger.Error("结算失败", zap.String("booking_id", bookingID), zap.Error(err))
		}
		return nil, err
	}

	resp.ManualTransferRequired = !resp.FinalAmount.IsZero()
	switch resp.FinalAmount.Sign() {
	case 1:
		resp.NextStep = fmt.Sprintf("pay driver %s and record the transfer", resp.FinalAmount.StringFixed(2))
	case -1:
		resp.NextStep = fmt.Sprintf("collect %s from driver and record the transfer", resp.FinalAmount.Abs().StringFixed(2))
	}

	s.logger.Info("订单结算完成",
		zap.String("booking_id", bookingID),
		zap.String("amount", resp.FinalAmount.StringFixed(2)),
		zap.String("settled_by", actor.ID),
	)
	return resp, nil
}

// ────────────────────── RecordTransfer ──────────────────────

// RecordTransfer 登记线下转账：公司欠司机时后台钱包出账，司机欠公司时后台钱包入账
func (s *settlementService) RecordTransfer(ctx context.Context, actor Actor, bookingID string) (*dto.RecordTransferResponse, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	release, err := s.acquire(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer release()

	resp := &dto.RecordTransferResponse{BookingID: bookingID, AdminID: actor.ID}
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		booking, err := lockBooking(ctx, txRepo, bookingID)
		if err != nil {
			return err
		}
		if !booking.Settlement.IsSettled {
			return ErrNotSettled
		}
		if booking.Settlement.AdminWalletAdjusted {
			return ErrTransferAlreadyRecorded
		}
		amount := booking.Settlement.SettlementAmount
		if amount.IsZero() {
			return ErrNoTransferRequired
		}

		txn, balance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       AdminWallet(actor.ID),
			Delta:       amount.Neg(),
			Category:    model.CategoryAdminWallet,
			Description: fmt.Sprintf("settlement transfer for booking %s", bookingID),
			ActorID:     actor.ID,
			Reference:   booking.Settlement.TransactionID,
			BookingID:   strPtr(bookingID),
		})
		if err != nil {
			return err
		}

		booking.Settlement.AdminWalletAdjusted = true
		booking.Settlement.AdminTransactionID = strPtr(txn.TransactionID)
		booking.Settlement.AdminID = strPtr(actor.ID)
		booking.UpdatedBy = strPtr(actor.ID)
		if err := txRepo.Booking.Update(ctx, booking); err != nil {
			return err
		}

		resp.AdminTransactionID = txn.TransactionID
		resp.AdminBalance = balance
		return nil
	})
	if err != nil {
		if !isSettlementBusinessErr(err) {
			s.logger.Error("登记线下转账失败", zap.String("booking_id", bookingID), zap.Error(err))
		}
		return nil, err
	}
	return resp, nil
}

// ────────────────────── Reverse ──────────────────────

// Reverse 冲正结算：以新的反向流水抵消，不修改既有流水
func (s *settlementService) Reverse(ctx context.Context, actor Actor, bookingID, reason string) (*dto.ReverseSettlementResponse, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	release, err := s.acquire(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer release()

	resp := &dto.ReverseSettlementResponse{BookingID: bookingID}
	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		booking, err := lockBooking(ctx, txRepo, bookingID)
		if err != nil {
			return err
		}
		st := &booking.Settlement
		if !st.IsSettled {
			return ErrNotSettled
		}
		driverID := settledDriverID(booking)
		if driverID == "" {
			return ErrBookingNoDriver
		}

		ref := uuid.NewString()
		description := fmt.Sprintf("settlement reversal for booking %s: %s", bookingID, reason)
		txn, balance, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       DriverWallet(driverID),
			Delta:       st.SettlementAmount.Neg(),
			Category:    model.CategoryUserWallet,
			Description: description,
			ActorID:     actor.ID,
			Reference:   &ref,
			BookingID:   strPtr(bookingID),
		})
		if err != nil {
			return err
		}

		if st.AdminWalletAdjusted && st.AdminID != nil {
			adminTxn, _, err := applyWalletChange(ctx, txRepo, walletChange{
				Owner:       AdminWallet(*st.AdminID),
				Delta:       st.SettlementAmount,
				Category:    model.CategoryAdminWallet,
				Description: description,
				ActorID:     actor.ID,
				Reference:   &ref,
				BookingID:   strPtr(bookingID),
			})
			if err != nil {
				return err
			}
			resp.AdminReversalTxnID = adminTxn.TransactionID
		}

		now := time.Now()
		st.IsSettled = false
		st.Status = model.SettlementReversed
		st.ReversedAt = &now
		st.ReversedBy = strPtr(actor.ID)
		st.ReversalReason = reason
		st.ReversalTransactionID = strPtr(txn.TransactionID)
		if st.MarkedCompleted {
			booking.Status = model.BookingStatusOpen
			booking.CompletedAt = nil
			st.MarkedCompleted = false
		}
		booking.UpdatedBy = strPtr(actor.ID)
		if err := txRepo.Booking.Update(ctx, booking); err != nil {
			return err
		}

		resp.ReversedAmount = st.SettlementAmount
		resp.WalletBalance = balance
		resp.ReversalTransactionID = txn.TransactionID
		return nil
	})
	if err != nil {
		if !isSettlementBusinessErr(err) {
			s.logger.Error("冲正结算失败", zap.String("booking_id", bookingID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("订单结算已冲正",
		zap.String("booking_id", bookingID),
		zap.String("amount", resp.ReversedAmount.StringFixed(2)),
		zap.String("reversed_by", actor.ID),
	)
	return resp, nil
}

// ────────────────────── 列表查询 ──────────────────────

func (s *settlementService) ListDriverSettlements(ctx context.Context, driverID, status string, page *dto.PaginationRequest) ([]dto.SettlementItem, int64, *dto.SettlementSummary, error) {
	balance, err := s.repo.Wallet.GetBalance(ctx, model.OwnerDriver, driverID)
	if err != nil {
		if isNotFound(err) {
			return nil, 0, nil, ErrDriverNotFound
		}
		s.logger.Error("查询司机余额失败", zap.String("driver_id", driverID), zap.Error(err))
		return nil, 0, nil, err
	}

	bookings, total, err := s.repo.Booking.ListSettledByDriver(ctx, driverID, status, page.GetOffset(), page.GetPageSize())
	if err != nil {
		s.logger.Error("查询司机结算列表失败", zap.String("driver_id", driverID), zap.Error(err))
		return nil, 0, nil, err
	}
	sum, err := s.repo.Booking.SumSettledByDriver(ctx, driverID, status)
	if err != nil {
		s.logger.Error("汇总司机结算金额失败", zap.String("driver_id", driverID), zap.Error(err))
		return nil, 0, nil, err
	}

	items := make([]dto.SettlementItem, 0, len(bookings))
	for i := range bookings {
		items = append(items, toSettlementItem(&bookings[i]))
	}
	return items, total, &dto.SettlementSummary{TotalSettledAmount: sum, CurrentWalletBalance: balance}, nil
}

func (s *settlementService) ListPending(ctx context.Context) ([]dto.PendingSettlementItem, error) {
	bookings, err := s.repo.Booking.ListPendingSettlement(ctx)
	if err != nil {
		s.logger.Error("查询待结算订单失败", zap.Error(err))
		return nil, err
	}

	items := make([]dto.PendingSettlementItem, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		if !b.HasDriver() {
			continue
		}
		expense, receiving, err := loadLedgerSides(ctx, s.repo, b)
		if err != nil {
			s.logger.Error("读取支出/收款失败", zap.String("booking_id", b.BookingID), zap.Error(err))
			return nil, err
		}
		calc := CalculateSettlement(expense, receiving)

		item := dto.PendingSettlementItem{
			BookingID:   b.BookingID,
			DriverID:    *b.DriverID,
			Calculation: calc,
		}
		if b.Driver != nil {
			item.DriverName = b.Driver.Name
			item.WalletBalance = b.Driver.WalletBalance
		}
		item.RequiresAction = calc.Difference.IsNegative() && calc.Difference.Abs().GreaterThan(item.WalletBalance)
		items = append(items, item)
	}
	return items, nil
}

func (s *settlementService) MySettlements(ctx context.Context, driverID string, page *dto.PaginationRequest) ([]dto.SettlementItem, int64, *dto.SettlementSummary, error) {
	return s.ListDriverSettlements(ctx, driverID, "", page)
}

// MyBookingSettlement 司机查看自己订单的结算；非本人订单视为不存在
func (s *settlementService) MyBookingSettlement(ctx context.Context, driverID, bookingID string) (*dto.BookingSettlementResponse, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.HasDriver() || *booking.DriverID != driverID {
		return nil, ErrBookingNotFound
	}
	expense, receiving, err := loadLedgerSides(ctx, s.repo, booking)
	if err != nil {
		s.logger.Error("读取支出/收款失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return &dto.BookingSettlementResponse{
		BookingID:   bookingID,
		Settlement:  booking.Settlement,
		Calculation: CalculateSettlement(expense, receiving),
	}, nil
}

func toSettlementItem(b *model.Booking) dto.SettlementItem {
	item := dto.SettlementItem{
		BookingID:   b.BookingID,
		Settlement:  b.Settlement,
		BookingData: b.Data,
	}
	if b.ExternalDutyID != nil {
		item.DutyID = *b.ExternalDutyID
	}
	return item
}

func isSettlementBusinessErr(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrBookingNoDriver) ||
		errors.Is(err, ErrAlreadySettled) ||
		errors.Is(err, ErrNotSettled) ||
		errors.Is(err, ErrSettlementNoExpense) ||
		errors.Is(err, ErrSettlementInProgress) ||
		errors.Is(err, ErrTransferAlreadyRecorded) ||
		errors.Is(err, ErrNoTransferRequired) ||
		isWalletBusinessErr(err)
}
