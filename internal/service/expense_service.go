package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// 自动对账结果状态
const (
	ReconcileApplied             = "applied"
	ReconcileUnchanged           = "unchanged"
	ReconcileSkippedInsufficient = "skipped_insufficient_balance"
	ReconcileSkippedSettled      = "skipped_settled"
	ReconcileWaitingReceiving    = "waiting_receiving"
	ReconcileDisabled            = "disabled"
	ReconcileFailed              = "failed"
)

// ExpenseService 支出业务接口
type ExpenseService interface {
	UpsertExpense(ctx context.Context, actor Actor, bookingID string, req *dto.ExpenseRequest, attachments []dto.Attachment) (*dto.ExpenseResponse, error)
	GetExpense(ctx context.Context, actor Actor, bookingID string) (*model.Expense, error)
	ReleaseExpenseClaim(ctx context.Context, actor Actor, bookingID string) (*model.Expense, error)
}

type expenseService struct {
	repo          *repository.Repository
	logger        *zap.Logger
	autoReconcile bool
}

// NewExpenseService 创建 ExpenseService 实例
// autoReconcile 控制支出保存后是否自动对账
func NewExpenseService(repo *repository.Repository, logger *zap.Logger, autoReconcile bool) ExpenseService {
	return &expenseService{repo: repo, logger: logger, autoReconcile: autoReconcile}
}

// ────────────────────── UpsertExpense ──────────────────────

func (s *expenseService) UpsertExpense(ctx context.Context, actor Actor, bookingID string, req *dto.ExpenseRequest, attachments []dto.Attachment) (*dto.ExpenseResponse, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	driverID, err := resolveEntryDriver(actor, booking)
	if err != nil {
		return nil, err
	}
	if err := requireDuty(ctx, s.repo, s.logger, driverID, bookingID); err != nil {
		return nil, err
	}

	expense, err := s.repo.Expense.GetByDriverAndBooking(ctx, driverID, bookingID)
	isNew := false
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("查询支出记录失败", zap.String("booking_id", bookingID), zap.Error(err))
			return nil, err
		}
		isNew = true
		expense = &model.Expense{
			DriverID:   driverID,
			BookingID:  bookingID,
			EntryClaim: model.EntryClaim{ClaimState: model.ClaimUnclaimed},
			EntryAudit: newAudit(actor),
		}
		expense.CreatedBy = strPtr(actor.ID)
	}

	now := time.Now()
	if err := claimEntry(&expense.EntryClaim, actor, now); err != nil {
		return nil, err
	}

	items, problems, err := parseBillingItems(req.BillingItems, expense.BillingItems, attachments)
	if err != nil {
		return nil, err
	}
	if err := newValidationError(problems); err != nil {
		return nil, err
	}

	expense.BillingItems = items
	expense.Allowances = allowancesFrom(&req.LedgerEntryRequest)
	expense.Notes = req.Notes
	expense.Recalculate()
	touchAudit(&expense.EntryAudit, actor, now)
	expense.UpdatedBy = strPtr(actor.ID)
	expense.UpdatedAt = now

	if isNew {
		err = s.repo.Expense.Create(ctx, expense)
	} else {
		err = s.repo.Expense.Update(ctx, expense)
	}
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrRecordExists) {
			s.logger.Error("保存支出记录失败",
				zap.String("booking_id", bookingID), zap.String("driver_id", driverID), zap.Error(err))
		}
		return nil, err
	}

	resp := &dto.ExpenseResponse{Expense: expense}
	resp.AutoReconcile = s.reconcile(ctx, actor, bookingID, expense)
	return resp, nil
}

// ────────────────────── 自动对账 ──────────────────────

// reconcile 支出保存后按差额增量调整司机钱包
// 失败不影响支出保存，结果通过状态返回
func (s *expenseService) reconcile(ctx context.Context, actor Actor, bookingID string, expense *model.Expense) *dto.AutoReconcileResult {
	if !s.autoReconcile {
		return &dto.AutoReconcileResult{Status: ReconcileDisabled}
	}

	result, err := s.applyReconciliation(ctx, actor, bookingID, expense)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrRecordExists) {
			return &dto.AutoReconcileResult{Status: ReconcileUnchanged}
		}
		s.logger.Error("自动对账失败", zap.String("booking_id", bookingID), zap.Error(err))
		return &dto.AutoReconcileResult{Status: ReconcileFailed}
	}
	return result
}

func (s *expenseService) applyReconciliation(ctx context.Context, actor Actor, bookingID string, expense *model.Expense) (*dto.AutoReconcileResult, error) {
	result := &dto.AutoReconcileResult{}
	dedupKey := fmt.Sprintf("auto:%s:%d", bookingID, expense.UpdatedAt.UnixNano())

	err := withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		booking, err := txRepo.Booking.GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.Settlement.IsSettled {
			result.Status = ReconcileSkippedSettled
			return nil
		}
		if !booking.HasDriver() {
			result.Status = ReconcileWaitingReceiving
			return nil
		}

		primary, receiving, err := loadLedgerSides(ctx, txRepo, booking)
		if err != nil {
			return err
		}
		if receiving == nil {
			result.Status = ReconcileWaitingReceiving
			return nil
		}
		if primary == nil {
			primary = expense
		}

		result.Difference = CalculateSettlement(primary, receiving).Difference
		result.Delta = result.Difference.Sub(booking.AutoReconciledAmount)
		if result.Delta.IsZero() {
			result.Status = ReconcileUnchanged
			return nil
		}

		exists, err := txRepo.Transaction.ExistsByDedupKey(ctx, dedupKey)
		if err != nil {
			return err
		}
		if exists {
			result.Status = ReconcileUnchanged
			return nil
		}

		driverID := *booking.DriverID
		if result.Delta.IsNegative() {
			balance, err := txRepo.Wallet.LockBalance(ctx, model.OwnerDriver, driverID)
			if err != nil {
				return err
			}
			if balance.LessThan(result.Delta.Abs()) {
				result.Status = ReconcileSkippedInsufficient
				return nil
			}
		}

		txn, _, err := applyWalletChange(ctx, txRepo, walletChange{
			Owner:       DriverWallet(driverID),
			Delta:       result.Delta,
			Category:    model.CategoryUserWallet,
			Description: fmt.Sprintf("auto reconciliation for booking %s", bookingID),
			ActorID:     actor.ID,
			BookingID:   strPtr(bookingID),
			DedupKey:    strPtr(dedupKey),
		})
		if err != nil {
			return err
		}

		booking.AutoReconciledAmount = result.Difference
		booking.UpdatedBy = strPtr(actor.ID)
		if err := txRepo.Booking.Update(ctx, booking); err != nil {
			return err
		}
		result.Status = ReconcileApplied
		result.TransactionID = txn.TransactionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == ReconcileApplied {
		s.logger.Info("自动对账已入账",
			zap.String("booking_id", bookingID),
			zap.String("delta", result.Delta.StringFixed(2)),
		)
	}
	return result, nil
}

// ────────────────────── 查询 / 释放认领 ──────────────────────

func (s *expenseService) GetExpense(ctx context.Context, actor Actor, bookingID string) (*model.Expense, error) {
	expense, err := s.findExpense(ctx, actor, bookingID)
	return expense, err
}

func (s *expenseService) ReleaseExpenseClaim(ctx context.Context, actor Actor, bookingID string) (*model.Expense, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	expense, err := s.findExpense(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if err := releaseClaim(&expense.EntryClaim, actor); err != nil {
		return nil, err
	}
	expense.UpdatedBy = strPtr(actor.ID)
	if err := s.repo.Expense.Update(ctx, expense); err != nil {
		s.logger.Error("释放支出认领失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return expense, nil
}

func (s *expenseService) findExpense(ctx context.Context, actor Actor, bookingID string) (*model.Expense, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	driverID, err := resolveEntryDriver(actor, booking)
	if err != nil {
		return nil, err
	}
	expense, err := s.repo.Expense.GetByDriverAndBooking(ctx, driverID, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrExpenseNotFound
		}
		s.logger.Error("查询支出记录失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return expense, nil
}
