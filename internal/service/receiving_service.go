package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// ReceivingService 收款业务接口
type ReceivingService interface {
	UpsertReceiving(ctx context.Context, actor Actor, bookingID string, req *dto.ReceivingRequest, attachments []dto.Attachment) (*model.Receiving, error)
	GetReceiving(ctx context.Context, actor Actor, bookingID string) (*model.Receiving, error)
	ReleaseReceivingClaim(ctx context.Context, actor Actor, bookingID string) (*model.Receiving, error)
}

type receivingService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReceivingService 创建 ReceivingService 实例
func NewReceivingService(repo *repository.Repository, logger *zap.Logger) ReceivingService {
	return &receivingService{repo: repo, logger: logger}
}

// ────────────────────── UpsertReceiving ──────────────────────

func (s *receivingService) UpsertReceiving(ctx context.Context, actor Actor, bookingID string, req *dto.ReceivingRequest, attachments []dto.Attachment) (*model.Receiving, error) {
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

	receiving, err := s.repo.Receiving.GetByDriverAndBooking(ctx, driverID, bookingID)
	isNew := false
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("查询收款记录失败", zap.String("booking_id", bookingID), zap.Error(err))
			return nil, err
		}
		isNew = true
		receiving = &model.Receiving{
			DriverID:   driverID,
			BookingID:  bookingID,
			EntryClaim: model.EntryClaim{ClaimState: model.ClaimUnclaimed},
			EntryAudit: newAudit(actor),
		}
		receiving.CreatedBy = strPtr(actor.ID)
	}

	now := time.Now()
	if err := claimEntry(&receiving.EntryClaim, actor, now); err != nil {
		return nil, err
	}

	items, problems, err := parseBillingItems(req.BillingItems, receiving.BillingItems, attachments)
	if err != nil {
		return nil, err
	}
	if err := newValidationError(problems); err != nil {
		return nil, err
	}

	receiving.BillingItems = items
	receiving.Allowances = allowancesFrom(&req.LedgerEntryRequest)
	receiving.ReceivedFromClient = decOrZero(req.ReceivedFromClient)
	receiving.ClientAdvanceAmount = decOrZero(req.ClientAdvanceAmount)
	receiving.ClientBonusAmount = decOrZero(req.ClientBonusAmount)
	receiving.IncentiveAmount = decOrZero(req.IncentiveAmount)
	receiving.Notes = req.Notes
	receiving.Recalculate()
	touchAudit(&receiving.EntryAudit, actor, now)
	receiving.UpdatedBy = strPtr(actor.ID)
	receiving.UpdatedAt = now

	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if isNew {
			if err := txRepo.Receiving.Create(ctx, receiving); err != nil {
				return err
			}
		} else if err := txRepo.Receiving.Update(ctx, receiving); err != nil {
			return err
		}

		if booking.ReceivingID == nil {
			booking.ReceivingID = strPtr(receiving.ReceivingID)
			booking.UpdatedBy = strPtr(actor.ID)
			return txRepo.Booking.Update(ctx, booking)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrRecordExists) && !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("保存收款记录失败",
				zap.String("booking_id", bookingID), zap.String("driver_id", driverID), zap.Error(err))
		}
		return nil, err
	}
	return receiving, nil
}

// ────────────────────── 查询 / 释放认领 ──────────────────────

func (s *receivingService) GetReceiving(ctx context.Context, actor Actor, bookingID string) (*model.Receiving, error) {
	return s.findReceiving(ctx, actor, bookingID)
}

func (s *receivingService) ReleaseReceivingClaim(ctx context.Context, actor Actor, bookingID string) (*model.Receiving, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	receiving, err := s.findReceiving(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if err := releaseClaim(&receiving.EntryClaim, actor); err != nil {
		return nil, err
	}
	receiving.UpdatedBy = strPtr(actor.ID)
	if err := s.repo.Receiving.Update(ctx, receiving); err != nil {
		s.logger.Error("释放收款认领失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return receiving, nil
}

func (s *receivingService) findReceiving(ctx context.Context, actor Actor, bookingID string) (*model.Receiving, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	driverID, err := resolveEntryDriver(actor, booking)
	if err != nil {
		return nil, err
	}
	receiving, err := s.repo.Receiving.GetByDriverAndBooking(ctx, driverID, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReceivingNotFound
		}
		s.logger.Error("查询收款记录失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return receiving, nil
}
