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

// DutyService 出车记录业务接口
type DutyService interface {
	UpsertDuty(ctx context.Context, actor Actor, bookingID string, req *dto.DutyRequest) (*dto.DutyResponse, error)
	GetDuty(ctx context.Context, actor Actor, bookingID string) (*dto.DutyStatusResponse, error)
}

type dutyService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDutyService 创建 DutyService 实例
func NewDutyService(repo *repository.Repository, logger *zap.Logger) DutyService {
	return &dutyService{repo: repo, logger: logger}
}

// ────────────────────── 公共：订单与司机解析 ──────────────────────

// loadBooking 读取订单，不存在时返回 ErrBookingNotFound
func loadBooking(ctx context.Context, repo *repository.Repository, logger *zap.Logger, bookingID string) (*model.Booking, error) {
	booking, err := repo.Booking.GetByID(ctx, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookingNotFound
		}
		logger.Error("查询订单失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return booking, nil
}

// resolveEntryDriver 确定记录归属司机
// 司机路径：订单已分配给他人时拒绝；后台路径：订单必须已分配司机
func resolveEntryDriver(actor Actor, booking *model.Booking) (string, error) {
	switch {
	case actor.IsDriver():
		if booking.HasDriver() && *booking.DriverID != actor.ID {
			return "", ErrForbidden
		}
		return actor.ID, nil
	case actor.IsAdmin():
		if !booking.HasDriver() {
			return "", ErrBookingNoDriver
		}
		return *booking.DriverID, nil
	default:
		return "", ErrForbidden
	}
}

// ────────────────────── UpsertDuty ──────────────────────

func (s *dutyService) UpsertDuty(ctx context.Context, actor Actor, bookingID string, req *dto.DutyRequest) (*dto.DutyResponse, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	driverID, err := resolveEntryDriver(actor, booking)
	if err != nil {
		return nil, err
	}

	parsed, err := parseDutyRequest(req)
	if err != nil {
		return nil, err
	}
	totals := computeDutyTotals(parsed)

	record, err := s.repo.DutyRecord.GetByDriverAndBooking(ctx, driverID, bookingID)
	isNew := false
	if err != nil {
		if !isNotFound(err) {
			s.logger.Error("查询出车记录失败", zap.String("booking_id", bookingID), zap.Error(err))
			return nil, err
		}
		isNew = true
		record = &model.DutyRecord{
			DriverID:      driverID,
			BookingID:     bookingID,
			CreatedByRole: actor.Role,
		}
		record.CreatedBy = strPtr(actor.ID)
		if actor.IsAdmin() {
			record.CreatedByAdmin = strPtr(actor.ID)
		}
	}

	now := time.Now()
	record.DutyStartDate = parsed.StartDate
	record.DutyEndDate = parsed.EndDate
	record.DutyStartTime = parsed.StartTime
	record.DutyEndTime = parsed.EndTime
	record.DutyStartKm = parsed.StartKm
	record.DutyEndKm = parsed.EndKm
	record.DutyType = parsed.DutyType
	record.Notes = req.Notes
	record.TotalKm = totals.Km
	record.TotalHours = totals.Hours
	record.TotalDays = totals.Days
	record.LastEditedBy = strPtr(actor.ID)
	record.LastEditedRole = actor.Role
	record.LastEditedAt = &now
	record.UpdatedBy = strPtr(actor.ID)

	err = withTx(ctx, s.repo, s.logger, func(txRepo *repository.Repository) error {
		if isNew {
			if err := txRepo.DutyRecord.Create(ctx, record); err != nil {
				return err
			}
		} else if err := txRepo.DutyRecord.Update(ctx, record); err != nil {
			return err
		}

		if booking.DutyRecordID == nil {
			booking.DutyRecordID = strPtr(record.DutyRecordID)
			booking.UpdatedBy = strPtr(actor.ID)
			return txRepo.Booking.Update(ctx, booking)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, pkgerrors.ErrRecordExists) && !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("保存出车记录失败",
				zap.String("booking_id", bookingID), zap.String("driver_id", driverID), zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("出车记录已保存",
		zap.String("booking_id", bookingID),
		zap.String("driver_id", driverID),
		zap.Bool("created", isNew),
	)
	return toDutyResponse(record), nil
}

// ────────────────────── GetDuty ──────────────────────

func (s *dutyService) GetDuty(ctx context.Context, actor Actor, bookingID string) (*dto.DutyStatusResponse, error) {
	booking, err := loadBooking(ctx, s.repo, s.logger, bookingID)
	if err != nil {
		return nil, err
	}
	driverID, err := resolveEntryDriver(actor, booking)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.DutyRecord.GetByDriverAndBooking(ctx, driverID, bookingID)
	if err != nil {
		if isNotFound(err) {
			return &dto.DutyStatusResponse{Exists: false}, nil
		}
		s.logger.Error("查询出车记录失败", zap.String("booking_id", bookingID), zap.Error(err))
		return nil, err
	}
	return &dto.DutyStatusResponse{Exists: true, Duty: toDutyResponse(record)}, nil
}
