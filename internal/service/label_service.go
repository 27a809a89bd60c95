package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// ── 标签模块业务错误 ──

var (
	ErrLabelNotFound = errors.New("标签不存在")
	ErrLabelExists   = errors.New("标签名称已存在")
)

// 订单标签设置模式
const (
	LabelModeReplace = "replace"
	LabelModeAdd     = "add"
	LabelModeRemove  = "remove"
)

// LabelService 订单标签业务接口
type LabelService interface {
	Create(ctx context.Context, actor Actor, req *dto.CreateLabelRequest) (*model.Label, error)
	List(ctx context.Context) ([]model.Label, error)
	Update(ctx context.Context, actor Actor, id string, req *dto.UpdateLabelRequest) (*model.Label, error)
	Delete(ctx context.Context, id string) error
	SetBookingLabels(ctx context.Context, bookingID string, req *dto.SetBookingLabelsRequest) (*model.Booking, error)
}

type labelService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewLabelService 创建 LabelService 实例
func NewLabelService(repo *repository.Repository, logger *zap.Logger) LabelService {
	return &labelService{repo: repo, logger: logger}
}

func (s *labelService) Create(ctx context.Context, actor Actor, req *dto.CreateLabelRequest) (*model.Label, error) {
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = model.DefaultLabelColor
	}
	label := &model.Label{
		Name:  strings.TrimSpace(req.Name),
		Color: color,
		Role:  actor.Role,
	}
	label.CreatedBy = strPtr(actor.ID)
	label.UpdatedBy = strPtr(actor.ID)

	if err := s.repo.Label.Create(ctx, label); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordExists) {
			return nil, ErrLabelExists
		}
		s.logger.Error("创建标签失败", zap.String("name", label.Name), zap.Error(err))
		return nil, err
	}
	return label, nil
}

func (s *labelService) List(ctx context.Context) ([]model.Label, error) {
	labels, err := s.repo.Label.List(ctx)
	if err != nil {
		s.logger.Error("列出标签失败", zap.Error(err))
		return nil, err
	}
	return labels, nil
}

func (s *labelService) Update(ctx context.Context, actor Actor, id string, req *dto.UpdateLabelRequest) (*model.Label, error) {
	label, err := s.repo.Label.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrLabelNotFound
		}
		s.logger.Error("查询标签失败", zap.String("label_id", id), zap.Error(err))
		return nil, err
	}

	if req.Name != nil {
		label.Name = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		label.Color = strings.TrimSpace(*req.Color)
		if label.Color == "" {
			label.Color = model.DefaultLabelColor
		}
	}
	label.UpdatedBy = strPtr(actor.ID)

	if err := s.repo.Label.Update(ctx, label); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordExists) {
			return nil, ErrLabelExists
		}
		s.logger.Error("更新标签失败", zap.String("label_id", id), zap.Error(err))
		return nil, err
	}
	return label, nil
}

func (s *labelService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Label.Delete(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrLabelNotFound
		}
		s.logger.Error("删除标签失败", zap.String("label_id", id), zap.Error(err))
		return err
	}
	return nil
}

// SetBookingLabels 按模式设置订单标签，默认 replace
// 任一标签不存在时整体拒绝
func (s *labelService) SetBookingLabels(ctx context.Context, bookingID string, req *dto.SetBookingLabelsRequest) (*model.Booking, error) {
	if _, err := loadBooking(ctx, s.repo, s.logger, bookingID); err != nil {
		return nil, err
	}

	ids := dedupStrings(req.LabelIDs)
	labels, err := s.repo.Label.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询标签失败", zap.Error(err))
		return nil, err
	}
	if len(labels) != len(ids) {
		return nil, ErrLabelNotFound
	}

	mode := req.Mode
	if mode == "" {
		mode = LabelModeReplace
	}
	switch mode {
	case LabelModeAdd:
		err = s.repo.Booking.AddLabels(ctx, bookingID, labels)
	case LabelModeRemove:
		err = s.repo.Booking.RemoveLabels(ctx, bookingID, labels)
	default:
		err = s.repo.Booking.ReplaceLabels(ctx, bookingID, labels)
	}
	if err != nil {
		s.logger.Error("设置订单标签失败", zap.String("booking_id", bookingID), zap.String("mode", mode), zap.Error(err))
		return nil, err
	}

	return loadBooking(ctx, s.repo, s.logger, bookingID)
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
