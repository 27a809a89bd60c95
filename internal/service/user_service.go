package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
	pkgerrors "fleet-ledger/backend/pkg/errors"
)

// ── 账号模块业务错误 ──

var (
	ErrDriverCodeExists = errors.New("司机编号已存在")
	ErrEmailExists      = errors.New("邮箱已被使用")
)

// UserService 司机与后台账号管理接口
type UserService interface {
	CreateDriver(ctx context.Context, actor Actor, req *dto.CreateDriverRequest) (*dto.DriverResponse, error)
	ListDrivers(ctx context.Context, req *dto.DriverListRequest) ([]dto.DriverResponse, int64, error)
	GetDriver(ctx context.Context, id string) (*dto.DriverResponse, error)
	SetDriverActive(ctx context.Context, actor Actor, id string, active bool) (*dto.DriverResponse, error)
	CreateAdmin(ctx context.Context, actor Actor, req *dto.CreateAdminRequest) (*dto.AdminResponse, error)
	GetAdmin(ctx context.Context, id string) (*dto.AdminResponse, error)
	ListAdmins(ctx context.Context) ([]dto.AdminResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── 司机 ──────────────────────

func (s *userService) CreateDriver(ctx context.Context, actor Actor, req *dto.CreateDriverRequest) (*dto.DriverResponse, error) {
	code := strings.TrimSpace(req.DriverCode)

	// 检查编号唯一性
	if _, err := s.repo.Driver.GetByCode(ctx, code); err == nil {
		return nil, ErrDriverCodeExists
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	driver := &model.Driver{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		Mobile:       strings.TrimSpace(req.Mobile),
		DriverCode:   code,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	driver.CreatedBy = strPtr(actor.ID)

	if err := s.repo.Driver.Create(ctx, driver); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordExists) {
			return nil, ErrDriverCodeExists
		}
		s.logger.Error("创建司机失败", zap.String("driver_code", code), zap.Error(err))
		return nil, err
	}

	resp := toDriverResponse(driver)
	return &resp, nil
}

func (s *userService) ListDrivers(ctx context.Context, req *dto.DriverListRequest) ([]dto.DriverResponse, int64, error) {
	drivers, total, err := s.repo.Driver.List(ctx, strings.TrimSpace(req.Keyword), req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出司机失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.DriverResponse, 0, len(drivers))
	for i := range drivers {
		items = append(items, toDriverResponse(&drivers[i]))
	}
	return items, total, nil
}

func (s *userService) GetDriver(ctx context.Context, id string) (*dto.DriverResponse, error) {
	driver, err := s.repo.Driver.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrDriverNotFound
		}
		s.logger.Error("查询司机失败", zap.String("driver_id", id), zap.Error(err))
		return nil, err
	}
	resp := toDriverResponse(driver)
	return &resp, nil
}

func (s *userService) SetDriverActive(ctx context.Context, actor Actor, id string, active bool) (*dto.DriverResponse, error) {
	if err := s.repo.Driver.SetActive(ctx, id, active, actor.ID); err != nil {
		if isNotFound(err) {
			return nil, ErrDriverNotFound
		}
		s.logger.Error("更新司机状态失败", zap.String("driver_id", id), zap.Error(err))
		return nil, err
	}
	return s.GetDriver(ctx, id)
}

// ────────────────────── 后台账号 ──────────────────────

// CreateAdmin 仅 admin 可创建后台账号
func (s *userService) CreateAdmin(ctx context.Context, actor Actor, req *dto.CreateAdminRequest) (*dto.AdminResponse, error) {
	if actor.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.Admin.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !isNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	admin := &model.Admin{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: string(hash),
		Role:         req.Role,
		Permissions:  req.Permissions,
	}
	admin.CreatedBy = strPtr(actor.ID)

	if err := s.repo.Admin.Create(ctx, admin); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordExists) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建后台账号失败", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	resp := toAdminResponse(admin)
	return &resp, nil
}

func (s *userService) GetAdmin(ctx context.Context, id string) (*dto.AdminResponse, error) {
	admin, err := s.repo.Admin.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrAdminNotFound
		}
		s.logger.Error("查询后台账号失败", zap.String("admin_id", id), zap.Error(err))
		return nil, err
	}
	resp := toAdminResponse(admin)
	return &resp, nil
}

func (s *userService) ListAdmins(ctx context.Context) ([]dto.AdminResponse, error) {
	admins, err := s.repo.Admin.List(ctx)
	if err != nil {
		s.logger.Error("列出后台账号失败", zap.Error(err))
		return nil, err
	}
	items := make([]dto.AdminResponse, 0, len(admins))
	for i := range admins {
		items = append(items, toAdminResponse(&admins[i]))
	}
	return items, nil
}

// ── 转换 ──

func toDriverResponse(d *model.Driver) dto.DriverResponse {
	return dto.DriverResponse{
		ID:            d.DriverID,
		Name:          d.Name,
		Email:         d.Email,
		Mobile:        d.Mobile,
		DriverCode:    d.DriverCode,
		IsActive:      d.IsActive,
		WalletBalance: d.WalletBalance.StringFixed(2),
		CreatedAt:     d.CreatedAt,
	}
}

func toAdminResponse(a *model.Admin) dto.AdminResponse {
	perms := []string(a.Permissions)
	if perms == nil {
		perms = []string{}
	}
	return dto.AdminResponse{
		ID:            a.AdminID,
		Name:          a.Name,
		Email:         a.Email,
		Role:          a.Role,
		Permissions:   perms,
		WalletBalance: a.WalletBalance.StringFixed(2),
	}
}
