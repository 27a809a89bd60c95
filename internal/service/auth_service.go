package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fleet-ledger/backend/config"
	"fleet-ledger/backend/internal/dto"
	"fleet-ledger/backend/internal/model"
	"fleet-ledger/backend/internal/repository"
	"fleet-ledger/backend/pkg/jwt"
)

var ErrInvalidCredentials = errors.New("账号或密码错误")

// TokenBlacklist Token 黑名单（由 Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
type AuthService interface {
	AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.TokenResponse, error)
	DriverLogin(ctx context.Context, req *dto.DriverLoginRequest) (*dto.TokenResponse, error)
	// Logout 将当前 Token 的 jti 加入黑名单直到其过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// blacklist 为 nil 时登出仅由客户端丢弃 Token
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) AdminLogin(ctx context.Context, req *dto.AdminLoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询账号
	admin, err := s.repo.Admin.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询后台账号失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 签发 Token
	return s.issue(admin.AdminID, admin.Role, dto.AccountResponse{
		ID:    admin.AdminID,
		Name:  admin.Name,
		Email: admin.Email,
		Role:  admin.Role,
	})
}

func (s *authService) DriverLogin(ctx context.Context, req *dto.DriverLoginRequest) (*dto.TokenResponse, error) {
	driver, err := s.repo.Driver.GetByCode(ctx, strings.TrimSpace(req.DriverCode))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询司机失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(driver.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	// 密码正确后再提示停用，避免暴露账号状态
	if !driver.IsActive {
		return nil, ErrDriverInactive
	}

	return s.issue(driver.DriverID, model.RoleDriver, dto.AccountResponse{
		ID:         driver.DriverID,
		Name:       driver.Name,
		Email:      driver.Email,
		DriverCode: driver.DriverCode,
		Role:       model.RoleDriver,
	})
}

func (s *authService) issue(userID, role string, account dto.AccountResponse) (*dto.TokenResponse, error) {
	accessToken, err := s.jwtMgr.GenerateAccessToken(userID, role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken: accessToken,
		ExpiresIn:   int(s.jwtMgr.AccessTokenTTL().Seconds()),
		Role:        role,
		Account:     account,
	}, nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		return err
	}
	return nil
}
