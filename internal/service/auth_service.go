package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	pkgerrors "atende-agora/backend/pkg/errors"
	"atende-agora/backend/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrInvalidToken       = errors.New("Token 无效")
	ErrTokenRevoked       = errors.New("Token 已注销")
	ErrWrongPassword      = errors.New("原密码错误")
)

// TokenBlacklist Token 黑名单存储（Redis 实现见 pkg/redis）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
// blacklist 为 nil 时注销只在客户端生效
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, pkgerrors.Unavailable("查询用户", err)
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.Info("用户登录", zap.String("user_id", user.UserID), zap.String("username", user.Username))

	// 3. 生成 Token 对
	return s.issueTokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("检查 Token 黑名单失败", zap.Error(err))
		} else if revoked {
			return nil, ErrTokenRevoked
		}
	}

	// 重新加载用户，使角色与权限变更在刷新后生效
	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, pkgerrors.Unavailable("查询用户", err)
	}

	// 旧 Refresh Token 轮换作废
	s.revoke(ctx, claims)

	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, access *jwt.Claims, refreshToken string) error {
	if access != nil {
		s.revoke(ctx, access)
	}
	if refreshToken != "" {
		if claims, err := s.jwtMgr.ParseToken(refreshToken); err == nil {
			s.revoke(ctx, claims)
		}
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, pkgerrors.Unavailable("查询用户", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return pkgerrors.Unavailable("查询用户", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	user.UpdatedBy = &userID
	if err := s.repo.User.Update(ctx, user); err != nil {
		return pkgerrors.Unavailable("修改密码", err)
	}
	return nil
}

// ── 内部方法 ──

func (s *authService) issueTokens(user *model.User) (*dto.TokenResponse, error) {
	identity := jwt.IdentityOf(user)

	accessToken, err := s.jwtMgr.GenerateAccessToken(identity)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(identity)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.jwtMgr.AccessTokenTTL().Seconds()),
		User:         toUserResponse(user),
	}, nil
}

// revoke 将 Token 加入黑名单直到其自然过期；黑名单不可用时只记录日志
func (s *authService) revoke(ctx context.Context, claims *jwt.Claims) {
	if s.blacklist == nil || claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.blacklist.BlacklistToken(ctx, claims.ID, ttl); err != nil {
		s.logger.Warn("Token 加入黑名单失败", zap.String("jti", claims.ID), zap.Error(err))
	}
}

func toUserResponse(u *model.User) dto.UserResponse {
	perms := u.Permissions
	if u.Role == model.RoleAdmin {
		perms = model.FullPermissions()
	}
	return dto.UserResponse{
		ID:          u.UserID,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: perms,
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}
