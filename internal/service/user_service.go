package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	pkgerrors "atende-agora/backend/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrUserSelfRoleChange = errors.New("不能修改自己的角色")
	ErrUserSelfDelete     = errors.New("不能删除自己")
	ErrLastAdmin          = errors.New("至少保留一个管理员")
)

// BootstrapAdminUsername 初始管理员用户名
const BootstrapAdminUsername = "admin"

// UserService 用户管理业务接口（仅管理员可调用）
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error)
	ResetPassword(ctx context.Context, id string, req *dto.ResetPasswordRequest, callerID string) error
	Delete(ctx context.Context, id string, callerID string) error
	// EnsureBootstrapAdmin 系统中没有管理员且配置了初始密码时创建 admin 账号
	EnsureBootstrapAdmin(ctx context.Context, password string) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── List / GetByID ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, pkgerrors.Unavailable("查询用户列表", err)
	}

	list := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		list = append(list, toUserResponse(&users[i]))
	}
	return list, total, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest, callerID string) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)

	// 检查用户名唯一性
	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Unavailable("查询用户", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	perms := model.DefaultPermissions()
	if req.Permissions != nil {
		perms = toPermissions(req.Permissions)
	}

	user := &model.User{
		UserID:       uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Permissions:  perms,
		BaseModel:    model.BaseModel{CreatedBy: &callerID, UpdatedBy: &callerID},
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, pkgerrors.Unavailable("创建用户", err)
	}

	s.logger.Info("用户已创建",
		zap.String("user_id", user.UserID),
		zap.String("username", user.Username),
		zap.String("role", user.Role),
		zap.String("created_by", callerID),
	)

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id string, req *dto.UpdateUserRequest, callerID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != user.Role {
		if id == callerID {
			return nil, ErrUserSelfRoleChange
		}
		if user.Role == model.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx); err != nil {
				return nil, err
			}
		}
		user.Role = *req.Role
	}
	if req.Permissions != nil {
		user.Permissions = toPermissions(req.Permissions)
	}
	user.UpdatedBy = &callerID

	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Unavailable("更新用户", err)
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *userService) ResetPassword(ctx context.Context, id string, req *dto.ResetPasswordRequest, callerID string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	user.PasswordHash = string(hash)
	user.UpdatedBy = &callerID
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("重置密码失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Unavailable("重置密码", err)
	}

	s.logger.Info("密码已重置", zap.String("user_id", id), zap.String("by", callerID))
	return nil
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id string, callerID string) error {
	if id == callerID {
		return ErrUserSelfDelete
	}

	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == model.RoleAdmin {
		if err := s.ensureOtherAdmin(ctx); err != nil {
			return err
		}
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return pkgerrors.Unavailable("删除用户", err)
	}

	s.logger.Info("用户已删除", zap.String("user_id", id), zap.String("by", callerID))
	return nil
}

// ────────────────────── Bootstrap ──────────────────────

func (s *userService) EnsureBootstrapAdmin(ctx context.Context, password string) error {
	admins, err := s.repo.User.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return err
	}
	if admins > 0 {
		return nil
	}
	if password == "" {
		s.logger.Warn("系统中没有管理员，且未配置 auth.bootstrap_admin_password")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		UserID:       uuid.New().String(),
		Username:     BootstrapAdminUsername,
		PasswordHash: string(hash),
		Role:         model.RoleAdmin,
		Permissions:  model.FullPermissions(),
	}
	if err := s.repo.User.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info("已创建初始管理员", zap.String("username", BootstrapAdminUsername))
	return nil
}

// ── 内部方法 ──

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, pkgerrors.Unavailable("查询用户", err)
	}
	return user, nil
}

// ensureOtherAdmin 降级或删除管理员前确认还有其他管理员
func (s *userService) ensureOtherAdmin(ctx context.Context) error {
	admins, err := s.repo.User.CountByRole(ctx, model.RoleAdmin)
	if err != nil {
		return pkgerrors.Unavailable("统计管理员", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func toPermissions(p *dto.PermissionsPayload) model.Permissions {
	return model.Permissions{
		View:   p.View,
		Edit:   p.Edit,
		Delete: p.Delete,
		Create: p.Create,
	}
}
