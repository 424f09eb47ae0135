package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/model"
	"atende-agora/backend/internal/repository"
	"atende-agora/backend/internal/repository/memory"
	"atende-agora/backend/pkg/jwt"
)

// ── 测试辅助 ──

func setupTestAuthService() (AuthService, *repository.Repository, *jwt.Manager, *mockBlacklist) {
	cfg := &config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 12 * time.Hour,
	}
	repo := memory.NewRepository()
	jwtMgr := jwt.NewManager(cfg)
	blacklist := newMockBlacklist()
	svc := NewAuthService(repo, jwtMgr, blacklist, zap.NewNop())
	return svc, repo, jwtMgr, blacklist
}

func createTestUser(t *testing.T, repo *repository.Repository, username, password, role string, perms model.Permissions) *model.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &model.User{
		UserID:       "user-" + username,
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		Permissions:  perms,
	}
	if err := repo.User.Create(context.Background(), user); err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return user
}

// ── 登录测试 ──

func TestLogin_Success(t *testing.T) {
	svc, repo, jwtMgr, _ := setupTestAuthService()
	createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.Permissions{View: true, Create: true})

	result, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "recepcao", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功，但返回错误: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Token 不应为空")
	}
	if result.ExpiresIn != 900 {
		t.Errorf("期望 ExpiresIn=900，实际=%d", result.ExpiresIn)
	}

	claims, err := jwtMgr.ParseToken(result.AccessToken)
	if err != nil {
		t.Fatalf("AccessToken 应可解析: %v", err)
	}
	if !claims.Can(model.ActionCreate) || claims.Can(model.ActionDelete) {
		t.Errorf("Token 中权限不正确: %+v", claims.Permissions)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, repo, _, _ := setupTestAuthService()
	createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.DefaultPermissions())

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "recepcao", Password: "wrong_password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_UserNotFound(t *testing.T) {
	svc, _, _, _ := setupTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "nobody", Password: "password123"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际: %v", err)
	}
}

func TestLogin_AdminHasFullPermissions(t *testing.T) {
	svc, repo, _, _ := setupTestAuthService()
	createTestUser(t, repo, "admin", "password123", model.RoleAdmin, model.Permissions{})

	result, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "admin", Password: "password123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if result.User.Permissions != model.FullPermissions() {
		t.Errorf("管理员应返回全部权限，实际: %+v", result.User.Permissions)
	}
}

// ── 刷新与注销 ──

func TestRefresh_ReloadsPermissionsAndRotates(t *testing.T) {
	svc, repo, jwtMgr, _ := setupTestAuthService()
	user := createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.DefaultPermissions())
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Username: "recepcao", Password: "password123"})

	// 管理员授予编辑权限后，刷新得到的新 Token 应携带新权限
	user.Permissions.Edit = true
	if err := repo.User.Update(ctx, user); err != nil {
		t.Fatalf("更新用户失败: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh 应成功: %v", err)
	}
	claims, _ := jwtMgr.ParseToken(refreshed.AccessToken)
	if !claims.Can(model.ActionEdit) {
		t.Error("刷新后应获得编辑权限")
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("旧 RefreshToken 应已作废，实际: %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, repo, _, _ := setupTestAuthService()
	createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.DefaultPermissions())

	login, _ := svc.Login(context.Background(), &dto.LoginRequest{Username: "recepcao", Password: "password123"})
	if _, err := svc.Refresh(context.Background(), login.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("AccessToken 不能用于刷新，实际: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("空 Token 应返回 ErrInvalidToken，实际: %v", err)
	}
}

func TestRefresh_DeletedUser(t *testing.T) {
	svc, repo, _, _ := setupTestAuthService()
	user := createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.DefaultPermissions())
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Username: "recepcao", Password: "password123"})
	repo.User.Delete(ctx, user.UserID)

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("用户删除后刷新应失败，实际: %v", err)
	}
}

func TestLogout_BlacklistsBothTokens(t *testing.T) {
	svc, repo, jwtMgr, blacklist := setupTestAuthService()
	createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.DefaultPermissions())
	ctx := context.Background()

	login, _ := svc.Login(ctx, &dto.LoginRequest{Username: "recepcao", Password: "password123"})
	access, _ := jwtMgr.ParseToken(login.AccessToken)
	refresh, _ := jwtMgr.ParseToken(login.RefreshToken)

	if err := svc.Logout(ctx, access, login.RefreshToken); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	if !blacklist.revoked[access.ID] || !blacklist.revoked[refresh.ID] {
		t.Error("注销后两个 Token 都应进入黑名单")
	}
}

// ── 个人信息 ──

func TestMe(t *testing.T) {
	svc, repo, _, _ := setupTestAuthService()
	user := createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.DefaultPermissions())

	me, err := svc.Me(context.Background(), user.UserID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.Username != "recepcao" || me.Role != model.RoleUser {
		t.Errorf("用户信息不正确: %+v", me)
	}

	if _, err := svc.Me(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, repo, _, _ := setupTestAuthService()
	user := createTestUser(t, repo, "recepcao", "password123", model.RoleUser, model.DefaultPermissions())
	ctx := context.Background()

	err := svc.ChangePassword(ctx, user.UserID, &dto.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "newpassword1"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("期望 ErrWrongPassword，实际: %v", err)
	}

	err = svc.ChangePassword(ctx, user.UserID, &dto.ChangePasswordRequest{OldPassword: "password123", NewPassword: "newpassword1"})
	if err != nil {
		t.Fatalf("ChangePassword 应成功: %v", err)
	}

	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "recepcao", Password: "password123"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("旧密码不应再能登录")
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "recepcao", Password: "newpassword1"}); err != nil {
		t.Errorf("新密码应能登录: %v", err)
	}
}
