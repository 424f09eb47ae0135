package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/dto"
	"atende-agora/backend/internal/service"
	"atende-agora/backend/pkg/response"
)

const (
	refreshCookieName = "refresh_token"
	refreshCookiePath = "/api/v1/auth"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	authSvc    service.AuthService
	cookie     config.CookieConfig
	refreshTTL time.Duration
}

// NewAuthHandler 创建 AuthHandler
// Refresh Token 同时写入 HttpOnly Cookie，浏览器端不必自行保存
func NewAuthHandler(authSvc service.AuthService, cfg *config.AuthConfig) *AuthHandler {
	h := &AuthHandler{authSvc: authSvc}
	if cfg != nil {
		h.cookie = cfg.Cookie
		h.refreshTTL = cfg.RefreshTokenTTL
	}
	return h
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// RefreshToken 刷新 Token，优先读取 Cookie，其次读取请求体
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token := h.refreshTokenFrom(c)
	if token == "" {
		response.Unauthorized(c, 11002, "Refresh token ausente")
		return
	}

	result, err := h.authSvc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.clearRefreshCookie(c)
		handleAuthError(c, err)
		return
	}

	h.setRefreshCookie(c, result.RefreshToken)
	response.OK(c, result)
}

// Logout 用户登出，注销当前 Access Token 与 Refresh Token
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := GetClaims(c)
	if claims == nil {
		response.Unauthorized(c, 10002, "Não autenticado")
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), claims, h.refreshTokenFrom(c)); err != nil {
		handleAuthError(c, err)
		return
	}

	h.clearRefreshCookie(c)
	response.OK(c, nil)
}

// Me 当前登录用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		handleAuthError(c, err)
		return
	}
	response.OK(c, user)
}

// ChangePassword 修改本人密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		handleAuthError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── Cookie ──

func (h *AuthHandler) refreshTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(refreshCookieName); err == nil && v != "" {
		return v
	}
	var req dto.RefreshTokenRequest
	if c.Request.ContentLength != 0 {
		_ = c.ShouldBindJSON(&req)
	}
	return req.RefreshToken
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	if token == "" {
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, token, int(h.refreshTTL.Seconds()), refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(refreshCookieName, "", -1, refreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "Usuário ou senha inválidos")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(c, 11002, "Token inválido ou expirado")
	case errors.Is(err, service.ErrTokenRevoked):
		response.Unauthorized(c, 11003, "Token revogado")
	case errors.Is(err, service.ErrWrongPassword):
		response.BadRequest(c, 11004, "Senha atual incorreta")
	case errors.Is(err, service.ErrUserNotFound):
		response.Unauthorized(c, 11005, "Usuário não encontrado")
	default:
		handleCommonError(c, err)
	}
}
