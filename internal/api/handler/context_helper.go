package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/api/middleware"
	pkgerrors "atende-agora/backend/pkg/errors"
	"atende-agora/backend/pkg/jwt"
	"atende-agora/backend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(middleware.CtxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "Não autenticado")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "Não autenticado")
		return "", false
	}
	return s, true
}

// GetClaims 提取当前请求的 Access Token 声明，未认证时返回 nil
func GetClaims(c *gin.Context) *jwt.Claims {
	v, exists := c.Get(middleware.CtxClaims)
	if !exists {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// bindJSON 绑定请求体；请求体超限返回 413，其余绑定错误返回 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "Corpo da requisição muito grande")
		return false
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Dados inválidos", err.Error())
	return false
}

// handleCommonError 处理各模块共有的错误类别，未识别的错误返回 500
func handleCommonError(c *gin.Context, err error) {
	var ve *pkgerrors.ValidationError
	switch {
	case errors.As(err, &ve):
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "Dados inválidos", ve.Error())
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, 10001, "Dados inválidos")
	case errors.Is(err, pkgerrors.ErrBackendUnavailable):
		response.ServiceUnavailable(c)
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
