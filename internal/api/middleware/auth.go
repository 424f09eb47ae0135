package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"atende-agora/backend/internal/model"
	"atende-agora/backend/pkg/jwt"
	"atende-agora/backend/pkg/response"
)

// 上下文键
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
	CtxClaims   = "claims"
)

// Blacklist Token 黑名单查询
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// blacklist 为 nil 时跳过注销检查；黑名单查询出错时降级放行
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "Cabeçalho de autenticação ausente")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "Cabeçalho de autenticação inválido")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "Token inválido ou expirado")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, 10002, "Tipo de token inválido")
			c.Abort()
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "Sessão encerrada")
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUsername, claims.Username)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxClaims, claims)

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(CtxRole)
		if !exists {
			response.Unauthorized(c, 10002, "Não autenticado")
			c.Abort()
			return
		}

		userRole, _ := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "Acesso negado")
		c.Abort()
	}
}

// RequirePermission 操作权限中间件，管理员始终放行
func RequirePermission(action model.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(CtxClaims)
		claims, ok := v.(*jwt.Claims)
		if !exists || !ok {
			response.Unauthorized(c, 10002, "Não autenticado")
			c.Abort()
			return
		}

		if !claims.Can(action) {
			response.Forbidden(c, 10003, "Sem permissão para "+action.String())
			c.Abort()
			return
		}

		c.Next()
	}
}
