package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"atende-agora/backend/config"
	"atende-agora/backend/internal/model"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const (
	issuer = "atende-agora"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity 签发 Token 所需的用户身份
type Identity struct {
	UserID      string
	Username    string
	Role        string
	Permissions model.Permissions
}

// IdentityOf 从用户实体提取身份
func IdentityOf(u *model.User) Identity {
	return Identity{
		UserID:      u.UserID,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: u.Permissions,
	}
}

// Claims 自定义 JWT 声明
// 权限随 Access Token 下发，管理员修改权限后在下一次刷新时生效
type Claims struct {
	UserID      string            `json:"user_id"`
	Username    string            `json:"username"`
	Role        string            `json:"role"`
	Permissions model.Permissions `json:"permissions"`
	TokenType   string            `json:"token_type"` // "access" | "refresh"
	jwtv5.RegisteredClaims
}

// Can 判断 Token 持有者能否执行指定操作
func (c *Claims) Can(a model.Action) bool {
	return model.CanPerform(c.Role, c.Permissions, a)
}

// Manager JWT 管理器
type Manager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:          []byte(cfg.JWTSecret),
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
	}
}

// AccessTokenTTL Access Token 有效期（用于返回 expires_in）
func (m *Manager) AccessTokenTTL() time.Duration { return m.accessTokenTTL }

// RefreshTokenTTL Refresh Token 有效期（用于设置 Cookie MaxAge）
func (m *Manager) RefreshTokenTTL() time.Duration { return m.refreshTokenTTL }

// GenerateAccessToken 生成 Access Token
func (m *Manager) GenerateAccessToken(id Identity) (string, error) {
	return m.generate(id, TokenTypeAccess, m.accessTokenTTL)
}

// GenerateRefreshToken 生成 Refresh Token
func (m *Manager) GenerateRefreshToken(id Identity) (string, error) {
	return m.generate(id, TokenTypeRefresh, m.refreshTokenTTL)
}

func (m *Manager) generate(id Identity, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:      id.UserID,
		Username:    id.Username,
		Role:        id.Role,
		Permissions: id.Permissions,
		TokenType:   tokenType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   id.UserID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
