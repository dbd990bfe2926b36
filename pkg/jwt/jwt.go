package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AryanManu544/Presenze/config"
)

// TokenTypeAccess 本服务只签发 Access Token
const TokenTypeAccess = "access"

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

// Claims 自定义 JWT 声明
type Claims struct {
	UserID     string `json:"user_id"`
	TokenType  string `json:"token_type"`
	RememberMe bool   `json:"remember_me,omitempty"`
	jwtv5.RegisteredClaims
}

// IssuedToken 签发结果
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Manager JWT 管理器
type Manager struct {
	secret      []byte
	issuer      string
	ttl         time.Duration
	ttlRemember time.Duration
	now         func() time.Time
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:      []byte(cfg.JWTSecret),
		issuer:      cfg.Issuer,
		ttl:         cfg.AccessTokenTTL,
		ttlRemember: cfg.AccessTokenTTLLong,
		now:         time.Now,
	}
}

// GenerateAccessToken 生成 Access Token
// rememberMe 为 true 时使用更长的有效期
func (m *Manager) GenerateAccessToken(userID string, rememberMe bool) (*IssuedToken, error) {
	ttl := m.ttl
	if rememberMe && m.ttlRemember > 0 {
		ttl = m.ttlRemember
	}

	now := m.now()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:     userID,
		TokenType:  TokenTypeAccess,
		RememberMe: rememberMe,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
			Issuer:    m.issuer,
		},
	}

	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(m.issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
