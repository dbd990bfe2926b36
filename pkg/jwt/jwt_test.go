package jwt

import (
	"testing"
	"time"

	"github.com/AryanManu544/Presenze/config"
)

func newTestManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:          "test-secret-key-for-unit-testing-2026",
		Issuer:             "presenze",
		AccessTokenTTL:     time.Hour,
		AccessTokenTTLLong: 365 * 24 * time.Hour,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	issued, err := m.GenerateAccessToken("user-1", false)
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	claims, err := m.ParseToken(issued.Token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if claims.UserID != "user-1" {
		t.Errorf("期望 UserID=user-1，实际=%s", claims.UserID)
	}
	if claims.TokenType != "access" {
		t.Errorf("期望 TokenType=access，实际=%s", claims.TokenType)
	}
	if claims.Issuer != "presenze" {
		t.Errorf("期望 Issuer=presenze，实际=%s", claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI 不应为空")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 59*time.Minute || ttl > 61*time.Minute {
		t.Errorf("默认 TTL 期望约1h，实际=%v", ttl)
	}
}

func TestGenerateAccessToken_RememberMe(t *testing.T) {
	m := newTestManager()

	issued, err := m.GenerateAccessToken("user-1", true)
	if err != nil {
		t.Fatalf("GenerateAccessToken(RememberMe) 失败: %v", err)
	}

	claims, err := m.ParseToken(issued.Token)
	if err != nil {
		t.Fatalf("ParseToken 失败: %v", err)
	}

	if !claims.RememberMe {
		t.Error("期望 RememberMe=true")
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 364*24*time.Hour {
		t.Errorf("RememberMe TTL 期望约365天，实际=%v", ttl)
	}
	if !issued.ExpiresAt.Equal(claims.ExpiresAt.Time.Truncate(time.Second)) &&
		issued.ExpiresAt.Sub(claims.ExpiresAt.Time) > time.Second {
		t.Errorf("IssuedToken.ExpiresAt 与声明不一致: %v vs %v", issued.ExpiresAt, claims.ExpiresAt.Time)
	}
}

func TestParseToken_InvalidToken(t *testing.T) {
	m := newTestManager()

	_, err := m.ParseToken("invalid.token.string")
	if err != ErrTokenInvalid {
		t.Errorf("期望 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "different-secret-key",
		Issuer:         "presenze",
		AccessTokenTTL: 15 * time.Minute,
	})

	issued, _ := m1.GenerateAccessToken("user-1", false)
	if _, err := m2.ParseToken(issued.Token); err == nil {
		t.Error("不同密钥签名的 token 不应通过验证")
	}
}

func TestParseToken_WrongIssuer(t *testing.T) {
	m1 := newTestManager()
	m2 := NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		Issuer:         "someone-else",
		AccessTokenTTL: 15 * time.Minute,
	})

	issued, _ := m1.GenerateAccessToken("user-1", false)
	if _, err := m2.ParseToken(issued.Token); err != ErrTokenInvalid {
		t.Errorf("签发者不一致应返回 ErrTokenInvalid，实际: %v", err)
	}
}

func TestParseToken_ExpiredToken(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	issued, _ := m.GenerateAccessToken("user-1", false)

	_, err := m.ParseToken(issued.Token)
	if err != ErrTokenExpired {
		t.Errorf("期望 ErrTokenExpired，实际: %v", err)
	}
}
