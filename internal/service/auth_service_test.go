package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/dto"
	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
	"github.com/AryanManu544/Presenze/pkg/jwt"
)

// ── 测试辅助 ──

type fakeBlacklist struct {
	mu      sync.Mutex
	entries map[string]time.Duration
	err     error
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.entries == nil {
		f.entries = make(map[string]time.Duration)
	}
	f.entries[jti] = ttl
	return nil
}

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:          "test-secret-key-for-unit-testing-2026",
		Issuer:             "presenze",
		AccessTokenTTL:     time.Hour,
		AccessTokenTTLLong: 365 * 24 * time.Hour,
		BcryptCost:         4, // bcrypt.MinCost，加快测试
	}
}

func setupTestAuthService(blacklist TokenBlacklist) (AuthService, *jwt.Manager, *testRepos) {
	repos := newTestRepos()
	cfg := testAuthConfig()
	mgr := jwt.NewManager(cfg)
	svc := NewAuthService(cfg, repos.repo, mgr, blacklist, newTestLogger())
	return svc, mgr, repos
}

func registerUser(t *testing.T, svc AuthService) *dto.TokenResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Alice", Email: "Alice@Example.com", Password: "secret1",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	return resp
}

// ── Register ──

func TestAuthService_Register_Success(t *testing.T) {
	svc, mgr, _ := setupTestAuthService(nil)

	resp := registerUser(t, svc)
	if resp.User.Email != "alice@example.com" {
		t.Errorf("邮箱应规范化为小写，实际 %s", resp.User.Email)
	}
	claims, err := mgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("签发的 Token 应可解析: %v", err)
	}
	if claims.UserID != resp.User.ID {
		t.Errorf("Token 中的 UserID 不匹配: %s vs %s", claims.UserID, resp.User.ID)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _ := setupTestAuthService(nil)
	registerUser(t, svc)

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Alice Again", Email: "alice@example.com", Password: "secret2",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("期望 ErrEmailTaken，实际: %v", err)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := setupTestAuthService(nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Al", Email: "a@b.com", Password: "secret"}); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("姓名过短应返回校验错误，实际: %v", err)
	}
	if _, err := svc.Register(ctx, &dto.RegisterRequest{Name: "Alice", Email: "a@b.com", Password: "1234"}); !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Errorf("密码过短应返回校验错误，实际: %v", err)
	}
}

// ── Login ──

func TestAuthService_Login(t *testing.T) {
	svc, _, _ := setupTestAuthService(nil)
	registerUser(t, svc)
	ctx := context.Background()

	resp, err := svc.Login(ctx, &dto.LoginRequest{Email: "ALICE@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.ExpiresIn > 3600 || resp.ExpiresIn < 3590 {
		t.Errorf("默认有效期应约 1 小时，实际 %d 秒", resp.ExpiresIn)
	}

	long, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "secret1", RememberMe: true})
	if err != nil {
		t.Fatalf("Login(RememberMe) 应成功: %v", err)
	}
	if long.ExpiresIn < 364*24*3600 {
		t.Errorf("记住我有效期应约 365 天，实际 %d 秒", long.ExpiresIn)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _ := setupTestAuthService(nil)
	registerUser(t, svc)
	ctx := context.Background()

	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("密码错误期望 ErrInvalidCredentials，实际: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "secret1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("用户不存在期望 ErrInvalidCredentials，实际: %v", err)
	}
}

// ── Logout / Me ──

func TestAuthService_Logout_Blacklists(t *testing.T) {
	bl := &fakeBlacklist{}
	svc, _, _ := setupTestAuthService(bl)

	exp := time.Now().Add(30 * time.Minute)
	if err := svc.Logout(context.Background(), "jti-1", exp); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := bl.entries["jti-1"]
	if !ok {
		t.Fatal("jti 应写入黑名单")
	}
	if ttl <= 29*time.Minute || ttl > 30*time.Minute {
		t.Errorf("黑名单 TTL 应等于 Token 剩余有效期，实际 %v", ttl)
	}
}

func TestAuthService_Logout_WithoutRedis(t *testing.T) {
	svc, _, _ := setupTestAuthService(nil)

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Errorf("未启用 Redis 时 Logout 应降级成功: %v", err)
	}
}

func TestAuthService_Logout_StoreFailure(t *testing.T) {
	svc, _, _ := setupTestAuthService(&fakeBlacklist{err: errors.New("redis down")})

	err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Hour))
	if !apperrors.IsKind(err, apperrors.KindStore) {
		t.Errorf("期望存储错误，实际: %v", err)
	}
}

func TestAuthService_Me(t *testing.T) {
	svc, _, _ := setupTestAuthService(nil)
	reg := registerUser(t, svc)

	me, err := svc.Me(context.Background(), reg.User.ID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.Name != "Alice" || me.CreatedAt == "" {
		t.Errorf("Me 返回错误: %+v", me)
	}
	if _, err := svc.Me(context.Background(), ownerB); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}
