package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/internal/model"
	"github.com/AryanManu544/Presenze/internal/repository"
	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
	"github.com/AryanManu544/Presenze/pkg/jwt"
)

var (
	ErrInvalidCredentials = apperrors.New(apperrors.KindUnauthenticated, "邮箱或密码错误")
	ErrEmailTaken         = apperrors.Validation("email", "该邮箱已被注册")
	ErrUserNotFound       = apperrors.NotFound("用户不存在")
)

// TokenBlacklist 登出时吊销 Token（由 Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Logout 将 jti 加入黑名单直到 Token 自然过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
}

type authService struct {
	cfg       *config.AuthConfig
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.AuthConfig,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error) {
	name := strings.TrimSpace(req.Name)
	if len([]rune(name)) < 3 {
		return nil, apperrors.Validation("name", "姓名至少 3 个字符")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Password) < 5 {
		return nil, apperrors.Validation("password", "密码至少 5 个字符")
	}

	// 1. 邮箱唯一性
	_, err := s.repo.User.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	// 2. 密码哈希 (bcrypt)
	cost := s.cfg.BcryptCost
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), cost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	// 3. 创建用户
	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	s.logger.Info("用户注册成功", zap.String("user_id", user.UserID))
	return s.issueToken(user, false)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 签发 Token
	return s.issueToken(user, req.RememberMe)
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return apperrors.ErrUnauthenticated
	}
	if s.blacklist == nil {
		s.logger.Warn("Redis 未启用，Token 无法在服务端吊销", zap.String("jti", jti))
		return nil
	}
	ttl := expiresAt.Sub(s.now())
	if err := s.blacklist.BlacklistToken(ctx, jti, ttl); err != nil {
		s.logger.Error("写入 Token 黑名单失败", zap.Error(err))
		return apperrors.Store(err)
	}
	return nil
}

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	if err := requireOwner(userID); err != nil {
		return nil, err
	}
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, apperrors.Store(err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *authService) issueToken(user *model.User, rememberMe bool) (*dto.TokenResponse, error) {
	issued, err := s.jwtMgr.GenerateAccessToken(user.UserID, rememberMe)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken: issued.Token,
		ExpiresIn:   int(issued.ExpiresAt.Sub(s.now()).Seconds()),
		ExpiresAt:   issued.ExpiresAt.UTC().Format(time.RFC3339),
		User:        toUserResponse(user),
	}, nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:    u.UserID,
		Name:  u.Name,
		Email: u.Email,
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
