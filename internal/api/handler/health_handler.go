package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/pkg/response"
)

const (
	healthUp       = "up"
	healthDown     = "down"
	healthDisabled = "disabled"

	healthTimeout = 2 * time.Second
)

// Pinger 依赖健康探测
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查
type HealthHandler struct {
	db    Pinger
	cache Pinger
}

// NewHealthHandler 创建 HealthHandler；cache 为 nil 表示未启用 Redis
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Check 数据库不可用时返回 503；Redis 仅作降级依赖，不影响整体状态
// GET /health
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	result := dto.HealthResponse{
		Status:   "ok",
		Database: probe(ctx, h.db),
		Redis:    probe(ctx, h.cache),
	}
	if result.Database != healthUp {
		result.Status = "degraded"
		response.ServiceUnavailable(c, result)
		return
	}

	response.OK(c, result)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return healthDisabled
	}
	if err := p.Ping(ctx); err != nil {
		return healthDown
	}
	return healthUp
}
