package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/api/handler"
	"github.com/AryanManu544/Presenze/internal/api/middleware"
	"github.com/AryanManu544/Presenze/pkg/jwt"
	"github.com/AryanManu544/Presenze/pkg/metrics"
	"github.com/AryanManu544/Presenze/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时 Token 黑名单与限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免 typed nil：*redis.Client 为 nil 时接口也必须为 nil
	var (
		revoked middleware.TokenRevocationChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		revoked = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 / 监控 ──
	r.GET("/health", h.Health.Check)
	if cfg.Server.MetricsPath != "" {
		r.GET(cfg.Server.MetricsPath, gin.WrapH(metrics.Handler()))
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证，按 IP 限流）
		auth := v1.Group("/auth")
		auth.Use(middleware.RateLimit(limiter, cfg.Server.RateLimit.Limit, cfg.Server.RateLimit.Window))
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/register", h.Auth.Register)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, revoked, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 考勤模块
			attendance := authorized.Group("/attendance")
			{
				attendance.POST("/mark", h.Attendance.Mark)
				attendance.GET("/view", h.Attendance.List)
				attendance.GET("/view/:subject", h.Attendance.List)
				attendance.GET("/records/:id", h.Attendance.Get)
				attendance.PUT("/edit/:id", h.Attendance.Update)
				attendance.DELETE("/delete/:id", h.Attendance.Delete)
				attendance.POST("/mark-multiple", h.Attendance.MarkMultiple)
				attendance.GET("/schedule/:subject", h.Attendance.Schedule)
				attendance.GET("/summary", h.Attendance.Summary)
				attendance.GET("/export", h.Export.ExportAttendance)
			}

			// 课表模块
			timetable := authorized.Group("/timetable")
			{
				timetable.GET("", h.Timetable.List)
				timetable.POST("", h.Timetable.Create)
				timetable.GET("/export.ics", h.Timetable.ExportICS)
				timetable.POST("/import", h.Timetable.ImportICS)
				timetable.GET("/:id", h.Timetable.Get)
				timetable.PUT("/:id", h.Timetable.Update)
				timetable.DELETE("/:id", h.Timetable.Delete)
			}
		}
	}

	return r
}
