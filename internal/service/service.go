package service

import (
	"go.uber.org/zap"

	"github.com/AryanManu544/Presenze/config"
	"github.com/AryanManu544/Presenze/internal/repository"
	"github.com/AryanManu544/Presenze/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Attendance AttendanceService
	Timetable  TimetableService
	Export     ExportService
}

// NewService 创建 Service 聚合
// blacklist 为 nil 时登出仅由客户端丢弃 Token
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(&cfg.Auth, repo, jwtMgr, blacklist, logger),
		Attendance: NewAttendanceService(&cfg.Attendance, repo, logger),
		Timetable:  NewTimetableService(&cfg.Attendance, repo, logger),
		Export:     NewExportService(&cfg.Attendance, repo, logger),
	}
}
