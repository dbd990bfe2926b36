package handler

import "github.com/AryanManu544/Presenze/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Attendance *AttendanceHandler
	Timetable  *TimetableHandler
	Export     *ExportHandler
	Health     *HealthHandler
}

// NewHandler 创建 Handler 聚合
// cache 未启用时传 nil
func NewHandler(svc *service.Service, db, cache Pinger) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Attendance: NewAttendanceHandler(svc.Attendance),
		Timetable:  NewTimetableHandler(svc.Timetable),
		Export:     NewExportHandler(svc.Export),
		Health:     NewHealthHandler(db, cache),
	}
}
