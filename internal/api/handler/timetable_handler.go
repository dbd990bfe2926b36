package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/internal/service"
	"github.com/AryanManu544/Presenze/pkg/response"
)

// icsFilename 导出课表的默认文件名
const icsFilename = "timetable.ics"

// TimetableHandler 课表模块 Handler
type TimetableHandler struct {
	svc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler 实例
func NewTimetableHandler(svc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{svc: svc}
}

// Create 新建课表时段
// POST /api/v1/timetable
func (h *TimetableHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateTimetableSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.Created(c, result)
}

// List 当前用户的全部课表时段
// GET /api/v1/timetable
func (h *TimetableHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// Get GET /api/v1/timetable/:id
func (h *TimetableHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// Update PUT /api/v1/timetable/:id
func (h *TimetableHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateTimetableSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete DELETE /api/v1/timetable/:id
func (h *TimetableHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Success: "课表时段已删除"})
}

// ImportICS 导入 ICS 课表
// POST /api/v1/timetable/import (multipart/form-data, field="file")
func (h *TimetableHandler) ImportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 13003, "请上传 ICS 文件")
		return
	}
	defer file.Close()

	result, err := h.svc.ImportICS(c.Request.Context(), userID, file)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.Created(c, result)
}

// ExportICS 导出课表为 iCalendar 文件
// GET /api/v1/timetable/export.ics
func (h *TimetableHandler) ExportICS(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	data, err := h.svc.ExportICS(c.Request.Context(), userID)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.Attachment(c, icsFilename, "text/calendar; charset=utf-8", data)
}

func handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTimetableSlotNotFound):
		response.NotFound(c, 13001, "课表时段不存在")
	case errors.Is(err, service.ErrTimetableSlotNotOwner):
		response.Unauthorized(c, 13002, "无权操作该课表时段")
	case errors.Is(err, service.ErrTimetableICSParseFailed):
		response.BadRequest(c, 13004, "ICS 文件解析失败")
	case errors.Is(err, service.ErrTimetableICSEmpty):
		response.BadRequest(c, 13005, "ICS 文件中没有可导入的课程")
	default:
		handleKindError(c, err)
	}
}
