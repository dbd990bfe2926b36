package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/internal/service"
	"github.com/AryanManu544/Presenze/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	svc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(svc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

// Mark 新建考勤记录
// POST /api/v1/attendance/mark
func (h *AttendanceHandler) Mark(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Mark(c.Request.Context(), userID, &req)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.Created(c, result)
}

// List 查询当前用户的考勤记录，可按科目过滤
// GET /api/v1/attendance/view
// GET /api/v1/attendance/view/:subject
func (h *AttendanceHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), userID, strings.TrimSpace(c.Param("subject")))
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Get 查询单条考勤记录
// GET /api/v1/attendance/records/:id
func (h *AttendanceHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Update 部分更新考勤记录
// PUT /api/v1/attendance/edit/:id
func (h *AttendanceHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.Update(c.Request.Context(), c.Param("id"), userID, &req)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Delete 删除考勤记录
// DELETE /api/v1/attendance/delete/:id
func (h *AttendanceHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Success: "考勤记录已删除"})
}

// MarkMultiple 批量标记某科目多个日期
// POST /api/v1/attendance/mark-multiple
//
// 部分失败时仍返回 200，success=false，失败明细见 failures
func (h *AttendanceHandler) MarkMultiple(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.MarkMultipleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	result, err := h.svc.SubmitMarks(c.Request.Context(), userID, &req)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Schedule 某科目某月的课表日期视图
// GET /api/v1/attendance/schedule/:subject?month=YYYY-MM
func (h *AttendanceHandler) Schedule(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.BuildScheduleView(c.Request.Context(), userID, c.Param("subject"), c.Query("month"))
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Summary 按科目统计出勤率
// GET /api/v1/attendance/summary
func (h *AttendanceHandler) Summary(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.svc.Summary(c.Request.Context(), userID)
	if err != nil {
		handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

func handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttendanceNotFound):
		response.NotFound(c, 12001, "考勤记录不存在")
	case errors.Is(err, service.ErrAttendanceNotOwner):
		response.Unauthorized(c, 12002, "无权操作该考勤记录")
	default:
		handleKindError(c, err)
	}
}
