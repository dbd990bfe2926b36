package dto

import "time"

// DateLayout 请求 / 响应中的日期格式
const DateLayout = "2006-01-02"

// ── 单条考勤记录 ──

// MarkAttendanceRequest 新建考勤记录请求
// Date 为空时取当天
type MarkAttendanceRequest struct {
	Subject string  `json:"subject" binding:"required,max=100"`
	Date    *string `json:"date"`
	Status  string  `json:"status"  binding:"required"`
}

// UpdateAttendanceRequest 部分更新请求：仅更新非 nil 字段
type UpdateAttendanceRequest struct {
	Subject *string `json:"subject" binding:"omitempty,max=100"`
	Date    *string `json:"date"`
	Status  *string `json:"status"`
}

// AttendanceRecordResponse 考勤记录响应
type AttendanceRecordResponse struct {
	ID        string `json:"id"`
	Subject   string `json:"subject"`
	Date      string `json:"date"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ── 批量标记 ──

// MarkItem 单个日期的标记；Status 为 nil 表示保持原状
type MarkItem struct {
	Date   string  `json:"date"   binding:"required"`
	Status *string `json:"status"`
}

// MarkMultipleRequest 批量标记请求
type MarkMultipleRequest struct {
	Subject string     `json:"subject" binding:"required,max=100"`
	Dates   []MarkItem `json:"dates"   binding:"dive"`
}

// MarkFailure 批量标记中失败的单项
type MarkFailure struct {
	Date    string `json:"date"`
	Reason  string `json:"reason"` // validation / forbidden / store
	Message string `json:"message"`
}

// BatchResult 批量标记结果
// 失败项不会回滚已成功写入的日期
type BatchResult struct {
	Success  bool          `json:"success"`
	Applied  int           `json:"applied"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Failures []MarkFailure `json:"failures,omitempty"`
}

// ── 月视图 ──

// ScheduleEntry 月视图中的一天；Status 为 "unmarked" 表示尚无记录
type ScheduleEntry struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
	Status  string `json:"status"`
}

// ScheduleViewResponse 科目月视图
type ScheduleViewResponse struct {
	Subject string          `json:"subject"`
	Month   string          `json:"month"` // YYYY-MM
	Entries []ScheduleEntry `json:"entries"`
}

// ── 统计 ──

// SubjectSummary 单科目出勤统计
type SubjectSummary struct {
	Subject    string  `json:"subject"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Tier       string  `json:"tier"`
}

// SummaryResponse 出勤统计响应
type SummaryResponse struct {
	Subjects []SubjectSummary `json:"subjects"`
	Overall  SubjectSummary   `json:"overall"`
}

// FormatDate 将日精度时间格式化为 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
