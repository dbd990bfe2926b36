package dto

// ── 课表时段 ──

// CreateTimetableSlotRequest 新建课表时段
type CreateTimetableSlotRequest struct {
	Day     string `json:"day"     binding:"required"`
	Time    string `json:"time"    binding:"required,max=50"`
	Subject string `json:"subject" binding:"required,max=100"`
}

// UpdateTimetableSlotRequest 部分更新：仅更新非 nil 字段
type UpdateTimetableSlotRequest struct {
	Day     *string `json:"day"`
	Time    *string `json:"time"    binding:"omitempty,max=50"`
	Subject *string `json:"subject" binding:"omitempty,max=100"`
}

// TimetableSlotResponse 课表时段响应
type TimetableSlotResponse struct {
	ID      string `json:"id"`
	Day     string `json:"day"`
	Time    string `json:"time"`
	Subject string `json:"subject"`
}

// ── ICS 导入 ──

// ImportICSResponse ICS 导入响应
type ImportICSResponse struct {
	ImportedCount int                     `json:"imported_count"`
	Slots         []TimetableSlotResponse `json:"slots"`
}
