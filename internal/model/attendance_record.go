package model

import (
	"strings"
	"time"
)

// AttendanceStatus 出勤状态（封闭枚举）
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusAbsent  AttendanceStatus = "absent"
)

// Valid 是否为已知状态
func (s AttendanceStatus) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// ParseAttendanceStatus 解析请求中的状态字符串（忽略大小写与首尾空白）
func ParseAttendanceStatus(raw string) (AttendanceStatus, bool) {
	s := AttendanceStatus(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// AttendanceRecord 考勤记录表 — 对应 attendance_records
// 逻辑键为 (UserID, Subject, Date)
type AttendanceRecord struct {
	AttendanceRecordID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID             string           `gorm:"type:uuid;not null"                             json:"user_id"`
	Subject            string           `gorm:"type:varchar(100);not null"                     json:"subject"`
	Date               time.Time        `gorm:"type:date;not null"                             json:"date"`
	Status             AttendanceStatus `gorm:"type:varchar(10);not null"                      json:"status"`
	BaseModel
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }
