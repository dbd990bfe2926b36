package model

import (
	"strings"
	"time"
)

// TimetableSlot 课表时段表 — 对应 timetable_slots
// Time 为自由文本（如 "09:00-10:00"），不参与任何计算
type TimetableSlot struct {
	TimetableSlotID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID          string `gorm:"type:uuid;not null"                             json:"user_id"`
	Day             string `gorm:"type:varchar(10);not null"                      json:"day"`
	Time            string `gorm:"type:varchar(50);not null"                      json:"time"`
	Subject         string `gorm:"type:varchar(100);not null"                     json:"subject"`
	BaseModel
}

// TableName 指定表名
func (TimetableSlot) TableName() string { return "timetable_slots" }

// Weekday 解析 Day 字段
func (s TimetableSlot) Weekday() (time.Weekday, bool) {
	return ParseWeekday(s.Day)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday 将英文星期名（忽略大小写）解析为 time.Weekday
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// WeekdayName 规范化的星期名，如 "Monday"
func WeekdayName(wd time.Weekday) string {
	return wd.String()
}
