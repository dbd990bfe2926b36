package service

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/AryanManu544/Presenze/internal/dto"
	"github.com/AryanManu544/Presenze/internal/model"
	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
)

const maxSubjectLen = 100

// 接受的日期格式；带时间的格式按考勤时区换算到日
var dateLayouts = []string{
	dto.DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// requireOwner 未携带身份时一律拒绝
func requireOwner(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// validID 非 UUID 的 id 不可能存在，直接视为不存在
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func normalizeSubject(field, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", apperrors.Validation(field, "科目不能为空")
	}
	if utf8.RuneCountInString(s) > maxSubjectLen {
		return "", apperrors.Validation(field, fmt.Sprintf("科目长度不能超过 %d", maxSubjectLen))
	}
	return s, nil
}

func parseStatus(field, raw string) (model.AttendanceStatus, error) {
	st, ok := model.ParseAttendanceStatus(raw)
	if !ok {
		return "", apperrors.Validation(field, "状态必须为 present 或 absent")
	}
	return st, nil
}

// parseDate 解析日期并截断到日精度
func parseDate(field, raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, apperrors.Validation(field, "日期不能为空")
	}
	if t, err := time.Parse(dto.DateLayout, raw); err == nil {
		return model.DateOnly(t), nil
	}
	for _, layout := range dateLayouts[1:] {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return model.DateOnly(t.In(loc)), nil
		}
	}
	return time.Time{}, apperrors.Validation(field, "日期格式无效，应为 YYYY-MM-DD")
}

// parseMonth 解析 YYYY-MM；为空时返回 now 所在月份
func parseMonth(raw string, now time.Time) (int, time.Month, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return 0, 0, apperrors.Validation("month", "月份格式无效，应为 YYYY-MM")
	}
	return t.Year(), t.Month(), nil
}

func normalizeDay(field, raw string) (string, error) {
	wd, ok := model.ParseWeekday(raw)
	if !ok {
		return "", apperrors.Validation(field, "星期必须为 Monday 至 Sunday")
	}
	return model.WeekdayName(wd), nil
}

func normalizeSlotTime(field, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", apperrors.Validation(field, "时间不能为空")
	}
	if utf8.RuneCountInString(s) > 50 {
		return "", apperrors.Validation(field, "时间长度不能超过 50")
	}
	return s, nil
}
