package service

import (
	"time"

	"github.com/AryanManu544/Presenze/internal/model"
)

// ── 周期展开 ──────────────────────────────────────────────
//
// 将每周重复的课表时段展开为某个自然月内的具体日期。
//   - 仅处理 Subject 完全匹配的时段
//   - 每个时段从当月 1 日向后找到首个同星期的日期，再以 7 天为步长直到跨月
//   - 输出顺序：先按时段顺序，再按日期升序
//   - 星期名无法识别的时段不产生日期，也不报错
//   - 同一星期的重复时段各自产生一组日期，不在此处合并
// ─────────────────────────────────────────────────────────────

// Expand 展开 subject 在 year-month 内的全部上课日期（UTC 零点）
func Expand(slots []model.TimetableSlot, subject string, year int, month time.Month) []time.Time {
	var dates []time.Time
	for _, slot := range slots {
		if slot.Subject != subject {
			continue
		}
		wd, ok := slot.Weekday()
		if !ok {
			continue
		}
		dates = append(dates, expandWeekday(wd, year, month)...)
	}
	return dates
}

func expandWeekday(wd time.Weekday, year int, month time.Month) []time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if d.Month() != month {
		return nil
	}
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}

	var dates []time.Time
	for ; d.Month() == month; d = d.AddDate(0, 0, 7) {
		dates = append(dates, d)
	}
	return dates
}

// DedupeDates 按日去重，保留首次出现的位置
func DedupeDates(dates []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(dates))
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		key := model.DateOnly(d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out
}
