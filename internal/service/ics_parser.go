package service

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	ics "github.com/arran4/golang-ical"

	"github.com/AryanManu544/Presenze/internal/model"
)

// ── ICS 解析 / 生成 ──────────────────────────────────────────
//
// 职责：iCalendar (RFC 5545) 与课表时段之间的互相转换。
//
// 导入规则：
//   - SUMMARY → subject
//   - DTSTART 的星期 → day；RRULE 中 BYDAY 含多天时每天各生成一个时段
//   - DTSTART/DTEND → "HH:MM-HH:MM"；全天事件使用 DESCRIPTION，缺省为 "All day"
//   - 相同 day+time+subject 的事件合并为一个时段
//
// 导出规则：每个时段一个 VEVENT，FREQ=WEEKLY，首次发生日为当前时间之后最近的该星期；
// time 无法解析为时刻时导出为全天事件，原文保存在 DESCRIPTION
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize = 5 * 1024 * 1024 // 5MB
	icsProductID   = "-//Presenze//Timetable//EN"
	icsAllDay      = "All day"
)

var icsDayCodes = map[time.Weekday]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// ParseTimetableICS 解析 ICS 内容为时段列表（未持久化）
func ParseTimetableICS(reader io.Reader, userID string, loc *time.Location) ([]model.TimetableSlot, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("ICS 格式解析失败: %w", err)
	}

	var result []model.TimetableSlot
	seen := make(map[slotKey]bool)
	for _, evt := range cal.Events() {
		for _, slot := range parseSlotEvent(evt, loc) {
			k := keyOfSlot(slot)
			if seen[k] {
				continue
			}
			seen[k] = true
			slot.UserID = userID
			result = append(result, slot)
		}
	}
	return result, nil
}

// parseSlotEvent 解析单个 VEVENT；无法识别的事件返回空
func parseSlotEvent(evt *ics.VEvent, loc *time.Location) []model.TimetableSlot {
	summary := evt.GetProperty(ics.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		return nil
	}
	subject := strings.TrimSpace(summary.Value)
	if utf8.RuneCountInString(subject) > maxSubjectLen {
		return nil
	}

	dtStart, allDay, err := parseICSDateTime(evt, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		return nil
	}

	var slotTime string
	if allDay {
		slotTime = icsAllDay
		if desc := evt.GetProperty(ics.ComponentPropertyDescription); desc != nil {
			if d := strings.TrimSpace(desc.Value); d != "" && utf8.RuneCountInString(d) <= 50 {
				slotTime = d
			}
		}
	} else {
		slotTime = dtStart.Format("15:04")
		dtEnd, _, err := parseICSDateTime(evt, ics.ComponentPropertyDtEnd, loc)
		if err == nil && dtEnd.After(dtStart) {
			slotTime += "-" + dtEnd.Format("15:04")
			// DESCRIPTION 与起止时间一致时保留原始时间文本
			if desc := evt.GetProperty(ics.ComponentPropertyDescription); desc != nil {
				d := strings.TrimSpace(desc.Value)
				if start, end, ok := parseSlotTimeRange(d); ok && utf8.RuneCountInString(d) <= 50 &&
					start == clockOf(dtStart) && end == clockOf(dtEnd) {
					slotTime = d
				}
			}
		}
	}

	days := []time.Weekday{dtStart.Weekday()}
	if rrule := evt.GetProperty(ics.ComponentPropertyRrule); rrule != nil {
		if byDay := parseByDay(rrule.Value); len(byDay) > 0 {
			days = byDay
		}
	}

	slots := make([]model.TimetableSlot, 0, len(days))
	for _, wd := range days {
		slots = append(slots, model.TimetableSlot{
			Day:     model.WeekdayName(wd),
			Time:    slotTime,
			Subject: subject,
		})
	}
	return slots
}

// parseByDay 提取 RRULE 中的 BYDAY（如 FREQ=WEEKLY;BYDAY=MO,WE）
func parseByDay(value string) []time.Weekday {
	codes := make(map[string]time.Weekday, len(icsDayCodes))
	for wd, code := range icsDayCodes {
		codes[code] = wd
	}

	var days []time.Weekday
	for _, part := range strings.Split(value, ";") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 || strings.ToUpper(kv[0]) != "BYDAY" {
			continue
		}
		for _, d := range strings.Split(kv[1], ",") {
			d = strings.ToUpper(strings.TrimSpace(d))
			// 去掉 "1MO" / "-1FR" 这类序号前缀
			if len(d) > 2 {
				d = d[len(d)-2:]
			}
			if wd, ok := codes[d]; ok {
				days = append(days, wd)
			}
		}
	}
	return days
}

// parseICSDateTime 从 VEVENT 中解析日期时间属性，第二个返回值表示全天事件
func parseICSDateTime(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing property %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	// 检查 TZID 参数
	tzLoc := loc
	for k, v := range prop.ICalParameters {
		if strings.ToUpper(k) == "TZID" && len(v) > 0 {
			if l, err := time.LoadLocation(v[0]); err == nil {
				tzLoc = l
			}
		}
	}

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.ParseInLocation("20060102T150405", val, tzLoc); err == nil {
		return t.In(loc), false, nil
	}
	if t, err := time.ParseInLocation("20060102", val, loc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("无法解析日期: %s", val)
}

// BuildTimetableICS 生成每周重复的 iCalendar 文本
// now 决定首次发生日与时区
func BuildTimetableICS(slots []model.TimetableSlot, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(icsProductID)

	loc := now.Location()
	for _, slot := range slots {
		wd, ok := slot.Weekday()
		if !ok {
			continue
		}
		first := nextWeekday(now, wd)

		evt := cal.AddEvent(slot.TimetableSlotID + "@presenze")
		evt.SetDtStampTime(now)
		evt.SetSummary(slot.Subject)
		evt.SetDescription(slot.Time)

		if start, end, ok := parseSlotTimeRange(slot.Time); ok {
			evt.SetStartAt(atClock(first, start, loc))
			evt.SetEndAt(atClock(first, end, loc))
		} else {
			evt.SetAllDayStartAt(first)
			evt.SetAllDayEndAt(first.AddDate(0, 0, 1))
		}
		evt.AddProperty(ics.ComponentPropertyRrule, "FREQ=WEEKLY;BYDAY="+icsDayCodes[wd])
	}
	return cal.Serialize()
}

// nextWeekday 从 now 所在日（含）起最近的 wd，返回该日零点
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

type clock struct{ hour, min int }

func clockOf(t time.Time) clock { return clock{hour: t.Hour(), min: t.Minute()} }

func atClock(day time.Time, c clock, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.hour, c.min, 0, 0, loc)
}

var clockLayouts = []string{"15:04", "15.04", "3:04PM", "3:04 PM", "3PM", "3 PM"}

func parseClock(s string) (clock, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return clock{hour: t.Hour(), min: t.Minute()}, true
		}
	}
	return clock{}, false
}

// parseSlotTimeRange 解析 "09:00-10:00" / "9:00 AM - 10:30 AM" / "14:00"
// 只有开始时间时默认持续 1 小时
func parseSlotTimeRange(text string) (clock, clock, bool) {
	parts := strings.FieldsFunc(text, func(r rune) bool { return r == '-' || r == '–' })
	if len(parts) == 0 || len(parts) > 2 {
		return clock{}, clock{}, false
	}
	start, ok := parseClock(parts[0])
	if !ok {
		return clock{}, clock{}, false
	}
	if len(parts) == 1 {
		end := clock{hour: start.hour + 1, min: start.min}
		if end.hour > 23 {
			end = clock{hour: 23, min: 59}
		}
		return start, end, true
	}
	end, ok := parseClock(parts[1])
	if !ok || end.hour*60+end.min <= start.hour*60+start.min {
		return clock{}, clock{}, false
	}
	return start, end, true
}
