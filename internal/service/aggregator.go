package service

import "github.com/AryanManu544/Presenze/internal/model"

// Tier 出勤率分级
type Tier string

const (
	TierGood     Tier = "good"
	TierWarning  Tier = "warning"
	TierCritical Tier = "critical"
)

const (
	tierGoodThreshold    = 90.0
	tierWarningThreshold = 75.0
)

// SubjectStats 单科目统计
// 未知状态计入 Total，但不计入 Present / Absent
type SubjectStats struct {
	Present    int
	Absent     int
	Total      int
	Percentage float64
}

// Tier 当前出勤率对应的分级
func (s SubjectStats) Tier() Tier {
	return ClassifyTier(s.Percentage)
}

// Summarize 按科目汇总出勤情况
func Summarize(records []model.AttendanceRecord) map[string]SubjectStats {
	out := make(map[string]SubjectStats)
	for _, r := range records {
		st := out[r.Subject]
		switch r.Status {
		case model.StatusPresent:
			st.Present++
		case model.StatusAbsent:
			st.Absent++
		}
		st.Total++
		out[r.Subject] = st
	}
	for subject, st := range out {
		st.Percentage = Percentage(st.Present, st.Total)
		out[subject] = st
	}
	return out
}

// Percentage present / total * 100；total 为 0 时返回 0
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(present) * 100 / float64(total)
}

// ClassifyTier 分级下界包含在内：90 为 good，75 为 warning
func ClassifyTier(percentage float64) Tier {
	switch {
	case percentage >= tierGoodThreshold:
		return TierGood
	case percentage >= tierWarningThreshold:
		return TierWarning
	default:
		return TierCritical
	}
}
