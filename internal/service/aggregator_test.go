package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanManu544/Presenze/internal/model"
)

func makeRecords(subject string, present, absent int) []model.AttendanceRecord {
	var out []model.AttendanceRecord
	for i := 0; i < present; i++ {
		out = append(out, model.AttendanceRecord{Subject: subject, Status: model.StatusPresent})
	}
	for i := 0; i < absent; i++ {
		out = append(out, model.AttendanceRecord{Subject: subject, Status: model.StatusAbsent})
	}
	return out
}

func TestSummarize_NinePresentOneAbsent(t *testing.T) {
	stats := Summarize(makeRecords("X", 9, 1))

	require.Contains(t, stats, "X")
	st := stats["X"]
	assert.Equal(t, 9, st.Present)
	assert.Equal(t, 1, st.Absent)
	assert.Equal(t, 10, st.Total)
	assert.InDelta(t, 90.0, st.Percentage, 1e-9)
	assert.Equal(t, TierGood, st.Tier())
}

func TestSummarize_SevenPresentThreeAbsent(t *testing.T) {
	st := Summarize(makeRecords("X", 7, 3))["X"]
	assert.InDelta(t, 70.0, st.Percentage, 1e-9)
	assert.Equal(t, TierCritical, st.Tier())
}

func TestSummarize_GroupsBySubject(t *testing.T) {
	all := append(makeRecords("Math", 3, 1), makeRecords("Physics", 1, 1)...)
	stats := Summarize(all)

	require.Len(t, stats, 2)
	assert.InDelta(t, 75.0, stats["Math"].Percentage, 1e-9)
	assert.Equal(t, TierWarning, stats["Math"].Tier())
	assert.InDelta(t, 50.0, stats["Physics"].Percentage, 1e-9)
}

func TestSummarize_UnknownStatusCountsTowardTotalOnly(t *testing.T) {
	all := append(makeRecords("Math", 1, 0), model.AttendanceRecord{Subject: "Math", Status: "late"})
	st := Summarize(all)["Math"]

	assert.Equal(t, 1, st.Present)
	assert.Equal(t, 0, st.Absent)
	assert.Equal(t, 2, st.Total)
	assert.InDelta(t, 50.0, st.Percentage, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(nil))
}

func TestPercentage_ZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
}

func TestClassifyTier_Boundaries(t *testing.T) {
	cases := []struct {
		p    float64
		want Tier
	}{
		{100, TierGood},
		{90, TierGood},
		{89.99, TierWarning},
		{75, TierWarning},
		{74.99, TierCritical},
		{0, TierCritical},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyTier(c.p), "percentage=%v", c.p)
	}
}
