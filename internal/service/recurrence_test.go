package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AryanManu544/Presenze/internal/model"
)

func makeSlot(day, subject string) model.TimetableSlot {
	return model.TimetableSlot{Day: day, Subject: subject, Time: "09:00-10:00"}
}

func TestExpand_EveryDateInMonthWithWeekday(t *testing.T) {
	days := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	for year := 2023; year <= 2025; year++ {
		for month := time.January; month <= time.December; month++ {
			for i, day := range days {
				dates := Expand([]model.TimetableSlot{makeSlot(day, "Math")}, "Math", year, month)
				require.GreaterOrEqual(t, len(dates), 4, "%d-%02d %s", year, month, day)
				require.LessOrEqual(t, len(dates), 5, "%d-%02d %s", year, month, day)
				for j, d := range dates {
					assert.Equal(t, year, d.Year())
					assert.Equal(t, month, d.Month())
					assert.Equal(t, time.Weekday(i), d.Weekday())
					if j > 0 {
						assert.Equal(t, 7*24*time.Hour, d.Sub(dates[j-1]))
					}
				}
			}
		}
	}
}

func TestExpand_WednesdaysOfMay2024(t *testing.T) {
	dates := Expand([]model.TimetableSlot{makeSlot("Wednesday", "Math")}, "Math", 2024, time.May)

	var days []int
	for _, d := range dates {
		days = append(days, d.Day())
	}
	assert.Equal(t, []int{1, 8, 15, 22, 29}, days)
}

func TestExpand_FiltersBySubject(t *testing.T) {
	slots := []model.TimetableSlot{
		makeSlot("Monday", "Math"),
		makeSlot("Tuesday", "Physics"),
	}
	dates := Expand(slots, "Physics", 2024, time.May)

	require.NotEmpty(t, dates)
	for _, d := range dates {
		assert.Equal(t, time.Tuesday, d.Weekday())
	}
	assert.Empty(t, Expand(slots, "Chemistry", 2024, time.May))
}

func TestExpand_MalformedWeekdayYieldsNothing(t *testing.T) {
	slots := []model.TimetableSlot{makeSlot("Funday", "Math"), makeSlot("", "Math")}
	assert.Empty(t, Expand(slots, "Math", 2024, time.May))
}

func TestExpand_WeekdayCaseInsensitive(t *testing.T) {
	dates := Expand([]model.TimetableSlot{makeSlot(" friday ", "Math")}, "Math", 2024, time.February)
	require.Len(t, dates, 4)
	assert.Equal(t, 2, dates[0].Day())
}

func TestExpand_OrderBySlotThenDate(t *testing.T) {
	slots := []model.TimetableSlot{makeSlot("Friday", "Math"), makeSlot("Monday", "Math")}
	dates := Expand(slots, "Math", 2024, time.May)

	// 周五：3,10,17,24,31；周一：6,13,20,27
	var days []int
	for _, d := range dates {
		days = append(days, d.Day())
	}
	assert.Equal(t, []int{3, 10, 17, 24, 31, 6, 13, 20, 27}, days)
}

// 同一星期的重复时段各自产生日期；去重由 DedupeDates 负责
func TestExpand_DuplicateWeekdaySlotsAmbiguity(t *testing.T) {
	slots := []model.TimetableSlot{makeSlot("Wednesday", "Math"), makeSlot("wednesday", "Math")}
	dates := Expand(slots, "Math", 2024, time.May)
	assert.Len(t, dates, 10)

	deduped := DedupeDates(dates)
	assert.Len(t, deduped, 5)
	assert.Equal(t, 1, deduped[0].Day())
	assert.Equal(t, 29, deduped[4].Day())
}

func TestExpand_InvalidMonth(t *testing.T) {
	assert.Empty(t, Expand([]model.TimetableSlot{makeSlot("Monday", "Math")}, "Math", 2024, time.Month(13)))
}
