package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/habit"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestResolve_Daily(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	ref := time.Date(2024, 3, 15, 14, 30, 0, 0, loc)

	b := Resolve(habit.FrequencyDaily, ref, loc)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), b.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 999999999, loc), b.End)
	assert.True(t, b.Contains(ref))
}

func TestResolve_WorkdayUsesDailyRule(t *testing.T) {
	ref := time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC) // Saturday
	assert.Equal(t, Resolve(habit.FrequencyDaily, ref, time.UTC), Resolve(habit.FrequencyWorkday, ref, time.UTC))
}

func TestResolve_UnknownFrequencyUsesDailyRule(t *testing.T) {
	ref := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, Resolve(habit.FrequencyDaily, ref, time.UTC), Resolve(habit.Frequency("yearly"), ref, time.UTC))
}

func TestResolve_WeeklyStartsMonday(t *testing.T) {
	// 2024-03-11 is a Monday.
	wantStart := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 3, 17, 23, 59, 59, 999999999, time.UTC)

	for day := 11; day <= 17; day++ {
		ref := time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC)
		b := Resolve(habit.FrequencyWeekly, ref, time.UTC)
		assert.Equal(t, wantStart, b.Start, "day %d", day)
		assert.Equal(t, wantEnd, b.End, "day %d", day)
		assert.Equal(t, time.Monday, b.Start.Weekday())
		assert.Equal(t, time.Sunday, b.End.Weekday())
	}
}

func TestResolve_WeeklySundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2024, 3, 17, 23, 0, 0, 0, time.UTC)
	b := Resolve(habit.FrequencyWeekly, sunday, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), b.Start)
}

func TestResolve_WeeklyAcrossMonthBoundary(t *testing.T) {
	// Wednesday 2024-05-01; the week starts Monday 2024-04-29.
	ref := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	b := Resolve(habit.FrequencyWeekly, ref, time.UTC)
	assert.Equal(t, time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC), b.Start)
	assert.Equal(t, time.Date(2024, 5, 5, 23, 59, 59, 999999999, time.UTC), b.End)
}

func TestResolve_MonthlyLeapYear(t *testing.T) {
	b := Resolve(habit.FrequencyMonthly, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), b.Start)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC), b.End)

	b = Resolve(habit.FrequencyMonthly, time.Date(2023, 2, 10, 0, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2023, 2, 28, 23, 59, 59, 999999999, time.UTC), b.End)
}

func TestResolve_MonthlyDecember(t *testing.T) {
	b := Resolve(habit.FrequencyMonthly, time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), b.Start)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 999999999, time.UTC), b.End)
}

func TestResolve_UsesCallerLocation(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	// 2024-03-15 20:00 UTC is already 2024-03-16 in Tokyo.
	ref := time.Date(2024, 3, 15, 20, 0, 0, 0, time.UTC)

	b := Resolve(habit.FrequencyDaily, ref, tokyo)

	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, tokyo), b.Start)
	assert.Equal(t, tokyo, b.Start.Location())
}

func TestResolve_DSTSpringForward(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// 2024-03-10 has only 23 hours in New York.
	ref := time.Date(2024, 3, 10, 12, 0, 0, 0, ny)

	b := Resolve(habit.FrequencyDaily, ref, ny)

	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, ny), b.Start)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 59, 59, 999999999, ny), b.End)
	assert.Equal(t, 23*time.Hour-time.Nanosecond, b.End.Sub(b.Start))
}

func TestResolve_DSTFallBackWeek(t *testing.T) {
	ny := mustLoad(t, "America/New_York")
	// The week of 2024-11-03 contains the fall-back transition.
	ref := time.Date(2024, 11, 3, 12, 0, 0, 0, ny)

	b := Resolve(habit.FrequencyWeekly, ref, ny)

	assert.Equal(t, time.Date(2024, 10, 28, 0, 0, 0, 0, ny), b.Start)
	assert.Equal(t, time.Date(2024, 11, 3, 23, 59, 59, 999999999, ny), b.End)
}

func TestResolve_NilLocationIsUTC(t *testing.T) {
	b := Resolve(habit.FrequencyDaily, time.Date(2024, 3, 15, 5, 0, 0, 0, time.UTC), nil)
	assert.Equal(t, time.UTC, b.Start.Location())
}

func TestMonthBounds(t *testing.T) {
	b := MonthBounds(2024, time.April, time.UTC)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), b.Start)
	assert.Equal(t, time.Date(2024, 4, 30, 23, 59, 59, 999999999, time.UTC), b.End)
}

func TestIsRestDay(t *testing.T) {
	saturday := time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 3, 17, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)

	assert.True(t, IsRestDay(habit.FrequencyWorkday, saturday))
	assert.True(t, IsRestDay(habit.FrequencyWorkday, sunday))
	assert.False(t, IsRestDay(habit.FrequencyWorkday, monday))

	for _, f := range []habit.Frequency{habit.FrequencyDaily, habit.FrequencyWeekly, habit.FrequencyMonthly} {
		assert.False(t, IsRestDay(f, saturday), string(f))
	}
}

func TestSameDay(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	a := time.Date(2024, 3, 15, 16, 0, 0, 0, time.UTC) // 2024-03-16 01:00 in Tokyo
	b := time.Date(2024, 3, 16, 3, 0, 0, 0, time.UTC)  // 2024-03-16 12:00 in Tokyo

	assert.True(t, SameDay(a, b, tokyo))
	assert.False(t, SameDay(a, b, time.UTC))
}
