package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/period"
)

func intPtr(n int) *int { return &n }

func logOn(day time.Time, value int) *habit.HabitLog {
	return &habit.HabitLog{
		ID:       day.Format(time.DateOnly),
		UserID:   "u1",
		HabitID:  "h1",
		Date:     period.StartOfDay(day),
		Value:    value,
		Timezone: day.Location().String(),
	}
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name  string
		total int
		min   int
		max   *int
		want  Status
	}{
		{"zero is none", 0, 10, nil, StatusNone},
		{"zero is none with range", 0, 10, intPtr(15), StatusNone},
		{"below single goal", 5, 10, nil, StatusPartial},
		{"at single goal", 10, 10, nil, StatusComplete},
		{"above single goal", 20, 10, nil, StatusComplete},
		{"below range", 9, 10, intPtr(15), StatusPartial},
		{"range lower edge", 10, 10, intPtr(15), StatusComplete},
		{"range upper edge", 15, 10, intPtr(15), StatusComplete},
		{"above range", 16, 10, intPtr(15), StatusExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.total, tt.min, tt.max))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 10, nil))
	assert.Equal(t, 50.0, Percentage(5, 10, nil))
	assert.Equal(t, 100.0, Percentage(25, 10, nil))
	// Measured against goalMax when present.
	assert.Equal(t, 80.0, Percentage(12, 10, intPtr(15)))
	assert.Equal(t, 100.0, Percentage(30, 10, intPtr(15)))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "10-15 to go", Label(StatusPartial, "10-15"))
	assert.Equal(t, "Not started", Label(StatusNone, "10"))
	assert.Equal(t, "Complete", Label(StatusComplete, "10"))
	assert.Equal(t, "Exceeded", Label(StatusExceeded, "10-15"))
}

func TestCompute_DailyUsesTodayOnly(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	h := &habit.Habit{ID: "h1", UserID: "u1", GoalMin: 3, Frequency: habit.FrequencyDaily}
	logs := []*habit.HabitLog{
		logOn(now.AddDate(0, 0, -1), 5),
		logOn(now, 2),
	}

	p := Compute(h, logs, now, time.UTC)

	assert.Equal(t, 2, p.Total)
	assert.Equal(t, 2, p.TodayValue)
	assert.Equal(t, StatusPartial, p.Status)
	assert.Equal(t, "3 to go", p.Label)
	assert.InDelta(t, 66.66, p.Percentage, 0.01)
	assert.True(t, p.CanIncrement)
	assert.True(t, p.CanDecrement)
}

func TestCompute_WeeklySumsPeriod(t *testing.T) {
	// Friday; the week runs Mon 11th to Sun 17th.
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	h := &habit.Habit{ID: "h1", UserID: "u1", GoalMin: 10, GoalMax: intPtr(15), Unit: habit.UnitBlocks, Frequency: habit.FrequencyWeekly}
	logs := []*habit.HabitLog{
		logOn(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), 7), // previous week
		logOn(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), 4),
		logOn(time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), 5),
		logOn(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 3),
	}

	p := Compute(h, logs, now, time.UTC)

	assert.Equal(t, 12, p.Total)
	assert.Equal(t, "12 blocks (300 min)", p.ValueLabel)
	assert.Equal(t, StatusComplete, p.Status)
	assert.Equal(t, "10-15", p.GoalLabel)
	assert.Equal(t, 3, p.TodayValue)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), p.PeriodStart)
}

func TestCompute_MonthlyExceeded(t *testing.T) {
	now := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	h := &habit.Habit{ID: "h1", UserID: "u1", GoalMin: 5, GoalMax: intPtr(8), Frequency: habit.FrequencyMonthly}
	logs := []*habit.HabitLog{
		logOn(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 4),
		logOn(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 5),
	}

	p := Compute(h, logs, now, time.UTC)

	assert.Equal(t, 9, p.Total)
	assert.Equal(t, StatusExceeded, p.Status)
	assert.Equal(t, 100.0, p.Percentage)
}

func TestCompute_WorkdayRestDay(t *testing.T) {
	saturday := time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC)
	h := &habit.Habit{ID: "h1", UserID: "u1", GoalMin: 1, Frequency: habit.FrequencyWorkday}
	logs := []*habit.HabitLog{logOn(saturday, 2)}

	p := Compute(h, logs, saturday, time.UTC)

	assert.True(t, p.RestDay)
	assert.False(t, p.CanIncrement)
	assert.False(t, p.CanDecrement)
	assert.Equal(t, 2, p.Total, "recorded entries still count")
}

func TestCompute_NoLogs(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	h := &habit.Habit{ID: "h1", UserID: "u1", GoalMin: 1, Frequency: habit.FrequencyDaily}

	p := Compute(h, nil, now, time.UTC)

	assert.Equal(t, 0, p.Total)
	assert.Equal(t, StatusNone, p.Status)
	assert.False(t, p.CanDecrement)
	assert.True(t, p.CanIncrement)
}

func TestCompute_TodayResolvedInCurrentLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	// Logged as Tokyo's 2024-03-16, which started at 2024-03-15 15:00 UTC.
	logged := logOn(time.Date(2024, 3, 16, 8, 0, 0, 0, tokyo), 4)
	h := &habit.Habit{ID: "h1", UserID: "u1", GoalMin: 1, Frequency: habit.FrequencyDaily}

	// In New York that instant is 2024-03-15 11:00, so the entry buckets
	// into the 15th there.
	p := Compute(h, []*habit.HabitLog{logged}, time.Date(2024, 3, 15, 20, 0, 0, 0, ny), ny)
	assert.Equal(t, 4, p.Total)

	p = Compute(h, []*habit.HabitLog{logged}, time.Date(2024, 3, 16, 20, 0, 0, 0, ny), ny)
	assert.Equal(t, 0, p.Total)
}

func TestMonthHistory(t *testing.T) {
	h := &habit.Habit{ID: "h1", UserID: "u1", GoalMin: 2, Frequency: habit.FrequencyDaily}
	logs := []*habit.HabitLog{
		logOn(time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC), 1),
		logOn(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 2),
	}

	hist := MonthHistory(h, logs, 2024, time.February, time.UTC)

	assert.Len(t, hist.Days, 29)
	assert.Equal(t, 3, hist.Total)

	assert.True(t, hist.Days[2].Logged)
	assert.Equal(t, StatusPartial, hist.Days[2].Status)
	assert.Equal(t, StatusComplete, hist.Days[28].Status)
	assert.False(t, hist.Days[0].Logged)
	assert.Equal(t, StatusNone, hist.Days[0].Status)
}
