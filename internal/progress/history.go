package progress

import (
	"time"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/period"
)

// DayValue is one calendar cell of a history view.
type DayValue struct {
	Date   time.Time `json:"date"`
	Value  int       `json:"value"`
	Logged bool      `json:"logged"`
	Status Status    `json:"status"`
}

type History struct {
	HabitID string     `json:"habitId"`
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Days    []DayValue `json:"days"`
	Total   int        `json:"total"`
}

// MonthHistory lays logs out over every day of the month in loc. Each day
// carries the status its value would have against a daily goal.
func MonthHistory(h *habit.Habit, logs []*habit.HabitLog, year int, month time.Month, loc *time.Location) *History {
	if loc == nil {
		loc = time.UTC
	}
	bounds := period.MonthBounds(year, month, loc)

	hist := &History{HabitID: h.ID, Year: year, Month: month, Days: []DayValue{}}
	for day := bounds.Start; !day.After(bounds.End); day = time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc) {
		dv := DayValue{Date: day, Status: StatusNone}
		if l := FindDay(logs, day, loc); l != nil {
			dv.Value = l.Value
			dv.Logged = true
			dv.Status = DeriveStatus(l.Value, h.GoalMin, h.GoalMax)
			hist.Total += l.Value
		}
		hist.Days = append(hist.Days, dv)
	}
	return hist
}
