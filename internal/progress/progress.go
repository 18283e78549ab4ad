// Package progress turns the log entries of a habit's current period into a
// total, a status and a percentage for the progress indicator.
package progress

import (
	"time"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/period"
)

type Status string

const (
	StatusNone     Status = "none"
	StatusPartial  Status = "partial"
	StatusComplete Status = "complete"
	StatusExceeded Status = "exceeded"
)

type Progress struct {
	HabitID      string          `json:"habitId"`
	Frequency    habit.Frequency `json:"frequency"`
	PeriodStart  time.Time       `json:"periodStart"`
	PeriodEnd    time.Time       `json:"periodEnd"`
	Total        int             `json:"total"`
	ValueLabel   string          `json:"valueLabel"`
	Status       Status          `json:"status"`
	Percentage   float64         `json:"percentage"`
	GoalLabel    string          `json:"goalLabel"`
	Label        string          `json:"label"`
	TodayValue   int             `json:"todayValue"`
	RestDay      bool            `json:"restDay"`
	CanIncrement bool            `json:"canIncrement"`
	CanDecrement bool            `json:"canDecrement"`
}

// Compute derives progress for h from the entries of its current period.
// now is the evaluation instant and loc the caller's current timezone; the
// timezone stored on each entry is ignored.
func Compute(h *habit.Habit, logs []*habit.HabitLog, now time.Time, loc *time.Location) *Progress {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	bounds := period.Resolve(h.Frequency, now, loc)

	today := FindDay(logs, now, loc)
	todayValue := 0
	if today != nil {
		todayValue = today.Value
	}

	total := Total(h.Frequency, logs, bounds, now, loc)
	status := DeriveStatus(total, h.GoalMin, h.GoalMax)
	restDay := period.IsRestDay(h.Frequency, now)

	return &Progress{
		HabitID:      h.ID,
		Frequency:    h.Frequency,
		PeriodStart:  bounds.Start,
		PeriodEnd:    bounds.End,
		Total:        total,
		ValueLabel:   h.Unit.Label(total),
		Status:       status,
		Percentage:   Percentage(total, h.GoalMin, h.GoalMax),
		GoalLabel:    h.GoalLabel(),
		Label:        Label(status, h.GoalLabel()),
		TodayValue:   todayValue,
		RestDay:      restDay,
		CanIncrement: !restDay,
		CanDecrement: !restDay && todayValue > 0,
	}
}

// Total sums every entry inside bounds for accumulating frequencies. For
// daily and workday habits it is the value of today's entry, or 0.
func Total(freq habit.Frequency, logs []*habit.HabitLog, bounds period.Bounds, now time.Time, loc *time.Location) int {
	if !freq.Accumulates() {
		if l := FindDay(logs, now, loc); l != nil {
			return l.Value
		}
		return 0
	}

	total := 0
	for _, l := range logs {
		if bounds.Contains(l.Date) {
			total += l.Value
		}
	}
	return total
}

// DeriveStatus classifies a total against the goal. Order matters: a zero
// total is always none, even for a habit whose range would otherwise
// classify it.
func DeriveStatus(total, goalMin int, goalMax *int) Status {
	if total == 0 {
		return StatusNone
	}
	if goalMax != nil {
		switch {
		case total > *goalMax:
			return StatusExceeded
		case total >= goalMin:
			return StatusComplete
		default:
			return StatusPartial
		}
	}
	if total >= goalMin {
		return StatusComplete
	}
	return StatusPartial
}

// Percentage is measured against goalMax when present, else goalMin, and
// clamped to [0, 100].
func Percentage(total, goalMin int, goalMax *int) float64 {
	target := goalMin
	if goalMax != nil {
		target = *goalMax
	}
	if target <= 0 || total <= 0 {
		return 0
	}
	pct := float64(total) / float64(target) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

func Label(status Status, goalLabel string) string {
	switch status {
	case StatusPartial:
		return goalLabel + " to go"
	case StatusComplete:
		return "Complete"
	case StatusExceeded:
		return "Exceeded"
	default:
		return "Not started"
	}
}

// FindDay returns the entry whose date falls on day's calendar day in loc.
func FindDay(logs []*habit.HabitLog, day time.Time, loc *time.Location) *habit.HabitLog {
	for _, l := range logs {
		if period.SameDay(l.Date, day, loc) {
			return l
		}
	}
	return nil
}
