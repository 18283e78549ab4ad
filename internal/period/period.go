// Package period resolves the calendar range a habit's goal is evaluated
// over. Everything here is a pure function of its inputs; callers pass
// "now" explicitly.
package period

import (
	"time"

	"habitsAPI/internal/habit"
)

// Bounds is an inclusive instant range.
type Bounds struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the bounds, inclusive.
func (b Bounds) Contains(t time.Time) bool {
	return !t.Before(b.Start) && !t.After(b.End)
}

// Resolve returns the period of the given frequency that contains ref, in
// loc. Unknown frequencies resolve like daily.
func Resolve(freq habit.Frequency, ref time.Time, loc *time.Location) Bounds {
	if loc == nil {
		loc = time.UTC
	}
	ref = ref.In(loc)

	switch freq {
	case habit.FrequencyWeekly:
		// Weekday() is 0 for Sunday; weeks start Monday.
		offset := (int(ref.Weekday()) + 6) % 7
		start := time.Date(ref.Year(), ref.Month(), ref.Day()-offset, 0, 0, 0, 0, loc)
		end := EndOfDay(time.Date(start.Year(), start.Month(), start.Day()+6, 12, 0, 0, 0, loc))
		return Bounds{Start: start, End: end}
	case habit.FrequencyMonthly:
		return MonthBounds(ref.Year(), ref.Month(), loc)
	default:
		return DayBounds(ref)
	}
}

// MonthBounds returns day 1 00:00 through the last day's end in loc.
func MonthBounds(year int, month time.Month, loc *time.Location) Bounds {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	// Day 0 of the next month normalizes to the last day of this one.
	last := time.Date(year, month+1, 0, 12, 0, 0, 0, loc)
	return Bounds{Start: start, End: EndOfDay(last)}
}

// DayBounds returns the calendar day containing t, in t's location.
func DayBounds(t time.Time) Bounds {
	return Bounds{Start: StartOfDay(t), End: EndOfDay(t)}
}

func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
// It is computed from the next midnight so DST transitions are respected.
func EndOfDay(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location())
	return next.Add(-time.Nanosecond)
}

// IsRestDay reports whether t falls on a Saturday or Sunday for a workday
// habit. Other frequencies have no rest days.
func IsRestDay(freq habit.Frequency, t time.Time) bool {
	if freq != habit.FrequencyWorkday {
		return false
	}
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return false
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
