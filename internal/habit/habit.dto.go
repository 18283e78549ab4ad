package habit

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxNameLength = 50

// ValidationError is returned for caller-side input problems, before any
// write is attempted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type CreateHabitRequest struct {
	Name      string    `json:"name"`
	GoalMin   int       `json:"goalMin"`
	GoalMax   *int      `json:"goalMax,omitempty"`
	Unit      Unit      `json:"unit"`
	Frequency Frequency `json:"frequency"`
}

// Normalize trims the name and applies defaults for unit and frequency.
func (r *CreateHabitRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Unit == "" {
		r.Unit = UnitTimes
	}
	if r.Frequency == "" {
		r.Frequency = FrequencyDaily
	}
}

func (r *CreateHabitRequest) Validate() error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	if err := validateGoal(r.GoalMin, r.GoalMax); err != nil {
		return err
	}
	if !r.Unit.Valid() {
		return invalid("unit", "unknown unit %q", r.Unit)
	}
	if !r.Frequency.Valid() {
		return invalid("frequency", "unknown frequency %q", r.Frequency)
	}
	return nil
}

// UpdateHabitRequest carries a partial update. Nil fields are left as they
// are. ClearGoalMax removes an existing upper bound.
type UpdateHabitRequest struct {
	Name         *string    `json:"name,omitempty"`
	GoalMin      *int       `json:"goalMin,omitempty"`
	GoalMax      *int       `json:"goalMax,omitempty"`
	ClearGoalMax bool       `json:"clearGoalMax,omitempty"`
	Unit         *Unit      `json:"unit,omitempty"`
	Frequency    *Frequency `json:"frequency,omitempty"`
}

func (r *UpdateHabitRequest) Empty() bool {
	return r.Name == nil && r.GoalMin == nil && r.GoalMax == nil && !r.ClearGoalMax &&
		r.Unit == nil && r.Frequency == nil
}

// Apply validates the update against the current habit and returns the
// merged result. The input habit is not modified.
func (r *UpdateHabitRequest) Apply(current Habit) (Habit, error) {
	next := current
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if err := validateName(name); err != nil {
			return current, err
		}
		next.Name = name
	}
	if r.GoalMin != nil {
		next.GoalMin = *r.GoalMin
	}
	if r.ClearGoalMax {
		next.GoalMax = nil
	}
	if r.GoalMax != nil {
		max := *r.GoalMax
		next.GoalMax = &max
	}
	if err := validateGoal(next.GoalMin, next.GoalMax); err != nil {
		return current, err
	}
	if r.Unit != nil {
		if !r.Unit.Valid() {
			return current, invalid("unit", "unknown unit %q", *r.Unit)
		}
		next.Unit = *r.Unit
	}
	if r.Frequency != nil {
		if !r.Frequency.Valid() {
			return current, invalid("frequency", "unknown frequency %q", *r.Frequency)
		}
		next.Frequency = *r.Frequency
	}
	return next, nil
}

type ReorderRequest struct {
	OrderedIDs []string `json:"orderedIds"`
}

func (r *ReorderRequest) Validate() error {
	if len(r.OrderedIDs) == 0 {
		return invalid("orderedIds", "must not be empty")
	}
	seen := make(map[string]struct{}, len(r.OrderedIDs))
	for _, id := range r.OrderedIDs {
		if id == "" {
			return invalid("orderedIds", "contains an empty id")
		}
		if _, dup := seen[id]; dup {
			return invalid("orderedIds", "duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

type LogHabitRequest struct {
	Value int `json:"value"`
	// Date is optional; when nil the entry is logged for today.
	Date *time.Time `json:"date,omitempty"`
}

type SetDayValueRequest struct {
	Value int `json:"value"`
}

type UpdateLogRequest struct {
	Value int `json:"value"`
}

func ValidateValue(value int) error {
	if value < 0 {
		return invalid("value", "must be a non-negative integer")
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return invalid("name", "must be at most %d characters", MaxNameLength)
	}
	return nil
}

func validateGoal(min int, max *int) error {
	if min < 1 {
		return invalid("goalMin", "must be at least 1")
	}
	if max != nil && *max <= min {
		return invalid("goalMax", "must be greater than goalMin")
	}
	return nil
}
