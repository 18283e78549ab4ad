package habit

import (
	"fmt"
	"time"
)

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWorkday Frequency = "workday"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Accumulates reports whether the total for this frequency sums every entry
// in the period instead of reading a single day.
func (f Frequency) Accumulates() bool {
	return f == FrequencyWeekly || f == FrequencyMonthly
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWorkday, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

type Unit string

const (
	UnitTimes   Unit = "times"
	UnitMinutes Unit = "minutes"
	UnitHours   Unit = "hours"
	// UnitBlocks counts 25-minute focus blocks.
	UnitBlocks Unit = "blocks"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitTimes, UnitMinutes, UnitHours, UnitBlocks:
		return true
	}
	return false
}

// Label renders a value with its unit, e.g. "3 blocks (75 min)".
func (u Unit) Label(value int) string {
	switch u {
	case UnitBlocks:
		return fmt.Sprintf("%d blocks (%d min)", value, value*25)
	case "":
		return fmt.Sprintf("%d", value)
	default:
		return fmt.Sprintf("%d %s", value, u)
	}
}

type Habit struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	GoalMin   int       `json:"goalMin"`
	GoalMax   *int      `json:"goalMax,omitempty"`
	Unit      Unit      `json:"unit"`
	Frequency Frequency `json:"frequency"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
}

// GoalLabel renders the goal as "10" or "10-15".
func (h *Habit) GoalLabel() string {
	if h.GoalMax != nil {
		return fmt.Sprintf("%d-%d", h.GoalMin, *h.GoalMax)
	}
	return fmt.Sprintf("%d", h.GoalMin)
}

type HabitLog struct {
	ID      string `json:"id"`
	UserID  string `json:"userId"`
	HabitID string `json:"habitId"`
	// Date is the start of the logged calendar day in the timezone that was
	// active when the entry was created.
	Date     time.Time `json:"date"`
	Value    int       `json:"value"`
	Timezone string    `json:"timezone"`
}

// Identity is the signed-in principal as reported by the identity provider.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}
