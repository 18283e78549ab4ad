// Package store defines the document-store contract the services run
// against. Backends live in sub-packages: firestore, postgres and sqlite.
package store

import (
	"context"
	"errors"
	"time"

	"habitsAPI/internal/habit"
)

var ErrNotFound = errors.New("not found")

// LogQuery selects the logs of one habit whose date lies in [From, To].
// A zero From or To leaves that side open.
type LogQuery struct {
	UserID  string
	HabitID string
	From    time.Time
	To      time.Time
}

func (q LogQuery) Matches(l *habit.HabitLog) bool {
	if l.UserID != q.UserID || l.HabitID != q.HabitID {
		return false
	}
	if !q.From.IsZero() && l.Date.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && l.Date.After(q.To) {
		return false
	}
	return true
}

// LogSnapshot is one delivery of a live log query. Err is set when the
// subscription failed; no further snapshots follow it.
type LogSnapshot struct {
	Logs []*habit.HabitLog
	Err  error
}

type HabitStore interface {
	CreateHabit(ctx context.Context, h *habit.Habit) error
	GetHabit(ctx context.Context, id string) (*habit.Habit, error)
	// ListHabits returns the user's habits ordered by Order ascending.
	ListHabits(ctx context.Context, userID string) ([]*habit.Habit, error)
	// UpdateHabit overwrites the editable fields (name, goals, unit,
	// frequency). Order, owner and creation time are untouched.
	UpdateHabit(ctx context.Context, h *habit.Habit) error
	SetHabitOrder(ctx context.Context, id string, order int) error
	// DeleteHabit removes the habit and its logs.
	DeleteHabit(ctx context.Context, id string) error
	// MaxHabitOrder returns the highest Order among the user's habits, or
	// -1 when the user has none.
	MaxHabitOrder(ctx context.Context, userID string) (int, error)
}

type LogStore interface {
	CreateLog(ctx context.Context, l *habit.HabitLog) error
	GetLog(ctx context.Context, id string) (*habit.HabitLog, error)
	UpdateLogValue(ctx context.Context, id string, value int) error
	// ListLogs returns matching logs ordered by date ascending.
	ListLogs(ctx context.Context, q LogQuery) ([]*habit.HabitLog, error)
	// WatchLogs delivers the current result of q and then a fresh result
	// after every change to the matching set. The channel is closed once
	// ctx is done.
	WatchLogs(ctx context.Context, q LogQuery) (<-chan LogSnapshot, error)
}

type Store interface {
	HabitStore
	LogStore
	// DeleteUserData removes every habit and log owned by userID.
	DeleteUserData(ctx context.Context, userID string) error
	Ping(ctx context.Context) error
	Close() error
}
