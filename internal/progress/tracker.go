package progress

import (
	"context"
	"errors"
	"time"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/period"
	"habitsAPI/internal/store"
)

var errSubscriptionClosed = errors.New("log subscription closed")

// Update is one emission of a Tracker: fresh progress, or the error that
// ended the run.
type Update struct {
	Progress *Progress `json:"progress,omitempty"`
	Err      error     `json:"-"`
}

// Tracker keeps a habit's progress current by following a live query over
// the logs of its current period. When the period ends it subscribes to the
// next one.
type Tracker struct {
	Logs  store.LogStore
	Habit *habit.Habit
	Loc   *time.Location
	Now   func() time.Time
	// After defaults to time.After; tests replace it to force rollover.
	After func(time.Duration) <-chan time.Time
}

// Run emits progress until ctx is done or the subscription fails. emit is
// called from Run's goroutine and never after Run returns. A cancelled ctx
// returns nil.
func (t *Tracker) Run(ctx context.Context, emit func(Update)) error {
	now, after := t.Now, t.After
	if now == nil {
		now = time.Now
	}
	if after == nil {
		after = time.After
	}
	loc := t.Loc
	if loc == nil {
		loc = time.UTC
	}

	for {
		rolled, err := t.follow(ctx, now, after, loc, emit)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			emit(Update{Err: err})
			return err
		}
		if !rolled {
			return nil
		}
	}
}

// follow runs one period's subscription. It reports rolled=true when the
// period ended and the caller should resubscribe.
func (t *Tracker) follow(ctx context.Context, now func() time.Time, after func(time.Duration) <-chan time.Time, loc *time.Location, emit func(Update)) (bool, error) {
	start := now()
	bounds := period.Resolve(t.Habit.Frequency, start, loc)

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	snaps, err := t.Logs.WatchLogs(subCtx, store.LogQuery{
		UserID:  t.Habit.UserID,
		HabitID: t.Habit.ID,
		From:    bounds.Start,
		To:      bounds.End,
	})
	if err != nil {
		return false, err
	}

	wait := bounds.End.Sub(start) + time.Nanosecond
	if wait < 0 {
		wait = 0
	}
	rollover := after(wait)

	for {
		select {
		case <-ctx.Done():
			return false, nil
		case <-rollover:
			return true, nil
		case snap, ok := <-snaps:
			if !ok {
				if ctx.Err() != nil {
					return false, nil
				}
				return false, errSubscriptionClosed
			}
			if snap.Err != nil {
				return false, snap.Err
			}
			emit(Update{Progress: Compute(t.Habit, snap.Logs, now(), loc)})
		}
	}
}
