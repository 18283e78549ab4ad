package services

import (
	"context"
	"time"

	"habitsAPI/internal/metrics"
	"habitsAPI/internal/progress"
	"habitsAPI/internal/store"
)

// ProgressService runs live progress trackers for the websocket feed.
type ProgressService struct {
	store store.Store
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func NewProgressService(st store.Store) *ProgressService {
	return &ProgressService{store: st, now: time.Now, after: time.After}
}

// Watch emits fresh progress for the habit until ctx is done or the
// underlying subscription fails.
func (s *ProgressService) Watch(ctx context.Context, uid, habitID string, loc *time.Location, emit func(progress.Update)) error {
	if uid == "" {
		return ErrUnauthenticated
	}
	h, err := ownedHabit(ctx, s.store, uid, habitID)
	if err != nil {
		return err
	}

	metrics.LiveSubscriptions.Inc()
	defer metrics.LiveSubscriptions.Dec()

	t := &progress.Tracker{
		Logs:  s.store,
		Habit: h,
		Loc:   orUTC(loc),
		Now:   s.now,
		After: s.after,
	}
	return t.Run(ctx, emit)
}
