package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/period"
	"habitsAPI/internal/progress"
	"habitsAPI/internal/store"
)

// LogService records per-day values and computes progress from them. Every
// write overwrites the day's value; concurrent writers race and the last
// one wins.
type LogService struct {
	store store.Store
	now   func() time.Time
}

func NewLogService(st store.Store) *LogService {
	return &LogService{store: st, now: time.Now}
}

// Increment adds one to today's entry, creating it with value 1 when absent.
func (s *LogService) Increment(ctx context.Context, uid, habitID string, loc *time.Location) (*habit.HabitLog, error) {
	loc = orUTC(loc)
	h, now, err := s.prepareStep(ctx, uid, habitID, loc)
	if err != nil {
		return nil, err
	}

	today, err := s.dayEntry(ctx, h, now, loc)
	if err != nil {
		return nil, err
	}

	if today != nil {
		err = s.store.UpdateLogValue(ctx, today.ID, today.Value+1)
		metrics.ObserveWrite("increment", err)
		if err != nil {
			return nil, err
		}
		today.Value++
		return today, nil
	}

	l, err := s.createEntry(ctx, h, now, 1, loc)
	metrics.ObserveWrite("increment", err)
	return l, err
}

// Decrement subtracts one from today's entry. With no entry today, or an
// entry already at zero, nothing is written and changed is false.
func (s *LogService) Decrement(ctx context.Context, uid, habitID string, loc *time.Location) (l *habit.HabitLog, changed bool, err error) {
	loc = orUTC(loc)
	h, now, err := s.prepareStep(ctx, uid, habitID, loc)
	if err != nil {
		return nil, false, err
	}

	today, err := s.dayEntry(ctx, h, now, loc)
	if err != nil {
		return nil, false, err
	}
	if today == nil || today.Value <= 0 {
		return today, false, nil
	}

	err = s.store.UpdateLogValue(ctx, today.ID, today.Value-1)
	metrics.ObserveWrite("decrement", err)
	if err != nil {
		return nil, false, err
	}
	today.Value--
	return today, true, nil
}

// SetDayValue writes value as the entry for day's calendar day in loc,
// overwriting any existing entry. Zero is recorded like any other value.
func (s *LogService) SetDayValue(ctx context.Context, uid, habitID string, day time.Time, value int, loc *time.Location) (*habit.HabitLog, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	if err := habit.ValidateValue(value); err != nil {
		return nil, err
	}
	loc = orUTC(loc)

	h, err := ownedHabit(ctx, s.store, uid, habitID)
	if err != nil {
		return nil, err
	}

	existing, err := s.dayEntry(ctx, h, day, loc)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		err = s.store.UpdateLogValue(ctx, existing.ID, value)
		metrics.ObserveWrite("set", err)
		if err != nil {
			return nil, err
		}
		existing.Value = value
		return existing, nil
	}

	l, err := s.createEntry(ctx, h, day, value, loc)
	metrics.ObserveWrite("set", err)
	return l, err
}

// LogHabit records value for req.Date, or for today when no date is given.
func (s *LogService) LogHabit(ctx context.Context, uid, habitID string, req *habit.LogHabitRequest, loc *time.Location) (*habit.HabitLog, error) {
	day := s.now()
	if req.Date != nil {
		day = *req.Date
	}
	return s.SetDayValue(ctx, uid, habitID, day, req.Value, loc)
}

// UpdateLog overwrites the value of an existing entry by id.
func (s *LogService) UpdateLog(ctx context.Context, uid, logID string, value int) (*habit.HabitLog, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	if err := habit.ValidateValue(value); err != nil {
		return nil, err
	}

	l, err := s.store.GetLog(ctx, logID)
	if err != nil {
		return nil, err
	}
	if l.UserID != uid {
		return nil, store.ErrNotFound
	}

	err = s.store.UpdateLogValue(ctx, logID, value)
	metrics.ObserveWrite("update", err)
	if err != nil {
		return nil, err
	}
	l.Value = value
	return l, nil
}

func (s *LogService) GetProgress(ctx context.Context, uid, habitID string, loc *time.Location) (*progress.Progress, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	h, err := ownedHabit(ctx, s.store, uid, habitID)
	if err != nil {
		return nil, err
	}
	return s.progressFor(ctx, h, s.now(), orUTC(loc))
}

// ListProgress computes progress for every habit of uid, in display order.
func (s *LogService) ListProgress(ctx context.Context, uid string, loc *time.Location) ([]*progress.Progress, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	habits, err := s.store.ListHabits(ctx, uid)
	if err != nil {
		return nil, err
	}

	now, loc := s.now(), orUTC(loc)
	results := make([]*progress.Progress, len(habits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, h := range habits {
		g.Go(func() error {
			p, err := s.progressFor(gctx, h, now, loc)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetHistory returns the day values of one calendar month.
func (s *LogService) GetHistory(ctx context.Context, uid, habitID string, year int, month time.Month, loc *time.Location) (*progress.History, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	loc = orUTC(loc)
	h, err := ownedHabit(ctx, s.store, uid, habitID)
	if err != nil {
		return nil, err
	}

	bounds := period.MonthBounds(year, month, loc)
	logs, err := s.store.ListLogs(ctx, store.LogQuery{
		UserID:  uid,
		HabitID: h.ID,
		From:    bounds.Start,
		To:      bounds.End,
	})
	if err != nil {
		return nil, err
	}
	return progress.MonthHistory(h, logs, year, month, loc), nil
}

func (s *LogService) progressFor(ctx context.Context, h *habit.Habit, now time.Time, loc *time.Location) (*progress.Progress, error) {
	bounds := period.Resolve(h.Frequency, now, loc)
	logs, err := s.store.ListLogs(ctx, store.LogQuery{
		UserID:  h.UserID,
		HabitID: h.ID,
		From:    bounds.Start,
		To:      bounds.End,
	})
	if err != nil {
		return nil, err
	}
	return progress.Compute(h, logs, now, loc), nil
}

// prepareStep loads the habit for increment and decrement and rejects rest
// days before any log is read or written.
func (s *LogService) prepareStep(ctx context.Context, uid, habitID string, loc *time.Location) (*habit.Habit, time.Time, error) {
	if uid == "" {
		return nil, time.Time{}, ErrUnauthenticated
	}
	h, err := ownedHabit(ctx, s.store, uid, habitID)
	if err != nil {
		return nil, time.Time{}, err
	}

	now := s.now().In(loc)
	if period.IsRestDay(h.Frequency, now) {
		return nil, time.Time{}, ErrRestDay
	}
	return h, now, nil
}

// dayEntry returns the entry in day's calendar day under loc, if any.
func (s *LogService) dayEntry(ctx context.Context, h *habit.Habit, day time.Time, loc *time.Location) (*habit.HabitLog, error) {
	bounds := period.DayBounds(day.In(loc))
	logs, err := s.store.ListLogs(ctx, store.LogQuery{
		UserID:  h.UserID,
		HabitID: h.ID,
		From:    bounds.Start,
		To:      bounds.End,
	})
	if err != nil {
		return nil, err
	}
	return progress.FindDay(logs, day, loc), nil
}

func (s *LogService) createEntry(ctx context.Context, h *habit.Habit, day time.Time, value int, loc *time.Location) (*habit.HabitLog, error) {
	l := &habit.HabitLog{
		ID:       uuid.New().String(),
		UserID:   h.UserID,
		HabitID:  h.ID,
		Date:     period.StartOfDay(day.In(loc)),
		Value:    value,
		Timezone: loc.String(),
	}
	if err := s.store.CreateLog(ctx, l); err != nil {
		return nil, err
	}
	logger.Debug("habit log created", "habit_id", h.ID, "date", l.Date.Format(time.DateOnly), "value", value)
	return l, nil
}

func orUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
