package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/store"
)

// reorderConcurrency caps the position writes in flight for one reorder.
const reorderConcurrency = 8

type HabitService struct {
	store store.Store
	now   func() time.Time
}

func NewHabitService(st store.Store) *HabitService {
	return &HabitService{store: st, now: time.Now}
}

func (s *HabitService) ListHabits(ctx context.Context, uid string) ([]*habit.Habit, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	return s.store.ListHabits(ctx, uid)
}

// GetHabit returns the habit if uid owns it. Habits owned by someone else
// are reported as store.ErrNotFound.
func (s *HabitService) GetHabit(ctx context.Context, uid, id string) (*habit.Habit, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	return ownedHabit(ctx, s.store, uid, id)
}

func (s *HabitService) AddHabit(ctx context.Context, uid string, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	maxOrder, err := s.store.MaxHabitOrder(ctx, uid)
	if err != nil {
		return nil, err
	}

	h := &habit.Habit{
		ID:        uuid.New().String(),
		UserID:    uid,
		Name:      req.Name,
		GoalMin:   req.GoalMin,
		GoalMax:   req.GoalMax,
		Unit:      req.Unit,
		Frequency: req.Frequency,
		Order:     maxOrder + 1,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateHabit(ctx, h); err != nil {
		return nil, err
	}

	logger.Debug("habit created", "uid", uid, "habit_id", h.ID, "order", h.Order)
	return h, nil
}

// UpdateHabit applies a partial update. An empty update returns the habit
// unchanged without writing.
func (s *HabitService) UpdateHabit(ctx context.Context, uid, id string, req *habit.UpdateHabitRequest) (*habit.Habit, error) {
	if uid == "" {
		return nil, ErrUnauthenticated
	}

	current, err := ownedHabit(ctx, s.store, uid, id)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return current, nil
	}

	next, err := req.Apply(*current)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateHabit(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// DeleteHabit removes the habit together with all of its logs.
func (s *HabitService) DeleteHabit(ctx context.Context, uid, id string) error {
	if uid == "" {
		return ErrUnauthenticated
	}
	if _, err := ownedHabit(ctx, s.store, uid, id); err != nil {
		return err
	}
	if err := s.store.DeleteHabit(ctx, id); err != nil {
		return err
	}
	logger.Debug("habit deleted", "uid", uid, "habit_id", id)
	return nil
}

// ReorderHabits sets each habit's order to its index in orderedIDs. The
// writes run concurrently and every one is attempted; failures are joined
// into the returned error and successful writes are kept.
func (s *HabitService) ReorderHabits(ctx context.Context, uid string, req *habit.ReorderRequest) error {
	if uid == "" {
		return ErrUnauthenticated
	}
	if err := req.Validate(); err != nil {
		return err
	}

	habits, err := s.store.ListHabits(ctx, uid)
	if err != nil {
		return err
	}
	owned := make(map[string]bool, len(habits))
	for _, h := range habits {
		owned[h.ID] = true
	}

	errs := make([]error, len(req.OrderedIDs))
	var g errgroup.Group
	g.SetLimit(reorderConcurrency)
	for i, id := range req.OrderedIDs {
		if !owned[id] {
			errs[i] = fmt.Errorf("habit %s: %w", id, store.ErrNotFound)
			continue
		}
		g.Go(func() error {
			if err := s.store.SetHabitOrder(ctx, id, i); err != nil {
				errs[i] = fmt.Errorf("habit %s: %w", id, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		metrics.ReorderFailures.Inc()
		logger.Warn("reorder partially failed", "uid", uid, "error", err)
		return err
	}
	return nil
}

func ownedHabit(ctx context.Context, st store.HabitStore, uid, id string) (*habit.Habit, error) {
	h, err := st.GetHabit(ctx, id)
	if err != nil {
		return nil, err
	}
	if h.UserID != uid {
		return nil, store.ErrNotFound
	}
	return h, nil
}
