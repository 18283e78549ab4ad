package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store"
	"habitsAPI/internal/testutil"
)

// Friday 2024-03-15 18:00 UTC.
var friday = time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)

// countingStore records log reads and writes so tests can assert that a
// rejected call never reached them.
type countingStore struct {
	store.Store
	logReads  atomic.Int32
	logWrites atomic.Int32

	mu        sync.Mutex
	failOrder map[string]error
}

func (c *countingStore) ListLogs(ctx context.Context, q store.LogQuery) ([]*habit.HabitLog, error) {
	c.logReads.Add(1)
	return c.Store.ListLogs(ctx, q)
}

func (c *countingStore) CreateLog(ctx context.Context, l *habit.HabitLog) error {
	c.logWrites.Add(1)
	return c.Store.CreateLog(ctx, l)
}

func (c *countingStore) UpdateLogValue(ctx context.Context, id string, value int) error {
	c.logWrites.Add(1)
	return c.Store.UpdateLogValue(ctx, id, value)
}

func (c *countingStore) SetHabitOrder(ctx context.Context, id string, order int) error {
	c.mu.Lock()
	err := c.failOrder[id]
	c.mu.Unlock()
	if err != nil {
		return err
	}
	return c.Store.SetHabitOrder(ctx, id, order)
}

func newCountingStore(t *testing.T) *countingStore {
	return &countingStore{Store: testutil.OpenSQLite(t), failOrder: map[string]error{}}
}

func seedHabit(t *testing.T, st store.Store, h *habit.Habit) *habit.Habit {
	t.Helper()
	if err := st.CreateHabit(context.Background(), h); err != nil {
		t.Fatalf("seed habit: %v", err)
	}
	return h
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
