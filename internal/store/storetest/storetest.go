// Package storetest is a behaviour suite every store backend must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store"
)

// Run exercises st. Every test writes under fresh user ids and removes them
// afterwards, so st may be shared with other data.
func Run(t *testing.T, st store.Store) {
	t.Run("HabitLifecycle", func(t *testing.T) { testHabitLifecycle(t, st) })
	t.Run("HabitOrdering", func(t *testing.T) { testHabitOrdering(t, st) })
	t.Run("MissingRecords", func(t *testing.T) { testMissingRecords(t, st) })
	t.Run("Logs", func(t *testing.T) { testLogs(t, st) })
	t.Run("DeleteHabitRemovesLogs", func(t *testing.T) { testDeleteCascade(t, st) })
	t.Run("DeleteUserData", func(t *testing.T) { testDeleteUserData(t, st) })
	t.Run("WatchLogs", func(t *testing.T) { testWatchLogs(t, st) })
}

func newUser(t *testing.T, st store.Store) string {
	t.Helper()
	uid := "test-" + uuid.NewString()
	t.Cleanup(func() {
		if err := st.DeleteUserData(context.Background(), uid); err != nil {
			t.Logf("Warning: failed to cleanup test data: %v", err)
		}
	})
	return uid
}

func newHabit(uid string, order int) *habit.Habit {
	max := 15
	return &habit.Habit{
		ID:        uuid.NewString(),
		UserID:    uid,
		Name:      "Read",
		GoalMin:   10,
		GoalMax:   &max,
		Unit:      habit.UnitMinutes,
		Frequency: habit.FrequencyWeekly,
		Order:     order,
		CreatedAt: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
	}
}

func newLog(h *habit.Habit, day time.Time, value int) *habit.HabitLog {
	return &habit.HabitLog{
		ID:       uuid.NewString(),
		UserID:   h.UserID,
		HabitID:  h.ID,
		Date:     day,
		Value:    value,
		Timezone: day.Location().String(),
	}
}

func testHabitLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	uid := newUser(t, st)

	h := newHabit(uid, 0)
	require.NoError(t, st.CreateHabit(ctx, h))

	got, err := st.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Name, got.Name)
	assert.Equal(t, uid, got.UserID)
	assert.Equal(t, 10, got.GoalMin)
	require.NotNil(t, got.GoalMax)
	assert.Equal(t, 15, *got.GoalMax)
	assert.Equal(t, habit.UnitMinutes, got.Unit)
	assert.Equal(t, habit.FrequencyWeekly, got.Frequency)
	assert.True(t, h.CreatedAt.Equal(got.CreatedAt))

	got.Name = "Write"
	got.GoalMax = nil
	got.Frequency = habit.FrequencyWorkday
	got.Order = 99 // not an editable field
	require.NoError(t, st.UpdateHabit(ctx, got))

	updated, err := st.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write", updated.Name)
	assert.Nil(t, updated.GoalMax)
	assert.Equal(t, habit.FrequencyWorkday, updated.Frequency)
	assert.Equal(t, 0, updated.Order)

	require.NoError(t, st.DeleteHabit(ctx, h.ID))
	_, err = st.GetHabit(ctx, h.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testHabitOrdering(t *testing.T, st store.Store) {
	ctx := context.Background()
	uid := newUser(t, st)

	max, err := st.MaxHabitOrder(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, -1, max)

	a, b, c := newHabit(uid, 0), newHabit(uid, 1), newHabit(uid, 2)
	for _, h := range []*habit.Habit{a, b, c} {
		require.NoError(t, st.CreateHabit(ctx, h))
	}

	require.NoError(t, st.SetHabitOrder(ctx, c.ID, 0))
	require.NoError(t, st.SetHabitOrder(ctx, a.ID, 1))
	require.NoError(t, st.SetHabitOrder(ctx, b.ID, 5))

	list, err := st.ListHabits(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	max, err = st.MaxHabitOrder(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, 5, max)

	other, err := st.ListHabits(ctx, newUser(t, st))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func testMissingRecords(t *testing.T, st store.Store) {
	ctx := context.Background()
	missing := uuid.NewString()

	_, err := st.GetHabit(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.UpdateHabit(ctx, &habit.Habit{ID: missing, Name: "x", GoalMin: 1, Unit: habit.UnitTimes, Frequency: habit.FrequencyDaily}), store.ErrNotFound)
	assert.ErrorIs(t, st.SetHabitOrder(ctx, missing, 3), store.ErrNotFound)
	assert.ErrorIs(t, st.DeleteHabit(ctx, missing), store.ErrNotFound)

	_, err = st.GetLog(ctx, missing)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.UpdateLogValue(ctx, missing, 1), store.ErrNotFound)
}

func testLogs(t *testing.T, st store.Store) {
	ctx := context.Background()
	uid := newUser(t, st)
	h := newHabit(uid, 0)
	require.NoError(t, st.CreateHabit(ctx, h))

	sofia, err := time.LoadLocation("Europe/Sofia")
	require.NoError(t, err)

	days := []time.Time{
		time.Date(2024, 3, 13, 0, 0, 0, 0, sofia),
		time.Date(2024, 3, 11, 0, 0, 0, 0, sofia),
		time.Date(2024, 3, 18, 0, 0, 0, 0, sofia),
	}
	logs := make([]*habit.HabitLog, len(days))
	for i, d := range days {
		logs[i] = newLog(h, d, i+1)
		require.NoError(t, st.CreateLog(ctx, logs[i]))
	}

	got, err := st.GetLog(ctx, logs[0].ID)
	require.NoError(t, err)
	assert.True(t, days[0].Equal(got.Date))
	assert.Equal(t, "Europe/Sofia", got.Timezone)
	assert.Equal(t, 1, got.Value)

	require.NoError(t, st.UpdateLogValue(ctx, logs[0].ID, 7))
	got, err = st.GetLog(ctx, logs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Value)

	week, err := st.ListLogs(ctx, store.LogQuery{
		UserID:  uid,
		HabitID: h.ID,
		From:    time.Date(2024, 3, 11, 0, 0, 0, 0, sofia),
		To:      time.Date(2024, 3, 17, 23, 59, 59, 0, sofia),
	})
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, logs[1].ID, week[0].ID, "ordered by date")
	assert.Equal(t, logs[0].ID, week[1].ID)

	all, err := st.ListLogs(ctx, store.LogQuery{UserID: uid, HabitID: h.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := st.ListLogs(ctx, store.LogQuery{UserID: uid, HabitID: uuid.NewString()})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testDeleteCascade(t *testing.T, st store.Store) {
	ctx := context.Background()
	uid := newUser(t, st)
	h := newHabit(uid, 0)
	require.NoError(t, st.CreateHabit(ctx, h))
	l := newLog(h, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), 2)
	require.NoError(t, st.CreateLog(ctx, l))

	require.NoError(t, st.DeleteHabit(ctx, h.ID))

	_, err := st.GetLog(ctx, l.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	left, err := st.ListLogs(ctx, store.LogQuery{UserID: uid, HabitID: h.ID})
	require.NoError(t, err)
	assert.Empty(t, left)
}

func testDeleteUserData(t *testing.T, st store.Store) {
	ctx := context.Background()
	gone, kept := newUser(t, st), newUser(t, st)

	hg, hk := newHabit(gone, 0), newHabit(kept, 0)
	require.NoError(t, st.CreateHabit(ctx, hg))
	require.NoError(t, st.CreateHabit(ctx, hk))
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateLog(ctx, newLog(hg, day, 1)))
	require.NoError(t, st.CreateLog(ctx, newLog(hk, day, 1)))

	require.NoError(t, st.DeleteUserData(ctx, gone))

	list, err := st.ListHabits(ctx, gone)
	require.NoError(t, err)
	assert.Empty(t, list)
	logs, err := st.ListLogs(ctx, store.LogQuery{UserID: gone, HabitID: hg.ID})
	require.NoError(t, err)
	assert.Empty(t, logs)

	list, err = st.ListHabits(ctx, kept)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	logs, err = st.ListLogs(ctx, store.LogQuery{UserID: kept, HabitID: hk.ID})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

// nextMatching reads snapshots until one satisfies ok. Backends may deliver
// intermediate results, so only the eventual state is asserted.
func nextMatching(t *testing.T, ch <-chan store.LogSnapshot, ok func([]*habit.HabitLog) bool) []*habit.HabitLog {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case snap, open := <-ch:
			require.True(t, open, "subscription closed early")
			require.NoError(t, snap.Err)
			if ok(snap.Logs) {
				return snap.Logs
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
			return nil
		}
	}
}

func testWatchLogs(t *testing.T, st store.Store) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	uid := newUser(t, st)
	h := newHabit(uid, 0)
	require.NoError(t, st.CreateHabit(ctx, h))

	from := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC)
	snaps, err := st.WatchLogs(ctx, store.LogQuery{UserID: uid, HabitID: h.ID, From: from, To: to})
	require.NoError(t, err)

	nextMatching(t, snaps, func(logs []*habit.HabitLog) bool { return len(logs) == 0 })

	l := newLog(h, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), 3)
	require.NoError(t, st.CreateLog(ctx, l))
	nextMatching(t, snaps, func(logs []*habit.HabitLog) bool {
		return len(logs) == 1 && logs[0].Value == 3
	})

	require.NoError(t, st.UpdateLogValue(ctx, l.ID, 5))
	nextMatching(t, snaps, func(logs []*habit.HabitLog) bool {
		return len(logs) == 1 && logs[0].Value == 5
	})

	cancel()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case _, open := <-snaps:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("subscription not closed after cancel")
		}
	}
}
