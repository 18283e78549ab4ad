package services

import (
	"context"
	"errors"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/metrics"
	"habitsAPI/internal/store"
	"habitsAPI/internal/testutil"
)

func newHabitService(t *testing.T) (*HabitService, *countingStore) {
	st := newCountingStore(t)
	svc := NewHabitService(st)
	svc.now = testutil.Clock(friday)
	return svc, st
}

func TestHabitService_RequiresUser(t *testing.T) {
	svc, st := newHabitService(t)
	ctx := context.Background()

	_, err := svc.ListHabits(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.GetHabit(ctx, "", "h1")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.AddHabit(ctx, "", &habit.CreateHabitRequest{Name: "Read", GoalMin: 1})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = svc.UpdateHabit(ctx, "", "h1", &habit.UpdateHabitRequest{})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.ErrorIs(t, svc.DeleteHabit(ctx, "", "h1"), ErrUnauthenticated)
	assert.ErrorIs(t, svc.ReorderHabits(ctx, "", &habit.ReorderRequest{OrderedIDs: []string{"h1"}}), ErrUnauthenticated)

	list, err := st.ListHabits(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHabitService_AddHabitAppendsToEnd(t *testing.T) {
	svc, _ := newHabitService(t)
	ctx := context.Background()

	first, err := svc.AddHabit(ctx, "u1", &habit.CreateHabitRequest{Name: " Read ", GoalMin: 10, GoalMax: testutil.IntPtr(15), Unit: habit.UnitMinutes})
	require.NoError(t, err)
	assert.Equal(t, 0, first.Order)
	assert.Equal(t, "Read", first.Name)
	assert.Equal(t, habit.FrequencyDaily, first.Frequency)
	assert.Equal(t, friday, first.CreatedAt)
	assert.NotEmpty(t, first.ID)

	second, err := svc.AddHabit(ctx, "u1", &habit.CreateHabitRequest{Name: "Run", GoalMin: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Order)

	other, err := svc.AddHabit(ctx, "u2", &habit.CreateHabitRequest{Name: "Run", GoalMin: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, other.Order, "order is per user")

	list, err := svc.ListHabits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestHabitService_AddHabitValidation(t *testing.T) {
	svc, _ := newHabitService(t)

	_, err := svc.AddHabit(context.Background(), "u1", &habit.CreateHabitRequest{Name: "Read", GoalMin: 5, GoalMax: testutil.IntPtr(5)})

	var verr *habit.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "goalMax", verr.Field)
}

func TestHabitService_OtherUsersHabitIsNotFound(t *testing.T) {
	svc, st := newHabitService(t)
	ctx := context.Background()
	seedHabit(t, st, testutil.NewHabit("h1", "owner", habit.FrequencyDaily, 1, nil))

	_, err := svc.GetHabit(ctx, "intruder", "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.UpdateHabit(ctx, "intruder", "h1", &habit.UpdateHabitRequest{Name: ptr("Mine")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteHabit(ctx, "intruder", "h1"), store.ErrNotFound)

	h, err := svc.GetHabit(ctx, "owner", "h1")
	require.NoError(t, err)
	assert.Equal(t, "Habit h1", h.Name)
}

func TestHabitService_UpdateHabit(t *testing.T) {
	svc, st := newHabitService(t)
	ctx := context.Background()
	seedHabit(t, st, testutil.NewHabit("h1", "u1", habit.FrequencyDaily, 10, testutil.IntPtr(15)))

	updated, err := svc.UpdateHabit(ctx, "u1", "h1", &habit.UpdateHabitRequest{
		Name:      ptr("Meditate"),
		Frequency: ptr(habit.FrequencyWorkday),
	})
	require.NoError(t, err)
	assert.Equal(t, "Meditate", updated.Name)
	assert.Equal(t, habit.FrequencyWorkday, updated.Frequency)
	assert.Equal(t, 15, *updated.GoalMax)

	stored, err := st.GetHabit(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "Meditate", stored.Name)

	unchanged, err := svc.UpdateHabit(ctx, "u1", "h1", &habit.UpdateHabitRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Meditate", unchanged.Name)

	_, err = svc.UpdateHabit(ctx, "u1", "h1", &habit.UpdateHabitRequest{GoalMax: testutil.IntPtr(3)})
	var verr *habit.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestHabitService_DeleteHabitRemovesLogs(t *testing.T) {
	svc, st := newHabitService(t)
	ctx := context.Background()
	h := seedHabit(t, st, testutil.NewHabit("h1", "u1", habit.FrequencyDaily, 1, nil))
	require.NoError(t, st.CreateLog(ctx, testutil.NewLog("l1", h, friday, 2)))

	require.NoError(t, svc.DeleteHabit(ctx, "u1", "h1"))

	_, err := st.GetHabit(ctx, "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetLog(ctx, "l1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteHabit(ctx, "u1", "h1"), store.ErrNotFound)
}

func TestHabitService_ReorderHabits(t *testing.T) {
	svc, st := newHabitService(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		h := testutil.NewHabit(id, "u1", habit.FrequencyDaily, 1, nil)
		h.Order = i
		seedHabit(t, st, h)
	}

	require.NoError(t, svc.ReorderHabits(ctx, "u1", &habit.ReorderRequest{OrderedIDs: []string{"c", "a", "b"}}))

	list, err := svc.ListHabits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, 0, list[0].Order)
	assert.Equal(t, "a", list[1].ID)
	assert.Equal(t, 1, list[1].Order)
	assert.Equal(t, "b", list[2].ID)
	assert.Equal(t, 2, list[2].Order)
}

func TestHabitService_ReorderKeepsSuccessfulWrites(t *testing.T) {
	svc, st := newHabitService(t)
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c"} {
		h := testutil.NewHabit(id, "u1", habit.FrequencyDaily, 1, nil)
		h.Order = i
		seedHabit(t, st, h)
	}
	st.failOrder["a"] = errBoom

	before := promtest.ToFloat64(metrics.ReorderFailures)
	err := svc.ReorderHabits(ctx, "u1", &habit.ReorderRequest{OrderedIDs: []string{"c", "b", "a"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, before+1, promtest.ToFloat64(metrics.ReorderFailures))

	c, err := st.GetHabit(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 0, c.Order, "successful write is not rolled back")

	a, err := st.GetHabit(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Order, "failed write leaves the old value")
}

func TestHabitService_ReorderForeignIDIsNotFound(t *testing.T) {
	svc, st := newHabitService(t)
	ctx := context.Background()
	seedHabit(t, st, testutil.NewHabit("mine", "u1", habit.FrequencyDaily, 1, nil))
	seedHabit(t, st, testutil.NewHabit("theirs", "u2", habit.FrequencyDaily, 1, nil))

	err := svc.ReorderHabits(ctx, "u1", &habit.ReorderRequest{OrderedIDs: []string{"theirs", "mine"}})
	assert.ErrorIs(t, err, store.ErrNotFound)

	theirs, err := st.GetHabit(ctx, "theirs")
	require.NoError(t, err)
	assert.Equal(t, 0, theirs.Order)

	mine, err := st.GetHabit(ctx, "mine")
	require.NoError(t, err)
	assert.Equal(t, 1, mine.Order)
}

func TestHabitService_ReorderValidation(t *testing.T) {
	svc, _ := newHabitService(t)
	err := svc.ReorderHabits(context.Background(), "u1", &habit.ReorderRequest{OrderedIDs: []string{"a", "a"}})

	var verr *habit.ValidationError
	assert.True(t, errors.As(err, &verr))
}
