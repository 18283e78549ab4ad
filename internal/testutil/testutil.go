// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store/postgres"
	"habitsAPI/internal/store/sqlite"
)

// OpenSQLite returns a fresh store in a temp dir, closed on cleanup.
func OpenSQLite(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "habits.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// OpenPostgres connects to TEST_DATABASE_URL and skips the test when it is
// not set. Rows written by the test's users are removed on cleanup.
func OpenPostgres(t *testing.T, uids ...string) *postgres.Store {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, pool.Ping(ctx), "Failed to ping test database")

	st, err := postgres.New(ctx, pool)
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, uid := range uids {
			if err := st.DeleteUserData(context.Background(), uid); err != nil {
				t.Logf("Warning: failed to cleanup test data: %v", err)
			}
		}
		_ = st.Close()
	})
	return st
}

func IntPtr(n int) *int {
	return &n
}

// Location loads name or fails the test.
func Location(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

// Clock returns a func that always reports at.
func Clock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// NewHabit builds an unsaved habit with sensible defaults.
func NewHabit(id, uid string, freq habit.Frequency, goalMin int, goalMax *int) *habit.Habit {
	return &habit.Habit{
		ID:        id,
		UserID:    uid,
		Name:      "Habit " + id,
		GoalMin:   goalMin,
		GoalMax:   goalMax,
		Unit:      habit.UnitTimes,
		Frequency: freq,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// NewLog builds an unsaved log dated at the start of day's calendar day.
func NewLog(id string, h *habit.Habit, day time.Time, value int) *habit.HabitLog {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return &habit.HabitLog{
		ID:       id,
		UserID:   h.UserID,
		HabitID:  h.ID,
		Date:     start,
		Value:    value,
		Timezone: day.Location().String(),
	}
}
