package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store/sqlite"
	"habitsAPI/internal/store/storetest"
	"habitsAPI/internal/testutil"
)

func TestStore(t *testing.T) {
	storetest.Run(t, testutil.OpenSQLite(t))
}

func TestOpen_CreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "habits.db")
	st, err := sqlite.Open(path)
	require.NoError(t, err)
	defer st.Close()

	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "habits.db")
	ctx := context.Background()

	st, err := sqlite.Open(path)
	require.NoError(t, err)
	h := testutil.NewHabit("h1", "u1", habit.FrequencyDaily, 1, nil)
	require.NoError(t, st.CreateHabit(ctx, h))
	require.NoError(t, st.Close())

	st, err = sqlite.Open(path)
	require.NoError(t, err)
	defer st.Close()

	got, err := st.GetHabit(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "Habit h1", got.Name)
}

func TestLogDateReadsInRecordedTimezone(t *testing.T) {
	st := testutil.OpenSQLite(t)
	ctx := context.Background()
	tokyo := testutil.Location(t, "Asia/Tokyo")

	h := testutil.NewHabit("h1", "u1", habit.FrequencyDaily, 1, nil)
	require.NoError(t, st.CreateHabit(ctx, h))
	require.NoError(t, st.CreateLog(ctx, testutil.NewLog("l1", h, time.Date(2024, 3, 16, 9, 0, 0, 0, tokyo), 2)))

	got, err := st.GetLog(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", got.Date.Location().String())
	assert.Equal(t, 16, got.Date.Day())
	assert.Equal(t, 0, got.Date.Hour())
}
