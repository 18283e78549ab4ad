package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store"
)

const logColumns = `id, user_id, habit_id, date_ms, value, timezone`

func (s *Store) CreateLog(ctx context.Context, l *habit.HabitLog) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO habit_logs (`+logColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.HabitID, l.Date.UnixMilli(), l.Value, l.Timezone,
	)
	if err != nil {
		return fmt.Errorf("create log: %w", err)
	}
	s.hub.Publish(l.UserID, l.HabitID)
	return nil
}

func (s *Store) GetLog(ctx context.Context, id string) (*habit.HabitLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+logColumns+` FROM habit_logs WHERE id = ?`, id)
	l, err := scanLog(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get log: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateLogValue(ctx context.Context, id string, value int) error {
	l, err := s.GetLog(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `UPDATE habit_logs SET value = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("update log: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	s.hub.Publish(l.UserID, l.HabitID)
	return nil
}

func (s *Store) ListLogs(ctx context.Context, q store.LogQuery) ([]*habit.HabitLog, error) {
	query := `SELECT ` + logColumns + ` FROM habit_logs WHERE user_id = ? AND habit_id = ?`
	args := []any{q.UserID, q.HabitID}
	if !q.From.IsZero() {
		query += ` AND date_ms >= ?`
		args = append(args, q.From.UnixMilli())
	}
	if !q.To.IsZero() {
		query += ` AND date_ms <= ?`
		args = append(args, q.To.UnixMilli())
	}
	query += ` ORDER BY date_ms`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	logs := []*habit.HabitLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return logs, nil
}

func (s *Store) WatchLogs(ctx context.Context, q store.LogQuery) (<-chan store.LogSnapshot, error) {
	changes, unsubscribe := s.hub.Subscribe(q.UserID, q.HabitID)
	out := store.Follow(ctx, changes, func(ctx context.Context) ([]*habit.HabitLog, error) {
		return s.ListLogs(ctx, q)
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()
	return out, nil
}

func scanLog(row scanner) (*habit.HabitLog, error) {
	var l habit.HabitLog
	var dateMs int64
	if err := row.Scan(&l.ID, &l.UserID, &l.HabitID, &dateMs, &l.Value, &l.Timezone); err != nil {
		return nil, err
	}
	l.Date = time.UnixMilli(dateMs).In(store.DisplayLocation(l.Timezone))
	return &l, nil
}
