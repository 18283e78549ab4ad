package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store"
)

const logColumns = `id, user_id, habit_id, date, value, timezone`

func (s *Store) CreateLog(ctx context.Context, l *habit.HabitLog) error {
	query := `
	INSERT INTO habit_logs (` + logColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.pool.Exec(ctx, query, l.ID, l.UserID, l.HabitID, l.Date, l.Value, l.Timezone)
	if err != nil {
		return fmt.Errorf("failed to create log: %w", err)
	}
	return nil
}

func (s *Store) GetLog(ctx context.Context, id string) (*habit.HabitLog, error) {
	l, err := scanLog(s.pool.QueryRow(ctx, `SELECT `+logColumns+` FROM habit_logs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get log: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateLogValue(ctx context.Context, id string, value int) error {
	result, err := s.pool.Exec(ctx, `UPDATE habit_logs SET value = $2 WHERE id = $1`, id, value)
	if err != nil {
		return fmt.Errorf("failed to update log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListLogs(ctx context.Context, q store.LogQuery) ([]*habit.HabitLog, error) {
	query := `SELECT ` + logColumns + ` FROM habit_logs WHERE user_id = $1 AND habit_id = $2`
	args := []any{q.UserID, q.HabitID}
	if !q.From.IsZero() {
		args = append(args, q.From)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if !q.To.IsZero() {
		args = append(args, q.To)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	logs := []*habit.HabitLog{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
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

func scanLog(row pgx.Row) (*habit.HabitLog, error) {
	var l habit.HabitLog
	if err := row.Scan(&l.ID, &l.UserID, &l.HabitID, &l.Date, &l.Value, &l.Timezone); err != nil {
		return nil, err
	}
	l.Date = l.Date.In(store.DisplayLocation(l.Timezone))
	return &l, nil
}
