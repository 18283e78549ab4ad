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

const habitColumns = `id, user_id, name, goal_min, goal_max, unit, frequency, sort_order, created_at`

func (s *Store) CreateHabit(ctx context.Context, h *habit.Habit) error {
	query := `INSERT INTO habits (` + habitColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		h.UserID,
		h.Name,
		h.GoalMin,
		nullInt(h.GoalMax),
		string(h.Unit),
		string(h.Frequency),
		h.Order,
		h.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (*habit.Habit, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, userID string) ([]*habit.Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY sort_order, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	habits := []*habit.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habits: %w", err)
	}
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, h *habit.Habit) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE habits
		SET name = ?, goal_min = ?, goal_max = ?, unit = ?, frequency = ?
		WHERE id = ?`,
		h.Name, h.GoalMin, nullInt(h.GoalMax), string(h.Unit), string(h.Frequency), h.ID,
	)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return requireRow(result)
}

func (s *Store) SetHabitOrder(ctx context.Context, id string, order int) error {
	result, err := s.db.ExecContext(ctx, `UPDATE habits SET sort_order = ? WHERE id = ?`, order, id)
	if err != nil {
		return fmt.Errorf("set habit order: %w", err)
	}
	return requireRow(result)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	h, err := s.GetHabit(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete habit: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_logs WHERE habit_id = ?`, id); err != nil {
		return fmt.Errorf("delete habit logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete habit: %w", err)
	}

	s.hub.Publish(h.UserID, h.ID)
	return nil
}

func (s *Store) MaxHabitOrder(ctx context.Context, userID string) (int, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(sort_order) FROM habits WHERE user_id = ?`, userID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max habit order: %w", err)
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHabit(row scanner) (*habit.Habit, error) {
	var h habit.Habit
	var goalMax sql.NullInt64
	var unit, frequency, createdAt string

	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.GoalMin, &goalMax, &unit, &frequency, &h.Order, &createdAt); err != nil {
		return nil, err
	}

	if goalMax.Valid {
		v := int(goalMax.Int64)
		h.GoalMax = &v
	}
	h.Unit = habit.Unit(unit)
	h.Frequency = habit.Frequency(frequency)

	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	h.CreatedAt = t
	return &h, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
