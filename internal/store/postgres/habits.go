package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store"
)

const habitColumns = `id, user_id, name, goal_min, goal_max, unit, frequency, sort_order, created_at`

func (s *Store) CreateHabit(ctx context.Context, h *habit.Habit) error {
	query := `
	INSERT INTO habits (` + habitColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		h.ID,
		h.UserID,
		h.Name,
		h.GoalMin,
		h.GoalMax,
		string(h.Unit),
		string(h.Frequency),
		h.Order,
		h.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (*habit.Habit, error) {
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1`

	h, err := scanHabit(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return h, nil
}

func (s *Store) ListHabits(ctx context.Context, userID string) ([]*habit.Habit, error) {
	query := `
	SELECT ` + habitColumns + `
	FROM habits
	WHERE user_id = $1
	ORDER BY sort_order, created_at
	`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list habits: %w", err)
	}
	defer rows.Close()

	habits := []*habit.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, h *habit.Habit) error {
	query := `
	UPDATE habits
	SET name = $2, goal_min = $3, goal_max = $4, unit = $5, frequency = $6
	WHERE id = $1
	`
	result, err := s.pool.Exec(ctx, query,
		h.ID, h.Name, h.GoalMin, h.GoalMax, string(h.Unit), string(h.Frequency))
	if err != nil {
		return fmt.Errorf("failed to update habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetHabitOrder(ctx context.Context, id string, order int) error {
	result, err := s.pool.Exec(ctx, `UPDATE habits SET sort_order = $2 WHERE id = $1`, id, order)
	if err != nil {
		return fmt.Errorf("failed to set habit order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) MaxHabitOrder(ctx context.Context, userID string) (int, error) {
	var max int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(sort_order), -1) FROM habits WHERE user_id = $1`, userID).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max habit order: %w", err)
	}
	return max, nil
}

func scanHabit(row pgx.Row) (*habit.Habit, error) {
	var h habit.Habit
	var unit, frequency string
	err := row.Scan(
		&h.ID,
		&h.UserID,
		&h.Name,
		&h.GoalMin,
		&h.GoalMax,
		&unit,
		&frequency,
		&h.Order,
		&h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	h.Unit = habit.Unit(unit)
	h.Frequency = habit.Frequency(frequency)
	return &h, nil
}
