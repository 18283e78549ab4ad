// Package sqlite is a single-process store backed by modernc.org/sqlite
// (pure Go, no CGO). Live queries are driven by an in-process hub, so only
// writes made through the same Store are observed.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"habitsAPI/internal/store"
)

type Store struct {
	db  *sql.DB
	hub *store.Hub
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, hub: store.NewHub()}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS habits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		goal_min INTEGER NOT NULL,
		goal_max INTEGER,
		unit TEXT NOT NULL,
		frequency TEXT NOT NULL,
		sort_order INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS habit_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		habit_id TEXT NOT NULL,
		date_ms INTEGER NOT NULL,
		value INTEGER NOT NULL,
		timezone TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_habits_user_order ON habits(user_id, sort_order);
	CREATE INDEX IF NOT EXISTS idx_habit_logs_lookup ON habit_logs(user_id, habit_id, date_ms);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DeleteUserData(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user data: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM habit_logs WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM habits WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user habits: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user data: %w", err)
	}

	s.hub.Publish(userID, "")
	return nil
}
