// Package postgres stores habits and logs in PostgreSQL through a pgx pool.
// A trigger publishes every habit_logs change on a NOTIFY channel; one
// dedicated connection LISTENs and fans the changes out to live queries.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"habitsAPI/internal/logger"
	"habitsAPI/internal/store"
)

const notifyChannel = "habit_logs_changed"

const schema = `
CREATE TABLE IF NOT EXISTS habits (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name VARCHAR(50) NOT NULL,
	goal_min INTEGER NOT NULL CHECK (goal_min >= 1),
	goal_max INTEGER CHECK (goal_max IS NULL OR goal_max > goal_min),
	unit TEXT NOT NULL,
	frequency TEXT NOT NULL,
	sort_order INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS habit_logs (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	habit_id TEXT NOT NULL REFERENCES habits(id) ON DELETE CASCADE,
	date TIMESTAMPTZ NOT NULL,
	value INTEGER NOT NULL CHECK (value >= 0),
	timezone TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_habits_user_order ON habits(user_id, sort_order);
CREATE INDEX IF NOT EXISTS idx_habit_logs_lookup ON habit_logs(user_id, habit_id, date);

CREATE OR REPLACE FUNCTION notify_habit_logs_changed() RETURNS trigger AS $$
DECLARE
	rec RECORD;
BEGIN
	IF TG_OP = 'DELETE' THEN
		rec := OLD;
	ELSE
		rec := NEW;
	END IF;
	PERFORM pg_notify('habit_logs_changed', rec.user_id || ':' || rec.habit_id);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS habit_logs_changed ON habit_logs;
CREATE TRIGGER habit_logs_changed
	AFTER INSERT OR UPDATE OR DELETE ON habit_logs
	FOR EACH ROW EXECUTE FUNCTION notify_habit_logs_changed();
`

type Store struct {
	pool   *pgxpool.Pool
	hub    *store.Hub
	cancel context.CancelFunc
	done   chan struct{}
}

var _ store.Store = (*Store)(nil)

// Open connects to databaseURL, applies the schema and starts the
// notification listener.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	st, err := New(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return st, nil
}

// New wraps an existing pool. The pool is closed by Close; on error it is
// left to the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	s := &Store{
		pool:   pool,
		hub:    store.NewHub(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.listen(listenCtx)
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.cancel()
	<-s.done
	s.pool.Close()
	return nil
}

func (s *Store) DeleteUserData(ctx context.Context, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// habit_logs rows go with their habits through ON DELETE CASCADE; the
	// explicit delete also covers logs whose habit is already gone.
	if _, err := tx.Exec(ctx, `DELETE FROM habit_logs WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user logs: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM habits WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete user habits: %w", err)
	}
	return tx.Commit(ctx)
}

// listen keeps a LISTEN connection open until ctx is cancelled,
// reconnecting with backoff.
func (s *Store) listen(ctx context.Context) {
	defer close(s.done)

	backoff := time.Second
	for {
		err := s.listenOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("postgres listener disconnected", "error", err, "retry_in", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (s *Store) listenOnce(ctx context.Context) error {
	pooled, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener connection: %w", err)
	}
	// The connection stays in LISTEN mode, so it never goes back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	// Changes made while disconnected were not observed.
	s.hub.Broadcast()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		userID, habitID, ok := parsePayload(n.Payload)
		if !ok {
			logger.Warn("ignoring malformed notification", "payload", n.Payload)
			continue
		}
		s.hub.Publish(userID, habitID)
	}
}

// parsePayload splits "userID:habitID". Habit ids never contain a colon, so
// the last one is the separator.
func parsePayload(payload string) (userID, habitID string, ok bool) {
	i := strings.LastIndex(payload, ":")
	if i <= 0 || i == len(payload)-1 {
		return "", "", false
	}
	return payload[:i], payload[i+1:], true
}
