package firestore

import (
	"context"
	"errors"
	"fmt"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store"
)

func (s *Store) CreateLog(ctx context.Context, l *habit.HabitLog) error {
	doc := logDoc{
		UserID:   l.UserID,
		HabitID:  l.HabitID,
		Date:     l.Date,
		Value:    l.Value,
		Timezone: l.Timezone,
	}
	if _, err := s.logs().Doc(l.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create log: %w", err)
	}
	return nil
}

func (s *Store) GetLog(ctx context.Context, id string) (*habit.HabitLog, error) {
	snap, err := s.logs().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get log: %w", err)
	}
	return decodeLog(snap)
}

func (s *Store) UpdateLogValue(ctx context.Context, id string, value int) error {
	_, err := s.logs().Doc(id).Update(ctx, []fs.Update{{Path: "value", Value: value}})
	return mapWriteErr("update log", err)
}

func (s *Store) ListLogs(ctx context.Context, q store.LogQuery) ([]*habit.HabitLog, error) {
	it := s.logQuery(q).Documents(ctx)
	defer it.Stop()

	logs := []*habit.HabitLog{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list logs: %w", err)
		}
		l, err := decodeLog(snap)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (s *Store) WatchLogs(ctx context.Context, q store.LogQuery) (<-chan store.LogSnapshot, error) {
	it := s.logQuery(q).Snapshots(ctx)
	out := make(chan store.LogSnapshot)

	go func() {
		defer close(out)
		defer it.Stop()

		for {
			qs, err := it.Next()
			if ctx.Err() != nil {
				return
			}

			var logs []*habit.HabitLog
			if err == nil {
				logs, err = decodeLogs(qs)
			}
			if err != nil {
				err = fmt.Errorf("log snapshot listener: %w", err)
			}

			select {
			case out <- store.LogSnapshot{Logs: logs, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	return out, nil
}

func (s *Store) logQuery(q store.LogQuery) fs.Query {
	query := s.logs().Where("userId", "==", q.UserID).Where("habitId", "==", q.HabitID)
	if !q.From.IsZero() {
		query = query.Where("date", ">=", q.From)
	}
	if !q.To.IsZero() {
		query = query.Where("date", "<=", q.To)
	}
	return query.OrderBy("date", fs.Asc)
}

func decodeLogs(qs *fs.QuerySnapshot) ([]*habit.HabitLog, error) {
	snaps, err := qs.Documents.GetAll()
	if err != nil {
		return nil, err
	}
	logs := make([]*habit.HabitLog, 0, len(snaps))
	for _, snap := range snaps {
		l, err := decodeLog(snap)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func decodeLog(snap *fs.DocumentSnapshot) (*habit.HabitLog, error) {
	var doc logDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode log %s: %w", snap.Ref.ID, err)
	}
	return &habit.HabitLog{
		ID:       snap.Ref.ID,
		UserID:   doc.UserID,
		HabitID:  doc.HabitID,
		Date:     doc.Date.In(store.DisplayLocation(doc.Timezone)),
		Value:    doc.Value,
		Timezone: doc.Timezone,
	}, nil
}
