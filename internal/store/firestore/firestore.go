// Package firestore keeps habits and logs in Cloud Firestore. Live queries
// use Firestore's own snapshot listeners, so changes made by any client are
// observed.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"habitsAPI/internal/habit"
	"habitsAPI/internal/store"
)

const (
	habitsCollection = "habits"
	logsCollection   = "habitLogs"
)

type Store struct {
	client *fs.Client
}

var _ store.Store = (*Store)(nil)

func New(client *fs.Client) *Store {
	return &Store{client: client}
}

type habitDoc struct {
	UserID    string    `firestore:"userId"`
	Name      string    `firestore:"name"`
	GoalMin   int       `firestore:"goalMin"`
	GoalMax   *int      `firestore:"goalMax"`
	Unit      string    `firestore:"unit"`
	Frequency string    `firestore:"frequency"`
	Order     int       `firestore:"order"`
	CreatedAt time.Time `firestore:"createdAt"`
}

type logDoc struct {
	UserID   string    `firestore:"userId"`
	HabitID  string    `firestore:"habitId"`
	Date     time.Time `firestore:"date"`
	Value    int       `firestore:"value"`
	Timezone string    `firestore:"timezone"`
}

func (s *Store) habits() *fs.CollectionRef { return s.client.Collection(habitsCollection) }
func (s *Store) logs() *fs.CollectionRef   { return s.client.Collection(logsCollection) }

func (s *Store) Ping(ctx context.Context) error {
	it := s.habits().Limit(1).Documents(ctx)
	defer it.Stop()
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return err
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) CreateHabit(ctx context.Context, h *habit.Habit) error {
	doc := habitDoc{
		UserID:    h.UserID,
		Name:      h.Name,
		GoalMin:   h.GoalMin,
		GoalMax:   h.GoalMax,
		Unit:      string(h.Unit),
		Frequency: string(h.Frequency),
		Order:     h.Order,
		CreatedAt: h.CreatedAt,
	}
	if _, err := s.habits().Doc(h.ID).Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to create habit: %w", err)
	}
	return nil
}

func (s *Store) GetHabit(ctx context.Context, id string) (*habit.Habit, error) {
	snap, err := s.habits().Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}
	return decodeHabit(snap)
}

func (s *Store) ListHabits(ctx context.Context, userID string) ([]*habit.Habit, error) {
	it := s.habits().Where("userId", "==", userID).OrderBy("order", fs.Asc).Documents(ctx)
	defer it.Stop()

	habits := []*habit.Habit{}
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list habits: %w", err)
		}
		h, err := decodeHabit(snap)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (s *Store) UpdateHabit(ctx context.Context, h *habit.Habit) error {
	_, err := s.habits().Doc(h.ID).Update(ctx, []fs.Update{
		{Path: "name", Value: h.Name},
		{Path: "goalMin", Value: h.GoalMin},
		{Path: "goalMax", Value: h.GoalMax},
		{Path: "unit", Value: string(h.Unit)},
		{Path: "frequency", Value: string(h.Frequency)},
	})
	return mapWriteErr("update habit", err)
}

func (s *Store) SetHabitOrder(ctx context.Context, id string, order int) error {
	_, err := s.habits().Doc(id).Update(ctx, []fs.Update{{Path: "order", Value: order}})
	return mapWriteErr("set habit order", err)
}

func (s *Store) DeleteHabit(ctx context.Context, id string) error {
	ref := s.habits().Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("failed to get habit: %w", err)
	}

	refs, err := s.refs(ctx, s.logs().Where("habitId", "==", id))
	if err != nil {
		return fmt.Errorf("failed to collect habit logs: %w", err)
	}
	refs = append(refs, ref)
	return s.deleteAll(ctx, refs)
}

func (s *Store) MaxHabitOrder(ctx context.Context, userID string) (int, error) {
	it := s.habits().Where("userId", "==", userID).OrderBy("order", fs.Desc).Limit(1).Documents(ctx)
	defer it.Stop()

	snap, err := it.Next()
	if errors.Is(err, iterator.Done) {
		return -1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get max habit order: %w", err)
	}
	h, err := decodeHabit(snap)
	if err != nil {
		return 0, err
	}
	return h.Order, nil
}

func (s *Store) DeleteUserData(ctx context.Context, userID string) error {
	logRefs, err := s.refs(ctx, s.logs().Where("userId", "==", userID))
	if err != nil {
		return fmt.Errorf("failed to collect user logs: %w", err)
	}
	habitRefs, err := s.refs(ctx, s.habits().Where("userId", "==", userID))
	if err != nil {
		return fmt.Errorf("failed to collect user habits: %w", err)
	}
	return s.deleteAll(ctx, append(logRefs, habitRefs...))
}

func (s *Store) refs(ctx context.Context, q fs.Query) ([]*fs.DocumentRef, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	var refs []*fs.DocumentRef
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return refs, nil
		}
		if err != nil {
			return nil, err
		}
		refs = append(refs, snap.Ref)
	}
}

// deleteAll removes refs through a BulkWriter and reports the first failure.
func (s *Store) deleteAll(ctx context.Context, refs []*fs.DocumentRef) error {
	if len(refs) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*fs.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}
	return nil
}

func decodeHabit(snap *fs.DocumentSnapshot) (*habit.Habit, error) {
	var doc habitDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode habit %s: %w", snap.Ref.ID, err)
	}
	return &habit.Habit{
		ID:        snap.Ref.ID,
		UserID:    doc.UserID,
		Name:      doc.Name,
		GoalMin:   doc.GoalMin,
		GoalMax:   doc.GoalMax,
		Unit:      habit.Unit(doc.Unit),
		Frequency: habit.Frequency(doc.Frequency),
		Order:     doc.Order,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func mapWriteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return store.ErrNotFound
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
