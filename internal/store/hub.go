package store

import (
	"context"
	"sync"

	"habitsAPI/internal/habit"
)

// Hub fans change signals for (user, habit) pairs out to subscribers.
// Signals coalesce: a subscriber that has not consumed the previous signal
// gets one pending wakeup, not one per change.
type Hub struct {
	mu   sync.Mutex
	next int
	subs map[int]*hubSub
}

type hubSub struct {
	userID  string
	habitID string
	ch      chan struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]*hubSub)}
}

// Subscribe registers interest in changes to one habit's logs. The returned
// func unregisters and must be called once.
func (h *Hub) Subscribe(userID, habitID string) (<-chan struct{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.next
	h.next++
	sub := &hubSub{userID: userID, habitID: habitID, ch: make(chan struct{}, 1)}
	h.subs[id] = sub

	return sub.ch, func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish signals every subscriber of (userID, habitID). An empty habitID
// signals all of the user's subscribers.
func (h *Hub) Publish(userID, habitID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		if sub.userID != userID || (habitID != "" && sub.habitID != habitID) {
			continue
		}
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Follow turns change signals into snapshots: it emits list's result once
// immediately and again after every signal, until ctx is done or list
// fails. The returned channel is closed when Follow stops.
func Follow(ctx context.Context, changes <-chan struct{}, list func(context.Context) ([]*habit.HabitLog, error)) <-chan LogSnapshot {
	out := make(chan LogSnapshot)

	go func() {
		defer close(out)
		for {
			logs, err := list(ctx)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- LogSnapshot{Logs: logs, Err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}

			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}

// Broadcast signals every subscriber, e.g. after a notification source
// reconnects and may have missed changes.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subs {
		select {
		case sub.ch <- struct{}{}:
		default:
		}
	}
}
