package store

import (
	"context"
	"slices"
	"sync"

	"github.com/rshade/carbonledger/internal/engine"
)

// MemoryStore keeps the ledger in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	snap   engine.Snapshot
	closed bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Snapshot returns a copy of the stored records.
func (s *MemoryStore) Snapshot(ctx context.Context) (engine.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return engine.Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return engine.Snapshot{}, ErrClosed
	}
	return s.snap.Clone(), nil
}

// AddActivity appends an activity.
func (s *MemoryStore) AddActivity(ctx context.Context, rec engine.ActivityRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateActivity(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.snap.Activities = append(s.snap.Activities, rec)
	return nil
}

// AddPositiveAction appends a positive action.
func (s *MemoryStore) AddPositiveAction(ctx context.Context, rec engine.PositiveActionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validatePositiveAction(rec); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.snap.PositiveActions = append(s.snap.PositiveActions, rec)
	return nil
}

// RemoveActivity deletes the activity with id.
func (s *MemoryStore) RemoveActivity(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	i := slices.IndexFunc(s.snap.Activities, func(r engine.ActivityRecord) bool { return r.ID == id })
	if i < 0 {
		return notFound("activity", id)
	}
	s.snap.Activities = slices.Delete(s.snap.Activities, i, i+1)
	return nil
}

// RemovePositiveAction deletes the positive action with id.
func (s *MemoryStore) RemovePositiveAction(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	i := slices.IndexFunc(s.snap.PositiveActions, func(r engine.PositiveActionRecord) bool { return r.ID == id })
	if i < 0 {
		return notFound("positive action", id)
	}
	s.snap.PositiveActions = slices.Delete(s.snap.PositiveActions, i, i+1)
	return nil
}

// Close marks the store closed. Further calls return ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
