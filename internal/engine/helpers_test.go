package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
)

// fakeStore is an in-memory Store for engine tests.
type fakeStore struct {
	mu      sync.Mutex
	snap    Snapshot
	failErr error
	adds    int
}

func (s *fakeStore) Snapshot(context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return Snapshot{}, s.failErr
	}
	return s.snap.Clone(), nil
}

func (s *fakeStore) AddActivity(_ context.Context, rec ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.adds++
	s.snap.Activities = append(s.snap.Activities, rec)
	return nil
}

func (s *fakeStore) AddPositiveAction(_ context.Context, rec PositiveActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.adds++
	s.snap.PositiveActions = append(s.snap.PositiveActions, rec)
	return nil
}

func (s *fakeStore) RemoveActivity(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.snap.Activities {
		if a.ID == id {
			s.snap.Activities = append(s.snap.Activities[:i], s.snap.Activities[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

func (s *fakeStore) RemovePositiveAction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.snap.PositiveActions {
		if p.ID == id {
			s.snap.PositiveActions = append(s.snap.PositiveActions[:i], s.snap.PositiveActions[i+1:]...)
			return nil
		}
	}
	return ErrRecordNotFound
}

func (s *fakeStore) Close() error { return nil }

// fakeClock returns a settable clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// sequentialIDs returns an ID generator yielding id-1, id-2, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activityAt(ts time.Time, category greenops.Category, typ string, impact float64) ActivityRecord {
	return ActivityRecord{
		ID:        fmt.Sprintf("a-%s-%s", ts.Format(time.RFC3339Nano), typ),
		Category:  category,
		Type:      typ,
		Unit:      greenops.CanonicalUnit(category, typ),
		CO2Impact: impact,
		Timestamp: ts,
	}
}
