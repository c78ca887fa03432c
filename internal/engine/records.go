package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
)

// ActivityRecord is one logged emission. CO2Impact is frozen at log time and
// never recomputed from a later factor table.
type ActivityRecord struct {
	ID            string            `json:"id"`
	Category      greenops.Category `json:"category"`
	Type          string            `json:"type"`
	Value         float64           `json:"value"`
	Unit          string            `json:"unit"`
	CO2Impact     float64           `json:"co2_impact"`
	FactorVersion string            `json:"factor_version"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Validate checks the record against the ledger invariants: a known
// category, a finite non-negative value and the canonical unit of its type.
func (r ActivityRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: activity has no id", ErrInvalidRecord)
	}
	if !r.Category.IsValid() {
		return fmt.Errorf("%w: activity %s: %w", ErrInvalidRecord, r.ID, greenops.ErrUnknownCategory)
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) || r.Value < 0 {
		return fmt.Errorf("%w: activity %s: value %v", ErrInvalidRecord, r.ID, r.Value)
	}
	if want := greenops.CanonicalUnit(r.Category, r.Type); r.Unit != want {
		return fmt.Errorf("%w: activity %s: unit %q, want %q", ErrInvalidRecord, r.ID, r.Unit, want)
	}
	return nil
}

// Input returns the calculator input the record was created from.
func (r ActivityRecord) Input() greenops.ActivityInput {
	return greenops.ActivityInput{Category: r.Category, Type: r.Type, Value: r.Value}
}

// PositiveActionRecord is one logged offsetting action. CO2Saved is always
// strictly positive.
type PositiveActionRecord struct {
	ID            string             `json:"id"`
	ActionID      string             `json:"action_id"`
	Name          string             `json:"name"`
	InputKind     greenops.InputKind `json:"input_kind"`
	Value         float64            `json:"value"`
	CO2Saved      float64            `json:"co2_saved"`
	FactorVersion string             `json:"factor_version"`
	Timestamp     time.Time          `json:"timestamp"`
}

// Validate checks the record against the ledger invariants.
func (r PositiveActionRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("%w: positive action has no id", ErrInvalidRecord)
	}
	if !(r.CO2Saved > 0) || math.IsInf(r.CO2Saved, 0) {
		return fmt.Errorf("%w: positive action %s saves %v kg", greenops.ErrInvalidActionValue, r.ID, r.CO2Saved)
	}
	return nil
}

// Snapshot is a consistent read of a Store.
type Snapshot struct {
	Activities      []ActivityRecord       `json:"activities"`
	PositiveActions []PositiveActionRecord `json:"positive_actions"`
}

// Dates returns the timestamps of every record, activities first.
func (s Snapshot) Dates() []time.Time {
	out := make([]time.Time, 0, len(s.Activities)+len(s.PositiveActions))
	for _, a := range s.Activities {
		out = append(out, a.Timestamp)
	}
	for _, p := range s.PositiveActions {
		out = append(out, p.Timestamp)
	}
	return out
}

// ActivitiesOn returns the activities whose timestamp falls on date's
// calendar day, in date's location.
func (s Snapshot) ActivitiesOn(date time.Time) []ActivityRecord {
	day := dateOf(date)
	var out []ActivityRecord
	for _, a := range s.Activities {
		if dateOf(a.Timestamp.In(date.Location())).Equal(day) {
			out = append(out, a)
		}
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Activities:      make([]ActivityRecord, len(s.Activities)),
		PositiveActions: make([]PositiveActionRecord, len(s.PositiveActions)),
	}
	copy(out.Activities, s.Activities)
	copy(out.PositiveActions, s.PositiveActions)
	return out
}

// SortByTime orders both record lists by timestamp, keeping insertion order
// for equal timestamps.
func (s Snapshot) SortByTime() {
	sort.SliceStable(s.Activities, func(i, j int) bool {
		return s.Activities[i].Timestamp.Before(s.Activities[j].Timestamp)
	})
	sort.SliceStable(s.PositiveActions, func(i, j int) bool {
		return s.PositiveActions[i].Timestamp.Before(s.PositiveActions[j].Timestamp)
	})
}

// Store is the persistence port of the ledger. Implementations guard their own
// state; Snapshot must never return a torn read. Remove methods return
// ErrRecordNotFound for unknown IDs.
type Store interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	AddActivity(ctx context.Context, rec ActivityRecord) error
	AddPositiveAction(ctx context.Context, rec PositiveActionRecord) error
	RemoveActivity(ctx context.Context, id string) error
	RemovePositiveAction(ctx context.Context, id string) error
	Close() error
}

// dateOf truncates t to midnight of its calendar day in t's location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
