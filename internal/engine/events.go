package engine

import (
	"context"
	"time"
)

// EventType names a ledger change.
type EventType string

// Ledger change events.
const (
	EventActivityLogged        EventType = "activity_logged"
	EventPositiveActionLogged  EventType = "positive_action_logged"
	EventActivityRemoved       EventType = "activity_removed"
	EventPositiveActionRemoved EventType = "positive_action_removed"
)

// Event describes one committed change to the ledger. Logged events carry
// the stored record; removals carry only the record ID.
type Event struct {
	Type           EventType             `json:"type"`
	RecordID       string                `json:"record_id"`
	Activity       *ActivityRecord       `json:"activity,omitempty"`
	PositiveAction *PositiveActionRecord `json:"positive_action,omitempty"`
	OccurredAt     time.Time             `json:"occurred_at"`
}

// Publisher receives ledger events after the store has committed them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Event) error { return nil }
