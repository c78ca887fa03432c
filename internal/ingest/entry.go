// Package ingest reads ledger entries from files and replays them through
// the tracker in batches.
//
// Supported formats are NDJSON (one entry per line), a JSON array, a YAML
// list and CSV with a header row. JSON inputs are checked against an
// embedded JSON Schema before decoding so malformed lines are reported with
// their position.
package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Kind distinguishes the two ledger record kinds.
type Kind string

// Entry kinds.
const (
	KindActivity Kind = "activity"
	KindAction   Kind = "action"
)

// Entry is one record to import. Timestamp is optional; a zero timestamp is
// stamped with the import time.
type Entry struct {
	Kind      Kind      `json:"kind,omitempty"      yaml:"kind,omitempty"`
	Category  string    `json:"category,omitempty"  yaml:"category,omitempty"`
	Type      string    `json:"type,omitempty"      yaml:"type,omitempty"`
	Action    string    `json:"action,omitempty"    yaml:"action,omitempty"`
	Value     float64   `json:"value"               yaml:"value"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`

	// Line is the 1-based source position: the line for NDJSON, CSV and
	// YAML, the element index for a JSON array.
	Line int `json:"-" yaml:"-"`
}

// Normalize fills in the kind when it can be inferred and trims identifiers.
func (e Entry) Normalize() Entry {
	e.Kind = Kind(strings.ToLower(strings.TrimSpace(string(e.Kind))))
	e.Category = strings.ToLower(strings.TrimSpace(e.Category))
	e.Type = strings.TrimSpace(e.Type)
	e.Action = strings.TrimSpace(e.Action)
	if e.Kind == "" {
		if e.Action != "" {
			e.Kind = KindAction
		} else {
			e.Kind = KindActivity
		}
	}
	return e
}

// Validate checks the fields an entry of its kind needs. It does not consult
// the factor table; unknown categories and actions are rejected by the
// tracker when the entry is logged.
func (e Entry) Validate() error {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return fmt.Errorf("%w: value must be finite", ErrInvalidEntry)
	}
	switch e.Kind {
	case KindActivity:
		if e.Category == "" || e.Type == "" {
			return fmt.Errorf("%w: activity needs category and type", ErrInvalidEntry)
		}
	case KindAction:
		if e.Action == "" {
			return fmt.Errorf("%w: action needs an action id", ErrInvalidEntry)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
	}
	return nil
}

// String renders the entry for error messages.
func (e Entry) String() string {
	if e.Kind == KindAction {
		return fmt.Sprintf("action %s=%v", e.Action, e.Value)
	}
	return fmt.Sprintf("activity %s/%s=%v", e.Category, e.Type, e.Value)
}
