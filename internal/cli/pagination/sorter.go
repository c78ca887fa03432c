package pagination

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/rshade/carbonledger/internal/engine"
)

// Sort fields per record kind. "impact" is CO2 emitted for activities and
// CO2 saved for positive actions.
var (
	activityFields = []string{"time", "impact", "category", "type"} //nolint:gochecknoglobals // fixed field set
	actionFields   = []string{"time", "impact", "action"}           //nolint:gochecknoglobals // fixed field set
)

// ValidFields returns the sort fields valid for both record kinds.
func ValidFields() []string {
	var out []string
	for _, f := range activityFields {
		if slices.Contains(actionFields, f) {
			out = append(out, f)
		}
	}
	return out
}

// CheckSortField reports whether field can sort the requested kind ("" for
// both, "activities" or "actions").
func CheckSortField(field, kind string) error {
	ok := true
	if kind != "actions" {
		ok = ok && slices.Contains(activityFields, field)
	}
	if kind != "activities" {
		ok = ok && slices.Contains(actionFields, field)
	}
	if !ok {
		return fmt.Errorf("%w: %q (valid: %s)", ErrInvalidSortField, field, strings.Join(fieldsFor(kind), ", "))
	}
	return nil
}

func fieldsFor(kind string) []string {
	switch kind {
	case "activities":
		return activityFields
	case "actions":
		return actionFields
	default:
		return ValidFields()
	}
}

// SortActivities returns a stably sorted copy. Unknown fields leave the
// order unchanged.
func SortActivities(records []engine.ActivityRecord, field, order string) []engine.ActivityRecord {
	sorted := slices.Clone(records)
	less := func(i, j int) bool {
		switch field {
		case "time":
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		case "impact":
			return sorted[i].CO2Impact < sorted[j].CO2Impact
		case "category":
			return sorted[i].Category < sorted[j].Category
		case "type":
			return sorted[i].Type < sorted[j].Type
		default:
			return false
		}
	}
	sort.SliceStable(sorted, ordered(less, order))
	return sorted
}

// SortActions returns a stably sorted copy. Unknown fields leave the order
// unchanged.
func SortActions(records []engine.PositiveActionRecord, field, order string) []engine.PositiveActionRecord {
	sorted := slices.Clone(records)
	less := func(i, j int) bool {
		switch field {
		case "time":
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		case "impact":
			return sorted[i].CO2Saved < sorted[j].CO2Saved
		case "action":
			return sorted[i].ActionID < sorted[j].ActionID
		default:
			return false
		}
	}
	sort.SliceStable(sorted, ordered(less, order))
	return sorted
}

// ordered swaps the comparison for descending order, keeping stability.
func ordered(less func(i, j int) bool, order string) func(i, j int) bool {
	if order == SortOrderDesc {
		return func(i, j int) bool { return less(j, i) }
	}
	return less
}
