package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/rewards"
)

// DefaultMonthlyTargetKg is the monthly emissions target used by the dashboard.
const DefaultMonthlyTargetKg = 300.0

// Recorder receives ledger events for metrics. Implementations must be cheap
// and must not fail.
type Recorder interface {
	ActivityLogged(category greenops.Category, kg float64)
	PositiveActionLogged(actionID string, kg float64)
	Rejected(operation string, err error)
	Removed(kind string)
}

type noopRecorder struct{}

func (noopRecorder) ActivityLogged(greenops.Category, float64) {}
func (noopRecorder) PositiveActionLogged(string, float64) {}
func (noopRecorder) Rejected(string, error) {}
func (noopRecorder) Removed(string) {}

// Tracker is the ledger API. It holds no records itself: every query reads a
// fresh snapshot from the Store, so results cannot drift from stored data.
type Tracker struct {
	store           Store
	now             func() time.Time
	newID           func() string
	rewards         rewards.Service
	recorder        Recorder
	publisher       Publisher
	monthlyTargetKg float64
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used for record timestamps and "today".
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithIDGenerator sets the record ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(t *Tracker) { t.newID = newID }
}

// WithRewards sets the reward service used by Dashboard.
func WithRewards(svc rewards.Service) Option {
	return func(t *Tracker) { t.rewards = svc }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(t *Tracker) { t.recorder = r }
}

// WithPublisher sets the sink for ledger change events.
func WithPublisher(p Publisher) Option {
	return func(t *Tracker) { t.publisher = p }
}

// WithMonthlyTarget sets the dashboard's monthly emissions target in kg.
// Non-positive values are ignored.
func WithMonthlyTarget(kg float64) Option {
	return func(t *Tracker) {
		if kg > 0 {
			t.monthlyTargetKg = kg
		}
	}
}

// NewTracker returns a Tracker over store. Defaults: wall clock, ULID record
// IDs, no reward service, no metrics, no event publishing.
func NewTracker(store Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:           store,
		now:             time.Now,
		newID:           func() string { return ulid.Make().String() },
		recorder:        noopRecorder{},
		publisher:       noopPublisher{},
		monthlyTargetKg: DefaultMonthlyTargetKg,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// LogActivity computes the impact of an activity and appends it to the store.
// The category must be known; an unknown type within it is logged with zero
// impact and a warning.
func (t *Tracker) LogActivity(
	ctx context.Context,
	category greenops.Category,
	activityType string,
	value float64,
) (ActivityRecord, error) {
	return t.LogActivityAt(ctx, time.Time{}, category, activityType, value)
}

// LogActivityAt is LogActivity with an explicit record timestamp, used when
// importing past entries. A zero at means now.
func (t *Tracker) LogActivityAt(
	ctx context.Context,
	at time.Time,
	category greenops.Category,
	activityType string,
	value float64,
) (ActivityRecord, error) {
	logger := logging.FromContext(ctx).With().
		Str("component", "engine").
		Str("operation", "LogActivity").
		Str("category", category.String()).
		Str("type", activityType).
		Logger()

	if !category.IsValid() {
		err := fmt.Errorf("logging activity: %w: %q", greenops.ErrUnknownCategory, category)
		t.recorder.Rejected("log_activity", err)
		return ActivityRecord{}, err
	}

	calc, err := greenops.Calculate(greenops.ActivityInput{Category: category, Type: activityType, Value: value})
	if err != nil {
		t.recorder.Rejected("log_activity", err)
		return ActivityRecord{}, fmt.Errorf("logging activity: %w", err)
	}

	if _, lookupErr := greenops.LookupFactor(category, activityType); lookupErr != nil {
		logger.Warn().Err(lookupErr).Msg("no emission factor for activity type, impact recorded as zero")
	}

	rec := ActivityRecord{
		ID:            t.newID(),
		Category:      category,
		Type:          activityType,
		Value:         value,
		Unit:          greenops.CanonicalUnit(category, activityType),
		CO2Impact:     calc.CO2Amount,
		FactorVersion: greenops.FactorTableVersion,
		Timestamp:     t.stamp(at),
	}

	if err := t.store.AddActivity(ctx, rec); err != nil {
		return ActivityRecord{}, fmt.Errorf("storing activity: %w", err)
	}

	t.recorder.ActivityLogged(category, rec.CO2Impact)
	t.publish(ctx, Event{Type: EventActivityLogged, RecordID: rec.ID, Activity: &rec, OccurredAt: t.now()})
	logger.Debug().Str("id", rec.ID).Float64("co2_kg", rec.CO2Impact).Msg("activity logged")
	return rec, nil
}

// LogPositiveAction records an offsetting action. Savings that are not
// strictly positive are rejected with greenops.ErrInvalidActionValue and
// nothing is stored.
func (t *Tracker) LogPositiveAction(ctx context.Context, actionID string, value float64) (PositiveActionRecord, error) {
	return t.LogPositiveActionAt(ctx, time.Time{}, actionID, value)
}

// LogPositiveActionAt is LogPositiveAction with an explicit record
// timestamp. A zero at means now.
func (t *Tracker) LogPositiveActionAt(
	ctx context.Context,
	at time.Time,
	actionID string,
	value float64,
) (PositiveActionRecord, error) {
	logger := logging.FromContext(ctx).With().
		Str("component", "engine").
		Str("operation", "LogPositiveAction").
		Str("action", actionID).
		Logger()

	action, err := greenops.LookupAction(actionID)
	if err != nil {
		t.recorder.Rejected("log_positive_action", err)
		return PositiveActionRecord{}, fmt.Errorf("logging positive action: %w", err)
	}

	saved, err := greenops.EstimateSavings(action, value)
	if err != nil {
		t.recorder.Rejected("log_positive_action", err)
		return PositiveActionRecord{}, fmt.Errorf("logging positive action: %w", err)
	}
	if saved <= 0 {
		err := fmt.Errorf("logging positive action %s: %w: saves %v kg", actionID, greenops.ErrInvalidActionValue, saved)
		logger.Info().Float64("value", value).Msg("positive action rejected, no savings")
		t.recorder.Rejected("log_positive_action", err)
		return PositiveActionRecord{}, err
	}

	rec := PositiveActionRecord{
		ID:            t.newID(),
		ActionID:      action.ID,
		Name:          action.Name,
		InputKind:     action.Kind,
		Value:         value,
		CO2Saved:      saved,
		FactorVersion: greenops.FactorTableVersion,
		Timestamp:     t.stamp(at),
	}
	if action.Kind == greenops.InputBoolean {
		rec.Value = 1
	}

	if err := t.store.AddPositiveAction(ctx, rec); err != nil {
		return PositiveActionRecord{}, fmt.Errorf("storing positive action: %w", err)
	}

	t.recorder.PositiveActionLogged(action.ID, saved)
	t.publish(ctx, Event{Type: EventPositiveActionLogged, RecordID: rec.ID, PositiveAction: &rec, OccurredAt: t.now()})
	logger.Debug().Str("id", rec.ID).Float64("co2_saved_kg", saved).Msg("positive action logged")
	return rec, nil
}

// RemoveActivity deletes an activity. Other records are untouched.
func (t *Tracker) RemoveActivity(ctx context.Context, id string) error {
	if err := t.store.RemoveActivity(ctx, id); err != nil {
		return fmt.Errorf("removing activity %s: %w", id, err)
	}
	t.recorder.Removed("activity")
	t.publish(ctx, Event{Type: EventActivityRemoved, RecordID: id, OccurredAt: t.now()})
	return nil
}

// RemovePositiveAction deletes a positive action. Other records are untouched.
func (t *Tracker) RemovePositiveAction(ctx context.Context, id string) error {
	if err := t.store.RemovePositiveAction(ctx, id); err != nil {
		return fmt.Errorf("removing positive action %s: %w", id, err)
	}
	t.recorder.Removed("positive_action")
	t.publish(ctx, Event{Type: EventPositiveActionRemoved, RecordID: id, OccurredAt: t.now()})
	return nil
}

func (t *Tracker) stamp(at time.Time) time.Time {
	if at.IsZero() {
		return t.now()
	}
	return at
}

// publish hands an event to the publisher. The store is the source of truth,
// so a failed publish is logged and never undoes the write.
func (t *Tracker) publish(ctx context.Context, ev Event) {
	if err := t.publisher.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).Warn().
			Str("component", "engine").
			Str("event", string(ev.Type)).
			Str("id", ev.RecordID).
			Err(err).
			Msg("publishing ledger event failed")
	}
}

// Snapshot returns the current store contents ordered by time.
func (t *Tracker) Snapshot(ctx context.Context) (Snapshot, error) {
	snap, err := t.store.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading store: %w", err)
	}
	snap = snap.Clone()
	snap.SortByTime()
	return snap, nil
}

// DayFootprint is the ledger total for one calendar day.
type DayFootprint struct {
	Date       string  `json:"date"`
	Emissions  float64 `json:"emissions"`
	Savings    float64 `json:"savings"`
	Net        float64 `json:"net"`
	Activities int     `json:"activities"`
	Actions    int     `json:"actions"`
}

// DailyFootprint totals the frozen impacts of records on date's calendar day,
// in date's location.
func (t *Tracker) DailyFootprint(ctx context.Context, date time.Time) (DayFootprint, error) {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return DayFootprint{}, err
	}
	return dayFootprint(snap, date), nil
}

func dayFootprint(snap Snapshot, date time.Time) DayFootprint {
	day := dateOf(date)
	activities := snap.ActivitiesOn(date)

	var actions []PositiveActionRecord
	for _, p := range snap.PositiveActions {
		if dateOf(p.Timestamp.In(date.Location())).Equal(day) {
			actions = append(actions, p)
		}
	}

	return DayFootprint{
		Date:       day.Format(dayLabelLayout),
		Emissions:  EmissionsTotal(activities),
		Savings:    SavingsTotal(actions),
		Net:        NetFootprint(activities, actions),
		Activities: len(activities),
		Actions:    len(actions),
	}
}

// CategoryBreakdown returns integer percentage shares per category.
func (t *Tracker) CategoryBreakdown(records []ActivityRecord) map[greenops.Category]int {
	return AggregateByCategory(records)
}

// TimeSeries buckets the whole ledger across [start, end).
func (t *Tracker) TimeSeries(ctx context.Context, size BucketSize, start, end time.Time) ([]Bucket, error) {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	buckets, err := AggregateSnapshotByTimeBucket(snap, size, start, end)
	if err != nil {
		return nil, fmt.Errorf("building time series: %w", err)
	}
	return buckets, nil
}

// CurrentStreak returns the logging streak ending at asOf.
func (t *Tracker) CurrentStreak(ctx context.Context, asOf time.Time) (int, error) {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return StreakFromRecords(snap, asOf), nil
}

// CompareToAverage classifies a daily footprint against a region.
func (t *Tracker) CompareToAverage(footprint float64, region string) greenops.Comparison {
	return greenops.CompareToAverage(footprint, region)
}

// ReductionSuggestions returns advice for high-impact activities, one entry
// per matching record in chronological order.
func (t *Tracker) ReductionSuggestions(ctx context.Context) ([]string, error) {
	snap, err := t.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return greenops.ReductionSuggestions(activityInputs(snap.Activities)), nil
}

func activityInputs(records []ActivityRecord) []greenops.ActivityInput {
	inputs := make([]greenops.ActivityInput, len(records))
	for i, r := range records {
		inputs[i] = r.Input()
	}
	return inputs
}

// IsNotFound reports whether err means a record ID was unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
