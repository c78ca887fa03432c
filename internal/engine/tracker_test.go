package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/greenops"
)

type recordingRecorder struct {
	activities int
	actions    int
	rejected   []string
	removed    []string
}

func (r *recordingRecorder) ActivityLogged(greenops.Category, float64) { r.activities++ }
func (r *recordingRecorder) PositiveActionLogged(string, float64) { r.actions++ }
func (r *recordingRecorder) Rejected(op string, _ error) { r.rejected = append(r.rejected, op) }
func (r *recordingRecorder) Removed(kind string) { r.removed = append(r.removed, kind) }

func newTestTracker(t *testing.T, now time.Time) (*Tracker, *fakeStore, *fakeClock, *recordingRecorder) {
	t.Helper()
	store := &fakeStore{}
	clock := &fakeClock{now: now}
	rec := &recordingRecorder{}
	tr := NewTracker(store,
		WithClock(clock.Now),
		WithIDGenerator(sequentialIDs()),
		WithRecorder(rec),
	)
	return tr, store, clock, rec
}

func TestTracker_LogActivity(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.January, 5, 9, 30, 0, 0, time.UTC)
	tr, store, _, rec := newTestTracker(t, now)

	got, err := tr.LogActivity(ctx, greenops.CategoryTransportation, "car_gasoline", 25)
	require.NoError(t, err)
	assert.Equal(t, "id-1", got.ID)
	assert.InDelta(t, 5.25, got.CO2Impact, 1e-9)
	assert.Equal(t, greenops.UnitKm, got.Unit)
	assert.Equal(t, greenops.FactorTableVersion, got.FactorVersion)
	assert.Equal(t, now, got.Timestamp)
	require.NoError(t, got.Validate())
	assert.Len(t, store.snap.Activities, 1)
	assert.Equal(t, 1, rec.activities)
}

func TestTracker_LogActivity_UnknownTypeIsSoft(t *testing.T) {
	tr, store, _, _ := newTestTracker(t, day(2024, time.January, 1))

	got, err := tr.LogActivity(context.Background(), greenops.CategoryTransportation, "jetpack", 12)
	require.NoError(t, err)
	assert.Zero(t, got.CO2Impact)
	assert.Equal(t, greenops.UnknownUnit, got.Unit)
	require.NoError(t, got.Validate())
	assert.Len(t, store.snap.Activities, 1)
}

func TestTracker_LogActivity_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		category greenops.Category
		value    float64
		wantErr  error
	}{
		{name: "negative value", category: greenops.CategoryFood, value: -1, wantErr: greenops.ErrInvalidInput},
		{name: "unknown category", category: greenops.Category("travel"), value: 1, wantErr: greenops.ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, store, _, rec := newTestTracker(t, day(2024, time.January, 1))
			_, err := tr.LogActivity(context.Background(), tt.category, "beef", tt.value)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.adds)
			assert.Equal(t, []string{"log_activity"}, rec.rejected)
		})
	}
}

func TestTracker_LogPositiveAction(t *testing.T) {
	ctx := context.Background()
	tr, store, _, rec := newTestTracker(t, day(2024, time.January, 1))

	trees, err := tr.LogPositiveAction(ctx, greenops.ActionPlantTree, 3)
	require.NoError(t, err)
	assert.InDelta(t, 63.0, trees.CO2Saved, 1e-9)
	assert.Equal(t, greenops.InputQuantity, trees.InputKind)
	assert.Equal(t, "Plant a Tree", trees.Name)
	require.NoError(t, trees.Validate())

	solar, err := tr.LogPositiveAction(ctx, greenops.ActionRenewableEnergy, 5)
	require.NoError(t, err)
	assert.InDelta(t, 2250.0, solar.CO2Saved, 1e-9)
	assert.InDelta(t, 1.0, solar.Value, 1e-9)

	assert.Len(t, store.snap.PositiveActions, 2)
	assert.Equal(t, 2, rec.actions)
}

func TestTracker_LogPositiveAction_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		value   float64
		wantErr error
	}{
		{name: "zero trees", action: greenops.ActionPlantTree, value: 0, wantErr: greenops.ErrInvalidActionValue},
		{name: "toggle off", action: greenops.ActionHomeInsulation, value: 0, wantErr: greenops.ErrInvalidActionValue},
		{name: "fractional tree", action: greenops.ActionPlantTree, value: 1.5, wantErr: greenops.ErrInvalidInput},
		{name: "negative", action: greenops.ActionPlantTree, value: -3, wantErr: greenops.ErrInvalidInput},
		{name: "unknown action", action: "buy_bike", value: 1, wantErr: greenops.ErrUnknownAction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, store, _, rec := newTestTracker(t, day(2024, time.January, 1))
			_, err := tr.LogPositiveAction(context.Background(), tt.action, tt.value)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, store.adds, "rejected actions must not touch the store")
			assert.Len(t, rec.rejected, 1)
		})
	}
}

func TestTracker_Remove(t *testing.T) {
	ctx := context.Background()
	tr, store, _, rec := newTestTracker(t, day(2024, time.January, 1))

	a, err := tr.LogActivity(ctx, greenops.CategoryFood, "beef", 1)
	require.NoError(t, err)
	b, err := tr.LogActivity(ctx, greenops.CategoryFood, "pork", 1)
	require.NoError(t, err)
	p, err := tr.LogPositiveAction(ctx, greenops.ActionPlantTree, 1)
	require.NoError(t, err)

	require.NoError(t, tr.RemoveActivity(ctx, a.ID))
	require.Len(t, store.snap.Activities, 1)
	assert.Equal(t, b, store.snap.Activities[0], "remaining records keep their frozen values")

	require.NoError(t, tr.RemovePositiveAction(ctx, p.ID))
	assert.Empty(t, store.snap.PositiveActions)

	err = tr.RemoveActivity(ctx, a.ID)
	require.ErrorIs(t, err, ErrRecordNotFound)
	assert.True(t, IsNotFound(err))
	require.ErrorIs(t, tr.RemovePositiveAction(ctx, "missing"), ErrRecordNotFound)

	assert.Equal(t, []string{"activity", "positive_action"}, rec.removed)
}

func TestTracker_EmptyLedger(t *testing.T) {
	ctx := context.Background()
	now := day(2024, time.January, 1)
	tr, _, _, _ := newTestTracker(t, now)

	fp, err := tr.DailyFootprint(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, fp.Emissions)
	assert.Zero(t, fp.Net)

	streak, err := tr.CurrentStreak(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, streak)

	suggestions, err := tr.ReductionSuggestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestTracker_Queries(t *testing.T) {
	ctx := context.Background()
	tr, _, clock, _ := newTestTracker(t, day(2024, time.January, 1))

	for d := 1; d <= 5; d++ {
		clock.now = time.Date(2024, time.January, d, 12, 0, 0, 0, time.UTC)
		_, err := tr.LogActivity(ctx, greenops.CategoryTransportation, "car_gasoline", 25)
		require.NoError(t, err)
	}
	_, err := tr.LogActivity(ctx, greenops.CategoryFood, "beef", 0.6)
	require.NoError(t, err)
	_, err = tr.LogPositiveAction(ctx, greenops.ActionPlantTree, 1)
	require.NoError(t, err)

	fp, err := tr.DailyFootprint(ctx, day(2024, time.January, 5))
	require.NoError(t, err)
	assert.InDelta(t, 5.25+16.2, fp.Emissions, 1e-9)
	assert.InDelta(t, 21.0, fp.Savings, 1e-9)
	assert.InDelta(t, 5.25+16.2-21, fp.Net, 1e-9)
	assert.Equal(t, 2, fp.Activities)
	assert.Equal(t, 1, fp.Actions)

	streak, err := tr.CurrentStreak(ctx, day(2024, time.January, 5))
	require.NoError(t, err)
	assert.Equal(t, 5, streak)
	streak, err = tr.CurrentStreak(ctx, day(2024, time.January, 7))
	require.NoError(t, err)
	assert.Zero(t, streak)

	series, err := tr.TimeSeries(ctx, BucketDaily, day(2024, time.January, 1), day(2024, time.January, 8))
	require.NoError(t, err)
	require.Len(t, series, 7)
	assert.InDelta(t, 5.25, series[0].Total, 1e-9)
	assert.Zero(t, series[6].Total)

	_, err = tr.TimeSeries(ctx, BucketDaily, day(2024, time.January, 8), day(2024, time.January, 1))
	require.ErrorIs(t, err, ErrInvalidWindow)

	suggestions, err := tr.ReductionSuggestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Consider carpooling or using public transport for long trips",
		"Consider carpooling or using public transport for long trips",
		"Consider carpooling or using public transport for long trips",
		"Consider carpooling or using public transport for long trips",
		"Consider carpooling or using public transport for long trips",
		"Try reducing meat consumption by having one plant-based meal per day",
	}, suggestions)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	breakdown := tr.CategoryBreakdown(snap.Activities)
	assert.Equal(t, 62, breakdown[greenops.CategoryTransportation])
	assert.Equal(t, 38, breakdown[greenops.CategoryFood])

	cmp := tr.CompareToAverage(12.6, "global")
	assert.Equal(t, 5, cmp.PercentageDelta)
	assert.Equal(t, greenops.StatusAverage, cmp.Status)
}

func TestTracker_StoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	tr, store, _, _ := newTestTracker(t, day(2024, time.January, 1))
	store.failErr = boom

	_, err := tr.LogActivity(context.Background(), greenops.CategoryFood, "beef", 1)
	require.ErrorIs(t, err, boom)
	_, err = tr.Snapshot(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = tr.Dashboard(context.Background(), "global")
	require.ErrorIs(t, err, boom)
}

func TestTracker_Deterministic(t *testing.T) {
	ctx := context.Background()
	tr, _, clock, _ := newTestTracker(t, day(2024, time.January, 1))
	for i, typ := range []string{"electricity", "natural_gas", "propane"} {
		clock.now = day(2024, time.January, 1+i)
		_, err := tr.LogActivity(ctx, greenops.CategoryEnergy, typ, 3.7)
		require.NoError(t, err)
	}

	first, err := tr.TimeSeries(ctx, BucketWeekly, day(2024, time.January, 1), day(2024, time.February, 1))
	require.NoError(t, err)
	second, err := tr.TimeSeries(ctx, BucketWeekly, day(2024, time.January, 1), day(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
