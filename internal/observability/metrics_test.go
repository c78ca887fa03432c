package observability

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/store"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.ActivityLogged(greenops.CategoryFood, 13.5)
	m.ActivityLogged(greenops.CategoryFood, 2)
	m.ActivityLogged(greenops.CategoryWaste, -0.5)
	m.PositiveActionLogged(greenops.ActionPlantTree, 21)
	m.Rejected("log_positive_action", fmt.Errorf("wrapped: %w", greenops.ErrInvalidActionValue))
	m.Rejected("log_activity", errors.New("boom"))
	m.Removed("activity")

	assert.InDelta(t, 2.0, testutil.ToFloat64(m.activitiesLogged.WithLabelValues("food")), 1e-9)
	assert.InDelta(t, 15.5, testutil.ToFloat64(m.emissionsKg.WithLabelValues("food")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.activitiesLogged.WithLabelValues("waste")), 1e-9)
	assert.InDelta(t, 0.0, testutil.ToFloat64(m.emissionsKg.WithLabelValues("waste")), 1e-9)
	assert.InDelta(t, 21.0, testutil.ToFloat64(m.savingsKg.WithLabelValues("plant_tree")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		m.rejections.WithLabelValues("log_positive_action", "invalid_action_value")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("log_activity", "other")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(m.removals.WithLabelValues("activity")), 1e-9)
}

func TestRejectionReason(t *testing.T) {
	tests := map[error]string{
		greenops.ErrInvalidActionValue: "invalid_action_value",
		greenops.ErrUnknownAction:      "unknown_action",
		greenops.ErrUnknownCategory:    "unknown_category",
		greenops.ErrInvalidInput:       "invalid_input",
		errors.New("disk full"):        "other",
	}
	for err, want := range tests {
		assert.Equal(t, want, RejectionReason(fmt.Errorf("ctx: %w", err)))
	}
}

func TestMetrics_RecorderWiredIntoTracker(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics()
	tr := engine.NewTracker(store.NewMemoryStore(), engine.WithRecorder(m))

	_, err := tr.LogActivity(ctx, greenops.CategoryEnergy, "electricity", 10)
	require.NoError(t, err)
	_, err = tr.LogPositiveAction(ctx, greenops.ActionRenewableEnergy, 0)
	require.ErrorIs(t, err, greenops.ErrInvalidActionValue)

	assert.InDelta(t, 5.0, testutil.ToFloat64(m.emissionsKg.WithLabelValues("energy")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		m.rejections.WithLabelValues("log_positive_action", "invalid_action_value")), 1e-9)
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ActivityLogged(greenops.CategoryTransportation, 1.92)
	m.ObserveDashboard(engine.Dashboard{NetFootprint: -19.08, TotalEmissions: 1.92, TotalSavings: 21, CurrentStreak: 3},
		time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "carbonledger.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `carbonledger_ledger_activities_logged_total{category="transportation"} 1`)
	assert.Contains(t, out, "carbonledger_net_footprint_kg -19.08")
	assert.Contains(t, out, "carbonledger_current_streak_days 3")
	assert.Contains(t, out, "carbonledger_last_run_timestamp_seconds 1.7e+09")
}

func TestMetrics_WriteTextfileError(t *testing.T) {
	m := NewMetrics()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	require.Error(t, err)
}

func TestNewMetrics_Independent(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.Removed("activity")
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.removals.WithLabelValues("activity")), 1e-9)
	assert.NotSame(t, a.Registry(), b.Registry())
}
