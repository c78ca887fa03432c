package engine

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/carbonledger/internal/greenops"
)

func sampleSnapshot() Snapshot {
	ts := time.Date(2024, time.January, 2, 8, 0, 0, 0, time.UTC)
	return Snapshot{
		Activities: []ActivityRecord{
			{ID: "a1", Category: greenops.CategoryFood, Type: "beef", Value: 0.5, Unit: "kg", CO2Impact: 13.5, Timestamp: ts},
		},
		PositiveActions: []PositiveActionRecord{
			{ID: "p1", ActionID: greenops.ActionRenewableEnergy, Name: "Switch to Renewable Energy",
				InputKind: greenops.InputBoolean, Value: 1, CO2Saved: 2250, Timestamp: ts},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputTable, "TABLE": OutputTable, "json": OutputJSON, "ndjson": OutputNDJSON} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOutputFormat("xml")
	require.Error(t, err)
}

func TestRenderSnapshot(t *testing.T) {
	opts := DefaultRenderOptions()

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderSnapshot(&buf, OutputTable, sampleSnapshot(), "", opts))
		out := buf.String()
		assert.Contains(t, out, "beef")
		assert.Contains(t, out, "13.50 kg CO2")
		assert.Contains(t, out, "Switch to Renewable Energy")
		assert.Contains(t, out, "2,250.00 kg CO2")
		assert.Contains(t, out, "yes")
	})

	t.Run("json activities only", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderSnapshot(&buf, OutputJSON, sampleSnapshot(), "activities", opts))
		var got Snapshot
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Len(t, got.Activities, 1)
		assert.Empty(t, got.PositiveActions)
		assert.Contains(t, buf.String(), `"positive_actions": []`)
	})

	t.Run("ndjson", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, RenderSnapshot(&buf, OutputNDJSON, sampleSnapshot(), "", opts))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], `"co2_impact":13.5`)
		assert.Contains(t, lines[1], `"co2_saved":2250`)
	})
}

func TestRenderBreakdown(t *testing.T) {
	rows := BreakdownRows(sampleSnapshot().Activities)
	require.Len(t, rows, 5)

	var buf bytes.Buffer
	require.NoError(t, RenderBreakdown(&buf, OutputTable, rows, RenderOptions{Unit: "g", Precision: 0}))
	assert.Contains(t, buf.String(), "Food")
	assert.Contains(t, buf.String(), "13,500 g CO2")
	assert.Contains(t, buf.String(), "100%")
	assert.Contains(t, buf.String(), "Shopping")
}

func TestRenderSeries(t *testing.T) {
	buckets, err := AggregateSnapshotByTimeBucket(sampleSnapshot(), BucketDaily, day(2024, time.January, 1), day(2024, time.January, 3))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderSeries(&buf, OutputNDJSON, buckets, DefaultRenderOptions()))
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	buf.Reset()
	require.NoError(t, RenderSeries(&buf, OutputTable, buckets, DefaultRenderOptions()))
	assert.Contains(t, buf.String(), "2024-01-02")
	assert.Contains(t, buf.String(), "-2,236.50 kg CO2")
}

func TestRenderComparisonAndSuggestions(t *testing.T) {
	var buf bytes.Buffer
	c := greenops.CompareToAverage(20, "usa")
	require.NoError(t, RenderComparison(&buf, OutputTable, 20, c, DefaultRenderOptions()))
	assert.Contains(t, buf.String(), "+25%")
	assert.Contains(t, buf.String(), "Your footprint is 25% above the usa average")

	buf.Reset()
	require.NoError(t, RenderSuggestions(&buf, OutputJSON, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderSuggestions(&buf, OutputTable, []string{"Walk more"}))
	assert.Equal(t, "- Walk more\n", buf.String())
}

func TestRenderFactors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderFactors(&buf, OutputTable))
	out := buf.String()
	assert.Contains(t, out, "Factor table v"+greenops.FactorTableVersion)
	assert.Contains(t, out, "car_gasoline")
	assert.Contains(t, out, "-0.10 / kg")
	assert.Contains(t, out, "21 per tree")

	buf.Reset()
	require.NoError(t, RenderFactors(&buf, OutputNDJSON))
	assert.Equal(t, len(greenops.EmissionFactors()), strings.Count(buf.String(), "\n"))
}

func TestRenderDashboard(t *testing.T) {
	tr := NewTracker(&fakeStore{snap: sampleSnapshot()},
		WithClock(func() time.Time { return time.Date(2024, time.January, 2, 20, 0, 0, 0, time.UTC) }))
	d, err := tr.Dashboard(t.Context(), "global")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderDashboard(&buf, OutputTable, d, DefaultRenderOptions()))
	out := buf.String()
	assert.Contains(t, out, "Net footprint:")
	assert.Contains(t, out, "-2,236.50 kg CO2")
	assert.Contains(t, out, "[x] First Steps")
	assert.Contains(t, out, "[ ] Tree Planter")

	buf.Reset()
	require.NoError(t, RenderDashboard(&buf, OutputJSON, d, DefaultRenderOptions()))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.InDelta(t, -2236.5, decoded["net_footprint"], 1e-9)
}

func TestRenderLoggedRecords(t *testing.T) {
	snap := sampleSnapshot()
	opts := DefaultRenderOptions()

	var buf bytes.Buffer
	require.NoError(t, RenderActivity(&buf, OutputTable, snap.Activities[0], opts))
	assert.Equal(t, "Logged Food beef: 0.50 kg = 13.50 kg CO2 (a1)\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderPositiveAction(&buf, OutputTable, snap.PositiveActions[0], opts))
	assert.Equal(t, "Logged Switch to Renewable Energy (yes): saved 2,250.00 kg CO2 (p1)\n", buf.String())

	buf.Reset()
	require.NoError(t, RenderActivity(&buf, OutputJSON, snap.Activities[0], opts))
	var decoded ActivityRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a1", decoded.ID)

	buf.Reset()
	require.NoError(t, RenderPositiveAction(&buf, OutputNDJSON, snap.PositiveActions[0], opts))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}
