// Package observability exports ledger metrics in the Prometheus format.
//
// A CLI run is a short-lived batch job, so metrics are written to a
// node_exporter textfile rather than served.
package observability

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
)

const namespace = "carbonledger"

// Metrics records ledger events. It implements engine.Recorder and owns its
// registry, so several instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	activitiesLogged *prometheus.CounterVec
	emissionsKg      *prometheus.CounterVec
	actionsLogged    *prometheus.CounterVec
	savingsKg        *prometheus.CounterVec
	rejections       *prometheus.CounterVec
	removals         *prometheus.CounterVec

	netFootprintKg prometheus.Gauge
	totalEmissions prometheus.Gauge
	totalSavings   prometheus.Gauge
	currentStreak  prometheus.Gauge
	lastRun        prometheus.Gauge
}

var _ engine.Recorder = (*Metrics)(nil)

// NewMetrics builds and registers the ledger metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		activitiesLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "activities_logged_total",
			Help:      "Activities appended to the ledger.",
		}, []string{"category"}),
		emissionsKg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "emissions_logged_kg_total",
			Help:      "Kilograms of CO2 logged, by category. Negative-factor activities are excluded.",
		}, []string{"category"}),
		actionsLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "positive_actions_logged_total",
			Help:      "Positive actions appended to the ledger.",
		}, []string{"action"}),
		savingsKg: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "savings_logged_kg_total",
			Help:      "Kilograms of CO2 saved by logged positive actions.",
		}, []string{"action"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "rejections_total",
			Help:      "Log requests rejected before reaching the store.",
		}, []string{"operation", "reason"}),
		removals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "records_removed_total",
			Help:      "Records removed from the ledger.",
		}, []string{"kind"}),
		netFootprintKg: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "net_footprint_kg",
			Help:      "Total emissions minus total savings across the ledger.",
		}),
		totalEmissions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "emissions_kg",
			Help:      "Total emissions across the ledger.",
		}),
		totalSavings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "savings_kg",
			Help:      "Total savings across the ledger.",
		}),
		currentStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_streak_days",
			Help:      "Consecutive days with at least one logged record.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the run that wrote this file.",
		}),
	}

	m.registry.MustRegister(
		m.activitiesLogged, m.emissionsKg, m.actionsLogged, m.savingsKg,
		m.rejections, m.removals,
		m.netFootprintKg, m.totalEmissions, m.totalSavings, m.currentStreak, m.lastRun,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ActivityLogged counts an activity and its emissions.
func (m *Metrics) ActivityLogged(category greenops.Category, kg float64) {
	m.activitiesLogged.WithLabelValues(category.String()).Inc()
	// Counters cannot decrease; recycling and composting only bump the count.
	if kg > 0 {
		m.emissionsKg.WithLabelValues(category.String()).Add(kg)
	}
}

// PositiveActionLogged counts a positive action and its savings.
func (m *Metrics) PositiveActionLogged(actionID string, kg float64) {
	m.actionsLogged.WithLabelValues(actionID).Inc()
	if kg > 0 {
		m.savingsKg.WithLabelValues(actionID).Add(kg)
	}
}

// Rejected counts a rejected log request.
func (m *Metrics) Rejected(operation string, err error) {
	m.rejections.WithLabelValues(operation, RejectionReason(err)).Inc()
}

// Removed counts a removed record.
func (m *Metrics) Removed(kind string) {
	m.removals.WithLabelValues(kind).Inc()
}

// ObserveDashboard sets the ledger gauges from a dashboard.
func (m *Metrics) ObserveDashboard(d engine.Dashboard, now time.Time) {
	m.netFootprintKg.Set(d.NetFootprint)
	m.totalEmissions.Set(d.TotalEmissions)
	m.totalSavings.Set(d.TotalSavings)
	m.currentStreak.Set(float64(d.CurrentStreak))
	m.lastRun.Set(float64(now.Unix()))
}

// WriteTextfile writes every metric to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile %s: %w", path, err)
	}
	return nil
}

// RejectionReason maps a rejection error to a low-cardinality label.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, greenops.ErrInvalidActionValue):
		return "invalid_action_value"
	case errors.Is(err, greenops.ErrUnknownAction):
		return "unknown_action"
	case errors.Is(err, greenops.ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, greenops.ErrInvalidInput):
		return "invalid_input"
	default:
		return "other"
	}
}
