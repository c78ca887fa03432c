package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/backup"
	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/events"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/observability"
	"github.com/rshade/carbonledger/internal/rewards"
	"github.com/rshade/carbonledger/internal/store"
)

// ledger bundles what a command needs to read or change the ledger.
type ledger struct {
	cfg     *config.Config
	store   engine.Store
	tracker *engine.Tracker
	metrics *observability.Metrics

	metricsPath    string
	closePublisher func() error
}

// openLedger validates the configuration and opens the store, the event
// publishers and the metrics recorder.
func openLedger(cmd *cobra.Command) (*ledger, error) {
	ctx := cmd.Context()
	cfg := config.GetGlobalConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Driver, err)
	}

	pub, closePub, err := events.Open(cfg.Events)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("opening event publishers: %w", err)
	}

	metrics := observability.NewMetrics()
	opts := []engine.Option{
		engine.WithRecorder(metrics),
		engine.WithPublisher(pub),
		engine.WithMonthlyTarget(cfg.Dashboard.MonthlyTargetKg),
	}
	if cfg.Dashboard.Rewards {
		opts = append(opts, engine.WithRewards(rewards.NewSimulated()))
	}

	metricsPath, _ := cmd.Flags().GetString("metrics-textfile")
	if metricsPath == "" {
		metricsPath = cfg.Metrics.Textfile
	}

	return &ledger{
		cfg:            cfg,
		store:          st,
		tracker:        engine.NewTracker(st, opts...),
		metrics:        metrics,
		metricsPath:    metricsPath,
		closePublisher: closePub,
	}, nil
}

// close exports metrics when requested and releases the publishers and
// the store.
func (l *ledger) close(cmd *cobra.Command) error {
	var errs []error
	if l.metricsPath != "" {
		if d, err := l.tracker.Dashboard(cmd.Context(), l.cfg.Benchmark.Region); err == nil {
			l.metrics.ObserveDashboard(d, time.Now())
		}
		errs = append(errs, l.metrics.WriteTextfile(l.metricsPath))
	}
	errs = append(errs, l.closePublisher(), l.store.Close())
	return errors.Join(errs...)
}

// withLedger opens the ledger, runs fn and closes it, joining any errors.
func withLedger(cmd *cobra.Command, fn func(l *ledger) error) error {
	l, err := openLedger(cmd)
	if err != nil {
		return err
	}
	runErr := fn(l)
	if closeErr := l.close(cmd); closeErr != nil {
		logging.FromContext(cmd.Context()).Warn().Err(closeErr).Msg("closing ledger")
		if runErr == nil {
			return closeErr
		}
	}
	return runErr
}

// outputFormat returns --output, falling back to the configured default.
func outputFormat(cmd *cobra.Command) (engine.OutputFormat, error) {
	value, _ := cmd.Flags().GetString("output")
	if value == "" {
		value = config.GetDefaultOutputFormat()
	}
	return engine.ParseOutputFormat(value)
}

// renderOptions returns the configured unit and precision.
func renderOptions() engine.RenderOptions {
	out := config.GetGlobalConfig().Output
	return engine.RenderOptions{Unit: out.Unit, Precision: out.Precision}
}

// configRegion returns the configured benchmark region.
func configRegion() string {
	return config.GetGlobalConfig().Benchmark.Region
}

// configBackup returns the configured backup sink settings.
func configBackup() backup.Config {
	return config.GetGlobalConfig().Backup
}

// dateLayout is the layout of date flags.
const dateLayout = time.DateOnly

// parseDate parses a --date style flag in local time. Empty means today;
// "today" and "yesterday" are accepted.
func parseDate(value string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "today":
		return now, nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}
	if t, err := time.ParseInLocation(dateLayout, value, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(now.Location()), nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD, RFC 3339, today or yesterday)", value)
}

// parseAt parses a --at flag for backdated entries. Empty means now; a
// bare date means noon on that day so the entry stays on it across zones
// with DST shifts.
func parseAt(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	day, err := time.ParseInLocation(dateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q (want YYYY-MM-DD or RFC 3339)", value)
	}
	return day.Add(12 * time.Hour), nil //nolint:mnd // noon
}

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
