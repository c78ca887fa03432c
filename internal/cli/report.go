package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/cli/pagination"
	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/tui"
)

// defaultSeriesDays is the default span of "series" ending today.
const defaultSeriesDays = 30

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var (
		kind  string
		pages pagination.Params
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded activities and positive actions",
		Long: `Lists ledger records in time order. Sorting and pagination apply to
activities and positive actions separately.`,
		Example: `  carbonledger list
  carbonledger list --kind actions -o json
  carbonledger list --kind activities --sort impact:desc --limit 10
  carbonledger list --page 2 --page-size 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch kind {
			case "", "activities", "actions":
			default:
				return fmt.Errorf("invalid --kind %q (want activities or actions)", kind)
			}
			if err := pages.Validate(); err != nil {
				return err
			}
			field, order, _ := pagination.ParseSort(pages.Sort)
			if err := pagination.CheckSortField(field, kind); err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(l *ledger) error {
				snap, snapErr := l.tracker.Snapshot(cmd.Context())
				if snapErr != nil {
					return snapErr
				}
				footer := pageFooter(snap, kind, pages)
				snap.Activities = pagination.Apply(pagination.SortActivities(snap.Activities, field, order), pages)
				snap.PositiveActions = pagination.Apply(pagination.SortActions(snap.PositiveActions, field, order), pages)
				if renderErr := engine.RenderSnapshot(cmd.OutOrStdout(), format, snap, kind, renderOptions()); renderErr != nil {
					return renderErr
				}
				if pages.IsEnabled() && format == engine.OutputTable {
					cmd.Println(footer)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "limit to activities or actions")
	pages.AddFlags(cmd)
	return cmd
}

// pageFooter reports the unwindowed totals of the listed kinds. Without
// --kind each kind is paged on its own, so each gets its own line.
func pageFooter(snap engine.Snapshot, kind string, pages pagination.Params) string {
	activities := pagination.NewMeta(pages, len(snap.Activities)).String()
	actions := pagination.NewMeta(pages, len(snap.PositiveActions)).String()
	switch kind {
	case "activities":
		return activities
	case "actions":
		return actions
	default:
		return "Activities: " + activities + "\nPositive actions: " + actions
	}
}

// NewFootprintCmd creates the footprint command.
func NewFootprintCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "footprint",
		Short: "Show one day's emissions, savings and net footprint",
		Example: `  carbonledger footprint
  carbonledger footprint --date yesterday`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDate(date, time.Now())
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(l *ledger) error {
				fp, fpErr := l.tracker.DailyFootprint(cmd.Context(), day)
				if fpErr != nil {
					return fpErr
				}
				return engine.RenderDayFootprint(cmd.OutOrStdout(), format, fp, renderOptions())
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to report (YYYY-MM-DD, today or yesterday)")
	return cmd
}

// NewBreakdownCmd creates the breakdown command.
func NewBreakdownCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Show emissions by category as whole-number percentages",
		Long: `Shows each category's share of emissions. Without --date the whole ledger
is used. Shares are rounded independently and may not sum to 100.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(l *ledger) error {
				snap, snapErr := l.tracker.Snapshot(cmd.Context())
				if snapErr != nil {
					return snapErr
				}
				records := snap.Activities
				if date != "" {
					day, dateErr := parseDate(date, time.Now())
					if dateErr != nil {
						return dateErr
					}
					records = snap.ActivitiesOn(day)
				}
				return engine.RenderBreakdown(cmd.OutOrStdout(), format, engine.BreakdownRows(records), renderOptions())
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "limit to one day (YYYY-MM-DD, today or yesterday)")
	return cmd
}

// NewSeriesCmd creates the series command.
func NewSeriesCmd() *cobra.Command {
	var bucket, from, to string

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Show emissions in daily, weekly or monthly buckets",
		Long: `Buckets the ledger between --from and --to, both inclusive days. Every
bucket in the window is present, empty ones with zero totals, and each
carries the running net footprint.`,
		Example: `  carbonledger series
  carbonledger series --bucket monthly --from 2025-01-01 --to 2025-06-30`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			size, err := engine.ParseBucketSize(bucket)
			if err != nil {
				return err
			}
			start, end, err := seriesWindow(from, to, time.Now())
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(l *ledger) error {
				buckets, seriesErr := l.tracker.TimeSeries(cmd.Context(), size, start, end)
				if seriesErr != nil {
					return seriesErr
				}
				return engine.RenderSeries(cmd.OutOrStdout(), format, buckets, renderOptions())
			})
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", string(engine.BucketDaily), "bucket size: daily, weekly or monthly")
	cmd.Flags().StringVar(&from, "from", "", "first day (default 29 days before --to)")
	cmd.Flags().StringVar(&to, "to", "", "last day, inclusive (default today)")
	return cmd
}

// seriesWindow turns inclusive day flags into a half-open [start, end).
func seriesWindow(from, to string, now time.Time) (time.Time, time.Time, error) {
	last, err := parseDate(to, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := startOfDay(last).AddDate(0, 0, 1)

	start := end.AddDate(0, 0, -defaultSeriesDays)
	if from != "" {
		first, fromErr := parseDate(from, now)
		if fromErr != nil {
			return time.Time{}, time.Time{}, fromErr
		}
		start = startOfDay(first)
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --from must not be after --to", engine.ErrInvalidWindow)
	}
	return start, end, nil
}

// NewStreakCmd creates the streak command.
func NewStreakCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Show the consecutive-day logging streak",
		Long: `Counts consecutive days with at least one record, ending at --as-of.
A day without records ends the streak.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := parseDate(asOf, time.Now())
			if err != nil {
				return err
			}
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(l *ledger) error {
				snap, snapErr := l.tracker.Snapshot(cmd.Context())
				if snapErr != nil {
					return snapErr
				}
				current := engine.StreakFromRecords(snap, day)
				report := engine.StreakReport{
					AsOf:    day.Format(dateLayout),
					Current: current,
					Longest: engine.LongestStreak(snap.Dates(), day.Location()),
					Status:  engine.StreakStatus(current),
				}
				return engine.RenderStreak(cmd.OutOrStdout(), format, report)
			})
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "day the streak ends on (default today)")
	return cmd
}

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	var (
		footprint float64
		region    string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a daily footprint with a regional average",
		Long: `Compares --footprint, or today's emissions when it is not given, with the
average daily footprint of a region. Unknown regions fall back to global.`,
		Example: `  carbonledger compare
  carbonledger compare --footprint 9.5 --region europe`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if region == "" {
				region = configRegion()
			}
			if cmd.Flags().Changed("footprint") {
				if footprint < 0 {
					return fmt.Errorf("%w: footprint cannot be negative", greenops.ErrInvalidInput)
				}
				c := greenops.CompareToAverage(footprint, region)
				return engine.RenderComparison(cmd.OutOrStdout(), format, footprint, c, renderOptions())
			}
			return withLedger(cmd, func(l *ledger) error {
				fp, fpErr := l.tracker.DailyFootprint(cmd.Context(), time.Now())
				if fpErr != nil {
					return fpErr
				}
				c := l.tracker.CompareToAverage(fp.Emissions, region)
				return engine.RenderComparison(cmd.OutOrStdout(), format, fp.Emissions, c, renderOptions())
			})
		},
	}
	cmd.Flags().Float64Var(&footprint, "footprint", 0, "daily footprint in kg CO2 (default today's emissions)")
	cmd.Flags().StringVar(&region, "region", "", "benchmark region (default from config)")
	return cmd
}

// NewSuggestCmd creates the suggest command.
func NewSuggestCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest reductions for high-impact activities",
		Long: `Lists advice for logged activities above their category's threshold. By
default each suggestion is shown once; --all lists one per matching record.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(l *ledger) error {
				suggestions, sugErr := l.tracker.ReductionSuggestions(cmd.Context())
				if sugErr != nil {
					return sugErr
				}
				if !all {
					suggestions = greenops.UniqueSuggestions(suggestions)
				}
				return engine.RenderSuggestions(cmd.OutOrStdout(), format, suggestions)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list one suggestion per matching record")
	return cmd
}

// NewDashboardCmd creates the dashboard command. On a terminal it runs the
// interactive view; otherwise, or with --plain, it prints a summary.
func NewDashboardCmd() *cobra.Command {
	var (
		region string
		plain  bool
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals, streaks, benchmark, equivalencies and achievements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			if region == "" {
				region = configRegion()
			}
			return withLedger(cmd, func(l *ledger) error {
				load := func(ctx context.Context) (engine.Dashboard, error) {
					return l.tracker.Dashboard(ctx, region)
				}
				if !plain && format == engine.OutputTable && isTerminalWriter(cmd.OutOrStdout()) {
					return tui.RunDashboard(cmd.Context(), load, renderOptions())
				}
				d, dashErr := load(cmd.Context())
				if dashErr != nil {
					return dashErr
				}
				return engine.RenderDashboard(cmd.OutOrStdout(), format, d, renderOptions())
			})
		},
	}
	cmd.Flags().StringVar(&region, "region", "", "benchmark region (default from config)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print a plain summary instead of the interactive view")
	return cmd
}

// NewFactorsCmd creates the factors command.
func NewFactorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "factors",
		Short: "Show the emission factor and positive-action tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return engine.RenderFactors(cmd.OutOrStdout(), format)
		},
	}
}
