package engine

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

// Output formats.
const (
	OutputTable  OutputFormat = "table"
	OutputJSON   OutputFormat = "json"
	OutputNDJSON OutputFormat = "ndjson"
)

// ParseOutputFormat parses a format name; empty means table.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputTable, nil
	case OutputTable, OutputJSON, OutputNDJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want table, json or ndjson)", s)
	}
}

// tabwriterPadding is the minimum padding between table columns.
const tabwriterPadding = 2

// RenderOptions controls numeric presentation in tables.
type RenderOptions struct {
	// Unit is the carbon mass display unit (g, kg, t, lb).
	Unit string
	// Precision is the number of decimal places.
	Precision int
}

// DefaultRenderOptions renders kilograms with two decimals.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Unit: greenops.MassKilograms, Precision: 2}
}

func (o RenderOptions) carbon(kg float64) string {
	return greenops.FormatCarbon(kg, o.Unit, o.Precision)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, tabwriterPadding, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

func writeNDJSON[T any](w io.Writer, items []T) error {
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshaling line: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("writing NDJSON line: %w", err)
		}
	}
	return nil
}

// RenderSnapshot writes the ledger records. kind limits output to
// "activities" or "actions"; empty writes both.
func RenderSnapshot(w io.Writer, format OutputFormat, snap Snapshot, kind string, opts RenderOptions) error {
	showActivities := kind == "" || kind == "activities"
	showActions := kind == "" || kind == "actions"
	if !showActivities {
		snap.Activities = nil
	}
	if !showActions {
		snap.PositiveActions = nil
	}

	switch format {
	case OutputJSON:
		if snap.Activities == nil {
			snap.Activities = []ActivityRecord{}
		}
		if snap.PositiveActions == nil {
			snap.PositiveActions = []PositiveActionRecord{}
		}
		return writeJSON(w, snap)
	case OutputNDJSON:
		if err := writeNDJSON(w, snap.Activities); err != nil {
			return err
		}
		return writeNDJSON(w, snap.PositiveActions)
	}

	tw := newTable(w)
	if showActivities {
		fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tTYPE\tVALUE\tCO2")
		for _, a := range snap.Activities {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s %s\t%s\n",
				a.ID, a.Timestamp.Format(time.DateTime), a.Category, a.Type,
				greenops.FormatFloat(a.Value, opts.Precision), a.Unit, opts.carbon(a.CO2Impact))
		}
	}
	if showActivities && showActions {
		fmt.Fprintln(tw)
	}
	if showActions {
		fmt.Fprintln(tw, "ID\tDATE\tACTION\tVALUE\tSAVED")
		for _, p := range snap.PositiveActions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				p.ID, p.Timestamp.Format(time.DateTime), p.Name,
				actionValue(p), opts.carbon(p.CO2Saved))
		}
	}
	return tw.Flush()
}

func actionValue(p PositiveActionRecord) string {
	if p.InputKind == greenops.InputBoolean {
		if p.Value != 0 {
			return "yes"
		}
		return "no"
	}
	return greenops.FormatFloat(p.Value, 0)
}

// RenderDayFootprint writes one day's totals.
func RenderDayFootprint(w io.Writer, format OutputFormat, fp DayFootprint, opts RenderOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, fp)
	case OutputNDJSON:
		return writeNDJSON(w, []DayFootprint{fp})
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Date:\t%s\n", fp.Date)
	fmt.Fprintf(tw, "Emissions:\t%s\t(%d activities)\n", opts.carbon(fp.Emissions), fp.Activities)
	fmt.Fprintf(tw, "Savings:\t%s\t(%d actions)\n", opts.carbon(fp.Savings), fp.Actions)
	fmt.Fprintf(tw, "Net:\t%s\n", opts.carbon(fp.Net))
	return tw.Flush()
}

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Category greenops.Category `json:"category"`
	Label    string            `json:"label"`
	Total    float64           `json:"total"`
	Percent  int               `json:"percent"`
}

// BreakdownRows pairs percentage shares with totals in category order.
func BreakdownRows(records []ActivityRecord) []CategoryShare {
	totals := CategoryTotals(records)
	shares := AggregateByCategory(records)
	rows := make([]CategoryShare, 0, len(totals))
	for _, c := range greenops.Categories() {
		rows = append(rows, CategoryShare{Category: c, Label: c.Label(), Total: totals[c], Percent: shares[c]})
	}
	return rows
}

// RenderBreakdown writes a category breakdown.
func RenderBreakdown(w io.Writer, format OutputFormat, rows []CategoryShare, opts RenderOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, rows)
	case OutputNDJSON:
		return writeNDJSON(w, rows)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tCO2\tSHARE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d%%\n", r.Label, opts.carbon(r.Total), r.Percent)
	}
	return tw.Flush()
}

// RenderSeries writes a time series.
func RenderSeries(w io.Writer, format OutputFormat, buckets []Bucket, opts RenderOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, buckets)
	case OutputNDJSON:
		return writeNDJSON(w, buckets)
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "BUCKET\tEMISSIONS\tSAVINGS\tNET\tRUNNING NET")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			b.Label, opts.carbon(b.Total), opts.carbon(b.Savings), opts.carbon(b.Net), opts.carbon(b.RunningNet))
	}
	return tw.Flush()
}

// StreakReport is the streak command's result.
type StreakReport struct {
	AsOf    string `json:"as_of"`
	Current int    `json:"current"`
	Longest int    `json:"longest"`
	Status  string `json:"status"`
}

// RenderStreak writes a streak report.
func RenderStreak(w io.Writer, format OutputFormat, r StreakReport) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, r)
	case OutputNDJSON:
		return writeNDJSON(w, []StreakReport{r})
	}
	_, err := fmt.Fprintf(w, "Current streak: %d days (as of %s)\nLongest streak: %d days\n%s\n",
		r.Current, r.AsOf, r.Longest, r.Status)
	return err
}

// RenderComparison writes a benchmark comparison.
func RenderComparison(w io.Writer, format OutputFormat, footprint float64, c greenops.Comparison, opts RenderOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, c)
	case OutputNDJSON:
		return writeNDJSON(w, []greenops.Comparison{c})
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Footprint:\t%s\n", opts.carbon(footprint))
	fmt.Fprintf(tw, "Average (%s):\t%s\n", c.Region, opts.carbon(c.RegionalAverage))
	fmt.Fprintf(tw, "Delta:\t%s\t%s\n", greenops.FormatPercent(c.PercentageDelta, true), c.Status)
	fmt.Fprintf(tw, "\t%s\n", c.Message)
	return tw.Flush()
}

// RenderSuggestions writes reduction advice, one per line.
func RenderSuggestions(w io.Writer, format OutputFormat, suggestions []string) error {
	if suggestions == nil {
		suggestions = []string{}
	}
	switch format {
	case OutputJSON:
		return writeJSON(w, suggestions)
	case OutputNDJSON:
		return writeNDJSON(w, suggestions)
	}

	if len(suggestions) == 0 {
		_, err := fmt.Fprintln(w, "No suggestions: nothing stands out in your log.")
		return err
	}
	for _, s := range suggestions {
		if _, err := fmt.Fprintf(w, "- %s\n", s); err != nil {
			return err
		}
	}
	return nil
}

// RenderFactors writes the emission factor and positive-action tables.
func RenderFactors(w io.Writer, format OutputFormat) error {
	factors := greenops.EmissionFactors()
	actions := greenops.PositiveActions()

	switch format {
	case OutputJSON:
		return writeJSON(w, struct {
			Version         string                    `json:"version"`
			Factors         []greenops.EmissionFactor `json:"factors"`
			PositiveActions []greenops.PositiveAction `json:"positive_actions"`
		}{greenops.FactorTableVersion, factors, actions})
	case OutputNDJSON:
		return writeNDJSON(w, factors)
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Factor table v%s\n\n", greenops.FactorTableVersion)
	fmt.Fprintln(tw, "CATEGORY\tTYPE\tNAME\tKG CO2 PER UNIT")
	for _, f := range factors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s / %s\n", f.Category, f.Type, f.Name, greenops.FormatFloat(f.KgPerUnit, 2), f.Unit)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "ACTION\tNAME\tINPUT\tKG CO2 SAVED")
	for _, a := range actions {
		per := "once"
		if a.Kind == greenops.InputQuantity {
			per = "per " + strings.TrimSuffix(a.Unit, "s")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\n", a.ID, a.Name, a.Kind, greenops.FormatFloat(a.KgSavedPerUnit, 0), per)
	}
	return tw.Flush()
}

// RenderDashboard writes the dashboard as plain text or JSON.
func RenderDashboard(w io.Writer, format OutputFormat, d Dashboard, opts RenderOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, d)
	case OutputNDJSON:
		return writeNDJSON(w, []Dashboard{d})
	}

	tw := newTable(w)
	fmt.Fprintf(tw, "Today (%s):\t%s\t%s\n", d.Date, opts.carbon(d.Today.Emissions), d.FootprintStatus)
	fmt.Fprintf(tw, "Total emissions:\t%s\t%d activities\n", opts.carbon(d.TotalEmissions), d.ActivityCount)
	fmt.Fprintf(tw, "Total savings:\t%s\t%d actions\n", opts.carbon(d.TotalSavings), d.PositiveActionCount)
	fmt.Fprintf(tw, "Net footprint:\t%s\n", opts.carbon(d.NetFootprint))
	fmt.Fprintf(tw, "Average per day:\t%s\n", opts.carbon(d.AverageDailyEmissions))
	fmt.Fprintf(tw, "Monthly target:\t%s of %s\n",
		greenops.FormatFloat(d.MonthlyTargetProgress, 0)+"%", opts.carbon(d.MonthlyTargetKg))
	fmt.Fprintf(tw, "Streak:\t%d days (best %d)\t%s\n", d.CurrentStreak, d.LongestStreak, d.StreakStatus)
	fmt.Fprintf(tw, "Benchmark:\t%s\n", d.Benchmark.Message)
	if !d.Equivalencies.IsEmpty {
		fmt.Fprintf(tw, "Equivalent:\t%s\n", d.Equivalencies.DisplayText)
	}
	if d.Rewards != nil {
		fmt.Fprintf(tw, "Rewards:\t%d %s\n", d.Rewards.Tokens, d.Rewards.Symbol)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(w, "\nBreakdown:"); err != nil {
		return err
	}
	cats := greenops.Categories()
	sort.SliceStable(cats, func(i, j int) bool { return d.CategoryTotals[cats[i]] > d.CategoryTotals[cats[j]] })
	for _, c := range cats {
		fmt.Fprintf(w, "  %-15s %3d%%\n", c.Label(), d.Breakdown[c])
	}

	fmt.Fprintln(w, "\nAchievements:")
	for _, a := range d.Achievements {
		mark := " "
		if a.Unlocked {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %s\n", mark, a.Name)
	}

	if len(d.Suggestions) > 0 {
		fmt.Fprintln(w, "\nSuggestions:")
		for _, s := range d.Suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
	return nil
}

// RenderJSON writes v as indented JSON. Commands use it for results that
// have no table form of their own.
func RenderJSON(w io.Writer, v any) error {
	return writeJSON(w, v)
}

// RenderActivity writes one logged activity.
func RenderActivity(w io.Writer, format OutputFormat, rec ActivityRecord, opts RenderOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, rec)
	case OutputNDJSON:
		return writeNDJSON(w, []ActivityRecord{rec})
	}
	_, err := fmt.Fprintf(w, "Logged %s %s: %s %s = %s (%s)\n",
		rec.Category.Label(), rec.Type, greenops.FormatFloat(rec.Value, opts.Precision), rec.Unit,
		opts.carbon(rec.CO2Impact), rec.ID)
	return err
}

// RenderPositiveAction writes one logged positive action.
func RenderPositiveAction(w io.Writer, format OutputFormat, rec PositiveActionRecord, opts RenderOptions) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, rec)
	case OutputNDJSON:
		return writeNDJSON(w, []PositiveActionRecord{rec})
	}
	_, err := fmt.Fprintf(w, "Logged %s (%s): saved %s (%s)\n",
		rec.Name, actionValue(rec), opts.carbon(rec.CO2Saved), rec.ID)
	return err
}
