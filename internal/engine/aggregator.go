package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
)

// BucketSize is the width of a time-series bucket.
type BucketSize string

// Bucket sizes.
const (
	BucketDaily   BucketSize = "daily"
	BucketWeekly  BucketSize = "weekly"
	BucketMonthly BucketSize = "monthly"
)

// Bucket label layouts.
const (
	dayLabelLayout   = "2006-01-02"
	monthLabelLayout = "2006-01"
)

// ParseBucketSize parses a bucket size, accepting day/week/month aliases.
func ParseBucketSize(s string) (BucketSize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return BucketDaily, nil
	case "weekly", "week":
		return BucketWeekly, nil
	case "monthly", "month":
		return BucketMonthly, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidBucket, s)
	}
}

// next returns the start of the bucket following one starting at t.
func (b BucketSize) next(t time.Time) (time.Time, error) {
	switch b {
	case BucketDaily:
		return t.AddDate(0, 0, 1), nil
	case BucketWeekly:
		return t.AddDate(0, 0, 7), nil //nolint:mnd // days per week
	case BucketMonthly:
		return t.AddDate(0, 1, 0), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidBucket, string(b))
	}
}

func (b BucketSize) label(t time.Time) string {
	if b == BucketMonthly {
		return t.Format(monthLabelLayout)
	}
	return t.Format(dayLabelLayout)
}

// Bucket is one interval of a time series. Start is inclusive, End exclusive.
// Total is the emissions logged in the interval; Savings, Net and
// RunningNet are only filled by AggregateSnapshotByTimeBucket.
type Bucket struct {
	Label        string    `json:"label"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	Total        float64   `json:"total"`
	RunningTotal float64   `json:"running_total"`
	Savings      float64   `json:"savings"`
	Net          float64   `json:"net"`
	RunningNet   float64   `json:"running_net"`
}

// CategoryTotals sums CO2 impact per category. Every category is present.
func CategoryTotals(records []ActivityRecord) map[greenops.Category]float64 {
	totals := make(map[greenops.Category]float64, len(greenops.Categories()))
	for _, c := range greenops.Categories() {
		totals[c] = 0
	}
	for _, r := range records {
		totals[r.Category] += r.CO2Impact
	}
	return totals
}

// AggregateByCategory converts per-category totals into integer percentages
// of the grand total. Each share is rounded independently, so the sum can
// differ from 100. A zero grand total yields all zeros.
func AggregateByCategory(records []ActivityRecord) map[greenops.Category]int {
	totals := CategoryTotals(records)
	var grand float64
	for _, v := range totals {
		grand += v
	}

	shares := make(map[greenops.Category]int, len(totals))
	for c, v := range totals {
		if grand == 0 {
			shares[c] = 0
			continue
		}
		shares[c] = int(greenops.RoundHalfUp(v / grand * greenops.PercentageMultiplier))
	}
	return shares
}

// bucketWindow lays out contiguous buckets stepped from start itself until
// end is covered, so a window of span d holds ceil(d/size) buckets. Each
// bucket is labelled by the calendar date of its start.
func bucketWindow(size BucketSize, start, end time.Time) ([]Bucket, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidWindow, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	if _, err := size.next(start); err != nil {
		return nil, err
	}

	var buckets []Bucket
	for cur := start; cur.Before(end); {
		nxt, _ := size.next(cur)
		buckets = append(buckets, Bucket{Label: size.label(cur), Start: cur, End: nxt})
		cur = nxt
	}
	if buckets == nil {
		buckets = []Bucket{}
	}
	return buckets, nil
}

// bucketIndex returns the bucket holding t's calendar date, or -1. A bucket
// spans the calendar dates from its start's date up to, but not including,
// its end's date.
func bucketIndex(buckets []Bucket, t time.Time) int {
	if len(buckets) == 0 {
		return -1
	}
	day := dateOf(t.In(buckets[0].Start.Location()))
	i := sort.Search(len(buckets), func(i int) bool { return dateOf(buckets[i].End).After(day) })
	if i == len(buckets) || day.Before(dateOf(buckets[i].Start)) {
		return -1
	}
	return i
}

// AggregateByTimeBucket sums activity impact per bucket across the window
// [start, end). Buckets are stepped from start in start's location and
// labelled by the calendar date they begin on; a record belongs to the
// bucket whose calendar span contains its date, so time of day is ignored.
// Empty buckets are reported with a zero total, so the result length
// depends only on the window.
func AggregateByTimeBucket(records []ActivityRecord, size BucketSize, start, end time.Time) ([]Bucket, error) {
	buckets, err := bucketWindow(size, start, end)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if i := bucketIndex(buckets, r.Timestamp); i >= 0 {
			buckets[i].Total += r.CO2Impact
		}
	}
	fillRunning(buckets)
	return buckets, nil
}

// AggregateSnapshotByTimeBucket is AggregateByTimeBucket over a whole
// snapshot, additionally crediting positive-action savings to their buckets.
func AggregateSnapshotByTimeBucket(snap Snapshot, size BucketSize, start, end time.Time) ([]Bucket, error) {
	buckets, err := AggregateByTimeBucket(snap.Activities, size, start, end)
	if err != nil {
		return nil, err
	}
	for _, p := range snap.PositiveActions {
		if i := bucketIndex(buckets, p.Timestamp); i >= 0 {
			buckets[i].Savings += p.CO2Saved
		}
	}
	fillRunning(buckets)
	return buckets, nil
}

func fillRunning(buckets []Bucket) {
	var total, net float64
	for i := range buckets {
		buckets[i].Net = buckets[i].Total - buckets[i].Savings
		total += buckets[i].Total
		net += buckets[i].Net
		buckets[i].RunningTotal = total
		buckets[i].RunningNet = net
	}
}

// EmissionsTotal sums CO2 impact over activities.
func EmissionsTotal(activities []ActivityRecord) float64 {
	var total float64
	for _, a := range activities {
		total += a.CO2Impact
	}
	return total
}

// SavingsTotal sums CO2 saved over positive actions.
func SavingsTotal(actions []PositiveActionRecord) float64 {
	var total float64
	for _, p := range actions {
		total += p.CO2Saved
	}
	return total
}

// NetFootprint is emissions minus savings. It is zero for empty input.
func NetFootprint(activities []ActivityRecord, actions []PositiveActionRecord) float64 {
	return EmissionsTotal(activities) - SavingsTotal(actions)
}
