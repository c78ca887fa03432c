package engine

import (
	"sort"
	"time"
)

// civilDate is a calendar date stripped of location and time of day.
type civilDate struct {
	year  int
	month time.Month
	day   int
}

func civilOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

func (c civilDate) time() time.Time {
	return time.Date(c.year, c.month, c.day, 0, 0, 0, 0, time.UTC)
}

// CurrentStreak counts consecutive calendar days with at least one date,
// walking back from asOf's date and stopping at the first gap. Dates are
// compared in asOf's location. Dates after asOf never count.
func CurrentStreak(dates []time.Time, asOf time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	loc := asOf.Location()
	present := make(map[civilDate]struct{}, len(dates))
	for _, d := range dates {
		present[civilOf(d.In(loc))] = struct{}{}
	}

	streak := 0
	for day := dateOf(asOf); ; day = day.AddDate(0, 0, -1) {
		if _, ok := present[civilOf(day)]; !ok {
			return streak
		}
		streak++
	}
}

// StreakFromRecords is CurrentStreak over every record in the snapshot.
func StreakFromRecords(snap Snapshot, asOf time.Time) int {
	return CurrentStreak(snap.Dates(), asOf)
}

// LongestStreak returns the longest run of consecutive calendar days found
// in dates. Dates are compared in loc, like CurrentStreak does with asOf.
func LongestStreak(dates []time.Time, loc *time.Location) int {
	if len(dates) == 0 {
		return 0
	}

	seen := make(map[civilDate]struct{}, len(dates))
	days := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		c := civilOf(d.In(loc))
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		days = append(days, c.time())
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
