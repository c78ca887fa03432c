package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
	"github.com/rshade/carbonledger/internal/rewards"
)

// Daily footprint status thresholds in kg CO2.
const (
	excellentDailyKg = 5
	goodDailyKg      = 10
	improveDailyKg   = 15
)

// Streak status thresholds in days.
const (
	streakWeek      = 7
	streakFortnight = 14
	streakMonth     = 30
)

// Achievement is a milestone shown on the dashboard.
type Achievement struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// Dashboard is the summary view over the whole ledger.
type Dashboard struct {
	Date                  string                        `json:"date"`
	Today                 DayFootprint                  `json:"today"`
	TotalEmissions        float64                       `json:"total_emissions"`
	TotalSavings          float64                       `json:"total_savings"`
	NetFootprint          float64                       `json:"net_footprint"`
	ActivityCount         int                           `json:"activity_count"`
	PositiveActionCount   int                           `json:"positive_action_count"`
	CurrentStreak         int                           `json:"current_streak"`
	LongestStreak         int                           `json:"longest_streak"`
	AverageDailyEmissions float64                       `json:"average_daily_emissions"`
	MonthlyTargetKg       float64                       `json:"monthly_target_kg"`
	MonthlyTargetProgress float64                       `json:"monthly_target_progress"`
	FootprintStatus       string                        `json:"footprint_status"`
	StreakStatus          string                        `json:"streak_status"`
	Achievements          []Achievement                 `json:"achievements"`
	Breakdown             map[greenops.Category]int     `json:"breakdown"`
	CategoryTotals        map[greenops.Category]float64 `json:"category_totals"`
	Benchmark             greenops.Comparison           `json:"benchmark"`
	Equivalencies         greenops.EquivalencyOutput    `json:"equivalencies"`
	Suggestions           []string                      `json:"suggestions"`
	Rewards               *rewards.Balance              `json:"rewards,omitempty"`
}

// Dashboard assembles the summary view for today, benchmarking today's
// emissions against region. A failing reward service is logged and the
// balance omitted; it never fails the dashboard.
func (t *Tracker) Dashboard(ctx context.Context, region string) (Dashboard, error) {
	logger := logging.FromContext(ctx).With().
		Str("component", "engine").
		Str("operation", "Dashboard").
		Logger()

	snap, err := t.Snapshot(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	now := t.now()
	today := dayFootprint(snap, now)
	emissions := EmissionsTotal(snap.Activities)
	savings := SavingsTotal(snap.PositiveActions)
	net := emissions - savings
	streak := StreakFromRecords(snap, now)

	d := Dashboard{
		Date:                  today.Date,
		Today:                 today,
		TotalEmissions:        greenops.RoundKg(emissions),
		TotalSavings:          greenops.RoundKg(savings),
		NetFootprint:          greenops.RoundKg(net),
		ActivityCount:         len(snap.Activities),
		PositiveActionCount:   len(snap.PositiveActions),
		CurrentStreak:         streak,
		LongestStreak:         LongestStreak(snap.Dates(), now.Location()),
		AverageDailyEmissions: greenops.RoundKg(averageDaily(snap.Activities, emissions, now.Location())),
		MonthlyTargetKg:       t.monthlyTargetKg,
		MonthlyTargetProgress: math.Min(100, emissions/t.monthlyTargetKg*greenops.PercentageMultiplier),
		FootprintStatus:       FootprintStatus(today.Emissions),
		StreakStatus:          StreakStatus(streak),
		Achievements:          achievements(snap, streak),
		Breakdown:             AggregateByCategory(snap.Activities),
		CategoryTotals:        CategoryTotals(snap.Activities),
		Benchmark:             greenops.CompareToAverage(today.Emissions, region),
		Suggestions:           greenops.UniqueSuggestions(greenops.ReductionSuggestions(activityInputs(snap.Activities))),
	}

	equiv, err := greenops.EquivalenciesForKg(net)
	if err != nil {
		logger.Warn().Err(err).Msg("equivalencies unavailable")
	}
	d.Equivalencies = equiv

	if t.rewards != nil {
		balance, rewardErr := t.rewards.EstimateBalance(ctx, rewards.Activity{
			Streak:          streak,
			Activities:      len(snap.Activities),
			PositiveActions: len(snap.PositiveActions),
		})
		if rewardErr != nil {
			logger.Warn().Err(rewardErr).Msg("reward service unavailable")
		} else {
			d.Rewards = &balance
		}
	}

	return d, nil
}

// averageDaily divides total emissions by the number of distinct days that
// have activities, with days taken in loc.
func averageDaily(activities []ActivityRecord, total float64, loc *time.Location) float64 {
	days := make(map[civilDate]struct{})
	for _, a := range activities {
		days[civilOf(a.Timestamp.In(loc))] = struct{}{}
	}
	if len(days) == 0 {
		return 0
	}
	return total / float64(len(days))
}

// FootprintStatus describes a daily footprint in kg CO2.
func FootprintStatus(dailyKg float64) string {
	switch {
	case dailyKg == 0:
		return "No data yet"
	case dailyKg <= excellentDailyKg:
		return "Excellent!"
	case dailyKg <= goodDailyKg:
		return "Good progress"
	case dailyKg <= improveDailyKg:
		return "Room for improvement"
	default:
		return "Needs attention"
	}
}

// StreakStatus describes a streak length.
func StreakStatus(days int) string {
	switch {
	case days == 0:
		return "Start today!"
	case days >= streakMonth:
		return "Incredible dedication!"
	case days >= streakFortnight:
		return "Amazing consistency!"
	case days >= streakWeek:
		return "Great momentum!"
	default:
		return "Building habits!"
	}
}

func achievements(snap Snapshot, streak int) []Achievement {
	plantedTree := false
	for _, p := range snap.PositiveActions {
		if p.ActionID == greenops.ActionPlantTree {
			plantedTree = true
			break
		}
	}

	return []Achievement{
		{Name: "First Steps", Description: "Log your first day", Unlocked: streak >= 1},
		{Name: "Week Warrior", Description: fmt.Sprintf("Keep a %d-day streak", streakWeek), Unlocked: streak >= streakWeek},
		{Name: "Carbon Cutter", Description: "Log a positive action", Unlocked: len(snap.PositiveActions) > 0},
		{Name: "Tree Planter", Description: "Plant a tree", Unlocked: plantedTree},
	}
}
