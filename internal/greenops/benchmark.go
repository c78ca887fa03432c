package greenops

import (
	"fmt"
	"sort"
	"strings"
)

// regionalAverages holds average daily footprints in kg CO2 per person.
//
//nolint:gochecknoglobals // Read-only lookup table.
var regionalAverages = map[string]float64{
	RegionGlobal: 12.0,
	"usa":        16.0,
	"europe":     8.5,
	"asia":       7.2,
	"africa":     3.1,
	"oceania":    15.8,
}

// Regions returns the benchmark regions in alphabetical order.
func Regions() []string {
	out := make([]string, 0, len(regionalAverages))
	for r := range regionalAverages {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// RegionalAverage resolves region (case-insensitive) to its average daily
// footprint. Unknown regions resolve to global; the returned name is the
// region actually used.
func RegionalAverage(region string) (string, float64) {
	key := strings.ToLower(strings.TrimSpace(region))
	if avg, ok := regionalAverages[key]; ok {
		return key, avg
	}
	return RegionGlobal, regionalAverages[RegionGlobal]
}

// CompareToAverage classifies a daily footprint against a regional average.
// A delta within ±AverageBandPercent, inclusive, is "average".
//
// Example:
//
//	c := CompareToAverage(12.6, "global")
//	// c.PercentageDelta == 5, c.Status == StatusAverage
func CompareToAverage(footprint float64, region string) Comparison {
	name, avg := RegionalAverage(region)
	delta := int(RoundHalfUp((footprint - avg) / avg * PercentageMultiplier))

	c := Comparison{
		PercentageDelta: delta,
		Region:          name,
		RegionalAverage: avg,
	}

	switch {
	case delta >= -AverageBandPercent && delta <= AverageBandPercent:
		c.Status = StatusAverage
		c.Message = "Your footprint is about average for " + name
	case delta > AverageBandPercent:
		c.Status = StatusAbove
		c.Message = fmt.Sprintf("Your footprint is %d%% above the %s average", delta, name)
	default:
		c.Status = StatusBelow
		c.Message = fmt.Sprintf("Your footprint is %d%% below the %s average - great job!", -delta, name)
	}
	return c
}
