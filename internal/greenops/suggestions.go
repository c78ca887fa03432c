package greenops

import "strings"

type suggestionRule struct {
	category Category
	matches  func(activityType string) bool
	// threshold is exclusive.
	threshold float64
	advice    string
}

func typeIs(name string) func(string) bool {
	return func(t string) bool { return t == name }
}

//nolint:gochecknoglobals // Read-only rule set.
var suggestionRules = []suggestionRule{
	{
		category:  CategoryTransportation,
		matches:   func(t string) bool { return strings.Contains(t, "car") },
		threshold: 20,
		advice:    "Consider carpooling or using public transport for long trips",
	},
	{
		category:  CategoryTransportation,
		matches:   typeIs("plane_domestic"),
		threshold: 500,
		advice:    "Try video conferencing instead of short flights",
	},
	{
		category:  CategoryEnergy,
		matches:   typeIs("electricity"),
		threshold: 30,
		advice:    "Switch to LED bulbs and unplug devices when not in use",
	},
	{
		category:  CategoryFood,
		matches:   typeIs("beef"),
		threshold: 0.5,
		advice:    "Try reducing meat consumption by having one plant-based meal per day",
	},
	{
		category:  CategoryWaste,
		matches:   typeIs("general_waste"),
		threshold: 2,
		advice:    "Increase recycling and composting to reduce general waste",
	},
}

// ReductionSuggestions walks activities in order and emits one piece of advice
// per high-impact entry. The same advice repeats when several entries match.
func ReductionSuggestions(activities []ActivityInput) []string {
	var out []string
	for _, a := range activities {
		for _, rule := range suggestionRules {
			if a.Category == rule.category && rule.matches(a.Type) && a.Value > rule.threshold {
				out = append(out, rule.advice)
			}
		}
	}
	return out
}

// UniqueSuggestions removes repeated advice, keeping first occurrences.
func UniqueSuggestions(suggestions []string) []string {
	seen := make(map[string]struct{}, len(suggestions))
	out := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
