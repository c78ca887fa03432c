// Package greenops holds the carbon accounting math: the versioned emission
// factor table, the positive-action catalogue, the carbon calculator, the
// regional benchmark comparator and the reduction advisor.
//
// Everything in this package is a pure function over static tables. Nothing
// here reads the clock, touches storage, or keeps state between calls.
package greenops

import (
	"fmt"
	"strings"
)

// Category is the closed set of activity categories.
type Category string

// Activity categories.
const (
	CategoryTransportation Category = "transportation"
	CategoryEnergy         Category = "energy"
	CategoryFood           Category = "food"
	CategoryWaste          Category = "waste"
	CategoryConsumption    Category = "consumption"
)

// Categories returns every category in display order.
func Categories() []Category {
	return []Category{
		CategoryTransportation,
		CategoryEnergy,
		CategoryFood,
		CategoryWaste,
		CategoryConsumption,
	}
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTransportation, CategoryEnergy, CategoryFood, CategoryWaste, CategoryConsumption:
		return true
	default:
		return false
	}
}

// String returns the wire name of the category.
func (c Category) String() string {
	return string(c)
}

// Label returns the human-readable category name.
func (c Category) Label() string {
	switch c {
	case CategoryTransportation:
		return "Transportation"
	case CategoryEnergy:
		return "Energy"
	case CategoryFood:
		return "Food"
	case CategoryWaste:
		return "Waste"
	case CategoryConsumption:
		return "Shopping"
	default:
		return string(c)
	}
}

// ParseCategory parses a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// InputKind describes how a positive action's value is entered.
type InputKind string

// Positive action input kinds.
const (
	// InputQuantity actions take a count (e.g. number of trees).
	InputQuantity InputKind = "quantity"
	// InputBoolean actions are a one-time implemented/not-implemented toggle.
	InputBoolean InputKind = "boolean"
)

// EmissionFactor converts a quantity of one activity type into kg CO2e.
type EmissionFactor struct {
	Category  Category `json:"category"    yaml:"category"`
	Type      string   `json:"type"        yaml:"type"`
	Name      string   `json:"name"        yaml:"name"`
	Unit      string   `json:"unit"        yaml:"unit"`
	KgPerUnit float64  `json:"kg_per_unit" yaml:"kg_per_unit"`
}

// PositiveAction is an entry in the offsetting-action catalogue.
type PositiveAction struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Kind           InputKind `json:"kind"`
	Unit           string    `json:"unit,omitempty"`
	KgSavedPerUnit float64   `json:"kg_saved_per_unit"`
	// WholeUnits rejects fractional quantities (e.g. half a tree).
	WholeUnits  bool   `json:"whole_units"`
	Formula     string `json:"formula"`
	Description string `json:"description"`
}

// ActivityInput is the raw user submission handed to the calculator.
type ActivityInput struct {
	Category Category `json:"category"`
	Type     string   `json:"type"`
	Value    float64  `json:"value"`
}

// Calculation is the calculator's result for one activity.
type Calculation struct {
	CO2Amount float64  `json:"co2_amount"`
	Unit      string   `json:"unit"`
	Category  Category `json:"category"`
}

// BenchmarkStatus classifies a footprint against a regional average.
type BenchmarkStatus string

// Benchmark classifications.
const (
	StatusAbove   BenchmarkStatus = "above"
	StatusBelow   BenchmarkStatus = "below"
	StatusAverage BenchmarkStatus = "average"
)

// Comparison is the result of comparing a footprint to a regional average.
type Comparison struct {
	PercentageDelta int             `json:"percentage_delta"`
	Status          BenchmarkStatus `json:"status"`
	Message         string          `json:"message"`
	Region          string          `json:"region"`
	RegionalAverage float64         `json:"regional_average"`
}

// EquivalencyType represents a category of carbon emission equivalency.
type EquivalencyType int

const (
	// EquivalencyMilesDriven converts CO2e to miles driven in an average passenger vehicle.
	EquivalencyMilesDriven EquivalencyType = iota

	// EquivalencySmartphonesCharged converts CO2e to smartphone full charges.
	EquivalencySmartphonesCharged

	// EquivalencyTreeSeedlings converts CO2e to tree seedlings grown for 10 years.
	EquivalencyTreeSeedlings
)

// String returns a human-readable representation of the EquivalencyType.
func (e EquivalencyType) String() string {
	switch e {
	case EquivalencyMilesDriven:
		return "MilesDriven"
	case EquivalencySmartphonesCharged:
		return "SmartphonesCharged"
	case EquivalencyTreeSeedlings:
		return "TreeSeedlings"
	default:
		return fmt.Sprintf("EquivalencyType(%d)", e)
	}
}

// CarbonInput represents a carbon amount in an arbitrary unit.
type CarbonInput struct {
	// Value is the numeric carbon emission amount.
	Value float64 `json:"value"`

	// Unit is the measurement unit (g, kg, t, gCO2e, kgCO2e, tCO2e, lb, lbCO2e).
	Unit string `json:"unit"`
}

// EquivalencyResult represents a single calculated equivalency.
type EquivalencyResult struct {
	Type           EquivalencyType `json:"type"`
	Value          float64         `json:"value"`
	FormattedValue string          `json:"formatted_value"`
	Label          string          `json:"label"`
}

// EquivalencyOutput contains all equivalency results for display.
type EquivalencyOutput struct {
	// InputKg is the normalized input value in kilograms CO2e.
	InputKg float64 `json:"input_kg"`

	// Results contains calculated equivalencies in priority order.
	Results []EquivalencyResult `json:"results"`

	// DisplayText is the full prose format for CLI output.
	// Example: "Equivalent to driving ~781 miles or charging ~18,248 smartphones"
	DisplayText string `json:"display_text"`

	// CompactText is the abbreviated format for constrained outputs.
	CompactText string `json:"compact_text"`

	// IsEmpty is true if no equivalencies were calculated.
	IsEmpty bool `json:"is_empty"`
}
