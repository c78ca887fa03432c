package greenops

import (
	"math"
	"strings"
)

// Display units for carbon mass.
const (
	MassGrams     = "g"
	MassKilograms = "kg"
	MassTonnes    = "t"
	MassPounds    = "lb"
)

// unitFactor returns the kg-per-unit factor of a carbon mass unit.
// Matching is case-insensitive and accepts the "CO2e" suffixed forms.
func unitFactor(unit string) (float64, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(unit)), "co2e") {
	case MassGrams:
		return GramsToKg, true
	case MassKilograms:
		return KgToKg, true
	case MassTonnes:
		return TonsToKg, true
	case MassPounds:
		return PoundsToKg, true
	default:
		return 0, false
	}
}

// NormalizeToKg converts an emission quantity to kilograms.
// It rejects negative values, unknown units and non-finite results.
func NormalizeToKg(value float64, unit string) (float64, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, ErrCalculationOverflow
	}
	if value < 0 {
		return 0, ErrNegativeValue
	}

	factor, ok := unitFactor(unit)
	if !ok {
		return 0, ErrInvalidUnit
	}

	result := value * factor
	if math.IsInf(result, 0) {
		return 0, ErrCalculationOverflow
	}
	return result, nil
}

// ConvertFromKg expresses a kilogram amount in unit. Negative amounts are
// allowed since net footprints can be below zero.
func ConvertFromKg(kg float64, unit string) (float64, error) {
	factor, ok := unitFactor(unit)
	if !ok {
		return 0, ErrInvalidUnit
	}
	return kg / factor, nil
}

// IsRecognizedUnit reports whether unit is a supported carbon mass unit.
func IsRecognizedUnit(unit string) bool {
	_, ok := unitFactor(unit)
	return ok
}
