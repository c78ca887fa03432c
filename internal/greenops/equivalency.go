package greenops

import (
	"fmt"
	"math"
)

// Equivalencies converts a carbon amount into everyday comparisons: miles
// driven, smartphone charges and tree seedlings grown for ten years.
//
// Amounts below MinEquivalencyThresholdKg produce an empty output and no
// error; the comparisons are meaningless at that scale.
//
// Example:
//
//	out, _ := Equivalencies(CarbonInput{Value: 150, Unit: "kg"})
//	// out.DisplayText == "Equivalent to driving ~781 miles or charging ~18,248 smartphones"
func Equivalencies(input CarbonInput) (EquivalencyOutput, error) {
	kg, err := NormalizeToKg(input.Value, input.Unit)
	if err != nil {
		return EquivalencyOutput{IsEmpty: true}, err
	}
	return EquivalenciesForKg(kg)
}

// EquivalenciesForKg is Equivalencies for an amount already in kilograms.
// Negative amounts (a net carbon saving) produce an empty output.
func EquivalenciesForKg(kg float64) (EquivalencyOutput, error) {
	if math.IsInf(kg, 0) || math.IsNaN(kg) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}
	if kg < MinEquivalencyThresholdKg {
		return EquivalencyOutput{InputKg: kg, IsEmpty: true}, nil
	}

	miles := kg / EPAMilesDrivenFactor
	phones := kg / EPASmartphoneChargeFactor
	seedlings := kg / EPATreeSeedlingFactor
	if math.IsInf(miles, 0) || math.IsInf(phones, 0) {
		return EquivalencyOutput{IsEmpty: true}, ErrCalculationOverflow
	}

	milesFormatted := formatEquivalencyValue(miles)
	phonesFormatted := formatEquivalencyValue(phones)

	results := []EquivalencyResult{
		{
			Type:           EquivalencyMilesDriven,
			Value:          miles,
			FormattedValue: milesFormatted,
			Label:          "miles driven",
		},
		{
			Type:           EquivalencySmartphonesCharged,
			Value:          phones,
			FormattedValue: phonesFormatted,
			Label:          "smartphones charged",
		},
		{
			Type:           EquivalencyTreeSeedlings,
			Value:          seedlings,
			FormattedValue: FormatFloat(seedlings, 1),
			Label:          "tree seedlings grown for 10 years",
		},
	}

	displayText := fmt.Sprintf("Equivalent to driving ~%s miles or charging ~%s smartphones",
		milesFormatted, phonesFormatted)
	compactText := fmt.Sprintf("(≈ %s mi, %s phones)", milesFormatted, phonesFormatted)

	return EquivalencyOutput{
		InputKg:     kg,
		Results:     results,
		DisplayText: displayText,
		CompactText: compactText,
		IsEmpty:     false,
	}, nil
}

// formatEquivalencyValue rounds to an integer with thousand separators, or
// abbreviates at million scale and above.
func formatEquivalencyValue(v float64) string {
	if v >= LargeNumberThreshold {
		return FormatLarge(v)
	}
	return FormatNumber(int64(math.Round(v)))
}
