package greenops

import "math"

// RoundHalfUp rounds x to the nearest integer, with halves going toward
// positive infinity (-2.5 rounds to -2).
func RoundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// RoundKg rounds a kilogram amount to two decimal places using RoundHalfUp.
func RoundKg(v float64) float64 {
	return RoundHalfUp(v*kgPrecisionScale) / kgPrecisionScale
}

// Calculate computes the CO2 impact of one activity.
//
// The value must be finite and non-negative, else ErrInvalidInput. An unknown
// (category, type) pair is not an error: the coefficient is treated as zero so
// new activity types can be logged before the table knows about them. Use
// LookupFactor to detect that case.
//
// Example:
//
//	calc, _ := Calculate(ActivityInput{Category: CategoryTransportation, Type: "car_gasoline", Value: 25})
//	// calc.CO2Amount == 5.25
func Calculate(input ActivityInput) (Calculation, error) {
	if err := validateQuantity(input.Value); err != nil {
		return Calculation{}, err
	}

	var coefficient float64
	if f, err := LookupFactor(input.Category, input.Type); err == nil {
		coefficient = f.KgPerUnit
	}

	return Calculation{
		CO2Amount: RoundKg(input.Value * coefficient),
		Unit:      CO2Unit,
		Category:  input.Category,
	}, nil
}

// DailyFootprint sums the calculated impact of one day's activities.
func DailyFootprint(inputs []ActivityInput) (float64, error) {
	var total float64
	for _, in := range inputs {
		calc, err := Calculate(in)
		if err != nil {
			return 0, err
		}
		total += calc.CO2Amount
	}
	return total, nil
}

// WeeklyFootprint sums daily footprints. Each element of days is one day's
// activities; days are summed first, then the daily totals.
func WeeklyFootprint(days [][]ActivityInput) (float64, error) {
	var total float64
	for _, day := range days {
		daily, err := DailyFootprint(day)
		if err != nil {
			return 0, err
		}
		total += daily
	}
	return total, nil
}

// MonthlyFootprint sums already computed weekly totals.
func MonthlyFootprint(weeks []float64) float64 {
	var total float64
	for _, w := range weeks {
		total += w
	}
	return total
}

func validateQuantity(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errInvalidInput("value must be finite", v)
	}
	if v < 0 {
		return errInvalidInput("value must not be negative", v)
	}
	return nil
}
