package greenops

// EPA Formula Constants (2024 Edition)
// Source: https://www.epa.gov/energy/greenhouse-gas-equivalencies-calculator
//
// These constants represent the kg CO2e equivalent for each activity.
// To calculate the equivalency, divide the carbon value by the factor:
//
//	equivalency = kg_CO2e / factor
const (
	// EPAMilesDrivenFactor is kg CO2e per mile for average passenger vehicle.
	EPAMilesDrivenFactor = 0.192

	// EPASmartphoneChargeFactor is kg CO2e per smartphone charge.
	EPASmartphoneChargeFactor = 0.00822

	// EPATreeSeedlingFactor is kg CO2e absorbed per tree seedling over 10 years.
	EPATreeSeedlingFactor = 60.0
)

// Unit Conversion Constants for normalizing carbon values to kilograms.
const (
	// GramsToKg converts grams to kilograms.
	GramsToKg = 0.001

	// KgToKg is the identity conversion for kilograms.
	KgToKg = 1.0

	// TonsToKg converts metric tons to kilograms.
	TonsToKg = 1000.0

	// PoundsToKg converts pounds to kilograms.
	PoundsToKg = 0.453592
)

// Display Threshold Constants control when equivalencies are shown.
const (
	// MinEquivalencyThresholdKg is the minimum kg CO2e for showing equivalencies.
	// Below this threshold the equivalencies become meaninglessly small.
	MinEquivalencyThresholdKg = 1.0

	// LargeNumberThreshold is the threshold for using abbreviated display.
	// Values at or above this threshold use "~X.X million" format.
	LargeNumberThreshold = 1_000_000

	// BillionThreshold is the threshold for billion-scale display.
	BillionThreshold = 1_000_000_000
)

// Calculator and benchmark constants.
const (
	// CO2Unit is the unit label attached to every calculated amount.
	CO2Unit = "kg CO2"

	// UnknownUnit is the canonical unit reported for types missing from the factor table.
	UnknownUnit = "units"

	// kgPrecisionScale rounds kilogram amounts to two decimal places.
	kgPrecisionScale = 100

	// PercentageMultiplier converts a ratio into a percentage.
	PercentageMultiplier = 100.0

	// AverageBandPercent is the half-width of the "about average" benchmark band.
	// A delta of exactly this value still classifies as average.
	AverageBandPercent = 5

	// RegionGlobal is the fallback benchmark region.
	RegionGlobal = "global"
)
