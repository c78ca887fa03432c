package greenops

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// FactorTableVersion is the semantic version of the emission factor and
// positive-action tables. Records carry the version they were computed with;
// a major bump means previously frozen impacts are not comparable.
const FactorTableVersion = "1.0.0"

// Canonical units used by the factor table.
const (
	UnitKm    = "km"
	UnitKWh   = "kWh"
	UnitM3    = "m³"
	UnitLiter = "L"
	UnitKg    = "kg"
	UnitMeals = "meals"
	UnitItems = "items"
	UnitTrees = "trees"
)

// factorTable is ordered for display. Values are kg CO2e per canonical unit.
//
//nolint:gochecknoglobals // Read-only lookup table.
var factorTable = []EmissionFactor{
	{CategoryTransportation, "car_gasoline", "Car (Gasoline)", UnitKm, 0.21},
	{CategoryTransportation, "car_diesel", "Car (Diesel)", UnitKm, 0.17},
	{CategoryTransportation, "car_electric", "Car (Electric)", UnitKm, 0.05},
	{CategoryTransportation, "bus", "Bus", UnitKm, 0.08},
	{CategoryTransportation, "train", "Train", UnitKm, 0.04},
	{CategoryTransportation, "plane_domestic", "Plane (Domestic)", UnitKm, 0.25},
	{CategoryTransportation, "plane_international", "Plane (International)", UnitKm, 0.15},
	{CategoryTransportation, "motorcycle", "Motorcycle", UnitKm, 0.12},
	{CategoryTransportation, "bicycle", "Bicycle", UnitKm, 0},
	{CategoryTransportation, "walking", "Walking", UnitKm, 0},

	{CategoryEnergy, "electricity", "Electricity", UnitKWh, 0.5},
	{CategoryEnergy, "natural_gas", "Natural Gas", UnitM3, 2.0},
	{CategoryEnergy, "heating_oil", "Heating Oil", UnitLiter, 2.7},
	{CategoryEnergy, "propane", "Propane", UnitLiter, 1.5},

	{CategoryFood, "beef", "Beef", UnitKg, 27.0},
	{CategoryFood, "pork", "Pork", UnitKg, 12.1},
	{CategoryFood, "chicken", "Chicken", UnitKg, 6.9},
	{CategoryFood, "fish", "Fish", UnitKg, 6.1},
	{CategoryFood, "dairy", "Dairy", UnitKg, 3.2},
	{CategoryFood, "vegetables", "Vegetables", UnitKg, 2.0},
	{CategoryFood, "fruits", "Fruits", UnitKg, 1.1},
	{CategoryFood, "grains", "Grains", UnitKg, 2.7},
	{CategoryFood, "processed_food", "Processed Food", UnitKg, 4.5},
	{CategoryFood, "plant_based_meal", "Plant-Based Meal", UnitMeals, 1.5},

	{CategoryWaste, "general_waste", "General Waste", UnitKg, 0.5},
	{CategoryWaste, "recycling", "Recycling", UnitKg, -0.1},
	{CategoryWaste, "composting", "Composting", UnitKg, -0.2},
	{CategoryWaste, "electronic_waste", "Electronic Waste", UnitKg, 1.2},

	{CategoryConsumption, "clothing_new", "New Clothing", UnitItems, 8.0},
	{CategoryConsumption, "clothing_secondhand", "Secondhand Clothing", UnitItems, 2.0},
	{CategoryConsumption, "electronics", "Electronics", UnitItems, 300.0},
	{CategoryConsumption, "books", "Books", UnitItems, 1.0},
	{CategoryConsumption, "furniture", "Furniture", UnitItems, 50.0},
}

type factorKey struct {
	category Category
	typ      string
}

//nolint:gochecknoglobals // Built once from factorTable.
var factorIndex = buildFactorIndex()

func buildFactorIndex() map[factorKey]EmissionFactor {
	idx := make(map[factorKey]EmissionFactor, len(factorTable))
	for _, f := range factorTable {
		idx[factorKey{f.Category, f.Type}] = f
	}
	return idx
}

// LookupFactor returns the emission factor for (category, activityType).
// A miss returns ErrUnknownFactor; callers that only need a coefficient
// should treat that as zero rather than fail.
func LookupFactor(category Category, activityType string) (EmissionFactor, error) {
	f, ok := factorIndex[factorKey{category, activityType}]
	if !ok {
		return EmissionFactor{}, fmt.Errorf("%w: %s/%s", ErrUnknownFactor, category, activityType)
	}
	return f, nil
}

// EmissionFactors returns a copy of the factor table in display order.
func EmissionFactors() []EmissionFactor {
	out := make([]EmissionFactor, len(factorTable))
	copy(out, factorTable)
	return out
}

// FactorsByCategory returns the factors of one category in display order.
func FactorsByCategory(category Category) []EmissionFactor {
	var out []EmissionFactor
	for _, f := range factorTable {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// CanonicalUnit returns the unit an activity value is expressed in.
// Unknown types report UnknownUnit.
func CanonicalUnit(category Category, activityType string) string {
	if f, ok := factorIndex[factorKey{category, activityType}]; ok {
		return f.Unit
	}
	return UnknownUnit
}

// TableVersion returns the parsed factor table version.
func TableVersion() *semver.Version {
	return semver.MustParse(FactorTableVersion)
}

// CompatibleFactorVersion reports whether values frozen under version v can be
// aggregated with values computed by the running table. Versions are
// compatible when they share a major version.
func CompatibleFactorVersion(v string) (bool, error) {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return false, fmt.Errorf("parsing factor version %q: %w", v, err)
	}
	return parsed.Major() == TableVersion().Major(), nil
}
