package greenops

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Positive action identifiers.
const (
	ActionPlantTree       = "plant_tree"
	ActionRenewableEnergy = "renewable_energy"
	ActionHomeInsulation  = "home_insulation"
)

//nolint:gochecknoglobals // Read-only catalogue.
var actionCatalogue = []PositiveAction{
	{
		ID:             ActionPlantTree,
		Name:           "Plant a Tree",
		Kind:           InputQuantity,
		Unit:           UnitTrees,
		KgSavedPerUnit: 21,
		WholeUnits:     true,
		Formula:        "21 kg CO2 per tree per year",
		Description:    "Each tree absorbs about 21 kg of CO2 per year",
	},
	{
		ID:             ActionRenewableEnergy,
		Name:           "Switch to Renewable Energy",
		Kind:           InputBoolean,
		KgSavedPerUnit: 2250,
		Formula:        "2,250 kg CO2 per year",
		Description:    "Moving household electricity to a renewable tariff",
	},
	{
		ID:             ActionHomeInsulation,
		Name:           "Improve Home Insulation",
		Kind:           InputBoolean,
		KgSavedPerUnit: 500,
		Formula:        "500 kg CO2 per year",
		Description:    "Insulating walls, loft or windows to cut heating demand",
	},
}

// PositiveActions returns a copy of the positive-action catalogue.
func PositiveActions() []PositiveAction {
	out := make([]PositiveAction, len(actionCatalogue))
	copy(out, actionCatalogue)
	return out
}

// LookupAction returns the catalogue entry for id.
func LookupAction(id string) (PositiveAction, error) {
	for _, a := range actionCatalogue {
		if a.ID == id {
			return a, nil
		}
	}
	return PositiveAction{}, fmt.Errorf("%w: %q", ErrUnknownAction, id)
}

// EstimateSavings computes kg CO2 saved by one positive action.
//
// Quantity actions save value × coefficient; negative and non-finite values are
// rejected with ErrInvalidInput, as are fractional values for whole-unit actions.
// Boolean actions save the coefficient when value is non-zero, otherwise 0.
// The result may be zero; rejecting zero savings is the caller's job.
func EstimateSavings(action PositiveAction, value float64) (float64, error) {
	if err := validateQuantity(value); err != nil {
		return 0, err
	}

	switch action.Kind {
	case InputQuantity:
		if action.WholeUnits && value != math.Trunc(value) {
			return 0, errInvalidInput(action.Unit+" must be a whole number", value)
		}
		return RoundKg(value * action.KgSavedPerUnit), nil
	case InputBoolean:
		if value == 0 {
			return 0, nil
		}
		return action.KgSavedPerUnit, nil
	default:
		return 0, fmt.Errorf("%w: unsupported input kind %q", ErrInvalidInput, action.Kind)
	}
}

// ParseActionValue parses user input for an action. Boolean actions accept
// true/false, yes/no, on/off and numbers; quantity actions accept numbers.
// Booleans are encoded as 1 or 0.
func ParseActionValue(action PositiveAction, raw string) (float64, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if action.Kind == InputBoolean {
		switch s {
		case "true", "yes", "on", "y":
			return 1, nil
		case "false", "no", "off", "n":
			return 0, nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidInput, raw)
	}
	if err := validateQuantity(v); err != nil {
		return 0, err
	}
	if action.Kind == InputBoolean && v != 0 {
		return 1, nil
	}
	return v, nil
}
