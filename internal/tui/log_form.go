package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/rshade/carbonledger/internal/greenops"
)

// LogFormData is filled in by the interactive log forms.
type LogFormData struct {
	Category string
	Type     string
	Action   string
	Value    string
}

// NewActivityForm asks for a category, an activity type within it and a
// quantity in the type's unit.
func NewActivityForm(data *LogFormData) *huh.Form {
	if data.Category == "" {
		data.Category = string(greenops.CategoryTransportation)
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Category").
				Options(categoryOptions()...).
				Value(&data.Category),
			huh.NewSelect[string]().
				Title("Activity").
				OptionsFunc(func() []huh.Option[string] {
					return activityTypeOptions(greenops.Category(data.Category))
				}, &data.Category).
				Value(&data.Type),
			huh.NewInput().
				TitleFunc(func() string {
					return "Amount (" + greenops.CanonicalUnit(greenops.Category(data.Category), data.Type) + ")"
				}, &data.Type).
				Value(&data.Value).
				Validate(validateQuantity),
		),
	).WithTheme(huh.ThemeCharm())
}

// NewActionForm asks for a positive action and its value. Boolean actions
// get a yes/no answer instead of a number.
func NewActionForm(data *LogFormData) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Positive action").
				Options(actionOptions()...).
				Value(&data.Action),
			huh.NewInput().
				TitleFunc(func() string { return actionValueTitle(data.Action) }, &data.Action).
				Value(&data.Value).
				Validate(func(s string) error { return validateActionValue(data.Action, s) }),
		),
	).WithTheme(huh.ThemeCharm())
}

func categoryOptions() []huh.Option[string] {
	cats := greenops.Categories()
	opts := make([]huh.Option[string], 0, len(cats))
	for _, c := range cats {
		opts = append(opts, huh.NewOption(c.Label(), string(c)))
	}
	return opts
}

func activityTypeOptions(category greenops.Category) []huh.Option[string] {
	factors := greenops.FactorsByCategory(category)
	opts := make([]huh.Option[string], 0, len(factors))
	for _, f := range factors {
		label := fmt.Sprintf("%s (%s kg CO2 / %s)", f.Name, greenops.FormatFloat(f.KgPerUnit, 2), f.Unit)
		opts = append(opts, huh.NewOption(label, f.Type))
	}
	return opts
}

func actionOptions() []huh.Option[string] {
	actions := greenops.PositiveActions()
	opts := make([]huh.Option[string], 0, len(actions))
	for _, a := range actions {
		opts = append(opts, huh.NewOption(a.Name, a.ID))
	}
	return opts
}

func actionValueTitle(actionID string) string {
	action, err := greenops.LookupAction(actionID)
	if err != nil {
		return "Value"
	}
	if action.Kind == greenops.InputBoolean {
		return "Done? (yes/no)"
	}
	return "How many " + action.Unit + "?"
}

func validateQuantity(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return errors.New("enter a number")
	}
	if v < 0 {
		return errors.New("amount cannot be negative")
	}
	return nil
}

func validateActionValue(actionID, s string) error {
	action, err := greenops.LookupAction(actionID)
	if err != nil {
		return err
	}
	v, err := greenops.ParseActionValue(action, s)
	if err != nil {
		return err
	}
	_, err = greenops.EstimateSavings(action, v)
	return err
}
