package greenops

import "fmt"

// constError is an immutable error type for sentinel errors.
// It implements the error interface and provides compile-time safety.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors for carbon calculations. Compare with errors.Is().
var (
	// ErrInvalidUnit indicates an unrecognized carbon unit.
	ErrInvalidUnit = constError("invalid carbon unit")

	// ErrNegativeValue indicates a negative carbon value where only emissions are accepted.
	ErrNegativeValue = constError("negative carbon value")

	// ErrCalculationOverflow indicates a value too large to calculate safely.
	ErrCalculationOverflow = constError("calculation overflow")

	// ErrInvalidInput indicates a negative or non-finite quantity on a logging call.
	// It is raised before any computation happens.
	ErrInvalidInput = constError("invalid input value")

	// ErrUnknownFactor indicates a (category, type) pair missing from the factor table.
	// It is soft: Calculate treats the coefficient as zero and never returns it.
	ErrUnknownFactor = constError("unknown emission factor")

	// ErrUnknownCategory indicates a category outside the closed category set.
	ErrUnknownCategory = constError("unknown category")

	// ErrUnknownAction indicates an action ID missing from the positive-action catalogue.
	ErrUnknownAction = constError("unknown positive action")

	// ErrInvalidActionValue indicates a positive action whose computed savings are not
	// strictly positive.
	ErrInvalidActionValue = constError("invalid positive action value")
)

func errInvalidInput(reason string, v float64) error {
	return fmt.Errorf("%w: %s (got %v)", ErrInvalidInput, reason, v)
}
