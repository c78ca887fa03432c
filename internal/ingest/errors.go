package ingest

import "fmt"

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

var (
	// ErrInvalidEntry indicates an entry missing required fields.
	ErrInvalidEntry = constError("invalid entry")

	// ErrUnsupportedFormat indicates an input format that cannot be parsed.
	ErrUnsupportedFormat = constError("unsupported import format")

	// ErrNoEntries indicates an input with nothing to import.
	ErrNoEntries = constError("no entries to import")
)

// LineError attaches a source position to a parse or import failure.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }
