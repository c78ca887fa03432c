package engine

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Sentinel errors returned by the tracker and aggregator.
var (
	// ErrRecordNotFound indicates a remove call for an ID the store does not hold.
	ErrRecordNotFound = constError("record not found")

	// ErrInvalidWindow indicates a time window whose end precedes its start.
	ErrInvalidWindow = constError("invalid time window")

	// ErrInvalidBucket indicates an unsupported bucket size.
	ErrInvalidBucket = constError("invalid bucket size")

	// ErrInvalidRecord indicates a record that violates the ledger invariants.
	ErrInvalidRecord = constError("invalid record")
)
