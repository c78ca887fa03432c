package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/logging"
)

// Batch size limits.
const (
	DefaultBatchSize = 100
	MinBatchSize     = 1
	MaxBatchSize     = 1000
)

// ErrInvalidBatchSize indicates a batch size outside [MinBatchSize, MaxBatchSize].
const ErrInvalidBatchSize = constError("batch size must be between 1 and 1000")

// Ledger is the part of the tracker the importer writes through.
type Ledger interface {
	LogActivityAt(
		ctx context.Context, at time.Time, category greenops.Category, activityType string, value float64,
	) (engine.ActivityRecord, error)
	LogPositiveActionAt(ctx context.Context, at time.Time, actionID string, value float64) (engine.PositiveActionRecord, error)
}

// Options configures an import run.
type Options struct {
	// BatchSize is the number of entries between progress callbacks and
	// cancellation checks. Zero means DefaultBatchSize.
	BatchSize int
	// DryRun computes impacts from the factor table without writing.
	DryRun bool
	// StopOnError aborts at the first rejected entry.
	StopOnError bool
	// OnProgress is called after each batch.
	OnProgress func(ProgressSnapshot)
}

// Failure is an entry the ledger rejected.
type Failure struct {
	Line  int    `json:"line"`
	Entry string `json:"entry"`
	Error string `json:"error"`
}

// Result summarises an import run.
type Result struct {
	Imported    int           `json:"imported"`
	Failed      []Failure     `json:"failed"`
	EmissionsKg float64       `json:"emissions_kg"`
	SavingsKg   float64       `json:"savings_kg"`
	DryRun      bool          `json:"dry_run"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Import writes entries through the ledger in file order, one batch at a
// time. Rejected entries are collected in the result; with StopOnError the
// first one is also returned as a *LineError and the rest are skipped.
func Import(ctx context.Context, ledger Ledger, entries []Entry, opts Options) (Result, error) {
	logger := logging.FromContext(ctx).With().
		Str("component", "ingest").
		Str("operation", "import").
		Bool("dry_run", opts.DryRun).
		Logger()

	if len(entries) == 0 {
		return Result{}, ErrNoEntries
	}
	size := opts.BatchSize
	if size == 0 {
		size = DefaultBatchSize
	}
	if size < MinBatchSize || size > MaxBatchSize {
		return Result{}, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, size)
	}

	totalBatches := (len(entries) + size - 1) / size
	progress := newProgress(len(entries), totalBatches)
	result := Result{Failed: []Failure{}, DryRun: opts.DryRun}

	for batchIndex := range totalBatches {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := batchIndex * size
		end := min(start+size, len(entries))

		imported, failed := 0, 0
		for _, e := range entries[start:end] {
			emitted, saved, err := importEntry(ctx, ledger, e, opts.DryRun)
			if err != nil {
				failed++
				result.Failed = append(result.Failed, Failure{Line: e.Line, Entry: e.String(), Error: err.Error()})
				if opts.StopOnError {
					progress.addBatch(imported, failed)
					result.Elapsed = progress.Snapshot().Elapsed
					return result, &LineError{Line: e.Line, Err: err}
				}
				continue
			}
			imported++
			result.Imported++
			result.EmissionsKg += emitted
			result.SavingsKg += saved
		}

		progress.addBatch(imported, failed)
		logger.Debug().
			Int("batch", batchIndex).
			Int("imported", imported).
			Int("failed", failed).
			Msg("import batch processed")
		if opts.OnProgress != nil {
			opts.OnProgress(progress.Snapshot())
		}
	}

	result.EmissionsKg = greenops.RoundKg(result.EmissionsKg)
	result.SavingsKg = greenops.RoundKg(result.SavingsKg)
	result.Elapsed = progress.Snapshot().Elapsed
	logger.Info().
		Int("imported", result.Imported).
		Int("failed", len(result.Failed)).
		Msg("import finished")
	return result, nil
}

// importEntry logs one entry, or prices it against the factor table when
// dryRun is set. It returns the kg emitted and saved.
func importEntry(ctx context.Context, ledger Ledger, e Entry, dryRun bool) (float64, float64, error) {
	switch e.Kind {
	case KindActivity:
		category := greenops.Category(e.Category)
		if dryRun {
			if !category.IsValid() {
				return 0, 0, fmt.Errorf("%w: %q", greenops.ErrUnknownCategory, e.Category)
			}
			calc, err := greenops.Calculate(greenops.ActivityInput{Category: category, Type: e.Type, Value: e.Value})
			if err != nil {
				return 0, 0, err
			}
			return calc.CO2Amount, 0, nil
		}
		rec, err := ledger.LogActivityAt(ctx, e.Timestamp, category, e.Type, e.Value)
		if err != nil {
			return 0, 0, err
		}
		return rec.CO2Impact, 0, nil

	case KindAction:
		if dryRun {
			action, err := greenops.LookupAction(e.Action)
			if err != nil {
				return 0, 0, err
			}
			saved, err := greenops.EstimateSavings(action, e.Value)
			if err != nil {
				return 0, 0, err
			}
			if saved <= 0 {
				return 0, 0, fmt.Errorf("%w: saves %v kg", greenops.ErrInvalidActionValue, saved)
			}
			return 0, saved, nil
		}
		rec, err := ledger.LogPositiveActionAt(ctx, e.Timestamp, e.Action, e.Value)
		if err != nil {
			return 0, 0, err
		}
		return 0, rec.CO2Saved, nil
	}
	return 0, 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, e.Kind)
}
