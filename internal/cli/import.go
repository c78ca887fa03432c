package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/ingest"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	var (
		format      string
		dryRun      bool
		stopOnError bool
		batchSize   int
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import activities and positive actions from a file",
		Long: `Reads entries from an NDJSON, JSON, YAML or CSV file and logs each one in
file order. The file is validated as a whole first; nothing is written if
any entry is malformed. Entries the ledger rejects are reported and the rest
are kept unless --stop-on-error is set.`,
		Example: `  carbonledger import week.csv
  carbonledger import history.jsonl --dry-run
  carbonledger import entries.txt --format ndjson --batch-size 500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fileFormat ingest.Format
			if format != "" {
				var err error
				if fileFormat, err = ingest.ParseFormat(format); err != nil {
					return err
				}
			}
			out, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			entries, err := ingest.Load(cmd.Context(), args[0], fileFormat)
			if err != nil {
				return err
			}

			opts := ingest.Options{
				BatchSize:   batchSize,
				DryRun:      dryRun,
				StopOnError: stopOnError,
				OnProgress:  progressPrinter(cmd.ErrOrStderr()),
			}
			return withLedger(cmd, func(l *ledger) error {
				result, importErr := ingest.Import(cmd.Context(), l.tracker, entries, opts)
				if renderErr := renderImportResult(cmd.OutOrStdout(), out, result); renderErr != nil {
					return errors.Join(importErr, renderErr)
				}
				return importErr
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "file format: ndjson, json, yaml or csv (default from extension)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "price entries without writing them")
	cmd.Flags().BoolVar(&stopOnError, "stop-on-error", false, "abort at the first rejected entry")
	cmd.Flags().IntVar(&batchSize, "batch-size", ingest.DefaultBatchSize, "entries per progress update (1-1000)")
	return cmd
}

// progressPrinter reports batch progress on w, once per batch.
func progressPrinter(w io.Writer) func(ingest.ProgressSnapshot) {
	return func(p ingest.ProgressSnapshot) {
		_, _ = fmt.Fprintf(w, "  %s/%s entries (%.0f%%)\n",
			humanize.Comma(int64(p.Processed)), humanize.Comma(int64(p.Total)), p.PercentComplete)
	}
}

func renderImportResult(w io.Writer, format engine.OutputFormat, r ingest.Result) error {
	if format != engine.OutputTable {
		return engine.RenderJSON(w, r)
	}

	verb := "Imported"
	if r.DryRun {
		verb = "Would import"
	}
	if _, err := fmt.Fprintf(w, "%s %s entries in %s: %s emitted, %s saved\n",
		verb, humanize.Comma(int64(r.Imported)), r.Elapsed.Round(time.Millisecond),
		greenops.FormatCarbon(r.EmissionsKg, renderOptions().Unit, renderOptions().Precision),
		greenops.FormatCarbon(r.SavingsKg, renderOptions().Unit, renderOptions().Precision),
	); err != nil {
		return err
	}
	if len(r.Failed) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, "%s rejected:\n", humanize.Comma(int64(len(r.Failed)))); err != nil {
		return err
	}
	for _, f := range r.Failed {
		if _, err := fmt.Fprintf(w, "  line %d: %s: %s\n", f.Line, f.Entry, f.Error); err != nil {
			return err
		}
	}
	return nil
}
