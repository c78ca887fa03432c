package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// isTerminalWriter reports whether w is a terminal. Buffers used in tests
// never are.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the carbonledger CLI.
// It resolves the project directory, loads configuration, wires logging and
// registers every subcommand.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:   "carbonledger",
		Short: "Personal carbon footprint ledger",
		Long: `carbonledger records everyday activities and offsetting actions, prices them
against a fixed emission factor table, and reports footprints, trends,
streaks and regional comparisons.`,
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(cmd); err != nil {
				return err
			}
			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	pf := cmd.PersistentFlags()
	pf.Bool("debug", false, "enable debug logging")
	pf.String("config", "", "config file (default $CARBONLEDGER_HOME/config.yaml)")
	pf.String("project-dir", "", "project-local .carbonledger directory (default: search upwards from cwd)")
	pf.StringP("output", "o", "", "output format: table, json or ndjson (default from config)")
	pf.String("metrics-textfile", "", "write Prometheus metrics to this file after the command")

	cmd.AddCommand(
		newLogCmd(), newRemoveCmd(), NewListCmd(),
		NewFootprintCmd(), NewBreakdownCmd(), NewSeriesCmd(), NewStreakCmd(),
		NewCompareCmd(), NewSuggestCmd(), NewDashboardCmd(), NewFactorsCmd(),
		NewImportCmd(), newBackupCmd(), newConfigCmd(),
	)

	return cmd
}

// loadConfig resolves the project directory and installs the global config,
// honouring --config when given.
func loadConfig(cmd *cobra.Command) error {
	projectFlag, _ := cmd.Flags().GetString("project-dir")
	cwd, _ := os.Getwd()
	config.SetResolvedProjectDir(config.ResolveProjectDir(projectFlag, cwd))

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		config.SetGlobalConfig(cfg)
	}

	config.GetGlobalConfig().ResolveSecrets()
	return nil
}

const rootCmdExample = `  # Log 25 km in a petrol car and half a kilo of beef
  carbonledger log activity transportation car_gasoline 25
  carbonledger log activity food beef 0.5

  # Log a positive action
  carbonledger log action plant_tree 2

  # Show today's footprint and the dashboard
  carbonledger footprint
  carbonledger dashboard

  # Weekly trend for the last two months as JSON
  carbonledger series --bucket weekly --from 2025-01-01 -o json

  # Import a batch of past entries
  carbonledger import week.csv

  # Back up the ledger
  carbonledger backup create`
