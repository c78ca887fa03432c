package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/backup"
	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/greenops"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validates the effective configuration: the global file, any project
overlay, environment overrides and keyring secrets.

This includes:
- Output format, precision and display unit
- Logging level and format
- Store driver and its path or DSN
- Backup driver and S3 bucket
- Dashboard monthly target`,
		Example: `  # Validate current configuration
  carbonledger config validate

  # Validate and show detailed information
  carbonledger config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if name, _ := greenops.RegionalAverage(cfg.Benchmark.Region); name != cfg.Benchmark.Region {
		cmd.Printf("Warning: unknown benchmark.region %q, comparisons use %s\n\n", cfg.Benchmark.Region, name)
	}
	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.ConfigPath())
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Output precision: %d\n", cfg.Output.Precision)
	cmd.Printf("  Output unit: %s\n", cfg.Output.Unit)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)

	printStoreDetails(cmd, cfg)
	printEventDetails(cmd, cfg)
	cmd.Printf("  Backups: %s\n", describeBackup(cfg))
}

// printStoreDetails prints where the ledger lives without revealing a DSN.
func printStoreDetails(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Store.DSN != "" {
		cmd.Printf("  Store: %s (DSN set)\n", cfg.Store.Driver)
		return
	}
	cmd.Printf("  Store: %s at %s\n", cfg.Store.Driver, cfg.Store.Path)
}

func printEventDetails(cmd *cobra.Command, cfg *config.Config) {
	if !cfg.Events.Enabled() {
		cmd.Println("  No event publishers configured")
		return
	}
	if cfg.Events.AuditLog != "" {
		cmd.Printf("  Audit log: %s\n", cfg.Events.AuditLog)
	}
	if len(cfg.Events.Kafka.Brokers) > 0 {
		cmd.Printf("  Kafka brokers: %v\n", cfg.Events.Kafka.Brokers)
	}
}

func describeBackup(cfg *config.Config) string {
	if cfg.Backup.Driver == backup.DriverS3 {
		return fmt.Sprintf("s3://%s/%s", cfg.Backup.S3.Bucket, cfg.Backup.S3.Prefix)
	}
	return cfg.Backup.Dir
}
