package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// Inside a project (a .carbonledger directory above the working directory,
// --project-dir or CARBONLEDGER_PROJECT_DIR) it writes project-local
// configuration that keeps the ledger next to it. Otherwise, or with
// --global, it writes the global config file.
func NewConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

Inside a project, creates $PROJECT/.carbonledger/config.yaml with the ledger
stored alongside it and a .gitignore that keeps ledger data out of version
control. Use --global to initialize the global configuration instead.`,
		Example: `  # Create project-local configuration
  carbonledger --project-dir . config init

  # Create global configuration
  carbonledger config init --global

  # Create configuration, overwriting existing
  carbonledger config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectDir := config.GetResolvedProjectDir()

			if projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}

			return initGlobalConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "initialize the global configuration even inside a project")

	return cmd
}

// checkNotExists fails unless path is absent or force is set.
func checkNotExists(path string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(path)
	if err == nil {
		return errors.New("configuration file already exists, use --force to overwrite")
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access config path %s: %w", path, err)
	}
	return nil
}

// initProjectConfig creates projectDir/config.yaml with a .gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")
	if err := checkNotExists(configPath, force); err != nil {
		return err
	}

	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return fmt.Errorf("failed to create project config directory: %w", err)
	}

	cfg := config.NewProjectConfig(projectDir)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Never overwrites an existing .gitignore.
	created, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	cmd.Printf("Ledger: %s\n", cfg.Store.Path)
	if created {
		cmd.Printf("Created .gitignore to keep ledger data out of version control\n")
	}

	return nil
}

// initGlobalConfig creates the global config file.
func initGlobalConfig(cmd *cobra.Command, force bool) error {
	cfg := config.Default()
	if err := checkNotExists(cfg.ConfigPath(), force); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", cfg.ConfigPath())

	return nil
}
