package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/carbonledger/internal/config"
	"github.com/rshade/carbonledger/internal/secrets"
)

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(
		NewConfigInitCmd(), NewConfigSetCmd(), NewConfigGetCmd(),
		NewConfigListCmd(), NewConfigValidateCmd(),
		NewConfigSetSecretCmd(), NewConfigDeleteSecretCmd(),
	)
	return cmd
}

// editablePath returns the config file "config set" writes: the project
// overlay when one is active, unless global is set.
func editablePath(global bool) (string, error) {
	if dir := config.GetResolvedProjectDir(); dir != "" && !global {
		return filepath.Join(dir, "config.yaml"), nil
	}
	if !global {
		if path := config.GetGlobalConfig().ConfigPath(); path != "" {
			return path, nil
		}
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// NewConfigSetCmd creates "config set".
func NewConfigSetCmd() *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Sets a dotted key in the config file and saves it. The change is validated
before it is written. See "carbonledger config list" for keys. Credentials
belong in the keyring: use "carbonledger config set-secret".`,
		Example: `  carbonledger config set benchmark.region europe
  carbonledger config set store.driver sqlite
  carbonledger config set --global output.precision 1`,
		Args: cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := editablePath(global)
			if err != nil {
				return err
			}
			cfg, err := config.LoadForEdit(path)
			if err != nil {
				return err
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("not saved: %w", err)
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			cmd.Printf("Set %s = %s in %s\n", strings.ToLower(args[0]), args[1], path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&global, "global", false, "write the global config even inside a project")
	return cmd
}

// NewConfigGetCmd creates "config get".
func NewConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print an effective configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.GetGlobalConfig().Get(args[0])
			if err != nil {
				return err
			}
			cmd.Println(v)
			return nil
		},
	}
}

// NewConfigListCmd creates "config list".
func NewConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print every effective configuration value",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			for _, key := range config.Keys() {
				v, err := cfg.Get(key)
				if err != nil {
					return err
				}
				if key == "store.dsn" && v != "" {
					v = "<set>"
				}
				cmd.Printf("%s = %s\n", key, v)
			}
			return nil
		},
	}
}

// NewConfigSetSecretCmd creates "config set-secret".
func NewConfigSetSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-secret <name> [value]",
		Short: "Store a credential in the OS keyring",
		Long: fmt.Sprintf(`Stores a credential in the OS keyring instead of the config file. Known
names: %s. Without a value it is read from stdin, without echo on a
terminal.`, strings.Join(secrets.Names(), ", ")),
		Example: `  carbonledger config set-secret store-dsn
  echo "$SECRET" | carbonledger config set-secret s3-secret-access-key`,
		Args: cobra.RangeArgs(1, 2), //nolint:mnd // name and optional value
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 2 { //nolint:mnd // value given
				value = args[1]
			} else {
				var err error
				if value, err = readSecret(cmd, args[0]); err != nil {
					return err
				}
			}
			if err := secrets.Set(args[0], value); err != nil {
				return err
			}
			cmd.Printf("Stored %s in the keyring\n", args[0])
			return nil
		},
	}
}

// NewConfigDeleteSecretCmd creates "config delete-secret".
func NewConfigDeleteSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-secret <name>",
		Short: "Remove a credential from the OS keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := secrets.Delete(args[0]); err != nil {
				return err
			}
			cmd.Printf("Deleted %s from the keyring\n", args[0])
			return nil
		},
	}
}

// readSecret prompts without echo on a terminal, otherwise reads one line
// from the command's input.
func readSecret(cmd *cobra.Command, name string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && isTerminal(f) {
		cmd.PrintErrf("%s: ", name)
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.PrintErrln()
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", name, err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no secret value on stdin")
	}
	return strings.TrimSpace(line), nil
}
