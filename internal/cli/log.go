package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/engine"
	"github.com/rshade/carbonledger/internal/greenops"
	"github.com/rshade/carbonledger/internal/tui"
)

// errNotInteractive is returned when a form is needed but stdin is not a
// terminal.
var errNotInteractive = errors.New("missing arguments and stdin is not a terminal")

func newLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Record an activity or a positive action",
	}
	cmd.AddCommand(NewLogActivityCmd(), NewLogActionCmd())
	return cmd
}

// NewLogActivityCmd creates "log activity". Without arguments it opens an
// interactive form.
func NewLogActivityCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "activity [category type value]",
		Short: "Record an emitting activity",
		Long: `Prices an activity against the emission factor table and appends it to the
ledger. Values are in the type's unit (see "carbonledger factors"). An
unknown type within a known category is recorded with zero impact.`,
		Example: `  carbonledger log activity energy electricity 10
  carbonledger log activity food beef 0.5 --at 2025-03-01
  carbonledger log activity`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 3 {
				return fmt.Errorf("accepts 0 or 3 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var err error
				if args, err = promptActivity(cmd); err != nil {
					return err
				}
			}
			return runLogActivity(cmd, args, at)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "record time (YYYY-MM-DD or RFC 3339, default now)")
	return cmd
}

func runLogActivity(cmd *cobra.Command, args []string, at string) error {
	category, err := greenops.ParseCategory(args[0])
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(args[2]), 64)
	if err != nil {
		return fmt.Errorf("%w: value %q is not a number", greenops.ErrInvalidInput, args[2])
	}
	when, err := parseAt(at, time.Now())
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	return withLedger(cmd, func(l *ledger) error {
		rec, logErr := l.tracker.LogActivityAt(cmd.Context(), when, category, strings.TrimSpace(args[1]), value)
		if logErr != nil {
			return logErr
		}
		return engine.RenderActivity(cmd.OutOrStdout(), format, rec, renderOptions())
	})
}

func promptActivity(cmd *cobra.Command) ([]string, error) {
	if !isTerminal(os.Stdin) {
		return nil, errNotInteractive
	}
	var data tui.LogFormData
	if err := tui.NewActivityForm(&data).RunWithContext(cmd.Context()); err != nil {
		return nil, fmt.Errorf("activity form: %w", err)
	}
	return []string{data.Category, data.Type, data.Value}, nil
}

// NewLogActionCmd creates "log action". Without arguments it opens an
// interactive form.
func NewLogActionCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "action [action value]",
		Short: "Record a positive action",
		Long: `Records an offsetting action. Quantity actions take a count; boolean
actions take yes/no (or 1/0). Actions that would save nothing are rejected.`,
		Example: `  carbonledger log action plant_tree 2
  carbonledger log action renewable_energy yes`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("accepts 0 or 2 arg(s), received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var err error
				if args, err = promptAction(cmd); err != nil {
					return err
				}
			}
			return runLogAction(cmd, args, at)
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "record time (YYYY-MM-DD or RFC 3339, default now)")
	return cmd
}

func runLogAction(cmd *cobra.Command, args []string, at string) error {
	action, err := greenops.LookupAction(strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	value, err := greenops.ParseActionValue(action, args[1])
	if err != nil {
		return err
	}
	when, err := parseAt(at, time.Now())
	if err != nil {
		return err
	}
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	return withLedger(cmd, func(l *ledger) error {
		rec, logErr := l.tracker.LogPositiveActionAt(cmd.Context(), when, action.ID, value)
		if logErr != nil {
			return logErr
		}
		return engine.RenderPositiveAction(cmd.OutOrStdout(), format, rec, renderOptions())
	})
}

func promptAction(cmd *cobra.Command) ([]string, error) {
	if !isTerminal(os.Stdin) {
		return nil, errNotInteractive
	}
	var data tui.LogFormData
	if err := tui.NewActionForm(&data).RunWithContext(cmd.Context()); err != nil {
		return nil, fmt.Errorf("action form: %w", err)
	}
	return []string{data.Action, data.Value}, nil
}

func newRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove",
		Aliases: []string{"rm"},
		Short:   "Delete a recorded activity or positive action",
	}
	cmd.AddCommand(
		newRemoveKindCmd("activity", "Delete an activity by ID", func(l *ledger, cmd *cobra.Command, id string) error {
			return l.tracker.RemoveActivity(cmd.Context(), id)
		}),
		newRemoveKindCmd("action", "Delete a positive action by ID", func(l *ledger, cmd *cobra.Command, id string) error {
			return l.tracker.RemovePositiveAction(cmd.Context(), id)
		}),
	)
	return cmd
}

func newRemoveKindCmd(kind, short string, remove func(*ledger, *cobra.Command, string) error) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   kind + " <id>",
		Short: short,
		Long:  short + ". On a terminal you are asked to confirm unless --yes is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && isTerminal(os.Stdin) {
				answer := Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), fmt.Sprintf("Delete %s %s?", kind, args[0]))
				if !answer.Accepted {
					cmd.Println("Aborted")
					return nil
				}
			}
			return withLedger(cmd, func(l *ledger) error {
				if err := remove(l, cmd, args[0]); err != nil {
					return err
				}
				cmd.Printf("Removed %s %s\n", kind, args[0])
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
