package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rshade/carbonledger/internal/backup"
	"github.com/rshade/carbonledger/internal/engine"
)

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore ledger archives",
		Long: `Archives are JSON snapshots of the whole ledger written to the configured
backup sink: a local directory (backup.driver: file) or an S3 bucket
(backup.driver: s3).`,
	}
	cmd.AddCommand(NewBackupCreateCmd(), NewBackupListCmd(), NewBackupRestoreCmd())
	return cmd
}

// NewBackupCreateCmd creates "backup create".
func NewBackupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Write a new archive of the ledger",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, func(l *ledger) error {
				sink, sinkErr := backup.Open(cmd.Context(), l.cfg.Backup)
				if sinkErr != nil {
					return sinkErr
				}
				info, createErr := backup.Create(cmd.Context(), l.tracker, sink, time.Now())
				if createErr != nil {
					return createErr
				}
				if format != engine.OutputTable {
					return engine.RenderJSON(cmd.OutOrStdout(), info)
				}
				cmd.Printf("Created %s (%s) in %s\n", info.Name, humanize.Bytes(uint64(info.Size)), sink.Location()) //nolint:gosec // size is never negative
				return nil
			})
		},
	}
}

// NewBackupListCmd creates "backup list".
func NewBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			sink, err := backup.Open(cmd.Context(), configBackup())
			if err != nil {
				return err
			}
			infos, err := backup.List(cmd.Context(), sink)
			if err != nil {
				return err
			}
			if format != engine.OutputTable {
				if infos == nil {
					infos = []backup.Info{}
				}
				return engine.RenderJSON(cmd.OutOrStdout(), infos)
			}
			if len(infos) == 0 {
				cmd.Printf("No backups in %s\n", sink.Location())
				return nil
			}
			for _, info := range infos {
				cmd.Printf("%s\t%s\t%s\n", info.Name, humanize.Bytes(uint64(info.Size)), humanize.Time(info.CreatedAt)) //nolint:gosec // size is never negative
			}
			return nil
		},
	}
}

// NewBackupRestoreCmd creates "backup restore".
func NewBackupRestoreCmd() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "restore [name]",
		Short: "Restore an archive into an empty ledger",
		Long: `Copies every record in the archive into the configured store, keeping IDs,
timestamps and recorded impacts. The store must be empty; point
store.path (or CARBONLEDGER_STORE_PATH) at a fresh ledger first.`,
		Example: `  carbonledger backup restore --latest
  carbonledger backup restore ledger-01J0Z3K4M5N6P7Q8R9S0T1V2W3.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if latest == (len(args) == 1) {
				return errors.New("pass an archive name or --latest")
			}
			return withLedger(cmd, func(l *ledger) error {
				sink, err := backup.Open(cmd.Context(), l.cfg.Backup)
				if err != nil {
					return err
				}
				name := ""
				if len(args) == 1 {
					name = args[0]
				} else if name, err = backup.Latest(cmd.Context(), sink); err != nil {
					return err
				}

				archive, err := backup.Restore(cmd.Context(), sink, name, l.store)
				if err != nil {
					return fmt.Errorf("restoring %s: %w", name, err)
				}
				cmd.Printf("Restored %s activities and %s positive actions from %s\n",
					humanize.Comma(int64(len(archive.Ledger.Activities))),
					humanize.Comma(int64(len(archive.Ledger.PositiveActions))),
					name)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "restore the newest archive")
	return cmd
}
