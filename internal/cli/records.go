package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"campcli/internal/app"
	"campcli/internal/normalize"
	"campcli/internal/store"
	"campcli/pkg/contracts/domain"
)

// NewRecordsCommand creates the records command and its subcommands.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and maintain the capacity store",
		Long: `Inspect and maintain the capacity store.

Every command that changes the store copies it to its .bak file first
(unless storage.create_backup is off), so the last change can be undone
with "camp records restore".`,
	}

	cmd.AddCommand(newRecordsListCommand(rootOpts))
	cmd.AddCommand(newRecordsDeleteCommand(rootOpts))
	cmd.AddCommand(newRecordsClearCommand(rootOpts))
	cmd.AddCommand(newRecordsRestoreCommand(rootOpts))
	cmd.AddCommand(newRecordsExportCommand(rootOpts))
	return cmd
}

func newRecordsListCommand(rootOpts *RootOptions) *cobra.Command {
	var query store.Query

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored records, optionally filtered",
		Long: `List stored records in store order.

--query matches a case-insensitive substring of the rendered values; --column
limits the match to one of id, date, hours or capacity.

Examples:
  camp records list
  camp records list --query A1 --column id
  camp records list --query .04.2025 --column date`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				records, err := a.Records.List(ctx, query)
				if err != nil {
					return err
				}
				if records == nil {
					records = []domain.CapacityRecord{}
				}
				out := rootOpts.formatter(cmd)
				return out.Print(records, func(w io.Writer) error {
					if len(records) == 0 {
						_, err := fmt.Fprintln(w, "no records")
						return err
					}
					return out.Table(recordHeader, recordRows(records))
				})
			})
		},
	}

	cmd.Flags().StringVarP(&query.Text, "query", "q", "", "substring to search for")
	cmd.Flags().StringVar(&query.Column, "column", store.ColumnAll, "restrict the search to id|date|hours|capacity")
	return cmd
}

var recordHeader = []string{"ID", "DATUM", "STUNDEN", "KAPAZITÄT"}

func recordRows(records []domain.CapacityRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.EmployeeID,
			normalize.FormatDate(rec.Date),
			normalize.FormatDecimal(rec.Hours),
			normalize.FormatDecimal(rec.Capacity),
		})
	}
	return rows
}

func newRecordsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <employee> <date> [<employee> <date>...]",
		Short: "Delete records by employee and day",
		Long: `Delete records by employee and day. Dates accept every format the
importers read, DD.MM.YYYY and YYYY-MM-DD included.

Example:
  camp records delete A1 01.04.2025 B2 2025-04-02`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return NewExitError(ExitCommandError, "expected pairs of <employee> <date>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseRecordKeys(args)
			if err != nil {
				return err
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				removed, err := a.Records.Delete(ctx, keys)
				if err != nil {
					return err
				}
				result := map[string]int{"requested": len(keys), "removed": removed}
				return rootOpts.formatter(cmd).Print(result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "removed %d of %d record(s)\n", removed, len(keys))
					return err
				})
			})
		},
	}
}

func parseRecordKeys(args []string) ([]domain.RecordKey, error) {
	keys := make([]domain.RecordKey, 0, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		date, err := normalize.ParseDate(args[i+1])
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid date for %s", args[i]), err)
		}
		keys = append(keys, domain.NewRecordKey(args[i], date))
	}
	return keys, nil
}

func newRecordsClearCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every record from the store",
		Long: `Remove every record from the store. The store is copied to its .bak
file first, so "camp records restore" brings the records back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return NewExitError(ExitCommandError, "refusing to clear the store without --force")
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				result, err := a.Records.Clear(ctx)
				if err != nil {
					return err
				}
				out := rootOpts.formatter(cmd)
				out.Warnings("clear", result.Warnings)
				return out.Print(result, func(w io.Writer) error {
					msg := "store cleared"
					if result.BackedUp {
						msg += ", previous content saved to " + a.Store.BackupPath()
					}
					_, err := fmt.Fprintln(w, msg)
					return err
				})
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm clearing the store")
	return cmd
}

func newRecordsRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Replace the store with its backup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				if err := a.Records.Restore(ctx); err != nil {
					return err
				}
				result := map[string]string{"restored_from": a.Store.BackupPath()}
				return rootOpts.formatter(cmd).Print(result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "store restored from %s\n", a.Store.BackupPath())
					return err
				})
			})
		},
	}
}

func newRecordsExportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export [destination]",
		Short: "Copy the store to a file",
		Long: `Copy the store, in its canonical format, to destination. Without a
destination the copy is written to the export directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dst string
			if len(args) == 1 {
				dst = args[0]
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				path, err := a.Records.Export(ctx, dst)
				if err != nil {
					return err
				}
				result := map[string]string{"path": path}
				return rootOpts.formatter(cmd).Print(result, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "exported to %s\n", path)
					return err
				})
			})
		},
	}
}
