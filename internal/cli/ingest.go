package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"campcli/internal/app"
	"campcli/internal/services"
	"campcli/pkg/contracts/domain"
)

// IngestOptions holds the flags of the ingest command. Unset flags fall
// back to the import section of the config.
type IngestOptions struct {
	Overwrite    bool
	Backup       bool
	ForecastOnly bool
	Employee     string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest <file-or-dir>...",
		Short: "Import time-tracking exports into the capacity store",
		Long: `Import one or more time-tracking exports into the capacity store.

Directories are expanded to the import files they contain, oldest first,
so a newer export wins when two files report the same employee and day.
A file that cannot be parsed is reported and skipped; the store is never
written from a file with a structural error.

Examples:
  # Import a single export
  camp ingest hours.csv

  # Import every export of a directory without touching existing days
  camp ingest --overwrite=false exports/

  # Import a personal timesheet for one member
  camp ingest --employee A1 timesheet.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				return runIngest(ctx, cmd, rootOpts, opts, a, args)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", true, "replace stored values for days already present")
	cmd.Flags().BoolVar(&opts.Backup, "backup", true, "copy the store to its .bak file before writing")
	cmd.Flags().BoolVar(&opts.ForecastOnly, "forecast-only", false, "import only rows marked as forecast")
	cmd.Flags().StringVarP(&opts.Employee, "employee", "e", "", "assign every row to this member (timesheet mode)")

	return cmd
}

// ingestOptions merges the flags the user set over the configured defaults.
func (o *IngestOptions) ingestOptions(cmd *cobra.Command, defaults domain.IngestOptions) domain.IngestOptions {
	opts := defaults
	flags := cmd.Flags()
	if flags.Changed("overwrite") {
		opts.OverwriteExisting = o.Overwrite
	}
	if flags.Changed("backup") {
		opts.CreateBackup = o.Backup
	}
	if flags.Changed("forecast-only") {
		opts.ForecastOnly = o.ForecastOnly
	}
	opts.EmployeeID = o.Employee
	return opts
}

func runIngest(ctx context.Context, cmd *cobra.Command, rootOpts *RootOptions, opts *IngestOptions, a *app.Application, inputs []string) error {
	out := rootOpts.formatter(cmd)
	ingestOpts := opts.ingestOptions(cmd, a.IngestDefaults())
	out.VerboseLog("store: %s", a.Paths.StoreFile)

	batch, err := a.Ingest.IngestBatch(ctx, inputs, ingestOpts)
	if batch == nil {
		return err
	}

	for _, result := range batch.Results {
		out.Warnings(result.Source, result.Warnings)
	}
	for _, failure := range batch.Failures {
		out.Warnings(filepath.Base(failure.Path), services.ErrorWarnings(failure.Err))
		fmt.Fprintf(out.ErrWriter, "failed: %v\n", failure.Err)
	}

	printErr := out.Print(batchView(batch), func(w io.Writer) error {
		return printBatch(w, batch)
	})
	if err != nil {
		return err
	}
	if printErr != nil {
		return printErr
	}
	if ferr := batch.Err(); ferr != nil {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("%d of %d file(s) failed", len(batch.Failures), len(batch.Failures)+len(batch.Results)), ferr)
	}
	return nil
}

type batchFailureView struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type batchOutput struct {
	Results  []*domain.IngestResult `json:"results"`
	Failures []batchFailureView     `json:"failures,omitempty"`
}

// batchView gives failures a printable error for JSON output.
func batchView(batch *services.BatchResult) batchOutput {
	view := batchOutput{Results: batch.Results}
	if view.Results == nil {
		view.Results = []*domain.IngestResult{}
	}
	for _, f := range batch.Failures {
		view.Failures = append(view.Failures, batchFailureView{Path: f.Path, Error: f.Err.Error()})
	}
	return view
}

func printBatch(w io.Writer, batch *services.BatchResult) error {
	for _, r := range batch.Results {
		if _, err := fmt.Fprintf(w, "%s: %s, %d extracted, %d written (%d new, %d updated, %d unchanged), %d warning(s)\n",
			r.Source, r.Format, r.Extracted, r.RecordsWritten,
			r.Inserted, r.Updated, r.Unchanged, len(r.Warnings)); err != nil {
			return err
		}
	}
	return nil
}
