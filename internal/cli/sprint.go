package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"campcli/internal/app"
	"campcli/internal/exporter"
	"campcli/internal/normalize"
	"campcli/internal/services"
	"campcli/pkg/contracts/domain"
)

// SprintOptions selects the window of the sprint commands: a sprint of the
// project document, or an ad-hoc range with an explicit roster.
type SprintOptions struct {
	Project string
	Sprint  string
	Start   string
	End     string
	Members []string

	Export bool
	Output string
}

// NewSprintCommand creates the sprint command and its subcommands.
func NewSprintCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SprintOptions{}

	cmd := &cobra.Command{
		Use:   "sprint",
		Short: "Sprint capacity reports",
		Long: `Aggregate stored capacity over a sprint.

The sprint is either looked up in the project document (--project and
--sprint) or given directly (--start, --end and one --member per roster
entry). Every roster member appears in the reports, with zero sums when
nothing is stored for them.

Examples:
  camp sprint totals --project Apollo --sprint "Sprint 14"
  camp sprint grid --start 01.04.2025 --end 14.04.2025 --member A1 --member B2
  camp sprint totals --project Apollo --sprint "Sprint 14" --export`,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.Project, "project", "p", "", "project name in the project document")
	flags.StringVarP(&opts.Sprint, "sprint", "s", "", "sprint name within the project")
	flags.StringVar(&opts.Start, "start", "", "first day of an ad-hoc window")
	flags.StringVar(&opts.End, "end", "", "last day of an ad-hoc window")
	flags.StringSliceVarP(&opts.Members, "member", "m", nil, "roster member of an ad-hoc window (repeatable)")

	cmd.AddCommand(newSprintReportCommand(rootOpts, opts, services.ReportTotals,
		"Hours and capacity per roster member"))
	cmd.AddCommand(newSprintReportCommand(rootOpts, opts, services.ReportGrid,
		"Daily hours per roster member"))
	cmd.AddCommand(newSprintSummaryCommand(rootOpts, opts))
	return cmd
}

// ref turns the flags into a sprint reference.
func (o *SprintOptions) ref() (services.SprintRef, error) {
	adHoc := o.Start != "" || o.End != "" || len(o.Members) > 0
	switch {
	case o.Project != "" && adHoc:
		return services.SprintRef{}, NewExitError(ExitCommandError,
			"use either --project/--sprint or --start/--end/--member, not both")
	case o.Project != "":
		if o.Sprint == "" {
			return services.SprintRef{}, NewExitError(ExitCommandError, "--sprint is required with --project")
		}
		return services.SprintRef{Project: o.Project, Sprint: o.Sprint}, nil
	case o.Start == "" || o.End == "":
		return services.SprintRef{}, NewExitError(ExitCommandError,
			"a sprint needs --project and --sprint, or --start and --end")
	}

	start, err := normalize.ParseDate(o.Start)
	if err != nil {
		return services.SprintRef{}, WrapExitError(ExitCommandError, "invalid --start", err)
	}
	end, err := normalize.ParseDate(o.End)
	if err != nil {
		return services.SprintRef{}, WrapExitError(ExitCommandError, "invalid --end", err)
	}
	return services.SprintRef{Window: domain.SprintWindow{
		Start:  start,
		End:    end,
		Roster: o.Members,
	}}, nil
}

func newSprintReportCommand(rootOpts *RootOptions, opts *SprintOptions, kind, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := opts.ref()
			if err != nil {
				return err
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				out := rootOpts.formatter(cmd)
				if opts.Export {
					return exportReport(ctx, out, a, ref, kind, opts.Output)
				}
				if kind == services.ReportGrid {
					return printGrid(ctx, out, a, ref)
				}
				return printTotals(ctx, out, a, ref)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Export, "export", false, "write the report as CSV into the export directory")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "report file name or path (with --export)")
	return cmd
}

func exportReport(ctx context.Context, out *OutputFormatter, a *app.Application, ref services.SprintRef, kind, name string) error {
	path, err := a.Planning.Export(ctx, ref, kind, name)
	if err != nil {
		return err
	}
	return out.Print(map[string]string{"path": path}, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s report written to %s\n", kind, path)
		return err
	})
}

func printTotals(ctx context.Context, out *OutputFormatter, a *app.Application, ref services.SprintRef) error {
	report, err := a.Planning.Totals(ctx, ref)
	if err != nil {
		return err
	}
	return out.Print(report, func(w io.Writer) error {
		return out.Table(exporter.TotalsHeader, exporter.TotalsRecords(report.Window, report.Totals))
	})
}

func printGrid(ctx context.Context, out *OutputFormatter, a *app.Application, ref services.SprintRef) error {
	report, err := a.Planning.Grid(ctx, ref)
	if err != nil {
		return err
	}
	return out.Print(report, func(w io.Writer) error {
		rows := exporter.GridRecords(report.Window, report.Grid)
		for _, row := range rows {
			for i := 1; i < len(row); i++ {
				if row[i] == "" {
					row[i] = "-"
				}
			}
		}
		return out.Table(exporter.GridHeader(report.Window), rows)
	})
}

func newSprintSummaryCommand(rootOpts *RootOptions, opts *SprintOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Team capacity and story point estimate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := opts.ref()
			if err != nil {
				return err
			}
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.Application) error {
				summary, err := a.Planning.Summary(ctx, ref)
				if err != nil {
					return err
				}
				return rootOpts.formatter(cmd).Print(summary, func(w io.Writer) error {
					return printSummary(w, summary)
				})
			})
		},
	}
}

func printSummary(w io.Writer, s *domain.SprintSummary) error {
	name := s.Sprint
	if name == "" {
		name = "ad-hoc window"
	}
	lines := []string{
		fmt.Sprintf("sprint:          %s (%s - %s)", name, normalize.FormatDate(s.Start), normalize.FormatDate(s.End)),
		fmt.Sprintf("members:         %d", s.Members),
		fmt.Sprintf("hours:           %s", normalize.FormatDecimal(s.TotalHours)),
		fmt.Sprintf("capacity:        %s", normalize.FormatDecimal(s.TotalCapacity)),
		fmt.Sprintf("story points:    %s (factor %s)", s.EstimatedStoryPoints.StringFixed(2), s.Factor.String()),
	}
	if s.ConfirmedStoryPoints != nil {
		lines = append(lines, fmt.Sprintf("confirmed:       %g", *s.ConfirmedStoryPoints))
	}
	if s.DeliveredStoryPoints != nil {
		lines = append(lines, fmt.Sprintf("delivered:       %g", *s.DeliveredStoryPoints))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
