package cli

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"campcli/internal/app"
	"campcli/internal/config"
	"campcli/pkg/contracts"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile  string
	MetricsFile string
	Format      string // "text" | "json"
	Verbose     bool

	// logger replaces the configured logger; set by tests.
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of the camp CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "camp",
		Short: "Team capacity ingestion and sprint planning",
		Long: `camp ingests time-tracking exports (CSV, Excel workbooks, SAP HTML/MIME
dumps) into a local capacity store and derives sprint totals and daily
capacity grids from it.`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}
	cmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default camp.yaml or configs/camp.yaml)")
	cmd.PersistentFlags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging and per-row warnings")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))
	cmd.AddCommand(NewSprintCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// loadConfig reads the config file and environment and applies the global
// flag overrides.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.MetricsFile != "" {
		cfg.Telemetry.MetricsFile = o.MetricsFile
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// newApp builds the application for one command.
func (o *RootOptions) newApp(cfg *config.Config, runtimeMetrics bool) (*app.Application, error) {
	application, err := app.New(cfg, app.Options{Logger: o.logger, RuntimeMetrics: runtimeMetrics})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to initialize", err)
	}
	return application, nil
}

// withApp runs fn against a freshly wired application and closes it
// afterwards, so spans and the metrics textfile are flushed even when fn
// fails.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.Application) error) (err error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	application, err := o.newApp(cfg, false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if cerr := application.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, application)
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
