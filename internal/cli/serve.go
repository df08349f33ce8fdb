package cli

import (
	"github.com/spf13/cobra"
)

// ServeOptions override the server section of the config.
type ServeOptions struct {
	Host string
	Port int
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the local HTTP API until interrupted.

Routes:
  POST   /api/v1/imports                                   upload an export
  GET    /api/v1/records                                   list or search records
  DELETE /api/v1/records                                   delete records by key
  POST   /api/v1/records/clear, /api/v1/records/restore
  GET    /api/v1/records/export                            store as CSV
  GET    /api/v1/projects/{project}/sprints/{sprint}/totals|grid|summary
  GET    /api/health, /api/health/ready, /api/health/live, /api/version
  GET    /metrics

The server listens on 127.0.0.1 unless configured otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = opts.Host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = opts.Port
			}

			application, err := rootOpts.newApp(cfg, true)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "listen port (default from config)")
	return cmd
}
