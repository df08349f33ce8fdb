package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"campcli/internal/config"
	"campcli/internal/dataprocessing"
	"campcli/internal/exporter"
	"campcli/internal/files"
	"campcli/internal/infrastructure"
	"campcli/internal/services"
	"campcli/internal/store"
	handlers "campcli/internal/transport/http"
	"campcli/internal/validation"
	"campcli/pkg/contracts"
	"campcli/pkg/contracts/domain"
)

// Options tune how New wires the application.
type Options struct {
	// Logger replaces the global logger built from the logging config.
	Logger *slog.Logger
	// TraceOutput receives exported spans when tracing is enabled; nil means stderr.
	TraceOutput io.Writer
	// RuntimeMetrics adds the Go runtime and process collectors.
	RuntimeMetrics bool
}

// Application represents the main application container
type Application struct {
	Config  *config.Config
	Paths   *config.Paths
	Logger  *slog.Logger
	OTel    *infrastructure.OTelProviders
	Metrics *infrastructure.Metrics

	Store    *store.Store
	Ingest   *services.IngestService
	Records  *services.RecordsService
	Planning *services.PlanningService
	Health   *services.HealthService

	Router *chi.Mux
	Server *http.Server

	listener net.Listener
	serveErr chan error
}

// New wires every component from cfg. The HTTP server is created but not
// started; CLI commands use the services directly.
func New(cfg *config.Config, opts Options) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	paths, err := config.NewPaths(cfg.Storage, cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: contracts.Version,
		EnableTracing:  cfg.Telemetry.TracingEnabled,
		Output:         opts.TraceOutput,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		OTel:    otelProviders,
		Metrics: infrastructure.NewMetrics(opts.RuntimeMetrics),
	}
	a.initializeServices()
	a.setupRouter()
	a.createServer()

	logger.Debug("Application initialized",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))
	return a, nil
}

// initializeServices builds the store and the services on top of it
func (a *Application) initializeServices() {
	fm := files.NewManager(a.Paths, a.Logger)
	a.Store = store.New(a.Paths.StoreFile, a.Paths.BackupFile, fm, a.Logger)
	validator := validation.NewFileValidator(a.Logger, a.Config.Import.MaxFileSize)

	a.Ingest = services.NewIngestService(services.IngestDeps{
		Store:     a.Store,
		Pipeline:  dataprocessing.NewPipeline(a.Logger, a.Config.Import.SampleRows),
		Validator: validator,
		Discovery: files.NewDiscovery(""),
		Tracer:    a.OTel.Tracer,
		Metrics:   a.Metrics,
		Logger:    a.Logger,
	})
	a.Records = services.NewRecordsService(a.Store, a.Paths, validator, a.Metrics,
		a.Config.Storage.CreateBackup, a.Logger)
	a.Planning = services.NewPlanningService(a.Store, a.Paths.ProjectFile,
		exporter.NewSprintExporter(exporter.NewCSVWriter(a.Paths, a.Logger)),
		a.Config.Planning.StoryPointFactor, a.Logger)
	a.Health = services.NewHealthService(contracts.Version, a.Paths, a.Logger)
}

// IngestDefaults returns the ingestion options configured for this installation.
func (a *Application) IngestDefaults() domain.IngestOptions {
	return domain.IngestOptions{
		OverwriteExisting: a.Config.Import.OverwriteExisting,
		CreateBackup:      a.Config.Storage.CreateBackup,
		ForecastOnly:      a.Config.Import.ForecastOnly,
	}
}

func (a *Application) setupRouter() {
	a.Router = handlers.NewRouter(handlers.RouterDeps{
		Server:       a.Config.Server,
		Defaults:     a.IngestDefaults(),
		Ingest:       a.Ingest,
		Records:      a.Records,
		Planning:     a.Planning,
		Health:       a.Health,
		Metrics:      a.Metrics,
		Tracer:       a.OTel.Tracer,
		Logger:       a.Logger,
		IncludeStack: a.Config.Logging.Level == "debug",
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Addr returns the address the server listens on, or the configured
// address before Start.
func (a *Application) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.Server.Addr
}

// Start binds the listen address and serves in the background. A serve
// failure after the bind calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln
	a.serveErr = make(chan error, 1)

	a.Logger.InfoContext(ctx, "Starting server",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Addr()),
		slog.String("store_file", a.Paths.StoreFile))

	go func() {
		err := a.Server.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
			cancel()
		}
		close(a.serveErr)
	}()

	a.performStartupHealthCheck(ctx)
	return nil
}

// Stop shuts the server down gracefully and releases telemetry resources.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down server")

	shutdownCtx := ctx
	if timeout := a.Config.Server.ShutdownTimeout; timeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if a.serveErr != nil {
		if err := <-a.serveErr; err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	a.Logger.InfoContext(ctx, "Shutdown complete")
	return errors.Join(errs...)
}

// Close flushes spans and writes the metrics textfile when one is
// configured. CLI commands call it once their work is done.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if err := a.OTel.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if path := a.Config.Telemetry.MetricsFile; path != "" {
		if err := a.Metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics file: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Run serves until ctx is done or SIGINT/SIGTERM arrives.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}
	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	return a.Stop(context.Background())
}

// performStartupHealthCheck logs readiness problems without failing startup.
func (a *Application) performStartupHealthCheck(ctx context.Context) {
	status := a.Health.ReadinessCheck(ctx)
	if status.Status == "ready" {
		a.Logger.InfoContext(ctx, "Startup health check passed")
		return
	}

	var warnings []string
	for name, check := range status.Checks {
		if check.Status != "ready" {
			warnings = append(warnings, fmt.Sprintf("%s: %s", name, check.Message))
		}
	}
	a.Logger.WarnContext(ctx, "Startup health check warnings",
		slog.String("warnings", strings.Join(warnings, "; ")))
}
