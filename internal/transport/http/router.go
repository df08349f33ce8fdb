package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"campcli/internal/config"
	apierrors "campcli/internal/errors"
	"campcli/internal/infrastructure"
	"campcli/internal/middleware"
	"campcli/internal/services"
	"campcli/pkg/contracts/domain"
)

// RouterDeps holds everything the router mounts
type RouterDeps struct {
	Server   config.ServerConfig
	Defaults domain.IngestOptions

	Ingest   *services.IngestService
	Records  *services.RecordsService
	Planning *services.PlanningService
	Health   *services.HealthService

	Metrics *infrastructure.Metrics
	Tracer  trace.Tracer
	Logger  *slog.Logger
	// IncludeStack adds stack traces to 5xx problem details.
	IncludeStack bool
}

// NewRouter builds the HTTP API.
func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	errorHandler := apierrors.NewErrorHandler(logger, deps.IncludeStack)
	validator := middleware.NewValidator(logger)
	writes := semaphore.NewWeighted(1)

	r := chi.NewRouter()
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StripSlashes)
	if deps.Tracer != nil {
		r.Use(middleware.Tracing(deps.Tracer, deps.Metrics))
	}
	r.Use(middleware.StructuredLogger(logger))
	r.Use(apierrors.RecoveryMiddleware(errorHandler))
	r.Use(middleware.SecurityHeaders)
	if rl := deps.Server.RateLimit; rl.Enabled && rl.RPS > 0 {
		r.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst, logger).Handler)
	}

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		if deps.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(deps.Server.RequestTimeout))
		}

		health := NewHealthHandler(deps.Health, logger)
		r.Get("/health", health.HealthCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/health/live", health.LivenessCheck)
		r.Get("/version", health.Version)

		r.Route("/v1", func(r chi.Router) {
			if deps.Server.MaxUploadBytes > 0 {
				r.Use(middleware.MaxBodySize(deps.Server.MaxUploadBytes))
			}

			r.Mount("/imports", NewImportHandler(deps.Ingest, writes, deps.Defaults, validator, errorHandler, logger).Routes())
			r.Mount("/records", NewRecordsHandler(deps.Records, writes, validator, errorHandler, logger).Routes())
			r.Mount("/projects", NewPlanningHandler(deps.Planning, errorHandler, logger).Routes())
		})
	})

	return r
}
