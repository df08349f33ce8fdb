package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "campcli/internal/errors"
	"campcli/internal/exporter"
	"campcli/internal/services"
)

type sprintRefKey struct{}

// PlanningHandler serves sprint aggregates
type PlanningHandler struct {
	service      *services.PlanningService
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewPlanningHandler creates a planning handler
func NewPlanningHandler(service *services.PlanningService, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *PlanningHandler {
	return &PlanningHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "planning")),
	}
}

// Routes returns the sprint routes, mounted under /projects
func (h *PlanningHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{project}/sprints/{sprint}", func(r chi.Router) {
		r.Use(h.SprintCtx)
		r.Get("/totals", h.Totals)
		r.Get("/grid", h.Grid)
		r.Get("/summary", h.Summary)
	})
	return r
}

// SprintCtx middleware validates the path parameters and stores the
// sprint reference in the request context.
func (h *PlanningHandler) SprintCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ref := services.SprintRef{
			Project: chi.URLParam(r, "project"),
			Sprint:  chi.URLParam(r, "sprint"),
		}
		if ref.Project == "" || ref.Sprint == "" {
			h.errorHandler.HandleError(w, r, apierrors.ErrMissingParameter)
			return
		}
		ctx := context.WithValue(r.Context(), sprintRefKey{}, ref)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sprintRef(r *http.Request) services.SprintRef {
	ref, _ := r.Context().Value(sprintRefKey{}).(services.SprintRef)
	return ref
}

// Totals handles GET .../totals. With ?format=csv the report is returned
// as the same CSV the exporter writes.
func (h *PlanningHandler) Totals(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Totals(r.Context(), sprintRef(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if wantsCSV(r) {
		h.writeCSV(w, r, exporter.WriteOptions{
			Headers:   exporter.TotalsHeader,
			Records:   exporter.TotalsRecords(report.Window, report.Totals),
			BOMPrefix: true,
		})
		return
	}
	render.JSON(w, r, report)
}

// Grid handles GET .../grid. ?format=csv is supported as for totals.
func (h *PlanningHandler) Grid(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Grid(r.Context(), sprintRef(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if wantsCSV(r) {
		h.writeCSV(w, r, exporter.WriteOptions{
			Headers:   exporter.GridHeader(report.Window),
			Records:   exporter.GridRecords(report.Window, report.Grid),
			BOMPrefix: true,
		})
		return
	}
	render.JSON(w, r, report)
}

// Summary handles GET .../summary
func (h *PlanningHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), sprintRef(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

func wantsCSV(r *http.Request) bool {
	return r.URL.Query().Get("format") == "csv"
}

func (h *PlanningHandler) writeCSV(w http.ResponseWriter, r *http.Request, opts exporter.WriteOptions) {
	data, err := exporter.Render(opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WarnContext(r.Context(), "report write failed", slog.String("error", err.Error()))
	}
}
