package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/semaphore"

	apierrors "campcli/internal/errors"
	"campcli/internal/middleware"
	"campcli/internal/normalize"
	"campcli/internal/services"
	"campcli/internal/store"
	"campcli/pkg/contracts/domain"
)

// recordKeyRequest names one record by employee and date. The date accepts
// every format the importers read, DD.MM.YYYY and ISO included.
type recordKeyRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,employee"`
	Date       string `json:"date" validate:"required"`
}

// deleteRecordsRequest is the body of DELETE /api/v1/records
type deleteRecordsRequest struct {
	Keys []recordKeyRequest `json:"keys" validate:"required,min=1,dive"`
}

// recordsQuery is the query string of GET /api/v1/records
type recordsQuery struct {
	Text   string `json:"q" validate:"max=256"`
	Column string `json:"column" validate:"omitempty,oneof=id date hours capacity"`
}

// RecordsHandler exposes the stored capacity records
type RecordsHandler struct {
	service      *services.RecordsService
	guard        *semaphore.Weighted
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewRecordsHandler creates a records handler sharing guard with imports.
func NewRecordsHandler(service *services.RecordsService, guard *semaphore.Weighted, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *RecordsHandler {
	return &RecordsHandler{
		service:      service,
		guard:        guard,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "records")),
	}
}

// Routes returns the record routes
func (h *RecordsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/export", h.Export)
	r.Group(func(r chi.Router) {
		r.Use(h.writeGuard)
		r.Delete("/", h.Delete)
		r.Post("/clear", h.Clear)
		r.Post("/restore", h.Restore)
	})
	return r
}

// writeGuard rejects a write while another store write is running.
func (h *RecordsHandler) writeGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.guard.TryAcquire(1) {
			h.errorHandler.HandleError(w, r, apierrors.ErrImportInProgress)
			return
		}
		defer h.guard.Release(1)
		next.ServeHTTP(w, r)
	})
}

// List handles GET /api/v1/records?q=&column=
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := recordsQuery{
		Text:   r.URL.Query().Get("q"),
		Column: r.URL.Query().Get("column"),
	}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	records, err := h.service.List(r.Context(), store.Query{Text: query.Text, Column: query.Column})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.CapacityRecord{}
	}
	render.JSON(w, r, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// Delete handles DELETE /api/v1/records
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRecordsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	keys := make([]domain.RecordKey, 0, len(req.Keys))
	for _, k := range req.Keys {
		date, err := normalize.ParseDate(k.Date)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("date", err))
			return
		}
		keys = append(keys, domain.NewRecordKey(k.EmployeeID, date))
	}

	removed, err := h.service.Delete(r.Context(), keys)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"requested": len(keys),
		"removed":   removed,
	})
}

// Clear handles POST /api/v1/records/clear
func (h *RecordsHandler) Clear(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Clear(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "store cleared over http",
		slog.String("request_id", middleware.GetRequestID(r.Context())))
	render.JSON(w, r, map[string]interface{}{
		"cleared":   true,
		"backed_up": result.BackedUp,
		"warnings":  result.Warnings,
	})
}

// Restore handles POST /api/v1/records/restore
func (h *RecordsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Restore(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]interface{}{"restored": true})
}

// Export handles GET /api/v1/records/export and streams the store in its
// canonical file format.
func (h *RecordsHandler) Export(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context(), store.Query{})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	data, err := store.Render(records)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.DefaultExportName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed", slog.String("error", err.Error()))
	}
}
