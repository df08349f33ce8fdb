package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/semaphore"

	apierrors "campcli/internal/errors"
	"campcli/internal/middleware"
	"campcli/internal/services"
	"campcli/pkg/contracts/domain"
)

// multipartMemory is the part of an upload kept in memory before
// spilling to a temporary file.
const multipartMemory = 8 << 20

// importRequest holds the form fields of an upload
type importRequest struct {
	Filename          string `json:"file" validate:"required,filename"`
	EmployeeID        string `json:"employee_id" validate:"omitempty,employee"`
	OverwriteExisting bool   `json:"overwrite_existing"`
	CreateBackup      bool   `json:"create_backup"`
	ForecastOnly      bool   `json:"forecast_only"`
}

// ImportHandler accepts uploaded time-tracking exports
type ImportHandler struct {
	service      *services.IngestService
	guard        *semaphore.Weighted
	defaults     domain.IngestOptions
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewImportHandler creates an import handler. defaults seeds the options a
// request does not set; guard serializes store writes.
func NewImportHandler(service *services.IngestService, guard *semaphore.Weighted, defaults domain.IngestOptions, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		service:      service,
		guard:        guard,
		defaults:     defaults,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("handler", "import")),
	}
}

// Routes returns the import routes
func (h *ImportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/", h.Import)
	return r
}

// Import handles POST /api/v1/imports. The file is expected in the "file"
// field; options are optional boolean form fields.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, tooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("file", err))
		return
	}
	defer file.Close()

	req, err := h.parseRequest(r, filepath.Base(header.Filename))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if !h.guard.TryAcquire(1) {
		h.errorHandler.HandleError(w, r, apierrors.ErrImportInProgress)
		return
	}
	defer h.guard.Release(1)

	h.logger.InfoContext(r.Context(), "import received",
		slog.String("file", req.Filename),
		slog.Int("bytes", len(data)),
		slog.String("request_id", middleware.GetRequestID(r.Context())))

	result, err := h.service.IngestData(r.Context(), req.Filename, data, domain.IngestOptions{
		OverwriteExisting: req.OverwriteExisting,
		CreateBackup:      req.CreateBackup,
		ForecastOnly:      req.ForecastOnly,
		EmployeeID:        req.EmployeeID,
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *ImportHandler) parseRequest(r *http.Request, filename string) (*importRequest, error) {
	req := &importRequest{
		Filename:          filename,
		EmployeeID:        r.FormValue("employee_id"),
		OverwriteExisting: h.defaults.OverwriteExisting,
		CreateBackup:      h.defaults.CreateBackup,
		ForecastOnly:      h.defaults.ForecastOnly,
	}
	flags := []struct {
		name   string
		target *bool
	}{
		{"overwrite_existing", &req.OverwriteExisting},
		{"create_backup", &req.CreateBackup},
		{"forecast_only", &req.ForecastOnly},
	}
	for _, f := range flags {
		raw := r.FormValue(f.name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apierrors.InvalidParameter(f.name, err)
		}
		*f.target = value
	}
	return req, nil
}
