package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"campcli/internal/dataprocessing"
	apierrors "campcli/internal/errors"
	"campcli/internal/files"
	"campcli/internal/infrastructure"
	"campcli/internal/store"
	"campcli/internal/validation"
	"campcli/pkg/contracts/domain"
)

// Run outcomes used as metric labels.
const (
	runSuccess = "success"
	runFailed  = "failed"
)

// IngestService turns time-tracking exports into capacity records and
// merges them into the store
type IngestService struct {
	store     *store.Store
	pipeline  *dataprocessing.Pipeline
	validator *validation.FileValidator
	discovery *files.Discovery
	tracer    trace.Tracer
	metrics   *infrastructure.Metrics
	logger    *slog.Logger
}

// IngestDeps holds the collaborators of an IngestService. Tracer and
// Metrics are optional.
type IngestDeps struct {
	Store     *store.Store
	Pipeline  *dataprocessing.Pipeline
	Validator *validation.FileValidator
	Discovery *files.Discovery
	Tracer    trace.Tracer
	Metrics   *infrastructure.Metrics
	Logger    *slog.Logger
}

// NewIngestService creates an ingest service.
func NewIngestService(deps IngestDeps) *IngestService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(infrastructure.TracerName)
	}
	discovery := deps.Discovery
	if discovery == nil {
		discovery = files.NewDiscovery("")
	}
	return &IngestService{
		store:     deps.Store,
		pipeline:  deps.Pipeline,
		validator: deps.Validator,
		discovery: discovery,
		tracer:    tracer,
		metrics:   deps.Metrics,
		logger:    logger.With(slog.String("component", "ingest_service")),
	}
}

// Ingest reads the file at path and merges its records into the store.
// Row-level problems are returned as warnings; structural problems are
// returned as errors and leave the store untouched. An input whose rows are
// all rejected is structural and fails with ErrNoRecords.
func (s *IngestService) Ingest(ctx context.Context, path string, opts domain.IngestOptions) (*domain.IngestResult, error) {
	if err := s.validator.ValidateImportFile(path); err != nil {
		s.metrics.RecordRun("", runFailed)
		return nil, classifyIngestError(filepath.Base(path), err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.metrics.RecordRun("", runFailed)
		return nil, classifyIngestError(filepath.Base(path), err)
	}
	return s.IngestData(ctx, path, data, opts)
}

// IngestData merges the records of an in-memory input. name is used for
// extension hints and in warnings.
func (s *IngestService) IngestData(ctx context.Context, name string, data []byte, opts domain.IngestOptions) (result *domain.IngestResult, err error) {
	ctx, runID := infrastructure.EnsureTraceID(ctx)
	source := filepath.Base(name)
	started := time.Now()

	ctx, span := s.tracer.Start(ctx, "ingest", trace.WithAttributes(
		attribute.String("camp.run_id", runID),
		attribute.String("camp.source", source),
		attribute.Int("camp.input_bytes", len(data)),
	))
	defer span.End()

	format := ""
	defer func() {
		s.metrics.ObserveStage("total", started)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.metrics.RecordRun(format, runFailed)
			s.logger.ErrorContext(ctx, "ingestion failed",
				slog.String("source", source),
				slog.String("error", err.Error()))
			return
		}
		s.metrics.RecordRun(format, runSuccess)
	}()

	if err := s.validator.ValidateOptions(opts); err != nil {
		return nil, apierrors.NewAppError(apierrors.ErrTypeValidation, "invalid ingest options", err).
			WithContext("source", source)
	}
	if err := s.validator.ValidateSize(int64(len(data))); err != nil {
		return nil, classifyIngestError(source, err)
	}

	s.logger.InfoContext(ctx, "ingestion started",
		slog.String("source", source),
		slog.Bool("overwrite", opts.OverwriteExisting),
		slog.Bool("forecast_only", opts.ForecastOnly),
		slog.String("employee", opts.EmployeeID))

	extraction, err := s.extract(ctx, name, data, opts)
	if err != nil {
		return nil, classifyIngestError(source, err)
	}
	format = string(extraction.Format)

	var warnings dataprocessing.Warnings
	warnings.Append(extraction.Warnings...)
	records := dataprocessing.BuildRecords(extraction.Rows, &warnings)
	s.metrics.AddRows("extracted", len(extraction.Rows))
	s.metrics.AddRows("skipped", len(extraction.Rows)-len(records))

	result = &domain.IngestResult{
		RunID:     runID,
		Source:    source,
		Format:    format,
		Encoding:  extraction.Encoding,
		Extracted: len(extraction.Rows),
	}

	if len(records) == 0 {
		return nil, noRecordsError(source, warnings.List())
	}

	merged, stats, err := s.merge(ctx, records, opts)
	if err != nil {
		return nil, storageError("read", err)
	}

	saved, err := s.save(ctx, merged, opts)
	if err != nil {
		return nil, storageError("write", err)
	}
	warnings.Append(saved.Warnings...)

	result.RecordsWritten = stats.Written()
	result.Inserted = stats.Inserted
	result.Updated = stats.Updated
	result.Unchanged = stats.Unchanged
	result.Warnings = warnings.List()

	s.metrics.AddRows("inserted", stats.Inserted)
	s.metrics.AddRows("updated", stats.Updated)
	s.metrics.AddRows("unchanged", stats.Unchanged)
	s.metrics.AddRows("kept", stats.Kept)
	s.metrics.SetStoreRecords(saved.Records)

	span.SetAttributes(
		attribute.String("camp.format", format),
		attribute.Int("camp.records_written", result.RecordsWritten),
		attribute.Int("camp.warnings", len(result.Warnings)),
	)
	s.logger.InfoContext(ctx, "ingestion completed",
		slog.String("source", source),
		slog.String("format", format),
		slog.Int("extracted", result.Extracted),
		slog.Int("inserted", stats.Inserted),
		slog.Int("updated", stats.Updated),
		slog.Int("unchanged", stats.Unchanged),
		slog.Int("kept", stats.Kept),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("warnings", len(result.Warnings)),
		slog.Int("store_records", saved.Records),
		slog.Duration("duration", time.Since(started)))
	return result, nil
}

func (s *IngestService) extract(ctx context.Context, name string, data []byte, opts domain.IngestOptions) (*dataprocessing.Extraction, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.extract")
	defer span.End()
	defer s.metrics.ObserveStage("extract", time.Now())

	extraction, err := s.pipeline.Extract(ctx, name, data, dataprocessing.ExtractOptions{
		ForecastOnly: opts.ForecastOnly,
		EmployeeID:   opts.EmployeeID,
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("camp.format", string(extraction.Format)),
		attribute.String("camp.strategy", extraction.Strategy),
		attribute.String("camp.encoding", extraction.Encoding),
		attribute.Int("camp.rows", len(extraction.Rows)),
	)
	return extraction, nil
}

func (s *IngestService) merge(ctx context.Context, records []domain.CapacityRecord, opts domain.IngestOptions) ([]domain.CapacityRecord, store.MergeStats, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.merge")
	defer span.End()
	defer s.metrics.ObserveStage("merge", time.Now())

	existing, err := s.store.Load(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, store.MergeStats{}, err
	}
	merged, stats := store.Upsert(existing, records, opts.OverwriteExisting)
	span.SetAttributes(
		attribute.Int("camp.existing", len(existing)),
		attribute.Int("camp.merged", len(merged)),
	)
	return merged, stats, nil
}

func (s *IngestService) save(ctx context.Context, records []domain.CapacityRecord, opts domain.IngestOptions) (*store.SaveResult, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.save")
	defer span.End()
	defer s.metrics.ObserveStage("save", time.Now())

	saved, err := s.store.Save(ctx, records, store.SaveOptions{Backup: opts.CreateBackup})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, err
	}
	span.SetAttributes(attribute.Bool("camp.backed_up", saved.BackedUp))
	return saved, nil
}

// BatchFailure is one input of a batch that could not be ingested
type BatchFailure struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// BatchResult collects the outcome of IngestBatch
type BatchResult struct {
	Results  []*domain.IngestResult `json:"results"`
	Failures []BatchFailure         `json:"failures,omitempty"`
}

// Err joins the failures, or returns nil when every file was ingested.
func (b *BatchResult) Err() error {
	if len(b.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(b.Failures))
	for _, f := range b.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// IngestBatch ingests files and directories in order. Directories expand to
// their import files oldest first, so later files win on merge-key
// conflicts. A file that fails to parse is recorded and skipped; a storage
// failure stops the batch.
func (s *IngestService) IngestBatch(ctx context.Context, inputs []string, opts domain.IngestOptions) (*BatchResult, error) {
	found, err := s.discovery.Expand(inputs)
	if err != nil {
		return nil, classifyIngestError("batch", err)
	}
	if len(found) == 0 {
		return nil, classifyIngestError("batch", ErrNoFilesFound)
	}

	s.logger.InfoContext(ctx, "batch ingestion started", slog.Int("files", len(found)))
	batch := &BatchResult{}
	for _, f := range found {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		result, err := s.Ingest(ctx, f.Path, opts)
		if err != nil {
			batch.Failures = append(batch.Failures, BatchFailure{Path: f.Path, Err: fmt.Errorf("%s: %w", f.Name, err)})
			if isStorageFailure(err) {
				return batch, err
			}
			continue
		}
		batch.Results = append(batch.Results, result)
	}

	s.logger.InfoContext(ctx, "batch ingestion completed",
		slog.Int("succeeded", len(batch.Results)),
		slog.Int("failed", len(batch.Failures)))
	return batch, nil
}
