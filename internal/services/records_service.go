package services

import (
	"context"
	"log/slog"
	"path/filepath"

	"campcli/internal/config"
	apierrors "campcli/internal/errors"
	"campcli/internal/infrastructure"
	"campcli/internal/store"
	"campcli/internal/validation"
	"campcli/pkg/contracts/domain"
)

// DefaultExportName is the file name of a store export when none is given.
const DefaultExportName = "capacity_export.csv"

// RecordsService manages the stored capacity records outside of ingestion
type RecordsService struct {
	store     *store.Store
	paths     *config.Paths
	validator *validation.FileValidator
	metrics   *infrastructure.Metrics
	backup    bool
	logger    *slog.Logger
}

// NewRecordsService creates a records service. backup controls whether
// deletions copy the store to its backup first; Clear always does.
func NewRecordsService(st *store.Store, paths *config.Paths, validator *validation.FileValidator, metrics *infrastructure.Metrics, backup bool, logger *slog.Logger) *RecordsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordsService{
		store:     st,
		paths:     paths,
		validator: validator,
		metrics:   metrics,
		backup:    backup,
		logger:    logger.With(slog.String("component", "records_service")),
	}
}

// List returns the records matching q in stored order.
func (s *RecordsService) List(ctx context.Context, q store.Query) ([]domain.CapacityRecord, error) {
	records, err := s.store.Load(ctx)
	if err != nil {
		return nil, storageError("read", err)
	}
	matched, err := store.Filter(records, q)
	if err != nil {
		return nil, apierrors.NewAppError(apierrors.ErrTypeValidation, "invalid record query", err)
	}
	s.logger.DebugContext(ctx, "records listed",
		slog.String("text", q.Text),
		slog.String("column", q.Column),
		slog.Int("total", len(records)),
		slog.Int("matched", len(matched)))
	return matched, nil
}

// Delete removes the records with the given keys and returns how many
// existed.
func (s *RecordsService) Delete(ctx context.Context, keys []domain.RecordKey) (int, error) {
	if len(keys) == 0 {
		return 0, apierrors.NewAppValidationError("no record keys given")
	}
	removed, err := s.store.Delete(ctx, keys, store.SaveOptions{Backup: s.backup})
	if err != nil {
		return 0, storageError("update", err)
	}
	s.logger.InfoContext(ctx, "records deleted",
		slog.Int("requested", len(keys)),
		slog.Int("removed", removed))
	s.refreshGauge(ctx)
	return removed, nil
}

// Clear empties the store after taking a backup.
func (s *RecordsService) Clear(ctx context.Context) (*store.SaveResult, error) {
	result, err := s.store.Clear(ctx)
	if err != nil {
		return nil, storageError("clear", err)
	}
	s.logger.InfoContext(ctx, "store cleared", slog.Bool("backed_up", result.BackedUp))
	s.metrics.SetStoreRecords(0)
	return result, nil
}

// Restore replaces the store with its backup.
func (s *RecordsService) Restore(ctx context.Context) error {
	if err := s.store.RestoreBackup(ctx); err != nil {
		return storageError("restore", err)
	}
	s.refreshGauge(ctx)
	return nil
}

// Export copies the store to dst and returns the written path. An empty dst
// writes DefaultExportName into the export directory.
func (s *RecordsService) Export(ctx context.Context, dst string) (string, error) {
	if dst == "" {
		dst = s.paths.ExportPath(DefaultExportName)
	}
	if err := s.validator.ValidateOutputDirectory(filepath.Dir(dst)); err != nil {
		return "", apierrors.NewAppError(apierrors.ErrTypeValidation, "export target rejected", err).
			WithContext("destination", dst)
	}
	if err := s.store.Export(ctx, dst); err != nil {
		return "", storageError("export", err)
	}
	return dst, nil
}

func (s *RecordsService) refreshGauge(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	if records, err := s.store.Load(ctx); err == nil {
		s.metrics.SetStoreRecords(len(records))
	}
}
