package services

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"campcli/internal/config"
	"campcli/internal/dataprocessing"
	"campcli/internal/exporter"
	"campcli/internal/files"
	"campcli/internal/infrastructure"
	"campcli/internal/store"
	"campcli/internal/validation"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv wires the services against a temporary data directory.
type testEnv struct {
	dir      string
	paths    *config.Paths
	store    *store.Store
	metrics  *infrastructure.Metrics
	ingest   *IngestService
	records  *RecordsService
	planning *PlanningService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, discardLogger())
}

func newTestEnvWithLogger(t *testing.T, logger *slog.Logger) *testEnv {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{
		DataDir:     dir,
		StoreFile:   filepath.Join(dir, "kapa_data.csv"),
		BackupFile:  filepath.Join(dir, "kapa_data.csv"+config.BackupSuffix),
		ProjectFile: filepath.Join(dir, "projects.json"),
		ExportDir:   filepath.Join(dir, "exports"),
	}
	fm := files.NewManager(paths, logger)
	st := store.New(paths.StoreFile, paths.BackupFile, fm, logger)
	validator := validation.NewFileValidator(logger, config.DefaultMaxFileSize)
	metrics := infrastructure.NewMetrics(false)

	return &testEnv{
		dir:     dir,
		paths:   paths,
		store:   st,
		metrics: metrics,
		ingest: NewIngestService(IngestDeps{
			Store:     st,
			Pipeline:  dataprocessing.NewPipeline(logger, config.DefaultSampleRows),
			Validator: validator,
			Metrics:   metrics,
			Logger:    logger,
		}),
		records: NewRecordsService(st, paths, validator, metrics, true, logger),
		planning: NewPlanningService(st, paths.ProjectFile,
			exporter.NewSprintExporter(exporter.NewCSVWriter(paths, logger)), 1.4, logger),
	}
}

// writeFile creates name inside the env directory and returns its path.
func (e *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (e *testEnv) storeContent(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(e.paths.StoreFile)
	require.NoError(t, err)
	return string(data)
}

const storeHeader = "ID;DATUM;STUNDEN;KAPAZITÄT\n"
