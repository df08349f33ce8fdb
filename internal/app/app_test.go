package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campcli/internal/config"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Storage.DataDir = dir
	cfg.Logging.FilePath = filepath.Join(dir, "logs", "camp.log")
	cfg.Server.Port = 0
	cfg.Server.RateLimit.Enabled = false
	return cfg
}

func newTestApplication(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	application, err := New(cfg, Options{Logger: createTestLogger()})
	require.NoError(t, err)
	return application
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := New(nil, Options{Logger: createTestLogger()})
		assert.Error(t, err)
	})

	t.Run("wires every component", func(t *testing.T) {
		cfg := testConfig(t)
		application := newTestApplication(t, cfg)

		assert.NotNil(t, application.Store)
		assert.NotNil(t, application.Ingest)
		assert.NotNil(t, application.Records)
		assert.NotNil(t, application.Planning)
		assert.NotNil(t, application.Health)
		assert.NotNil(t, application.Router)
		assert.NotNil(t, application.OTel.Tracer)

		assert.Equal(t, filepath.Join(cfg.Storage.DataDir, config.DefaultStoreFile), application.Store.Path())
		assert.Equal(t, application.Store.Path()+config.BackupSuffix, application.Store.BackupPath())
		assert.DirExists(t, application.Paths.ExportDir)
		assert.DirExists(t, application.Paths.LogsDir)
	})
}

func TestApplication_IngestDefaults(t *testing.T) {
	cfg := testConfig(t)
	cfg.Import.OverwriteExisting = false
	cfg.Import.ForecastOnly = true
	cfg.Storage.CreateBackup = false

	opts := newTestApplication(t, cfg).IngestDefaults()
	assert.False(t, opts.OverwriteExisting)
	assert.True(t, opts.ForecastOnly)
	assert.False(t, opts.CreateBackup)
	assert.Empty(t, opts.EmployeeID)
}

func TestApplication_Router(t *testing.T) {
	application := newTestApplication(t, testConfig(t))

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"health", "/api/health", http.StatusOK},
		{"readiness", "/api/health/ready", http.StatusOK},
		{"version", "/api/version", http.StatusOK},
		{"records", "/api/v1/records", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"unknown", "/api/v1/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			application.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestApplication_StartStop(t *testing.T) {
	application := newTestApplication(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, application.Start(ctx, cancel))

	resp, err := http.Get("http://" + application.Addr() + "/api/health/live")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"alive"`)

	require.NoError(t, application.Stop(context.Background()))
	_, err = http.Get("http://" + application.Addr() + "/api/health/live")
	assert.Error(t, err)
}

func TestApplication_StartAddressInUse(t *testing.T) {
	first := newTestApplication(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, first.Start(ctx, cancel))
	defer first.Stop(context.Background())

	cfg := testConfig(t)
	second := newTestApplication(t, cfg)
	second.Server.Addr = first.Addr()
	assert.Error(t, second.Start(ctx, cancel))
}

func TestApplication_Run(t *testing.T) {
	application := newTestApplication(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, application.Run(ctx))
}

func TestApplication_CloseWritesMetricsFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricsFile = filepath.Join(t.TempDir(), "camp.prom")
	application := newTestApplication(t, cfg)

	input := filepath.Join(cfg.Storage.DataDir, "hours.csv")
	require.NoError(t, os.WriteFile(input, []byte("ID;Datum;Stunden\nA1;01.04.2025;8\n"), 0644))
	_, err := application.Ingest.Ingest(context.Background(), input, application.IngestDefaults())
	require.NoError(t, err)

	require.NoError(t, application.Close(context.Background()))

	data, err := os.ReadFile(cfg.Telemetry.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "camp_store_records 1")
	assert.True(t, strings.Contains(string(data), `camp_ingest_runs_total{format="delimited",status="success"} 1`),
		"unexpected textfile:\n%s", data)
}

func TestApplication_TracingExportsSpans(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.TracingEnabled = true
	var spans bytes.Buffer
	application, err := New(cfg, Options{Logger: createTestLogger(), TraceOutput: &spans})
	require.NoError(t, err)

	input := filepath.Join(cfg.Storage.DataDir, "hours.csv")
	require.NoError(t, os.WriteFile(input, []byte("ID;Datum;Stunden\nA1;01.04.2025;8\n"), 0644))
	_, err = application.Ingest.Ingest(context.Background(), input, application.IngestDefaults())
	require.NoError(t, err)

	require.NoError(t, application.Close(context.Background()))
	assert.Contains(t, spans.String(), `"Name": "ingest"`)
	assert.Contains(t, spans.String(), `"Name": "ingest.extract"`)
}
