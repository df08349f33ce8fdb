package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campcli/internal/config"
	"campcli/pkg/contracts"
)

func TestHealthService_Checks(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{
		DataDir:     dir,
		StoreFile:   filepath.Join(dir, "kapa_data.csv"),
		ProjectFile: filepath.Join(dir, "projects.json"),
	}
	hs := NewHealthService(contracts.Version, paths, discardLogger())
	ctx := context.Background()

	ready := hs.ReadinessCheck(ctx)
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ready", ready.Checks["store"].Status)
	assert.Contains(t, ready.Checks["store"].Message, "not created yet")

	health := hs.HealthCheck(ctx)
	assert.Equal(t, "ok", health.Status)
	assert.Contains(t, health.Runtime, "uptime_seconds")

	require.NoError(t, os.MkdirAll(paths.StoreFile, 0755))
	degraded := hs.HealthCheck(ctx)
	assert.Equal(t, "degraded", degraded.Status)
	assert.Equal(t, "not_ready", degraded.Checks["store"].Status)
}

func TestHealthService_Liveness(t *testing.T) {
	hs := NewHealthService("1.2.3", &config.Paths{}, nil)
	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, contracts.Version, hs.Version().Version)
}
