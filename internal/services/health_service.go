package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"campcli/internal/config"
	"campcli/pkg/contracts"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Checks    map[string]ServiceHealth `json:"checks,omitempty"`
}

// ServiceHealth represents the health of one dependency
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service checking the given paths.
func NewHealthService(version string, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := hs.ReadinessCheck(ctx)
	if status.Status == "ready" {
		status.Status = "ok"
	} else {
		status.Status = "degraded"
	}
	status.Runtime = map[string]interface{}{
		"uptime_seconds": time.Since(hs.startTime).Seconds(),
		"goroutines":     runtime.NumGoroutine(),
	}
	return status
}

// ReadinessCheck reports whether the data directory is writable and the
// store and project files are usable.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Checks: map[string]ServiceHealth{
			"data_dir": hs.checkWritable(hs.paths.DataDir),
			"store":    hs.checkFile(hs.paths.StoreFile),
			"project":  hs.checkFile(hs.paths.ProjectFile),
		},
	}

	for name, check := range status.Checks {
		if check.Status != "ready" {
			hs.logger.WarnContext(ctx, "readiness check failed",
				slog.String("check", name),
				slog.String("message", check.Message))
			status.Status = "not_ready"
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkWritable(dir string) ServiceHealth {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	probe, err := os.CreateTemp(dir, ".health")
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	}
	probe.Close()
	os.Remove(probe.Name())
	return ServiceHealth{Status: "ready"}
}

// checkFile treats a missing file as ready; the store starts empty and the
// project file is only needed for sprint queries.
func (hs *HealthService) checkFile(path string) ServiceHealth {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return ServiceHealth{Status: "ready", Message: filepath.Base(path) + " not created yet"}
	case err != nil:
		return ServiceHealth{Status: "not_ready", Message: err.Error()}
	case info.IsDir():
		return ServiceHealth{Status: "not_ready", Message: filepath.Base(path) + " is a directory"}
	}
	return ServiceHealth{Status: "ready"}
}
