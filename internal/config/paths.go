package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved file locations of one installation.
// Relative config values are resolved against the working directory.
type Paths struct {
	DataDir     string
	StoreFile   string
	BackupFile  string
	ProjectFile string
	ExportDir   string
	LogsDir     string
}

// NewPaths resolves the storage section and log file into absolute paths.
// Store, project and export locations are relative to DataDir unless absolute.
func NewPaths(storage StorageConfig, logging LoggingConfig) (*Paths, error) {
	dataDir, err := filepath.Abs(storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	store := under(dataDir, storage.StoreFile)
	p := &Paths{
		DataDir:     dataDir,
		StoreFile:   store,
		BackupFile:  store + BackupSuffix,
		ProjectFile: under(dataDir, storage.ProjectFile),
		ExportDir:   under(dataDir, storage.ExportDir),
	}
	if logging.FilePath != "" {
		logFile, err := filepath.Abs(logging.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log file: %w", err)
		}
		p.LogsDir = filepath.Dir(logFile)
	}
	return p, nil
}

func under(base, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		filepath.Dir(p.StoreFile),
		p.ExportDir,
	}
	if p.LogsDir != "" {
		directories = append(directories, p.LogsDir)
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// ExportPath returns the location of an export file. Absolute names are
// returned unchanged.
func (p *Paths) ExportPath(name string) string {
	return under(p.ExportDir, name)
}

// LogPathResolution logs the resolved paths at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Resolved paths",
		slog.String("data_dir", p.DataDir),
		slog.String("store_file", p.StoreFile),
		slog.String("backup_file", p.BackupFile),
		slog.String("project_file", p.ProjectFile),
		slog.String("export_dir", p.ExportDir),
		slog.String("logs_dir", p.LogsDir))
}
