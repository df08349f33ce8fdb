package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"campcli/pkg/contracts/domain"
)

var (
	ErrFileTooLarge = errors.New("file exceeds maximum import size")
	ErrEmptyFile    = errors.New("file is empty")
	ErrLockFile     = errors.New("file is an editor lock file")
)

// FileValidator checks import inputs and export targets before any work
// is done on them
type FileValidator struct {
	logger      *slog.Logger
	maxFileSize int64
	validate    *validator.Validate
}

// NewFileValidator creates a validator rejecting inputs above maxFileSize
// bytes. A maxFileSize <= 0 disables the size check.
func NewFileValidator(logger *slog.Logger, maxFileSize int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:      logger.With(slog.String("component", "file_validator")),
		maxFileSize: maxFileSize,
		validate:    validator.New(),
	}
}

// ValidateImportFile checks that path is a readable, non-empty regular file
// within the size limit.
func (v *FileValidator) ValidateImportFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping lock file", slog.String("file", path))
		return fmt.Errorf("%s: %w", path, ErrLockFile)
	}
	if err := v.ValidateSize(info.Size()); err != nil {
		v.logger.Error("Import file rejected",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.String("error", err.Error()))
		return fmt.Errorf("%s: %w", path, err)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Import file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateSize checks an input size against the limit.
func (v *FileValidator) ValidateSize(size int64) error {
	if size == 0 {
		return ErrEmptyFile
	}
	if v.maxFileSize > 0 && size > v.maxFileSize {
		return fmt.Errorf("%w (%d > %d bytes)", ErrFileTooLarge, size, v.maxFileSize)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	testFile.Close()
	os.Remove(testFile.Name())
	return nil
}

// ValidateOptions checks ingestion options.
func (v *FileValidator) ValidateOptions(opts domain.IngestOptions) error {
	if err := v.validate.Struct(opts); err != nil {
		return fmt.Errorf("invalid ingest options: %w", err)
	}
	if strings.ContainsAny(opts.EmployeeID, ";\r\n\"") {
		return fmt.Errorf("invalid ingest options: employee id %q contains a separator", opts.EmployeeID)
	}
	return nil
}
