package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"campcli/internal/files"
	"campcli/pkg/contracts/domain"
)

// ErrNoBackup is returned by RestoreBackup when no backup file exists.
var ErrNoBackup = errors.New("no backup file")

// Store is the file-backed capacity record collection
type Store struct {
	path       string
	backupPath string
	files      *files.Manager
	logger     *slog.Logger
}

// SaveOptions controls one write
type SaveOptions struct {
	// Backup copies the current file to the backup path before writing.
	Backup bool
}

// SaveResult describes a completed write
type SaveResult struct {
	Records int `json:"records"`
	// BackedUp is set when the previous file was copied to the backup path.
	BackedUp bool     `json:"backed_up"`
	Warnings []string `json:"warnings,omitempty"`
}

// New creates a store at path with its backup at backupPath.
func New(path, backupPath string, fm *files.Manager, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:       path,
		backupPath: backupPath,
		files:      fm,
		logger:     logger.With(slog.String("component", "capacity_store")),
	}
}

// Path returns the store file location.
func (s *Store) Path() string { return s.path }

// BackupPath returns the backup file location.
func (s *Store) BackupPath() string { return s.backupPath }

// Load reads all records. A missing file is an empty store. Malformed rows
// are skipped and logged.
func (s *Store) Load(ctx context.Context) ([]domain.CapacityRecord, error) {
	data, err := s.files.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.DebugContext(ctx, "store file missing, starting empty", slog.String("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store %s: %w", s.path, err)
	}

	records, warnings, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		s.logger.WarnContext(ctx, "skipped malformed store row",
			slog.String("path", s.path),
			slog.String("detail", w))
	}
	s.logger.DebugContext(ctx, "store loaded",
		slog.Int("records", len(records)),
		slog.Int("skipped", len(warnings)))
	return records, nil
}

// Save replaces the store content with records. A failed backup is reported
// as a warning; a failed write is an error and leaves the previous file.
func (s *Store) Save(ctx context.Context, records []domain.CapacityRecord, opts SaveOptions) (*SaveResult, error) {
	data, err := Render(records)
	if err != nil {
		return nil, fmt.Errorf("failed to render store: %w", err)
	}

	result := &SaveResult{Records: len(records)}
	if opts.Backup {
		backedUp, err := s.backup(ctx)
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("backup failed: %v", err))
		}
		result.BackedUp = backedUp
	}

	if err := s.write(data); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "store written",
		slog.String("path", s.path),
		slog.Int("records", len(records)),
		slog.Bool("backed_up", result.BackedUp))
	return result, nil
}

// Clear backs up the store and leaves a header-only file.
func (s *Store) Clear(ctx context.Context) (*SaveResult, error) {
	return s.Save(ctx, nil, SaveOptions{Backup: true})
}

// Delete removes the records with the given keys and returns how many were
// removed. The store is only rewritten when something matched.
func (s *Store) Delete(ctx context.Context, keys []domain.RecordKey, opts SaveOptions) (int, error) {
	records, err := s.Load(ctx)
	if err != nil {
		return 0, err
	}

	drop := make(map[domain.RecordKey]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	kept := records[:0:0]
	for _, rec := range records {
		if _, ok := drop[rec.Key()]; !ok {
			kept = append(kept, rec)
		}
	}

	removed := len(records) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if _, err := s.Save(ctx, kept, opts); err != nil {
		return 0, err
	}
	return removed, nil
}

// RestoreBackup replaces the store with its backup copy.
func (s *Store) RestoreBackup(ctx context.Context) error {
	data, err := s.files.ReadFile(s.backupPath)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNoBackup, s.backupPath)
	}
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}
	if err := s.write(data); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "store restored from backup", slog.String("backup", s.backupPath))
	return nil
}

// Export copies the store file to dst. A missing store exports a
// header-only file.
func (s *Store) Export(ctx context.Context, dst string) error {
	if !s.files.FileExists(s.path) {
		data, err := Render(nil)
		if err != nil {
			return err
		}
		return writeAtomic(dst, data)
	}
	if err := s.files.CopyFile(s.path, dst); err != nil {
		return fmt.Errorf("failed to export store: %w", err)
	}
	s.logger.InfoContext(ctx, "store exported", slog.String("destination", dst))
	return nil
}

func (s *Store) backup(ctx context.Context) (bool, error) {
	if !s.files.FileExists(s.path) {
		return false, nil
	}
	if err := s.files.CopyFile(s.path, s.backupPath); err != nil {
		s.logger.WarnContext(ctx, "store backup failed",
			slog.String("backup", s.backupPath),
			slog.String("error", err.Error()))
		return false, err
	}
	return true, nil
}

func (s *Store) write(data []byte) error {
	if err := writeAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write store %s: %w", s.path, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
