package services

import (
	"errors"
	"fmt"
	"os"

	"campcli/internal/dataprocessing"
	apierrors "campcli/internal/errors"
	"campcli/internal/project"
	"campcli/internal/store"
	"campcli/internal/validation"
)

var (
	// ErrNoFilesFound is returned by IngestBatch when the inputs expand to
	// no import files.
	ErrNoFilesFound = errors.New("no import files found")

	// ErrNoRecords is returned when an input yielded no valid record. It
	// also matches dataprocessing.ErrNoUsableRows.
	ErrNoRecords = fmt.Errorf("input contains no valid capacity record: %w", dataprocessing.ErrNoUsableRows)
)

// classifyIngestError wraps a structural ingestion failure into an AppError
// carrying the source name. Errors that already are AppErrors pass through.
func classifyIngestError(source string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var wrapped *apierrors.AppError
	switch {
	case errors.Is(err, os.ErrNotExist):
		wrapped = apierrors.NewAppError(apierrors.ErrTypeNotFound, "input file not found", err)
	case errors.Is(err, validation.ErrFileTooLarge),
		errors.Is(err, validation.ErrEmptyFile),
		errors.Is(err, validation.ErrLockFile),
		errors.Is(err, ErrNoFilesFound):
		wrapped = apierrors.NewAppError(apierrors.ErrTypeValidation, "input rejected", err)
	case errors.Is(err, dataprocessing.ErrEmptyInput),
		errors.Is(err, dataprocessing.ErrUnreadableSpreadsheet),
		errors.Is(err, dataprocessing.ErrColumnNotIdentified),
		errors.Is(err, dataprocessing.ErrNoUsableRows):
		wrapped = apierrors.NewParsingError("input could not be read as a capacity table", err)
	default:
		wrapped = apierrors.NewParsingError("input could not be processed", err)
	}
	return wrapped.WithContext("source", source)
}

// noRecordsError reports an input whose rows were all rejected. The row
// warnings explain why and travel in the error context.
func noRecordsError(source string, warnings []string) error {
	appErr := apierrors.NewParsingError("input could not be read as a capacity table", ErrNoRecords).
		WithContext("source", source)
	if len(warnings) > 0 {
		appErr = appErr.WithContext("warnings", warnings)
	}
	return appErr
}

// ErrorWarnings returns the row warnings carried by an ingestion error.
func ErrorWarnings(err error) []string {
	var appErr *apierrors.AppError
	if !errors.As(err, &appErr) {
		return nil
	}
	warnings, _ := appErr.Context["warnings"].([]string)
	return warnings
}

// storageError wraps a store failure.
func storageError(action string, err error) error {
	switch {
	case errors.Is(err, store.ErrNoBackup):
		return apierrors.NewAppError(apierrors.ErrTypeNotFound, "store backup not found", err)
	case errors.Is(err, os.ErrPermission):
		return apierrors.NewPermissionError(fmt.Sprintf("no permission to %s capacity store", action), err)
	}
	return apierrors.NewStorageError(fmt.Sprintf("failed to %s capacity store", action), err)
}

// projectError wraps a failure to resolve a project or sprint.
func projectError(err error) *apierrors.AppError {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return apierrors.NewAppError(apierrors.ErrTypeNotFound, "project file not found", err)
	case errors.Is(err, project.ErrProjectNotFound):
		return apierrors.NewAppError(apierrors.ErrTypeNotFound, "project not found", err)
	case errors.Is(err, project.ErrSprintNotFound):
		return apierrors.NewAppError(apierrors.ErrTypeNotFound, "sprint not found", err)
	default:
		return apierrors.NewConfigError("project document is invalid", err)
	}
}

// isStorageFailure reports whether err means the store cannot be written,
// which makes further files of a batch pointless.
func isStorageFailure(err error) bool {
	return apierrors.IsType(err, apierrors.ErrTypeStorage) || apierrors.IsType(err, apierrors.ErrTypePermission)
}
