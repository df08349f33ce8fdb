package services

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campcli/internal/dataprocessing"
	apierrors "campcli/internal/errors"
	"campcli/internal/store"
	"campcli/internal/validation"
)

func TestClassifyIngestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apierrors.ErrorType
	}{
		{"missing file", fmt.Errorf("open: %w", os.ErrNotExist), apierrors.ErrTypeNotFound},
		{"too large", validation.ErrFileTooLarge, apierrors.ErrTypeValidation},
		{"lock file", validation.ErrLockFile, apierrors.ErrTypeValidation},
		{"unreadable workbook", fmt.Errorf("a.xls: %w", dataprocessing.ErrUnreadableSpreadsheet), apierrors.ErrTypeParsing},
		{"no column", &dataprocessing.ColumnError{Field: "date", Table: "a.csv"}, apierrors.ErrTypeParsing},
		{"anything else", errors.New("boom"), apierrors.ErrTypeParsing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyIngestError("a.csv", tt.err)
			var appErr *apierrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.want, appErr.Type)
			assert.Equal(t, "a.csv", appErr.Context["source"])
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("app errors pass through", func(t *testing.T) {
		in := apierrors.NewStorageError("write failed", nil)
		assert.Same(t, in, classifyIngestError("a.csv", in))
	})
	assert.NoError(t, classifyIngestError("a.csv", nil))
}

func TestStorageError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       apierrors.ErrorType
		stopsBatch bool
	}{
		{"no backup", store.ErrNoBackup, apierrors.ErrTypeNotFound, false},
		{"permission", fmt.Errorf("open kapa_data.csv: %w", os.ErrPermission), apierrors.ErrTypePermission, true},
		{"disk", errors.New("disk full"), apierrors.ErrTypeStorage, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storageError("write", tt.err)
			assert.True(t, apierrors.IsType(err, tt.want))
			assert.Equal(t, tt.stopsBatch, isStorageFailure(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestNoRecordsError(t *testing.T) {
	tests := []struct {
		name     string
		warnings []string
	}{
		{"with row warnings", []string{"kapa.csv row 2: invalid date", "kapa.csv row 3: invalid date"}},
		{"without warnings", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := noRecordsError("kapa.csv", tt.warnings)
			assert.True(t, apierrors.IsType(err, apierrors.ErrTypeParsing))
			assert.ErrorIs(t, err, ErrNoRecords)
			assert.ErrorIs(t, err, dataprocessing.ErrNoUsableRows)
			assert.False(t, isStorageFailure(err))
			assert.Equal(t, tt.warnings, ErrorWarnings(err))
		})
	}

	assert.Nil(t, ErrorWarnings(errors.New("boom")))
	assert.Nil(t, ErrorWarnings(nil))
}
