package dataprocessing

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPipeline() *Pipeline {
	return NewPipeline(slog.New(slog.NewTextHandler(io.Discard, nil)), 20)
}

func TestCSVExtractor(t *testing.T) {
	tests := []struct {
		name         string
		data         string
		opts         ExtractOptions
		wantRows     int
		wantEmployee string
		wantWarnings []string
	}{
		{
			name:         "german export",
			data:         "Mitarbeiter;Datum;Stunden\nA1;01.04.2025;8,0\nA1;02.04.2025;4\n",
			wantRows:     2,
			wantEmployee: "A1",
		},
		{
			name:         "comma separated with bom",
			data:         "\ufeffName,Date,Hours\nB2,2025-04-01,\"7.5\"\n",
			wantRows:     1,
			wantEmployee: "B2",
		},
		{
			name:         "forecast filter keeps flagged rows",
			data:         "ID;Datum;Stunden;Version\nA1;01.04.2025;8;IST\nA1;02.04.2025;4;FCAST\n",
			opts:         ExtractOptions{ForecastOnly: true},
			wantRows:     1,
			wantEmployee: "A1",
		},
		{
			name:         "forecast filter falls back to all rows",
			data:         "ID;Datum;Stunden;Version\nA1;01.04.2025;8;IST\nA1;02.04.2025;4;IST\n",
			opts:         ExtractOptions{ForecastOnly: true},
			wantRows:     2,
			wantEmployee: "A1",
			wantWarnings: []string{"kapa.csv: no forecast rows found, using all 2 rows"},
		},
		{
			name:         "personal timesheet",
			data:         "Datum;Stunden\n01.04.2025;8\n",
			opts:         ExtractOptions{EmployeeID: "E1"},
			wantRows:     1,
			wantEmployee: "E1",
		},
		{
			name:         "short row is skipped",
			data:         "ID;Datum;Stunden\nA1;01.04.2025;8\nA1;02.04.2025\n",
			wantRows:     1,
			wantEmployee: "A1",
			wantWarnings: []string{"kapa.csv row 3: expected at least 3 cells, got 2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := testPipeline().Extract(context.Background(), "kapa.csv", []byte(tt.data), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, FormatDelimited, result.Format)
			require.Len(t, result.Rows, tt.wantRows)
			assert.Equal(t, tt.wantEmployee, result.Rows[0].EmployeeID)
			if tt.wantWarnings == nil {
				assert.Empty(t, result.Warnings)
			} else {
				assert.Equal(t, tt.wantWarnings, result.Warnings)
			}
		})
	}
}

func TestCSVExtractor_DuplicateRowsAreKept(t *testing.T) {
	data := "ID;Datum;Stunden\nA1;01.04.2025;8\nA1;01.04.2025;4\n"

	result, err := testPipeline().Extract(context.Background(), "kapa.csv", []byte(data), ExtractOptions{})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "8", result.Rows[0].HoursText)
	assert.Equal(t, "4", result.Rows[1].HoursText)
}

func TestCSVExtractor_Latin1(t *testing.T) {
	data := []byte("Mitarbeiter;Datum;Stunden\nM\xfcller;01.04.2025;8\n")

	result, err := testPipeline().Extract(context.Background(), "kapa.csv", data, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, EncodingLatin1, result.Encoding)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "Müller", result.Rows[0].EmployeeID)
}

func TestCSVExtractor_Errors(t *testing.T) {
	t.Run("no date column", func(t *testing.T) {
		_, err := testPipeline().Extract(context.Background(), "kapa.csv", []byte("ID;Stunden\nA1;8\n"), ExtractOptions{})
		assert.ErrorIs(t, err, ErrColumnNotIdentified)
	})

	t.Run("only blank lines", func(t *testing.T) {
		_, err := testPipeline().Extract(context.Background(), "kapa.csv", []byte("\n\n\n"), ExtractOptions{})
		assert.ErrorIs(t, err, ErrNoUsableRows)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := testPipeline().Extract(context.Background(), "kapa.csv", nil, ExtractOptions{})
		assert.ErrorIs(t, err, ErrEmptyInput)
	})
}
