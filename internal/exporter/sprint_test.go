package exporter

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campcli/internal/analytics"
	"campcli/internal/config"
	"campcli/internal/normalize"
	"campcli/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2025, time.April, d, 0, 0, 0, 0, time.UTC)
}

func rec(employee string, date time.Time, hours string) domain.CapacityRecord {
	h := decimal.RequireFromString(hours)
	return domain.CapacityRecord{EmployeeID: employee, Date: date, Hours: h, Capacity: normalize.Capacity(h)}
}

func fixture() ([]domain.CapacityRecord, domain.SprintWindow) {
	records := []domain.CapacityRecord{
		rec("A1", day(1), "8"),
		rec("A1", day(2), "4"),
		rec("B2", day(3), "6"),
		rec("X9", day(1), "8"),
	}
	window := domain.SprintWindow{Name: "Sprint 14", Start: day(1), End: day(3), Roster: []string{"A1", "B2", "C3"}}
	return records, window
}

func newTestExporter(t *testing.T) (*SprintExporter, string) {
	t.Helper()
	dir := t.TempDir()
	paths := &config.Paths{DataDir: dir, ExportDir: filepath.Join(dir, "exports")}
	writer := NewCSVWriter(paths, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewSprintExporter(writer), paths.ExportDir
}

func TestExportTotals_Golden(t *testing.T) {
	records, window := fixture()
	exporter, exportDir := newTestExporter(t)

	path, err := exporter.ExportTotals("totals.csv", window, analytics.SprintTotals(records, window))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exportDir, "totals.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	goldie.New(t, goldie.WithFixtureDir("testdata/golden")).Assert(t, "sprint_totals", data)
}

func TestExportGrid_Golden(t *testing.T) {
	records, window := fixture()
	exporter, _ := newTestExporter(t)

	path, err := exporter.ExportGrid("grid.csv", window, analytics.DailyGrid(records, window))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	goldie.New(t, goldie.WithFixtureDir("testdata/golden")).Assert(t, "sprint_grid", data)
}

func TestWriteCSV_ReplacesExistingFile(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(nil, nil)
	path := filepath.Join(dir, "report.csv")

	_, err := writer.WriteCSV(path, WriteOptions{Headers: []string{"A"}, Records: [][]string{{"1"}, {"2"}}})
	require.NoError(t, err)
	_, err = writer.WriteCSV(path, WriteOptions{Headers: []string{"A"}, Records: [][]string{{"3"}}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A\n3\n", string(data))
}

func TestReportName(t *testing.T) {
	assert.Equal(t, "apollo_sprint-14_totals.csv", ReportName("Apollo", "Sprint 14", "totals"))
	assert.Equal(t, "a-b_s1_grid.csv", ReportName("a/b", "S1", "grid"))
}
