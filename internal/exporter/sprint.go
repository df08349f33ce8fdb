package exporter

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"campcli/internal/analytics"
	"campcli/pkg/contracts/domain"
)

// Report headers
var (
	TotalsHeader = []string{"ID", "STUNDEN", "KAPAZITÄT"}
	TotalRowID   = "SUMME"
)

// SprintExporter writes sprint reports through a CSVWriter
type SprintExporter struct {
	writer *CSVWriter
}

// NewSprintExporter creates an exporter writing through w.
func NewSprintExporter(w *CSVWriter) *SprintExporter {
	return &SprintExporter{writer: w}
}

// TotalsRecords renders one row per roster member in roster order and a
// closing SUMME row.
func TotalsRecords(window domain.SprintWindow, totals map[string]domain.SprintTotal) [][]string {
	members := analytics.Members(window)
	records := make([][]string, 0, len(members)+1)
	sumHours, sumCapacity := decimal.Zero, decimal.Zero
	for _, m := range members {
		t := totals[m]
		records = append(records, []string{m, formatDecimal(t.Hours), formatDecimal(t.Capacity)})
		sumHours = sumHours.Add(t.Hours)
		sumCapacity = sumCapacity.Add(t.Capacity)
	}
	return append(records, []string{TotalRowID, formatDecimal(sumHours), formatDecimal(sumCapacity)})
}

// GridHeader is ID followed by every day of the window.
func GridHeader(window domain.SprintWindow) []string {
	days := window.Days()
	header := make([]string, 0, len(days)+1)
	header = append(header, "ID")
	for _, d := range days {
		header = append(header, formatDate(d))
	}
	return header
}

// GridRecords renders one row per roster member; days without a record
// are left empty.
func GridRecords(window domain.SprintWindow, grid map[string][]domain.DayCell) [][]string {
	members := analytics.Members(window)
	records := make([][]string, 0, len(members))
	for _, m := range members {
		row := []string{m}
		for _, cell := range grid[m] {
			if cell.Available {
				row = append(row, formatDecimal(cell.Hours))
			} else {
				row = append(row, "")
			}
		}
		records = append(records, row)
	}
	return records
}

// ExportTotals writes the totals report and returns its path.
func (e *SprintExporter) ExportTotals(name string, window domain.SprintWindow, totals map[string]domain.SprintTotal) (string, error) {
	return e.writer.WriteCSV(name, WriteOptions{
		Headers:   TotalsHeader,
		Records:   TotalsRecords(window, totals),
		BOMPrefix: true,
	})
}

// ExportGrid writes the daily grid report and returns its path.
func (e *SprintExporter) ExportGrid(name string, window domain.SprintWindow, grid map[string][]domain.DayCell) (string, error) {
	return e.writer.WriteCSV(name, WriteOptions{
		Headers:   GridHeader(window),
		Records:   GridRecords(window, grid),
		BOMPrefix: true,
	})
}

// ReportName builds a file name such as "apollo_sprint-14_totals.csv".
func ReportName(project, sprint, kind string) string {
	slug := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
				return r
			case r == ' ' || r == '/' || r == '\\' || r == '.':
				return '-'
			}
			return -1
		}, s)
	}
	return fmt.Sprintf("%s_%s_%s.csv", slug(project), slug(sprint), kind)
}
