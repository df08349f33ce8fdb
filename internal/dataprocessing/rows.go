package dataprocessing

import (
	"strings"

	"campcli/internal/normalize"
	"campcli/pkg/contracts/domain"
)

// forecastMode selects how the forecast filter treats a table without
// matching rows.
type forecastMode int

const (
	forecastOff forecastMode = iota
	// forecastLenient falls back to every row when none is flagged.
	forecastLenient
	// forecastStrict keeps only flagged rows.
	forecastStrict
)

// tableRows converts the data rows below the header into raw rows.
func tableRows(t *Table, cols ColumnMap, opts ExtractOptions, mode forecastMode, w *Warnings) []domain.RawCapacityRow {
	indexes := make([]int, 0, len(t.Rows))
	for i := cols.HeaderRow + 1; i < len(t.Rows); i++ {
		if !isBlankRow(t.Rows[i]) {
			indexes = append(indexes, i)
		}
	}
	indexes = filterForecast(t, cols, indexes, mode, w)

	need := max(cols.Date, cols.Hours) + 1
	if opts.EmployeeID == "" {
		need = max(need, cols.Employee+1)
	}
	rows := make([]domain.RawCapacityRow, 0, len(indexes))
	for _, i := range indexes {
		cells := t.Rows[i]
		if len(cells) < need {
			w.Addf("%s row %d: expected at least %d cells, got %d", t.Name, t.Line(i), need, len(cells))
			continue
		}

		raw := domain.RawCapacityRow{
			Source:    t.Name,
			Line:      t.Line(i),
			HoursText: strings.TrimSpace(cells[cols.Hours].Text),
		}
		if opts.EmployeeID != "" {
			raw.EmployeeID = opts.EmployeeID
		} else if cols.Employee >= 0 {
			raw.EmployeeID = strings.TrimSpace(cells[cols.Employee].Text)
		}
		dateCell := cells[cols.Date]
		if dateCell.HasTime {
			d := normalize.Day(dateCell.Time)
			raw.NativeDate = &d
		}
		raw.DateText = strings.TrimSpace(dateCell.Text)
		rows = append(rows, raw)
	}
	return rows
}

func filterForecast(t *Table, cols ColumnMap, indexes []int, mode forecastMode, w *Warnings) []int {
	if mode == forecastOff {
		return indexes
	}
	if cols.Forecast < 0 {
		if mode == forecastStrict {
			w.Addf("%s: forecast filter requested but no forecast column found", t.Name)
			return nil
		}
		w.Addf("%s: forecast filter requested but no forecast column found, using all rows", t.Name)
		return indexes
	}

	kept := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if IsForecast(t.cell(i, cols.Forecast).Text) {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 && mode == forecastLenient {
		w.Addf("%s: no forecast rows found, using all %d rows", t.Name, len(indexes))
		return indexes
	}
	return kept
}

// BuildRecords validates raw rows and derives capacity. Rows with a missing
// employee, an unparsable date or implausible hours are skipped and reported.
func BuildRecords(rows []domain.RawCapacityRow, w *Warnings) []domain.CapacityRecord {
	records := make([]domain.CapacityRecord, 0, len(rows))
	for _, raw := range rows {
		employee := strings.TrimSpace(raw.EmployeeID)
		if employee == "" {
			w.Addf("%s: missing employee id", raw.Location())
			continue
		}

		var date = raw.NativeDate
		if date == nil {
			parsed, err := normalize.ParseDate(raw.DateText)
			if err != nil {
				w.Addf("%s: %v", raw.Location(), err)
				continue
			}
			date = &parsed
		}

		hours, err := normalize.ParseHours(raw.HoursText)
		if err != nil {
			w.Addf("%s: hours: %v", raw.Location(), err)
			continue
		}

		records = append(records, domain.CapacityRecord{
			EmployeeID: employee,
			Date:       normalize.Day(*date),
			Hours:      hours,
			Capacity:   normalize.Capacity(hours),
		})
	}
	return records
}
