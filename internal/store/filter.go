package store

import (
	"fmt"
	"strings"

	"campcli/internal/normalize"
	"campcli/pkg/contracts/domain"
)

// Column names accepted by Query.Column
const (
	ColumnAll      = ""
	ColumnID       = "id"
	ColumnDate     = "date"
	ColumnHours    = "hours"
	ColumnCapacity = "capacity"
)

// Query selects records by a case-insensitive substring of their rendered
// values, in one column or in all of them.
type Query struct {
	Text   string `json:"text"`
	Column string `json:"column" validate:"omitempty,oneof=id date hours capacity"`
}

// Filter returns the records matching q in their stored order. An empty
// query matches everything.
func Filter(records []domain.CapacityRecord, q Query) ([]domain.CapacityRecord, error) {
	column := strings.ToLower(strings.TrimSpace(q.Column))
	switch column {
	case ColumnAll, ColumnID, ColumnDate, ColumnHours, ColumnCapacity:
	default:
		return nil, fmt.Errorf("unknown column %q", q.Column)
	}

	needle := strings.ToLower(strings.TrimSpace(q.Text))
	if needle == "" {
		return records, nil
	}

	var out []domain.CapacityRecord
	for _, rec := range records {
		for _, value := range columnValues(rec, column) {
			if strings.Contains(strings.ToLower(value), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

func columnValues(rec domain.CapacityRecord, column string) []string {
	switch column {
	case ColumnID:
		return []string{rec.EmployeeID}
	case ColumnDate:
		return []string{normalize.FormatDate(rec.Date)}
	case ColumnHours:
		return []string{normalize.FormatDecimal(rec.Hours)}
	case ColumnCapacity:
		return []string{normalize.FormatDecimal(rec.Capacity)}
	}
	return []string{
		rec.EmployeeID,
		normalize.FormatDate(rec.Date),
		normalize.FormatDecimal(rec.Hours),
		normalize.FormatDecimal(rec.Capacity),
	}
}
