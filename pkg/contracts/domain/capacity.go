package domain

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// DateKeyLayout is the layout used when a calendar date is part of a map key.
const DateKeyLayout = "2006-01-02"

// CapacityRecord is one employee's logged or forecast hours for one day
type CapacityRecord struct {
	EmployeeID string          `json:"employee_id" validate:"required"`
	Date       time.Time       `json:"date" validate:"required"`
	Hours      decimal.Decimal `json:"hours"`
	Capacity   decimal.Decimal `json:"capacity"`
}

// Key returns the merge key of the record.
func (r CapacityRecord) Key() RecordKey {
	return NewRecordKey(r.EmployeeID, r.Date)
}

// RecordKey identifies at most one record in the store.
type RecordKey struct {
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
}

// NewRecordKey builds a merge key from an employee id and a calendar date.
func NewRecordKey(employeeID string, date time.Time) RecordKey {
	return RecordKey{EmployeeID: employeeID, Date: date.Format(DateKeyLayout)}
}

// String renders the key as employee@yyyy-mm-dd
func (k RecordKey) String() string {
	return k.EmployeeID + "@" + k.Date
}

// RawCapacityRow is a row as extracted from a source file, before validation.
// Extractors fill the fields they can; NativeDate is set only when the source
// delivered a typed date value (spreadsheet date cells).
type RawCapacityRow struct {
	Source     string     `json:"source"`
	Line       int        `json:"line"`
	EmployeeID string     `json:"employee_id"`
	DateText   string     `json:"date_text,omitempty"`
	NativeDate *time.Time `json:"native_date,omitempty"`
	HoursText  string     `json:"hours_text"`
}

// Location renders source and line for warnings.
func (r RawCapacityRow) Location() string {
	if r.Source == "" {
		return "row " + strconv.Itoa(r.Line)
	}
	return r.Source + " row " + strconv.Itoa(r.Line)
}

// SprintWindow scopes aggregation queries to an inclusive date range and roster
type SprintWindow struct {
	Name   string    `json:"name,omitempty"`
	Start  time.Time `json:"start" validate:"required"`
	End    time.Time `json:"end" validate:"required,gtefield=Start"`
	Roster []string  `json:"roster" validate:"dive,required"`
}

// Days returns every calendar day of the window in order, inclusive on both ends.
func (w SprintWindow) Days() []time.Time {
	start := truncateDay(w.Start)
	end := truncateDay(w.End)
	if end.Before(start) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the date falls inside the window.
func (w SprintWindow) Contains(date time.Time) bool {
	d := truncateDay(date)
	return !d.Before(truncateDay(w.Start)) && !d.After(truncateDay(w.End))
}

// SprintTotal is the summed hours and capacity of one employee in a window
type SprintTotal struct {
	Hours    decimal.Decimal `json:"hours"`
	Capacity decimal.Decimal `json:"capacity"`
}

// DayCell is one employee-day of a capacity grid
type DayCell struct {
	Date      time.Time       `json:"date"`
	Available bool            `json:"available"`
	Hours     decimal.Decimal `json:"hours"`
}

// SprintSummary condenses a window into team-level planning figures
type SprintSummary struct {
	Sprint               string                 `json:"sprint,omitempty"`
	Start                time.Time              `json:"start"`
	End                  time.Time              `json:"end"`
	Members              int                    `json:"members"`
	TotalHours           decimal.Decimal        `json:"total_hours"`
	TotalCapacity        decimal.Decimal        `json:"total_capacity"`
	Factor               decimal.Decimal        `json:"factor"`
	EstimatedStoryPoints decimal.Decimal        `json:"estimated_story_points"`
	ConfirmedStoryPoints *float64               `json:"confirmed_story_points,omitempty"`
	DeliveredStoryPoints *float64               `json:"delivered_story_points,omitempty"`
	Totals               map[string]SprintTotal `json:"totals"`
}

// IngestOptions controls one ingestion call
type IngestOptions struct {
	OverwriteExisting bool `json:"overwrite_existing"`
	CreateBackup      bool `json:"create_backup"`
	ForecastOnly      bool `json:"forecast_only"`
	// EmployeeID assigns every row of a personal timesheet to one member.
	EmployeeID string `json:"employee_id,omitempty" validate:"omitempty,max=64"`
}

// IngestResult reports what an ingestion call did
type IngestResult struct {
	RunID          string   `json:"run_id"`
	Source         string   `json:"source"`
	Format         string   `json:"format"`
	Encoding       string   `json:"encoding,omitempty"`
	Extracted      int      `json:"extracted"`
	RecordsWritten int      `json:"records_written"`
	Inserted       int      `json:"inserted"`
	Updated        int      `json:"updated"`
	Unchanged      int      `json:"unchanged"`
	Warnings       []string `json:"warnings"`
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
