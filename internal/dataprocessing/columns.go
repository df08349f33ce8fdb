package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"campcli/internal/normalize"
)

// Role is the meaning of a table column
type Role string

const (
	RoleDate     Role = "date"
	RoleHours    Role = "hours"
	RoleEmployee Role = "employee"
	RoleForecast Role = "forecast"
)

// rolePriority breaks ties between equally specific keyword matches.
var rolePriority = []Role{RoleDate, RoleHours, RoleEmployee, RoleForecast}

var roleKeywords = map[Role][]string{
	RoleDate:     {"date", "datum", "tag", "day", "dates", "calendar", "kalender", "termin"},
	RoleHours:    {"hours", "hour", "stunden", "std", "total", "totalhours", "summe", "working", "time", "zeit"},
	RoleEmployee: {"id", "name", "mitarbeiter", "employee", "member", "user", "person", "personal"},
	RoleForecast: {"desc", "description", "beschreibung", "comment", "kommentar", "remarks", "note", "notes", "text", "type", "version"},
}

// ForecastMarkers flag a row as planned rather than actual hours.
var ForecastMarkers = []string{"FCAST", "FORECAST"}

var numericPattern = regexp.MustCompile(`^[+-]?[0-9][0-9.,' ]*$`)

// minShapeRatio is the share of non-empty sampled cells that must match a
// shape for the column to take the role.
const minShapeRatio = 0.5

// ColumnMap holds the inferred column index of each role, -1 when unknown.
// HeaderRow is -1 when the table has no recognizable header.
type ColumnMap struct {
	HeaderRow int    `json:"header_row"`
	Date      int    `json:"date"`
	Hours     int    `json:"hours"`
	Employee  int    `json:"employee"`
	Forecast  int    `json:"forecast"`
	Method    string `json:"method"`
}

// InferOptions tunes column inference
type InferOptions struct {
	// RequireEmployee fails inference when no identity column is found.
	RequireEmployee bool
	// SampleRows bounds how many rows are scanned for a header and shapes.
	SampleRows int
}

func emptyColumnMap() ColumnMap {
	return ColumnMap{HeaderRow: -1, Date: -1, Hours: -1, Employee: -1, Forecast: -1}
}

// Get returns the column assigned to role.
func (m ColumnMap) Get(role Role) int {
	switch role {
	case RoleDate:
		return m.Date
	case RoleHours:
		return m.Hours
	case RoleEmployee:
		return m.Employee
	case RoleForecast:
		return m.Forecast
	}
	return -1
}

func (m *ColumnMap) set(role Role, col int) {
	switch role {
	case RoleDate:
		m.Date = col
	case RoleHours:
		m.Hours = col
	case RoleEmployee:
		m.Employee = col
	case RoleForecast:
		m.Forecast = col
	}
}

func (m ColumnMap) assigned(col int) bool {
	return col == m.Date || col == m.Hours || col == m.Employee || col == m.Forecast
}

// InferColumns finds the date, hours, identity and forecast columns of a
// table. It first looks for a header row by keyword, then fills roles the
// header did not name by looking at the shape of the data cells.
func InferColumns(t *Table, opts InferOptions) (ColumnMap, error) {
	if opts.SampleRows <= 0 {
		opts.SampleRows = 20
	}

	cols := FindHeader(t, opts.SampleRows)
	if cols.HeaderRow >= 0 {
		cols.Method = "header"
	}
	if cols.Date < 0 || cols.Hours < 0 || cols.Employee < 0 || cols.Forecast < 0 {
		inferByShape(t, &cols, opts.SampleRows)
		if cols.Method == "" {
			cols.Method = "shape"
		} else {
			cols.Method = "header+shape"
		}
	}

	switch {
	case cols.Date < 0:
		return cols, &ColumnError{Field: string(RoleDate), Table: t.Name}
	case cols.Hours < 0:
		return cols, &ColumnError{Field: string(RoleHours), Table: t.Name}
	case cols.Employee < 0 && opts.RequireEmployee:
		return cols, &ColumnError{Field: string(RoleEmployee), Table: t.Name}
	}
	return cols, nil
}

// FindHeader scans the first rows for a header naming at least two roles,
// one of them date or hours. Unnamed roles stay -1.
func FindHeader(t *Table, sampleRows int) ColumnMap {
	limit := min(sampleRows, len(t.Rows))
	for i := 0; i < limit; i++ {
		cols := emptyColumnMap()
		named := 0
		for j, cell := range t.Rows[i] {
			role, ok := classifyHeader(cell.Text)
			if !ok || cols.Get(role) >= 0 {
				continue
			}
			cols.set(role, j)
			named++
		}
		if named >= 2 && (cols.Date >= 0 || cols.Hours >= 0) {
			cols.HeaderRow = i
			return cols
		}
	}
	return emptyColumnMap()
}

// classifyHeader picks the role whose keyword matches the header text most
// specifically. Keywords of up to three letters must match a whole word.
func classifyHeader(text string) (Role, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return "", false
	}
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var best Role
	bestLen := 0
	for _, role := range rolePriority {
		for _, kw := range roleKeywords[role] {
			if !keywordMatches(lower, tokens, kw) {
				continue
			}
			if len(kw) > bestLen {
				best, bestLen = role, len(kw)
			}
		}
	}
	return best, bestLen > 0
}

func keywordMatches(lower string, tokens []string, kw string) bool {
	if len(kw) > 3 {
		return strings.Contains(lower, kw)
	}
	for _, tok := range tokens {
		if tok == kw {
			return true
		}
	}
	return false
}

// inferByShape assigns missing roles from the data rows below the header.
func inferByShape(t *Table, cols *ColumnMap, sampleRows int) {
	start := cols.HeaderRow + 1
	end := min(start+sampleRows, len(t.Rows))
	width := t.Width()

	if cols.Date < 0 {
		cols.Date = firstColumn(t, cols, start, end, width, looksLikeDate)
	}
	if cols.Hours < 0 {
		cols.Hours = firstColumn(t, cols, start, end, width, looksLikeHours)
	}
	if cols.Forecast < 0 {
		cols.Forecast = forecastColumn(t, cols, start, end, width)
	}
	if cols.Employee < 0 {
		cols.Employee = firstColumn(t, cols, start, end, width, func(c Cell) bool {
			return !c.HasTime && strings.TrimSpace(c.Text) != ""
		})
	}
}

func firstColumn(t *Table, cols *ColumnMap, start, end, width int, match func(Cell) bool) int {
	for col := 0; col < width; col++ {
		if cols.assigned(col) {
			continue
		}
		filled, matched := 0, 0
		for row := start; row < end; row++ {
			c := t.cell(row, col)
			if !c.HasTime && strings.TrimSpace(c.Text) == "" {
				continue
			}
			filled++
			if match(c) {
				matched++
			}
		}
		if filled > 0 && float64(matched)/float64(filled) >= minShapeRatio {
			return col
		}
	}
	return -1
}

func forecastColumn(t *Table, cols *ColumnMap, start, end, width int) int {
	for col := 0; col < width; col++ {
		if cols.assigned(col) {
			continue
		}
		for row := start; row < end; row++ {
			if IsForecast(t.cell(row, col).Text) {
				return col
			}
		}
	}
	return -1
}

func looksLikeDate(c Cell) bool {
	if c.HasTime {
		return true
	}
	text := strings.TrimSpace(c.Text)
	if n, err := strconv.ParseFloat(strings.Replace(text, ",", ".", 1), 64); err == nil {
		return normalize.IsPlausibleSerial(n)
	}
	_, err := normalize.ParseDate(text)
	return err == nil
}

func looksLikeHours(c Cell) bool {
	if c.HasTime {
		return false
	}
	text := strings.TrimSpace(c.Text)
	if !numericPattern.MatchString(text) {
		return false
	}
	d, err := normalize.ParseDecimal(text)
	if err != nil {
		return false
	}
	return d.IsPositive() && d.LessThanOrEqual(normalize.MaxHours)
}

// IsForecast reports whether text carries one of the forecast markers.
func IsForecast(text string) bool {
	upper := strings.ToUpper(text)
	for _, marker := range ForecastMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}
