package dataprocessing

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"campcli/pkg/contracts/domain"
)

var (
	rowPattern   = regexp.MustCompile(`(?is)<tr[^>]*>(.*?)</tr>`)
	cellPattern  = regexp.MustCompile(`(?is)<t([dh])(?:\s[^>]*)?>(.*?)</t[dh]>`)
	tagPattern   = regexp.MustCompile(`(?s)<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// BWLayout is the positional layout of BW timesheet table exports, used when
// no header row can be recognized. Indexes are 0-based cell positions.
type BWLayout struct {
	MinCells    int
	Employee    int
	AltEmployee int
	Date        int
	Forecast    int
	Hours       int
	// ExternalMarker in the employee cell moves identity to AltEmployee.
	ExternalMarker string
}

// DefaultBWLayout matches the BW planning export.
var DefaultBWLayout = BWLayout{
	MinCells:       13,
	Employee:       5,
	AltEmployee:    6,
	Date:           7,
	Forecast:       10,
	Hours:          12,
	ExternalMarker: "Fremdleistung OPS",
}

// HTMLExtractor reads HTML table dumps, including MIME wrapped ones. The
// forecast filter is strict for this format: unflagged rows are dropped.
type HTMLExtractor struct {
	layout BWLayout
}

// NewHTMLExtractor creates an extractor using DefaultBWLayout as fallback.
func NewHTMLExtractor() *HTMLExtractor {
	return &HTMLExtractor{layout: DefaultBWLayout}
}

// NewHTMLExtractorWithLayout creates an extractor with a custom positional layout.
func NewHTMLExtractorWithLayout(layout BWLayout) *HTMLExtractor {
	return &HTMLExtractor{layout: layout}
}

// Format implements Extractor.
func (e *HTMLExtractor) Format() Format {
	return FormatHTML
}

// Extract implements Extractor.
func (e *HTMLExtractor) Extract(in Input, opts ExtractOptions) (*Extraction, error) {
	text := in.Detection.Text
	if text == "" {
		decoded, enc, ok := DecodeText(in.Data)
		if !ok {
			return nil, fmt.Errorf("%s: content is not text", in.Name)
		}
		text = decoded
		in.Detection.Encoding = enc
	}

	body, err := unwrapMIME(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}

	table, dataCells := parseHTMLTable(in.Name, body)
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%s: no table rows: %w", in.Name, ErrNoUsableRows)
	}

	mode := forecastOff
	if opts.ForecastOnly {
		mode = forecastStrict
	}

	var warnings Warnings
	cols := FindHeader(table, sampleOrDefault(opts.SampleRows))
	if cols.HeaderRow >= 0 && cols.Date >= 0 && cols.Hours >= 0 && (cols.Employee >= 0 || opts.EmployeeID != "") {
		cols.Method = "header"
		if cols.Forecast < 0 {
			cols.Forecast = forecastColumn(table, &cols, cols.HeaderRow+1, len(table.Rows), table.Width())
		}
		rows := tableRows(withoutHeaderOnlyRows(table, dataCells, cols.HeaderRow), cols, opts, mode, &warnings)
		return &Extraction{
			Encoding: in.Detection.Encoding,
			Table:    table.Name,
			Columns:  cols,
			Rows:     rows,
			Warnings: warnings.List(),
		}, nil
	}

	return e.positional(in, table, dataCells, opts, mode, &warnings), nil
}

// positional applies the BW layout to every row carrying data cells. Rows
// made only of header cells are ignored; short rows are skipped with a warning.
func (e *HTMLExtractor) positional(in Input, table *Table, dataCells []int, opts ExtractOptions, mode forecastMode, w *Warnings) *Extraction {
	l := e.layout
	result := &Extraction{
		Encoding: in.Detection.Encoding,
		Table:    table.Name,
		Columns: ColumnMap{
			HeaderRow: -1,
			Date:      l.Date,
			Hours:     l.Hours,
			Employee:  l.Employee,
			Forecast:  l.Forecast,
			Method:    "positional",
		},
	}

	filtered := 0
	for i, cells := range table.Rows {
		if dataCells[i] == 0 {
			continue
		}
		if len(cells) < l.MinCells {
			w.Addf("%s row %d: expected at least %d cells, got %d", table.Name, table.Line(i), l.MinCells, len(cells))
			continue
		}
		if mode == forecastStrict && !IsForecast(cells[l.Forecast].Text) {
			filtered++
			continue
		}

		employee := cells[l.Employee].Text
		if l.ExternalMarker != "" && strings.EqualFold(strings.TrimSpace(employee), l.ExternalMarker) {
			employee = cells[l.AltEmployee].Text
		}
		if opts.EmployeeID != "" {
			employee = opts.EmployeeID
		}

		result.Rows = append(result.Rows, domain.RawCapacityRow{
			Source:     table.Name,
			Line:       table.Line(i),
			EmployeeID: strings.TrimSpace(employee),
			DateText:   cells[l.Date].Text,
			HoursText:  cells[l.Hours].Text,
		})
	}
	if filtered > 0 && len(result.Rows) == 0 {
		w.Addf("%s: forecast filter removed all %d rows", table.Name, filtered)
	}
	result.Warnings = w.List()
	return result
}

// parseHTMLTable extracts every <tr> block into a table row and counts the
// <td> cells of each row.
func parseHTMLTable(name, body string) (*Table, []int) {
	table := &Table{Name: name}
	var dataCells []int
	for _, rowMatch := range rowPattern.FindAllStringSubmatch(body, -1) {
		cellMatches := cellPattern.FindAllStringSubmatch(rowMatch[1], -1)
		cells := make([]Cell, 0, len(cellMatches))
		tds := 0
		for _, m := range cellMatches {
			if strings.EqualFold(m[1], "d") {
				tds++
			}
			cells = append(cells, Cell{Text: cellText(m[2])})
		}
		table.Rows = append(table.Rows, cells)
		dataCells = append(dataCells, tds)
	}
	return table, dataCells
}

// cellText strips inner markup and entities from a cell.
func cellText(inner string) string {
	text := tagPattern.ReplaceAllString(inner, " ")
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// withoutHeaderOnlyRows blanks rows after the header that contain no <td>
// cells so they are skipped like empty rows.
func withoutHeaderOnlyRows(t *Table, dataCells []int, headerRow int) *Table {
	out := &Table{Name: t.Name, Rows: make([][]Cell, len(t.Rows)), Lines: t.Lines}
	for i, row := range t.Rows {
		if i > headerRow && dataCells[i] == 0 {
			continue
		}
		out.Rows[i] = row
	}
	return out
}

func sampleOrDefault(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}
