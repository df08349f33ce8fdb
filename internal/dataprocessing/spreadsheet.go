package dataprocessing

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// SpreadsheetEngine decodes a workbook into one table per sheet
type SpreadsheetEngine interface {
	Name() string
	ReadTables(data []byte) ([]*Table, error)
}

// SpreadsheetExtractor decodes workbooks with a chain of engines and reads
// the first sheet whose columns can be inferred.
type SpreadsheetExtractor struct {
	engines []SpreadsheetEngine
}

// NewSpreadsheetExtractor creates an extractor trying excelize (OOXML) and
// then the legacy BIFF reader.
func NewSpreadsheetExtractor(engines ...SpreadsheetEngine) *SpreadsheetExtractor {
	if len(engines) == 0 {
		engines = []SpreadsheetEngine{&ExcelizeEngine{}, &XLSEngine{}}
	}
	return &SpreadsheetExtractor{engines: engines}
}

// Format implements Extractor.
func (e *SpreadsheetExtractor) Format() Format {
	return FormatSpreadsheet
}

// Extract implements Extractor.
func (e *SpreadsheetExtractor) Extract(in Input, opts ExtractOptions) (*Extraction, error) {
	tables, engine, err := e.decode(in.Data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, err)
	}

	var warnings Warnings
	var firstErr error
	for _, table := range tables {
		if len(table.Rows) == 0 {
			continue
		}
		cols, err := InferColumns(table, InferOptions{
			RequireEmployee: opts.EmployeeID == "",
			SampleRows:      opts.SampleRows,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		mode := forecastOff
		if opts.ForecastOnly {
			mode = forecastLenient
		}
		rows := tableRows(table, cols, opts, mode, &warnings)
		return &Extraction{
			Engine:   engine,
			Table:    table.Name,
			Columns:  cols,
			Rows:     rows,
			Warnings: warnings.List(),
		}, nil
	}

	if firstErr != nil {
		return nil, fmt.Errorf("%s: %w", in.Name, firstErr)
	}
	return nil, fmt.Errorf("%s: %w", in.Name, ErrNoUsableRows)
}

func (e *SpreadsheetExtractor) decode(data []byte) ([]*Table, string, error) {
	var errs []error
	for _, engine := range e.engines {
		tables, err := engine.ReadTables(data)
		if err == nil {
			return tables, engine.Name(), nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", engine.Name(), err))
	}
	return nil, "", fmt.Errorf("%w: %w", ErrUnreadableSpreadsheet, errors.Join(errs...))
}

// ExcelizeEngine reads OOXML workbooks. Cells styled with a date number
// format are returned as typed dates.
type ExcelizeEngine struct{}

// Name implements SpreadsheetEngine.
func (ExcelizeEngine) Name() string { return "excelize" }

// ReadTables implements SpreadsheetEngine.
func (ExcelizeEngine) ReadTables(data []byte) ([]*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var tables []*Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}

		dateStyles := make(map[int]bool)
		table := &Table{Name: sheet}
		for r, row := range rows {
			cells := make([]Cell, len(row))
			for c, value := range row {
				cells[c] = Cell{Text: strings.TrimSpace(value)}
				if cells[c].Text == "" {
					continue
				}
				serial, err := strconv.ParseFloat(cells[c].Text, 64)
				if err != nil {
					continue
				}
				ref, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					continue
				}
				if !isDateCell(f, sheet, ref, dateStyles) {
					continue
				}
				if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
					cells[c].Time = t
					cells[c].HasTime = true
				}
			}
			table.Rows = append(table.Rows, cells)
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func isDateCell(f *excelize.File, sheet, ref string, cache map[int]bool) bool {
	styleID, err := f.GetCellStyle(sheet, ref)
	if err != nil || styleID == 0 {
		return false
	}
	if isDate, ok := cache[styleID]; ok {
		return isDate
	}
	isDate := false
	if style, err := f.GetStyle(styleID); err == nil && style != nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	cache[styleID] = isDate
	return isDate
}

// isDateNumFmt reports whether a built-in number format id renders a date.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormatCode reports whether a custom format code contains day or
// year tokens outside quoted literals and bracketed sections.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '[' && !inQuote:
			inBracket = true
		case r == ']' && !inQuote:
			inBracket = false
		case !inQuote && !inBracket:
			b.WriteRune(r)
		}
	}
	plain := b.String()
	return strings.ContainsAny(plain, "dy")
}

// XLSEngine reads legacy BIFF workbooks.
type XLSEngine struct {
	Charset string
}

// Name implements SpreadsheetEngine.
func (XLSEngine) Name() string { return "xls" }

// ReadTables implements SpreadsheetEngine. The underlying decoder panics on
// some malformed inputs; panics are returned as errors.
func (e XLSEngine) ReadTables(data []byte) (tables []*Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("xls decoder failed: %v", r)
		}
	}()

	charset := e.Charset
	if charset == "" {
		charset = "utf-8"
	}
	wb, err := xls.OpenReader(bytes.NewReader(data), charset)
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		table := &Table{Name: sheet.Name}
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				table.Rows = append(table.Rows, nil)
				continue
			}
			cells := make([]Cell, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, Cell{Text: strings.TrimSpace(row.Col(c))})
			}
			table.Rows = append(table.Rows, cells)
		}
		tables = append(tables, table)
	}
	return tables, nil
}
