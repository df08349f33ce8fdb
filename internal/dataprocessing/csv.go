package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor reads delimited text using the sniffed delimiter
type CSVExtractor struct{}

// NewCSVExtractor creates a CSV extractor.
func NewCSVExtractor() *CSVExtractor {
	return &CSVExtractor{}
}

// Format implements Extractor.
func (e *CSVExtractor) Format() Format {
	return FormatDelimited
}

// Extract implements Extractor. With ForecastOnly set and no row flagged as
// forecast, every row is kept and a warning is recorded.
func (e *CSVExtractor) Extract(in Input, opts ExtractOptions) (*Extraction, error) {
	text := in.Detection.Text
	if text == "" {
		decoded, enc, ok := DecodeText(in.Data)
		if !ok {
			return nil, fmt.Errorf("%s: content is not text", in.Name)
		}
		text = decoded
		in.Detection.Encoding = enc
	}
	delimiter := in.Detection.Delimiter
	if delimiter == 0 {
		delimiter = DetectDelimiter(text, in.Name, opts.SampleRows)
	}

	var warnings Warnings
	table, err := readDelimited(in.Name, text, delimiter, &warnings)
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("%s: %w", in.Name, ErrNoUsableRows)
	}

	cols, err := InferColumns(table, InferOptions{
		RequireEmployee: opts.EmployeeID == "",
		SampleRows:      opts.SampleRows,
	})
	if err != nil {
		return nil, err
	}

	mode := forecastOff
	if opts.ForecastOnly {
		mode = forecastLenient
	}
	rows := tableRows(table, cols, opts, mode, &warnings)

	return &Extraction{
		Encoding: in.Detection.Encoding,
		Table:    table.Name,
		Columns:  cols,
		Rows:     rows,
		Warnings: warnings.List(),
	}, nil
}

func readDelimited(name, text string, delimiter rune, w *Warnings) (*Table, error) {
	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, "\ufeff")))
	r.Comma = delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	table := &Table{Name: name}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				w.Addf("%s row %d: %v", name, parseErr.StartLine, parseErr.Err)
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		line, _ := r.FieldPos(0)
		table.Rows = append(table.Rows, TextCells(record))
		table.Lines = append(table.Lines, line)
	}
	return table, nil
}
