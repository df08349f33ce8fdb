package store

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"campcli/internal/normalize"
	"campcli/pkg/contracts/domain"
)

// Separator is the field separator of the store file.
const Separator = ';'

// Header holds the column names of the canonical store file.
var Header = []string{"ID", "DATUM", "STUNDEN", "KAPAZITÄT"}

// Decode reads store rows from r. The canonical header, blank lines and
// rows with fewer than three fields are skipped; rows that fail to parse
// are skipped and reported in the returned warnings. A missing capacity
// column is derived from the hours.
func Decode(r io.Reader) ([]domain.CapacityRecord, []string, error) {
	reader := csv.NewReader(r)
	reader.Comma = Separator
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	var records []domain.CapacityRecord
	var warnings []string
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				warnings = append(warnings, fmt.Sprintf("line %d: %v", parseErr.StartLine, parseErr.Err))
				continue
			}
			return nil, warnings, fmt.Errorf("failed to read store: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(fields) > 0 {
			fields[0] = strings.TrimPrefix(fields[0], "\ufeff")
		}
		if len(fields) < 3 {
			continue
		}
		if isHeader(fields) {
			continue
		}

		rec, err := decodeRecord(fields)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		records = append(records, rec)
	}
	return records, warnings, nil
}

// isHeader reports whether fields spell the canonical header. The capacity
// column is optional since older files were written without it.
func isHeader(fields []string) bool {
	for i := 0; i < 3; i++ {
		if !strings.EqualFold(strings.TrimSpace(fields[i]), Header[i]) {
			return false
		}
	}
	if len(fields) > 3 {
		if c := strings.TrimSpace(fields[3]); c != "" && !strings.EqualFold(c, Header[3]) {
			return false
		}
	}
	return true
}

func decodeRecord(fields []string) (domain.CapacityRecord, error) {
	employee := strings.TrimSpace(fields[0])
	if employee == "" {
		return domain.CapacityRecord{}, errors.New("missing employee id")
	}
	date, err := normalize.ParseDate(fields[1])
	if err != nil {
		return domain.CapacityRecord{}, err
	}
	hours, err := normalize.ParseHours(fields[2])
	if err != nil {
		return domain.CapacityRecord{}, fmt.Errorf("hours: %w", err)
	}

	capacity := normalize.Capacity(hours)
	if len(fields) >= 4 && strings.TrimSpace(fields[3]) != "" {
		stored, err := normalize.ParseDecimal(fields[3])
		if err != nil {
			return domain.CapacityRecord{}, fmt.Errorf("capacity: %w", err)
		}
		capacity = stored
	}

	return domain.CapacityRecord{
		EmployeeID: employee,
		Date:       date,
		Hours:      hours,
		Capacity:   capacity,
	}, nil
}

// Encode writes records with the canonical header to w.
func Encode(w io.Writer, records []domain.CapacityRecord) error {
	writer := csv.NewWriter(w)
	writer.Comma = Separator
	if err := writer.Write(Header); err != nil {
		return err
	}
	row := make([]string, len(Header))
	for _, rec := range records {
		row[0] = rec.EmployeeID
		row[1] = normalize.FormatDate(rec.Date)
		row[2] = normalize.FormatDecimal(rec.Hours)
		row[3] = normalize.FormatDecimal(rec.Capacity)
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Render returns the canonical file content for records.
func Render(records []domain.CapacityRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sameValues reports whether two records for the same key carry equal data.
func sameValues(a, b domain.CapacityRecord) bool {
	return a.Hours.Equal(b.Hours) && a.Capacity.Equal(b.Capacity)
}
