package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is the canonical DD.MM.YYYY rendering used in the store file.
const DisplayLayout = "02.01.2006"

// SerialEpoch is day zero of spreadsheet serial dates. The two day offset
// against 1900-01-01 mirrors the spreadsheet leap year quirk.
var SerialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxSerial is 9999-12-31 as a serial day count
const maxSerial = 2958465

var dateLayouts = []string{
	"2.1.2006",
	"2/1/2006",
	"2006-1-2",
	"2006/1/2",
	"2.1.06",
}

// ParseDate parses DD.MM.YYYY, DD/MM/YYYY, YYYY-MM-DD or a serial day count.
// A trailing time of day is ignored. The result is midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", " "))
	if s == "" {
		return time.Time{}, ErrEmptyValue
	}

	if serial, ok := parseSerial(s); ok {
		if serial <= 0 || serial > maxSerial {
			return time.Time{}, fmt.Errorf("%w: serial %d out of range", ErrInvalidDate, serial)
		}
		return FromSerial(serial), nil
	}

	s = stripTimeOfDay(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
}

// FromSerial converts a spreadsheet serial day count into a calendar date.
func FromSerial(serial int) time.Time {
	return SerialEpoch.AddDate(0, 0, serial)
}

// ToSerial is the inverse of FromSerial.
func ToSerial(t time.Time) int {
	return int(Day(t).Sub(SerialEpoch).Hours() / 24)
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(DisplayLayout)
}

// Day drops the time of day and location of t.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsPlausibleSerial reports whether n looks like a serial date of a modern
// timesheet (1954 to 2119) rather than an ordinary number.
func IsPlausibleSerial(n float64) bool {
	return n >= 20000 && n <= 80000
}

func parseSerial(s string) (int, bool) {
	intPart := s
	if i := strings.IndexAny(s, ".,"); i >= 0 {
		frac := s[i+1:]
		if strings.ContainsAny(frac, ".,/-") {
			return 0, false
		}
		for _, r := range frac {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		intPart = s[:i]
	}
	if intPart == "" {
		return 0, false
	}
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	// Without a fraction, long digit runs are more likely compact dates
	// or ids than serials.
	if len(intPart) > 7 {
		return 0, false
	}
	n, err := strconv.Atoi(intPart)
	if err != nil {
		return 0, false
	}
	return n, true
}

func stripTimeOfDay(s string) string {
	if i := strings.IndexAny(s, " T"); i > 0 {
		return s[:i]
	}
	return s
}
