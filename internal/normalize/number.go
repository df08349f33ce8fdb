package normalize

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// MinHours and MaxHours bound a plausible single-day hours value
	MinHours = decimal.Zero
	MaxHours = decimal.NewFromInt(24)
)

// ParseDecimal parses a number written with either "." or "," as decimal
// separator. When both separators appear, the one occurring last is the
// decimal separator and the other one groups thousands. A separator that
// repeats (1.234.567) is always a thousands separator.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\u00a0", ""))
	if s == "" {
		return decimal.Zero, ErrEmptyValue
	}

	if d, err := decimal.NewFromString(unifySeparators(s)); err == nil {
		return d, nil
	}

	// Strip units, currency signs and stray text, then retry once.
	cleaned := keepNumeric(s)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	d, err := decimal.NewFromString(unifySeparators(cleaned))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}
	return d, nil
}

// ParseHours parses a daily hours value and rejects values outside [0, 24].
func ParseHours(raw string) (decimal.Decimal, error) {
	d, err := ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if err := CheckHours(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckHours validates an already numeric hours value.
func CheckHours(d decimal.Decimal) error {
	if d.LessThan(MinHours) || d.GreaterThan(MaxHours) {
		return fmt.Errorf("%w: %s", ErrHoursOutOfRange, d.String())
	}
	return nil
}

// FormatDecimal renders d with "." as separator and at least one fractional
// digit (8 -> "8.0", 0.50 -> "0.5").
func FormatDecimal(d decimal.Decimal) string {
	s := d.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func unifySeparators(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "'", "")

	lastComma := strings.LastIndex(s, ",")
	lastPoint := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastPoint >= 0:
		if lastComma > lastPoint {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastPoint >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}
	return s
}

func keepNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case r == '-' && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), ".,")
}
