package normalize

import "errors"

var (
	ErrEmptyValue      = errors.New("empty value")
	ErrInvalidNumber   = errors.New("invalid number")
	ErrHoursOutOfRange = errors.New("hours outside plausible daily range")
	ErrInvalidDate     = errors.New("invalid date")
)
