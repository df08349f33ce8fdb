package dataprocessing

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyInput            = errors.New("input is empty")
	ErrUnreadableSpreadsheet = errors.New("spreadsheet could not be decoded by any engine")
	ErrColumnNotIdentified   = errors.New("required column not identified")
	ErrNoUsableRows          = errors.New("no usable rows found")
)

// ColumnError reports which required column inference could not find
type ColumnError struct {
	Field string
	Table string
}

func (e *ColumnError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s column not identified", e.Field)
	}
	return fmt.Sprintf("%s column not identified in %q", e.Field, e.Table)
}

func (e *ColumnError) Unwrap() error {
	return ErrColumnNotIdentified
}
