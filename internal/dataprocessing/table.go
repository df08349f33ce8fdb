package dataprocessing

import (
	"strings"
	"time"
)

// Format is an input file classification
type Format string

const (
	FormatDelimited   Format = "delimited"
	FormatSpreadsheet Format = "spreadsheet"
	FormatHTML        Format = "html"
)

// Cell is one decoded table cell. HasTime marks cells the source delivered
// as a typed date value.
type Cell struct {
	Text    string
	Time    time.Time
	HasTime bool
}

// Table is a decoded sheet or delimited file. Lines holds the source line of
// each row when it differs from its position.
type Table struct {
	Name  string
	Rows  [][]Cell
	Lines []int
}

// TextCells wraps plain strings as cells.
func TextCells(values []string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Cell{Text: strings.TrimSpace(v)}
	}
	return cells
}

// Line returns the 1-based source line of row i.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 1
}

// Width returns the widest row length.
func (t *Table) Width() int {
	width := 0
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

func (t *Table) cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return Cell{}
	}
	return t.Rows[row][col]
}

func isBlankRow(row []Cell) bool {
	for _, c := range row {
		if c.HasTime || strings.TrimSpace(c.Text) != "" {
			return false
		}
	}
	return true
}
