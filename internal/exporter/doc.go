// Package exporter writes sprint reports as CSV files.
//
// CSVWriter renders rows with a UTF-8 BOM and a semicolon separator so
// spreadsheet tools with a German locale open them directly, and replaces
// the target atomically. SprintExporter builds the totals and daily grid
// reports on top of it.
package exporter
