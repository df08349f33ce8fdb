// Package normalize turns the loosely formatted numbers and dates found in
// time-tracking exports into canonical values, and derives the full-day
// capacity of a logged hours value.
//
// Numbers accept either "." or "," as decimal separator. Dates accept
// DD.MM.YYYY, DD/MM/YYYY, YYYY-MM-DD and spreadsheet serial day counts
// measured from 1899-12-30.
package normalize
