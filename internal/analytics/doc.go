// Package analytics derives sprint aggregates from capacity records.
//
// All functions are pure: they take the records loaded from the store and
// a SprintWindow and never touch the file system. Results are
// roster-complete, so every roster member appears even without records.
package analytics
