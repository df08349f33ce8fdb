// Package services implements the operations of the capacity engine on top
// of the extraction pipeline, the record store and the planning document.
// Both the camp CLI and the HTTP transport call into this layer.
//
// # Services
//
//	IngestService    file → extraction → records → merge → store write
//	RecordsService   search, delete, clear, restore and export of the store
//	PlanningService  sprint totals, daily grids, summaries and CSV reports
//	HealthService    liveness, readiness and version information
//
// # Errors
//
// Row-level problems never fail a call; they are returned as warnings in
// the result. Structural problems are returned as *errors.AppError values
// wrapping the sentinel of the package that detected them, so callers can
// use both errors.Is on the sentinel and errors.As on the AppError:
//
//	PARSING     the input could not be read as a capacity table
//	VALIDATION  the input file or options were rejected up front
//	NOT_FOUND   missing input, backup, project or sprint
//	STORAGE     the store could not be read or written
//	CONFIG      the project document is malformed
//
// Nothing is written to the store when a call fails with a structural error.
//
// # Context
//
// Every operation takes a context.Context. The ingestion run id is the
// context trace id (infrastructure.EnsureTraceID) so log lines, spans and
// the returned IngestResult share one identifier.
package services
