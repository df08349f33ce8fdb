// Package files provides file system helpers for the capacity store and
// batch ingestion.
//
// Manager copies and reads files relative to the configured data directory;
// the store uses it for its .bak copies, restores and exports.
//
// Discovery expands file and directory arguments into an ordered list of
// import files. Directory contents are ordered by modification time so the
// newest export wins when several files carry the same employee-day.
package files
