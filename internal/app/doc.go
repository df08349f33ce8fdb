// Package app wires the capacity engine together. It loads nothing itself:
// callers pass a loaded config.Config and get back an Application holding
// the store, the services and the HTTP server built on them.
//
// # Initialization Flow
//
//	1. Initialize logging (or use the logger passed in Options)
//	2. Resolve and create the data, export and log directories
//	3. Initialize tracing and the Prometheus registry
//	4. Create the store and the ingest, records, planning and health services
//	5. Build the chi router and the HTTP server
//
// CLI commands use the services directly and call Close when done, which
// flushes spans and writes the metrics textfile if one is configured. The
// serve command calls Run, which blocks until SIGINT or SIGTERM and then
// shuts the server down gracefully.
//
// Initialization errors are returned to the caller; the package never
// calls os.Exit.
package app
