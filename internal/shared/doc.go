// Package shared holds helpers used by more than one package. The testutil
// subpackage provides an in-memory slog handler for asserting on log output.
package shared
