// Package errors defines sentinel errors for daybook operations and the
// mapping from error categories to process exit codes.
//
// Errors are grouped by concern: encryption tool failures, configuration
// problems, journal entry problems, and watcher lifecycle problems. Callers
// wrap these sentinels with context using fmt.Errorf and %w, and main maps
// the final error to an exit code with ExitCode.
package errors
