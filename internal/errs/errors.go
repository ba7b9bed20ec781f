// Package errs defines the sentinel error kinds used across the pipeline so
// callers can classify failures with errors.Is instead of string matching.
package errs

import "errors"

var (
	// ErrTransport covers DNS, connection, TLS, and timeout failures.
	// Retryable within a connector.
	ErrTransport = errors.New("transport error")

	// ErrAuthDegraded covers HTTP 401/403 responses. Not retried; the
	// connector returns an empty result and logs a warning.
	ErrAuthDegraded = errors.New("auth degraded")

	// ErrParse covers a malformed feed or JSON payload with no salvageable
	// entries. Propagates to the orchestrator as a source failure.
	ErrParse = errors.New("parse error")

	// ErrQuery covers a bad FTS expression or constraint violation.
	ErrQuery = errors.New("query error")

	// ErrStorage covers disk-full or integrity-check failures. Fatal for
	// the current run; prior committed batches remain.
	ErrStorage = errors.New("storage error")

	// ErrConfig covers missing required configuration fields or invalid
	// values. Fatal at startup.
	ErrConfig = errors.New("config error")
)
