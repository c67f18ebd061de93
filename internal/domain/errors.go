package domain

import "errors"

// Domain errors represent error conditions in the cuffstream domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running monitor.
	ErrAlreadyRunning = errors.New("cuffstream: already running")

	// ErrNotRunning is returned when an operation requires a running monitor.
	ErrNotRunning = errors.New("cuffstream: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("cuffstream: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("cuffstream: invalid configuration")

	// ErrTransportClosed is returned when reading or writing a closed transport.
	ErrTransportClosed = errors.New("cuffstream: transport closed")

	// ErrSinkUnavailable is returned when the sample log cannot be opened or
	// has already been closed.
	ErrSinkUnavailable = errors.New("cuffstream: sink unavailable")
)
