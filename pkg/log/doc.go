// Package log provides a minimal structured logging abstraction for
// cuffstream.
//
// The [Logger] interface decouples the monitoring engine from any concrete
// logging library. The default adapter wraps zerolog with console output;
// [NoopLogger] discards everything and is the default for embedded use.
//
// Fields are created with the typed constructors ([String], [Int], [Err],
// ...) and passed variadically:
//
//	logger.Warn("receive buffer overflow",
//	    log.Int("dropped", dropped),
//	    log.Int("capacity", cap))
package log
