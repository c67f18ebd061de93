package ports

import "github.com/nibp-labs/cuffstream/pkg/log"

// Logger is the structured logging abstraction consumed by internal packages.
// It aliases the pkg/log interface so the application layer does not import
// infrastructure packages directly.
type Logger = log.Logger

// Field is a key-value pair for structured logging.
type Field = log.Field

// Field constructors re-exported for convenience.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
