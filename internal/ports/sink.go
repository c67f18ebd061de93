package ports

import (
	"time"

	"github.com/nibp-labs/cuffstream/internal/domain"
)

// SampleSink is a persistent consumer of decoded samples.
// The canonical implementation appends CSV rows to a file.
type SampleSink interface {
	// Start opens the append stream. Returns an error if the sink cannot
	// be opened; in that case logging simply does not begin.
	Start() error

	// Append writes one timestamped sample. Safe to call only between
	// Start and Stop.
	Append(t time.Time, s domain.Sample) error

	// Bytes returns the running count of bytes written since Start.
	Bytes() int64

	// Stop closes the append stream. Stop is idempotent.
	Stop() error
}
