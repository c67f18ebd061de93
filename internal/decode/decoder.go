package decode

import (
	"golang.org/x/time/rate"

	"github.com/nibp-labs/cuffstream/internal/domain"
	"github.com/nibp-labs/cuffstream/internal/metric"
	"github.com/nibp-labs/cuffstream/internal/ports"
)

// DefaultBufferSize is the capacity of the accumulation buffer.
const DefaultBufferSize = 4096

// StreamDecoder converts an arbitrarily-fragmented byte stream into ordered
// samples. It owns a fixed-capacity accumulation buffer; bytes that do not
// yet form a complete frame are carried over to the next Ingest call.
//
// The decoder is best-effort and self-resynchronizing: malformed regions are
// skipped byte by byte and never surface as errors.
//
// StreamDecoder is not safe for concurrent use; Ingest must be called from a
// single goroutine.
type StreamDecoder struct {
	buf  []byte
	head int

	logger   ports.Logger
	metrics  *metric.Metrics
	warnRate *rate.Limiter
}

// NewStreamDecoder creates a decoder with the given buffer capacity.
// A capacity of 0 or less selects DefaultBufferSize. metrics may be nil.
func NewStreamDecoder(capacity int, logger ports.Logger, metrics *metric.Metrics) *StreamDecoder {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &StreamDecoder{
		buf:     make([]byte, capacity),
		logger:  logger,
		metrics: metrics,
		// Overflow warnings are throttled so a runaway transport cannot
		// flood the log.
		warnRate: rate.NewLimiter(rate.Limit(1), 3),
	}
}

// Ingest appends chunk to the accumulation buffer and scans for complete
// frames. It returns the decoded samples in arrival order; the slice is nil
// when no complete frame was found. The result is independent of how the
// byte stream was fragmented into chunks.
func (d *StreamDecoder) Ingest(chunk []byte) []domain.Sample {
	if len(chunk) == 0 {
		return nil
	}

	// Lossy overflow policy: if the chunk does not fit, all buffered bytes
	// are discarded before appending. A partial frame straddling the reset
	// is lost rather than risking a spliced reconstruction.
	if d.head+len(chunk) > len(d.buf) {
		dropped := d.head
		d.head = 0
		if d.warnRate.Allow() {
			d.logger.Warn("receive buffer overflow, discarding buffered bytes",
				ports.Int("dropped", dropped),
				ports.Int("chunk", len(chunk)),
				ports.Int("capacity", len(d.buf)))
		}
		if d.metrics != nil {
			d.metrics.OverflowResets.Inc()
		}
		if len(chunk) > len(d.buf) {
			// Oversized chunk: keep only the tail that fits.
			chunk = chunk[len(chunk)-len(d.buf):]
		}
	}

	copy(d.buf[d.head:], chunk)
	d.head += len(chunk)

	var samples []domain.Sample

	pos := 0
	for d.head-pos >= domain.FrameSize {
		window := d.buf[pos : pos+domain.FrameSize]

		if window[0] != domain.FrameMarker {
			pos++
			continue
		}

		// A stray marker byte must not cause a valid following frame to be
		// skipped, so every rejection advances by exactly one byte.
		if window[1] != domain.FramePayloadLen {
			pos++
			if d.metrics != nil {
				d.metrics.ResyncSkips.Inc()
			}
			continue
		}

		if domain.Checksum(window) != window[domain.FrameSize-1] {
			pos++
			if d.metrics != nil {
				d.metrics.ChecksumFailures.Inc()
			}
			continue
		}

		samples = append(samples, domain.DecodeFrame(window))
		pos += domain.FrameSize
		if d.metrics != nil {
			d.metrics.FramesDecoded.Inc()
		}
	}

	// Compact: move the unconsumed tail to the front so buffer growth is
	// bounded between calls.
	if pos > 0 {
		copy(d.buf, d.buf[pos:d.head])
		d.head -= pos
	}

	return samples
}

// Buffered returns the number of unconsumed bytes carried in the buffer.
func (d *StreamDecoder) Buffered() int {
	return d.head
}

// Reset discards all buffered bytes. Called when a session ends so a
// reconnect does not splice bytes from two connections.
func (d *StreamDecoder) Reset() {
	d.head = 0
}

// noopLogger avoids nil checks on the hot path.
type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...ports.Field) {}
func (noopLogger) Info(msg string, fields ...ports.Field)  {}
func (noopLogger) Warn(msg string, fields ...ports.Field)  {}
func (noopLogger) Error(msg string, fields ...ports.Field) {}
