package ports

import "github.com/nibp-labs/cuffstream/internal/domain"

// Transport provides the raw byte stream to and from the monitoring device.
// Implementations wrap a serial port or a replay source.
type Transport interface {
	// Read fills p with the next available chunk of raw bytes and returns
	// the number of bytes read. It blocks until data arrives, the transport
	// is closed, or the device is unplugged. There is no read timeout.
	//
	// Chunk boundaries carry no meaning: a frame may arrive split across
	// any number of reads, and one read may carry several frames.
	Read(p []byte) (int, error)

	// WriteCommand sends a single-byte control command to the device.
	// Returns domain.ErrTransportClosed if the transport is no longer open.
	WriteCommand(cmd domain.Command) error

	// Close releases the underlying handle. Close is idempotent and must
	// tolerate the device having already been unplugged.
	Close() error
}
