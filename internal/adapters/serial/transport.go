// Package serial implements ports.Transport over a serial port using
// goburrow/serial.
package serial

import (
	"fmt"
	"sync"

	"github.com/goburrow/serial"

	"github.com/nibp-labs/cuffstream/internal/domain"
)

// Config describes the serial port to open.
type Config struct {
	// Address is the port path, e.g. /dev/ttyUSB0 or COM3.
	Address string

	// BaudRate is the line speed in bits per second.
	BaudRate int

	// DataBits, StopBits and Parity follow goburrow/serial conventions.
	// Zero values select 8-N-1.
	DataBits int
	StopBits int
	Parity   string
}

// Transport implements ports.Transport over a serial port.
type Transport struct {
	mu     sync.Mutex
	port   serial.Port
	closed bool
}

// Open opens the serial port described by cfg. An open failure means the
// transport is unavailable; it is surfaced before any session starts.
func Open(cfg Config) (*Transport, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("serial: port address required")
	}
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 9600
	}
	if cfg.DataBits <= 0 {
		cfg.DataBits = 8
	}
	if cfg.StopBits <= 0 {
		cfg.StopBits = 1
	}
	if cfg.Parity == "" {
		cfg.Parity = "N"
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Address, err)
	}

	return &Transport{port: port}, nil
}

// Read blocks until the next chunk of bytes arrives. Closing the transport
// (or unplugging the device) unblocks the read with an error.
func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, domain.ErrTransportClosed
	}
	port := t.port
	t.mu.Unlock()

	return port.Read(p)
}

// WriteCommand sends a single-byte control command.
func (t *Transport) WriteCommand(cmd domain.Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.ErrTransportClosed
	}
	if _, err := t.port.Write([]byte{byte(cmd)}); err != nil {
		return fmt.Errorf("serial: write command: %w", err)
	}
	return nil
}

// Close closes the port. Idempotent; tolerates the device having already
// been unplugged.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.port.Close()
}
