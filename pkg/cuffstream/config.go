package cuffstream

import (
	"fmt"
	"time"

	"github.com/nibp-labs/cuffstream/internal/domain"
)

// Re-exported domain types for convenient access.
type (
	// Sample is one decoded measurement.
	Sample = domain.Sample

	// Mode selects the operating mode and its trigger threshold.
	Mode = domain.OperatingMode

	// Command is a single-byte control instruction for the device.
	Command = domain.Command
)

// Re-exported domain constants.
const (
	ModeMeasure       = domain.ModeMeasure
	ModeLinearDeflate = domain.ModeLinearDeflate

	CommandStart         = domain.CommandStart
	CommandAbort         = domain.CommandAbort
	CommandLinearDeflate = domain.CommandLinearDeflate
)

// Config holds the configuration for a Monitor.
// Use it with the zero value plus Port set, or adjust the tuning fields;
// SetDefaults fills everything else.
type Config struct {
	// Port is the serial port path, e.g. /dev/ttyUSB0.
	// Required unless a custom transport is injected via WithTransport.
	Port string

	// BaudRate is the serial line speed. Default 9600.
	BaudRate int

	// DataBits, StopBits and Parity default to 8-N-1.
	DataBits int
	StopBits int
	Parity   string

	// Mode selects the operating mode. Default ModeMeasure.
	Mode Mode

	// Threshold overrides the mode's trigger threshold when > 0.
	Threshold float64

	// BufferSize is the decoder accumulation buffer capacity. Default 4096.
	BufferSize int

	// HistoryCap bounds the plotted history length. Default 3600.
	HistoryCap int

	// FlushInterval is the cadence of the flush consumer. Default 33ms.
	FlushInterval time.Duration

	// Reconnect enables automatic reconnection with exponential backoff
	// after the device is unplugged.
	Reconnect bool
}

// SetDefaults fills unset fields with default values.
func (c *Config) SetDefaults() {
	if c.BaudRate <= 0 {
		c.BaudRate = 9600
	}
	if c.DataBits <= 0 {
		c.DataBits = 8
	}
	if c.StopBits <= 0 {
		c.StopBits = 1
	}
	if c.Parity == "" {
		c.Parity = "N"
	}
	if c.BufferSize <= 0 {
		c.BufferSize = 4096
	}
	if c.HistoryCap <= 0 {
		c.HistoryCap = 3600
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 33 * time.Millisecond
	}
}

// Validate checks the configuration for errors.
// A Monitor with an injected transport does not need a Port.
func (c *Config) validate(hasTransport bool) error {
	if c.Port == "" && !hasTransport {
		return fmt.Errorf("%w: port is required", domain.ErrInvalidConfig)
	}
	if c.Threshold < 0 {
		return fmt.Errorf("%w: threshold must not be negative", domain.ErrInvalidConfig)
	}
	if c.Mode != ModeMeasure && c.Mode != ModeLinearDeflate {
		return fmt.Errorf("%w: unknown mode", domain.ErrInvalidConfig)
	}
	return nil
}
