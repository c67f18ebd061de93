// Package cuffstream re-exports the monitor API so callers can import the
// module root instead of pkg/cuffstream.
//
// Example usage:
//
//	cfg := cuffstream.Config{Port: "/dev/ttyUSB0", BaudRate: 115200}
//	m, err := cuffstream.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := m.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Stop()
package cuffstream

import (
	monitor "github.com/nibp-labs/cuffstream/pkg/cuffstream"
)

// Core types re-exported from pkg/cuffstream.
type (
	Config       = monitor.Config
	Monitor      = monitor.Monitor
	Option       = monitor.Option
	EventHandler = monitor.EventHandler
	Sample       = monitor.Sample
	Mode         = monitor.Mode
	Command      = monitor.Command
	State        = monitor.State
)

// Re-exported constants.
const (
	ModeMeasure       = monitor.ModeMeasure
	ModeLinearDeflate = monitor.ModeLinearDeflate

	CommandStart         = monitor.CommandStart
	CommandAbort         = monitor.CommandAbort
	CommandLinearDeflate = monitor.CommandLinearDeflate
)

// New creates a new Monitor with the given configuration.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	return monitor.New(cfg, opts...)
}
