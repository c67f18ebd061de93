package cuffstream

import (
	"context"

	"github.com/nibp-labs/cuffstream/pkg/log"
)

// Plugin extends a Monitor with optional functionality (config watching,
// custom exporters). Plugins are initialized when the Monitor starts and
// shut down in reverse order when it stops.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize sets up the plugin. Returning an error aborts Start.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases plugin resources.
	Shutdown(ctx context.Context) error
}

// PluginConfig provides plugins with the monitor context they operate on.
type PluginConfig struct {
	// Monitor is the owning monitor. Plugins may adjust live settings
	// through it (e.g. SetThreshold).
	Monitor *Monitor

	// Logger is the monitor's logger.
	Logger log.Logger
}
