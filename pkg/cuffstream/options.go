package cuffstream

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nibp-labs/cuffstream/internal/domain"
	"github.com/nibp-labs/cuffstream/pkg/log"
)

// Logger is the structured logging interface accepted by WithLogger.
type Logger = log.Logger

// Transport abstracts the raw byte stream to and from the device.
// It matches the internal transport port, so custom implementations (replay
// files, network bridges, test doubles) can be injected with WithTransport.
type Transport interface {
	// Read blocks until the next chunk of raw bytes arrives.
	Read(p []byte) (int, error)

	// WriteCommand sends a single-byte control command.
	WriteCommand(cmd domain.Command) error

	// Close releases the handle. Must be idempotent.
	Close() error
}

// Option configures optional behavior of a Monitor.
type Option func(*options)

// options holds the optional configuration for a Monitor instance.
type options struct {
	logger       log.Logger
	eventHandler EventHandler
	transport    Transport
	registry     prometheus.Registerer
	plugins      []Plugin
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for monitor events.
// Events are called synchronously from the monitor goroutines.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithTransport injects a custom transport instead of opening the serial
// port from Config. Automatic reconnect is unavailable with an injected
// transport.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithMetrics registers the monitor's Prometheus collectors on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithPlugin registers a plugin to be initialized when the Monitor starts.
// Plugins are initialized in registration order and shut down in reverse
// order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
