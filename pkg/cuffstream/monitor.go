package cuffstream

import (
	"context"
	"sync"

	"github.com/nibp-labs/cuffstream/internal/adapters/fs"
	serialAdapter "github.com/nibp-labs/cuffstream/internal/adapters/serial"
	"github.com/nibp-labs/cuffstream/internal/app"
	"github.com/nibp-labs/cuffstream/internal/domain"
	"github.com/nibp-labs/cuffstream/internal/metric"
	"github.com/nibp-labs/cuffstream/internal/ports"
)

// Monitor is a serial pressure-monitoring session manager that can be
// embedded in other applications. Use New() to create an instance, then
// Start() to connect and begin decoding.
type Monitor struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	logger    ports.Logger
	metrics   *metric.Metrics
	plugins   []Plugin

	mu      sync.RWMutex
	session *app.Session
}

// New creates a new Monitor with the given configuration.
// The instance is created in StateStopped; call Start() to connect.
// Returns an error if the configuration is invalid.
func New(cfg Config, opts ...Option) (*Monitor, error) {
	cfg.SetDefaults()

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.validate(o.transport != nil); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	var metrics *metric.Metrics
	if o.registry != nil {
		metrics = metric.New()
		if err := metrics.Register(o.registry); err != nil {
			return nil, err
		}
	}

	m := &Monitor{
		config:  cfg,
		opts:    o,
		logger:  o.logger,
		metrics: metrics,
		plugins: o.plugins,
	}
	m.lifecycle = app.NewLifecycle(o.logger, &emitterWrapper{handler: o.eventHandler})
	return m, nil
}

// Start connects to the device and begins decoding in the background.
// Returns immediately after the session goroutine is running.
// Returns an error if already running or if the transport cannot be opened.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := m.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.lifecycle.SetCancel(cancel)

	pluginCfg := PluginConfig{
		Monitor: m,
		Logger:  m.opts.logger,
	}
	for _, p := range m.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			m.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			_ = m.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		m.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	// Transport availability is checked before the session starts so an
	// absent or busy port surfaces directly from Start.
	transport, err := m.openTransport()
	if err != nil {
		cancel()
		_ = m.lifecycle.TransitionTo(app.StateCrashed, "transport open failed")
		return err
	}

	session := m.newSession(transport)
	m.session = session

	m.lifecycle.AddWorker()
	go func() {
		defer m.lifecycle.WorkerDone()

		if err := m.lifecycle.TransitionTo(app.StateRunning, "session starting"); err != nil {
			m.logger.Error("failed to transition to running", ports.Err(err))
			return
		}

		m.runSessions(runCtx, session)
	}()

	return nil
}

// runSessions runs the current session and, when reconnect is enabled,
// reopens the transport with backoff after an unplug.
func (m *Monitor) runSessions(ctx context.Context, session *app.Session) {
	backoff := app.NewBackoff(app.DefaultBackoffInitial, app.DefaultBackoffMax)

	for {
		err := session.Run(ctx)

		if ctx.Err() != nil || m.lifecycle.State() == app.StateStopping {
			return
		}
		if err == nil {
			// Clean end without a Stop call.
			_ = m.lifecycle.TransitionTo(app.StateStopping, "session ended")
			_ = m.lifecycle.TransitionTo(app.StateStopped, "session ended")
			return
		}

		// Reconnect only applies to transports the monitor opened itself.
		if !m.config.Reconnect || m.opts.transport != nil {
			m.logger.Error("session error", ports.Err(err))
			_ = m.lifecycle.TransitionTo(app.StateCrashed, err.Error())
			return
		}

		m.logger.Warn("device disconnected, reconnecting",
			ports.Err(err),
			ports.Duration("backoff", backoff.Current()))
		if waitErr := backoff.Wait(ctx); waitErr != nil {
			return
		}

		transport, openErr := m.openTransport()
		if openErr != nil {
			m.logger.Warn("reconnect failed", ports.Err(openErr))
			continue
		}
		backoff.Reset()

		m.mu.Lock()
		session = m.newSession(transport)
		m.session = session
		m.mu.Unlock()
	}
}

// Stop disconnects and shuts the monitor down gracefully. It cancels the
// in-flight read, closes the transport, drains the final batch, and waits up
// to the shutdown timeout. Returns nil on graceful shutdown,
// ErrShutdownTimeout if forced.
func (m *Monitor) Stop() error {
	m.mu.Lock()

	if !m.lifecycle.CanStop() {
		m.mu.Unlock()
		return domain.ErrNotRunning
	}
	if err := m.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		m.mu.Unlock()
		return err
	}

	m.lifecycle.Cancel()
	if m.session != nil {
		_ = m.session.Close()
	}
	m.mu.Unlock()

	err := m.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	// Shutdown plugins in reverse order.
	shutdownCtx := context.Background()
	for i := len(m.plugins) - 1; i >= 0; i-- {
		p := m.plugins[i]
		if shutdownErr := p.Shutdown(shutdownCtx); shutdownErr != nil {
			m.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(shutdownErr))
		} else {
			m.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}

	if err != nil {
		_ = m.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = m.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (m *Monitor) Status() State {
	return convertState(m.lifecycle.State())
}

// SendCommand writes a single-byte control command to the device.
func (m *Monitor) SendCommand(cmd Command) error {
	session, err := m.currentSession()
	if err != nil {
		return err
	}
	return session.SendCommand(cmd)
}

// History returns a snapshot of the plotted history, oldest first.
func (m *Monitor) History() []Sample {
	session, err := m.currentSession()
	if err != nil {
		return nil
	}
	return session.Batcher().History()
}

// Triggered reports whether the threshold trigger has fired.
func (m *Monitor) Triggered() bool {
	session, err := m.currentSession()
	if err != nil {
		return false
	}
	return session.Batcher().Triggered()
}

// ClearHistory empties the plotted history and re-arms the trigger.
func (m *Monitor) ClearHistory() {
	if session, err := m.currentSession(); err == nil {
		session.Batcher().Clear()
	}
}

// SetThreshold replaces the trigger threshold on the live session. Used by
// the configwatcher plugin for live reloads; it does not reset a trigger
// that has already fired.
func (m *Monitor) SetThreshold(threshold float64) {
	m.mu.Lock()
	m.config.Threshold = threshold
	session := m.session
	m.mu.Unlock()
	if session != nil {
		session.Batcher().SetThreshold(threshold)
	}
}

// StartLogging begins appending decoded samples to a CSV file at path.
// Returns ErrSinkUnavailable (wrapped) if the file cannot be opened.
func (m *Monitor) StartLogging(path string) error {
	session, err := m.currentSession()
	if err != nil {
		return err
	}
	return session.StartLogging(fs.NewCSVSink(path))
}

// StopLogging closes the CSV log, if one is active.
func (m *Monitor) StopLogging() {
	if session, err := m.currentSession(); err == nil {
		session.StopLogging()
	}
}

func (m *Monitor) currentSession() (*app.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil || !m.lifecycle.CanStop() {
		return nil, domain.ErrNotRunning
	}
	return m.session, nil
}

func (m *Monitor) openTransport() (ports.Transport, error) {
	if m.opts.transport != nil {
		return m.opts.transport, nil
	}
	return serialAdapter.Open(serialAdapter.Config{
		Address:  m.config.Port,
		BaudRate: m.config.BaudRate,
		DataBits: m.config.DataBits,
		StopBits: m.config.StopBits,
		Parity:   m.config.Parity,
	})
}

// newSession builds a session from the current config.
// Callers must hold m.mu; the config threshold may change under SetThreshold.
func (m *Monitor) newSession(transport ports.Transport) *app.Session {
	return app.NewSession(
		app.SessionConfig{
			Mode:          m.config.Mode,
			Threshold:     m.config.Threshold,
			BufferSize:    m.config.BufferSize,
			HistoryCap:    m.config.HistoryCap,
			FlushInterval: m.config.FlushInterval,
		},
		transport,
		&emitterWrapper{handler: m.opts.eventHandler},
		m.logger,
		m.metrics,
	)
}

// emitterWrapper adapts EventHandler to the internal emitter interfaces.
type emitterWrapper struct {
	handler EventHandler
}

func (e *emitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *emitterWrapper) OnBatch(batch []domain.Sample, triggered bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnSampleBatch(SampleBatchEvent{
		Samples:   batch,
		Triggered: triggered,
	})
}

func (e *emitterWrapper) OnDisconnect(err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnDisconnect(DisconnectEvent{Err: err})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
