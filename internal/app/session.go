package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nibp-labs/cuffstream/internal/decode"
	"github.com/nibp-labs/cuffstream/internal/domain"
	"github.com/nibp-labs/cuffstream/internal/metric"
	"github.com/nibp-labs/cuffstream/internal/ports"
)

// Default session tuning values.
const (
	// DefaultFlushInterval drives the flush consumer at roughly 30 Hz.
	DefaultFlushInterval = 33 * time.Millisecond

	// DefaultReadChunkSize is the transport read buffer size.
	DefaultReadChunkSize = 512
)

// SessionConfig contains configuration for one device session.
type SessionConfig struct {
	// Mode selects the operating mode and, through it, the default
	// trigger threshold.
	Mode domain.OperatingMode

	// Threshold overrides the mode's trigger threshold when > 0.
	Threshold float64

	// BufferSize is the decoder accumulation buffer capacity.
	BufferSize int

	// HistoryCap bounds the plotted history length.
	HistoryCap int

	// FlushInterval is the cadence of the flush consumer.
	FlushInterval time.Duration

	// ReadChunkSize is the transport read buffer size.
	ReadChunkSize int
}

// BatchEmitter receives session output. Implementations must return quickly;
// both callbacks run on the session's flusher goroutine except OnDisconnect,
// which runs on the reader goroutine.
type BatchEmitter interface {
	// OnBatch delivers one flushed batch in arrival order. Called only for
	// non-empty batches. triggered reports whether the threshold trigger
	// has fired.
	OnBatch(batch []domain.Sample, triggered bool)

	// OnDisconnect is called exactly once when the session ends, with the
	// read error that ended it (nil for a clean local close).
	OnDisconnect(err error)
}

// Session owns one connection to the device: the transport, the stream
// decoder, the sample batcher, and the optional log sink. It runs a reader
// goroutine and a flusher goroutine and tears both down on Close or when the
// transport fails (hardware unplug).
type Session struct {
	id      string
	cfg     SessionConfig
	logger  ports.Logger
	metrics *metric.Metrics

	transport ports.Transport
	decoder   *decode.StreamDecoder
	batcher   *SampleBatcher
	emitter   BatchEmitter

	sinkMu sync.Mutex
	sink   ports.SampleSink

	closed    atomic.Bool
	closeOnce sync.Once

	notifyOnce sync.Once
}

// NewSession creates a session over the given transport.
// emitter may be nil; metrics may be nil.
func NewSession(
	cfg SessionConfig,
	transport ports.Transport,
	emitter BatchEmitter,
	logger ports.Logger,
	metrics *metric.Metrics,
) *Session {
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}
	if cfg.ReadChunkSize <= 0 {
		cfg.ReadChunkSize = DefaultReadChunkSize
	}
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = cfg.Mode.TriggerThreshold()
	}

	return &Session{
		id:        uuid.NewString(),
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		transport: transport,
		decoder:   decode.NewStreamDecoder(cfg.BufferSize, logger, metrics),
		batcher:   NewSampleBatcher(threshold, cfg.HistoryCap, metrics),
		emitter:   emitter,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Batcher exposes the sample batcher for history snapshots and clears.
func (s *Session) Batcher() *SampleBatcher {
	return s.batcher
}

// Run executes the reader and flusher until the context is canceled, Close
// is called, or the transport fails. It always returns after both goroutines
// have stopped and the sink, if any, has been closed.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Info("session started",
		ports.String("session", s.id),
		ports.String("mode", s.cfg.Mode.String()))

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return s.readLoop(ctx)
	})
	g.Go(func() error {
		return s.flushLoop(ctx)
	})
	g.Go(func() error {
		// A reader parked in transport.Read only wakes on a transport
		// close, so cancellation must close the transport itself.
		<-ctx.Done()
		_ = s.transport.Close()
		return nil
	})

	err := g.Wait()
	s.StopLogging()
	s.decoder.Reset()

	// A close requested locally is a clean shutdown, not an error.
	if s.closed.Load() || errors.Is(err, context.Canceled) {
		err = nil
	}
	s.logger.Info("session ended", ports.String("session", s.id))
	return err
}

// readLoop blocks on the transport and feeds every chunk through the
// decoder. Decoded samples go to the batcher in arrival order and, when
// logging is active, to the sink.
func (s *Session) readLoop(ctx context.Context) error {
	chunk := make([]byte, s.cfg.ReadChunkSize)

	for {
		n, err := s.transport.Read(chunk)
		if n > 0 {
			now := time.Now()
			for _, sample := range s.decoder.Ingest(chunk[:n]) {
				s.batcher.Push(sample)
				s.appendToSink(now, sample)
			}
		}
		if err != nil {
			// The unplug notification can arrive mid-read at any time;
			// it surfaces here as a read error.
			if s.closed.Load() || ctx.Err() != nil {
				s.notifyDisconnect(nil)
				return nil
			}
			s.logger.Error("transport read failed",
				ports.String("session", s.id),
				ports.Err(err))
			s.notifyDisconnect(err)
			return fmt.Errorf("read: %w", err)
		}
		if ctx.Err() != nil {
			s.notifyDisconnect(nil)
			return nil
		}
	}
}

// flushLoop drains the batcher at the configured cadence and forwards
// non-empty batches to the emitter.
func (s *Session) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final drain so nothing decoded before shutdown is lost.
			s.emitBatch(s.batcher.Flush())
			return nil
		case <-ticker.C:
			s.emitBatch(s.batcher.Flush())
		}
	}
}

func (s *Session) emitBatch(batch []domain.Sample) {
	if len(batch) == 0 || s.emitter == nil {
		return
	}
	s.emitter.OnBatch(batch, s.batcher.Triggered())
}

func (s *Session) appendToSink(t time.Time, sample domain.Sample) {
	s.sinkMu.Lock()
	sink := s.sink
	s.sinkMu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.Append(t, sample); err != nil {
		s.logger.Warn("sink append failed",
			ports.String("session", s.id),
			ports.Err(err))
	}
}

// SendCommand writes a single-byte control command to the device.
func (s *Session) SendCommand(cmd domain.Command) error {
	if s.closed.Load() {
		return domain.ErrTransportClosed
	}
	if err := s.transport.WriteCommand(cmd); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}
	s.logger.Debug("command sent",
		ports.String("session", s.id),
		ports.String("command", cmd.String()))
	return nil
}

// StartLogging opens the sink and routes every subsequent sample to it.
// Returns domain.ErrSinkUnavailable if the sink cannot be opened.
func (s *Session) StartLogging(sink ports.SampleSink) error {
	if err := sink.Start(); err != nil {
		s.logger.Warn("sink start failed", ports.Err(err))
		return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
	}
	s.sinkMu.Lock()
	prev := s.sink
	s.sink = sink
	s.sinkMu.Unlock()
	if prev != nil {
		_ = prev.Stop()
	}
	s.logger.Info("sample logging started", ports.String("session", s.id))
	return nil
}

// StopLogging detaches and closes the sink, if any. Idempotent.
func (s *Session) StopLogging() {
	s.sinkMu.Lock()
	sink := s.sink
	s.sink = nil
	s.sinkMu.Unlock()
	if sink == nil {
		return
	}
	if err := sink.Stop(); err != nil {
		s.logger.Warn("sink stop failed", ports.Err(err))
	}
	s.logger.Info("sample logging stopped",
		ports.String("session", s.id),
		ports.Int64("bytes", sink.Bytes()))
}

// Close disconnects the session: it marks the session closed, closes the
// transport handle (unblocking any in-flight read), and lets Run wind down.
// Close is idempotent and safe to call after the device has already been
// unplugged.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = s.transport.Close()
		s.logger.Info("session closed", ports.String("session", s.id))
	})
	return err
}

func (s *Session) notifyDisconnect(err error) {
	s.notifyOnce.Do(func() {
		if s.emitter != nil {
			s.emitter.OnDisconnect(err)
		}
	})
}
