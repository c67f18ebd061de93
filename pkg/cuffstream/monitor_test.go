package cuffstream_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nibp-labs/cuffstream/internal/domain"
	"github.com/nibp-labs/cuffstream/pkg/cuffstream"
)

// stubTransport feeds scripted chunks and unblocks reads on Close.
type stubTransport struct {
	mu       sync.Mutex
	chunks   chan []byte
	closed   bool
	commands []cuffstream.Command
}

func newStubTransport() *stubTransport {
	return &stubTransport{chunks: make(chan []byte, 16)}
}

func (t *stubTransport) Read(p []byte) (int, error) {
	chunk, ok := <-t.chunks
	if !ok {
		return 0, domain.ErrTransportClosed
	}
	return copy(p, chunk), nil
}

func (t *stubTransport) WriteCommand(cmd cuffstream.Command) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.ErrTransportClosed
	}
	t.commands = append(t.commands, cmd)
	return nil
}

func (t *stubTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.chunks)
	}
	return nil
}

func (t *stubTransport) sentCommands() []cuffstream.Command {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]cuffstream.Command{}, t.commands...)
}

// batchRecorder collects events for assertions.
type batchRecorder struct {
	mu      sync.Mutex
	samples []cuffstream.Sample
}

func (r *batchRecorder) OnStateChange(cuffstream.StateChangeEvent) {}
func (r *batchRecorder) OnDisconnect(cuffstream.DisconnectEvent)   {}

func (r *batchRecorder) OnSampleBatch(event cuffstream.SampleBatchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, event.Samples...)
}

func (r *batchRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestNew_RequiresPortOrTransport(t *testing.T) {
	_, err := cuffstream.New(cuffstream.Config{})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("New without port = %v, want ErrInvalidConfig", err)
	}

	if _, err := cuffstream.New(cuffstream.Config{},
		cuffstream.WithTransport(newStubTransport())); err != nil {
		t.Errorf("New with transport = %v, want nil", err)
	}
}

func TestMonitor_StartDecodeStop(t *testing.T) {
	transport := newStubTransport()
	recorder := &batchRecorder{}

	monitor, err := cuffstream.New(
		cuffstream.Config{FlushInterval: 5 * time.Millisecond},
		cuffstream.WithTransport(transport),
		cuffstream.WithEventHandler(recorder),
	)
	if err != nil {
		t.Fatalf("New = %v", err)
	}

	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start = %v", err)
	}
	waitFor(t, func() bool { return monitor.Status() == cuffstream.StateRunning },
		"monitor never reached Running")

	if err := monitor.Start(context.Background()); !errors.Is(err, domain.ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}

	frame := domain.EncodeFrame(domain.Sample{CuffPressure: 130.0, PulsePressure: 2.5})
	transport.chunks <- frame[:]

	waitFor(t, func() bool { return recorder.count() == 1 }, "sample batch never delivered")
	waitFor(t, func() bool { return len(monitor.History()) == 1 },
		"post-trigger sample missing from history")
	if !monitor.Triggered() {
		t.Error("trigger must fire at 130 mmHg in measure mode")
	}

	monitor.ClearHistory()
	if len(monitor.History()) != 0 {
		t.Error("ClearHistory left samples behind")
	}

	if err := monitor.SendCommand(cuffstream.CommandAbort); err != nil {
		t.Errorf("SendCommand = %v", err)
	}
	if cmds := transport.sentCommands(); len(cmds) != 1 || cmds[0] != cuffstream.CommandAbort {
		t.Errorf("commands = %v, want [Abort]", cmds)
	}

	if err := monitor.Stop(); err != nil {
		t.Errorf("Stop = %v", err)
	}
	if got := monitor.Status(); got != cuffstream.StateStopped {
		t.Errorf("Status after Stop = %v, want Stopped", got)
	}

	if err := monitor.Stop(); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("second Stop = %v, want ErrNotRunning", err)
	}
}

func TestMonitor_StartReturnsPromptly(t *testing.T) {
	monitor, err := cuffstream.New(cuffstream.Config{},
		cuffstream.WithTransport(newStubTransport()))
	if err != nil {
		t.Fatalf("New = %v", err)
	}

	// Start must never block on its own internal locking.
	done := make(chan error, 1)
	go func() { done <- monitor.Start(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
	}
	defer monitor.Stop()
}

func TestMonitor_SendCommandWhenStopped(t *testing.T) {
	monitor, err := cuffstream.New(cuffstream.Config{},
		cuffstream.WithTransport(newStubTransport()))
	if err != nil {
		t.Fatalf("New = %v", err)
	}

	if err := monitor.SendCommand(cuffstream.CommandStart); !errors.Is(err, domain.ErrNotRunning) {
		t.Errorf("SendCommand = %v, want ErrNotRunning", err)
	}
}

func TestMonitor_ThresholdOverride(t *testing.T) {
	transport := newStubTransport()
	monitor, err := cuffstream.New(
		cuffstream.Config{Threshold: 500, FlushInterval: 5 * time.Millisecond},
		cuffstream.WithTransport(transport),
	)
	if err != nil {
		t.Fatalf("New = %v", err)
	}
	if err := monitor.Start(context.Background()); err != nil {
		t.Fatalf("Start = %v", err)
	}
	defer monitor.Stop()
	waitFor(t, func() bool { return monitor.Status() == cuffstream.StateRunning },
		"monitor never reached Running")

	frame := domain.EncodeFrame(domain.Sample{CuffPressure: 130.0})
	transport.chunks <- frame[:]

	time.Sleep(50 * time.Millisecond)
	if monitor.Triggered() {
		t.Error("130 mmHg must not fire a 500 mmHg threshold")
	}

	monitor.SetThreshold(100)
	transport.chunks <- frame[:]
	waitFor(t, monitor.Triggered, "lowered threshold never fired")
}
