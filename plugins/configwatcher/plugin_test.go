package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nibp-labs/cuffstream/internal/domain"
	"github.com/nibp-labs/cuffstream/pkg/cuffstream"
	"github.com/nibp-labs/cuffstream/pkg/log"
)

type stubTransport struct {
	mu     sync.Mutex
	chunks chan []byte
	closed bool
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

func (t *stubTransport) WriteCommand(cuffstream.Command) error { return nil }

func (t *stubTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.chunks)
	}
	return nil
}

func TestNew_Defaults(t *testing.T) {
	p := New(Config{})
	if p.path == "" {
		t.Error("empty path must fall back to the default config path")
	}
	if p.debounceDelay != 100*time.Millisecond {
		t.Errorf("debounceDelay = %v, want 100ms", p.debounceDelay)
	}
	if p.Name() != "configwatcher" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestInitialize_MissingFileDisables(t *testing.T) {
	p := New(Config{Path: filepath.Join(t.TempDir(), "absent.toml")})

	err := p.Initialize(context.Background(), cuffstream.PluginConfig{
		Logger: log.NewNoopLogger(),
	})
	if err != nil {
		t.Fatalf("Initialize with missing file = %v, want nil", err)
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown = %v", err)
	}
}

func TestReload_AppliesThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("threshold = 500.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

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

	p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	if err := p.Initialize(context.Background(), cuffstream.PluginConfig{
		Monitor: monitor,
		Logger:  log.NewNoopLogger(),
	}); err != nil {
		t.Fatalf("Initialize = %v", err)
	}
	defer p.Shutdown(context.Background())

	frame := domain.EncodeFrame(domain.Sample{CuffPressure: 130.0})
	transport.chunks <- frame[:]
	time.Sleep(50 * time.Millisecond)
	if monitor.Triggered() {
		t.Fatal("130 mmHg must not fire the initial 500 mmHg threshold")
	}

	if err := os.WriteFile(path, []byte("threshold = 100.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Wait for fsnotify delivery plus the debounce window, then feed another
	// sample that clears the lowered threshold.
	deadline := time.Now().Add(2 * time.Second)
	for !monitor.Triggered() && time.Now().Before(deadline) {
		select {
		case transport.chunks <- frame[:]:
		default:
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !monitor.Triggered() {
		t.Fatal("reloaded threshold never applied")
	}
}

func TestShutdown_DuringEventBurst(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("threshold = 500.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(Config{Path: path, DebounceDelay: time.Millisecond})
	if err := p.Initialize(context.Background(), cuffstream.PluginConfig{
		Logger: log.NewNoopLogger(),
	}); err != nil {
		t.Fatalf("Initialize = %v", err)
	}

	// Keep the watch goroutine busy with events while shutting down.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
				_ = os.WriteFile(path, []byte("threshold = 500.0\n"), 0o644)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	time.Sleep(20 * time.Millisecond)
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown = %v", err)
	}
	close(stop)
	wg.Wait()
}

func TestReload_InvalidFileKeepsRunning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("threshold = 500.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New(Config{Path: path, DebounceDelay: 10 * time.Millisecond})
	if err := p.Initialize(context.Background(), cuffstream.PluginConfig{
		Logger: log.NewNoopLogger(),
	}); err != nil {
		t.Fatalf("Initialize = %v", err)
	}

	if err := os.WriteFile(path, []byte("threshold = [broken\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown after bad reload = %v", err)
	}
}
