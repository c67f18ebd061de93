// Package configwatcher provides live configuration reload for cuffstream.
// When enabled, it watches the TOML config file and applies threshold
// changes to the running monitor without a reconnect.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nibp-labs/cuffstream/internal/cliconfig"
	"github.com/nibp-labs/cuffstream/pkg/cuffstream"
	"github.com/nibp-labs/cuffstream/pkg/log"
)

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// Path is the TOML config file to watch.
	// Default: the standard config path (~/.cuffstream/config.toml).
	Path string

	// DebounceDelay is the delay to wait after a file change before
	// reloading, so editors that write in several steps trigger one reload.
	// Default: 100 milliseconds
	DebounceDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Path:          cliconfig.DefaultConfigPath(),
		DebounceDelay: 100 * time.Millisecond,
	}
}

// Plugin implements config file watching. On each change it re-reads the
// file and pushes the trigger threshold into the live monitor.
type Plugin struct {
	mu sync.Mutex

	path          string
	debounceDelay time.Duration

	monitor  *cuffstream.Monitor
	logger   log.Logger
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.Path == "" {
		cfg.Path = cliconfig.DefaultConfigPath()
	}
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{
		path:          cfg.Path,
		debounceDelay: cfg.DebounceDelay,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize sets up the watcher and starts the reload loop.
// A missing config file disables the plugin without error.
func (p *Plugin) Initialize(ctx context.Context, cfg cuffstream.PluginConfig) error {
	p.mu.Lock()
	p.monitor = cfg.Monitor
	p.logger = cfg.Logger
	p.mu.Unlock()

	if p.path == "" || !cliconfig.FileExists(p.path) {
		p.logger.Warn("config watcher disabled: config file not found",
			log.String("path", p.path))
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory, not the file: editors replace files by rename,
	// which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.watcher = watcher
	p.cancel = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go p.watch(watchCtx, watcher)

	p.logger.Info("config watcher started", log.String("path", p.path))
	return nil
}

// watch consumes fsnotify events until the context is canceled. The watcher
// is passed in rather than read from the struct so Shutdown can clear the
// field without racing this goroutine.
func (p *Plugin) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(p.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			p.scheduleReload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

// scheduleReload debounces bursts of file events into one reload.
func (p *Plugin) scheduleReload() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.debounce = time.AfterFunc(p.debounceDelay, p.reload)
}

// reload re-reads the config file and applies the threshold to the monitor.
func (p *Plugin) reload() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Warn("config reload failed", log.Err(err))
		return
	}

	p.mu.Lock()
	monitor := p.monitor
	p.mu.Unlock()
	if monitor == nil {
		return
	}

	if fc.Threshold > 0 {
		monitor.SetThreshold(fc.Threshold)
		p.logger.Info("trigger threshold reloaded",
			log.Float64("threshold", fc.Threshold))
	}
}

// Shutdown stops the watcher and waits for the reload loop to exit.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	if p.debounce != nil {
		p.debounce.Stop()
	}
	watcher := p.watcher
	p.watcher = nil
	p.mu.Unlock()

	if watcher != nil {
		if err := watcher.Close(); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
