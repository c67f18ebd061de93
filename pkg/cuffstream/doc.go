// Package cuffstream provides an embeddable monitor for serial-attached
// pressure-measurement devices.
//
// The monitor owns one device session at a time: it reads the raw byte
// stream, decodes the device's fixed 11-byte frames into samples, batches
// them at a fixed flush cadence, and maintains a threshold-gated, bounded
// history suitable for plotting. It can be used through the cuffstream CLI
// or embedded as a library.
//
// # Basic Usage
//
//	cfg := cuffstream.Config{
//	    Port:     "/dev/ttyUSB0",
//	    BaudRate: 115200,
//	    Mode:     cuffstream.ModeMeasure,
//	}
//
//	monitor, err := cuffstream.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := monitor.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer monitor.Stop()
//
//	if err := monitor.SendCommand(cuffstream.CommandStart); err != nil {
//	    log.Printf("start command failed: %v", err)
//	}
//
// # Event Handling
//
// To receive decoded sample batches and lifecycle notifications, implement
// [EventHandler] and pass it via [WithEventHandler]:
//
//	handler := &myEventHandler{}
//	monitor, err := cuffstream.New(cfg, cuffstream.WithEventHandler(handler))
//
// OnSampleBatch fires at roughly the flush cadence (about 30 Hz) with every
// sample decoded since the previous flush, in arrival order. Events are
// called synchronously; implementations should return quickly.
//
// # Dependency Injection
//
// For testing or replay, inject a custom byte source:
//
//	monitor, err := cuffstream.New(cfg,
//	    cuffstream.WithTransport(replayTransport),
//	    cuffstream.WithLogger(customLogger),
//	)
//
// # Lifecycle States
//
// A Monitor can be in one of five states: [StateStopped], [StateStarting],
// [StateRunning], [StateStopping], or [StateCrashed]. Use [Monitor.Status]
// to query the current state. With Config.Reconnect set, an unplugged device
// is reopened with exponential backoff instead of crashing the monitor.
//
// # Plugins
//
// Optional plugins extend the monitor:
//
//	import "github.com/nibp-labs/cuffstream/plugins/configwatcher"
//
//	monitor, err := cuffstream.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.DefaultConfig()),
//	)
package cuffstream
