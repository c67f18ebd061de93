package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/nibp-labs/cuffstream/internal/cliconfig"
	"github.com/nibp-labs/cuffstream/pkg/cuffstream"
	logpkg "github.com/nibp-labs/cuffstream/pkg/log"
	"github.com/nibp-labs/cuffstream/plugins/configwatcher"
)

const helpDescription = `
Stream live readings from a serial-attached pressure-monitoring device.

Highlights:
  - Decodes the device's framed byte protocol with automatic resynchronization.
  - Batches samples at a fixed cadence so bursty input never floods the output.
  - Optional CSV logging and Prometheus metrics.
  - Configure via file (~/.cuffstream/config.toml), CUFFSTREAM_* env, or flags.
`

var exampleUsage = strings.TrimSpace(`
  cuffstream --port /dev/ttyUSB0 --baud 115200 --auto-start
  cuffstream --port COM3 --mode deflate --log readings.csv
  cuffstream --config /etc/cuffstream/config.toml --metrics-addr :9090
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var autoStart bool

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "cuffstream",
		Short:   "Stream live readings from a serial pressure-monitoring device",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Flags override env, env overrides file.
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			mode, err := cfg.OperatingMode()
			if err != nil {
				return err
			}

			log.Info().Interface("config", cfg).Msg("configuration")

			libCfg := cuffstream.Config{
				Port:          cfg.Port,
				BaudRate:      cfg.BaudRate,
				DataBits:      cfg.DataBits,
				StopBits:      cfg.StopBits,
				Parity:        cfg.Parity,
				Mode:          mode,
				Threshold:     cfg.Threshold,
				BufferSize:    cfg.BufferSize,
				HistoryCap:    cfg.HistoryCap,
				FlushInterval: cfg.FlushInterval,
				Reconnect:     true,
			}

			opts := []cuffstream.Option{
				cuffstream.WithLogger(logpkg.NewZerologAdapterWithLogger(log)),
				cuffstream.WithEventHandler(newReadoutHandler(log)),
			}

			var registry *prometheus.Registry
			if cfg.MetricsAddr != "" {
				registry = prometheus.NewRegistry()
				opts = append(opts, cuffstream.WithMetrics(registry))
			}
			if cfg.WatchConfig && cfgFile != "" {
				opts = append(opts, configwatcher.WithConfigWatcher(configwatcher.Config{
					Path: cfgFile,
				}))
			}

			monitor, err := cuffstream.New(libCfg, opts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(),
				syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := monitor.Start(ctx); err != nil {
				return err
			}

			if registry != nil {
				go serveMetrics(cfg.MetricsAddr, registry, log)
			}
			if cfg.LogPath != "" {
				if err := monitor.StartLogging(cfg.LogPath); err != nil {
					log.Warn().Err(err).Str("path", cfg.LogPath).
						Msg("sample logging unavailable")
				} else {
					log.Info().Str("path", cfg.LogPath).Msg("logging samples")
				}
			}
			if autoStart {
				startCmd := cuffstream.CommandStart
				if mode == cuffstream.ModeLinearDeflate {
					startCmd = cuffstream.CommandLinearDeflate
				}
				if err := monitor.SendCommand(startCmd); err != nil {
					log.Warn().Err(err).Msg("auto-start command failed")
				}
			}

			<-ctx.Done()
			log.Info().Msg("shutting down")
			return monitor.Stop()
		},
	}

	flags := root.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "path to TOML config file")
	flags.StringVarP(&cfg.Port, "port", "p", cfg.Port, "serial port path (e.g. /dev/ttyUSB0)")
	flags.IntVarP(&cfg.BaudRate, "baud", "b", cfg.BaudRate, "serial baud rate")
	flags.IntVar(&cfg.DataBits, "data-bits", cfg.DataBits, "serial data bits")
	flags.IntVar(&cfg.StopBits, "stop-bits", cfg.StopBits, "serial stop bits")
	flags.StringVar(&cfg.Parity, "parity", cfg.Parity, "serial parity (N, E, O)")
	flags.StringVarP(&cfg.Mode, "mode", "m", cfg.Mode, "operating mode: measure or deflate")
	flags.Float64VarP(&cfg.Threshold, "threshold", "t", cfg.Threshold, "trigger threshold override (mmHg)")
	flags.IntVar(&cfg.BufferSize, "buffer-size", cfg.BufferSize, "decoder buffer capacity in bytes")
	flags.IntVar(&cfg.HistoryCap, "history-cap", cfg.HistoryCap, "plotted history length bound")
	flags.DurationVar(&cfg.FlushInterval, "flush-interval", cfg.FlushInterval, "flush cadence")
	flags.StringVarP(&cfg.LogPath, "log", "l", cfg.LogPath, "CSV file to append decoded samples to")
	flags.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address for the Prometheus /metrics endpoint")
	flags.BoolVar(&cfg.WatchConfig, "watch-config", cfg.WatchConfig, "reload threshold on config file changes")
	flags.BoolVar(&autoStart, "auto-start", false, "send the start command once connected")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("cuffstream failed")
		os.Exit(1)
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn().Err(err).Msg("metrics endpoint stopped")
	}
}

// readoutHandler turns batch events into a periodic console readout.
// Batches arrive at the flush cadence; printing every one would flood the
// terminal, so the readout is limited to once per second plus state changes.
type readoutHandler struct {
	log      zerolog.Logger
	lastTick time.Time
}

func newReadoutHandler(log zerolog.Logger) *readoutHandler {
	return &readoutHandler{log: log}
}

func (h *readoutHandler) OnStateChange(event cuffstream.StateChangeEvent) {
	h.log.Info().
		Str("from", event.Previous.String()).
		Str("to", event.Current.String()).
		Str("reason", event.Reason).
		Msg("monitor state")
}

func (h *readoutHandler) OnSampleBatch(event cuffstream.SampleBatchEvent) {
	if time.Since(h.lastTick) < time.Second {
		return
	}
	h.lastTick = time.Now()

	latest := event.Samples[len(event.Samples)-1]
	h.log.Info().
		Float64("cuff_mmhg", latest.CuffPressure).
		Float64("pulse_mmhg", latest.PulsePressure).
		Int("batch", len(event.Samples)).
		Bool("recording", event.Triggered).
		Msg("readout")
}

func (h *readoutHandler) OnDisconnect(event cuffstream.DisconnectEvent) {
	if event.Err != nil {
		h.log.Warn().Err(event.Err).Msg("device disconnected")
		return
	}
	h.log.Info().Msg("device session closed")
}
