// Package metric provides Prometheus metrics for the decode pipeline and
// session engine.
package metric

import "github.com/prometheus/client_golang/prometheus"

// Metrics contains all cuffstream metrics. A nil *Metrics is tolerated by
// every producer, so metrics remain optional for embedded use.
type Metrics struct {
	// Decoder metrics
	FramesDecoded    prometheus.Counter
	ChecksumFailures prometheus.Counter
	ResyncSkips      prometheus.Counter
	OverflowResets   prometheus.Counter

	// Batcher metrics
	SamplesFlushed prometheus.Counter
	PendingLength  prometheus.Gauge
	HistoryLength  prometheus.Gauge
}

// New creates a Metrics instance with all collectors.
func New() *Metrics {
	return &Metrics{
		FramesDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuffstream",
			Subsystem: "decoder",
			Name:      "frames_decoded_total",
			Help:      "Total number of valid frames decoded",
		}),
		ChecksumFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuffstream",
			Subsystem: "decoder",
			Name:      "checksum_failures_total",
			Help:      "Total number of candidate frames rejected by checksum",
		}),
		ResyncSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuffstream",
			Subsystem: "decoder",
			Name:      "resync_skips_total",
			Help:      "Total number of stray marker bytes skipped during resynchronization",
		}),
		OverflowResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuffstream",
			Subsystem: "decoder",
			Name:      "overflow_resets_total",
			Help:      "Total number of lossy accumulation buffer resets",
		}),
		SamplesFlushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuffstream",
			Subsystem: "batcher",
			Name:      "samples_flushed_total",
			Help:      "Total number of samples drained by flush",
		}),
		PendingLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cuffstream",
			Subsystem: "batcher",
			Name:      "pending_length",
			Help:      "Samples waiting in the pending queue",
		}),
		HistoryLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cuffstream",
			Subsystem: "batcher",
			Name:      "history_length",
			Help:      "Samples held in the plotted history",
		}),
	}
}

// Register registers all collectors on the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.FramesDecoded,
		m.ChecksumFailures,
		m.ResyncSkips,
		m.OverflowResets,
		m.SamplesFlushed,
		m.PendingLength,
		m.HistoryLength,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
