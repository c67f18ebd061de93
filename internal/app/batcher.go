package app

import (
	"sync"

	"github.com/nibp-labs/cuffstream/internal/domain"
	"github.com/nibp-labs/cuffstream/internal/metric"
)

// DefaultHistoryCap bounds the plotted history length.
const DefaultHistoryCap = 3600

// SampleBatcher decouples the high-frequency decode path from the fixed-rate
// flush consumer. Push appends to a pending queue; Flush atomically detaches
// the queue and, once the trigger has fired, folds the drained samples into
// the bounded plotted history.
//
// Push and Flush run on different goroutines (reader and flusher), so the
// internal state is guarded by a mutex.
type SampleBatcher struct {
	mu         sync.Mutex
	pending    []domain.Sample
	history    []domain.Sample
	historyCap int

	threshold float64
	triggered bool

	metrics *metric.Metrics
}

// NewSampleBatcher creates a batcher for the given trigger threshold.
// A historyCap of 0 or less selects DefaultHistoryCap. metrics may be nil.
func NewSampleBatcher(threshold float64, historyCap int, metrics *metric.Metrics) *SampleBatcher {
	if historyCap <= 0 {
		historyCap = DefaultHistoryCap
	}
	return &SampleBatcher{
		historyCap: historyCap,
		threshold:  threshold,
		metrics:    metrics,
	}
}

// Push enqueues one sample. It never blocks beyond the mutex and never fails;
// an unflushed queue grows until the flusher drains it.
func (b *SampleBatcher) Push(s domain.Sample) {
	b.mu.Lock()
	b.pending = append(b.pending, s)
	n := len(b.pending)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.PendingLength.Set(float64(n))
	}
}

// Flush atomically detaches and returns the entire pending queue in push
// order; the queue is left empty. Samples drained after the trigger has
// fired are appended to the plotted history, evicting the oldest entries
// beyond the configured cap.
//
// The returned batch always contains every drained sample, pre-trigger ones
// included, so raw readout and logging see the full stream.
func (b *SampleBatcher) Flush() []domain.Sample {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil

	for _, s := range batch {
		if !b.triggered && s.CuffPressure >= b.threshold {
			// Latched until an explicit Clear; a later drop below the
			// threshold does not re-arm.
			b.triggered = true
		}
		if b.triggered {
			b.history = append(b.history, s)
		}
	}
	if excess := len(b.history) - b.historyCap; excess > 0 {
		b.history = append(b.history[:0], b.history[excess:]...)
	}
	historyLen := len(b.history)
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.PendingLength.Set(0)
		b.metrics.HistoryLength.Set(float64(historyLen))
		b.metrics.SamplesFlushed.Add(float64(len(batch)))
	}

	return batch
}

// Triggered reports whether the threshold trigger has fired.
func (b *SampleBatcher) Triggered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.triggered
}

// SetThreshold replaces the trigger threshold. It does not reset a trigger
// that has already fired.
func (b *SampleBatcher) SetThreshold(threshold float64) {
	b.mu.Lock()
	b.threshold = threshold
	b.mu.Unlock()
}

// History returns a snapshot of the plotted history, oldest first.
func (b *SampleBatcher) History() []domain.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Sample, len(b.history))
	copy(out, b.history)
	return out
}

// Clear empties the plotted history and re-arms the trigger. The pending
// queue is left intact; it belongs to the flush path.
func (b *SampleBatcher) Clear() {
	b.mu.Lock()
	b.history = nil
	b.triggered = false
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.HistoryLength.Set(0)
	}
}
