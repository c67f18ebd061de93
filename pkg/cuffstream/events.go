package cuffstream

// State represents the lifecycle state of a Monitor.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent describes a lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// SampleBatchEvent carries one flushed batch of samples in arrival order.
type SampleBatchEvent struct {
	// Samples is the drained batch, never empty.
	Samples []Sample

	// Triggered reports whether the threshold trigger has fired; only
	// then do samples also enter the plotted history.
	Triggered bool
}

// DisconnectEvent signals that a session ended.
type DisconnectEvent struct {
	// Err is the read error that ended the session, or nil for a clean
	// local close.
	Err error
}

// EventHandler receives Monitor events. All callbacks run synchronously on
// the monitor's internal goroutines; implementations should return quickly.
type EventHandler interface {
	// OnStateChange is called on every lifecycle transition.
	OnStateChange(event StateChangeEvent)

	// OnSampleBatch is called once per flush cadence with a non-empty batch.
	OnSampleBatch(event SampleBatchEvent)

	// OnDisconnect is called when a device session ends, whether from a
	// local Stop or a hardware unplug.
	OnDisconnect(event DisconnectEvent)
}
