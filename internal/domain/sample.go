package domain

// Sample represents one decoded measurement from the device.
// A sample is the atomic unit of data produced by the stream decoder.
type Sample struct {
	// CuffPressure is the cuff pressure in mmHg
	CuffPressure float64

	// PulsePressure is the superimposed pulse pressure in mmHg
	PulsePressure float64
}

// OperatingMode selects which measurement the device is performing.
// The mode determines the trigger threshold above which samples start
// being recorded to the plotted history.
type OperatingMode int

const (
	// ModeMeasure is a standard oscillometric measurement.
	ModeMeasure OperatingMode = iota

	// ModeLinearDeflate is a linear-deflation calibration run, which
	// starts from a much higher cuff pressure.
	ModeLinearDeflate
)

// String returns a human-readable representation of the mode.
func (m OperatingMode) String() string {
	switch m {
	case ModeMeasure:
		return "Measure"
	case ModeLinearDeflate:
		return "LinearDeflate"
	default:
		return "Unknown"
	}
}

// TriggerThreshold returns the cuff pressure (mmHg) at which the mode's
// plotted history starts recording.
func (m OperatingMode) TriggerThreshold() float64 {
	switch m {
	case ModeLinearDeflate:
		return LinearDeflateTrigger
	default:
		return MeasureTrigger
	}
}

// Trigger thresholds per operating mode.
const (
	MeasureTrigger       = 25.0
	LinearDeflateTrigger = 250.0
)

// Command is a single-byte control instruction sent to the device.
type Command byte

const (
	// CommandStart begins a measurement cycle.
	CommandStart Command = 1

	// CommandAbort cancels the current cycle and vents the cuff.
	CommandAbort Command = 2

	// CommandLinearDeflate starts a linear-deflation calibration run.
	CommandLinearDeflate Command = 3
)

// String returns a human-readable representation of the command.
func (c Command) String() string {
	switch c {
	case CommandStart:
		return "Start"
	case CommandAbort:
		return "Abort"
	case CommandLinearDeflate:
		return "LinearDeflate"
	default:
		return "Unknown"
	}
}
