package driver

// Reason explains why a driver terminated its capture.
type Reason int

const (
	// Disconnected means the driver connection dropped without a
	// terminated event.
	Disconnected Reason = iota

	// NavigatedAway means the driver left the conference page, usually
	// because the meeting ended or the bot was removed.
	NavigatedAway

	// RuntimeError means the driver reported an internal failure.
	RuntimeError
)

func (r Reason) String() string {
	switch r {
	case Disconnected:
		return "disconnected"
	case NavigatedAway:
		return "navigated_away"
	case RuntimeError:
		return "runtime_error"
	default:
		return "unknown"
	}
}

// Events is the callback set a session registers to receive driver
// signals. Callbacks are invoked from the bridge's read loop, one at a
// time per driver.
type Events struct {
	// OnAudioFrame delivers one decoded frame of mono float32 samples.
	// The slice is owned by the callee.
	OnAudioFrame func(samples []float32)

	// OnSampleRate reports the capture sample rate in Hz. May fire more
	// than once; consumers decide which report wins.
	OnSampleRate func(rate int)

	// OnTerminated fires exactly once when the driver stops capturing,
	// whatever the cause.
	OnTerminated func(reason Reason)
}

// Driver is a handle to one connected capture driver.
type Driver interface {
	// Stop asks the driver to leave the conference and close its
	// connection. Safe to call more than once and after termination.
	Stop() error
}
