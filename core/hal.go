package core

// Oscillator identifies a source for the main system clock
type Oscillator uint8

const (
	// ReferenceOscillator is the low-power, imprecise oscillator that also
	// drives the tick. It keeps running whichever source drives the main clock.
	ReferenceOscillator Oscillator = iota

	// PreciseOscillator is the 32.768 kHz crystal, enabled as main clock only
	// while a calibration is in progress.
	PreciseOscillator
)

func (o Oscillator) String() string {
	switch o {
	case ReferenceOscillator:
		return "reference"
	case PreciseOscillator:
		return "precise"
	default:
		return "unknown"
	}
}

// ClockDriver is the abstract main-clock selector that core code uses.
// Platform-specific implementations handle the protected register writes.
type ClockDriver interface {
	// SelectMainClock requests that osc drive the main clock
	SelectMainClock(osc Oscillator)

	// MainClockSwitching reports whether the last requested switch is still
	// in progress
	MainClockSwitching() bool
}

// CaptureTimer is the free-running counter clocked by the main clock.
// It latches its count on every reference tick event.
type CaptureTimer interface {
	// Latched returns the count captured on the most recent tick event.
	// A value of 0 means one elapsed cycle.
	Latched() uint16
}

// TickSource is the reference accumulator clock's interrupt flag
type TickSource interface {
	// Acknowledge clears the pending tick flag
	Acknowledge()
}

// Indicator is the digital output used for the heartbeat and minute parity
type Indicator interface {
	Toggle()
	Set(high bool)
}

// PowerDriver suspends the foreground between ticks
type PowerDriver interface {
	// Idle spins once with interrupts enabled
	Idle()

	// Sleep suspends the processor; it returns after the next interrupt
	Sleep()
}

// Hardware bundles the collaborators an Engine is wired to.
// Indicator may be nil.
type Hardware struct {
	Clock     ClockDriver
	Capture   CaptureTimer
	Tick      TickSource
	Indicator Indicator
	Power     PowerDriver
}

func (h Hardware) validate() error {
	if h.Clock == nil || h.Capture == nil || h.Tick == nil || h.Power == nil {
		return ErrMissingDriver
	}
	return nil
}

// Global singleton used by interrupt handlers on the target.
var globalEngine *Engine

// SetEngine is called by target-specific code to register the engine its
// tick interrupt dispatches to.
func SetEngine(e *Engine) {
	globalEngine = e
}

// MustEngine returns the registered engine or panics if missing.
func MustEngine() *Engine {
	if globalEngine == nil {
		panic("clock engine not configured")
	}
	return globalEngine
}
