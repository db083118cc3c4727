package core

import "sync/atomic"

// Phase is the scheduler's calibration request as seen by the tick handler
type Phase uint8

const (
	Idle Phase = iota
	Calibrating
)

func (p Phase) String() string {
	if p == Calibrating {
		return "calibrating"
	}
	return "idle"
}

// Engine is the shared calibration state of the clock.
//
// Every field has exactly one writer. The tick handler owns the accumulator,
// the measured tick duration, the progress counters and the diagnostics; the
// phase scheduler owns the calibration request. The other side only reads.
// Single-word fields are atomics. The 64-bit accumulator is wider than the
// target's atomic unit and is only read by the foreground with interrupts
// masked.
type Engine struct {
	cfg Config
	hw  Hardware

	// Handler-owned, read under disableInterrupts
	accumulator uint64

	// Handler-owned
	measured        atomic.Uint32
	ticksInPhase    atomic.Uint32
	ticksOutOfPhase atomic.Uint32
	seconds         atomic.Uint32
	minutes         atomic.Uint32
	ticks           atomic.Uint32
	calibrations    atomic.Uint32
	faults          atomic.Uint32
	lastRejected    atomic.Uint32
	reentries       atomic.Uint32
	inHandler       atomic.Bool

	// Scheduler-owned
	calibrating atomic.Bool
}

// Snapshot is a consistent copy of the engine state
type Snapshot struct {
	Accumulator     uint64 // Elapsed time in 1/32768 s units
	Seconds         uint32
	Minutes         uint32
	Measured        uint32 // MeasuredTickDuration in effect
	Phase           Phase
	TicksInPhase    uint32
	TicksOutOfPhase uint32
	Ticks           uint32 // Handler invocations
	Calibrations    uint32 // Accepted measurements
	Faults          uint32 // Rejected measurements
	LastRejected    uint32 // Most recent rejected measurement, 0 if none
}

// NewEngine creates an engine seeded with cfg.NominalTick
func NewEngine(cfg Config, hw Hardware) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := hw.validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, hw: hw}
	e.measured.Store(cfg.NominalTick)
	return e, nil
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.cfg
}

// Now returns the accumulator, in 1/32768 s units
func (e *Engine) Now() uint64 {
	state := disableInterrupts()
	acc := e.accumulator
	restoreInterrupts(state)
	return acc
}

// Seconds returns whole seconds elapsed, derived from the accumulator
func (e *Engine) Seconds() uint32 {
	return e.seconds.Load()
}

// Minutes returns whole minutes elapsed, derived from the accumulator
func (e *Engine) Minutes() uint32 {
	return e.minutes.Load()
}

// MeasuredTickDuration returns the tick length currently added per tick
func (e *Engine) MeasuredTickDuration() uint32 {
	return e.measured.Load()
}

// Phase returns the scheduler's current request
func (e *Engine) Phase() Phase {
	if e.calibrating.Load() {
		return Calibrating
	}
	return Idle
}

// TicksInPhase returns ticks observed since calibration was requested
func (e *Engine) TicksInPhase() uint32 {
	return e.ticksInPhase.Load()
}

// TicksOutOfPhase returns ticks observed since calibration last ended
func (e *Engine) TicksOutOfPhase() uint32 {
	return e.ticksOutOfPhase.Load()
}

// Calibrations returns the number of accepted measurements
func (e *Engine) Calibrations() uint32 {
	return e.calibrations.Load()
}

// Faults returns the number of measurements rejected as implausible
func (e *Engine) Faults() uint32 {
	return e.faults.Load()
}

// Reentries returns how many handler entries overlapped a running handler.
// Masking makes this impossible; anything but zero is a wiring bug.
func (e *Engine) Reentries() uint32 {
	return e.reentries.Load()
}

// Snapshot returns all state read inside a single critical section
func (e *Engine) Snapshot() Snapshot {
	state := disableInterrupts()
	s := Snapshot{
		Accumulator:     e.accumulator,
		Seconds:         e.seconds.Load(),
		Minutes:         e.minutes.Load(),
		Measured:        e.measured.Load(),
		Phase:           e.Phase(),
		TicksInPhase:    e.ticksInPhase.Load(),
		TicksOutOfPhase: e.ticksOutOfPhase.Load(),
		Ticks:           e.ticks.Load(),
		Calibrations:    e.calibrations.Load(),
		Faults:          e.faults.Load(),
		LastRejected:    e.lastRejected.Load(),
	}
	restoreInterrupts(state)
	return s
}

// requestCalibration is the scheduler's only write
func (e *Engine) requestCalibration(on bool) {
	e.calibrating.Store(on)
}
