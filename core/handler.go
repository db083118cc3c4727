package core

// MeasureTick converts a capture latch into a tick duration in crystal
// cycles. A latch of 0 is one elapsed cycle; every rollover of the capture
// timer during the tick adds width.
func MeasureTick(latch uint16, rollovers, width uint32) uint32 {
	return uint32(latch) + 1 + rollovers*width
}

// HandleTick runs once per reference tick, from the tick interrupt.
// The body runs with interrupts masked and is not reentrant. The guard flag
// catches a nested entry where masking nests (TinyGo); the host mask is a
// plain mutex, so there concurrent calls serialize and a nested call from
// inside a driver callback blocks.
func (e *Engine) HandleTick() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if !e.inHandler.CompareAndSwap(false, true) {
		e.reentries.Add(1)
		return
	}
	defer e.inHandler.Store(false)

	// Unacknowledged flags re-enter immediately
	e.hw.Tick.Acknowledge()
	e.heartbeat()

	if !e.calibrating.Load() {
		e.ticksInPhase.Store(0)
		e.ticksOutOfPhase.Add(1)
	} else {
		e.ticksInPhase.Add(1)
		e.ticksOutOfPhase.Store(0)
	}

	// The first tick after the switch is partial; the window makes sure the
	// latch covers a whole tick on the crystal.
	if e.ticksInPhase.Load() == e.cfg.MeasurementWindow {
		e.calibrate(e.hw.Capture.Latched())
	}

	e.accumulator += uint64(e.measured.Load())
	secs := uint32(e.accumulator >> UnitShift)
	mins := secs / 60
	e.seconds.Store(secs)
	e.minutes.Store(mins)
	e.ticks.Add(1)

	e.heartbeat()
	if e.hw.Indicator != nil {
		e.hw.Indicator.Set(mins&1 == 0)
	}
}

// calibrate validates and commits a fresh measurement. Called with
// interrupts masked.
func (e *Engine) calibrate(latch uint16) {
	measured := MeasureTick(latch, e.cfg.CaptureRollovers, e.cfg.CaptureWidth)
	if !e.cfg.Plausible(measured) {
		// Keep the previous value rather than adopt a corrupted one
		e.faults.Add(1)
		e.lastRejected.Store(measured)
		recordTimingLocked(EvtReject, e.ticks.Load(), measured, e.measured.Load())
		return
	}
	previous := e.measured.Load()
	e.measured.Store(measured)
	e.calibrations.Add(1)
	recordTimingLocked(EvtCalibrate, e.ticks.Load(), measured, previous)
}

func (e *Engine) heartbeat() {
	if e.hw.Indicator != nil {
		e.hw.Indicator.Toggle()
	}
}
