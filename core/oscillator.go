package core

// SwitchToReferenceOscillator makes the low-power oscillator drive the main
// clock. Blocks until the hardware reports the switch complete.
func SwitchToReferenceOscillator(d ClockDriver) {
	switchOscillator(d, ReferenceOscillator)
}

// SwitchToPreciseOscillator makes the crystal drive the main clock.
// Blocks until the hardware reports the switch complete.
func SwitchToPreciseOscillator(d ClockDriver) {
	switchOscillator(d, PreciseOscillator)
}

// switchOscillator waits without a timeout: an oscillator that never
// stabilises is a hardware fail-stop.
func switchOscillator(d ClockDriver, osc Oscillator) {
	d.SelectMainClock(osc)
	polls := uint32(0)
	for d.MainClockSwitching() {
		polls++
	}
	RecordTiming(EvtClockSwitch, 0, uint32(osc), polls)
}
