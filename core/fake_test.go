package core

import "testing"

// fakeHardware implements every HAL interface. Idle and Sleep deliver the
// next tick, which is exactly when real hardware would resume them.
type fakeHardware struct {
	engine *Engine

	latch       uint16
	current     Oscillator
	selected    []Oscillator
	switchPolls int
	pending     int

	acks    int
	toggles int
	level   bool

	idles   int
	sleeps  int
	onIdle  func()
	onSleep func()
}

func (f *fakeHardware) SelectMainClock(osc Oscillator) {
	f.selected = append(f.selected, osc)
	f.current = osc
	f.pending = f.switchPolls
}

func (f *fakeHardware) MainClockSwitching() bool {
	if f.pending > 0 {
		f.pending--
		return true
	}
	return false
}

func (f *fakeHardware) Latched() uint16 { return f.latch }
func (f *fakeHardware) Acknowledge()    { f.acks++ }

func (f *fakeHardware) Toggle() {
	f.toggles++
	f.level = !f.level
}

func (f *fakeHardware) Set(high bool) { f.level = high }

func (f *fakeHardware) Idle() {
	f.idles++
	if f.onIdle != nil {
		f.onIdle()
	}
	f.engine.HandleTick()
}

func (f *fakeHardware) Sleep() {
	f.sleeps++
	if f.onSleep != nil {
		f.onSleep()
	}
	f.engine.HandleTick()
}

func newFakeEngine(t *testing.T, cfg Config) (*Engine, *fakeHardware) {
	t.Helper()
	f := &fakeHardware{latch: 32767}
	e, err := NewEngine(cfg, Hardware{Clock: f, Capture: f, Tick: f, Indicator: f, Power: f})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	f.engine = e
	return e, f
}
