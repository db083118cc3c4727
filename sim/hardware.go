package sim

import (
	"context"

	"ulpclock/core"
)

// stopSignal unwinds the firmware loop out of a wait
type stopSignal struct {
	err error
}

// hardware models the oscillators, RTC, capture timer, LED and sleep
// controller of the MCU. It implements every driver interface the engine
// needs. All of it runs on the simulation goroutine.
type hardware struct {
	queue  *Queue
	engine *core.Engine
	ctx    context.Context

	deadline float64

	referencePPM float64
	crystalPPM   float64
	pendingPPM   *float64

	main         core.Oscillator
	target       core.Oscillator
	switchPolls  int
	pollsLeft    int
	segmentStart float64
	crystalTime  float64

	cycles float64 // main clock cycles counted since the last capture
	latch  uint16

	overflows uint32
	missed    uint32
	flag      bool
	faults    map[uint32]Fault

	toggles int
	level   bool
	idles   int
	sleeps  int
}

func newHardware(s *Scenario) *hardware {
	h := &hardware{
		queue:        &Queue{},
		ctx:          context.Background(),
		deadline:     s.Duration.Seconds(),
		referencePPM: s.ReferencePPM,
		crystalPPM:   s.CrystalPPM,
		main:         core.ReferenceOscillator,
		target:       core.ReferenceOscillator,
		switchPolls:  s.SwitchPolls,
		faults:       make(map[uint32]Fault, len(s.Faults)),
	}
	for _, f := range s.Faults {
		h.faults[f.Tick] = f
	}
	for _, d := range s.Drift {
		ppm := d.ReferencePPM
		h.queue.Schedule(&Event{
			At: d.At.Seconds(),
			Handler: func(*Event) uint8 {
				h.pendingPPM = &ppm
				return SF_DONE
			},
		})
	}
	h.queue.Schedule(&Event{At: h.tickPeriod(), Handler: h.overflow})
	return h
}

// tickPeriod is the RTC overflow period for the current reference error
func (h *hardware) tickPeriod() float64 {
	hz := float64(core.ReferenceHz) * (1 + h.referencePPM*1e-6)
	return float64(core.ReferencePeriod+1) / hz
}

func (h *hardware) mainHz(osc core.Oscillator) float64 {
	if osc == core.PreciseOscillator {
		return float64(core.CrystalHz) * (1 + h.crystalPPM*1e-6)
	}
	// The low-power oscillator runs at 32 times the RTC reference
	return float64(core.CrystalHz) * (1 + h.referencePPM*1e-6)
}

// closeSegment counts main clock cycles up to now
func (h *hardware) closeSegment(now float64) {
	dt := now - h.segmentStart
	h.cycles += dt * h.mainHz(h.main)
	if h.main == core.PreciseOscillator {
		h.crystalTime += dt
	}
	h.segmentStart = now
}

// overflow fires on every RTC period: the event system latches the capture
// timer and the RTC raises its interrupt.
func (h *hardware) overflow(e *Event) uint8 {
	h.closeSegment(e.At)
	h.overflows++

	count := uint64(h.cycles)
	h.cycles -= float64(count)
	if count == 0 {
		count = 1
	}
	h.latch = uint16(count - 1)

	fault, faulty := h.faults[h.overflows]
	if faulty && fault.Kind == FaultGlitch {
		h.latch = fault.Latch
	}

	// Oscillator drift shows up from the next period on
	if h.pendingPPM != nil {
		h.referencePPM = *h.pendingPPM
		h.pendingPPM = nil
	}
	e.At += h.tickPeriod()

	h.flag = true
	if faulty && fault.Kind == FaultMissed {
		h.missed++
		return SF_RESCHEDULE
	}
	h.engine.HandleTick()
	return SF_RESCHEDULE
}

// SelectMainClock starts a clock switch. It completes after switchPolls
// status reads.
func (h *hardware) SelectMainClock(osc core.Oscillator) {
	h.target = osc
	h.pollsLeft = h.switchPolls
	if h.pollsLeft == 0 {
		h.completeSwitch()
	}
}

func (h *hardware) MainClockSwitching() bool {
	if h.pollsLeft == 0 {
		return false
	}
	h.pollsLeft--
	if h.pollsLeft == 0 {
		h.completeSwitch()
	}
	return true
}

func (h *hardware) completeSwitch() {
	h.closeSegment(h.queue.Now())
	h.main = h.target
}

func (h *hardware) Latched() uint16 {
	return h.latch
}

func (h *hardware) Acknowledge() {
	h.flag = false
}

func (h *hardware) Toggle() {
	h.level = !h.level
	h.toggles++
}

func (h *hardware) Set(high bool) {
	h.level = high
}

func (h *hardware) Idle() {
	h.idles++
	h.wait()
}

func (h *hardware) Sleep() {
	h.sleeps++
	h.wait()
}

// wait lets simulated time pass until the next interrupt
func (h *hardware) wait() {
	if err := h.ctx.Err(); err != nil {
		panic(stopSignal{err: err})
	}
	if h.queue.Now() >= h.deadline || !h.queue.DispatchNext() {
		panic(stopSignal{})
	}
}

// drivers wires the model into the engine
func (h *hardware) drivers() core.Hardware {
	return core.Hardware{
		Clock:     h,
		Capture:   h,
		Tick:      h,
		Indicator: h,
		Power:     h,
	}
}
