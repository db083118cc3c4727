package core

// Reporter receives a snapshot once per calibration, while the main clock
// still runs on the crystal.
type Reporter interface {
	Report(s Snapshot)
}

// PhaseScheduler is the main loop: it alternates between a short calibration
// phase on the crystal and a long accumulate phase asleep on the reference
// oscillator. Its two waits are satisfied only by the tick handler.
type PhaseScheduler struct {
	engine   *Engine
	reporter Reporter
	cycles   uint32
}

// NewPhaseScheduler creates the scheduler driving e
func NewPhaseScheduler(e *Engine) *PhaseScheduler {
	return &PhaseScheduler{engine: e}
}

// SetReporter installs a reporter called after every measurement
func (s *PhaseScheduler) SetReporter(r Reporter) {
	s.reporter = r
}

// Cycles returns the number of completed calibrate/accumulate cycles
func (s *PhaseScheduler) Cycles() uint32 {
	return s.cycles
}

// EnterCalibration switches to the crystal, requests calibration and spins
// until the handler has taken the measurement.
func (s *PhaseScheduler) EnterCalibration() {
	e := s.engine
	SwitchToPreciseOscillator(e.hw.Clock)
	e.requestCalibration(true)
	RecordTiming(EvtEnterCalibration, e.ticks.Load(), s.cycles, 0)

	for e.TicksInPhase() < e.cfg.MeasurementWindow {
		e.hw.Power.Idle()
	}
}

// ExitCalibration leaves calibration, switches back to the reference
// oscillator and sleeps until the next measurement is due. Each sleep
// resumes only on the next tick.
func (s *PhaseScheduler) ExitCalibration() {
	e := s.engine
	if s.reporter != nil {
		s.reporter.Report(e.Snapshot())
	}

	e.requestCalibration(false)
	SwitchToReferenceOscillator(e.hw.Clock)
	RecordTiming(EvtExitCalibration, e.ticks.Load(), e.measured.Load(), e.faults.Load())

	for e.TicksOutOfPhase() < e.cfg.MeasurementInterval {
		e.hw.Power.Sleep()
	}
}

// RunCycle runs one calibrate/accumulate cycle
func (s *PhaseScheduler) RunCycle() {
	s.EnterCalibration()
	s.ExitCalibration()
	s.cycles++
}

// Run loops forever
func (s *PhaseScheduler) Run() {
	for {
		s.RunCycle()
	}
}
