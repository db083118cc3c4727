// Package sim runs the clock firmware against a discrete-event model of the
// MCU: a drifting low-power oscillator, a crystal, the RTC, the capture timer
// and the sleep controller. Simulated time only advances while the firmware
// waits for an interrupt.
package sim

import (
	"context"
	"errors"
	"time"

	"github.com/eclesh/welford"
	log "github.com/sirupsen/logrus"

	"ulpclock/core"
)

// ErrAlreadyRun is returned when Run is called twice on one Simulator
var ErrAlreadyRun = errors.New("simulation already ran")

// Report summarises a finished run
type Report struct {
	Elapsed   time.Duration // True simulated time at the last tick
	ClockTime time.Duration // Time kept by the clock

	ErrorPPM            float64 // Clock error against true time
	FreeRunningErrorPPM float64 // Error had the nominal tick never been corrected

	Overflows    uint32 // Reference ticks raised by the RTC
	MissedTicks  uint32 // Overflows whose interrupt was dropped
	Ticks        uint32 // Overflows handled by the clock
	Cycles       uint32
	Calibrations uint32
	Faults       uint32
	Reentries    uint32

	CrystalDuty float64 // Fraction of time the crystal drove the main clock
	Sleeps      int
	Idles       int

	MeanTick   float64 // Mean reported MeasuredTickDuration
	StddevTick float64

	Final core.Snapshot
}

// measurementStats collects the measured tick duration at every report
type measurementStats struct {
	stats *welford.Stats
	count int
}

func (m *measurementStats) Report(s core.Snapshot) {
	m.stats.Add(float64(s.Measured))
	m.count++
	log.WithFields(log.Fields{
		"ticks":    s.Ticks,
		"measured": s.Measured,
		"offset":   core.OffsetPPM(s.Measured, core.DefaultNominal),
		"faults":   s.Faults,
	}).Debug("calibration")
}

// Simulator runs one scenario
type Simulator struct {
	scenario  Scenario
	hw        *hardware
	engine    *core.Engine
	scheduler *core.PhaseScheduler
	stats     *measurementStats
	reporters core.MultiReporter
	ran       bool
}

// New wires the engine and scheduler to a model of the scenario's hardware
func New(s *Scenario) (*Simulator, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	hw := newHardware(s)
	engine, err := core.NewEngine(s.EngineConfig(), hw.drivers())
	if err != nil {
		return nil, err
	}
	hw.engine = engine

	stats := &measurementStats{stats: welford.New()}
	return &Simulator{
		scenario:  *s,
		hw:        hw,
		engine:    engine,
		scheduler: core.NewPhaseScheduler(engine),
		stats:     stats,
		reporters: core.MultiReporter{stats},
	}, nil
}

// AddReporter adds a reporter called after every measurement
func (s *Simulator) AddReporter(r core.Reporter) {
	s.reporters = append(s.reporters, r)
}

// Engine returns the simulated clock
func (s *Simulator) Engine() *core.Engine {
	return s.engine
}

// Run executes the firmware main loop until the scenario duration has passed
// or ctx is done
func (s *Simulator) Run(ctx context.Context) (report *Report, err error) {
	if s.ran {
		return nil, ErrAlreadyRun
	}
	s.ran = true
	s.hw.ctx = ctx
	s.scheduler.SetReporter(s.reporters)

	log.WithFields(log.Fields{
		"duration":      s.scenario.Duration,
		"reference_ppm": s.scenario.ReferencePPM,
		"crystal_ppm":   s.scenario.CrystalPPM,
	}).Info("starting simulation")

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		stop, ok := r.(stopSignal)
		if !ok {
			panic(r)
		}
		if stop.err != nil {
			err = stop.err
			return
		}
		report = s.report()
		log.WithFields(log.Fields{
			"error_ppm":    report.ErrorPPM,
			"calibrations": report.Calibrations,
			"faults":       report.Faults,
		}).Info("simulation finished")
	}()

	s.scheduler.Run()
	return nil, errors.New("scheduler returned")
}

func (s *Simulator) report() *Report {
	hw := s.hw
	now := hw.queue.Now()
	snap := s.engine.Snapshot()

	r := &Report{
		Elapsed:      time.Duration(now * float64(time.Second)),
		ClockTime:    core.UnitsToDuration(snap.Accumulator),
		Overflows:    hw.overflows,
		MissedTicks:  hw.missed,
		Ticks:        snap.Ticks,
		Cycles:       s.scheduler.Cycles(),
		Calibrations: snap.Calibrations,
		Faults:       snap.Faults,
		Reentries:    s.engine.Reentries(),
		Sleeps:       hw.sleeps,
		Idles:        hw.idles,
		Final:        snap,
	}
	if now > 0 {
		hw.closeSegment(now)
		clock := float64(snap.Accumulator) / core.UnitsPerSecond
		free := float64(hw.overflows) * float64(s.engine.Config().NominalTick) / core.UnitsPerSecond
		r.ErrorPPM = (clock - now) / now * 1e6
		r.FreeRunningErrorPPM = (free - now) / now * 1e6
		r.CrystalDuty = hw.crystalTime / now
	}
	if s.stats.count > 0 {
		r.MeanTick = s.stats.stats.Mean()
		r.StddevTick = s.stats.stats.Stddev()
	}
	return r
}
