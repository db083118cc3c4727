package sim

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"ulpclock/core"
)

// FaultKind selects an injected hardware fault
type FaultKind string

const (
	// FaultMissed drops the interrupt for one reference tick; the next
	// handler run covers two periods.
	FaultMissed FaultKind = "missed"
	// FaultGlitch replaces the capture latch of one tick with Latch
	FaultGlitch FaultKind = "glitch"
)

// Fault injects a hardware fault at a reference tick (1-based)
type Fault struct {
	Tick  uint32    `yaml:"tick"`
	Kind  FaultKind `yaml:"kind"`
	Latch uint16    `yaml:"latch"`
}

// DriftStep changes the reference oscillator error from a point in time on
type DriftStep struct {
	At           time.Duration `yaml:"at"`
	ReferencePPM float64       `yaml:"reference_ppm"`
}

// Scenario describes one simulated run
type Scenario struct {
	Duration     time.Duration `yaml:"duration"`      // simulated time to run for
	ReferencePPM float64       `yaml:"reference_ppm"` // low-power oscillator error
	CrystalPPM   float64       `yaml:"crystal_ppm"`   // crystal error
	SwitchPolls  int           `yaml:"switch_polls"`  // status polls before a clock switch completes

	Window       uint32  `yaml:"measurement_window"`
	Interval     uint32  `yaml:"measurement_interval"`
	TolerancePPM *uint32 `yaml:"tolerance_ppm"` // nil keeps the default, 0 trusts every measurement

	Drift  []DriftStep `yaml:"drift"`
	Faults []Fault     `yaml:"faults"`
}

// DefaultScenario is one day on a perfect pair of oscillators
func DefaultScenario() Scenario {
	return Scenario{
		Duration:    24 * time.Hour,
		SwitchPolls: 3,
	}
}

// EngineConfig returns the clock configuration the scenario runs with
func (s *Scenario) EngineConfig() core.Config {
	cfg := core.DefaultConfig()
	if s.Window != 0 {
		cfg.MeasurementWindow = s.Window
	}
	if s.Interval != 0 {
		cfg.MeasurementInterval = s.Interval
	}
	if s.TolerancePPM != nil {
		cfg.TolerancePPM = *s.TolerancePPM
	}
	return cfg
}

// Validate makes sure the scenario can be simulated
func (s *Scenario) Validate() error {
	if s.Duration <= 0 {
		return fmt.Errorf("bad scenario: 'duration' must be positive")
	}
	if s.ReferencePPM <= -1e6 || s.CrystalPPM <= -1e6 {
		return fmt.Errorf("bad scenario: oscillator error must be above -1000000 ppm")
	}
	if s.SwitchPolls < 0 {
		return fmt.Errorf("bad scenario: 'switch_polls' must be >=0")
	}
	for _, d := range s.Drift {
		if d.At < 0 || d.At > s.Duration {
			return fmt.Errorf("bad scenario: drift step at %v outside the run", d.At)
		}
		if d.ReferencePPM <= -1e6 {
			return fmt.Errorf("bad scenario: drift step at %v must be above -1000000 ppm", d.At)
		}
	}
	for _, f := range s.Faults {
		if f.Tick == 0 {
			return fmt.Errorf("bad scenario: fault ticks start at 1")
		}
		if f.Kind != FaultMissed && f.Kind != FaultGlitch {
			return fmt.Errorf("bad scenario: unknown fault kind %q", f.Kind)
		}
	}
	cfg := s.EngineConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("bad scenario: %w", err)
	}
	return nil
}

// ReadScenario reads a scenario from a yaml file, on top of DefaultScenario
func ReadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := DefaultScenario()
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, err
	}
	return &s, s.Validate()
}
