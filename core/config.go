package core

import "errors"

// Oscillator and tick constants of the reference design
const (
	CrystalHz           = 32768 // Precise oscillator frequency
	ReferenceHz         = 1024  // Reference clock after the divider (OSCULP32K / 32)
	TickSeconds         = 3     // Desired duration of one tick
	ReferencePeriod     = TickSeconds*ReferenceHz - 1
	CaptureWidth        = 1 << 16 // 16-bit capture timer rollover width
	DefaultNominal      = CrystalHz * TickSeconds
	DefaultWindow       = 2   // Ticks spent on the crystal per measurement
	DefaultInterval     = 300 // Ticks between measurements (15 minutes at 3 s)
	DefaultRollovers    = 1   // A 3 s tick overflows the capture timer once
	DefaultTolerancePPM = 200000
)

var (
	ErrNominalTick      = errors.New("nominal tick must be positive")
	ErrWindow           = errors.New("measurement window must be at least one tick")
	ErrInterval         = errors.New("measurement interval must be at least one tick")
	ErrCaptureWidth     = errors.New("capture timer width must be positive")
	ErrRolloverMismatch = errors.New("nominal tick not representable with configured rollovers")
	ErrMissingDriver    = errors.New("hardware driver not configured")
)

// Config holds the timekeeping parameters. All durations are in 1/32768 s
// units, all counts in ticks.
type Config struct {
	NominalTick         uint32 // Initial MeasuredTickDuration
	MeasurementWindow   uint32 // Ticks in calibration before the latch is read
	MeasurementInterval uint32 // Ticks outside calibration between measurements
	CaptureWidth        uint32 // Capture timer rollover width
	CaptureRollovers    uint32 // Rollovers of the capture timer during one tick
	TolerancePPM        uint32 // Accepted deviation from NominalTick, 0 accepts everything
}

// DefaultConfig returns the 3 s tick / 15 minute cadence configuration
func DefaultConfig() Config {
	return Config{
		NominalTick:         DefaultNominal,
		MeasurementWindow:   DefaultWindow,
		MeasurementInterval: DefaultInterval,
		CaptureWidth:        CaptureWidth,
		CaptureRollovers:    DefaultRollovers,
		TolerancePPM:        DefaultTolerancePPM,
	}
}

// Validate checks the configuration is usable by the tick handler
func (c Config) Validate() error {
	if c.NominalTick == 0 {
		return ErrNominalTick
	}
	if c.MeasurementWindow == 0 {
		return ErrWindow
	}
	if c.MeasurementInterval == 0 {
		return ErrInterval
	}
	if c.CaptureWidth == 0 {
		return ErrCaptureWidth
	}

	// The latch only carries the count modulo the width, so the whole
	// nominal tick has to sit inside the assumed rollover bracket.
	low := uint64(c.CaptureRollovers) * uint64(c.CaptureWidth)
	high := low + uint64(c.CaptureWidth)
	if uint64(c.NominalTick) <= low || uint64(c.NominalTick) > high {
		return ErrRolloverMismatch
	}
	return nil
}

// CycleTicks returns the number of ticks one calibrate/accumulate cycle takes
func (c Config) CycleTicks() uint32 {
	return c.MeasurementWindow + c.MeasurementInterval
}

// Plausible reports whether a measured tick duration is within tolerance of
// the nominal tick
func (c Config) Plausible(measured uint32) bool {
	if c.TolerancePPM == 0 {
		return true
	}
	var diff uint64
	if measured > c.NominalTick {
		diff = uint64(measured - c.NominalTick)
	} else {
		diff = uint64(c.NominalTick - measured)
	}
	return diff*1000000 <= uint64(c.TolerancePPM)*uint64(c.NominalTick)
}
