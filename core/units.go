package core

import "time"

// Accumulator units
const (
	UnitsPerSecond = 1 << UnitShift // 1/32768 second units
	UnitShift      = 15
)

// UnitsToSeconds converts an accumulator value to whole seconds
func UnitsToSeconds(units uint64) uint64 {
	return units >> UnitShift
}

// UnitsToDuration converts an accumulator value to a time.Duration
func UnitsToDuration(units uint64) time.Duration {
	secs := units >> UnitShift
	frac := units & (UnitsPerSecond - 1)
	return time.Duration(secs)*time.Second +
		time.Duration(frac*uint64(time.Second)>>UnitShift)
}

// DurationToUnits converts a duration to accumulator units, truncating
func DurationToUnits(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	secs := uint64(d / time.Second)
	rem := uint64(d % time.Second)
	return secs<<UnitShift + (rem<<UnitShift)/uint64(time.Second)
}

// OffsetPPM returns how far measured deviates from nominal, in parts per million.
// Positive means the reference tick is longer than nominal (oscillator slow).
func OffsetPPM(measured, nominal uint32) float64 {
	if nominal == 0 {
		return 0
	}
	return (float64(measured) - float64(nominal)) * 1e6 / float64(nominal)
}
