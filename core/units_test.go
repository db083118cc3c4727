package core

import (
	"math"
	"testing"
	"time"
)

func TestUnitConversions(t *testing.T) {
	if got := UnitsToDuration(98304); got != 3*time.Second {
		t.Errorf("Expected 3s, got %v", got)
	}
	if got := UnitsToDuration(1); got != 30517*time.Nanosecond {
		t.Errorf("Expected one unit to be 30.517us, got %v", got)
	}
	if got := DurationToUnits(3 * time.Second); got != 98304 {
		t.Errorf("Expected 98304 units, got %d", got)
	}
	if got := DurationToUnits(-time.Second); got != 0 {
		t.Errorf("Negative durations should clamp to 0, got %d", got)
	}
	if got := UnitsToSeconds(98304*20 - 1); got != 59 {
		t.Errorf("Expected 59 whole seconds, got %d", got)
	}
}

func TestOffsetPPM(t *testing.T) {
	if got := OffsetPPM(98305, 98304); math.Abs(got-10.1725) > 0.001 {
		t.Errorf("One unit over a 3s tick should be ~10.17 ppm, got %f", got)
	}
	if got := OffsetPPM(98304, 98304); got != 0 {
		t.Errorf("Expected 0 ppm, got %f", got)
	}
	if got := OffsetPPM(1, 0); got != 0 {
		t.Errorf("Zero nominal should yield 0, got %f", got)
	}
}
