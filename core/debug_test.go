package core

import (
	"strings"
	"testing"
	"unsafe"

	"ulpclock/protocol"
)

func TestTimingRingWraps(t *testing.T) {
	ClearTimingRing()
	for i := uint32(0); i < TimingRingSize+5; i++ {
		RecordTiming(EvtCalibrate, i, i, 0)
	}

	events := TimingEvents()
	if len(events) != TimingRingSize {
		t.Fatalf("Expected %d events, got %d", TimingRingSize, len(events))
	}
	if events[0].Ticks != 5 || events[len(events)-1].Ticks != TimingRingSize+4 {
		t.Errorf("Ring not ordered oldest first: first=%d last=%d", events[0].Ticks, events[len(events)-1].Ticks)
	}

	ClearTimingRing()
	if len(TimingEvents()) != 0 {
		t.Error("Ring not empty after clear")
	}
}

func TestFirmwareStaticDataFitsSRAM(t *testing.T) {
	// AVR packs structs without padding
	var evt TimingEvent
	eventSize := unsafe.Sizeof(evt.EventType) + unsafe.Sizeof(evt.Ticks) +
		unsafe.Sizeof(evt.Value1) + unsafe.Sizeof(evt.Value2)
	if eventSize != 13 {
		t.Fatalf("Expected a 13 byte packed event, got %d", eventSize)
	}

	// Half of the 256 B SRAM stays free for the engine, globals and stack
	const budget = 128
	ring := int(eventSize) * firmwareTimingRingSize
	if used := ring + protocol.MessageMax; used > budget {
		t.Errorf("Timing ring (%d B) and status scratch buffer (%d B) use %d B, budget %d B",
			ring, protocol.MessageMax, used, budget)
	}
}

func TestDumpTimingRing(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	ClearTimingRing()
	RecordTiming(EvtReject, 304, 65537, 98304)
	DumpTimingRing()

	if len(lines) != 3 {
		t.Fatalf("Expected header, one event and footer, got %v", lines)
	}
	if lines[1] != "[TIMING] REJECT! ticks=304 v1=65537 v2=98304" {
		t.Errorf("Unexpected dump line %q", lines[1])
	}
}

func TestDebugReporter(t *testing.T) {
	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	DebugReporter.Report(Snapshot{Seconds: 120, Minutes: 2, Measured: 98305, Calibrations: 1})
	if len(lines) != 0 {
		t.Fatalf("Debug output written while disabled: %v", lines)
	}

	SetDebugEnabled(true)
	defer SetDebugEnabled(false)
	DebugReporter.Report(Snapshot{Seconds: 120, Minutes: 2, Measured: 98305, Calibrations: 1})
	if len(lines) != 1 || !strings.Contains(lines[0], "tick=98305") || !strings.Contains(lines[0], "phase=idle") {
		t.Errorf("Unexpected debug output %v", lines)
	}
}

func TestUtoa(t *testing.T) {
	testCases := map[uint32]string{
		0:          "0",
		7:          "7",
		98304:      "98304",
		4294967295: "4294967295",
	}
	for n, want := range testCases {
		if got := utoa(n); got != want {
			t.Errorf("utoa(%d) = %q, expected %q", n, got, want)
		}
	}
}
