package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TimingEvent captures a calibration event for post-mortem analysis
type TimingEvent struct {
	EventType uint8  // Event type code
	Ticks     uint32 // Handler invocations at event time
	Value1    uint32 // Context-dependent value
	Value2    uint32 // Context-dependent value
}

// Event type codes
const (
	EvtCalibrate        = 1 // Measurement accepted: v1=new, v2=previous
	EvtReject           = 2 // Measurement rejected: v1=rejected, v2=kept
	EvtEnterCalibration = 3 // Scheduler requested calibration: v1=cycle
	EvtExitCalibration  = 4 // Scheduler left calibration: v1=measured, v2=faults
	EvtClockSwitch      = 5 // Main clock switched: v1=oscillator, v2=status polls
)

// Ring sizes per build. AVR parts with 256 B of SRAM keep only the last few
// events; TimingRingSize picks one of these per target.
const (
	hostTimingRingSize     = 32
	firmwareTimingRingSize = 4
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Timing capture ring buffer, written with interrupts masked
	timingRing     [TimingRingSize]TimingEvent
	timingRingHead uint8
	timingEnabled  bool = true
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call from the tick handler.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTiming captures an event in the ring buffer from foreground code
func RecordTiming(eventType uint8, ticks, value1, value2 uint32) {
	state := disableInterrupts()
	recordTimingLocked(eventType, ticks, value1, value2)
	restoreInterrupts(state)
}

// recordTimingLocked is RecordTiming for callers that already masked interrupts
func recordTimingLocked(eventType uint8, ticks, value1, value2 uint32) {
	if !timingEnabled {
		return
	}
	idx := timingRingHead
	timingRing[idx] = TimingEvent{
		EventType: eventType,
		Ticks:     ticks,
		Value1:    value1,
		Value2:    value2,
	}
	timingRingHead = (idx + 1) % TimingRingSize
}

// TimingEvents returns the ring contents, oldest first
func TimingEvents() []TimingEvent {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	events := make([]TimingEvent, 0, TimingRingSize)
	start := timingRingHead
	for i := uint8(0); i < TimingRingSize; i++ {
		evt := timingRing[(start+i)%TimingRingSize]
		if evt.EventType == 0 {
			continue // Empty slot
		}
		events = append(events, evt)
	}
	return events
}

// DumpTimingRing outputs the timing ring buffer through the debug writer
func DumpTimingRing() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TIMING] === Timing Ring Dump ===")
	for _, evt := range TimingEvents() {
		debugPrintln("[TIMING] " + eventName(evt.EventType) +
			" ticks=" + utoa(evt.Ticks) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TIMING] === End Dump ===")
}

// ClearTimingRing clears the timing buffer
func ClearTimingRing() {
	state := disableInterrupts()
	for i := range timingRing {
		timingRing[i] = TimingEvent{}
	}
	timingRingHead = 0
	restoreInterrupts(state)
}

func eventName(eventType uint8) string {
	switch eventType {
	case EvtCalibrate:
		return "CALIBRATE"
	case EvtReject:
		return "REJECT!"
	case EvtEnterCalibration:
		return "ENTER_CAL"
	case EvtExitCalibration:
		return "EXIT_CAL"
	case EvtClockSwitch:
		return "CLK_SWITCH"
	default:
		return "UNKNOWN"
	}
}
