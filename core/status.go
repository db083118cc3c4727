package core

import (
	"errors"

	"ulpclock/protocol"
)

// Telemetry message IDs
const (
	MsgClockStatus = 1 // clock_status ticks=%u seconds=%u measured=%u calibrations=%u faults=%u phase=%c acc_hi=%u acc_lo=%u
)

var (
	ErrUnknownMessage = errors.New("unknown telemetry message")
	ErrBadPhase       = errors.New("unknown phase in clock_status")
)

// EncodeStatus encodes a clock_status message
func EncodeStatus(output protocol.OutputBuffer, s Snapshot) {
	protocol.EncodeVLQUint(output, MsgClockStatus)
	protocol.EncodeVLQUint(output, s.Ticks)
	protocol.EncodeVLQUint(output, s.Seconds)
	protocol.EncodeVLQUint(output, s.Measured)
	protocol.EncodeVLQUint(output, s.Calibrations)
	protocol.EncodeVLQUint(output, s.Faults)
	protocol.EncodeVLQUint(output, uint32(s.Phase))
	protocol.EncodeVLQUint(output, uint32(s.Accumulator>>32))
	protocol.EncodeVLQUint(output, uint32(s.Accumulator))
}

// DecodeStatus decodes a clock_status message, including its ID.
// Minutes are derived from the decoded seconds.
func DecodeStatus(data *[]byte) (Snapshot, error) {
	var s Snapshot

	id, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	if id != MsgClockStatus {
		return s, ErrUnknownMessage
	}

	fields := []*uint32{&s.Ticks, &s.Seconds, &s.Measured, &s.Calibrations, &s.Faults}
	for _, f := range fields {
		if *f, err = protocol.DecodeVLQUint(data); err != nil {
			return s, err
		}
	}

	phase, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	if phase > uint32(Calibrating) {
		return s, ErrBadPhase
	}
	s.Phase = Phase(phase)

	hi, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	lo, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	s.Accumulator = uint64(hi)<<32 | uint64(lo)
	s.Minutes = s.Seconds / 60
	return s, nil
}

// StatusReporter frames every snapshot as a clock_status message and hands
// the bytes to write. Sequence numbers wrap at 16.
type StatusReporter struct {
	output *protocol.ScratchOutput
	write  func([]byte)
	seq    uint8
}

// NewStatusReporter creates a reporter writing frames through write
func NewStatusReporter(write func([]byte)) *StatusReporter {
	return &StatusReporter{
		output: protocol.NewScratchOutput(),
		write:  write,
	}
}

// Report encodes and writes one frame
func (r *StatusReporter) Report(s Snapshot) {
	r.output.Reset()
	protocol.EncodeFrame(r.output, r.seq, func(output protocol.OutputBuffer) {
		EncodeStatus(output, s)
	})
	r.write(r.output.Result())
	r.seq = (r.seq + 1) & protocol.MessageSeqMask
}

// MultiReporter fans a snapshot out to several reporters
type MultiReporter []Reporter

func (m MultiReporter) Report(s Snapshot) {
	for _, r := range m {
		r.Report(s)
	}
}

type debugReporter struct{}

func (debugReporter) Report(s Snapshot) {
	DebugPrintln("[CAL] " + FormatSnapshot(s))
}

// DebugReporter prints every snapshot through the debug writer
var DebugReporter Reporter = debugReporter{}
