package core

import (
	"testing"

	"ulpclock/protocol"
)

func TestStatusReporterFrames(t *testing.T) {
	var wire []byte
	r := NewStatusReporter(func(b []byte) {
		wire = append(wire, b...)
	})

	want := Snapshot{
		Accumulator:  uint64(1)<<33 + 12345,
		Seconds:      262144,
		Measured:     98305,
		Phase:        Calibrating,
		Ticks:        87000,
		Calibrations: 288,
		Faults:       3,
	}
	r.Report(want)
	want.Ticks++
	r.Report(want)

	decoder := protocol.NewFrameDecoder(256)
	msgs := decoder.Feed(wire)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(msgs))
	}
	if msgs[0].Sequence != 0 || msgs[1].Sequence != 1 {
		t.Errorf("Expected sequences 0 and 1, got %d and %d", msgs[0].Sequence, msgs[1].Sequence)
	}

	payload := msgs[1].Payload
	got, err := DecodeStatus(&payload)
	if err != nil {
		t.Fatalf("DecodeStatus failed: %v", err)
	}
	want.Minutes = want.Seconds / 60
	if got != want {
		t.Errorf("Decoded %+v, expected %+v", got, want)
	}
	if len(payload) != 0 {
		t.Errorf("%d bytes left after decode", len(payload))
	}
}

func TestDecodeStatusErrors(t *testing.T) {
	output := protocol.NewScratchOutput()
	protocol.EncodeVLQUint(output, 7)
	data := output.Result()
	if _, err := DecodeStatus(&data); err != ErrUnknownMessage {
		t.Errorf("Expected ErrUnknownMessage, got %v", err)
	}

	output.Reset()
	protocol.EncodeVLQUint(output, MsgClockStatus)
	protocol.EncodeVLQUint(output, 1)
	data = output.Result()
	if _, err := DecodeStatus(&data); err != protocol.ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for a truncated message, got %v", err)
	}
}

// Values just below 1<<31 take the longest, five byte VLQ encoding
func TestLargestStatusFitsScratchBuffer(t *testing.T) {
	var wire []byte
	r := NewStatusReporter(func(b []byte) {
		wire = append(wire, b...)
	})

	want := Snapshot{
		Accumulator:  0x7FFFFFFF7FFFFFFF,
		Seconds:      0x7FFFFFFF,
		Measured:     0x7FFFFFFF,
		Phase:        Calibrating,
		Ticks:        0x7FFFFFFF,
		Calibrations: 0x7FFFFFFF,
		Faults:       0x7FFFFFFF,
	}
	r.Report(want)

	if len(wire) > protocol.MessageMax {
		t.Fatalf("Frame of %d bytes exceeds MessageMax %d", len(wire), protocol.MessageMax)
	}
	msgs := protocol.NewFrameDecoder(0).Feed(wire)
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(msgs))
	}
	payload := msgs[0].Payload
	got, err := DecodeStatus(&payload)
	if err != nil {
		t.Fatalf("DecodeStatus failed: %v", err)
	}
	want.Minutes = want.Seconds / 60
	if got != want {
		t.Errorf("Decoded %+v, expected %+v", got, want)
	}
}

func TestDecodeStatusRejectsUnknownPhase(t *testing.T) {
	output := protocol.NewScratchOutput()
	EncodeStatus(output, Snapshot{Phase: Phase(7), Measured: 98304})
	data := output.Result()
	if _, err := DecodeStatus(&data); err != ErrBadPhase {
		t.Errorf("Expected ErrBadPhase for phase 7, got %v", err)
	}

	output.Reset()
	EncodeStatus(output, Snapshot{Phase: Calibrating, Measured: 98304})
	data = output.Result()
	s, err := DecodeStatus(&data)
	if err != nil || s.Phase != Calibrating {
		t.Errorf("Expected calibrating phase, got %v (err %v)", s.Phase, err)
	}
}
