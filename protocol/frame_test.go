package protocol

import (
	"bytes"
	"testing"
)

func encodeTestFrame(seq uint8, payload []byte) []byte {
	output := NewScratchOutput()
	EncodeFrame(output, seq, func(output OutputBuffer) {
		output.Output(payload)
	})
	return append([]byte(nil), output.Result()...)
}

func TestEncodeFrame(t *testing.T) {
	frame := encodeTestFrame(19, []byte{0x01, 0x02})

	if len(frame) != 7 || frame[MessagePositionLen] != 7 {
		t.Fatalf("Expected a 7 byte frame, got %v", frame)
	}
	if frame[MessagePositionSeq] != 0x13 {
		t.Errorf("Expected sequence byte 0x13, got 0x%02X", frame[MessagePositionSeq])
	}
	if frame[6] != MessageValueSync {
		t.Errorf("Frame does not end with sync byte: %v", frame)
	}
	crc := CRC16(frame[:4])
	if frame[4] != byte(crc>>8) || frame[5] != byte(crc) {
		t.Errorf("CRC mismatch: frame %v, expected 0x%04X", frame, crc)
	}
}

func TestFrameDecoderRoundTrip(t *testing.T) {
	decoder := NewFrameDecoder(0)
	wire := append(encodeTestFrame(3, []byte{0x10, 0x20, 0x30}), encodeTestFrame(4, nil)...)

	msgs := decoder.Feed(wire)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Sequence != 3 || !bytes.Equal(msgs[0].Payload, []byte{0x10, 0x20, 0x30}) {
		t.Errorf("Unexpected first message %+v", msgs[0])
	}
	if msgs[1].Sequence != 4 || len(msgs[1].Payload) != 0 || msgs[1].Length != MessageLengthMin {
		t.Errorf("Unexpected second message %+v", msgs[1])
	}
	if decoder.Dropped() != 0 {
		t.Errorf("Expected no drops, got %d", decoder.Dropped())
	}
}

func TestFrameDecoderSplitFeed(t *testing.T) {
	decoder := NewFrameDecoder(0)
	wire := encodeTestFrame(1, []byte{0x05, 0x06, 0x07, 0x08})

	var msgs []*Message
	for _, b := range wire {
		msgs = append(msgs, decoder.Feed([]byte{b})...)
	}
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message from byte-wise feed, got %d", len(msgs))
	}
	if !bytes.Equal(msgs[0].Payload, []byte{0x05, 0x06, 0x07, 0x08}) {
		t.Errorf("Payload mismatch: %v", msgs[0].Payload)
	}
}

func TestFrameDecoderResync(t *testing.T) {
	decoder := NewFrameDecoder(0)

	bad := encodeTestFrame(1, []byte{0x01, 0x02, 0x03})
	bad[3] ^= 0x40 // corrupt payload, CRC no longer matches
	good := encodeTestFrame(2, []byte{0x04})

	msgs := decoder.Feed(append(bad, good...))
	if len(msgs) != 1 || msgs[0].Sequence != 2 {
		t.Fatalf("Expected only the intact frame, got %d messages", len(msgs))
	}
	if decoder.Dropped() != 1 {
		t.Errorf("Expected 1 drop, got %d", decoder.Dropped())
	}
}

func TestFrameDecoderSkipsNoise(t *testing.T) {
	decoder := NewFrameDecoder(0)

	wire := append([]byte{0x01, 0x02, MessageValueSync}, encodeTestFrame(5, []byte{0x09})...)
	msgs := decoder.Feed(wire)
	if len(msgs) != 1 || msgs[0].Sequence != 5 {
		t.Fatalf("Expected the frame after the noise, got %d messages", len(msgs))
	}
	if decoder.Dropped() != 1 {
		t.Errorf("Expected 1 drop, got %d", decoder.Dropped())
	}

	// A bad destination nibble also forces a resync
	frame := encodeTestFrame(6, []byte{0x09})
	frame[MessagePositionSeq] = 0x26
	msgs = decoder.Feed(append(frame, encodeTestFrame(7, nil)...))
	if len(msgs) != 1 || msgs[0].Sequence != 7 {
		t.Fatalf("Expected only sequence 7, got %d messages", len(msgs))
	}
	if decoder.Dropped() != 2 {
		t.Errorf("Expected 2 drops, got %d", decoder.Dropped())
	}
}

func TestFrameDecoderReset(t *testing.T) {
	decoder := NewFrameDecoder(0)
	frame := encodeTestFrame(1, []byte{0x01})

	decoder.Feed(frame[:3])
	decoder.Reset()
	msgs := decoder.Feed(frame)
	if len(msgs) != 1 {
		t.Fatalf("Expected 1 message after reset, got %d", len(msgs))
	}
}
