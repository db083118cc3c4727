package protocol

const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
)

// Message represents a decoded telemetry frame
type Message struct {
	Length   uint8
	Sequence uint8
	Payload  []byte // Frame data without header/trailer
	CRC      uint16
}

// EncodeFrame writes one frame: length, sequence, payload, CRC16 and the
// trailing sync byte. Only the low four bits of seq are used.
func EncodeFrame(output OutputBuffer, seq uint8, payload func(output OutputBuffer)) {
	cursor := output.CurPosition()

	// Write header (length placeholder and sequence)
	output.Output([]byte{0, (seq & MessageSeqMask) | MessageDest})

	if payload != nil {
		payload(output)
	}

	// Update length field
	changed := len(output.DataSince(cursor))
	output.Update(cursor, uint8(changed+MessageTrailerSize))

	// Calculate and write CRC over header + payload
	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// FrameDecoder reassembles frames from a byte stream, resynchronising on the
// sync byte after any corrupt frame. Not safe for concurrent use.
type FrameDecoder struct {
	input        *FifoBuffer
	synchronized bool
	dropped      uint32
}

// NewFrameDecoder creates a decoder buffering up to capacity bytes.
// Capacity is raised to hold at least two maximum-length frames.
func NewFrameDecoder(capacity int) *FrameDecoder {
	if capacity < 2*MessageLengthMax+1 {
		capacity = 2*MessageLengthMax + 1
	}
	return &FrameDecoder{
		input:        NewFifoBuffer(capacity),
		synchronized: true,
	}
}

// Dropped returns the number of times the decoder lost synchronisation
func (d *FrameDecoder) Dropped() uint32 {
	return d.dropped
}

// Feed appends data to the decoder and returns every complete frame
func (d *FrameDecoder) Feed(data []byte) []*Message {
	var msgs []*Message
	for len(data) > 0 {
		n := d.input.Write(data)
		data = data[n:]
		msgs = append(msgs, d.process()...)
		if n == 0 && d.input.Free() == 0 {
			// Nothing consumable: discard and hunt for the next frame
			d.input.Reset()
			d.desync()
		}
	}
	return msgs
}

// Reset clears buffered data and synchronisation state
func (d *FrameDecoder) Reset() {
	d.input.Reset()
	d.synchronized = true
}

func (d *FrameDecoder) desync() {
	if d.synchronized {
		d.dropped++
	}
	d.synchronized = false
}

// process parses frames from the input buffer
func (d *FrameDecoder) process() []*Message {
	var msgs []*Message
	data := d.input.Data()
	original := len(data)

	for len(data) > 0 {
		if !d.synchronized {
			// Look for sync byte
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				// Found sync - skip to after sync byte
				data = data[syncPos+1:]
				d.synchronized = true
			} else {
				// No sync found - discard all
				data = nil
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		// Need minimum message length
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			d.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageHeaderSize-MessageTrailerSize)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		msgs = append(msgs, &Message{
			Length:   uint8(msgLen),
			Sequence: seq & MessageSeqMask,
			Payload:  payload,
			CRC:      frameCRC,
		})
		data = data[msgLen:]
	}

	// Remove consumed bytes from input buffer
	if consumed := original - len(data); consumed > 0 {
		d.input.Pop(consumed)
	}
	return msgs
}
