// Package protocol implements the framed telemetry link between the clock
// firmware and host tools. Frames follow the Klipper block layout: a length
// byte, a sequence byte, VLQ-encoded payload, CRC16 and a sync byte.
package protocol

// Version represents the telemetry protocol version
const Version = "0.1.0"

// Protocol constants
const (
	MessageMax = 64 // Scratch buffer size, one maximum-length frame

	// Message sequence masks
	MessageSeqMask = 0x0F
)
