// Package serial opens the UART link the clock firmware reports over
package serial

import (
	"io"
)

// Port is an open serial link
type Port interface {
	io.ReadWriteCloser

	// Flush flushes any buffered data
	Flush() error
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate. The firmware runs its UART from the 32.768 kHz crystal,
	// which limits it to 1200 baud.
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultBaud is the firmware telemetry baud rate
const DefaultBaud = 1200

// DefaultConfig returns a blocking configuration at the firmware baud rate.
// Reports arrive every 15 minutes, so reads never time out.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 0,
	}
}
