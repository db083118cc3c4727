//go:build avr

package core

// TimingRingSize is the number of events kept for post-mortem
const TimingRingSize = firmwareTimingRingSize
