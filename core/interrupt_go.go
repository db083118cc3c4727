//go:build !tinygo

package core

import "sync"

// State is a placeholder for interrupt state on regular Go
type State uintptr

// interruptMask stands in for the global interrupt enable when running on a
// host. The tick handler and foreground readers hold it the same way they
// mask interrupts on hardware, so goroutines standing in for the interrupt
// and the main loop never observe each other half way.
var interruptMask sync.Mutex

// disableInterrupts takes the host-side interrupt mask. Not reentrant.
func disableInterrupts() State {
	interruptMask.Lock()
	return 0
}

// restoreInterrupts releases the host-side interrupt mask
func restoreInterrupts(state State) {
	interruptMask.Unlock()
}
