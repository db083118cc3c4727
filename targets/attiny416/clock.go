//go:build attiny1616

package main

import (
	"device/avr"

	"ulpclock/core"
)

// protectedWriteMCLKCTRLA writes the main clock select register. The store
// must follow the CCP unlock within four cycles, so both go in one asm block.
func protectedWriteMCLKCTRLA(value uint8) {
	key := uint8(ccpIOREG)
	avr.AsmFull(`
		out 0x34, {key}
		sts 0x0060, {value}
	`, map[string]interface{}{
		"key":   key,
		"value": value,
	})
}

func protectedWriteMCLKCTRLB(value uint8) {
	key := uint8(ccpIOREG)
	avr.AsmFull(`
		out 0x34, {key}
		sts 0x0061, {value}
	`, map[string]interface{}{
		"key":   key,
		"value": value,
	})
}

func protectedWriteXOSC32KCTRLA(value uint8) {
	key := uint8(ccpIOREG)
	avr.AsmFull(`
		out 0x34, {key}
		sts 0x007C, {value}
	`, map[string]interface{}{
		"key":   key,
		"value": value,
	})
}

// InitClocks runs the core undivided from the low-power oscillator and
// enables the crystal so it is ready when calibration selects it.
func InitClocks() {
	protectedWriteMCLKCTRLB(0)
	protectedWriteXOSC32KCTRLA(xosc32kENABLE)
	protectedWriteMCLKCTRLA(clkselOSCULP32K)
	for mclkStatus.Get()&mclkstatusSOSC != 0 {
	}
}

// clockDriver switches the main clock between OSCULP32K and XOSC32K
type clockDriver struct{}

func (clockDriver) SelectMainClock(osc core.Oscillator) {
	if osc == core.PreciseOscillator {
		protectedWriteMCLKCTRLA(clkselXOSC32K)
		return
	}
	protectedWriteMCLKCTRLA(clkselOSCULP32K)
}

func (clockDriver) MainClockSwitching() bool {
	return mclkStatus.Get()&mclkstatusSOSC != 0
}
