//go:build attiny1616

package main

import (
	"device/avr"

	"ulpclock/core"
)

// InitRTC starts the RTC on the 1.024 kHz reference with a three second
// period and enables its overflow interrupt
func InitRTC() {
	for rtcStatus.Get()&rtcStatusBusy != 0 {
	}
	rtcClkSel.Set(rtcClkINT1K)
	rtcPerL.Set(uint8(core.ReferencePeriod & 0xFF))
	rtcPerH.Set(uint8(core.ReferencePeriod >> 8))
	rtcIntCtrl.Set(rtcOVF)
	for rtcStatus.Get()&rtcStatusBusy != 0 {
	}
	rtcCtrlA.Set(rtcRUNSTDBY | rtcRTCEN)
}

// InitCapture routes the RTC overflow event to TCB0, which counts main
// clock cycles between two events and latches the count in CCMP
func InitCapture() {
	evsysAsyncCh0.Set(evsysRTC_OVF)
	evsysAsyncUser0.Set(evsysUserASYNCCH0)
	tcbCtrlB.Set(tcbCNTFRQ)
	tcbEvCtrl.Set(tcbCAPTEI)
	tcbCtrlA.Set(tcbENABLE)
}

// InitIndicator drives the LED on PA4
func InitIndicator() {
	portaDirSet.Set(ledPin)
}

// InitSleep selects standby so the RTC keeps running while asleep
func InitSleep() {
	sleepCtrl.Set(slpctrlSTANDBY | slpctrlSEN)
}

type captureTimer struct{}

// Latched reads CCMP low byte first, which latches the high byte
func (captureTimer) Latched() uint16 {
	lo := tcbCCMPL.Get()
	hi := tcbCCMPH.Get()
	return uint16(hi)<<8 | uint16(lo)
}

type rtcTick struct{}

// Acknowledge clears the overflow flag; the RTC does not clear it on entry
func (rtcTick) Acknowledge() {
	rtcIntFlags.Set(rtcOVF)
}

type led struct{}

func (led) Toggle() {
	portaOutTgl.Set(ledPin)
}

func (led) Set(high bool) {
	if high {
		portaOutSet.Set(ledPin)
	} else {
		portaOutClr.Set(ledPin)
	}
}

type sleepController struct{}

func (sleepController) Idle() {}

func (sleepController) Sleep() {
	avr.Asm("sleep")
}
