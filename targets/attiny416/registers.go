//go:build attiny1616

package main

import (
	"runtime/volatile"
	"unsafe"
)

// tinyAVR 0/1-series peripheral memory map. The ATtiny416 and ATtiny1616
// share it, so the firmware builds with the attiny1616 target.
const (
	ccpIOREG = 0xD8 // Unlock key for protected I/O registers

	clkctrlBase       = 0x0060
	clkctrlMCLKCTRLA  = clkctrlBase + 0x00
	clkctrlMCLKCTRLB  = clkctrlBase + 0x01
	clkctrlMCLKSTATUS = clkctrlBase + 0x03
	clkctrlXOSC32KA   = clkctrlBase + 0x1C

	slpctrlCTRLA = 0x0050

	rtcBase     = 0x0140
	rtcCTRLA    = rtcBase + 0x00
	rtcSTATUS   = rtcBase + 0x01
	rtcINTCTRL  = rtcBase + 0x02
	rtcINTFLAGS = rtcBase + 0x03
	rtcCLKSEL   = rtcBase + 0x07
	rtcPERL     = rtcBase + 0x0A
	rtcPERH     = rtcBase + 0x0B

	evsysBase       = 0x0180
	evsysASYNCCH0   = evsysBase + 0x02
	evsysASYNCUSER0 = evsysBase + 0x12 // TCB0 capture input

	portaBase   = 0x0400
	portaDIRSET = portaBase + 0x01
	portaOUTSET = portaBase + 0x05
	portaOUTCLR = portaBase + 0x06
	portaOUTTGL = portaBase + 0x07

	portbBase   = 0x0420
	portbDIRSET = portbBase + 0x01
	portbOUTSET = portbBase + 0x05

	usart0Base    = 0x0800
	usart0TXDATAL = usart0Base + 0x02
	usart0STATUS  = usart0Base + 0x04
	usart0CTRLB   = usart0Base + 0x06
	usart0CTRLC   = usart0Base + 0x07
	usart0BAUDL   = usart0Base + 0x08
	usart0BAUDH   = usart0Base + 0x09

	tcb0Base   = 0x0A40
	tcb0CTRLA  = tcb0Base + 0x00
	tcb0CTRLB  = tcb0Base + 0x01
	tcb0EVCTRL = tcb0Base + 0x04
	tcb0CCMPL  = tcb0Base + 0x0C
	tcb0CCMPH  = tcb0Base + 0x0D
)

// Register field values
const (
	clkselOSCULP32K = 0x01
	clkselXOSC32K   = 0x02
	mclkstatusSOSC  = 1 << 0 // Main clock switch in progress
	xosc32kENABLE   = 1 << 0

	slpctrlSEN     = 1 << 0
	slpctrlSTANDBY = 0x01 << 1

	rtcRTCEN      = 1 << 0
	rtcRUNSTDBY   = 1 << 7
	rtcOVF        = 1 << 0
	rtcClkINT1K   = 0x01 // OSCULP32K / 32
	rtcStatusBusy = 0x0F

	evsysRTC_OVF      = 0x08
	evsysUserASYNCCH0 = 0x03

	tcbENABLE = 1 << 0
	tcbCNTFRQ = 0x03 // Input capture frequency measurement
	tcbCAPTEI = 1 << 0

	ledPin = 1 << 4 // PA4
	txPin  = 1 << 2 // PB2, USART0 TXD

	usartDREIF   = 1 << 5
	usartTXCIF   = 1 << 6
	usartTXEN    = 1 << 6
	usartChar8N1 = 0x03
	usartBaud    = 109 // 64 * 32768 / (16 * 1200)
)

func reg8(addr uintptr) *volatile.Register8 {
	return (*volatile.Register8)(unsafe.Pointer(addr))
}

var (
	mclkStatus = reg8(clkctrlMCLKSTATUS)
	sleepCtrl  = reg8(slpctrlCTRLA)

	rtcCtrlA    = reg8(rtcCTRLA)
	rtcStatus   = reg8(rtcSTATUS)
	rtcIntCtrl  = reg8(rtcINTCTRL)
	rtcIntFlags = reg8(rtcINTFLAGS)
	rtcClkSel   = reg8(rtcCLKSEL)
	rtcPerL     = reg8(rtcPERL)
	rtcPerH     = reg8(rtcPERH)

	evsysAsyncCh0   = reg8(evsysASYNCCH0)
	evsysAsyncUser0 = reg8(evsysASYNCUSER0)

	portaDirSet = reg8(portaDIRSET)
	portaOutSet = reg8(portaOUTSET)
	portaOutClr = reg8(portaOUTCLR)
	portaOutTgl = reg8(portaOUTTGL)
	portbDirSet = reg8(portbDIRSET)
	portbOutSet = reg8(portbOUTSET)

	usartTxData = reg8(usart0TXDATAL)
	usartStatus = reg8(usart0STATUS)
	usartCtrlB  = reg8(usart0CTRLB)
	usartCtrlC  = reg8(usart0CTRLC)
	usartBaudL  = reg8(usart0BAUDL)
	usartBaudH  = reg8(usart0BAUDH)

	tcbCtrlA  = reg8(tcb0CTRLA)
	tcbCtrlB  = reg8(tcb0CTRLB)
	tcbEvCtrl = reg8(tcb0EVCTRL)
	tcbCCMPL  = reg8(tcb0CCMPL)
	tcbCCMPH  = reg8(tcb0CCMPH)
)
