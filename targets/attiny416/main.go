//go:build attiny1616

package main

import (
	"device/avr"
	"runtime/interrupt"

	"ulpclock/core"
)

func handleRTC(interrupt.Interrupt) {
	core.MustEngine().HandleTick()
}

func main() {
	InitClocks()
	InitIndicator()
	InitUART()
	InitCapture()
	InitRTC()
	InitSleep()

	engine, err := core.NewEngine(core.DefaultConfig(), core.Hardware{
		Clock:     clockDriver{},
		Capture:   captureTimer{},
		Tick:      rtcTick{},
		Indicator: led{},
		Power:     sleepController{},
	})
	if err != nil {
		for {
		}
	}
	core.SetEngine(engine)

	interrupt.New(avr.IRQ_RTC_CNT, handleRTC)
	avr.Asm("sei")

	scheduler := core.NewPhaseScheduler(engine)
	scheduler.SetReporter(core.NewStatusReporter(uartWrite))
	scheduler.Run()
}
