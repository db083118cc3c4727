//go:build attiny1616

package main

// InitUART enables USART0 transmit on PB2 at 1200 baud. The baud divisor
// assumes the crystal drives the main clock, which holds while reports go out.
func InitUART() {
	portbOutSet.Set(txPin)
	portbDirSet.Set(txPin)
	usartBaudL.Set(usartBaud & 0xFF)
	usartBaudH.Set(usartBaud >> 8)
	usartCtrlC.Set(usartChar8N1)
	usartCtrlB.Set(usartTXEN)
}

// uartWrite sends b and waits until the last stop bit has left the shifter,
// so the main clock can switch right after
func uartWrite(b []byte) {
	usartStatus.Set(usartTXCIF)
	for _, c := range b {
		for usartStatus.Get()&usartDREIF == 0 {
		}
		usartTxData.Set(c)
	}
	for usartStatus.Get()&usartTXCIF == 0 {
	}
}
