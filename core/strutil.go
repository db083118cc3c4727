package core

// utoa converts an unsigned integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func utoa(n uint32) string {
	if n == 0 {
		return "0"
	}

	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// FormatSnapshot renders a snapshot for the debug writer
func FormatSnapshot(s Snapshot) string {
	return "t=" + utoa(s.Seconds) + "s" +
		" m=" + utoa(s.Minutes) +
		" tick=" + utoa(s.Measured) +
		" phase=" + s.Phase.String() +
		" cal=" + utoa(s.Calibrations) +
		" faults=" + utoa(s.Faults)
}
