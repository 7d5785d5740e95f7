package chain

// Split partitions msg at the module count m. The local part is what this
// board shows, the overflow is forwarded unmodified. m <= 0 overflows
// everything.
func Split(msg string, m int) (local, overflow string) {
	if m < 0 {
		m = 0
	}
	if m >= len(msg) {
		return msg, ""
	}
	return msg[:m], msg[m:]
}
