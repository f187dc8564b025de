package protocol

// Checksum is the BCC of b: every byte XORed together.
func Checksum(b []byte) uint8 {
	var bcc uint8
	for _, c := range b {
		bcc ^= c
	}
	return bcc
}

// checksumRange returns the bytes covered by the BCC of a complete frame:
// everything after the begin marker and before the checksum byte.
func checksumRange(frame []byte) []byte {
	return frame[2 : len(frame)-ChecksumSize]
}
