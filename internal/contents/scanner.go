package contents

import (
	"bufio"
	"io"
)

const (
	// scannerBufferSize is the maximum line length the scanner accepts.
	// Contents lines are normally well under 1KiB, but a corrupted index
	// should produce a scan error rather than silent truncation, so the
	// limit is generous.
	scannerBufferSize = 1 << 20 // 1MiB

	// scannerInitialBuffer is the initial allocation for the scan buffer.
	scannerInitialBuffer = 64 << 10 // 64KiB
)

// NewScanner returns a line scanner over a decompressed Contents stream.
//
// The stream is consumed in a single forward pass; stream exhaustion is the
// normal end-of-input, signalled by Scan returning false with a nil Err.
// The whole index is never materialized in memory.
func NewScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, scannerInitialBuffer), scannerBufferSize)
	return sc
}
