// Package serialio frames the PRT3's byte stream into lines and owns the
// raw termios configuration of the serial port. Framing is transport
// independent and is exercised in tests against plain io.Reader/io.Writer
// pairs; only Port touches an actual device.
package serialio

import (
	"bufio"
	"fmt"
	"io"
	"log"
)

// MaxLineLen is the PRT3's fixed line buffer size: 32 bytes of payload,
// excluding the trailing CR.
const MaxLineLen = 32

const eol = 0x0D

// Framer turns a byte stream into CR-terminated lines. It mirrors the
// panel's own fixed 32-byte input buffer: a line that would overflow it
// is discarded and logged, and framing resynchronizes on the next CR.
type Framer struct {
	r   *bufio.Reader
	buf [MaxLineLen]byte
	n   int
	// discarding is set once the current line has overflowed buf; bytes
	// are ignored until the next CR.
	discarding bool
}

// NewFramer wraps r for line-at-a-time reads.
func NewFramer(r io.Reader) *Framer {
	return &Framer{r: bufio.NewReader(r)}
}

// ReadLine blocks for the next complete, non-empty line, stripping the
// trailing CR. It returns an error only when the underlying reader fails;
// that error should be treated as fatal for the serial task.
func (f *Framer) ReadLine() (string, error) {
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("reading serial byte: %w", err)
		}

		if b == eol {
			if f.discarding {
				f.discarding = false
				continue // end of an overflowed line: resynchronized
			}
			if f.n == 0 {
				continue // empty lines are dropped
			}
			line := string(f.buf[:f.n])
			f.n = 0
			return line, nil
		}

		if f.discarding {
			continue
		}
		if f.n >= MaxLineLen {
			log.Printf("serialio: line overflowed %d bytes, discarding and resyncing", MaxLineLen)
			f.n = 0
			f.discarding = true
			continue
		}
		f.buf[f.n] = b
		f.n++
	}
}

// WriteLine sends req followed by a single CR. A short write is logged,
// not retried — the protocol layer's periodic refresh is the recovery
// mechanism.
func WriteLine(w io.Writer, req string) error {
	n, err := w.Write(append([]byte(req), eol))
	if err != nil {
		return fmt.Errorf("writing serial request %q: %w", req, err)
	}
	if n != len(req)+1 {
		log.Printf("serialio: short write sending %q: wrote %d of %d bytes", req, n, len(req)+1)
	}
	return nil
}
