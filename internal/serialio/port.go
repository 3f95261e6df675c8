//go:build linux

package serialio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Speed is the PRT3's fixed serial rate: 57600 8N1.
const Speed = unix.B57600

// Port is a raw-mode serial device, opened and configured directly via
// termios ioctls (no flow control, local, receiver enabled) — the panel
// speaks a half-duplex ASCII protocol, not a terminal session.
type Port struct {
	f *os.File
}

// Open opens device and puts it into the PRT3's expected raw mode.
func Open(device string) (*Port, error) {
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY|unix.O_NDELAY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening serial device %s: %w", device, err)
	}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading termios for %s: %w", device, err)
	}

	t.Iflag = 0
	t.Oflag = 0
	t.Lflag = unix.NOFLSH
	t.Cflag = unix.CS8 | unix.CLOCAL | unix.CREAD
	t.Cflag &^= unix.CBAUD
	t.Cflag |= Speed

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("configuring termios for %s: %w", device, err)
	}
	if err := unix.IoctlTcflush(fd, unix.TCIFLUSH); err != nil {
		f.Close()
		return nil, fmt.Errorf("flushing %s: %w", device, err)
	}

	return &Port{f: f}, nil
}

func (p *Port) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *Port) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *Port) Close() error                { return p.f.Close() }
