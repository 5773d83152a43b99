package transport

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the part of a serial port the transport uses.
// serial.Port satisfies it.
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds a single Read. A Read that times out returns
	// 0 bytes and a nil error.
	SetReadTimeout(t time.Duration) error

	// ResetInputBuffer discards bytes received but not yet read.
	ResetInputBuffer() error

	// SetRTS and SetDTR drive the modem control lines.
	SetRTS(rts bool) error
	SetDTR(dtr bool) error
}

// Opener opens a port with the given line mode.
type Opener func(path string, mode *serial.Mode) (Port, error)

// SerialOpener opens a real serial device.
func SerialOpener(path string, mode *serial.Mode) (Port, error) {
	p, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPorts returns the serial devices present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

var _ Port = serial.Port(nil)
