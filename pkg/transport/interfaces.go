package transport

import "time"

// FrameReadWriter moves whole CI-V frames over a line.
// Implemented by Conn.
type FrameReadWriter interface {
	// Write sends one encoded frame.
	Write(frame []byte) error

	// ReadFrame returns the next complete frame or ErrReadTimeout.
	ReadFrame(timeout time.Duration) ([]byte, error)

	// Flush discards pending input and returns the complete frames it held.
	Flush() ([][]byte, error)

	// Close releases the line.
	Close() error
}

var _ FrameReadWriter = (*Conn)(nil)
