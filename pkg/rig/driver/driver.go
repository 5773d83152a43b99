// Package driver defines the interface a rig command protocol implements.
//
// Package rig validates every request against the capability descriptor
// before it reaches a driver, so implementations may assume their
// arguments are legal for the model.
package driver

import (
	"errors"
	"fmt"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
)

// ErrNotImplemented is returned for operations a protocol cannot express.
var ErrNotImplemented = errors.New("not implemented")

// RigProtocol is the set of generic operations a protocol implementation
// provides. Every method is one or more complete transactions.
type RigProtocol interface {
	SetFreq(hz uint64) error
	GetFreq() (uint64, error)

	SetMode(mode caps.Mode, width caps.Width) error
	GetMode() (caps.Mode, caps.Width, error)

	SetVFO(vfo caps.VFO) error

	// SetLevel and GetLevel use the units documented on caps.Level.
	// LevelStrength is returned raw; the caller calibrates it.
	SetLevel(level caps.Level, value float64) error
	GetLevel(level caps.Level) (float64, error)

	SetFunc(fn caps.Func, on bool) error
	GetFunc(fn caps.Func) (bool, error)

	SetChannel(ch Channel) error
	GetChannel(number int) (Channel, error)
	SetMem(number int) error

	VFOOp(op caps.VFOOp) error

	SetTS(step uint64) error
	GetTS() (uint64, error)

	// DecodeEvent interprets an unsolicited frame. ok is false for frames
	// that carry no state the rig handle tracks.
	DecodeEvent(f civ.Frame) (ev Event, ok bool)
}

// Channel is the content of one memory channel.
type Channel struct {
	Number int
	Freq   uint64
	Mode   caps.Mode
	Width  caps.Width
}

// String renders the channel for logs and the CLI.
func (c Channel) String() string {
	return fmt.Sprintf("%d: %d Hz %s/%s", c.Number, c.Freq, c.Mode, c.Width)
}

// EventKind says which field of an Event is valid.
type EventKind uint8

const (
	EventFreq EventKind = iota + 1
	EventMode
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventFreq:
		return "FREQ"
	case EventMode:
		return "MODE"
	default:
		return "UNKNOWN"
	}
}

// Event is a state change announced by the rig.
type Event struct {
	Kind  EventKind
	Freq  uint64
	Mode  caps.Mode
	Width caps.Width
}
