package log

import (
	"time"

	"github.com/civ-protocol/civ-go/pkg/civ"
)

// MaxFrameData is the number of frame bytes kept in a FrameEvent.
const MaxFrameData = civ.MaxFrameLen

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one open rig handle (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates byte flow relative to the controller.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// Port is the serial device path.
	Port string `cbor:"6,keyasint,omitempty"`

	// Model is the rig model name.
	Model string `cbor:"7,keyasint,omitempty"`

	// RigAddr is the CI-V address of the rig.
	RigAddr uint8 `cbor:"8,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Transport layer
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"` // Frame layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Port/transaction/rig state
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of byte flow.
type Direction uint8

const (
	// DirectionIn indicates bytes received from the bus.
	DirectionIn Direction = 0
	// DirectionOut indicates bytes sent to the bus.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the serial line (raw frame bytes).
	LayerTransport Layer = 0
	// LayerFrame is the transaction engine (decoded frames).
	LayerFrame Layer = 1
	// LayerRig is the rig API (state and cache changes).
	LayerRig Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerFrame:
		return "FRAME"
	case LayerRig:
		return "RIG"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a command or reply frame.
	CategoryMessage Category = 0
	// CategoryEvent indicates an unsolicited transceive frame.
	CategoryEvent Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryEvent:
		return "EVENT"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw frame bytes at the transport layer.
type FrameEvent struct {
	// Size is the frame size in bytes including preamble and terminator.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent copies up to MaxFrameData bytes of a raw frame.
func NewFrameEvent(raw []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(raw)}
	n := len(raw)
	if n > MaxFrameData {
		n = MaxFrameData
		fe.Truncated = true
	}
	fe.Data = append([]byte(nil), raw[:n]...)
	return fe
}

// CommandEvent captures a decoded frame at the frame layer.
type CommandEvent struct {
	// To and From are the CI-V addresses.
	To   uint8 `cbor:"1,keyasint"`
	From uint8 `cbor:"2,keyasint"`

	// Command is the command byte.
	Command civ.Command `cbor:"3,keyasint"`

	// Sub is the subcommand byte, if any.
	Sub *uint8 `cbor:"4,keyasint,omitempty"`

	// Data is the payload after the subcommand.
	Data []byte `cbor:"5,keyasint,omitempty"`

	// Status is set for OK/NG replies.
	Status civ.Status `cbor:"6,keyasint,omitempty"`

	// Attempt is the transmission number within a transaction (1-based).
	Attempt int `cbor:"7,keyasint,omitempty"`

	// Elapsed is the time from first transmission to reply (replies only).
	// Stored as nanoseconds.
	Elapsed *time.Duration `cbor:"8,keyasint,omitempty"`
}

// NewCommandEvent describes a decoded frame.
func NewCommandEvent(f civ.Frame) *CommandEvent {
	ce := &CommandEvent{
		To:      f.To,
		From:    f.From,
		Command: f.Cmd,
		Data:    f.Data,
		Status:  f.Status(),
	}
	if f.HasSub {
		sub := f.Sub
		ce.Sub = &sub
	}
	return ce
}

// StateChangeEvent captures port, transaction and rig state changes.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityPort indicates the serial port was opened or closed.
	StateEntityPort StateEntity = 0
	// StateEntityTransaction indicates a transaction state transition.
	StateEntityTransaction StateEntity = 1
	// StateEntityRig indicates a rig handle lifecycle change.
	StateEntityRig StateEntity = 2
	// StateEntityCache indicates a cached value (frequency, mode, VFO) changed.
	StateEntityCache StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityPort:
		return "PORT"
	case StateEntityTransaction:
		return "TRANSACTION"
	case StateEntityRig:
		return "RIG"
	case StateEntityCache:
		return "CACHE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
