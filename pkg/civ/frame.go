package civ

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Frame delimiters and well-known addresses.
const (
	Preamble   byte = 0xfe
	Terminator byte = 0xfd
	Collision  byte = 0xfc // jam code sent when two stations talk at once

	AddrBroadcast  byte = 0x00
	AddrController byte = 0xe0

	// MinFrameLen is FE FE to from cmd FD.
	MinFrameLen = 6

	// MaxFrameLen bounds scanner buffering of unterminated input.
	MaxFrameLen = 64
)

// ErrMalformedFrame indicates a structurally invalid frame.
var ErrMalformedFrame = errors.New("civ: malformed frame")

// Status is the outcome carried by a reply to a set operation.
type Status uint8

const (
	// StatusNone means the frame is not a status frame.
	StatusNone Status = 0
	// StatusOK means the rig accepted the command.
	StatusOK Status = 1
	// StatusNG means the rig rejected the command.
	StatusNG Status = 2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNG:
		return "NG"
	default:
		return "NONE"
	}
}

// Frame is one decoded CI-V frame.
type Frame struct {
	To     byte
	From   byte
	Cmd    Command
	Sub    byte
	HasSub bool
	Data   []byte // nil when empty
}

// NewFrame builds a frame without subcommand.
func NewFrame(to, from byte, cmd Command, data ...byte) Frame {
	return Frame{To: to, From: from, Cmd: cmd, Data: nilIfEmpty(data)}
}

// NewSubFrame builds a frame with a subcommand.
func NewSubFrame(to, from byte, cmd Command, sub byte, data ...byte) Frame {
	return Frame{To: to, From: from, Cmd: cmd, Sub: sub, HasSub: true, Data: nilIfEmpty(data)}
}

// Status returns the status carried by the frame.
func (f Frame) Status() Status {
	switch f.Cmd {
	case CmdOK:
		return StatusOK
	case CmdNG:
		return StatusNG
	default:
		return StatusNone
	}
}

// IsBroadcast reports whether the frame is addressed to all stations.
func (f Frame) IsBroadcast() bool {
	return f.To == AddrBroadcast
}

// Reply returns a frame from the receiver of f back to its sender.
func (f Frame) Reply(cmd Command, data ...byte) Frame {
	r := NewFrame(f.From, f.To, cmd, data...)
	if cmd == f.Cmd && f.HasSub {
		r.Sub, r.HasSub = f.Sub, true
	}
	return r
}

// String renders the frame for logs, e.g. "4A->E0 READ_FREQ [00 00 50 00 00]".
func (f Frame) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%02X->%02X %s", f.From, f.To, f.Cmd)
	if f.HasSub {
		fmt.Fprintf(&sb, "/%02X", f.Sub)
	}
	if len(f.Data) > 0 {
		fmt.Fprintf(&sb, " [% X]", f.Data)
	}
	return sb.String()
}

// Encode serializes the frame.
func Encode(f Frame) []byte {
	n := MinFrameLen + len(f.Data)
	if f.HasSub {
		n++
	}
	b := make([]byte, 0, n)
	b = append(b, Preamble, Preamble, f.To, f.From, byte(f.Cmd))
	if f.HasSub {
		b = append(b, f.Sub)
	}
	b = append(b, f.Data...)
	return append(b, Terminator)
}

// Decode parses one complete frame.
func Decode(b []byte) (Frame, error) {
	if len(b) < MinFrameLen {
		return Frame{}, malformed("short frame (%d bytes)", len(b))
	}
	if b[0] != Preamble || b[1] != Preamble {
		return Frame{}, malformed("missing preamble")
	}
	if b[len(b)-1] != Terminator {
		return Frame{}, malformed("missing terminator")
	}
	if i := bytes.IndexByte(b[2:len(b)-1], Terminator); i >= 0 {
		return Frame{}, malformed("terminator inside body at offset %d", i+2)
	}

	f := Frame{To: b[2], From: b[3], Cmd: Command(b[4])}
	rest := b[5 : len(b)-1]
	l := layouts[f.Cmd]

	if l.sub {
		if len(rest) == 0 {
			return Frame{}, malformed("%s requires a subcommand", f.Cmd)
		}
		f.Sub, f.HasSub = rest[0], true
		rest = rest[1:]
	}
	if !l.allows(len(rest)) {
		return Frame{}, malformed("%d payload bytes invalid for %s", len(rest), f.Cmd)
	}
	if l.bcd && !validBCD(rest) {
		return Frame{}, malformed("%s payload [% X] is not BCD", f.Cmd, rest)
	}
	if len(rest) > 0 {
		f.Data = append([]byte(nil), rest...)
	}
	return f, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFrame, fmt.Sprintf(format, args...))
}

func nilIfEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
