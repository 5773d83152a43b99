package icom

import (
	"fmt"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
)

// Mode bytes of CmdSetMode, CmdReadMode and CmdSendMode.
const (
	ModeLSB   byte = 0x00
	ModeUSB   byte = 0x01
	ModeAM    byte = 0x02
	ModeCW    byte = 0x03
	ModeRTTY  byte = 0x04
	ModeFM    byte = 0x05
	ModeWFM   byte = 0x06
	ModeCWR   byte = 0x07
	ModeRTTYR byte = 0x08
)

var modeBytes = []struct {
	mode caps.Mode
	b    byte
}{
	{caps.ModeLSB, ModeLSB},
	{caps.ModeUSB, ModeUSB},
	{caps.ModeAM, ModeAM},
	{caps.ModeCW, ModeCW},
	{caps.ModeRTTY, ModeRTTY},
	{caps.ModeFM, ModeFM},
	{caps.ModeWFM, ModeWFM},
	{caps.ModeCWR, ModeCWR},
	{caps.ModeRTTYR, ModeRTTYR},
}

// EncodeMode returns the CI-V byte of a single mode.
func EncodeMode(m caps.Mode) (byte, error) {
	for _, e := range modeBytes {
		if e.mode == m {
			return e.b, nil
		}
	}
	return 0, fmt.Errorf("mode %s: %w", m, errNoEncoding)
}

// DecodeMode returns the mode for a CI-V mode byte.
func DecodeMode(b byte) (caps.Mode, error) {
	for _, e := range modeBytes {
		if e.b == b {
			return e.mode, nil
		}
	}
	return caps.ModeNone, fmt.Errorf("mode byte %#02x: %w", b, errNoEncoding)
}

// EncodeWidth returns the passband code for a width.
func EncodeWidth(w caps.Width) byte {
	switch w {
	case caps.WidthNarrow:
		return civ.PassbandNarrow
	case caps.WidthWide:
		return civ.PassbandWide
	default:
		return civ.PassbandNormal
	}
}

// DecodeWidth returns the width for a passband code. Unknown codes read
// as normal.
func DecodeWidth(b byte) caps.Width {
	switch b {
	case civ.PassbandNarrow:
		return caps.WidthNarrow
	case civ.PassbandWide:
		return caps.WidthWide
	default:
		return caps.WidthNormal
	}
}

// decodeModeData parses the payload of a mode reply or announcement. The
// passband byte is optional.
func decodeModeData(data []byte) (caps.Mode, caps.Width, error) {
	if len(data) == 0 {
		return caps.ModeNone, caps.WidthNormal, fmt.Errorf("empty mode payload: %w", civ.ErrMalformedFrame)
	}
	m, err := DecodeMode(data[0])
	if err != nil {
		return caps.ModeNone, caps.WidthNormal, err
	}
	w := caps.WidthNormal
	if len(data) > 1 {
		w = DecodeWidth(data[1])
	}
	return m, w, nil
}
