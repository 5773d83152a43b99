package caps

import (
	"fmt"
	"strings"
)

// Mode is a bitmask of operating modes.
type Mode uint32

// Operating modes.
const (
	ModeNone  Mode = 0
	ModeAM    Mode = 1 << 0
	ModeCW    Mode = 1 << 1
	ModeUSB   Mode = 1 << 2
	ModeLSB   Mode = 1 << 3
	ModeRTTY  Mode = 1 << 4
	ModeFM    Mode = 1 << 5
	ModeWFM   Mode = 1 << 6
	ModeCWR   Mode = 1 << 7
	ModeRTTYR Mode = 1 << 8

	// ModeSSB matches either sideband.
	ModeSSB = ModeUSB | ModeLSB
)

var modeNames = []struct {
	mode Mode
	name string
}{
	{ModeAM, "AM"},
	{ModeCW, "CW"},
	{ModeUSB, "USB"},
	{ModeLSB, "LSB"},
	{ModeRTTY, "RTTY"},
	{ModeFM, "FM"},
	{ModeWFM, "WFM"},
	{ModeCWR, "CWR"},
	{ModeRTTYR, "RTTYR"},
}

// String returns the mode name, or the names of all set bits joined by "|".
func (m Mode) String() string {
	if m == ModeNone {
		return "NONE"
	}
	var parts []string
	rest := m
	for _, n := range modeNames {
		if m&n.mode != 0 {
			parts = append(parts, n.name)
			rest &^= n.mode
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// IsSingle reports whether exactly one mode bit is set.
func (m Mode) IsSingle() bool {
	return m != 0 && m&(m-1) == 0
}

// Modes returns the individual modes set in m.
func (m Mode) Modes() []Mode {
	var out []Mode
	for _, n := range modeNames {
		if m&n.mode != 0 {
			out = append(out, n.mode)
		}
	}
	return out
}

// ParseMode parses a single mode name (case-insensitive). "SSB" is not a
// single mode and is rejected.
func ParseMode(s string) (Mode, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, n := range modeNames {
		if n.name == u {
			return n.mode, nil
		}
	}
	return ModeNone, fmt.Errorf("unknown mode %q", s)
}

// MarshalYAML renders the mask as mode names.
func (m Mode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// Width selects a passband relative to the mode's normal filter.
type Width int

const (
	WidthNormal Width = iota
	WidthNarrow
	WidthWide
)

// String returns the width name.
func (w Width) String() string {
	switch w {
	case WidthNarrow:
		return "narrow"
	case WidthWide:
		return "wide"
	default:
		return "normal"
	}
}

// ParseWidth parses "normal", "narrow" or "wide".
func ParseWidth(s string) (Width, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return WidthNormal, nil
	case "narrow":
		return WidthNarrow, nil
	case "wide":
		return WidthWide, nil
	}
	return WidthNormal, fmt.Errorf("unknown passband width %q", s)
}
