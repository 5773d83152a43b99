package civ

import "fmt"

// Command is a CI-V command byte.
type Command byte

// Command bytes.
const (
	CmdSendFreq   Command = 0x00 // transceive frequency announcement
	CmdSendMode   Command = 0x01 // transceive mode announcement
	CmdReadBand   Command = 0x02
	CmdReadFreq   Command = 0x03
	CmdReadMode   Command = 0x04
	CmdSetFreq    Command = 0x05
	CmdSetMode    Command = 0x06
	CmdSetVFO     Command = 0x07
	CmdSetMem     Command = 0x08
	CmdWriteMem   Command = 0x09
	CmdMemToVFO   Command = 0x0a
	CmdClearMem   Command = 0x0b
	CmdTuningStep Command = 0x10
	CmdAttenuator Command = 0x11
	CmdLevel      Command = 0x14
	CmdMeter      Command = 0x15
	CmdFunc       Command = 0x16
	CmdNG         Command = 0xfa
	CmdOK         Command = 0xfb
)

// VFO subcommands (carried as data of CmdSetVFO).
const (
	SubVFOA        byte = 0x00
	SubVFOB        byte = 0x01
	SubVFOBToA     byte = 0xa0
	SubVFOExchange byte = 0xb0
)

// Level subcommands (CmdLevel).
const (
	SubLevelAF      byte = 0x01
	SubLevelRF      byte = 0x02
	SubLevelSQL     byte = 0x03
	SubLevelIF      byte = 0x04
	SubLevelNR      byte = 0x06
	SubLevelPBTIn   byte = 0x07
	SubLevelPBTOut  byte = 0x08
	SubLevelCWPitch byte = 0x09
	SubLevelRFPower byte = 0x0a
	SubLevelMicGain byte = 0x0b
	SubLevelKeySpd  byte = 0x0c
	SubLevelAPF     byte = 0x0d
	SubLevelComp    byte = 0x0e
)

// Meter subcommands (CmdMeter).
const (
	SubMeterSquelch byte = 0x01
	SubMeterSignal  byte = 0x02
)

// Function subcommands (CmdFunc).
const (
	SubFuncPreamp  byte = 0x02
	SubFuncAGC     byte = 0x12
	SubFuncNB      byte = 0x22
	SubFuncAPF     byte = 0x32
	SubFuncNR      byte = 0x40
	SubFuncANF     byte = 0x41
	SubFuncTone    byte = 0x42
	SubFuncTSQL    byte = 0x43
	SubFuncComp    byte = 0x44
	SubFuncMonitor byte = 0x45
	SubFuncVOX     byte = 0x46
	SubFuncBreakIn byte = 0x47
)

// Passband codes carried after the mode byte.
const (
	PassbandWide   byte = 0x01
	PassbandNormal byte = 0x02
	PassbandNarrow byte = 0x03
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdSendFreq:
		return "SEND_FREQ"
	case CmdSendMode:
		return "SEND_MODE"
	case CmdReadBand:
		return "READ_BAND"
	case CmdReadFreq:
		return "READ_FREQ"
	case CmdReadMode:
		return "READ_MODE"
	case CmdSetFreq:
		return "SET_FREQ"
	case CmdSetMode:
		return "SET_MODE"
	case CmdSetVFO:
		return "SET_VFO"
	case CmdSetMem:
		return "SET_MEM"
	case CmdWriteMem:
		return "WRITE_MEM"
	case CmdMemToVFO:
		return "MEM_TO_VFO"
	case CmdClearMem:
		return "CLEAR_MEM"
	case CmdTuningStep:
		return "TUNING_STEP"
	case CmdAttenuator:
		return "ATTENUATOR"
	case CmdLevel:
		return "LEVEL"
	case CmdMeter:
		return "METER"
	case CmdFunc:
		return "FUNC"
	case CmdNG:
		return "NG"
	case CmdOK:
		return "OK"
	default:
		return fmt.Sprintf("CMD_%02X", byte(c))
	}
}

// layout describes the body shape of a command.
type layout struct {
	sub     bool  // a subcommand byte follows the command
	lengths []int // allowed payload lengths; nil accepts any
	bcd     bool  // payload is packed BCD
}

func (l layout) allows(n int) bool {
	if l.lengths == nil {
		return true
	}
	for _, v := range l.lengths {
		if v == n {
			return true
		}
	}
	return false
}

// layouts is the command schema. Commands not listed decode as raw
// payloads without a subcommand.
var layouts = map[Command]layout{
	CmdSendFreq:   {lengths: []int{FreqLen731, FreqLen}, bcd: true},
	CmdSendMode:   {lengths: []int{1, 2}},
	CmdReadFreq:   {lengths: []int{0, FreqLen731, FreqLen}, bcd: true},
	CmdReadMode:   {lengths: []int{0, 1, 2}},
	CmdSetFreq:    {lengths: []int{FreqLen731, FreqLen}, bcd: true},
	CmdSetMode:    {lengths: []int{1, 2}},
	CmdSetVFO:     {lengths: []int{0, 1}},
	CmdSetMem:     {lengths: []int{0, 2}, bcd: true},
	CmdWriteMem:   {lengths: []int{0}},
	CmdMemToVFO:   {lengths: []int{0}},
	CmdClearMem:   {lengths: []int{0}},
	CmdTuningStep: {lengths: []int{0, 1}, bcd: true},
	CmdAttenuator: {lengths: []int{0, 1}, bcd: true},
	CmdLevel:      {sub: true, lengths: []int{0, 2}, bcd: true},
	CmdMeter:      {sub: true, lengths: []int{0, 1, 2}, bcd: true},
	CmdFunc:       {sub: true, lengths: []int{0, 1}, bcd: true},
	CmdNG:         {lengths: []int{0}},
	CmdOK:         {lengths: []int{0}},
}

// HasSubcommand reports whether frames for cmd carry a subcommand byte.
func HasSubcommand(cmd Command) bool {
	return layouts[cmd].sub
}
