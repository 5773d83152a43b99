package icom

import (
	"errors"
	"math"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
)

var errNoEncoding = errors.New("no CI-V encoding")

// levelSubs maps 0..255 levels to CmdLevel subcommands.
var levelSubs = map[caps.Level]byte{
	caps.LevelAF:      civ.SubLevelAF,
	caps.LevelRF:      civ.SubLevelRF,
	caps.LevelSQL:     civ.SubLevelSQL,
	caps.LevelIF:      civ.SubLevelIF,
	caps.LevelNR:      civ.SubLevelNR,
	caps.LevelPBTIn:   civ.SubLevelPBTIn,
	caps.LevelPBTOut:  civ.SubLevelPBTOut,
	caps.LevelCWPitch: civ.SubLevelCWPitch,
	caps.LevelRFPower: civ.SubLevelRFPower,
	caps.LevelMicGain: civ.SubLevelMicGain,
	caps.LevelKeySpd:  civ.SubLevelKeySpd,
	caps.LevelAPF:     civ.SubLevelAPF,
	caps.LevelComp:    civ.SubLevelComp,
}

// funcSubs maps functions to CmdFunc subcommands.
var funcSubs = map[caps.Func]byte{
	caps.FuncFAGC: civ.SubFuncAGC,
	caps.FuncNB:   civ.SubFuncNB,
	caps.FuncAPF:  civ.SubFuncAPF,
	caps.FuncNR:   civ.SubFuncNR,
	caps.FuncANF:  civ.SubFuncANF,
	caps.FuncTone: civ.SubFuncTone,
	caps.FuncTSQL: civ.SubFuncTSQL,
	caps.FuncComp: civ.SubFuncComp,
	caps.FuncMon:  civ.SubFuncMonitor,
	caps.FuncVOX:  civ.SubFuncVOX,
}

// AGC codes carried by the AGC function subcommand.
const (
	agcFast byte = 0x01
	agcSlow byte = 0x02
)

const levelMax = 255

// levelToRaw scales a level value to the 0..255 wire range. Normalised
// levels are multiplied out, the others are sent as integers.
func levelToRaw(l caps.Level, v float64) uint64 {
	if l.IsFloat() {
		v *= levelMax
	}
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > levelMax {
		return levelMax
	}
	return uint64(v)
}

func rawToLevel(l caps.Level, raw uint64) float64 {
	if l.IsFloat() {
		return float64(raw) / levelMax
	}
	return float64(raw)
}
