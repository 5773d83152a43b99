package caps

import (
	"fmt"
	"strings"
)

// Level is a bitmask of adjustable or readable levels.
//
// Level values are carried as float64. Gain style levels (AF, RF, SQL, APF,
// ...) are normalised to 0..1. Preamp and Att are in dB, AGC is an AGC speed
// code, SQLStat is 0 or 1 and Strength is in dB relative to S9.
type Level uint64

// Levels.
const (
	LevelNone     Level = 0
	LevelPreamp   Level = 1 << 0
	LevelAtt      Level = 1 << 1
	LevelAF       Level = 1 << 2
	LevelRF       Level = 1 << 3
	LevelSQL      Level = 1 << 4
	LevelIF       Level = 1 << 5
	LevelAPF      Level = 1 << 6
	LevelNR       Level = 1 << 7
	LevelPBTIn    Level = 1 << 8
	LevelPBTOut   Level = 1 << 9
	LevelCWPitch  Level = 1 << 10
	LevelRFPower  Level = 1 << 11
	LevelMicGain  Level = 1 << 12
	LevelKeySpd   Level = 1 << 13
	LevelComp     Level = 1 << 14
	LevelAGC      Level = 1 << 15
	LevelSQLStat  Level = 1 << 16
	LevelStrength Level = 1 << 17
)

// LevelReadOnly are levels that can be read but never set.
const LevelReadOnly = LevelSQLStat | LevelStrength

// LevelFloat are levels normalised to 0..1.
const LevelFloat = LevelAF | LevelRF | LevelSQL | LevelIF | LevelAPF | LevelNR |
	LevelPBTIn | LevelPBTOut | LevelRFPower | LevelMicGain | LevelComp

// AGC speed codes used as LevelAGC values.
const (
	AGCFast = 1
	AGCSlow = 2
)

// LevelSet strips read-only levels from a mask.
func LevelSet(m Level) Level {
	return m &^ LevelReadOnly
}

// IsFloat reports whether the level is normalised to 0..1.
func (l Level) IsFloat() bool {
	return l != 0 && LevelFloat&l == l
}

var levelNames = []struct {
	level Level
	name  string
}{
	{LevelPreamp, "PREAMP"},
	{LevelAtt, "ATT"},
	{LevelAF, "AF"},
	{LevelRF, "RF"},
	{LevelSQL, "SQL"},
	{LevelIF, "IF"},
	{LevelAPF, "APF"},
	{LevelNR, "NR"},
	{LevelPBTIn, "PBT_IN"},
	{LevelPBTOut, "PBT_OUT"},
	{LevelCWPitch, "CWPITCH"},
	{LevelRFPower, "RFPOWER"},
	{LevelMicGain, "MICGAIN"},
	{LevelKeySpd, "KEYSPD"},
	{LevelComp, "COMP"},
	{LevelAGC, "AGC"},
	{LevelSQLStat, "SQLSTAT"},
	{LevelStrength, "STRENGTH"},
}

// String returns the level name, or the names of all set bits joined by "|".
func (l Level) String() string {
	return maskString(uint64(l), len(levelNames), func(i int) (uint64, string) {
		return uint64(levelNames[i].level), levelNames[i].name
	})
}

// Levels returns the individual levels set in l.
func (l Level) Levels() []Level {
	var out []Level
	for _, n := range levelNames {
		if l&n.level != 0 {
			out = append(out, n.level)
		}
	}
	return out
}

// ParseLevel parses a level name (case-insensitive).
func ParseLevel(s string) (Level, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, n := range levelNames {
		if n.name == u {
			return n.level, nil
		}
	}
	return LevelNone, fmt.Errorf("unknown level %q", s)
}

// MarshalYAML renders the mask as level names.
func (l Level) MarshalYAML() (any, error) {
	return l.String(), nil
}

// Func is a bitmask of on/off functions.
type Func uint32

// Functions.
const (
	FuncNone Func = 0
	FuncFAGC Func = 1 << 0
	FuncNB   Func = 1 << 1
	FuncComp Func = 1 << 2
	FuncVOX  Func = 1 << 3
	FuncTone Func = 1 << 4
	FuncTSQL Func = 1 << 5
	FuncANF  Func = 1 << 6
	FuncNR   Func = 1 << 7
	FuncAPF  Func = 1 << 8
	FuncMon  Func = 1 << 9
)

var funcNames = []struct {
	fn   Func
	name string
}{
	{FuncFAGC, "FAGC"},
	{FuncNB, "NB"},
	{FuncComp, "COMP"},
	{FuncVOX, "VOX"},
	{FuncTone, "TONE"},
	{FuncTSQL, "TSQL"},
	{FuncANF, "ANF"},
	{FuncNR, "NR"},
	{FuncAPF, "APF"},
	{FuncMon, "MON"},
}

// String returns the function name, or the names of all set bits joined by "|".
func (f Func) String() string {
	return maskString(uint64(f), len(funcNames), func(i int) (uint64, string) {
		return uint64(funcNames[i].fn), funcNames[i].name
	})
}

// ParseFunc parses a function name (case-insensitive).
func ParseFunc(s string) (Func, error) {
	u := strings.ToUpper(strings.TrimSpace(s))
	for _, n := range funcNames {
		if n.name == u {
			return n.fn, nil
		}
	}
	return FuncNone, fmt.Errorf("unknown function %q", s)
}

// MarshalYAML renders the mask as function names.
func (f Func) MarshalYAML() (any, error) {
	return f.String(), nil
}

func maskString(m uint64, n int, entry func(int) (uint64, string)) string {
	if m == 0 {
		return "NONE"
	}
	var parts []string
	rest := m
	for i := 0; i < n; i++ {
		bit, name := entry(i)
		if m&bit != 0 {
			parts = append(parts, name)
			rest &^= bit
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", rest))
	}
	return strings.Join(parts, "|")
}
