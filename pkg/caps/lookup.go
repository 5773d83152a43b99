package caps

import (
	"errors"
	"fmt"
)

// ErrCapabilityViolation is matched by every *ViolationError.
var ErrCapabilityViolation = errors.New("capability violation")

// ViolationError reports a request the rig model cannot honour.
type ViolationError struct {
	Op     string
	Reason string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrCapabilityViolation, e.Op, e.Reason)
}

func (e *ViolationError) Unwrap() error {
	return ErrCapabilityViolation
}

func violation(op, format string, args ...any) error {
	return &ViolationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// MaxChannel is the highest channel number encodable when the model has no
// channel list.
const MaxChannel = 9999

// ModeAllowed reports whether mode is a single mode the model supports.
func (d *Descriptor) ModeAllowed(mode Mode) bool {
	return mode.IsSingle() && d.Modes&mode != 0
}

// RangeFor returns the first receive range containing freq for vfo and mode.
// VFONone, VFOCurr and VFOMem match ranges of any VFO.
func (d *Descriptor) RangeFor(freq uint64, vfo VFO, mode Mode) (FreqRange, bool) {
	for _, r := range d.RxRanges {
		if r == RangeEnd {
			break
		}
		if freq < r.Start || freq > r.End || r.Modes&mode == 0 {
			continue
		}
		if anyVFO(vfo) || r.VFO == VFONone || r.VFO&vfo != 0 {
			return r, true
		}
	}
	return FreqRange{}, false
}

// FrequencyInRange reports whether freq is receivable on vfo in mode.
func (d *Descriptor) FrequencyInRange(freq uint64, vfo VFO, mode Mode) bool {
	_, ok := d.RangeFor(freq, vfo, mode)
	return ok
}

func anyVFO(v VFO) bool {
	return v == VFONone || v == VFOCurr || v == VFOMem
}

// NearestTuningStep returns the first tuning step listed for mode.
func (d *Descriptor) NearestTuningStep(mode Mode) (uint64, bool) {
	for _, ts := range d.TuningSteps {
		if ts == TSEnd {
			break
		}
		if ts.Modes&mode != 0 {
			return ts.Step, true
		}
	}
	return 0, false
}

// HasTuningStep reports whether step is listed for mode.
func (d *Descriptor) HasTuningStep(mode Mode, step uint64) bool {
	for _, ts := range d.TuningSteps {
		if ts == TSEnd {
			break
		}
		if ts.Modes&mode != 0 && ts.Step == step {
			return true
		}
	}
	return false
}

// FilterForMode returns the normal passband of mode: the first filter entry
// that lists it.
func (d *Descriptor) FilterForMode(mode Mode) (uint64, bool) {
	ws := d.filterWidths(mode)
	if len(ws) == 0 {
		return 0, false
	}
	return ws[0], true
}

// PassbandNarrow returns the first entry after the normal one that is
// narrower than it.
func (d *Descriptor) PassbandNarrow(mode Mode) (uint64, bool) {
	ws := d.filterWidths(mode)
	for i := 1; i < len(ws); i++ {
		if ws[i] < ws[0] {
			return ws[i], true
		}
	}
	return 0, false
}

// PassbandWide returns the first entry after the normal one that is wider
// than it.
func (d *Descriptor) PassbandWide(mode Mode) (uint64, bool) {
	ws := d.filterWidths(mode)
	for i := 1; i < len(ws); i++ {
		if ws[i] > ws[0] {
			return ws[i], true
		}
	}
	return 0, false
}

// Passband returns the bandwidth for a width selection.
func (d *Descriptor) Passband(mode Mode, w Width) (uint64, bool) {
	switch w {
	case WidthNarrow:
		return d.PassbandNarrow(mode)
	case WidthWide:
		return d.PassbandWide(mode)
	default:
		return d.FilterForMode(mode)
	}
}

// WidthOf classifies a bandwidth in Hz for mode. Zero selects normal.
func (d *Descriptor) WidthOf(mode Mode, hz uint64) (Width, bool) {
	if hz == 0 {
		return WidthNormal, true
	}
	for _, w := range []Width{WidthNormal, WidthNarrow, WidthWide} {
		if pb, ok := d.Passband(mode, w); ok && pb == hz {
			return w, true
		}
	}
	return WidthNormal, false
}

func (d *Descriptor) filterWidths(mode Mode) []uint64 {
	var ws []uint64
	for _, f := range d.Filters {
		if f == FilterEnd {
			break
		}
		if f.Modes&mode != 0 {
			ws = append(ws, f.Width)
		}
	}
	return ws
}

// TuningStepCode returns the rig's code for a tuning step.
func (d *Descriptor) TuningStepCode(step uint64) (byte, bool) {
	if step == 0 {
		return 0, false
	}
	for _, e := range d.TSSCList {
		if e == (TSSC{}) {
			break
		}
		if e.Step == step {
			return e.Code, true
		}
	}
	return 0, false
}

// StepForCode returns the tuning step for a rig step code. The programmable
// step has no fixed size and is not found.
func (d *Descriptor) StepForCode(code byte) (uint64, bool) {
	for _, e := range d.TSSCList {
		if e == (TSSC{}) {
			break
		}
		if e.Code == code && e.Step != 0 {
			return e.Step, true
		}
	}
	return 0, false
}

// LevelGettable reports whether a single level can be read.
func (d *Descriptor) LevelGettable(l Level) bool {
	return isSingle(uint64(l)) && d.HasGetLevel&l != 0
}

// LevelSettable reports whether a single level can be set.
func (d *Descriptor) LevelSettable(l Level) bool {
	return isSingle(uint64(l)) && d.HasSetLevel&l != 0
}

// FuncGettable reports whether a single function can be read.
func (d *Descriptor) FuncGettable(f Func) bool {
	return isSingle(uint64(f)) && d.HasGetFunc&f != 0
}

// FuncSettable reports whether a single function can be set.
func (d *Descriptor) FuncSettable(f Func) bool {
	return isSingle(uint64(f)) && d.HasSetFunc&f != 0
}

// VFOOpAllowed reports whether a single VFO operation is supported.
func (d *Descriptor) VFOOpAllowed(op VFOOp) bool {
	return isSingle(uint64(op)) && d.VFOOps&op != 0
}

func isSingle(v uint64) bool {
	return v != 0 && v&(v-1) == 0
}

// CheckFreq validates a frequency for the given VFO and mode.
func (d *Descriptor) CheckFreq(freq uint64, vfo VFO, mode Mode) error {
	if !d.FrequencyInRange(freq, vfo, mode) {
		return violation("set_freq", "%d Hz not receivable on %s in %s", freq, vfo, mode)
	}
	return nil
}

// CheckMode validates a mode and passband.
func (d *Descriptor) CheckMode(mode Mode, width Width) error {
	if !d.ModeAllowed(mode) {
		return violation("set_mode", "mode %s not supported", mode)
	}
	if _, ok := d.Passband(mode, width); !ok {
		return violation("set_mode", "no %s passband for %s", width, mode)
	}
	return nil
}

// CheckSetLevel validates a level and value before it is written.
func (d *Descriptor) CheckSetLevel(l Level, v float64) error {
	if !d.LevelSettable(l) {
		return violation("set_level", "level %s not settable", l)
	}
	switch {
	case l.IsFloat():
		if v < 0 || v > 1 {
			return violation("set_level", "%s value %g outside 0..1", l, v)
		}
	case l == LevelPreamp:
		if !inDBList(d.Preamp, v) {
			return violation("set_level", "preamp %g dB not in %v", v, d.Preamp)
		}
	case l == LevelAtt:
		if !inDBList(d.Attenuator, v) {
			return violation("set_level", "attenuator %g dB not in %v", v, d.Attenuator)
		}
	case l == LevelAGC:
		if v != AGCFast && v != AGCSlow {
			return violation("set_level", "AGC value %g not fast or slow", v)
		}
	}
	return nil
}

// CheckGetLevel validates a level before it is read.
func (d *Descriptor) CheckGetLevel(l Level) error {
	if !d.LevelGettable(l) {
		return violation("get_level", "level %s not readable", l)
	}
	return nil
}

// CheckSetFunc validates a function before it is written.
func (d *Descriptor) CheckSetFunc(f Func) error {
	if !d.FuncSettable(f) {
		return violation("set_func", "function %s not settable", f)
	}
	return nil
}

// CheckGetFunc validates a function before it is read.
func (d *Descriptor) CheckGetFunc(f Func) error {
	if !d.FuncGettable(f) {
		return violation("get_func", "function %s not readable", f)
	}
	return nil
}

// CheckVFOOp validates a VFO operation.
func (d *Descriptor) CheckVFOOp(op VFOOp) error {
	if !d.VFOOpAllowed(op) {
		return violation("vfo_op", "operation %s not supported", op)
	}
	return nil
}

// CheckVFO validates a VFO selection.
func (d *Descriptor) CheckVFO(v VFO) error {
	switch v {
	case VFOA, VFOB, VFOMem:
		return nil
	}
	return violation("set_vfo", "cannot select %s", v)
}

// CheckTS validates a tuning step for mode.
func (d *Descriptor) CheckTS(mode Mode, step uint64) error {
	if mode != ModeNone && !d.HasTuningStep(mode, step) {
		return violation("set_ts", "step %d Hz not available in %s", step, mode)
	}
	if _, ok := d.TuningStepCode(step); !ok {
		return violation("set_ts", "step %d Hz has no rig code", step)
	}
	return nil
}

// CheckChannel validates a memory channel number.
func (d *Descriptor) CheckChannel(ch int) error {
	if len(d.ChanList) == 0 {
		if ch < 0 || ch > MaxChannel {
			return violation("set_mem", "channel %d outside 0..%d", ch, MaxChannel)
		}
		return nil
	}
	for _, r := range d.ChanList {
		if ch >= r.Start && ch <= r.End {
			return nil
		}
	}
	return violation("set_mem", "channel %d not in channel list", ch)
}

func inDBList(list []int, v float64) bool {
	if v == 0 {
		return true
	}
	for _, db := range list {
		if float64(db) == v {
			return true
		}
	}
	return false
}

// Calibrate converts a raw meter reading using the table. Readings outside
// the table clamp to the end points. An empty table returns raw unchanged.
func (t CalTable) Calibrate(raw int) int {
	if len(t) == 0 {
		return raw
	}
	if raw <= t[0].Raw {
		return t[0].Value
	}
	last := t[len(t)-1]
	if raw >= last.Raw {
		return last.Value
	}
	i := 1
	for i < len(t) && t[i].Raw < raw {
		i++
	}
	lo, hi := t[i-1], t[i]
	if hi.Raw == lo.Raw {
		return lo.Value
	}
	return lo.Value + (raw-lo.Raw)*(hi.Value-lo.Value)/(hi.Raw-lo.Raw)
}
