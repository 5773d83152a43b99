package icom

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/rig/driver"
)

// ErrUnexpectedReply indicates a reply whose payload does not have the
// shape the command calls for.
var ErrUnexpectedReply = errors.New("unexpected reply payload")

// Transactor runs CI-V transactions. It is implemented by *engine.Engine.
type Transactor interface {
	Set(f civ.Frame) error
	Read(f civ.Frame) (civ.Frame, error)
	Command(cmd civ.Command, data ...byte) civ.Frame
	SubCommand(cmd civ.Command, sub byte, data ...byte) civ.Frame
}

// Backend is the CI-V implementation of driver.RigProtocol.
type Backend struct {
	tx     Transactor
	desc   *caps.Descriptor
	logger *slog.Logger
}

var _ driver.RigProtocol = (*Backend)(nil)

// New creates a backend for the model described by desc. logger is
// optional.
func New(tx Transactor, desc *caps.Descriptor, logger *slog.Logger) *Backend {
	return &Backend{tx: tx, desc: desc, logger: logger}
}

func (b *Backend) freqLen() int {
	if b.desc.CIV731 {
		return civ.FreqLen731
	}
	return civ.FreqLen
}

// SetFreq tunes the current VFO.
func (b *Backend) SetFreq(hz uint64) error {
	b.debug("set freq", "hz", hz)
	return b.tx.Set(b.tx.Command(civ.CmdSetFreq, civ.EncodeFreq(hz, b.desc.CIV731)...))
}

// GetFreq reads the frequency of the current VFO.
func (b *Backend) GetFreq() (uint64, error) {
	f, err := b.tx.Read(b.tx.Command(civ.CmdReadFreq))
	if err != nil {
		return 0, err
	}
	if len(f.Data) != b.freqLen() {
		return 0, fmt.Errorf("read freq: %d bytes: %w", len(f.Data), ErrUnexpectedReply)
	}
	return civ.DecodeFreq(f.Data)
}

// SetMode sets mode and passband.
func (b *Backend) SetMode(mode caps.Mode, width caps.Width) error {
	mb, err := EncodeMode(mode)
	if err != nil {
		return err
	}
	b.debug("set mode", "mode", mode, "width", width)
	return b.tx.Set(b.tx.Command(civ.CmdSetMode, mb, EncodeWidth(width)))
}

// GetMode reads mode and passband.
func (b *Backend) GetMode() (caps.Mode, caps.Width, error) {
	f, err := b.tx.Read(b.tx.Command(civ.CmdReadMode))
	if err != nil {
		return caps.ModeNone, caps.WidthNormal, err
	}
	return decodeModeData(f.Data)
}

// SetVFO selects VFO A, VFO B or memory mode.
func (b *Backend) SetVFO(vfo caps.VFO) error {
	switch vfo {
	case caps.VFOA:
		return b.tx.Set(b.tx.Command(civ.CmdSetVFO, civ.SubVFOA))
	case caps.VFOB:
		return b.tx.Set(b.tx.Command(civ.CmdSetVFO, civ.SubVFOB))
	case caps.VFOMem:
		return b.tx.Set(b.tx.Command(civ.CmdSetMem))
	}
	return fmt.Errorf("set vfo %s: %w", vfo, driver.ErrNotImplemented)
}

// SetLevel writes a level.
func (b *Backend) SetLevel(level caps.Level, value float64) error {
	b.debug("set level", "level", level, "value", value)
	switch level {
	case caps.LevelPreamp:
		return b.tx.Set(b.tx.SubCommand(civ.CmdFunc, civ.SubFuncPreamp, onOff(value > 0)))
	case caps.LevelAtt:
		return b.tx.Set(b.tx.Command(civ.CmdAttenuator, civ.ToBCD(uint64(value), 1)...))
	case caps.LevelAGC:
		code := agcSlow
		if value == caps.AGCFast {
			code = agcFast
		}
		return b.tx.Set(b.tx.SubCommand(civ.CmdFunc, civ.SubFuncAGC, code))
	}
	sub, ok := levelSubs[level]
	if !ok {
		return fmt.Errorf("set level %s: %w", level, driver.ErrNotImplemented)
	}
	raw := levelToRaw(level, value)
	return b.tx.Set(b.tx.SubCommand(civ.CmdLevel, sub, civ.ToBCDBE(raw, 2)...))
}

// GetLevel reads a level. LevelStrength is the raw meter reading.
func (b *Backend) GetLevel(level caps.Level) (float64, error) {
	switch level {
	case caps.LevelPreamp:
		on, err := b.readSwitch(civ.SubFuncPreamp)
		if err != nil || on == 0 {
			return 0, err
		}
		if len(b.desc.Preamp) > 0 {
			return float64(b.desc.Preamp[0]), nil
		}
		return 1, nil
	case caps.LevelAtt:
		f, err := b.tx.Read(b.tx.Command(civ.CmdAttenuator))
		if err != nil {
			return 0, err
		}
		if len(f.Data) != 1 {
			return 0, fmt.Errorf("read attenuator: %w", ErrUnexpectedReply)
		}
		db, err := civ.FromBCD(f.Data)
		return float64(db), err
	case caps.LevelAGC:
		code, err := b.readSwitch(civ.SubFuncAGC)
		if err != nil {
			return 0, err
		}
		if code == agcFast {
			return caps.AGCFast, nil
		}
		return caps.AGCSlow, nil
	case caps.LevelSQLStat:
		raw, err := b.readMeter(civ.SubMeterSquelch)
		if err != nil {
			return 0, err
		}
		if raw != 0 {
			return 1, nil
		}
		return 0, nil
	case caps.LevelStrength:
		raw, err := b.readMeter(civ.SubMeterSignal)
		return float64(raw), err
	}

	sub, ok := levelSubs[level]
	if !ok {
		return 0, fmt.Errorf("get level %s: %w", level, driver.ErrNotImplemented)
	}
	f, err := b.tx.Read(b.tx.SubCommand(civ.CmdLevel, sub))
	if err != nil {
		return 0, err
	}
	if len(f.Data) != 2 {
		return 0, fmt.Errorf("read level %s: %w", level, ErrUnexpectedReply)
	}
	raw, err := civ.FromBCDBE(f.Data)
	if err != nil {
		return 0, err
	}
	return rawToLevel(level, raw), nil
}

// SetFunc switches a function on or off. FAGC selects fast or slow AGC.
func (b *Backend) SetFunc(fn caps.Func, on bool) error {
	sub, ok := funcSubs[fn]
	if !ok {
		return fmt.Errorf("set func %s: %w", fn, driver.ErrNotImplemented)
	}
	b.debug("set func", "func", fn, "on", on)
	v := onOff(on)
	if fn == caps.FuncFAGC {
		v = agcSlow
		if on {
			v = agcFast
		}
	}
	return b.tx.Set(b.tx.SubCommand(civ.CmdFunc, sub, v))
}

// GetFunc reads a function switch.
func (b *Backend) GetFunc(fn caps.Func) (bool, error) {
	sub, ok := funcSubs[fn]
	if !ok {
		return false, fmt.Errorf("get func %s: %w", fn, driver.ErrNotImplemented)
	}
	v, err := b.readSwitch(sub)
	if err != nil {
		return false, err
	}
	if fn == caps.FuncFAGC {
		return v == agcFast, nil
	}
	return v != 0, nil
}

// SetMem selects a memory channel.
func (b *Backend) SetMem(number int) error {
	return b.tx.Set(b.tx.Command(civ.CmdSetMem, civ.ToBCDBE(uint64(number), 2)...))
}

// SetChannel programs a memory channel: the channel is selected, the
// contents are tuned on VFO A and then written to memory.
func (b *Backend) SetChannel(ch driver.Channel) error {
	if err := b.SetMem(ch.Number); err != nil {
		return err
	}
	if err := b.SetVFO(caps.VFOA); err != nil {
		return err
	}
	if err := b.SetFreq(ch.Freq); err != nil {
		return err
	}
	if err := b.SetMode(ch.Mode, ch.Width); err != nil {
		return err
	}
	return b.VFOOp(caps.OpFromVFO)
}

// GetChannel switches to memory mode, selects the channel and reads it.
func (b *Backend) GetChannel(number int) (driver.Channel, error) {
	ch := driver.Channel{Number: number}
	if err := b.SetVFO(caps.VFOMem); err != nil {
		return ch, err
	}
	if err := b.SetMem(number); err != nil {
		return ch, err
	}
	var err error
	if ch.Freq, err = b.GetFreq(); err != nil {
		return ch, err
	}
	ch.Mode, ch.Width, err = b.GetMode()
	return ch, err
}

// VFOOp performs a VFO or memory operation.
func (b *Backend) VFOOp(op caps.VFOOp) error {
	b.debug("vfo op", "op", op)
	switch op {
	case caps.OpCPY:
		return b.tx.Set(b.tx.Command(civ.CmdSetVFO, civ.SubVFOBToA))
	case caps.OpXCHG:
		return b.tx.Set(b.tx.Command(civ.CmdSetVFO, civ.SubVFOExchange))
	case caps.OpFromVFO:
		return b.tx.Set(b.tx.Command(civ.CmdWriteMem))
	case caps.OpToVFO:
		return b.tx.Set(b.tx.Command(civ.CmdMemToVFO))
	case caps.OpMCL:
		return b.tx.Set(b.tx.Command(civ.CmdClearMem))
	}
	return fmt.Errorf("vfo op %s: %w", op, driver.ErrNotImplemented)
}

// SetTS sets the tuning step.
func (b *Backend) SetTS(step uint64) error {
	code, ok := b.desc.TuningStepCode(step)
	if !ok {
		return fmt.Errorf("set ts %d Hz: %w", step, errNoEncoding)
	}
	return b.tx.Set(b.tx.Command(civ.CmdTuningStep, code))
}

// GetTS reads the tuning step.
func (b *Backend) GetTS() (uint64, error) {
	f, err := b.tx.Read(b.tx.Command(civ.CmdTuningStep))
	if err != nil {
		return 0, err
	}
	if len(f.Data) != 1 {
		return 0, fmt.Errorf("read tuning step: %w", ErrUnexpectedReply)
	}
	step, ok := b.desc.StepForCode(f.Data[0])
	if !ok {
		return 0, fmt.Errorf("tuning step code %#02x: %w", f.Data[0], ErrUnexpectedReply)
	}
	return step, nil
}

// DecodeEvent interprets transceive announcements and unsolicited
// frequency and mode replies.
func (b *Backend) DecodeEvent(f civ.Frame) (driver.Event, bool) {
	switch f.Cmd {
	case civ.CmdSendFreq, civ.CmdReadFreq:
		if len(f.Data) != b.freqLen() {
			return driver.Event{}, false
		}
		hz, err := civ.DecodeFreq(f.Data)
		if err != nil {
			return driver.Event{}, false
		}
		return driver.Event{Kind: driver.EventFreq, Freq: hz}, true
	case civ.CmdSendMode, civ.CmdReadMode:
		m, w, err := decodeModeData(f.Data)
		if err != nil {
			b.debug("undecodable mode event", "frame", f, "error", err)
			return driver.Event{}, false
		}
		return driver.Event{Kind: driver.EventMode, Mode: m, Width: w}, true
	}
	return driver.Event{}, false
}

func (b *Backend) readSwitch(sub byte) (byte, error) {
	f, err := b.tx.Read(b.tx.SubCommand(civ.CmdFunc, sub))
	if err != nil {
		return 0, err
	}
	if len(f.Data) != 1 {
		return 0, fmt.Errorf("read func %#02x: %w", sub, ErrUnexpectedReply)
	}
	return f.Data[0], nil
}

func (b *Backend) readMeter(sub byte) (uint64, error) {
	f, err := b.tx.Read(b.tx.SubCommand(civ.CmdMeter, sub))
	if err != nil {
		return 0, err
	}
	if len(f.Data) == 0 {
		return 0, fmt.Errorf("read meter %#02x: %w", sub, ErrUnexpectedReply)
	}
	return civ.FromBCDBE(f.Data)
}

func (b *Backend) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func onOff(on bool) byte {
	if on {
		return 0x01
	}
	return 0x00
}
