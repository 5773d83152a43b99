package rigsim

import (
	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/icom"
)

// handle answers one frame. Called with s.mu held.
func (s *Sim) handle(raw []byte) {
	f, err := civ.Decode(raw)
	if err != nil {
		s.debug("malformed frame", "error", err)
		return
	}
	if f.To != s.addr {
		return
	}
	s.received = append(s.received, f)
	if s.silent {
		return
	}
	if s.rejected[f.Cmd] {
		s.ng(f)
		return
	}

	switch f.Cmd {
	case civ.CmdReadFreq:
		s.reply(f, civ.EncodeFreq(s.current().freq, s.desc.CIV731)...)
	case civ.CmdReadMode:
		cur := s.current()
		s.reply(f, cur.mode, cur.passband)
	case civ.CmdSetFreq:
		s.setFreq(f)
	case civ.CmdSetMode:
		s.setMode(f)
	case civ.CmdSetVFO:
		s.setVFO(f)
	case civ.CmdSetMem:
		s.setMem(f)
	case civ.CmdWriteMem:
		s.mem[s.channel] = *s.vfos[caps.VFOA]
		s.ok(f)
	case civ.CmdMemToVFO:
		m, ok := s.mem[s.channel]
		if !ok {
			s.ng(f)
			return
		}
		*s.vfos[caps.VFOA] = m
		s.vfo = caps.VFOA
		s.ok(f)
	case civ.CmdClearMem:
		delete(s.mem, s.channel)
		s.ok(f)
	case civ.CmdTuningStep:
		s.tuningStep(f)
	case civ.CmdAttenuator:
		s.attenuator(f)
	case civ.CmdLevel:
		s.level(f)
	case civ.CmdMeter:
		s.meter(f)
	case civ.CmdFunc:
		s.function(f)
	default:
		s.ng(f)
	}
}

// current is the slot the front panel shows.
func (s *Sim) current() slot {
	if s.vfo == caps.VFOMem {
		return s.mem[s.channel]
	}
	return *s.vfos[s.vfo]
}

func (s *Sim) setFreq(f civ.Frame) {
	hz, err := civ.DecodeFreq(f.Data)
	if err != nil || s.vfo == caps.VFOMem || !s.desc.FrequencyInRange(hz, caps.VFOCurr, s.desc.Modes) {
		s.ng(f)
		return
	}
	s.vfos[s.vfo].freq = hz
	s.ok(f)
}

func (s *Sim) setMode(f civ.Frame) {
	m, err := icom.DecodeMode(f.Data[0])
	if err != nil || !s.desc.ModeAllowed(m) || s.vfo == caps.VFOMem {
		s.ng(f)
		return
	}
	pb := civ.PassbandNormal
	if len(f.Data) > 1 {
		pb = f.Data[1]
	}
	if _, ok := s.desc.Passband(m, icom.DecodeWidth(pb)); !ok {
		s.ng(f)
		return
	}
	s.vfos[s.vfo].mode, s.vfos[s.vfo].passband = f.Data[0], pb
	s.ok(f)
}

func (s *Sim) setVFO(f civ.Frame) {
	if len(f.Data) != 1 {
		s.ng(f)
		return
	}
	a, b := s.vfos[caps.VFOA], s.vfos[caps.VFOB]
	switch f.Data[0] {
	case civ.SubVFOA:
		s.vfo = caps.VFOA
	case civ.SubVFOB:
		s.vfo = caps.VFOB
	case civ.SubVFOBToA:
		*a = *b
	case civ.SubVFOExchange:
		*a, *b = *b, *a
	default:
		s.ng(f)
		return
	}
	s.ok(f)
}

func (s *Sim) setMem(f civ.Frame) {
	if len(f.Data) == 0 {
		s.vfo = caps.VFOMem
		s.ok(f)
		return
	}
	ch, err := civ.FromBCDBE(f.Data)
	if err != nil || s.desc.CheckChannel(int(ch)) != nil {
		s.ng(f)
		return
	}
	s.channel = int(ch)
	s.ok(f)
}

func (s *Sim) tuningStep(f civ.Frame) {
	if len(f.Data) == 0 {
		s.reply(f, s.ts)
		return
	}
	if _, ok := s.desc.StepForCode(f.Data[0]); !ok {
		s.ng(f)
		return
	}
	s.ts = f.Data[0]
	s.ok(f)
}

func (s *Sim) attenuator(f civ.Frame) {
	if len(f.Data) == 0 {
		s.reply(f, s.att)
		return
	}
	db, _ := civ.FromBCD(f.Data)
	if db != 0 && !containsInt(s.desc.Attenuator, int(db)) {
		s.ng(f)
		return
	}
	s.att = f.Data[0]
	s.ok(f)
}

func (s *Sim) level(f civ.Frame) {
	if len(f.Data) == 0 {
		s.reply(f, civ.ToBCDBE(s.levels[f.Sub], 2)...)
		return
	}
	v, _ := civ.FromBCDBE(f.Data)
	if v > 255 {
		s.ng(f)
		return
	}
	s.levels[f.Sub] = v
	s.ok(f)
}

func (s *Sim) meter(f civ.Frame) {
	switch f.Sub {
	case civ.SubMeterSquelch:
		var open byte
		if s.squelch {
			open = 1
		}
		s.reply(f, open)
	case civ.SubMeterSignal:
		s.reply(f, civ.ToBCDBE(s.signal, 2)...)
	default:
		s.ng(f)
	}
}

func (s *Sim) function(f civ.Frame) {
	if len(f.Data) == 0 {
		s.reply(f, s.funcs[f.Sub])
		return
	}
	s.funcs[f.Sub] = f.Data[0]
	s.ok(f)
}

func (s *Sim) reply(req civ.Frame, data ...byte) {
	s.emit(req.Reply(req.Cmd, data...))
}

func (s *Sim) ok(req civ.Frame) {
	s.emit(req.Reply(civ.CmdOK))
}

func (s *Sim) ng(req civ.Frame) {
	s.emit(req.Reply(civ.CmdNG))
}

func (s *Sim) emit(f civ.Frame) {
	s.out = append(s.out, civ.Encode(f)...)
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
