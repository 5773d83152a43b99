package rigsim

import (
	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/icom"
)

// SetSilent makes the rig ignore every command (the echo still arrives).
func (s *Sim) SetSilent(silent bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silent = silent
}

// Reject makes the rig answer NG to cmd.
func (s *Sim) Reject(cmd civ.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected[cmd] = true
}

// Accept undoes Reject.
func (s *Sim) Accept(cmd civ.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rejected, cmd)
}

// Received returns the frames addressed to the rig so far.
func (s *Sim) Received() []civ.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]civ.Frame(nil), s.received...)
}

// ReceivedCount returns the number of frames addressed to the rig.
func (s *Sim) ReceivedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

// Inject queues raw bytes on the line, e.g. noise or collisions.
func (s *Sim) Inject(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = append(s.out, raw...)
	s.cond.Broadcast()
}

// Tune turns the dial: the current VFO moves to hz and the change is
// broadcast when transceive is on.
func (s *Sim) Tune(hz uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vfo == caps.VFOMem {
		return
	}
	s.vfos[s.vfo].freq = hz
	s.broadcast(civ.CmdSendFreq, civ.EncodeFreq(hz, s.desc.CIV731)...)
}

// SetLocalMode changes the mode from the front panel and broadcasts it
// when transceive is on.
func (s *Sim) SetLocalMode(mode caps.Mode, width caps.Width) error {
	mb, err := icom.EncodeMode(mode)
	if err != nil {
		return err
	}
	pb := icom.EncodeWidth(width)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.vfo != caps.VFOMem {
		s.vfos[s.vfo].mode, s.vfos[s.vfo].passband = mb, pb
	}
	s.broadcast(civ.CmdSendMode, mb, pb)
	return nil
}

// SetSignal sets the raw S-meter reading (0..255).
func (s *Sim) SetSignal(raw uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signal = raw
}

// SetSquelchOpen sets the squelch status meter.
func (s *Sim) SetSquelchOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.squelch = open
}

// Freq returns the frequency the front panel shows.
func (s *Sim) Freq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current().freq
}

// Mode returns the mode and width the front panel shows.
func (s *Sim) Mode() (caps.Mode, caps.Width) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.current()
	m, _ := icom.DecodeMode(cur.mode)
	return m, icom.DecodeWidth(cur.passband)
}

// VFO returns the selected VFO or caps.VFOMem.
func (s *Sim) VFO() caps.VFO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vfo
}

// Channel returns the selected memory channel.
func (s *Sim) Channel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// Memory returns the content of channel n.
func (s *Sim) Memory(n int) (freq uint64, mode caps.Mode, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mem[n]
	if !ok {
		return 0, caps.ModeNone, false
	}
	mode, _ = icom.DecodeMode(m.mode)
	return m.freq, mode, true
}

// LevelRaw returns the raw 0..255 value of a CmdLevel subcommand.
func (s *Sim) LevelRaw(sub byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[sub]
}

// FuncValue returns the byte last written to a CmdFunc subcommand.
func (s *Sim) FuncValue(sub byte) byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.funcs[sub]
}

// Attenuator returns the attenuator setting in dB.
func (s *Sim) Attenuator() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, _ := civ.FromBCD([]byte{s.att})
	return int(db)
}

// TuningStepCode returns the selected step code.
func (s *Sim) TuningStepCode() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ts
}

// broadcast announces a front panel change. Called with s.mu held.
func (s *Sim) broadcast(cmd civ.Command, data ...byte) {
	if s.cfg.NoTransceive || s.desc.Transceive != caps.TransceiveRig {
		return
	}
	s.emit(civ.NewFrame(civ.AddrBroadcast, s.addr, cmd, data...))
	s.cond.Broadcast()
}
