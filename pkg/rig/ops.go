package rig

import (
	"fmt"

	"github.com/civ-protocol/civ-go/pkg/caps"
)

// SetFreq tunes vfo to hz. caps.VFOCurr tunes the selected VFO; naming a
// different VFO selects it first. Nothing is sent when the cache shows the
// frequency is already set.
func (r *Rig) SetFreq(vfo caps.VFO, hz uint64) error {
	p, err := r.backend()
	if err != nil {
		return err
	}

	r.mu.Lock()
	cur := r.cache.vfo
	mode := r.cache.checkMode(r.desc)
	target := vfo
	if vfo == caps.VFOCurr || vfo == caps.VFONone {
		target = cur
	}
	unchanged := target == cur && r.cache.freqValid && r.cache.freq == hz
	r.mu.Unlock()

	if err := r.desc.CheckFreq(hz, target, mode); err != nil {
		return err
	}
	if unchanged {
		r.debug("set freq skipped, unchanged", "hz", hz)
		return nil
	}

	if target != cur {
		if err := r.selectVFO(target); err != nil {
			return err
		}
	}
	if err := p.SetFreq(hz); err != nil {
		return err
	}

	r.mu.Lock()
	r.cache.setFreq(hz)
	r.mu.Unlock()
	r.logCache("set", "FREQ", fmt.Sprintf("%d", hz))
	return nil
}

// GetFreq reads the frequency of the selected VFO.
func (r *Rig) GetFreq() (uint64, error) {
	p, err := r.backend()
	if err != nil {
		return 0, err
	}
	hz, err := p.GetFreq()
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	r.cache.setFreq(hz)
	r.mu.Unlock()
	return hz, nil
}

// SetMode sets mode and passband width. Nothing is sent when the cache
// shows they are already set.
func (r *Rig) SetMode(mode caps.Mode, width caps.Width) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	if err := r.desc.CheckMode(mode, width); err != nil {
		return err
	}

	r.mu.Lock()
	unchanged := r.cache.modeValid && r.cache.mode == mode && r.cache.width == width
	r.mu.Unlock()
	if unchanged {
		r.debug("set mode skipped, unchanged", "mode", mode, "width", width)
		return nil
	}

	if err := p.SetMode(mode, width); err != nil {
		return err
	}
	r.mu.Lock()
	r.cache.setMode(mode, width)
	r.mu.Unlock()
	r.logCache("set", "MODE", mode.String()+"/"+width.String())
	return nil
}

// GetMode reads mode and passband width.
func (r *Rig) GetMode() (caps.Mode, caps.Width, error) {
	p, err := r.backend()
	if err != nil {
		return caps.ModeNone, caps.WidthNormal, err
	}
	m, w, err := p.GetMode()
	if err != nil {
		return caps.ModeNone, caps.WidthNormal, err
	}
	r.mu.Lock()
	r.cache.setMode(m, w)
	r.mu.Unlock()
	return m, w, nil
}

// Passband returns the filter width in Hz of the cached mode and width.
func (r *Rig) Passband() (uint64, bool) {
	m, w, ok := r.CachedMode()
	if !ok {
		return 0, false
	}
	return r.desc.Passband(m, w)
}

// SetVFO selects VFO A, VFO B or memory mode.
func (r *Rig) SetVFO(vfo caps.VFO) error {
	if _, err := r.backend(); err != nil {
		return err
	}
	if err := r.desc.CheckVFO(vfo); err != nil {
		return err
	}
	return r.selectVFO(vfo)
}

func (r *Rig) selectVFO(vfo caps.VFO) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	if err := p.SetVFO(vfo); err != nil {
		return err
	}
	r.mu.Lock()
	if r.cache.vfo != vfo {
		r.cache.invalidate()
	}
	r.cache.vfo = vfo
	r.mu.Unlock()
	r.logCache("set", "VFO", vfo.String())
	return nil
}

// GetVFO returns the VFO last selected through this handle, or
// caps.VFOCurr when none was.
func (r *Rig) GetVFO() (caps.VFO, error) {
	if _, err := r.backend(); err != nil {
		return caps.VFONone, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.vfo, nil
}

// SetLevel writes a level. See caps.Level for units.
func (r *Rig) SetLevel(level caps.Level, value float64) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	if err := r.desc.CheckSetLevel(level, value); err != nil {
		return err
	}
	if err := p.SetLevel(level, value); err != nil {
		return err
	}
	r.mu.Lock()
	r.cache.levels[level] = value
	r.mu.Unlock()
	return nil
}

// GetLevel reads a level. LevelStrength is calibrated through the
// descriptor's S-meter table.
func (r *Rig) GetLevel(level caps.Level) (float64, error) {
	p, err := r.backend()
	if err != nil {
		return 0, err
	}
	if err := r.desc.CheckGetLevel(level); err != nil {
		return 0, err
	}
	v, err := p.GetLevel(level)
	if err != nil {
		return 0, err
	}
	if level == caps.LevelStrength {
		return float64(r.desc.StrCal.Calibrate(int(v))), nil
	}
	return v, nil
}

// SetFunc switches a function on or off.
func (r *Rig) SetFunc(fn caps.Func, on bool) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	if err := r.desc.CheckSetFunc(fn); err != nil {
		return err
	}
	if err := p.SetFunc(fn, on); err != nil {
		return err
	}
	r.mu.Lock()
	r.cache.funcs[fn] = on
	r.mu.Unlock()
	return nil
}

// GetFunc reads a function switch.
func (r *Rig) GetFunc(fn caps.Func) (bool, error) {
	p, err := r.backend()
	if err != nil {
		return false, err
	}
	if err := r.desc.CheckGetFunc(fn); err != nil {
		return false, err
	}
	return p.GetFunc(fn)
}

// SetMem selects a memory channel.
func (r *Rig) SetMem(number int) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	if err := r.desc.CheckChannel(number); err != nil {
		return err
	}
	if err := p.SetMem(number); err != nil {
		return err
	}
	r.mu.Lock()
	r.cache.setChannel(number)
	if r.cache.vfo == caps.VFOMem {
		r.cache.invalidate()
	}
	r.mu.Unlock()
	return nil
}

// SetChannel programs a memory channel through VFO A. VFO A is left
// showing the channel contents.
func (r *Rig) SetChannel(ch Channel) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	if err := r.desc.CheckChannel(ch.Number); err != nil {
		return err
	}
	if err := r.desc.CheckMode(ch.Mode, ch.Width); err != nil {
		return err
	}
	if err := r.desc.CheckFreq(ch.Freq, caps.VFOA, ch.Mode); err != nil {
		return err
	}

	err = p.SetChannel(ch)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.invalidate()
	r.cache.vfo = caps.VFOA
	if err != nil {
		return err
	}
	r.cache.setChannel(ch.Number)
	r.cache.setFreq(ch.Freq)
	r.cache.setMode(ch.Mode, ch.Width)
	return nil
}

// GetChannel switches to memory mode, selects the channel and reads its
// contents.
func (r *Rig) GetChannel(number int) (Channel, error) {
	p, err := r.backend()
	if err != nil {
		return Channel{}, err
	}
	if err := r.desc.CheckChannel(number); err != nil {
		return Channel{}, err
	}

	ch, err := p.GetChannel(number)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.invalidate()
	r.cache.vfo = caps.VFOMem
	if err != nil {
		return ch, err
	}
	r.cache.setChannel(number)
	r.cache.setFreq(ch.Freq)
	r.cache.setMode(ch.Mode, ch.Width)
	return ch, nil
}

// VFOOp performs a VFO or memory operation.
func (r *Rig) VFOOp(op caps.VFOOp) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	if err := r.desc.CheckVFOOp(op); err != nil {
		return err
	}
	if err := p.VFOOp(op); err != nil {
		return err
	}
	switch op {
	case caps.OpCPY, caps.OpXCHG, caps.OpToVFO:
		r.mu.Lock()
		r.cache.invalidate()
		if op == caps.OpToVFO {
			r.cache.vfo = caps.VFOA
		}
		r.mu.Unlock()
	}
	return nil
}

// SetTS sets the tuning step in Hz.
func (r *Rig) SetTS(step uint64) error {
	p, err := r.backend()
	if err != nil {
		return err
	}
	r.mu.Lock()
	mode := caps.ModeNone
	if r.cache.modeValid {
		mode = r.cache.mode
	}
	r.mu.Unlock()

	if err := r.desc.CheckTS(mode, step); err != nil {
		return err
	}
	if err := p.SetTS(step); err != nil {
		return err
	}
	r.mu.Lock()
	r.cache.ts = step
	r.mu.Unlock()
	return nil
}

// GetTS reads the tuning step in Hz.
func (r *Rig) GetTS() (uint64, error) {
	p, err := r.backend()
	if err != nil {
		return 0, err
	}
	step, err := p.GetTS()
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	r.cache.ts = step
	r.mu.Unlock()
	return step, nil
}
