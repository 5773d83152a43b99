package rig

import (
	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/persistence"
)

// cache is the last known rig state. Guarded by Rig.mu.
type cache struct {
	vfo caps.VFO

	freq      uint64
	freqValid bool

	mode      caps.Mode
	width     caps.Width
	modeValid bool

	ts      uint64
	channel int
	chValid bool

	levels map[caps.Level]float64
	funcs  map[caps.Func]bool
}

func (c *cache) reset() {
	*c = cache{
		vfo:    caps.VFOCurr,
		levels: make(map[caps.Level]float64),
		funcs:  make(map[caps.Func]bool),
	}
}

func (c *cache) setFreq(hz uint64) {
	c.freq, c.freqValid = hz, true
}

func (c *cache) setMode(m caps.Mode, w caps.Width) {
	c.mode, c.width, c.modeValid = m, w, true
}

func (c *cache) setChannel(n int) {
	c.channel, c.chValid = n, true
}

// invalidate forgets what the rig shows after a VFO or memory change.
func (c *cache) invalidate() {
	c.freqValid = false
	c.modeValid = false
}

// checkMode is the mode used for range checks: the cached mode, or any
// supported mode when it is unknown.
func (c *cache) checkMode(d *caps.Descriptor) caps.Mode {
	if c.modeValid {
		return c.mode
	}
	return d.Modes
}

// CachedFreq returns the last known frequency.
func (r *Rig) CachedFreq() (uint64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.freq, r.cache.freqValid
}

// CachedMode returns the last known mode and width.
func (r *Rig) CachedMode() (caps.Mode, caps.Width, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.mode, r.cache.width, r.cache.modeValid
}

// Snapshot returns the cache as a persistable state.
func (r *Rig) Snapshot() *persistence.RigState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Rig) snapshotLocked() *persistence.RigState {
	c := &r.cache
	s := &persistence.RigState{
		SessionID:  r.sessionID,
		Model:      int(r.desc.Model),
		ModelName:  r.desc.ModelName,
		Port:       r.opts.Path,
		Rate:       r.opts.Rate,
		Address:    r.addr,
		TuningStep: c.ts,
	}
	if r.conn != nil {
		s.Rate = r.conn.Config().Rate
	}
	if c.vfo != caps.VFOCurr {
		s.VFO = c.vfo.String()
	}
	if c.freqValid {
		s.Freq = c.freq
	}
	if c.modeValid {
		s.Mode = c.mode.String()
		s.Width = c.width.String()
	}
	if c.chValid {
		ch := c.channel
		s.Channel = &ch
	}
	if len(c.levels) > 0 {
		s.Levels = make(map[string]float64, len(c.levels))
		for l, v := range c.levels {
			s.Levels[l.String()] = v
		}
	}
	if len(c.funcs) > 0 {
		s.Funcs = make(map[string]bool, len(c.funcs))
		for f, on := range c.funcs {
			s.Funcs[f.String()] = on
		}
	}
	return s
}
