package rig

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civ-protocol/civ-go/internal/rigsim"
	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/engine"
	"github.com/civ-protocol/civ-go/pkg/log"
	"github.com/civ-protocol/civ-go/pkg/persistence"
)

func icr8500(t *testing.T) *caps.Descriptor {
	t.Helper()
	d, ok := caps.Default().Lookup(caps.ModelICR8500)
	require.True(t, ok)
	return d
}

func openSim(t *testing.T, desc *caps.Descriptor, opts Options) (*Rig, *rigsim.Sim) {
	t.Helper()
	sim := rigsim.New(rigsim.Config{Descriptor: desc})
	opts.Path = "/dev/sim0"
	opts.Opener = sim.Opener()
	if opts.Timeout == 0 {
		opts.Timeout = 50 * time.Millisecond
	}

	r, err := Init(desc, opts)
	require.NoError(t, err)
	require.NoError(t, r.Open(context.Background()))
	t.Cleanup(func() { _ = r.Cleanup() })
	return r, sim
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureLogger) find(pred func(log.Event) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.events {
		if pred(e) {
			return true
		}
	}
	return false
}

func TestInit(t *testing.T) {
	t.Run("NilDescriptor", func(t *testing.T) {
		_, err := Init(nil, Options{})
		assert.Error(t, err)
	})

	t.Run("UnsupportedProtocol", func(t *testing.T) {
		d := *icr8500(t)
		d.Protocol = "yaesu-cat"
		_, err := Init(&d, Options{})
		assert.ErrorIs(t, err, ErrNotImplemented)
	})

	t.Run("DefaultsFromDescriptor", func(t *testing.T) {
		r, err := Init(icr8500(t), Options{})
		require.NoError(t, err)
		assert.Equal(t, byte(0x4a), r.Address())
		assert.NotEmpty(t, r.SessionID())
		assert.False(t, r.IsOpen())
	})

	t.Run("AddressOverride", func(t *testing.T) {
		r, err := Init(icr8500(t), Options{Address: 0x4b})
		require.NoError(t, err)
		assert.Equal(t, byte(0x4b), r.Address())
	})
}

func TestLifecycle(t *testing.T) {
	desc := icr8500(t)
	sim := rigsim.New(rigsim.Config{})
	r, err := Init(desc, Options{Path: "/dev/sim0", Opener: sim.Opener()})
	require.NoError(t, err)

	_, err = r.GetFreq()
	assert.ErrorIs(t, err, ErrNotOpen, "before Open")
	assert.ErrorIs(t, r.Close(), ErrNotOpen)

	require.NoError(t, r.Open(context.Background()))
	assert.True(t, r.IsOpen())
	assert.ErrorIs(t, r.Open(context.Background()), ErrAlreadyOpen)

	mode := sim.LineMode()
	require.NotNil(t, mode)
	assert.Equal(t, 19200, mode.BaudRate)
	assert.Equal(t, 8, mode.DataBits)

	require.NoError(t, r.Close())
	assert.False(t, r.IsOpen())
	_, err = r.GetFreq()
	assert.ErrorIs(t, err, ErrNotOpen, "after Close")

	require.NoError(t, r.Cleanup())
	assert.ErrorIs(t, r.Open(context.Background()), ErrCleanedUp)
	_, err = r.GetFreq()
	assert.ErrorIs(t, err, ErrCleanedUp)
}

func TestOpenRejectsUnsupportedRate(t *testing.T) {
	sim := rigsim.New(rigsim.Config{})
	r, err := Init(icr8500(t), Options{Path: "/dev/sim0", Rate: 38400, Opener: sim.Opener()})
	require.NoError(t, err)

	err = r.Open(context.Background())
	assert.Error(t, err)
	assert.False(t, r.IsOpen())
	assert.Nil(t, sim.LineMode(), "port never opened")
}

func TestSetFreq(t *testing.T) {
	t.Run("500kHzAM", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		require.NoError(t, r.SetMode(caps.ModeAM, caps.WidthNormal))
		require.NoError(t, r.SetFreq(caps.VFOCurr, 500_000))

		assert.Equal(t, uint64(500_000), sim.Freq())
		hz, ok := r.CachedFreq()
		assert.True(t, ok)
		assert.Equal(t, uint64(500_000), hz)
	})

	t.Run("825MHzRejectedBeforeWrite", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		err := r.SetFreq(caps.VFOCurr, 825_000_000)
		assert.ErrorIs(t, err, caps.ErrCapabilityViolation)

		assert.Zero(t, sim.ReceivedCount())
		stats, err := r.Stats()
		require.NoError(t, err)
		assert.Zero(t, stats.Transport.BytesOut)
	})

	t.Run("VFOBHasNoRanges", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		err := r.SetFreq(caps.VFOB, 7_100_000)
		assert.ErrorIs(t, err, caps.ErrCapabilityViolation)
		assert.Zero(t, sim.ReceivedCount())
	})

	t.Run("UnchangedIsSkipped", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		require.NoError(t, r.SetFreq(caps.VFOCurr, 145_500_000))
		n := sim.ReceivedCount()
		require.NoError(t, r.SetFreq(caps.VFOCurr, 145_500_000))
		assert.Equal(t, n, sim.ReceivedCount())

		require.NoError(t, r.SetFreq(caps.VFOCurr, 145_525_000))
		assert.Equal(t, n+1, sim.ReceivedCount())
	})

	t.Run("ExplicitVFOSelectsIt", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		require.NoError(t, r.SetFreq(caps.VFOA, 430_000_000))
		assert.Equal(t, caps.VFOA, sim.VFO())
		vfo, err := r.GetVFO()
		require.NoError(t, err)
		assert.Equal(t, caps.VFOA, vfo)
	})
}

func TestGetFreq(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{})
	sim.Tune(118_100_000)

	hz, err := r.GetFreq()
	require.NoError(t, err)
	assert.Equal(t, uint64(118_100_000), hz)
}

func TestMode(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{})

	require.NoError(t, r.SetMode(caps.ModeFM, caps.WidthNarrow))
	m, w := sim.Mode()
	assert.Equal(t, caps.ModeFM, m)
	assert.Equal(t, caps.WidthNarrow, w)

	pb, ok := r.Passband()
	assert.True(t, ok)
	assert.Equal(t, uint64(8_000), pb)

	gm, gw, err := r.GetMode()
	require.NoError(t, err)
	assert.Equal(t, caps.ModeFM, gm)
	assert.Equal(t, caps.WidthNarrow, gw)

	n := sim.ReceivedCount()
	require.NoError(t, r.SetMode(caps.ModeFM, caps.WidthNarrow))
	assert.Equal(t, n, sim.ReceivedCount(), "unchanged mode is skipped")

	assert.ErrorIs(t, r.SetMode(caps.ModeWFM, caps.WidthNormal), caps.ErrCapabilityViolation)
	assert.ErrorIs(t, r.SetMode(caps.ModeCW, caps.WidthWide), caps.ErrCapabilityViolation)
	assert.Equal(t, n, sim.ReceivedCount())
}

func TestLevels(t *testing.T) {
	t.Run("Squelch", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		require.NoError(t, r.SetLevel(caps.LevelSQL, 0.5))
		assert.Equal(t, uint64(128), sim.LevelRaw(civ.SubLevelSQL))

		v, err := r.GetLevel(caps.LevelSQL)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, v, 0.01)
	})

	t.Run("RejectedByRig", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})
		sim.Reject(civ.CmdLevel)

		err := r.SetLevel(caps.LevelSQL, 0.3)
		assert.ErrorIs(t, err, engine.ErrRejected)
	})

	t.Run("OutOfRange", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		assert.ErrorIs(t, r.SetLevel(caps.LevelSQL, 1.5), caps.ErrCapabilityViolation)
		assert.ErrorIs(t, r.SetLevel(caps.LevelAF, 0.5), caps.ErrCapabilityViolation)
		assert.ErrorIs(t, r.SetLevel(caps.LevelStrength, 0), caps.ErrCapabilityViolation)
		assert.ErrorIs(t, r.SetLevel(caps.LevelAtt, 10), caps.ErrCapabilityViolation)
		assert.Zero(t, sim.ReceivedCount())
	})

	t.Run("Attenuator", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		require.NoError(t, r.SetLevel(caps.LevelAtt, 20))
		assert.Equal(t, 20, sim.Attenuator())

		v, err := r.GetLevel(caps.LevelAtt)
		require.NoError(t, err)
		assert.Equal(t, 20.0, v)
	})

	t.Run("Preamp", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		require.NoError(t, r.SetLevel(caps.LevelPreamp, 10))
		assert.Equal(t, byte(0x01), sim.FuncValue(civ.SubFuncPreamp))

		v, err := r.GetLevel(caps.LevelPreamp)
		require.NoError(t, err)
		assert.Equal(t, 10.0, v)

		require.NoError(t, r.SetLevel(caps.LevelPreamp, 0))
		v, err = r.GetLevel(caps.LevelPreamp)
		require.NoError(t, err)
		assert.Zero(t, v)
	})

	t.Run("AGC", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		require.NoError(t, r.SetLevel(caps.LevelAGC, caps.AGCFast))
		assert.Equal(t, byte(0x01), sim.FuncValue(civ.SubFuncAGC))

		v, err := r.GetLevel(caps.LevelAGC)
		require.NoError(t, err)
		assert.Equal(t, float64(caps.AGCFast), v)
	})

	t.Run("SquelchStatus", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})

		v, err := r.GetLevel(caps.LevelSQLStat)
		require.NoError(t, err)
		assert.Zero(t, v)

		sim.SetSquelchOpen(true)
		v, err = r.GetLevel(caps.LevelSQLStat)
		require.NoError(t, err)
		assert.Equal(t, 1.0, v)
	})

	t.Run("StrengthUncalibrated", func(t *testing.T) {
		r, sim := openSim(t, icr8500(t), Options{})
		sim.SetSignal(120)

		v, err := r.GetLevel(caps.LevelStrength)
		require.NoError(t, err)
		assert.Equal(t, 120.0, v)
	})

	t.Run("StrengthCalibrated", func(t *testing.T) {
		d := *icr8500(t)
		d.StrCal = caps.CalTable{{Raw: 0, Value: -54}, {Raw: 120, Value: 0}, {Raw: 240, Value: 60}}
		r, sim := openSim(t, &d, Options{})

		sim.SetSignal(60)
		v, err := r.GetLevel(caps.LevelStrength)
		require.NoError(t, err)
		assert.Equal(t, -27.0, v)

		sim.SetSignal(180)
		v, err = r.GetLevel(caps.LevelStrength)
		require.NoError(t, err)
		assert.Equal(t, 30.0, v)
	})
}

func TestFuncs(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{})

	require.NoError(t, r.SetFunc(caps.FuncNB, true))
	assert.Equal(t, byte(0x01), sim.FuncValue(civ.SubFuncNB))

	require.NoError(t, r.SetFunc(caps.FuncFAGC, false))
	assert.Equal(t, byte(0x02), sim.FuncValue(civ.SubFuncAGC))

	n := sim.ReceivedCount()
	assert.ErrorIs(t, r.SetFunc(caps.FuncVOX, true), caps.ErrCapabilityViolation)
	_, err := r.GetFunc(caps.FuncNB)
	assert.ErrorIs(t, err, caps.ErrCapabilityViolation, "the ICR-8500 reads no functions")
	assert.Equal(t, n, sim.ReceivedCount())
}

func TestGetFuncOnReadableModel(t *testing.T) {
	d := icr8500(t)
	d.HasGetFunc = caps.FuncNB | caps.FuncFAGC
	r, sim := openSim(t, d, Options{})

	on, err := r.GetFunc(caps.FuncNB)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, r.SetFunc(caps.FuncNB, true))
	on, err = r.GetFunc(caps.FuncNB)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = r.GetFunc(caps.FuncFAGC)
	require.NoError(t, err)
	assert.False(t, on, "slow AGC")

	require.NoError(t, r.SetFunc(caps.FuncFAGC, true))
	assert.Equal(t, byte(0x01), sim.FuncValue(civ.SubFuncAGC))
	on, err = r.GetFunc(caps.FuncFAGC)
	require.NoError(t, err)
	assert.True(t, on)

	n := sim.ReceivedCount()
	_, err = r.GetFunc(caps.FuncTSQL)
	assert.ErrorIs(t, err, caps.ErrCapabilityViolation)
	assert.Equal(t, n, sim.ReceivedCount())
}

func TestLateReplyAfterTimeout(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{Timeout: 20 * time.Millisecond, Retry: 1})

	sim.SetSilent(true)
	assert.ErrorIs(t, r.SetVFO(caps.VFOB), engine.ErrTimeout)
	sim.SetSilent(false)

	sim.Inject(civ.Encode(civ.NewFrame(civ.AddrController, sim.Address(), civ.CmdNG)))
	require.NoError(t, r.SetVFO(caps.VFOA), "late NG belongs to the timed out request")
	assert.Equal(t, caps.VFOA, sim.VFO())
}

func TestVFO(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{})

	require.NoError(t, r.SetVFO(caps.VFOB))
	assert.Equal(t, caps.VFOB, sim.VFO())
	vfo, err := r.GetVFO()
	require.NoError(t, err)
	assert.Equal(t, caps.VFOB, vfo)

	assert.ErrorIs(t, r.SetVFO(caps.VFOCurr), caps.ErrCapabilityViolation)
}

func TestVFOOp(t *testing.T) {
	r, _ := openSim(t, icr8500(t), Options{})

	require.NoError(t, r.SetVFO(caps.VFOA))
	hz, err := r.GetFreq()
	require.NoError(t, err)
	assert.Equal(t, uint64(145_000_000), hz)

	require.NoError(t, r.VFOOp(caps.OpXCHG))
	_, ok := r.CachedFreq()
	assert.False(t, ok, "exchange invalidates the cache")

	hz, err = r.GetFreq()
	require.NoError(t, err)
	assert.Equal(t, uint64(7_100_000), hz)

	assert.ErrorIs(t, r.VFOOp(caps.OpUp), caps.ErrCapabilityViolation)
}

func TestChannels(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{})

	ch := Channel{Number: 5, Freq: 446_006_250, Mode: caps.ModeFM, Width: caps.WidthNarrow}
	require.NoError(t, r.SetChannel(ch))

	freq, mode, ok := sim.Memory(5)
	require.True(t, ok)
	assert.Equal(t, uint64(446_006_250), freq)
	assert.Equal(t, caps.ModeFM, mode)

	got, err := r.GetChannel(5)
	require.NoError(t, err)
	assert.Equal(t, ch, got)
	assert.Equal(t, caps.VFOMem, sim.VFO())
	assert.Equal(t, 5, sim.Channel())

	require.NoError(t, r.SetMem(7))
	assert.Equal(t, 7, sim.Channel())

	n := sim.ReceivedCount()
	assert.ErrorIs(t, r.SetMem(10_000), caps.ErrCapabilityViolation)
	assert.ErrorIs(t, r.SetChannel(Channel{Number: 1, Freq: 825_000_000, Mode: caps.ModeFM}), caps.ErrCapabilityViolation)
	assert.Equal(t, n, sim.ReceivedCount())
}

func TestTuningStep(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{})

	require.NoError(t, r.SetTS(12_500))
	assert.Equal(t, byte(0x08), sim.TuningStepCode())

	step, err := r.GetTS()
	require.NoError(t, err)
	assert.Equal(t, uint64(12_500), step)

	require.NoError(t, r.SetMode(caps.ModeAM, caps.WidthNormal))
	require.NoError(t, r.SetTS(1_000_000))

	require.NoError(t, r.SetMode(caps.ModeUSB, caps.WidthNormal))
	assert.ErrorIs(t, r.SetTS(1_000_000), caps.ErrCapabilityViolation)
	assert.ErrorIs(t, r.SetTS(3_000), caps.ErrCapabilityViolation)
}

func TestTimeout(t *testing.T) {
	r, sim := openSim(t, icr8500(t), Options{Timeout: 20 * time.Millisecond, Retry: 2})
	sim.SetSilent(true)

	_, err := r.GetFreq()
	assert.ErrorIs(t, err, engine.ErrTimeout)
	assert.Equal(t, 2, sim.ReceivedCount())
}

func TestTransceiveManual(t *testing.T) {
	var mu sync.Mutex
	var freqs []uint64
	r, sim := openSim(t, icr8500(t), Options{
		Transceive: TransceiveManual,
		OnFreqEvent: func(hz uint64) {
			mu.Lock()
			freqs = append(freqs, hz)
			mu.Unlock()
		},
	})

	sim.Tune(14_200_000)
	n, err := r.Poll(50 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	mu.Lock()
	assert.Equal(t, []uint64{14_200_000}, freqs)
	mu.Unlock()

	hz, ok := r.CachedFreq()
	assert.True(t, ok)
	assert.Equal(t, uint64(14_200_000), hz)
}

func TestTransceiveDuringTransaction(t *testing.T) {
	var gotMode caps.Mode
	r, sim := openSim(t, icr8500(t), Options{
		OnModeEvent: func(m caps.Mode, _ caps.Width) { gotMode = m },
	})

	require.NoError(t, sim.SetLocalMode(caps.ModeAM, caps.WidthWide))
	_, err := r.GetFreq()
	require.NoError(t, err)

	assert.Equal(t, caps.ModeAM, gotMode)
	m, w, ok := r.CachedMode()
	assert.True(t, ok)
	assert.Equal(t, caps.ModeAM, m)
	assert.Equal(t, caps.WidthWide, w)
}

func TestTransceivePeriodic(t *testing.T) {
	events := make(chan uint64, 4)
	r, sim := openSim(t, icr8500(t), Options{
		Transceive:   TransceivePeriodic,
		PollInterval: 10 * time.Millisecond,
		PollWindow:   5 * time.Millisecond,
		OnFreqEvent:  func(hz uint64) { events <- hz },
	})

	sim.Tune(28_400_000)
	select {
	case hz := <-events:
		assert.Equal(t, uint64(28_400_000), hz)
	case <-time.After(2 * time.Second):
		t.Fatal("no transceive event")
	}

	stats, err := r.Stats()
	require.NoError(t, err)
	assert.NotZero(t, stats.Poller.Polls)

	require.NoError(t, r.Close())
}

func TestStateStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rig.json")
	store := persistence.NewStateStore(path)

	r, _ := openSim(t, icr8500(t), Options{StateStore: store})
	require.NoError(t, r.SetFreq(caps.VFOA, 810_000))
	require.NoError(t, r.SetMode(caps.ModeAM, caps.WidthNarrow))
	require.NoError(t, r.SetLevel(caps.LevelSQL, 0.25))
	require.NoError(t, r.SetFunc(caps.FuncNB, true))
	require.NoError(t, r.Close())

	st, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, 412, st.Model)
	assert.Equal(t, "VFOA", st.VFO)
	assert.Equal(t, uint64(810_000), st.Freq)
	assert.Equal(t, "AM", st.Mode)
	assert.Equal(t, "narrow", st.Width)
	assert.Equal(t, 19200, st.Rate)
	assert.Equal(t, 0.25, st.Levels["SQL"])
	assert.True(t, st.Funcs["NB"])
	assert.Equal(t, r.SessionID(), st.SessionID)

	r2, _ := openSim(t, icr8500(t), Options{StateStore: store})
	prev := r2.PreviousState()
	require.NotNil(t, prev)
	assert.Equal(t, uint64(810_000), prev.Freq)
}

func TestProtocolLogging(t *testing.T) {
	logger := &captureLogger{}
	r, _ := openSim(t, icr8500(t), Options{ProtocolLogger: logger})

	require.NoError(t, r.SetFreq(caps.VFOCurr, 500_000))

	assert.True(t, logger.find(func(e log.Event) bool {
		return e.Layer == log.LayerRig && e.StateChange != nil &&
			e.StateChange.Entity == log.StateEntityRig && e.StateChange.NewState == "OPEN"
	}), "rig open logged")
	assert.True(t, logger.find(func(e log.Event) bool {
		return e.Layer == log.LayerTransport && e.Frame != nil && e.Direction == log.DirectionOut
	}), "raw frame logged")
	assert.True(t, logger.find(func(e log.Event) bool {
		return e.Layer == log.LayerFrame && e.Command != nil && e.Command.Command == civ.CmdSetFreq
	}), "command logged")
	assert.True(t, logger.find(func(e log.Event) bool {
		return e.StateChange != nil && e.StateChange.Entity == log.StateEntityCache &&
			e.StateChange.NewState == "FREQ=500000"
	}), "cache update logged")
	assert.True(t, logger.find(func(e log.Event) bool {
		return e.SessionID == r.SessionID()
	}))
}
