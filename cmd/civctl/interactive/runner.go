// Package interactive implements the civctl verbs and the readline shell
// that drives them.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/civ-protocol/civ-go/internal/rigsim"
	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/rig"
)

// ErrUsage is wrapped by errors caused by malformed command lines.
var ErrUsage = errors.New("usage")

// monitorWindow is the listen slice of one manual poll while monitoring.
const monitorWindow = 100 * time.Millisecond

// Runner executes civctl verbs against a rig.
type Runner struct {
	out    io.Writer
	policy rig.TransceivePolicy
	sim    *rigsim.Sim

	mu  sync.Mutex // serializes output from events and commands
	rig *rig.Rig
}

// NewRunner creates a runner writing to out. sim may be nil; when set,
// the simulator-only verbs are enabled.
func NewRunner(out io.Writer, policy rig.TransceivePolicy, sim *rigsim.Sim) *Runner {
	return &Runner{out: out, policy: policy, sim: sim}
}

// Bind attaches the rig the verbs operate on.
func (r *Runner) Bind(rg *rig.Rig) {
	r.rig = rg
}

// FreqEvent prints a transceive frequency update. Use it as
// rig.Options.OnFreqEvent.
func (r *Runner) FreqEvent(hz uint64) {
	r.printf("[EVENT] freq %s\n", FormatFreq(hz))
}

// ModeEvent prints a transceive mode update. Use it as
// rig.Options.OnModeEvent.
func (r *Runner) ModeEvent(mode caps.Mode, width caps.Width) {
	r.printf("[EVENT] mode %s %s\n", mode, width)
}

func (r *Runner) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func usage(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}

// Exec runs one command line split into fields.
func (r *Runner) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("missing command")
	}
	cmd, rest := strings.ToLower(args[0]), args[1:]

	switch cmd {
	case "caps":
		return r.cmdCaps()
	case "models":
		return r.cmdModels()
	case "status":
		return r.cmdStatus()
	case "get", "g":
		return r.cmdGet(rest)
	case "set", "s":
		return r.cmdSet(rest)
	case "op":
		return r.cmdOp(rest)
	case "monitor", "mon":
		return r.cmdMonitor(ctx, rest)
	case "tune":
		return r.cmdTune(rest)
	case "signal":
		return r.cmdSignal(rest)
	default:
		return usage("unknown command %q", cmd)
	}
}

func (r *Runner) cmdCaps() error {
	out, err := yaml.Marshal(r.rig.Caps())
	if err != nil {
		return fmt.Errorf("encode descriptor: %w", err)
	}
	r.printf("%s", out)
	return nil
}

func (r *Runner) cmdModels() error {
	reg := caps.Default()
	for _, id := range reg.Models() {
		d, _ := reg.Lookup(id)
		r.printf("%5d  %-10s %-8s %s\n", id, d.ModelName, d.MfgName, d.Status)
	}
	return nil
}

func (r *Runner) cmdStatus() error {
	d := r.rig.Caps()
	r.printf("Model:    %s %s (0x%02x)\n", d.MfgName, d.ModelName, r.rig.Address())
	r.printf("Session:  %s\n", r.rig.SessionID())
	r.printf("Open:     %t\n", r.rig.IsOpen())
	r.printf("Transceive: %s\n", r.policy)
	if hz, ok := r.rig.CachedFreq(); ok {
		r.printf("Freq:     %s\n", FormatFreq(hz))
	}
	if m, w, ok := r.rig.CachedMode(); ok {
		r.printf("Mode:     %s %s\n", m, w)
		if pb, ok := r.rig.Passband(); ok {
			r.printf("Passband: %d Hz\n", pb)
		}
	}
	if st, err := r.rig.Stats(); err == nil {
		e := st.Engine
		r.printf("Transactions: %d  retries: %d  timeouts: %d  rejects: %d  events: %d\n",
			e.Transactions, e.Retries, e.Timeouts, e.Rejects, e.Events)
		r.printf("Bytes out: %d  in: %d  dropped: %d\n",
			st.Transport.BytesOut, st.Transport.BytesIn, st.Transport.Dropped)
	}
	return nil
}

func (r *Runner) cmdGet(args []string) error {
	if len(args) < 1 {
		return usage("get freq|mode|vfo|level <name>|func <name>|ts|channel <n>")
	}
	switch strings.ToLower(args[0]) {
	case "freq", "f":
		hz, err := r.rig.GetFreq()
		if err != nil {
			return err
		}
		r.printf("%s\n", FormatFreq(hz))

	case "mode", "m":
		m, w, err := r.rig.GetMode()
		if err != nil {
			return err
		}
		r.printf("%s %s\n", m, w)

	case "vfo":
		v, err := r.rig.GetVFO()
		if err != nil {
			return err
		}
		r.printf("%s\n", v)

	case "level", "l":
		if len(args) < 2 {
			return usage("get level <name>")
		}
		l, err := caps.ParseLevel(args[1])
		if err != nil {
			return err
		}
		v, err := r.rig.GetLevel(l)
		if err != nil {
			return err
		}
		r.printf("%s = %s\n", l, formatLevel(l, v))

	case "func":
		if len(args) < 2 {
			return usage("get func <name>")
		}
		f, err := caps.ParseFunc(args[1])
		if err != nil {
			return err
		}
		on, err := r.rig.GetFunc(f)
		if err != nil {
			return err
		}
		r.printf("%s = %s\n", f, onOff(on))

	case "ts":
		step, err := r.rig.GetTS()
		if err != nil {
			return err
		}
		r.printf("%s\n", FormatFreq(step))

	case "channel", "ch":
		if len(args) < 2 {
			return usage("get channel <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return usage("invalid channel number %q", args[1])
		}
		ch, err := r.rig.GetChannel(n)
		if err != nil {
			return err
		}
		r.printf("%s\n", ch)

	default:
		return usage("unknown get target %q", args[0])
	}
	return nil
}

func (r *Runner) cmdSet(args []string) error {
	if len(args) < 2 {
		return usage("set freq|mode|vfo|level|func|ts|mem|channel <value>")
	}
	target, val := strings.ToLower(args[0]), args[1:]

	var err error
	switch target {
	case "freq", "f":
		vfo := caps.VFOCurr
		if len(val) > 1 {
			if vfo, err = caps.ParseVFO(val[1]); err != nil {
				return err
			}
		}
		var hz uint64
		if hz, err = ParseFreq(val[0]); err != nil {
			return err
		}
		err = r.rig.SetFreq(vfo, hz)

	case "mode", "m":
		var m caps.Mode
		if m, err = caps.ParseMode(val[0]); err != nil {
			return err
		}
		w := caps.WidthNormal
		if len(val) > 1 {
			if w, err = caps.ParseWidth(val[1]); err != nil {
				return err
			}
		}
		err = r.rig.SetMode(m, w)

	case "vfo":
		var v caps.VFO
		if v, err = caps.ParseVFO(val[0]); err != nil {
			return err
		}
		err = r.rig.SetVFO(v)

	case "level", "l":
		if len(val) < 2 {
			return usage("set level <name> <value>")
		}
		var l caps.Level
		if l, err = caps.ParseLevel(val[0]); err != nil {
			return err
		}
		v, perr := strconv.ParseFloat(val[1], 64)
		if perr != nil {
			return usage("invalid level value %q", val[1])
		}
		err = r.rig.SetLevel(l, v)

	case "func":
		if len(val) < 2 {
			return usage("set func <name> on|off")
		}
		var f caps.Func
		if f, err = caps.ParseFunc(val[0]); err != nil {
			return err
		}
		on, perr := parseOnOff(val[1])
		if perr != nil {
			return perr
		}
		err = r.rig.SetFunc(f, on)

	case "ts":
		var step uint64
		if step, err = ParseFreq(val[0]); err != nil {
			return err
		}
		err = r.rig.SetTS(step)

	case "mem":
		n, perr := strconv.Atoi(val[0])
		if perr != nil {
			return usage("invalid channel number %q", val[0])
		}
		err = r.rig.SetMem(n)

	case "channel", "ch":
		if len(val) < 3 {
			return usage("set channel <n> <freq> <mode> [width]")
		}
		ch, perr := parseChannel(val)
		if perr != nil {
			return perr
		}
		err = r.rig.SetChannel(ch)

	default:
		return usage("unknown set target %q", target)
	}
	if err != nil {
		return err
	}
	r.printf("OK\n")
	return nil
}

func parseChannel(val []string) (rig.Channel, error) {
	var ch rig.Channel
	n, err := strconv.Atoi(val[0])
	if err != nil {
		return ch, usage("invalid channel number %q", val[0])
	}
	ch.Number = n
	if ch.Freq, err = ParseFreq(val[1]); err != nil {
		return ch, err
	}
	if ch.Mode, err = caps.ParseMode(val[2]); err != nil {
		return ch, err
	}
	ch.Width = caps.WidthNormal
	if len(val) > 3 {
		if ch.Width, err = caps.ParseWidth(val[3]); err != nil {
			return ch, err
		}
	}
	return ch, nil
}

func (r *Runner) cmdOp(args []string) error {
	if len(args) < 1 {
		return usage("op cpy|xchg|from_vfo|to_vfo|mcl")
	}
	op, err := caps.ParseVFOOp(args[0])
	if err != nil {
		return err
	}
	if err := r.rig.VFOOp(op); err != nil {
		return err
	}
	r.printf("OK\n")
	return nil
}

// cmdMonitor prints transceive events for a while. Under the periodic
// policy the poller delivers them; otherwise the rig is polled here.
func (r *Runner) cmdMonitor(ctx context.Context, args []string) error {
	d := 10 * time.Second
	if len(args) > 0 {
		var err error
		if d, err = time.ParseDuration(args[0]); err != nil || d <= 0 {
			return usage("monitor [duration], e.g. monitor 30s")
		}
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	r.printf("Monitoring for %s...\n", d)
	if r.policy == rig.TransceivePeriodic {
		<-ctx.Done()
		return nil
	}

	events := 0
	for ctx.Err() == nil {
		n, err := r.rig.Poll(monitorWindow)
		if err != nil {
			return err
		}
		events += n
	}
	r.printf("%d events\n", events)
	return nil
}

func (r *Runner) simulator() (*rigsim.Sim, error) {
	if r.sim == nil {
		return nil, usage("only available with -simulate")
	}
	return r.sim, nil
}

// cmdTune turns the simulated rig's dial, producing a transceive event.
func (r *Runner) cmdTune(args []string) error {
	sim, err := r.simulator()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return usage("tune <freq>")
	}
	hz, err := ParseFreq(args[0])
	if err != nil {
		return err
	}
	sim.Tune(hz)
	return nil
}

// cmdSignal sets the simulated raw S-meter reading.
func (r *Runner) cmdSignal(args []string) error {
	sim, err := r.simulator()
	if err != nil {
		return err
	}
	if len(args) < 1 {
		return usage("signal <raw 0-255>")
	}
	v, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return usage("invalid raw value %q", args[0])
	}
	sim.SetSignal(v)
	return nil
}

// ParseFreq parses a frequency in Hz with an optional k, M or G suffix
// ("7100k", "145.5M", "14250000").
func ParseFreq(s string) (uint64, error) {
	mult := 1.0
	num := strings.TrimSuffix(strings.TrimSpace(s), "Hz")
	if n := len(num); n > 0 {
		switch num[n-1] {
		case 'k', 'K':
			mult, num = 1e3, num[:n-1]
		case 'm', 'M':
			mult, num = 1e6, num[:n-1]
		case 'g', 'G':
			mult, num = 1e9, num[:n-1]
		}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) {
		return 0, usage("invalid frequency %q", s)
	}
	return uint64(math.Round(v * mult)), nil
}

// FormatFreq renders hz with a MHz reading for humans.
func FormatFreq(hz uint64) string {
	return fmt.Sprintf("%d Hz (%.6f MHz)", hz, float64(hz)/1e6)
}

func formatLevel(l caps.Level, v float64) string {
	if l.IsFloat() {
		return strconv.FormatFloat(v, 'f', 3, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, usage("expected on or off, got %q", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
