package rigsim

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/icom"
	"github.com/civ-protocol/civ-go/pkg/transport"
)

// ErrClosed is returned by port operations after Close.
var ErrClosed = errors.New("rigsim: port closed")

// Config configures a simulator.
type Config struct {
	// Descriptor is the simulated model. Nil selects the ICR-8500.
	Descriptor *caps.Descriptor

	// Address overrides the descriptor's CI-V address.
	Address byte

	// NoEcho disables the bus echo of written bytes.
	NoEcho bool

	// NoTransceive disables broadcasts of front panel changes.
	NoTransceive bool

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

type slot struct {
	freq     uint64
	mode     byte
	passband byte
}

// Sim is a simulated receiver behind a serial port.
type Sim struct {
	cfg  Config
	desc *caps.Descriptor
	addr byte

	mu      sync.Mutex
	cond    *sync.Cond
	out     []byte
	scanner civ.Scanner
	timeout time.Duration
	closed  bool
	rts     bool
	dtr     bool
	line    *serial.Mode

	vfo     caps.VFO
	vfos    map[caps.VFO]*slot
	mem     map[int]slot
	channel int
	levels  map[byte]uint64
	funcs   map[byte]byte
	att     byte
	ts      byte
	squelch bool
	signal  uint64

	silent   bool
	rejected map[civ.Command]bool
	received []civ.Frame
}

var _ transport.Port = (*Sim)(nil)

// New creates a simulator tuned to 145.000 MHz FM on VFO A.
func New(cfg Config) *Sim {
	desc := cfg.Descriptor
	if desc == nil {
		desc, _ = caps.Default().Lookup(caps.ModelICR8500)
	}
	addr := cfg.Address
	if addr == 0 {
		addr = desc.Address
	}
	s := &Sim{
		cfg:  cfg,
		desc: desc,
		addr: addr,
		vfo:  caps.VFOA,
		vfos: map[caps.VFO]*slot{
			caps.VFOA: {freq: 145_000_000, mode: icom.ModeFM, passband: civ.PassbandNormal},
			caps.VFOB: {freq: 7_100_000, mode: icom.ModeLSB, passband: civ.PassbandNormal},
		},
		mem:      make(map[int]slot),
		levels:   make(map[byte]uint64),
		funcs:    map[byte]byte{civ.SubFuncAGC: 0x02},
		rejected: make(map[civ.Command]bool),
		timeout:  serial.NoTimeout,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Opener returns a transport.Opener that hands out this simulator.
func (s *Sim) Opener() transport.Opener {
	return func(path string, mode *serial.Mode) (transport.Port, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			return nil, ErrClosed
		}
		m := *mode
		s.line = &m
		s.debug("opened", "path", path, "baud", mode.BaudRate)
		return s, nil
	}
}

// Address returns the simulated rig's CI-V address.
func (s *Sim) Address() byte { return s.addr }

// Write receives bytes from the controller.
func (s *Sim) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	if !s.cfg.NoEcho {
		s.out = append(s.out, p...)
	}
	s.scanner.Feed(p)
	for {
		raw, ok := s.scanner.Next()
		if !ok {
			break
		}
		s.handle(raw)
	}
	s.cond.Broadcast()
	return len(p), nil
}

// Read returns bytes sent by the rig. It blocks for at most the read
// timeout and returns 0, nil when nothing arrived.
func (s *Sim) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeout >= 0 {
		deadline := time.Now().Add(s.timeout)
		t := time.AfterFunc(s.timeout, func() {
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		})
		defer t.Stop()
		for len(s.out) == 0 && !s.closed && time.Now().Before(deadline) {
			s.cond.Wait()
		}
	} else {
		for len(s.out) == 0 && !s.closed {
			s.cond.Wait()
		}
	}

	if s.closed {
		return 0, ErrClosed
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

// Close closes the port and wakes blocked readers.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cond.Broadcast()
	return nil
}

// SetReadTimeout sets the timeout of a single Read. serial.NoTimeout
// blocks until data arrives.
func (s *Sim) SetReadTimeout(t time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = t
	return nil
}

// ResetInputBuffer drops bytes the controller has not read yet.
func (s *Sim) ResetInputBuffer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out = nil
	return nil
}

// SetRTS records the RTS line.
func (s *Sim) SetRTS(rts bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rts = rts
	return nil
}

// SetDTR records the DTR line.
func (s *Sim) SetDTR(dtr bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dtr = dtr
	return nil
}

// Lines returns the RTS and DTR states.
func (s *Sim) Lines() (rts, dtr bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rts, s.dtr
}

// LineMode returns the serial mode the port was opened with, or nil.
func (s *Sim) LineMode() *serial.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.line
}

func (s *Sim) debug(msg string, args ...any) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Debug(msg, args...)
	}
}

func (s *Sim) String() string {
	return fmt.Sprintf("rigsim %s @%02X", s.desc.ModelName, s.addr)
}
