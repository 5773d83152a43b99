package rig

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/engine"
	"github.com/civ-protocol/civ-go/pkg/icom"
	"github.com/civ-protocol/civ-go/pkg/log"
	"github.com/civ-protocol/civ-go/pkg/persistence"
	"github.com/civ-protocol/civ-go/pkg/rig/driver"
	"github.com/civ-protocol/civ-go/pkg/transport"
)

// Channel is the content of one memory channel.
type Channel = driver.Channel

// RigProtocol is the protocol implementation behind a Rig.
type RigProtocol = driver.RigProtocol

type lifecycle uint8

const (
	stateInit lifecycle = iota
	stateOpen
	stateClosed
	stateCleanedUp
)

func (l lifecycle) String() string {
	switch l {
	case stateInit:
		return "INIT"
	case stateOpen:
		return "OPEN"
	case stateClosed:
		return "CLOSED"
	case stateCleanedUp:
		return "CLEANED_UP"
	default:
		return "UNKNOWN"
	}
}

// Rig is a handle on one receiver.
type Rig struct {
	desc      *caps.Descriptor
	opts      Options
	sessionID string
	addr      byte

	mu     sync.Mutex // guards everything below
	state  lifecycle
	conn   *transport.Conn
	eng    *engine.Engine
	proto  driver.RigProtocol
	poller *Poller
	cancel context.CancelFunc
	cache  cache
	prev   *persistence.RigState
}

// Init creates a rig handle for the model described by desc. No port is
// opened.
func Init(desc *caps.Descriptor, opts Options) (*Rig, error) {
	if desc == nil {
		return nil, errors.New("rig: nil descriptor")
	}
	if !protocolSupported(desc.Protocol) {
		return nil, fmt.Errorf("protocol %q: %w", desc.Protocol, ErrNotImplemented)
	}
	addr := opts.Address
	if addr == 0 {
		addr = desc.Address
	}
	r := &Rig{
		desc:      desc,
		opts:      opts,
		sessionID: uuid.NewString(),
		addr:      addr,
	}
	r.cache.reset()
	return r, nil
}

// Caps returns the capability descriptor.
func (r *Rig) Caps() *caps.Descriptor { return r.desc }

// SessionID identifies this handle in protocol logs.
func (r *Rig) SessionID() string { return r.sessionID }

// Address returns the CI-V address in use.
func (r *Rig) Address() byte { return r.addr }

// IsOpen reports whether the rig is open.
func (r *Rig) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateOpen
}

// Open opens the serial port and starts the transceive poller if
// configured. ctx bounds the open retries only.
func (r *Rig) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case stateOpen:
		return ErrAlreadyOpen
	case stateCleanedUp:
		return ErrCleanedUp
	}

	cfg, err := transport.ConfigFor(r.desc, r.opts.Path, r.opts.Rate)
	if err != nil {
		return err
	}
	cfg.Opener = r.opts.Opener
	cfg.Logger = r.opts.ProtocolLogger
	cfg.SessionID = r.sessionID

	var conn *transport.Conn
	if r.opts.OpenAttempts > 1 {
		conn, err = transport.OpenWithRetry(ctx, cfg, nil, r.opts.OpenAttempts)
	} else {
		conn, err = transport.Open(cfg)
	}
	if err != nil {
		return err
	}

	timeout, retry := r.desc.Timing.Timeout, r.desc.Timing.Retry
	if r.opts.Timeout > 0 {
		timeout = r.opts.Timeout
	}
	if r.opts.Retry > 0 {
		retry = r.opts.Retry
	}
	eng := engine.New(conn, engine.Config{
		RigAddr:        r.addr,
		Timeout:        timeout,
		Retry:          retry,
		OnEvent:        r.handleEvent,
		ProtocolLogger: r.opts.ProtocolLogger,
		SessionID:      r.sessionID,
		Model:          r.desc.ModelName,
		Logger:         r.opts.Logger,
	})

	r.conn, r.eng = conn, eng
	r.proto = newProtocol(r.desc, eng, r.opts.Logger)
	r.cache.reset()
	if r.opts.StateStore != nil {
		prev, err := r.opts.StateStore.Load()
		if err != nil {
			r.debug("state load failed", "path", r.opts.StateStore.Path(), "error", err)
		}
		r.prev = prev
	}

	old := r.state
	r.state = stateOpen
	r.logState(log.StateEntityRig, old.String(), r.state.String(), fmt.Sprintf("%s %d baud", cfg.Path, cfg.Rate))
	r.debug("rig open", "model", r.desc.ModelName, "port", cfg.Path, "rate", cfg.Rate, "session", r.sessionID)

	if r.opts.Transceive == TransceivePeriodic {
		pctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel
		r.poller = NewPoller(PollerConfig{Interval: r.opts.PollInterval, Window: r.opts.PollWindow},
			eng.Poll, func(err error) { r.debug("poll failed", "error", err) })
		r.poller.Start(pctx)
	}
	return nil
}

// Close stops the poller, closes the port and saves the state snapshot.
func (r *Rig) Close() error {
	r.mu.Lock()
	if r.state != stateOpen {
		r.mu.Unlock()
		return ErrNotOpen
	}
	r.state = stateClosed
	poller, cancel, eng := r.poller, r.cancel, r.eng
	r.poller, r.cancel, r.eng, r.proto = nil, nil, nil, nil
	snap := r.snapshotLocked()
	r.mu.Unlock()

	if poller != nil {
		poller.Stop()
		cancel()
	}
	err := eng.Close()
	r.logState(log.StateEntityRig, stateOpen.String(), stateClosed.String(), "")

	if r.opts.StateStore != nil {
		if serr := r.opts.StateStore.Save(snap); serr != nil {
			err = errors.Join(err, fmt.Errorf("save state: %w", serr))
		}
	}
	return err
}

// Cleanup releases the handle. An open rig is closed first.
func (r *Rig) Cleanup() error {
	var err error
	if r.IsOpen() {
		err = r.Close()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = stateCleanedUp
	r.conn = nil
	return err
}

// Poll listens for transceive frames for window. It is the delivery path
// of TransceiveManual.
func (r *Rig) Poll(window time.Duration) (int, error) {
	r.mu.Lock()
	eng := r.eng
	ok := r.state == stateOpen
	r.mu.Unlock()
	if !ok {
		return 0, ErrNotOpen
	}
	return eng.Poll(window)
}

// Stats are the counters of a rig's stack.
type Stats struct {
	Engine    engine.Stats
	Transport transport.Stats
	Poller    PollerStats
}

// Stats returns the counters of the open rig.
func (r *Rig) Stats() (Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != stateOpen {
		return Stats{}, ErrNotOpen
	}
	s := Stats{Engine: r.eng.Stats(), Transport: r.conn.Stats()}
	if r.poller != nil {
		s.Poller = r.poller.Stats()
	}
	return s, nil
}

// PreviousState returns the snapshot loaded from the state store at Open,
// or nil.
func (r *Rig) PreviousState() *persistence.RigState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prev
}

func (r *Rig) backend() (driver.RigProtocol, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case stateOpen:
		return r.proto, nil
	case stateCleanedUp:
		return nil, ErrCleanedUp
	}
	return nil, ErrNotOpen
}

func protocolSupported(p caps.Protocol) bool {
	return p == caps.ProtocolCIV
}

// newProtocol selects the implementation named by the descriptor.
func newProtocol(desc *caps.Descriptor, eng *engine.Engine, logger *slog.Logger) driver.RigProtocol {
	switch desc.Protocol {
	case caps.ProtocolCIV:
		return icom.New(eng, desc, logger)
	}
	return nil
}

// handleEvent applies a transceive frame to the cache. It runs after the
// engine has released the bus.
func (r *Rig) handleEvent(f civ.Frame) {
	r.mu.Lock()
	p := r.proto
	r.mu.Unlock()
	if p == nil {
		return
	}
	ev, ok := p.DecodeEvent(f)
	if !ok {
		r.debug("unhandled event", "frame", f)
		return
	}

	r.mu.Lock()
	switch ev.Kind {
	case driver.EventFreq:
		r.cache.setFreq(ev.Freq)
	case driver.EventMode:
		r.cache.setMode(ev.Mode, ev.Width)
	}
	r.mu.Unlock()

	r.logCache("event", ev.Kind.String(), eventValue(ev))

	switch ev.Kind {
	case driver.EventFreq:
		if r.opts.OnFreqEvent != nil {
			r.opts.OnFreqEvent(ev.Freq)
		}
	case driver.EventMode:
		if r.opts.OnModeEvent != nil {
			r.opts.OnModeEvent(ev.Mode, ev.Width)
		}
	}
}

func eventValue(ev driver.Event) string {
	if ev.Kind == driver.EventFreq {
		return fmt.Sprintf("%d", ev.Freq)
	}
	return ev.Mode.String() + "/" + ev.Width.String()
}

func (r *Rig) logState(entity log.StateEntity, from, to, reason string) {
	if r.opts.ProtocolLogger == nil {
		return
	}
	r.opts.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: r.sessionID,
		Layer:     log.LayerRig,
		Category:  log.CategoryState,
		Port:      r.opts.Path,
		Model:     r.desc.ModelName,
		RigAddr:   r.addr,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}

func (r *Rig) logCache(reason, field, value string) {
	r.logState(log.StateEntityCache, "", field+"="+value, reason)
}

func (r *Rig) debug(msg string, args ...any) {
	if r.opts.Logger != nil {
		r.opts.Logger.Debug(msg, args...)
	}
}
