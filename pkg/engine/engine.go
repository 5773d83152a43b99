package engine

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/log"
	"github.com/civ-protocol/civ-go/pkg/transport"
)

// Engine errors.
var (
	// ErrTimeout indicates the retry budget was exhausted without a reply.
	ErrTimeout = errors.New("transaction timed out")

	// ErrRejected indicates the rig answered NG.
	ErrRejected = errors.New("rejected by rig")
)

// Defaults used when the config leaves a field zero.
const (
	DefaultTimeout = 200 * time.Millisecond
	DefaultRetry   = 3
)

// EventHandler receives unsolicited frames from the rig.
type EventHandler func(civ.Frame)

// Config configures an Engine.
type Config struct {
	// RigAddr is the CI-V address of the rig.
	RigAddr byte

	// CtrlAddr is our address. Zero means civ.AddrController.
	CtrlAddr byte

	// Timeout is the reply window of one transmission.
	Timeout time.Duration

	// Retry is the number of transmissions per transaction (minimum 1).
	Retry int

	// OnEvent receives transceive frames. May be set later with
	// SetEventHandler.
	OnEvent EventHandler

	// ProtocolLogger receives frame-layer events. Nil disables.
	ProtocolLogger log.Logger
	SessionID      string
	Model          string

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Request is one command and the reply it waits for.
type Request struct {
	Frame  civ.Frame
	Expect Expect
}

// Stats are engine counters.
type Stats struct {
	Transactions int64
	Retries      int64
	Timeouts     int64
	Rejects      int64
	Echoes       int64
	Events       int64
	Malformed    int64
	Ignored      int64
}

// Engine serializes transactions on one connection.
type Engine struct {
	conn transport.FrameReadWriter
	cfg  Config

	mu sync.Mutex // one outstanding transaction

	hmu     sync.RWMutex
	onEvent EventHandler

	state atomic.Uint32

	transactions atomic.Int64
	retries      atomic.Int64
	timeouts     atomic.Int64
	rejects      atomic.Int64
	echoes       atomic.Int64
	events       atomic.Int64
	malformed    atomic.Int64
	ignored      atomic.Int64
}

// New creates an engine on an open connection.
func New(conn transport.FrameReadWriter, cfg Config) *Engine {
	if cfg.CtrlAddr == 0 {
		cfg.CtrlAddr = civ.AddrController
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retry < 1 {
		cfg.Retry = 1
	}
	return &Engine{conn: conn, cfg: cfg, onEvent: cfg.OnEvent}
}

// SetEventHandler replaces the transceive handler. Nil drops events.
func (e *Engine) SetEventHandler(h EventHandler) {
	e.hmu.Lock()
	defer e.hmu.Unlock()
	e.onEvent = h
}

// RigAddr returns the rig address.
func (e *Engine) RigAddr() byte { return e.cfg.RigAddr }

// Timeout returns the per-transmission reply window.
func (e *Engine) Timeout() time.Duration { return e.cfg.Timeout }

// Retry returns the number of transmissions per transaction.
func (e *Engine) Retry() int { return e.cfg.Retry }

// State returns the phase of the current transaction.
func (e *Engine) State() State { return State(e.state.Load()) }

// Command builds a frame from us to the rig.
func (e *Engine) Command(cmd civ.Command, data ...byte) civ.Frame {
	return civ.NewFrame(e.cfg.RigAddr, e.cfg.CtrlAddr, cmd, data...)
}

// SubCommand builds a frame with subcommand from us to the rig.
func (e *Engine) SubCommand(cmd civ.Command, sub byte, data ...byte) civ.Frame {
	return civ.NewSubFrame(e.cfg.RigAddr, e.cfg.CtrlAddr, cmd, sub, data...)
}

// Set sends a command that the rig answers with OK or NG.
func (e *Engine) Set(f civ.Frame) error {
	_, err := e.Transact(Request{Frame: f, Expect: ExpectStatus})
	return err
}

// Read sends a query and returns the rig's data reply.
func (e *Engine) Read(f civ.Frame) (civ.Frame, error) {
	return e.Transact(Request{Frame: f, Expect: ExpectData})
}

// Transact runs one transaction. Input still pending from earlier
// exchanges is flushed first, so a late reply to a timed out request is
// never taken for this one. Each of the Retry transmissions waits the
// full Timeout for a reply, so an unanswered request takes about
// Retry*Timeout before ErrTimeout is returned. An NG reply returns the
// status frame together with ErrRejected.
func (e *Engine) Transact(req Request) (civ.Frame, error) {
	reply, pending, err := e.transact(req)
	e.dispatch(pending)
	return reply, err
}

func (e *Engine) transact(req Request) (civ.Frame, []civ.Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.setState(StateIdle)

	e.transactions.Add(1)
	out := civ.Encode(req.Frame)
	start := time.Now()

	pending, err := e.flush()
	if err != nil {
		return civ.Frame{}, pending, fmt.Errorf("flush before %s: %w", req.Frame.Cmd, err)
	}
	for attempt := 1; attempt <= e.cfg.Retry; attempt++ {
		if attempt > 1 {
			e.retries.Add(1)
			e.debug("retrying", "cmd", req.Frame.Cmd, "attempt", attempt)
		}

		if err := e.conn.Write(out); err != nil {
			return civ.Frame{}, pending, fmt.Errorf("send %s: %w", req.Frame.Cmd, err)
		}
		e.setState(StateSent)
		e.logCommand(req.Frame, log.DirectionOut, log.CategoryMessage, attempt, nil)

		deadline := time.Now().Add(e.cfg.Timeout)
		e.setState(StateAwaitingReply)
		for {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				break
			}
			raw, err := e.conn.ReadFrame(remaining)
			if errors.Is(err, transport.ErrReadTimeout) {
				break
			}
			if err != nil {
				return civ.Frame{}, pending, fmt.Errorf("await %s: %w", req.Frame.Cmd, err)
			}

			if bytes.Equal(raw, out) {
				e.echoes.Add(1)
				e.setState(StateEchoOnly)
				e.setState(StateAwaitingReply)
				continue
			}

			f, err := civ.Decode(raw)
			if err != nil {
				e.malformed.Add(1)
				e.logError("decode reply", err)
				continue
			}

			switch e.classify(f, &req) {
			case matchReply:
				e.setState(StateMatched)
				elapsed := time.Since(start)
				e.logCommand(f, log.DirectionIn, log.CategoryMessage, attempt, &elapsed)
				if f.Status() == civ.StatusNG {
					e.rejects.Add(1)
					return f, pending, fmt.Errorf("%s: %w", req.Frame.Cmd, ErrRejected)
				}
				return f, pending, nil
			case matchEvent:
				e.events.Add(1)
				e.logCommand(f, log.DirectionIn, log.CategoryEvent, 0, nil)
				pending = append(pending, f)
			default:
				e.ignored.Add(1)
			}
		}
		e.setState(StateTimedOut)
	}

	e.timeouts.Add(1)
	err = fmt.Errorf("%s after %d attempts in %v: %w",
		req.Frame.Cmd, e.cfg.Retry, time.Since(start).Round(time.Millisecond), ErrTimeout)
	e.logError("await reply", err)
	return civ.Frame{}, pending, err
}

// Poll listens for window with no transaction outstanding and hands any
// unsolicited frames to the event handler. It returns the number of events
// delivered.
func (e *Engine) Poll(window time.Duration) (int, error) {
	pending, err := e.poll(window)
	e.dispatch(pending)
	return len(pending), err
}

func (e *Engine) poll(window time.Duration) ([]civ.Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var pending []civ.Frame
	deadline := time.Now().Add(window)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return pending, nil
		}
		raw, err := e.conn.ReadFrame(remaining)
		if errors.Is(err, transport.ErrReadTimeout) {
			return pending, nil
		}
		if err != nil {
			return pending, fmt.Errorf("poll: %w", err)
		}

		if f, ok := e.unsolicited(raw); ok {
			pending = append(pending, f)
		}
	}
}

// flush drops input left over from earlier exchanges, such as a reply that
// arrived after its transaction timed out. Transceive frames among it are
// returned as events.
func (e *Engine) flush() ([]civ.Frame, error) {
	raws, err := e.conn.Flush()
	var pending []civ.Frame
	for _, raw := range raws {
		if f, ok := e.unsolicited(raw); ok {
			pending = append(pending, f)
		}
	}
	if len(raws) > len(pending) {
		e.debug("discarded stale input", "frames", len(raws)-len(pending))
	}
	return pending, err
}

// unsolicited decodes a frame received with no transaction outstanding and
// reports whether it is an event.
func (e *Engine) unsolicited(raw []byte) (civ.Frame, bool) {
	f, err := civ.Decode(raw)
	if err != nil {
		e.malformed.Add(1)
		e.logError("decode event", err)
		return civ.Frame{}, false
	}
	if e.classify(f, nil) != matchEvent {
		e.ignored.Add(1)
		return civ.Frame{}, false
	}
	e.events.Add(1)
	e.logCommand(f, log.DirectionIn, log.CategoryEvent, 0, nil)
	return f, true
}

type match uint8

const (
	matchNone match = iota
	matchReply
	matchEvent
)

// classify decides what a received frame means for the pending request
// (nil while polling).
func (e *Engine) classify(f civ.Frame, req *Request) match {
	if f.IsBroadcast() {
		return matchEvent
	}
	if f.To != e.cfg.CtrlAddr || f.From != e.cfg.RigAddr {
		return matchNone
	}
	if req == nil {
		if f.Status() != civ.StatusNone {
			return matchNone
		}
		return matchEvent
	}

	switch f.Status() {
	case civ.StatusNG:
		return matchReply
	case civ.StatusOK:
		if req.Expect == ExpectStatus {
			return matchReply
		}
		return matchNone
	}

	if req.Expect == ExpectData && f.Cmd == req.Frame.Cmd &&
		(!req.Frame.HasSub || (f.HasSub && f.Sub == req.Frame.Sub)) {
		return matchReply
	}
	return matchEvent
}

func (e *Engine) dispatch(frames []civ.Frame) {
	if len(frames) == 0 {
		return
	}
	e.hmu.RLock()
	h := e.onEvent
	e.hmu.RUnlock()
	if h == nil {
		return
	}
	for _, f := range frames {
		h(f)
	}
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Transactions: e.transactions.Load(),
		Retries:      e.retries.Load(),
		Timeouts:     e.timeouts.Load(),
		Rejects:      e.rejects.Load(),
		Echoes:       e.echoes.Load(),
		Events:       e.events.Load(),
		Malformed:    e.malformed.Load(),
		Ignored:      e.ignored.Load(),
	}
}

// Close closes the underlying connection after any running transaction.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conn.Close()
}

func (e *Engine) setState(s State) {
	old := State(e.state.Swap(uint32(s)))
	if old == s || e.cfg.ProtocolLogger == nil {
		return
	}
	e.cfg.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.cfg.SessionID,
		Layer:     log.LayerFrame,
		Category:  log.CategoryState,
		Model:     e.cfg.Model,
		RigAddr:   e.cfg.RigAddr,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityTransaction,
			OldState: old.String(),
			NewState: s.String(),
		},
	})
}

func (e *Engine) logCommand(f civ.Frame, dir log.Direction, cat log.Category, attempt int, elapsed *time.Duration) {
	if e.cfg.ProtocolLogger == nil {
		return
	}
	ce := log.NewCommandEvent(f)
	ce.Attempt = attempt
	ce.Elapsed = elapsed
	e.cfg.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.cfg.SessionID,
		Direction: dir,
		Layer:     log.LayerFrame,
		Category:  cat,
		Model:     e.cfg.Model,
		RigAddr:   e.cfg.RigAddr,
		Command:   ce,
	})
}

func (e *Engine) logError(context string, err error) {
	e.debug(context, "error", err)
	if e.cfg.ProtocolLogger == nil {
		return
	}
	e.cfg.ProtocolLogger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: e.cfg.SessionID,
		Layer:     log.LayerFrame,
		Category:  log.CategoryError,
		Model:     e.cfg.Model,
		RigAddr:   e.cfg.RigAddr,
		Error: &log.ErrorEventData{
			Layer:   log.LayerFrame,
			Message: err.Error(),
			Context: context,
		},
	})
}

func (e *Engine) debug(msg string, args ...any) {
	if e.cfg.Logger != nil {
		e.cfg.Logger.Debug(msg, args...)
	}
}
