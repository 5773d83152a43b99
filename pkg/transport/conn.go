package transport

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/civ-protocol/civ-go/pkg/caps"
	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/log"
)

// Transport errors.
var (
	// ErrClosed indicates use of a closed connection.
	ErrClosed = errors.New("transport closed")

	// ErrReadTimeout indicates no complete frame arrived in time.
	ErrReadTimeout = errors.New("read timeout")

	// ErrFrameEmpty indicates an attempt to write nothing.
	ErrFrameEmpty = errors.New("frame is empty")
)

// readChunk is the size of a single port read.
const readChunk = 64

// Conn is a CI-V serial connection. Writes are serialized; reads are meant
// for a single reader (the engine).
type Conn struct {
	port    Port
	cfg     Config
	scanner civ.Scanner
	buf     [readChunk]byte

	wmu sync.Mutex

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error

	logger log.Logger

	bytesOut atomic.Int64
	bytesIn  atomic.Int64
	dropped  atomic.Int64

	// sleep is replaced in tests.
	sleep func(time.Duration)
}

// Open opens the serial device described by cfg.
func Open(cfg Config) (*Conn, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	opener := cfg.Opener
	if opener == nil {
		opener = SerialOpener
	}
	port, err := opener(cfg.Path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}

	c := NewConn(port, cfg)
	if err := c.setup(); err != nil {
		port.Close()
		return nil, fmt.Errorf("setup %s: %w", cfg.Path, err)
	}
	c.logState("", "OPEN", fmt.Sprintf("%d baud", cfg.Rate))
	return c, nil
}

// NewConn wraps an already open port.
func NewConn(port Port, cfg Config) *Conn {
	return &Conn{
		port:   port,
		cfg:    cfg,
		logger: cfg.Logger,
		sleep:  time.Sleep,
	}
}

func (c *Conn) setup() error {
	if c.cfg.Handshake == caps.HandshakeHardware {
		if err := c.port.SetRTS(true); err != nil {
			return err
		}
		if err := c.port.SetDTR(true); err != nil {
			return err
		}
	}
	return c.reset()
}

// Config returns the connection config.
func (c *Conn) Config() Config {
	return c.cfg
}

// Write sends one encoded frame, honouring the configured pacing.
// Thread-safe: can be called from multiple goroutines.
func (c *Conn) Write(frame []byte) error {
	if len(frame) == 0 {
		return ErrFrameEmpty
	}
	if c.closed.Load() {
		return ErrClosed
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.cfg.WriteDelay > 0 {
		for i := range frame {
			if err := c.writeAll(frame[i : i+1]); err != nil {
				return err
			}
			c.sleep(c.cfg.WriteDelay)
		}
	} else if err := c.writeAll(frame); err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Log(c.frameEvent(frame, log.DirectionOut))
	}
	if c.cfg.PostWriteDelay > 0 {
		c.sleep(c.cfg.PostWriteDelay)
	}
	return nil
}

func (c *Conn) writeAll(p []byte) error {
	for len(p) > 0 {
		n, err := c.port.Write(p)
		c.bytesOut.Add(int64(n))
		if err != nil {
			if c.closed.Load() {
				return ErrClosed
			}
			return fmt.Errorf("failed to write frame: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("failed to write frame: %w", errors.New("short write"))
		}
		p = p[n:]
	}
	return nil
}

// ReadFrame returns the next complete raw frame received within timeout.
// Garbage, collisions and partial frames are skipped.
func (c *Conn) ReadFrame(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	for {
		raw, ok := c.scanner.Next()
		c.dropped.Store(int64(c.scanner.Dropped()))
		if ok {
			if c.logger != nil {
				c.logger.Log(c.frameEvent(raw, log.DirectionIn))
			}
			return raw, nil
		}
		if c.closed.Load() {
			return nil, ErrClosed
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrReadTimeout
		}
		if err := c.port.SetReadTimeout(remaining); err != nil {
			return nil, c.readErr(err)
		}
		n, err := c.port.Read(c.buf[:])
		if n > 0 {
			c.bytesIn.Add(int64(n))
			c.scanner.Feed(c.buf[:n])
		}
		if err != nil {
			return nil, c.readErr(err)
		}
	}
}

func (c *Conn) readErr(err error) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return fmt.Errorf("failed to read: %w", err)
}

// maxFlushReads bounds the non-blocking reads of one Flush.
const maxFlushReads = 16

// Flush empties the receive side before a new exchange. Bytes already
// waiting in the port are read without blocking, the complete frames among
// them are returned and everything else is discarded. It must not run
// concurrently with ReadFrame.
func (c *Conn) Flush() ([][]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if err := c.port.SetReadTimeout(0); err != nil {
		return nil, c.readErr(err)
	}
	for i := 0; i < maxFlushReads; i++ {
		n, err := c.port.Read(c.buf[:])
		if n > 0 {
			c.bytesIn.Add(int64(n))
			c.scanner.Feed(c.buf[:n])
		}
		if err != nil {
			return nil, c.readErr(err)
		}
		if n == 0 {
			break
		}
	}

	var frames [][]byte
	for {
		raw, ok := c.scanner.Next()
		if !ok {
			break
		}
		if c.logger != nil {
			c.logger.Log(c.frameEvent(raw, log.DirectionIn))
		}
		frames = append(frames, raw)
	}
	c.dropped.Store(int64(c.scanner.Dropped()))
	return frames, c.reset()
}

// reset drops buffered input in the port and the frame scanner.
func (c *Conn) reset() error {
	c.scanner.Reset()
	return c.port.ResetInputBuffer()
}

// Stats reports byte counters and the number of partial frames discarded.
func (c *Conn) Stats() Stats {
	return Stats{
		BytesOut: c.bytesOut.Load(),
		BytesIn:  c.bytesIn.Load(),
		Dropped:  c.dropped.Load(),
	}
}

// Stats are transport counters.
type Stats struct {
	BytesOut int64
	BytesIn  int64
	Dropped  int64
}

// Close releases the port. It is safe to call Close multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.port.Close()
		c.logState("OPEN", "CLOSED", "")
	})
	return c.closeErr
}

// IsClosed reports whether Close was called.
func (c *Conn) IsClosed() bool {
	return c.closed.Load()
}

func (c *Conn) frameEvent(raw []byte, dir log.Direction) log.Event {
	return log.Event{
		Timestamp: time.Now(),
		SessionID: c.cfg.SessionID,
		Direction: dir,
		Layer:     log.LayerTransport,
		Category:  log.CategoryMessage,
		Port:      c.cfg.Path,
		Frame:     log.NewFrameEvent(raw),
	}
}

func (c *Conn) logState(from, to, reason string) {
	if c.logger == nil {
		return
	}
	c.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: c.cfg.SessionID,
		Layer:     log.LayerTransport,
		Category:  log.CategoryState,
		Port:      c.cfg.Path,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityPort,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}
