package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/civ-protocol/civ-go/pkg/civ"
	"github.com/civ-protocol/civ-go/pkg/transport"
)

// fakeBus is a FrameReadWriter that echoes writes like a CI-V bus and lets
// a responder queue the rig's answer.
type fakeBus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    [][]byte
	writes   [][]byte
	echo     bool
	respond  func(req civ.Frame) [][]byte
	writeErr error
	closed   bool
	flushes  int
}

func newFakeBus(respond func(req civ.Frame) [][]byte) *fakeBus {
	b := &fakeBus{echo: true, respond: respond}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *fakeBus) inject(frames ...civ.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range frames {
		b.queue = append(b.queue, civ.Encode(f))
	}
	b.cond.Broadcast()
}

func (b *fakeBus) injectRaw(raw []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue = append(b.queue, raw)
	b.cond.Broadcast()
}

func (b *fakeBus) Write(frame []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.writes = append(b.writes, append([]byte(nil), frame...))
	if b.echo {
		b.queue = append(b.queue, append([]byte(nil), frame...))
	}
	if b.respond != nil {
		req, err := civ.Decode(frame)
		if err == nil {
			b.queue = append(b.queue, b.respond(req)...)
		}
	}
	b.cond.Broadcast()
	return nil
}

func (b *fakeBus) ReadFrame(timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	defer timer.Stop()

	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.queue) == 0 {
		if b.closed {
			return nil, transport.ErrClosed
		}
		if !time.Now().Before(deadline) {
			return nil, transport.ErrReadTimeout
		}
		b.cond.Wait()
	}
	raw := b.queue[0]
	b.queue = b.queue[1:]
	return raw, nil
}

func (b *fakeBus) Flush() ([][]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, transport.ErrClosed
	}
	b.flushes++
	frames := b.queue
	b.queue = nil
	return frames, nil
}

func (b *fakeBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.cond.Broadcast()
	return nil
}

func (b *fakeBus) writeCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.writes)
}

var errUnplugged = errors.New("device unplugged")

var _ transport.FrameReadWriter = (*fakeBus)(nil)
