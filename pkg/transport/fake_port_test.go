package transport

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// fakePort is an in-memory Port. Reads drain queued chunks; an empty queue
// blocks for the read timeout and returns 0 bytes like a real serial port.
type fakePort struct {
	mu      sync.Mutex
	chunks  [][]byte
	written bytes.Buffer
	writes  int
	timeout time.Duration
	closed  bool
	resets  int
	rts     bool
	dtr     bool
	readErr error
}

func (p *fakePort) queue(chunks ...[]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chunks = append(p.chunks, chunks...)
}

func (p *fakePort) Read(b []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, errors.New("port closed")
	}
	if p.readErr != nil {
		err := p.readErr
		p.mu.Unlock()
		return 0, err
	}
	if len(p.chunks) > 0 {
		n := copy(b, p.chunks[0])
		if n < len(p.chunks[0]) {
			p.chunks[0] = p.chunks[0][n:]
		} else {
			p.chunks = p.chunks[1:]
		}
		p.mu.Unlock()
		return n, nil
	}
	wait := p.timeout
	p.mu.Unlock()

	time.Sleep(wait)
	return 0, nil
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, errors.New("port closed")
	}
	p.writes++
	return p.written.Write(b)
}

func (p *fakePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.timeout = t
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets++
	p.chunks = nil
	return nil
}

func (p *fakePort) SetRTS(v bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rts = v
	return nil
}

func (p *fakePort) SetDTR(v bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dtr = v
	return nil
}

var _ Port = (*fakePort)(nil)
