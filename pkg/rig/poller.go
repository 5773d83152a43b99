package rig

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Poller defaults.
const (
	// DefaultPollInterval is the time between polls.
	DefaultPollInterval = 100 * time.Millisecond

	// DefaultPollWindow is how long one poll listens.
	DefaultPollWindow = 20 * time.Millisecond
)

// PollerConfig configures the transceive poller.
type PollerConfig struct {
	// Interval is the time between polls.
	Interval time.Duration

	// Window is how long each poll listens for frames.
	Window time.Duration
}

// Poller calls a poll function on a ticker. Polls run between
// transactions because the engine serializes them.
type Poller struct {
	config  PollerConfig
	poll    func(window time.Duration) (int, error)
	onError func(error)

	ticks  atomic.Uint64
	events atomic.Uint64
	errs   atomic.Uint64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPoller creates a poller. onError may be nil.
func NewPoller(config PollerConfig, poll func(time.Duration) (int, error), onError func(error)) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}
	if config.Window <= 0 {
		config.Window = DefaultPollWindow
	}
	return &Poller{
		config:  config,
		poll:    poll,
		onError: onError,
	}
}

// Start begins polling until Stop is called or ctx is done.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.loop(ctx, p.stopCh, p.doneCh)
}

// Stop stops polling and waits for a running poll to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	<-done
}

// IsRunning returns true if the poller is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// PollerStats are poller counters.
type PollerStats struct {
	Polls  uint64
	Events uint64
	Errors uint64
}

// Stats returns the poller counters.
func (p *Poller) Stats() PollerStats {
	return PollerStats{
		Polls:  p.ticks.Load(),
		Events: p.events.Load(),
		Errors: p.errs.Load(),
	}
}

func (p *Poller) loop(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			p.handleTick()
		}
	}
}

func (p *Poller) handleTick() {
	p.ticks.Add(1)
	n, err := p.poll(p.config.Window)
	p.events.Add(uint64(n))
	if err != nil {
		p.errs.Add(1)
		if p.onError != nil {
			p.onError(err)
		}
	}
}
