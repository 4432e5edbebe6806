package clock

import (
	"context"
	"sync"
	"time"
)

// FrameSource paces the control loop: Next blocks until the next frame
// boundary. It is the only place the loop suspends while a trial is running.
type FrameSource interface {
	Next(ctx context.Context) error
	// Interval is the nominal frame duration.
	Interval() time.Duration
}

// IntervalForRate converts a refresh rate in Hz to a frame interval.
func IntervalForRate(hz int) time.Duration {
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}

// Ticker delivers frames from a time.Ticker.
type Ticker struct {
	ticker   *time.Ticker
	interval time.Duration
}

// NewTicker starts a ticker-driven frame source.
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{ticker: time.NewTicker(interval), interval: interval}
}

func (t *Ticker) Next(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return context.Cause(ctx)
	case <-t.ticker.C:
		return nil
	}
}

func (t *Ticker) Interval() time.Duration {
	return t.interval
}

// Stop releases the underlying ticker.
func (t *Ticker) Stop() {
	t.ticker.Stop()
}

// Simulated advances a Manual clock by one interval per frame and then runs
// the registered frame hooks in registration order. It never blocks.
type Simulated struct {
	clock    *Manual
	interval time.Duration

	mu     sync.Mutex
	hooks  []func()
	frames int64
}

// NewSimulated creates a frame source driving c.
func NewSimulated(c *Manual, interval time.Duration) *Simulated {
	return &Simulated{clock: c, interval: interval}
}

// OnFrame registers fn to run after every simulated frame.
func (s *Simulated) OnFrame(fn func()) {
	s.mu.Lock()
	s.hooks = append(s.hooks, fn)
	s.mu.Unlock()
}

func (s *Simulated) Next(ctx context.Context) error {
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	s.clock.Advance(s.interval)

	s.mu.Lock()
	s.frames++
	hooks := append([]func(){}, s.hooks...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	if ctx.Err() != nil {
		return context.Cause(ctx)
	}
	return nil
}

func (s *Simulated) Interval() time.Duration {
	return s.interval
}

// Frames returns the number of frames delivered so far.
func (s *Simulated) Frames() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
