// Package input buffers timestamped key events for the control loop.
package input

import (
	"sync"
	"time"

	"github.com/IngeLeu/OSARI/internal/clock"
	"github.com/IngeLeu/OSARI/internal/domain"
)

// Event is one press of a key, and its release once it has happened.
type Event struct {
	Key        domain.Key
	PressedAt  time.Time
	ReleasedAt *time.Time
}

// Released reports whether the key has been let go.
func (e Event) Released() bool {
	return e.ReleasedAt != nil
}

// ReleasedSince returns the release instant relative to ref, clamped at zero.
// ok is false while the key is still down.
func (e Event) ReleasedSince(ref time.Time) (d time.Duration, ok bool) {
	if e.ReleasedAt == nil {
		return 0, false
	}
	d = e.ReleasedAt.Sub(ref)
	if d < 0 {
		d = 0
	}
	return d, true
}

// Source is the input contract consumed by the trial executor and the
// sequencer. Poll never consumes events; only ClearBuffered does.
type Source interface {
	Start()
	Stop()
	Poll(keys ...domain.Key) []Event
	ClearBuffered()
}

// Buffer is a Source fed by Press and Release calls from another goroutine
// (the display connection or a simulated participant).
type Buffer struct {
	clock        clock.Clock
	interruptKey domain.Key
	onInterrupt  func()

	mu      sync.Mutex
	started bool
	events  []Event
	open    map[domain.Key]int
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithInterrupt calls fn whenever key is pressed, in every state and whether
// or not the buffer is started. The key itself is never buffered.
func WithInterrupt(key domain.Key, fn func()) Option {
	return func(b *Buffer) {
		b.interruptKey = key
		b.onInterrupt = fn
	}
}

// NewBuffer creates a stopped buffer stamping events with c.
func NewBuffer(c clock.Clock, opts ...Option) *Buffer {
	b := &Buffer{
		clock: c,
		open:  make(map[domain.Key]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start opens the window during which events are buffered.
func (b *Buffer) Start() {
	b.mu.Lock()
	b.started = true
	b.mu.Unlock()
}

// Stop closes the window and discards everything buffered.
func (b *Buffer) Stop() {
	b.mu.Lock()
	b.started = false
	b.events = nil
	b.open = make(map[domain.Key]int)
	b.mu.Unlock()
}

// ClearBuffered drops completed press/release pairs. Keys that are still down
// stay buffered so that their release is not lost.
func (b *Buffer) ClearBuffered() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var kept []Event
	open := make(map[domain.Key]int)
	for _, ev := range b.events {
		if !ev.Released() {
			open[ev.Key] = len(kept)
			kept = append(kept, ev)
		}
	}
	b.events = kept
	b.open = open
}

// Poll returns a copy of the buffered events for the given keys, or for all
// keys when none are given, in press order.
func (b *Buffer) Poll(keys ...domain.Key) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Event
	for _, ev := range b.events {
		if len(keys) > 0 && !containsKey(keys, ev.Key) {
			continue
		}
		cp := ev
		if ev.ReleasedAt != nil {
			t := *ev.ReleasedAt
			cp.ReleasedAt = &t
		}
		out = append(out, cp)
	}
	return out
}

// Press records a key going down. Repeated presses of a key that is already
// down (keyboard auto-repeat) are ignored.
func (b *Buffer) Press(key domain.Key) {
	if b.interruptKey != "" && key == b.interruptKey {
		if b.onInterrupt != nil {
			b.onInterrupt()
		}
		return
	}

	now := b.clock.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return
	}
	if _, down := b.open[key]; down {
		return
	}
	b.open[key] = len(b.events)
	b.events = append(b.events, Event{Key: key, PressedAt: now})
}

// Release records a key going up. A release without a buffered press is
// discarded.
func (b *Buffer) Release(key domain.Key) {
	now := b.clock.Now()
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return
	}
	idx, down := b.open[key]
	if !down {
		return
	}
	b.events[idx].ReleasedAt = &now
	delete(b.open, key)
}

func containsKey(keys []domain.Key, k domain.Key) bool {
	for _, key := range keys {
		if key == k {
			return true
		}
	}
	return false
}
