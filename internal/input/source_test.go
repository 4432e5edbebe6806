package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IngeLeu/OSARI/internal/clock"
	"github.com/IngeLeu/OSARI/internal/domain"
)

func newTestBuffer(opts ...Option) (*Buffer, *clock.Manual) {
	c := clock.NewManual(time.Unix(0, 0))
	return NewBuffer(c, opts...), c
}

func TestBufferDiscardsEventsOutsideBracket(t *testing.T) {
	b, _ := newTestBuffer()

	b.Press(domain.KeySpace)
	b.Release(domain.KeySpace)
	assert.Empty(t, b.Poll())

	b.Start()
	b.Press(domain.KeySpace)
	b.Stop()
	assert.Empty(t, b.Poll())
}

func TestBufferPressReleaseTimestamps(t *testing.T) {
	b, c := newTestBuffer()
	b.Start()

	c.Advance(100 * time.Millisecond)
	b.Press(domain.KeySpace)
	events := b.Poll(domain.KeySpace)
	require.Len(t, events, 1)
	assert.False(t, events[0].Released())

	c.Reset()
	c.Advance(300 * time.Millisecond)
	b.Release(domain.KeySpace)

	events = b.Poll(domain.KeySpace)
	require.Len(t, events, 1)
	rt, ok := events[0].ReleasedSince(c.ResetAt())
	assert.True(t, ok)
	assert.Equal(t, 300*time.Millisecond, rt)
}

func TestBufferPollDoesNotConsume(t *testing.T) {
	b, _ := newTestBuffer()
	b.Start()
	b.Press(domain.KeySpace)
	b.Release(domain.KeySpace)

	assert.Len(t, b.Poll(domain.KeySpace), 1)
	assert.Len(t, b.Poll(domain.KeySpace), 1)
}

func TestBufferFiltersKeys(t *testing.T) {
	b, _ := newTestBuffer()
	b.Start()
	b.Press("a")
	b.Press(domain.KeySpace)

	assert.Len(t, b.Poll(), 2)
	events := b.Poll(domain.KeySpace)
	require.Len(t, events, 1)
	assert.Equal(t, domain.KeySpace, events[0].Key)
}

func TestBufferIgnoresAutoRepeat(t *testing.T) {
	b, _ := newTestBuffer()
	b.Start()
	b.Press(domain.KeySpace)
	b.Press(domain.KeySpace)
	b.Press(domain.KeySpace)
	assert.Len(t, b.Poll(), 1)
}

func TestClearBufferedKeepsHeldKeys(t *testing.T) {
	b, _ := newTestBuffer()
	b.Start()
	b.Press("a")
	b.Release("a")
	b.Press(domain.KeySpace)

	b.ClearBuffered()
	events := b.Poll()
	require.Len(t, events, 1)
	assert.Equal(t, domain.KeySpace, events[0].Key)

	b.Release(domain.KeySpace)
	events = b.Poll(domain.KeySpace)
	require.Len(t, events, 1)
	assert.True(t, events[0].Released())
}

func TestInterruptKeyFiresOutsideBracket(t *testing.T) {
	fired := 0
	b, _ := newTestBuffer(WithInterrupt(domain.KeyEscape, func() { fired++ }))

	b.Press(domain.KeyEscape)
	b.Start()
	b.Press(domain.KeyEscape)

	assert.Equal(t, 2, fired)
	assert.Empty(t, b.Poll())
}

func TestReleasedSinceClampsAtZero(t *testing.T) {
	ref := time.Unix(10, 0)
	before := ref.Add(-time.Second)
	ev := Event{Key: domain.KeySpace, PressedAt: before.Add(-time.Second), ReleasedAt: &before}

	d, ok := ev.ReleasedSince(ref)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d)
}
