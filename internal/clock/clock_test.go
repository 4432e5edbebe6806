package clock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClockElapsedAndReset(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewManual(start)

	assert.Equal(t, time.Duration(0), c.Elapsed())
	c.Advance(300 * time.Millisecond)
	assert.Equal(t, 300*time.Millisecond, c.Elapsed())

	c.Reset()
	assert.Equal(t, time.Duration(0), c.Elapsed())
	assert.Equal(t, start.Add(300*time.Millisecond), c.ResetAt())

	c.Advance(-time.Second)
	assert.Equal(t, time.Duration(0), c.Elapsed())

	c.Advance(10 * time.Millisecond)
	assert.Equal(t, 10*time.Millisecond, c.Elapsed())
}

func TestSystemClockIsMonotonic(t *testing.T) {
	c := NewSystem()
	c.Reset()
	first := c.Elapsed()
	time.Sleep(2 * time.Millisecond)
	second := c.Elapsed()

	assert.GreaterOrEqual(t, first, time.Duration(0))
	assert.GreaterOrEqual(t, second, first)
}

func TestSimulatedFramesAdvanceClockAndRunHooks(t *testing.T) {
	c := NewManual(time.Unix(0, 0))
	frames := NewSimulated(c, 10*time.Millisecond)

	var seen []time.Duration
	frames.OnFrame(func() { seen = append(seen, c.Elapsed()) })

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, frames.Next(ctx))
	}

	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}, seen)
	assert.Equal(t, int64(3), frames.Frames())
}

func TestSimulatedFramesReturnCancelCause(t *testing.T) {
	cause := errors.New("interrupted")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	frames := NewSimulated(NewManual(time.Unix(0, 0)), time.Millisecond)
	assert.ErrorIs(t, frames.Next(ctx), cause)
}

func TestTickerFramesHonourContext(t *testing.T) {
	frames := NewTicker(time.Hour)
	defer frames.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, frames.Next(ctx), context.Canceled)
}

func TestIntervalForRate(t *testing.T) {
	assert.Equal(t, time.Second/60, IntervalForRate(0))
	assert.Equal(t, 10*time.Millisecond, IntervalForRate(100))
}
