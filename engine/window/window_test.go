package window

import (
	"testing"

	"github.com/Carmen-Shannon/dreamscape/engine/input"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorTrackerFirstSampleSetsOrigin(t *testing.T) {
	var c cursorTracker
	_, _, ok := c.move(100, 50)
	assert.False(t, ok)

	dx, dy, ok := c.move(103, 46)
	require.True(t, ok)
	assert.Equal(t, float32(3), dx)
	assert.Equal(t, float32(-4), dy)

	_, _, ok = c.move(103, 46)
	assert.False(t, ok, "no motion, no event")

	c.reset()
	_, _, ok = c.move(0, 0)
	assert.False(t, ok, "a reset drops the jump to the new position")
}

func TestCallbacksPushIntoQueue(t *testing.T) {
	q := input.NewQueue()
	w := &engineWindow{queue: q}

	w.resized(800, 600)
	w.cursorMoved(10, 10)
	w.cursorMoved(15, 10)

	assert.Equal(t, 800, w.Width())
	assert.Equal(t, 600, w.Height())

	events := q.Drain(nil)
	require.Len(t, events, 2)
	assert.Equal(t, input.Event{Kind: input.EventResize, Width: 800, Height: 600}, events[0])
	assert.Equal(t, input.EventMouseMove, events[1].Kind)
	assert.Equal(t, float32(5), events[1].DX)
}

func TestWindowWithoutPlatformIsStopped(t *testing.T) {
	w := &engineWindow{queue: input.NewQueue()}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.Error(t, w.Close())
}

func TestWithSizeKeepsDefaultsForZero(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	WithSize(0, 900)(w)
	assert.Equal(t, 1280, w.width)
	assert.Equal(t, 900, w.height)
}
