package input

import (
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainSplitsEventsByType(t *testing.T) {
	q := NewQueue()
	q.PushResize(800, 600)
	q.PushKey(common.KeyW, true)
	q.PushMouseMove(1, 2)
	q.PushMouseButton(common.MouseButtonLeft, true)
	q.PushResize(1024, 768)
	q.PushFrameTime(16 * time.Millisecond)

	var ev Events
	ev.DrainFrom(q)

	assert.Equal(t, []ResizeEvent{{800, 600}, {1024, 768}}, ev.Resizes)
	assert.Equal(t, []KeyEvent{{common.KeyW, true}}, ev.Keys)
	assert.Equal(t, []MouseMoveEvent{{1, 2}}, ev.MouseMoves)
	assert.Equal(t, []MouseButtonEvent{{common.MouseButtonLeft, true}}, ev.MouseButtons)

	last, ok := ev.LastResize()
	require.True(t, ok)
	assert.Equal(t, ResizeEvent{1024, 768}, last)
	d, ok := ev.LastFrameTime()
	require.True(t, ok)
	assert.Equal(t, 16*time.Millisecond, d)

	ev.DrainFrom(q)
	assert.Empty(t, ev.Resizes, "queue is empty after a drain")
	_, ok = ev.LastResize()
	assert.False(t, ok)
}

func TestQueueIsSafeForConcurrentPush(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.PushMouseMove(1, 0)
			}
		}()
	}
	wg.Wait()

	var ev Events
	ev.DrainFrom(q)
	assert.Len(t, ev.MouseMoves, 800)
}

func TestInputHeldAndEdgeState(t *testing.T) {
	q := NewQueue()
	in := NewInput()
	var ev Events

	q.PushKey(common.KeySpace, true)
	q.PushKey(common.KeyW, true)
	q.PushMouseMove(3, 4)
	q.PushMouseMove(1, -1)
	q.PushMouseButton(common.MouseButtonLeft, true)
	ev.DrainFrom(q)
	in.Apply(&ev)

	assert.True(t, in.SpaceJustPressed())
	assert.True(t, in.Movement().Forward)
	assert.True(t, in.Look())
	assert.True(t, in.ButtonDown(common.MouseButtonLeft))
	assert.False(t, in.ButtonDown(common.MouseButtonRight))
	dx, dy := in.MouseDelta()
	assert.Equal(t, float32(4), dx)
	assert.Equal(t, float32(3), dy)

	// repeat press while held is not a new edge
	q.PushKey(common.KeySpace, true)
	ev.DrainFrom(q)
	in.Apply(&ev)
	assert.False(t, in.SpaceJustPressed())
	assert.True(t, in.KeyDown(common.KeySpace))
	dx, dy = in.MouseDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)

	q.PushKey(common.KeyW, false)
	q.PushMouseButton(common.MouseButtonLeft, false)
	ev.DrainFrom(q)
	in.Apply(&ev)
	assert.Equal(t, Movement{}, in.Movement())
	assert.False(t, in.Look())
}
