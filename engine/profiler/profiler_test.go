package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleWaitsForInterval(t *testing.T) {
	start := time.Unix(0, 0)
	clock := start
	p := NewProfiler(time.Second)
	p.now = func() time.Time { return clock }
	p.lastTime = start

	for range 59 {
		clock = clock.Add(time.Second / 60)
		_, ok := p.sample()
		require.False(t, ok)
	}

	clock = start.Add(time.Second)
	stats, ok := p.sample()
	require.True(t, ok)
	assert.Equal(t, 60, stats.FrameSamples)
	assert.InDelta(t, 60, stats.FPS, 1e-9)
	assert.Positive(t, stats.HeapMB)

	clock = clock.Add(time.Millisecond)
	_, ok = p.sample()
	assert.False(t, ok, "the window restarts after reporting")
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, time.Second, NewProfiler(0).updateInterval)
}
