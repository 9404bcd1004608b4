package frametime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestDeltaIsZeroBeforeFirstUpdate(t *testing.T) {
	assert.Zero(t, New().Delta())
}

func TestWallClockDelta(t *testing.T) {
	clock := &fakeClock{t: time.Unix(100, 0)}
	f := New(WithClock(clock.now))

	clock.advance(20 * time.Millisecond)
	f.Update(nil)
	assert.InDelta(t, 0.020, f.Delta(), 1e-6)

	clock.advance(40 * time.Millisecond)
	f.Update(nil)
	assert.InDelta(t, 0.030, f.Delta(), 1e-6)
}

func TestWindowKeepsLastTenSamples(t *testing.T) {
	f := New(WithClock((&fakeClock{t: time.Unix(0, 0)}).now))
	long := 100 * time.Millisecond
	short := 10 * time.Millisecond

	f.Update(&long)
	for i := 0; i < FilterWidth; i++ {
		f.Update(&short)
	}
	assert.InDelta(t, 0.010, f.Delta(), 1e-6, "the long frame has left the window")
}

func TestManualDurationOverridesClock(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	f := New(WithClock(clock.now))

	clock.advance(time.Second)
	manual := 16 * time.Millisecond
	f.Update(&manual)
	assert.InDelta(t, 0.016, f.Delta(), 1e-6)
}
