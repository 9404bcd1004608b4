// Package frametime smooths the per-frame delta time.
package frametime

import "time"

// FilterWidth is the number of raw deltas averaged into Delta.
const FilterWidth = 10

// FrameTime is a windowed mean over the most recent frame durations.
type FrameTime struct {
	delta   float32
	samples [FilterWidth]float32
	count   int
	next    int
	last    time.Time
	now     func() time.Time
}

// Option configures a FrameTime.
type Option func(*FrameTime)

// WithClock replaces time.Now, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(f *FrameTime) {
		f.now = now
	}
}

// New creates a FrameTime whose first measured frame starts now.
func New(options ...Option) *FrameTime {
	f := &FrameTime{now: time.Now}
	for _, opt := range options {
		opt(f)
	}
	f.last = f.now()
	return f
}

// Update records one frame.
//
// Parameters:
//   - manual: when non-nil, used as the frame duration instead of the wall clock
func (f *FrameTime) Update(manual *time.Duration) {
	now := f.now()
	d := now.Sub(f.last)
	if manual != nil {
		d = *manual
	}
	// last advances by d, not to now
	f.last = f.last.Add(d)

	f.samples[f.next] = float32(d.Seconds())
	f.next = (f.next + 1) % FilterWidth
	if f.count < FilterWidth {
		f.count++
	}

	var sum float32
	for i := 0; i < f.count; i++ {
		sum += f.samples[i]
	}
	f.delta = sum / float32(f.count)
}

// Delta returns the smoothed frame time in seconds. It is zero before the first Update.
func (f *FrameTime) Delta() float32 {
	return f.delta
}
