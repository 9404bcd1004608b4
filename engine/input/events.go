// Package input turns window callbacks into typed per-frame event buffers and held-input state.
package input

import (
	"sync"
	"time"
)

// EventKind identifies the payload of an Event.
type EventKind int

const (
	EventResize EventKind = iota
	EventKey
	EventMouseMove
	EventMouseButton
	EventFrameTime
)

// Event is one queued window or device event.
type Event struct {
	Kind EventKind
	// Width and Height are set for EventResize.
	Width, Height int
	// Code is the key code for EventKey or the button for EventMouseButton.
	Code    int
	Pressed bool
	// DX and DY are set for EventMouseMove.
	DX, DY float32
	// Duration is set for EventFrameTime.
	Duration time.Duration
}

// Queue collects events from window callbacks until the pre-update phase drains them.
// It is safe to push from any goroutine.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an event.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// PushResize queues a framebuffer resize.
func (q *Queue) PushResize(width, height int) {
	q.Push(Event{Kind: EventResize, Width: width, Height: height})
}

// PushKey queues a key press or release.
func (q *Queue) PushKey(code int, pressed bool) {
	q.Push(Event{Kind: EventKey, Code: code, Pressed: pressed})
}

// PushMouseMove queues a relative mouse movement.
func (q *Queue) PushMouseMove(dx, dy float32) {
	q.Push(Event{Kind: EventMouseMove, DX: dx, DY: dy})
}

// PushMouseButton queues a mouse button press or release.
func (q *Queue) PushMouseButton(button int, pressed bool) {
	q.Push(Event{Kind: EventMouseButton, Code: button, Pressed: pressed})
}

// PushFrameTime queues an externally measured frame duration.
func (q *Queue) PushFrameTime(d time.Duration) {
	q.Push(Event{Kind: EventFrameTime, Duration: d})
}

// Drain removes every queued event and appends it to dst in arrival order.
//
// Parameters:
//   - dst: the slice to append to, usually a reused buffer truncated to zero length
//
// Returns:
//   - []Event: dst with the drained events appended
func (q *Queue) Drain(dst []Event) []Event {
	q.mu.Lock()
	dst = append(dst, q.events...)
	q.events = q.events[:0]
	q.mu.Unlock()
	return dst
}

// ResizeEvent reports a new framebuffer size.
type ResizeEvent struct {
	Width, Height int
}

// KeyEvent reports a key transition.
type KeyEvent struct {
	Code    int
	Pressed bool
}

// MouseMoveEvent reports relative mouse movement.
type MouseMoveEvent struct {
	DX, DY float32
}

// MouseButtonEvent reports a mouse button transition.
type MouseButtonEvent struct {
	Button  int
	Pressed bool
}

// Events holds one frame's events split by type. It is rebuilt every pre-update phase.
type Events struct {
	Resizes      []ResizeEvent
	Keys         []KeyEvent
	MouseMoves   []MouseMoveEvent
	MouseButtons []MouseButtonEvent
	FrameTimes   []time.Duration

	raw []Event
}

// Reset clears every buffer, keeping capacity.
func (e *Events) Reset() {
	e.Resizes = e.Resizes[:0]
	e.Keys = e.Keys[:0]
	e.MouseMoves = e.MouseMoves[:0]
	e.MouseButtons = e.MouseButtons[:0]
	e.FrameTimes = e.FrameTimes[:0]
	e.raw = e.raw[:0]
}

// DrainFrom resets the buffers and fills them from q.
func (e *Events) DrainFrom(q *Queue) {
	e.Reset()
	e.raw = q.Drain(e.raw)
	for _, ev := range e.raw {
		switch ev.Kind {
		case EventResize:
			e.Resizes = append(e.Resizes, ResizeEvent{Width: ev.Width, Height: ev.Height})
		case EventKey:
			e.Keys = append(e.Keys, KeyEvent{Code: ev.Code, Pressed: ev.Pressed})
		case EventMouseMove:
			e.MouseMoves = append(e.MouseMoves, MouseMoveEvent{DX: ev.DX, DY: ev.DY})
		case EventMouseButton:
			e.MouseButtons = append(e.MouseButtons, MouseButtonEvent{Button: ev.Code, Pressed: ev.Pressed})
		case EventFrameTime:
			e.FrameTimes = append(e.FrameTimes, ev.Duration)
		}
	}
}

// LastResize returns the most recent resize of the frame.
func (e *Events) LastResize() (ResizeEvent, bool) {
	if len(e.Resizes) == 0 {
		return ResizeEvent{}, false
	}
	return e.Resizes[len(e.Resizes)-1], true
}

// LastFrameTime returns the most recent manual frame duration of the frame.
func (e *Events) LastFrameTime() (time.Duration, bool) {
	if len(e.FrameTimes) == 0 {
		return 0, false
	}
	return e.FrameTimes[len(e.FrameTimes)-1], true
}
