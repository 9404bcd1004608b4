// Package window owns the GLFW window and forwards its callbacks into an input.Queue.
package window

import (
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/input"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides the platform window, its surface descriptor and input forwarding.
// All methods must be called from the thread that created the window.
type Window interface {
	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Queue returns the queue that window events are pushed into.
	//
	// Returns:
	//   - *input.Queue: the event queue
	Queue() *input.Queue

	// PollEvents processes pending platform events without blocking.
	//
	// Returns:
	//   - bool: false once the window has been asked to close
	PollEvents() bool

	// IsRunning returns true if the window is still open.
	IsRunning() bool

	// SetCursorCaptured hides and locks the cursor for mouse look, or releases it.
	SetCursorCaptured(captured bool)

	// SetTitle changes the title bar text.
	SetTitle(title string)

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// minWidth and minHeight bound interactive resizing.
	minWidth  int
	minHeight int

	// width and height are the current framebuffer size in pixels.
	width  int
	height int

	// captureCursor locks the cursor to the window on creation.
	captureCursor bool

	// queue receives every resize, key, mouse move and mouse button event.
	queue *input.Queue

	// cursor turns absolute cursor positions into relative motion.
	cursor cursorTracker

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window with the specified options.
// Applies default values first, then each option in order.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:         "dreamscape",
		minWidth:      320,
		minHeight:     200,
		width:         1280,
		height:        720,
		captureCursor: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.queue == nil {
		w.queue = input.NewQueue()
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) Queue() *input.Queue {
	return w.queue
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) SetCursorCaptured(captured bool) {
	w.cursor.reset()
	platformSetCursorCaptured(w, captured)
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	platformSetTitle(w, title)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// resized records the new framebuffer size and forwards it.
func (w *engineWindow) resized(width, height int) {
	w.width = width
	w.height = height
	w.queue.PushResize(width, height)
}

// cursorMoved forwards the motion since the previous position. The first sample after a
// reset only establishes the origin.
func (w *engineWindow) cursorMoved(x, y float64) {
	if dx, dy, ok := w.cursor.move(x, y); ok {
		w.queue.PushMouseMove(dx, dy)
	}
}

// cursorTracker converts absolute cursor positions to deltas.
type cursorTracker struct {
	x, y  float64
	valid bool
}

func (c *cursorTracker) move(x, y float64) (float32, float32, bool) {
	if !c.valid {
		c.x, c.y, c.valid = x, y, true
		return 0, 0, false
	}
	dx, dy := float32(x-c.x), float32(y-c.y)
	c.x, c.y = x, y
	return dx, dy, dx != 0 || dy != 0
}

func (c *cursorTracker) reset() {
	c.valid = false
}
