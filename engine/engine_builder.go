package engine

import (
	"github.com/Carmen-Shannon/dreamscape/engine/scene"
	"github.com/Carmen-Shannon/dreamscape/engine/scheduler"
	"github.com/Carmen-Shannon/dreamscape/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithWindow sets the window polled once per frame. Without a window the engine runs headless
// until the running flag clears.
//
// Parameters:
//   - w: a created Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene sets the scene every system runs against.
//
// Parameters:
//   - s: the Scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithScheduler sets a scheduler with systems already registered.
// The caller is responsible for registering the core scene systems on it.
func WithScheduler(sched *scheduler.Scheduler[scene.Scene]) EngineBuilderOption {
	return func(e *engine) {
		e.sched = sched
	}
}

// WithRelease registers a resource released when Run returns. Resources are released in
// reverse registration order.
func WithRelease(r Releaser) EngineBuilderOption {
	return func(e *engine) {
		e.releases = append(e.releases, r)
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.renderFrameLimit = frameDuration(fps)
	}
}
