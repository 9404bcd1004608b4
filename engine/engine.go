// Package engine drives the frame loop: it polls the window, runs the scheduler's phases
// against the scene and shuts everything down when the running flag clears.
package engine

import (
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"github.com/Carmen-Shannon/dreamscape/engine/profiler"
	"github.com/Carmen-Shannon/dreamscape/engine/scene"
	"github.com/Carmen-Shannon/dreamscape/engine/scheduler"
	"github.com/Carmen-Shannon/dreamscape/engine/window"
	"go.uber.org/zap"
)

// ErrPanic wraps a panic recovered from a system during a frame.
var ErrPanic = errors.New("system panicked")

// Releaser frees GPU or platform resources at shutdown.
type Releaser interface {
	Release()
}

// engine implements the Engine interface.
type engine struct {
	window   window.Window
	scene    scene.Scene
	sched    *scheduler.Scheduler[scene.Scene]
	releases []Releaser

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	sleep            func(time.Duration)
}

// Engine is the main entry point. It owns the loop that runs one scheduler frame per
// window poll until the scene's running flag clears.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	Window() window.Window

	// Scene returns the scene every system runs against.
	Scene() scene.Scene

	// Scheduler returns the scheduler so callers can register systems before Run.
	Scheduler() *scheduler.Scheduler[scene.Scene]

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run executes frames until the running flag clears or the window closes, then releases
	// everything registered with WithRelease and closes the window.
	//
	// Returns:
	//   - error: the fatal error that stopped the loop (a system error or a recovered panic), or nil
	Run() error

	// Quit clears the running flag. The current frame completes before the loop exits.
	// Must be called from the loop's thread, typically from a system.
	Quit()
}

// NewEngine creates a new Engine with the provided options.
// A scene and scheduler are created when none are given; the scheduler always has the
// core scene systems registered by the caller or by this constructor.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		profiler: profiler.NewProfiler(time.Second),
		sleep:    time.Sleep,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.scene == nil {
		e.scene = scene.NewScene("main")
	}
	if e.sched == nil {
		e.sched = scheduler.New[scene.Scene]()
		scene.RegisterCoreSystems(e.sched)
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Scheduler() *scheduler.Scheduler[scene.Scene] {
	return e.sched
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	e.renderFrameLimit = frameDuration(fps)
}

func (e *engine) Quit() {
	e.scene.State().Stop("quit requested")
}

func (e *engine) Run() error {
	defer e.shutdown()

	state := e.scene.State()
	for state.Running {
		if e.window != nil && !e.window.PollEvents() {
			state.Stop("window closed")
			break
		}

		start := time.Now()
		if err := e.runFrame(); err != nil {
			state.Stop("fatal error")
			logger.Log.Error("frame failed, stopping", zap.Uint64("frame", e.sched.Frames()), zap.Error(err))
			return err
		}

		if e.profilingEnabled {
			e.profiler.Tick()
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				e.sleep(remaining)
			}
		}
	}

	logger.Log.Info("engine stopped",
		zap.String("reason", state.Reason),
		zap.Uint64("frames", e.sched.Frames()),
	)
	return nil
}

// runFrame runs one scheduler frame, converting a panic into ErrPanic.
func (e *engine) runFrame() (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("recovered from panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return e.sched.RunFrame(e.scene)
}

// shutdown releases registered resources in reverse order, then closes the window.
func (e *engine) shutdown() {
	for i := len(e.releases) - 1; i >= 0; i-- {
		e.releases[i].Release()
	}
	e.releases = nil
	if e.window != nil && e.window.IsRunning() {
		if err := e.window.Close(); err != nil {
			logger.Log.Warn("failed to close window", zap.Error(err))
		}
	}
	logger.Sync()
}

func frameDuration(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / fps)
}
