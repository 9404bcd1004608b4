package renderer

import (
	"github.com/Carmen-Shannon/dreamscape/engine/scene"
	"github.com/Carmen-Shannon/dreamscape/engine/scheduler"
)

// Names of the renderer systems.
const (
	SystemSurfaceResize = "surface-resize"
	SystemRender        = "render"
)

// RegisterSystems adds the renderer to a scheduler: the surface follows the frame's last
// resize during pre-update, and the frame is drawn in the render phase.
//
// Parameters:
//   - sched: the scheduler, with the core scene systems already registered
//   - r: the renderer
func RegisterSystems(sched *scheduler.Scheduler[scene.Scene], r Renderer) {
	sched.
		AddSystem(scheduler.PhasePreUpdate, SystemSurfaceResize, ResizeSystem(r), scheduler.After(scene.SystemDrainEvents)).
		AddSystem(scheduler.PhaseRender, SystemRender, r.Render)
}

// ResizeSystem returns a system that resizes the renderer when the window was resized this frame.
// Zero-sized frames (a minimized window) are ignored.
func ResizeSystem(r Renderer) scheduler.SystemFunc[scene.Scene] {
	return func(s scene.Scene) error {
		ev, ok := s.Events().LastResize()
		if !ok || ev.Width <= 0 || ev.Height <= 0 {
			return nil
		}
		return r.Resize(ev.Width, ev.Height)
	}
}
