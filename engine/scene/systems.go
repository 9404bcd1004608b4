package scene

import (
	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/light"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/Carmen-Shannon/dreamscape/engine/player"
	"github.com/Carmen-Shannon/dreamscape/engine/scheduler"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
)

// Names of the core systems, for After constraints in callers.
const (
	SystemDrainEvents  = "drain-events"
	SystemFrameTime    = "frame-time"
	SystemExitCheck    = "exit-check"
	SystemPhysicsStep  = "physics-step"
	SystemPhysicsSync  = "physics-sync"
	SystemPlayer       = "player-controller"
	SystemCameraResize = "camera-resize"
	SystemLightOrbit   = "light-orbit"
)

// RegisterCoreSystems adds the pre-update and update systems every scene runs, in order.
// Spawners and the renderer register their own systems around these.
//
// Parameters:
//   - sched: the scheduler to populate
func RegisterCoreSystems(sched *scheduler.Scheduler[Scene]) {
	sched.
		AddSystem(scheduler.PhasePreUpdate, SystemDrainEvents, DrainEvents).
		AddSystem(scheduler.PhasePreUpdate, SystemFrameTime, UpdateFrameTime, scheduler.After(SystemDrainEvents)).
		AddSystem(scheduler.PhasePreUpdate, SystemExitCheck, CheckExit, scheduler.After(SystemDrainEvents)).
		AddSystem(scheduler.PhaseUpdate, SystemPhysicsStep, StepPhysics).
		AddSystem(scheduler.PhaseUpdate, SystemPhysicsSync, SyncPhysics, scheduler.After(SystemPhysicsStep)).
		AddSystem(scheduler.PhaseUpdate, SystemPlayer, UpdatePlayer, scheduler.After(SystemPhysicsSync)).
		AddSystem(scheduler.PhaseUpdate, SystemCameraResize, ResizeCameras).
		AddSystem(scheduler.PhaseUpdate, SystemLightOrbit, OrbitLights)
}

// DrainEvents moves queued window events into this frame's typed buffers and updates input state.
func DrainEvents(s Scene) error {
	s.Events().DrainFrom(s.Queue())
	s.Input().Apply(s.Events())
	return nil
}

// UpdateFrameTime advances the frame-time filter, preferring a manual duration from the queue.
func UpdateFrameTime(s Scene) error {
	if d, ok := s.Events().LastFrameTime(); ok {
		s.FrameTime().Update(&d)
		return nil
	}
	s.FrameTime().Update(nil)
	return nil
}

// CheckExit clears the running flag when Escape is pressed.
func CheckExit(s Scene) error {
	if s.Input().KeyJustPressed(common.KeyEsc) {
		s.State().Stop("escape pressed")
	}
	return nil
}

// StepPhysics advances the physics world by the filtered frame time.
func StepPhysics(s Scene) error {
	s.Physics().Update(s.Delta())
	return nil
}

// SyncPhysics mirrors every rigid body's post-step pose into its entity's transform.
func SyncPhysics(s Scene) error {
	w := s.Physics()
	s.EachBody(func(t *transform.Transform, b physics.PhysicsBody) {
		t.SetPose(b.Translation(w), b.Rotation(w))
	})
	return nil
}

// UpdatePlayer runs the character controller, or applies the external view pose when one is present.
func UpdatePlayer(s Scene) error {
	p, t, ok := s.ActivePlayer()
	if !ok {
		return nil
	}
	if pose, ok := s.ViewOverride(); ok {
		cam, _, _ := s.ActiveCamera()
		player.ApplyViewOverride(t, cam, pose)
		return nil
	}
	p.Update(t, s.Input(), s.Delta(), s.Physics())
	return nil
}

// ResizeCameras updates every camera's aspect ratio from the frame's last resize.
func ResizeCameras(s Scene) error {
	r, ok := s.Events().LastResize()
	if !ok || r.Width <= 0 || r.Height <= 0 {
		return nil
	}
	aspect := float32(r.Width) / float32(r.Height)
	s.EachCamera(func(_ *transform.Transform, cam *camera.Camera) {
		cam.SetAspect(aspect)
	})
	return nil
}

// OrbitLights turns every light about the world origin.
func OrbitLights(s Scene) error {
	dt := s.Delta()
	s.EachLight(func(t *transform.Transform, _ *light.Light) {
		light.Orbit(t, dt)
	})
	return nil
}
