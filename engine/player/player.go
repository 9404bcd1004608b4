// Package player implements the first-person character controller: smoothed mouse look and
// collision-aware sliding movement through a kinematic ball collider.
package player

import (
	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/input"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Collider parameters of the player.
const (
	ColliderRadius      = float32(0.5)
	ColliderRestitution = float32(0.1)
	ColliderFriction    = float32(0.1)
	ColliderMass        = float32(500)
)

// Controller defaults.
const (
	DefaultMoveSpeed = float32(10)
	DefaultLookSpeed = float32(25)
	// PoleMargin keeps the view direction this many radians away from straight up or down.
	PoleMargin = float32(0.1)
)

// Mover is the part of physics.World the controller moves its collider through.
type Mover interface {
	MoveCharacter(h physics.ColliderHandle, desired mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3)
	SetColliderTranslation(h physics.ColliderHandle, pos mgl32.Vec3)
}

// Player is the controller component. It is paired with a transform.Transform and a camera.Camera.
type Player struct {
	collider physics.ColliderHandle

	hRotAcc        float32
	vRotAcc        float32
	translationAcc mgl32.Vec3

	moveSpeed float32
	lookSpeed float32
}

// New creates a Player driving the given collider.
//
// Parameters:
//   - collider: a standalone collider owned by the player
//   - options: functional options to configure the controller
//
// Returns:
//   - Player: the controller with empty accumulators
func New(collider physics.ColliderHandle, options ...PlayerBuilderOption) Player {
	p := Player{
		collider:  collider,
		moveSpeed: DefaultMoveSpeed,
		lookSpeed: DefaultLookSpeed,
	}
	for _, opt := range options {
		opt(&p)
	}
	return p
}

// Spawn adds the player's ball collider to w at pos and returns the controller together with a
// transform at pos looking at target.
//
// Parameters:
//   - w: the physics world
//   - pos: the eye position
//   - target: the point to look at
//   - options: functional options to configure the controller
//
// Returns:
//   - Player: the controller
//   - transform.Transform: the player's initial transform
func Spawn(w physics.World, pos, target mgl32.Vec3, options ...PlayerBuilderOption) (Player, transform.Transform) {
	h := w.AddCollider(physics.ColliderDesc{
		Shape:       physics.ShapeBall,
		Radius:      ColliderRadius,
		Restitution: ColliderRestitution,
		Friction:    ColliderFriction,
		Mass:        ColliderMass,
		Translation: pos,
	})
	t := transform.FromPosition(pos)
	t.LookAt(target)
	return New(h, options...), t
}

// Collider returns the handle of the player's collider.
func (p *Player) Collider() physics.ColliderHandle {
	return p.collider
}

// PendingTranslation returns the movement intent not yet applied to the transform.
func (p *Player) PendingTranslation() mgl32.Vec3 {
	return p.translationAcc
}

// Update runs one frame of the controller: look while the look input is held, then move.
//
// Parameters:
//   - t: the player's transform
//   - in: this frame's input state
//   - dt: filtered frame time in seconds
//   - m: the physics world
func (p *Player) Update(t *transform.Transform, in *input.Input, dt float32, m Mover) {
	if in.Look() {
		dx, dy := in.MouseDelta()
		p.Rotate(t, dx, dy, dt)
	}
	p.Translate(t, in.Movement(), dt, m)
}

// Rotate accumulates mouse movement and applies a damped share of it as yaw about world +Y and
// pitch about the local +X axis. Pitch is clamped against the current forward vector so the view
// never comes within PoleMargin of the poles.
//
// Parameters:
//   - t: the player's transform
//   - dx: horizontal mouse delta
//   - dy: vertical mouse delta
//   - dt: frame time in seconds
func (p *Player) Rotate(t *transform.Transform, dx, dy, dt float32) {
	angleToUp := common.AngleBetween(t.Forward(), mgl32.Vec3{0, 1, 0})
	p.vRotAcc += dy * dt
	if angleToUp+p.vRotAcc <= PoleMargin {
		p.vRotAcc = -(angleToUp - PoleMargin)
	} else if angleToUp+p.vRotAcc >= math32.Pi-PoleMargin {
		p.vRotAcc = (math32.Pi - PoleMargin) - angleToUp
	}

	k := p.damping(p.lookSpeed, dt)
	vRot := k * p.vRotAcc
	p.vRotAcc -= vRot

	p.hRotAcc += dx * dt
	hRot := k * p.hRotAcc
	p.hRotAcc -= hRot

	// right-handed: positive mouse motion turns clockwise
	t.RotateAxis(mgl32.Vec3{0, 1, 0}, -hRot)
	t.RotateLocalAxis(mgl32.Vec3{1, 0, 0}, -vRot)
}

// Translate adds the held movement keys to the intent accumulator, clamps the intent through the
// physics sliding move, then applies a damped share of it to the transform and the collider.
//
// Parameters:
//   - t: the player's transform
//   - mv: held movement keys
//   - dt: frame time in seconds
//   - m: the physics world
//
// Returns:
//   - mgl32.Vec3: the translation applied this frame
func (p *Player) Translate(t *transform.Transform, mv input.Movement, dt float32, m Mover) mgl32.Vec3 {
	var dir mgl32.Vec3
	if mv.Forward {
		dir = dir.Add(t.Forward())
	}
	if mv.Back {
		dir = dir.Sub(t.Forward())
	}
	if mv.Right {
		dir = dir.Add(t.Right())
	}
	if mv.Left {
		dir = dir.Sub(t.Right())
	}
	if mv.Up {
		dir = dir.Add(t.Up())
	}
	if mv.Down {
		dir = dir.Sub(t.Up())
	}
	if dir.Len() > common.Epsilon {
		p.translationAcc = p.translationAcc.Add(dir.Normalize().Mul(dt * p.moveSpeed))
	}

	possible, colliderPos := m.MoveCharacter(p.collider, p.translationAcc)
	p.translationAcc = possible

	step := p.translationAcc.Mul(p.damping(p.moveSpeed, dt))
	p.translationAcc = p.translationAcc.Sub(step)

	t.Translate(step)
	m.SetColliderTranslation(p.collider, colliderPos.Add(step))
	return step
}

// damping is the share of an accumulator consumed in one frame. It never exceeds 1 so a long
// frame cannot overshoot the clamped pitch.
func (p *Player) damping(speed, dt float32) float32 {
	return math32.Min(speed*dt, 1)
}

// ViewOverride is an externally tracked camera pose, e.g. from a head-mounted display.
// Position, Rotation and Projection describe the head. Eyes, when it holds one entry per
// viewport, gives the renderer each eye's own pose and projection.
type ViewOverride struct {
	Position   mgl32.Vec3
	Rotation   mgl32.Quat
	Projection mgl32.Mat4
	Eyes       []camera.Eye
}

// ApplyViewOverride sets the transform and camera verbatim from pose. Movement logic and physics
// are not touched.
//
// Parameters:
//   - t: the player's transform
//   - cam: the player's camera
//   - pose: the tracked pose
func ApplyViewOverride(t *transform.Transform, cam *camera.Camera, pose ViewOverride) {
	t.SetPose(pose.Position, pose.Rotation)
	cam.SetProjectionOverride(pose.Projection)
}

// Raycaster is the part of physics.World used for target queries.
type Raycaster interface {
	CastRay(origin, dir mgl32.Vec3, maxToi float32, exclude physics.ColliderHandle) (physics.RayHit, bool)
}

// Target returns what the player is looking at within maxDist, ignoring its own collider.
//
// Parameters:
//   - t: the player's transform
//   - r: the physics world
//   - maxDist: maximum distance to search
//
// Returns:
//   - physics.RayHit: the nearest hit
//   - bool: false when nothing is hit
func (p *Player) Target(t *transform.Transform, r Raycaster, maxDist float32) (physics.RayHit, bool) {
	return r.CastRay(t.Position(), t.Forward(), maxDist, p.collider)
}
