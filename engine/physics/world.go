// Package physics owns the rigid bodies and colliders of a scene and advances them in time.
package physics

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Defaults of the world options. DefaultMaxDelta is the longest delta one Update simulates;
// a longer stall is dropped rather than replayed.
const (
	DefaultMaxSubstep       = float32(1.0 / 60.0)
	DefaultSolverIterations = 6
	DefaultMaxDelta         = float32(0.25)
	DefaultSleepThreshold   = float32(0.05)
	DefaultSleepTime        = float32(1.0)
)

const (
	// penetration allowed to persist, keeps resting contacts from flickering in and out
	penetrationSlop = float32(0.005)
	// fraction of the remaining penetration removed each substep
	positionCorrection = float32(0.8)
	// approach speeds below this do not bounce
	restitutionThreshold = float32(1.0)
	angularDamping       = float32(0.5)
)

// BodyType selects whether a body is simulated or immovable.
type BodyType int

const (
	// BodyTypeDynamic bodies are moved by gravity and contacts.
	BodyTypeDynamic BodyType = iota
	// BodyTypeFixed bodies never move and have infinite mass.
	BodyTypeFixed
)

// BodyDesc describes a rigid body to create.
type BodyDesc struct {
	// Type is Dynamic or Fixed.
	Type BodyType
	// Translation is the initial world position.
	Translation mgl32.Vec3
	// RotationAxis and RotationAngle give the initial orientation. A zero axis means no rotation.
	RotationAxis  mgl32.Vec3
	RotationAngle float32
	// GravityScale multiplies world gravity for this body.
	GravityScale float32
}

// ColliderDesc describes a collider to create, attached to a body or standalone.
type ColliderDesc struct {
	Shape ShapeType
	// Radius is used by ShapeBall.
	Radius float32
	// HalfExtents is used by ShapeBox.
	HalfExtents mgl32.Vec3
	// Mesh is used by ShapeTriMesh. Vertices are used as given, so scale them beforehand.
	Mesh *CollisionMesh
	// Restitution and Friction are combined with the other collider's values by averaging.
	Restitution float32
	Friction    float32
	// Mass overrides the mass derived from the shape volume at unit density when positive.
	Mass float32
	// Translation positions a standalone collider. Attached colliders follow their body.
	Translation mgl32.Vec3
}

// ColliderInfo is a read-only snapshot of a collider's construction parameters.
type ColliderInfo struct {
	Shape         ShapeType
	Radius        float32
	HalfExtents   mgl32.Vec3
	TriangleCount int
	Restitution   float32
	Friction      float32
	Mass          float32
	// Parent is the owning body, or the zero handle for a standalone collider.
	Parent BodyHandle
}

// World owns every rigid body and collider of a scene.
//
// Handles returned by World stay valid until the matching Remove call. Passing a removed or
// foreign handle to any method is a programming error and panics.
type World interface {
	// AddBody creates a rigid body with exactly one collider attached.
	//
	// Parameters:
	//   - body: the body description
	//   - collider: the description of the collider to attach
	//
	// Returns:
	//   - BodyHandle: handle of the new body
	//   - ColliderHandle: handle of the attached collider
	AddBody(body BodyDesc, collider ColliderDesc) (BodyHandle, ColliderHandle)

	// AddCollider creates a standalone collider that is not simulated. Dynamic bodies collide with
	// it as if it were fixed, and it can be moved with SetColliderTranslation or MoveCharacter.
	//
	// Parameters:
	//   - collider: the collider description
	//
	// Returns:
	//   - ColliderHandle: handle of the new collider
	AddCollider(collider ColliderDesc) ColliderHandle

	// RemoveBody removes a body and its collider. The handle becomes invalid.
	RemoveBody(h BodyHandle)

	// RemoveCollider removes a collider. Removing an attached collider leaves its body without one.
	RemoveCollider(h ColliderHandle)

	// Update advances the simulation by dt seconds, split into substeps no longer than the
	// configured maximum. dt is clamped to the maximum delta (0.25 s by default), so a stalled
	// frame costs a bounded number of substeps. Non-positive dt is ignored.
	Update(dt float32)

	// BodyTranslation returns the body's world position.
	BodyTranslation(h BodyHandle) mgl32.Vec3

	// BodyRotation returns the body's orientation.
	BodyRotation(h BodyHandle) mgl32.Quat

	// SyncRotation returns the rotation to mirror into a transform, inverted when the world was
	// built with WithInvertedSyncRotation(true).
	SyncRotation(h BodyHandle) mgl32.Quat

	// BodyVelocity returns the body's linear velocity.
	BodyVelocity(h BodyHandle) mgl32.Vec3

	// SetBodyVelocity replaces the body's linear velocity and wakes it.
	SetBodyVelocity(h BodyHandle, v mgl32.Vec3)

	// BodyType returns whether the body is Dynamic or Fixed.
	BodyType(h BodyHandle) BodyType

	// BodyCollider returns the collider attached to the body, or the zero handle if it was removed.
	BodyCollider(h BodyHandle) ColliderHandle

	// IsSleeping reports whether the body has been put to sleep.
	IsSleeping(h BodyHandle) bool

	// ContainsBody reports whether h refers to a live body. It never panics.
	ContainsBody(h BodyHandle) bool

	// ColliderTranslation returns the collider's world position.
	ColliderTranslation(h ColliderHandle) mgl32.Vec3

	// SetColliderTranslation teleports a collider. For an attached collider the body moves with it.
	// Sleeping bodies overlapping the new position are woken.
	SetColliderTranslation(h ColliderHandle, pos mgl32.Vec3)

	// Collider returns the construction parameters of a collider.
	Collider(h ColliderHandle) ColliderInfo

	// MoveCharacter sweeps the collider along desired and slides along whatever it hits.
	// The collider itself is not moved.
	//
	// Parameters:
	//   - h: the character's collider
	//   - desired: the translation the character wants to make
	//
	// Returns:
	//   - mgl32.Vec3: the translation that can be applied without penetrating other colliders
	//   - mgl32.Vec3: the collider's current position
	MoveCharacter(h ColliderHandle, desired mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3)

	// CastRay finds the nearest collider hit by a ray.
	//
	// Parameters:
	//   - origin: the ray start
	//   - dir: the ray direction; the hit distance is measured in multiples of its length
	//   - maxToi: the largest accepted time of impact
	//   - exclude: a collider to ignore (zero handle for none)
	//
	// Returns:
	//   - RayHit: the nearest hit
	//   - bool: false when nothing was hit
	CastRay(origin, dir mgl32.Vec3, maxToi float32, exclude ColliderHandle) (RayHit, bool)

	// Gravity returns the gravity vector.
	Gravity() mgl32.Vec3

	// BodyCount returns the number of live bodies.
	BodyCount() int

	// ColliderCount returns the number of live colliders, standalone ones included.
	ColliderCount() int
}

type rigidBody struct {
	kind         BodyType
	pos          mgl32.Vec3
	rot          mgl32.Quat
	vel          mgl32.Vec3
	angVel       mgl32.Vec3
	gravityScale float32
	invMass      float32
	invInertia   mgl32.Vec3
	collider     ColliderHandle
	sleeping     bool
	idle         float32
}

func (b *rigidBody) simulated() bool {
	return b != nil && b.kind == BodyTypeDynamic && !b.sleeping
}

func (b *rigidBody) wake() {
	b.sleeping = false
	b.idle = 0
}

type collider struct {
	shape       ShapeType
	radius      float32
	halfExtents mgl32.Vec3
	mesh        *triMesh
	restitution float32
	friction    float32
	mass        float32
	parent      BodyHandle
	pos         mgl32.Vec3
	rot         mgl32.Quat
	box         aabb
}

func (c *collider) refreshBounds() {
	switch c.shape {
	case ShapeBall:
		r := mgl32.Vec3{c.radius, c.radius, c.radius}
		c.box = aabb{min: c.pos.Sub(r), max: c.pos.Add(r)}
	case ShapeBox:
		c.box = orientedExtent(c.pos, c.rot, mgl32.Vec3{}, c.halfExtents)
	case ShapeTriMesh:
		center := c.mesh.min.Add(c.mesh.max).Mul(0.5)
		half := c.mesh.max.Sub(c.mesh.min).Mul(0.5)
		c.box = orientedExtent(c.pos, c.rot, center, half)
	}
}

// physicsWorld is the implementation of the World interface.
type physicsWorld struct {
	bodies    arena[rigidBody]
	colliders arena[collider]

	gravity            mgl32.Vec3
	invertSyncRotation bool
	maxSubstep         float32
	maxDelta           float32
	solverIterations   int
	sleepThreshold     float32
	sleepTime          float32

	// scratch reused across steps
	entries   []broadEntry
	manifolds []manifold
}

var _ World = &physicsWorld{}

// NewWorld creates an empty physics world.
//
// Parameters:
//   - options: functional options overriding gravity, substep length, solver iterations and sleeping
//
// Returns:
//   - World: the new world
func NewWorld(options ...WorldBuilderOption) World {
	w := &physicsWorld{
		gravity:          mgl32.Vec3{0, -9.81, 0},
		maxSubstep:       DefaultMaxSubstep,
		maxDelta:         DefaultMaxDelta,
		solverIterations: DefaultSolverIterations,
		sleepThreshold:   DefaultSleepThreshold,
		sleepTime:        DefaultSleepTime,
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *physicsWorld) mustBody(h BodyHandle) *rigidBody {
	b, ok := w.bodies.get(h.index, h.generation)
	if !ok {
		panic(fmt.Sprintf("physics: invalid or stale %s", h))
	}
	return b
}

func (w *physicsWorld) mustCollider(h ColliderHandle) *collider {
	c, ok := w.colliders.get(h.index, h.generation)
	if !ok {
		panic(fmt.Sprintf("physics: invalid or stale %s", h))
	}
	return c
}

func (w *physicsWorld) bodyOf(c *collider) *rigidBody {
	if c.parent.IsZero() {
		return nil
	}
	b, _ := w.bodies.get(c.parent.index, c.parent.generation)
	return b
}

func newCollider(desc ColliderDesc) collider {
	c := collider{
		shape:       desc.Shape,
		radius:      desc.Radius,
		halfExtents: desc.HalfExtents,
		restitution: desc.Restitution,
		friction:    desc.Friction,
		pos:         desc.Translation,
		rot:         mgl32.QuatIdent(),
	}
	if desc.Shape == ShapeTriMesh {
		c.mesh = newTriMesh(desc.Mesh)
	}
	return c
}

func axisAngle(axis mgl32.Vec3, angle float32) mgl32.Quat {
	if angle == 0 || axis.Len() < 1e-9 {
		return mgl32.QuatIdent()
	}
	return mgl32.QuatRotate(angle, axis.Normalize())
}

func (w *physicsWorld) AddBody(body BodyDesc, desc ColliderDesc) (BodyHandle, ColliderHandle) {
	c := newCollider(desc)
	b := rigidBody{
		kind:         body.Type,
		pos:          body.Translation,
		rot:          axisAngle(body.RotationAxis, body.RotationAngle),
		gravityScale: body.GravityScale,
	}

	volumeMass, inertia := massProperties(&c)
	c.mass = volumeMass
	if desc.Mass > 0 {
		inertia = inertia.Mul(desc.Mass / volumeMass)
		c.mass = desc.Mass
	}
	if b.kind == BodyTypeDynamic {
		b.invMass = 1 / c.mass
		for i := 0; i < 3; i++ {
			if inertia[i] > 0 {
				b.invInertia[i] = 1 / inertia[i]
			}
		}
	}

	bi, bg := w.bodies.insert(b)
	bh := BodyHandle{index: bi, generation: bg}

	c.parent = bh
	c.pos, c.rot = b.pos, b.rot
	c.refreshBounds()
	ci, cg := w.colliders.insert(c)
	ch := ColliderHandle{index: ci, generation: cg}

	w.mustBody(bh).collider = ch
	return bh, ch
}

func (w *physicsWorld) AddCollider(desc ColliderDesc) ColliderHandle {
	c := newCollider(desc)
	c.mass, _ = massProperties(&c)
	if desc.Mass > 0 {
		c.mass = desc.Mass
	}
	c.refreshBounds()
	ci, cg := w.colliders.insert(c)
	return ColliderHandle{index: ci, generation: cg}
}

func (w *physicsWorld) RemoveBody(h BodyHandle) {
	b := w.mustBody(h)
	if ch := b.collider; !ch.IsZero() {
		w.colliders.remove(ch.index, ch.generation)
	}
	w.bodies.remove(h.index, h.generation)
	w.wakeAll()
}

func (w *physicsWorld) RemoveCollider(h ColliderHandle) {
	c := w.mustCollider(h)
	if b := w.bodyOf(c); b != nil {
		b.collider = ColliderHandle{}
	}
	w.colliders.remove(h.index, h.generation)
	w.wakeAll()
}

func (w *physicsWorld) wakeAll() {
	w.bodies.each(func(_, _ uint32, b *rigidBody) {
		if b.sleeping {
			b.wake()
		}
	})
}

func (w *physicsWorld) BodyTranslation(h BodyHandle) mgl32.Vec3 {
	return w.mustBody(h).pos
}

func (w *physicsWorld) BodyRotation(h BodyHandle) mgl32.Quat {
	return w.mustBody(h).rot
}

func (w *physicsWorld) SyncRotation(h BodyHandle) mgl32.Quat {
	rot := w.mustBody(h).rot
	if w.invertSyncRotation {
		return rot.Inverse()
	}
	return rot
}

func (w *physicsWorld) BodyVelocity(h BodyHandle) mgl32.Vec3 {
	return w.mustBody(h).vel
}

func (w *physicsWorld) SetBodyVelocity(h BodyHandle, v mgl32.Vec3) {
	b := w.mustBody(h)
	if b.kind != BodyTypeDynamic {
		return
	}
	b.vel = v
	b.wake()
}

func (w *physicsWorld) BodyType(h BodyHandle) BodyType {
	return w.mustBody(h).kind
}

func (w *physicsWorld) BodyCollider(h BodyHandle) ColliderHandle {
	return w.mustBody(h).collider
}

func (w *physicsWorld) IsSleeping(h BodyHandle) bool {
	return w.mustBody(h).sleeping
}

func (w *physicsWorld) ContainsBody(h BodyHandle) bool {
	_, ok := w.bodies.get(h.index, h.generation)
	return ok
}

func (w *physicsWorld) ColliderTranslation(h ColliderHandle) mgl32.Vec3 {
	return w.mustCollider(h).pos
}

func (w *physicsWorld) SetColliderTranslation(h ColliderHandle, pos mgl32.Vec3) {
	c := w.mustCollider(h)
	c.pos = pos
	if b := w.bodyOf(c); b != nil {
		b.pos = pos
		b.wake()
	}
	c.refreshBounds()

	w.colliders.each(func(_, _ uint32, other *collider) {
		if other == c || !other.box.overlaps(c.box) {
			return
		}
		if b := w.bodyOf(other); b != nil && b.sleeping {
			b.wake()
		}
	})
}

func (w *physicsWorld) Collider(h ColliderHandle) ColliderInfo {
	c := w.mustCollider(h)
	info := ColliderInfo{
		Shape:       c.shape,
		Radius:      c.radius,
		HalfExtents: c.halfExtents,
		Restitution: c.restitution,
		Friction:    c.friction,
		Mass:        c.mass,
		Parent:      c.parent,
	}
	if c.mesh != nil {
		info.TriangleCount = len(c.mesh.tris)
	}
	return info
}

func (w *physicsWorld) Gravity() mgl32.Vec3 {
	return w.gravity
}

func (w *physicsWorld) BodyCount() int {
	return w.bodies.len()
}

func (w *physicsWorld) ColliderCount() int {
	return w.colliders.len()
}

func (w *physicsWorld) Update(dt float32) {
	if dt <= 0 {
		return
	}
	dt = math32.Min(dt, w.maxDelta)
	steps := int(math32.Ceil(dt / w.maxSubstep))
	if steps < 1 {
		steps = 1
	}
	h := dt / float32(steps)
	for i := 0; i < steps; i++ {
		w.step(h)
	}
}

// step is one substep: forces, contact generation, velocity solve, integration, position
// correction and sleeping, in that order.
func (w *physicsWorld) step(h float32) {
	damp := 1 / (1 + angularDamping*h)
	w.bodies.each(func(_, _ uint32, b *rigidBody) {
		if !b.simulated() {
			return
		}
		b.vel = b.vel.Add(w.gravity.Mul(b.gravityScale * h))
		b.angVel = b.angVel.Mul(damp)
	})

	w.findContacts()

	for it := 0; it < w.solverIterations; it++ {
		for i := range w.manifolds {
			w.manifolds[i].solveVelocity()
		}
	}

	w.bodies.each(func(_, _ uint32, b *rigidBody) {
		if !b.simulated() {
			return
		}
		b.pos = b.pos.Add(b.vel.Mul(h))
		if b.angVel.LenSqr() > 0 {
			spin := mgl32.Quat{W: 0, V: b.angVel.Mul(0.5 * h)}
			b.rot = b.rot.Add(spin.Mul(b.rot)).Normalize()
		}
	})

	for i := range w.manifolds {
		w.manifolds[i].correctPosition(h)
	}

	w.bodies.each(func(_, _ uint32, b *rigidBody) {
		if !b.simulated() || w.sleepTime <= 0 {
			return
		}
		if b.vel.Len() < w.sleepThreshold && b.angVel.Len() < w.sleepThreshold {
			b.idle += h
			if b.idle > w.sleepTime {
				b.sleeping = true
				b.vel = mgl32.Vec3{}
				b.angVel = mgl32.Vec3{}
			}
		} else {
			b.idle = 0
		}
	})

	w.syncColliders()
}

// syncColliders copies body poses onto attached colliders and refreshes their bounds.
func (w *physicsWorld) syncColliders() {
	w.colliders.each(func(_, _ uint32, c *collider) {
		b := w.bodyOf(c)
		if b == nil {
			return
		}
		c.pos, c.rot = b.pos, b.rot
		c.refreshBounds()
	})
}

type broadEntry struct {
	c    *collider
	body *rigidBody
}

// findContacts runs sweep-and-prune on the x axis followed by the narrowphase. Pairs where
// neither side is an awake dynamic body are skipped; an awake body touching a sleeping one wakes it.
func (w *physicsWorld) findContacts() {
	w.syncColliders()

	w.entries = w.entries[:0]
	w.colliders.each(func(_, _ uint32, c *collider) {
		w.entries = append(w.entries, broadEntry{c: c, body: w.bodyOf(c)})
	})
	slices.SortFunc(w.entries, func(a, b broadEntry) int {
		return cmp.Compare(a.c.box.min[0], b.c.box.min[0])
	})

	w.manifolds = w.manifolds[:0]
	for i := range w.entries {
		ea := &w.entries[i]
		for j := i + 1; j < len(w.entries); j++ {
			eb := &w.entries[j]
			if eb.c.box.min[0] > ea.c.box.max[0] {
				break
			}
			if !ea.c.box.overlaps(eb.c.box) {
				continue
			}
			if ea.body != nil && ea.body == eb.body {
				continue
			}
			if !ea.body.simulated() && !eb.body.simulated() {
				continue
			}
			ct, ok := collide(ea.c, eb.c)
			if !ok {
				continue
			}
			for _, b := range []*rigidBody{ea.body, eb.body} {
				if b != nil && b.sleeping {
					b.wake()
				}
			}
			w.manifolds = append(w.manifolds, newManifold(ea, eb, ct))
		}
	}
}

type manifold struct {
	a, b        *rigidBody
	normal      mgl32.Vec3
	depth       float32
	rA, rB      mgl32.Vec3
	friction    float32
	bounce      float32
	kn          float32
	normalTotal float32
}

func newManifold(ea, eb *broadEntry, ct contact) manifold {
	m := manifold{
		a:        dynamicOrNil(ea.body),
		b:        dynamicOrNil(eb.body),
		normal:   ct.normal,
		depth:    ct.depth,
		friction: (ea.c.friction + eb.c.friction) * 0.5,
	}
	if m.a != nil {
		m.rA = ct.point.Sub(m.a.pos)
	}
	if m.b != nil {
		m.rB = ct.point.Sub(m.b.pos)
	}
	m.kn = effectiveMass(m.a, m.rA, m.normal) + effectiveMass(m.b, m.rB, m.normal)

	restitution := (ea.c.restitution + eb.c.restitution) * 0.5
	if vn := m.relativeVelocity().Dot(m.normal); vn < -restitutionThreshold {
		m.bounce = -restitution * vn
	}
	return m
}

func dynamicOrNil(b *rigidBody) *rigidBody {
	if b == nil || b.kind != BodyTypeDynamic {
		return nil
	}
	return b
}

// relativeVelocity is the velocity of b's contact point relative to a's.
func (m *manifold) relativeVelocity() mgl32.Vec3 {
	return pointVelocity(m.b, m.rB).Sub(pointVelocity(m.a, m.rA))
}

// solveVelocity applies one sequential impulse for the normal and one clamped friction impulse.
// The accumulated normal impulse is kept non-negative so contacts only push.
func (m *manifold) solveVelocity() {
	if m.kn <= 0 {
		return
	}
	vn := m.relativeVelocity().Dot(m.normal)
	dj := (m.bounce - vn) / m.kn
	total := math32.Max(m.normalTotal+dj, 0)
	dj = total - m.normalTotal
	m.normalTotal = total
	p := m.normal.Mul(dj)
	applyImpulse(m.a, m.rA, p.Mul(-1))
	applyImpulse(m.b, m.rB, p)

	rel := m.relativeVelocity()
	tangent := rel.Sub(m.normal.Mul(rel.Dot(m.normal)))
	if tangent.Len() < 1e-6 {
		return
	}
	tangent = tangent.Normalize()
	kt := effectiveMass(m.a, m.rA, tangent) + effectiveMass(m.b, m.rB, tangent)
	if kt <= 0 {
		return
	}
	limit := m.friction * m.normalTotal
	jt := mgl32.Clamp(-rel.Dot(tangent)/kt, -limit, limit)
	p = tangent.Mul(jt)
	applyImpulse(m.a, m.rA, p.Mul(-1))
	applyImpulse(m.b, m.rB, p)
}

// correctPosition pushes the pair apart along the normal by a fraction of the penetration left
// after this substep's integration, split by inverse mass.
func (m *manifold) correctPosition(h float32) {
	var invA, invB float32
	if m.a != nil {
		invA = m.a.invMass
	}
	if m.b != nil {
		invB = m.b.invMass
	}
	if invA+invB == 0 {
		return
	}
	depth := m.depth - m.relativeVelocity().Dot(m.normal)*h
	corr := math32.Max(depth-penetrationSlop, 0) * positionCorrection / (invA + invB)
	if corr == 0 {
		return
	}
	if m.a != nil {
		m.a.pos = m.a.pos.Sub(m.normal.Mul(corr * invA))
	}
	if m.b != nil {
		m.b.pos = m.b.pos.Add(m.normal.Mul(corr * invB))
	}
}

func pointVelocity(b *rigidBody, r mgl32.Vec3) mgl32.Vec3 {
	if b == nil {
		return mgl32.Vec3{}
	}
	return b.vel.Add(b.angVel.Cross(r))
}

func applyImpulse(b *rigidBody, r, p mgl32.Vec3) {
	if b == nil || b.invMass == 0 {
		return
	}
	b.vel = b.vel.Add(p.Mul(b.invMass))
	b.angVel = b.angVel.Add(b.applyInvInertia(r.Cross(p)))
}

// applyInvInertia multiplies v by the world-space inverse inertia tensor R * I^-1 * R^T.
func (b *rigidBody) applyInvInertia(v mgl32.Vec3) mgl32.Vec3 {
	local := b.rot.Conjugate().Rotate(v)
	local = mgl32.Vec3{local[0] * b.invInertia[0], local[1] * b.invInertia[1], local[2] * b.invInertia[2]}
	return b.rot.Rotate(local)
}

func effectiveMass(b *rigidBody, r, n mgl32.Vec3) float32 {
	if b == nil || b.invMass == 0 {
		return 0
	}
	return b.invMass + b.applyInvInertia(r.Cross(n)).Cross(r).Dot(n)
}
