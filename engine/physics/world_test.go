package physics

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const step = float32(1.0 / 60.0)

func simulate(w World, seconds float32) {
	for n := int(seconds / step); n > 0; n-- {
		w.Update(step)
	}
}

func floor(w World) PhysicsBody {
	return NewPhysicsBody(w, BodyParams{
		Scale: mgl32.Vec3{100, 0.5, 100},
	})
}

func quadMesh() *CollisionMesh {
	return &CollisionMesh{
		Vertices: []mgl32.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}},
		Indices:  []uint32{0, 3, 2, 0, 2, 1},
	}
}

func TestBallSettlesOnBox(t *testing.T) {
	w := NewWorld()
	floor(w)
	ball := NewPhysicsBody(w, BodyParams{
		Position:   mgl32.Vec3{0, 0.5 + 0.5 + 2, 0},
		Scale:      mgl32.Vec3{1, 1, 1},
		Movable:    true,
		BallRadius: 0.5,
	})

	simulate(w, 2)

	pos := ball.Translation(w)
	assert.InDelta(t, 1.0, pos.Y(), 0.01, "ball should rest on the box top")
	assert.InDelta(t, 0, pos.X(), 1e-3)
	assert.InDelta(t, 0, pos.Z(), 1e-3)
}

func TestBallSleepsAfterSettling(t *testing.T) {
	w := NewWorld()
	floor(w)
	ball := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0, 2, 0}, Movable: true, BallRadius: 0.5})

	simulate(w, 4)

	assert.True(t, w.IsSleeping(ball.Handle))
	before := ball.Translation(w)
	simulate(w, 1)
	assert.Equal(t, before, ball.Translation(w))
}

func TestBoxSettlesOnBox(t *testing.T) {
	w := NewWorld()
	floor(w)
	box := NewPhysicsBody(w, BodyParams{
		Position: mgl32.Vec3{0, 10, 0},
		Scale:    mgl32.Vec3{1, 1, 1},
		Movable:  true,
	})

	simulate(w, 3)

	assert.InDelta(t, 1.5, box.Translation(w).Y(), 0.02)
	assert.True(t, box.Rotation(w).ApproxEqualThreshold(mgl32.QuatIdent(), 1e-3))
}

func TestBallSettlesOnTriMesh(t *testing.T) {
	w := NewWorld()
	ground := NewPhysicsBody(w, BodyParams{
		Scale:         mgl32.Vec3{10, 1, 10},
		CollisionMesh: quadMesh(),
	})
	ball := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{2, 3, -3}, Movable: true, BallRadius: 0.5})

	simulate(w, 2)

	assert.InDelta(t, 0.5, ball.Translation(w).Y(), 0.01)
	assert.Equal(t, 2, w.Collider(ground.Collider).TriangleCount)
}

func TestGravityScaleSlowsFall(t *testing.T) {
	w := NewWorld()
	slow := float32(0.005)
	a := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0, 50, 0}, Movable: true, BallRadius: 0.2})
	b := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{10, 50, 0}, Movable: true, BallRadius: 0.2, GravityScale: &slow})

	simulate(w, 1)

	fallA := 50 - a.Translation(w).Y()
	fallB := 50 - b.Translation(w).Y()
	assert.InDelta(t, 4.9, fallA, 0.2)
	assert.InDelta(t, fallA*slow, fallB, 0.01)
}

func TestFixedBodyNeverMoves(t *testing.T) {
	w := NewWorld()
	f := floor(w)
	NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0, 3, 0}, Movable: true, BallRadius: 0.5})

	simulate(w, 1)

	assert.Equal(t, mgl32.Vec3{}, f.Translation(w))
	assert.Equal(t, BodyTypeFixed, w.BodyType(f.Handle))
}

func TestColliderPolicy(t *testing.T) {
	mesh := quadMesh()
	scale := mgl32.Vec3{2, 3, 4}

	tests := []struct {
		name        string
		params      BodyParams
		shape       ShapeType
		restitution float32
		friction    float32
	}{
		{"mesh wins over ball", BodyParams{Scale: scale, CollisionMesh: mesh, BallRadius: 1}, ShapeTriMesh, 0.2, 0.7},
		{"ball", BodyParams{Scale: scale, BallRadius: 1}, ShapeBall, 0.1, 0.5},
		{"box by default", BodyParams{Scale: scale}, ShapeBox, 0.2, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := ColliderFor(tt.params)
			assert.Equal(t, tt.shape, desc.Shape)
			assert.Equal(t, tt.restitution, desc.Restitution)
			assert.Equal(t, tt.friction, desc.Friction)
		})
	}

	desc := ColliderFor(BodyParams{Scale: scale, CollisionMesh: mesh})
	assert.Equal(t, mgl32.Vec3{2, 0, -4}, desc.Mesh.Vertices[1], "vertices are scaled componentwise")
	assert.Equal(t, mesh.Indices, desc.Mesh.Indices)
	assert.Equal(t, mgl32.Vec3{1, 0, -1}, mesh.Vertices[1], "source mesh is left untouched")

	assert.Equal(t, scale, ColliderFor(BodyParams{Scale: scale}).HalfExtents)

	w := NewWorld()
	ball := NewPhysicsBody(w, BodyParams{Movable: true, BallRadius: 1})
	assert.Equal(t, BallMass, w.Collider(ball.Collider).Mass)
}

func TestBodyForDefaults(t *testing.T) {
	desc := BodyFor(BodyParams{Position: mgl32.Vec3{1, 2, 3}, Movable: true})
	assert.Equal(t, BodyTypeDynamic, desc.Type)
	assert.Equal(t, float32(1), desc.GravityScale)
	assert.Equal(t, BodyTypeFixed, BodyFor(BodyParams{}).Type)
}

func TestAxisAngleRotation(t *testing.T) {
	w := NewWorld()
	b := NewPhysicsBody(w, BodyParams{
		Scale:         mgl32.Vec3{1, 1, 1},
		RotationAxis:  mgl32.Vec3{0, 2, 0},
		RotationAngle: math32.Pi / 2,
	})
	want := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 1, 0})
	assert.True(t, w.BodyRotation(b.Handle).ApproxEqualThreshold(want, 1e-6))
}

func TestSyncRotationInversionOption(t *testing.T) {
	rot := mgl32.QuatRotate(0.7, mgl32.Vec3{1, 0, 0})
	params := BodyParams{Scale: mgl32.Vec3{1, 1, 1}, RotationAxis: mgl32.Vec3{1, 0, 0}, RotationAngle: 0.7}

	plain := NewWorld()
	b := NewPhysicsBody(plain, params)
	assert.True(t, b.Rotation(plain).ApproxEqualThreshold(rot, 1e-6))

	inverted := NewWorld(WithInvertedSyncRotation(true))
	b = NewPhysicsBody(inverted, params)
	assert.True(t, b.Rotation(inverted).ApproxEqualThreshold(rot.Inverse(), 1e-6))
}

func TestStaleHandlePanics(t *testing.T) {
	w := NewWorld()
	b := NewPhysicsBody(w, BodyParams{Movable: true, BallRadius: 1})
	b.Remove(w)

	assert.False(t, w.ContainsBody(b.Handle))
	assert.Panics(t, func() { w.BodyTranslation(b.Handle) })
	assert.Panics(t, func() { w.Collider(b.Collider) })
	assert.Panics(t, func() { w.RemoveBody(b.Handle) })
	assert.Panics(t, func() { w.BodyTranslation(BodyHandle{}) })
	assert.Equal(t, 0, w.BodyCount())
	assert.Equal(t, 0, w.ColliderCount())

	reused := NewPhysicsBody(w, BodyParams{Movable: true, BallRadius: 1})
	assert.Equal(t, b.Handle.index, reused.Handle.index)
	assert.NotEqual(t, b.Handle, reused.Handle)
	assert.Panics(t, func() { w.BodyTranslation(b.Handle) })
}

func TestRemovingSupportWakesSleepers(t *testing.T) {
	w := NewWorld()
	f := floor(w)
	ball := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0, 2, 0}, Movable: true, BallRadius: 0.5})
	simulate(w, 4)
	require.True(t, w.IsSleeping(ball.Handle))

	f.Remove(w)
	simulate(w, 0.5)
	assert.False(t, w.IsSleeping(ball.Handle))
	assert.Less(t, ball.Translation(w).Y(), float32(0.5))
}

func TestUpdateIgnoresNonPositiveDelta(t *testing.T) {
	w := NewWorld()
	b := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0, 5, 0}, Movable: true, BallRadius: 1})
	w.Update(0)
	w.Update(-1)
	assert.Equal(t, mgl32.Vec3{0, 5, 0}, b.Translation(w))
}

func TestCastRay(t *testing.T) {
	w := NewWorld()
	f := floor(w)
	ball := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{5, 3, 0}, Movable: true, BallRadius: 1})

	hit, ok := w.CastRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0}, 100, ColliderHandle{})
	require.True(t, ok)
	assert.Equal(t, f.Collider, hit.Collider)
	assert.InDelta(t, 9.5, hit.Toi, 1e-4)
	assert.True(t, hit.Normal.ApproxEqual(mgl32.Vec3{0, 1, 0}))

	hit, ok = w.CastRay(mgl32.Vec3{5, 10, 0}, mgl32.Vec3{0, -1, 0}, 100, ColliderHandle{})
	require.True(t, ok)
	assert.Equal(t, ball.Collider, hit.Collider)
	assert.InDelta(t, 6, hit.Toi, 1e-4)

	hit, ok = w.CastRay(mgl32.Vec3{5, 10, 0}, mgl32.Vec3{0, -1, 0}, 100, ball.Collider)
	require.True(t, ok)
	assert.Equal(t, f.Collider, hit.Collider)

	_, ok = w.CastRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, 1, 0}, 100, ColliderHandle{})
	assert.False(t, ok)
	_, ok = w.CastRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0}, 5, ColliderHandle{})
	assert.False(t, ok)
}

func TestCastRayAgainstTriMesh(t *testing.T) {
	w := NewWorld()
	ground := NewPhysicsBody(w, BodyParams{Scale: mgl32.Vec3{10, 1, 10}, CollisionMesh: quadMesh()})
	hit, ok := w.CastRay(mgl32.Vec3{3, 4, -2}, mgl32.Vec3{0, -2, 0}, 10, ColliderHandle{})
	require.True(t, ok)
	assert.Equal(t, ground.Collider, hit.Collider)
	assert.InDelta(t, 2, hit.Toi, 1e-5)
}

func TestUpdateClampsLongDelta(t *testing.T) {
	fall := func(w World, dt float32) mgl32.Vec3 {
		b := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0, 50, 0}, Movable: true, BallRadius: 0.5})
		w.Update(dt)
		return b.Translation(w)
	}

	stalled := fall(NewWorld(), 30)
	assert.Equal(t, fall(NewWorld(), DefaultMaxDelta), stalled, "a stall simulates at most the max delta")
	assert.Greater(t, stalled.Y(), float32(49))

	longer := fall(NewWorld(WithMaxDelta(1)), 30)
	assert.Equal(t, fall(NewWorld(WithMaxDelta(1)), 1), longer)
	assert.Less(t, longer.Y(), stalled.Y())
}

func TestWorldOptions(t *testing.T) {
	w := NewWorld(WithSleeping(0.05, 0), WithSolverIterations(10), WithMaxSubstep(1.0/120))
	floor(w)
	ball := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0, 2, 0}, Movable: true, BallRadius: 0.5})

	simulate(w, 4)

	assert.False(t, w.IsSleeping(ball.Handle), "zero idle time disables sleeping")
	assert.InDelta(t, 1.0, ball.Translation(w).Y(), 0.01)
}
