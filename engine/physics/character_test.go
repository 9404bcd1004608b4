package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func characterWorld() (World, ColliderHandle) {
	w := NewWorld()
	// wall whose face is at x = 1.5
	NewPhysicsBody(w, BodyParams{
		Position: mgl32.Vec3{2, 0, 0},
		Scale:    mgl32.Vec3{0.5, 5, 50},
	})
	ch := w.AddCollider(ColliderDesc{
		Shape:       ShapeBall,
		Radius:      0.5,
		Restitution: 0.1,
		Friction:    0.1,
		Mass:        500,
		Translation: mgl32.Vec3{0, 0, 0},
	})
	return w, ch
}

func TestMoveCharacterFreePath(t *testing.T) {
	w, ch := characterWorld()
	possible, pos := w.MoveCharacter(ch, mgl32.Vec3{-3, 0, 1})

	assert.True(t, possible.ApproxEqualThreshold(mgl32.Vec3{-3, 0, 1}, 1e-5), "got %v", possible)
	assert.Equal(t, mgl32.Vec3{}, pos)
	assert.Equal(t, mgl32.Vec3{}, w.ColliderTranslation(ch), "MoveCharacter must not move the collider")
}

func TestMoveCharacterStopsAtWall(t *testing.T) {
	w, ch := characterWorld()
	possible, _ := w.MoveCharacter(ch, mgl32.Vec3{3, 0, 0})

	assert.InDelta(t, 1.0, possible.X(), float64(characterSkin+1e-4))
	assert.LessOrEqual(t, possible.X(), float32(1.0))
	assert.InDelta(t, 0, possible.Z(), 1e-5)
}

func TestMoveCharacterSlidesAlongWall(t *testing.T) {
	w, ch := characterWorld()
	possible, _ := w.MoveCharacter(ch, mgl32.Vec3{3, 0, 3})

	assert.InDelta(t, 1.0, possible.X(), float64(characterSkin+1e-4))
	assert.InDelta(t, 3, possible.Z(), 1e-3, "motion along the wall is kept")
}

func TestMoveCharacterAwayFromTouchingWall(t *testing.T) {
	w, ch := characterWorld()
	w.SetColliderTranslation(ch, mgl32.Vec3{1.0, 0, 0})

	possible, pos := w.MoveCharacter(ch, mgl32.Vec3{-2, 0, 0})
	assert.Equal(t, mgl32.Vec3{1.0, 0, 0}, pos)
	assert.True(t, possible.ApproxEqualThreshold(mgl32.Vec3{-2, 0, 0}, 1e-5))

	possible, _ = w.MoveCharacter(ch, mgl32.Vec3{2, 0, 0})
	assert.InDelta(t, 0, possible.X(), float64(characterSkin))
}

func TestMoveCharacterZeroIntent(t *testing.T) {
	w, ch := characterWorld()
	possible, _ := w.MoveCharacter(ch, mgl32.Vec3{})
	assert.Equal(t, mgl32.Vec3{}, possible)
}

func TestStandaloneColliderPushesDynamicBodies(t *testing.T) {
	w := NewWorld(WithGravity(mgl32.Vec3{}))
	ch := w.AddCollider(ColliderDesc{Shape: ShapeBall, Radius: 0.5})
	ball := NewPhysicsBody(w, BodyParams{Position: mgl32.Vec3{0.8, 0, 0}, Movable: true, BallRadius: 0.5})

	simulate(w, 0.5)

	assert.Equal(t, mgl32.Vec3{}, w.ColliderTranslation(ch))
	assert.GreaterOrEqual(t, ball.Translation(w).X(), float32(0.99))
}
