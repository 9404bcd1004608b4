package scene

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/assets"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/light"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/Carmen-Shannon/dreamscape/engine/player"
	"github.com/Carmen-Shannon/dreamscape/engine/scheduler"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = time.Second / 60

func newTestScene(t *testing.T, options ...SceneBuilderOption) (Scene, *scheduler.Scheduler[Scene]) {
	t.Helper()
	store := assets.NewStore()
	assets.RegisterBuiltins(store)
	s := NewScene("test", append([]SceneBuilderOption{WithAssets(store)}, options...)...)
	sched := scheduler.New[Scene]()
	RegisterCoreSystems(sched)
	return s, sched
}

func step(t *testing.T, s Scene, sched *scheduler.Scheduler[Scene], frames int) {
	t.Helper()
	for range frames {
		s.Queue().PushFrameTime(frame)
		require.NoError(t, sched.RunFrame(s))
	}
}

func TestCoreSystemOrder(t *testing.T) {
	_, sched := newTestScene(t)
	assert.Equal(t, []string{SystemDrainEvents, SystemFrameTime, SystemExitCheck}, sched.Systems(scheduler.PhasePreUpdate))
	assert.Equal(t, []string{
		SystemPhysicsStep, SystemPhysicsSync, SystemPlayer, SystemCameraResize, SystemLightOrbit,
	}, sched.Systems(scheduler.PhaseUpdate))
}

func TestPhysicsSyncMirrorsBodyPose(t *testing.T) {
	s, sched := newTestScene(t)
	start := transform.New(mgl32.Vec3{3, 10, -2}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
	e := s.SpawnBody(assets.ModelSphere, start, physics.BodyParams{Movable: true, BallRadius: 1})

	step(t, s, sched, 30)

	var synced int
	s.EachBody(func(tr *transform.Transform, b physics.PhysicsBody) {
		synced++
		pos := b.Translation(s.Physics())
		assert.Equal(t, pos, tr.Position())
		assert.True(t, tr.Matrix().Col(3).Vec3().ApproxEqual(pos))
		assert.Less(t, pos.Y(), float32(10), "the body fell")
	})
	assert.Equal(t, 1, synced)
	assert.True(t, s.World().Alive(e))
}

func TestDespawnRemovesBody(t *testing.T) {
	s, _ := newTestScene(t)
	e := s.SpawnBody(assets.ModelCube, transform.FromPosition(mgl32.Vec3{0, 0, 0}), physics.BodyParams{})
	var handle physics.BodyHandle
	s.EachBody(func(_ *transform.Transform, b physics.PhysicsBody) { handle = b.Handle })
	require.True(t, s.Physics().ContainsBody(handle))

	s.Despawn(e)
	assert.False(t, s.World().Alive(e))
	assert.False(t, s.Physics().ContainsBody(handle))
	assert.Zero(t, s.Physics().BodyCount())

	s.Despawn(e)
}

func TestSpawnUnknownModelPanics(t *testing.T) {
	s, _ := newTestScene(t)
	assert.Panics(t, func() { s.SpawnModel("missing", transform.Identity()) })
	assert.Panics(t, func() { s.SpawnSkybox("missing") })
}

func TestEachInstanceSeesModelsAndBodies(t *testing.T) {
	s, _ := newTestScene(t)
	s.SpawnModel(assets.ModelCube, transform.Identity())
	s.SpawnBody(assets.ModelSphere, transform.Identity(), physics.BodyParams{BallRadius: 1})
	s.SpawnLight(light.New(), transform.FromPosition(mgl32.Vec3{5, 10, 5}))

	cube := s.Assets().Registry().MustLookup(assets.ModelCube)
	seen := map[model.ModelID]int{}
	s.EachInstance(func(spec model.ModelSpec, _ *transform.Transform) { seen[spec.ID]++ })
	assert.Len(t, seen, 2)
	assert.Equal(t, 1, seen[cube])

	lights := s.Lights(nil)
	require.Len(t, lights, 1)
	assert.Equal(t, [3]float32{5, 10, 5}, lights[0].Position)
}

func TestEscapeStopsRunning(t *testing.T) {
	s, sched := newTestScene(t)
	s.Queue().PushKey(common.KeyEsc, true)
	step(t, s, sched, 1)
	assert.False(t, s.State().Running)
	assert.Equal(t, "escape pressed", s.State().Reason)

	s.State().Stop("second reason")
	assert.Equal(t, "escape pressed", s.State().Reason)
}

func TestPlayerMovesAfterPhysics(t *testing.T) {
	s, sched := newTestScene(t)
	p, tr := player.Spawn(s.Physics(), mgl32.Vec3{0, 1.7, 0}, mgl32.Vec3{0, 1.7, -100})
	s.SpawnPlayer(p, camera.New(), tr)

	s.Queue().PushKey(common.KeyW, true)
	step(t, s, sched, 30)

	_, pt, ok := s.ActivePlayer()
	require.True(t, ok)
	assert.Less(t, pt.Position().Z(), float32(-1), "W moves toward -Z")
	assert.InDelta(t, 1.7, pt.Position().Y(), 1e-3)
}

func TestViewOverrideBypassesMovement(t *testing.T) {
	pose := player.ViewOverride{
		Position:   mgl32.Vec3{1, 2, 3},
		Rotation:   mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Ident4(),
	}
	s, sched := newTestScene(t, WithViewSource(func() (player.ViewOverride, bool) { return pose, true }))
	p, tr := player.Spawn(s.Physics(), mgl32.Vec3{0, 1.7, 0}, mgl32.Vec3{0, 1.7, -100})
	s.SpawnPlayer(p, camera.New(), tr)

	s.Queue().PushKey(common.KeyW, true)
	step(t, s, sched, 3)

	_, pt, _ := s.ActivePlayer()
	assert.Equal(t, pose.Position, pt.Position())
	cam, _, ok := s.ActiveCamera()
	require.True(t, ok)
	assert.True(t, cam.HasProjectionOverride())
}

func TestResizeUpdatesCameraAspect(t *testing.T) {
	s, sched := newTestScene(t)
	p, tr := player.Spawn(s.Physics(), mgl32.Vec3{}, mgl32.Vec3{0, 0, -1})
	s.SpawnPlayer(p, camera.New(), tr)

	s.Queue().PushResize(1600, 800)
	step(t, s, sched, 1)

	cam, _, _ := s.ActiveCamera()
	assert.InDelta(t, 2, cam.Aspect(), 1e-6)
}

func TestLightsOrbit(t *testing.T) {
	s, sched := newTestScene(t)
	s.SpawnLight(light.New(), transform.FromPosition(mgl32.Vec3{5, 10, 0}))
	step(t, s, sched, 60)

	s.EachLight(func(tr *transform.Transform, _ *light.Light) {
		pos := tr.Position()
		assert.InDelta(t, 5, mgl32.Vec2{pos.X(), pos.Z()}.Len(), 1e-3, "radius kept")
		assert.InDelta(t, 10, pos.Y(), 1e-4)
		assert.Less(t, pos.Z(), float32(-1), "moved off the start point")
	})
}
