package scene

import (
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/assets"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/frametime"
	"github.com/Carmen-Shannon/dreamscape/engine/input"
	"github.com/Carmen-Shannon/dreamscape/engine/light"
	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/Carmen-Shannon/dreamscape/engine/player"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/mlange-42/ark/ecs"
	"go.uber.org/zap"
)

// Scene is the frame context handed to every scheduled system. It owns the entity store and the
// per-frame resources: physics world, asset store, input state and frame timing.
type Scene interface {
	// Name returns the name of the scene.
	Name() string

	// World returns the underlying entity store.
	World() *ecs.World

	// State returns the application state shared with the outer loop.
	State() *AppState

	// Physics returns the physics world.
	Physics() physics.World

	// Assets returns the model and texture store.
	Assets() assets.Store

	// Queue returns the event queue fed by window callbacks.
	Queue() *input.Queue

	// Events returns this frame's drained events.
	Events() *input.Events

	// Input returns the held key and mouse state.
	Input() *input.Input

	// FrameTime returns the frame-time filter.
	FrameTime() *frametime.FrameTime

	// Delta returns the filtered frame time in seconds.
	Delta() float32

	// AmbientColor returns the ambient light color.
	AmbientColor() [3]float32

	// SetAmbientColor sets the ambient light color.
	SetAmbientColor(color [3]float32)

	// ViewOverride returns this frame's externally supplied view pose, if a source is installed
	// and has one.
	ViewOverride() (player.ViewOverride, bool)

	// SpawnModel adds a visual-only entity.
	//
	// Parameters:
	//   - name: the registered model name
	//   - t: the entity transform
	//
	// Returns:
	//   - ecs.Entity: the new entity
	SpawnModel(name string, t transform.Transform) ecs.Entity

	// SpawnBody adds a physically simulated entity. The body is built from params, with the
	// collision mesh taken from the model when params carries none and no ball radius is set.
	//
	// Parameters:
	//   - name: the registered model name
	//   - t: the initial transform; its position and scale seed the body
	//   - params: the body parameters (Position and Scale are overwritten from t)
	//
	// Returns:
	//   - ecs.Entity: the new entity
	SpawnBody(name string, t transform.Transform, params physics.BodyParams) ecs.Entity

	// SpawnPlayer adds the camera-carrying player.
	SpawnPlayer(p player.Player, cam camera.Camera, t transform.Transform) ecs.Entity

	// SpawnLight adds a point light with a marker at its transform.
	SpawnLight(l light.Light, t transform.Transform) ecs.Entity

	// SpawnSkybox adds the skybox marker entity.
	SpawnSkybox(texture string) ecs.Entity

	// Despawn removes an entity, deleting its rigid body or player collider from the physics world.
	Despawn(e ecs.Entity)

	// EachInstance calls fn for every entity that has a model and a transform.
	EachInstance(fn func(spec model.ModelSpec, t *transform.Transform))

	// EachBody calls fn for every entity that has a rigid body and a transform.
	EachBody(fn func(t *transform.Transform, b physics.PhysicsBody))

	// EachLight calls fn for every light.
	EachLight(fn func(t *transform.Transform, l *light.Light))

	// EachCamera calls fn for every camera.
	EachCamera(fn func(t *transform.Transform, cam *camera.Camera))

	// ActiveCamera returns the player's camera and transform.
	ActiveCamera() (*camera.Camera, *transform.Transform, bool)

	// ActivePlayer returns the player and its transform.
	ActivePlayer() (*player.Player, *transform.Transform, bool)

	// Lights appends the GPU form of every light to dst.
	Lights(dst []light.GPULight) []light.GPULight

	// Skybox returns the texture name of the skybox, if one is spawned.
	Skybox() (string, bool)
}

// AppState carries the loop's running flag. Setting Running to false ends the outer loop after
// the current frame completes.
type AppState struct {
	Running bool
	// Reason records why Running was cleared.
	Reason string
}

// Stop clears the running flag, keeping the first reason given.
func (a *AppState) Stop(reason string) {
	if !a.Running {
		return
	}
	a.Running = false
	a.Reason = reason
	logger.Log.Info("stopping", zap.String("reason", reason))
}

type scene struct {
	name  string
	world *ecs.World
	state AppState

	physics physics.World
	assets  assets.Store
	queue   *input.Queue
	events  input.Events
	input   *input.Input
	time    *frametime.FrameTime

	ambientColor [3]float32
	viewSource   func() (player.ViewOverride, bool)

	modelMap  *ecs.Map2[transform.Transform, model.ModelSpec]
	bodyMap   *ecs.Map3[transform.Transform, model.ModelSpec, physics.PhysicsBody]
	playerMap *ecs.Map3[transform.Transform, camera.Camera, player.Player]
	lightMap  *ecs.Map2[transform.Transform, light.Light]
	skyMap    *ecs.Map1[Skybox]

	bodies  *ecs.Map[physics.PhysicsBody]
	players *ecs.Map[player.Player]

	instanceFilter *ecs.Filter2[transform.Transform, model.ModelSpec]
	syncFilter     *ecs.Filter2[transform.Transform, physics.PhysicsBody]
	playerFilter   *ecs.Filter3[transform.Transform, camera.Camera, player.Player]
	cameraFilter   *ecs.Filter2[transform.Transform, camera.Camera]
	lightFilter    *ecs.Filter2[transform.Transform, light.Light]
	skyFilter      *ecs.Filter1[Skybox]
}

var _ Scene = &scene{}

// NewScene creates a running scene with an empty entity store. Missing collaborators are created
// with defaults: a physics world with standard gravity, an empty asset store, a new event queue
// and a wall-clock frame-time filter.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	w := ecs.NewWorld()
	world := &w
	s := &scene{
		name:         name,
		world:        world,
		state:        AppState{Running: true},
		input:        input.NewInput(),
		ambientColor: [3]float32{0.05, 0.05, 0.05},

		modelMap:  ecs.NewMap2[transform.Transform, model.ModelSpec](world),
		bodyMap:   ecs.NewMap3[transform.Transform, model.ModelSpec, physics.PhysicsBody](world),
		playerMap: ecs.NewMap3[transform.Transform, camera.Camera, player.Player](world),
		lightMap:  ecs.NewMap2[transform.Transform, light.Light](world),
		skyMap:    ecs.NewMap1[Skybox](world),

		bodies:  ecs.NewMap[physics.PhysicsBody](world),
		players: ecs.NewMap[player.Player](world),

		instanceFilter: ecs.NewFilter2[transform.Transform, model.ModelSpec](world),
		syncFilter:     ecs.NewFilter2[transform.Transform, physics.PhysicsBody](world),
		playerFilter:   ecs.NewFilter3[transform.Transform, camera.Camera, player.Player](world),
		cameraFilter:   ecs.NewFilter2[transform.Transform, camera.Camera](world),
		lightFilter:    ecs.NewFilter2[transform.Transform, light.Light](world),
		skyFilter:      ecs.NewFilter1[Skybox](world),
	}

	for _, option := range options {
		option(s)
	}

	if s.physics == nil {
		s.physics = physics.NewWorld()
	}
	if s.assets == nil {
		s.assets = assets.NewStore()
	}
	if s.queue == nil {
		s.queue = input.NewQueue()
	}
	if s.time == nil {
		s.time = frametime.New()
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) World() *ecs.World {
	return s.world
}

func (s *scene) State() *AppState {
	return &s.state
}

func (s *scene) Physics() physics.World {
	return s.physics
}

func (s *scene) Assets() assets.Store {
	return s.assets
}

func (s *scene) Queue() *input.Queue {
	return s.queue
}

func (s *scene) Events() *input.Events {
	return &s.events
}

func (s *scene) Input() *input.Input {
	return s.input
}

func (s *scene) FrameTime() *frametime.FrameTime {
	return s.time
}

func (s *scene) Delta() float32 {
	return s.time.Delta()
}

func (s *scene) AmbientColor() [3]float32 {
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color [3]float32) {
	s.ambientColor = color
}

func (s *scene) ViewOverride() (player.ViewOverride, bool) {
	if s.viewSource == nil {
		return player.ViewOverride{}, false
	}
	return s.viewSource()
}

func (s *scene) spec(name string) model.ModelSpec {
	return model.ModelSpec{ID: s.assets.Registry().MustLookup(name)}
}

func (s *scene) SpawnModel(name string, t transform.Transform) ecs.Entity {
	spec := s.spec(name)
	return s.modelMap.NewEntity(&t, &spec)
}

func (s *scene) SpawnBody(name string, t transform.Transform, params physics.BodyParams) ecs.Entity {
	spec := s.spec(name)
	params.Position = t.Position()
	params.Scale = t.Scale()
	if params.CollisionMesh == nil && params.BallRadius <= 0 {
		params.CollisionMesh = s.assets.Model(spec.ID).CollisionMesh()
	}
	body := physics.NewPhysicsBody(s.physics, params)
	t.SetRotation(body.Rotation(s.physics))
	return s.bodyMap.NewEntity(&t, &spec, &body)
}

func (s *scene) SpawnPlayer(p player.Player, cam camera.Camera, t transform.Transform) ecs.Entity {
	return s.playerMap.NewEntity(&t, &cam, &p)
}

func (s *scene) SpawnLight(l light.Light, t transform.Transform) ecs.Entity {
	return s.lightMap.NewEntity(&t, &l)
}

func (s *scene) SpawnSkybox(texture string) ecs.Entity {
	if !s.assets.HasTexture(texture) {
		panic(fmt.Sprintf("scene: skybox texture %q is not loaded", texture))
	}
	return s.skyMap.NewEntity(&Skybox{Texture: texture})
}

func (s *scene) Despawn(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	if s.bodies.Has(e) {
		s.bodies.Get(e).Remove(s.physics)
	}
	if s.players.Has(e) {
		s.physics.RemoveCollider(s.players.Get(e).Collider())
	}
	s.world.RemoveEntity(e)
}

func (s *scene) EachInstance(fn func(spec model.ModelSpec, t *transform.Transform)) {
	query := s.instanceFilter.Query()
	for query.Next() {
		t, spec := query.Get()
		fn(*spec, t)
	}
}

func (s *scene) EachBody(fn func(t *transform.Transform, b physics.PhysicsBody)) {
	query := s.syncFilter.Query()
	for query.Next() {
		t, b := query.Get()
		fn(t, *b)
	}
}

func (s *scene) EachLight(fn func(t *transform.Transform, l *light.Light)) {
	query := s.lightFilter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

func (s *scene) EachCamera(fn func(t *transform.Transform, cam *camera.Camera)) {
	query := s.cameraFilter.Query()
	for query.Next() {
		fn(query.Get())
	}
}

func (s *scene) ActiveCamera() (*camera.Camera, *transform.Transform, bool) {
	query := s.cameraFilter.Query()
	for query.Next() {
		t, cam := query.Get()
		query.Close()
		return cam, t, true
	}
	return nil, nil, false
}

func (s *scene) ActivePlayer() (*player.Player, *transform.Transform, bool) {
	query := s.playerFilter.Query()
	for query.Next() {
		t, _, p := query.Get()
		query.Close()
		return p, t, true
	}
	return nil, nil, false
}

func (s *scene) Lights(dst []light.GPULight) []light.GPULight {
	query := s.lightFilter.Query()
	for query.Next() {
		t, l := query.Get()
		dst = append(dst, l.GPU(t))
	}
	return dst
}

func (s *scene) Skybox() (string, bool) {
	query := s.skyFilter.Query()
	for query.Next() {
		sky := query.Get()
		query.Close()
		return sky.Texture, true
	}
	return "", false
}

