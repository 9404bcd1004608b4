package scene

import (
	"github.com/Carmen-Shannon/dreamscape/engine/assets"
	"github.com/Carmen-Shannon/dreamscape/engine/input"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/Carmen-Shannon/dreamscape/engine/player"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithPhysics sets the physics world.
//
// Parameters:
//   - w: the physics world
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPhysics(w physics.World) SceneBuilderOption {
	return func(s *scene) {
		s.physics = w
	}
}

// WithAssets sets the asset store used to resolve model names.
//
// Parameters:
//   - store: the asset store
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAssets(store assets.Store) SceneBuilderOption {
	return func(s *scene) {
		s.assets = store
	}
}

// WithQueue sets the event queue, normally the one the window pushes into.
//
// Parameters:
//   - q: the event queue
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithQueue(q *input.Queue) SceneBuilderOption {
	return func(s *scene) {
		s.queue = q
	}
}

// WithAmbientColor sets the ambient light color.
func WithAmbientColor(color [3]float32) SceneBuilderOption {
	return func(s *scene) {
		s.ambientColor = color
	}
}

// WithViewSource installs an external pose source. While it reports a pose, the player's
// transform and camera are set from it verbatim and no movement or physics logic runs for the player.
//
// Parameters:
//   - source: returns the pose for this frame and whether one is available
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithViewSource(source func() (player.ViewOverride, bool)) SceneBuilderOption {
	return func(s *scene) {
		s.viewSource = source
	}
}
