// Package scene stores entities in an archetype ECS and provides the core per-frame systems:
// event draining, frame timing, exit checks, physics stepping and mirroring, the character
// controller and light motion.
package scene

// Skybox marks the single entity that draws the environment cube.
type Skybox struct {
	// Texture is the registered cube texture name.
	Texture string
}
