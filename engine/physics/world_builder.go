package physics

import "github.com/go-gl/mathgl/mgl32"

// WorldBuilderOption is a functional option applied to a physics world during construction via NewWorld.
type WorldBuilderOption func(*physicsWorld)

// WithGravity sets the world gravity vector. The default is (0, -9.81, 0).
//
// Parameters:
//   - g: gravity acceleration in world units per second squared
//
// Returns:
//   - WorldBuilderOption: a function that applies the gravity option to a world
func WithGravity(g mgl32.Vec3) WorldBuilderOption {
	return func(w *physicsWorld) {
		w.gravity = g
	}
}

// WithInvertedSyncRotation makes SyncRotation return the inverse of each body's rotation.
// Off by default; the world stores rotations in the same convention as transform.Transform.
//
// Parameters:
//   - invert: true to invert rotations read for transform sync
//
// Returns:
//   - WorldBuilderOption: a function that applies the option to a world
func WithInvertedSyncRotation(invert bool) WorldBuilderOption {
	return func(w *physicsWorld) {
		w.invertSyncRotation = invert
	}
}

// WithMaxSubstep caps the length of one integration substep. Update splits larger deltas.
//
// Parameters:
//   - step: the longest substep in seconds (values <= 0 are ignored)
//
// Returns:
//   - WorldBuilderOption: a function that applies the substep option to a world
func WithMaxSubstep(step float32) WorldBuilderOption {
	return func(w *physicsWorld) {
		if step > 0 {
			w.maxSubstep = step
		}
	}
}

// WithMaxDelta caps the time one Update call simulates. Longer deltas are clamped.
//
// Parameters:
//   - dt: the longest simulated delta in seconds (values <= 0 are ignored)
//
// Returns:
//   - WorldBuilderOption: a function that applies the cap to a world
func WithMaxDelta(dt float32) WorldBuilderOption {
	return func(w *physicsWorld) {
		if dt > 0 {
			w.maxDelta = dt
		}
	}
}

// WithSolverIterations sets how many velocity iterations run over the contact set per substep.
func WithSolverIterations(n int) WorldBuilderOption {
	return func(w *physicsWorld) {
		if n > 0 {
			w.solverIterations = n
		}
	}
}

// WithSleeping configures body sleeping. A body whose linear and angular speeds both stay below
// threshold for longer than idle seconds stops being integrated until something touches it.
// A zero idle time disables sleeping.
//
// Parameters:
//   - threshold: speed below which a body counts as idle
//   - idle: seconds of idleness before the body sleeps
//
// Returns:
//   - WorldBuilderOption: a function that applies the sleeping option to a world
func WithSleeping(threshold, idle float32) WorldBuilderOption {
	return func(w *physicsWorld) {
		w.sleepThreshold = threshold
		w.sleepTime = idle
	}
}
