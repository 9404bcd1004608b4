// Package light defines point lights paired with a transform and their GPU layout.
package light

import (
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitSpeed is the angular speed, in radians per second, at which lights orbit the world origin.
const OrbitSpeed = 45 * math32.Pi / 180

// Light is a point light component. Its position comes from the paired transform.Transform.
type Light struct {
	Color     [3]float32
	Intensity float32
}

// New creates a white Light of intensity 1 with the given options applied.
//
// Parameters:
//   - options: functional options to configure the light
//
// Returns:
//   - Light: the configured light
func New(options ...LightBuilderOption) Light {
	l := Light{
		Color:     [3]float32{1, 1, 1},
		Intensity: 1,
	}
	for _, opt := range options {
		opt(&l)
	}
	return l
}

// GPU converts the light placed at t into its uniform representation.
func (l *Light) GPU(t *transform.Transform) GPULight {
	pos := t.Position()
	return GPULight{
		Position:  [3]float32{pos[0], pos[1], pos[2]},
		Color:     l.Color,
		Intensity: l.Intensity,
	}
}

// Orbit rotates t about the world origin around +Y by OrbitSpeed*dt.
//
// Parameters:
//   - t: the light's transform
//   - dt: elapsed seconds
func Orbit(t *transform.Transform, dt float32) {
	t.TranslateAround(mgl32.Vec3{}, mgl32.QuatRotate(OrbitSpeed*dt, mgl32.Vec3{0, 1, 0}))
}
