// Package camera holds the projection parameters of the viewing entity.
package camera

import (
	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is the projection component paired with a transform.Transform for placement.
// The projection is rebuilt whenever a parameter changes.
type Camera struct {
	fov    float32
	aspect float32
	near   float32
	far    float32
	yFlip  bool

	projection mgl32.Mat4
	override   *mgl32.Mat4
}

// New creates a Camera with a 45 degree vertical field of view, clip planes at 0.1 and 100, and
// the given options applied.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the camera with its projection built
func New(options ...CameraBuilderOption) Camera {
	c := Camera{
		fov:    45 * math32.Pi / 180,
		aspect: 1,
		near:   0.1,
		far:    100,
	}
	for _, opt := range options {
		opt(&c)
	}
	c.rebuild()
	return c
}

// Fov returns the vertical field of view in radians.
func (c *Camera) Fov() float32 { return c.fov }

// Aspect returns the aspect ratio (width / height).
func (c *Camera) Aspect() float32 { return c.aspect }

// Near returns the near clipping plane distance.
func (c *Camera) Near() float32 { return c.near }

// Far returns the far clipping plane distance.
func (c *Camera) Far() float32 { return c.far }

// SetAspect sets the aspect ratio and rebuilds the projection. Non-positive values are ignored.
func (c *Camera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.rebuild()
}

// SetYFlip toggles the Y-flip applied on top of the projection, used when rendering for a
// head-mounted display.
func (c *Camera) SetYFlip(flip bool) {
	c.yFlip = flip
	c.rebuild()
}

// SetProjectionOverride replaces the fov/aspect derived projection with m until cleared.
// The Y-flip, when enabled, still applies.
func (c *Camera) SetProjectionOverride(m mgl32.Mat4) {
	c.override = &m
	c.rebuild()
}

// ClearProjectionOverride returns to the fov/aspect derived projection.
func (c *Camera) ClearProjectionOverride() {
	c.override = nil
	c.rebuild()
}

// HasProjectionOverride reports whether an external projection is in use.
func (c *Camera) HasProjectionOverride() bool {
	return c.override != nil
}

// Projection returns the projection matrix, Y-flip included.
func (c *Camera) Projection() mgl32.Mat4 {
	return c.projection
}

// View returns the inverse of the camera transform's world matrix.
//
// Parameters:
//   - t: the camera's transform
//
// Returns:
//   - mgl32.Mat4: the view matrix
func View(t *transform.Transform) mgl32.Mat4 {
	return t.Matrix().Inv()
}

// ViewProjection returns Projection * View for a camera placed at t.
func (c *Camera) ViewProjection(t *transform.Transform) mgl32.Mat4 {
	return c.projection.Mul4(View(t))
}

// SkyboxInverseViewProjection returns the inverse of the view-projection with the view's
// translation removed, so the skybox stays centred on the camera.
//
// Parameters:
//   - t: the camera's transform
//
// Returns:
//   - mgl32.Mat4: maps clip-space positions to world-space view directions
func (c *Camera) SkyboxInverseViewProjection(t *transform.Transform) mgl32.Mat4 {
	return c.projection.Mul4(common.WithoutTranslation(View(t))).Inv()
}

// Uniform builds the GPU camera uniform for a camera placed at t.
func (c *Camera) Uniform(t *transform.Transform) GPUCameraUniform {
	pos := t.Position()
	return GPUCameraUniform{
		ViewProj:       c.ViewProjection(t),
		CameraPosition: [3]float32{pos[0], pos[1], pos[2]},
	}
}

// Eye is one view of a stereo pair: a world pose and a projection without the Y-flip.
type Eye struct {
	Position   mgl32.Vec3
	Rotation   mgl32.Quat
	Projection mgl32.Mat4
}

// View returns the eye's view matrix.
func (e Eye) View() mgl32.Mat4 {
	return mgl32.Translate3D(e.Position.X(), e.Position.Y(), e.Position.Z()).Mul4(e.Rotation.Mat4()).Inv()
}

// EyeProjection is the projection for a viewport of the given aspect ratio, before the Y-flip.
// An override is returned unchanged. Non-positive aspects use the camera's own.
func (c *Camera) EyeProjection(aspect float32) mgl32.Mat4 {
	if c.override != nil {
		return *c.override
	}
	if aspect <= 0 {
		aspect = c.aspect
	}
	return common.Perspective(c.fov, aspect, c.near, c.far)
}

// Eyes places one eye per viewport, centred on t and spaced separation apart along t's right
// axis, left to right. Each projection uses its viewport's aspect ratio.
//
// Parameters:
//   - t: the camera's transform, the midpoint between the eyes
//   - viewports: one rectangle per eye; an empty rectangle means the full target
//   - separation: distance between neighbouring eyes in world units
//
// Returns:
//   - []Eye: one eye per viewport
func (c *Camera) Eyes(t *transform.Transform, viewports []common.Rect, separation float32) []Eye {
	eyes := make([]Eye, len(viewports))
	centre := float32(len(viewports)-1) / 2
	for i, vp := range viewports {
		aspect := float32(0)
		if !vp.Empty() {
			aspect = vp.W / vp.H
		}
		eyes[i] = Eye{
			Position:   t.Position().Add(t.Right().Mul((float32(i) - centre) * separation)),
			Rotation:   t.Rotation(),
			Projection: c.EyeProjection(aspect),
		}
	}
	return eyes
}

// EyeUniform builds the GPU camera uniform for one eye, applying the camera's Y-flip.
func (c *Camera) EyeUniform(e Eye) GPUCameraUniform {
	return GPUCameraUniform{
		ViewProj:       c.flip(e.Projection).Mul4(e.View()),
		CameraPosition: [3]float32{e.Position[0], e.Position[1], e.Position[2]},
	}
}

// EyeSkyboxInverseViewProjection is SkyboxInverseViewProjection for one eye.
func (c *Camera) EyeSkyboxInverseViewProjection(e Eye) mgl32.Mat4 {
	return c.flip(e.Projection).Mul4(common.WithoutTranslation(e.View())).Inv()
}

func (c *Camera) flip(m mgl32.Mat4) mgl32.Mat4 {
	if c.yFlip {
		return common.YFlip().Mul4(m)
	}
	return m
}

func (c *Camera) rebuild() {
	if c.override != nil {
		c.projection = *c.override
	} else {
		c.projection = common.Perspective(c.fov, c.aspect, c.near, c.far)
	}
	if c.yFlip {
		c.projection = common.YFlip().Mul4(c.projection)
	}
}
