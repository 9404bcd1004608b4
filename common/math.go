package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the magnitude under which direction vectors are treated as zero and skipped.
const Epsilon float32 = 0.01

// Perspective creates a right-handed perspective projection matrix that maps view depth
// into the WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the column-major projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / math32.Tan(fovY/2.0)
	var m mgl32.Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = far / (near - far)
	m[11] = -1.0
	m[14] = (near * far) / (near - far)
	return m
}

// YFlip returns the matrix that mirrors clip space vertically. Head-mounted display
// swapchains present with an inverted Y axis, so their projections are pre-multiplied by it.
//
// Returns:
//   - mgl32.Mat4: diag(1, -1, 1, 1)
func YFlip() mgl32.Mat4 {
	return mgl32.Scale3D(1, -1, 1)
}

// WithoutTranslation returns a copy of m with its translation column cleared.
//
// Parameters:
//   - m: the source matrix
//
// Returns:
//   - mgl32.Mat4: m with elements 12, 13 and 14 set to zero
func WithoutTranslation(m mgl32.Mat4) mgl32.Mat4 {
	m[12], m[13], m[14] = 0, 0, 0
	return m
}

// AngleBetween returns the unsigned angle in radians between two vectors.
// Zero-length inputs yield 0.
//
// Parameters:
//   - a: first vector
//   - b: second vector
//
// Returns:
//   - float32: the angle in [0, π]
func AngleBetween(a, b mgl32.Vec3) float32 {
	denom := a.Len() * b.Len()
	if denom == 0 {
		return 0
	}
	c := a.Dot(b) / denom
	return math32.Acos(mgl32.Clamp(c, -1, 1))
}

// NormalMatrix returns the inverse-transpose of the upper 3x3 of a model matrix,
// used to transform normals under non-uniform scale.
//
// Parameters:
//   - model: the model (world) matrix
//
// Returns:
//   - mgl32.Mat3: the normal matrix, or identity when model is singular
func NormalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	m3 := model.Mat3()
	if m3.Det() == 0 {
		return mgl32.Ident3()
	}
	return m3.Inv().Transpose()
}
