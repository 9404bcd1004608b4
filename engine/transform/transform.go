// Package transform provides the placement component shared by simulation and rendering.
package transform

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a position, rotation and scale with a cached world matrix.
// Every setter rebuilds the matrix before returning, so Matrix never lags the components.
type Transform struct {
	pos   mgl32.Vec3
	rot   mgl32.Quat
	scale mgl32.Vec3
	m     mgl32.Mat4
}

// New creates a Transform from its components.
//
// Parameters:
//   - pos: world position
//   - rot: rotation (normalized on entry)
//   - scale: per-axis scale
//
// Returns:
//   - Transform: the transform with its matrix built
func New(pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) Transform {
	t := Transform{pos: pos, rot: rot.Normalize(), scale: scale}
	t.rebuild()
	return t
}

// FromPosition creates an unrotated, unit-scale Transform at pos.
func FromPosition(pos mgl32.Vec3) Transform {
	return New(pos, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
}

// Identity returns the transform at the origin with no rotation and unit scale.
func Identity() Transform {
	return FromPosition(mgl32.Vec3{})
}

// Matrix returns the world matrix T(position) * R(rotation) * S(scale).
func (t *Transform) Matrix() mgl32.Mat4 {
	return t.m
}

// Position returns the world position.
func (t *Transform) Position() mgl32.Vec3 {
	return t.pos
}

// Rotation returns the rotation.
func (t *Transform) Rotation() mgl32.Quat {
	return t.rot
}

// Scale returns the per-axis scale.
func (t *Transform) Scale() mgl32.Vec3 {
	return t.scale
}

// Forward returns the -Z column of the world matrix (right-handed, camera looks down -Z).
func (t *Transform) Forward() mgl32.Vec3 {
	return t.m.Col(2).Vec3().Mul(-1)
}

// Right returns the +X column of the world matrix.
func (t *Transform) Right() mgl32.Vec3 {
	return t.m.Col(0).Vec3()
}

// Up returns the +Y column of the world matrix.
func (t *Transform) Up() mgl32.Vec3 {
	return t.m.Col(1).Vec3()
}

// SetPosition moves the transform to pos.
func (t *Transform) SetPosition(pos mgl32.Vec3) {
	t.pos = pos
	t.rebuild()
}

// SetRotation replaces the rotation.
func (t *Transform) SetRotation(rot mgl32.Quat) {
	t.rot = rot.Normalize()
	t.rebuild()
}

// SetScale replaces the scale.
func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.scale = scale
	t.rebuild()
}

// SetPose replaces position and rotation together.
//
// Parameters:
//   - pos: new world position
//   - rot: new rotation
func (t *Transform) SetPose(pos mgl32.Vec3, rot mgl32.Quat) {
	t.pos = pos
	t.rot = rot.Normalize()
	t.rebuild()
}

// LookAt orients the transform so Forward points at target with +Y as up.
// A target at the current position, or straight above/below it, leaves the rotation unchanged.
//
// Parameters:
//   - target: world point to face
func (t *Transform) LookAt(target mgl32.Vec3) {
	dir := target.Sub(t.pos)
	if dir.Len() == 0 {
		return
	}
	f := dir.Normalize()
	r := f.Cross(mgl32.Vec3{0, 1, 0})
	if r.Len() < 1e-6 {
		return
	}
	r = r.Normalize()
	u := r.Cross(f)
	basis := mgl32.Mat3FromCols(r, u, f.Mul(-1))
	t.rot = mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
	t.rebuild()
}

// Translate offsets the position by v.
func (t *Transform) Translate(v mgl32.Vec3) {
	t.pos = t.pos.Add(v)
	t.m[12] += v[0]
	t.m[13] += v[1]
	t.m[14] += v[2]
}

// Rotate applies rot in world space (pre-multiplied).
func (t *Transform) Rotate(rot mgl32.Quat) {
	t.rot = rot.Mul(t.rot).Normalize()
	t.rebuild()
}

// RotateLocal applies rot in the transform's local space (post-multiplied).
func (t *Transform) RotateLocal(rot mgl32.Quat) {
	t.rot = t.rot.Mul(rot).Normalize()
	t.rebuild()
}

// RotateAxis rotates about a world axis by angle radians.
func (t *Transform) RotateAxis(axis mgl32.Vec3, angle float32) {
	t.Rotate(mgl32.QuatRotate(angle, axis))
}

// RotateLocalAxis rotates about a local axis by angle radians.
func (t *Transform) RotateLocalAxis(axis mgl32.Vec3, angle float32) {
	t.RotateLocal(mgl32.QuatRotate(angle, axis))
}

// TranslateAround orbits the position about center by rot. Orientation is unchanged.
//
// Parameters:
//   - center: the pivot point
//   - rot: the rotation applied to the offset from center
func (t *Transform) TranslateAround(center mgl32.Vec3, rot mgl32.Quat) {
	t.pos = center.Add(rot.Rotate(t.pos.Sub(center)))
	t.rebuild()
}

func (t *Transform) rebuild() {
	translation := mgl32.Translate3D(t.pos[0], t.pos[1], t.pos[2])
	scale := mgl32.Scale3D(t.scale[0], t.scale[1], t.scale[2])
	t.m = translation.Mul4(t.rot.Mat4()).Mul4(scale)
}
