package assets

import (
	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/chewxy/math32"
)

// Cube returns a unit cube (half-extent 1) with per-face normals and UVs, so that a Transform
// scale equals the box half-extents of its collider.
//
// Returns:
//   - []model.GPUVertex: 24 vertices, four per face
//   - []uint32: 36 indices, counter-clockwise front faces
func Cube() ([]model.GPUVertex, []uint32) {
	type face struct {
		normal, u, v [3]float32
	}
	faces := [6]face{
		{normal: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
		{normal: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
		{normal: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	vertices := make([]model.GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(vertices))
		for _, c := range corners {
			var p [3]float32
			for k := range 3 {
				p[k] = f.normal[k] + c[0]*f.u[k] + c[1]*f.v[k]
			}
			vertices = append(vertices, model.GPUVertex{
				Position: p,
				Normal:   f.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (1 - c[1]) / 2},
				Color:    [4]float32{1, 1, 1, 1},
				Tangent:  [4]float32{f.u[0], f.u[1], f.u[2], 1},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return vertices, indices
}

// UVSphere returns a sphere of the given radius tessellated into rings and segments.
//
// Parameters:
//   - radius: the sphere radius
//   - rings: latitude subdivisions, at least 2
//   - segments: longitude subdivisions, at least 3
//
// Returns:
//   - []model.GPUVertex: (rings+1)*(segments+1) vertices
//   - []uint32: counter-clockwise triangle indices
func UVSphere(radius float32, rings, segments int) ([]model.GPUVertex, []uint32) {
	rings = max(rings, 2)
	segments = max(segments, 3)

	vertices := make([]model.GPUVertex, 0, (rings+1)*(segments+1))
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		phi := v * math32.Pi
		sinPhi, cosPhi := math32.Sincos(phi)
		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			theta := u * 2 * math32.Pi
			sinTheta, cosTheta := math32.Sincos(theta)
			n := [3]float32{sinPhi * sinTheta, cosPhi, sinPhi * cosTheta}
			vertices = append(vertices, model.GPUVertex{
				Position: [3]float32{n[0] * radius, n[1] * radius, n[2] * radius},
				Normal:   n,
				TexCoord: [2]float32{u, v},
				Color:    [4]float32{1, 1, 1, 1},
				Tangent:  [4]float32{cosTheta, 0, -sinTheta, 1},
			})
		}
	}

	stride := uint32(segments + 1)
	indices := make([]uint32, 0, rings*segments*6)
	for r := range uint32(rings) {
		for s := range uint32(segments) {
			a := r*stride + s
			b := a + stride
			if r != 0 {
				indices = append(indices, a, b, a+1)
			}
			if r != uint32(rings)-1 {
				indices = append(indices, a+1, b, b+1)
			}
		}
	}
	return vertices, indices
}

// Quad returns a unit quad in the XZ plane facing +Y, with UVs repeated the given number of times.
func Quad(uvRepeat float32) ([]model.GPUVertex, []uint32) {
	corners := [4][2]float32{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}}
	vertices := make([]model.GPUVertex, 4)
	for i, c := range corners {
		vertices[i] = model.GPUVertex{
			Position: [3]float32{c[0], 0, c[1]},
			Normal:   [3]float32{0, 1, 0},
			TexCoord: [2]float32{(c[0] + 1) / 2 * uvRepeat, (c[1] + 1) / 2 * uvRepeat},
			Color:    [4]float32{1, 1, 1, 1},
			Tangent:  [4]float32{1, 0, 0, 1},
		}
	}
	return vertices, []uint32{0, 1, 2, 0, 2, 3}
}
