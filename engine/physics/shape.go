package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ShapeType identifies the geometry of a collider.
type ShapeType int

const (
	// ShapeBall is a sphere of a given radius.
	ShapeBall ShapeType = iota
	// ShapeBox is an oriented box given by half-extents.
	ShapeBox
	// ShapeTriMesh is a triangle soup in the collider's local space.
	ShapeTriMesh
)

func (s ShapeType) String() string {
	switch s {
	case ShapeBall:
		return "ball"
	case ShapeBox:
		return "box"
	case ShapeTriMesh:
		return "trimesh"
	default:
		return "unknown"
	}
}

// CollisionMesh is triangle geometry used to build a trimesh collider.
type CollisionMesh struct {
	// Vertices are local-space positions.
	Vertices []mgl32.Vec3
	// Indices lists triangles as vertex index triples.
	Indices []uint32
}

// Scaled returns a copy of the mesh with every vertex multiplied component-wise by scale.
func (m *CollisionMesh) Scaled(scale mgl32.Vec3) *CollisionMesh {
	out := &CollisionMesh{
		Vertices: make([]mgl32.Vec3, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	for i, v := range m.Vertices {
		out.Vertices[i] = mgl32.Vec3{v[0] * scale[0], v[1] * scale[1], v[2] * scale[2]}
	}
	return out
}

type triangle struct {
	a, b, c mgl32.Vec3
	normal  mgl32.Vec3
	min     mgl32.Vec3
	max     mgl32.Vec3
}

// triMesh is the prepared form of a CollisionMesh. Degenerate triangles are dropped.
type triMesh struct {
	tris []triangle
	min  mgl32.Vec3
	max  mgl32.Vec3
}

func newTriMesh(m *CollisionMesh) *triMesh {
	tm := &triMesh{}
	if m == nil {
		return tm
	}
	first := true
	for i := 0; i+2 < len(m.Indices); i += 3 {
		ia, ib, ic := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if int(ia) >= len(m.Vertices) || int(ib) >= len(m.Vertices) || int(ic) >= len(m.Vertices) {
			continue
		}
		a, b, c := m.Vertices[ia], m.Vertices[ib], m.Vertices[ic]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Len() < 1e-12 {
			continue
		}
		t := triangle{a: a, b: b, c: c, normal: n.Normalize(), min: vmin(vmin(a, b), c), max: vmax(vmax(a, b), c)}
		tm.tris = append(tm.tris, t)
		if first {
			tm.min, tm.max = t.min, t.max
			first = false
		} else {
			tm.min, tm.max = vmin(tm.min, t.min), vmax(tm.max, t.max)
		}
	}
	return tm
}

type aabb struct {
	min, max mgl32.Vec3
}

func (a aabb) overlaps(b aabb) bool {
	return a.min[0] <= b.max[0] && a.max[0] >= b.min[0] &&
		a.min[1] <= b.max[1] && a.max[1] >= b.min[1] &&
		a.min[2] <= b.max[2] && a.max[2] >= b.min[2]
}

func (a aabb) inflate(d float32) aabb {
	e := mgl32.Vec3{d, d, d}
	return aabb{min: a.min.Sub(e), max: a.max.Add(e)}
}

func (a aabb) union(b aabb) aabb {
	return aabb{min: vmin(a.min, b.min), max: vmax(a.max, b.max)}
}

// orientedExtent returns the world AABB of a box with the given local center and half-extents.
func orientedExtent(pos mgl32.Vec3, rot mgl32.Quat, center, half mgl32.Vec3) aabb {
	m := rot.Mat4().Mat3()
	c := pos.Add(rot.Rotate(center))
	var e mgl32.Vec3
	for i := 0; i < 3; i++ {
		e[i] = math32.Abs(m.At(i, 0))*half[0] + math32.Abs(m.At(i, 1))*half[1] + math32.Abs(m.At(i, 2))*half[2]
	}
	return aabb{min: c.Sub(e), max: c.Add(e)}
}

// massProperties returns mass and the diagonal of the local inertia tensor for a shape at unit density.
func massProperties(c *collider) (float32, mgl32.Vec3) {
	switch c.shape {
	case ShapeBall:
		m := 4.0 / 3.0 * math32.Pi * c.radius * c.radius * c.radius
		i := 0.4 * m * c.radius * c.radius
		return m, mgl32.Vec3{i, i, i}
	case ShapeBox:
		return boxMass(c.halfExtents)
	case ShapeTriMesh:
		if c.mesh == nil || len(c.mesh.tris) == 0 {
			return 1, mgl32.Vec3{1, 1, 1}
		}
		return boxMass(c.mesh.max.Sub(c.mesh.min).Mul(0.5))
	}
	return 1, mgl32.Vec3{1, 1, 1}
}

func boxMass(h mgl32.Vec3) (float32, mgl32.Vec3) {
	m := 8 * h[0] * h[1] * h[2]
	if m <= 0 {
		m = 1
	}
	x2, y2, z2 := h[0]*h[0], h[1]*h[1], h[2]*h[2]
	return m, mgl32.Vec3{m / 3 * (y2 + z2), m / 3 * (x2 + z2), m / 3 * (x2 + y2)}
}

func vmin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])}
}

func vmax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2])}
}

func safeNormalize(v, fallback mgl32.Vec3) mgl32.Vec3 {
	l := v.Len()
	if l < 1e-9 {
		return fallback
	}
	return v.Mul(1 / l)
}

// closestPointOnTriangle is the Voronoi-region walk from Ericson's Real-Time Collision Detection.
func closestPointOnTriangle(p, a, b, c mgl32.Vec3) mgl32.Vec3 {
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)
	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}
	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}
	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.Mul(d1 / (d1 - d3)))
	}
	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}
	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.Mul(d2 / (d2 - d6)))
	}
	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		return b.Add(c.Sub(b).Mul((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}
	denom := 1 / (va + vb + vc)
	v, w := vb*denom, vc*denom
	return a.Add(ab.Mul(v)).Add(ac.Mul(w))
}
