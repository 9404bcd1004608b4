package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// contact describes one touching pair. normal points from the first collider toward the second.
type contact struct {
	normal mgl32.Vec3
	depth  float32
	point  mgl32.Vec3
}

func (c contact) flipped() contact {
	c.normal = c.normal.Mul(-1)
	return c
}

// collide runs the narrowphase for a pair. Trimesh against trimesh is not supported and never
// reports contact.
func collide(a, b *collider) (contact, bool) {
	if a.shape > b.shape {
		c, ok := collide(b, a)
		return c.flipped(), ok
	}
	switch a.shape {
	case ShapeBall:
		switch b.shape {
		case ShapeBall:
			return ballBall(a, b)
		case ShapeBox:
			return ballBox(a.pos, a.radius, b)
		case ShapeTriMesh:
			return ballTriMesh(a.pos, a.radius, b)
		}
	case ShapeBox:
		switch b.shape {
		case ShapeBox:
			return boxBox(a, b)
		case ShapeTriMesh:
			return boxTriMesh(a, b)
		}
	}
	return contact{}, false
}

func ballBall(a, b *collider) (contact, bool) {
	d := b.pos.Sub(a.pos)
	dist := d.Len()
	r := a.radius + b.radius
	if dist >= r {
		return contact{}, false
	}
	n := safeNormalize(d, mgl32.Vec3{0, 1, 0})
	return contact{normal: n, depth: r - dist, point: a.pos.Add(n.Mul(a.radius))}, true
}

// ballBox tests a sphere against box b. The normal points from the sphere into the box.
func ballBox(center mgl32.Vec3, radius float32, b *collider) (contact, bool) {
	inv := b.rot.Conjugate()
	p := inv.Rotate(center.Sub(b.pos))
	h := b.halfExtents
	q := mgl32.Vec3{
		mgl32.Clamp(p[0], -h[0], h[0]),
		mgl32.Clamp(p[1], -h[1], h[1]),
		mgl32.Clamp(p[2], -h[2], h[2]),
	}
	diff := p.Sub(q)
	dist := diff.Len()
	if dist > 1e-6 {
		if dist >= radius {
			return contact{}, false
		}
		out := b.rot.Rotate(diff.Mul(1 / dist))
		return contact{normal: out.Mul(-1), depth: radius - dist, point: b.pos.Add(b.rot.Rotate(q))}, true
	}

	// Center inside the box: leave through the nearest face.
	axis, best := 0, math32.Inf(1)
	for i := 0; i < 3; i++ {
		if d := h[i] - math32.Abs(p[i]); d < best {
			axis, best = i, d
		}
	}
	var local mgl32.Vec3
	local[axis] = 1
	if p[axis] < 0 {
		local[axis] = -1
	}
	out := b.rot.Rotate(local)
	return contact{normal: out.Mul(-1), depth: radius + best, point: center}, true
}

// ballTriMesh reports the deepest triangle contact. The normal points from the sphere into the mesh.
func ballTriMesh(center mgl32.Vec3, radius float32, m *collider) (contact, bool) {
	if m.mesh == nil {
		return contact{}, false
	}
	inv := m.rot.Conjugate()
	p := inv.Rotate(center.Sub(m.pos))
	r := mgl32.Vec3{radius, radius, radius}
	box := aabb{min: p.Sub(r), max: p.Add(r)}

	found := false
	var best contact
	for i := range m.mesh.tris {
		t := &m.mesh.tris[i]
		if !box.overlaps(aabb{min: t.min, max: t.max}) {
			continue
		}
		q := closestPointOnTriangle(p, t.a, t.b, t.c)
		d := p.Sub(q)
		dist := d.Len()
		if dist >= radius {
			continue
		}
		depth := radius - dist
		if found && depth <= best.depth {
			continue
		}
		out := safeNormalize(d, t.normal)
		best = contact{normal: m.rot.Rotate(out).Mul(-1), depth: depth, point: m.pos.Add(m.rot.Rotate(q))}
		found = true
	}
	return best, found
}

func boxAxes(rot mgl32.Quat) [3]mgl32.Vec3 {
	m := rot.Mat4()
	return [3]mgl32.Vec3{m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()}
}

// boxBox is a separating axis test over the 15 candidate axes of two oriented boxes.
func boxBox(a, b *collider) (contact, bool) {
	axesA, axesB := boxAxes(a.rot), boxAxes(b.rot)
	l := b.pos.Sub(a.pos)

	test := make([]mgl32.Vec3, 0, 15)
	test = append(test, axesA[:]...)
	test = append(test, axesB[:]...)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			c := axesA[i].Cross(axesB[j])
			if c.LenSqr() > 1e-4 {
				test = append(test, c.Normalize())
			}
		}
	}

	minOverlap := math32.Inf(1)
	var normal mgl32.Vec3
	for _, axis := range test {
		var pa, pb float32
		for i := 0; i < 3; i++ {
			pa += math32.Abs(axesA[i].Dot(axis)) * a.halfExtents[i]
			pb += math32.Abs(axesB[i].Dot(axis)) * b.halfExtents[i]
		}
		overlap := pa + pb - math32.Abs(l.Dot(axis))
		if overlap <= 0 {
			return contact{}, false
		}
		if overlap < minOverlap {
			minOverlap, normal = overlap, axis
		}
	}
	if l.Dot(normal) < 0 {
		normal = normal.Mul(-1)
	}
	return contact{normal: normal, depth: minOverlap, point: boxContactPoint(a, b, axesA, axesB)}, true
}

// boxContactPoint averages the corners of each box that lie inside the other.
func boxContactPoint(a, b *collider, axesA, axesB [3]mgl32.Vec3) mgl32.Vec3 {
	var sum mgl32.Vec3
	n := 0
	for _, p := range boxCorners(a.pos, axesA, a.halfExtents) {
		if pointInBox(p, b.pos, axesB, b.halfExtents) {
			sum = sum.Add(p)
			n++
		}
	}
	for _, p := range boxCorners(b.pos, axesB, b.halfExtents) {
		if pointInBox(p, a.pos, axesA, a.halfExtents) {
			sum = sum.Add(p)
			n++
		}
	}
	if n == 0 {
		return a.pos.Add(b.pos).Mul(0.5)
	}
	return sum.Mul(1 / float32(n))
}

func boxCorners(pos mgl32.Vec3, axes [3]mgl32.Vec3, h mgl32.Vec3) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		p := pos
		for k := 0; k < 3; k++ {
			s := h[k]
			if i&(1<<k) == 0 {
				s = -s
			}
			p = p.Add(axes[k].Mul(s))
		}
		out[i] = p
	}
	return out
}

func pointInBox(p, pos mgl32.Vec3, axes [3]mgl32.Vec3, h mgl32.Vec3) bool {
	d := p.Sub(pos)
	for i := 0; i < 3; i++ {
		if math32.Abs(d.Dot(axes[i])) > h[i]+0.01 {
			return false
		}
	}
	return true
}

// boxTriMesh tests the box corners against the mesh triangles. A corner counts as penetrating
// when it is behind a triangle's plane, no deeper than the box itself, and projects inside it.
// The normal points from the box into the mesh.
func boxTriMesh(b, m *collider) (contact, bool) {
	if m.mesh == nil {
		return contact{}, false
	}
	inv := m.rot.Conjugate()
	maxDepth := 2 * math32.Max(b.halfExtents[0], math32.Max(b.halfExtents[1], b.halfExtents[2]))

	var (
		deepest  float32
		pointSum mgl32.Vec3
		normSum  mgl32.Vec3
		hits     int
	)
	for _, corner := range boxCorners(b.pos, boxAxes(b.rot), b.halfExtents) {
		p := inv.Rotate(corner.Sub(m.pos))
		cornerDepth := float32(0)
		var cornerNormal mgl32.Vec3
		for i := range m.mesh.tris {
			t := &m.mesh.tris[i]
			if p[0] < t.min[0]-maxDepth || p[0] > t.max[0]+maxDepth ||
				p[1] < t.min[1]-maxDepth || p[1] > t.max[1]+maxDepth ||
				p[2] < t.min[2]-maxDepth || p[2] > t.max[2]+maxDepth {
				continue
			}
			s := t.normal.Dot(p.Sub(t.a))
			if s >= 0 || s < -maxDepth {
				continue
			}
			proj := p.Sub(t.normal.Mul(s))
			if closestPointOnTriangle(proj, t.a, t.b, t.c).Sub(proj).LenSqr() > 1e-6 {
				continue
			}
			if -s > cornerDepth {
				cornerDepth, cornerNormal = -s, t.normal
			}
		}
		if cornerDepth > 0 {
			hits++
			pointSum = pointSum.Add(corner)
			normSum = normSum.Add(m.rot.Rotate(cornerNormal))
			deepest = math32.Max(deepest, cornerDepth)
		}
	}
	if hits == 0 {
		return contact{}, false
	}
	out := safeNormalize(normSum, mgl32.Vec3{0, 1, 0})
	return contact{normal: out.Mul(-1), depth: deepest, point: pointSum.Mul(1 / float32(hits))}, true
}
