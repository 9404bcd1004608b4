package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// RayHit is the nearest intersection found by CastRay.
type RayHit struct {
	Collider ColliderHandle
	// Toi is the time of impact in multiples of the ray direction's length.
	Toi    float32
	Point  mgl32.Vec3
	Normal mgl32.Vec3
}

func (w *physicsWorld) CastRay(origin, dir mgl32.Vec3, maxToi float32, exclude ColliderHandle) (RayHit, bool) {
	if dir.LenSqr() == 0 || maxToi <= 0 {
		return RayHit{}, false
	}
	end := origin.Add(dir.Mul(maxToi))
	segment := aabb{min: vmin(origin, end), max: vmax(origin, end)}

	best := RayHit{Toi: maxToi}
	found := false
	w.colliders.each(func(index, generation uint32, c *collider) {
		h := ColliderHandle{index: index, generation: generation}
		if h == exclude || !c.box.overlaps(segment) {
			return
		}
		toi, n, ok := rayCollider(origin, dir, c)
		if !ok || toi > best.Toi {
			return
		}
		best = RayHit{Collider: h, Toi: toi, Point: origin.Add(dir.Mul(toi)), Normal: n}
		found = true
	})
	return best, found
}

// rayCollider intersects a ray with a solid shape. Origins inside the shape hit at toi 0.
func rayCollider(origin, dir mgl32.Vec3, c *collider) (float32, mgl32.Vec3, bool) {
	switch c.shape {
	case ShapeBall:
		return raySphere(origin, dir, c.pos, c.radius)
	case ShapeBox:
		inv := c.rot.Conjugate()
		toi, n, ok := rayBox(inv.Rotate(origin.Sub(c.pos)), inv.Rotate(dir), c.halfExtents)
		return toi, c.rot.Rotate(n), ok
	case ShapeTriMesh:
		inv := c.rot.Conjugate()
		toi, n, ok := rayTriMesh(inv.Rotate(origin.Sub(c.pos)), inv.Rotate(dir), c.mesh)
		return toi, c.rot.Rotate(n), ok
	}
	return 0, mgl32.Vec3{}, false
}

func raySphere(origin, dir, center mgl32.Vec3, radius float32) (float32, mgl32.Vec3, bool) {
	m := origin.Sub(center)
	c := m.Dot(m) - radius*radius
	if c <= 0 {
		return 0, safeNormalize(m, dir.Mul(-1).Normalize()), true
	}
	a := dir.Dot(dir)
	b := m.Dot(dir)
	if b > 0 {
		return 0, mgl32.Vec3{}, false
	}
	disc := b*b - a*c
	if disc < 0 {
		return 0, mgl32.Vec3{}, false
	}
	t := (-b - math32.Sqrt(disc)) / a
	return t, origin.Add(dir.Mul(t)).Sub(center).Normalize(), true
}

// rayBox is the slab test in the box's local space.
func rayBox(origin, dir, h mgl32.Vec3) (float32, mgl32.Vec3, bool) {
	tMin, tMax := float32(0), math32.Inf(1)
	var n mgl32.Vec3
	inside := true
	for i := 0; i < 3; i++ {
		if math32.Abs(origin[i]) > h[i] {
			inside = false
		}
		if math32.Abs(dir[i]) < 1e-9 {
			if origin[i] < -h[i] || origin[i] > h[i] {
				return 0, mgl32.Vec3{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1, t2 := (-h[i]-origin[i])*inv, (h[i]-origin[i])*inv
		sign := float32(-1)
		if t1 > t2 {
			t1, t2 = t2, t1
			sign = 1
		}
		if t1 > tMin {
			tMin = t1
			n = mgl32.Vec3{}
			n[i] = sign
		}
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return 0, mgl32.Vec3{}, false
		}
	}
	if inside {
		return 0, safeNormalize(dir.Mul(-1), mgl32.Vec3{0, 1, 0}), true
	}
	return tMin, n, true
}

// rayTriMesh runs Moller-Trumbore against every triangle and keeps the nearest hit.
func rayTriMesh(origin, dir mgl32.Vec3, m *triMesh) (float32, mgl32.Vec3, bool) {
	if m == nil {
		return 0, mgl32.Vec3{}, false
	}
	best := math32.Inf(1)
	var normal mgl32.Vec3
	for i := range m.tris {
		t := &m.tris[i]
		e1, e2 := t.b.Sub(t.a), t.c.Sub(t.a)
		p := dir.Cross(e2)
		det := e1.Dot(p)
		if math32.Abs(det) < 1e-9 {
			continue
		}
		inv := 1 / det
		s := origin.Sub(t.a)
		u := s.Dot(p) * inv
		if u < 0 || u > 1 {
			continue
		}
		q := s.Cross(e1)
		v := dir.Dot(q) * inv
		if v < 0 || u+v > 1 {
			continue
		}
		toi := e2.Dot(q) * inv
		if toi < 0 || toi >= best {
			continue
		}
		best = toi
		normal = t.normal
		if normal.Dot(dir) > 0 {
			normal = normal.Mul(-1)
		}
	}
	if math32.IsInf(best, 1) {
		return 0, mgl32.Vec3{}, false
	}
	return best, normal, true
}

// surfaceDistance returns the distance from p to the surface of c (negative inside boxes and
// balls) and the outward direction from the surface toward p.
func surfaceDistance(p mgl32.Vec3, c *collider) (float32, mgl32.Vec3) {
	switch c.shape {
	case ShapeBall:
		d := p.Sub(c.pos)
		return d.Len() - c.radius, safeNormalize(d, mgl32.Vec3{0, 1, 0})
	case ShapeBox:
		inv := c.rot.Conjugate()
		local := inv.Rotate(p.Sub(c.pos))
		h := c.halfExtents
		q := mgl32.Vec3{
			mgl32.Clamp(local[0], -h[0], h[0]),
			mgl32.Clamp(local[1], -h[1], h[1]),
			mgl32.Clamp(local[2], -h[2], h[2]),
		}
		if diff := local.Sub(q); diff.LenSqr() > 1e-12 {
			d := diff.Len()
			return d, c.rot.Rotate(diff.Mul(1 / d))
		}
		axis, best := 0, math32.Inf(1)
		for i := 0; i < 3; i++ {
			if d := h[i] - math32.Abs(local[i]); d < best {
				axis, best = i, d
			}
		}
		var n mgl32.Vec3
		n[axis] = 1
		if local[axis] < 0 {
			n[axis] = -1
		}
		return -best, c.rot.Rotate(n)
	case ShapeTriMesh:
		if c.mesh == nil || len(c.mesh.tris) == 0 {
			return math32.Inf(1), mgl32.Vec3{0, 1, 0}
		}
		inv := c.rot.Conjugate()
		local := inv.Rotate(p.Sub(c.pos))
		best := math32.Inf(1)
		var n mgl32.Vec3
		for i := range c.mesh.tris {
			t := &c.mesh.tris[i]
			q := closestPointOnTriangle(local, t.a, t.b, t.c)
			diff := local.Sub(q)
			if d := diff.Len(); d < best {
				best = d
				n = safeNormalize(diff, t.normal)
			}
		}
		return best, c.rot.Rotate(n)
	}
	return math32.Inf(1), mgl32.Vec3{0, 1, 0}
}

// boundingRadius is the radius used when a collider is swept as a character.
func boundingRadius(c *collider) float32 {
	switch c.shape {
	case ShapeBall:
		return c.radius
	case ShapeBox:
		return c.halfExtents.Len()
	case ShapeTriMesh:
		if c.mesh != nil {
			var far mgl32.Vec3
			for i := 0; i < 3; i++ {
				far[i] = math32.Max(math32.Abs(c.mesh.min[i]), math32.Abs(c.mesh.max[i]))
			}
			return far.Len()
		}
	}
	return 0
}
