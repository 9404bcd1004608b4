package physics

import (
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// gap kept between a character and what it slides along
	characterSkin = float32(0.01)
	maxSlides     = 4
	maxAdvance    = 32
)

func (w *physicsWorld) MoveCharacter(h ColliderHandle, desired mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	c := w.mustCollider(h)
	radius := boundingRadius(c)

	pos := c.pos
	remaining := desired
	var total mgl32.Vec3
	for i := 0; i < maxSlides && remaining.Len() > 1e-6; i++ {
		frac, normal, hit := w.sweepSphere(pos, radius, remaining, c)
		move := remaining.Mul(frac)
		total = total.Add(move)
		pos = pos.Add(move)
		if !hit {
			break
		}
		rest := remaining.Sub(move)
		if into := rest.Dot(normal); into < 0 {
			rest = rest.Sub(normal.Mul(into))
		}
		remaining = rest
	}
	return total, c.pos
}

// sweepSphere moves a sphere along motion by conservative advancement and reports the fraction
// of motion that is free, plus the obstacle normal on a hit. Obstacles the sphere already touches
// only block motion heading into them.
func (w *physicsWorld) sweepSphere(start mgl32.Vec3, radius float32, motion mgl32.Vec3, self *collider) (float32, mgl32.Vec3, bool) {
	length := motion.Len()
	if length < 1e-9 {
		return 1, mgl32.Vec3{}, false
	}
	dir := motion.Mul(1 / length)

	end := start.Add(motion)
	swept := aabb{min: vmin(start, end), max: vmax(start, end)}.inflate(radius + characterSkin)

	var candidates []*collider
	w.colliders.each(func(_, _ uint32, c *collider) {
		if c == self || !c.box.overlaps(swept) {
			return
		}
		if d, n := surfaceDistance(start, c); d-radius < characterSkin && n.Dot(dir) >= 0 {
			return
		}
		candidates = append(candidates, c)
	})
	if len(candidates) == 0 {
		return 1, mgl32.Vec3{}, false
	}

	t := float32(0)
	for i := 0; i < maxAdvance; i++ {
		p := start.Add(dir.Mul(t))
		minDist := float32(0)
		var normal mgl32.Vec3
		for k, c := range candidates {
			d, n := surfaceDistance(p, c)
			d -= radius
			if k == 0 || d < minDist {
				minDist, normal = d, n
			}
		}
		if minDist < characterSkin {
			return t / length, normal, true
		}
		t += minDist
		if t >= length {
			return 1, mgl32.Vec3{}, false
		}
	}
	return t / length, mgl32.Vec3{}, false
}
