package transform

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func expected(t *Transform) mgl32.Mat4 {
	p, s := t.Position(), t.Scale()
	return mgl32.Translate3D(p[0], p[1], p[2]).
		Mul4(t.Rotation().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func assertFresh(tb testing.TB, tr *Transform) {
	tb.Helper()
	assert.True(tb, tr.Matrix().ApproxEqualThreshold(expected(tr), 1e-5), "matrix is stale: got %v want %v", tr.Matrix(), expected(tr))
}

func TestMatrixFreshAfterEverySetter(t *testing.T) {
	tr := New(mgl32.Vec3{1, 2, 3}, mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{2, 0.5, 1})
	assertFresh(t, &tr)

	steps := []struct {
		name string
		do   func()
	}{
		{"SetPosition", func() { tr.SetPosition(mgl32.Vec3{-4, 0, 9}) }},
		{"SetRotation", func() { tr.SetRotation(mgl32.QuatRotate(1.1, mgl32.Vec3{1, 0, 0})) }},
		{"SetScale", func() { tr.SetScale(mgl32.Vec3{3, 3, 0.25}) }},
		{"SetPose", func() { tr.SetPose(mgl32.Vec3{0, 5, 0}, mgl32.QuatRotate(-0.7, mgl32.Vec3{0, 0, 1})) }},
		{"Translate", func() { tr.Translate(mgl32.Vec3{0.5, -1, 2}) }},
		{"Rotate", func() { tr.Rotate(mgl32.QuatRotate(0.2, mgl32.Vec3{0, 1, 0})) }},
		{"RotateLocal", func() { tr.RotateLocal(mgl32.QuatRotate(0.2, mgl32.Vec3{1, 0, 0})) }},
		{"RotateAxis", func() { tr.RotateAxis(mgl32.Vec3{0, 1, 0}, 0.4) }},
		{"RotateLocalAxis", func() { tr.RotateLocalAxis(mgl32.Vec3{1, 0, 0}, -0.4) }},
		{"LookAt", func() { tr.LookAt(mgl32.Vec3{10, 0, -10}) }},
		{"TranslateAround", func() { tr.TranslateAround(mgl32.Vec3{}, mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})) }},
	}
	for _, step := range steps {
		step.do()
		t.Run(step.name, func(t *testing.T) {
			assertFresh(t, &tr)
		})
	}
}

func TestBasisVectorsOfIdentity(t *testing.T) {
	tr := Identity()
	assert.True(t, tr.Forward().ApproxEqual(mgl32.Vec3{0, 0, -1}))
	assert.True(t, tr.Right().ApproxEqual(mgl32.Vec3{1, 0, 0}))
	assert.True(t, tr.Up().ApproxEqual(mgl32.Vec3{0, 1, 0}))
}

func TestLookAtFacesTarget(t *testing.T) {
	tr := FromPosition(mgl32.Vec3{0, 1.7, 0})
	tr.LookAt(mgl32.Vec3{0, 0, -100})

	want := mgl32.Vec3{0, -1.7, -100}.Normalize()
	assertVecInDelta(t, want, tr.Forward(), 1e-4)
	assert.InDelta(t, 0, tr.Right().Y(), 1e-5)

	side := FromPosition(mgl32.Vec3{})
	side.LookAt(mgl32.Vec3{5, 0, 0})
	assertVecInDelta(t, mgl32.Vec3{1, 0, 0}, side.Forward(), 1e-4)
	assert.GreaterOrEqual(t, side.Forward().Dot(mgl32.Vec3{1, 0, 0}), float32(1-1e-5))
}

// assertVecInDelta compares component-wise; relative comparisons fail on float32 noise around zero.
func assertVecInDelta(t *testing.T, want, got mgl32.Vec3, delta float64) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], delta, "got %v want %v", got, want)
}

func TestLookAtDegenerateTargetKeepsRotation(t *testing.T) {
	tr := FromPosition(mgl32.Vec3{1, 1, 1})
	before := tr.Rotation()
	tr.LookAt(mgl32.Vec3{1, 1, 1})
	tr.LookAt(mgl32.Vec3{1, 9, 1})
	assert.Equal(t, before, tr.Rotation())
}

func TestTranslateAroundOrbitsWithoutRotating(t *testing.T) {
	tr := FromPosition(mgl32.Vec3{5, 10, 0})
	tr.TranslateAround(mgl32.Vec3{}, mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 1, 0}))

	assert.True(t, tr.Position().ApproxEqualThreshold(mgl32.Vec3{0, 10, -5}, 1e-5), "got %v", tr.Position())
	assert.Equal(t, mgl32.QuatIdent(), tr.Rotation())
}

func TestScaleDoesNotLeakIntoBasisDirection(t *testing.T) {
	tr := New(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{4, 4, 4})
	assert.InDelta(t, 4, tr.Forward().Len(), 1e-5)
	assert.True(t, tr.Forward().Normalize().ApproxEqual(mgl32.Vec3{0, 0, -1}))
}
