package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestRegistryInterns(t *testing.T) {
	r := NewRegistry()
	a := r.Intern("cube")
	b := r.Intern("sphere")
	assert.NotEqual(t, NoModel, a)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, r.Intern("cube"))
	assert.Equal(t, "sphere", r.Name(b))
	assert.Equal(t, "", r.Name(NoModel))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, b, r.MustLookup("sphere"))
	assert.Panics(t, func() { r.MustLookup("rock") })
}

func TestNewModel(t *testing.T) {
	verts := []GPUVertex{{Position: [3]float32{3, 4, 0}}, {Position: [3]float32{1, 0, 0}}}
	mesh := &physics.CollisionMesh{}
	m := NewModel(
		WithName("thing"),
		WithMesh(verts, []uint32{0, 1, 0}),
		WithCollisionMesh(mesh),
		WithTextures("diffuse", "normal"),
	)
	assert.Equal(t, "thing", m.Name())
	assert.InDelta(t, 5, m.BoundingRadius(), 1e-6)
	assert.Equal(t, 3, m.IndexCount())
	assert.Len(t, m.VertexData(), 2*GPUVertexSize)
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(m.IndexData()[4:]))
	assert.Same(t, mesh, m.CollisionMesh())
	assert.Equal(t, "normal", m.NormalTexture())
}

func TestGPUInstanceLayout(t *testing.T) {
	world := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	inst := NewGPUInstance(world)
	buf := inst.Marshal()
	require.Len(t, buf, GPUInstanceSize)
	assert.Equal(t, float32(1), f32At(buf, 48))
	assert.Equal(t, float32(3), f32At(buf, 56))
	assert.InDelta(t, 0.5, f32At(buf, 64), 1e-6, "normal matrix of a uniform scale")
	assert.Zero(t, f32At(buf, 76), "column padding")
	assert.InDelta(t, 0.5, f32At(buf, 84), 1e-6)

	layout := InstanceLayout()
	assert.Equal(t, uint64(GPUInstanceSize), layout.ArrayStride)
	assert.Len(t, layout.Attributes, 7)
}

func runGrouper(t *testing.T, g Grouper) {
	t.Helper()
	defer g.Close()

	a, b, c := ModelSpec{ID: 7}, ModelSpec{ID: 3}, ModelSpec{ID: 9}
	g.Reset()
	for i := range 300 {
		g.Add(a, mgl32.Translate3D(float32(i), 0, 0))
	}
	g.Add(b, mgl32.Ident4())
	g.Add(b, mgl32.Translate3D(0, 5, 0))

	groups := g.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, ModelID(7), groups[0].Model)
	assert.Equal(t, 0, groups[0].Ordinal)
	assert.Equal(t, 300, groups[0].Count)
	require.Len(t, groups[0].Data, 300*GPUInstanceSize)
	assert.Equal(t, float32(299), f32At(groups[0].Data, 299*GPUInstanceSize+48))
	assert.Equal(t, 1, groups[1].Ordinal)
	assert.Equal(t, float32(5), f32At(groups[1].Data, GPUInstanceSize+52))

	// next frame: model 7 absent, a new model appears; ordinals stay put
	g.Reset()
	g.Add(c, mgl32.Ident4())
	g.Add(b, mgl32.Ident4())
	groups = g.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, ModelID(3), groups[0].Model)
	assert.Equal(t, 1, groups[0].Ordinal)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, ModelID(9), groups[1].Model)
	assert.Equal(t, 2, groups[1].Ordinal)
	ord, ok := g.Ordinal(a.ID)
	assert.True(t, ok)
	assert.Equal(t, 0, ord)
}

func TestGrouperSerial(t *testing.T) {
	runGrouper(t, NewGrouper(WithWorkers(1)))
}

func TestGrouperParallel(t *testing.T) {
	runGrouper(t, NewGrouper(WithWorkers(4), WithSerialThreshold(1)))
}
