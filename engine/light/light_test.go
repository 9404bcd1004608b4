package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestMarshalLightsAtCapacity(t *testing.T) {
	lights := make([]GPULight, MaxLights)
	for i := range lights {
		lights[i] = GPULight{Position: [3]float32{float32(i), 0, 0}, Color: [3]float32{1, 0, 0}, Intensity: 1}
	}
	var buf []byte
	require.NotPanics(t, func() { buf = MarshalLights([3]float32{0.1, 0.1, 0.1}, lights) })
	require.Len(t, buf, GPULightsSize)
	assert.Equal(t, uint32(MaxLights), binary.LittleEndian.Uint32(buf[12:]))
	last := GPULightHeaderSize + (MaxLights-1)*GPULightSize
	assert.Equal(t, float32(MaxLights-1), f32At(buf, last))
	assert.Equal(t, float32(1), f32At(buf, last+28))
}

func TestMarshalLightsOverCapacityPanics(t *testing.T) {
	lights := make([]GPULight, MaxLights+1)
	assert.Panics(t, func() { MarshalLights([3]float32{}, lights) })
}

func TestMarshalLightsZeroesUnusedSlots(t *testing.T) {
	buf := MarshalLights([3]float32{}, []GPULight{{Color: [3]float32{0, 1, 0}, Intensity: 2}})
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[12:]))
	assert.Equal(t, float32(1), f32At(buf, GPULightHeaderSize+20))
	for _, b := range buf[GPULightHeaderSize+GPULightSize:] {
		assert.Zero(t, b)
	}
}

func TestNewAndGPU(t *testing.T) {
	l := New(WithColor(0, 0, 1), WithIntensity(-3))
	assert.Zero(t, l.Intensity)
	tr := transform.FromPosition(mgl32.Vec3{5, 10, -5})
	g := l.GPU(&tr)
	assert.Equal(t, [3]float32{5, 10, -5}, g.Position)
	assert.Equal(t, [3]float32{0, 0, 1}, g.Color)
	assert.Len(t, g.Marshal(), GPULightSize)
}

func TestOrbitQuarterTurn(t *testing.T) {
	tr := transform.FromPosition(mgl32.Vec3{5, 10, 0})
	Orbit(&tr, 2) // 90 degrees
	p := tr.Position()
	assert.InDelta(t, 0, p.X(), 1e-4)
	assert.InDelta(t, 10, p.Y(), 1e-4)
	assert.InDelta(t, -5, p.Z(), 1e-4)
	assert.InDelta(t, 5, mgl32.Vec2{p.X(), p.Z()}.Len(), 1e-4)
}
