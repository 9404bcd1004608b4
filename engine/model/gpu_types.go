package model

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUVertexSource is the WGSL VertexInput struct matching GPUVertex.
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUInstanceSource is the WGSL InstanceInput struct matching GPUInstance.
//
//go:embed assets/instance.wgsl
var GPUInstanceSource string

const (
	// GPUVertexSize is the byte size of GPUVertex.
	GPUVertexSize = 64
	// GPUInstanceSize is the byte size of GPUInstance.
	GPUInstanceSize = 112
)

// Shader locations of the vertex and instance attributes.
const (
	LocationPosition = iota
	LocationNormal
	LocationTexCoord
	LocationColor
	LocationTangent
	LocationModel0
	LocationModel1
	LocationModel2
	LocationModel3
	LocationNormal0
	LocationNormal1
	LocationNormal2
)

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Size: 64 bytes, no padding required.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
	Color    [4]float32 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  [4]float32 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, GPUVertexSize)
	putFloats(buf[0:], g.Position[:])
	putFloats(buf[12:], g.Normal[:])
	putFloats(buf[24:], g.TexCoord[:])
	putFloats(buf[32:], g.Color[:])
	putFloats(buf[48:], g.Tangent[:])
	return buf
}

// VertexLayout describes GPUVertex to a render pipeline.
//
// Returns:
//   - wgpu.VertexBufferLayout: per-vertex layout with five attributes
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUVertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: LocationPosition},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: LocationNormal},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: LocationTexCoord},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: LocationColor},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: LocationTangent},
		},
	}
}

// GPUInstance is the per-instance data of the lit pass: the world matrix and the normal matrix.
// The normal matrix columns are padded to vec4 in the buffer.
// Size: 112 bytes.
type GPUInstance struct {
	Model  mgl32.Mat4 // offset  0: model-to-world matrix (64 bytes)
	Normal mgl32.Mat3 // offset 64: inverse-transpose of the upper 3x3, 3 x vec4 (48 bytes)
}

// NewGPUInstance builds the instance data for a world matrix.
func NewGPUInstance(world mgl32.Mat4) GPUInstance {
	return GPUInstance{Model: world, Normal: common.NormalMatrix(world)}
}

// Put writes the instance into buf, which must hold at least GPUInstanceSize bytes.
func (g *GPUInstance) Put(buf []byte) {
	putFloats(buf[0:], g.Model[:])
	for col := range 3 {
		off := 64 + col*16
		putFloats(buf[off:], g.Normal[col*3:col*3+3])
		binary.LittleEndian.PutUint32(buf[off+12:], 0)
	}
}

// Marshal serializes the instance for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload.
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, GPUInstanceSize)
	g.Put(buf)
	return buf
}

// InstanceLayout describes GPUInstance to a render pipeline.
//
// Returns:
//   - wgpu.VertexBufferLayout: per-instance layout with seven vec4 attributes
func InstanceLayout() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, 7)
	for i := range 7 {
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         wgpu.VertexFormatFloat32x4,
			Offset:         uint64(i * 16),
			ShaderLocation: uint32(LocationModel0 + i),
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: GPUInstanceSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes:  attrs,
	}
}

// ComputeBoundingRadius calculates the bounding sphere radius from a slice of
// GPUVertex positions. The radius is the maximum distance from the origin
// across all vertices in the slice.
//
// Parameters:
//   - vertices: the vertex data to compute the bounding radius from
//
// Returns:
//   - float32: the maximum distance from the origin
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		p := v.Position
		distSq := p[0]*p[0] + p[1]*p[1] + p[2]*p[2]
		if distSq > maxDistSq {
			maxDistSq = distSq
		}
	}
	return math32.Sqrt(maxDistSq)
}

func putFloats(buf []byte, v []float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

func putUint32(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}
