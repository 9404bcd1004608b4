package camera

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// GPUCameraUniformSource is the WGSL Camera struct matching GPUCameraUniform.
//
//go:embed assets/camera.wgsl
var GPUCameraUniformSource string

// GPUSkyboxUniformSource is the WGSL Skybox struct matching GPUSkyboxUniform.
//
//go:embed assets/skybox.wgsl
var GPUSkyboxUniformSource string

// GPUCameraUniformSize is the byte size of GPUCameraUniform as laid out in WGSL.
const GPUCameraUniformSize = 80

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Matches the WGSL Camera struct of the scene shaders.
// Size: 80 bytes.
type GPUCameraUniform struct {
	ViewProj       mgl32.Mat4 // offset  0: combined view-projection matrix (mat4x4<f32>)
	CameraPosition [3]float32 // offset 64: world-space camera position (vec3<f32>)
	// offset 76: padding to 80 bytes
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized 80-byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, GPUCameraUniformSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	return buf
}

// GPUSkyboxUniformSize is the byte size of GPUSkyboxUniform.
const GPUSkyboxUniformSize = 64

// GPUSkyboxUniform carries the inverse of the translation-free view-projection.
type GPUSkyboxUniform struct {
	InvViewProj mgl32.Mat4
}

// Marshal serializes the uniform for GPU upload.
func (g *GPUSkyboxUniform) Marshal() []byte {
	buf := make([]byte, GPUSkyboxUniformSize)
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.InvViewProj[i]))
	}
	return buf
}
