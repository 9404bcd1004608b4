package light

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
)

// GPULightsSource holds the WGSL Light and Lights structs, the layout MarshalLights writes.
//
//go:embed assets/lights.wgsl
var GPULightsSource string

// MaxLights is the capacity of the light uniform array.
const MaxLights = 10

const (
	// GPULightSize is the byte size of one GPULight.
	GPULightSize = 32
	// GPULightHeaderSize is the byte size of GPULightHeader.
	GPULightHeaderSize = 16
	// GPULightsSize is the byte size of the whole light uniform buffer.
	GPULightsSize = GPULightHeaderSize + MaxLights*GPULightSize
)

// GPULight is the GPU-aligned representation of a single point light.
// Matches the WGSL Light struct of the scene shaders.
// Size: 32 bytes.
type GPULight struct {
	Position  [3]float32 // offset  0: world-space position
	_pad      uint32     // offset 12
	Color     [3]float32 // offset 16: linear RGB color
	Intensity float32    // offset 28: scalar multiplier
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, GPULightSize)
	g.put(buf)
	return buf
}

func (g *GPULight) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], 0)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.Intensity))
}

// GPULightHeader precedes the light array in the uniform buffer.
// Size: 16 bytes (vec3 + u32).
type GPULightHeader struct {
	AmbientColor [3]float32 // offset 0: scene ambient RGB
	LightCount   uint32     // offset 12: number of active lights following the header
}

// Marshal serializes the GPULightHeader struct into a byte buffer suitable for
// GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (h *GPULightHeader) Marshal() []byte {
	buf := make([]byte, GPULightHeaderSize)
	h.put(buf)
	return buf
}

func (h *GPULightHeader) put(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(h.AmbientColor[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(h.AmbientColor[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(h.AmbientColor[2]))
	binary.LittleEndian.PutUint32(buf[12:16], h.LightCount)
}

// MarshalLights packs the header and lights into a GPULightsSize buffer; unused slots are zero.
// Panics when more than MaxLights lights are supplied.
//
// Parameters:
//   - ambient: scene ambient RGB
//   - lights: the active lights
//
// Returns:
//   - []byte: the uniform buffer contents
func MarshalLights(ambient [3]float32, lights []GPULight) []byte {
	if len(lights) > MaxLights {
		panic(fmt.Sprintf("light: %d lights exceed the maximum of %d", len(lights), MaxLights))
	}
	buf := make([]byte, GPULightsSize)
	header := GPULightHeader{AmbientColor: ambient, LightCount: uint32(len(lights))}
	header.put(buf)
	for i := range lights {
		off := GPULightHeaderSize + i*GPULightSize
		lights[i].put(buf[off : off+GPULightSize])
	}
	return buf
}
