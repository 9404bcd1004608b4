package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBackendType selects the GPU API behind a Renderer. WebGPU is the only one.
type RendererBackendType int

const (
	BackendTypeWGPU RendererBackendType = iota
)

func (t RendererBackendType) String() string {
	if t == BackendTypeWGPU {
		return "wgpu"
	}
	return "unknown"
}

// PresentMode is how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank.
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents as soon as a frame is done and may tear.
	PresentModeUncapped
)

// PresentModeFor maps the vsync setting to a present mode.
func PresentModeFor(vsync bool) PresentMode {
	if vsync {
		return PresentModeVSync
	}
	return PresentModeUncapped
}

func (m PresentMode) wgpu() wgpu.PresentMode {
	switch m {
	case PresentModeUncapped:
		return wgpu.PresentModeImmediate
	default:
		return wgpu.PresentModeFifo
	}
}

// RendererBackend is the GPU API surface the Renderer draws through.
type RendererBackend interface {
	wgpuRendererBackend
}
