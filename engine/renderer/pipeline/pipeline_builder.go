package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithDepthTestEnabled sets whether the pipeline tests against a depth attachment.
// A pipeline without depth testing declares no depth state at all and must be used in a pass
// without a depth attachment.
//
// Parameters:
//   - enabled: true to depth test
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthFormat sets the depth attachment format.
func WithDepthFormat(format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthFormat = format
	}
}

// WithCullMode sets which faces are culled.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology.
//
// Parameters:
//   - topology: the primitive topology, e.g. wgpu.PrimitiveTopologyLineList for wireframe
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the winding order of front faces.
//
// Parameters:
//   - frontFace: the winding order
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithBlendState sets the color target blend state. Nil disables blending.
//
// Parameters:
//   - blendState: the blend state or nil
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
	}
}

// WithVertexLayouts replaces the vertex buffer layouts parsed from the shader.
//
// Parameters:
//   - layouts: one layout per vertex buffer slot
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithInstanceSlot marks the vertex buffer at slot as stepping per instance.
// It must follow any WithVertexLayouts option.
//
// Parameters:
//   - slot: the vertex buffer slot
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithInstanceSlot(slot int) PipelineBuilderOption {
	return func(p *pipeline) {
		if slot < 0 || slot >= len(p.vertexLayouts) {
			return
		}
		layouts := make([]wgpu.VertexBufferLayout, len(p.vertexLayouts))
		copy(layouts, p.vertexLayouts)
		layouts[slot].StepMode = wgpu.VertexStepModeInstance
		p.vertexLayouts = layouts
	}
}
