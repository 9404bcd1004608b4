package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `
//#include camera
//#include vertex
//#include instance
@group(0) @binding(0) var<uniform> camera: Camera;

struct Out {
    @builtin(position) clip_position: vec4<f32>,
}

@vertex
fn vs_main(vertex: VertexInput, instance: InstanceInput) -> Out {
    var out: Out;
    out.clip_position = camera.view_proj * vec4<f32>(vertex.position, 1.0);
    return out;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

func TestDefaults(t *testing.T) {
	s := shader.MustShader("test", testSource)
	p := NewPipeline("test", s, wgpu.TextureFormatRGBA16Float)

	desc := p.Descriptor(nil, nil)
	assert.Equal(t, "vs_main", desc.Vertex.EntryPoint)
	assert.Equal(t, "fs_main", desc.Fragment.EntryPoint)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, desc.Primitive.Topology)
	assert.Equal(t, wgpu.FrontFaceCCW, desc.Primitive.FrontFace)
	assert.Equal(t, wgpu.CullModeNone, desc.Primitive.CullMode)
	require.NotNil(t, desc.DepthStencil)
	assert.Equal(t, DefaultDepthFormat, desc.DepthStencil.Format)
	assert.True(t, desc.DepthStencil.DepthWriteEnabled)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, desc.Fragment.Targets[0].Format)
	assert.Equal(t, AlphaBlend(), desc.Fragment.Targets[0].Blend)
	assert.Len(t, desc.Vertex.Buffers, 2)
}

func TestOptionsShapeDescriptor(t *testing.T) {
	s := shader.MustShader("test", testSource)
	p := NewPipeline("lit", s, wgpu.TextureFormatBGRA8Unorm,
		WithTopology(wgpu.PrimitiveTopologyLineList),
		WithFrontFace(wgpu.FrontFaceCW),
		WithCullMode(wgpu.CullModeBack),
		WithBlendState(nil),
		WithVertexLayouts(model.VertexLayout(), model.InstanceLayout()),
		WithInstanceSlot(1),
		WithInstanceSlot(7),
	)

	desc := p.Descriptor(nil, nil)
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, desc.Primitive.Topology)
	assert.Equal(t, wgpu.FrontFaceCW, desc.Primitive.FrontFace)
	assert.Equal(t, wgpu.CullModeBack, desc.Primitive.CullMode)
	assert.Nil(t, desc.Fragment.Targets[0].Blend)
	assert.Equal(t, wgpu.VertexStepModeVertex, desc.Vertex.Buffers[0].StepMode)
	assert.Equal(t, wgpu.VertexStepModeInstance, desc.Vertex.Buffers[1].StepMode)
	assert.Equal(t, "lit Render Pipeline", desc.Label)
}

func TestInstanceSlotDoesNotAliasShaderLayouts(t *testing.T) {
	s := shader.MustShader("test", testSource)
	NewPipeline("a", s, wgpu.TextureFormatBGRA8Unorm, WithInstanceSlot(1))
	assert.Equal(t, wgpu.VertexStepModeVertex, s.VertexLayouts()[1].StepMode)
}

func TestNoDepthState(t *testing.T) {
	s := shader.MustShader("test", testSource)
	p := NewPipeline("sky", s, wgpu.TextureFormatBGRA8Unorm, WithDepthTestEnabled(false))
	assert.Nil(t, p.Descriptor(nil, nil).DepthStencil)
	assert.Nil(t, p.RenderPipeline())
	assert.Nil(t, p.BindGroupLayout(0))
}

func TestGroupCount(t *testing.T) {
	assert.Equal(t, 0, GroupCount(nil))
	assert.Equal(t, 3, GroupCount(map[int]wgpu.BindGroupLayoutDescriptor{0: {}, 2: {}}))
}
