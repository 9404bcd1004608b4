package shader

import (
	"strings"
	"testing"

	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/light"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litSource = `
//#include camera
//#include lights
//#include vertex
//#include instance

@group(0) @binding(0) var<uniform> camera: Camera;
@group(0) @binding(1) var<uniform> lights: Lights;
@group(1) @binding(1) var normal_texture: texture_2d<f32>;
@group(1) @binding(0) var diffuse_texture: texture_2d<f32>;
@group(1) @binding(2) var texture_sampler: sampler;

struct VertexOutput {
    @builtin(position) clip_position: vec4<f32>,
    @location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(vertex: VertexInput, instance: InstanceInput) -> VertexOutput {
    var out: VertexOutput;
    return out;
}

@fragment
fn fs_main(frag: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

func TestNewShaderParsesEntryPointsAndGroups(t *testing.T) {
	s, err := NewShader("lit", litSource)
	require.NoError(t, err)

	assert.Equal(t, "vs_main", s.VertexEntryPoint())
	assert.Equal(t, "fs_main", s.FragmentEntryPoint())
	assert.Equal(t, "lit", s.Module().Label)
	assert.NotContains(t, s.Source(), includePrefix)

	frame := s.BindGroupLayoutDescriptor(0)
	require.Len(t, frame.Entries, 2)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, frame.Entries[0].Buffer.Type)
	assert.Equal(t, uint64(camera.GPUCameraUniformSize), frame.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(light.GPULightsSize), frame.Entries[1].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, frame.Entries[1].Visibility)

	material := s.BindGroupLayoutDescriptor(1)
	require.Len(t, material.Entries, 3)
	for i, e := range material.Entries {
		assert.Equal(t, uint32(i), e.Binding, "entries sorted by binding")
	}
	assert.Equal(t, wgpu.TextureViewDimension2D, material.Entries[0].Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, material.Entries[1].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, material.Entries[2].Sampler.Type)

	binding, ok := s.Binding(1, "normal_texture")
	assert.True(t, ok)
	assert.Equal(t, 1, binding)
	assert.Equal(t, "lights", s.BindingVarName(0, 1))
	_, ok = s.Binding(1, "missing")
	assert.False(t, ok)
}

func TestVertexLayoutsMatchGPUTypes(t *testing.T) {
	s, err := NewShader("lit", litSource)
	require.NoError(t, err)

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 2)

	vertex := model.VertexLayout()
	assert.Equal(t, vertex.ArrayStride, layouts[0].ArrayStride)
	assert.Equal(t, vertex.Attributes, layouts[0].Attributes)

	instance := model.InstanceLayout()
	assert.Equal(t, instance.ArrayStride, layouts[1].ArrayStride)
	assert.Equal(t, instance.Attributes, layouts[1].Attributes)
	assert.Equal(t, wgpu.VertexStepModeVertex, layouts[1].StepMode)
}

func TestCubeTextureAndFullscreenInclude(t *testing.T) {
	src := `
//#include skybox
//#include fullscreen
@group(0) @binding(0) var<uniform> skybox: Skybox;
@group(0) @binding(1) var sky_texture: texture_cube<f32>;
@group(0) @binding(2) var sky_sampler: sampler;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> FullscreenOutput {
    return fullscreen_vertex(index);
}

@fragment
fn fs_main(frag: FullscreenOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(0.0);
}
`
	s, err := NewShader("sky", src)
	require.NoError(t, err)
	assert.Empty(t, s.VertexLayouts(), "builtin-only input has no vertex buffers")
	group := s.BindGroupLayoutDescriptor(0)
	require.Len(t, group.Entries, 3)
	assert.Equal(t, uint64(camera.GPUSkyboxUniformSize), group.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.TextureViewDimensionCube, group.Entries[1].Texture.ViewDimension)
}

func TestPreProcessor(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		wantErr string
		check   func(t *testing.T, out string)
	}{
		{
			name:   "repeat include expands once",
			source: "//#include camera\n//#include camera\n",
			check: func(t *testing.T, out string) {
				assert.Equal(t, 1, strings.Count(out, "struct Camera"))
			},
		},
		{
			name:    "unknown include",
			source:  "fn a() {}\n//#include nope\n",
			wantErr: "line 2: unknown include",
		},
		{
			name:    "missing name",
			source:  "//#include\n",
			wantErr: "exactly one name",
		},
		{
			name:   "plain lines untouched",
			source: "// a comment\nfn a() {}",
			check: func(t *testing.T, out string) {
				assert.Equal(t, "// a comment\nfn a() {}", out)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewPreProcessor().Process(tt.source)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestRegisteredInclude(t *testing.T) {
	p := NewPreProcessor()
	p.Register("extra", "const EXTRA: f32 = 1.0;")
	out, err := p.Process("//#include extra")
	require.NoError(t, err)
	assert.Equal(t, "const EXTRA: f32 = 1.0;", out)
}

func TestNewShaderRequiresEntryPoint(t *testing.T) {
	_, err := NewShader("empty", "//#include camera\n")
	assert.Error(t, err)
	assert.Panics(t, func() { MustShader("bad", "//#include nope") })
}

