package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripComments(t *testing.T) {
	src := "a /* outer /* inner */ still */ b // tail\nc"
	assert.Equal(t, "a  b \nc", stripComments(src))
	assert.Equal(t, "x ", stripComments("x // no newline"))
}

func TestSplitMembersKeepsArrayParams(t *testing.T) {
	parts := splitMembers("a: f32, items: array<vec4<f32>, 4>, b: u32,")
	require.Len(t, parts, 3)
	assert.Contains(t, parts[1], "array<vec4<f32>, 4>")
}

func TestLayouts(t *testing.T) {
	structs := parseStructs(`
struct Padded {
    m: mat4x4<f32>,
    v: vec3<f32>,
    s: f32,
    tail: vec2f,
}
struct Fixed {
    count: u32,
    items: array<Padded, 3>,
}
struct Runtime {
    count: u32,
    items: array<vec4<f32>>,
}
struct Loop {
    next: Loop,
}`)
	r := newLayoutResolver(structs)

	cases := []struct {
		typ   string
		size  uint64
		align uint64
	}{
		{"f32", 4, 4},
		{"vec2<f32>", 8, 8},
		{"vec3f", 12, 16},
		{"mat3x3<f32>", 48, 16},
		{"mat4x4f", 64, 16},
		{"array<vec3<f32>, 2>", 32, 16},
		{"Padded", 96, 16},
		{"Fixed", 16 + 3*96, 16},
		{"Runtime", 16, 16},
		{"array<u32>", 4, 4},
	}
	for _, tc := range cases {
		t.Run(tc.typ, func(t *testing.T) {
			l, ok := r.layout(tc.typ)
			require.True(t, ok)
			assert.Equal(t, tc.size, l.size)
			assert.Equal(t, tc.align, l.align)
		})
	}

	_, ok := r.layout("Loop")
	assert.False(t, ok, "self-referencing structs have no layout")
	_, ok = r.layout("Unknown")
	assert.False(t, ok)
}

func TestVertexInputSkipsOutputStructs(t *testing.T) {
	layouts := vertexInputs(parseStructs(`
struct In {
    @location(0) position: vec3<f32>,
    @location(1) id: u32,
}
struct Out {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec4<f32>,
}`))
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(16), layouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatUint32, layouts[0].Attributes[1].Format)
	assert.Equal(t, uint64(12), layouts[0].Attributes[1].Offset)
}

func TestResourceEntries(t *testing.T) {
	groups, names := resources(`
@group(2) @binding(1) var<storage, read_write> out: array<u32>;
@group(2) @binding(0) var<storage, read> data: array<vec4<f32>>;
@group(3) @binding(0) var shadow: texture_depth_2d;
@group(3) @binding(1) var shadow_sampler: sampler_comparison;
@group(3) @binding(2) var ids: texture_2d<u32>;
`, wgpu.ShaderStageFragment, newLayoutResolver(nil))

	storage := groups[2].Entries
	require.Len(t, storage, 2)
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, storage[0].Buffer.Type)
	assert.Equal(t, uint64(16), storage[0].Buffer.MinBindingSize)
	assert.Equal(t, wgpu.BufferBindingTypeStorage, storage[1].Buffer.Type)
	assert.Equal(t, "out", names[2][1])

	handles := groups[3].Entries
	require.Len(t, handles, 3)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, handles[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeComparison, handles[1].Sampler.Type)
	assert.Equal(t, wgpu.TextureSampleTypeUint, handles[2].Texture.SampleType)
	assert.Equal(t, wgpu.ShaderStageFragment, handles[2].Visibility)
}
