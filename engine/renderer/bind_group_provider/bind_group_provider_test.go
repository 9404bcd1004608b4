package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestEntriesOrderedByBinding(t *testing.T) {
	p := NewBindGroupProvider("model",
		WithSampler(2, nil),
		WithTextureView(0, nil),
		WithTextureView(1, nil),
	)
	p.SetBuffer(3, nil)

	entries := p.Entries()
	assert.Len(t, entries, 4)
	for i, e := range entries {
		assert.Equal(t, uint32(i), e.Binding)
	}
	assert.Equal(t, uint64(wgpu.WholeSize), entries[3].Size)
	assert.Equal(t, "model", p.Label())
}

func TestSetMeshAndRelease(t *testing.T) {
	p := NewBindGroupProvider("mesh", WithBuffer(0, nil))
	p.SetMesh(nil, nil, 36, nil, 72)
	assert.Equal(t, 36, p.IndexCount())
	assert.Equal(t, 72, p.LineIndexCount())

	p.Release()
	assert.Zero(t, p.IndexCount())
	assert.Zero(t, p.LineIndexCount())
	assert.Empty(t, p.Entries())
	assert.Nil(t, p.BindGroup())
}
