package bind_group_provider

import (
	"cmp"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string

	// bindGroup is the GPU bind group, or nil until the Renderer creates it.
	bindGroup *wgpu.BindGroup
	// buffers holds the uniform buffers owned by this provider, keyed by binding index.
	buffers map[int]*wgpu.Buffer
	// textureViews holds the texture views bound by this provider, keyed by binding index.
	// Views are shared between providers and are not released here.
	textureViews map[int]*wgpu.TextureView
	// samplers holds the samplers bound by this provider, keyed by binding index. Shared like textureViews.
	samplers map[int]*wgpu.Sampler

	// vertexBuffer is the mesh vertex buffer, or nil for providers without a mesh.
	vertexBuffer *wgpu.Buffer
	// indexBuffer holds triangle-list indices.
	indexBuffer *wgpu.Buffer
	// indexCount is the number of triangle-list indices.
	indexCount int
	// lineIndexBuffer holds the line-list indices used for wireframe drawing.
	lineIndexBuffer *wgpu.Buffer
	// lineIndexCount is the number of line-list indices.
	lineIndexCount int
}

// BindGroupProvider holds the GPU resources behind one bind group, and optionally the mesh
// buffers drawn with it. The Renderer creates one for the per-frame uniforms, one for the
// skybox and one per model.
//
// Usage pattern:
//  1. The Renderer creates a provider with NewBindGroupProvider
//  2. It uploads buffers, views and samplers and stores them with the Set* methods
//  3. It creates the bind group from the stored resources and calls SetBindGroup
//  4. Draw calls read BindGroup and the mesh buffers
type BindGroupProvider interface {
	// Release frees the bind group, the owned buffers and the mesh buffers.
	// Texture views and samplers are shared and stay alive.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the created bind group, or nil before initialization.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the buffer at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// TextureView returns the texture view at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.TextureView: the texture view or nil
	TextureView(binding int) *wgpu.TextureView

	// Sampler returns the sampler at a binding, or nil.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler or nil
	Sampler(binding int) *wgpu.Sampler

	// VertexBuffer returns the mesh vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the triangle-list index buffer, or nil.
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of triangle-list indices.
	IndexCount() int

	// LineIndexBuffer returns the line-list index buffer used in wireframe mode, or nil.
	LineIndexBuffer() *wgpu.Buffer

	// LineIndexCount returns the number of line-list indices.
	LineIndexCount() int

	// SetBindGroup stores the created bind group, releasing any previous one.
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores an owned buffer for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	// SetTextureView stores a shared texture view for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - tv: the texture view
	SetTextureView(binding int, tv *wgpu.TextureView)

	// SetSampler stores a shared sampler for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - s: the sampler
	SetSampler(binding int, s *wgpu.Sampler)

	// SetMesh stores the mesh buffers.
	//
	// Parameters:
	//   - vertex: the vertex buffer
	//   - index: the triangle-list index buffer
	//   - indexCount: the number of triangle-list indices
	//   - lineIndex: the line-list index buffer, may be nil
	//   - lineIndexCount: the number of line-list indices
	SetMesh(vertex, index *wgpu.Buffer, indexCount int, lineIndex *wgpu.Buffer, lineIndexCount int)

	// Entries builds bind group entries from the stored resources, ordered by binding.
	// Buffers are bound whole.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: one entry per stored resource
	Entries() []wgpu.BindGroupEntry
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: debug label used for the resources created for this provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		buffers:      make(map[int]*wgpu.Buffer),
		textureViews: make(map[int]*wgpu.TextureView),
		samplers:     make(map[int]*wgpu.Sampler),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.textureViews[binding]
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	return p.samplers[binding]
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) LineIndexBuffer() *wgpu.Buffer {
	return p.lineIndexBuffer
}

func (p *bindGroupProvider) LineIndexCount() int {
	return p.lineIndexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.textureViews[binding] = tv
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.samplers[binding] = s
}

func (p *bindGroupProvider) SetMesh(vertex, index *wgpu.Buffer, indexCount int, lineIndex *wgpu.Buffer, lineIndexCount int) {
	p.vertexBuffer = vertex
	p.indexBuffer = index
	p.indexCount = indexCount
	p.lineIndexBuffer = lineIndex
	p.lineIndexCount = lineIndexCount
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupEntry {
	entries := make([]wgpu.BindGroupEntry, 0, len(p.buffers)+len(p.textureViews)+len(p.samplers))
	for binding, buf := range p.buffers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), Buffer: buf, Size: wgpu.WholeSize})
	}
	for binding, tv := range p.textureViews {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), TextureView: tv})
	}
	for binding, s := range p.samplers {
		entries = append(entries, wgpu.BindGroupEntry{Binding: uint32(binding), Sampler: s})
	}
	slices.SortFunc(entries, func(a, b wgpu.BindGroupEntry) int {
		return cmp.Compare(a.Binding, b.Binding)
	})
	return entries
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	clear(p.textureViews)
	clear(p.samplers)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	for _, buf := range []*wgpu.Buffer{p.vertexBuffer, p.indexBuffer, p.lineIndexBuffer} {
		if buf != nil {
			buf.Release()
		}
	}
	p.vertexBuffer, p.indexBuffer, p.lineIndexBuffer = nil, nil, nil
	p.indexCount, p.lineIndexCount = 0, 0
}
