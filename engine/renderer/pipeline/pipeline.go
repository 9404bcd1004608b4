package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultDepthFormat is the depth attachment format used by every depth-tested pass.
const DefaultDepthFormat = wgpu.TextureFormatDepth32Float

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key    string
	shader shader.Shader

	renderPipeline   *wgpu.RenderPipeline
	bindGroupLayouts []*wgpu.BindGroupLayout
	ownedLayouts     []*wgpu.BindGroupLayout

	// The following properties configure the pipeline at creation and are set with the builder options.

	targetFormat     wgpu.TextureFormat
	vertexLayouts    []wgpu.VertexBufferLayout
	depthTestEnabled bool
	depthFormat      wgpu.TextureFormat
	cullMode         wgpu.CullMode
	topology         wgpu.PrimitiveTopology
	frontFace        wgpu.FrontFace
	blendState       *wgpu.BlendState
}

// Pipeline is a render pipeline built from one Shader plus fixed-function state.
// The state is collected by options at construction; Build creates the GPU objects.
type Pipeline interface {
	// Key returns the unique key associated with this pipeline, used as its label.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	Key() string

	// Shader returns the shader the pipeline draws with.
	//
	// Returns:
	//   - shader.Shader: the pipeline's shader
	Shader() shader.Shader

	// Descriptor assembles the render pipeline descriptor for already created GPU objects.
	// Depth state is omitted when depth testing is disabled, for passes without a depth attachment.
	//
	// Parameters:
	//   - layout: the pipeline layout
	//   - module: the compiled shader module
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor passed to CreateRenderPipeline
	Descriptor(layout *wgpu.PipelineLayout, module *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor

	// Build compiles the shader and creates the bind group layouts, pipeline layout and render pipeline.
	// Layouts supplied in shared are used for their group index instead of creating new ones, so
	// several pipelines can bind the same bind group.
	//
	// Parameters:
	//   - device: the GPU device
	//   - shared: bind group layouts keyed by group index (nil safe)
	//
	// Returns:
	//   - error: an error if any GPU object could not be created
	Build(device *wgpu.Device, shared map[int]*wgpu.BindGroupLayout) error

	// RenderPipeline returns the GPU pipeline, or nil before Build.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the pipeline or nil
	RenderPipeline() *wgpu.RenderPipeline

	// BindGroupLayout returns the layout used for a group index after Build.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout, or nil if the group is not used
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// Release frees the pipeline and the bind group layouts it created.
	Release()

	DepthTestEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	TargetFormat() wgpu.TextureFormat
	BlendState() *wgpu.BlendState
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render Pipeline for a shader with the supplied options applied.
// Defaults: depth test and write on, triangle list, counter-clockwise front faces, no culling,
// alpha blending, vertex layouts as parsed from the shader.
//
// Parameters:
//   - key: a unique identifier for the pipeline
//   - s: the shader holding both entry points
//   - targetFormat: the color attachment format
//   - opts: functional options
//
// Returns:
//   - Pipeline: the configured, not yet built pipeline
func NewPipeline(key string, s shader.Shader, targetFormat wgpu.TextureFormat, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:              key,
		shader:           s,
		targetFormat:     targetFormat,
		vertexLayouts:    s.VertexLayouts(),
		depthTestEnabled: true,
		depthFormat:      DefaultDepthFormat,
		cullMode:         wgpu.CullModeNone,
		topology:         wgpu.PrimitiveTopologyTriangleList,
		frontFace:        wgpu.FrontFaceCCW,
		blendState:       AlphaBlend(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AlphaBlend is the standard premultiplied-free alpha blend state.
func AlphaBlend() *wgpu.BlendState {
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
}

// AdditiveBlend adds the source color onto the target.
func AdditiveBlend() *wgpu.BlendState {
	add := wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOne,
		Operation: wgpu.BlendOperationAdd,
	}
	return &wgpu.BlendState{Color: add, Alpha: add}
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Shader() shader.Shader {
	return p.shader
}

func (p *pipeline) Descriptor(layout *wgpu.PipelineLayout, module *wgpu.ShaderModule) *wgpu.RenderPipelineDescriptor {
	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.key + " Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.shader.VertexEntryPoint(),
			Buffers:    p.vertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.shader.FragmentEntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    p.targetFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
				Blend:     p.blendState,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if p.depthTestEnabled {
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		}
	}
	return desc
}

func (p *pipeline) Build(device *wgpu.Device, shared map[int]*wgpu.BindGroupLayout) error {
	if p.shader.VertexEntryPoint() == "" || p.shader.FragmentEntryPoint() == "" {
		return errors.New("pipeline " + p.key + ": shader needs both a vertex and a fragment entry point")
	}

	module, err := device.CreateShaderModule(p.shader.Module())
	if err != nil {
		return fmt.Errorf("pipeline %s: shader module: %w", p.key, err)
	}
	defer module.Release()

	descriptors := p.shader.BindGroupLayoutDescriptors()
	layouts := make([]*wgpu.BindGroupLayout, GroupCount(descriptors))
	for g := range layouts {
		if l, ok := shared[g]; ok {
			layouts[g] = l
			continue
		}
		desc := descriptors[g]
		desc.Label = fmt.Sprintf("%s group %d", p.key, g)
		l, err := device.CreateBindGroupLayout(&desc)
		if err != nil {
			return fmt.Errorf("pipeline %s: bind group layout %d: %w", p.key, g, err)
		}
		layouts[g] = l
		p.ownedLayouts = append(p.ownedLayouts, l)
	}
	p.bindGroupLayouts = layouts

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.key,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return fmt.Errorf("pipeline %s: layout: %w", p.key, err)
	}
	defer pipelineLayout.Release()

	created, err := device.CreateRenderPipeline(p.Descriptor(pipelineLayout, module))
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.key, err)
	}
	p.renderPipeline = created
	return nil
}

// GroupCount returns one past the highest declared group index.
func GroupCount(descriptors map[int]wgpu.BindGroupLayoutDescriptor) int {
	n := 0
	for g := range descriptors {
		if g+1 > n {
			n = g + 1
		}
	}
	return n
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[group]
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
	for _, l := range p.ownedLayouts {
		l.Release()
	}
	p.ownedLayouts = nil
	p.bindGroupLayouts = nil
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) TargetFormat() wgpu.TextureFormat {
	return p.targetFormat
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}
