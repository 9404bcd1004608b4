package postprocess

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	//go:embed assets/downsample.wgsl
	downsampleSource string

	//go:embed assets/upsample.wgsl
	upsampleSource string

	//go:embed assets/tonemap.wgsl
	tonemapSource string
)

// Chain renders the scene into HDR targets and resolves them: bloom pyramid, then tonemapping
// into the output view.
type Chain struct {
	device  *wgpu.Device
	targets *Targets
	pyramid *Pyramid
	sampler *wgpu.Sampler

	downsample pipeline.Pipeline
	upsample   pipeline.Pipeline
	tonemap    pipeline.Pipeline

	// levelGroups[i] samples pyramid level i.
	levelGroups  []*wgpu.BindGroup
	tonemapGroup *wgpu.BindGroup
}

// ResolvePass is one tonemap pass into a rectangle of the output.
type ResolvePass struct {
	Viewport common.Rect
	// Clear is set on the first pass, which clears the whole output before drawing.
	Clear bool
}

// PlanResolve lists the tonemap passes for a set of viewports. No viewports means one pass
// over the whole output.
//
// Parameters:
//   - viewports: destination rectangles in output pixels
//
// Returns:
//   - []ResolvePass: one pass per viewport, the first clearing
func PlanResolve(viewports []common.Rect) []ResolvePass {
	if len(viewports) == 0 {
		return []ResolvePass{{Clear: true}}
	}
	passes := make([]ResolvePass, len(viewports))
	for i, vp := range viewports {
		passes[i] = ResolvePass{Viewport: vp, Clear: i == 0}
	}
	return passes
}

// NewChain builds the post-process pipelines. Targets are created by the first Resize.
//
// Parameters:
//   - device: the GPU device
//   - outputFormat: the format of the view Encode resolves into
//   - levels: bloom pyramid depth, clamped with ClampLevels
//
// Returns:
//   - *Chain: the chain
//   - error: an error if a pipeline or the sampler cannot be created
func NewChain(device *wgpu.Device, outputFormat wgpu.TextureFormat, levels int) (*Chain, error) {
	factory := DeviceFactory{Device: device}
	c := &Chain{
		device:  device,
		targets: NewTargets(factory),
		pyramid: NewPyramid(factory, levels),
		downsample: pipeline.NewPipeline("bloom downsample", shader.MustShader("downsample", downsampleSource), HDRFormat,
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithBlendState(nil),
		),
		upsample: pipeline.NewPipeline("bloom upsample", shader.MustShader("upsample", upsampleSource), HDRFormat,
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithBlendState(pipeline.AdditiveBlend()),
		),
		tonemap: pipeline.NewPipeline("tonemap", shader.MustShader("tonemap", tonemapSource), outputFormat,
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithBlendState(nil),
		),
	}

	if err := c.downsample.Build(device, nil); err != nil {
		return nil, err
	}
	if err := c.upsample.Build(device, map[int]*wgpu.BindGroupLayout{0: c.downsample.BindGroupLayout(0)}); err != nil {
		return nil, err
	}
	if err := c.tonemap.Build(device, nil); err != nil {
		return nil, err
	}

	sampler, err := device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "post-process sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("post-process sampler: %w", err)
	}
	c.sampler = sampler
	return c, nil
}

// Resize makes the HDR targets and bloom levels match the surface size, rebuilding the
// bind groups that sample them when anything was recreated. On failure the chain holds no
// bind groups and Encode draws nothing until a later Resize succeeds.
//
// Parameters:
//   - width, height: the surface size in pixels
//
// Returns:
//   - error: an error if a target or bind group cannot be created
func (c *Chain) Resize(width, height uint32) error {
	targetsChanged, err := c.targets.Resize(width, height)
	if err != nil {
		c.releaseBindGroups()
		return err
	}
	pyramidChanged, err := c.pyramid.Resize(width, height)
	if err != nil {
		c.releaseBindGroups()
		return err
	}
	if !targetsChanged && !pyramidChanged && c.Ready() {
		return nil
	}
	if err := c.rebuildBindGroups(); err != nil {
		c.releaseBindGroups()
		return err
	}
	return nil
}

// Ready reports whether the chain has bind groups for its current targets.
func (c *Chain) Ready() bool {
	return c.tonemapGroup != nil
}

// ColorView is the HDR color attachment the scene passes draw into.
func (c *Chain) ColorView() *wgpu.TextureView {
	return c.targets.Color().View()
}

// DepthView is the depth attachment matching ColorView.
func (c *Chain) DepthView() *wgpu.TextureView {
	return c.targets.Depth().View()
}

// Encode records the bloom passes once and then one tonemap pass per viewport.
//
// Parameters:
//   - encoder: the frame's command encoder
//   - output: the view to resolve into, normally the surface texture
//   - viewports: destination rectangles, one per eye; empty covers the whole output
func (c *Chain) Encode(encoder *wgpu.CommandEncoder, output *wgpu.TextureView, viewports []common.Rect) {
	if !c.Ready() {
		return
	}
	for _, p := range PlanBloom(c.pyramid.Levels()) {
		load, pl := wgpu.LoadOpClear, c.downsample
		if p.Kind == PassUpsample {
			load, pl = wgpu.LoadOpLoad, c.upsample
		}
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: p.Kind.String(),
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:    c.levelView(p.Dest),
				LoadOp:  load,
				StoreOp: wgpu.StoreOpStore,
			}},
		})
		pass.SetPipeline(pl.RenderPipeline())
		pass.SetBindGroup(0, c.levelGroups[p.Source], nil)
		pass.Draw(3, 1, 0, 0)
		pass.End()
	}

	for _, r := range PlanResolve(viewports) {
		load := wgpu.LoadOpLoad
		if r.Clear {
			load = wgpu.LoadOpClear
		}
		pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			Label: "tonemap",
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:       output,
				LoadOp:     load,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: wgpu.Color{A: 1},
			}},
		})
		if !r.Viewport.Empty() {
			pass.SetViewport(r.Viewport.X, r.Viewport.Y, r.Viewport.W, r.Viewport.H, 0, 1)
		}
		pass.SetPipeline(c.tonemap.RenderPipeline())
		pass.SetBindGroup(0, c.tonemapGroup, nil)
		pass.Draw(3, 1, 0, 0)
		pass.End()
	}
}

// Release frees every GPU object the chain owns.
func (c *Chain) Release() {
	c.releaseBindGroups()
	c.targets.Release()
	c.pyramid.Release()
	if c.sampler != nil {
		c.sampler.Release()
		c.sampler = nil
	}
	c.downsample.Release()
	c.upsample.Release()
	c.tonemap.Release()
}

func (c *Chain) levelView(level int) *wgpu.TextureView {
	if level == 0 {
		return c.targets.Color().View()
	}
	return c.pyramid.Level(level).View()
}

// rebuildBindGroups creates the level groups and the tonemap group for the current targets.
// The old groups are released only once every new one exists.
func (c *Chain) rebuildBindGroups() error {
	levels := c.pyramid.Levels()
	groups, err := buildGroups(levels+1, func(i int) (*wgpu.BindGroup, error) {
		if i == levels {
			bg, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
				Label:  "tonemap",
				Layout: c.tonemap.BindGroupLayout(0),
				Entries: []wgpu.BindGroupEntry{
					{Binding: 0, TextureView: c.levelView(0)},
					{Binding: 1, TextureView: c.levelView(1)},
					{Binding: 2, Sampler: c.sampler},
				},
			})
			if err != nil {
				return nil, fmt.Errorf("tonemap bind group: %w", err)
			}
			return bg, nil
		}
		bg, err := c.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  fmt.Sprintf("bloom level %d", i),
			Layout: c.downsample.BindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, TextureView: c.levelView(i)},
				{Binding: 1, Sampler: c.sampler},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("bloom bind group %d: %w", i, err)
		}
		return bg, nil
	})
	if err != nil {
		return err
	}

	c.releaseBindGroups()
	c.levelGroups, c.tonemapGroup = groups[:levels], groups[levels]
	return nil
}

// buildGroups creates n groups in order. If one fails, the groups already created are released
// and nothing is returned.
func buildGroups[G interface{ Release() }](n int, create func(i int) (G, error)) ([]G, error) {
	groups := make([]G, 0, n)
	for i := 0; i < n; i++ {
		g, err := create(i)
		if err != nil {
			for _, created := range groups {
				created.Release()
			}
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func (c *Chain) releaseBindGroups() {
	for _, bg := range c.levelGroups {
		bg.Release()
	}
	c.levelGroups = nil
	if c.tonemapGroup != nil {
		c.tonemapGroup.Release()
		c.tonemapGroup = nil
	}
}
