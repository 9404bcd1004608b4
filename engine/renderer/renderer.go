// Package renderer draws a scene with wgpu: skybox, light markers and instanced lit models into
// an HDR target that the post-process chain resolves onto the window surface.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/assets"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/light"
	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/Carmen-Shannon/dreamscape/engine/postprocess"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/dreamscape/engine/scene"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// textureKey identifies an uploaded texture; the same image may be needed in both encodings.
type textureKey struct {
	name string
	srgb bool
}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	post        *postprocess.Chain

	grouper   model.Grouper
	models    *Cache[model.ModelID, bind_group_provider.BindGroupProvider]
	textures  *Cache[textureKey, *GPUTexture]
	instances *InstanceBuffers[*wgpu.Buffer]

	// frames[i] holds eye i's camera uniform and the light uniform.
	frames []bind_group_provider.BindGroupProvider
	// skyboxes[i] holds eye i's skybox uniform, created for the skybox texture the scene names.
	skyboxes      []bind_group_provider.BindGroupProvider
	skyboxTexture string
	// marker holds the mesh drawn once per light.
	marker bind_group_provider.BindGroupProvider

	sampler     *wgpu.Sampler
	cubeSampler *wgpu.Sampler

	lights    []light.GPULight
	viewports []common.Rect
	// layout recomputes viewports from the surface size; nil keeps the SetViewports list.
	layout func(width, height int) []common.Rect

	// Config collected from builder options
	forceFallbackAdapter bool
	presentMode          PresentMode
	wireframe            bool
	hmd                  bool
	eyeSeparation        float32
	bloomLevels          int
	clearColor           wgpu.Color
}

// Surface is the window the renderer presents to.
type Surface interface {
	// SurfaceDescriptor returns the platform-specific descriptor for wgpu surface creation.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	// Width returns the framebuffer width in pixels.
	Width() int
	// Height returns the framebuffer height in pixels.
	Height() int
}

// Renderer defines the interface for the rendering system.
//
// One call to Render draws one frame: it groups the scene's model instances, lazily creates the
// per-model bindings and instance buffers, uploads this frame's uniforms and instance data, then
// records the skybox, light-marker and lit passes into the HDR target and resolves it through
// bloom and tonemapping onto the surface.
type Renderer interface {
	// Render draws and presents one frame of the scene.
	// A lost or outdated surface is reconfigured and the frame skipped; a timeout skips the frame.
	//
	// Parameters:
	//   - s: the scene to draw
	//
	// Returns:
	//   - error: a fatal error, such as the GPU running out of memory
	Render(s scene.Scene) error

	// Resize configures the surface and the offscreen targets for a new framebuffer size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	//
	// Returns:
	//   - error: an error if the targets cannot be recreated
	Resize(width, height int) error

	// SetViewports sets the rectangles the scene passes are drawn into, one per eye in headset
	// mode. An empty list draws a single full-target view. The rectangles are fixed: they replace
	// any layout given with WithViewportLayout and are not recomputed on Resize.
	//
	// Parameters:
	//   - viewports: rectangles in framebuffer pixels
	SetViewports(viewports []common.Rect)

	// SetWireframe switches between solid and wireframe drawing of models.
	SetWireframe(enabled bool)

	// Wireframe reports whether models are drawn as wireframe.
	Wireframe() bool

	// Pipeline retrieves the cached Pipeline associated with the given key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// Release frees every GPU object owned by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates the GPU device for the surface and builds every pipeline.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - surface: the window to present to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: an error if the device, surface or pipelines cannot be set up
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		backendType: backendType,
		presentMode: PresentModeVSync,
		bloomLevels:   5,
		eyeSeparation: DefaultEyeSeparation,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
		textures: NewCache[textureKey](func(t *GPUTexture) {
			t.Release()
		}),
		models: NewCache[model.ModelID](func(p bind_group_provider.BindGroupProvider) {
			p.Release()
		}),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		backend, err := newWGPURendererBackend(surface.SurfaceDescriptor(), r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = backend
	default:
		return nil, fmt.Errorf("renderer backend %s (%d) is not supported", backendType, int(backendType))
	}

	if err := r.init(surface.Width(), surface.Height()); err != nil {
		r.Release()
		return nil, err
	}
	logger.Log.Info("renderer ready",
		zap.Bool("wireframe", r.wireframe),
		zap.Bool("hmd", r.hmd),
		zap.Int("bloom_levels", postprocess.ClampLevels(r.bloomLevels)),
	)
	return r, nil
}

func (r *renderer) init(width, height int) error {
	r.backend.SetPresentMode(r.presentMode)
	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return err
	}
	device := r.backend.Device()

	post, err := postprocess.NewChain(device, r.backend.SurfaceFormat(), r.bloomLevels)
	if err != nil {
		return err
	}
	r.post = post
	w, h := r.backend.SurfaceSize()
	if err := r.post.Resize(w, h); err != nil {
		return err
	}
	r.relayout(w, h)

	r.pipelineCache = newScenePipelines(r.hmd)
	if err := buildScenePipelines(device, r.pipelineCache); err != nil {
		return err
	}

	if r.sampler, err = r.backend.InitSampler("model", common.SamplerStagingData{}); err != nil {
		return err
	}
	r.cubeSampler, err = r.backend.InitSampler("skybox", common.SamplerStagingData{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		AddressModeW: wgpu.AddressModeClampToEdge,
	})
	if err != nil {
		return err
	}

	if err := r.ensureFrames(max(len(r.viewports), 1)); err != nil {
		return err
	}

	r.grouper = model.NewGrouper()
	r.instances = NewInstanceBuffers[*wgpu.Buffer](r.backend, model.GPUInstanceSize)
	r.lights = make([]light.GPULight, 0, light.MaxLights)
	return nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return err
	}
	w, h := r.backend.SurfaceSize()
	if err := r.post.Resize(w, h); err != nil {
		return err
	}
	r.relayout(w, h)
	return nil
}

// relayout recomputes the viewports for a surface of width x height when a layout is set.
func (r *renderer) relayout(width, height uint32) {
	if r.layout == nil {
		return
	}
	r.viewports = fitViewports(r.layout(int(width), int(height)), width, height)
	logger.Log.Debug("viewports laid out",
		zap.Uint32("width", width),
		zap.Uint32("height", height),
		zap.Int("viewports", len(r.viewports)),
	)
}

// fitViewports clips rects to a width x height target and drops those left with no area.
//
// Parameters:
//   - rects: viewports in framebuffer pixels
//   - width, height: the target size
//
// Returns:
//   - []common.Rect: the clipped viewports, nil if none remain
func fitViewports(rects []common.Rect, width, height uint32) []common.Rect {
	var fitted []common.Rect
	w, h := float32(width), float32(height)
	for _, vp := range rects {
		x0, y0 := max(vp.X, 0), max(vp.Y, 0)
		x1, y1 := min(vp.X+vp.W, w), min(vp.Y+vp.H, h)
		if x1 <= x0 || y1 <= y0 {
			continue
		}
		fitted = append(fitted, common.Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0})
	}
	return fitted
}

func (r *renderer) SetViewports(viewports []common.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layout = nil
	r.viewports = append(r.viewports[:0], viewports...)
}

// ensureFrames creates frame bindings until there is one per eye.
func (r *renderer) ensureFrames(n int) error {
	for len(r.frames) < n {
		p := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("frame %d", len(r.frames)))
		if err := r.backend.InitUniformBuffer(p, 0, camera.GPUCameraUniformSize); err != nil {
			p.Release()
			return err
		}
		if err := r.backend.InitUniformBuffer(p, 1, light.GPULightsSize); err != nil {
			p.Release()
			return err
		}
		if err := r.backend.InitBindGroup(p, r.pipelineCache[PipelineLit].BindGroupLayout(groupFrame)); err != nil {
			p.Release()
			return err
		}
		r.frames = append(r.frames, p)
	}
	return nil
}

// eyeViews returns one eye per viewport: the tracked eyes when the view source supplies exactly
// one per viewport, otherwise eyes spaced separation apart around the camera.
//
// Parameters:
//   - cam: the active camera
//   - t: the camera's transform
//   - viewports: the frame's viewports, at least one
//   - tracked: eyes reported by the view source, may be nil
//   - separation: spacing of synthesized eyes
//
// Returns:
//   - []camera.Eye: one eye per viewport
func eyeViews(cam *camera.Camera, t *transform.Transform, viewports []common.Rect, tracked []camera.Eye, separation float32) []camera.Eye {
	if len(tracked) == len(viewports) {
		return tracked
	}
	if len(tracked) != 0 {
		logger.Log.Debug("tracked eyes do not match viewports",
			zap.Int("eyes", len(tracked)),
			zap.Int("viewports", len(viewports)),
		)
	}
	return cam.Eyes(t, viewports, separation)
}

func (r *renderer) SetWireframe(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wireframe = enabled
}

func (r *renderer) Wireframe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wireframe
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

// drawGroup is one model's instanced draw, resolved for this frame.
type drawGroup struct {
	bindings  bind_group_provider.BindGroupProvider
	instances *wgpu.Buffer
	count     uint32
}

func (r *renderer) Render(s scene.Scene) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cam, camT, ok := s.ActiveCamera()
	if !ok {
		return nil
	}
	if r.hmd {
		cam.SetYFlip(true)
	}

	draws, err := r.prepareModels(s)
	if err != nil {
		return err
	}
	viewports := r.viewports
	if len(viewports) == 0 {
		viewports = []common.Rect{{}}
	}
	if err := r.ensureFrames(len(viewports)); err != nil {
		return err
	}
	skybox, err := r.prepareSkybox(s, len(viewports))
	if err != nil {
		return err
	}
	if err := r.prepareMarker(s.Assets()); err != nil {
		return err
	}

	var tracked []camera.Eye
	if pose, ok := s.ViewOverride(); ok {
		tracked = pose.Eyes
	}
	eyes := eyeViews(cam, camT, viewports, tracked, r.eyeSeparation)

	r.lights = s.Lights(r.lights[:0])
	lights := light.MarshalLights(s.AmbientColor(), r.lights)
	writes := make([]bind_group_provider.BufferWrite, 0, 3*len(eyes))
	for i, e := range eyes {
		uniform := cam.EyeUniform(e)
		writes = append(writes,
			bind_group_provider.BufferWrite{Provider: r.frames[i], Binding: 0, Data: uniform.Marshal()},
			bind_group_provider.BufferWrite{Provider: r.frames[i], Binding: 1, Data: lights},
		)
		if skybox {
			sky := camera.GPUSkyboxUniform{InvViewProj: cam.EyeSkyboxInverseViewProjection(e)}
			writes = append(writes, bind_group_provider.BufferWrite{Provider: r.skyboxes[i], Binding: 0, Data: sky.Marshal()})
		}
	}
	r.backend.WriteBuffers(writes)

	view, err := r.backend.AcquireFrame()
	if err != nil {
		return r.handleSurfaceError(err)
	}

	encoder, err := r.backend.CreateCommandEncoder("frame")
	if err != nil {
		r.backend.DiscardFrame()
		return fmt.Errorf("frame encoder: %w", err)
	}

	for i, vp := range viewports {
		r.encodeSkybox(encoder, i, vp, skybox)
		r.encodeScene(encoder, i, vp, draws)
	}
	r.post.Encode(encoder, view, r.viewports)

	if err := r.backend.Submit(encoder); err != nil {
		r.backend.DiscardFrame()
		return r.handleSurfaceError(err)
	}
	r.backend.Present()
	return nil
}

// prepareModels groups the instances by model, creates missing bindings and instance buffers
// and uploads this frame's instance data.
func (r *renderer) prepareModels(s scene.Scene) ([]drawGroup, error) {
	r.grouper.Reset()
	s.EachInstance(func(spec model.ModelSpec, t *transform.Transform) {
		r.grouper.Add(spec, t.Matrix())
	})

	groups := r.grouper.Groups()
	draws := make([]drawGroup, 0, len(groups))
	for _, g := range groups {
		m := s.Assets().Model(g.Model)
		bindings, err := r.modelBindings(s.Assets(), m)
		if err != nil {
			return nil, err
		}
		buf, err := r.instances.Ensure(g.Ordinal, g.Count)
		if err != nil {
			return nil, err
		}
		r.backend.WriteBuffer(buf, g.Data)
		draws = append(draws, drawGroup{bindings: bindings, instances: buf, count: uint32(g.Count)})
	}
	return draws, nil
}

func (r *renderer) modelBindings(store assets.Store, m model.Model) (bind_group_provider.BindGroupProvider, error) {
	return r.models.GetOrCreate(m.ID(), func() (bind_group_provider.BindGroupProvider, error) {
		diffuse, err := r.texture(store, common.Coalesce(m.DiffuseTexture(), assets.TextureWhite), true)
		if err != nil {
			return nil, err
		}
		normal, err := r.texture(store, common.Coalesce(m.NormalTexture(), assets.TextureFlatNormal), false)
		if err != nil {
			return nil, err
		}
		p := bind_group_provider.NewBindGroupProvider(m.Name(),
			bind_group_provider.WithTextureView(0, diffuse.View),
			bind_group_provider.WithTextureView(1, normal.View),
			bind_group_provider.WithSampler(2, r.sampler),
		)
		if err := r.backend.InitMeshBuffers(p, m.VertexData(), m.Indices()); err != nil {
			p.Release()
			return nil, err
		}
		if err := r.backend.InitBindGroup(p, r.pipelineCache[PipelineLit].BindGroupLayout(groupModel)); err != nil {
			p.Release()
			return nil, err
		}
		logger.Log.Debug("model bindings created", zap.String("model", m.Name()), zap.Uint32("id", uint32(m.ID())))
		return p, nil
	})
}

func (r *renderer) texture(store assets.Store, name string, srgb bool) (*GPUTexture, error) {
	return r.textures.GetOrCreate(textureKey{name: name, srgb: srgb}, func() (*GPUTexture, error) {
		return r.backend.InitTexture(name, store.Texture(name), srgb)
	})
}

// prepareSkybox makes sure every eye has skybox bindings for the texture the scene names.
// Changing the texture recreates them.
func (r *renderer) prepareSkybox(s scene.Scene, eyes int) (bool, error) {
	name, ok := s.Skybox()
	if !ok {
		return false, nil
	}
	if r.skyboxTexture != name {
		r.releaseSkyboxes()
	}
	if len(r.skyboxes) >= eyes {
		return true, nil
	}

	tex := s.Assets().Texture(name)
	if tex.Layers != 6 {
		panic(fmt.Sprintf("skybox texture %q has %d layers, want 6", name, tex.Layers))
	}
	cube, err := r.texture(s.Assets(), name, true)
	if err != nil {
		return false, err
	}

	for len(r.skyboxes) < eyes {
		p := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("skybox %d", len(r.skyboxes)),
			bind_group_provider.WithTextureView(1, cube.View),
			bind_group_provider.WithSampler(2, r.cubeSampler),
		)
		if err := r.backend.InitUniformBuffer(p, 0, camera.GPUSkyboxUniformSize); err != nil {
			p.Release()
			return false, err
		}
		if err := r.backend.InitBindGroup(p, r.pipelineCache[PipelineSkybox].BindGroupLayout(0)); err != nil {
			p.Release()
			return false, err
		}
		r.skyboxes = append(r.skyboxes, p)
	}
	r.skyboxTexture = name
	return true, nil
}

func (r *renderer) releaseSkyboxes() {
	for _, p := range r.skyboxes {
		p.Release()
	}
	r.skyboxes = nil
	r.skyboxTexture = ""
}

func (r *renderer) prepareMarker(store assets.Store) error {
	if r.marker != nil {
		return nil
	}
	m := store.ModelByName(assets.ModelSphere)
	p := bind_group_provider.NewBindGroupProvider("light marker")
	if err := r.backend.InitMeshBuffers(p, m.VertexData(), m.Indices()); err != nil {
		return err
	}
	r.marker = p
	return nil
}

func setViewport(pass *wgpu.RenderPassEncoder, vp common.Rect) {
	if !vp.Empty() {
		pass.SetViewport(vp.X, vp.Y, vp.W, vp.H, 0, 1)
	}
}

// encodeSkybox clears the HDR target on the first eye and draws the environment without depth.
func (r *renderer) encodeSkybox(encoder *wgpu.CommandEncoder, eye int, vp common.Rect, draw bool) {
	load := wgpu.LoadOpLoad
	if eye == 0 {
		load = wgpu.LoadOpClear
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "skybox",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       r.post.ColorView(),
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: r.clearColor,
		}},
	})
	if draw {
		setViewport(pass, vp)
		pass.SetPipeline(r.pipelineCache[PipelineSkybox].RenderPipeline())
		pass.SetBindGroup(0, r.skyboxes[eye].BindGroup(), nil)
		pass.Draw(3, 1, 0, 0)
	}
	pass.End()
}

// encodeScene draws the light markers and then every model group as seen by one eye.
func (r *renderer) encodeScene(encoder *wgpu.CommandEncoder, eye int, vp common.Rect, draws []drawGroup) {
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "scene",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    r.post.ColorView(),
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.post.DepthView(),
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	defer pass.End()
	setViewport(pass, vp)

	if len(r.lights) > 0 {
		pass.SetPipeline(r.pipelineCache[PipelineLightMarker].RenderPipeline())
		pass.SetBindGroup(groupFrame, r.frames[eye].BindGroup(), nil)
		pass.SetVertexBuffer(0, r.marker.VertexBuffer(), 0, wgpu.WholeSize)
		pass.SetIndexBuffer(r.marker.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(r.marker.IndexCount()), uint32(len(r.lights)), 0, 0, 0)
	}

	key := PipelineLit
	if r.wireframe {
		key = PipelineWireframe
	}
	pass.SetPipeline(r.pipelineCache[key].RenderPipeline())
	pass.SetBindGroup(groupFrame, r.frames[eye].BindGroup(), nil)
	for _, d := range draws {
		pass.SetBindGroup(groupModel, d.bindings.BindGroup(), nil)
		pass.SetVertexBuffer(0, d.bindings.VertexBuffer(), 0, wgpu.WholeSize)
		pass.SetVertexBuffer(instanceSlot, d.instances, 0, uint64(d.count)*model.GPUInstanceSize)
		if r.wireframe {
			pass.SetIndexBuffer(d.bindings.LineIndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
			pass.DrawIndexed(uint32(d.bindings.LineIndexCount()), d.count, 0, 0, 0)
			continue
		}
		pass.SetIndexBuffer(d.bindings.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(d.bindings.IndexCount()), d.count, 0, 0, 0)
	}
}

// handleSurfaceError reconfigures the surface or skips the frame for recoverable errors and
// returns the rest.
func (r *renderer) handleSurfaceError(err error) error {
	switch {
	case errors.Is(err, ErrSurfaceLost), errors.Is(err, ErrSurfaceOutdated):
		logger.Log.Warn("surface needs reconfiguring, frame skipped", zap.Error(err))
		w, h := r.backend.SurfaceSize()
		if cerr := r.backend.ConfigureSurface(int(w), int(h)); cerr != nil {
			return fmt.Errorf("reconfigure surface: %w", cerr)
		}
		return nil
	case errors.Is(err, ErrSurfaceTimeout):
		logger.Log.Warn("surface timeout, frame skipped", zap.Error(err))
		return nil
	default:
		logger.Log.Error("fatal render error", zap.Error(err))
		return err
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.grouper != nil {
		r.grouper.Close()
	}
	if r.instances != nil {
		r.instances.Release()
	}
	r.models.Release()
	for _, p := range r.frames {
		p.Release()
	}
	r.releaseSkyboxes()
	if r.marker != nil {
		r.marker.Release()
	}
	r.textures.Release()
	for _, s := range []*wgpu.Sampler{r.sampler, r.cubeSampler} {
		if s != nil {
			s.Release()
		}
	}
	for key, p := range r.pipelineCache {
		if key != PipelineLit {
			p.Release()
		}
	}
	if lit, ok := r.pipelineCache[PipelineLit]; ok {
		lit.Release()
	}
	if r.post != nil {
		r.post.Release()
	}
	if r.backend != nil {
		r.backend.Release()
	}
}
