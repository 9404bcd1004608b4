package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// GPUTexture is an uploaded texture and its default view.
type GPUTexture struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

// Release frees the view and the texture.
func (t *GPUTexture) Release() {
	if t.View != nil {
		t.View.Release()
		t.View = nil
	}
	if t.Texture != nil {
		t.Texture.Release()
		t.Texture = nil
	}
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	alphaMode     wgpu.CompositeAlphaMode
	width, height uint32

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	// Frame state between AcquireFrame and Present
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

type wgpuRendererBackend interface {
	Device() *wgpu.Device
	Queue() *wgpu.Queue

	// SurfaceFormat returns the format the surface was configured with.
	SurfaceFormat() wgpu.TextureFormat

	// SurfaceSize returns the configured surface size in pixels.
	SurfaceSize() (width, height uint32)

	// ConfigureSurface is a wrapper for boilerplate logic required when calling ConfigureSurface on a surface.
	// This is required when the surface size changes, such as when the window is resized, and
	// after the surface was reported lost or outdated.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels, clamped to 1
	//   - height: the new height of the surface in pixels, clamped to 1
	//
	// Returns:
	//   - error: an error if the surface reports no formats
	ConfigureSurface(width, height int) error

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to ConfigureSurface is required for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// AcquireFrame acquires the next swapchain texture and its view.
	//
	// Returns:
	//   - *wgpu.TextureView: the view to resolve the frame into
	//   - error: the classified surface error, see ClassifySurfaceError
	AcquireFrame() (*wgpu.TextureView, error)

	// CreateCommandEncoder creates an encoder for one frame's passes.
	CreateCommandEncoder(label string) (*wgpu.CommandEncoder, error)

	// Submit finishes the encoder and submits the command buffer. The encoder is released.
	//
	// Parameters:
	//   - encoder: the frame's encoder
	//
	// Returns:
	//   - error: an error if the encoder cannot be finished
	Submit(encoder *wgpu.CommandEncoder) error

	// Present presents the acquired surface texture and releases the frame's references.
	// Does nothing if no frame is held.
	Present()

	// DiscardFrame releases an acquired frame without presenting it.
	DiscardFrame()

	// InitMeshBuffers uploads a mesh and stores its buffers on the provider.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffers on
	//   - vertexData: the raw vertex data bytes
	//   - indices: triangle-list indices; the wireframe line list is derived from them
	//
	// Returns:
	//   - error: an error if a buffer cannot be created
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, indices []uint32) error

	// InitUniformBuffer creates a uniform buffer and stores it on the provider at a binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the buffer on
	//   - binding: the binding index
	//   - size: the buffer size in bytes
	//
	// Returns:
	//   - error: an error if the buffer cannot be created
	InitUniformBuffer(provider bind_group_provider.BindGroupProvider, binding int, size uint64) error

	// InitTexture uploads staging data as a 2D texture, or as a cube texture when the data holds six layers.
	//
	// Parameters:
	//   - label: debug label
	//   - stagingData: the pixel data and dimensions
	//   - srgb: true for colour data, false for data such as normal maps
	//
	// Returns:
	//   - *GPUTexture: the texture and its view
	//   - error: an error if texture or view creation fails
	InitTexture(label string, stagingData common.TextureStagingData, srgb bool) (*GPUTexture, error)

	// InitSampler creates a sampler. Zero-valued fields fall back to linear filtering and repeat addressing.
	InitSampler(label string, samplerStagingData common.SamplerStagingData) (*wgpu.Sampler, error)

	// InitBindGroup creates the provider's bind group from its stored resources.
	//
	// Parameters:
	//   - provider: the BindGroupProvider holding the resources
	//   - layout: the pipeline's layout for the group
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout) error

	// WriteBuffers writes all staged buffer writes to the GPU queue.
	// Each BufferWrite targets a specific buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// WriteBuffer writes data at the start of a buffer.
	WriteBuffer(buf *wgpu.Buffer, data []byte)

	// Allocate creates a vertex buffer for instance data of exactly size bytes.
	Allocate(label string, size uint64) (*wgpu.Buffer, error)

	// Free releases a buffer created by Allocate.
	Free(buf *wgpu.Buffer)

	// Release frees the device, surface and instance.
	Release()
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

var _ BufferAllocator[*wgpu.Buffer] = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (wgpuRendererBackend, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
	}
	w.surface = w.instance.CreateSurface(surfaceDescriptor)

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	limits := wgpu.DefaultLimits()
	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		w.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("surface is not supported by the adapter")
	}
	b.surfaceFormat = capabilities.Formats[0]
	b.alphaMode = capabilities.AlphaModes[0]
	b.width, b.height = uint32(max(width, 1)), uint32(max(height, 1))

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       b.width,
		Height:      b.height,
		PresentMode: b.presentMode,
		AlphaMode:   b.alphaMode,
	})
	return nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = mode.wgpu()
}

func (b *wgpuRendererBackendImpl) SurfaceFormat() wgpu.TextureFormat {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.surfaceFormat
}

func (b *wgpuRendererBackendImpl) SurfaceSize() (uint32, uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) AcquireFrame() (*wgpu.TextureView, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A previous frame's surface texture must be presented or discarded before acquiring another.
	if b.frameSurface != nil {
		return nil, fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, ClassifySurfaceError(err)
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, ClassifySurfaceError(err)
	}

	b.frameSurface = surfaceTexture
	b.frameView = view
	return view, nil
}

func (b *wgpuRendererBackendImpl) CreateCommandEncoder(label string) (*wgpu.CommandEncoder, error) {
	return b.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: label})
}

func (b *wgpuRendererBackendImpl) Submit(encoder *wgpu.CommandEncoder) error {
	defer encoder.Release()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return ClassifySurfaceError(err)
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()
	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) DiscardFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.releaseFrame()
}

func (b *wgpuRendererBackendImpl) releaseFrame() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, indices []uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(vertexData) == 0 || len(indices) == 0 {
		return fmt.Errorf("%s: mesh has no vertices or indices", provider.Label())
	}

	vertex, err := b.createBufferWithData(provider.Label()+" Vertex Buffer", wgpu.BufferUsageVertex, vertexData)
	if err != nil {
		return err
	}
	index, err := b.createBufferWithData(provider.Label()+" Index Buffer", wgpu.BufferUsageIndex, indexBytes(indices))
	if err != nil {
		vertex.Release()
		return err
	}
	lines := LineIndices(indices)
	lineIndex, err := b.createBufferWithData(provider.Label()+" Line Index Buffer", wgpu.BufferUsageIndex, indexBytes(lines))
	if err != nil {
		vertex.Release()
		index.Release()
		return err
	}

	provider.SetMesh(vertex, index, len(indices), lineIndex, len(lines))
	return nil
}

func (b *wgpuRendererBackendImpl) createBufferWithData(label string, usage wgpu.BufferUsage, data []byte) (*wgpu.Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             uint64(len(data)),
		Usage:            usage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

func (b *wgpuRendererBackendImpl) InitUniformBuffer(provider bind_group_provider.BindGroupProvider, binding int, size uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
		Size:  size,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return err
	}
	provider.SetBuffer(binding, buf)
	return nil
}

func (b *wgpuRendererBackendImpl) InitTexture(label string, stagingData common.TextureStagingData, srgb bool) (*GPUTexture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	layers := max(stagingData.Layers, 1)
	if want := int(stagingData.Width*stagingData.Height*4) * int(layers); len(stagingData.Pixels) != want {
		return nil, fmt.Errorf("texture %s: %d bytes of pixel data, want %d", label, len(stagingData.Pixels), want)
	}

	format := wgpu.TextureFormatRGBA8Unorm
	if srgb {
		format = wgpu.TextureFormatRGBA8UnormSrgb
	}
	size := wgpu.Extent3D{
		Width:              stagingData.Width,
		Height:             stagingData.Height,
		DepthOrArrayLayers: layers,
	}

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label + " Texture",
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  stagingData.Width * 4,
			RowsPerImage: stagingData.Height,
		},
		&size,
	)

	var viewDescriptor *wgpu.TextureViewDescriptor
	if layers == 6 {
		viewDescriptor = &wgpu.TextureViewDescriptor{
			Label:           label + " Cube View",
			Format:          format,
			Dimension:       wgpu.TextureViewDimensionCube,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 6,
			Aspect:          wgpu.TextureAspectAll,
		}
	}
	view, err := tex.CreateView(viewDescriptor)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &GPUTexture{Texture: tex, View: view}, nil
}

func (b *wgpuRendererBackendImpl) InitSampler(label string, samplerStagingData common.SamplerStagingData) (*wgpu.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label + " Sampler",
		AddressModeU:  common.Coalesce(samplerStagingData.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  common.Coalesce(samplerStagingData.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  common.Coalesce(samplerStagingData.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     common.Coalesce(samplerStagingData.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     common.Coalesce(samplerStagingData.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  common.Coalesce(samplerStagingData.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   common.Coalesce(samplerStagingData.LodMinClamp, 0.0),
		LodMaxClamp:   common.Coalesce(samplerStagingData.LodMaxClamp, 32.0),
		MaxAnisotropy: common.Coalesce(samplerStagingData.MaxAnisotropy, 1),
	})
}

func (b *wgpuRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, layout *wgpu.BindGroupLayout) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: provider.Entries(),
	})
	if err != nil {
		return fmt.Errorf("%s bind group: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		if end := w.Offset + w.Size(); end > buf.GetSize() {
			panic(fmt.Sprintf("write to %s binding %d ends at %d, past the %d byte buffer", w.Provider.Label(), w.Binding, end, buf.GetSize()))
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) WriteBuffer(buf *wgpu.Buffer, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(buf, 0, data)
}

func (b *wgpuRendererBackendImpl) Allocate(label string, size uint64) (*wgpu.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
}

func (b *wgpuRendererBackendImpl) Free(buf *wgpu.Buffer) {
	if buf != nil {
		buf.Release()
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrame()
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

func (b *wgpuRendererBackendImpl) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuRendererBackendImpl) Queue() *wgpu.Queue {
	return b.queue
}
