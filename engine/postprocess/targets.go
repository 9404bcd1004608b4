// Package postprocess owns the offscreen HDR render targets and the bloom and tonemap passes
// that resolve them into the presentable surface.
package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

const (
	// HDRFormat is the format of the scene color target and the bloom pyramid.
	HDRFormat = wgpu.TextureFormatRGBA16Float
	// DepthFormat is the format of the scene depth target.
	DepthFormat = wgpu.TextureFormatDepth32Float
)

// Target is one offscreen texture and its default view.
type Target interface {
	// Size returns the texture size in pixels.
	Size() (width, height uint32)
	// View returns the texture view used as attachment or binding.
	View() *wgpu.TextureView
	// Release frees the texture and its view.
	Release()
}

// TargetFactory creates offscreen targets. The GPU implementation wraps a device; tests supply fakes.
type TargetFactory interface {
	// CreateTarget creates a render-attachment texture that can also be sampled.
	//
	// Parameters:
	//   - label: debug label
	//   - width, height: size in pixels, both at least 1
	//   - format: the texture format
	//
	// Returns:
	//   - Target: the created target
	//   - error: an error if texture or view creation fails
	CreateTarget(label string, width, height uint32, format wgpu.TextureFormat) (Target, error)
}

// Targets is the scene's HDR color target plus its depth target. Both always share one size.
type Targets struct {
	factory TargetFactory
	color   Target
	depth   Target
}

// NewTargets creates an empty pair; the textures are created by the first Resize.
//
// Parameters:
//   - factory: creates the textures
//
// Returns:
//   - *Targets: the target pair
func NewTargets(factory TargetFactory) *Targets {
	return &Targets{factory: factory}
}

// Resize recreates both targets when the requested size differs from the current one.
// A request equal to the current size is a no-op. Zero dimensions are clamped to 1.
//
// Parameters:
//   - width, height: the requested size in pixels
//
// Returns:
//   - bool: true if the targets were recreated
//   - error: an error if creation fails; the old targets are already released then
func (t *Targets) Resize(width, height uint32) (bool, error) {
	width, height = max(width, 1), max(height, 1)
	if t.color != nil {
		if w, h := t.color.Size(); w == width && h == height {
			return false, nil
		}
	}
	t.Release()

	color, err := t.factory.CreateTarget("hdr color", width, height, HDRFormat)
	if err != nil {
		return false, fmt.Errorf("hdr color target: %w", err)
	}
	depth, err := t.factory.CreateTarget("hdr depth", width, height, DepthFormat)
	if err != nil {
		color.Release()
		return false, fmt.Errorf("hdr depth target: %w", err)
	}
	t.color, t.depth = color, depth
	logger.Log.Info("hdr targets resized", zap.Uint32("width", width), zap.Uint32("height", height))
	return true, nil
}

// Color returns the HDR color target, nil before the first Resize.
func (t *Targets) Color() Target {
	return t.color
}

// Depth returns the depth target, nil before the first Resize.
func (t *Targets) Depth() Target {
	return t.depth
}

// Release frees both targets.
func (t *Targets) Release() {
	if t.color != nil {
		t.color.Release()
		t.color = nil
	}
	if t.depth != nil {
		t.depth.Release()
		t.depth = nil
	}
}

// gpuTarget is a Target backed by a device texture.
type gpuTarget struct {
	texture       *wgpu.Texture
	view          *wgpu.TextureView
	width, height uint32
}

func (g *gpuTarget) Size() (uint32, uint32) {
	return g.width, g.height
}

func (g *gpuTarget) View() *wgpu.TextureView {
	return g.view
}

func (g *gpuTarget) Release() {
	if g.view != nil {
		g.view.Release()
		g.view = nil
	}
	if g.texture != nil {
		g.texture.Release()
		g.texture = nil
	}
}

// DeviceFactory is the TargetFactory that allocates textures on a GPU device.
type DeviceFactory struct {
	Device *wgpu.Device
}

var _ TargetFactory = DeviceFactory{}

// CreateTarget implements TargetFactory.
func (f DeviceFactory) CreateTarget(label string, width, height uint32, format wgpu.TextureFormat) (Target, error) {
	tex, err := f.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &gpuTarget{texture: tex, view: view, width: width, height: height}, nil
}
