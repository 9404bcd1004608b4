package renderer

import (
	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lucasb-eyer/go-colorful"
)

// DefaultEyeSeparation is the distance between synthesized eyes, a typical interpupillary
// distance in metres.
const DefaultEyeSeparation = float32(0.064)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithWireframe draws models as line lists outlining each triangle.
//
// Parameters:
//   - enabled: true for wireframe, false for solid (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the wireframe option to a renderer
func WithWireframe(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.wireframe = enabled
	}
}

// WithHMD prepares the renderer for a headset: cameras get a Y-flipped projection, the front
// face is inverted to match, and the scene is drawn into the viewport layout (WithViewportLayout)
// or the rectangles given to SetViewports.
//
// Parameters:
//   - enabled: true for headset rendering
//
// Returns:
//   - RendererBuilderOption: a function that applies the HMD option to a renderer
func WithHMD(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.hmd = enabled
	}
}

// WithViewportLayout makes the viewports a function of the surface size. The layout runs on
// creation and after every Resize; rectangles falling outside the surface are clipped.
//
// Parameters:
//   - layout: returns the viewports for a surface of width x height pixels
//
// Returns:
//   - RendererBuilderOption: a function that applies the layout option to a renderer
func WithViewportLayout(layout func(width, height int) []common.Rect) RendererBuilderOption {
	return func(r *renderer) {
		r.layout = layout
	}
}

// WithEyeSeparation sets the spacing of the eyes placed around the camera when the view source
// does not track them. Negative values are ignored.
//
// Parameters:
//   - separation: distance between neighbouring eyes in world units
//
// Returns:
//   - RendererBuilderOption: a function that applies the eye separation option to a renderer
func WithEyeSeparation(separation float32) RendererBuilderOption {
	return func(r *renderer) {
		if separation >= 0 {
			r.eyeSeparation = separation
		}
	}
}

// WithBloomLevels sets the depth of the bloom pyramid, including the full-resolution level.
// Values are clamped to the supported range. The default is 5.
//
// Parameters:
//   - levels: pyramid depth
//
// Returns:
//   - RendererBuilderOption: a function that applies the bloom option to a renderer
func WithBloomLevels(levels int) RendererBuilderOption {
	return func(r *renderer) {
		r.bloomLevels = levels
	}
}

// WithClearColor sets the HDR clear color used where no skybox is drawn.
//
// Parameters:
//   - c: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(c colorful.Color) RendererBuilderOption {
	return func(r *renderer) {
		lin := c.Clamped()
		rl, gl, bl := lin.LinearRgb()
		r.clearColor = wgpu.Color{R: rl, G: gl, B: bl, A: 1.0}
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}
