package renderer

import (
	_ "embed"
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/postprocess"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	//go:embed assets/lit.wgsl
	litSource string

	//go:embed assets/light_marker.wgsl
	lightMarkerSource string

	//go:embed assets/skybox.wgsl
	skyboxSource string
)

// Keys of the scene pipelines.
const (
	PipelineSkybox      = "skybox"
	PipelineLightMarker = "light-marker"
	PipelineLit         = "lit"
	PipelineWireframe   = "lit-wireframe"
)

// Bind group indices shared by the scene shaders.
const (
	groupFrame = 0
	groupModel = 1
)

// instanceSlot is the vertex buffer slot of the per-instance data in the lit shaders.
const instanceSlot = 1

// newScenePipelines describes the scene pipelines. All of them draw into the HDR target;
// only the skybox runs without a depth attachment.
//
// Parameters:
//   - hmd: true to flip the front face for the Y-flipped headset projection
//
// Returns:
//   - map[string]pipeline.Pipeline: the unbuilt pipelines keyed by name
func newScenePipelines(hmd bool) map[string]pipeline.Pipeline {
	frontFace := wgpu.FrontFaceCCW
	if hmd {
		frontFace = wgpu.FrontFaceCW
	}

	lit := shader.MustShader(PipelineLit, litSource)
	return map[string]pipeline.Pipeline{
		PipelineSkybox: pipeline.NewPipeline(PipelineSkybox, shader.MustShader(PipelineSkybox, skyboxSource), postprocess.HDRFormat,
			pipeline.WithDepthTestEnabled(false),
			pipeline.WithBlendState(nil),
		),
		PipelineLightMarker: pipeline.NewPipeline(PipelineLightMarker, shader.MustShader(PipelineLightMarker, lightMarkerSource), postprocess.HDRFormat,
			pipeline.WithDepthFormat(postprocess.DepthFormat),
			pipeline.WithCullMode(wgpu.CullModeBack),
			pipeline.WithFrontFace(frontFace),
			pipeline.WithBlendState(nil),
		),
		PipelineLit: pipeline.NewPipeline(PipelineLit, lit, postprocess.HDRFormat,
			pipeline.WithDepthFormat(postprocess.DepthFormat),
			pipeline.WithCullMode(wgpu.CullModeBack),
			pipeline.WithFrontFace(frontFace),
			pipeline.WithBlendState(nil),
			pipeline.WithInstanceSlot(instanceSlot),
		),
		PipelineWireframe: pipeline.NewPipeline(PipelineWireframe, lit, postprocess.HDRFormat,
			pipeline.WithDepthFormat(postprocess.DepthFormat),
			pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
			pipeline.WithFrontFace(frontFace),
			pipeline.WithBlendState(nil),
			pipeline.WithInstanceSlot(instanceSlot),
		),
	}
}

// buildScenePipelines creates the GPU objects. The lit pipeline owns the frame and model
// layouts; the wireframe and marker pipelines share them so one bind group serves all three.
func buildScenePipelines(device *wgpu.Device, pipelines map[string]pipeline.Pipeline) error {
	lit := pipelines[PipelineLit]
	if err := lit.Build(device, nil); err != nil {
		return err
	}
	shared := map[string]map[int]*wgpu.BindGroupLayout{
		PipelineWireframe: {
			groupFrame: lit.BindGroupLayout(groupFrame),
			groupModel: lit.BindGroupLayout(groupModel),
		},
		PipelineLightMarker: {
			groupFrame: lit.BindGroupLayout(groupFrame),
		},
		PipelineSkybox: nil,
	}
	for key, layouts := range shared {
		p, ok := pipelines[key]
		if !ok {
			return fmt.Errorf("pipeline %s is not defined", key)
		}
		if err := p.Build(device, layouts); err != nil {
			return err
		}
	}
	return nil
}
