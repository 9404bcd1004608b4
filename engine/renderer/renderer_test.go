package renderer

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/assets"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/config"
	"github.com/Carmen-Shannon/dreamscape/engine/light"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
	"github.com/Carmen-Shannon/dreamscape/engine/postprocess"
	"github.com/Carmen-Shannon/dreamscape/engine/scene"
	"github.com/Carmen-Shannon/dreamscape/engine/scheduler"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySurfaceError(t *testing.T) {
	tests := []struct {
		msg         string
		want        error
		recoverable bool
	}{
		{"Surface is Outdated", ErrSurfaceOutdated, true},
		{"surface lost", ErrSurfaceLost, true},
		{"GetCurrentTexture: Timeout", ErrSurfaceTimeout, true},
		{"device out of memory", ErrOutOfMemory, false},
		{"OutOfMemory", ErrOutOfMemory, false},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			err := ClassifySurfaceError(errors.New(tt.msg))
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Equal(t, tt.recoverable, IsRecoverable(err))
			assert.Same(t, err, ClassifySurfaceError(err), "already classified")
		})
	}

	other := errors.New("validation error")
	assert.Equal(t, other, ClassifySurfaceError(other))
	assert.NoError(t, ClassifySurfaceError(nil))
}

type fakeBuffer struct {
	id   int
	size uint64
}

type fakeAllocator struct {
	next  int
	live  map[int]*fakeBuffer
	sizes []uint64
	fail  bool
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{live: map[int]*fakeBuffer{}}
}

func (a *fakeAllocator) Allocate(_ string, size uint64) (*fakeBuffer, error) {
	if a.fail {
		return nil, errors.New("out of memory")
	}
	a.next++
	b := &fakeBuffer{id: a.next, size: size}
	a.live[b.id] = b
	a.sizes = append(a.sizes, size)
	return b, nil
}

func (a *fakeAllocator) Free(b *fakeBuffer) {
	delete(a.live, b.id)
}

func TestInstanceBufferCapacityIsMonotonic(t *testing.T) {
	alloc := newFakeAllocator()
	const stride = model.GPUInstanceSize
	buffers := NewInstanceBuffers[*fakeBuffer](alloc, stride)

	counts := []int{1, 3, 2, 0, 10, 4, 10, 11}
	var capacity uint64
	for _, n := range counts {
		buf, err := buffers.Ensure(0, n)
		require.NoError(t, err)
		got := buffers.Capacity(0)
		assert.GreaterOrEqual(t, got, capacity, "capacity never shrinks")
		assert.GreaterOrEqual(t, got, uint64(max(n, 1))*stride)
		assert.Equal(t, got, buf.size)
		capacity = got
	}

	assert.Equal(t, []uint64{stride, 3 * stride, 10 * stride, 11 * stride}, alloc.sizes,
		"reallocated to exactly the required size")
	assert.Len(t, alloc.live, 1, "replaced buffers are freed")
}

func TestInstanceBuffersPerOrdinal(t *testing.T) {
	alloc := newFakeAllocator()
	buffers := NewInstanceBuffers[*fakeBuffer](alloc, 16)

	a, err := buffers.Ensure(0, 2)
	require.NoError(t, err)
	b, err := buffers.Ensure(2, 1)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Zero(t, buffers.Capacity(1))
	assert.Zero(t, buffers.Capacity(7))

	again, err := buffers.Ensure(0, 1)
	require.NoError(t, err)
	assert.Same(t, a, again)

	_, err = buffers.Ensure(-1, 1)
	assert.Error(t, err)

	buffers.Release()
	assert.Empty(t, alloc.live)
}

func TestInstanceBufferAllocationFailureKeepsOld(t *testing.T) {
	alloc := newFakeAllocator()
	buffers := NewInstanceBuffers[*fakeBuffer](alloc, 16)
	old, err := buffers.Ensure(0, 1)
	require.NoError(t, err)

	alloc.fail = true
	_, err = buffers.Ensure(0, 5)
	require.Error(t, err)
	assert.Equal(t, uint64(16), buffers.Capacity(0))
	assert.Contains(t, alloc.live, old.id)
}

func TestCacheCreatesOnce(t *testing.T) {
	var released []string
	c := NewCache[model.ModelID](func(v string) { released = append(released, v) })

	calls := 0
	create := func() (string, error) {
		calls++
		return fmt.Sprintf("bindings-%d", calls), nil
	}
	v1, err := c.GetOrCreate(1, create)
	require.NoError(t, err)
	v2, err := c.GetOrCreate(1, create)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, calls)

	_, err = c.GetOrCreate(2, func() (string, error) { return "", errors.New("boom") })
	require.Error(t, err)
	_, ok := c.Get(2)
	assert.False(t, ok, "failed creates are not cached")
	assert.Equal(t, 1, c.Len())

	c.Release()
	assert.Equal(t, []string{"bindings-1"}, released)
	assert.Zero(t, c.Len())
}

func TestLineIndices(t *testing.T) {
	assert.Equal(t, []uint32{0, 1, 1, 2, 2, 0, 2, 3, 3, 0, 0, 2}, LineIndices([]uint32{0, 1, 2, 2, 3, 0}))
	assert.Empty(t, LineIndices([]uint32{0, 1}))

	_, indices := assets.Cube()
	assert.Len(t, LineIndices(indices), len(indices)*2)
	assert.Len(t, indexBytes(indices), len(indices)*4)
}

func TestScenePipelines(t *testing.T) {
	pipelines := newScenePipelines(false)
	require.Len(t, pipelines, 4)

	skybox := pipelines[PipelineSkybox]
	assert.False(t, skybox.DepthTestEnabled())
	assert.Empty(t, skybox.Shader().VertexLayouts())
	assert.Equal(t, wgpu.TextureViewDimensionCube, skybox.Shader().BindGroupLayoutDescriptor(0).Entries[1].Texture.ViewDimension)

	lit := pipelines[PipelineLit]
	assert.Equal(t, postprocess.HDRFormat, lit.TargetFormat())
	assert.Equal(t, wgpu.CullModeBack, lit.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, lit.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, lit.FrontFace())
	layouts := lit.Descriptor(nil, nil).Vertex.Buffers
	require.Len(t, layouts, 2)
	assert.Equal(t, wgpu.VertexStepModeVertex, layouts[0].StepMode)
	assert.Equal(t, wgpu.VertexStepModeInstance, layouts[instanceSlot].StepMode)
	assert.Equal(t, uint64(model.GPUInstanceSize), layouts[instanceSlot].ArrayStride)

	frame := lit.Shader().BindGroupLayoutDescriptor(groupFrame)
	require.Len(t, frame.Entries, 2)
	assert.Equal(t, uint64(camera.GPUCameraUniformSize), frame.Entries[0].Buffer.MinBindingSize)
	assert.Equal(t, uint64(light.GPULightsSize), frame.Entries[1].Buffer.MinBindingSize)

	wire := pipelines[PipelineWireframe]
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, wire.Topology())
	assert.Same(t, lit.Shader(), wire.Shader())

	marker := pipelines[PipelineLightMarker]
	require.Len(t, marker.Shader().VertexLayouts(), 1)
	assert.Equal(t, frame, marker.Shader().BindGroupLayoutDescriptor(groupFrame), "frame group layouts match so one bind group serves both")
}

func TestScenePipelinesHMDFlipsFrontFace(t *testing.T) {
	for key, p := range newScenePipelines(true) {
		if key == PipelineSkybox {
			continue
		}
		assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace(), key)
	}
}

type fakeRenderer struct {
	Renderer
	sizes [][2]int
}

func (f *fakeRenderer) Resize(width, height int) error {
	f.sizes = append(f.sizes, [2]int{width, height})
	return nil
}

func (f *fakeRenderer) Render(scene.Scene) error { return nil }

func TestResizeSystemUsesLastResize(t *testing.T) {
	store := assets.NewStore()
	assets.RegisterBuiltins(store)
	s := scene.NewScene("test", scene.WithAssets(store))
	sched := scheduler.New[scene.Scene]()
	scene.RegisterCoreSystems(sched)
	r := &fakeRenderer{}
	RegisterSystems(sched, r)

	assert.Equal(t, []string{scene.SystemDrainEvents, scene.SystemFrameTime, scene.SystemExitCheck, SystemSurfaceResize},
		sched.Systems(scheduler.PhasePreUpdate))
	assert.Equal(t, []string{SystemRender}, sched.Systems(scheduler.PhaseRender))

	s.Queue().PushResize(800, 600)
	s.Queue().PushResize(1024, 768)
	require.NoError(t, sched.RunFrame(s))
	s.Queue().PushResize(0, 0)
	require.NoError(t, sched.RunFrame(s))

	assert.Equal(t, [][2]int{{1024, 768}}, r.sizes)
}

func TestPresentModeFor(t *testing.T) {
	assert.Equal(t, PresentModeVSync, PresentModeFor(true))
	assert.Equal(t, PresentModeUncapped, PresentModeFor(false))
	assert.Equal(t, wgpu.PresentModeFifo, PresentModeVSync.wgpu())
	assert.Equal(t, wgpu.PresentModeImmediate, PresentModeUncapped.wgpu())
}

func TestNewRendererRejectsUnknownBackend(t *testing.T) {
	_, err := NewRenderer(RendererBackendType(9), nil)
	assert.ErrorContains(t, err, "unknown (9) is not supported")
}

func TestRelayoutFollowsSurfaceSize(t *testing.T) {
	hmd := config.HMDConfig{Enabled: true}
	r := &renderer{mu: &sync.Mutex{}}
	WithViewportLayout(hmd.Viewports)(r)

	r.relayout(1600, 900)
	assert.Equal(t, []common.Rect{{W: 800, H: 900}, {X: 800, W: 800, H: 900}}, r.viewports)

	r.relayout(1000, 500)
	assert.Equal(t, []common.Rect{{W: 500, H: 500}, {X: 500, W: 500, H: 500}}, r.viewports,
		"eyes follow the new framebuffer size")

	r.SetViewports([]common.Rect{{W: 10, H: 10}})
	r.relayout(640, 480)
	assert.Equal(t, []common.Rect{{W: 10, H: 10}}, r.viewports, "fixed viewports survive a resize")
}

func TestRelayoutDisabledHMDDrawsFullTarget(t *testing.T) {
	r := &renderer{mu: &sync.Mutex{}}
	WithViewportLayout(config.HMDConfig{}.Viewports)(r)
	r.relayout(800, 600)
	assert.Nil(t, r.viewports)
}

func TestFitViewports(t *testing.T) {
	fitted := fitViewports([]common.Rect{
		{X: 0, Y: 0, W: 960, H: 1080},
		{X: 960, Y: 0, W: 960, H: 1080},
		{X: 2000, Y: 0, W: 100, H: 100},
		{X: -50, Y: 10, W: 100, H: 20},
	}, 1280, 720)
	assert.Equal(t, []common.Rect{
		{W: 960, H: 720},
		{X: 960, W: 320, H: 720},
		{X: 0, Y: 10, W: 50, H: 20},
	}, fitted)
	assert.Nil(t, fitViewports(nil, 100, 100))
}

func TestEyeViews(t *testing.T) {
	cam := camera.New(camera.WithAspect(16.0 / 9.0))
	camT := transform.FromPosition(mgl32.Vec3{0, 1.7, 0})
	viewports := []common.Rect{{W: 640, H: 720}, {X: 640, W: 640, H: 720}}

	synthesized := eyeViews(&cam, &camT, viewports, nil, 0.1)
	require.Len(t, synthesized, 2)
	assert.InDelta(t, -0.05, synthesized[0].Position.X(), 1e-6)
	assert.InDelta(t, 0.05, synthesized[1].Position.X(), 1e-6)

	tracked := []camera.Eye{
		{Position: mgl32.Vec3{-1, 0, 0}, Rotation: mgl32.QuatIdent(), Projection: mgl32.Ident4()},
		{Position: mgl32.Vec3{1, 0, 0}, Rotation: mgl32.QuatIdent(), Projection: mgl32.Scale3D(1, 2, 1)},
	}
	assert.Equal(t, tracked, eyeViews(&cam, &camT, viewports, tracked, 0.1), "tracked eyes win")
	assert.Len(t, eyeViews(&cam, &camT, viewports, tracked[:1], 0.1), 2, "a mismatched count falls back to synthesized eyes")

	single := eyeViews(&cam, &camT, []common.Rect{{}}, nil, 0.1)
	require.Len(t, single, 1)
	assert.Equal(t, camT.Position(), single[0].Position)

	left, right := cam.EyeUniform(tracked[0]), cam.EyeUniform(tracked[1])
	assert.NotEqual(t, left.ViewProj, right.ViewProj, "each eye gets its own camera uniform")
}

func TestEyeSeparationOption(t *testing.T) {
	r := &renderer{eyeSeparation: DefaultEyeSeparation}
	WithEyeSeparation(-1)(r)
	assert.Equal(t, DefaultEyeSeparation, r.eyeSeparation)
	WithEyeSeparation(0.07)(r)
	assert.Equal(t, float32(0.07), r.eyeSeparation)
}
