package postprocess

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTarget struct {
	label         string
	width, height uint32
	format        wgpu.TextureFormat
	released      bool
}

func (f *fakeTarget) Size() (uint32, uint32) { return f.width, f.height }
func (f *fakeTarget) View() *wgpu.TextureView { return nil }
func (f *fakeTarget) Release()                { f.released = true }

type fakeFactory struct {
	created []*fakeTarget
	failOn  string
}

func (f *fakeFactory) CreateTarget(label string, w, h uint32, format wgpu.TextureFormat) (Target, error) {
	if label == f.failOn {
		return nil, errors.New("out of memory")
	}
	t := &fakeTarget{label: label, width: w, height: h, format: format}
	f.created = append(f.created, t)
	return t, nil
}

func TestTargetsResize(t *testing.T) {
	f := &fakeFactory{}
	targets := NewTargets(f)

	changed, err := targets.Resize(800, 600)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, f.created, 2)
	assert.Equal(t, HDRFormat, f.created[0].format)
	assert.Equal(t, DepthFormat, f.created[1].format)

	changed, err = targets.Resize(800, 600)
	require.NoError(t, err)
	assert.False(t, changed, "same size is a no-op")
	assert.Len(t, f.created, 2)

	changed, err = targets.Resize(1024, 768)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, f.created, 4)
	assert.True(t, f.created[0].released)
	assert.True(t, f.created[1].released)

	w, h := targets.Color().Size()
	assert.Equal(t, [2]uint32{1024, 768}, [2]uint32{w, h})
	w, h = targets.Depth().Size()
	assert.Equal(t, [2]uint32{1024, 768}, [2]uint32{w, h})
}

func TestTargetsResizeClampsZero(t *testing.T) {
	f := &fakeFactory{}
	targets := NewTargets(f)
	_, err := targets.Resize(0, 0)
	require.NoError(t, err)
	w, h := targets.Color().Size()
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
}

func TestTargetsResizeFailureReleasesColor(t *testing.T) {
	f := &fakeFactory{failOn: "hdr depth"}
	targets := NewTargets(f)
	_, err := targets.Resize(64, 64)
	require.Error(t, err)
	require.Len(t, f.created, 1)
	assert.True(t, f.created[0].released)
	assert.Nil(t, targets.Color())
}

func TestPlanBloom(t *testing.T) {
	assert.Empty(t, PlanBloom(1))
	assert.Equal(t, []BloomPass{{PassDownsample, 0, 1}}, PlanBloom(2))
	assert.Equal(t, []BloomPass{
		{PassDownsample, 0, 1},
		{PassDownsample, 1, 2},
		{PassDownsample, 2, 3},
		{PassDownsample, 3, 4},
		{PassUpsample, 4, 3},
		{PassUpsample, 3, 2},
		{PassUpsample, 2, 1},
	}, PlanBloom(5))

	for _, p := range PlanBloom(MaxBloomLevels) {
		assert.NotZero(t, p.Dest, "level 0 is never written")
	}
}

func TestLevelSizeAndClamp(t *testing.T) {
	tests := []struct {
		level int
		w, h  uint32
	}{
		{0, 1000, 3},
		{1, 500, 1},
		{3, 125, 1},
		{12, 1, 1},
	}
	for _, tt := range tests {
		w, h := LevelSize(1000, 3, tt.level)
		assert.Equal(t, tt.w, w, "level %d", tt.level)
		assert.Equal(t, tt.h, h, "level %d", tt.level)
	}

	assert.Equal(t, MinBloomLevels, ClampLevels(0))
	assert.Equal(t, 5, ClampLevels(5))
	assert.Equal(t, MaxBloomLevels, ClampLevels(100))
	assert.Equal(t, "upsample", PassUpsample.String())
}

func TestPyramidResize(t *testing.T) {
	f := &fakeFactory{}
	p := NewPyramid(f, 4)
	assert.Nil(t, p.Level(1))

	changed, err := p.Resize(256, 128)
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, f.created, 3)
	for i, level := range []int{1, 2, 3} {
		w, h := p.Level(level).Size()
		ew, eh := LevelSize(256, 128, level)
		assert.Equal(t, ew, w)
		assert.Equal(t, eh, h)
		assert.Same(t, f.created[i], p.Level(level))
	}
	assert.Nil(t, p.Level(0))
	assert.Nil(t, p.Level(4))

	changed, err = p.Resize(256, 128)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = p.Resize(512, 256)
	require.NoError(t, err)
	assert.True(t, changed)
	for _, old := range f.created[:3] {
		assert.True(t, old.released)
	}
}

func TestPyramidResizeFailureCleansUp(t *testing.T) {
	f := &fakeFactory{failOn: "bloom level 2"}
	p := NewPyramid(f, 4)
	_, err := p.Resize(64, 64)
	require.Error(t, err)
	require.Len(t, f.created, 1)
	assert.True(t, f.created[0].released)
	assert.Nil(t, p.Level(1))
}

func TestPlanResolve(t *testing.T) {
	assert.Equal(t, []ResolvePass{{Clear: true}}, PlanResolve(nil))

	left := common.Rect{W: 640, H: 720}
	right := common.Rect{X: 640, W: 640, H: 720}
	assert.Equal(t, []ResolvePass{
		{Viewport: left, Clear: true},
		{Viewport: right},
	}, PlanResolve([]common.Rect{left, right}), "only the first eye clears")
}

type fakeGroup struct {
	released bool
}

func (g *fakeGroup) Release() { g.released = true }

func TestBuildGroupsReleasesPartialOnFailure(t *testing.T) {
	var created []*fakeGroup
	groups, err := buildGroups(4, func(i int) (*fakeGroup, error) {
		if i == 2 {
			return nil, errors.New("bind group rejected")
		}
		g := &fakeGroup{}
		created = append(created, g)
		return g, nil
	})
	require.Error(t, err)
	assert.Nil(t, groups)
	require.Len(t, created, 2)
	for _, g := range created {
		assert.True(t, g.released)
	}

	groups, err = buildGroups(3, func(int) (*fakeGroup, error) { return &fakeGroup{}, nil })
	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestChainResizeFailureLeavesChainNotReady(t *testing.T) {
	f := &fakeFactory{failOn: "bloom level 1"}
	c := &Chain{targets: NewTargets(f), pyramid: NewPyramid(f, 3)}

	require.Error(t, c.Resize(320, 200))
	assert.False(t, c.Ready())
	assert.Nil(t, c.levelGroups)
	c.Encode(nil, nil, nil)
}
