package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Lights, 4)
	assert.Equal(t, 5, cfg.Render.BloomLevels)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "not found")
}

func TestLoadOverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dreamscape.toml")
	doc := `
[window]
width = 1920

[render]
wireframe = true
clear_color = "#336699"

[physics]
gravity = [0.0, -1.62, 0.0]
invert_sync_rotation = true
solver_iterations = 12

[camera]
fov = 70.0

[[lights]]
position = [0.0, 20.0, 0.0]
color = "#ff0000"
intensity = 2.0

[scene]
rock_count = 10
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height, "untouched keys keep defaults")
	assert.Equal(t, "dreamscape", cfg.Window.Title)
	assert.True(t, cfg.Render.Wireframe)
	assert.True(t, cfg.Physics.InvertSyncRotation)
	assert.InDelta(t, -1.62, cfg.Physics.GravityVec().Y(), 1e-6)
	require.Len(t, cfg.Lights, 1, "an array of tables replaces the default lights")
	assert.Equal(t, [3]float32{0, 20, 0}, cfg.Lights[0].Position)
	assert.Equal(t, 10, cfg.Scene.RockCount)
	assert.Equal(t, 12, cfg.Physics.SolverIterations)
	assert.Equal(t, Default().Physics.MaxDelta, cfg.Physics.MaxDelta)
	assert.Equal(t, float32(70), cfg.Camera.Fov)
	assert.Equal(t, float32(0.1), cfg.Camera.Near)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	cfg := Default()
	err := Decode([]byte("[render]\nbloom = 3\n"), &cfg)
	assert.ErrorContains(t, err, "unknown keys")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero width", func(c *Config) { c.Window.Width = 0 }, "window size"},
		{"no bloom", func(c *Config) { c.Render.BloomLevels = 0 }, "bloom_levels"},
		{"bad clear color", func(c *Config) { c.Render.ClearColor = "grey" }, "clear_color"},
		{"bad light color", func(c *Config) { c.Lights[1].Color = "#zzzzzz" }, "lights[1].color"},
		{"one eye", func(c *Config) {
			c.HMD = HMDConfig{Enabled: true, Eyes: []ViewportConfig{{Width: 10, Height: 10}}}
		}, "two viewports"},
		{"short skybox", func(c *Config) { c.Assets.Skybox = []string{"a.png"} }, "six face paths"},
		{"nameless model", func(c *Config) { c.Assets.Models = []ModelConfig{{Path: "m.gltf"}} }, "name and a path"},
		{"negative min size", func(c *Config) { c.Window.MinWidth = -1 }, "minimum size"},
		{"bad ambient color", func(c *Config) { c.Render.AmbientColor = "dim" }, "ambient_color"},
		{"flat fov", func(c *Config) { c.Camera.Fov = 0 }, "camera.fov"},
		{"inverted clip planes", func(c *Config) { c.Camera.Near, c.Camera.Far = 10, 1 }, "near < far"},
		{"zero substep", func(c *Config) { c.Physics.MaxSubstep = 0 }, "max_substep"},
		{"no solver iterations", func(c *Config) { c.Physics.SolverIterations = 0 }, "solver_iterations"},
		{"negative sleep time", func(c *Config) { c.Physics.SleepTime = -1 }, "sleep_threshold"},
		{"negative eye separation", func(c *Config) { c.HMD.EyeSeparation = -0.1 }, "eye_separation"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestLightLinearRGB(t *testing.T) {
	white := LightConfig{Color: "#ffffff"}.LinearRGB()
	assert.InDeltaSlice(t, []float32{1, 1, 1}, white[:], 1e-5)

	mid := LightConfig{Color: "#808080"}.LinearRGB()
	assert.InDelta(t, 0.2158, mid[0], 1e-3, "sRGB mid grey is darker in linear space")

	fallback := LightConfig{}.LinearRGB()
	assert.Equal(t, [3]float32{1, 1, 1}, fallback)
}

func TestHMDViewports(t *testing.T) {
	assert.Nil(t, HMDConfig{}.Viewports(800, 600))

	split := HMDConfig{Enabled: true}.Viewports(800, 600)
	assert.Equal(t, []common.Rect{
		{X: 0, Y: 0, W: 400, H: 600},
		{X: 400, Y: 0, W: 400, H: 600},
	}, split)

	explicit := HMDConfig{Enabled: true, Eyes: []ViewportConfig{
		{X: 0, Y: 0, Width: 100, Height: 50},
		{X: 100, Y: 0, Width: 100, Height: 50},
	}}.Viewports(800, 600)
	assert.Equal(t, common.Rect{X: 100, W: 100, H: 50}, explicit[1])
}

func TestAmbientAndFov(t *testing.T) {
	ambient := Default().Render.AmbientLinearRGB()
	assert.InDelta(t, 0.05, ambient[0], 1e-3, "the default ambient matches the scene default")
	assert.Equal(t, [3]float32{}, RenderConfig{}.AmbientLinearRGB())
	assert.InDelta(t, math32.Pi/4, Default().Camera.FovRadians(), 1e-6)
}

func TestDecodeHeadTrack(t *testing.T) {
	track, err := DecodeHeadTrack([]byte(`
[[samples]]
time = 0.0
position = [0.0, 1.7, 0.0]
rotation = [1.0, 0.0, 0.0, 0.0]

[[samples]]
time = 1.0
position = [0.0, 1.7, -2.0]
rotation = [1.0, 0.0, 0.0, 0.0]
`))
	require.NoError(t, err)
	assert.Equal(t, float32(1), track.Duration())
	pos, _ := track.Pose(0.5)
	assert.InDelta(t, -1, pos.Z(), 1e-6)

	_, err = DecodeHeadTrack([]byte("[[samples]]\ntime = -1.0\n"))
	assert.ErrorContains(t, err, "must not be negative")
	_, err = DecodeHeadTrack([]byte("[[samples]]\nspeed = 1.0\n"))
	assert.Error(t, err)
	_, err = DecodeHeadTrack(nil)
	assert.ErrorContains(t, err, "no samples")

	_, err = LoadHeadTrack(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "failed to read head track")
}
