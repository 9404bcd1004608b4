package main

import (
	"testing"

	"github.com/Carmen-Shannon/dreamscape/engine/config"
	"github.com/Carmen-Shannon/dreamscape/engine/player"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideOnlyWhenSet(t *testing.T) {
	cmd := newRootCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--wireframe", "--log-level=debug"}))

	cfg := config.Default()
	cfg.HMD.Enabled = true
	f := flags{wireframe: true, logLevel: "debug"}
	applyFlags(cmd, f, &cfg)

	assert.True(t, cfg.Render.Wireframe)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.HMD.Enabled, "an unset flag keeps the file value")
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"config", "wireframe", "log-level", "profile", "hmd"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "c", cmd.Flags().Lookup("config").Shorthand)
}

func TestLoadAssetsWithoutFiles(t *testing.T) {
	store, err := loadAssets(t.Context(), config.AssetsConfig{})
	require.NoError(t, err)
	assert.True(t, store.HasTexture("skybox"))
}

func TestLoadAssetsReportsMissingModel(t *testing.T) {
	_, err := loadAssets(t.Context(), config.AssetsConfig{
		Models: []config.ModelConfig{{Name: "rock", Path: "does-not-exist.gltf"}},
	})
	assert.ErrorContains(t, err, `failed to load model "rock"`)
}

func TestHeadsetViewSourceFollowsTrackAndSize(t *testing.T) {
	cfg := config.Default()
	cfg.HMD.Enabled = true
	track, err := player.NewHeadTrack([]player.HeadSample{
		{Time: 0, Position: mgl32.Vec3{0, 1.7, 0}, Rotation: mgl32.QuatIdent()},
		{Time: 4, Position: mgl32.Vec3{0, 1.7, -4}, Rotation: mgl32.QuatIdent()},
	})
	require.NoError(t, err)

	width, height := 1600, 900
	clock := float32(1)
	source := headsetViewSource(cfg, track, func() int { return width }, func() int { return height }, func() float32 { return clock })

	pose, ok := source()
	require.True(t, ok)
	assert.InDelta(t, -1, pose.Position.Z(), 1e-5)
	require.Len(t, pose.Eyes, 2)
	assert.InDelta(t, cfg.HMD.EyeSeparation, pose.Eyes[1].Position.X()-pose.Eyes[0].Position.X(), 1e-6)

	width, height, clock = 800, 800, 2
	pose, _ = source()
	assert.InDelta(t, -2, pose.Position.Z(), 1e-5)
	assert.InDelta(t, 0.5, pose.Eyes[0].Projection.At(1, 1)/pose.Eyes[0].Projection.At(0, 0), 1e-4,
		"each 400x800 eye gets a 1:2 projection after the resize")
}
