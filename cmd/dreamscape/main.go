// Command dreamscape opens a window and runs the demo scene: a physics floor, falling boxes,
// a rock field, orbiting lights and a first-person character.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/dreamscape/engine"
	"github.com/Carmen-Shannon/dreamscape/engine/assets"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/config"
	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/Carmen-Shannon/dreamscape/engine/player"
	"github.com/Carmen-Shannon/dreamscape/engine/renderer"
	"github.com/Carmen-Shannon/dreamscape/engine/scene"
	"github.com/Carmen-Shannon/dreamscape/engine/scheduler"
	"github.com/Carmen-Shannon/dreamscape/engine/window"
	"github.com/Carmen-Shannon/dreamscape/examples"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flags struct {
	configPath string
	wireframe  bool
	logLevel   string
	profile    bool
	hmd        bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "dreamscape",
		Short:         "Run the dreamscape demo scene",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			applyFlags(cmd, f, &cfg)
			if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			defer logger.Sync()

			if err := run(cmd.Context(), cfg, f.profile); err != nil {
				logger.Log.Error("dreamscape exited with an error", zap.Error(err))
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "path to a TOML configuration file")
	cmd.Flags().BoolVar(&f.wireframe, "wireframe", false, "draw models as wireframes")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().BoolVar(&f.profile, "profile", false, "log frame rate and memory statistics every second")
	cmd.Flags().BoolVar(&f.hmd, "hmd", false, "render a side-by-side stereo layout")
	return cmd
}

// applyFlags overrides configuration values with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, f flags, cfg *config.Config) {
	if cmd.Flags().Changed("wireframe") {
		cfg.Render.Wireframe = f.wireframe
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if cmd.Flags().Changed("hmd") {
		cfg.HMD.Enabled = f.hmd
	}
}

func run(ctx context.Context, cfg config.Config, profile bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := loadAssets(ctx, cfg.Assets)
	if err != nil {
		return err
	}

	win, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithMinSize(cfg.Window.MinWidth, cfg.Window.MinHeight),
		window.WithCursorCapture(cfg.Window.CaptureCursor),
	)
	if err != nil {
		return err
	}

	clearColor, err := config.ParseColor(cfg.Render.ClearColor)
	if err != nil {
		_ = win.Close()
		return err
	}
	r, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win,
		renderer.WithPresentMode(renderer.PresentModeFor(cfg.Render.VSync)),
		renderer.WithForceSoftwareRenderer(cfg.Render.Software),
		renderer.WithWireframe(cfg.Render.Wireframe),
		renderer.WithHMD(cfg.HMD.Enabled),
		renderer.WithViewportLayout(cfg.HMD.Viewports),
		renderer.WithEyeSeparation(cfg.HMD.EyeSeparation),
		renderer.WithBloomLevels(cfg.Render.BloomLevels),
		renderer.WithClearColor(clearColor),
	)
	if err != nil {
		_ = win.Close()
		return err
	}

	world := physics.NewWorld(
		physics.WithGravity(cfg.Physics.GravityVec()),
		physics.WithInvertedSyncRotation(cfg.Physics.InvertSyncRotation),
		physics.WithMaxSubstep(cfg.Physics.MaxSubstep),
		physics.WithMaxDelta(cfg.Physics.MaxDelta),
		physics.WithSolverIterations(cfg.Physics.SolverIterations),
		physics.WithSleeping(cfg.Physics.SleepThreshold, cfg.Physics.SleepTime),
	)
	sceneOpts := []scene.SceneBuilderOption{
		scene.WithAssets(store),
		scene.WithPhysics(world),
		scene.WithQueue(win.Queue()),
		scene.WithAmbientColor(cfg.Render.AmbientLinearRGB()),
	}
	if cfg.HMD.Enabled && cfg.HMD.Track != "" {
		track, err := config.LoadHeadTrack(cfg.HMD.Track)
		if err != nil {
			r.Release()
			_ = win.Close()
			return err
		}
		start := time.Now()
		source := headsetViewSource(cfg, track, win.Width, win.Height, func() float32 {
			return float32(time.Since(start).Seconds())
		})
		sceneOpts = append(sceneOpts, scene.WithViewSource(source))
		logger.Log.Info("head track loaded", zap.String("path", cfg.HMD.Track), zap.Float32("duration", track.Duration()))
	}
	s := scene.NewScene("dreamscape", sceneOpts...)

	sched := scheduler.New[scene.Scene]()
	scene.RegisterCoreSystems(sched)
	examples.Register(sched, examples.OptionsFromConfig(cfg))
	renderer.RegisterSystems(sched, r)

	frameLimit := 0.0
	if !cfg.Render.VSync {
		frameLimit = float64(cfg.Render.FrameLimit)
	}
	eng := engine.NewEngine(
		engine.WithWindow(win),
		engine.WithScene(s),
		engine.WithScheduler(sched),
		engine.WithRelease(r),
		engine.WithProfiling(profile),
		engine.WithRenderFrameLimit(frameLimit),
	)
	return eng.Run()
}

// headsetViewSource plays a recorded head track back as the scene's view pose, one eye per
// HMD viewport of the current framebuffer.
//
// Parameters:
//   - cfg: supplies the camera projection, the HMD layout and the eye separation
//   - track: the recorded head motion
//   - width, height: report the current framebuffer size
//   - now: seconds since playback started
//
// Returns:
//   - func() (player.ViewOverride, bool): the view source
func headsetViewSource(cfg config.Config, track *player.HeadTrack, width, height func() int, now func() float32) func() (player.ViewOverride, bool) {
	cam := camera.New(
		camera.WithFov(cfg.Camera.FovRadians()),
		camera.WithClipPlanes(cfg.Camera.Near, cfg.Camera.Far),
		camera.WithAspect(float32(cfg.Window.Width)/float32(cfg.Window.Height)),
	)
	return func() (player.ViewOverride, bool) {
		w, h := width(), height()
		if w > 0 && h > 0 {
			cam.SetAspect(float32(w) / float32(h))
		}
		pos, rot := track.Pose(now())
		return player.StereoView(&cam, pos, rot, cfg.HMD.Viewports(w, h), cfg.HMD.EyeSeparation), true
	}
}

// loadAssets registers the procedural assets, then any configured files on top of them.
func loadAssets(ctx context.Context, cfg config.AssetsConfig) (assets.Store, error) {
	store := assets.NewStore()
	assets.RegisterBuiltins(store)

	if len(cfg.Textures) > 0 {
		if err := store.LoadTextures(ctx, cfg.Textures); err != nil {
			return nil, fmt.Errorf("failed to load textures: %w", err)
		}
	}
	if len(cfg.Skybox) == assets.CubeFaceCount {
		var faces [assets.CubeFaceCount]string
		copy(faces[:], cfg.Skybox)
		cube, err := assets.LoadCubeTexture(faces)
		if err != nil {
			return nil, fmt.Errorf("failed to load skybox: %w", err)
		}
		store.RegisterTexture(assets.TextureSkybox, cube)
	}
	for _, m := range cfg.Models {
		if _, err := store.LoadModel(m.Name, m.Path, m.Collision); err != nil {
			return nil, fmt.Errorf("failed to load model %q: %w", m.Name, err)
		}
	}
	return store, nil
}
