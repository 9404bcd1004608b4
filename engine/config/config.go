// Package config loads the dreamscape TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/physics"
	"github.com/Carmen-Shannon/dreamscape/engine/player"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration. Zero-valued sections are filled from Default
// before the file is decoded, so a file only needs the keys it changes.
type Config struct {
	Window  WindowConfig  `toml:"window"`
	Render  RenderConfig  `toml:"render"`
	Camera  CameraConfig  `toml:"camera"`
	Physics PhysicsConfig `toml:"physics"`
	Player  PlayerConfig  `toml:"player"`
	HMD     HMDConfig     `toml:"hmd"`
	Lights  []LightConfig `toml:"lights"`
	Log     LogConfig     `toml:"log"`
	Scene   SceneConfig   `toml:"scene"`
	Assets  AssetsConfig  `toml:"assets"`
}

type WindowConfig struct {
	Title     string `toml:"title"`
	Width     int    `toml:"width"`
	Height    int    `toml:"height"`
	MinWidth  int    `toml:"min_width"`
	MinHeight int    `toml:"min_height"`
	// CaptureCursor locks the cursor to the window for mouse look.
	CaptureCursor bool `toml:"capture_cursor"`
}

type RenderConfig struct {
	Wireframe    bool   `toml:"wireframe"`
	VSync        bool   `toml:"vsync"`
	BloomLevels  int    `toml:"bloom_levels"`
	ClearColor   string `toml:"clear_color"`
	AmbientColor string `toml:"ambient_color"`
	// Software requests the fallback (CPU) adapter instead of a hardware GPU.
	Software bool `toml:"software"`
	// FrameLimit caps frames per second when vsync is off. Zero means uncapped.
	FrameLimit int `toml:"frame_limit"`
}

// CameraConfig shapes the player camera's projection. Fov is vertical, in degrees.
type CameraConfig struct {
	Fov  float32 `toml:"fov"`
	Near float32 `toml:"near"`
	Far  float32 `toml:"far"`
}

type PhysicsConfig struct {
	Gravity            [3]float32 `toml:"gravity"`
	InvertSyncRotation bool       `toml:"invert_sync_rotation"`
	// MaxSubstep is the longest integration step in seconds; MaxDelta caps one frame's simulated time.
	MaxSubstep       float32 `toml:"max_substep"`
	MaxDelta         float32 `toml:"max_delta"`
	SolverIterations int     `toml:"solver_iterations"`
	// SleepThreshold is the speed below which a body idles; SleepTime is how long it idles
	// before sleeping. Zero SleepTime disables sleeping.
	SleepThreshold float32 `toml:"sleep_threshold"`
	SleepTime      float32 `toml:"sleep_time"`
}

type PlayerConfig struct {
	MoveSpeed float32 `toml:"move_speed"`
	LookSpeed float32 `toml:"look_speed"`
}

// HMDConfig enables the two-eye layout. Each eye is a viewport in framebuffer pixels.
type HMDConfig struct {
	Enabled bool             `toml:"enabled"`
	Eyes    []ViewportConfig `toml:"eyes"`
	// EyeSeparation is the distance between the eyes in metres.
	EyeSeparation float32 `toml:"eye_separation"`
	// Track is an optional recorded head motion file played back as the view pose.
	Track string `toml:"track"`
}

type ViewportConfig struct {
	X      float32 `toml:"x"`
	Y      float32 `toml:"y"`
	Width  float32 `toml:"width"`
	Height float32 `toml:"height"`
}

// LightConfig describes one point light. Color is a hex string such as "#ffcc88".
type LightConfig struct {
	Position  [3]float32 `toml:"position"`
	Color     string     `toml:"color"`
	Intensity float32    `toml:"intensity"`
}

type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

type SceneConfig struct {
	RockCount int   `toml:"rock_count"`
	Seed      int64 `toml:"seed"`
}

// AssetsConfig lists optional files loaded on top of the built-in assets.
type AssetsConfig struct {
	// Textures maps a texture name to an image path.
	Textures map[string]string `toml:"textures"`
	// Skybox holds six cube face paths in +X, -X, +Y, -Y, +Z, -Z order. Empty uses the gradient sky.
	Skybox []string      `toml:"skybox"`
	Models []ModelConfig `toml:"models"`
}

type ModelConfig struct {
	Name      string `toml:"name"`
	Path      string `toml:"path"`
	Collision string `toml:"collision"`
}

// Default returns the configuration used when no file is given.
//
// Returns:
//   - Config: the default configuration
func Default() Config {
	return Config{
		Window: WindowConfig{
			Title:         "dreamscape",
			Width:         1280,
			Height:        720,
			MinWidth:      320,
			MinHeight:     200,
			CaptureCursor: true,
		},
		Render: RenderConfig{
			VSync:        true,
			BloomLevels:  5,
			ClearColor:   "#1a1a1a",
			AmbientColor: "#3f3f3f",
		},
		Camera: CameraConfig{
			Fov:  45,
			Near: 0.1,
			Far:  100,
		},
		Physics: PhysicsConfig{
			Gravity:          [3]float32{0, -9.81, 0},
			MaxSubstep:       physics.DefaultMaxSubstep,
			MaxDelta:         physics.DefaultMaxDelta,
			SolverIterations: physics.DefaultSolverIterations,
			SleepThreshold:   physics.DefaultSleepThreshold,
			SleepTime:        physics.DefaultSleepTime,
		},
		Player: PlayerConfig{
			MoveSpeed: player.DefaultMoveSpeed,
			LookSpeed: player.DefaultLookSpeed,
		},
		Lights: []LightConfig{
			{Position: [3]float32{-5, 10, -5}, Color: "#ffffff", Intensity: 1},
			{Position: [3]float32{5, 10, -5}, Color: "#ff0000", Intensity: 1},
			{Position: [3]float32{5, 10, 5}, Color: "#00ff00", Intensity: 1},
			{Position: [3]float32{-5, 10, 5}, Color: "#0000ff", Intensity: 1},
		},
		HMD: HMDConfig{
			EyeSeparation: 0.064,
		},
		Log: LogConfig{
			Level:       "info",
			Development: true,
		},
		Scene: SceneConfig{
			RockCount: 200,
			Seed:      1,
		},
	}
}

// Load reads a TOML file on top of Default. An empty path returns the defaults.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the merged configuration
//   - error: error if the file cannot be read, has unknown keys, or fails validation
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("config file %q not found: %w", path, err)
		}
		return cfg, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := Decode(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}

// Decode unmarshals TOML into cfg, keeping fields the data does not mention, and validates the result.
//
// Parameters:
//   - data: the TOML document
//   - cfg: the configuration to update
//
// Returns:
//   - error: error if the document is malformed, has unknown keys, or fails validation
func Decode(data []byte, cfg *Config) error {
	// Arrays in the document replace the current ones rather than extending them.
	lights, eyes := cfg.Lights, cfg.HMD.Eyes
	cfg.Lights, cfg.HMD.Eyes = nil, nil
	defer func() {
		if cfg.Lights == nil {
			cfg.Lights = lights
		}
		if cfg.HMD.Eyes == nil {
			cfg.HMD.Eyes = eyes
		}
	}()

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}
	return cfg.Validate()
}

// Validate checks value ranges and color strings.
//
// Returns:
//   - error: the first problem found, or nil
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Render.BloomLevels < 1 {
		return fmt.Errorf("bloom_levels must be at least 1, got %d", c.Render.BloomLevels)
	}
	if c.Render.FrameLimit < 0 {
		return fmt.Errorf("frame_limit must not be negative, got %d", c.Render.FrameLimit)
	}
	if c.Window.MinWidth < 0 || c.Window.MinHeight < 0 {
		return fmt.Errorf("window minimum size must not be negative, got %dx%d", c.Window.MinWidth, c.Window.MinHeight)
	}
	if _, err := ParseColor(c.Render.ClearColor); err != nil {
		return fmt.Errorf("render.clear_color: %w", err)
	}
	if _, err := ParseColor(c.Render.AmbientColor); err != nil {
		return fmt.Errorf("render.ambient_color: %w", err)
	}
	if c.Camera.Fov <= 0 || c.Camera.Fov >= 180 {
		return fmt.Errorf("camera.fov must be between 0 and 180 degrees, got %g", c.Camera.Fov)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("camera clip planes need 0 < near < far, got %g and %g", c.Camera.Near, c.Camera.Far)
	}
	if c.Physics.MaxSubstep <= 0 || c.Physics.MaxDelta <= 0 {
		return fmt.Errorf("physics max_substep and max_delta must be positive")
	}
	if c.Physics.SolverIterations < 1 {
		return fmt.Errorf("physics.solver_iterations must be at least 1, got %d", c.Physics.SolverIterations)
	}
	if c.Physics.SleepThreshold < 0 || c.Physics.SleepTime < 0 {
		return fmt.Errorf("physics sleep_threshold and sleep_time must not be negative")
	}
	for i, l := range c.Lights {
		if _, err := ParseColor(l.Color); err != nil {
			return fmt.Errorf("lights[%d].color: %w", i, err)
		}
		if l.Intensity < 0 {
			return fmt.Errorf("lights[%d].intensity must not be negative", i)
		}
	}
	if c.HMD.Enabled && len(c.HMD.Eyes) != 0 && len(c.HMD.Eyes) != 2 {
		return fmt.Errorf("hmd.eyes needs exactly two viewports, got %d", len(c.HMD.Eyes))
	}
	if c.HMD.EyeSeparation < 0 {
		return fmt.Errorf("hmd.eye_separation must not be negative, got %g", c.HMD.EyeSeparation)
	}
	if n := len(c.Assets.Skybox); n != 0 && n != 6 {
		return fmt.Errorf("assets.skybox needs six face paths, got %d", n)
	}
	for i, m := range c.Assets.Models {
		if m.Name == "" || m.Path == "" {
			return fmt.Errorf("assets.models[%d] needs a name and a path", i)
		}
	}
	if c.Scene.RockCount < 0 {
		return fmt.Errorf("rock_count must not be negative, got %d", c.Scene.RockCount)
	}
	return nil
}

// ParseColor parses a hex color string. An empty string is black.
//
// Parameters:
//   - hex: the color, "#rgb" or "#rrggbb"
//
// Returns:
//   - colorful.Color: the parsed sRGB color
//   - error: error if the string is not a hex color
func ParseColor(hex string) (colorful.Color, error) {
	if hex == "" {
		return colorful.Color{}, nil
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return c, nil
}

// LinearRGB converts a light's hex color to linear RGB, the space the shaders light in.
//
// Returns:
//   - [3]float32: the linear color, or white if the string does not parse
func (l LightConfig) LinearRGB() [3]float32 {
	return linearRGB(l.Color, [3]float32{1, 1, 1})
}

// AmbientLinearRGB returns the ambient color in linear RGB, black if it does not parse.
func (r RenderConfig) AmbientLinearRGB() [3]float32 {
	return linearRGB(r.AmbientColor, [3]float32{})
}

func linearRGB(hex string, fallback [3]float32) [3]float32 {
	c, err := ParseColor(hex)
	if err != nil || hex == "" {
		return fallback
	}
	r, g, b := c.LinearRgb()
	return [3]float32{float32(r), float32(g), float32(b)}
}

// FovRadians returns the vertical field of view in radians.
func (c CameraConfig) FovRadians() float32 {
	return mgl32.DegToRad(c.Fov)
}

// PositionVec returns the light position as a vector.
func (l LightConfig) PositionVec() mgl32.Vec3 {
	return mgl32.Vec3(l.Position)
}

// GravityVec returns the configured gravity as a vector.
func (p PhysicsConfig) GravityVec() mgl32.Vec3 {
	return mgl32.Vec3(p.Gravity)
}

// Viewports returns the eye viewports for a framebuffer of the given size. When HMD is
// enabled without explicit eyes, the framebuffer is split into left and right halves.
// A disabled HMD returns nil, which renders one full-screen view.
//
// Parameters:
//   - width: the framebuffer width in pixels
//   - height: the framebuffer height in pixels
//
// Returns:
//   - []common.Rect: the viewports, or nil
func (h HMDConfig) Viewports(width, height int) []common.Rect {
	if !h.Enabled {
		return nil
	}
	if len(h.Eyes) == 0 {
		half := float32(width) / 2
		return []common.Rect{
			{X: 0, Y: 0, W: half, H: float32(height)},
			{X: half, Y: 0, W: half, H: float32(height)},
		}
	}
	rects := make([]common.Rect, len(h.Eyes))
	for i, e := range h.Eyes {
		rects[i] = common.Rect{X: e.X, Y: e.Y, W: e.Width, H: e.Height}
	}
	return rects
}
