package postprocess

import (
	"fmt"

	"github.com/Carmen-Shannon/dreamscape/engine/logger"
	"go.uber.org/zap"
)

const (
	// MinBloomLevels is the smallest pyramid: the scene level plus one blurred level.
	MinBloomLevels = 2
	// MaxBloomLevels bounds the pyramid depth.
	MaxBloomLevels = 8
)

// PassKind distinguishes the two bloom passes.
type PassKind int

const (
	// PassDownsample filters level Source into the half-size level Dest, replacing its contents.
	PassDownsample PassKind = iota
	// PassUpsample filters level Source into the double-size level Dest, adding to its contents.
	PassUpsample
)

func (k PassKind) String() string {
	switch k {
	case PassDownsample:
		return "downsample"
	case PassUpsample:
		return "upsample"
	default:
		return fmt.Sprintf("PassKind(%d)", int(k))
	}
}

// BloomPass is one full-screen pass between two pyramid levels.
type BloomPass struct {
	Kind   PassKind
	Source int
	Dest   int
}

// PlanBloom lists the passes for a pyramid of the given number of levels, level 0 being the
// full-resolution scene. Every level is downsampled into the next; then each level from the
// bottom up to level 2 is added into the level above it. Level 0 is never written, so level 1
// ends up holding the accumulated blur.
//
// Parameters:
//   - levels: pyramid depth including level 0
//
// Returns:
//   - []BloomPass: the passes in execution order, empty for fewer than MinBloomLevels levels
func PlanBloom(levels int) []BloomPass {
	if levels < MinBloomLevels {
		return nil
	}
	passes := make([]BloomPass, 0, 2*levels-3)
	for i := 0; i < levels-1; i++ {
		passes = append(passes, BloomPass{Kind: PassDownsample, Source: i, Dest: i + 1})
	}
	for i := levels - 1; i >= 2; i-- {
		passes = append(passes, BloomPass{Kind: PassUpsample, Source: i, Dest: i - 1})
	}
	return passes
}

// LevelSize returns the size of a pyramid level: the base size halved per level, at least 1.
func LevelSize(width, height uint32, level int) (uint32, uint32) {
	return max(width>>level, 1), max(height>>level, 1)
}

// ClampLevels bounds a configured level count to [MinBloomLevels, MaxBloomLevels].
func ClampLevels(levels int) int {
	return min(max(levels, MinBloomLevels), MaxBloomLevels)
}

// Pyramid holds bloom levels 1..n-1. Level 0 is the scene color target and is not owned here.
type Pyramid struct {
	factory TargetFactory
	levels  int
	targets []Target
	width   uint32
	height  uint32
}

// NewPyramid creates an empty pyramid; the textures are created by the first Resize.
//
// Parameters:
//   - factory: creates the level textures
//   - levels: pyramid depth including level 0, clamped with ClampLevels
//
// Returns:
//   - *Pyramid: the pyramid
func NewPyramid(factory TargetFactory, levels int) *Pyramid {
	return &Pyramid{factory: factory, levels: ClampLevels(levels)}
}

// Levels returns the pyramid depth including level 0.
func (p *Pyramid) Levels() int {
	return p.levels
}

// Resize recreates the owned levels when the base size differs from the current one.
//
// Parameters:
//   - width, height: the size of level 0
//
// Returns:
//   - bool: true if the levels were recreated
//   - error: an error if a level cannot be created
func (p *Pyramid) Resize(width, height uint32) (bool, error) {
	width, height = max(width, 1), max(height, 1)
	if p.targets != nil && p.width == width && p.height == height {
		return false, nil
	}
	p.Release()

	targets := make([]Target, 0, p.levels-1)
	for level := 1; level < p.levels; level++ {
		w, h := LevelSize(width, height, level)
		t, err := p.factory.CreateTarget(fmt.Sprintf("bloom level %d", level), w, h, HDRFormat)
		if err != nil {
			for _, created := range targets {
				created.Release()
			}
			return false, fmt.Errorf("bloom level %d: %w", level, err)
		}
		targets = append(targets, t)
	}
	p.targets = targets
	p.width, p.height = width, height
	logger.Log.Debug("bloom pyramid resized", zap.Uint32("width", width), zap.Uint32("height", height), zap.Int("levels", p.levels))
	return true, nil
}

// Level returns the target of an owned level (1..Levels()-1), nil otherwise.
func (p *Pyramid) Level(level int) Target {
	if level < 1 || level > len(p.targets) {
		return nil
	}
	return p.targets[level-1]
}

// Release frees all owned levels.
func (p *Pyramid) Release() {
	for _, t := range p.targets {
		t.Release()
	}
	p.targets = nil
}
