package player

import (
	"errors"
	"slices"
	"sort"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/camera"
	"github.com/Carmen-Shannon/dreamscape/engine/transform"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HeadSample is one recorded head pose, Time seconds into the recording.
type HeadSample struct {
	Time     float32
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// HeadTrack plays back a recorded head motion, looping after the last sample.
type HeadTrack struct {
	samples []HeadSample
}

// NewHeadTrack orders samples by time and normalizes their rotations.
//
// Parameters:
//   - samples: the recorded poses, in any order
//
// Returns:
//   - *HeadTrack: the track
//   - error: an error if samples is empty
func NewHeadTrack(samples []HeadSample) (*HeadTrack, error) {
	if len(samples) == 0 {
		return nil, errors.New("head track has no samples")
	}
	sorted := slices.Clone(samples)
	slices.SortStableFunc(sorted, func(a, b HeadSample) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	for i := range sorted {
		sorted[i].Rotation = sorted[i].Rotation.Normalize()
	}
	return &HeadTrack{samples: sorted}, nil
}

// Duration is the time of the last sample.
func (h *HeadTrack) Duration() float32 {
	return h.samples[len(h.samples)-1].Time
}

// Pose returns the head pose at t seconds. Positions are interpolated linearly and rotations
// spherically between the neighbouring samples; t wraps around Duration.
//
// Parameters:
//   - t: playback time in seconds
//
// Returns:
//   - mgl32.Vec3: the head position
//   - mgl32.Quat: the head rotation
func (h *HeadTrack) Pose(t float32) (mgl32.Vec3, mgl32.Quat) {
	first := h.samples[0]
	d := h.Duration()
	if len(h.samples) == 1 || d <= 0 {
		return first.Position, first.Rotation
	}
	t = math32.Mod(t, d)
	if t < 0 {
		t += d
	}

	next := sort.Search(len(h.samples), func(i int) bool { return h.samples[i].Time > t })
	if next == 0 {
		return first.Position, first.Rotation
	}
	if next == len(h.samples) {
		last := h.samples[next-1]
		return last.Position, last.Rotation
	}
	a, b := h.samples[next-1], h.samples[next]
	f := (t - a.Time) / (b.Time - a.Time)
	return a.Position.Add(b.Position.Sub(a.Position).Mul(f)), mgl32.QuatSlerp(a.Rotation, b.Rotation, f)
}

// StereoView builds the view override for a head pose: the head pose itself plus one eye per
// viewport, spaced separation apart along the head's right axis.
//
// Parameters:
//   - cam: supplies the eye projections
//   - pos: the head position
//   - rot: the head rotation
//   - viewports: one rectangle per eye
//   - separation: distance between neighbouring eyes
//
// Returns:
//   - ViewOverride: the pose to hand to the scene's view source
func StereoView(cam *camera.Camera, pos mgl32.Vec3, rot mgl32.Quat, viewports []common.Rect, separation float32) ViewOverride {
	head := transform.New(pos, rot, mgl32.Vec3{1, 1, 1})
	return ViewOverride{
		Position:   pos,
		Rotation:   rot,
		Projection: cam.EyeProjection(0),
		Eyes:       cam.Eyes(&head, viewports, separation),
	}
}
