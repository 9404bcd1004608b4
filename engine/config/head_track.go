package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Carmen-Shannon/dreamscape/engine/player"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
)

// HeadSampleConfig is one recorded head pose. Rotation is a quaternion in w, x, y, z order.
type HeadSampleConfig struct {
	Time     float32    `toml:"time"`
	Position [3]float32 `toml:"position"`
	Rotation [4]float32 `toml:"rotation"`
}

type headTrackFile struct {
	Samples []HeadSampleConfig `toml:"samples"`
}

// LoadHeadTrack reads a recorded head motion: a TOML document of [[samples]] tables.
//
// Parameters:
//   - path: the track file
//
// Returns:
//   - *player.HeadTrack: the track, ready for playback
//   - error: an error if the file cannot be read, has unknown keys or holds no samples
func LoadHeadTrack(path string) (*player.HeadTrack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read head track %q: %w", path, err)
	}
	track, err := DecodeHeadTrack(data)
	if err != nil {
		return nil, fmt.Errorf("head track %q: %w", path, err)
	}
	return track, nil
}

// DecodeHeadTrack parses a head track document.
func DecodeHeadTrack(data []byte) (*player.HeadTrack, error) {
	var f headTrackFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	samples := make([]player.HeadSample, len(f.Samples))
	for i, s := range f.Samples {
		if s.Time < 0 {
			return nil, fmt.Errorf("samples[%d].time must not be negative", i)
		}
		samples[i] = player.HeadSample{
			Time:     s.Time,
			Position: mgl32.Vec3(s.Position),
			Rotation: mgl32.Quat{W: s.Rotation[0], V: mgl32.Vec3{s.Rotation[1], s.Rotation[2], s.Rotation[3]}},
		}
	}
	return player.NewHeadTrack(samples)
}
