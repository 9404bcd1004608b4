package assets

import (
	"image/color"

	"github.com/Carmen-Shannon/dreamscape/common"
	"github.com/Carmen-Shannon/dreamscape/engine/model"
)

// Names of the built-in models and textures registered by RegisterBuiltins.
const (
	ModelCube   = "cube"
	ModelSphere = "sphere"
	ModelQuad   = "quad"

	TextureWhite      = "white"
	TextureFlatNormal = "flat_normal"
	TextureChecker    = "checker"
	TextureSkybox     = "skybox"
)

// RegisterBuiltins registers procedural models and textures so a scene can run without asset files.
// The cube uses the checker texture; the sphere and quad use plain white.
//
// Parameters:
//   - s: the store to populate
func RegisterBuiltins(s Store) {
	s.RegisterTexture(TextureWhite, SolidTexture(WhitePixel))
	s.RegisterTexture(TextureFlatNormal, SolidTexture(FlatNormalPixel))
	s.RegisterTexture(TextureChecker, CheckerTexture(64, 8,
		color.RGBA{R: 200, G: 200, B: 200, A: 255},
		color.RGBA{R: 90, G: 90, B: 100, A: 255},
	))
	s.RegisterTexture(TextureSkybox, GradientSkybox(64,
		color.RGBA{R: 40, G: 80, B: 160, A: 255},
		color.RGBA{R: 170, G: 200, B: 235, A: 255},
		color.RGBA{R: 30, G: 30, B: 35, A: 255},
	))

	cv, ci := Cube()
	s.RegisterModel(model.NewModel(
		model.WithName(ModelCube),
		model.WithMesh(cv, ci),
		model.WithTextures(TextureChecker, TextureFlatNormal),
	))
	sv, si := UVSphere(1, 16, 24)
	s.RegisterModel(model.NewModel(
		model.WithName(ModelSphere),
		model.WithMesh(sv, si),
		model.WithTextures(TextureWhite, TextureFlatNormal),
	))
	qv, qi := Quad(1)
	s.RegisterModel(model.NewModel(
		model.WithName(ModelQuad),
		model.WithMesh(qv, qi),
		model.WithTextures(TextureWhite, TextureFlatNormal),
	))
}

// GradientSkybox builds a cube texture that fades from horizon to zenith on the side faces,
// with solid zenith and ground colors on +Y and -Y.
func GradientSkybox(size int, zenith, horizon, ground color.RGBA) common.TextureStagingData {
	faces := make([]common.TextureStagingData, CubeFaceCount)
	for f := range faces {
		px := make([]byte, size*size*4)
		for y := range size {
			var c color.RGBA
			switch f {
			case 2:
				c = zenith
			case 3:
				c = ground
			default:
				// row 0 is the top of a side face
				t := float32(y) / float32(size-1)
				c = lerpRGBA(zenith, horizon, t)
			}
			for x := range size {
				o := (y*size + x) * 4
				px[o], px[o+1], px[o+2], px[o+3] = c.R, c.G, c.B, c.A
			}
		}
		faces[f] = common.TextureStagingData{Pixels: px, Width: uint32(size), Height: uint32(size), Layers: 1}
	}
	tex, _ := CubeTexture(faces)
	return tex
}

func lerpRGBA(a, b color.RGBA, t float32) color.RGBA {
	l := func(x, y uint8) uint8 { return uint8(float32(x) + (float32(y)-float32(x))*t) }
	return color.RGBA{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}
