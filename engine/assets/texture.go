package assets

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/Carmen-Shannon/dreamscape/common"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Fallback pixels used when a model has no texture of a given role.
var (
	WhitePixel      = [4]byte{255, 255, 255, 255}
	FlatNormalPixel = [4]byte{128, 128, 255, 255}
)

// CubeFaceCount is the number of faces of a cube texture, in +X, -X, +Y, -Y, +Z, -Z order.
const CubeFaceCount = 6

// DecodeTexture decodes PNG, JPEG, BMP or WebP bytes into RGBA8 staging data.
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - common.TextureStagingData: the decoded 2D texture
//   - error: error if the format is unknown or the data is corrupt
func DecodeTexture(data []byte) (common.TextureStagingData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to decode image: %w", err)
	}
	rgba := toRGBA(img)
	return common.TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(rgba.Rect.Dx()),
		Height: uint32(rgba.Rect.Dy()),
		Layers: 1,
	}, nil
}

// LoadTexture reads and decodes an image file.
func LoadTexture(path string) (common.TextureStagingData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	tex, err := DecodeTexture(data)
	if err != nil {
		return common.TextureStagingData{}, fmt.Errorf("%s: %w", path, err)
	}
	return tex, nil
}

// SolidTexture returns a 1x1 texture of the given RGBA pixel.
func SolidTexture(pixel [4]byte) common.TextureStagingData {
	return common.TextureStagingData{Pixels: append([]byte(nil), pixel[:]...), Width: 1, Height: 1, Layers: 1}
}

// CubeTexture stacks six decoded faces into one cube texture. Faces whose size differs from the
// first face are resampled bilinearly to match.
//
// Parameters:
//   - faces: the six faces in +X, -X, +Y, -Y, +Z, -Z order
//
// Returns:
//   - common.TextureStagingData: the cube texture with Layers set to 6
//   - error: error if the face count is wrong or a face is empty
func CubeTexture(faces []common.TextureStagingData) (common.TextureStagingData, error) {
	if len(faces) != CubeFaceCount {
		return common.TextureStagingData{}, fmt.Errorf("cube texture needs %d faces, got %d", CubeFaceCount, len(faces))
	}
	w, h := faces[0].Width, faces[0].Height
	if w == 0 || h == 0 {
		return common.TextureStagingData{}, fmt.Errorf("cube face 0 is empty")
	}
	faceBytes := int(w * h * 4)
	out := common.TextureStagingData{
		Pixels: make([]byte, 0, faceBytes*CubeFaceCount),
		Width:  w,
		Height: h,
		Layers: CubeFaceCount,
	}
	for i, f := range faces {
		if f.Width == 0 || f.Height == 0 || len(f.Pixels) < int(f.Width*f.Height*4) {
			return common.TextureStagingData{}, fmt.Errorf("cube face %d is empty or truncated", i)
		}
		if f.Width != w || f.Height != h {
			f = Resize(f, w, h)
		}
		out.Pixels = append(out.Pixels, f.Pixels[:faceBytes]...)
	}
	return out, nil
}

// LoadCubeTexture reads six face images and stacks them into a cube texture.
func LoadCubeTexture(paths [CubeFaceCount]string) (common.TextureStagingData, error) {
	faces := make([]common.TextureStagingData, CubeFaceCount)
	for i, p := range paths {
		f, err := LoadTexture(p)
		if err != nil {
			return common.TextureStagingData{}, err
		}
		faces[i] = f
	}
	return CubeTexture(faces)
}

// Resize resamples a 2D texture to the given size with bilinear filtering.
func Resize(tex common.TextureStagingData, width, height uint32) common.TextureStagingData {
	src := &image.RGBA{
		Pix:    tex.Pixels,
		Stride: int(tex.Width) * 4,
		Rect:   image.Rect(0, 0, int(tex.Width), int(tex.Height)),
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return common.TextureStagingData{Pixels: dst.Pix, Width: width, Height: height, Layers: 1}
}

// CheckerTexture returns a size x size two-color checkerboard with square cells of the given size.
func CheckerTexture(size, cell int, a, b color.RGBA) common.TextureStagingData {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			img.SetRGBA(x, y, c)
		}
	}
	return common.TextureStagingData{Pixels: img.Pix, Width: uint32(size), Height: uint32(size), Layers: 1}
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == rgba.Rect.Dx()*4 {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
