package scene

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Texture holds CPU-side RGBA8 pixel data.
// GLID is set by the OpenGL backend after upload.
type Texture struct {
	Name   string
	Width  int
	Height int
	// 4 bytes per pixel, row-major, top-to-bottom.
	Pixels []byte
	// SRGB marks colour data (base colour, emissive) as opposed to linear data.
	SRGB bool
	GLID uint32
}

// DecodeTexture decodes a PNG, JPEG, WebP, BMP or TIFF stream into RGBA8.
func DecodeTexture(name string, r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode texture %q: %w", name, err)
	}
	return textureFromImage(name, img), nil
}

func textureFromImage(name string, img image.Image) *Texture {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*bounds.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &Texture{
		Name:   name,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Pixels: rgba.Pix,
	}
}

func NewSolidTexture(name string, r, g, b, a uint8) *Texture {
	return &Texture{
		Name:   name,
		Width:  1,
		Height: 1,
		Pixels: []byte{r, g, b, a},
	}
}

// HDRTexture holds linear float RGB pixels (3 floats per pixel, top-to-bottom).
type HDRTexture struct {
	Name   string
	Width  int
	Height int
	Pixels []float32
	GLID   uint32
}

// At returns the linear colour at (x, y).
func (t *HDRTexture) At(x, y int) (r, g, b float32) {
	i := (y*t.Width + x) * 3
	return t.Pixels[i], t.Pixels[i+1], t.Pixels[i+2]
}

type Mapping int

const (
	MappingUV Mapping = iota
	MappingEquirectangularReflection
)

func (m Mapping) String() string {
	switch m {
	case MappingEquirectangularReflection:
		return "equirectangular-reflection"
	default:
		return "uv"
	}
}

// EnvironmentMap is an equirectangular HDR image used as background and light source.
type EnvironmentMap struct {
	Texture *HDRTexture
	Mapping Mapping
}
