package scene

import (
	"fmt"
	"image"
	"io"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"
)

// DecodeHDR decodes a Radiance RGBE (.hdr) stream into linear float pixels.
// Other registered image formats are accepted and treated as linear 0..1 data.
func DecodeHDR(name string, r io.Reader) (*HDRTexture, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode hdr %q: %w", name, err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("decode hdr %q: empty %s image", name, format)
	}

	tex := &HDRTexture{
		Name:   name,
		Width:  w,
		Height: h,
		Pixels: make([]float32, w*h*3),
	}
	hdrImg, isHDR := img.(hdr.Image)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if isHDR {
				r, g, b, _ := hdrImg.HDRAt(x, y).HDRRGBA()
				tex.Pixels[i], tex.Pixels[i+1], tex.Pixels[i+2] = float32(r), float32(g), float32(b)
			} else {
				r, g, b, _ := img.At(x, y).RGBA()
				tex.Pixels[i], tex.Pixels[i+1], tex.Pixels[i+2] = float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff
			}
			i += 3
		}
	}
	return tex, nil
}

// NewEquirectEnvironment tags an HDR texture for equirectangular reflection mapping.
func NewEquirectEnvironment(tex *HDRTexture) *EnvironmentMap {
	return &EnvironmentMap{Texture: tex, Mapping: MappingEquirectangularReflection}
}
