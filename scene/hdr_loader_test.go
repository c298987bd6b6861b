package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// radianceFile returns a flat (non run-length encoded) RGBE image.
func radianceFile(width, height int, pixel [4]byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\n\n")
	fmt.Fprintf(&buf, "-Y %d +X %d\n", height, width)
	for i := 0; i < width*height; i++ {
		buf.Write(pixel[:])
	}
	return buf.Bytes()
}

func TestDecodeHDR(t *testing.T) {
	// mantissas 128/64/32 with exponent 129 decode to roughly 1, 0.5, 0.25
	data := radianceFile(2, 1, [4]byte{128, 64, 32, 129})

	tex, err := DecodeHDR("sky.hdr", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, tex.Width)
	assert.Equal(t, 1, tex.Height)
	require.Len(t, tex.Pixels, 6)

	r, g, b := tex.At(1, 0)
	assert.InDelta(t, 1.0, r, 0.02)
	assert.InDelta(t, 0.5, g, 0.02)
	assert.InDelta(t, 0.25, b, 0.02)
}

func TestDecodeHDRAcceptsLDRImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, G: 0, B: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	tex, err := DecodeHDR("ldr.png", &buf)
	require.NoError(t, err)
	r, g, b := tex.At(0, 0)
	assert.InDelta(t, 1.0, r, 1e-6)
	assert.InDelta(t, 0.0, g, 1e-6)
	assert.InDelta(t, 1.0, b, 1e-6)
}

func TestDecodeHDRRejectsGarbage(t *testing.T) {
	_, err := DecodeHDR("junk.hdr", bytes.NewReader([]byte("not an image")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "junk.hdr")
}

func TestNewEquirectEnvironment(t *testing.T) {
	env := NewEquirectEnvironment(&HDRTexture{Name: "sky"})
	assert.Equal(t, MappingEquirectangularReflection, env.Mapping)
	assert.Equal(t, "equirectangular-reflection", env.Mapping.String())
}
