package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 120, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestToWebPShrinksLongestSide(t *testing.T) {
	out, err := ToWebP(pngBytes(t, 800, 400), 200)
	require.NoError(t, err)

	mt, err := Detect(out)
	require.NoError(t, err)
	assert.Equal(t, ContentType, mt)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 100, cfg.Height)
}

func TestToWebPKeepsSmallImages(t *testing.T) {
	out, err := ToWebP(pngBytes(t, 40, 60), 512)
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 60, cfg.Height)
}

func TestToWebPRejectsNonImages(t *testing.T) {
	_, err := ToWebP([]byte("id,name\n1,Ana\n"), 100)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFitPortrait(t *testing.T) {
	img := Fit(image.NewRGBA(image.Rect(0, 0, 300, 900)), 300)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}
