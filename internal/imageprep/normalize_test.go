package imageprep

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-thumbnail-pro/internal/thumb"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodeJPEG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func assertNear(t *testing.T, img image.Image, x, y int, want color.RGBA) {
	t.Helper()
	r, g, b, _ := img.At(x, y).RGBA()
	got := [3]int{int(r >> 8), int(g >> 8), int(b >> 8)}
	exp := [3]int{int(want.R), int(want.G), int(want.B)}
	for i := range got {
		assert.InDelta(t, exp[i], got[i], 12, "pixel (%d,%d) channel %d", x, y, i)
	}
}

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.RGBA{R: 255, A: 255}
)

func TestNormalizeProducesCanonicalDimensions(t *testing.T) {
	n := New(Options{})
	src := thumb.SourceImage{FileName: "cat.png", MimeType: "image/png", Data: solidPNG(t, 640, 480, red)}

	for _, ratio := range thumb.AspectRatios() {
		out, err := n.Normalize(src, ratio)
		require.NoError(t, err, ratio)

		wantW, wantH, _ := ratio.Dimensions()
		assert.Equal(t, wantW, out.Width, ratio)
		assert.Equal(t, wantH, out.Height, ratio)
		assert.Equal(t, "image/jpeg", out.MimeType)
		assert.Equal(t, "cat.png", out.FileName)

		cfg, err := jpeg.DecodeConfig(bytes.NewReader(out.Data))
		require.NoError(t, err)
		assert.Equal(t, wantW, cfg.Width, ratio)
		assert.Equal(t, wantH, cfg.Height, ratio)
	}
}

func TestNormalizeLetterboxesWithWhite(t *testing.T) {
	n := New(Options{})
	src := thumb.SourceImage{FileName: "square.png", Data: solidPNG(t, 1000, 1000, red)}

	out, err := n.Normalize(src, thumb.Ratio16x9)
	require.NoError(t, err)

	img := decodeJPEG(t, out.Data)
	// 1080x1080 foreground centered at x=420..1500.
	assertNear(t, img, 100, 540, white)
	assertNear(t, img, 1800, 540, white)
	assertNear(t, img, 960, 540, red)
	assertNear(t, img, 960, 20, red)
}

func TestNormalizeFlattensTransparencyOntoWhite(t *testing.T) {
	n := New(Options{})
	src := thumb.SourceImage{FileName: "clear.png", Data: solidPNG(t, 200, 200, color.NRGBA{})}

	out, err := n.Normalize(src, thumb.Ratio1x1)
	require.NoError(t, err)

	img := decodeJPEG(t, out.Data)
	assertNear(t, img, 540, 540, white)
}

func TestNormalizeIsIdempotentOnCanonicalImage(t *testing.T) {
	n := New(Options{})
	src := thumb.SourceImage{FileName: "wide.png", Data: solidPNG(t, 1600, 900, red)}

	first, err := n.Normalize(src, thumb.Ratio16x9)
	require.NoError(t, err)

	second, err := n.Normalize(thumb.SourceImage{FileName: "wide.jpg", Data: first.Data}, thumb.Ratio16x9)
	require.NoError(t, err)
	assert.Equal(t, first.Width, second.Width)
	assert.Equal(t, first.Height, second.Height)

	img := decodeJPEG(t, second.Data)
	assertNear(t, img, 5, 5, red)
	assertNear(t, img, 1914, 1074, red)
	assertNear(t, img, 960, 540, red)
}

func TestNormalizeErrors(t *testing.T) {
	n := New(Options{})

	_, err := n.Normalize(thumb.SourceImage{FileName: "x.png", Data: solidPNG(t, 10, 10, red)}, thumb.AspectRatio("21/9"))
	assert.ErrorIs(t, err, thumb.ErrUnsupportedRatio)

	_, err = n.Normalize(thumb.SourceImage{FileName: "broken.png", Data: []byte("not an image")}, thumb.Ratio16x9)
	assert.ErrorIs(t, err, thumb.ErrImageDecode)
}

func TestNormalizeAllKeepsOrderAndFailsBatch(t *testing.T) {
	n := New(Options{})
	sources := []thumb.SourceImage{
		{FileName: "a.png", Data: solidPNG(t, 300, 100, red)},
		{FileName: "b.png", Data: solidPNG(t, 100, 300, red)},
		{FileName: "c.png", Data: solidPNG(t, 50, 50, red)},
	}

	out, err := n.NormalizeAll(context.Background(), sources, thumb.Ratio9x16)
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, src := range sources {
		assert.Equal(t, src.FileName, out[i].FileName)
		assert.Equal(t, 1080, out[i].Width)
		assert.Equal(t, 1920, out[i].Height)
	}

	sources[1].Data = []byte{0x00, 0x01}
	out, err = n.NormalizeAll(context.Background(), sources, thumb.Ratio9x16)
	assert.ErrorIs(t, err, thumb.ErrImageDecode)
	assert.Nil(t, out)
}

func TestFitRectNeverCropsOrStretches(t *testing.T) {
	sizes := [][2]int{{640, 480}, {1920, 1080}, {1080, 1920}, {333, 777}, {5000, 10}, {10, 5000}, {1, 1}}

	for _, ratio := range thumb.AspectRatios() {
		dstW, dstH, _ := ratio.Dimensions()
		for _, s := range sizes {
			r := FitRect(s[0], s[1], dstW, dstH)

			assert.GreaterOrEqual(t, r.Min.X, 0)
			assert.GreaterOrEqual(t, r.Min.Y, 0)
			assert.LessOrEqual(t, r.Max.X, dstW)
			assert.LessOrEqual(t, r.Max.Y, dstH)
			assert.True(t, r.Dx() == dstW || r.Dy() == dstH, "one side must touch the canvas for %v", s)

			if r.Dx() > 1 && r.Dy() > 1 {
				srcRatio := float64(s[0]) / float64(s[1])
				gotRatio := float64(r.Dx()) / float64(r.Dy())
				// one pixel of rounding on the shorter side
				tol := srcRatio * (1/float64(min(r.Dx(), r.Dy())) + 1e-9)
				assert.LessOrEqual(t, math.Abs(gotRatio-srcRatio), tol, "ratio drift for %v into %s", s, ratio)
			}

			assert.InDelta(t, dstW-r.Max.X, r.Min.X, 1, "horizontal centering")
			assert.InDelta(t, dstH-r.Max.Y, r.Min.Y, 1, "vertical centering")
		}
	}
}
