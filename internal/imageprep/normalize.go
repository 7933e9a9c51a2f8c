// Package imageprep fits uploaded photos into the fixed canvas sizes of the
// supported aspect ratios before they are sent for editing.
package imageprep

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"ai-thumbnail-pro/internal/thumb"
)

const (
	DefaultQuality = 90
	outputMimeType = "image/jpeg"
)

type Options struct {
	// Quality is the JPEG quality of the re-encoded canvas (1-100).
	Quality int
	Logger  *zerolog.Logger
}

type Normalizer struct {
	quality int
	logger  zerolog.Logger
}

func New(opts Options) *Normalizer {
	quality := opts.Quality
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Normalizer{
		quality: quality,
		logger:  logger,
	}
}

// Normalize scales src to fit inside the canvas for ratio, centers it and
// fills the rest with white. The source is never cropped or stretched.
func (n *Normalizer) Normalize(src thumb.SourceImage, ratio thumb.AspectRatio) (thumb.NormalizedImage, error) {
	width, height, err := ratio.Dimensions()
	if err != nil {
		return thumb.NormalizedImage{}, err
	}

	img, err := imaging.Decode(bytes.NewReader(src.Data), imaging.AutoOrientation(true))
	if err != nil {
		return thumb.NormalizedImage{}, fmt.Errorf("%w: %s: %v", thumb.ErrImageDecode, src.FileName, err)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return thumb.NormalizedImage{}, fmt.Errorf("%w: %s: empty image", thumb.ErrImageDecode, src.FileName)
	}

	canvas := imaging.New(width, height, color.White)
	if canvas.Bounds().Dx() != width || canvas.Bounds().Dy() != height {
		return thumb.NormalizedImage{}, fmt.Errorf("%w: %dx%d", thumb.ErrCanvasAllocation, width, height)
	}

	dst := FitRect(bounds.Dx(), bounds.Dy(), width, height)
	draw.CatmullRom.Scale(canvas, dst, img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(n.quality)); err != nil {
		return thumb.NormalizedImage{}, fmt.Errorf("encode %s: %w", src.FileName, err)
	}

	n.logger.Debug().
		Str("file", src.FileName).
		Int("src_w", bounds.Dx()).
		Int("src_h", bounds.Dy()).
		Str("ratio", ratio.String()).
		Int("draw_w", dst.Dx()).
		Int("draw_h", dst.Dy()).
		Int("bytes", buf.Len()).
		Msg("image normalized")

	return thumb.NormalizedImage{
		FileName: src.FileName,
		MimeType: outputMimeType,
		Width:    width,
		Height:   height,
		Data:     buf.Bytes(),
	}, nil
}

// NormalizeAll normalizes every source concurrently. The result order matches
// sources, and any failure fails the whole batch.
func (n *Normalizer) NormalizeAll(ctx context.Context, sources []thumb.SourceImage, ratio thumb.AspectRatio) ([]thumb.NormalizedImage, error) {
	if !ratio.Valid() {
		return nil, fmt.Errorf("%w: %q", thumb.ErrUnsupportedRatio, string(ratio))
	}

	out := make([]thumb.NormalizedImage, len(sources))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, src := range sources {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			normalized, err := n.Normalize(src, ratio)
			if err != nil {
				return err
			}
			out[i] = normalized
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// FitRect returns where a srcW x srcH image lands on a dstW x dstH canvas when
// scaled to fit and centered.
func FitRect(srcW, srcH, dstW, dstH int) image.Rectangle {
	imgRatio := float64(srcW) / float64(srcH)
	targetRatio := float64(dstW) / float64(dstH)

	var drawW, drawH float64
	if imgRatio > targetRatio {
		drawW = float64(dstW)
		drawH = float64(dstW) / imgRatio
	} else {
		drawH = float64(dstH)
		drawW = float64(dstH) * imgRatio
	}

	w := clamp(int(math.Round(drawW)), 1, dstW)
	h := clamp(int(math.Round(drawH)), 1, dstH)
	x := (dstW - w) / 2
	y := (dstH - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
