package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
)

// MaxSourcePixels caps the decoded size of a source image.
const MaxSourcePixels = 50_000_000

var ErrImageTooLarge = errors.New("image exceeds pixel limit")

type ImageExtractor struct {
	width     int
	height    int
	quality   int
	maxPixels int
}

func NewImageExtractor() *ImageExtractor {
	return &ImageExtractor{width: MaxWidth, height: MaxHeight, quality: JPEGQuality, maxPixels: MaxSourcePixels}
}

// Extract scales the image down to fit the bounding box, keeping its aspect
// ratio. Transparent regions are flattened onto white. The render runs off
// the caller's goroutine so a deadline is honoured mid-decode.
func (e *ImageExtractor) Extract(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.checkSize(src); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- e.render(ctx, src, dst) }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
		return ctx.Err()
	case <-ctx.Done():
		return fmt.Errorf("image render aborted: %w", ctx.Err())
	}
}

func (e *ImageExtractor) checkSize(src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return fmt.Errorf("failed to read image header: %w", err)
	}
	if e.maxPixels > 0 && cfg.Width*cfg.Height > e.maxPixels {
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	return nil
}

func (e *ImageExtractor) render(ctx context.Context, src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	preview := imaging.Fit(img, e.width, e.height, imaging.Lanczos)
	bounds := preview.Bounds()
	canvas := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat := imaging.Overlay(canvas, preview, image.Pt(0, 0), 1.0)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := imaging.Save(flat, dst, imaging.JPEGQuality(e.quality)); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}
