// Package thumbnail turns stored media into JPEG previews. The Worker
// consumes thumbnail jobs from the queue; Extractors do the format-specific
// rendering from a local source file to a local JPEG.
package thumbnail

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Bounding box and quality shared by every extractor.
const (
	MaxWidth    = 600
	MaxHeight   = 800
	JPEGQuality = 85
)

type Extractor interface {
	// Extract renders src into a JPEG at dst.
	Extract(ctx context.Context, src, dst string) error
}

// CommandRunner executes an external tool and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Registry maps a job's type string to its extractor. Types without an
// entry are skipped by the worker.
type Registry map[string]Extractor

// DefaultRegistry wires the image, video and PDF extractors. A nil runner
// uses os/exec.
func DefaultRegistry(runner CommandRunner) Registry {
	if runner == nil {
		runner = execRunner
	}
	img := NewImageExtractor()
	video := &VideoExtractor{run: runner, binary: "ffmpeg"}
	pdf := &PDFExtractor{run: runner, binary: "gs"}

	return Registry{
		"jpg":   img,
		"png":   img,
		"webp":  img,
		"image": img,
		"mp4":   video,
		"mp3":   video,
		"video": video,
		"pdf":   pdf,
	}
}

// Lookup is case-insensitive.
func (r Registry) Lookup(mediaType string) (Extractor, bool) {
	e, ok := r[strings.ToLower(mediaType)]
	return e, ok
}

func runTool(ctx context.Context, run CommandRunner, dst, name string, args ...string) error {
	out, err := run(ctx, name, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s timed out: %w", name, ctxErr)
		}
		return fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	if _, err := os.Stat(dst); err != nil {
		return fmt.Errorf("%s produced no output: %w", name, err)
	}
	return nil
}
