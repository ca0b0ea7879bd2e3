package thumbnail

import (
	"context"
	"fmt"
)

// VideoExtractor grabs the frame at one second with ffmpeg. Audio files
// with embedded cover art go through the same path.
type VideoExtractor struct {
	run    CommandRunner
	binary string
}

func (e *VideoExtractor) Extract(ctx context.Context, src, dst string) error {
	scale := fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", MaxWidth, MaxHeight)
	return runTool(ctx, e.run, dst, e.binary,
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", "00:00:01.000",
		"-i", src,
		"-frames:v", "1",
		"-vf", scale,
		"-q:v", "3",
		dst,
	)
}
