package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	img.Set(0, 0, color.NRGBA{})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type recordedCall struct {
	name string
	args []string
}

// fakeRunner records invocations and, when write is set, creates the last
// argument's output file the way the real tools would.
type fakeRunner struct {
	calls  []recordedCall
	output string
	err    error
	write  func(args []string) string
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	if f.err != nil {
		return []byte(f.output), f.err
	}
	if f.write != nil {
		if path := f.write(args); path != "" {
			if err := os.WriteFile(path, []byte("jpeg"), 0o600); err != nil {
				return nil, err
			}
		}
	}
	return []byte(f.output), nil
}

func TestImageExtractor_FitsWithinBox(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	dst := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, os.WriteFile(src, pngBytes(t, 1200, 400), 0o600))

	require.NoError(t, NewImageExtractor().Extract(context.Background(), src, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 600, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestImageExtractor_SmallImageNotUpscaled(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	dst := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, os.WriteFile(src, pngBytes(t, 100, 50), 0o600))

	require.NoError(t, NewImageExtractor().Extract(context.Background(), src, dst))

	f, err := os.Open(dst)
	require.NoError(t, err)
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestImageExtractor_CorruptSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o600))

	err := NewImageExtractor().Extract(context.Background(), src, filepath.Join(dir, "thumb.jpg"))
	assert.ErrorContains(t, err, "failed to read image header")
}

func TestImageExtractor_RejectsOversizedSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	dst := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, os.WriteFile(src, pngBytes(t, 20, 20), 0o600))

	e := &ImageExtractor{width: MaxWidth, height: MaxHeight, quality: JPEGQuality, maxPixels: 100}
	err := e.Extract(context.Background(), src, dst)

	assert.ErrorIs(t, err, ErrImageTooLarge)
	assert.NoFileExists(t, dst)
}

func TestImageExtractor_HonoursDeadline(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source")
	dst := filepath.Join(dir, "thumb.jpg")
	require.NoError(t, os.WriteFile(src, pngBytes(t, 3000, 3000), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()

	start := time.Now()
	err := NewImageExtractor().Extract(ctx, src, dst)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
	assert.NoFileExists(t, dst)
}

func TestVideoExtractor_FrameAtOneSecond(t *testing.T) {
	r := &fakeRunner{write: func(args []string) string { return args[len(args)-1] }}
	e := &VideoExtractor{run: r.run, binary: "ffmpeg"}
	dst := filepath.Join(t.TempDir(), "thumb.jpg")

	require.NoError(t, e.Extract(context.Background(), "/scratch/source", dst))

	require.Len(t, r.calls, 1)
	assert.Equal(t, "ffmpeg", r.calls[0].name)
	args := r.calls[0].args
	assert.Subset(t, args, []string{"-ss", "00:00:01.000", "-i", "/scratch/source", "-frames:v", "1"})
	assert.Equal(t, dst, args[len(args)-1])
}

func TestVideoExtractor_NoOutputIsError(t *testing.T) {
	r := &fakeRunner{}
	e := &VideoExtractor{run: r.run, binary: "ffmpeg"}

	err := e.Extract(context.Background(), "src", filepath.Join(t.TempDir(), "thumb.jpg"))
	assert.ErrorContains(t, err, "ffmpeg produced no output")
}

func TestVideoExtractor_ToolFailureIncludesOutput(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1"), output: "moov atom not found\n"}
	e := &VideoExtractor{run: r.run, binary: "ffmpeg"}

	err := e.Extract(context.Background(), "src", filepath.Join(t.TempDir(), "thumb.jpg"))
	assert.EqualError(t, err, "ffmpeg failed: exit status 1: moov atom not found")
}

func TestVideoExtractor_Timeout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRunner{err: errors.New("signal: killed")}
	e := &VideoExtractor{run: r.run, binary: "ffmpeg"}

	err := e.Extract(ctx, "src", filepath.Join(t.TempDir(), "thumb.jpg"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFExtractor_FirstPageAt150DPI(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "thumb.jpg")
	r := &fakeRunner{write: func([]string) string { return dst }}
	e := &PDFExtractor{run: r.run, binary: "gs"}

	require.NoError(t, e.Extract(context.Background(), "/scratch/source", dst))

	require.Len(t, r.calls, 1)
	assert.Equal(t, "gs", r.calls[0].name)
	assert.Subset(t, r.calls[0].args, []string{
		"-dFirstPage=1", "-dLastPage=1", "-sDEVICE=jpeg", "-dJPEGQ=85", "-r150",
		"-dDEVICEWIDTHPOINTS=600", "-dDEVICEHEIGHTPOINTS=800", "-dPDFFitPage",
		"-sOutputFile=" + dst, "/scratch/source",
	})
}

func TestDefaultRegistry_Dispatch(t *testing.T) {
	r := DefaultRegistry(nil)

	for _, typ := range []string{"jpg", "PNG", "webp"} {
		e, ok := r.Lookup(typ)
		require.True(t, ok, typ)
		assert.IsType(t, &ImageExtractor{}, e)
	}
	e, ok := r.Lookup("mp4")
	require.True(t, ok)
	assert.IsType(t, &VideoExtractor{}, e)
	e, ok = r.Lookup("pdf")
	require.True(t, ok)
	assert.IsType(t, &PDFExtractor{}, e)

	for _, typ := range []string{"doc", "txt", "other", ""} {
		_, ok := r.Lookup(typ)
		assert.False(t, ok, typ)
	}
}
