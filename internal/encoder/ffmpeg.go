package encoder

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ivlev/svgmotion/internal/system"
)

// FFmpeg streams raw RGBA frames into an ffmpeg process and returns the
// encoded video. The process starts with the first frame, whose delay sets
// the frame rate.
type FFmpeg struct {
	Format string // "mp4" or "webm"

	opts    Options
	bg      *color.RGBA
	binary  string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stderr  bytes.Buffer
	tmpDir  string
	outPath string
	frames  int
	cancel  context.CancelFunc
}

// NewFFmpeg returns an encoder producing the given container format.
func NewFFmpeg(format string) *FFmpeg {
	return &FFmpeg{Format: format}
}

// Configure implements SequenceEncoder. Video has no alpha channel, so frames
// are always composited over the background, white when unset.
func (e *FFmpeg) Configure(opts Options) error {
	e.Abort()
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("ffmpeg: invalid size %dx%d", opts.Width, opts.Height)
	}
	bg, err := parseOptionalColor("background", opts.Background)
	if err != nil {
		return fmt.Errorf("ffmpeg: %w", err)
	}
	if bg == nil {
		bg = &color.RGBA{255, 255, 255, 255}
	}
	binary, err := system.FFmpegPath()
	if err != nil {
		return err
	}
	*e = FFmpeg{Format: e.Format, opts: opts, bg: bg, binary: binary}
	return nil
}

// AddFrame implements SequenceEncoder.
func (e *FFmpeg) AddFrame(img image.Image, delay time.Duration) error {
	if e.binary == "" {
		return errNotConfigured
	}
	if e.cmd == nil {
		if err := e.start(delay); err != nil {
			return err
		}
	}
	frame := flatten(img, e.opts.Width, e.opts.Height, e.bg)
	if _, err := e.stdin.Write(frame.Pix); err != nil {
		return fmt.Errorf("write raw error: %w (%s)", err, lastLine(e.stderr.String()))
	}
	e.frames++
	return nil
}

func (e *FFmpeg) start(delay time.Duration) error {
	if delay <= 0 {
		delay = time.Second / 30
	}
	tmpDir, err := os.MkdirTemp("", "svgmotion-ffmpeg-*")
	if err != nil {
		return err
	}
	e.tmpDir = tmpDir
	e.outPath = filepath.Join(tmpDir, "out."+e.Format)

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.cmd = exec.CommandContext(ctx, e.binary, e.buildArgs(float64(time.Second)/float64(delay))...)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		e.Abort()
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	e.stdin = stdin
	if err := e.cmd.Start(); err != nil {
		e.Abort()
		return fmt.Errorf("ffmpeg start error: %w", err)
	}
	return nil
}

func (e *FFmpeg) buildArgs(fps float64) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height),
		"-framerate", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "-",
		"-pix_fmt", "yuv420p",
	}
	// quality 1..30 maps onto CRF 16..45
	crf := strconv.Itoa(15 + e.opts.Quality)
	switch e.Format {
	case "webm":
		args = append(args, "-c:v", "libvpx-vp9", "-b:v", "0", "-crf", crf)
	default:
		args = append(args, "-c:v", "libx264", "-crf", crf, "-preset", "medium", "-movflags", "+faststart")
	}
	if e.opts.Workers > 0 {
		args = append(args, "-threads", strconv.Itoa(e.opts.Workers))
	}
	return append(args, e.outPath)
}

// Finalize implements SequenceEncoder.
func (e *FFmpeg) Finalize(ctx context.Context) (*Artifact, error) {
	defer e.Abort()
	if e.cmd == nil {
		return nil, fmt.Errorf("ffmpeg: no frames")
	}
	e.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("ffmpeg wait error: %w (%s)", err, lastLine(e.stderr.String()))
		}
	case <-ctx.Done():
		e.cancel()
		<-done
		return nil, ctx.Err()
	}

	data, err := os.ReadFile(e.outPath)
	if err != nil {
		return nil, err
	}
	return &Artifact{Data: data, ContentType: ContentTypeFor(e.Format)}, nil
}

// Abort implements SequenceEncoder. A running process is killed and its
// temporary files removed.
func (e *FFmpeg) Abort() {
	if e.cmd != nil && e.cmd.ProcessState == nil {
		if e.stdin != nil {
			e.stdin.Close()
		}
		e.cancel()
		e.cmd.Wait()
	} else if e.cancel != nil {
		e.cancel()
	}
	if e.tmpDir != "" {
		os.RemoveAll(e.tmpDir)
	}
	e.cmd, e.stdin, e.cancel, e.tmpDir, e.outPath = nil, nil, nil, "", ""
	e.binary = ""
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
