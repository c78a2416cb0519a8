package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/svgmotion/internal/config"
)

var errNotConfigured = errors.New("encoder is not configured")

// GIF buffers frames and encodes an animated GIF on Finalize. Frames are
// quantized concurrently, each with its own median-cut palette.
type GIF struct {
	opts        Options
	bg          *color.RGBA
	transparent *color.RGBA
	frames      []*image.RGBA
	delays      []time.Duration
	configured  bool
}

// NewGIF returns an unconfigured GIF encoder.
func NewGIF() *GIF {
	return &GIF{}
}

// Configure implements SequenceEncoder. Without a transparent colour frames
// are composited over the background, white when unset.
func (g *GIF) Configure(opts Options) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("gif: invalid size %dx%d", opts.Width, opts.Height)
	}
	bg, err := parseOptionalColor("background", opts.Background)
	if err != nil {
		return fmt.Errorf("gif: %w", err)
	}
	tr, err := parseOptionalColor("transparent", opts.Transparent)
	if err != nil {
		return fmt.Errorf("gif: %w", err)
	}
	if bg == nil && tr == nil {
		bg = &color.RGBA{255, 255, 255, 255}
	}
	if opts.Quality < 1 {
		opts.Quality = 10
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	*g = GIF{opts: opts, bg: bg, transparent: tr, configured: true}
	return nil
}

// AddFrame implements SequenceEncoder.
func (g *GIF) AddFrame(img image.Image, delay time.Duration) error {
	if !g.configured {
		return errNotConfigured
	}
	if img == nil {
		return errors.New("gif: nil frame")
	}
	g.frames = append(g.frames, flatten(img, g.opts.Width, g.opts.Height, g.bg))
	g.delays = append(g.delays, delay)
	return nil
}

// Finalize implements SequenceEncoder.
func (g *GIF) Finalize(ctx context.Context) (*Artifact, error) {
	if !g.configured {
		return nil, errNotConfigured
	}
	defer g.Abort()
	if len(g.frames) == 0 {
		return nil, errors.New("gif: no frames")
	}

	q := quantizer{
		step:        g.opts.Quality,
		dither:      g.opts.Dither != config.DitherNone,
		transparent: g.transparent,
	}
	out := &gif.GIF{
		Image:     make([]*image.Paletted, len(g.frames)),
		Delay:     centiseconds(g.delays),
		Disposal:  make([]byte, len(g.frames)),
		LoopCount: gifLoopCount(g.opts.LoopCount),
		Config:    image.Config{Width: g.opts.Width, Height: g.opts.Height},
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)
	for i, frame := range g.frames {
		i, frame := i, frame
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out.Image[i] = q.quantize(frame)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if g.transparent != nil {
		for i := range out.Disposal {
			out.Disposal[i] = gif.DisposalBackground
		}
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("gif encode: %w", err)
	}
	return &Artifact{Data: buf.Bytes(), ContentType: "image/gif"}, nil
}

// Abort implements SequenceEncoder. Buffered frames are dropped.
func (g *GIF) Abort() {
	g.frames = nil
	g.delays = nil
	g.configured = false
}

// centiseconds converts delays to GIF units, carrying the rounding error
// forward so the total matches the sum of the inputs.
func centiseconds(delays []time.Duration) []int {
	out := make([]int, len(delays))
	var carry float64
	for i, d := range delays {
		exact := d.Seconds()*100 + carry
		cs := int(math.Round(exact))
		if cs < 0 {
			cs = 0
		}
		carry = exact - float64(cs)
		out[i] = cs
	}
	return out
}

// gifLoopCount maps repetitions onto the NETSCAPE extension: 0 loops
// forever and -1 omits the extension so the animation plays once.
func gifLoopCount(l config.LoopCount) int {
	switch {
	case l.IsInfinite():
		return 0
	case l == 0:
		return -1
	}
	return int(l)
}
