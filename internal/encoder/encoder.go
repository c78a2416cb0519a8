// Package encoder turns a sequence of still frames into an animated artifact.
package encoder

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/interp"
)

// Options configures an encoder before the first frame.
type Options struct {
	Width, Height int
	LoopCount     config.LoopCount
	Quality       int // 1 best .. 30 fastest
	Workers       int
	Background    string
	Transparent   string
	Dither        string
}

// OptionsFrom copies the encoder knobs out of an output configuration.
func OptionsFrom(o config.Output) Options {
	return Options{
		Width:       o.Width,
		Height:      o.Height,
		LoopCount:   o.LoopCount,
		Quality:     o.Quality,
		Workers:     o.Workers,
		Background:  o.Background,
		Transparent: o.Transparent,
		Dither:      o.Dither,
	}
}

// Artifact is a finished render.
type Artifact struct {
	Data        []byte
	ContentType string
}

// Ext returns the file extension matching the artifact's content type.
func (a *Artifact) Ext() string {
	return ExtensionFor(a.ContentType)
}

// SequenceEncoder receives frames in order and produces one artifact.
// Configure must be called first. After Finalize or Abort the encoder is
// spent; Configure resets it for another run.
type SequenceEncoder interface {
	Configure(opts Options) error
	AddFrame(img image.Image, delay time.Duration) error
	Finalize(ctx context.Context) (*Artifact, error)
	Abort()
}

// Factory creates the encoder for an upper-case render mode.
type Factory func(mode string) (SequenceEncoder, error)

// New is the default Factory: GIF natively, MP4 and WEBM through ffmpeg.
func New(mode string) (SequenceEncoder, error) {
	switch strings.ToUpper(mode) {
	case "GIF":
		return NewGIF(), nil
	case "MP4":
		return NewFFmpeg("mp4"), nil
	case "WEBM":
		return NewFFmpeg("webm"), nil
	}
	return nil, fmt.Errorf("no sequence encoder for mode %q", mode)
}

var contentTypes = map[string]string{
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".html": "text/html; charset=utf-8",
}

// ContentTypeFor maps a file extension (with or without dot) or file name
// to its content type.
func ContentTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = "." + strings.TrimPrefix(strings.ToLower(name), ".")
	}
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ExtensionFor maps a content type back to a file extension with its dot.
func ExtensionFor(contentType string) string {
	switch contentType {
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	case "video/mp4":
		return ".mp4"
	case "video/webm":
		return ".webm"
	}
	return ".bin"
}

// flatten converts img to a width x height RGBA frame composited over bg.
// Frames of a different size are scaled.
func flatten(img image.Image, width, height int, bg *color.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if bg != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(*bg), image.Point{}, draw.Src)
	}
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	} else {
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	}
	return dst
}

func parseOptionalColor(name, s string) (*color.RGBA, error) {
	if s == "" {
		return nil, nil
	}
	c, ok := interp.ParseColor(s)
	if !ok {
		return nil, fmt.Errorf("invalid %s color %q", name, s)
	}
	r, g, b := c.Clamped().RGB255()
	return &color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
