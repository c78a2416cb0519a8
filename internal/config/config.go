package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/svgmotion/internal/errs"
	"github.com/ivlev/svgmotion/internal/interp"
	"github.com/ivlev/svgmotion/internal/system"
)

// MaxFPS caps the frame rate of frame-sampled renders.
const MaxFPS = 60

// MaxPathQuality caps path morph subdivisions; each step multiplies the
// points generated per path per frame.
const MaxPathQuality = 64

// Dither modes.
const (
	DitherFloydSteinberg = "floyd-steinberg"
	DitherNone           = "none"
)

// LoopInfinite repeats the animation forever.
const LoopInfinite LoopCount = -1

// LoopCount is the number of extra repetitions after the first play, or
// LoopInfinite. It reads "infinite" or a non-negative integer from YAML and
// command-line flags.
type LoopCount int

// IsInfinite reports whether the animation repeats forever.
func (l LoopCount) IsInfinite() bool { return l < 0 }

func (l LoopCount) String() string {
	if l.IsInfinite() {
		return "infinite"
	}
	return strconv.Itoa(int(l))
}

// Set implements pflag.Value.
func (l *LoopCount) Set(s string) error {
	v, err := ParseLoopCount(s)
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Type implements pflag.Value.
func (l *LoopCount) Type() string { return "loop" }

// UnmarshalYAML accepts an integer or "infinite".
func (l *LoopCount) UnmarshalYAML(value *yaml.Node) error {
	v, err := ParseLoopCount(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*l = v
	return nil
}

// MarshalYAML writes "infinite" or the integer.
func (l LoopCount) MarshalYAML() (interface{}, error) {
	if l.IsInfinite() {
		return "infinite", nil
	}
	return int(l), nil
}

// ParseLoopCount parses "infinite" or a non-negative integer.
func ParseLoopCount(s string) (LoopCount, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "infinite" || s == "inf" {
		return LoopInfinite, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid loop count %q: want a non-negative integer or \"infinite\"", s)
	}
	return LoopCount(n), nil
}

// Output configures a render: dimensions, timing, encoder tuning and
// declarative-export framing.
type Output struct {
	Width               int       `yaml:"width"`
	Height              int       `yaml:"height"`
	Duration            float64   `yaml:"duration"`
	FPS                 float64   `yaml:"fps"`
	LoopCount           LoopCount `yaml:"loop"`
	Quality             int       `yaml:"quality"`
	Workers             int       `yaml:"workers"`
	Background          string    `yaml:"background,omitempty"`
	Transparent         string    `yaml:"transparent,omitempty"`
	Dither              string    `yaml:"dither"`
	ViewBox             string    `yaml:"view_box,omitempty"`
	PreserveAspectRatio string    `yaml:"preserve_aspect_ratio,omitempty"`
	PathQuality         int       `yaml:"path_quality"`
	ColorSpace          string    `yaml:"color_space,omitempty"`
	Rasterizer          string    `yaml:"rasterizer"`
}

// DefaultOutput returns the settings used when a scene leaves fields unset.
func DefaultOutput() Output {
	return Output{
		Width:       800,
		Height:      600,
		Duration:    1,
		FPS:         30,
		LoopCount:   LoopInfinite,
		Quality:     10,
		Workers:     system.DefaultWorkers(),
		Dither:      DitherFloydSteinberg,
		PathQuality: 1,
		ColorSpace:  string(interp.LinearRGB),
		Rasterizer:  "vector",
	}
}

// Validate checks every field. Errors are of kind errs.Validation.
func (o Output) Validate() error {
	const op = "config.Validate"
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return errs.New(errs.Validation, op, "dimensions must be positive, got %dx%d", o.Width, o.Height)
	case !(o.Duration > 0) || math.IsInf(o.Duration, 0):
		return errs.New(errs.Validation, op, "duration must be positive, got %v", o.Duration)
	case !(o.FPS > 0) || o.FPS > MaxFPS:
		return errs.New(errs.Validation, op, "fps must be in (0, %d], got %v", MaxFPS, o.FPS)
	case o.Quality < 1 || o.Quality > 30:
		return errs.New(errs.Validation, op, "quality must be in [1, 30], got %d", o.Quality)
	case o.PathQuality < 1 || o.PathQuality > MaxPathQuality:
		return errs.New(errs.Validation, op, "path quality must be in [1, %d], got %d", MaxPathQuality, o.PathQuality)
	case o.Workers < 1:
		return errs.New(errs.Validation, op, "workers must be at least 1, got %d", o.Workers)
	case o.Dither != DitherFloydSteinberg && o.Dither != DitherNone:
		return errs.New(errs.Validation, op, "unknown dither mode %q", o.Dither)
	case o.Rasterizer != "vector" && o.Rasterizer != "mupdf":
		return errs.New(errs.Validation, op, "unknown rasterizer %q", o.Rasterizer)
	case o.ColorSpace != "" && !interp.ValidColorSpace(interp.ColorSpace(o.ColorSpace)):
		return errs.New(errs.Validation, op, "unknown color space %q", o.ColorSpace)
	}
	for _, c := range []string{o.Background, o.Transparent} {
		if c == "" {
			continue
		}
		if _, ok := interp.ParseColor(c); !ok {
			return errs.New(errs.Validation, op, "invalid color %q", c)
		}
	}
	return nil
}

// FrameCount is round(fps * duration), at least 1.
func (o Output) FrameCount() int {
	n := int(math.Round(o.FPS * o.Duration))
	if n < 1 {
		return 1
	}
	return n
}

// FrameDelay is the display time of one frame so that FrameCount frames
// play for exactly Duration.
func (o Output) FrameDelay() time.Duration {
	return time.Duration(o.Duration * float64(time.Second) / float64(o.FrameCount()))
}

// TotalDuration returns Duration as a time.Duration.
func (o Output) TotalDuration() time.Duration {
	return time.Duration(o.Duration * float64(time.Second))
}

// Overrides carries command-line values that replace scene settings when
// set. Zero values mean "keep the scene's value".
type Overrides struct {
	Width, Height int
	Duration, FPS float64
	LoopCount     *LoopCount
	Quality       int
	Workers       int
	Rasterizer    string
	PathQuality   int
}

// Apply merges non-zero overrides into o.
func (ov Overrides) Apply(o Output) Output {
	if ov.Width > 0 {
		o.Width = ov.Width
	}
	if ov.Height > 0 {
		o.Height = ov.Height
	}
	if ov.Duration > 0 {
		o.Duration = ov.Duration
	}
	if ov.FPS > 0 {
		o.FPS = ov.FPS
	}
	if ov.LoopCount != nil {
		o.LoopCount = *ov.LoopCount
	}
	if ov.Quality > 0 {
		o.Quality = ov.Quality
	}
	if ov.Workers > 0 {
		o.Workers = ov.Workers
	}
	if ov.Rasterizer != "" {
		o.Rasterizer = ov.Rasterizer
	}
	if ov.PathQuality > 0 {
		o.PathQuality = ov.PathQuality
	}
	return o
}

// Config is the project-level configuration assembled by the CLI.
type Config struct {
	ScenePath    string
	OutputPath   string
	Mode         string
	Overrides    Overrides
	MQTTBroker   string
	MQTTTopic    string
	HistoryPath  string
	ShowStats    bool
	BuildVersion string
}
