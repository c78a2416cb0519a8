// Package director owns the top-level scene nodes and output settings and
// renders them either as a declarative animated SVG or as a sampled frame
// sequence fed to an encoder.
package director

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/encoder"
	"github.com/ivlev/svgmotion/internal/errs"
	"github.com/ivlev/svgmotion/internal/interp"
	"github.com/ivlev/svgmotion/internal/raster"
	"github.com/ivlev/svgmotion/internal/scene"
	"github.com/ivlev/svgmotion/internal/svg"
)

// Render modes.
const (
	ModeGIF  = "GIF"
	ModeMP4  = "MP4"
	ModeWEBM = "WEBM"
	ModeSVG  = "SVG"
)

// Director renders an ordered list of top-level nodes. List order is paint
// order: later nodes draw over earlier ones. Nodes are referenced, not
// owned; every render works on a deep copy taken under the director's lock.
type Director struct {
	render sync.Mutex // serializes renders

	mu         sync.Mutex // guards the fields below, held only briefly
	cfg        config.Output
	nodes      []*scene.Node
	raster     raster.Rasterizer
	newEncoder encoder.Factory
	interp     interp.Interpolator
	state      State
	last       *encoder.Artifact
}

// Option customizes a Director.
type Option func(*Director)

// WithRasterizer replaces the rasterizer chosen by the configuration.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(d *Director) { d.raster = r }
}

// WithEncoderFactory replaces encoder.New.
func WithEncoderFactory(f encoder.Factory) Option {
	return func(d *Director) { d.newEncoder = f }
}

// WithInterpolator replaces the default value and path interpolator.
func WithInterpolator(ip interp.Interpolator) Option {
	return func(d *Director) { d.interp = ip }
}

// New validates cfg and creates a Director with no nodes.
func New(cfg config.Output, opts ...Option) (*Director, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Director{
		cfg:        cfg,
		newEncoder: encoder.New,
		interp:     interp.New(interp.ColorSpace(cfg.ColorSpace)),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.raster == nil {
		r, err := raster.New(cfg.Rasterizer)
		if err != nil {
			return nil, errs.Wrap(errs.Validation, "director.New", err, "rasterizer")
		}
		d.raster = r
	}
	return d, nil
}

// Config returns the output settings.
func (d *Director) Config() config.Output {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SetConfig replaces the output settings after validating them.
func (d *Director) SetConfig(cfg config.Output) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	return nil
}

// AddNode appends n to the top-level list.
func (d *Director) AddNode(n *scene.Node) error {
	if n == nil {
		return errs.New(errs.Structure, "director.AddNode", "nil node")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nodes = append(d.nodes, n)
	return nil
}

// InsertNode places n at index (0..len).
func (d *Director) InsertNode(n *scene.Node, index int) error {
	if n == nil {
		return errs.New(errs.Structure, "director.InsertNode", "nil node")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index > len(d.nodes) {
		return errs.New(errs.Structure, "director.InsertNode", "index %d out of range [0,%d]", index, len(d.nodes))
	}
	d.nodes = append(d.nodes, nil)
	copy(d.nodes[index+1:], d.nodes[index:])
	d.nodes[index] = n
	return nil
}

// RemoveNode drops the node at index.
func (d *Director) RemoveNode(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.nodes) {
		return errs.New(errs.Structure, "director.RemoveNode", "index %d out of range [0,%d)", index, len(d.nodes))
	}
	d.nodes = append(d.nodes[:index], d.nodes[index+1:]...)
	return nil
}

// Nodes returns a copy of the top-level list.
func (d *Director) Nodes() []*scene.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*scene.Node(nil), d.nodes...)
}

// State returns the state of the current or last render.
func (d *Director) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// LastArtifact returns the artifact of the last successful render, or nil.
func (d *Director) LastArtifact() *encoder.Artifact {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Render produces an artifact in the given mode. GIF, MP4 and WEBM sample
// the scene into frames; SVG emits a declarative animation. Mode names are
// case-insensitive. An unknown mode fails before any work is done. Renders
// are serialized; the node tree and settings are snapshotted when the render
// starts. Observers are called without the director's lock held and may
// call back into the Director, though AddNode and friends only affect the
// next render.
func (d *Director) Render(ctx context.Context, mode string, obs Observer) (*encoder.Artifact, error) {
	if obs == nil {
		obs = NopObserver{}
	}
	m := strings.ToUpper(strings.TrimSpace(mode))
	switch m {
	case ModeGIF, ModeMP4, ModeWEBM, ModeSVG:
	default:
		return nil, errs.New(errs.RenderMode, "director.Render", "unsupported mode %q", mode)
	}

	d.render.Lock()
	defer d.render.Unlock()

	d.mu.Lock()
	job := renderJob{
		cfg:        d.cfg,
		nodes:      make([]*scene.Node, len(d.nodes)),
		raster:     d.raster,
		newEncoder: d.newEncoder,
		interp:     d.interp,
		obs:        obs,
	}
	for i, n := range d.nodes {
		job.nodes[i] = n.Clone()
	}
	d.mu.Unlock()

	d.transition(Idle, obs)

	var art *encoder.Artifact
	var err error
	if m == ModeSVG {
		art, err = d.renderDeclarative(job)
	} else {
		art, err = d.renderFrames(ctx, m, job)
	}
	if err != nil {
		d.transition(Failed, obs)
		return nil, err
	}

	d.mu.Lock()
	d.last = art
	d.mu.Unlock()
	d.transition(Finished, obs)
	obs.Finished(art)
	return art, nil
}

// renderJob is the snapshot one render works on.
type renderJob struct {
	cfg        config.Output
	nodes      []*scene.Node
	raster     raster.Rasterizer
	newEncoder encoder.Factory
	interp     interp.Interpolator
	obs        Observer
}

// Compose returns the declarative SVG document for the current nodes.
func (d *Director) Compose() *svg.Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return compose(d.cfg, d.nodes)
}

func (d *Director) renderDeclarative(job renderJob) (*encoder.Artifact, error) {
	d.transition(Composing, job.obs)
	data, err := svg.Marshal(compose(job.cfg, job.nodes))
	if err != nil {
		return nil, errs.Wrap(errs.Collaborator, "director.Render", err, "serialize document")
	}
	return &encoder.Artifact{Data: data, ContentType: "image/svg+xml"}, nil
}

// renderFrames samples t = i/n for i in [0, n). t = 1 is not sampled so a
// looping animation does not show its first pose twice; each frame is shown
// for duration/n, which makes the total exactly the configured duration.
func (d *Director) renderFrames(ctx context.Context, mode string, job renderJob) (*encoder.Artifact, error) {
	const op = "director.Render"
	cfg, obs := job.cfg, job.obs

	enc, err := job.newEncoder(mode)
	if err != nil {
		return nil, errs.Wrap(errs.Collaborator, op, err, "create %s encoder", mode)
	}
	ok := false
	defer func() {
		if !ok {
			enc.Abort()
		}
	}()
	if err := enc.Configure(encoder.OptionsFrom(cfg)); err != nil {
		return nil, errs.Wrap(errs.Collaborator, op, err, "configure encoder")
	}

	d.transition(Sampling, obs)
	surface := raster.NewSurface(cfg.Width, cfg.Height, job.raster)
	defer surface.Release()

	total := cfg.FrameCount()
	delay := cfg.FrameDelay()
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := float64(i) / float64(total)

		surface.Clear(surface.Bounds())
		for _, n := range job.nodes {
			if err := surface.Draw(ctx, n.GenerateAt(t, cfg.PathQuality, job.interp)); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, err
				}
				return nil, errs.Wrap(errs.Collaborator, op, err, "rasterize frame %d", i)
			}
		}
		frame := surface.Snapshot()
		if err := enc.AddFrame(frame, delay); err != nil {
			return nil, errs.Wrap(errs.Collaborator, op, err, "add frame %d", i)
		}
		obs.FrameAdded(i, total, frame)
	}

	d.transition(Encoding, obs)
	art, err := enc.Finalize(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errs.Wrap(errs.Collaborator, op, err, "finalize")
	}
	ok = true
	return art, nil
}

// transition records s and then reports it with the lock released.
func (d *Director) transition(s State, obs Observer) {
	d.mu.Lock()
	prev := d.state
	d.state = s
	d.mu.Unlock()

	if prev != s {
		log.Printf("[*] Director: %s -> %s", prev, s)
	}
	obs.StateChanged(s)
}
