// Package raster turns rendered SVG element trees into pixels.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/ivlev/svgmotion/internal/svg"
	"github.com/ivlev/svgmotion/internal/system"
)

// Rasterizer names accepted by New.
const (
	VectorName = "vector"
	MuPDFName  = "mupdf"
)

// Rasterizer renders a complete <svg> document to an image of the given size.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *svg.Element, width, height int) (image.Image, error)
}

// New returns the rasterizer registered under name.
func New(name string) (Rasterizer, error) {
	switch name {
	case "", VectorName:
		return &Vector{}, nil
	case MuPDFName:
		return &Fitz{}, nil
	default:
		return nil, fmt.Errorf("unknown rasterizer %q", name)
	}
}

// Surface is a fixed-size RGBA canvas that elements are composited onto.
// Its buffer comes from the shared image pool and must be released.
type Surface struct {
	img    *image.RGBA
	raster Rasterizer
	width  int
	height int
}

// NewSurface acquires a cleared width x height buffer.
func NewSurface(width, height int, r Rasterizer) *Surface {
	if r == nil {
		r = &Vector{}
	}
	return &Surface{
		img:    system.AcquireFrame(width, height),
		raster: r,
		width:  width,
		height: height,
	}
}

// Bounds returns the surface rectangle.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// Clear makes rect fully transparent.
func (s *Surface) Clear(rect image.Rectangle) {
	draw.Draw(s.img, rect.Intersect(s.Bounds()), image.Transparent, image.Point{}, draw.Src)
}

// Draw rasterizes el and composites it over the current contents. An <svg>
// element is rendered as the document itself; anything else is wrapped in a
// document of the surface size.
func (s *Surface) Draw(ctx context.Context, el *svg.Element) error {
	if el == nil {
		return nil
	}
	doc := el
	if el.Name != "svg" {
		doc = svg.Document(s.width, s.height, el)
	}
	img, err := s.raster.Rasterize(ctx, doc, s.width, s.height)
	if err != nil {
		return err
	}
	draw.Draw(s.img, s.Bounds(), img, img.Bounds().Min, draw.Over)
	return nil
}

// Snapshot returns a copy of the current pixels that stays valid after the
// surface is cleared or released.
func (s *Surface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Release hands the buffer back to the pool. The surface must not be used
// afterwards.
func (s *Surface) Release() {
	if s.img != nil {
		system.ReleaseFrame(s.img)
		s.img = nil
	}
}
