package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/ivlev/svgmotion/internal/svg"
)

// curveSteps is the number of line pieces per curve segment at unit scale.
const curveSteps = 12

// Vector is a pure Go rasterizer built on golang.org/x/image/vector. It
// covers basic shapes, paths, groups, transforms, solid paint and embedded
// raster images. Text, gradients and filters are not drawn.
type Vector struct{}

type vectorJob struct {
	ctx  context.Context
	dst  *image.RGBA
	z    *vector.Rasterizer
	w, h float64
}

// Rasterize implements Rasterizer.
func (v *Vector) Rasterize(ctx context.Context, doc *svg.Element, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	job := &vectorJob{
		ctx: ctx,
		dst: image.NewRGBA(image.Rect(0, 0, width, height)),
		z:   vector.NewRasterizer(width, height),
		w:   float64(width),
		h:   float64(height),
	}

	ctm := identity
	if doc.Name == "svg" {
		props := properties(doc)
		if m, ok := viewBoxTransform(props["viewBox"], props["preserveAspectRatio"], job.w, job.h); ok {
			ctm = m
		} else if dw, dh := attrLength(props, "width"), attrLength(props, "height"); dw > 0 && dh > 0 {
			ctm = scaling(job.w/dw, job.h/dh)
		}
	}
	if err := job.group(doc, ctm, defaultPaint(), true); err != nil {
		return nil, err
	}
	return job.dst, nil
}

// group renders el's children (and el itself when it is a shape). Nested
// <svg> elements establish a new viewport at x/y.
func (j *vectorJob) group(el *svg.Element, ctm matrix, p paint, root bool) error {
	props := properties(el)
	if props["display"] == "none" {
		return nil
	}
	p = p.inherit(props)
	if t, ok := props["transform"]; ok {
		ctm = ctm.mul(parseTransform(t))
	}

	switch el.Name {
	case "svg", "g", "a", "switch":
		if el.Name == "svg" && !root {
			ctm = ctm.mul(translate(attrLength(props, "x"), attrLength(props, "y")))
			if m, ok := viewBoxTransform(props["viewBox"], props["preserveAspectRatio"], attrLength(props, "width"), attrLength(props, "height")); ok {
				ctm = ctm.mul(m)
			}
		}
		for _, c := range el.Children {
			if err := j.ctx.Err(); err != nil {
				return err
			}
			if err := j.group(c, ctm, p, false); err != nil {
				return err
			}
		}
	case "image":
		if p.visible {
			return j.image(props, ctm, p.opacity)
		}
	default:
		if p.visible {
			j.shape(el.Name, props, ctm, p)
		}
	}
	return nil
}

// shape fills then strokes a basic shape or path.
func (j *vectorJob) shape(name string, props map[string]string, ctm matrix, p paint) {
	d, closedShape := outline(name, props)
	if d == "" {
		return
	}
	cmds, err := svg.ParsePathData(d)
	if err != nil || len(cmds) == 0 {
		return
	}
	steps := curveSteps
	if s := ctm.scale(); s > 1 {
		steps = min(int(float64(curveSteps)*s), 8*curveSteps)
	}
	lines, closed := svg.Flatten(svg.Segments(cmds), steps)

	if c, ok := p.resolve(p.fill); ok && name != "line" {
		j.z.Reset(int(j.w), int(j.h))
		for _, line := range lines {
			j.addPolygon(transformAll(line, ctm), false)
		}
		j.paint(c.RGBA8(p.opacity * p.fillOpacity))
	}

	if c, ok := p.resolve(p.stroke); ok && p.strokeWidth > 0 {
		j.z.Reset(int(j.w), int(j.h))
		width := p.strokeWidth
		for i, line := range lines {
			isClosed := closed[i] || closedShape
			for _, poly := range strokePolygons(line, isClosed, width) {
				j.addPolygon(transformAll(poly, ctm), true)
			}
		}
		j.paint(c.RGBA8(p.opacity * p.strokeOpacity))
	}
}

// addPolygon clips poly to the canvas and feeds it to the rasterizer. Stroke
// pieces are normalized to one orientation.
func (j *vectorJob) addPolygon(poly []svg.Point, orient bool) {
	if orient && signedArea(poly) < 0 {
		poly = reversed(poly)
	}
	poly = clipPolygon(poly, j.w, j.h)
	if len(poly) < 3 {
		return
	}
	j.z.MoveTo(float32(poly[0].X), float32(poly[0].Y))
	for _, pt := range poly[1:] {
		j.z.LineTo(float32(pt.X), float32(pt.Y))
	}
	j.z.ClosePath()
}

func (j *vectorJob) paint(c color.RGBA) {
	if c.A == 0 {
		return
	}
	j.z.DrawOp = draw.Over
	j.z.Draw(j.dst, j.dst.Bounds(), image.NewUniform(c), image.Point{})
}

// image draws an embedded raster image scaled into its x/y/width/height box.
func (j *vectorJob) image(props map[string]string, ctm matrix, opacity float64) error {
	href := props["href"]
	if href == "" {
		href = props["xlink:href"]
	}
	src, err := decodeDataURI(href)
	if errors.Is(err, errNotDataURI) {
		return nil // external references are not fetched
	}
	if err != nil {
		return fmt.Errorf("image %q: %w", truncate(href, 32), err)
	}
	b := src.Bounds()
	w, h := attrLength(props, "width"), attrLength(props, "height")
	if w <= 0 {
		w = float64(b.Dx())
	}
	if h <= 0 {
		h = float64(b.Dy())
	}
	m := ctm.mul(translate(attrLength(props, "x"), attrLength(props, "y"))).
		mul(scaling(w/float64(b.Dx()), h/float64(b.Dy()))).
		mul(translate(-float64(b.Min.X), -float64(b.Min.Y)))

	var opts *xdraw.Options
	if opacity < 1 {
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(opacity*255 + 0.5)})}
	}
	xdraw.BiLinear.Transform(j.dst, m.aff3(), src, b, xdraw.Over, opts)
	return nil
}

func transformAll(pts []svg.Point, m matrix) []svg.Point {
	out := make([]svg.Point, len(pts))
	for i, p := range pts {
		out[i] = m.apply(p)
	}
	return out
}

// outline converts a shape element to path data. closed reports shapes
// whose stroke must wrap around.
func outline(name string, props map[string]string) (string, bool) {
	f := func(n string) float64 { return attrLength(props, n) }
	num := svg.FormatNumber

	switch name {
	case "path":
		return props["d"], false
	case "rect":
		x, y, w, h := f("x"), f("y"), f("width"), f("height")
		if w <= 0 || h <= 0 {
			return "", false
		}
		rx, rxOK := length(props["rx"])
		ry, ryOK := length(props["ry"])
		if !rxOK {
			rx = ry
		}
		if !ryOK {
			ry = rx
		}
		rx, ry = min(max(rx, 0), w/2), min(max(ry, 0), h/2)
		if rx == 0 || ry == 0 {
			return fmt.Sprintf("M%s %sH%sV%sH%sZ", num(x), num(y), num(x+w), num(y+h), num(x)), true
		}
		return fmt.Sprintf("M%s %sH%sA%s %s 0 0 1 %s %sV%sA%s %s 0 0 1 %s %sH%sA%s %s 0 0 1 %s %sV%sA%s %s 0 0 1 %s %sZ",
			num(x+rx), num(y), num(x+w-rx),
			num(rx), num(ry), num(x+w), num(y+ry), num(y+h-ry),
			num(rx), num(ry), num(x+w-rx), num(y+h), num(x+rx),
			num(rx), num(ry), num(x), num(y+h-ry), num(y+ry),
			num(rx), num(ry), num(x+rx), num(y)), true
	case "circle":
		r := f("r")
		return ellipsePath(f("cx"), f("cy"), r, r), true
	case "ellipse":
		return ellipsePath(f("cx"), f("cy"), f("rx"), f("ry")), true
	case "line":
		return fmt.Sprintf("M%s %sL%s %s", num(f("x1")), num(f("y1")), num(f("x2")), num(f("y2"))), false
	case "polyline", "polygon":
		pts := numbers(props["points"])
		if len(pts) < 4 {
			return "", false
		}
		var b strings.Builder
		for i := 0; i+1 < len(pts); i += 2 {
			op := "L"
			if i == 0 {
				op = "M"
			}
			fmt.Fprintf(&b, "%s%s %s", op, num(pts[i]), num(pts[i+1]))
		}
		if name == "polygon" {
			b.WriteString("Z")
			return b.String(), true
		}
		return b.String(), false
	}
	return "", false
}

func ellipsePath(cx, cy, rx, ry float64) string {
	if rx <= 0 || ry <= 0 {
		return ""
	}
	num := svg.FormatNumber
	return fmt.Sprintf("M%s %sA%s %s 0 1 0 %s %sA%s %s 0 1 0 %s %sZ",
		num(cx-rx), num(cy),
		num(rx), num(ry), num(cx+rx), num(cy),
		num(rx), num(ry), num(cx-rx), num(cy))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
