package raster

import (
	"math"

	"golang.org/x/image/math/f64"

	"github.com/ivlev/svgmotion/internal/svg"
)

// matrix is an SVG affine transform [a b c d e f]:
//
//	x' = a*x + c*y + e
//	y' = b*x + d*y + f
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m then n applied in user space (m * n).
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

func (m matrix) apply(p svg.Point) svg.Point {
	return svg.Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

// scale is the geometric mean of the axis scale factors, used for stroke
// widths and curve subdivision.
func (m matrix) scale() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

func (m matrix) aff3() f64.Aff3 {
	return f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}
}

func translate(tx, ty float64) matrix { return matrix{1, 0, 0, 1, tx, ty} }

func scaling(sx, sy float64) matrix { return matrix{sx, 0, 0, sy, 0, 0} }

func rotation(deg float64) matrix {
	s, c := math.Sincos(deg * math.Pi / 180)
	return matrix{c, s, -s, c, 0, 0}
}

// signedArea is positive for counter-clockwise polygons in a y-up frame.
func signedArea(poly []svg.Point) float64 {
	var a float64
	for i := range poly {
		p, q := poly[i], poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

func reversed(poly []svg.Point) []svg.Point {
	out := make([]svg.Point, len(poly))
	for i, p := range poly {
		out[len(poly)-1-i] = p
	}
	return out
}

// clipPolygon clips poly to the rectangle [0,w]x[0,h] (Sutherland-Hodgman).
// Winding inside the rectangle is preserved.
func clipPolygon(poly []svg.Point, w, h float64) []svg.Point {
	edges := []struct {
		inside func(svg.Point) bool
		cross  func(a, b svg.Point) svg.Point
	}{
		{func(p svg.Point) bool { return p.X >= 0 }, func(a, b svg.Point) svg.Point { return atX(a, b, 0) }},
		{func(p svg.Point) bool { return p.X <= w }, func(a, b svg.Point) svg.Point { return atX(a, b, w) }},
		{func(p svg.Point) bool { return p.Y >= 0 }, func(a, b svg.Point) svg.Point { return atY(a, b, 0) }},
		{func(p svg.Point) bool { return p.Y <= h }, func(a, b svg.Point) svg.Point { return atY(a, b, h) }},
	}
	out := poly
	for _, e := range edges {
		if len(out) == 0 {
			return nil
		}
		in := out
		out = nil
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case e.inside(cur) && e.inside(prev):
				out = append(out, cur)
			case e.inside(cur):
				out = append(out, e.cross(prev, cur), cur)
			case e.inside(prev):
				out = append(out, e.cross(prev, cur))
			}
			prev = cur
		}
	}
	return out
}

func atX(a, b svg.Point, x float64) svg.Point {
	t := (x - a.X) / (b.X - a.X)
	return svg.Point{X: x, Y: a.Y + (b.Y-a.Y)*t}
}

func atY(a, b svg.Point, y float64) svg.Point {
	t := (y - a.Y) / (b.Y - a.Y)
	return svg.Point{X: a.X + (b.X-a.X)*t, Y: y}
}

// strokePolygons outlines a polyline of the given width as a set of
// quads, one per segment, plus round joins and caps at every vertex. All
// polygons share one orientation so overlaps accumulate to full coverage.
func strokePolygons(line []svg.Point, closed bool, width float64) [][]svg.Point {
	if width <= 0 || len(line) == 0 {
		return nil
	}
	hw := width / 2
	pts := line
	if closed && len(line) > 1 && line[0] != line[len(line)-1] {
		pts = append(append([]svg.Point(nil), line...), line[0])
	}

	var polys [][]svg.Point
	for i := 0; i+1 < len(pts); i++ {
		p, q := pts[i], pts[i+1]
		dx, dy := q.X-p.X, q.Y-p.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*hw, dx/l*hw
		polys = append(polys, []svg.Point{
			{X: p.X + nx, Y: p.Y + ny},
			{X: q.X + nx, Y: q.Y + ny},
			{X: q.X - nx, Y: q.Y - ny},
			{X: p.X - nx, Y: p.Y - ny},
		})
	}
	for _, p := range pts {
		polys = append(polys, disc(p, hw))
	}
	return polys
}

// disc approximates a circle with a 16-gon.
func disc(c svg.Point, r float64) []svg.Point {
	const n = 16
	out := make([]svg.Point, n)
	for i := range out {
		s, co := math.Sincos(2 * math.Pi * float64(i) / n)
		out[i] = svg.Point{X: c.X + r*co, Y: c.Y + r*s}
	}
	return out
}

func tanDeg(deg float64) float64 { return math.Tan(deg * math.Pi / 180) }
