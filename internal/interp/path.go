package interp

import (
	"math"
	"strings"

	"github.com/ivlev/svgmotion/internal/svg"
)

// curveSteps is how many straight pieces each curve becomes when two paths
// have different structure and must be resampled.
const curveSteps = 8

// Morph interpolates two path data strings. Paths with the same command
// sequence interpolate argument by argument. Otherwise both are flattened and
// resampled by arc length to max(points) * quality points. Unparseable input
// falls back to a discrete switch.
func Morph(a, b string, quality int) Func {
	if quality < 1 {
		quality = 1
	}
	if a == b {
		return func(float64) string { return a }
	}

	ca, errA := svg.ParsePathData(a)
	cb, errB := svg.ParsePathData(b)
	if errA != nil || errB != nil || len(ca) == 0 || len(cb) == 0 {
		return Discrete(a, b)
	}

	if sameStructure(ca, cb) {
		return func(t float64) string {
			if t <= 0 {
				return a
			}
			if t >= 1 {
				return b
			}
			out := make([]svg.Command, len(ca))
			for i := range ca {
				args := make([]float64, len(ca[i].Args))
				for j := range args {
					args[j] = Lerp(ca[i].Args[j], cb[i].Args[j], t)
				}
				out[i] = svg.Command{Op: ca[i].Op, Args: args}
			}
			return svg.FormatPathData(out)
		}
	}

	pa, closedA := polyline(ca)
	pb, closedB := polyline(cb)
	if len(pa) == 0 || len(pb) == 0 {
		return Discrete(a, b)
	}
	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	n *= quality
	if n < 2 {
		n = 2
	}
	ra := resample(pa, n)
	rb := resample(pb, n)
	closed := closedA || closedB

	return func(t float64) string {
		if t <= 0 {
			return a
		}
		if t >= 1 {
			return b
		}
		var out strings.Builder
		for i := 0; i < n; i++ {
			if i == 0 {
				out.WriteString("M ")
			} else {
				out.WriteString(" L ")
			}
			out.WriteString(svg.FormatNumber(Lerp(ra[i].X, rb[i].X, t)))
			out.WriteByte(' ')
			out.WriteString(svg.FormatNumber(Lerp(ra[i].Y, rb[i].Y, t)))
		}
		if closed {
			out.WriteString(" Z")
		}
		return out.String()
	}
}

func sameStructure(a, b []svg.Command) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Op != b[i].Op || len(a[i].Args) != len(b[i].Args) {
			return false
		}
		// Arc flags cannot be interpolated.
		if a[i].Op == 'A' || a[i].Op == 'a' {
			if a[i].Args[3] != b[i].Args[3] || a[i].Args[4] != b[i].Args[4] {
				return false
			}
		}
	}
	return true
}

// polyline joins every subpath into one point sequence.
func polyline(cmds []svg.Command) ([]svg.Point, bool) {
	paths, closed := svg.Flatten(svg.Segments(cmds), curveSteps)
	var pts []svg.Point
	anyClosed := false
	for i, p := range paths {
		pts = append(pts, p...)
		if closed[i] {
			anyClosed = true
			pts = append(pts, p[0])
		}
	}
	return pts, anyClosed
}

// resample returns n points spaced evenly by arc length along pts.
func resample(pts []svg.Point, n int) []svg.Point {
	out := make([]svg.Point, n)
	if len(pts) == 1 {
		for i := range out {
			out[i] = pts[0]
		}
		return out
	}

	cum := make([]float64, len(pts))
	for i := 1; i < len(pts); i++ {
		cum[i] = cum[i-1] + math.Hypot(pts[i].X-pts[i-1].X, pts[i].Y-pts[i-1].Y)
	}
	total := cum[len(cum)-1]
	if total == 0 {
		for i := range out {
			out[i] = pts[0]
		}
		return out
	}

	j := 1
	for i := 0; i < n; i++ {
		target := total * float64(i) / float64(n-1)
		for j < len(pts)-1 && cum[j] < target {
			j++
		}
		seg := cum[j] - cum[j-1]
		f := 0.0
		if seg > 0 {
			f = (target - cum[j-1]) / seg
		}
		out[i] = svg.Point{
			X: Lerp(pts[j-1].X, pts[j].X, f),
			Y: Lerp(pts[j-1].Y, pts[j].Y, f),
		}
	}
	return out
}
