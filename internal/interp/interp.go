// Package interp interpolates attribute values between two keyframes.
//
// Values are strings as they appear in SVG attributes. Colours blend in a
// configurable colour space, numbers (with an optional unit) interpolate
// linearly, strings with the same shape interpolate their embedded numbers,
// and everything else switches discretely at the end of the segment. Path
// geometry has its own morphing interpolator.
package interp

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ivlev/svgmotion/internal/svg"
)

// Func returns the interpolated value at local parameter t in [0,1].
type Func func(t float64) string

// Interpolator builds interpolation functions between two raw values.
type Interpolator interface {
	Value(a, b string) Func
	Path(a, b string, quality int) Func
}

// Default is the built-in Interpolator.
type Default struct {
	ColorSpace ColorSpace
}

// New returns a Default interpolator blending colours in cs.
func New(cs ColorSpace) *Default {
	if cs == "" {
		cs = LinearRGB
	}
	return &Default{ColorSpace: cs}
}

var numberRe = regexp.MustCompile(`[-+]?(?:\d+\.?\d*|\.\d+)(?:[eE][-+]?\d+)?`)

// Value implements Interpolator.
func (d *Default) Value(a, b string) Func {
	if a == b {
		return func(float64) string { return a }
	}

	if ca, ok := ParseColor(a); ok {
		if cb, ok := ParseColor(b); ok {
			cs := d.ColorSpace
			return func(t float64) string {
				if t <= 0 {
					return a
				}
				if t >= 1 {
					return b
				}
				return Blend(ca, cb, t, cs).String()
			}
		}
	}

	if na, ua, ok := splitUnit(a); ok {
		if nb, ub, ok := splitUnit(b); ok && (ua == ub || ua == "" || ub == "") {
			unit := ua
			if unit == "" {
				unit = ub
			}
			return func(t float64) string {
				if t <= 0 {
					return a
				}
				if t >= 1 {
					return b
				}
				return svg.FormatNumber(Lerp(na, nb, t)) + unit
			}
		}
	}

	if f := embedded(a, b); f != nil {
		return f
	}
	return Discrete(a, b)
}

// Path implements Interpolator.
func (d *Default) Path(a, b string, quality int) Func {
	return Morph(a, b, quality)
}

// Discrete holds a until the end of the segment.
func Discrete(a, b string) Func {
	return func(t float64) string {
		if t >= 1 {
			return b
		}
		return a
	}
}

// Lerp is linear interpolation.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// splitUnit parses "12.5px" into (12.5, "px"). The unit must be letters or %.
func splitUnit(s string) (float64, string, bool) {
	s = strings.TrimSpace(s)
	loc := numberRe.FindStringIndex(s)
	if loc == nil || loc[0] != 0 {
		return 0, "", false
	}
	unit := s[loc[1]:]
	for _, r := range unit {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '%') {
			return 0, "", false
		}
	}
	v, err := strconv.ParseFloat(s[:loc[1]], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "", false
	}
	return v, unit, true
}

// embedded interpolates the numbers inside two strings whose non-numeric
// parts are identical, e.g. "translate(0,0)" and "translate(10,5)".
func embedded(a, b string) Func {
	la := numberRe.FindAllStringIndex(a, -1)
	lb := numberRe.FindAllStringIndex(b, -1)
	if len(la) == 0 || len(la) != len(lb) {
		return nil
	}
	if skeleton(a, la) != skeleton(b, lb) {
		return nil
	}

	na := make([]float64, len(la))
	nb := make([]float64, len(lb))
	for i := range la {
		va, errA := strconv.ParseFloat(a[la[i][0]:la[i][1]], 64)
		vb, errB := strconv.ParseFloat(b[lb[i][0]:lb[i][1]], 64)
		if errA != nil || errB != nil {
			return nil
		}
		na[i], nb[i] = va, vb
	}

	return func(t float64) string {
		if t <= 0 {
			return a
		}
		if t >= 1 {
			return b
		}
		var out strings.Builder
		prev := 0
		for i, loc := range la {
			out.WriteString(a[prev:loc[0]])
			out.WriteString(svg.FormatNumber(Lerp(na[i], nb[i], t)))
			prev = loc[1]
		}
		out.WriteString(a[prev:])
		return out.String()
	}
}

func skeleton(s string, locs [][]int) string {
	var out strings.Builder
	prev := 0
	for _, loc := range locs {
		out.WriteString(s[prev:loc[0]])
		out.WriteByte(0)
		prev = loc[1]
	}
	out.WriteString(s[prev:])
	return out.String()
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
