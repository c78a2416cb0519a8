package raster

import (
	"strconv"
	"strings"

	"github.com/ivlev/svgmotion/internal/interp"
	"github.com/ivlev/svgmotion/internal/svg"
)

// paint is the inherited presentation state while walking the tree.
type paint struct {
	fill          string
	stroke        string
	color         string
	strokeWidth   float64
	opacity       float64
	fillOpacity   float64
	strokeOpacity float64
	visible       bool
}

func defaultPaint() paint {
	return paint{
		fill:          "black",
		stroke:        "none",
		color:         "black",
		strokeWidth:   1,
		opacity:       1,
		fillOpacity:   1,
		strokeOpacity: 1,
		visible:       true,
	}
}

// properties merges presentation attributes with the style attribute, which
// takes precedence.
func properties(el *svg.Element) map[string]string {
	props := make(map[string]string, len(el.Attrs))
	for _, a := range el.Attrs {
		props[a.Name] = strings.TrimSpace(a.Value)
	}
	if style, ok := props["style"]; ok {
		for _, decl := range strings.Split(style, ";") {
			name, value, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			props[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}
	return props
}

// inherit derives the paint state of an element from its parent's. Group
// opacity is approximated by multiplying it into every descendant.
func (p paint) inherit(props map[string]string) paint {
	if v, ok := props["fill"]; ok && v != "inherit" {
		p.fill = v
	}
	if v, ok := props["stroke"]; ok && v != "inherit" {
		p.stroke = v
	}
	if v, ok := props["color"]; ok && v != "inherit" {
		p.color = v
	}
	if v, ok := length(props["stroke-width"]); ok {
		p.strokeWidth = v
	}
	if v, ok := fraction(props["fill-opacity"]); ok {
		p.fillOpacity = v
	}
	if v, ok := fraction(props["stroke-opacity"]); ok {
		p.strokeOpacity = v
	}
	if v, ok := fraction(props["opacity"]); ok {
		p.opacity *= v
	}
	switch props["visibility"] {
	case "hidden", "collapse":
		p.visible = false
	case "visible":
		p.visible = true
	}
	return p
}

// resolve parses a paint value. ok is false for "none" and anything
// unparseable.
func (p paint) resolve(value string) (interp.Color, bool) {
	if value == "" || value == "none" || value == "transparent" {
		return interp.Color{}, false
	}
	if value == "currentColor" {
		value = p.color
	}
	return interp.ParseColor(value)
}

// length parses a number with an optional px unit.
func length(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "px"))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

// fraction parses an opacity as a number or percentage, clamped to [0,1].
func fraction(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	div := 1.0
	if strings.HasSuffix(s, "%") {
		s, div = strings.TrimSuffix(s, "%"), 100
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	v /= div
	switch {
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	}
	return v, true
}

func attrLength(props map[string]string, name string) float64 {
	v, _ := length(props[name])
	return v
}

// numbers splits a comma/space separated list of numbers.
func numbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}

// parseTransform reads an SVG transform list. Unknown functions are skipped.
func parseTransform(s string) matrix {
	m := identity
	for {
		s = strings.TrimLeft(s, " ,\t\n")
		open := strings.IndexByte(s, '(')
		if open < 0 {
			return m
		}
		closeIdx := strings.IndexByte(s[open:], ')')
		if closeIdx < 0 {
			return m
		}
		name := strings.TrimSpace(s[:open])
		args := numbers(s[open+1 : open+closeIdx])
		s = s[open+closeIdx+1:]

		switch {
		case name == "matrix" && len(args) == 6:
			m = m.mul(matrix{args[0], args[1], args[2], args[3], args[4], args[5]})
		case name == "translate" && len(args) >= 1:
			ty := 0.0
			if len(args) > 1 {
				ty = args[1]
			}
			m = m.mul(translate(args[0], ty))
		case name == "scale" && len(args) >= 1:
			sy := args[0]
			if len(args) > 1 {
				sy = args[1]
			}
			m = m.mul(scaling(args[0], sy))
		case name == "rotate" && len(args) == 1:
			m = m.mul(rotation(args[0]))
		case name == "rotate" && len(args) == 3:
			m = m.mul(translate(args[1], args[2])).mul(rotation(args[0])).mul(translate(-args[1], -args[2]))
		case name == "skewX" && len(args) == 1:
			m = m.mul(matrix{1, 0, tanDeg(args[0]), 1, 0, 0})
		case name == "skewY" && len(args) == 1:
			m = m.mul(matrix{1, tanDeg(args[0]), 0, 1, 0, 0})
		}
	}
}

// viewBoxTransform maps a viewBox onto a width x height viewport following
// preserveAspectRatio (align + meet/slice, or none).
func viewBoxTransform(viewBox, aspect string, width, height float64) (matrix, bool) {
	vb := numbers(viewBox)
	if len(vb) != 4 || vb[2] <= 0 || vb[3] <= 0 {
		return identity, false
	}
	sx, sy := width/vb[2], height/vb[3]

	fields := strings.Fields(aspect)
	align, mode := "xMidYMid", "meet"
	if len(fields) > 0 {
		align = fields[0]
	}
	if len(fields) > 1 {
		mode = fields[1]
	}
	if align == "none" {
		return scaling(sx, sy).mul(translate(-vb[0], -vb[1])), true
	}

	s := sx
	if (mode == "slice") == (sy > sx) {
		s = sy
	}
	tx, ty := -vb[0]*s, -vb[1]*s
	dw, dh := width-vb[2]*s, height-vb[3]*s
	switch {
	case strings.Contains(align, "xMid"):
		tx += dw / 2
	case strings.Contains(align, "xMax"):
		tx += dw
	}
	switch {
	case strings.Contains(align, "YMid"):
		ty += dh / 2
	case strings.Contains(align, "YMax"):
		ty += dh
	}
	return matrix{s, 0, 0, s, tx, ty}, true
}
