package interp

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ColorSpace selects how colours are blended.
type ColorSpace string

const (
	LinearRGB ColorSpace = "linear-rgb"
	RGB       ColorSpace = "rgb"
	Lab       ColorSpace = "lab"
	HCL       ColorSpace = "hcl"
)

// ValidColorSpace reports whether cs is a known colour space.
func ValidColorSpace(cs ColorSpace) bool {
	switch cs {
	case LinearRGB, RGB, Lab, HCL:
		return true
	}
	return false
}

// Color is a parsed paint value with straight alpha.
type Color struct {
	colorful.Color
	Alpha float64
}

// ParseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and SVG
// colour keywords. "none", "transparent" and url() paints are not colours.
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" || s == "transparent" {
		return Color{}, false
	}

	if strings.HasPrefix(s, "#") {
		switch len(s) {
		case 4, 7:
			c, err := colorful.Hex(s)
			if err != nil {
				return Color{}, false
			}
			return Color{Color: c, Alpha: 1}, true
		case 9:
			c, err := colorful.Hex(s[:7])
			if err != nil {
				return Color{}, false
			}
			a, err := strconv.ParseUint(s[7:], 16, 8)
			if err != nil {
				return Color{}, false
			}
			return Color{Color: c, Alpha: float64(a) / 255}, true
		}
		return Color{}, false
	}

	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		return parseRGBFunc(s)
	}

	if rgba, ok := colornames.Map[s]; ok {
		c, _ := colorful.MakeColor(rgba)
		return Color{Color: c, Alpha: 1}, true
	}
	return Color{}, false
}

func parseRGBFunc(s string) (Color, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, false
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, false
	}

	var ch [3]float64
	for i := 0; i < 3; i++ {
		p := parts[i]
		scale := 255.0
		if strings.HasSuffix(p, "%") {
			p, scale = strings.TrimSuffix(p, "%"), 100
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Color{}, false
		}
		ch[i] = clamp01(v / scale)
	}

	alpha := 1.0
	if len(parts) == 4 {
		p := parts[3]
		scale := 1.0
		if strings.HasSuffix(p, "%") {
			p, scale = strings.TrimSuffix(p, "%"), 100
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return Color{}, false
		}
		alpha = clamp01(v / scale)
	}
	return Color{Color: colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, Alpha: alpha}, true
}

// String formats the colour as #rrggbb, or rgba() when translucent.
func (c Color) String() string {
	if c.Alpha >= 1 {
		return c.Clamped().Hex()
	}
	r, g, b := c.Clamped().RGB255()
	return fmt.Sprintf("rgba(%d,%d,%d,%s)", r, g, b, strconv.FormatFloat(roundTo(c.Alpha, 3), 'f', -1, 64))
}

// RGBA8 converts to a premultiplied color.RGBA scaled by opacity.
func (c Color) RGBA8(opacity float64) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	a := clamp01(c.Alpha * opacity)
	return color.RGBA{
		R: uint8(float64(r)*a + 0.5),
		G: uint8(float64(g)*a + 0.5),
		B: uint8(float64(b)*a + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// Blend mixes two colours at t in the given space.
func Blend(a, b Color, t float64, cs ColorSpace) Color {
	var c colorful.Color
	switch cs {
	case RGB:
		c = a.BlendRgb(b.Color, t)
	case Lab:
		c = a.BlendLab(b.Color, t)
	case HCL:
		c = a.BlendHcl(b.Color, t)
	default:
		c = blendLinearRGB(a.Color, b.Color, t)
	}
	return Color{Color: c, Alpha: a.Alpha + (b.Alpha-a.Alpha)*t}
}

// blendLinearRGB mixes in linear light, so midpoints keep their brightness.
func blendLinearRGB(a, b colorful.Color, t float64) colorful.Color {
	r1, g1, b1 := a.LinearRgb()
	r2, g2, b2 := b.LinearRgb()
	return colorful.LinearRgb(r1+t*(r2-r1), g1+t*(g2-g1), b1+t*(b2-b1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
