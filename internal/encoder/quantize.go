package encoder

import (
	"image"
	"image/color"
	"sort"

	xdraw "golang.org/x/image/draw"
)

// alphaThreshold separates pixels treated as transparent from opaque ones.
const alphaThreshold = 128

type colorBox struct {
	px []color.RGBA
}

// channelRange returns the widest channel (0=R, 1=G, 2=B) and its spread.
func (b colorBox) channelRange() (int, int) {
	lo := [3]uint8{255, 255, 255}
	var hi [3]uint8
	for _, p := range b.px {
		for i, v := range [3]uint8{p.R, p.G, p.B} {
			lo[i] = min(lo[i], v)
			hi[i] = max(hi[i], v)
		}
	}
	best, spread := 0, -1
	for i := range lo {
		if d := int(hi[i]) - int(lo[i]); d > spread {
			best, spread = i, d
		}
	}
	return best, spread
}

func (b colorBox) average() color.RGBA {
	var r, g, bl int
	for _, p := range b.px {
		r += int(p.R)
		g += int(p.G)
		bl += int(p.B)
	}
	n := len(b.px)
	return color.RGBA{R: uint8((r + n/2) / n), G: uint8((g + n/2) / n), B: uint8((bl + n/2) / n), A: 255}
}

// medianCut builds a palette of at most n colours from sample pixels by
// repeatedly splitting the box with the widest channel at its median.
func medianCut(sample []color.RGBA, n int) color.Palette {
	if len(sample) == 0 || n < 1 {
		return color.Palette{color.RGBA{A: 255}}
	}
	boxes := []colorBox{{px: sample}}
	for len(boxes) < n {
		idx, ch, spread := -1, 0, 0
		for i, b := range boxes {
			if len(b.px) < 2 {
				continue
			}
			c, s := b.channelRange()
			if s > spread {
				idx, ch, spread = i, c, s
			}
		}
		if idx < 0 {
			break
		}
		px := boxes[idx].px
		sort.Slice(px, func(i, j int) bool { return channel(px[i], ch) < channel(px[j], ch) })
		mid := len(px) / 2
		boxes[idx] = colorBox{px: px[:mid]}
		boxes = append(boxes, colorBox{px: px[mid:]})
	}

	seen := make(map[color.RGBA]bool, len(boxes))
	pal := make(color.Palette, 0, len(boxes))
	for _, b := range boxes {
		c := b.average()
		if !seen[c] {
			seen[c] = true
			pal = append(pal, c)
		}
	}
	return pal
}

func channel(c color.RGBA, ch int) uint8 {
	switch ch {
	case 0:
		return c.R
	case 1:
		return c.G
	}
	return c.B
}

// quantizer maps flattened RGBA frames to paletted images.
type quantizer struct {
	step        int
	dither      bool
	transparent *color.RGBA
}

// isClear reports whether a pixel maps to the transparent index.
func (q quantizer) isClear(p color.RGBA) bool {
	if q.transparent == nil {
		return false
	}
	if p.A < alphaThreshold {
		return true
	}
	t := q.transparent
	return p.R == t.R && p.G == t.G && p.B == t.B
}

// sample collects every step-th opaque pixel.
func (q quantizer) sample(img *image.RGBA) []color.RGBA {
	step := max(q.step, 1)
	n := len(img.Pix) / 4
	out := make([]color.RGBA, 0, n/step+1)
	for i := 0; i < n; i += step {
		p := color.RGBA{R: img.Pix[i*4], G: img.Pix[i*4+1], B: img.Pix[i*4+2], A: img.Pix[i*4+3]}
		if q.isClear(p) {
			continue
		}
		p.A = 255
		out = append(out, p)
	}
	return out
}

// quantize builds a per-frame palette and maps the frame onto it. With a
// transparent colour set, palette index 0 is reserved for it.
func (q quantizer) quantize(img *image.RGBA) *image.Paletted {
	size := 256
	var pal color.Palette
	if q.transparent != nil {
		size--
		t := *q.transparent
		t.A = 0
		pal = color.Palette{t}
	}
	pal = append(pal, medianCut(q.sample(img), size)...)

	b := img.Bounds()
	dst := image.NewPaletted(b, pal)
	if q.dither {
		xdraw.FloydSteinberg.Draw(dst, b, img, b.Min)
	} else {
		cache := make(map[color.RGBA]uint8)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := img.RGBAAt(x, y)
				idx, ok := cache[c]
				if !ok {
					idx = uint8(pal.Index(c))
					cache[c] = idx
				}
				dst.SetColorIndex(x, y, idx)
			}
		}
	}

	if q.transparent != nil {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if q.isClear(img.RGBAAt(x, y)) {
					dst.SetColorIndex(x, y, 0)
				} else if dst.ColorIndexAt(x, y) == 0 {
					dst.SetColorIndex(x, y, uint8(nearestOpaque(pal, img.RGBAAt(x, y))))
				}
			}
		}
	}
	return dst
}

// nearestOpaque finds the closest palette entry other than index 0.
func nearestOpaque(pal color.Palette, c color.RGBA) int {
	if len(pal) < 2 {
		return 0
	}
	return 1 + pal[1:].Index(c)
}
