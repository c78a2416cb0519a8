package svg

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point is a 2D coordinate in user space.
type Point struct {
	X, Y float64
}

// Command is one path data command with exactly its own argument count.
// Implicit repetitions ("L 1 2 3 4") are split into separate commands.
type Command struct {
	Op   byte
	Args []float64
}

var argCount = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0,
}

func upper(op byte) byte {
	if op >= 'a' && op <= 'z' {
		return op - 'a' + 'A'
	}
	return op
}

// ParsePathData tokenizes the d attribute of a <path>.
func ParsePathData(d string) ([]Command, error) {
	var cmds []Command
	var op byte
	var args []float64

	flush := func() error {
		if op == 0 {
			if len(args) > 0 {
				return fmt.Errorf("svg: path data starts with a number")
			}
			return nil
		}
		n := argCount[upper(op)]
		if n == 0 {
			if len(args) > 0 {
				return fmt.Errorf("svg: %c takes no arguments", op)
			}
			cmds = append(cmds, Command{Op: op})
			return nil
		}
		if len(args) == 0 || len(args)%n != 0 {
			return fmt.Errorf("svg: %c expects a multiple of %d arguments, got %d", op, n, len(args))
		}
		cur := op
		for i := 0; i < len(args); i += n {
			a := make([]float64, n)
			copy(a, args[i:i+n])
			cmds = append(cmds, Command{Op: cur, Args: a})
			// Extra coordinate pairs after a moveto are implicit linetos.
			if cur == 'M' {
				cur = 'L'
			} else if cur == 'm' {
				cur = 'l'
			}
		}
		return nil
	}

	i := 0
	for i < len(d) {
		c := d[i]
		switch {
		case c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r':
			i++
		case strings.IndexByte("MmLlHhVvCcSsQqTtAaZz", c) >= 0:
			if err := flush(); err != nil {
				return nil, err
			}
			op = c
			args = args[:0]
			i++
		default:
			v, n, err := scanNumber(d[i:])
			if err != nil {
				return nil, err
			}
			args = append(args, v)
			i += n
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// scanNumber reads one number from the front of s and returns its length.
func scanNumber(s string) (float64, int, error) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits, dot := false, false
	for i < len(s) {
		c := s[i]
		if c >= '0' && c <= '9' {
			digits = true
			i++
			continue
		}
		if c == '.' && !dot {
			dot = true
			i++
			continue
		}
		break
	}
	if digits && i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && s[j] >= '0' && s[j] <= '9' {
			for j < len(s) && s[j] >= '0' && s[j] <= '9' {
				j++
			}
			i = j
		}
	}
	if !digits {
		return 0, 0, fmt.Errorf("svg: unexpected %q in path data", s[:1])
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("svg: bad number %q: %w", s[:i], err)
	}
	return v, i, nil
}

// FormatPathData serializes commands back into d attribute form.
func FormatPathData(cmds []Command) string {
	var b strings.Builder
	for i, c := range cmds {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(c.Op)
		for _, a := range c.Args {
			b.WriteByte(' ')
			b.WriteString(FormatNumber(a))
		}
	}
	return b.String()
}

// FormatNumber prints v rounded to four decimals without trailing zeros.
func FormatNumber(v float64) string {
	r := math.Round(v*1e4) / 1e4
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// SegmentKind identifies an absolute drawing segment.
type SegmentKind int

const (
	MoveTo SegmentKind = iota
	LineTo
	QuadTo
	CubeTo
	Close
)

// Segment is an absolute path segment. The end point is always the last
// used entry of Pts: MoveTo/LineTo use Pts[0], QuadTo Pts[0..1], CubeTo Pts[0..2].
type Segment struct {
	Kind SegmentKind
	Pts  [3]Point
}

// End returns the segment's end point.
func (s Segment) End() Point {
	switch s.Kind {
	case QuadTo:
		return s.Pts[1]
	case CubeTo:
		return s.Pts[2]
	default:
		return s.Pts[0]
	}
}

// Segments converts commands into absolute move/line/quad/cube/close segments.
// H and V become lines, S and T are expanded by control point reflection, and
// arcs become cubic approximations.
func Segments(cmds []Command) []Segment {
	var out []Segment
	var cur, start, lastCtrl Point
	var prevOp byte

	for _, c := range cmds {
		op := upper(c.Op)
		rel := c.Op != op
		abs := func(x, y float64) Point {
			if rel {
				return Point{cur.X + x, cur.Y + y}
			}
			return Point{x, y}
		}
		a := c.Args

		switch op {
		case 'M':
			cur = abs(a[0], a[1])
			start = cur
			out = append(out, Segment{Kind: MoveTo, Pts: [3]Point{cur}})
		case 'L':
			cur = abs(a[0], a[1])
			out = append(out, Segment{Kind: LineTo, Pts: [3]Point{cur}})
		case 'H':
			x := a[0]
			if rel {
				x += cur.X
			}
			cur = Point{x, cur.Y}
			out = append(out, Segment{Kind: LineTo, Pts: [3]Point{cur}})
		case 'V':
			y := a[0]
			if rel {
				y += cur.Y
			}
			cur = Point{cur.X, y}
			out = append(out, Segment{Kind: LineTo, Pts: [3]Point{cur}})
		case 'C':
			c1, c2, end := abs(a[0], a[1]), abs(a[2], a[3]), abs(a[4], a[5])
			out = append(out, Segment{Kind: CubeTo, Pts: [3]Point{c1, c2, end}})
			lastCtrl, cur = c2, end
		case 'S':
			c1 := cur
			if prevOp == 'C' || prevOp == 'S' {
				c1 = Point{2*cur.X - lastCtrl.X, 2*cur.Y - lastCtrl.Y}
			}
			c2, end := abs(a[0], a[1]), abs(a[2], a[3])
			out = append(out, Segment{Kind: CubeTo, Pts: [3]Point{c1, c2, end}})
			lastCtrl, cur = c2, end
		case 'Q':
			c1, end := abs(a[0], a[1]), abs(a[2], a[3])
			out = append(out, Segment{Kind: QuadTo, Pts: [3]Point{c1, end}})
			lastCtrl, cur = c1, end
		case 'T':
			c1 := cur
			if prevOp == 'Q' || prevOp == 'T' {
				c1 = Point{2*cur.X - lastCtrl.X, 2*cur.Y - lastCtrl.Y}
			}
			end := abs(a[0], a[1])
			out = append(out, Segment{Kind: QuadTo, Pts: [3]Point{c1, end}})
			lastCtrl, cur = c1, end
		case 'A':
			end := abs(a[5], a[6])
			out = append(out, arcSegments(cur, a[0], a[1], a[2], a[3] != 0, a[4] != 0, end)...)
			cur = end
		case 'Z':
			out = append(out, Segment{Kind: Close})
			cur = start
		}
		prevOp = op
	}
	return out
}

// arcSegments approximates an elliptical arc with cubic Béziers, one per
// quarter turn at most.
func arcSegments(from Point, rx, ry, phiDeg float64, large, sweep bool, to Point) []Segment {
	if from == to {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []Segment{{Kind: LineTo, Pts: [3]Point{to}}}
	}

	phi := phiDeg * math.Pi / 180
	sinPhi, cosPhi := math.Sin(phi), math.Cos(phi)

	dx, dy := (from.X-to.X)/2, (from.Y-to.Y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	lambda := (x1*x1)/(rx*rx) + (y1*y1)/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx, ry = rx*s, ry*s
	}

	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cx1 := coef * rx * y1 / ry
	cy1 := -coef * ry * x1 / rx

	cx := cosPhi*cx1 - sinPhi*cy1 + (from.X+to.X)/2
	cy := sinPhi*cx1 + cosPhi*cy1 + (from.Y+to.Y)/2

	angle := func(ux, uy, vx, vy float64) float64 {
		return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	}
	theta1 := angle(1, 0, (x1-cx1)/rx, (y1-cy1)/ry)
	delta := angle((x1-cx1)/rx, (y1-cy1)/ry, (-x1-cx1)/rx, (-y1-cy1)/ry)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	step := delta / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	point := func(theta float64) (Point, Point) {
		cosT, sinT := math.Cos(theta), math.Sin(theta)
		p := Point{
			X: cx + rx*cosT*cosPhi - ry*sinT*sinPhi,
			Y: cy + rx*cosT*sinPhi + ry*sinT*cosPhi,
		}
		d := Point{
			X: -rx*sinT*cosPhi - ry*cosT*sinPhi,
			Y: -rx*sinT*sinPhi + ry*cosT*cosPhi,
		}
		return p, d
	}

	segs := make([]Segment, 0, n)
	theta := theta1
	p0, d0 := point(theta)
	for i := 0; i < n; i++ {
		theta += step
		p1, d1 := point(theta)
		if i == n-1 {
			p1 = to
		}
		segs = append(segs, Segment{Kind: CubeTo, Pts: [3]Point{
			{p0.X + k*d0.X, p0.Y + k*d0.Y},
			{p1.X - k*d1.X, p1.Y - k*d1.Y},
			p1,
		}})
		p0, d0 = p1, d1
	}
	return segs
}

// Flatten turns segments into polylines, one per subpath, subdividing each
// curve into steps straight pieces. The bool reports whether a subpath closed.
func Flatten(segs []Segment, steps int) ([][]Point, []bool) {
	if steps < 1 {
		steps = 1
	}
	var paths [][]Point
	var closed []bool
	var cur []Point
	var pen Point

	finish := func(isClosed bool) {
		if len(cur) > 0 {
			paths = append(paths, cur)
			closed = append(closed, isClosed)
		}
		cur = nil
	}

	for _, s := range segs {
		switch s.Kind {
		case MoveTo:
			finish(false)
			pen = s.Pts[0]
			cur = []Point{pen}
		case LineTo:
			if cur == nil {
				cur = []Point{pen}
			}
			pen = s.Pts[0]
			cur = append(cur, pen)
		case QuadTo:
			if cur == nil {
				cur = []Point{pen}
			}
			p0 := pen
			for i := 1; i <= steps; i++ {
				t := float64(i) / float64(steps)
				mt := 1 - t
				cur = append(cur, Point{
					X: mt*mt*p0.X + 2*mt*t*s.Pts[0].X + t*t*s.Pts[1].X,
					Y: mt*mt*p0.Y + 2*mt*t*s.Pts[0].Y + t*t*s.Pts[1].Y,
				})
			}
			pen = s.Pts[1]
		case CubeTo:
			if cur == nil {
				cur = []Point{pen}
			}
			p0 := pen
			for i := 1; i <= steps; i++ {
				t := float64(i) / float64(steps)
				mt := 1 - t
				cur = append(cur, Point{
					X: mt*mt*mt*p0.X + 3*mt*mt*t*s.Pts[0].X + 3*mt*t*t*s.Pts[1].X + t*t*t*s.Pts[2].X,
					Y: mt*mt*mt*p0.Y + 3*mt*mt*t*s.Pts[0].Y + 3*mt*t*t*s.Pts[1].Y + t*t*t*s.Pts[2].Y,
				})
			}
			pen = s.Pts[2]
		case Close:
			if len(cur) > 0 {
				pen = cur[0]
			}
			finish(true)
		}
	}
	finish(false)
	return paths, closed
}
