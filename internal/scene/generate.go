package scene

import (
	"sort"

	"github.com/ivlev/svgmotion/internal/interp"
	"github.com/ivlev/svgmotion/internal/svg"
)

// GenerateAt evaluates the subtree at time t and returns the rendered element
// tree. t is clamped to [0,1] and pathQuality is floored at 1. Static
// attributes are written first, then interpolated ones in name order, which
// override static values of the same name. Children follow in list order.
func (n *Node) GenerateAt(t float64, pathQuality int, ip interp.Interpolator) *svg.Element {
	if t < 0 || t != t {
		t = 0
	} else if t > 1 {
		t = 1
	}
	if pathQuality < 1 {
		pathQuality = 1
	}
	if ip == nil {
		ip = interp.New("")
	}
	return n.generate(t, pathQuality, ip)
}

func (n *Node) generate(t float64, q int, ip interp.Interpolator) *svg.Element {
	el := svg.NewElement(n.kind)
	if n.id != "" {
		el.Set("id", n.id)
	}
	if n.className != "" {
		el.Set("class", n.className)
	}
	for _, a := range n.attrs {
		el.Set(a.Name, a.Value)
	}

	values := n.keyframes.Evaluate(t, ip, q)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		el.Set(name, values[name])
	}

	for _, c := range n.children {
		el.Append(c.generate(t, q, ip))
	}
	return el
}
