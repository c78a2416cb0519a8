package scene

import "github.com/ivlev/svgmotion/internal/selector"

// QuerySelector returns the first descendant (pre-order) matching sel, or nil.
// n itself is not considered.
func (n *Node) QuerySelector(sel string) *Node {
	s := selector.Parse(sel)
	var found *Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if s.Match(d.kind, d.id, d.className) {
				found = d
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// QuerySelectorAll returns every descendant matching sel in pre-order.
func (n *Node) QuerySelectorAll(sel string) []*Node {
	s := selector.Parse(sel)
	var out []*Node
	for _, c := range n.children {
		c.Walk(func(d *Node) bool {
			if s.Match(d.kind, d.id, d.className) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}
