// Package scene implements the hierarchical scene graph: nodes with an
// element kind, identity, static attributes, a keyframe store and ordered
// children.
package scene

import (
	"strings"

	"github.com/ivlev/svgmotion/internal/errs"
	"github.com/ivlev/svgmotion/internal/keyframe"
	"github.com/ivlev/svgmotion/internal/selector"
	"github.com/ivlev/svgmotion/internal/svg"
)

// Node is a scene graph element. A node exclusively owns its children; the
// parent pointer is a non-owning back-reference used for cycle checks and
// lookups only.
//
// Nodes are not safe for concurrent mutation. The director renders from a
// deep copy, so callers may keep editing between renders.
type Node struct {
	kind      string
	id        string
	className string
	attrs     []svg.Attr

	keyframes keyframe.Store

	parent   *Node
	children []*Node
}

// New creates an empty node of the given element kind.
func New(kind string) *Node {
	return &Node{kind: kind}
}

// FromSelector creates a node from a compact "kind#id.class" description.
func FromSelector(s string) *Node {
	sel := selector.Parse(s)
	return &Node{kind: sel.Kind, id: sel.ID, className: sel.ClassName()}
}

// Kind returns the element kind.
func (n *Node) Kind() string { return n.kind }

// ID returns the node id.
func (n *Node) ID() string { return n.id }

// SetID sets the node id.
func (n *Node) SetID(id string) *Node {
	n.id = id
	return n
}

// ClassName returns the space-separated class tokens.
func (n *Node) ClassName() string { return n.className }

// SetClassName replaces the class tokens. Whitespace is normalized.
func (n *Node) SetClassName(className string) *Node {
	n.className = strings.Join(strings.Fields(className), " ")
	return n
}

// Classes returns the class tokens.
func (n *Node) Classes() []string {
	return strings.Fields(n.className)
}

// SetAttr sets a static attribute. Keyframed values of the same name take
// precedence when the node is evaluated.
func (n *Node) SetAttr(name, value string) *Node {
	for i := range n.attrs {
		if n.attrs[i].Name == name {
			n.attrs[i].Value = value
			return n
		}
	}
	n.attrs = append(n.attrs, svg.Attr{Name: name, Value: value})
	return n
}

// Attr returns a static attribute.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// RemoveAttr deletes a static attribute.
func (n *Node) RemoveAttr(name string) {
	for i, a := range n.attrs {
		if a.Name == name {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			return
		}
	}
}

// Attrs returns a copy of the static attributes in insertion order.
func (n *Node) Attrs() []svg.Attr {
	out := make([]svg.Attr, len(n.attrs))
	copy(out, n.attrs)
	return out
}

// AddKeyframe inserts a keyframe. See keyframe.Store.Add.
func (n *Node) AddKeyframe(kf keyframe.Keyframe) error {
	return n.keyframes.Add(kf)
}

// RemoveKeyframe removes the keyframe at index i.
func (n *Node) RemoveKeyframe(i int) error {
	return n.keyframes.RemoveAt(i)
}

// Keyframes returns the keyframes in ascending time order.
func (n *Node) Keyframes() []keyframe.Keyframe {
	return n.keyframes.All()
}

// KeyframeStore exposes the store for evaluation.
func (n *Node) KeyframeStore() *keyframe.Store {
	return &n.keyframes
}

// --- Tree manipulation ---

// AppendChild adds child as the last child. A child that already has a
// parent is detached from it first. Adding n itself or one of its ancestors
// is rejected.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertChild(child, len(n.children))
}

// InsertChild inserts child at index. Same reparenting and cycle rules as
// AppendChild.
func (n *Node) InsertChild(child *Node, index int) error {
	if child == nil {
		return errs.New(errs.Structure, "InsertChild", "nil child")
	}
	if isAncestor(child, n) {
		return errs.New(errs.Structure, "InsertChild", "adding %s under %s would create a cycle", child.label(), n.label())
	}
	if index < 0 || index > len(n.children) {
		return errs.New(errs.Structure, "InsertChild", "index %d out of range [0,%d]", index, len(n.children))
	}

	if child.parent != nil {
		old := child.parent
		i := old.indexOf(child)
		old.removeAt(i)
		// Reinserting under the same parent after the old slot shifts by one.
		if old == n && i < index {
			index--
		}
	}

	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	return nil
}

// RemoveChild detaches child. The detached subtree is owned by the caller.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.parent != n {
		return errs.New(errs.Structure, "RemoveChild", "node is not a child of %s", n.label())
	}
	n.removeAt(n.indexOf(child))
	child.parent = nil
	return nil
}

// RemoveChildAt detaches and returns the child at index.
func (n *Node) RemoveChildAt(index int) (*Node, error) {
	if index < 0 || index >= len(n.children) {
		return nil, errs.New(errs.Structure, "RemoveChildAt", "index %d out of range [0,%d)", index, len(n.children))
	}
	child := n.children[index]
	n.removeAt(index)
	child.parent = nil
	return child, nil
}

// RemoveFromParent detaches n. No-op for a root.
func (n *Node) RemoveFromParent() {
	if n.parent == nil {
		return
	}
	_ = n.parent.RemoveChild(n)
}

// Parent returns the parent or nil.
func (n *Node) Parent() *Node { return n.parent }

// Root walks parent links to the top of the tree.
func (n *Node) Root() *Node {
	r := n
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at index.
func (n *Node) ChildAt(index int) *Node { return n.children[index] }

// Walk visits n and its descendants in pre-order. Returning false from fn
// stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the subtree rooted at n. The copy has no parent.
func (n *Node) Clone() *Node {
	c := &Node{
		kind:      n.kind,
		id:        n.id,
		className: n.className,
		attrs:     n.Attrs(),
		keyframes: *n.keyframes.Clone(),
	}
	c.children = make([]*Node, len(n.children))
	for i, child := range n.children {
		cc := child.Clone()
		cc.parent = c
		c.children[i] = cc
	}
	return c
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (n *Node) removeAt(i int) {
	copy(n.children[i:], n.children[i+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
}

func (n *Node) label() string {
	s := selector.Selector{Kind: n.kind, ID: n.id, Classes: n.Classes()}.String()
	if s == "" {
		return "<anonymous>"
	}
	return s
}

// isAncestor reports whether a is n or one of n's ancestors.
func isAncestor(a, n *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}
