// Package svg holds the output element tree produced by scene evaluation and
// its deterministic XML form.
package svg

// Namespace is the SVG XML namespace.
const Namespace = "http://www.w3.org/2000/svg"

// Attr is a single attribute. Order is preserved on output.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the rendered tree.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	Text     string
}

// NewElement creates an element with the given tag.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Set assigns an attribute, replacing an existing value in place.
func (e *Element) Set(name, value string) *Element {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return e
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Get returns an attribute value.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Remove deletes an attribute if present.
func (e *Element) Remove(name string) {
	for i, a := range e.Attrs {
		if a.Name == name {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// Append adds children in order.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Find returns the first descendant (pre-order) with the given id.
func (e *Element) Find(id string) *Element {
	for _, c := range e.Children {
		if v, ok := c.Get("id"); ok && v == id {
			return c
		}
		if found := c.Find(id); found != nil {
			return found
		}
	}
	return nil
}
