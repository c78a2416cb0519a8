package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const xlinkNamespace = "http://www.w3.org/1999/xlink"

// Document wraps children in an <svg> root sized width x height.
func Document(width, height int, children ...*Element) *Element {
	root := NewElement("svg")
	root.Set("xmlns", Namespace)
	root.Set("width", strconv.Itoa(width))
	root.Set("height", strconv.Itoa(height))
	root.Set("viewBox", fmt.Sprintf("0 0 %d %d", width, height))
	return root.Append(children...)
}

// Marshal renders e as indented XML with an XML declaration. Attribute order
// is insertion order, so output is byte-stable for a given tree.
func Marshal(e *Element) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if err := write(&buf, e, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func write(buf *bytes.Buffer, e *Element, depth int) error {
	if e.Name == "" {
		return fmt.Errorf("svg: element without a name at depth %d", depth)
	}
	indent := strings.Repeat("  ", depth)
	buf.WriteString(indent)
	buf.WriteByte('<')
	buf.WriteString(e.Name)
	for _, a := range e.Attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.Name)
		buf.WriteString(`="`)
		if err := xml.EscapeText(buf, []byte(a.Value)); err != nil {
			return err
		}
		buf.WriteByte('"')
	}

	if len(e.Children) == 0 && e.Text == "" {
		buf.WriteString("/>\n")
		return nil
	}
	buf.WriteByte('>')
	if e.Text != "" {
		if err := xml.EscapeText(buf, []byte(e.Text)); err != nil {
			return err
		}
	}
	if len(e.Children) > 0 {
		buf.WriteByte('\n')
		for _, c := range e.Children {
			if err := write(buf, c, depth+1); err != nil {
				return err
			}
		}
		buf.WriteString(indent)
	}
	buf.WriteString("</")
	buf.WriteString(e.Name)
	buf.WriteString(">\n")
	return nil
}

// Parse reads an element tree. Namespaces are dropped from names except for
// the root xmlns attribute, which is kept as written.
func Parse(data []byte) (*Element, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var stack []*Element
	var root *Element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("svg: parse: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := NewElement(t.Name.Local)
			for _, a := range t.Attr {
				name := a.Name.Local
				switch {
				case a.Name.Space == "xmlns":
					name = "xmlns:" + name
				case a.Name.Space == xlinkNamespace || a.Name.Space == "xlink":
					name = "xlink:" + name
				case a.Name.Space != "" && a.Name.Space != Namespace:
					name = a.Name.Space + ":" + name
				}
				el.Set(name, a.Value)
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("svg: parse: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Append(el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				if text := strings.TrimSpace(string(t)); text != "" {
					stack[len(stack)-1].Text += text
				}
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("svg: parse: empty document")
	}
	return root, nil
}
