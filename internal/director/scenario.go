package director

import (
	"fmt"
	"log"
	"path/filepath"
	"strconv"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/keyframe"
	"github.com/ivlev/svgmotion/internal/raster"
	"github.com/ivlev/svgmotion/internal/scene"
)

// SceneVersion is written into new scene files.
const SceneVersion = "1.0"

// Scene is the YAML form of an animation: output settings plus the
// top-level node list in paint order.
type Scene struct {
	Version string        `yaml:"version"`
	Output  config.Output `yaml:"output"`
	Nodes   []NodeSpec    `yaml:"nodes"`

	dir string // directory of the scene file, for relative image paths
}

// NodeSpec describes one node and its subtree.
type NodeSpec struct {
	Selector  string              `yaml:"selector"` // kind#id.class
	Attrs     map[string]string   `yaml:"attrs,omitempty"`
	Keyframes []keyframe.Keyframe `yaml:"keyframes,omitempty"`
	Children  []NodeSpec          `yaml:"children,omitempty"`
	Image     string              `yaml:"image,omitempty"` // PNG/JPEG file embedded as href
	QRCode    *QRCodeSpec         `yaml:"qrcode,omitempty"`
}

// QRCodeSpec generates an <image> node showing a QR code.
type QRCodeSpec struct {
	Content string `yaml:"content"`
	Size    int    `yaml:"size"`
}

// Build creates the node trees described by the scene.
func (s *Scene) Build() ([]*scene.Node, error) {
	nodes := make([]*scene.Node, 0, len(s.Nodes))
	for i, spec := range s.Nodes {
		n, err := s.build(spec, fmt.Sprintf("nodes[%d]", i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (s *Scene) build(spec NodeSpec, path string) (*scene.Node, error) {
	var n *scene.Node
	if spec.QRCode != nil {
		sel := scene.FromSelector(spec.Selector)
		qr, err := scene.NewQRCode(sel.ID(), spec.QRCode.Content, spec.QRCode.Size)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		n = qr.SetClassName(sel.ClassName())
	} else {
		n = scene.FromSelector(spec.Selector)
		if n.Kind() == "" {
			return nil, fmt.Errorf("%s: selector %q has no element kind", path, spec.Selector)
		}
	}

	if spec.Image != "" {
		p := spec.Image
		if !filepath.IsAbs(p) && s.dir != "" {
			p = filepath.Join(s.dir, p)
		}
		uri, w, h, err := raster.DataURI(p)
		if err != nil {
			return nil, fmt.Errorf("%s: image: %w", path, err)
		}
		n.SetAttr("href", uri)
		n.SetAttr("width", strconv.Itoa(w))
		n.SetAttr("height", strconv.Itoa(h))
	}

	for _, name := range sortedNames(spec.Attrs) {
		n.SetAttr(name, spec.Attrs[name])
	}
	for i, kf := range spec.Keyframes {
		if kf.Attrs == nil {
			kf.Attrs = map[string]string{}
		}
		if err := n.AddKeyframe(kf); err != nil {
			return nil, fmt.Errorf("%s.keyframes[%d]: %w", path, i, err)
		}
	}
	if !n.KeyframeStore().Consistent() {
		log.Printf("[!] %s: keyframes declare different attributes; each segment animates only the attributes both ends share", path)
	}
	for i, c := range spec.Children {
		child, err := s.build(c, fmt.Sprintf("%s.children[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if err := n.AppendChild(child); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return n, nil
}

// FromNodes captures nodes and output settings as a Scene.
func FromNodes(out config.Output, nodes []*scene.Node) *Scene {
	s := &Scene{Version: SceneVersion, Output: out}
	for _, n := range nodes {
		s.Nodes = append(s.Nodes, specOf(n))
	}
	return s
}

func specOf(n *scene.Node) NodeSpec {
	sel := n.Kind()
	if n.ID() != "" {
		sel += "#" + n.ID()
	}
	for _, c := range n.Classes() {
		sel += "." + c
	}
	spec := NodeSpec{Selector: sel}
	if attrs := n.Attrs(); len(attrs) > 0 {
		spec.Attrs = make(map[string]string, len(attrs))
		for _, a := range attrs {
			spec.Attrs[a.Name] = a.Value
		}
	}
	spec.Keyframes = n.Keyframes()
	for _, c := range n.Children() {
		spec.Children = append(spec.Children, specOf(c))
	}
	return spec
}
