package director

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/keyframe"
	"github.com/ivlev/svgmotion/internal/scene"
	"github.com/ivlev/svgmotion/internal/svg"
)

func kf(t float64, ease string, attrs ...string) keyframe.Keyframe {
	m := map[string]string{}
	for i := 0; i+1 < len(attrs); i += 2 {
		m[attrs[i]] = attrs[i+1]
	}
	return keyframe.Keyframe{T: t, Attrs: m, Ease: ease}
}

func composeConfig() config.Output {
	o := config.DefaultOutput()
	o.Width, o.Height = 100, 50
	o.Duration = 2
	return o
}

func renderSVG(t *testing.T, cfg config.Output, nodes ...*scene.Node) string {
	t.Helper()
	d, _, _, calls := newTestDirector(t, cfg)
	for _, n := range nodes {
		require.NoError(t, d.AddNode(n))
	}
	rec := &recorder{}
	art, err := d.Render(context.Background(), "svg", rec)
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", art.ContentType)
	assert.Equal(t, 0, *calls, "declarative export needs no encoder")
	assert.Equal(t, []State{Idle, Composing, Finished}, rec.states)
	return string(art.Data)
}

func TestDeclarativeGolden(t *testing.T) {
	box := scene.FromSelector("rect#box.shape")
	box.SetAttr("width", "10").SetAttr("height", "10")
	require.NoError(t, box.AddKeyframe(kf(0, "", "x", "0", "fill", "red")))
	require.NoError(t, box.AddKeyframe(kf(1, "", "x", "90", "fill", "blue")))

	dot := scene.FromSelector("circle#dot").SetAttr("r", "5")
	require.NoError(t, dot.AddKeyframe(kf(0.5, "", "cx", "50")))

	out := renderSVG(t, composeConfig(), box, dot)
	assert.Contains(t, out, `values="red;blue" keyTimes="0;1"`)

	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "declarative", []byte(out))
}

func TestDeclarativeOutputParses(t *testing.T) {
	n := scene.FromSelector("rect#r")
	require.NoError(t, n.AddKeyframe(kf(0, "", "width", "1")))
	require.NoError(t, n.AddKeyframe(kf(1, "", "width", "2")))
	out := renderSVG(t, composeConfig(), n)

	root, err := svg.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "svg", root.Name)
	require.Len(t, root.Children, 1)
	require.Len(t, root.Children[0].Children, 1)
	assert.Equal(t, "animate", root.Children[0].Children[0].Name)
}

func TestDeclarativeSingleSVGRoot(t *testing.T) {
	doc := scene.FromSelector("svg#stage")
	doc.SetAttr("xmlns", "http://example.com/ignored")
	require.NoError(t, doc.AppendChild(scene.FromSelector("circle#c").SetAttr("r", "3")))

	root := svgRoot(t, renderSVG(t, composeConfig(), doc))
	id, _ := root.Get("id")
	assert.Equal(t, "stage", id)
	ns, _ := root.Get("xmlns")
	assert.Equal(t, svg.Namespace, ns)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "circle", root.Children[0].Name)
}

func TestDeclarativeViewBoxAndAspect(t *testing.T) {
	cfg := composeConfig()
	cfg.ViewBox = "0 0 10 5"
	cfg.PreserveAspectRatio = "xMidYMid slice"
	root := svgRoot(t, renderSVG(t, cfg, scene.New("rect")))
	vb, _ := root.Get("viewBox")
	assert.Equal(t, "0 0 10 5", vb)
	par, _ := root.Get("preserveAspectRatio")
	assert.Equal(t, "xMidYMid slice", par)
}

func TestDeclarativeSplineEasing(t *testing.T) {
	n := scene.New("rect")
	require.NoError(t, n.AddKeyframe(kf(0, "outQuad", "x", "0")))
	require.NoError(t, n.AddKeyframe(kf(0.5, "outBounce", "x", "5")))
	require.NoError(t, n.AddKeyframe(kf(1, "", "x", "10")))

	a := animateOf(t, renderSVG(t, composeConfig(), n))
	assert.Equal(t, "spline", attr(a, "calcMode"))
	// outBounce has no bezier form and falls back to a linear spline
	assert.Equal(t, "0.25 0.46 0.45 0.94;0 0 1 1", attr(a, "keySplines"))
	assert.Equal(t, "0;0.5;1", attr(a, "keyTimes"))
}

func TestDeclarativeHoldsEndValues(t *testing.T) {
	n := scene.New("rect")
	require.NoError(t, n.AddKeyframe(kf(0.25, "", "opacity", "0")))
	require.NoError(t, n.AddKeyframe(kf(0.75, "", "opacity", "1")))

	a := animateOf(t, renderSVG(t, composeConfig(), n))
	assert.Equal(t, "0;0;1;1", attr(a, "values"))
	assert.Equal(t, "0;0.25;0.75;1", attr(a, "keyTimes"))
}

func TestDeclarativeDiscreteAndRepeat(t *testing.T) {
	cfg := composeConfig()
	cfg.LoopCount = 2
	n := scene.New("rect")
	require.NoError(t, n.AddKeyframe(kf(0, "", "visibility", "visible")))
	require.NoError(t, n.AddKeyframe(kf(1, "", "visibility", "hidden")))

	a := animateOf(t, renderSVG(t, cfg, n))
	assert.Equal(t, "discrete", attr(a, "calcMode"))
	assert.Equal(t, "3", attr(a, "repeatCount"))
	assert.Equal(t, "2s", attr(a, "dur"))
}

func TestDeclarativeNestedChildren(t *testing.T) {
	g := scene.FromSelector("g#outer")
	inner := scene.FromSelector("g#inner")
	leaf := scene.FromSelector("circle#leaf")
	require.NoError(t, leaf.AddKeyframe(kf(0, "", "r", "1")))
	require.NoError(t, leaf.AddKeyframe(kf(1, "", "r", "4")))
	require.NoError(t, inner.AppendChild(leaf))
	require.NoError(t, g.AppendChild(inner))
	require.NoError(t, g.AppendChild(scene.FromSelector("rect#sibling")))

	out := renderSVG(t, composeConfig(), g)
	assert.Contains(t, out, `<circle id="leaf" r="1">`)
	assert.Contains(t, out, `<rect id="sibling"/>`)
	assert.Contains(t, out, `attributeName="r" values="1;4"`)
}

func TestComposeDoesNotTouchState(t *testing.T) {
	d, _, _, _ := newTestDirector(t, composeConfig())
	require.NoError(t, d.AddNode(scene.New("rect")))
	doc := d.Compose()
	assert.Equal(t, "svg", doc.Name)
	assert.Equal(t, Idle, d.State())
	assert.Nil(t, d.LastArtifact())
}

// --- Scene files ---

func TestReadSceneBuild(t *testing.T) {
	s, err := ReadScene(filepath.Join("testdata", "scenes", "intro.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 64, s.Output.Width)
	assert.Equal(t, 12.0, s.Output.FPS)
	assert.Equal(t, config.LoopCount(2), s.Output.LoopCount)
	assert.Equal(t, "#102030", s.Output.Background)
	assert.Equal(t, config.DitherFloydSteinberg, s.Output.Dither, "unset fields keep defaults")
	require.NoError(t, s.Output.Validate())

	nodes, err := s.Build()
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	layer := nodes[0]
	assert.Equal(t, "g", layer.Kind())
	assert.Equal(t, "top", layer.ClassName())
	box := layer.QuerySelector("#box")
	require.NotNil(t, box)
	assert.Same(t, layer, box.Parent())
	require.Len(t, box.Keyframes(), 2)
	assert.Equal(t, "outQuad", box.Keyframes()[0].Ease)
	w, _ := box.Attr("width")
	assert.Equal(t, "8", w)

	qr := nodes[1]
	assert.Equal(t, "image", qr.Kind())
	assert.Equal(t, "code", qr.ID())
	href, _ := qr.Attr("href")
	assert.True(t, strings.HasPrefix(href, "data:image/png;base64,"))
}

func TestSceneRoundTrip(t *testing.T) {
	s, err := ReadScene(filepath.Join("testdata", "scenes", "intro.yaml"))
	require.NoError(t, err)
	nodes, err := s.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, WriteScene(FromNodes(s.Output, nodes), path))

	again, err := ReadScene(path)
	require.NoError(t, err)
	assert.Equal(t, SceneVersion, again.Version)
	assert.Equal(t, s.Output, again.Output)
	rebuilt, err := again.Build()
	require.NoError(t, err)
	require.Len(t, rebuilt, 2)
	assert.Equal(t, nodes[0].QuerySelector("#box").Keyframes(), rebuilt[0].QuerySelector("#box").Keyframes())
	href, _ := nodes[1].Attr("href")
	hrefCopy, _ := rebuilt[1].Attr("href")
	assert.Equal(t, href, hrefCopy)
}

func TestSceneImageEmbedding(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	f, err := os.Create(filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	yml := "nodes:\n  - selector: image#logo\n    image: logo.png\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(yml), 0644))

	s, err := ReadScene(filepath.Join(dir, "s.yaml"))
	require.NoError(t, err)
	nodes, err := s.Build()
	require.NoError(t, err)
	w, _ := nodes[0].Attr("width")
	h, _ := nodes[0].Attr("height")
	assert.Equal(t, "3", w)
	assert.Equal(t, "2", h)
	href, _ := nodes[0].Attr("href")
	assert.True(t, strings.HasPrefix(href, "data:image/png;base64,"))
}

func TestSceneBuildErrors(t *testing.T) {
	cases := map[string]string{
		"missing kind":   "nodes:\n  - selector: '#x'\n",
		"bad keyframe":   "nodes:\n  - selector: rect\n    keyframes:\n      - t: 2\n        attrs: {x: '1'}\n",
		"bad easing":     "nodes:\n  - selector: rect\n    keyframes:\n      - t: 0\n        ease: wobble\n",
		"missing image":  "nodes:\n  - selector: image\n    image: nope.png\n",
		"bad qr size":    "nodes:\n  - selector: image\n    qrcode: {content: x, size: 0}\n",
		"nested failure": "nodes:\n  - selector: g\n    children:\n      - selector: '.c'\n",
	}
	for name, yml := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := ParseScene([]byte(yml))
			require.NoError(t, err)
			_, err = s.Build()
			assert.Error(t, err)
		})
	}

	_, err := ParseScene([]byte("output: [1, 2"))
	assert.Error(t, err)

	s, err := ParseScene([]byte("nodes:\n  - selector: g\n    children:\n      - selector: '.c'\n"))
	require.NoError(t, err)
	_, err = s.Build()
	assert.Contains(t, err.Error(), "nodes[0].children[0]")
}

func TestFindLatestScene(t *testing.T) {
	_, err := FindLatestScene(t.TempDir())
	assert.Error(t, err)

	p, err := FindLatestScene(filepath.Join("testdata", "scenes"))
	require.NoError(t, err)
	assert.Equal(t, "intro.yaml", filepath.Base(p))
}

// --- helpers ---

func svgRoot(t *testing.T, out string) *svg.Element {
	t.Helper()
	root, err := svg.Parse([]byte(out))
	require.NoError(t, err)
	return root
}

func animateOf(t *testing.T, out string) *svg.Element {
	t.Helper()
	root := svgRoot(t, out)
	require.NotEmpty(t, root.Children)
	for _, c := range root.Children[0].Children {
		if c.Name == "animate" {
			return c
		}
	}
	t.Fatalf("no <animate> in %s", out)
	return nil
}

func attr(el *svg.Element, name string) string {
	v, _ := el.Get(name)
	return v
}
