package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/svgmotion/internal/svg"
)

func el(name string, attrs ...string) *svg.Element {
	e := svg.NewElement(name)
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Set(attrs[i], attrs[i+1])
	}
	return e
}

func render(t *testing.T, doc *svg.Element, w, h int) *image.RGBA {
	t.Helper()
	img, err := (&Vector{}).Rasterize(context.Background(), doc, w, h)
	require.NoError(t, err)
	rgba, ok := img.(*image.RGBA)
	require.True(t, ok)
	return rgba
}

func TestVectorRect(t *testing.T) {
	doc := svg.Document(20, 20, el("rect", "x", "5", "y", "5", "width", "10", "height", "10", "fill", "red"))
	img := render(t, doc, 20, 20)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(10, 10))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(17, 17))
}

func TestVectorDefaultFillIsBlack(t *testing.T) {
	doc := svg.Document(10, 10, el("circle", "cx", "5", "cy", "5", "r", "4"))
	img := render(t, doc, 10, 10)
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(5, 5))
	assert.Equal(t, uint8(0), img.RGBAAt(0, 0).A)
}

func TestVectorClipsOffCanvasGeometry(t *testing.T) {
	doc := svg.Document(20, 20, el("rect", "x", "-50", "y", "-50", "width", "60", "height", "60", "fill", "#00ff00"))
	img := render(t, doc, 20, 20)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(5, 5))
	assert.Equal(t, uint8(0), img.RGBAAt(15, 15).A)
}

func TestVectorTransformAndGroup(t *testing.T) {
	g := el("g", "transform", "translate(10,0)", "fill", "blue")
	g.Append(el("rect", "width", "5", "height", "5"))
	img := render(t, svg.Document(20, 20, g), 20, 20)

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(12, 2))
	assert.Equal(t, uint8(0), img.RGBAAt(2, 2).A)
}

func TestVectorStroke(t *testing.T) {
	line := el("line", "x1", "0", "y1", "10", "x2", "20", "y2", "10", "stroke", "red", "stroke-width", "4")
	img := render(t, svg.Document(20, 20, line), 20, 20)
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(10, 10))
	assert.Equal(t, uint8(0), img.RGBAAt(10, 2).A)
}

func TestVectorStrokeOnlyRect(t *testing.T) {
	r := el("rect", "x", "2", "y", "2", "width", "16", "height", "16", "fill", "none", "stroke", "black", "stroke-width", "2")
	img := render(t, svg.Document(20, 20, r), 20, 20)
	assert.Equal(t, uint8(255), img.RGBAAt(2, 10).A, "edge is stroked")
	assert.Equal(t, uint8(0), img.RGBAAt(10, 10).A, "interior stays empty")
}

func TestVectorOpacityAndVisibility(t *testing.T) {
	half := el("rect", "width", "10", "height", "10", "fill", "white", "opacity", "0.5")
	hidden := el("rect", "x", "10", "width", "10", "height", "10", "visibility", "hidden")
	none := el("g", "display", "none")
	none.Append(el("rect", "y", "10", "width", "10", "height", "10"))
	img := render(t, svg.Document(20, 20, half, hidden, none), 20, 20)

	assert.InDelta(t, 128, float64(img.RGBAAt(5, 5).A), 1)
	assert.Equal(t, uint8(0), img.RGBAAt(15, 5).A)
	assert.Equal(t, uint8(0), img.RGBAAt(5, 15).A)
}

func TestVectorStyleAttributeWins(t *testing.T) {
	r := el("rect", "width", "10", "height", "10", "fill", "red", "style", "fill: lime")
	img := render(t, svg.Document(10, 10, r), 10, 10)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, img.RGBAAt(5, 5))
}

func TestVectorViewBoxScaling(t *testing.T) {
	doc := el("svg", "viewBox", "0 0 10 10")
	doc.Append(el("rect", "width", "5", "height", "5", "fill", "red"))
	img := render(t, doc, 100, 100)
	assert.Equal(t, uint8(255), img.RGBAAt(25, 25).A)
	assert.Equal(t, uint8(0), img.RGBAAt(75, 75).A)
}

func TestVectorPath(t *testing.T) {
	p := el("path", "d", "M0 0 L20 0 L20 20 Z", "fill", "black")
	img := render(t, svg.Document(20, 20, p), 20, 20)
	assert.Equal(t, uint8(255), img.RGBAAt(18, 2).A, "above the diagonal")
	assert.Equal(t, uint8(0), img.RGBAAt(2, 18).A, "below the diagonal")
}

func TestVectorEmbeddedImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(src.Pix); i += 4 {
		copy(src.Pix[i:], []byte{0, 0, 255, 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	img := render(t, svg.Document(20, 20, el("image", "x", "0", "y", "0", "width", "10", "height", "10", "href", uri)), 20, 20)
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(5, 5))
	assert.Equal(t, uint8(0), img.RGBAAt(15, 15).A)

	_, err := (&Vector{}).Rasterize(context.Background(),
		svg.Document(5, 5, el("image", "href", "data:image/png;base64,!!!")), 5, 5)
	assert.Error(t, err)

	// external references are skipped, not fetched
	render(t, svg.Document(5, 5, el("image", "href", "https://example.com/a.png")), 5, 5)
}

func TestDataURIFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dot.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	uri, w, h, err := DataURI(path)
	require.NoError(t, err)
	assert.Equal(t, 3, w)
	assert.Equal(t, 2, h)
	img, err := decodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestVectorRejectsBadInput(t *testing.T) {
	_, err := (&Vector{}).Rasterize(context.Background(), svg.Document(1, 1), 0, 10)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&Vector{}).Rasterize(ctx, svg.Document(1, 1), 1, 1)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = (&Fitz{}).Rasterize(context.Background(), svg.Document(1, 1), 1, -1)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	r, err := New("")
	require.NoError(t, err)
	assert.IsType(t, &Vector{}, r)
	r, err = New(MuPDFName)
	require.NoError(t, err)
	assert.IsType(t, &Fitz{}, r)
	_, err = New("cairo")
	assert.Error(t, err)
}

func TestSurface(t *testing.T) {
	s := NewSurface(10, 10, nil)
	defer s.Release()
	ctx := context.Background()

	require.NoError(t, s.Draw(ctx, el("rect", "width", "10", "height", "10", "fill", "red")))
	require.NoError(t, s.Draw(ctx, el("rect", "width", "5", "height", "10", "fill", "blue")))
	snap := s.Snapshot()
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, snap.RGBAAt(2, 5), "later draws composite over earlier ones")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, snap.RGBAAt(7, 5))

	s.Clear(s.Bounds())
	assert.Equal(t, uint8(0), s.Snapshot().RGBAAt(7, 5).A)
	assert.Equal(t, uint8(255), snap.RGBAAt(7, 5).A, "snapshot is independent of the surface")
	assert.NoError(t, s.Draw(ctx, nil))
}

func TestParseTransform(t *testing.T) {
	m := parseTransform("translate(10 5) rotate(90) scale(2)")
	p := m.apply(svg.Point{X: 1, Y: 0})
	assert.InDelta(t, 10, p.X, 1e-9)
	assert.InDelta(t, 7, p.Y, 1e-9)

	sk := parseTransform("skewX(45)")
	q := sk.apply(svg.Point{X: 0, Y: 1})
	assert.InDelta(t, 1, q.X, 1e-9)

	assert.Equal(t, identity, parseTransform("bogus"))
	assert.InDelta(t, 2, parseTransform("scale(2)").scale(), 1e-9)
}

func TestViewBoxTransform(t *testing.T) {
	m, ok := viewBoxTransform("0 0 10 20", "", 100, 100)
	require.True(t, ok)
	// meet: uniform scale 5, centred horizontally
	p := m.apply(svg.Point{X: 0, Y: 0})
	assert.InDelta(t, 25, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)

	m, _ = viewBoxTransform("0 0 10 20", "none", 100, 100)
	p = m.apply(svg.Point{X: 10, Y: 20})
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, 100, p.Y, 1e-9)

	_, ok = viewBoxTransform("0 0 0 1", "", 10, 10)
	assert.False(t, ok)
}

func TestClipPolygonKeepsInsideArea(t *testing.T) {
	sq := []svg.Point{{X: -5, Y: -5}, {X: 5, Y: -5}, {X: 5, Y: 5}, {X: -5, Y: 5}}
	got := clipPolygon(sq, 10, 10)
	assert.InDelta(t, 25, math.Abs(signedArea(got)), 1e-9)
	assert.Nil(t, clipPolygon([]svg.Point{{X: -3, Y: -3}, {X: -1, Y: -3}, {X: -1, Y: -1}}, 10, 10))
}
