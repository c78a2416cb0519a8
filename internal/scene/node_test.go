package scene

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/svgmotion/internal/errs"
	"github.com/ivlev/svgmotion/internal/interp"
	"github.com/ivlev/svgmotion/internal/keyframe"
)

// --- Constructors ---

func TestFromSelector(t *testing.T) {
	n := FromSelector("rect#box.a.b")
	if n.Kind() != "rect" || n.ID() != "box" || n.ClassName() != "a b" {
		t.Errorf("got kind=%q id=%q class=%q", n.Kind(), n.ID(), n.ClassName())
	}
	if n.Parent() != nil || n.NumChildren() != 0 {
		t.Error("new node should be detached and empty")
	}
}

func TestSetClassNameNormalizes(t *testing.T) {
	n := New("g").SetClassName("  a   b ")
	if n.ClassName() != "a b" {
		t.Errorf("ClassName = %q", n.ClassName())
	}
	if got := n.Classes(); len(got) != 2 || got[1] != "b" {
		t.Errorf("Classes = %v", got)
	}
}

// --- Tree manipulation ---

func TestAppendChildSetsParent(t *testing.T) {
	parent := New("g")
	child := New("rect")
	require.NoError(t, parent.AppendChild(child))
	if child.Parent() != parent {
		t.Error("child.Parent should be parent")
	}
	if parent.NumChildren() != 1 || parent.ChildAt(0) != child {
		t.Error("child not linked")
	}
}

func TestAppendChildRejectsCycle(t *testing.T) {
	a := New("g").SetID("a")
	b := New("g").SetID("b")
	require.NoError(t, a.AppendChild(b))

	err := b.AppendChild(a)
	require.Error(t, err)
	assert.True(t, errs.IsStructure(err))
	assert.Nil(t, a.Parent(), "a must stay a root")
	assert.Equal(t, a, b.Parent())
	assert.Equal(t, 0, b.NumChildren())

	err = a.AppendChild(a)
	assert.True(t, errs.IsStructure(err))
}

func TestAppendChildRejectsDeepCycle(t *testing.T) {
	a, b, c := New("g"), New("g"), New("g")
	require.NoError(t, a.AppendChild(b))
	require.NoError(t, b.AppendChild(c))
	assert.True(t, errs.IsStructure(c.AppendChild(a)))
	assert.Equal(t, a, c.Root())
}

func TestAppendChildReparents(t *testing.T) {
	p1, p2 := New("g"), New("g")
	child := New("rect")
	require.NoError(t, p1.AppendChild(child))
	require.NoError(t, p2.AppendChild(child))
	assert.Equal(t, 0, p1.NumChildren())
	assert.Equal(t, p2, child.Parent())
}

func TestInsertChild(t *testing.T) {
	p := New("g")
	a, b, c := New("a"), New("b"), New("c")
	require.NoError(t, p.AppendChild(a))
	require.NoError(t, p.AppendChild(c))
	require.NoError(t, p.InsertChild(b, 1))
	assert.Equal(t, "a b c", kinds(p.Children()))

	// moving within the same parent
	require.NoError(t, p.InsertChild(a, 3))
	assert.Equal(t, "b c a", kinds(p.Children()))

	assert.True(t, errs.IsStructure(p.InsertChild(New("x"), 9)))
	assert.True(t, errs.IsStructure(p.InsertChild(nil, 0)))
}

func TestRemoveChild(t *testing.T) {
	p := New("g")
	child := New("rect")
	require.NoError(t, p.AppendChild(child))
	require.NoError(t, p.RemoveChild(child))
	assert.Nil(t, child.Parent())
	assert.Equal(t, 0, p.NumChildren())

	assert.True(t, errs.IsStructure(p.RemoveChild(child)))
}

func TestRemoveChildAt(t *testing.T) {
	p := New("g")
	a, b := New("a"), New("b")
	require.NoError(t, p.AppendChild(a))
	require.NoError(t, p.AppendChild(b))

	got, err := p.RemoveChildAt(0)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Nil(t, a.Parent())
	assert.Equal(t, "b", kinds(p.Children()))

	_, err = p.RemoveChildAt(1)
	assert.True(t, errs.IsStructure(err))

	b.RemoveFromParent()
	assert.Equal(t, 0, p.NumChildren())
	b.RemoveFromParent() // no-op on a root
}

func TestChildrenReturnsCopy(t *testing.T) {
	p := New("g")
	require.NoError(t, p.AppendChild(New("a")))
	kids := p.Children()
	kids[0] = New("z")
	assert.Equal(t, "a", p.ChildAt(0).Kind())
}

func TestCloneIsDeep(t *testing.T) {
	root := New("svg")
	child := New("rect").SetID("r")
	child.SetAttr("width", "10")
	require.NoError(t, child.AddKeyframe(keyframe.Keyframe{T: 0, Attrs: map[string]string{"x": "0"}}))
	require.NoError(t, root.AppendChild(child))

	c := root.Clone()
	require.Equal(t, 1, c.NumChildren())
	cc := c.ChildAt(0)
	assert.Equal(t, c, cc.Parent())
	assert.NotSame(t, child, cc)

	child.SetAttr("width", "99")
	require.NoError(t, child.AddKeyframe(keyframe.Keyframe{T: 1, Attrs: map[string]string{"x": "1"}}))
	w, _ := cc.Attr("width")
	assert.Equal(t, "10", w)
	assert.Len(t, cc.Keyframes(), 1)
}

// --- Query ---

func buildQueryTree(t *testing.T) (*Node, *Node, *Node) {
	t.Helper()
	root := New("svg")
	first := FromSelector("div#x.y")
	wrapper := New("g")
	second := FromSelector("div#x.y")
	decoy := FromSelector("div#x.z")

	require.NoError(t, root.AppendChild(first))
	require.NoError(t, root.AppendChild(wrapper))
	require.NoError(t, wrapper.AppendChild(decoy))
	require.NoError(t, wrapper.AppendChild(second))
	return root, first, second
}

func TestQuerySelectorAllPreOrder(t *testing.T) {
	root, first, second := buildQueryTree(t)
	got := root.QuerySelectorAll("div#x.y")
	require.Len(t, got, 2)
	assert.Same(t, first, got[0])
	assert.Same(t, second, got[1])
}

func TestQuerySelectorFirstMatch(t *testing.T) {
	root, first, _ := buildQueryTree(t)
	assert.Same(t, first, root.QuerySelector("div#x.y"))
	assert.Nil(t, root.QuerySelector("circle"))
	assert.Empty(t, root.QuerySelectorAll("circle"))
}

func TestQuerySelectorWildcardAndNested(t *testing.T) {
	root, _, _ := buildQueryTree(t)
	assert.Len(t, root.QuerySelectorAll("*"), 4)
	assert.Equal(t, "z", root.QuerySelector(".z").ClassName())
	assert.Equal(t, "g", root.QuerySelector("g").Kind())
	assert.Len(t, root.QuerySelectorAll("#x"), 3)
}

// --- Generation ---

func TestGenerateAt(t *testing.T) {
	ip := interp.New(interp.RGB)
	root := New("svg").SetID("root")
	rect := FromSelector("rect#box.shape")
	rect.SetAttr("width", "10").SetAttr("x", "100")
	require.NoError(t, rect.AddKeyframe(keyframe.Keyframe{T: 0, Attrs: map[string]string{"x": "0", "fill": "red"}}))
	require.NoError(t, rect.AddKeyframe(keyframe.Keyframe{T: 1, Attrs: map[string]string{"x": "10", "fill": "blue"}}))
	require.NoError(t, root.AppendChild(rect))
	require.NoError(t, root.AppendChild(New("circle")))

	el := root.GenerateAt(0.5, 1, ip)
	assert.Equal(t, "svg", el.Name)
	require.Len(t, el.Children, 2)

	r := el.Children[0]
	assert.Equal(t, "rect", r.Name)
	id, _ := r.Get("id")
	class, _ := r.Get("class")
	x, _ := r.Get("x")
	w, _ := r.Get("width")
	assert.Equal(t, "box", id)
	assert.Equal(t, "shape", class)
	assert.Equal(t, "5", x, "keyframed value overrides the static one")
	assert.Equal(t, "10", w)
	assert.Equal(t, "circle", el.Children[1].Name)

	// clamping
	start := root.GenerateAt(-1, 0, ip).Children[0]
	fill, _ := start.Get("fill")
	assert.Equal(t, "red", fill)
	end := root.GenerateAt(2, 0, nil).Children[0]
	fill, _ = end.Get("fill")
	assert.Equal(t, "blue", fill)
}

func TestNewQRCode(t *testing.T) {
	n, err := NewQRCode("qr", "https://example.com", 64)
	require.NoError(t, err)
	assert.Equal(t, "image", n.Kind())
	href, ok := n.Attr("href")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(href, "data:image/png;base64,"))

	_, err = NewQRCode("qr", "x", 0)
	assert.Error(t, err)
}

func kinds(nodes []*Node) string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Kind())
	}
	return strings.Join(out, " ")
}
