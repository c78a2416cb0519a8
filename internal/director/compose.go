package director

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ivlev/svgmotion/internal/config"
	"github.com/ivlev/svgmotion/internal/interp"
	"github.com/ivlev/svgmotion/internal/keyframe"
	"github.com/ivlev/svgmotion/internal/scene"
	"github.com/ivlev/svgmotion/internal/svg"
)

// compose builds the declarative document. A single top-level <svg> node
// becomes the document root; otherwise the nodes are wrapped in a new <svg>.
// Keyframe values are emitted raw as SMIL <animate> directives; nothing is
// interpolated here.
func compose(cfg config.Output, nodes []*scene.Node) *svg.Element {
	root := svg.NewElement("svg")
	root.Set("xmlns", svg.Namespace)

	if len(nodes) == 1 && nodes[0].Kind() == "svg" {
		emitInto(root, nodes[0], cfg)
	} else {
		for _, n := range nodes {
			root.Append(emit(n, cfg))
		}
	}

	viewBox := cfg.ViewBox
	if viewBox == "" {
		viewBox = fmt.Sprintf("0 0 %d %d", cfg.Width, cfg.Height)
	}
	root.Set("width", strconv.Itoa(cfg.Width))
	root.Set("height", strconv.Itoa(cfg.Height))
	root.Set("viewBox", viewBox)
	if cfg.PreserveAspectRatio != "" {
		root.Set("preserveAspectRatio", cfg.PreserveAspectRatio)
	}
	return root
}

func emit(n *scene.Node, cfg config.Output) *svg.Element {
	el := svg.NewElement(n.Kind())
	emitInto(el, n, cfg)
	return el
}

// emitInto writes n's identity, static attributes, animations and children
// into el.
func emitInto(el *svg.Element, n *scene.Node, cfg config.Output) {
	if n.ID() != "" {
		el.Set("id", n.ID())
	}
	if n.ClassName() != "" {
		el.Set("class", n.ClassName())
	}
	for _, a := range n.Attrs() {
		if a.Name == "xmlns" {
			continue
		}
		el.Set(a.Name, a.Value)
	}

	kfs := n.Keyframes()
	switch len(kfs) {
	case 0:
	case 1:
		for _, name := range kfs[0].Names() {
			el.Set(name, kfs[0].Attrs[name])
		}
	default:
		for _, name := range n.KeyframeStore().AttributeNames() {
			track := trackOf(kfs, name)
			el.Set(name, track[0].value)
			if len(track) > 1 {
				el.Append(animate(name, track, cfg))
			}
		}
	}

	for _, c := range n.Children() {
		el.Append(emit(c, cfg))
	}
}

type stop struct {
	t     float64
	value string
	ease  string
}

// trackOf collects the keyframes that carry name, in time order.
func trackOf(kfs []keyframe.Keyframe, name string) []stop {
	var out []stop
	for _, kf := range kfs {
		if v, ok := kf.Attrs[name]; ok {
			out = append(out, stop{t: kf.T, value: v, ease: kf.Ease})
		}
	}
	return out
}

// animate emits one <animate> for a track. The first and last values are
// held out to t=0 and t=1 when the track starts late or ends early.
func animate(name string, track []stop, cfg config.Output) *svg.Element {
	if first := track[0]; first.t > 0 {
		track = append([]stop{{t: 0, value: first.value}}, track...)
	}
	if last := track[len(track)-1]; last.t < 1 {
		track = append(track, stop{t: 1, value: last.value})
	}

	values := make([]string, len(track))
	times := make([]string, len(track))
	splines := make([]string, 0, len(track)-1)
	eased := false
	for i, s := range track {
		values[i] = s.value
		times[i] = svg.FormatNumber(s.t)
		if i == len(track)-1 {
			break
		}
		spline, ok := interp.KeySpline(s.ease)
		if !ok {
			spline, _ = interp.KeySpline("linear")
		}
		if s.ease != "" && s.ease != "linear" {
			eased = true
		}
		splines = append(splines, spline)
	}

	a := svg.NewElement("animate")
	a.Set("attributeName", name)
	a.Set("values", strings.Join(values, ";"))
	a.Set("keyTimes", strings.Join(times, ";"))
	a.Set("dur", svg.FormatNumber(cfg.Duration)+"s")
	a.Set("repeatCount", repeatCount(cfg.LoopCount))
	a.Set("fill", "freeze")
	if eased {
		a.Set("calcMode", "spline")
		a.Set("keySplines", strings.Join(splines, ";"))
	} else {
		a.Set("calcMode", calcMode(name, values))
	}
	return a
}

// calcMode is discrete for values that cannot be interpolated.
func calcMode(name string, values []string) string {
	if name == keyframe.PathAttribute {
		return "linear"
	}
	ip := interp.New("")
	for i := 0; i+1 < len(values); i++ {
		f := ip.Value(values[i], values[i+1])
		if f(0.5) == values[i] && values[i] != values[i+1] {
			return "discrete"
		}
	}
	return "linear"
}

// repeatCount maps extra repetitions to total plays.
func repeatCount(l config.LoopCount) string {
	if l.IsInfinite() {
		return "indefinite"
	}
	return strconv.Itoa(int(l) + 1)
}

// sortedNames returns map keys in order.
func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
