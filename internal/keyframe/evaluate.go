package keyframe

import (
	"github.com/ivlev/svgmotion/internal/interp"
)

// Evaluate returns the attribute set of sorted keyframes kfs at time t.
//
// t is clamped to [0,1]. With no keyframes the result is empty. With one
// keyframe, or at t == 0, the first keyframe's attributes are returned
// verbatim; at t == 1 the last keyframe's. Otherwise the bracketing pair
// prev.T <= t < next.T is located and only attributes present in both are
// interpolated; the rest are dropped for that segment. Times before the
// first keyframe hold its values, times after the last hold the last's.
func Evaluate(kfs []Keyframe, t float64, ip interp.Interpolator, pathQuality int) map[string]string {
	t = clamp01(t)
	if pathQuality < 1 {
		pathQuality = 1
	}

	switch {
	case len(kfs) == 0:
		return map[string]string{}
	case len(kfs) == 1 || t == 0:
		return copyAttrs(kfs[0].Attrs)
	case t == 1:
		return copyAttrs(kfs[len(kfs)-1].Attrs)
	}

	if t < kfs[0].T {
		return copyAttrs(kfs[0].Attrs)
	}

	next := -1
	for i, kf := range kfs {
		if kf.T > t {
			next = i
			break
		}
	}
	if next < 0 {
		return copyAttrs(kfs[len(kfs)-1].Attrs)
	}
	prev, nxt := kfs[next-1], kfs[next]

	local := (t - prev.T) / (nxt.T - prev.T)
	if easeFn, ok := interp.Ease(prev.Ease); ok {
		local = easeFn(local)
	}

	out := make(map[string]string, len(prev.Attrs))
	for name, a := range prev.Attrs {
		b, ok := nxt.Attrs[name]
		if !ok {
			continue
		}
		var f interp.Func
		if name == PathAttribute {
			f = ip.Path(a, b, pathQuality)
		} else {
			f = ip.Value(a, b)
		}
		out[name] = f(local)
	}
	return out
}

func copyAttrs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
