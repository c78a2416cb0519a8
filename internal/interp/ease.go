package interp

import (
	"sort"

	"github.com/fogleman/ease"
)

var easings = map[string]func(float64) float64{
	"linear":       ease.Linear,
	"inQuad":       ease.InQuad,
	"outQuad":      ease.OutQuad,
	"inOutQuad":    ease.InOutQuad,
	"inCubic":      ease.InCubic,
	"outCubic":     ease.OutCubic,
	"inOutCubic":   ease.InOutCubic,
	"inQuart":      ease.InQuart,
	"outQuart":     ease.OutQuart,
	"inOutQuart":   ease.InOutQuart,
	"inSine":       ease.InSine,
	"outSine":      ease.OutSine,
	"inOutSine":    ease.InOutSine,
	"inExpo":       ease.InExpo,
	"outExpo":      ease.OutExpo,
	"inOutExpo":    ease.InOutExpo,
	"inBack":       ease.InBack,
	"outBack":      ease.OutBack,
	"outBounce":    ease.OutBounce,
	"outElastic":   ease.OutElastic,
	"inOutElastic": ease.InOutElastic,
}

// keySplines are CSS cubic-bezier equivalents usable in SMIL keySplines.
var keySplines = map[string]string{
	"linear":     "0 0 1 1",
	"inQuad":     "0.55 0.085 0.68 0.53",
	"outQuad":    "0.25 0.46 0.45 0.94",
	"inOutQuad":  "0.455 0.03 0.515 0.955",
	"inCubic":    "0.55 0.055 0.675 0.19",
	"outCubic":   "0.215 0.61 0.355 1",
	"inOutCubic": "0.645 0.045 0.355 1",
	"inQuart":    "0.895 0.03 0.685 0.22",
	"outQuart":   "0.165 0.84 0.44 1",
	"inOutQuart": "0.77 0 0.175 1",
	"inSine":     "0.47 0 0.745 0.715",
	"outSine":    "0.39 0.575 0.565 1",
	"inOutSine":  "0.445 0.05 0.55 0.95",
	"inExpo":     "0.95 0.05 0.795 0.035",
	"outExpo":    "0.19 1 0.22 1",
	"inOutExpo":  "1 0 0 1",
}

// Ease looks up an easing function by name. The empty name is linear.
func Ease(name string) (func(float64) float64, bool) {
	if name == "" {
		return ease.Linear, true
	}
	f, ok := easings[name]
	return f, ok
}

// KeySpline returns the SMIL keySplines control points for an easing, if it
// has a cubic-bezier form.
func KeySpline(name string) (string, bool) {
	if name == "" {
		name = "linear"
	}
	s, ok := keySplines[name]
	return s, ok
}

// EaseNames lists the supported easing names, sorted.
func EaseNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
