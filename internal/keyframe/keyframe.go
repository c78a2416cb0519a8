// Package keyframe stores time-keyed attribute snapshots for one scene node
// and evaluates them at any normalized time.
package keyframe

import (
	"log"
	"math"
	"sort"

	"github.com/ivlev/svgmotion/internal/errs"
	"github.com/ivlev/svgmotion/internal/interp"
)

// PathAttribute is the attribute holding shape geometry. It is morphed with
// the path interpolator instead of the generic value interpolator.
const PathAttribute = "d"

// Keyframe is a snapshot of attributes at time T, expressed as a fraction
// of the animation's duration.
type Keyframe struct {
	T     float64           `yaml:"t"`
	Attrs map[string]string `yaml:"attrs"`
	Ease  string            `yaml:"ease,omitempty"` // easing of the segment starting here
}

// Names returns the attribute names in sorted order.
func (k Keyframe) Names() []string {
	names := make([]string, 0, len(k.Attrs))
	for n := range k.Attrs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (k Keyframe) clone() Keyframe {
	attrs := make(map[string]string, len(k.Attrs))
	for n, v := range k.Attrs {
		attrs[n] = v
	}
	return Keyframe{T: k.T, Attrs: attrs, Ease: k.Ease}
}

// Validate checks the time range, attribute map and easing name.
func Validate(k Keyframe) error {
	if math.IsNaN(k.T) || k.T < 0 || k.T > 1 {
		return errs.New(errs.Validation, "keyframe.Add", "t=%v outside [0,1]", k.T)
	}
	if k.Attrs == nil {
		return errs.New(errs.Validation, "keyframe.Add", "attributes must be a mapping")
	}
	if _, ok := interp.Ease(k.Ease); !ok {
		return errs.New(errs.Validation, "keyframe.Add", "unknown easing %q", k.Ease)
	}
	return nil
}

// Store is an ordered keyframe list. No two keyframes share T and the list
// is always sorted ascending by T.
type Store struct {
	frames []Keyframe
}

// Add inserts kf in time order. Rejected keyframes leave the store unchanged.
// A duplicate T is logged as a warning and rejected.
func (s *Store) Add(kf Keyframe) error {
	if err := Validate(kf); err != nil {
		return err
	}

	pos := len(s.frames)
	for i, existing := range s.frames {
		if existing.T == kf.T {
			log.Printf("[!] keyframe at t=%v already exists, ignoring", kf.T)
			return errs.New(errs.Validation, "keyframe.Add", "duplicate keyframe at t=%v", kf.T)
		}
		if existing.T > kf.T {
			pos = i
			break
		}
	}

	s.frames = append(s.frames, Keyframe{})
	copy(s.frames[pos+1:], s.frames[pos:])
	s.frames[pos] = kf.clone()
	return nil
}

// RemoveAt discards the keyframe at index i.
func (s *Store) RemoveAt(i int) error {
	if i < 0 || i >= len(s.frames) {
		return errs.New(errs.Structure, "keyframe.RemoveAt", "index %d out of range [0,%d)", i, len(s.frames))
	}
	s.frames = append(s.frames[:i], s.frames[i+1:]...)
	return nil
}

// All returns a copy of the keyframes in ascending time order.
func (s *Store) All() []Keyframe {
	out := make([]Keyframe, len(s.frames))
	for i, kf := range s.frames {
		out[i] = kf.clone()
	}
	return out
}

// Len returns the number of keyframes.
func (s *Store) Len() int {
	return len(s.frames)
}

// At returns a copy of the keyframe at index i.
func (s *Store) At(i int) Keyframe {
	return s.frames[i].clone()
}

// Clone returns an independent copy of the store.
func (s *Store) Clone() *Store {
	return &Store{frames: s.All()}
}

// AttributeNames returns the first keyframe's attribute names, sorted.
func (s *Store) AttributeNames() []string {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[0].Names()
}

// Consistent reports whether every keyframe declares the same attribute set.
func (s *Store) Consistent() bool {
	if len(s.frames) < 2 {
		return true
	}
	first := s.frames[0].Attrs
	for _, kf := range s.frames[1:] {
		if len(kf.Attrs) != len(first) {
			return false
		}
		for n := range kf.Attrs {
			if _, ok := first[n]; !ok {
				return false
			}
		}
	}
	return true
}

// Evaluate interpolates the store at t. See the package-level Evaluate.
func (s *Store) Evaluate(t float64, ip interp.Interpolator, pathQuality int) map[string]string {
	return Evaluate(s.frames, t, ip, pathQuality)
}
