package keyframe

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/svgmotion/internal/errs"
	"github.com/ivlev/svgmotion/internal/interp"
)

func kf(t float64, attrs ...string) Keyframe {
	m := map[string]string{}
	for i := 0; i+1 < len(attrs); i += 2 {
		m[attrs[i]] = attrs[i+1]
	}
	return Keyframe{T: t, Attrs: m}
}

func times(s *Store) []float64 {
	var out []float64
	for _, k := range s.All() {
		out = append(out, k.T)
	}
	return out
}

func TestAddKeepsAscendingOrder(t *testing.T) {
	var s Store
	for _, v := range []float64{0.5, 0, 1, 0.25, 0.75} {
		require.NoError(t, s.Add(kf(v, "x", "1")))
	}
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, times(&s))
}

func TestAddRejections(t *testing.T) {
	tests := []struct {
		name string
		kf   Keyframe
	}{
		{"negative", kf(-0.1, "x", "1")},
		{"above one", kf(1.01, "x", "1")},
		{"nan", kf(math.NaN(), "x", "1")},
		{"nil attrs", Keyframe{T: 0.5}},
		{"unknown ease", Keyframe{T: 0.5, Attrs: map[string]string{}, Ease: "wobble"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Store
			err := s.Add(tt.kf)
			require.Error(t, err)
			assert.True(t, errs.IsValidation(err))
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestAddDuplicateIsRejected(t *testing.T) {
	var s Store
	require.NoError(t, s.Add(kf(0.5, "x", "1")))
	require.NoError(t, s.Add(kf(1, "x", "2")))

	err := s.Add(kf(0.5, "x", "99"))
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "1", s.At(0).Attrs["x"])
}

func TestAddCopiesAttributes(t *testing.T) {
	var s Store
	attrs := map[string]string{"x": "1"}
	require.NoError(t, s.Add(Keyframe{T: 0, Attrs: attrs}))
	attrs["x"] = "changed"
	assert.Equal(t, "1", s.At(0).Attrs["x"])

	view := s.All()
	view[0].Attrs["x"] = "mutated"
	assert.Equal(t, "1", s.At(0).Attrs["x"])
}

func TestRemoveAt(t *testing.T) {
	var s Store
	require.NoError(t, s.Add(kf(0, "x", "0")))
	require.NoError(t, s.Add(kf(1, "x", "1")))

	require.NoError(t, s.RemoveAt(0))
	assert.Equal(t, []float64{1}, times(&s))

	err := s.RemoveAt(5)
	require.Error(t, err)
	assert.True(t, errs.IsStructure(err))
	assert.True(t, errs.IsStructure(s.RemoveAt(-1)))
}

func TestConsistency(t *testing.T) {
	var s Store
	require.NoError(t, s.Add(kf(0, "x", "0", "y", "0")))
	require.NoError(t, s.Add(kf(1, "x", "1", "y", "1")))
	assert.True(t, s.Consistent())
	assert.Equal(t, []string{"x", "y"}, s.AttributeNames())

	require.NoError(t, s.Add(kf(0.5, "x", "1")))
	assert.False(t, s.Consistent())
}

func TestEvaluateEndpoints(t *testing.T) {
	ip := interp.New("")
	var s Store
	require.NoError(t, s.Add(kf(0.2, "fill", "red", "x", "0")))
	require.NoError(t, s.Add(kf(0.6, "fill", "#00ff00", "x", "5")))
	require.NoError(t, s.Add(kf(0.9, "fill", "blue", "x", "10")))

	assert.Equal(t, map[string]string{"fill": "red", "x": "0"}, s.Evaluate(0, ip, 1))
	assert.Equal(t, map[string]string{"fill": "blue", "x": "10"}, s.Evaluate(1, ip, 1))
	// clamped
	assert.Equal(t, s.Evaluate(0, ip, 1), s.Evaluate(-3, ip, 1))
	assert.Equal(t, s.Evaluate(1, ip, 1), s.Evaluate(7, ip, 1))
	// before the first and after the last keyframe hold
	assert.Equal(t, "0", s.Evaluate(0.1, ip, 1)["x"])
	assert.Equal(t, "10", s.Evaluate(0.95, ip, 1)["x"])
}

func TestEvaluateEmptyAndSingle(t *testing.T) {
	ip := interp.New("")
	var s Store
	assert.Empty(t, s.Evaluate(0.5, ip, 1))

	require.NoError(t, s.Add(kf(0.3, "r", "4")))
	assert.Equal(t, map[string]string{"r": "4"}, s.Evaluate(0.8, ip, 1))
}

func TestEvaluateExactHitIsVerbatim(t *testing.T) {
	ip := interp.New("")
	var s Store
	require.NoError(t, s.Add(kf(0, "fill", "red")))
	require.NoError(t, s.Add(kf(0.5, "fill", "HotPink")))
	require.NoError(t, s.Add(kf(1, "fill", "blue")))

	assert.Equal(t, "HotPink", s.Evaluate(0.5, ip, 1)["fill"])
}

func TestEvaluateIntersectionPolicy(t *testing.T) {
	ip := interp.New("")
	var s Store
	require.NoError(t, s.Add(kf(0, "x", "0", "only-first", "a")))
	require.NoError(t, s.Add(kf(1, "x", "10", "only-last", "b")))

	got := s.Evaluate(0.5, ip, 1)
	assert.Equal(t, map[string]string{"x": "5"}, got)
}

func TestEvaluateMonotonicWithinSegment(t *testing.T) {
	ip := interp.New("")
	var s Store
	require.NoError(t, s.Add(kf(0, "x", "100")))
	require.NoError(t, s.Add(kf(0.5, "x", "0")))
	require.NoError(t, s.Add(kf(1, "x", "40")))

	prev := math.Inf(1)
	for i := 0; i <= 50; i++ {
		v, err := strconv.ParseFloat(s.Evaluate(float64(i)/100, ip, 1)["x"], 64)
		require.NoError(t, err)
		assert.LessOrEqual(t, v, prev)
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 100.0)
		prev = v
	}
}

func TestEvaluateEasing(t *testing.T) {
	ip := interp.New("")
	var s Store
	require.NoError(t, s.Add(Keyframe{T: 0, Attrs: map[string]string{"x": "0"}, Ease: "inQuad"}))
	require.NoError(t, s.Add(kf(1, "x", "100")))
	assert.Equal(t, "25", s.Evaluate(0.5, ip, 1)["x"])
}

type recordingInterp struct {
	interp.Interpolator
	pathQuality int
	paths       int
}

func (r *recordingInterp) Path(a, b string, q int) interp.Func {
	r.paths++
	r.pathQuality = q
	return r.Interpolator.Path(a, b, q)
}

func TestEvaluateDispatchesPathAttribute(t *testing.T) {
	rec := &recordingInterp{Interpolator: interp.New("")}
	var s Store
	require.NoError(t, s.Add(kf(0, "d", "M0 0 L10 0", "fill", "red")))
	require.NoError(t, s.Add(kf(1, "d", "M0 0 L20 0", "fill", "blue")))

	got := s.Evaluate(0.5, rec, 0)
	assert.Equal(t, 1, rec.paths)
	assert.Equal(t, 1, rec.pathQuality, "quality floor is 1")
	assert.Equal(t, "M 0 0 L 15 0", got["d"])
}
