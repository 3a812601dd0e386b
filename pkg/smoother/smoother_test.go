package smoother

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"regflow/pkg/field"
)

func newGrid(t *testing.T, shape ...int) *field.Grid {
	t.Helper()
	spacing := make([]float64, len(shape))
	for d := range spacing {
		spacing[d] = 1
	}
	g, err := field.NewGrid(shape, spacing)
	require.NoError(t, err)
	return g
}

func impulse(shape ...int) *field.Dense {
	d := field.NewDense(shape...)
	center := make([]int, len(shape))
	for i, s := range shape {
		center[i] = s / 2
	}
	d.Set(1, center...)
	return d
}

func randomDense(shape ...int) *field.Dense {
	rng := rand.New(rand.NewSource(11))
	d := field.NewDense(shape...)
	for i := range d.Values() {
		d.Values()[i] = rng.NormFloat64()
	}
	return d
}

func TestFactoryRejectsUnknownType(t *testing.T) {
	g := newGrid(t, 8, 8)
	cfg := DefaultConfig()
	cfg.Type = "bilateral"
	_, err := New(g, cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))
}

func TestFactorySelectsVariants(t *testing.T) {
	g := newGrid(t, 8, 8)
	for typ, want := range map[string]any{
		"diffusion":       (*Diffusion)(nil),
		"gaussian":        (*FourierGaussian)(nil),
		"gaussianSpatial": (*SpatialGaussian)(nil),
	} {
		cfg := DefaultConfig()
		cfg.Type = typ
		s, err := New(g, cfg)
		require.NoError(t, err)
		assert.IsType(t, want, s, "type %q", typ)
	}
}

func TestShapeMismatchRejected(t *testing.T) {
	g := newGrid(t, 8, 8)
	s, err := NewDiffusion(g, 5)
	require.NoError(t, err)
	_, err = s.Smooth(field.NewDense(4, 4))
	assert.Error(t, err)
}

// Diffusion of a centered unit impulse must spread mass to the neighbors
// while conserving the total sum.
func TestDiffusionImpulseConservation(t *testing.T) {
	g := newGrid(t, 16, 16)
	s, err := NewDiffusion(g, 5)
	require.NoError(t, err)

	I := impulse(16, 16)
	Sv, err := s.Smooth(I)
	require.NoError(t, err)

	sum := floats.Sum(Sv.Values())
	assert.InDelta(t, 1.0, sum, 1e-9, "mass must be conserved")

	center := Sv.At(8, 8)
	assert.Less(t, center, 1.0, "impulse must have spread")
	assert.Greater(t, Sv.At(8, 9), 0.0, "neighbor must have received mass")
	assert.Greater(t, Sv.At(7, 8), 0.0, "neighbor must have received mass")

	// near-symmetry of the heat kernel; the grid center is half a voxel
	// off on even extents, so the boundary breaks it only faintly
	assert.InDelta(t, Sv.At(8, 9), Sv.At(8, 7), 1e-8)
	assert.InDelta(t, Sv.At(9, 8), Sv.At(7, 8), 1e-8)
}

// Each explicit heat-equation step is a convex combination of neighbor
// values, so diffusion is non-expansive in the max norm.
func TestDiffusionNonExpansive(t *testing.T) {
	g := newGrid(t, 20, 20)
	s, err := NewDiffusion(g, 3)
	require.NoError(t, err)

	I := randomDense(20, 20)
	maxBefore := floats.Norm(I.Values(), math.Inf(1))
	Sv, err := s.Smooth(I)
	require.NoError(t, err)
	maxAfter := floats.Norm(Sv.Values(), math.Inf(1))

	assert.LessOrEqual(t, maxAfter, maxBefore+1e-12)
}

func TestDiffusionInverseUnsupported(t *testing.T) {
	g := newGrid(t, 8)
	s, _ := NewDiffusion(g, 5)
	_, err := s.InverseSmooth(field.NewDense(8))
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))
	_, err = s.InverseSmoothVector(field.Vector{field.NewDense(8)})
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))
}

// Replicate padding with a normalized kernel reproduces constant fields
// exactly.
func TestSpatialGaussianPreservesConstants(t *testing.T) {
	g := newGrid(t, 12, 12)
	s, err := NewSpatialGaussian(g, 3)
	require.NoError(t, err)

	I := field.NewDense(12, 12)
	I.Fill(2.5)
	Sv, err := s.Smooth(I)
	require.NoError(t, err)
	for _, v := range Sv.Values() {
		assert.InDelta(t, 2.5, v, 1e-12)
	}
}

func TestSpatialGaussianImpulse(t *testing.T) {
	g := newGrid(t, 17, 17)
	s, err := NewSpatialGaussian(g, 5)
	require.NoError(t, err)

	Sv, err := s.Smooth(impulse(17, 17))
	require.NoError(t, err)

	// mass conserved away from the boundary, peak at the center,
	// symmetric response
	assert.InDelta(t, 1.0, floats.Sum(Sv.Values()), 1e-9)
	center := Sv.At(8, 8)
	for _, v := range Sv.Values() {
		assert.LessOrEqual(t, v, center+1e-12)
	}
	assert.InDelta(t, Sv.At(8, 10), Sv.At(8, 6), 1e-12)
	assert.InDelta(t, Sv.At(10, 8), Sv.At(6, 8), 1e-12)
}

func TestSpatialGaussianInverseUnsupported(t *testing.T) {
	g := newGrid(t, 8)
	s, _ := NewSpatialGaussian(g, 2)
	_, err := s.InverseSmooth(field.NewDense(8))
	assert.True(t, errors.Is(err, ErrUnsupportedOperation))
}

func TestSpatialGaussianReconfigure(t *testing.T) {
	g := newGrid(t, 16)
	s, _ := NewSpatialGaussian(g, 1)
	I := impulse(16)

	narrow, err := s.Smooth(I)
	require.NoError(t, err)
	s.SetKernelHalfWidth(5)
	wide, err := s.Smooth(I)
	require.NoError(t, err)

	// a wider kernel lowers the peak
	assert.Less(t, wide.At(8), narrow.At(8))
}

// Fourier smoothing followed by inverse smoothing recovers the input when
// the filter has no near-zero frequencies.
func TestFourierGaussianRoundTrip(t *testing.T) {
	g := newGrid(t, 16, 16)
	s, err := NewFourierGaussian(g, 0.3)
	require.NoError(t, err)

	I := randomDense(16, 16)
	Sv, err := s.Smooth(I)
	require.NoError(t, err)
	back, err := s.InverseSmooth(Sv)
	require.NoError(t, err)

	for i := range I.Values() {
		assert.InDelta(t, I.Values()[i], back.Values()[i], 1e-6)
	}
}

// The filter is built from a kernel that sums to one, so the zero
// frequency is unity and the field mean is preserved.
func TestFourierGaussianPreservesMean(t *testing.T) {
	g := newGrid(t, 16, 16)
	s, err := NewFourierGaussian(g, 0.15)
	require.NoError(t, err)

	I := randomDense(16, 16)
	Sv, err := s.Smooth(I)
	require.NoError(t, err)
	assert.InDelta(t, floats.Sum(I.Values()), floats.Sum(Sv.Values()), 1e-8)
}

// The zero-phase filter must not translate the field: smoothing a
// centered impulse keeps the peak at the center.
func TestFourierGaussianKeepsImpulseCentered(t *testing.T) {
	g := newGrid(t, 16, 16)
	s, err := NewFourierGaussian(g, 0.2)
	require.NoError(t, err)

	Sv, err := s.Smooth(impulse(16, 16))
	require.NoError(t, err)
	peak := Sv.At(8, 8)
	for _, v := range Sv.Values() {
		assert.LessOrEqual(t, v, peak+1e-12)
	}
}

func TestFourierGaussianReconfigure(t *testing.T) {
	g := newGrid(t, 16)
	s, _ := NewFourierGaussian(g, 0.1)
	I := impulse(16)

	narrow, err := s.Smooth(I)
	require.NoError(t, err)
	s.SetGaussianStd(0.5)
	assert.Equal(t, 0.5, s.GaussianStd())
	wide, err := s.Smooth(I)
	require.NoError(t, err)

	assert.Less(t, wide.At(8), narrow.At(8), "larger std must smooth more")
}

func TestVectorSmoothingIsPerComponent(t *testing.T) {
	g := newGrid(t, 16, 16)
	s, err := NewFourierGaussian(g, 0.2)
	require.NoError(t, err)

	v := field.Vector{randomDense(16, 16), impulse(16, 16)}
	Sv, err := s.SmoothVector(v)
	require.NoError(t, err)
	require.Len(t, Sv, 2)

	for d := range v {
		want, err := s.Smooth(v[d])
		require.NoError(t, err)
		assert.Equal(t, want.Values(), Sv[d].Values(), "component %d", d)
	}
}

func TestBatchSmoothingIsPerItem(t *testing.T) {
	g := newGrid(t, 8, 8)
	s, err := NewDiffusion(g, 2)
	require.NoError(t, err)

	batch := []*field.Dense{randomDense(8, 8), impulse(8, 8)}
	Sv, err := s.SmoothBatch(batch)
	require.NoError(t, err)
	require.Len(t, Sv, 2)

	for i := range batch {
		want, err := s.Smooth(batch[i])
		require.NoError(t, err)
		assert.Equal(t, want.Values(), Sv[i].Values(), "item %d", i)
	}
}
