package smoother

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"regflow/pkg/field"
)

// FourierGaussian smooths by multiplication with a Gaussian filter in the
// frequency domain. The filter is the forward transform of a normalized
// spatial Gaussian kernel with the configured standard deviation in
// normalized [-1,1] coordinates, sized to the smoother's grid. The kernel
// is centered at the origin with periodic wrap-around, so the filter is
// zero-phase and smoothing does not translate the field.
//
// This is the only variant with an exact inverse: InverseSmooth divides
// by the filter in the frequency domain. Filter values at or near zero
// (small stds on large grids) make the inversion numerically unstable;
// no clamping is applied, callers must choose the std accordingly.
type FourierGaussian struct {
	grid *field.Grid
	std  float64

	mu     sync.Mutex
	filter []complex128
}

// NewFourierGaussian builds a Fourier-Gaussian smoother bound to the
// given grid. A non-positive std falls back to the default of 0.15.
func NewFourierGaussian(grid *field.Grid, std float64) (*FourierGaussian, error) {
	if std <= 0 {
		std = 0.15
	}
	return &FourierGaussian{grid: grid, std: std}, nil
}

// GaussianStd returns the standard deviation in normalized coordinates.
func (s *FourierGaussian) GaussianStd() float64 { return s.std }

// SetGaussianStd updates the standard deviation and clears the cached
// frequency-domain filter.
func (s *FourierGaussian) SetGaussianStd(std float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.std = std
	s.filter = nil
}

// filterOrBuild returns the cached frequency-domain filter, building it
// on first use. Once built the filter is read-only and safe for
// concurrent reads.
func (s *FourierGaussian) filterOrBuild() []complex128 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == nil {
		g := s.spatialKernel()
		s.filter = fftND(g.Values(), s.grid.Shape())
	}
	return s.filter
}

// spatialKernel evaluates the normalized Gaussian on the grid with the
// origin at index zero and coordinates wrapping around, matching the
// periodicity of the discrete transform.
func (s *FourierGaussian) spatialKernel() *field.Dense {
	shape := s.grid.Shape()
	g := field.NewDense(shape...)
	vals := g.Values()

	coords := make([][]float64, len(shape))
	for d, n := range shape {
		coords[d] = make([]float64, n)
		for i := 0; i < n; i++ {
			j := i
			if j > n/2 {
				j = i - n
			}
			coords[d][i] = 2 * float64(j) / float64(n-1)
		}
	}

	idx := make([]int, len(shape))
	for flat := range vals {
		e := 0.0
		for d := range shape {
			z := coords[d][idx[d]] / s.std
			e += z * z
		}
		vals[flat] = math.Exp(-0.5 * e)
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	floats.Scale(1/floats.Sum(vals), vals)
	return g
}

// Smooth filters a scalar field: IFFT(FFT(I) * F).
func (s *FourierGaussian) Smooth(I *field.Dense) (*field.Dense, error) {
	if err := checkShape(s.grid, I); err != nil {
		return nil, err
	}
	filter := s.filterOrBuild()
	c := fftND(I.Values(), s.grid.Shape())
	for i := range c {
		c[i] *= filter[i]
	}
	out, err := field.NewDenseFrom(ifftND(c, s.grid.Shape()), s.grid.Shape()...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InverseSmooth applies the exact inverse filter: IFFT(FFT(I) / F).
// Near-zero filter values amplify noise without bound; no clamping is
// applied.
func (s *FourierGaussian) InverseSmooth(I *field.Dense) (*field.Dense, error) {
	if err := checkShape(s.grid, I); err != nil {
		return nil, err
	}
	filter := s.filterOrBuild()
	c := fftND(I.Values(), s.grid.Shape())
	for i := range c {
		c[i] /= filter[i]
	}
	out, err := field.NewDenseFrom(ifftND(c, s.grid.Shape()), s.grid.Shape()...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SmoothVector smooths every component of a vector field.
func (s *FourierGaussian) SmoothVector(v field.Vector) (field.Vector, error) {
	return smoothVector(v, s.Smooth)
}

// InverseSmoothVector inverse-smooths every component of a vector field.
func (s *FourierGaussian) InverseSmoothVector(v field.Vector) (field.Vector, error) {
	return smoothVector(v, s.InverseSmooth)
}

// SmoothBatch smooths every item of a batch of scalar fields.
func (s *FourierGaussian) SmoothBatch(batch []*field.Dense) ([]*field.Dense, error) {
	return smoothBatch(batch, s.Smooth)
}

// SmoothVectorBatch smooths every item of a batch of vector fields.
func (s *FourierGaussian) SmoothVectorBatch(batch []field.Vector) ([]field.Vector, error) {
	return smoothVectorBatch(batch, s.SmoothVector)
}
