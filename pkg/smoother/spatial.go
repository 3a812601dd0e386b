package smoother

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"regflow/pkg/field"
)

// SpatialGaussian smooths by separable convolution with a discrete
// Gaussian kernel of odd size 2k+1 per axis, evaluated with zero mean and
// unit standard deviation in kernel-index space and normalized to sum 1.
// The input is padded by (kernelSize-1)/2 per axis by replicating edge
// values. The kernel is built lazily on first use and cached; changing
// the half-width invalidates the cache.
type SpatialGaussian struct {
	grid  *field.Grid
	kHalf int

	mu     sync.Mutex
	kernel []float64
}

// NewSpatialGaussian builds a spatial-Gaussian smoother bound to the
// given grid. A half-width below 1 falls back to the default of 5.
func NewSpatialGaussian(grid *field.Grid, kHalf int) (*SpatialGaussian, error) {
	if kHalf < 1 {
		kHalf = 5
	}
	return &SpatialGaussian{grid: grid, kHalf: kHalf}, nil
}

// KernelHalfWidth returns the kernel half-width k.
func (s *SpatialGaussian) KernelHalfWidth() int { return s.kHalf }

// SetKernelHalfWidth updates the half-width and clears the cached kernel.
func (s *SpatialGaussian) SetKernelHalfWidth(kHalf int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kHalf = kHalf
	s.kernel = nil
}

// kernelOrBuild returns the cached one-dimensional kernel, building it on
// first use. The same kernel is applied along every axis; the separable
// passes together realize the full tensor-product kernel.
func (s *SpatialGaussian) kernelOrBuild() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kernel == nil {
		ksz := 2*s.kHalf + 1
		k := make([]float64, ksz)
		for i := range k {
			z := float64(i - s.kHalf)
			k[i] = math.Exp(-0.5 * z * z)
		}
		floats.Scale(1/floats.Sum(k), k)
		s.kernel = k
	}
	return s.kernel
}

// Smooth convolves a scalar field with the Gaussian kernel along every
// axis, replicating edge values across the (kernelSize-1)/2 padding band.
func (s *SpatialGaussian) Smooth(I *field.Dense) (*field.Dense, error) {
	if err := checkShape(s.grid, I); err != nil {
		return nil, err
	}
	kernel := s.kernelOrBuild()
	out := I.Clone()
	for axis := 0; axis < s.grid.Dim(); axis++ {
		out = convolveAxis(out, axis, kernel)
	}
	return out, nil
}

// InverseSmooth is undefined for spatial-Gaussian smoothing.
func (s *SpatialGaussian) InverseSmooth(I *field.Dense) (*field.Dense, error) {
	return nil, ErrUnsupportedOperation
}

// SmoothVector smooths every component of a vector field.
func (s *SpatialGaussian) SmoothVector(v field.Vector) (field.Vector, error) {
	return smoothVector(v, s.Smooth)
}

// InverseSmoothVector is undefined for spatial-Gaussian smoothing.
func (s *SpatialGaussian) InverseSmoothVector(v field.Vector) (field.Vector, error) {
	return nil, ErrUnsupportedOperation
}

// SmoothBatch smooths every item of a batch of scalar fields.
func (s *SpatialGaussian) SmoothBatch(batch []*field.Dense) ([]*field.Dense, error) {
	return smoothBatch(batch, s.Smooth)
}

// SmoothVectorBatch smooths every item of a batch of vector fields.
func (s *SpatialGaussian) SmoothVectorBatch(batch []field.Vector) ([]field.Vector, error) {
	return smoothVectorBatch(batch, s.SmoothVector)
}

// convolveAxis convolves a field with a one-dimensional kernel along one
// axis. Out-of-range taps read the replicated edge value, which is the
// convolution-side equivalent of replicate padding by the kernel
// half-width.
func convolveAxis(I *field.Dense, axis int, kernel []float64) *field.Dense {
	shape := I.Shape()
	out := field.NewDense(shape...)
	src, dst := I.Values(), out.Values()
	kHalf := (len(kernel) - 1) / 2

	n := shape[axis]
	stride := 1
	for i := axis + 1; i < len(shape); i++ {
		stride *= shape[i]
	}
	outer := 1
	for i := 0; i < axis; i++ {
		outer *= shape[i]
	}
	block := n * stride

	for o := 0; o < outer; o++ {
		base := o * block
		for k := 0; k < n; k++ {
			row := base + k*stride
			for s := 0; s < stride; s++ {
				sum := 0.0
				for t, w := range kernel {
					j := k + t - kHalf
					if j < 0 {
						j = 0
					} else if j >= n {
						j = n - 1
					}
					sum += w * src[base+j*stride+s]
				}
				dst[row+s] = sum
			}
		}
	}
	return out
}
