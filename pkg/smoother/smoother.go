// Package smoother implements low-pass filtering of scalar and vector
// fields on regular grids. Three variants are available: diffusion
// (repeated explicit heat-equation steps), spatial Gaussian (separable
// kernel convolution with replicate padding) and Fourier Gaussian
// (frequency-domain filtering, the only variant with an exact inverse).
//
// A smoother is bound to one grid size and spacing for its lifetime. Any
// lazily built kernel or filter is constructed once under a lock and then
// read-only, so a built smoother is safe for concurrent use.
package smoother

import (
	"errors"
	"fmt"

	"regflow/pkg/field"
)

// ErrUnsupportedOperation is returned when inverse smoothing is requested
// on a variant that has no closed-form inverse.
var ErrUnsupportedOperation = errors.New("inversion of smoothing is only supported for Fourier-based filters")

// ErrInvalidConfiguration is returned when an unknown smoother type is
// requested from the factory.
var ErrInvalidConfiguration = errors.New("unknown smoother type")

// Config selects and parametrizes a smoother variant.
type Config struct {
	// Type is one of "diffusion", "gaussian" (Fourier) or
	// "gaussianSpatial".
	Type string `yaml:"type"`

	// Iter is the diffusion iteration count.
	Iter int `yaml:"iter"`

	// KernelHalfWidth is the spatial-Gaussian kernel half-width k; the
	// kernel has odd size 2k+1 per axis.
	KernelHalfWidth int `yaml:"k_sz_h"`

	// GaussianStd is the Fourier-Gaussian standard deviation in
	// normalized [-1,1] coordinates.
	GaussianStd float64 `yaml:"gaussian_std"`
}

// DefaultConfig returns the reference defaults: a Fourier-Gaussian
// smoother with std 0.15, diffusion iteration count 5 and kernel
// half-width 5.
func DefaultConfig() Config {
	return Config{
		Type:            "gaussian",
		Iter:            5,
		KernelHalfWidth: 5,
		GaussianStd:     0.15,
	}
}

// Smoother low-pass filters fields bound to one grid. Vector-field
// smoothing decomposes into per-component scalar smoothing; batch
// smoothing iterates the leading axis with independent items.
type Smoother interface {
	// Smooth low-pass filters a scalar field.
	Smooth(I *field.Dense) (*field.Dense, error)

	// InverseSmooth undoes Smooth where the variant supports it and
	// fails with ErrUnsupportedOperation otherwise.
	InverseSmooth(I *field.Dense) (*field.Dense, error)

	// SmoothVector smooths every component of a vector field.
	SmoothVector(v field.Vector) (field.Vector, error)

	// InverseSmoothVector inverse-smooths every component of a vector
	// field.
	InverseSmoothVector(v field.Vector) (field.Vector, error)

	// SmoothBatch smooths every item of a batch of scalar fields.
	SmoothBatch(batch []*field.Dense) ([]*field.Dense, error)

	// SmoothVectorBatch smooths every item of a batch of vector fields.
	SmoothVectorBatch(batch []field.Vector) ([]field.Vector, error)
}

// New builds the smoother variant named by cfg.Type, bound to the given
// grid. Unknown types fail here, at construction, with
// ErrInvalidConfiguration.
func New(grid *field.Grid, cfg Config) (Smoother, error) {
	switch cfg.Type {
	case "diffusion":
		return NewDiffusion(grid, cfg.Iter)
	case "gaussian":
		return NewFourierGaussian(grid, cfg.GaussianStd)
	case "gaussianSpatial":
		return NewSpatialGaussian(grid, cfg.KernelHalfWidth)
	default:
		return nil, fmt.Errorf("smoother: %w: %q", ErrInvalidConfiguration, cfg.Type)
	}
}

// checkShape verifies that a scalar field matches the smoother's grid.
func checkShape(grid *field.Grid, I *field.Dense) error {
	if I.Rank() != grid.Dim() {
		return fmt.Errorf("smoother: field has rank %d, smoother is bound to dimension %d", I.Rank(), grid.Dim())
	}
	for ax, s := range I.Shape() {
		if s != grid.Shape()[ax] {
			return fmt.Errorf("smoother: field shape %v does not match grid %v", I.Shape(), grid.Shape())
		}
	}
	return nil
}

// smoothVector applies a scalar smoothing function to every component of
// a vector field. For dim 1 this is identical to scalar smoothing.
func smoothVector(v field.Vector, scalar func(*field.Dense) (*field.Dense, error)) (field.Vector, error) {
	out := make(field.Vector, len(v))
	for d, comp := range v {
		s, err := scalar(comp)
		if err != nil {
			return nil, fmt.Errorf("smoother: component %d: %w", d, err)
		}
		out[d] = s
	}
	return out, nil
}

// smoothBatch applies a scalar smoothing function to every item of a
// batch. Items are independent; iteration order does not affect the
// result.
func smoothBatch(batch []*field.Dense, scalar func(*field.Dense) (*field.Dense, error)) ([]*field.Dense, error) {
	out := make([]*field.Dense, len(batch))
	for i, I := range batch {
		s, err := scalar(I)
		if err != nil {
			return nil, fmt.Errorf("smoother: batch item %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// smoothVectorBatch applies a vector smoothing function to every item of
// a batch of vector fields.
func smoothVectorBatch(batch []field.Vector, vector func(field.Vector) (field.Vector, error)) ([]field.Vector, error) {
	out := make([]field.Vector, len(batch))
	for i, v := range batch {
		s, err := vector(v)
		if err != nil {
			return nil, fmt.Errorf("smoother: batch item %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}
