package field

import (
	"fmt"
)

// Grid describes a regular 1-3 dimensional sampling grid: per-axis extents
// plus the physical spacing between adjacent samples. Both are fixed for
// the lifetime of the grid.
type Grid struct {
	shape   []int
	spacing []float64
}

// NewGrid validates and builds a grid. The number of axes must be between
// 1 and 3 and every spacing entry must be positive.
func NewGrid(shape []int, spacing []float64) (*Grid, error) {
	if len(shape) < 1 || len(shape) > 3 {
		return nil, fmt.Errorf("field: grids are only supported in dimensions 1 to 3, got %d", len(shape))
	}
	if len(spacing) != len(shape) {
		return nil, fmt.Errorf("field: spacing %v does not match shape %v", spacing, shape)
	}
	for i, h := range spacing {
		if h <= 0 {
			return nil, fmt.Errorf("field: spacing must be positive, axis %d has %g", i, h)
		}
	}
	for i, s := range shape {
		if s < 2 {
			return nil, fmt.Errorf("field: grid needs at least 2 samples per axis, axis %d has %d", i, s)
		}
	}
	return &Grid{
		shape:   append([]int(nil), shape...),
		spacing: append([]float64(nil), spacing...),
	}, nil
}

// Dim returns the number of spatial axes.
func (g *Grid) Dim() int { return len(g.shape) }

// Shape returns the per-axis extents.
func (g *Grid) Shape() []int { return g.shape }

// Spacing returns the per-axis physical spacing.
func (g *Grid) Spacing() []float64 { return g.spacing }

// NumElements returns the total number of grid samples.
func (g *Grid) NumElements() int {
	n := 1
	for _, s := range g.shape {
		n *= s
	}
	return n
}

// VolumeElement returns the product of the per-axis spacings. It converts
// discrete sums over the grid into physical integrals.
func (g *Grid) VolumeElement() float64 {
	v := 1.0
	for _, h := range g.spacing {
		v *= h
	}
	return v
}

// MinSpacing returns the smallest per-axis spacing.
func (g *Grid) MinSpacing() float64 {
	min := g.spacing[0]
	for _, h := range g.spacing[1:] {
		if h < min {
			min = h
		}
	}
	return min
}

// Zeros allocates a zero-valued scalar field over the grid.
func (g *Grid) Zeros() *Dense { return NewDense(g.shape...) }

// ZerosVector allocates a zero-valued vector field over the grid, one
// component per spatial axis.
func (g *Grid) ZerosVector() Vector {
	v := make(Vector, g.Dim())
	for d := range v {
		v[d] = g.Zeros()
	}
	return v
}
