package field

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// IdentityMap returns the coordinate map of a grid in normalized
// coordinates: one component per axis, with values running linearly from
// -1 at the first sample to +1 at the last.
func IdentityMap(shape []int) (Vector, error) {
	if len(shape) < 1 || len(shape) > 3 {
		return nil, fmt.Errorf("field: identity maps are only supported in dimensions 1 to 3, got %d", len(shape))
	}
	id := make(Vector, len(shape))
	for d := range shape {
		id[d] = NewDense(shape...)
	}
	coords := make([][]float64, len(shape))
	for d, n := range shape {
		coords[d] = make([]float64, n)
		for i := 0; i < n; i++ {
			coords[d][i] = 2*float64(i)/float64(n-1) - 1
		}
	}
	forEachIndex(shape, func(flat int, idx []int) {
		for d := range shape {
			id[d].data[flat] = coords[d][idx[d]]
		}
	})
	return id, nil
}

// NormalizedGaussian evaluates an axis-aligned Gaussian density over a
// coordinate map and normalizes it so the values sum to one. mus and stds
// give the per-axis mean and standard deviation; every std must be
// positive.
func NormalizedGaussian(coords Vector, mus, stds []float64) (*Dense, error) {
	dim := len(coords)
	if dim == 0 {
		return nil, fmt.Errorf("field: empty coordinate map")
	}
	if len(mus) != dim || len(stds) != dim {
		return nil, fmt.Errorf("field: got %d means and %d stds for %d axes", len(mus), len(stds), dim)
	}
	for d, s := range stds {
		if s <= 0 {
			return nil, fmt.Errorf("field: Gaussian std must be positive, axis %d has %g", d, s)
		}
	}
	g := NewDense(coords[0].Shape()...)
	for i := range g.data {
		e := 0.0
		for d := 0; d < dim; d++ {
			z := (coords[d].data[i] - mus[d]) / stds[d]
			e += z * z
		}
		g.data[i] = math.Exp(-0.5 * e)
	}
	sum := floats.Sum(g.data)
	if sum > 0 {
		floats.Scale(1/sum, g.data)
	}
	return g, nil
}

// PositionMap returns the coordinate map of a grid in physical
// coordinates: component d holds index*spacing[d] at every sample.
func PositionMap(g *Grid) Vector {
	pos := g.ZerosVector()
	forEachIndex(g.Shape(), func(flat int, idx []int) {
		for d := range pos {
			pos[d].data[flat] = float64(idx[d]) * g.spacing[d]
		}
	})
	return pos
}

// forEachIndex walks all multi-indices of a shape in row-major order,
// calling fn with the flat index and the multi-index. The idx slice is
// reused between calls.
func forEachIndex(shape []int, fn func(flat int, idx []int)) {
	idx := make([]int, len(shape))
	n := 1
	for _, s := range shape {
		n *= s
	}
	for flat := 0; flat < n; flat++ {
		fn(flat, idx)
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
}
