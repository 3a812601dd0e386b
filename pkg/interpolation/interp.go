// Package interpolation resamples scalar fields at the sample positions
// of a deformation map. It implements multilinear interpolation in 1 to 3
// dimensions with coordinates clamped to the field domain, which is what
// map-based registration models need to warp a source image by an
// estimated transformation.
package interpolation

import (
	"fmt"
	"math"

	"regflow/pkg/field"
)

// Sample evaluates I at the physical coordinates given by the map phi.
// phi has one component per axis of I; component d holds the physical
// d-coordinate (index times spacing) of the sample position for every
// output point. Coordinates outside the domain are clamped to the edge.
// The result has the shape of the map components.
func Sample(I *field.Dense, phi field.Vector, spacing []float64) (*field.Dense, error) {
	dim := I.Rank()
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("interpolation: only dimensions 1 to 3 are supported, got %d", dim)
	}
	if len(phi) != dim {
		return nil, fmt.Errorf("interpolation: map has %d components for a %d-dimensional field", len(phi), dim)
	}
	if len(spacing) != dim {
		return nil, fmt.Errorf("interpolation: got %d spacing entries for dimension %d", len(spacing), dim)
	}
	for d := 1; d < dim; d++ {
		if !field.SameShape(phi[0], phi[d]) {
			return nil, fmt.Errorf("interpolation: map components %d and 0 have different shapes", d)
		}
	}

	shape := I.Shape()
	out := field.NewDense(phi[0].Shape()...)
	ov := out.Values()

	// continuous index coordinates per output point
	lo := make([]int, dim)
	frac := make([]float64, dim)
	for p := range ov {
		for d := 0; d < dim; d++ {
			x := phi[d].Values()[p] / spacing[d]
			if x < 0 {
				x = 0
			}
			if max := float64(shape[d] - 1); x > max {
				x = max
			}
			f := math.Floor(x)
			lo[d] = int(f)
			if lo[d] >= shape[d]-1 {
				lo[d] = shape[d] - 2
				f = float64(lo[d])
			}
			frac[d] = x - f
		}
		ov[p] = lerpCorners(I, lo, frac)
	}
	return out, nil
}

// lerpCorners blends the 2^dim cell corners around the continuous
// position lo+frac.
func lerpCorners(I *field.Dense, lo []int, frac []float64) float64 {
	dim := len(lo)
	idx := make([]int, dim)
	sum := 0.0
	for corner := 0; corner < 1<<dim; corner++ {
		w := 1.0
		for d := 0; d < dim; d++ {
			if corner&(1<<d) != 0 {
				idx[d] = lo[d] + 1
				w *= frac[d]
			} else {
				idx[d] = lo[d]
				w *= 1 - frac[d]
			}
		}
		if w != 0 {
			sum += w * I.At(idx...)
		}
	}
	return sum
}
