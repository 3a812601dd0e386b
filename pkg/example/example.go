// Package example creates synthetic image pairs to test the registration
// pipeline. The squares pair is the standard toy case: a small and a
// large centered square whose registration requires a smooth outward
// expansion.
package example

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"regflow/pkg/field"
)

// SquaresParams controls the side lengths of the generated squares.
type SquaresParams struct {
	// LenSmall is the half side-length of the source square. Zero picks
	// the default min(shape)/6.
	LenSmall int

	// LenLarge is the half side-length of the target square. Zero picks
	// the default max(shape)/4.
	LenLarge int
}

// Squares creates a source/target pair of centered squares in dimensions
// 1 to 3. Voxels inside the square are 1, the rest 0.
func Squares(shape []int, p SquaresParams) (*field.Dense, *field.Dense, error) {
	if len(shape) < 1 || len(shape) > 3 {
		return nil, nil, fmt.Errorf("example: square examples are only supported in dimensions 1 to 3, got %d", len(shape))
	}
	minSz, maxSz := shape[0], shape[0]
	for _, s := range shape[1:] {
		if s < minSz {
			minSz = s
		}
		if s > maxSz {
			maxSz = s
		}
	}
	lenS := p.LenSmall
	if lenS <= 0 {
		lenS = minSz / 6
	}
	lenL := p.LenLarge
	if lenL <= 0 {
		lenL = maxSz / 4
	}

	I0 := field.NewDense(shape...)
	I1 := field.NewDense(shape...)
	fillCenteredBox(I0, lenS)
	fillCenteredBox(I1, lenL)
	return I0, I1, nil
}

// fillCenteredBox sets the hypercube of half side-length l around the
// grid center to one.
func fillCenteredBox(I *field.Dense, l int) {
	shape := I.Shape()
	switch len(shape) {
	case 1:
		c := shape[0] / 2
		for i := max(c-l, 0); i < min(c+l, shape[0]); i++ {
			I.Set(1, i)
		}
	case 2:
		cx, cy := shape[0]/2, shape[1]/2
		for i := max(cx-l, 0); i < min(cx+l, shape[0]); i++ {
			for j := max(cy-l, 0); j < min(cy+l, shape[1]); j++ {
				I.Set(1, i, j)
			}
		}
	case 3:
		cx, cy, cz := shape[0]/2, shape[1]/2, shape[2]/2
		for i := max(cx-l, 0); i < min(cx+l, shape[0]); i++ {
			for j := max(cy-l, 0); j < min(cy+l, shape[1]); j++ {
				for k := max(cz-l, 0); k < min(cz+l, shape[2]); k++ {
					I.Set(1, i, j, k)
				}
			}
		}
	}
}

// GaussianBlobsParams controls the widths of the generated blobs, in the
// normalized [-1,1] coordinates of the grid.
type GaussianBlobsParams struct {
	// StdSmall is the standard deviation of the source blob. Zero picks
	// the default 0.1.
	StdSmall float64

	// StdLarge is the standard deviation of the target blob. Zero picks
	// the default 0.25.
	StdLarge float64
}

// GaussianBlobs creates a source/target pair of centered Gaussian blobs
// in dimensions 1 to 3. Registration of the pair requires a smooth
// radial expansion, like the squares pair but without sharp edges. Both
// images are scaled to unit peak intensity.
func GaussianBlobs(shape []int, p GaussianBlobsParams) (*field.Dense, *field.Dense, error) {
	stdS := p.StdSmall
	if stdS <= 0 {
		stdS = 0.1
	}
	stdL := p.StdLarge
	if stdL <= 0 {
		stdL = 0.25
	}

	id, err := field.IdentityMap(shape)
	if err != nil {
		return nil, nil, fmt.Errorf("example: %w", err)
	}
	I0, err := centeredBlob(id, stdS)
	if err != nil {
		return nil, nil, err
	}
	I1, err := centeredBlob(id, stdL)
	if err != nil {
		return nil, nil, err
	}
	return I0, I1, nil
}

// centeredBlob evaluates a zero-mean isotropic Gaussian on the identity
// map and rescales it to peak intensity one.
func centeredBlob(id field.Vector, std float64) (*field.Dense, error) {
	dim := id.Dim()
	mus := make([]float64, dim)
	stds := make([]float64, dim)
	for d := range stds {
		stds[d] = std
	}
	g, err := field.NormalizedGaussian(id, mus, stds)
	if err != nil {
		return nil, fmt.Errorf("example: %w", err)
	}
	if peak := floats.Max(g.Values()); peak > 0 {
		floats.Scale(1/peak, g.Values())
	}
	return g, nil
}

// UnitSpacing returns the spacing that maps a grid onto the normalized
// domain [0,1] per axis: 1/(n-1) samples apart.
func UnitSpacing(shape []int) []float64 {
	spacing := make([]float64, len(shape))
	for d, n := range shape {
		spacing[d] = 1 / float64(n-1)
	}
	return spacing
}
