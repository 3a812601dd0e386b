// Package visualization renders scalar fields to grayscale images so
// intermediate and final registration states can be inspected. 2D fields
// render directly; 3D fields render one axis slice at a time.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"regflow/pkg/field"
)

// SaveImage renders a 2D scalar field to an 8-bit grayscale PNG. Values
// are normalized so the field minimum maps to black and the maximum to
// white; a constant field renders black.
func SaveImage(I *field.Dense, path string) error {
	if I.Rank() != 2 {
		return fmt.Errorf("visualization: can only render 2D fields, got rank %d", I.Rank())
	}
	shape := I.Shape()
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range I.Values() {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	img := image.NewGray(image.Rect(0, 0, shape[1], shape[0]))
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			img.SetGray(j, i, color.Gray{Y: uint8((I.At(i, j) - lo) * scale)})
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("visualization: creating output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveDifference renders the absolute difference of two same-shaped 2D
// fields.
func SaveDifference(a, b *field.Dense, path string) error {
	if !field.SameShape(a, b) {
		return fmt.Errorf("visualization: shapes %v and %v differ", a.Shape(), b.Shape())
	}
	diff := a.Sub(b)
	dv := diff.Values()
	for i, v := range dv {
		dv[i] = math.Abs(v)
	}
	return SaveImage(diff, path)
}

// ExtractSlice pulls a 2D slice out of a 3D field along the given axis
// (0, 1 or 2) at the given position.
func ExtractSlice(I *field.Dense, axis, position int) (*field.Dense, error) {
	if I.Rank() != 3 {
		return nil, fmt.Errorf("visualization: can only slice 3D fields, got rank %d", I.Rank())
	}
	if axis < 0 || axis > 2 {
		return nil, fmt.Errorf("visualization: invalid axis %d", axis)
	}
	shape := I.Shape()
	if position < 0 || position >= shape[axis] {
		return nil, fmt.Errorf("visualization: position %d exceeds extent %d of axis %d", position, shape[axis], axis)
	}

	var out *field.Dense
	switch axis {
	case 0:
		out = field.NewDense(shape[1], shape[2])
		for j := 0; j < shape[1]; j++ {
			for k := 0; k < shape[2]; k++ {
				out.Set(I.At(position, j, k), j, k)
			}
		}
	case 1:
		out = field.NewDense(shape[0], shape[2])
		for i := 0; i < shape[0]; i++ {
			for k := 0; k < shape[2]; k++ {
				out.Set(I.At(i, position, k), i, k)
			}
		}
	case 2:
		out = field.NewDense(shape[0], shape[1])
		for i := 0; i < shape[0]; i++ {
			for j := 0; j < shape[1]; j++ {
				out.Set(I.At(i, j, position), i, j)
			}
		}
	}
	return out, nil
}
