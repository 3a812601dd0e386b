// Package field provides the dense grid containers the registration core
// operates on: scalar fields, vector fields and the numeric backend hooks
// that decouple the finite-difference machinery from a concrete array
// implementation.
package field

import (
	"fmt"
)

// Array is the minimal view of a numeric grid array the core operates on.
// A plain dense array satisfies it directly; a differentiable tensor backend
// can satisfy it by returning a flat view over its own storage.
type Array interface {
	// Rank returns the number of spatial axes of the array.
	Rank() int

	// Shape returns the per-axis extents. Callers must not modify the
	// returned slice.
	Shape() []int

	// Values returns the flat row-major backing slice. Mutations write
	// through to the array.
	Values() []float64
}

// Backend abstracts allocation and shape queries over a numeric array
// implementation. The registration core only ever needs these three hooks;
// everything else is expressed through Array.
type Backend interface {
	// Zeros allocates a zero-valued array of the given shape.
	Zeros(shape ...int) Array

	// RankOf returns the number of axes of the array.
	RankOf(a Array) int

	// ShapeOf returns the per-axis extents of the array.
	ShapeOf(a Array) []int
}

// Dense is a dense row-major array over a regular 1-3 dimensional grid.
type Dense struct {
	shape []int
	data  []float64
}

// NewDense allocates a zero-valued dense array with the given shape.
func NewDense(shape ...int) *Dense {
	n := 1
	for _, s := range shape {
		if s <= 0 {
			panic(fmt.Sprintf("field: non-positive extent %d in shape %v", s, shape))
		}
		n *= s
	}
	return &Dense{
		shape: append([]int(nil), shape...),
		data:  make([]float64, n),
	}
}

// NewDenseFrom wraps existing flat data in a dense array. The data length
// must match the product of the shape extents.
func NewDenseFrom(data []float64, shape ...int) (*Dense, error) {
	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(data) {
		return nil, fmt.Errorf("field: data length %d does not match shape %v", len(data), shape)
	}
	return &Dense{shape: append([]int(nil), shape...), data: data}, nil
}

// Rank returns the number of spatial axes.
func (d *Dense) Rank() int { return len(d.shape) }

// Shape returns the per-axis extents.
func (d *Dense) Shape() []int { return d.shape }

// Values returns the flat row-major backing slice.
func (d *Dense) Values() []float64 { return d.data }

// Len returns the total number of elements.
func (d *Dense) Len() int { return len(d.data) }

// At returns the value at the given multi-index.
func (d *Dense) At(idx ...int) float64 { return d.data[d.flatIndex(idx)] }

// Set stores a value at the given multi-index.
func (d *Dense) Set(v float64, idx ...int) { d.data[d.flatIndex(idx)] = v }

func (d *Dense) flatIndex(idx []int) int {
	if len(idx) != len(d.shape) {
		panic(fmt.Sprintf("field: index %v does not match rank %d", idx, len(d.shape)))
	}
	flat := 0
	for i, ix := range idx {
		if ix < 0 || ix >= d.shape[i] {
			panic(fmt.Sprintf("field: index %v out of bounds for shape %v", idx, d.shape))
		}
		flat = flat*d.shape[i] + ix
	}
	return flat
}

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	out := NewDense(d.shape...)
	copy(out.data, d.data)
	return out
}

// Fill sets every element to v.
func (d *Dense) Fill(v float64) {
	for i := range d.data {
		d.data[i] = v
	}
}

// Add returns d + o elementwise.
func (d *Dense) Add(o *Dense) *Dense {
	out := d.Clone()
	for i, v := range o.data {
		out.data[i] += v
	}
	return out
}

// Sub returns d - o elementwise.
func (d *Dense) Sub(o *Dense) *Dense {
	out := d.Clone()
	for i, v := range o.data {
		out.data[i] -= v
	}
	return out
}

// Mul returns the elementwise product d * o.
func (d *Dense) Mul(o *Dense) *Dense {
	out := d.Clone()
	for i, v := range o.data {
		out.data[i] *= v
	}
	return out
}

// Scale returns d * s elementwise.
func (d *Dense) Scale(s float64) *Dense {
	out := d.Clone()
	for i := range out.data {
		out.data[i] *= s
	}
	return out
}

// AddScaled returns d + o*s elementwise.
func (d *Dense) AddScaled(o *Dense, s float64) *Dense {
	out := d.Clone()
	for i, v := range o.data {
		out.data[i] += v * s
	}
	return out
}

// DenseBackend is the plain dense-array implementation of Backend.
type DenseBackend struct{}

// Zeros allocates a zero-valued dense array.
func (DenseBackend) Zeros(shape ...int) Array { return NewDense(shape...) }

// RankOf returns the number of axes of the array.
func (DenseBackend) RankOf(a Array) int { return a.Rank() }

// ShapeOf returns the per-axis extents of the array.
func (DenseBackend) ShapeOf(a Array) []int { return a.Shape() }

// SameShape reports whether two arrays have identical shapes.
func SameShape(a, b Array) bool {
	sa, sb := a.Shape(), b.Shape()
	if len(sa) != len(sb) {
		return false
	}
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}
