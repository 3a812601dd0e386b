// Package fd implements central, forward and backward finite differences
// and Laplacians for scalar fields on regular 1-3 dimensional grids. The
// engine is bound to a fixed spacing and boundary policy at construction
// and is polymorphic over the numeric backend through field.Backend.
package fd

import (
	"errors"
	"fmt"

	"regflow/pkg/field"
)

// ErrInvalidDimension is returned when an engine is requested for a
// dimension outside 1-3, or when an axis-specific operator is called
// against a field whose dimension lacks that axis.
var ErrInvalidDimension = errors.New("finite differences are only supported in dimensions 1 to 3")

// BoundaryPolicy selects how shifted accesses beyond the domain edge are
// resolved. The choice is fixed per engine instance.
type BoundaryPolicy int

const (
	// ZeroNeumann replicates the edge value for out-of-domain access,
	// clamping the gradient to zero at the boundary.
	ZeroNeumann BoundaryPolicy = iota

	// LinearExtrapolation extrapolates one ghost value linearly beyond
	// the boundary: 2*edge - neighbor.
	LinearExtrapolation
)

// Kind names a difference stencil.
type Kind int

const (
	// Backward is the one-sided difference (I - shift-(I)) / h.
	Backward Kind = iota
	// Forward is the one-sided difference (shift+(I) - I) / h.
	Forward
	// Central is (shift+(I) - shift-(I)) / (2h).
	Central
	// SecondCentral is (shift+(I) - 2I + shift-(I)) / h^2.
	SecondCentral
)

// Engine computes finite differences of scalar fields with a fixed grid
// spacing and boundary policy. Construct once per grid configuration and
// reuse; each call allocates only its result through the backend.
type Engine struct {
	spacing []float64
	policy  BoundaryPolicy
	backend field.Backend
}

// New builds an engine for the given per-axis spacing. Only dimensions
// 1 to 3 are supported.
func New(spacing []float64, policy BoundaryPolicy, backend field.Backend) (*Engine, error) {
	if len(spacing) < 1 || len(spacing) > 3 {
		return nil, fmt.Errorf("fd: %w: got %d axes", ErrInvalidDimension, len(spacing))
	}
	for i, h := range spacing {
		if h <= 0 {
			return nil, fmt.Errorf("fd: spacing must be positive, axis %d has %g", i, h)
		}
	}
	if backend == nil {
		backend = field.DenseBackend{}
	}
	return &Engine{
		spacing: append([]float64(nil), spacing...),
		policy:  policy,
		backend: backend,
	}, nil
}

// Dim returns the configured dimensionality.
func (e *Engine) Dim() int { return len(e.spacing) }

// Spacing returns the configured per-axis spacing.
func (e *Engine) Spacing() []float64 { return e.spacing }

// Derivative computes the requested difference of I along the given axis.
func (e *Engine) Derivative(I field.Array, axis int, kind Kind) (field.Array, error) {
	switch kind {
	case Backward:
		return e.backward(I, axis)
	case Forward:
		return e.forward(I, axis)
	case Central:
		return e.central(I, axis)
	case SecondCentral:
		return e.secondCentral(I, axis)
	default:
		return nil, fmt.Errorf("fd: unknown difference kind %d", kind)
	}
}

// DXb computes the backward difference along the first axis.
func (e *Engine) DXb(I field.Array) (field.Array, error) { return e.backward(I, 0) }

// DXf computes the forward difference along the first axis.
func (e *Engine) DXf(I field.Array) (field.Array, error) { return e.forward(I, 0) }

// DXc computes the central difference along the first axis.
func (e *Engine) DXc(I field.Array) (field.Array, error) { return e.central(I, 0) }

// DDXc computes the second central difference along the first axis.
func (e *Engine) DDXc(I field.Array) (field.Array, error) { return e.secondCentral(I, 0) }

// DYb computes the backward difference along the second axis.
func (e *Engine) DYb(I field.Array) (field.Array, error) { return e.backward(I, 1) }

// DYf computes the forward difference along the second axis.
func (e *Engine) DYf(I field.Array) (field.Array, error) { return e.forward(I, 1) }

// DYc computes the central difference along the second axis.
func (e *Engine) DYc(I field.Array) (field.Array, error) { return e.central(I, 1) }

// DDYc computes the second central difference along the second axis.
func (e *Engine) DDYc(I field.Array) (field.Array, error) { return e.secondCentral(I, 1) }

// DZb computes the backward difference along the third axis.
func (e *Engine) DZb(I field.Array) (field.Array, error) { return e.backward(I, 2) }

// DZf computes the forward difference along the third axis.
func (e *Engine) DZf(I field.Array) (field.Array, error) { return e.forward(I, 2) }

// DZc computes the central difference along the third axis.
func (e *Engine) DZc(I field.Array) (field.Array, error) { return e.central(I, 2) }

// DDZc computes the second central difference along the third axis.
func (e *Engine) DDZc(I field.Array) (field.Array, error) { return e.secondCentral(I, 2) }

// Lap computes the Laplacian: the sum of the second central differences
// over all configured axes.
func (e *Engine) Lap(I field.Array) (field.Array, error) {
	if err := e.checkField(I); err != nil {
		return nil, err
	}
	lap, err := e.secondCentral(I, 0)
	if err != nil {
		return nil, err
	}
	for axis := 1; axis < e.Dim(); axis++ {
		dd, err := e.secondCentral(I, axis)
		if err != nil {
			return nil, err
		}
		lv, dv := lap.Values(), dd.Values()
		for i := range lv {
			lv[i] += dv[i]
		}
	}
	return lap, nil
}

func (e *Engine) backward(I field.Array, axis int) (field.Array, error) {
	if err := e.checkAxis(I, axis); err != nil {
		return nil, err
	}
	m, err := e.shift(I, axis, -1)
	if err != nil {
		return nil, err
	}
	out := m // reuse the shifted array as the result buffer
	ov, iv := out.Values(), I.Values()
	h := e.spacing[axis]
	for i := range ov {
		ov[i] = (iv[i] - ov[i]) / h
	}
	return out, nil
}

func (e *Engine) forward(I field.Array, axis int) (field.Array, error) {
	if err := e.checkAxis(I, axis); err != nil {
		return nil, err
	}
	p, err := e.shift(I, axis, +1)
	if err != nil {
		return nil, err
	}
	out := p
	ov, iv := out.Values(), I.Values()
	h := e.spacing[axis]
	for i := range ov {
		ov[i] = (ov[i] - iv[i]) / h
	}
	return out, nil
}

func (e *Engine) central(I field.Array, axis int) (field.Array, error) {
	if err := e.checkAxis(I, axis); err != nil {
		return nil, err
	}
	p, err := e.shift(I, axis, +1)
	if err != nil {
		return nil, err
	}
	m, err := e.shift(I, axis, -1)
	if err != nil {
		return nil, err
	}
	out := p
	ov, mv := out.Values(), m.Values()
	h2 := 2 * e.spacing[axis]
	for i := range ov {
		ov[i] = (ov[i] - mv[i]) / h2
	}
	return out, nil
}

func (e *Engine) secondCentral(I field.Array, axis int) (field.Array, error) {
	if err := e.checkAxis(I, axis); err != nil {
		return nil, err
	}
	p, err := e.shift(I, axis, +1)
	if err != nil {
		return nil, err
	}
	m, err := e.shift(I, axis, -1)
	if err != nil {
		return nil, err
	}
	out := p
	ov, mv, iv := out.Values(), m.Values(), I.Values()
	hh := e.spacing[axis] * e.spacing[axis]
	for i := range ov {
		ov[i] = (ov[i] - 2*iv[i] + mv[i]) / hh
	}
	return out, nil
}

func (e *Engine) checkField(I field.Array) error {
	if rank := e.backend.RankOf(I); rank != e.Dim() {
		return fmt.Errorf("fd: %w: field has rank %d, engine is configured for dimension %d",
			ErrInvalidDimension, rank, e.Dim())
	}
	return nil
}

func (e *Engine) checkAxis(I field.Array, axis int) error {
	if err := e.checkField(I); err != nil {
		return err
	}
	if axis < 0 || axis >= e.Dim() {
		return fmt.Errorf("fd: %w: axis %d requested on a %d-dimensional engine",
			ErrInvalidDimension, axis, e.Dim())
	}
	return nil
}

// shift moves the field by one grid cell along the given axis. dir=+1
// fetches the neighbor at the next index, dir=-1 the one at the previous
// index. Accesses beyond the edge resolve through the boundary policy:
// edge replication for ZeroNeumann, 2*edge-neighbor otherwise.
func (e *Engine) shift(I field.Array, axis, dir int) (field.Array, error) {
	shape := e.backend.ShapeOf(I)
	out := e.backend.Zeros(shape...)
	src, dst := I.Values(), out.Values()

	n := shape[axis]
	if n < 2 {
		return nil, fmt.Errorf("fd: axis %d needs at least 2 samples, got %d", axis, n)
	}
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
			j := k + dir
			if j >= 0 && j < n {
				from := base + j*stride
				copy(dst[row:row+stride], src[from:from+stride])
				continue
			}
			// boundary: resolve through exactly one of the two rules
			var edge, neighbor int
			if j < 0 {
				edge, neighbor = base, base+stride
			} else {
				edge, neighbor = base+(n-1)*stride, base+(n-2)*stride
			}
			if e.policy == ZeroNeumann {
				copy(dst[row:row+stride], src[edge:edge+stride])
			} else {
				for s := 0; s < stride; s++ {
					dst[row+s] = 2*src[edge+s] - src[neighbor+s]
				}
			}
		}
	}
	return out, nil
}
