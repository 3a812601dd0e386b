package smoother

import (
	"regflow/pkg/fd"
	"regflow/pkg/field"
)

// Diffusion smooths by explicit Euler integration of the heat equation:
// iter*2^dim steps of v += 0.5/2^dim * Lap(v) * min(h)^2. The iteration
// count is scaled by dimension so the amount of smoothing is comparable
// across dimensions; the step coefficient sits inside the stability bound
// of the explicit scheme and must not be altered without re-deriving a
// stable step size.
type Diffusion struct {
	grid   *field.Grid
	engine *fd.Engine
	iter   int
}

// NewDiffusion builds a diffusion smoother bound to the given grid. An
// iteration count below 1 falls back to the default of 5.
func NewDiffusion(grid *field.Grid, iter int) (*Diffusion, error) {
	if iter < 1 {
		iter = 5
	}
	engine, err := fd.New(grid.Spacing(), fd.ZeroNeumann, field.DenseBackend{})
	if err != nil {
		return nil, err
	}
	return &Diffusion{grid: grid, engine: engine, iter: iter}, nil
}

// Iter returns the iteration count.
func (s *Diffusion) Iter() int { return s.iter }

// SetIter updates the iteration count.
func (s *Diffusion) SetIter(iter int) { s.iter = iter }

// Smooth runs the heat-equation steps on a scalar field.
func (s *Diffusion) Smooth(I *field.Dense) (*field.Dense, error) {
	if err := checkShape(s.grid, I); err != nil {
		return nil, err
	}
	dim := s.grid.Dim()
	scale := 1 << dim
	minH := s.grid.MinSpacing()
	coef := 0.5 / float64(scale) * minH * minH

	Sv := I.Clone()
	for i := 0; i < s.iter*scale; i++ {
		lap, err := s.engine.Lap(Sv)
		if err != nil {
			return nil, err
		}
		Sv = Sv.AddScaled(lap.(*field.Dense), coef)
	}
	return Sv, nil
}

// InverseSmooth is undefined for diffusion smoothing: the forward
// operator has no closed-form inverse.
func (s *Diffusion) InverseSmooth(I *field.Dense) (*field.Dense, error) {
	return nil, ErrUnsupportedOperation
}

// SmoothVector smooths every component of a vector field.
func (s *Diffusion) SmoothVector(v field.Vector) (field.Vector, error) {
	return smoothVector(v, s.Smooth)
}

// InverseSmoothVector is undefined for diffusion smoothing.
func (s *Diffusion) InverseSmoothVector(v field.Vector) (field.Vector, error) {
	return nil, ErrUnsupportedOperation
}

// SmoothBatch smooths every item of a batch of scalar fields.
func (s *Diffusion) SmoothBatch(batch []*field.Dense) ([]*field.Dense, error) {
	return smoothBatch(batch, s.Smooth)
}

// SmoothVectorBatch smooths every item of a batch of vector fields.
func (s *Diffusion) SmoothVectorBatch(batch []field.Vector) ([]field.Vector, error) {
	return smoothVectorBatch(batch, s.SmoothVector)
}
