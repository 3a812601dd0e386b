// Package registration drives single-scale deformable registration on top
// of the numerical core: it estimates a stationary velocity field that
// advects the source image onto the target by iterating smoothed
// demons-style force updates, and reports the resulting deformation map,
// warped image and match metrics.
package registration

import (
	"fmt"
	"math"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"regflow/internal/models"
	"regflow/pkg/config"
	"regflow/pkg/fd"
	"regflow/pkg/field"
	"regflow/pkg/integrator"
	"regflow/pkg/interpolation"
	"regflow/pkg/regularizer"
	"regflow/pkg/smoother"
	"regflow/pkg/visualization"
)

// Optimizer performs gradient-style minimization of the registration
// energy sum-of-squared-differences + Helmholtz regularity over a
// stationary velocity field. It composes the smoother, regularizer and
// Runge-Kutta integrator; construct once per image pair and call Run.
type Optimizer struct {
	pair     models.ImagePair
	grid     *field.Grid
	engine   *fd.Engine
	smoother smoother.Smoother
	reg      *regularizer.Helmholtz
	cfg      *config.Config
}

// New validates the image pair and wires up the numerical components
// according to the configuration.
func New(pair models.ImagePair, cfg *config.Config) (*Optimizer, error) {
	if pair.Source == nil || pair.Target == nil {
		return nil, fmt.Errorf("registration: image pair is incomplete")
	}
	if !field.SameShape(pair.Source, pair.Target) {
		return nil, fmt.Errorf("registration: source shape %v does not match target shape %v",
			pair.Source.Shape(), pair.Target.Shape())
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	grid, err := field.NewGrid(pair.Source.Shape(), pair.Spacing)
	if err != nil {
		return nil, err
	}
	engine, err := fd.New(pair.Spacing, fd.ZeroNeumann, field.DenseBackend{})
	if err != nil {
		return nil, err
	}
	sm, err := smoother.New(grid, cfg.Smoother)
	if err != nil {
		return nil, err
	}
	reg, err := regularizer.New(cfg.Regularizer.Type, pair.Spacing, regularizer.Params{
		Alpha: cfg.Regularizer.Alpha,
		Gamma: cfg.Regularizer.Gamma,
	})
	if err != nil {
		return nil, err
	}
	return &Optimizer{
		pair:     pair,
		grid:     grid,
		engine:   engine,
		smoother: sm,
		reg:      reg,
		cfg:      cfg,
	}, nil
}

// Run iterates force updates on the velocity field and returns the final
// deformation, warped image and metrics.
func (o *Optimizer) Run() (*models.Result, error) {
	iters := o.cfg.Registration.Iterations
	step := o.cfg.Registration.StepSize
	simW := o.cfg.Registration.SimilarityWeight
	volElem := o.grid.VolumeElement()

	v := o.grid.ZerosVector()
	energies := make([]float64, 0, iters)

	for it := 0; it < iters; it++ {
		I, err := o.Advect(v, o.pair.Source)
		if err != nil {
			return nil, err
		}
		residual := I.Sub(o.pair.Target)
		ssd := floats.Dot(residual.Values(), residual.Values()) * volElem
		regVal, err := o.reg.Compute(v)
		if err != nil {
			return nil, err
		}
		energy := simW*ssd + regVal
		energies = append(energies, energy)
		if o.cfg.Output.Verbose {
			fmt.Printf("   iter %3d: energy=%.6f (similarity=%.6f regularity=%.6f)\n",
				it, energy, simW*ssd, regVal)
		}
		if err := o.saveIntermediaryResult(I, it); err != nil {
			return nil, err
		}

		// demons-style force: residual times the advected image gradient,
		// pushed through the smoother so the update stays regular
		for d := range v {
			g, err := o.engine.Derivative(I, d, fd.Central)
			if err != nil {
				return nil, err
			}
			force := residual.Mul(g.(*field.Dense))
			v[d] = v[d].AddScaled(force, -step)
		}
		v, err = o.smoother.SmoothVector(v)
		if err != nil {
			return nil, err
		}
	}

	phi, err := o.FlowMap(v)
	if err != nil {
		return nil, err
	}
	warped, err := interpolation.Sample(o.pair.Source, phi, o.grid.Spacing())
	if err != nil {
		return nil, err
	}

	return &models.Result{
		Velocity: v,
		Map:      phi,
		Warped:   warped,
		Energy:   energies,
		Metrics:  o.computeMetrics(warped),
	}, nil
}

// saveIntermediaryResult writes the advected image of one iteration as a
// grayscale snapshot when snapshot saving is enabled. Only 2D grids
// render directly; other dimensions are skipped.
func (o *Optimizer) saveIntermediaryResult(I *field.Dense, it int) error {
	if !o.cfg.Output.SaveIntermediaryResults || o.grid.Dim() != 2 {
		return nil
	}
	path := filepath.Join(o.cfg.Output.IntermediaryDir, fmt.Sprintf("iter_%03d.png", it))
	if err := visualization.SaveImage(I, path); err != nil {
		return fmt.Errorf("registration: saving iteration %d snapshot: %w", it, err)
	}
	return nil
}

// Advect transports an image along the velocity field by integrating the
// transport equation dI/dt = -v . grad(I) with the configured Runge-Kutta
// scheme over the unit time interval.
func (o *Optimizer) Advect(v field.Vector, I0 *field.Dense) (*field.Dense, error) {
	if err := v.Validate(o.grid); err != nil {
		return nil, err
	}
	rk := integrator.NewRK4(o.advectionRHS(v), nil, nil, o.cfg.Integrator)
	out, err := rk.Solve([]*field.Dense{I0}, 0, 1)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// advectionRHS captures a fixed velocity field and evaluates the right-hand
// side of the transport equation. The state and velocity shapes are
// validated before any solve, so a failing derivative inside the closure
// means the invariant is broken and the solve must not continue.
func (o *Optimizer) advectionRHS(v field.Vector) integrator.RHS[*field.Dense] {
	return func(t float64, x []*field.Dense, u []*field.Dense, pars any) []*field.Dense {
		I := x[0]
		dI := field.NewDense(I.Shape()...)
		dv := dI.Values()
		for d := 0; d < o.grid.Dim(); d++ {
			g, err := o.engine.Derivative(I, d, fd.Central)
			if err != nil {
				panic(fmt.Sprintf("registration: gradient of validated state failed: %v", err))
			}
			gv := g.Values()
			vv := v[d].Values()
			for i := range dv {
				dv[i] -= vv[i] * gv[i]
			}
		}
		return []*field.Dense{dI}
	}
}

// FlowMap integrates dphi/dt = -v(phi) from the identity map over the
// unit interval. Sampling the source image at the resulting map is
// equivalent to advecting it forward along v.
func (o *Optimizer) FlowMap(v field.Vector) (field.Vector, error) {
	if err := v.Validate(o.grid); err != nil {
		return nil, err
	}
	dim := o.grid.Dim()
	// v and the map state are validated above, so sampling can only fail
	// if that invariant is broken; do not continue with a corrupt flow
	rhs := func(t float64, x []*field.Dense, u []*field.Dense, pars any) []*field.Dense {
		phi := field.Vector(x)
		out := make([]*field.Dense, dim)
		for d := 0; d < dim; d++ {
			s, err := interpolation.Sample(v[d], phi, o.grid.Spacing())
			if err != nil {
				panic(fmt.Sprintf("registration: sampling validated velocity failed: %v", err))
			}
			out[d] = s.Scale(-1)
		}
		return out
	}
	rk := integrator.NewRK4(rhs, nil, nil, o.cfg.Integrator)
	phi, err := rk.Solve([]*field.Dense(field.PositionMap(o.grid)), 0, 1)
	if err != nil {
		return nil, err
	}
	return field.Vector(phi), nil
}

func (o *Optimizer) computeMetrics(warped *field.Dense) models.Metrics {
	w := warped.Values()
	tgt := o.pair.Target.Values()
	diff := make([]float64, len(w))
	floats.SubTo(diff, w, tgt)
	ssd := floats.Dot(diff, diff)
	return models.Metrics{
		SSD:         ssd * o.grid.VolumeElement(),
		RMSE:        math.Sqrt(ssd / float64(len(diff))),
		Correlation: stat.Correlation(w, tgt, nil),
	}
}
