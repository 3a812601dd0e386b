// Package integrator provides fixed-step explicit Runge-Kutta schemes for
// forward-integrating dynamic models. The state is a composite ordered
// list of fields; the integrator only requires each element to support
// addition and scalar multiplication and never inspects what an element
// represents, so scalar fields, vector-field components and opaque
// numeric arrays can be mixed by the caller's right-hand-side function.
//
// No validation of numerical stability is performed: NaN and Inf values
// propagate silently through the steps, and detecting them is the
// caller's responsibility.
package integrator

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a solve is started with a state that
// is not structured as the expected composite list, or when the
// right-hand-side function returns a list of different arity.
var ErrInvalidState = errors.New("integrator state must be a non-empty list of fields")

// Operand constrains the element type of the composite state list. All
// three operations must be value-semantic: they return a new element and
// leave the receiver untouched.
type Operand[T any] interface {
	// Add returns the elementwise sum with y.
	Add(y T) T
	// AddScaled returns the elementwise sum with y*s.
	AddScaled(y T, s float64) T
	// Scale returns the element multiplied by s.
	Scale(s float64) T
}

// RHS evaluates the right-hand side dx/dt = f(t, x, u, pars) of the
// dynamical system. The returned list must have the same arity as x.
type RHS[T Operand[T]] func(t float64, x []T, u []T, pars any) []T

// Control evaluates an optional control input u(t, pars) supplied to
// every RHS invocation at the corresponding stage time.
type Control[T Operand[T]] func(t float64, pars any) []T

// Config parametrizes an integrator.
type Config struct {
	// NumberOfTimeSteps is the fixed step count N used to partition the
	// integration interval. Values below 1 fall back to the default of
	// 10.
	NumberOfTimeSteps int `yaml:"number_of_time_steps"`
}

// DefaultConfig returns the reference step count.
func DefaultConfig() Config { return Config{NumberOfTimeSteps: 10} }

// Integrator advances a composite state between two time points using a
// fixed number of equal steps.
type Integrator[T Operand[T]] interface {
	// Solve partitions [fromT, toT] into the configured number of equal
	// steps and threads the state through them.
	Solve(x []T, fromT, toT float64) ([]T, error)

	// SolveOneStep advances the state by a single step of size dt.
	SolveOneStep(x []T, t, dt float64) ([]T, error)

	// NumberOfTimeSteps returns the configured step count.
	NumberOfTimeSteps() int

	// SetNumberOfTimeSteps updates the step count for subsequent solves.
	SetNumberOfTimeSteps(n int)
}

// core carries what every explicit scheme shares: the RHS, the optional
// control input, the opaque parameter object and the step count.
type core[T Operand[T]] struct {
	f     RHS[T]
	u     Control[T]
	pars  any
	steps int
}

func newCore[T Operand[T]](f RHS[T], u Control[T], pars any, cfg Config) core[T] {
	steps := cfg.NumberOfTimeSteps
	if steps < 1 {
		steps = DefaultConfig().NumberOfTimeSteps
	}
	if u == nil {
		u = func(t float64, pars any) []T { return nil }
	}
	return core[T]{f: f, u: u, pars: pars, steps: steps}
}

// NumberOfTimeSteps returns the configured step count.
func (c *core[T]) NumberOfTimeSteps() int { return c.steps }

// SetNumberOfTimeSteps updates the step count for subsequent solves.
func (c *core[T]) SetNumberOfTimeSteps(n int) {
	if n >= 1 {
		c.steps = n
	}
}

func (c *core[T]) checkState(x []T) error {
	if len(x) == 0 {
		return ErrInvalidState
	}
	return nil
}

// rhs evaluates f and validates the arity of the result.
func (c *core[T]) rhs(t float64, x []T) ([]T, error) {
	dx := c.f(t, x, c.u(t, c.pars), c.pars)
	if len(dx) != len(x) {
		return nil, fmt.Errorf("integrator: %w: right-hand side returned %d elements for a state of %d",
			ErrInvalidState, len(dx), len(x))
	}
	return dx, nil
}

// solve runs the shared fixed-step loop with the scheme's one-step
// function.
func (c *core[T]) solve(x []T, fromT, toT float64, step func(x []T, t, dt float64) ([]T, error)) ([]T, error) {
	if err := c.checkState(x); err != nil {
		return nil, err
	}
	dt := (toT - fromT) / float64(c.steps)
	t := fromT
	var err error
	for i := 0; i < c.steps; i++ {
		x, err = step(x, t, dt)
		if err != nil {
			return nil, err
		}
		t += dt
	}
	return x, nil
}

// xpyts returns x + y*s elementwise across the composite list.
func xpyts[T Operand[T]](x, y []T, s float64) []T {
	out := make([]T, len(x))
	for i := range x {
		out[i] = x[i].AddScaled(y[i], s)
	}
	return out
}

// xpy returns x + y elementwise across the composite list.
func xpy[T Operand[T]](x, y []T) []T {
	out := make([]T, len(x))
	for i := range x {
		out[i] = x[i].Add(y[i])
	}
	return out
}

// EulerForward is the first-order explicit scheme: one RHS evaluation per
// step, x_{n+1} = x_n + dt*f(t_n, x_n).
type EulerForward[T Operand[T]] struct {
	core[T]
}

// NewEulerForward builds an Euler-forward integrator. The control input
// and parameter object may be nil.
func NewEulerForward[T Operand[T]](f RHS[T], u Control[T], pars any, cfg Config) *EulerForward[T] {
	return &EulerForward[T]{core: newCore(f, u, pars, cfg)}
}

// Solve integrates the state from fromT to toT.
func (e *EulerForward[T]) Solve(x []T, fromT, toT float64) ([]T, error) {
	return e.solve(x, fromT, toT, e.SolveOneStep)
}

// SolveOneStep advances the state by a single Euler step.
func (e *EulerForward[T]) SolveOneStep(x []T, t, dt float64) ([]T, error) {
	if err := e.checkState(x); err != nil {
		return nil, err
	}
	dx, err := e.rhs(t, x)
	if err != nil {
		return nil, err
	}
	return xpyts(x, dx, dt), nil
}

// RK4 is the classical four-stage fourth-order scheme: four RHS
// evaluations per step.
type RK4[T Operand[T]] struct {
	core[T]
}

// NewRK4 builds a classical Runge-Kutta integrator. The control input and
// parameter object may be nil.
func NewRK4[T Operand[T]](f RHS[T], u Control[T], pars any, cfg Config) *RK4[T] {
	return &RK4[T]{core: newCore(f, u, pars, cfg)}
}

// Solve integrates the state from fromT to toT.
func (r *RK4[T]) Solve(x []T, fromT, toT float64) ([]T, error) {
	return r.solve(x, fromT, toT, r.SolveOneStep)
}

// SolveOneStep advances the state by a single RK4 step:
// x_{n+1} = x_n + dt/6*(k1 + 2*k2 + 2*k3 + k4).
func (r *RK4[T]) SolveOneStep(x []T, t, dt float64) ([]T, error) {
	if err := r.checkState(x); err != nil {
		return nil, err
	}
	k1, err := r.rhs(t, x)
	if err != nil {
		return nil, err
	}
	k2, err := r.rhs(t+0.5*dt, xpyts(x, k1, 0.5*dt))
	if err != nil {
		return nil, err
	}
	k3, err := r.rhs(t+0.5*dt, xpyts(x, k2, 0.5*dt))
	if err != nil {
		return nil, err
	}
	k4, err := r.rhs(t+dt, xpyts(x, k3, dt))
	if err != nil {
		return nil, err
	}
	out := make([]T, len(x))
	for i := range x {
		ki := k1[i].AddScaled(k2[i], 2).Add(k3[i].Scale(2)).Add(k4[i])
		out[i] = x[i].AddScaled(ki, dt/6)
	}
	return out, nil
}
