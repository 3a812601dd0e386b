package field

import (
	"fmt"
)

// Vector is a vector-valued field: one scalar component per spatial axis.
// A velocity or displacement field is represented this way, with the
// component index first and the grid axes following.
type Vector []*Dense

// Dim returns the number of components.
func (v Vector) Dim() int { return len(v) }

// Clone returns a deep copy of every component.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for i, c := range v {
		out[i] = c.Clone()
	}
	return out
}

// Validate checks that the vector has one component per grid axis and that
// every component matches the grid shape.
func (v Vector) Validate(g *Grid) error {
	if len(v) != g.Dim() {
		return fmt.Errorf("field: vector has %d components for a %d-dimensional grid", len(v), g.Dim())
	}
	for i, c := range v {
		if c.Rank() != g.Dim() {
			return fmt.Errorf("field: component %d has rank %d, want %d", i, c.Rank(), g.Dim())
		}
		for ax, s := range c.Shape() {
			if s != g.Shape()[ax] {
				return fmt.Errorf("field: component %d shape %v does not match grid %v", i, c.Shape(), g.Shape())
			}
		}
	}
	return nil
}
