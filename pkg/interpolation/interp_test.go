package interpolation

import (
	"math"
	"testing"

	"regflow/pkg/field"
)

func positionMap(t *testing.T, shape []int, spacing []float64) field.Vector {
	t.Helper()
	g, err := field.NewGrid(shape, spacing)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	return field.PositionMap(g)
}

// Sampling at the identity position map must return the field unchanged.
func TestIdentitySampling(t *testing.T) {
	I := field.NewDense(6, 7)
	for i := 0; i < 6; i++ {
		for j := 0; j < 7; j++ {
			I.Set(float64(i*10+j), i, j)
		}
	}
	phi := positionMap(t, []int{6, 7}, []float64{0.5, 2})

	out, err := Sample(I, phi, []float64{0.5, 2})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	for i := range I.Values() {
		if math.Abs(out.Values()[i]-I.Values()[i]) > 1e-12 {
			t.Fatalf("identity sampling changed value at %d: got %g, want %g",
				i, out.Values()[i], I.Values()[i])
		}
	}
}

// A half-voxel shift on a linear ramp yields the midpoint values.
func TestHalfVoxelShiftOnRamp(t *testing.T) {
	I := field.NewDense(8)
	for i := range I.Values() {
		I.Values()[i] = float64(i)
	}
	phi := positionMap(t, []int{8}, []float64{1})
	shifted := field.Vector{phi[0].AddScaled(constant(8, 1), 0.5)}

	out, err := Sample(I, shifted, []float64{1})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	for i := 0; i < 7; i++ {
		want := float64(i) + 0.5
		if math.Abs(out.Values()[i]-want) > 1e-12 {
			t.Errorf("shifted sample at %d = %g, want %g", i, out.Values()[i], want)
		}
	}
}

// Positions outside the domain clamp to the nearest edge value.
func TestOutOfDomainClamping(t *testing.T) {
	I, _ := field.NewDenseFrom([]float64{10, 20, 30, 40}, 4)
	phi := field.Vector{mustDense(t, []float64{-5, 0, 3, 100}, 4)}

	out, err := Sample(I, phi, []float64{1})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	for i, want := range []float64{10, 10, 40, 40} {
		if math.Abs(out.Values()[i]-want) > 1e-12 {
			t.Errorf("clamped sample %d = %g, want %g", i, out.Values()[i], want)
		}
	}
}

// Trilinear interpolation is exact for fields linear in the coordinates.
func TestTrilinearExactOnLinearField(t *testing.T) {
	I := field.NewDense(4, 5, 6)
	for i := 0; i < 4; i++ {
		for j := 0; j < 5; j++ {
			for k := 0; k < 6; k++ {
				I.Set(2*float64(i)+3*float64(j)-float64(k), i, j, k)
			}
		}
	}
	phi := positionMap(t, []int{4, 5, 6}, []float64{1, 1, 1})
	// shift every axis by 0.25 voxels, away from the upper boundary
	shifted := make(field.Vector, 3)
	for d := range shifted {
		shifted[d] = phi[d].AddScaled(constant3(4, 5, 6, 1), 0.25)
	}

	out, err := Sample(I, shifted, []float64{1, 1, 1})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 5; k++ {
				want := 2*(float64(i)+0.25) + 3*(float64(j)+0.25) - (float64(k) + 0.25)
				if math.Abs(out.At(i, j, k)-want) > 1e-12 {
					t.Fatalf("sample at (%d,%d,%d) = %g, want %g", i, j, k, out.At(i, j, k), want)
				}
			}
		}
	}
}

func TestComponentCountMismatch(t *testing.T) {
	I := field.NewDense(4, 4)
	phi := field.Vector{field.NewDense(4, 4)} // one component for a 2D field
	if _, err := Sample(I, phi, []float64{1, 1}); err == nil {
		t.Error("expected error for map component count mismatch")
	}
	if _, err := Sample(I, field.Vector{field.NewDense(4, 4), field.NewDense(4, 4)}, []float64{1}); err == nil {
		t.Error("expected error for spacing length mismatch")
	}
}

func constant(n int, v float64) *field.Dense {
	d := field.NewDense(n)
	d.Fill(v)
	return d
}

func constant3(n0, n1, n2 int, v float64) *field.Dense {
	d := field.NewDense(n0, n1, n2)
	d.Fill(v)
	return d
}

func mustDense(t *testing.T, data []float64, shape ...int) *field.Dense {
	t.Helper()
	d, err := field.NewDenseFrom(data, shape...)
	if err != nil {
		t.Fatalf("NewDenseFrom failed: %v", err)
	}
	return d
}
