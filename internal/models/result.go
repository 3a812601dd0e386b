// Package models holds the data structures shared between the
// registration driver and the command-line front end.
package models

import (
	"regflow/pkg/field"
)

// ImagePair is a registration problem: a source image to deform, a target
// image to match and the shared physical grid spacing.
type ImagePair struct {
	// Source is the image being deformed.
	Source *field.Dense

	// Target is the image being matched.
	Target *field.Dense

	// Spacing is the per-axis physical distance between samples.
	Spacing []float64
}

// Metrics summarizes how well the warped source matches the target.
type Metrics struct {
	// SSD is the sum of squared differences times the volume element.
	SSD float64

	// RMSE is the root mean square intensity error.
	RMSE float64

	// Correlation is the Pearson correlation between warped source and
	// target.
	Correlation float64
}

// Result is the outcome of a registration run.
type Result struct {
	// Velocity is the estimated stationary velocity field.
	Velocity field.Vector

	// Map is the deformation map obtained by flowing the identity map
	// along the velocity field; sampling the source at Map yields the
	// warped image.
	Map field.Vector

	// Warped is the source image resampled through Map.
	Warped *field.Dense

	// Energy records the total energy at every iteration.
	Energy []float64

	// Metrics are the final match statistics.
	Metrics Metrics
}
