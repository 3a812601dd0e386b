package smoother

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// fftND computes the unnormalized forward discrete Fourier transform of a
// real field of the given shape, axis by axis. The transform is separable,
// so applying a one-dimensional FFT along every axis in turn yields the
// full N-dimensional spectrum.
func fftND(values []float64, shape []int) []complex128 {
	c := make([]complex128, len(values))
	for i, v := range values {
		c[i] = complex(v, 0)
	}
	transformAxes(c, shape, false)
	return c
}

// ifftND computes the inverse transform and returns the real part,
// normalized by the total number of samples.
func ifftND(coeffs []complex128, shape []int) []float64 {
	c := append([]complex128(nil), coeffs...)
	transformAxes(c, shape, true)
	n := float64(len(c))
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = real(v) / n
	}
	return out
}

// transformAxes runs an unnormalized 1D complex FFT along every axis of
// the array in place.
func transformAxes(c []complex128, shape []int, inverse bool) {
	for axis, n := range shape {
		fft := fourier.NewCmplxFFT(n)

		stride := 1
		for i := axis + 1; i < len(shape); i++ {
			stride *= shape[i]
		}
		outer := 1
		for i := 0; i < axis; i++ {
			outer *= shape[i]
		}
		block := n * stride

		line := make([]complex128, n)
		coef := make([]complex128, n)
		for o := 0; o < outer; o++ {
			for s := 0; s < stride; s++ {
				base := o*block + s
				for k := 0; k < n; k++ {
					line[k] = c[base+k*stride]
				}
				if inverse {
					fft.Sequence(coef, line)
				} else {
					fft.Coefficients(coef, line)
				}
				for k := 0; k < n; k++ {
					c[base+k*stride] = coef[k]
				}
			}
		}
	}
}
