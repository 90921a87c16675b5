package fluid

import "gonum.org/v1/gonum/dsp/fourier"

// dct performs the even-symmetric cosine transforms used to diagonalise the
// wall-normal Laplacian: a forward DCT-II and its DCT-III inverse, both
// unnormalised so that inverse(forward(x)) = 2n x.
type dct struct {
	n   int
	fft *fourier.QuarterWaveFFT
}

func newDCT(n int) *dct {
	return &dct{n: n, fft: fourier.NewQuarterWaveFFT(n)}
}

// forward overwrites x with X[k] = 2 sum_j x[j] cos(pi (2j+1) k / 2n).
func (d *dct) forward(x []float64) {
	d.fft.CosSequence(x, x)
	for k := range x {
		x[k] *= 0.5
	}
}

// inverse overwrites x with y[j] = x[0] + 2 sum_{k>0} x[k] cos(pi k (2j+1) / 2n).
func (d *dct) inverse(x []float64) {
	d.fft.CosCoefficients(x, x)
}
