package fluid

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Divergence returns the global maximum magnitude and the global sum of the
// cell divergence. Every rank receives the same values. It is a collective
// call and must be made by every rank.
func (f *Fluid) Divergence() (maxDiv, sumDiv float64) {
	g := f.g
	div := make([]float64, g.ITot)
	for j := 1; j <= g.JSize; j++ {
		for i := 1; i <= g.ITot; i++ {
			div[i-1] = (f.UX.At(i+1, j)-f.UX.At(i, j))/g.DXF[i] +
				(f.UY.At(i, j+1)-f.UY.At(i, j))/g.DY
		}
		maxDiv = math.Max(maxDiv, floats.Norm(div, math.Inf(1)))
		sumDiv += floats.Sum(div)
	}
	return f.comm.MaxScalar(maxDiv), f.comm.SumScalar(sumDiv)
}

// Momentum returns the domain-integrated x and y momentum. Like Divergence,
// every rank must call it.
func (f *Fluid) Momentum() (x, y float64) {
	return f.integrate(func(v float64) float64 { return v })
}

// Energy returns the domain-integrated kinetic energy of each velocity
// component. Every rank must call it.
func (f *Fluid) Energy() (x, y float64) {
	return f.integrate(func(v float64) float64 { return 0.5 * v * v })
}

// integrate sums q(ux) over x faces weighted by dxc dy and q(uy) over y faces
// weighted by dxf dy.
func (f *Fluid) integrate(q func(float64) float64) (x, y float64) {
	g := f.g
	wx := make([]float64, g.ITot+1)
	floats.ScaleTo(wx, g.DY, g.DXC[1:g.ITot+2])
	wy := make([]float64, g.ITot)
	floats.ScaleTo(wy, g.DY, g.DXF[1:g.ITot+1])
	qx := make([]float64, g.ITot+1)
	qy := make([]float64, g.ITot)
	for j := 1; j <= g.JSize; j++ {
		for n, v := range f.UX.Span(j, 1, g.ITot+1) {
			qx[n] = q(v)
		}
		for n, v := range f.UY.Span(j, 1, g.ITot) {
			qy[n] = q(v)
		}
		x += floats.Dot(qx, wx)
		y += floats.Dot(qy, wy)
	}
	buf := []float64{x, y}
	f.comm.AllreduceSum(buf)
	return buf[0], buf[1]
}
