package fluid

import (
	"math"

	"github.com/suspension-sim/suspension-sim/sim/parallel"
	"github.com/suspension-sim/suspension-sim/sim/tdm"
)

// poisson holds the buffers and plans of the pressure solver. qx is
// x-aligned with this rank's rows (qx[j*itot+i]); qy is y-aligned with this
// rank's wavenumbers (qy[i*jtot+j]).
type poisson struct {
	qx, qy  []float64
	dct     *dct
	solver  *tdm.Solver
	xToY    *parallel.Transpose[float64]
	yToX    *parallel.Transpose[float64]
	isize   int
	ioffset int
}

func newPoisson(f *Fluid) *poisson {
	itot, jtot := f.g.ITot, f.g.JTot
	ps := &poisson{
		dct:     newDCT(itot),
		solver:  tdm.New(jtot, true),
		xToY:    parallel.NewTranspose[float64](f.comm, itot, jtot),
		yToX:    parallel.NewTranspose[float64](f.comm, jtot, itot),
		isize:   f.comm.LocalSize(itot),
		ioffset: f.comm.LocalOffset(itot),
	}
	ps.qx = make([]float64, ps.xToY.SendLen())
	ps.qy = make([]float64, ps.xToY.RecvLen())
	return ps
}

// ComputePotential solves lap(psi) = div(u) / (gamma dt) with a cosine
// transform in x and a periodic tridiagonal solve in y.
func (f *Fluid) ComputePotential(rk int, dt float64) {
	if f.poisson == nil {
		f.poisson = newPoisson(f)
	}
	ps := f.poisson
	g := f.g
	itot, jtot, jsize := g.ITot, g.JTot, g.JSize
	dx, dy := g.DX, g.DY
	factor := 1 / (f.rk[rk].Gamma * dt)

	for j := 1; j <= jsize; j++ {
		row := ps.qx[(j-1)*itot : j*itot]
		for i := 1; i <= itot; i++ {
			div := (f.UX.At(i+1, j)-f.UX.At(i, j))/dx +
				(f.UY.At(i, j+1)-f.UY.At(i, j))/dy
			row[i-1] = factor * div
		}
		ps.dct.forward(row)
	}

	ps.xToY.Execute(ps.qx, ps.qy)

	s := ps.solver
	for i := 0; i < ps.isize; i++ {
		k := float64(i + ps.ioffset)
		eig := -4 / (dx * dx) * math.Pow(math.Sin(math.Pi*k/(2*float64(itot))), 2)
		for j := 0; j < jtot; j++ {
			s.L[j] = 1 / (dy * dy)
			s.U[j] = 1 / (dy * dy)
			s.C[j] = -s.L[j] - s.U[j] + eig
		}
		tdm.Solve(s, ps.qy[i*jtot:(i+1)*jtot])
	}

	ps.yToX.Execute(ps.qy, ps.qx)

	norm := 1 / (2 * float64(itot))
	for j := 1; j <= jsize; j++ {
		row := ps.qx[(j-1)*itot : j*itot]
		ps.dct.inverse(row)
		for i := 1; i <= itot; i++ {
			f.Psi.Set(i, j, row[i-1]*norm)
		}
	}
	f.UpdateBoundariesP(f.Psi)
}
