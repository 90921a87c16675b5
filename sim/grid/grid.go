// Package grid describes the computational domain: wall-bounded in x with
// LX fixed to unity, periodic in y, and split into y-slabs across ranks.
//
// Coordinate slices are indexed exactly like the staggered arrays they
// accompany, so XF[i] is the position of ux(i, j) and XC[i] of p(i, j).
// Entries outside the documented ranges are unused.
package grid

import (
	"fmt"

	"github.com/suspension-sim/suspension-sim/sim/parallel"
)

// LX is the wall-to-wall distance.
const LX = 1.0

// RKSteps is the number of Runge-Kutta sub-steps per time step.
const RKSteps = 3

// RKCoef holds the weights of one low-storage Runge-Kutta sub-step.
// Alpha weighs the newest explicit source, Beta the previous one, and
// Gamma = Alpha + Beta the implicit pressure-gradient term.
type RKCoef struct {
	Alpha float64
	Beta  float64
	Gamma float64
}

// RungeKutta returns the three-step coefficients.
func RungeKutta() [RKSteps]RKCoef {
	coefs := [RKSteps]RKCoef{
		{Alpha: 32. / 60., Beta: 0. / 60.},
		{Alpha: 25. / 60., Beta: -17. / 60.},
		{Alpha: 45. / 60., Beta: -25. / 60.},
	}
	for n := range coefs {
		coefs[n].Gamma = coefs[n].Alpha + coefs[n].Beta
	}
	return coefs
}

// Grid holds global extents, x coordinates, and this rank's y-slab.
type Grid struct {
	ITot int
	JTot int
	LX   float64
	LY   float64
	DX   float64
	DY   float64

	XF  []float64 // face positions,        i in [1, itot+1]
	XC  []float64 // centre positions,      i in [0, itot+1]; walls at both ends
	DXF []float64 // face-to-face spacing,   i in [1, itot]
	DXC []float64 // centre-to-centre spacing, i in [1, itot+1]

	JSize   int
	JOffset int
	YF      []float64 // local face positions,   j in [1, jsize+1]
	YC      []float64 // local centre positions, j in [1, jsize]
}

// New builds the grid seen by the rank owning comm.
func New(itot, jtot int, ly float64, comm *parallel.Comm) (*Grid, error) {
	if itot < 2 || jtot < 2 {
		return nil, fmt.Errorf("grid: need at least 2x2 cells, got %dx%d", itot, jtot)
	}
	if ly <= 0 {
		return nil, fmt.Errorf("grid: ly must be positive, got %g", ly)
	}
	if jtot < comm.Size() || itot < comm.Size() {
		return nil, fmt.Errorf("grid: %dx%d cells cannot be split over %d ranks", itot, jtot, comm.Size())
	}
	g := &Grid{
		ITot:    itot,
		JTot:    jtot,
		LX:      LX,
		LY:      ly,
		DX:      LX / float64(itot),
		DY:      ly / float64(jtot),
		XF:      make([]float64, itot+2),
		XC:      make([]float64, itot+2),
		DXF:     make([]float64, itot+1),
		DXC:     make([]float64, itot+2),
		JSize:   comm.LocalSize(jtot),
		JOffset: comm.LocalOffset(jtot),
	}
	for i := 1; i <= itot+1; i++ {
		g.XF[i] = float64(i-1) * g.DX
	}
	g.XF[1] = 0
	g.XF[itot+1] = g.LX
	for i := 1; i <= itot; i++ {
		g.DXF[i] = g.XF[i+1] - g.XF[i]
	}
	g.XC[0] = g.XF[1]
	for i := 1; i <= itot; i++ {
		g.XC[i] = 0.5 * (g.XF[i] + g.XF[i+1])
	}
	g.XC[itot+1] = g.XF[itot+1]
	for i := 1; i <= itot+1; i++ {
		g.DXC[i] = g.XC[i] - g.XC[i-1]
	}

	yoffset := g.DY * float64(g.JOffset)
	g.YF = make([]float64, g.JSize+2)
	g.YC = make([]float64, g.JSize+2)
	for j := 1; j <= g.JSize+1; j++ {
		g.YF[j] = yoffset + float64(j-1)*g.DY
	}
	for j := 1; j <= g.JSize; j++ {
		g.YC[j] = yoffset + 0.5*float64(2*j-1)*g.DY
	}
	return g, nil
}

// GridSize is the length scale used to normalise particle kernels.
func (g *Grid) GridSize() float64 {
	return min(g.DX, g.DY)
}

// GlobalYF returns the jtot+1 face positions of the whole domain.
func (g *Grid) GlobalYF() []float64 {
	yf := make([]float64, g.JTot+1)
	for j := range yf {
		yf[j] = float64(j) * g.DY
	}
	return yf
}

// GlobalYC returns the jtot centre positions of the whole domain.
func (g *Grid) GlobalYC() []float64 {
	yf := g.GlobalYF()
	yc := make([]float64, g.JTot)
	for j := range yc {
		yc[j] = 0.5 * (yf[j] + yf[j+1])
	}
	return yc
}
