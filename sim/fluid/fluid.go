// Package fluid advances the incompressible Navier-Stokes equations on the
// staggered grid with a low-storage three-step Runge-Kutta scheme and a
// fractional-step projection.
//
// One sub-step is UpdateVelocity, ComputePotential, CorrectVelocity and
// UpdatePressure, in that order. Coupling terms from other subsystems are
// added to UX and UY between UpdateVelocity and ComputePotential.
package fluid

import (
	"github.com/suspension-sim/suspension-sim/sim/field"
	"github.com/suspension-sim/suspension-sim/sim/grid"
	"github.com/suspension-sim/suspension-sim/sim/parallel"
)

// Params holds the physical parameters the fluid solver needs.
type Params struct {
	Re             float64 // Reynolds number
	ExtForceY      float64 // uniform body force in y
	WallVelocityXm float64 // uy on the x = 0 wall
	WallVelocityXp float64 // uy on the x = lx wall
}

// Fluid owns the flow state of one rank.
type Fluid struct {
	g      *grid.Grid
	comm   *parallel.Comm
	params Params
	rk     [grid.RKSteps]grid.RKCoef

	UX  *field.Array
	UY  *field.Array
	P   *field.Array
	Psi *field.Array

	// Runge-Kutta sources: A newest explicit, B previous explicit,
	// G implicit pressure gradient.
	SrcUXA, SrcUXB, SrcUXG *field.Array
	SrcUYA, SrcUYB, SrcUYG *field.Array

	poisson *poisson
}

// New allocates a quiescent flow field with consistent boundaries.
func New(g *grid.Grid, comm *parallel.Comm, params Params) *Fluid {
	itot, jsize := g.ITot, g.JSize
	f := &Fluid{
		g:      g,
		comm:   comm,
		params: params,
		rk:     grid.RungeKutta(),
		UX:     field.New(field.XFace, itot, jsize),
		UY:     field.New(field.YFace, itot, jsize),
		P:      field.New(field.Center, itot, jsize),
		Psi:    field.New(field.Center, itot, jsize),
		SrcUXA: field.New(field.XFace, itot, jsize),
		SrcUXB: field.New(field.XFace, itot, jsize),
		SrcUXG: field.New(field.XFace, itot, jsize),
		SrcUYA: field.New(field.YFace, itot, jsize),
		SrcUYB: field.New(field.YFace, itot, jsize),
		SrcUYG: field.New(field.YFace, itot, jsize),
	}
	f.RefreshBoundaries()
	return f
}

// Grid returns the grid the field lives on.
func (f *Fluid) Grid() *grid.Grid { return f.g }

// Params returns the physical parameters.
func (f *Fluid) Params() Params { return f.params }

// RefreshBoundaries updates the halo and wall values of ux, uy and p.
func (f *Fluid) RefreshBoundaries() {
	f.UpdateBoundariesUX(f.UX)
	f.UpdateBoundariesUY(f.UY)
	f.UpdateBoundariesP(f.P)
}

// UpdateBoundariesUX exchanges the y halo of an x-face array and pins the
// wall-normal velocity to zero on both walls.
func (f *Fluid) UpdateBoundariesUX(ux *field.Array) {
	itot, jsize := f.g.ITot, f.g.JSize
	f.exchangeHalo(ux, 2, itot)
	for j := 0; j <= jsize+1; j++ {
		ux.Set(1, j, 0)
		ux.Set(itot+1, j, 0)
	}
}

// UpdateBoundariesUY exchanges the y halo of a y-face array and imposes the
// wall velocities.
func (f *Fluid) UpdateBoundariesUY(uy *field.Array) {
	itot, jsize := f.g.ITot, f.g.JSize
	f.exchangeHalo(uy, 1, itot)
	for j := 0; j <= jsize+1; j++ {
		uy.Set(0, j, f.params.WallVelocityXm)
		uy.Set(itot+1, j, f.params.WallVelocityXp)
	}
}

// UpdateBoundariesP exchanges the y halo of a cell-centred array and applies
// a zero-gradient condition on both walls.
func (f *Fluid) UpdateBoundariesP(p *field.Array) {
	itot, jsize := f.g.ITot, f.g.JSize
	f.exchangeHalo(p, 1, itot)
	for j := 0; j <= jsize+1; j++ {
		p.Set(0, j, p.At(1, j))
		p.Set(itot+1, j, p.At(itot, j))
	}
}

// exchangeHalo fills rows 0 and jsize+1 over columns [i0, i1] from the
// neighbouring slabs.
func (f *Fluid) exchangeHalo(a *field.Array, i0, i1 int) {
	jsize := f.g.JSize
	f.comm.ExchangeHaloWithYm(a.Span(jsize, i0, i1), a.Span(0, i0, i1))
	f.comm.ExchangeHaloWithYp(a.Span(1, i0, i1), a.Span(jsize+1, i0, i1))
}
