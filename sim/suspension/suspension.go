// Package suspension couples rigid elliptical particles to the fluid with a
// diffuse-interface immersed boundary method and resolves their collisions
// with normal springs between equivalent circles.
//
// Every rank holds every particle. Per-rank partial integrals and forces are
// summed across ranks, so the particle state stays identical everywhere.
package suspension

import (
	"math"

	"github.com/suspension-sim/suspension-sim/sim/ellipse"
	"github.com/suspension-sim/suspension-sim/sim/field"
	"github.com/suspension-sim/suspension-sim/sim/fluid"
	"github.com/suspension-sim/suspension-sim/sim/grid"
	"github.com/suspension-sim/suspension-sim/sim/parallel"
)

// Suspensions holds all particles and the momentum they hand to the fluid.
type Suspensions struct {
	g    *grid.Grid
	comm *parallel.Comm
	fr   float64
	rk   [grid.RKSteps]grid.RKCoef

	Particles []Particle

	// momentum transferred to the fluid, cell centred
	DUX *field.Array
	DUY *field.Array

	buf []float64
}

// New takes ownership of particles. fr is the Froude number.
func New(g *grid.Grid, comm *parallel.Comm, particles []Particle, fr float64) *Suspensions {
	return &Suspensions{
		g:         g,
		comm:      comm,
		fr:        fr,
		rk:        grid.RungeKutta(),
		Particles: particles,
		DUX:       field.New(field.Center, g.ITot, g.JSize),
		DUY:       field.New(field.Center, g.ITot, g.JSize),
		buf:       make([]float64, 3*len(particles)),
	}
}

// Len returns the number of particles.
func (s *Suspensions) Len() int { return len(s.Particles) }

// forEachCell calls fn for every local cell centre near the particle at
// (px, py), once per periodic image in y. py is the image centre passed to fn.
func (s *Suspensions) forEachCell(radius, px, py float64, fn func(i, j int, x, y, py float64)) {
	g := s.g
	for image := -1; image <= 1; image++ {
		pyImage := py + g.LY*float64(image)
		imin, imax := loopRange(1, g.ITot, g.DX, radius, px)
		jmin, jmax := loopRange(1, g.JSize, g.DY, radius, pyImage-g.YF[1])
		for j := jmin; j <= jmax; j++ {
			for i := imin; i <= imax; i++ {
				fn(i, j, g.XC[i], g.YC[j], pyImage)
			}
		}
	}
}

// sumTriplets all-reduces three values per particle.
func (s *Suspensions) sumTriplets(get func(p *Particle) (float64, float64, float64), set func(p *Particle, a, b, c float64)) {
	for n := range s.Particles {
		s.buf[3*n], s.buf[3*n+1], s.buf[3*n+2] = get(&s.Particles[n])
	}
	s.comm.AllreduceSum(s.buf)
	for n := range s.Particles {
		set(&s.Particles[n], s.buf[3*n], s.buf[3*n+1], s.buf[3*n+2])
	}
}

// ComputeInertia integrates the fluid momentum inside each particle at its
// predicted position and stores it in slot cn.
func (s *Suspensions) ComputeInertia(cn int, f *fluid.Fluid) {
	g := s.g
	gs := g.GridSize()
	cell := g.DX * g.DY
	for n := range s.Particles {
		p := &s.Particles[n]
		px, py, paz := p.X+p.DX, p.Y+p.DY, p.AZ+p.DAZ
		m, im := p.Mass(), p.MomentOfInertia()
		var iux, iuy, ivz float64
		s.forEachCell(p.Radius(), px, py, func(i, j int, x, y, pyImage float64) {
			e := ellipse.Ellipse{A: p.A, B: p.B, X: px, Y: pyImage, Angle: paz}
			w := VolumeWeight(gs, e, x, y)
			valx := w * 0.5 * (f.UX.At(i, j) + f.UX.At(i+1, j)) * cell
			valy := w * 0.5 * (f.UY.At(i, j) + f.UY.At(i, j+1)) * cell
			iux += valx / m
			ivz += -(y - pyImage) * valx / im
			iuy += valy / m
			ivz += (x - px) * valy / im
		})
		p.IUX[cn], p.IUY[cn], p.IVZ[cn] = iux, iuy, ivz
	}
	s.sumTriplets(
		func(p *Particle) (float64, float64, float64) { return p.IUX[cn], p.IUY[cn], p.IVZ[cn] },
		func(p *Particle, a, b, c float64) { p.IUX[cn], p.IUY[cn], p.IVZ[cn] = a, b, c },
	)
}

// ExchangeMomentum forces the fluid near each particle boundary towards the
// rigid-body velocity. The momentum given to the fluid is stored in DUX and
// DUY; the reaction is stored in FUX, FUY and TVZ.
func (s *Suspensions) ExchangeMomentum(f *fluid.Fluid, dt float64) {
	g := s.g
	gs := g.GridSize()
	cell := g.DX * g.DY
	s.DUX.Zero()
	s.DUY.Zero()
	for n := range s.Particles {
		p := &s.Particles[n]
		m, im := p.Mass(), p.MomentOfInertia()
		var fux, fuy, tvz float64
		s.forEachCell(p.Radius(), p.X, p.Y, func(i, j int, x, y, pyImage float64) {
			e := ellipse.Ellipse{A: p.A, B: p.B, X: p.X, Y: pyImage, Angle: p.AZ}
			w := SurfaceWeight(gs, e, x, y)
			uxP := p.UX - p.VZ*(y-pyImage)
			uyP := p.UY + p.VZ*(x-p.X)
			uxF := 0.5 * (f.UX.At(i, j) + f.UX.At(i+1, j))
			uyF := 0.5 * (f.UY.At(i, j) + f.UY.At(i, j+1))
			fx := w * (uxP - uxF) / dt
			fy := w * (uyP - uyF) / dt
			s.DUX.Add(i, j, fx*dt)
			s.DUY.Add(i, j, fy*dt)
			fux -= fx * cell / m
			tvz -= -(y - pyImage) * fx * cell / im
			fuy -= fy * cell / m
			tvz -= (x - p.X) * fy * cell / im
		})
		p.FUX, p.FUY, p.TVZ = fux, fuy, tvz
	}
	f.UpdateBoundariesP(s.DUX)
	f.UpdateBoundariesP(s.DUY)
	s.sumTriplets(
		func(p *Particle) (float64, float64, float64) { return p.FUX, p.FUY, p.TVZ },
		func(p *Particle, a, b, c float64) { p.FUX, p.FUY, p.TVZ = a, b, c },
	)
}

// UpdateMomentumField adds the exchanged momentum, interpolated to the
// faces, to the fluid velocity.
func (s *Suspensions) UpdateMomentumField(f *fluid.Fluid) {
	g := s.g
	for j := 1; j <= g.JSize; j++ {
		for i := 2; i <= g.ITot; i++ {
			f.UX.Add(i, j, 0.5*(s.DUX.At(i-1, j)+s.DUX.At(i, j)))
		}
	}
	f.UpdateBoundariesUX(f.UX)
	for j := 1; j <= g.JSize; j++ {
		for i := 1; i <= g.ITot; i++ {
			f.UY.Add(i, j, 0.5*(s.DUY.At(i, j-1)+s.DUY.At(i, j)))
		}
	}
	f.UpdateBoundariesUY(f.UY)
}

// ResetIncrements clears the increments of every particle.
func (s *Suspensions) ResetIncrements() {
	for n := range s.Particles {
		s.Particles[n].resetIncrements()
	}
}

// IncrementParticles recomputes the velocity and position increments of
// sub-step rk from the latest forces and returns the largest change of a
// velocity increment over all particles.
func (s *Suspensions) IncrementParticles(rk int, dt float64) float64 {
	gamma := s.rk[rk].Gamma
	buoyancy := 1 / (s.fr * s.fr)
	residual := 0.0
	for n := range s.Particles {
		p := &s.Particles[n]
		prevX, prevY, prevZ := p.DUX, p.DUY, p.DVZ
		p.DUX = 0.5*gamma*dt*(p.CFX[0]+p.CFX[1]) +
			dt*p.FUX +
			(p.IUX[1] - p.IUX[0]) +
			gamma*dt*(1-p.Den)*buoyancy
		p.DUY = 0.5*gamma*dt*(p.CFY[0]+p.CFY[1]) +
			dt*p.FUY +
			(p.IUY[1] - p.IUY[0])
		p.DVZ = 0.5*gamma*dt*(p.CTZ[0]+p.CTZ[1]) +
			dt*p.TVZ +
			(p.IVZ[1] - p.IVZ[0])
		residual = max(residual,
			math.Abs(p.DUX-prevX),
			math.Abs(p.DUY-prevY),
			math.Abs(p.DVZ-prevZ))

		p.DX = 0.5 * gamma * dt * (2*p.UX + p.DUX)
		p.DY = 0.5 * gamma * dt * (2*p.UY + p.DUY)
		p.DAZ = 0.5 * gamma * dt * (2*p.VZ + p.DVZ)
	}
	return s.comm.MaxScalar(residual)
}

// UpdateParticles commits the increments and wraps y and the orientation
// into their periodic ranges.
func (s *Suspensions) UpdateParticles() {
	ly := s.g.LY
	for n := range s.Particles {
		p := &s.Particles[n]
		p.UX += p.DUX
		p.UY += p.DUY
		p.VZ += p.DVZ
		p.X += p.DX
		p.Y += p.DY
		p.AZ += p.DAZ
		if p.Y < 0 {
			p.Y += ly
		}
		if p.Y > ly {
			p.Y -= ly
		}
		if p.AZ < 0 {
			p.AZ += 2 * math.Pi
		}
		if p.AZ > 2*math.Pi {
			p.AZ -= 2 * math.Pi
		}
	}
}

// AccumulateIndicator adds, for every local cell centre, the number of
// particles containing it.
func (s *Suspensions) AccumulateIndicator(phi *field.Array) {
	g := s.g
	for n := range s.Particles {
		p := &s.Particles[n]
		for image := -1; image <= 1; image++ {
			e := p.Shape()
			e.Y += g.LY * float64(image)
			for j := 1; j <= g.JSize; j++ {
				for i := 1; i <= g.ITot; i++ {
					if e.Inside(g.XC[i], g.YC[j]) {
						phi.Add(i, j, 1)
					}
				}
			}
		}
	}
}
