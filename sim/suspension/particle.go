package suspension

import (
	"math"

	"github.com/suspension-sim/suspension-sim/sim/ellipse"
)

// Particle is one rigid elliptical particle. Den, A and B never change.
//
// The two-slot arrays hold values evaluated at the start of the Runge-Kutta
// sub-step (index 0) and at the predicted state of the current
// sub-iteration (index 1).
type Particle struct {
	Den float64 // density ratio to the fluid
	A   float64 // semi-major axis
	B   float64 // semi-minor axis

	X, Y, AZ   float64 // centre and orientation
	UX, UY, VZ float64 // translational and angular velocity

	// increments over the current sub-step
	DX, DY, DAZ   float64
	DUX, DUY, DVZ float64

	// fluid-particle interaction, normalised by mass or moment of inertia
	FUX, FUY, TVZ float64

	CFX, CFY, CTZ [2]float64 // collision force and torque
	IUX, IUY, IVZ [2]float64 // internal fluid momentum
}

// Volume of an ellipse with semi-axes a and b.
func Volume(a, b float64) float64 {
	return math.Pi * a * b
}

// Mass of an ellipse of density den.
func Mass(den, a, b float64) float64 {
	return den * Volume(a, b)
}

// MomentOfInertia of an ellipse about its centre.
func MomentOfInertia(den, a, b float64) float64 {
	return 0.25 * Mass(den, a, b) * (a*a + b*b)
}

// Mass of the particle.
func (p *Particle) Mass() float64 { return Mass(p.Den, p.A, p.B) }

// MomentOfInertia of the particle.
func (p *Particle) MomentOfInertia() float64 { return MomentOfInertia(p.Den, p.A, p.B) }

// Radius of the bounding circle.
func (p *Particle) Radius() float64 { return math.Max(p.A, p.B) }

// Shape returns the particle at its current position.
func (p *Particle) Shape() ellipse.Ellipse {
	return ellipse.Ellipse{A: p.A, B: p.B, X: p.X, Y: p.Y, Angle: p.AZ}
}

// resetIncrements clears the sub-step increments.
func (p *Particle) resetIncrements() {
	p.DX, p.DY, p.DAZ = 0, 0, 0
	p.DUX, p.DUY, p.DVZ = 0, 0, 0
}
