package suspension

import (
	"math"

	"github.com/suspension-sim/suspension-sim/sim/ellipse"
	"github.com/suspension-sim/suspension-sim/sim/parallel"
)

const dblEpsilon = 0x1p-52

// The collision pairs (n0, n1) with n0 < n1 are numbered row by row:
//
//	    | 0  1    2   ...  N-1   <- n1
//	----+------------------------
//	  0 |    0    1   ...  N-2
//	  1 |       N-1   ... 2N-4
//	 ...
//
// pairRowFirst and pairRowLast return the first and last pair index of row n0.
func pairRowFirst(n, n0 int) int { return (2*n - n0 - 1) * n0 / 2 }

func pairRowLast(n, n0 int) int { return (2*n-n0-2)*(n0+1)/2 - 1 }

// PairIndices maps a linear pair index k to the particle indices it couples.
func PairIndices(n, k int) (n0, n1 int) {
	for n0 = 0; n0 < n-1; n0++ {
		if pairRowFirst(n, n0) <= k && k <= pairRowLast(n, n0) {
			break
		}
	}
	return n0, k - pairRowFirst(n, n0) + n0 + 1
}

func harmonicMean(v0, v1 float64) float64 {
	return 1 / (0.5 * (1/v0 + 1/v1))
}

// predicted returns the particle at its predicted position. The orientation
// is the committed one.
func (p *Particle) predicted(yoffset float64) ellipse.Ellipse {
	return ellipse.Ellipse{A: p.A, B: p.B, X: p.X + p.DX, Y: p.Y + p.DY + yoffset, Angle: p.AZ}
}

// CollisionStats counts the equivalent-circle evaluations of one call and
// how many of them hit the iteration cap.
type CollisionStats struct {
	Contacts int
	Capped   int
}

func (c *CollisionStats) record(conv ellipse.Convergence) {
	c.Contacts++
	if !conv.Converged {
		c.Capped++
	}
}

// ComputeCollisionForce evaluates particle-particle and particle-wall spring
// forces at the predicted positions and stores them in slot cn. Pairs and
// wall contacts are split across ranks and the results summed.
func (s *Suspensions) ComputeCollisionForce(cn int) CollisionStats {
	var stats CollisionStats
	np := len(s.Particles)
	for n := range s.Particles {
		p := &s.Particles[n]
		p.CFX[cn], p.CFY[cn], p.CTZ[cn] = 0, 0, 0
	}

	size, rank := s.comm.Size(), s.comm.Rank()
	npairs := np * (np - 1) / 2
	lo := parallel.Offset(npairs, size, rank)
	hi := lo + parallel.Size(npairs, size, rank)
	for k := lo; k < hi; k++ {
		n0, n1 := PairIndices(np, k)
		s.collidePair(cn, &s.Particles[n0], &s.Particles[n1], &stats)
	}

	lo = parallel.Offset(np, size, rank)
	hi = lo + parallel.Size(np, size, rank)
	for _, wallx := range []float64{0, s.g.LX} {
		for n := lo; n < hi; n++ {
			s.collideWall(cn, wallx, &s.Particles[n], &stats)
		}
	}

	s.sumTriplets(
		func(p *Particle) (float64, float64, float64) { return p.CFX[cn], p.CFY[cn], p.CTZ[cn] },
		func(p *Particle, a, b, c float64) { p.CFX[cn], p.CFY[cn], p.CTZ[cn] = a, b, c },
	)
	return stats
}

// NearestImageOffset returns the multiple of ly that brings y1 closest to y0.
func NearestImageOffset(ly, y0, y1 float64) float64 {
	offset := 0.0
	best := math.MaxFloat64
	for image := -1; image <= 1; image++ {
		if d := math.Abs(y1 + ly*float64(image) - y0); d < best {
			best = d
			offset = ly * float64(image)
		}
	}
	return offset
}

func (s *Suspensions) collidePair(cn int, p0, p1 *Particle, stats *CollisionStats) {
	yoffset := NearestImageOffset(s.g.LY, p0.Y+p0.DY, p1.Y+p1.DY)
	e0 := p0.predicted(0)
	e1 := p1.predicted(yoffset)
	if p0.Radius()+p1.Radius() < math.Hypot(e1.X-e0.X, e1.Y-e0.Y) {
		return
	}

	c0, c1, conv := ellipse.EquivalentCircles(e0, e1)
	stats.record(conv)

	m0, m1 := p0.Mass(), p1.Mass()
	im0, im1 := p0.MomentOfInertia(), p1.MomentOfInertia()
	reft := math.Pow(harmonicMean(math.Sqrt(p0.A*p0.B), math.Sqrt(p1.A*p1.B)), 1.5)
	k := harmonicMean(m0, m1) * math.Pi * math.Pi / (reft * reft)

	nx, ny := c1.X-c0.X, c1.Y-c0.Y
	norm := math.Max(math.Hypot(nx, ny), dblEpsilon)
	nx /= norm
	ny /= norm
	overlap := c0.R + c1.R - norm
	if overlap <= 0 {
		return
	}
	cfx := k * overlap * nx
	cfy := k * overlap * ny
	p0.CFX[cn] -= cfx / m0
	p1.CFX[cn] += cfx / m1
	p0.CFY[cn] -= cfy / m0
	p1.CFY[cn] += cfy / m1
	p0.CTZ[cn] += (c0.IX*(-cfy) - c0.IY*(-cfx)) / im0
	p1.CTZ[cn] += (c1.IX*cfy - c1.IY*cfx) / im1
}

func (s *Suspensions) collideWall(cn int, wallx float64, p *Particle, stats *CollisionStats) {
	e := p.predicted(0)
	if p.Radius() < math.Abs(wallx-e.X) {
		return
	}

	c, conv := ellipse.EquivalentCircleWall(e, wallx)
	stats.record(conv)

	m, im := p.Mass(), p.MomentOfInertia()
	reft := math.Pow(math.Sqrt(p.A*p.B), 1.5)
	k := m * math.Pi * math.Pi / (reft * reft)

	nx := wallx - c.X
	norm := math.Max(math.Abs(nx), dblEpsilon)
	nx /= norm
	overlap := c.R - norm
	if overlap <= 0 {
		return
	}
	cfx := k * overlap * nx
	p.CFX[cn] -= cfx / m
	p.CTZ[cn] += (-c.IY * (-cfx)) / im
}
