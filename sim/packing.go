package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/suspension-sim/suspension-sim/sim/ellipse"
	"github.com/suspension-sim/suspension-sim/sim/grid"
	"github.com/suspension-sim/suspension-sim/sim/suspension"
)

// ErrPackingFailed is returned when a particle cannot be placed within the
// allowed number of attempts.
var ErrPackingFailed = errors.New("packing failed")

// PackingConfig describes a random packing of identical ellipses at rest.
type PackingConfig struct {
	N           int     // number of particles
	A           float64 // semi-major axis
	Aspect      float64 // semi-minor over semi-major axis, in (0, 1]
	LY          float64 // domain height; the wall distance is fixed to 1
	Density     float64 // density ratio to the fluid
	MaxAttempts int     // candidate positions tried per particle
}

// DefaultPackingConfig returns 256 ellipses of aspect ratio 1/2 in a 1x4 box.
func DefaultPackingConfig() PackingConfig {
	return PackingConfig{
		N:           256,
		A:           0.05,
		Aspect:      0.5,
		LY:          4,
		Density:     1,
		MaxAttempts: 100000,
	}
}

// Validate checks parameter ranges.
func (c *PackingConfig) Validate() error {
	if c.N < 0 {
		return fmt.Errorf("particle count must be non-negative, got %d", c.N)
	}
	if !(c.A > 0) || 2*c.A >= grid.LX {
		return fmt.Errorf("semi-major axis must be in (0, %g), got %g", grid.LX/2, c.A)
	}
	if !(c.Aspect > 0) || c.Aspect > 1 {
		return fmt.Errorf("aspect ratio must be in (0, 1], got %g", c.Aspect)
	}
	if !(c.LY > 0) {
		return fmt.Errorf("ly must be positive, got %g", c.LY)
	}
	if !(c.Density > 0) {
		return fmt.Errorf("density must be positive, got %g", c.Density)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// GeneratePacking places particles one by one at uniformly random positions
// with random orientations, rejecting candidates that overlap any particle
// already placed, periodic images in y included. Particles start at rest.
func GeneratePacking(cfg PackingConfig, rng *PartitionedRNG) ([]suspension.Particle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := rng.ForSubsystem(SubsystemPacking)
	particles := make([]suspension.Particle, 0, cfg.N)
	for n := 0; n < cfg.N; n++ {
		p := suspension.Particle{
			Den: cfg.Density,
			A:   cfg.A,
			B:   cfg.A * cfg.Aspect,
			AZ:  uniform(r, 0, 2*math.Pi),
		}
		placed := false
		for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
			p.X = uniform(r, p.Radius(), grid.LX-p.Radius())
			p.Y = uniform(r, 0, cfg.LY)
			if !overlapsAny(&p, particles, cfg.LY) {
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("particle %d after %d attempts: %w", n, cfg.MaxAttempts, ErrPackingFailed)
		}
		logrus.Debugf("particle %5d @ % .3f % .3f", n, p.X, p.Y)
		particles = append(particles, p)
	}
	logrus.Infof("volume fraction: %.1e", VolumeFraction(particles, grid.LX, cfg.LY))
	return particles, nil
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// overlapsAny reports whether p overlaps any of others. Bounding circles are
// tested first; equivalent circles decide the remaining cases.
func overlapsAny(p *suspension.Particle, others []suspension.Particle, ly float64) bool {
	for i := range others {
		q := &others[i]
		yoffset := suspension.NearestImageOffset(ly, p.Y, q.Y)
		if math.Hypot(q.X-p.X, q.Y+yoffset-p.Y) < p.Radius()+q.Radius() {
			return true
		}
		e0 := p.Shape()
		e1 := q.Shape()
		e1.Y += yoffset
		c0, c1, _ := ellipse.EquivalentCircles(e0, e1)
		if math.Hypot(c1.X-c0.X, c1.Y-c0.Y) < c0.R+c1.R {
			return true
		}
	}
	return false
}

// VolumeFraction is the area covered by particles over the domain area.
func VolumeFraction(particles []suspension.Particle, lx, ly float64) float64 {
	area := 0.0
	for i := range particles {
		area += suspension.Volume(particles[i].A, particles[i].B)
	}
	return area / (lx * ly)
}
