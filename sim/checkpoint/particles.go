package checkpoint

import (
	"fmt"

	"github.com/suspension-sim/suspension-sim/sim/suspension"
)

// particleColumn binds a file name to one Particle member.
type particleColumn struct {
	name string
	ref  func(p *suspension.Particle) *float64
}

var particleColumns = []particleColumn{
	{"particle_dens", func(p *suspension.Particle) *float64 { return &p.Den }},
	{"particle_as", func(p *suspension.Particle) *float64 { return &p.A }},
	{"particle_bs", func(p *suspension.Particle) *float64 { return &p.B }},
	{"particle_xs", func(p *suspension.Particle) *float64 { return &p.X }},
	{"particle_ys", func(p *suspension.Particle) *float64 { return &p.Y }},
	{"particle_azs", func(p *suspension.Particle) *float64 { return &p.AZ }},
	{"particle_uxs", func(p *suspension.Particle) *float64 { return &p.UX }},
	{"particle_uys", func(p *suspension.Particle) *float64 { return &p.UY }},
	{"particle_vzs", func(p *suspension.Particle) *float64 { return &p.VZ }},
}

// WriteParticles stores the particle count and one column per member.
func WriteParticles(dir string, particles []suspension.Particle) error {
	if err := WriteInt(dir, "n_particles", int64(len(particles))); err != nil {
		return err
	}
	col := make([]float64, len(particles))
	for _, c := range particleColumns {
		for n := range particles {
			col[n] = *c.ref(&particles[n])
		}
		if err := Write1D(dir, c.name, col); err != nil {
			return err
		}
	}
	return nil
}

// ReadParticles loads particles written by WriteParticles. Velocities and
// all solver buffers start from the stored values and zero respectively.
func ReadParticles(dir string) ([]suspension.Particle, error) {
	count, err := ReadInt(dir, "n_particles")
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("reading particles: negative count %d", count)
	}
	particles := make([]suspension.Particle, count)
	if count == 0 {
		return particles, nil
	}
	for _, c := range particleColumns {
		col, err := Read1D(dir, c.name)
		if err != nil {
			return nil, err
		}
		if len(col) != len(particles) {
			return nil, fmt.Errorf("reading %s: %d values for %d particles", c.name, len(col), count)
		}
		for n := range particles {
			*c.ref(&particles[n]) = col[n]
		}
	}
	return particles, nil
}
