package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspension-sim/suspension-sim/sim/ellipse"
	"github.com/suspension-sim/suspension-sim/sim/suspension"
)

func smallPacking() PackingConfig {
	cfg := DefaultPackingConfig()
	cfg.N = 12
	cfg.LY = 1
	return cfg
}

func TestGeneratePacking_NoOverlapsAndInsideWalls(t *testing.T) {
	// GIVEN a dilute packing
	cfg := smallPacking()

	// WHEN generated
	particles, err := GeneratePacking(cfg, NewPartitionedRNG(NewSimulationKey(1)))

	// THEN every particle is inside the walls, at rest, and no pair overlaps
	require.NoError(t, err)
	require.Len(t, particles, cfg.N)
	for n, p := range particles {
		assert.GreaterOrEqual(t, p.X-p.Radius(), 0.0, "particle %d", n)
		assert.LessOrEqual(t, p.X+p.Radius(), 1.0, "particle %d", n)
		assert.True(t, p.Y >= 0 && p.Y < cfg.LY, "particle %d y=%v", n, p.Y)
		assert.True(t, p.AZ >= 0 && p.AZ < 2*math.Pi)
		assert.Equal(t, cfg.A*cfg.Aspect, p.B)
		assert.Zero(t, p.UX)
		assert.Zero(t, p.VZ)
	}
	for i := range particles {
		for j := i + 1; j < len(particles); j++ {
			p, q := particles[j], particles[i] // later particle was tested against earlier ones
			yoffset := suspension.NearestImageOffset(cfg.LY, p.Y, q.Y)
			e1 := q.Shape()
			e1.Y += yoffset
			c0, c1, _ := ellipse.EquivalentCircles(p.Shape(), e1)
			assert.GreaterOrEqual(t, math.Hypot(c1.X-c0.X, c1.Y-c0.Y), c0.R+c1.R, "pair (%d, %d)", i, j)
			assert.GreaterOrEqual(t, math.Hypot(q.X-p.X, q.Y+yoffset-p.Y), p.Radius()+q.Radius(), "pair (%d, %d)", i, j)
		}
	}
}

func TestGeneratePacking_SameSeedSamePacking(t *testing.T) {
	cfg := smallPacking()
	a, err := GeneratePacking(cfg, NewPartitionedRNG(NewSimulationKey(3)))
	require.NoError(t, err)
	b, err := GeneratePacking(cfg, NewPartitionedRNG(NewSimulationKey(3)))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := GeneratePacking(cfg, NewPartitionedRNG(NewSimulationKey(4)))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestGeneratePacking_Impossible_ReturnsErrPackingFailed(t *testing.T) {
	// GIVEN two large discs that cannot both fit in a unit box
	cfg := PackingConfig{N: 2, A: 0.4, Aspect: 1, LY: 1, Density: 1, MaxAttempts: 50}

	_, err := GeneratePacking(cfg, NewPartitionedRNG(NewSimulationKey(1)))

	assert.True(t, errors.Is(err, ErrPackingFailed), "got %v", err)
}

func TestPackingConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *PackingConfig)
	}{
		{"negative count", func(c *PackingConfig) { c.N = -1 }},
		{"zero axis", func(c *PackingConfig) { c.A = 0 }},
		{"too wide", func(c *PackingConfig) { c.A = 0.5 }},
		{"aspect above one", func(c *PackingConfig) { c.Aspect = 1.5 }},
		{"zero height", func(c *PackingConfig) { c.LY = 0 }},
		{"zero density", func(c *PackingConfig) { c.Density = 0 }},
		{"no attempts", func(c *PackingConfig) { c.MaxAttempts = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPackingConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestVolumeFraction(t *testing.T) {
	particles := []suspension.Particle{{A: 0.1, B: 0.1}, {A: 0.2, B: 0.05}}
	want := (math.Pi*0.01 + math.Pi*0.01) / 2
	assert.InDelta(t, want, VolumeFraction(particles, 1, 2), 1e-15)
}
