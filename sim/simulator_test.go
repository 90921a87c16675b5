package sim

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suspension-sim/suspension-sim/sim/checkpoint"
	"github.com/suspension-sim/suspension-sim/sim/internal/testutil"
	"github.com/suspension-sim/suspension-sim/sim/parallel"
	"github.com/suspension-sim/suspension-sim/sim/suspension"
	"github.com/suspension-sim/suspension-sim/sim/trace"
)

// testConfig returns a small, fast configuration writing into a temp dir.
func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Domain = DomainConfig{ITot: 16, JTot: 16, LY: 1}
	cfg.Time.TimeMax = 0.1
	cfg.Schedule.Log.Rate = 0.05
	cfg.IO.OutputDir = filepath.Join(t.TempDir(), "output")
	return cfg
}

// writeParticles stores particles in a fresh directory and returns it.
func writeParticles(t *testing.T, particles []suspension.Particle) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, checkpoint.WriteParticles(dir, particles))
	return dir
}

func oneParticle() []suspension.Particle {
	return []suspension.Particle{{Den: 1.5, A: 0.15, B: 0.1, X: 0.4, Y: 0.5, AZ: 0.3}}
}

func newSimulator(t *testing.T, cfg Config, comm *parallel.Comm) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, comm)
	require.NoError(t, err)
	return s
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	n := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		n++
	}
	return n
}

func TestDecideDt_QuiescentFlow_AdvectiveCap(t *testing.T) {
	// GIVEN a fluid at rest and no particles
	testutil.RunRanks(t, 2, func(c *parallel.Comm) error {
		s := newSimulator(t, testConfig(t), c)

		// THEN dt is the scaled advective cap
		assert.InDelta(t, dtMax*0.75, s.DecideDt(), 1e-15)
		return nil
	})
}

func TestDecideDt_Limits(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *Simulator)
		want  float64
	}{
		{
			name: "advection",
			setup: func(s *Simulator) {
				for j := 1; j <= s.grid.JSize; j++ {
					for i := 1; i <= s.grid.ITot+1; i++ {
						s.fluid.UX.Set(i, j, 10)
					}
				}
			},
			want: (1.0 / 16) / 10 * 0.75,
		},
		{
			name: "diffusion",
			setup: func(s *Simulator) {
				s.cfg.Physics.Re = 1
			},
			want: 0.25 * (1.0 / 16) * (1.0 / 16) * 0.75,
		},
		{
			name: "particle",
			setup: func(s *Simulator) {
				p := &s.suspensions.Particles[0]
				p.UY = 10
				p.VZ = 20 // spin adds 0.15*20
			},
			want: (1.0 / 16) / 13 * 0.95,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testutil.RunRanks(t, 2, func(c *parallel.Comm) error {
				cfg := testConfig(t)
				cfg.IO.ParticlesDir = writeParticles(t, oneParticle())
				s := newSimulator(t, cfg, c)
				tc.setup(s)
				assert.InDelta(t, tc.want, s.DecideDt(), 1e-12)
				return nil
			})
		})
	}
}

func TestDecideDt_NeverExceedsScaledCap(t *testing.T) {
	testutil.RunRanks(t, 1, func(c *parallel.Comm) error {
		cfg := testConfig(t)
		cfg.Physics.ExtForceY = 0.5
		s := newSimulator(t, cfg, c)
		for step := 0; step < 5; step++ {
			dt := s.DecideDt()
			assert.LessOrEqual(t, dt, dtMax*cfg.Time.SafetyAdvection)
			s.Integrate(dt)
		}
		return nil
	})
}

func TestIntegrate_NoParticles_StaysDivergenceFree(t *testing.T) {
	for _, ranks := range []int{1, 2, 4} {
		testutil.RunRanks(t, ranks, func(c *parallel.Comm) error {
			// GIVEN a body-force-driven channel without particles
			cfg := testConfig(t)
			cfg.Physics.ExtForceY = 1
			s := newSimulator(t, cfg, c)

			// WHEN integrated for a few steps
			for step := 0; step < 3; step++ {
				s.Integrate(s.DecideDt())
			}

			// THEN the flow is divergence free and has gained momentum
			divMax, _ := s.fluid.Divergence()
			assert.Less(t, divMax, 1e-10, "ranks=%d", ranks)
			_, momY := s.fluid.Momentum()
			assert.Greater(t, momY, 0.0)
			assert.Equal(t, 9, s.metrics.SubIterationLoops)
			assert.Equal(t, 9, s.metrics.SubIterations, "no particles converge at once")
			return nil
		})
	}
}

// particleAfterSteps integrates a one-particle case and returns the particle.
func particleAfterSteps(t *testing.T, ranks, steps int) suspension.Particle {
	var out suspension.Particle
	particlesDir := writeParticles(t, oneParticle())
	testutil.RunRanks(t, ranks, func(c *parallel.Comm) error {
		cfg := testConfig(t)
		cfg.Physics.ExtForceY = 0.1
		cfg.IO.ParticlesDir = particlesDir
		s := newSimulator(t, cfg, c)
		for step := 0; step < steps; step++ {
			s.Integrate(s.DecideDt())
		}
		if c.Rank() == 0 {
			out = s.suspensions.Particles[0]
		}
		return nil
	})
	return out
}

func TestIntegrate_ParticleStateIndependentOfRankCount(t *testing.T) {
	// GIVEN the same particle case on 1 and 3 ranks
	serial := particleAfterSteps(t, 1, 2)
	split := particleAfterSteps(t, 3, 2)

	// THEN the particle moved with the flow and agrees up to round-off
	assert.Greater(t, serial.UY, 0.0)
	for _, pair := range [][2]float64{
		{serial.X, split.X}, {serial.Y, split.Y}, {serial.AZ, split.AZ},
		{serial.UX, split.UX}, {serial.UY, split.UY}, {serial.VZ, split.VZ},
	} {
		assert.InDelta(t, pair[0], pair[1], 1e-10)
	}
}

func TestRun_WritesLogsSnapshotAndStatistics(t *testing.T) {
	cfg := testConfig(t)
	cfg.IO.ParticlesDir = writeParticles(t, oneParticle())
	cfg.TraceLevel = string(trace.TraceLevelConvergence)

	var rank0 *Simulator
	testutil.RunRanks(t, 2, func(c *parallel.Comm) error {
		s := newSimulator(t, cfg, c)
		if c.Rank() == 0 {
			rank0 = s
		}
		return s.Run(context.Background())
	})

	// dt = 0.0375 at rest: time reaches 0.1125 > timemax after 3 steps,
	// and the log fires at 0.075 and 0.1125.
	require.NotNil(t, rank0)
	assert.Equal(t, 3, rank0.Step())
	assert.InDelta(t, 0.1125, rank0.Time(), 1e-12)

	m := rank0.Metrics()
	assert.Equal(t, 3, m.Steps)
	assert.Equal(t, 9, m.SubIterationLoops)
	assert.False(t, m.StoppedByWallTime)
	assert.Less(t, m.DivergenceMax, 1e-10)

	logDir := filepath.Join(cfg.IO.OutputDir, "log")
	for _, name := range []string{progressLog, divergenceLog, momentumLog, energyLog, particleLog(0)} {
		assert.Equal(t, 2, countLines(t, filepath.Join(logDir, name)), name)
	}
	progress, err := os.ReadFile(filepath.Join(logDir, progressLog))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(progress), "step        2, time "), string(progress))

	saveDir := checkpoint.StepDir(filepath.Join(cfg.IO.OutputDir, "save"), 3)
	for _, name := range []string{"ux", "uy", "p", "xf", "yc", "n_particles", "particle_xs"} {
		assert.FileExists(t, filepath.Join(saveDir, name+".npy"))
	}

	statDir := checkpoint.StepDir(filepath.Join(cfg.IO.OutputDir, "stat"), 3)
	num, err := checkpoint.ReadInt(statDir, "num")
	require.NoError(t, err)
	assert.Zero(t, num, "statistics start after t=2000")
	assert.FileExists(t, filepath.Join(statDir, "phi.npy"))

	summary := trace.Summarize(rank0.Trace())
	assert.Equal(t, 9, summary.SubIterationLoops)
	assert.Equal(t, 2, summary.DiagnosticSamples)
}

func TestRun_Restart_ResumesFromSnapshot(t *testing.T) {
	// GIVEN a finished run on 2 ranks
	cfg := testConfig(t)
	cfg.Physics.ExtForceY = 0.1
	cfg.IO.ParticlesDir = writeParticles(t, oneParticle())
	var first *Simulator
	testutil.RunRanks(t, 2, func(c *parallel.Comm) error {
		s := newSimulator(t, cfg, c)
		if c.Rank() == 0 {
			first = s
		}
		return s.Run(context.Background())
	})

	// WHEN a new simulator is started from its final snapshot on 1 rank
	restart := cfg
	restart.IO.RestartDir = checkpoint.StepDir(filepath.Join(cfg.IO.OutputDir, "save"), first.Step())
	restart.IO.ParticlesDir = ""
	testutil.RunRanks(t, 1, func(c *parallel.Comm) error {
		s := newSimulator(t, restart, c)

		// THEN step, time, the particles and rank 0's rows of the flow match
		assert.Equal(t, first.Step(), s.Step())
		assert.Equal(t, first.Time(), s.Time())
		p, q := first.suspensions.Particles[0], s.suspensions.Particles[0]
		assert.Equal(t, p.X, q.X)
		assert.Equal(t, p.UY, q.UY)
		for j := 1; j <= first.grid.JSize; j++ {
			assert.Equal(t, first.fluid.UY.Row(j), s.fluid.UY.Row(j), "row %d", j)
			assert.Equal(t, first.fluid.UX.Row(j), s.fluid.UX.Row(j), "row %d", j)
		}
		return nil
	})
}

func TestRun_Restart_GridMismatch(t *testing.T) {
	cfg := testConfig(t)
	cfg.Time.TimeMax = 0.01
	testutil.RunRanks(t, 1, func(c *parallel.Comm) error {
		return newSimulator(t, cfg, c).Run(context.Background())
	})

	// WHEN restarted with another itot on 2 ranks
	// THEN every rank rejects the checkpoint
	restart := cfg
	restart.Domain.ITot = 32
	restart.IO.RestartDir = checkpoint.StepDir(filepath.Join(cfg.IO.OutputDir, "save"), 1)
	testutil.RunRanks(t, 2, func(c *parallel.Comm) error {
		_, err := NewSimulator(restart, c)
		assert.ErrorContains(t, err, "itot is 16 in the checkpoint but 32", "rank %d", c.Rank())
		return nil
	})
}

func TestRun_Restart_MissingCheckpoint_FailsOnEveryRank(t *testing.T) {
	// GIVEN a restart directory without a snapshot
	cfg := testConfig(t)
	cfg.IO.RestartDir = t.TempDir()

	// WHEN simulators are built on 3 ranks
	errs := make([]error, 3)
	testutil.RunRanks(t, 3, func(c *parallel.Comm) error {
		_, errs[c.Rank()] = NewSimulator(cfg, c)
		return nil
	})

	// THEN rank 0 reports the read error and the others learn of it
	for rank, err := range errs {
		assert.Error(t, err, "rank %d", rank)
	}
	assert.ErrorContains(t, errs[1], "failed on rank 0")
	assert.ErrorContains(t, errs[2], "failed on rank 0")
}

func TestRun_CalledTwice_Panics(t *testing.T) {
	testutil.RunRanks(t, 1, func(c *parallel.Comm) error {
		cfg := testConfig(t)
		cfg.Time.TimeMax = 0.01
		s := newSimulator(t, cfg, c)
		require.NoError(t, s.Run(context.Background()))
		assert.Panics(t, func() { _ = s.Run(context.Background()) })
		return nil
	})
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := parallel.NewWorld(2).Run(ctx, func(c *parallel.Comm) error {
		s, err := NewSimulator(testConfig(t), c)
		if err != nil {
			return err
		}
		return s.Run(ctx)
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewSimulator_ParticleCrossingWall_Rejected(t *testing.T) {
	cfg := testConfig(t)
	cfg.IO.ParticlesDir = writeParticles(t, []suspension.Particle{{Den: 1, A: 0.1, B: 0.1, X: 0.05, Y: 0.5}})
	testutil.RunRanks(t, 1, func(c *parallel.Comm) error {
		_, err := NewSimulator(cfg, c)
		assert.ErrorContains(t, err, "crosses a wall")
		return nil
	})
}

func TestStatistics_Collect(t *testing.T) {
	testutil.RunRanks(t, 2, func(c *parallel.Comm) error {
		cfg := testConfig(t)
		cfg.IO.ParticlesDir = writeParticles(t, oneParticle())
		s := newSimulator(t, cfg, c)
		for j := 1; j <= s.grid.JSize; j++ {
			for i := 1; i <= s.grid.ITot+1; i++ {
				s.fluid.UX.Set(i, j, 3)
			}
		}

		s.stats.collect(s.fluid, s.suspensions)
		s.stats.collect(s.fluid, s.suspensions)

		assert.Equal(t, 2, s.stats.num)
		assert.Equal(t, 6.0, s.stats.ux1.At(2, 1))
		assert.Equal(t, 18.0, s.stats.ux2.At(2, 1))
		phi := 0.0
		for j := 1; j <= s.grid.JSize; j++ {
			for i := 1; i <= s.grid.ITot; i++ {
				phi += s.stats.phi.At(i, j)
			}
		}
		assert.Zero(t, int(phi)%2, "every covered cell is counted once per sample")
		return nil
	})
}

func TestTimeDigits(t *testing.T) {
	assert.Equal(t, 1, timeDigits(1))
	assert.Equal(t, 2, timeDigits(0.05))
	assert.Equal(t, 2, timeDigits(0.1))
	assert.Equal(t, 3, timeDigits(0.01))
	assert.Equal(t, 1, timeDigits(1000))
}
