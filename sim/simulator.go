package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/suspension-sim/suspension-sim/sim/checkpoint"
	"github.com/suspension-sim/suspension-sim/sim/fluid"
	"github.com/suspension-sim/suspension-sim/sim/grid"
	"github.com/suspension-sim/suspension-sim/sim/parallel"
	"github.com/suspension-sim/suspension-sim/sim/suspension"
	"github.com/suspension-sim/suspension-sim/sim/trace"
)

const (
	// dtMax caps the advective time step of a quiescent flow.
	dtMax = 5e-2
	// velocityFloor keeps time-step ratios finite for vanishing velocities.
	velocityFloor = 1e-8

	subIterationTolerance = 1e-8
	maxSubIterations      = 100
)

// Simulator advances the slab of one rank. Every rank of a World runs its
// own Simulator in lockstep; all collective calls happen in the same order
// on every rank.
type Simulator struct {
	cfg  Config
	comm *parallel.Comm
	log  *logrus.Entry

	grid        *grid.Grid
	fluid       *fluid.Fluid
	suspensions *suspension.Suspensions
	stats       *statistics

	step int
	time float64
	dt   float64

	logEvent  schedule
	saveEvent schedule
	statEvent schedule

	trace   *trace.SimulationTrace
	metrics *Metrics
	hasRun  bool
}

// NewSimulator builds the state of the rank owning comm. With
// cfg.IO.RestartDir set the run resumes from that checkpoint; otherwise the
// flow starts at rest with the particles of cfg.IO.ParticlesDir, if any.
func NewSimulator(cfg Config, comm *parallel.Comm) (*Simulator, error) {
	if err := cfg.Validate(comm.Size()); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	g, err := grid.New(cfg.Domain.ITot, cfg.Domain.JTot, cfg.Domain.LY, comm)
	if err != nil {
		return nil, err
	}
	s := &Simulator{
		cfg:  cfg,
		comm: comm,
		log:  logrus.WithField("rank", comm.Rank()),
		grid: g,
		fluid: fluid.New(g, comm, fluid.Params{
			Re:             cfg.Physics.Re,
			ExtForceY:      cfg.Physics.ExtForceY,
			WallVelocityXm: cfg.Physics.WallVelocityXm,
			WallVelocityXp: cfg.Physics.WallVelocityXp,
		}),
		metrics: newMetrics(),
	}
	s.stats = newStatistics(s.fluid)

	var particles []suspension.Particle
	switch {
	case cfg.IO.RestartDir != "":
		if particles, err = s.restore(cfg.IO.RestartDir); err != nil {
			return nil, fmt.Errorf("restarting from %s: %w", cfg.IO.RestartDir, err)
		}
	case cfg.IO.ParticlesDir != "":
		if particles, err = checkpoint.ReadParticles(cfg.IO.ParticlesDir); err != nil {
			return nil, fmt.Errorf("loading particles from %s: %w", cfg.IO.ParticlesDir, err)
		}
	}
	if err := checkParticles(particles, g); err != nil {
		return nil, err
	}
	s.suspensions = suspension.New(g, comm, particles, cfg.Physics.Fr)

	s.logEvent = newSchedule(cfg.Schedule.Log, s.time)
	s.saveEvent = newSchedule(cfg.Schedule.Save, s.time)
	s.statEvent = newSchedule(cfg.Schedule.Stat, s.time)

	if trace.TraceLevel(cfg.TraceLevel) == trace.TraceLevelConvergence {
		s.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevel(cfg.TraceLevel)})
	}
	if comm.Rank() == 0 {
		s.log.Infof("%dx%d cells over %d ranks, %d particles, step %d, time %g",
			g.ITot, g.JTot, comm.Size(), len(particles), s.step, s.time)
	}
	return s, nil
}

// checkParticles rejects particles that do not fit between the walls.
func checkParticles(particles []suspension.Particle, g *grid.Grid) error {
	for n := range particles {
		p := &particles[n]
		if !(p.Den > 0) || !(p.A > 0) || !(p.B > 0) {
			return fmt.Errorf("particle %d: density and axes must be positive", n)
		}
		if p.X-p.Radius() < 0 || p.X+p.Radius() > g.LX {
			return fmt.Errorf("particle %d at x=%g crosses a wall", n, p.X)
		}
	}
	return nil
}

// Time returns the current simulation time.
func (s *Simulator) Time() float64 { return s.time }

// Step returns the number of completed time steps.
func (s *Simulator) Step() int { return s.step }

// Dt returns the last time step size.
func (s *Simulator) Dt() float64 { return s.dt }

// Grid returns the grid of this rank.
func (s *Simulator) Grid() *grid.Grid { return s.grid }

// Fluid returns the flow state of this rank.
func (s *Simulator) Fluid() *fluid.Fluid { return s.fluid }

// Suspensions returns the particles.
func (s *Simulator) Suspensions() *suspension.Suspensions { return s.suspensions }

// Trace returns the convergence trace, or nil when tracing is off.
func (s *Simulator) Trace() *trace.SimulationTrace { return s.trace }

// Metrics returns the run statistics collected so far.
func (s *Simulator) Metrics() *Metrics { return s.metrics }

// Config returns the configuration the simulator was built with.
func (s *Simulator) Config() Config { return s.cfg }

// DecideDt returns the largest stable time step: the minimum of the
// advective, diffusive and particle limits, each scaled by its safety factor.
func (s *Simulator) DecideDt() float64 {
	g, f := s.grid, s.fluid
	safety := s.cfg.Time

	adv := dtMax
	for j := 1; j <= g.JSize; j++ {
		for i := 2; i <= g.ITot; i++ {
			adv = math.Min(adv, g.DXC[i]/math.Max(math.Abs(f.UX.At(i, j)), velocityFloor))
		}
	}
	for j := 1; j <= g.JSize; j++ {
		for i := 1; i <= g.ITot; i++ {
			adv = math.Min(adv, g.DY/math.Max(math.Abs(f.UY.At(i, j)), velocityFloor))
		}
	}
	adv = s.comm.MinScalar(adv) * safety.SafetyAdvection

	dxcMin := g.LX
	for i := 2; i <= g.ITot; i++ {
		dxcMin = math.Min(dxcMin, g.DXC[i])
	}
	difX := 0.25 * s.cfg.Physics.Re * dxcMin * dxcMin * safety.SafetyDiffusion
	difY := 0.25 * s.cfg.Physics.Re * g.DY * g.DY * safety.SafetyDiffusion

	par := math.MaxFloat64
	delta := math.Min(g.DX, g.DY)
	for n := range s.suspensions.Particles {
		p := &s.suspensions.Particles[n]
		spin := math.Abs(p.Radius() * p.VZ)
		pux := math.Max(math.Abs(p.UX)+spin, velocityFloor)
		puy := math.Max(math.Abs(p.UY)+spin, velocityFloor)
		par = math.Min(par, delta/math.Max(pux, puy))
	}
	par *= safety.SafetyParticle

	return min(adv, difX, difY, par)
}

// Integrate advances the fluid and the particles by dt with three
// Runge-Kutta sub-steps. Particle increments are iterated to a fixed point
// within each sub-step.
func (s *Simulator) Integrate(dt float64) {
	f, susp := s.fluid, s.suspensions
	for rk := 0; rk < grid.RKSteps; rk++ {
		susp.ResetIncrements()
		f.RefreshBoundaries()
		susp.ComputeInertia(0, f)
		f.UpdateVelocity(rk, dt)
		susp.ExchangeMomentum(f, dt)
		susp.UpdateMomentumField(f)
		f.ComputePotential(rk, dt)
		f.CorrectVelocity(rk, dt)
		f.UpdatePressure()
		collisions := susp.ComputeCollisionForce(0)
		s.iterateParticles(rk, dt, collisions)
		susp.UpdateParticles()
	}
}

// iterateParticles re-evaluates inertia and collisions at the predicted
// particle state until the velocity increments stop changing.
func (s *Simulator) iterateParticles(rk int, dt float64, collisions suspension.CollisionStats) {
	f, susp := s.fluid, s.suspensions
	var residual float64
	iterations := 0
	capped := false
	for {
		iterations++
		susp.ComputeInertia(1, f)
		c := susp.ComputeCollisionForce(1)
		collisions.Contacts += c.Contacts
		collisions.Capped += c.Capped
		residual = susp.IncrementParticles(rk, dt)
		if residual < subIterationTolerance {
			break
		}
		if iterations > maxSubIterations {
			capped = true
			if s.comm.Rank() == 0 {
				s.log.Warnf("step %d rk %d: particle sub-iteration stopped after %d iterations, residual %.3e",
					s.step, rk, iterations, residual)
			}
			break
		}
	}

	m := s.metrics
	m.SubIterationLoops++
	m.SubIterations += iterations
	m.Contacts += collisions.Contacts
	m.CappedContacts += collisions.Capped
	if capped {
		m.CappedSubIterations++
	}
	if s.trace.Enabled() {
		s.trace.RecordSubIteration(trace.SubIterationRecord{
			Step:           s.step,
			RKStep:         rk,
			Iterations:     iterations,
			Residual:       residual,
			Capped:         capped,
			Contacts:       collisions.Contacts,
			CappedContacts: collisions.Capped,
		})
	}
}

// Run advances the simulation until the time or wall-time limit is reached,
// firing the log, save and statistics events on schedule, and finally saves
// the state and writes the statistics. Run can only be called once.
func (s *Simulator) Run(ctx context.Context) error {
	if s.hasRun {
		panic("Simulator.Run called more than once")
	}
	s.hasRun = true

	if err := s.prepareOutput(); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.dt = s.DecideDt()
		s.Integrate(s.dt)
		s.step++
		s.time += s.dt
		s.metrics.recordDt(s.dt)

		if s.logEvent.due(s.time) {
			if err := s.writeLog(); err != nil {
				return err
			}
		}
		if s.saveEvent.due(s.time) {
			if err := s.save(); err != nil {
				return err
			}
		}
		if s.statEvent.due(s.time) {
			s.stats.collect(s.fluid, s.suspensions)
		}
		if s.time > s.cfg.Time.TimeMax {
			break
		}
		if s.comm.Elapsed().Seconds() > s.cfg.Time.WallTimeMax {
			s.metrics.StoppedByWallTime = true
			break
		}
	}

	s.metrics.WallTime = s.comm.Elapsed()
	s.metrics.FinalTime = s.time
	s.metrics.DivergenceMax, s.metrics.DivergenceSum = s.fluid.Divergence()
	s.metrics.MomentumX, s.metrics.MomentumY = s.fluid.Momentum()
	if s.comm.Rank() == 0 {
		s.log.Infof("elapsed: %.2f [s]", s.metrics.WallTime.Seconds())
	}
	if err := s.save(); err != nil {
		return err
	}
	return s.writeStatistics()
}
