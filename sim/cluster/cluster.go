// Package cluster runs one sim.Simulator per rank on an in-process World and
// collects the results.
package cluster

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/suspension-sim/suspension-sim/sim"
	"github.com/suspension-sim/suspension-sim/sim/parallel"
	"github.com/suspension-sim/suspension-sim/sim/trace"
)

// ClusterSimulator drives Ranks simulators in lockstep. Rank 0 owns all
// file output; the others only take part in collective operations.
type ClusterSimulator struct {
	config     DeploymentConfig
	world      *parallel.World
	simulators []*sim.Simulator
	hasRun     bool
	metrics    *sim.Metrics
}

// NewClusterSimulator creates a ClusterSimulator.
// Panics if config.Ranks < 1.
func NewClusterSimulator(config DeploymentConfig) *ClusterSimulator {
	if config.Ranks < 1 {
		panic("ClusterSimulator: Ranks must be >= 1")
	}
	return &ClusterSimulator{
		config:     config,
		world:      parallel.NewWorld(config.Ranks),
		simulators: make([]*sim.Simulator, config.Ranks),
	}
}

// Run builds a Simulator on every rank and runs it to completion. The first
// rank error aborts the others and is returned. Cancelling ctx stops the run.
// Panics if called more than once.
func (c *ClusterSimulator) Run(ctx context.Context) error {
	if c.hasRun {
		panic("ClusterSimulator.Run() called more than once")
	}
	c.hasRun = true

	err := c.world.Run(ctx, func(comm *parallel.Comm) error {
		s, err := sim.NewSimulator(c.config.Config, comm)
		if err != nil {
			return fmt.Errorf("rank %d: %w", comm.Rank(), err)
		}
		c.simulators[comm.Rank()] = s
		return s.Run(ctx)
	})
	if err != nil {
		return err
	}
	c.metrics = c.aggregateMetrics()
	return nil
}

// aggregateMetrics returns rank 0's metrics after checking that every rank
// took the same steps.
func (c *ClusterSimulator) aggregateMetrics() *sim.Metrics {
	root := c.simulators[0].Metrics()
	for rank, s := range c.simulators[1:] {
		m := s.Metrics()
		if m.Steps != root.Steps || m.FinalTime != root.FinalTime {
			logrus.Warnf("aggregateMetrics: rank %d ended at step %d time %g, rank 0 at step %d time %g",
				rank+1, m.Steps, m.FinalTime, root.Steps, root.FinalTime)
		}
	}
	return root
}

// Simulators returns the per-rank simulators, indexed by rank.
func (c *ClusterSimulator) Simulators() []*sim.Simulator {
	return c.simulators
}

// AggregatedMetrics returns the run metrics.
// Panics if called before Run() has completed successfully.
func (c *ClusterSimulator) AggregatedMetrics() *sim.Metrics {
	if c.metrics == nil {
		panic("ClusterSimulator.AggregatedMetrics() called before Run()")
	}
	return c.metrics
}

// Trace returns rank 0's convergence trace, or nil when tracing is off or
// the run has not started.
func (c *ClusterSimulator) Trace() *trace.SimulationTrace {
	if c.simulators[0] == nil {
		return nil
	}
	return c.simulators[0].Trace()
}
