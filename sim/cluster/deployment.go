package cluster

import "github.com/suspension-sim/suspension-sim/sim"

// DeploymentConfig describes a run split over Ranks goroutines that share
// one configuration. Ranks must be >= 1.
type DeploymentConfig struct {
	Ranks  int
	Config sim.Config
}
