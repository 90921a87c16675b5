package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/suspension-sim/suspension-sim/sim"
	"github.com/suspension-sim/suspension-sim/sim/cluster"
	"github.com/suspension-sim/suspension-sim/sim/trace"
)

var (
	// CLI flags for the run command; zero values leave the config untouched
	configPath   string  // YAML configuration file
	ranks        int     // Number of ranks the domain is split over
	restartDir   string  // Checkpoint directory to resume from
	outputDir    string  // Root of the output tree
	particlesDir string  // Initial particles for a fresh run
	itot         int     // Cells between the walls
	jtot         int     // Cells in the periodic direction
	timeMax      float64 // Simulation time limit
	wallTimeMax  float64 // Wall-clock limit in seconds
	traceLevel   string  // Convergence trace verbosity
	resultsPath  string  // File to write run metrics to as JSON
)

// runCmd executes the simulation using the loaded config and CLI overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the suspension simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		startTime := time.Now()
		cs := cluster.NewClusterSimulator(cluster.DeploymentConfig{Ranks: ranks, Config: cfg})
		if err := cs.Run(ctx); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		m := cs.AggregatedMetrics()
		m.Print()
		if t := cs.Trace(); t != nil {
			printTraceSummary(trace.Summarize(t))
		}
		if resultsPath != "" {
			if err := m.SaveResults(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime).Round(time.Millisecond))
	},
}

// loadConfig reads --config, or the defaults, and applies the flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (sim.Config, error) {
	cfg := sim.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = sim.LoadConfig(configPath); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("restart") {
		cfg.IO.RestartDir = restartDir
	}
	if flags.Changed("output") {
		cfg.IO.OutputDir = outputDir
	}
	if flags.Changed("particles") {
		cfg.IO.ParticlesDir = particlesDir
	}
	if flags.Changed("itot") {
		cfg.Domain.ITot = itot
	}
	if flags.Changed("jtot") {
		cfg.Domain.JTot = jtot
	}
	if flags.Changed("timemax") {
		cfg.Time.TimeMax = timeMax
	}
	if flags.Changed("wtimemax") {
		cfg.Time.WallTimeMax = wallTimeMax
	}
	if flags.Changed("trace-level") {
		cfg.TraceLevel = traceLevel
	}
	if err := cfg.Validate(ranks); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func printTraceSummary(s *trace.TraceSummary) {
	fmt.Println("=== Convergence Trace ===")
	fmt.Printf("Sub-iteration Loops  : %d\n", s.SubIterationLoops)
	fmt.Printf("Iterations (mean/max): %.2f / %d\n", s.MeanIterations, s.MaxIterations)
	fmt.Printf("Capped Loops         : %d\n", s.CappedLoops)
	fmt.Printf("Max Residual         : %.3e\n", s.MaxResidual)
	fmt.Printf("Capped Contacts      : %d\n", s.CappedContacts)
	fmt.Printf("Max Divergence       : %.3e (%d samples)\n", s.MaxDivergence, s.DiagnosticSamples)
}

func init() {
	addConfigFlag(runCmd)
	runCmd.Flags().IntVar(&ranks, "ranks", 1, "Number of ranks the domain is split over")
	runCmd.Flags().StringVar(&restartDir, "restart", "", "Checkpoint directory to resume from")
	runCmd.Flags().StringVar(&outputDir, "output", "", "Root of the output tree (default from config)")
	runCmd.Flags().StringVar(&particlesDir, "particles", "", "Directory holding the initial particles")
	runCmd.Flags().IntVar(&itot, "itot", 0, "Cells between the walls")
	runCmd.Flags().IntVar(&jtot, "jtot", 0, "Cells in the periodic direction")
	runCmd.Flags().Float64Var(&timeMax, "timemax", 0, "Simulation time limit")
	runCmd.Flags().Float64Var(&wallTimeMax, "wtimemax", 0, "Wall-clock limit in seconds")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Convergence trace level (none, convergence)")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Write run metrics as JSON to this file")
}

func addConfigFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
}
