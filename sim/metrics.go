// Tracks run-wide solver statistics for final reporting.

package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"
)

// Metrics aggregates statistics about the run for final reporting.
type Metrics struct {
	Steps     int           // time steps taken by this run
	FinalTime float64       // simulation time at the end of the run
	MinDt     float64       // smallest accepted time step
	MaxDt     float64       // largest accepted time step
	WallTime  time.Duration // wall-clock duration, maximised over ranks

	SubIterationLoops   int // particle sub-iteration loops (one per RK sub-step)
	SubIterations       int // total sub-iterations over all loops
	CappedSubIterations int // loops stopped by the iteration cap
	Contacts            int // equivalent-circle evaluations
	CappedContacts      int // equivalent-circle evaluations stopped by the iteration cap

	DivergenceMax float64 // max |div u| at the last log or final output
	DivergenceSum float64 // sum of div u at the last log or final output
	MomentumX     float64 // fluid x momentum at the last log or final output
	MomentumY     float64 // fluid y momentum at the last log or final output

	StoppedByWallTime bool
}

// MetricsOutput is the JSON form of Metrics.
type MetricsOutput struct {
	Steps               int     `json:"steps"`
	FinalTime           float64 `json:"final_time"`
	MinDt               float64 `json:"min_dt"`
	MaxDt               float64 `json:"max_dt"`
	WallTimeSeconds     float64 `json:"wall_time_s"`
	SubIterationLoops   int     `json:"sub_iteration_loops"`
	SubIterations       int     `json:"sub_iterations"`
	CappedSubIterations int     `json:"capped_sub_iterations"`
	Contacts            int     `json:"contacts"`
	CappedContacts      int     `json:"capped_contacts"`
	DivergenceMax       float64 `json:"divergence_max"`
	DivergenceSum       float64 `json:"divergence_sum"`
	MomentumX           float64 `json:"momentum_x"`
	MomentumY           float64 `json:"momentum_y"`
	StoppedByWallTime   bool    `json:"stopped_by_wall_time"`
}

func newMetrics() *Metrics {
	return &Metrics{MinDt: math.MaxFloat64}
}

func (m *Metrics) recordDt(dt float64) {
	m.Steps++
	m.MinDt = math.Min(m.MinDt, dt)
	m.MaxDt = math.Max(m.MaxDt, dt)
}

// Print displays aggregated metrics at the end of the run.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Steps                : %d\n", m.Steps)
	fmt.Printf("Final Time           : %.6f\n", m.FinalTime)
	fmt.Printf("Wall Time            : %.2f s\n", m.WallTime.Seconds())
	if m.StoppedByWallTime {
		fmt.Println("Stopped By           : wall-time limit")
	}
	if m.Steps > 0 {
		fmt.Printf("Time Step (min/max)  : %.3e / %.3e\n", m.MinDt, m.MaxDt)
	}
	if m.SubIterationLoops > 0 {
		fmt.Printf("Mean Sub-iterations  : %.2f\n", float64(m.SubIterations)/float64(m.SubIterationLoops))
		fmt.Printf("Capped Sub-iterations: %d / %d\n", m.CappedSubIterations, m.SubIterationLoops)
	}
	if m.Contacts > 0 {
		fmt.Printf("Capped Contacts      : %d / %d\n", m.CappedContacts, m.Contacts)
	}
	fmt.Printf("Divergence (max/sum) : %.3e / %.3e\n", m.DivergenceMax, m.DivergenceSum)
	fmt.Printf("Momentum (x/y)       : %.6e / %.6e\n", m.MomentumX, m.MomentumY)
}

// SaveResults writes the metrics as indented JSON to path.
func (m *Metrics) SaveResults(path string) error {
	out := MetricsOutput{
		Steps:               m.Steps,
		FinalTime:           m.FinalTime,
		WallTimeSeconds:     m.WallTime.Seconds(),
		SubIterationLoops:   m.SubIterationLoops,
		SubIterations:       m.SubIterations,
		CappedSubIterations: m.CappedSubIterations,
		Contacts:            m.Contacts,
		CappedContacts:      m.CappedContacts,
		DivergenceMax:       m.DivergenceMax,
		DivergenceSum:       m.DivergenceSum,
		MomentumX:           m.MomentumX,
		MomentumY:           m.MomentumY,
		StoppedByWallTime:   m.StoppedByWallTime,
	}
	if m.Steps > 0 {
		out.MinDt, out.MaxDt = m.MinDt, m.MaxDt
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling metrics: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
