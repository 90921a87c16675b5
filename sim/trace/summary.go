package trace

import "math"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	SubIterationLoops int
	MeanIterations    float64
	MaxIterations     int
	CappedLoops       int
	MaxResidual       float64
	CappedContacts    int
	DiagnosticSamples int
	MaxDivergence     float64
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil {
		return summary
	}

	if len(st.SubIterations) > 0 {
		total := 0
		for _, r := range st.SubIterations {
			total += r.Iterations
			summary.MaxIterations = max(summary.MaxIterations, r.Iterations)
			summary.MaxResidual = math.Max(summary.MaxResidual, r.Residual)
			summary.CappedContacts += r.CappedContacts
			if r.Capped {
				summary.CappedLoops++
			}
		}
		summary.SubIterationLoops = len(st.SubIterations)
		summary.MeanIterations = float64(total) / float64(len(st.SubIterations))
	}

	summary.DiagnosticSamples = len(st.Diagnostics)
	for _, d := range st.Diagnostics {
		summary.MaxDivergence = math.Max(summary.MaxDivergence, d.DivMax)
	}

	return summary
}
