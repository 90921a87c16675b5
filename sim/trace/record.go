// Package trace provides convergence-trace recording for the time integrator.
// It stores plain data and does not depend on sim/ or sim/cluster/.
package trace

// SubIterationRecord captures one particle sub-iteration loop of a
// Runge-Kutta sub-step.
type SubIterationRecord struct {
	Step       int
	RKStep     int
	Iterations int
	Residual   float64
	Capped     bool // loop stopped at the iteration cap, residual above tolerance

	// equivalent-circle evaluations during the loop, and how many were capped
	Contacts       int
	CappedContacts int
}

// DiagnosticsRecord captures the flow diagnostics written at a log event.
type DiagnosticsRecord struct {
	Step    int
	Time    float64
	Dt      float64
	DivMax  float64
	DivSum  float64
	MomX    float64
	MomY    float64
	EnergyX float64
	EnergyY float64
}
