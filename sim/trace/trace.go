package trace

// TraceLevel controls the verbosity of convergence tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelConvergence captures every particle sub-iteration loop and
	// every logged diagnostics sample.
	TraceLevelConvergence TraceLevel = "convergence"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelConvergence: true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects convergence records during a run.
type SimulationTrace struct {
	Config        TraceConfig
	SubIterations []SubIterationRecord
	Diagnostics   []DiagnosticsRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:        config,
		SubIterations: make([]SubIterationRecord, 0),
		Diagnostics:   make([]DiagnosticsRecord, 0),
	}
}

// Enabled reports whether records should be collected. Safe on nil.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level == TraceLevelConvergence
}

// RecordSubIteration appends a sub-iteration record.
func (st *SimulationTrace) RecordSubIteration(record SubIterationRecord) {
	st.SubIterations = append(st.SubIterations, record)
}

// RecordDiagnostics appends a diagnostics record.
func (st *SimulationTrace) RecordDiagnostics(record DiagnosticsRecord) {
	st.Diagnostics = append(st.Diagnostics, record)
}
