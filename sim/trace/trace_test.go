package trace

import (
	"testing"
)

func TestSimulationTrace_RecordSubIteration_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for convergence
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelConvergence})

	// WHEN a sub-iteration record is recorded
	st.RecordSubIteration(SubIterationRecord{
		Step:       12,
		RKStep:     2,
		Iterations: 4,
		Residual:   3e-9,
	})

	// THEN the trace contains one record with correct data
	if len(st.SubIterations) != 1 {
		t.Fatalf("expected 1 sub-iteration record, got %d", len(st.SubIterations))
	}
	if st.SubIterations[0].RKStep != 2 {
		t.Errorf("expected rk step 2, got %d", st.SubIterations[0].RKStep)
	}
	if st.SubIterations[0].Capped {
		t.Error("expected capped=false")
	}
}

func TestSimulationTrace_RecordDiagnostics_AppendsRecord(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelConvergence})

	st.RecordDiagnostics(DiagnosticsRecord{Step: 3, Time: 0.5, DivMax: 1e-14})

	if len(st.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostics record, got %d", len(st.Diagnostics))
	}
	if st.Diagnostics[0].Time != 0.5 {
		t.Errorf("expected time 0.5, got %v", st.Diagnostics[0].Time)
	}
}

func TestSimulationTrace_Enabled(t *testing.T) {
	var nilTrace *SimulationTrace
	if nilTrace.Enabled() {
		t.Error("nil trace must be disabled")
	}
	if NewSimulationTrace(TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("level none must be disabled")
	}
	if !NewSimulationTrace(TraceConfig{Level: TraceLevelConvergence}).Enabled() {
		t.Error("level convergence must be enabled")
	}
}

func TestIsValidTraceLevel(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"", true},
		{"none", true},
		{"convergence", true},
		{"decisions", false},
		{"verbose", false},
	}
	for _, tc := range tests {
		if got := IsValidTraceLevel(tc.level); got != tc.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tc.level, got, tc.valid)
		}
	}
}
