package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.SubIterationLoops != 0 || summary.DiagnosticSamples != 0 {
		t.Error("expected zero counts for nil trace")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelConvergence})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.SubIterationLoops != 0 {
		t.Errorf("expected 0 loops, got %d", summary.SubIterationLoops)
	}
	if summary.MeanIterations != 0 || summary.MaxIterations != 0 {
		t.Error("expected 0 iteration statistics")
	}
	if summary.CappedLoops != 0 || summary.MaxDivergence != 0 {
		t.Error("expected no capped loops and zero divergence")
	}
}

func TestSummarize_PopulatedTrace_CorrectStatistics(t *testing.T) {
	// GIVEN sub-iteration loops with known iteration counts, one capped
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelConvergence})
	st.RecordSubIteration(SubIterationRecord{Step: 1, RKStep: 0, Iterations: 2, Residual: 1e-9})
	st.RecordSubIteration(SubIterationRecord{Step: 1, RKStep: 1, Iterations: 4, Residual: 5e-9, CappedContacts: 1})
	st.RecordSubIteration(SubIterationRecord{Step: 1, RKStep: 2, Iterations: 101, Residual: 1e-6, Capped: true})
	st.RecordDiagnostics(DiagnosticsRecord{Step: 1, DivMax: 2e-15})
	st.RecordDiagnostics(DiagnosticsRecord{Step: 2, DivMax: 7e-15})

	// WHEN summarized
	summary := Summarize(st)

	// THEN mean = (2 + 4 + 101) / 3 and the cap is counted
	expectedMean := (2 + 4 + 101) / 3.0
	if summary.MeanIterations != expectedMean {
		t.Errorf("expected mean iterations %.4f, got %.4f", expectedMean, summary.MeanIterations)
	}
	if summary.MaxIterations != 101 {
		t.Errorf("expected max iterations 101, got %d", summary.MaxIterations)
	}
	if summary.CappedLoops != 1 {
		t.Errorf("expected 1 capped loop, got %d", summary.CappedLoops)
	}
	if summary.MaxResidual != 1e-6 {
		t.Errorf("expected max residual 1e-6, got %v", summary.MaxResidual)
	}
	if summary.CappedContacts != 1 {
		t.Errorf("expected 1 capped contact, got %d", summary.CappedContacts)
	}
	if summary.DiagnosticSamples != 2 || summary.MaxDivergence != 7e-15 {
		t.Errorf("unexpected diagnostics summary: %+v", summary)
	}
}
