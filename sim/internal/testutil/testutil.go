// Package testutil provides shared test infrastructure for the simulator:
// multi-rank test drivers, temporary config files, and float assertions
// used across sim/ and its sub-packages.
package testutil

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/suspension-sim/suspension-sim/sim/parallel"
)

// RunRanks runs fn on every rank of a fresh world of the given size and
// fails the test if any rank returns an error.
func RunRanks(t *testing.T, ranks int, fn func(c *parallel.Comm) error) {
	t.Helper()
	if err := parallel.NewWorld(ranks).Run(context.Background(), fn); err != nil {
		t.Fatalf("run on %d ranks: %v", ranks, err)
	}
}

// WriteTempYAML writes content to a YAML file in a per-test directory and
// returns its path.
func WriteTempYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
