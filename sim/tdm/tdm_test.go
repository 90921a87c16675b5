package tdm

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// randomSystem fills s with a random diagonally dominant system and returns
// its dense matrix.
func randomSystem(rng *rand.Rand, s *Solver) *mat.Dense {
	n := s.n
	a := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		s.L[i] = rng.Float64() - 0.5
		s.U[i] = rng.Float64() - 0.5
		s.C[i] = -(1 + rng.Float64() + math.Abs(s.L[i]) + math.Abs(s.U[i]))
		a.Set(i, i, s.C[i])
		if i > 0 {
			a.Set(i, i-1, s.L[i])
		} else if s.periodic {
			a.Set(0, n-1, s.L[0])
		}
		if i < n-1 {
			a.Set(i, i+1, s.U[i])
		} else if s.periodic {
			a.Set(n-1, 0, s.U[n-1])
		}
	}
	return a
}

// residual returns max|A x - b|.
func residual(a *mat.Dense, x, b []float64) float64 {
	var ax mat.VecDense
	ax.MulVec(a, mat.NewVecDense(len(x), x))
	diff := make([]float64, len(b))
	floats.SubTo(diff, ax.RawVector().Data, b)
	return floats.Norm(diff, 2)
}

func TestSolve_Real_ResidualBelowTolerance(t *testing.T) {
	for _, periodic := range []bool{false, true} {
		for _, n := range []int{3, 8, 64} {
			t.Run(fmt.Sprintf("periodic=%t/n=%d", periodic, n), func(t *testing.T) {
				// GIVEN a random diagonally dominant system
				rng := rand.New(rand.NewSource(int64(n)))
				s := New(n, periodic)
				a := randomSystem(rng, s)
				b := make([]float64, n)
				for i := range b {
					b[i] = rng.NormFloat64()
				}

				// WHEN solved in place
				x := append([]float64(nil), b...)
				Solve(s, x)

				// THEN A x reproduces b
				assert.Less(t, residual(a, x, b), 1e-10)
			})
		}
	}
}

func TestSolve_Complex_ResidualBelowTolerance(t *testing.T) {
	for _, periodic := range []bool{false, true} {
		t.Run(fmt.Sprintf("periodic=%t", periodic), func(t *testing.T) {
			const n = 32
			rng := rand.New(rand.NewSource(7))
			s := New(n, periodic)
			a := randomSystem(rng, s)
			b := make([]complex128, n)
			for i := range b {
				b[i] = complex(rng.NormFloat64(), rng.NormFloat64())
			}

			x := append([]complex128(nil), b...)
			Solve(s, x)

			// A is real, so real and imaginary parts decouple
			xr, xi := make([]float64, n), make([]float64, n)
			br, bi := make([]float64, n), make([]float64, n)
			for i := range x {
				xr[i], xi[i] = real(x[i]), imag(x[i])
				br[i], bi[i] = real(b[i]), imag(b[i])
			}
			assert.Less(t, residual(a, xr, br), 1e-10)
			assert.Less(t, residual(a, xi, bi), 1e-10)
		})
	}
}

func TestSolve_CoefficientsPreservedAcrossCalls(t *testing.T) {
	s := New(5, true)
	rng := rand.New(rand.NewSource(3))
	randomSystem(rng, s)
	before := append([]float64(nil), s.U...)

	q := []float64{1, 2, 3, 4, 5}
	Solve(s, q)
	first := append([]float64(nil), q...)
	q = []float64{1, 2, 3, 4, 5}
	Solve(s, q)

	assert.Equal(t, before, s.U)
	assert.Equal(t, first, q)
}

func TestSolve_DegeneratePivot_Floored(t *testing.T) {
	// GIVEN a periodic Laplacian without shift: singular with a zero pivot
	const n = 6
	s := New(n, true)
	for i := 0; i < n; i++ {
		s.L[i], s.C[i], s.U[i] = 1, -2, 1
	}
	q := make([]float64, n)

	// WHEN solved
	// THEN no NaN or Inf leaks out
	assert.NotPanics(t, func() { Solve(s, q) })
	for _, v := range q {
		assert.False(t, math.IsNaN(v), "NaN in solution")
		assert.Less(t, math.Abs(v), 1e300)
	}
}

func TestNew_InvalidSize_Panics(t *testing.T) {
	assert.Panics(t, func() { New(0, false) })
	assert.Panics(t, func() { New(2, true) })
}
