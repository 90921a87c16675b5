// Package tdm solves tridiagonal linear systems with real coefficients and a
// real or complex right-hand side, in plain and periodic (cyclic) form.
//
// Degenerate pivots are floored: a row whose pivot magnitude falls below
// machine epsilon contributes zero to the solution instead of failing.
package tdm

import (
	"fmt"
	"math"
)

// Scalar is the set of right-hand-side types a Solver accepts.
type Scalar interface {
	float64 | complex128
}

// eps is the pivot threshold (DBL_EPSILON).
const eps = 0x1p-52

// Solver holds the coefficients of one n x n system and the scratch space
// needed to solve it. Fill L, C and U, then call Solve; the coefficients are
// preserved across calls.
//
// Row i reads L[i]*x[i-1] + C[i]*x[i] + U[i]*x[i+1] = q[i]. For periodic
// systems L[0] couples to x[n-1] and U[n-1] couples to x[0].
type Solver struct {
	n        int
	periodic bool

	L []float64
	C []float64
	U []float64

	l0, c0, u0 []float64
	l1, c1, u1 []float64
	q1         []float64
}

// New allocates a Solver for systems of size n.
func New(n int, periodic bool) *Solver {
	if n < 1 || (periodic && n < 3) {
		panic(fmt.Sprintf("tdm: invalid system size %d (periodic=%t)", n, periodic))
	}
	s := &Solver{
		n:        n,
		periodic: periodic,
		L:        make([]float64, n),
		C:        make([]float64, n),
		U:        make([]float64, n),
	}
	m := n
	if periodic {
		m = n - 1
		s.l1 = make([]float64, m)
		s.c1 = make([]float64, m)
		s.u1 = make([]float64, m)
		s.q1 = make([]float64, m)
	}
	s.l0 = make([]float64, m)
	s.c0 = make([]float64, m)
	s.u0 = make([]float64, m)
	return s
}

// Solve overwrites q with the solution of the system.
func Solve[T Scalar](s *Solver, q []T) {
	if len(q) != s.n {
		panic(fmt.Sprintf("tdm: right-hand side has %d entries, want %d", len(q), s.n))
	}
	if s.periodic {
		solvePeriodic(s, q)
		return
	}
	copy(s.l0, s.L)
	copy(s.c0, s.C)
	copy(s.u0, s.U)
	thomas(s.n, s.l0, s.c0, s.u0, q)
}

// thomas runs the forward elimination and back substitution in place.
// u and q are overwritten; l and c are only read.
func thomas[T Scalar](n int, l, c, u []float64, q []T) {
	u[0] = u[0] / c[0]
	q[0] = q[0] / fromReal[T](c[0])
	for i := 1; i < n; i++ {
		val := c[i] - l[i]*u[i-1]
		if math.Abs(val) < eps {
			u[i] = 0
			q[i] = 0
			continue
		}
		val = 1 / val
		u[i] = val * u[i]
		q[i] = fromReal[T](val) * (q[i] - fromReal[T](l[i])*q[i-1])
	}
	for i := n - 2; i >= 0; i-- {
		q[i] -= fromReal[T](u[i]) * q[i+1]
	}
}

// solvePeriodic applies the Sherman-Morrison reduction: the wrap-around
// entries become a correction vector, two (n-1) systems are solved, and the
// last unknown closes the system.
func solvePeriodic[T Scalar](s *Solver, q []T) {
	n := s.n
	l, c, u := s.L, s.C, s.U
	q0 := q[:n-1]
	for i := 0; i < n-1; i++ {
		s.l0[i], s.c0[i], s.u0[i] = l[i], c[i], u[i]
		s.l1[i], s.c1[i], s.u1[i] = l[i], c[i], u[i]
		s.q1[i] = 0
	}
	s.q1[0] = -l[0]
	s.q1[n-2] = -u[n-2]

	thomas(n-1, s.l0, s.c0, s.u0, q0)
	thomas(n-1, s.l1, s.c1, s.u1, s.q1)

	num := q[n-1] - fromReal[T](u[n-1])*q0[0] - fromReal[T](l[n-1])*q0[n-2]
	den := c[n-1] + u[n-1]*s.q1[0] + l[n-1]*s.q1[n-2]
	if math.Abs(den) < eps {
		q[n-1] = 0
	} else {
		q[n-1] = num / fromReal[T](den)
	}
	for i := 0; i < n-1; i++ {
		q[i] = q0[i] + q[n-1]*fromReal[T](s.q1[i])
	}
}

func fromReal[T Scalar](x float64) T {
	var z T
	switch p := any(&z).(type) {
	case *float64:
		*p = x
	case *complex128:
		*p = complex(x, 0)
	}
	return z
}
