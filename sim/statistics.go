package sim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/suspension-sim/suspension-sim/sim/checkpoint"
	"github.com/suspension-sim/suspension-sim/sim/field"
	"github.com/suspension-sim/suspension-sim/sim/fluid"
	"github.com/suspension-sim/suspension-sim/sim/suspension"
)

// statistics holds running sums for temporal averages. Dividing by num
// yields the mean.
type statistics struct {
	num int

	ux1, ux2 *field.Array // sum of ux and ux^2
	uy1, uy2 *field.Array // sum of uy and uy^2
	phi      *field.Array // number of particles covering each cell centre

	square []float64
}

func newStatistics(f *fluid.Fluid) *statistics {
	return &statistics{
		ux1:    field.NewLike(f.UX),
		ux2:    field.NewLike(f.UX),
		uy1:    field.NewLike(f.UY),
		uy2:    field.NewLike(f.UY),
		phi:    field.NewLike(f.P),
		square: make([]float64, f.Grid().ITot+2),
	}
}

// accumulate adds the interior rows of u to sum1 and their squares to sum2.
func (st *statistics) accumulate(u, sum1, sum2 *field.Array) {
	for j := 1; j <= u.JSize(); j++ {
		row := u.Row(j)
		floats.Add(sum1.Row(j), row)
		sq := st.square[:len(row)]
		floats.MulTo(sq, row, row)
		floats.Add(sum2.Row(j), sq)
	}
}

func (st *statistics) collect(f *fluid.Fluid, s *suspension.Suspensions) {
	st.accumulate(f.UX, st.ux1, st.ux2)
	st.accumulate(f.UY, st.uy1, st.uy2)
	s.AccumulateIndicator(st.phi)
	st.num++
}

// writeStatistics stores the running sums together with the run parameters.
func (s *Simulator) writeStatistics() error {
	dir, err := s.makeStepDir(statSubdir)
	if err != nil {
		return err
	}
	st := s.stats
	if s.comm.Rank() == 0 {
		if err := checkpoint.WriteInt(dir, "num", int64(st.num)); err != nil {
			return err
		}
		if err := s.writeParams(dir); err != nil {
			return err
		}
	}
	for _, fd := range []struct {
		name string
		a    *field.Array
	}{
		{"ux1", st.ux1},
		{"uy1", st.uy1},
		{"ux2", st.ux2},
		{"uy2", st.uy2},
		{"phi", st.phi},
	} {
		if err := checkpoint.WriteField(s.comm, dir, fd.name, fd.a); err != nil {
			return err
		}
	}
	return nil
}
