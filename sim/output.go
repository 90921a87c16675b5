package sim

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/suspension-sim/suspension-sim/sim/checkpoint"
	"github.com/suspension-sim/suspension-sim/sim/field"
	"github.com/suspension-sim/suspension-sim/sim/suspension"
	"github.com/suspension-sim/suspension-sim/sim/trace"
)

// Subdirectories of the output directory.
const (
	logSubdir  = "log"
	saveSubdir = "save"
	statSubdir = "stat"
)

// diagnostic log files, one line appended per log event
const (
	progressLog   = "progress.dat"
	divergenceLog = "divergence.dat"
	momentumLog   = "momentum.dat"
	energyLog     = "energy.dat"
)

func particleLog(n int) string {
	return fmt.Sprintf("particle%010d.dat", n)
}

func (s *Simulator) outputDir(sub string) string {
	return filepath.Join(s.cfg.IO.OutputDir, sub)
}

// prepareOutput creates the output tree on rank 0. A fresh run truncates the
// diagnostic logs; a restarted run appends to them.
func (s *Simulator) prepareOutput() error {
	if s.comm.Rank() != 0 {
		return nil
	}
	for _, sub := range []string{logSubdir, saveSubdir, statSubdir} {
		if err := os.MkdirAll(s.outputDir(sub), 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if s.step != 0 {
		return nil
	}
	names := []string{progressLog, divergenceLog, momentumLog, energyLog}
	for n := range s.suspensions.Particles {
		names = append(names, particleLog(n))
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(s.outputDir(logSubdir), name), nil, 0o644); err != nil {
			return fmt.Errorf("creating log file: %w", err)
		}
	}
	return nil
}

// timeDigits returns the number of decimals needed to resolve the log rate.
func timeDigits(rate float64) int {
	digits := 1
	for inv := int(1 / rate); inv >= 10; inv /= 10 {
		digits++
	}
	return digits
}

func (s *Simulator) appendLog(name, format string, args ...any) error {
	f, err := os.OpenFile(filepath.Join(s.outputDir(logSubdir), name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	if _, err := fmt.Fprintf(f, format, args...); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// writeLog computes the flow diagnostics on every rank and records them on
// rank 0.
func (s *Simulator) writeLog() error {
	divMax, divSum := s.fluid.Divergence()
	momX, momY := s.fluid.Momentum()
	enX, enY := s.fluid.Energy()
	s.metrics.DivergenceMax, s.metrics.DivergenceSum = divMax, divSum
	s.metrics.MomentumX, s.metrics.MomentumY = momX, momY
	if s.trace.Enabled() {
		s.trace.RecordDiagnostics(trace.DiagnosticsRecord{
			Step: s.step, Time: s.time, Dt: s.dt,
			DivMax: divMax, DivSum: divSum,
			MomX: momX, MomY: momY,
			EnergyX: enX, EnergyY: enY,
		})
	}
	if s.comm.Rank() != 0 {
		return nil
	}

	s.log.WithFields(logrus.Fields{
		"step":   s.step,
		"time":   s.time,
		"dt":     s.dt,
		"divmax": divMax,
		"divsum": divSum,
	}).Info("progress")

	nd := timeDigits(s.cfg.Schedule.Log.Rate)
	width := nd + 3
	if err := s.appendLog(progressLog, "step %8d, time %*.*f, dt %.2e\n", s.step, width, nd, s.time, s.dt); err != nil {
		return err
	}
	if err := s.appendLog(divergenceLog, "%*.*f % .1e % .1e\n", width, nd, s.time, divMax, divSum); err != nil {
		return err
	}
	if err := s.appendLog(momentumLog, "%*.*f % 18.15e % 18.15e\n", width, nd, s.time, momX, momY); err != nil {
		return err
	}
	if err := s.appendLog(energyLog, "%*.*f % 18.15e % 18.15e\n", width, nd, s.time, enX, enY); err != nil {
		return err
	}
	for n := range s.suspensions.Particles {
		p := &s.suspensions.Particles[n]
		if err := s.appendLog(particleLog(n), "%*.*f % .7e % .7e % .7e % .7e % .7e % .7e\n",
			width, nd, s.time, p.X, p.Y, p.AZ, p.UX, p.UY, p.VZ); err != nil {
			return err
		}
	}
	return nil
}

// writeParams stores the run parameters and coordinates shared by save and
// statistics directories. Rank 0 only.
func (s *Simulator) writeParams(dir string) error {
	g := s.grid
	ints := []struct {
		name  string
		value int
	}{
		{"step", s.step},
		{"itot", g.ITot},
		{"jtot", g.JTot},
	}
	for _, v := range ints {
		if err := checkpoint.WriteInt(dir, v.name, int64(v.value)); err != nil {
			return err
		}
	}
	scalars := []struct {
		name  string
		value float64
	}{
		{"time", s.time},
		{"lx", g.LX},
		{"ly", g.LY},
		{"Re", s.cfg.Physics.Re},
	}
	for _, v := range scalars {
		if err := checkpoint.WriteScalar(dir, v.name, v.value); err != nil {
			return err
		}
	}
	arrays := []struct {
		name  string
		value []float64
	}{
		{"xf", g.XF[1 : g.ITot+2]},
		{"xc", g.XC[0 : g.ITot+2]},
		{"yf", g.GlobalYF()},
		{"yc", g.GlobalYC()},
	}
	for _, v := range arrays {
		if err := checkpoint.Write1D(dir, v.name, v.value); err != nil {
			return err
		}
	}
	return nil
}

// makeStepDir creates root/stepNNNNNNNNNN on rank 0 and returns its path
// once every rank can see it.
func (s *Simulator) makeStepDir(sub string) (string, error) {
	dir := checkpoint.StepDir(s.outputDir(sub), s.step)
	if s.comm.Rank() == 0 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	s.comm.Barrier()
	return dir, nil
}

// save writes a restartable snapshot of the flow and the particles.
func (s *Simulator) save() error {
	dir, err := s.makeStepDir(saveSubdir)
	if err != nil {
		return err
	}
	if s.comm.Rank() == 0 {
		if err := s.writeParams(dir); err != nil {
			return err
		}
		if err := checkpoint.WriteParticles(dir, s.suspensions.Particles); err != nil {
			return err
		}
	}
	for _, fd := range []struct {
		name string
		a    *field.Array
	}{
		{"ux", s.fluid.UX},
		{"uy", s.fluid.UY},
		{"p", s.fluid.P},
	} {
		if err := checkpoint.WriteField(s.comm, dir, fd.name, fd.a); err != nil {
			return err
		}
	}
	if s.comm.Rank() == 0 {
		s.log.Infof("saved %s", dir)
	}
	return nil
}

// checkpointHeader is the grid size and clock stored with a snapshot.
type checkpointHeader struct {
	itot, jtot, step int
	time             float64
}

// readHeader reads the header of dir on rank 0 and shares it with every
// rank. Ranks other than 0 report a read failure on rank 0 as an error too.
func (s *Simulator) readHeader(dir string) (checkpointHeader, error) {
	// ok, itot, jtot, step, time
	buf := make([]float64, 5)
	var err error
	if s.comm.Rank() == 0 {
		var h checkpointHeader
		if h, err = readHeaderFiles(dir); err == nil {
			buf[0] = 1
			buf[1], buf[2], buf[3], buf[4] = float64(h.itot), float64(h.jtot), float64(h.step), h.time
		}
	}
	s.comm.Bcast(0, buf)
	if err != nil {
		return checkpointHeader{}, err
	}
	if buf[0] == 0 {
		return checkpointHeader{}, fmt.Errorf("reading %s failed on rank 0", dir)
	}
	return checkpointHeader{itot: int(buf[1]), jtot: int(buf[2]), step: int(buf[3]), time: buf[4]}, nil
}

func readHeaderFiles(dir string) (checkpointHeader, error) {
	var h checkpointHeader
	for _, v := range []struct {
		name string
		dst  *int
	}{
		{"itot", &h.itot},
		{"jtot", &h.jtot},
		{"step", &h.step},
	} {
		n, err := checkpoint.ReadInt(dir, v.name)
		if err != nil {
			return h, err
		}
		*v.dst = int(n)
	}
	var err error
	h.time, err = checkpoint.ReadScalar(dir, "time")
	return h, err
}

// restore loads a snapshot written by save into the flow field and returns
// the particles. Every rank reads the rows it owns.
func (s *Simulator) restore(dir string) ([]suspension.Particle, error) {
	g := s.grid
	h, err := s.readHeader(dir)
	if err != nil {
		return nil, err
	}
	if h.itot != g.ITot {
		return nil, fmt.Errorf("itot is %d in the checkpoint but %d in the config", h.itot, g.ITot)
	}
	if h.jtot != g.JTot {
		return nil, fmt.Errorf("jtot is %d in the checkpoint but %d in the config", h.jtot, g.JTot)
	}
	for _, fd := range []struct {
		name string
		a    *field.Array
	}{
		{"ux", s.fluid.UX},
		{"uy", s.fluid.UY},
		{"p", s.fluid.P},
	} {
		if err := checkpoint.ReadField(dir, fd.name, fd.a, g.JOffset, g.JTot); err != nil {
			return nil, err
		}
	}
	s.fluid.RefreshBoundaries()
	s.step, s.time = h.step, h.time
	return checkpoint.ReadParticles(dir)
}
