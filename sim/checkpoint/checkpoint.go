// Package checkpoint reads and writes simulation state as NumPy .npy files,
// one file per quantity inside a step directory.
//
// Fields are written as (jtot, ni) matrices where ni covers the full i range
// of the staggered array: itot+1 for x-faces, itot+2 for y-faces and cell
// centres. Rank 0 gathers the slabs and writes; every rank reads the whole
// file and keeps its own rows.
package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"

	"github.com/suspension-sim/suspension-sim/sim/field"
	"github.com/suspension-sim/suspension-sim/sim/parallel"
)

// StepDir returns the directory name of the state at step, e.g.
// root/step0000001000.
func StepDir(root string, step int) string {
	return filepath.Join(root, fmt.Sprintf("step%010d", step))
}

func path(dir, name string) string {
	return filepath.Join(dir, name+".npy")
}

func write(dir, name string, val any) error {
	f, err := os.Create(path(dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	if err := npyio.Write(f, val); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

func read(dir, name string, ptr any) error {
	f, err := os.Open(path(dir, name))
	if err != nil {
		return fmt.Errorf("opening %s: %w", name, err)
	}
	defer f.Close()
	if err := npyio.Read(f, ptr); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

// WriteScalar writes a single float64.
func WriteScalar(dir, name string, v float64) error {
	return write(dir, name, v)
}

// WriteInt writes a single int64.
func WriteInt(dir, name string, v int64) error {
	return write(dir, name, v)
}

// Write1D writes a one-dimensional array.
func Write1D(dir, name string, v []float64) error {
	return write(dir, name, v)
}

// ReadScalar reads a single float64.
func ReadScalar(dir, name string) (float64, error) {
	var v float64
	err := read(dir, name, &v)
	return v, err
}

// ReadInt reads a single int64.
func ReadInt(dir, name string) (int64, error) {
	var v int64
	err := read(dir, name, &v)
	return v, err
}

// Read1D reads a one-dimensional array.
func Read1D(dir, name string) ([]float64, error) {
	var v []float64
	err := read(dir, name, &v)
	return v, err
}

// WriteField gathers the interior rows of a to rank 0 and writes them as
// one (jtot, ni) matrix. Every rank must call it; only rank 0 touches the
// file system and only rank 0 can observe a write error.
func WriteField(comm *parallel.Comm, dir, name string, a *field.Array) error {
	ni := a.IHi() - a.ILo() + 1
	local := make([]float64, 0, ni*a.JSize())
	for j := 1; j <= a.JSize(); j++ {
		local = append(local, a.Row(j)...)
	}
	parts := comm.Gather(0, local)
	if comm.Rank() != 0 {
		return nil
	}
	var global []float64
	for _, part := range parts {
		global = append(global, part...)
	}
	return write(dir, name, mat.NewDense(len(global)/ni, ni, global))
}

// ReadField loads the rows of this rank's slab into a. joffset is the global
// index of the slab's first row and jtot the expected global row count.
func ReadField(dir, name string, a *field.Array, joffset, jtot int) error {
	var m mat.Dense
	if err := read(dir, name, &m); err != nil {
		return err
	}
	rows, cols := m.Dims()
	ni := a.IHi() - a.ILo() + 1
	if rows != jtot || cols != ni {
		return fmt.Errorf("reading %s: shape (%d, %d), want (%d, %d)", name, rows, cols, jtot, ni)
	}
	for j := 1; j <= a.JSize(); j++ {
		mat.Row(a.Row(j), joffset+j-1, &m)
	}
	return nil
}
