// Package field provides the staggered-grid arrays of the Marker-and-Cell
// layout. An Array knows which staggered location it represents and exposes
// bounds-checked 1-based (i, j) access, including one ghost row on each side
// of the local y-slab.
package field

import "fmt"

// Kind selects the staggered location of an Array.
type Kind int

const (
	// XFace holds x-face values such as ux: i in [1, itot+1].
	XFace Kind = iota
	// YFace holds y-face values such as uy: i in [0, itot+1].
	YFace
	// Center holds cell-centred scalars such as p and psi: i in [0, itot+1].
	Center
)

func (k Kind) String() string {
	switch k {
	case XFace:
		return "x-face"
	case YFace:
		return "y-face"
	case Center:
		return "center"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Array is a 2D staggered array with j in [0, jsize+1].
type Array struct {
	kind   Kind
	itot   int
	jsize  int
	ilo    int
	ihi    int
	stride int
	data   []float64
}

// New allocates a zeroed Array for a slab of itot x jsize cells.
func New(kind Kind, itot, jsize int) *Array {
	if itot < 1 || jsize < 1 {
		panic(fmt.Sprintf("field: invalid extents itot=%d jsize=%d", itot, jsize))
	}
	a := &Array{kind: kind, itot: itot, jsize: jsize}
	switch kind {
	case XFace:
		a.ilo, a.ihi = 1, itot+1
	case YFace, Center:
		a.ilo, a.ihi = 0, itot+1
	default:
		panic(fmt.Sprintf("field: unknown kind %d", int(kind)))
	}
	a.stride = a.ihi - a.ilo + 1
	a.data = make([]float64, a.stride*(jsize+2))
	return a
}

// NewLike allocates a zeroed Array with the same kind and extents as a.
func NewLike(a *Array) *Array {
	return New(a.kind, a.itot, a.jsize)
}

func (a *Array) Kind() Kind { return a.kind }
func (a *Array) ITot() int  { return a.itot }
func (a *Array) JSize() int { return a.jsize }

// ILo and IHi are the inclusive bounds of the i index.
func (a *Array) ILo() int { return a.ilo }
func (a *Array) IHi() int { return a.ihi }

func (a *Array) index(i, j int) int {
	if i < a.ilo || i > a.ihi || j < 0 || j > a.jsize+1 {
		panic(fmt.Sprintf("field: index (%d, %d) outside %s array [%d..%d]x[0..%d]",
			i, j, a.kind, a.ilo, a.ihi, a.jsize+1))
	}
	return j*a.stride + i - a.ilo
}

// At returns the value at (i, j).
func (a *Array) At(i, j int) float64 { return a.data[a.index(i, j)] }

// Set stores v at (i, j).
func (a *Array) Set(i, j int, v float64) { a.data[a.index(i, j)] = v }

// Add increments the value at (i, j) by v.
func (a *Array) Add(i, j int, v float64) { a.data[a.index(i, j)] += v }

// Span returns the values of row j for i in [i0, i1]. The slice aliases the
// array's storage.
func (a *Array) Span(j, i0, i1 int) []float64 {
	lo := a.index(i0, j)
	hi := a.index(i1, j)
	return a.data[lo : hi+1]
}

// Row returns row j over the full i range.
func (a *Array) Row(j int) []float64 {
	return a.Span(j, a.ilo, a.ihi)
}

// Data returns the backing storage, row-major in j.
func (a *Array) Data() []float64 { return a.data }

// Zero resets every value, ghost rows included.
func (a *Array) Zero() {
	clear(a.data)
}

// CopyFrom overwrites a with src. Both arrays must share kind and extents.
func (a *Array) CopyFrom(src *Array) {
	if a.kind != src.kind || a.itot != src.itot || a.jsize != src.jsize {
		panic(fmt.Sprintf("field: cannot copy %s %dx%d into %s %dx%d",
			src.kind, src.itot, src.jsize, a.kind, a.itot, a.jsize))
	}
	copy(a.data, src.data)
}
