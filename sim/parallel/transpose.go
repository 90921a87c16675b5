package parallel

import "fmt"

// Transpose redistributes a gISize x gJSize matrix between two slab layouts:
//
//	x-aligned (input):  this rank owns jsize rows,    send[j*gISize+i]
//	y-aligned (output): this rank owns isize columns, recv[i*gJSize+j]
//
// where jsize = Size(gJSize, ...) and isize = Size(gISize, ...). The inverse
// redistribution is the Transpose built with the two extents swapped.
// A Transpose is immutable once built and is reused for every call.
type Transpose[T any] struct {
	comm     *Comm
	gISize   int
	gJSize   int
	iSizes   []int // columns each rank owns after the exchange
	iOffsets []int
	jSizes   []int // rows each rank owns before the exchange
	jOffsets []int
	tag      string
}

// NewTranspose builds the block descriptors for every peer.
func NewTranspose[T any](comm *Comm, gISize, gJSize int) *Transpose[T] {
	if gISize < 1 || gJSize < 1 {
		panic(fmt.Sprintf("parallel: invalid transpose extents %dx%d", gISize, gJSize))
	}
	n := comm.Size()
	t := &Transpose[T]{
		comm:     comm,
		gISize:   gISize,
		gJSize:   gJSize,
		iSizes:   make([]int, n),
		iOffsets: make([]int, n),
		jSizes:   make([]int, n),
		jOffsets: make([]int, n),
		tag:      fmt.Sprintf("transpose-%dx%d", gISize, gJSize),
	}
	for r := 0; r < n; r++ {
		t.iSizes[r] = Size(gISize, n, r)
		t.iOffsets[r] = Offset(gISize, n, r)
		t.jSizes[r] = Size(gJSize, n, r)
		t.jOffsets[r] = Offset(gJSize, n, r)
	}
	return t
}

// SendLen is the length of the x-aligned buffer on this rank.
func (t *Transpose[T]) SendLen() int {
	return t.jSizes[t.comm.rank] * t.gISize
}

// RecvLen is the length of the y-aligned buffer on this rank.
func (t *Transpose[T]) RecvLen() int {
	return t.iSizes[t.comm.rank] * t.gJSize
}

// Execute performs the all-to-all exchange. It is a pure permutation: no
// arithmetic touches the values.
func (t *Transpose[T]) Execute(send, recv []T) {
	if len(send) != t.SendLen() || len(recv) != t.RecvLen() {
		panic(fmt.Sprintf("parallel: %s buffer sizes (%d, %d), want (%d, %d)",
			t.tag, len(send), len(recv), t.SendLen(), t.RecvLen()))
	}
	rank := t.comm.rank
	size := t.comm.Size()
	for k := 1; k < size; k++ {
		peer := (rank + k) % size
		t.comm.send(peer, t.tag, t.pack(send, peer))
	}
	t.unpack(recv, rank, t.pack(send, rank))
	for k := 1; k < size; k++ {
		peer := (rank - k + size) % size
		t.unpack(recv, peer, t.comm.recv(peer, t.tag).([]T))
	}
}

// pack extracts the columns owned by peer from this rank's rows.
func (t *Transpose[T]) pack(send []T, peer int) []T {
	jsize := t.jSizes[t.comm.rank]
	isize := t.iSizes[peer]
	ioffset := t.iOffsets[peer]
	block := make([]T, isize*jsize)
	for i := 0; i < isize; i++ {
		for j := 0; j < jsize; j++ {
			block[i*jsize+j] = send[j*t.gISize+ioffset+i]
		}
	}
	return block
}

// unpack stores the block received from peer into this rank's columns.
func (t *Transpose[T]) unpack(recv []T, peer int, block []T) {
	isize := t.iSizes[t.comm.rank]
	jsize := t.jSizes[peer]
	joffset := t.jOffsets[peer]
	for i := 0; i < isize; i++ {
		for j := 0; j < jsize; j++ {
			recv[i*t.gJSize+joffset+j] = block[i*jsize+j]
		}
	}
}
