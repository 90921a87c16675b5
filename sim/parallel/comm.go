package parallel

import (
	"fmt"
	"math"
	"time"
)

// Comm is one rank's view of a World. It is not safe for concurrent use:
// each rank goroutine owns exactly one Comm.
type Comm struct {
	world *World
	rank  int
}

// Rank returns this rank's index.
func (c *Comm) Rank() int { return c.rank }

// Size returns the number of ranks in the World.
func (c *Comm) Size() int { return c.world.size }

// YmRank returns the neighbour owning the slab below this one (periodic).
func (c *Comm) YmRank() int {
	return (c.rank - 1 + c.world.size) % c.world.size
}

// YpRank returns the neighbour owning the slab above this one (periodic).
func (c *Comm) YpRank() int {
	return (c.rank + 1) % c.world.size
}

// Abort aborts the whole World; see World.Abort.
func (c *Comm) Abort(err error) { c.world.Abort(err) }

func (c *Comm) send(to int, tag string, payload any) {
	select {
	case <-c.world.done:
		panic(c.world.abortError())
	default:
	}
	select {
	case c.world.links[c.rank][to] <- message{tag: tag, payload: payload}:
	case <-c.world.done:
		panic(c.world.abortError())
	}
}

func (c *Comm) recv(from int, tag string) any {
	select {
	case m := <-c.world.links[from][c.rank]:
		if m.tag != tag {
			c.world.Abort(fmt.Errorf("rank %d expected %q from rank %d, got %q", c.rank, tag, from, m.tag))
			panic(c.world.abortError())
		}
		return m.payload
	case <-c.world.done:
		panic(c.world.abortError())
	}
}

// ExchangeHaloWithYm sends send to the yp neighbour and fills recv with the
// buffer the ym neighbour sent, i.e. the ym neighbour's top row becomes this
// rank's lower ghost row.
func (c *Comm) ExchangeHaloWithYm(send, recv []float64) {
	c.sendRecv(c.YpRank(), send, c.YmRank(), recv, "halo-ym")
}

// ExchangeHaloWithYp sends send to the ym neighbour and fills recv with the
// buffer the yp neighbour sent.
func (c *Comm) ExchangeHaloWithYp(send, recv []float64) {
	c.sendRecv(c.YmRank(), send, c.YpRank(), recv, "halo-yp")
}

func (c *Comm) sendRecv(to int, send []float64, from int, recv []float64, tag string) {
	c.send(to, tag, append([]float64(nil), send...))
	got := c.recv(from, tag).([]float64)
	if len(got) != len(recv) {
		c.world.Abort(fmt.Errorf("%s: rank %d received %d values, want %d", tag, c.rank, len(got), len(recv)))
		panic(c.world.abortError())
	}
	copy(recv, got)
}

type reduceOp int

const (
	opSum reduceOp = iota
	opMax
	opMin
)

func (op reduceOp) String() string {
	switch op {
	case opSum:
		return "sum"
	case opMax:
		return "max"
	default:
		return "min"
	}
}

func (op reduceOp) apply(acc, v float64) float64 {
	switch op {
	case opSum:
		return acc + v
	case opMax:
		return math.Max(acc, v)
	default:
		return math.Min(acc, v)
	}
}

// allreduce combines buf element-wise across ranks in place. Contributions
// are folded on rank 0 in rank order and broadcast back, so every rank sees
// bit-identical results.
func (c *Comm) allreduce(buf []float64, op reduceOp) {
	size := c.world.size
	if size == 1 {
		return
	}
	tag := "allreduce-" + op.String()
	if c.rank == 0 {
		for r := 1; r < size; r++ {
			part := c.recv(r, tag).([]float64)
			if len(part) != len(buf) {
				c.world.Abort(fmt.Errorf("%s: rank %d contributed %d values, want %d", tag, r, len(part), len(buf)))
				panic(c.world.abortError())
			}
			for n, v := range part {
				buf[n] = op.apply(buf[n], v)
			}
		}
		for r := 1; r < size; r++ {
			c.send(r, tag, append([]float64(nil), buf...))
		}
		return
	}
	c.send(0, tag, append([]float64(nil), buf...))
	copy(buf, c.recv(0, tag).([]float64))
}

// AllreduceSum replaces buf with the element-wise sum over all ranks.
func (c *Comm) AllreduceSum(buf []float64) { c.allreduce(buf, opSum) }

// AllreduceMax replaces buf with the element-wise maximum over all ranks.
func (c *Comm) AllreduceMax(buf []float64) { c.allreduce(buf, opMax) }

// AllreduceMin replaces buf with the element-wise minimum over all ranks.
func (c *Comm) AllreduceMin(buf []float64) { c.allreduce(buf, opMin) }

// SumScalar returns the sum of v over all ranks.
func (c *Comm) SumScalar(v float64) float64 {
	buf := []float64{v}
	c.AllreduceSum(buf)
	return buf[0]
}

// MaxScalar returns the maximum of v over all ranks.
func (c *Comm) MaxScalar(v float64) float64 {
	buf := []float64{v}
	c.AllreduceMax(buf)
	return buf[0]
}

// MinScalar returns the minimum of v over all ranks.
func (c *Comm) MinScalar(v float64) float64 {
	buf := []float64{v}
	c.AllreduceMin(buf)
	return buf[0]
}

// Gather collects part from every rank on root. On root the result holds one
// slice per rank in rank order; other ranks receive nil.
func (c *Comm) Gather(root int, part []float64) [][]float64 {
	const tag = "gather"
	if c.rank != root {
		c.send(root, tag, append([]float64(nil), part...))
		return nil
	}
	parts := make([][]float64, c.world.size)
	for r := range parts {
		if r == root {
			parts[r] = append([]float64(nil), part...)
			continue
		}
		parts[r] = c.recv(r, tag).([]float64)
	}
	return parts
}

// Bcast copies buf from root into buf on every other rank.
func (c *Comm) Bcast(root int, buf []float64) {
	const tag = "bcast"
	if c.rank == root {
		for r := 0; r < c.world.size; r++ {
			if r != root {
				c.send(r, tag, append([]float64(nil), buf...))
			}
		}
		return
	}
	copy(buf, c.recv(root, tag).([]float64))
}

// Barrier blocks until every rank has reached it.
func (c *Comm) Barrier() {
	c.AllreduceSum(nil)
}

// Elapsed returns the wall time since the World was created, maximised over
// ranks so that every rank takes the same stop decision.
func (c *Comm) Elapsed() time.Duration {
	local := time.Since(c.world.start).Seconds()
	return time.Duration(c.MaxScalar(local) * float64(time.Second))
}
