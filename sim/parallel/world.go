// Package parallel provides the SPMD communicator shared by every solver
// component: rank topology on a periodic ring, paired halo exchange,
// deterministic all-reduce, and all-to-all matrix transposes.
//
// A World connects Size ranks that each run in their own goroutine. Every
// ordered pair of ranks owns a FIFO link, so as long as all ranks issue the
// same sequence of collective calls, messages match without explicit tags.
// Tags are still carried and checked to catch divergent call sequences early.
package parallel

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// linkCapacity bounds the number of in-flight messages between two ranks.
// A rank never runs more than one collective ahead of its peers, so a small
// buffer suffices.
const linkCapacity = 64

// ErrAborted is wrapped by AbortError when a World is aborted without a cause.
var ErrAborted = errors.New("parallel: world aborted")

// AbortError is the panic value raised by blocking operations once the World
// has been aborted. Rank drivers recover it and return it as an error.
type AbortError struct {
	Err error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("parallel: world aborted: %v", e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

type message struct {
	tag     string
	payload any
}

// World is the set of ranks taking part in one simulation.
type World struct {
	size  int
	links [][]chan message // links[from][to]
	start time.Time

	done chan struct{}
	once sync.Once
	mu   sync.Mutex
	err  error
}

// NewWorld creates a World with size ranks.
// Panics if size < 1.
func NewWorld(size int) *World {
	if size < 1 {
		panic("parallel: world size must be >= 1")
	}
	links := make([][]chan message, size)
	for from := range links {
		links[from] = make([]chan message, size)
		for to := range links[from] {
			links[from][to] = make(chan message, linkCapacity)
		}
	}
	return &World{
		size:  size,
		links: links,
		start: time.Now(),
		done:  make(chan struct{}),
	}
}

// Size returns the number of ranks.
func (w *World) Size() int { return w.size }

// Comm returns the communicator for the given rank.
func (w *World) Comm(rank int) *Comm {
	if rank < 0 || rank >= w.size {
		panic(fmt.Sprintf("parallel: rank %d out of range [0, %d)", rank, w.size))
	}
	return &Comm{world: w, rank: rank}
}

// Abort terminates the World. Every rank blocked in (or later entering) a
// communication call panics with an *AbortError. Only the first cause is kept.
func (w *World) Abort(err error) {
	if err == nil {
		err = ErrAborted
	}
	w.once.Do(func() {
		w.mu.Lock()
		w.err = err
		w.mu.Unlock()
		close(w.done)
	})
}

// Done is closed once the World has been aborted.
func (w *World) Done() <-chan struct{} { return w.done }

// Err returns the abort cause, or nil while the World is healthy.
func (w *World) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *World) abortError() *AbortError {
	return &AbortError{Err: w.Err()}
}
