// Package sim drives a two-dimensional simulation of rigid elliptical
// particles suspended in an incompressible flow between two parallel walls,
// periodic in the wall-parallel direction.
//
// # Reading Guide
//
// Start with these files to understand the time loop:
//   - config.go: run configuration, defaults and YAML loading
//   - simulator.go: time-step selection, Runge-Kutta integration and the main loop
//   - output.go: diagnostic logs, snapshots and restart
//
// # Architecture
//
// The solver is SPMD: each rank owns a y-slab of the grid and runs its own
// Simulator; ranks communicate only through parallel.Comm. Sub-packages hold
// the numerical components:
//   - sim/parallel/: ranks, halo exchange, reductions and pencil transposes
//   - sim/grid/: coordinates and the domain decomposition
//   - sim/field/: staggered arrays
//   - sim/tdm/: tridiagonal solvers
//   - sim/fluid/: Navier-Stokes sub-steps and the Poisson solver
//   - sim/ellipse/: ellipse geometry and equivalent circles
//   - sim/suspension/: particle-fluid coupling and collisions
//   - sim/checkpoint/: NPY input and output
//   - sim/cluster/: runs one Simulator per rank and collects the results
//   - sim/trace/: convergence trace recording
package sim
