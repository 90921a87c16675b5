package suspension

import (
	"math"

	"github.com/suspension-sim/suspension-sim/sim/ellipse"
)

const (
	// sharpness of the diffuse interface, in grid units
	beta = 2.0
	// cells added on each side of the bounding box
	nExtra = 3
)

// loopRange returns the inclusive index window covering a particle of the
// given radius centred at centre, clipped to [lbound, ubound].
func loopRange(lbound, ubound int, gridSize, radius, centre float64) (lo, hi int) {
	lo = int(math.Floor((centre-radius)/gridSize) - nExtra)
	hi = int(math.Ceil((centre+radius)/gridSize) + nExtra)
	return max(lo, lbound), min(hi, ubound)
}

// signedDistance is the distance from (x, y) to the boundary of e in grid
// units, positive inside.
func signedDistance(gridSize float64, e ellipse.Ellipse, x, y float64) float64 {
	return e.SignedDistance(x, y) / gridSize
}

// SurfaceWeight is the smoothed delta function concentrated on the boundary.
func SurfaceWeight(gridSize float64, e ellipse.Ellipse, x, y float64) float64 {
	t := math.Tanh(beta * signedDistance(gridSize, e, x, y))
	return 0.5 * beta * (1 - t*t)
}

// VolumeWeight is the smoothed indicator function of the particle interior.
func VolumeWeight(gridSize float64, e ellipse.Ellipse, x, y float64) float64 {
	return 0.5 * (1 + math.Tanh(beta*signedDistance(gridSize, e, x, y)))
}
