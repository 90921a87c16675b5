package ellipse

import (
	"math"

	"github.com/sirupsen/logrus"
)

// EquivalentCircles replaces two facing ellipses by their osculating circles
// at the mutually facing points. Each circle is aimed at the other circle's
// centre from the previous iteration, starting from the ellipse centres.
func EquivalentCircles(e0, e1 Ellipse) (c0, c1 Contact, conv Convergence) {
	c0.X, c0.Y = e0.X, e0.Y
	c1.X, c1.Y = e1.X, e1.Y
	for conv.Iterations < maxCircleIterations {
		conv.Iterations++
		n0, _ := e0.Evolute(c1.X, c1.Y)
		n1, _ := e1.Evolute(c0.X, c0.Y)
		delta := math.Max(
			math.Max(math.Abs(n0.X-c0.X), math.Abs(n0.Y-c0.Y)),
			math.Max(math.Abs(n1.X-c1.X), math.Abs(n1.Y-c1.Y)),
		)
		c0, c1 = n0, n1
		if delta < circleTolerance {
			conv.Converged = true
			break
		}
	}
	if !conv.Converged {
		logrus.Debugf("equivalent circles capped after %d iterations", conv.Iterations)
	}
	return c0, c1, conv
}

// EquivalentCircleWall finds the osculating circle of e facing the flat
// wall x = wallx, aiming at the mirror image of the circle centre.
func EquivalentCircleWall(e Ellipse, wallx float64) (c Contact, conv Convergence) {
	c.X, c.Y = e.X, e.Y
	for conv.Iterations < maxCircleIterations {
		conv.Iterations++
		n, _ := e.Evolute(2*wallx-c.X, c.Y)
		delta := math.Max(math.Abs(n.X-c.X), math.Abs(n.Y-c.Y))
		c = n
		if delta < circleTolerance {
			conv.Converged = true
			break
		}
	}
	if !conv.Converged {
		logrus.Debugf("equivalent wall circle capped after %d iterations", conv.Iterations)
	}
	return c, conv
}
