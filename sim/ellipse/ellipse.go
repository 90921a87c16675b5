// Package ellipse provides the geometry shared by the particle kernels and
// the collision model: the closest point on an ellipse, its evolute, and the
// equivalent-circle approximation of two facing ellipses.
package ellipse

import (
	"math"

	"github.com/sirupsen/logrus"
)

const (
	// tolerance of the Newton update on the parametric angle
	normalTolerance     = 1e-8
	maxNormalIterations = 100

	// tolerance of the equivalent-circle fixed point
	circleTolerance     = 1e-8
	maxCircleIterations = 100

	dblEpsilon = 0x1p-52
)

// Convergence reports how an iterative estimate ended. A capped estimate is
// still returned and usable.
type Convergence struct {
	Iterations int
	Converged  bool
}

// Ellipse is a rotated ellipse with semi-axes A (along the rotated x axis)
// and B, centred at (X, Y) and rotated counter-clockwise by Angle.
type Ellipse struct {
	A, B  float64
	X, Y  float64
	Angle float64
}

// Circle is a circle centred at (X, Y) with radius R.
type Circle struct {
	X, Y, R float64
}

// Ex is the x coordinate of the evolute at parametric angle t.
func Ex(a, b, t float64) float64 {
	return a * (1 - (b/a)*(b/a)) * math.Pow(math.Cos(t), 3)
}

// Ey is the y coordinate of the evolute at parametric angle t.
func Ey(a, b, t float64) float64 {
	return b * (1 - (a/b)*(a/b)) * math.Pow(math.Sin(t), 3)
}

// Curvature is the curvature of the ellipse at parametric angle t.
func Curvature(a, b, t float64) float64 {
	sin, cos := math.Sincos(t)
	return a * b / math.Pow(a*a*sin*sin+b*b*cos*cos, 1.5)
}

// FindNormalT returns the parametric angle t of the point (a cos t, b sin t)
// whose normal passes through (x, y), for an axis-aligned ellipse centred at
// the origin. The iteration works in the first quadrant and the result is
// reflected back into the quadrant of (x, y).
func FindNormalT(a, b, x, y float64) (float64, Convergence) {
	px, py := math.Abs(x), math.Abs(y)
	t := 0.25 * math.Pi
	conv := Convergence{}
	for conv.Iterations < maxNormalIterations {
		conv.Iterations++
		sin, cos := math.Sincos(t)
		ox, oy := a*cos, b*sin
		ex, ey := Ex(a, b, t), Ey(a, b, t)
		rx, ry := ox-ex, oy-ey
		qx, qy := px-ex, py-ey
		r := math.Hypot(rx, ry)
		q := math.Hypot(qx, qy)
		if r*q == 0 {
			conv.Converged = true
			break
		}
		arg := math.Max(-1, math.Min(1, (rx*qy-ry*qx)/(r*q)))
		dc := r * math.Asin(arg)
		dt := dc / math.Sqrt(a*a+b*b-ox*ox-oy*oy)
		t = math.Max(0, math.Min(0.5*math.Pi, t+dt))
		if math.Abs(dt) < normalTolerance {
			conv.Converged = true
			break
		}
	}
	if !conv.Converged {
		logrus.Debugf("normal point of (%g, %g) on a=%g b=%g capped after %d iterations", x, y, a, b, conv.Iterations)
	}
	if x < 0 {
		t = math.Pi - t
	}
	if y < 0 {
		t = -t
	}
	return t, conv
}

// toLocal maps a point into the frame where e is centred and unrotated.
func (e Ellipse) toLocal(x, y float64) (float64, float64) {
	sin, cos := math.Sincos(-e.Angle)
	dx, dy := x-e.X, y-e.Y
	return cos*dx - sin*dy, sin*dx + cos*dy
}

// rotate applies the ellipse rotation to a vector.
func (e Ellipse) rotate(x, y float64) (float64, float64) {
	sin, cos := math.Sincos(e.Angle)
	return cos*x - sin*y, sin*x + cos*y
}

// Inside reports whether (x, y) lies strictly inside e.
func (e Ellipse) Inside(x, y float64) bool {
	lx, ly := e.toLocal(x, y)
	return 1-(lx/e.A)*(lx/e.A)-(ly/e.B)*(ly/e.B) > 0
}

// SignedDistance returns the distance from (x, y) to the boundary of e,
// positive inside and negative outside.
func (e Ellipse) SignedDistance(x, y float64) float64 {
	lx, ly := e.toLocal(x, y)
	sign := -1.0
	if 1-(lx/e.A)*(lx/e.A)-(ly/e.B)*(ly/e.B) > 0 {
		sign = 1
	}
	t, _ := FindNormalT(e.A, e.B, lx, ly)
	sin, cos := math.Sincos(t)
	return sign * math.Hypot(e.A*cos-lx, e.B*sin-ly)
}

// Contact is the osculating circle of an ellipse at the point facing a
// target, with the lever arm (IX, IY) from the ellipse centre to that point.
type Contact struct {
	Circle
	IX, IY float64
}

// Evolute returns the osculating circle of e at the boundary point whose
// normal passes through (x, y).
func (e Ellipse) Evolute(x, y float64) (Contact, Convergence) {
	lx, ly := e.toLocal(x, y)
	t, conv := FindNormalT(e.A, e.B, lx, ly)
	r := 1 / math.Max(Curvature(e.A, e.B, t), dblEpsilon)
	ex, ey := e.rotate(Ex(e.A, e.B, t), Ey(e.A, e.B, t))
	sin, cos := math.Sincos(t)
	ix, iy := e.rotate(e.A*cos, e.B*sin)
	return Contact{
		Circle: Circle{X: ex + e.X, Y: ey + e.Y, R: r},
		IX:     ix,
		IY:     iy,
	}, conv
}
