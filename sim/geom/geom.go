// Package geom provides the 2D primitives shared by the tour engine, the
// cluster abstraction and the optimizer.
package geom

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrDegenerate is returned when an input point set cannot be processed
// (non-finite coordinates). Callers treat it as fatal.
var ErrDegenerate = errors.New("degenerate geometry")

// Point is a 2D position in meters.
type Point = r2.Vec

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// Finite reports whether both coordinates of p are finite.
func Finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Centroid returns the center of mass of pts. The zero point is returned for
// an empty set.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	var sum Point
	for _, p := range pts {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(1/float64(len(pts)), sum)
}

// ClosestPointOnSegment finds the point on segment v-w nearest to p and
// returns its distance to p along with the point itself. The projection is
// clamped to the segment's endpoints; a zero-length segment projects onto v.
func ClosestPointOnSegment(v, w, p Point) (float64, Point) {
	vw := r2.Sub(w, v)
	lenSquared := r2.Dot(vw, vw)
	proj := v
	if lenSquared != 0 {
		t := r2.Dot(r2.Sub(p, v), vw) / lenSquared
		t = math.Max(0, math.Min(1, t))
		proj = r2.Add(v, r2.Scale(t, vw))
	}
	return Distance(proj, p), proj
}

// MoveToward moves from toward to by at most d. It never overshoots to and
// is a no-op when the two points coincide.
func MoveToward(from, to Point, d float64) Point {
	delta := r2.Sub(to, from)
	dist := r2.Norm(delta)
	if dist == 0 || d <= 0 {
		return from
	}
	if d >= dist {
		return to
	}
	return r2.Add(from, r2.Scale(d/dist, delta))
}

// PolarAngle returns the angle of p around origin in (-pi, pi].
func PolarAngle(p, origin Point) float64 {
	v := r2.Sub(p, origin)
	return math.Atan2(v.Y, v.X)
}

// Close reports whether a and b agree in both coordinates within an
// absolute tolerance of 1e-8 plus a relative tolerance of 1e-5 of b.
func Close(a, b Point) bool {
	within := func(x, y float64) bool {
		return math.Abs(x-y) <= 1e-8+1e-5*math.Abs(y)
	}
	return within(a.X, b.X) && within(a.Y, b.Y)
}
