// Package tour builds closed collection tours over 2D point sets.
//
// The heuristic follows IDM-kMDC: the convex hull fixes the outer loop, then
// each interior point is spliced into the collection-point edge nearest to
// it. A collector only has to come within the radio range of a point, so
// every point gets a collection point that may sit up to RadioRange away
// from it.
package tour

import (
	"fmt"
	"math"

	"github.com/wsn-sims/mdcsim/sim/geom"
)

// Scaling selects how an interior point's collection point is derived from
// its projection onto the tour.
type Scaling string

const (
	// ScaleClamp only pulls the collection point in when the projection lies
	// farther than the radio range.
	ScaleClamp Scaling = "clamp"
	// ScaleAlways always places the collection point exactly RadioRange from
	// the point, toward the projection.
	ScaleAlways Scaling = "always"
)

var validScalings = map[Scaling]bool{
	ScaleClamp:  true,
	ScaleAlways: true,
	"":          true, // empty defaults to clamp
}

// IsValidScaling reports whether s names a known scaling mode.
func IsValidScaling(s string) bool {
	return validScalings[Scaling(s)]
}

// Options configures Compute.
type Options struct {
	RadioRange float64
	Scaling    Scaling
}

// Tour is an ordered closed walk over a point set.
type Tour struct {
	// Points is the input point set.
	Points []geom.Point
	// Vertices indexes Points in visiting order. For two or more points the
	// first index is repeated at the end.
	Vertices []int
	// CollectionPoints parallels Points.
	CollectionPoints []geom.Point
	// Hull holds the convex hull vertices (nil for fewer than three points).
	Hull []int

	length float64
}

// Length returns the sum of consecutive collection-point distances.
func (t *Tour) Length() float64 {
	return t.length
}

// Edges calls fn for every consecutive (from, to) vertex pair of the tour.
func (t *Tour) Edges(fn func(from, to int)) {
	for i := 1; i < len(t.Vertices); i++ {
		fn(t.Vertices[i-1], t.Vertices[i])
	}
}

func (t *Tour) computeLength() {
	total := 0.0
	t.Edges(func(from, to int) {
		total += geom.Distance(t.CollectionPoints[from], t.CollectionPoints[to])
	})
	t.length = total
}

// Compute builds a tour over points. The input slice is not modified.
func Compute(points []geom.Point, opts Options) (*Tour, error) {
	if opts.RadioRange < 0 || math.IsNaN(opts.RadioRange) {
		return nil, fmt.Errorf("%w: radio range %v", geom.ErrDegenerate, opts.RadioRange)
	}
	pts := append([]geom.Point(nil), points...)
	t := &Tour{Points: pts}

	switch len(pts) {
	case 0:
		t.Vertices = []int{}
		t.CollectionPoints = []geom.Point{}
		return t, nil
	case 1:
		if !geom.Finite(pts[0]) {
			return nil, fmt.Errorf("%w: point 0 is %v", geom.ErrDegenerate, pts[0])
		}
		t.Vertices = []int{0}
		t.CollectionPoints = []geom.Point{pts[0]}
		return t, nil
	}

	hull, err := geom.ConvexHull(pts)
	if err != nil {
		return nil, err
	}
	if len(pts) == 2 {
		// there and back, in input order
		hull = []int{0, 1}
	} else {
		t.Hull = append([]int(nil), hull...)
	}

	cps := make([]geom.Point, len(pts))
	onHull := make([]bool, len(pts))
	hullPts := make([]geom.Point, len(hull))
	for i, v := range hull {
		hullPts[i] = pts[v]
		onHull[v] = true
	}
	center := geom.Centroid(hullPts)
	for _, v := range hull {
		cps[v] = geom.MoveToward(pts[v], center, opts.RadioRange)
	}

	order := append([]int(nil), hull...)
	for _, p := range geom.SortedIndices(pts) {
		if onHull[p] {
			continue
		}
		pos, proj := closestEdge(order, cps, pts[p])
		order = append(order, 0)
		copy(order[pos+1:], order[pos:])
		order[pos] = p
		cps[p] = interiorCollectionPoint(pts[p], proj, opts)
	}

	t.Vertices = append(order, order[0])
	t.CollectionPoints = cps
	t.computeLength()
	return t, nil
}

// closestEdge scans the edges of the cyclic order and returns the insertion
// position that splits the edge closest to p, along with the closest point on
// that edge. The first edge wins ties.
func closestEdge(order []int, cps []geom.Point, p geom.Point) (int, geom.Point) {
	bestPos := 0
	bestDist := math.Inf(1)
	var bestProj geom.Point
	tail := len(order) - 1
	for head := range order {
		dist, proj := geom.ClosestPointOnSegment(cps[order[tail]], cps[order[head]], p)
		if dist < bestDist {
			bestDist = dist
			bestPos = head
			bestProj = proj
		}
		tail = head
	}
	return bestPos, bestProj
}

func interiorCollectionPoint(p, proj geom.Point, opts Options) geom.Point {
	radius := geom.Distance(p, proj)
	switch opts.Scaling {
	case ScaleAlways:
		if radius == 0 {
			return p
		}
		dx, dy := (proj.X-p.X)/radius, (proj.Y-p.Y)/radius
		return geom.Pt(p.X+dx*opts.RadioRange, p.Y+dy*opts.RadioRange)
	default:
		return geom.MoveToward(p, proj, opts.RadioRange)
	}
}
