package geom

import (
	"fmt"
	"sort"
)

// SortedIndices returns the indices of pts ordered by (X, Y). Ties keep
// input order, so duplicates stay stable.
func SortedIndices(pts []Point) []int {
	idx := make([]int, len(pts))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := pts[idx[a]], pts[idx[b]]
		if pa.X != pb.X {
			return pa.X < pb.X
		}
		return pa.Y < pb.Y
	})
	return idx
}

// cross is the z component of (a-o) x (b-o).
func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull returns the indices of the hull vertices of pts in
// counter-clockwise order, starting from the lowest (X, Y) point.
//
// Collinear points on a hull edge are not hull vertices. Fully collinear
// input yields its two extreme points; all-identical input yields a single
// vertex. Only non-finite coordinates are rejected.
func ConvexHull(pts []Point) ([]int, error) {
	for i, p := range pts {
		if !Finite(p) {
			return nil, fmt.Errorf("%w: point %d is %v", ErrDegenerate, i, p)
		}
	}
	if len(pts) == 0 {
		return nil, nil
	}

	order := SortedIndices(pts)

	// drop exact duplicates so the chain never sees zero-length edges
	uniq := order[:0:0]
	for _, i := range order {
		if len(uniq) > 0 && pts[uniq[len(uniq)-1]] == pts[i] {
			continue
		}
		uniq = append(uniq, i)
	}
	if len(uniq) < 3 {
		return uniq, nil
	}

	hull := make([]int, 0, 2*len(uniq))
	// lower chain
	for _, i := range uniq {
		for len(hull) >= 2 && cross(pts[hull[len(hull)-2]], pts[hull[len(hull)-1]], pts[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	// upper chain
	lower := len(hull) + 1
	for k := len(uniq) - 2; k >= 0; k-- {
		i := uniq[k]
		for len(hull) >= lower && cross(pts[hull[len(hull)-2]], pts[hull[len(hull)-1]], pts[i]) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, i)
	}
	// last point repeats the first
	hull = hull[:len(hull)-1]
	return hull, nil
}

// InConvexPolygon reports whether p lies strictly inside the convex polygon
// with counter-clockwise vertices poly. Fewer than three vertices enclose
// nothing.
func InConvexPolygon(poly []Point, p Point) bool {
	if len(poly) < 3 {
		return false
	}
	for i := range poly {
		if cross(poly[i], poly[(i+1)%len(poly)], p) <= 0 {
			return false
		}
	}
	return true
}
