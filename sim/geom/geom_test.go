package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCentroid(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want Point
	}{
		{"empty", nil, Pt(0, 0)},
		{"single", []Point{Pt(3, 4)}, Pt(3, 4)},
		{"square", []Point{Pt(0, 0), Pt(2, 0), Pt(2, 2), Pt(0, 2)}, Pt(1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Centroid(tt.pts))
		})
	}
}

func TestClosestPointOnSegment(t *testing.T) {
	tests := []struct {
		name     string
		v, w, p  Point
		wantDist float64
		wantProj Point
	}{
		{"perpendicular foot", Pt(0, 0), Pt(10, 0), Pt(5, 3), 3, Pt(5, 0)},
		{"clamped to start", Pt(0, 0), Pt(10, 0), Pt(-4, 3), 5, Pt(0, 0)},
		{"clamped to end", Pt(0, 0), Pt(10, 0), Pt(13, 4), 5, Pt(10, 0)},
		{"zero length segment", Pt(1, 1), Pt(1, 1), Pt(4, 5), 5, Pt(1, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, proj := ClosestPointOnSegment(tt.v, tt.w, tt.p)
			assert.InDelta(t, tt.wantDist, dist, 1e-12)
			assert.InDelta(t, tt.wantProj.X, proj.X, 1e-12)
			assert.InDelta(t, tt.wantProj.Y, proj.Y, 1e-12)
		})
	}
}

func TestMoveToward(t *testing.T) {
	// partial move
	got := MoveToward(Pt(0, 0), Pt(10, 0), 4)
	assert.Equal(t, Pt(4, 0), got)

	// never overshoots the target
	got = MoveToward(Pt(0, 0), Pt(1, 0), 4)
	assert.Equal(t, Pt(1, 0), got)

	// coincident points and zero distance are no-ops
	assert.Equal(t, Pt(2, 2), MoveToward(Pt(2, 2), Pt(2, 2), 3))
	assert.Equal(t, Pt(2, 2), MoveToward(Pt(2, 2), Pt(5, 5), 0))
}

func TestPolarAngle(t *testing.T) {
	assert.InDelta(t, 0, PolarAngle(Pt(2, 1), Pt(1, 1)), 1e-12)
	assert.InDelta(t, math.Pi/2, PolarAngle(Pt(1, 3), Pt(1, 1)), 1e-12)
	assert.InDelta(t, math.Pi, PolarAngle(Pt(0, 1), Pt(1, 1)), 1e-12)
}

func TestConvexHull_Square(t *testing.T) {
	// GIVEN a unit square with an interior point
	pts := []Point{Pt(0.5, 0.5), Pt(1, 1), Pt(0, 0), Pt(1, 0), Pt(0, 1)}

	// WHEN the hull is computed
	hull, err := ConvexHull(pts)
	require.NoError(t, err)

	// THEN the four corners are returned counter-clockwise from the lowest point
	assert.Equal(t, []int{2, 3, 1, 4}, hull)
}

func TestConvexHull_Degenerate(t *testing.T) {
	tests := []struct {
		name    string
		pts     []Point
		wantLen int
	}{
		{"empty", nil, 0},
		{"single", []Point{Pt(1, 1)}, 1},
		{"identical", []Point{Pt(1, 1), Pt(1, 1), Pt(1, 1)}, 1},
		{"collinear", []Point{Pt(0, 0), Pt(2, 2), Pt(1, 1), Pt(3, 3)}, 2},
		{"duplicates on hull", []Point{Pt(0, 0), Pt(0, 0), Pt(4, 0), Pt(0, 4), Pt(4, 0)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hull, err := ConvexHull(tt.pts)
			require.NoError(t, err)
			assert.Len(t, hull, tt.wantLen)
		})
	}
}

func TestConvexHull_NonFiniteRejected(t *testing.T) {
	_, err := ConvexHull([]Point{Pt(0, 0), Pt(math.NaN(), 1), Pt(2, 2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDegenerate))
}

func TestClose(t *testing.T) {
	assert.True(t, Close(Pt(100, 100), Pt(100.0005, 100)))
	assert.False(t, Close(Pt(100, 100), Pt(100.01, 100)))
	assert.True(t, Close(Pt(0, 0), Pt(1e-9, 0)))
}

func TestInConvexPolygon(t *testing.T) {
	square := []Point{Pt(0, 0), Pt(10, 0), Pt(10, 10), Pt(0, 10)}
	tests := []struct {
		name string
		poly []Point
		p    Point
		want bool
	}{
		{"interior", square, Pt(5, 5), true},
		{"outside", square, Pt(11, 5), false},
		{"on an edge", square, Pt(10, 5), false},
		{"segment encloses nothing", square[:2], Pt(5, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InConvexPolygon(tt.poly, tt.p))
		})
	}
}
