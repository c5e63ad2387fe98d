package tour

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsn-sims/mdcsim/sim/geom"
	"github.com/wsn-sims/mdcsim/sim/internal/testutil"
)

func mustCompute(t *testing.T, pts []geom.Point, opts Options) *Tour {
	t.Helper()
	tr, err := Compute(pts, opts)
	require.NoError(t, err)
	return tr
}

func randomPoints(seed int64, n int, side float64) []geom.Point {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]geom.Point, n)
	for i := range pts {
		pts[i] = geom.Pt(rng.Float64()*side, rng.Float64()*side)
	}
	return pts
}

// assertPermutation checks that the vertex order visits every index exactly
// once and closes on its start.
func assertPermutation(t *testing.T, tr *Tour) {
	t.Helper()
	n := len(tr.Points)
	if n < 2 {
		assert.Len(t, tr.Vertices, n)
		return
	}
	require.Len(t, tr.Vertices, n+1)
	assert.Equal(t, tr.Vertices[0], tr.Vertices[n])
	seen := make(map[int]bool, n)
	for _, v := range tr.Vertices[:n] {
		assert.False(t, seen[v], "vertex %d visited twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}

func TestCompute_TrivialSizes(t *testing.T) {
	// N=0
	tr := mustCompute(t, nil, Options{RadioRange: 10})
	assert.Empty(t, tr.Vertices)
	assert.Equal(t, 0.0, tr.Length())

	// N=1
	tr = mustCompute(t, []geom.Point{geom.Pt(3, 4)}, Options{RadioRange: 10})
	assert.Equal(t, []int{0}, tr.Vertices)
	assert.Equal(t, geom.Pt(3, 4), tr.CollectionPoints[0])
	assert.Equal(t, 0.0, tr.Length())

	// N=2 is there and back
	tr = mustCompute(t, []geom.Point{geom.Pt(0, 0), geom.Pt(1, 0)}, Options{})
	assert.Equal(t, []int{0, 1, 0}, tr.Vertices)
	assert.Equal(t, 2.0, tr.Length())

	tr = mustCompute(t, []geom.Point{geom.Pt(3, 0), geom.Pt(0, 4)}, Options{})
	assert.Equal(t, []int{0, 1, 0}, tr.Vertices)
	assert.InDelta(t, 10.0, tr.Length(), 1e-12)
}

func TestCompute_UnitSquareFollowsPerimeter(t *testing.T) {
	// GIVEN the corners of a unit square listed in a diagonal-crossing order
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(1, 0), geom.Pt(0, 1)}

	// WHEN a tour is computed with no radio range
	tr := mustCompute(t, pts, Options{RadioRange: 0})

	// THEN the tour is the perimeter
	assert.InDelta(t, 4.0, tr.Length(), 1e-12)
	assertPermutation(t, tr)
}

func TestCompute_InteriorPointSplicedIntoNearestEdge(t *testing.T) {
	// GIVEN a square with one point just inside the bottom edge
	pts := []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0), geom.Pt(10, 10), geom.Pt(0, 10), geom.Pt(5, 1)}

	// WHEN a tour is computed
	tr := mustCompute(t, pts, Options{})

	// THEN the interior point sits between the two bottom corners
	assertPermutation(t, tr)
	pos := -1
	for i, v := range tr.Vertices[:len(pts)] {
		if v == 4 {
			pos = i
		}
	}
	require.NotEqual(t, -1, pos)
	n := len(pts)
	prev := tr.Vertices[(pos-1+n)%n]
	next := tr.Vertices[(pos+1)%n]
	assert.ElementsMatch(t, []int{0, 1}, []int{prev, next})
	assert.InDelta(t, 40-10+2*math.Hypot(5, 1), tr.Length(), 1e-9)
}

func TestCompute_CollectionPointsWithinRadioRange(t *testing.T) {
	for _, scaling := range []Scaling{ScaleClamp, ScaleAlways} {
		for _, radio := range []float64{0, 5, 50, 400} {
			pts := randomPoints(7, 40, 1000)
			tr := mustCompute(t, pts, Options{RadioRange: radio, Scaling: scaling})
			assertPermutation(t, tr)
			for i, p := range pts {
				d := geom.Distance(p, tr.CollectionPoints[i])
				assert.LessOrEqual(t, d, radio+1e-9, "scaling=%s radio=%v point=%d", scaling, radio, i)
				if radio == 0 {
					assert.Equal(t, p, tr.CollectionPoints[i])
				}
			}
		}
	}
}

func TestCompute_LengthIsPermutationInvariant(t *testing.T) {
	pts := randomPoints(11, 25, 500)
	want := mustCompute(t, pts, Options{RadioRange: 20}).Length()

	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 10; trial++ {
		shuffled := append([]geom.Point(nil), pts...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		got := mustCompute(t, shuffled, Options{RadioRange: 20}).Length()
		assert.InDelta(t, want, got, 1e-9, "trial %d", trial)
	}
}

func TestCompute_DegenerateInputsDoNotFail(t *testing.T) {
	tests := []struct {
		name string
		pts  []geom.Point
	}{
		{"collinear", []geom.Point{geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(2, 2), geom.Pt(3, 3)}},
		{"identical", []geom.Point{geom.Pt(5, 5), geom.Pt(5, 5), geom.Pt(5, 5)}},
		{"duplicate pair", []geom.Point{geom.Pt(5, 5), geom.Pt(5, 5)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := mustCompute(t, tt.pts, Options{RadioRange: 1})
			assertPermutation(t, tr)
			assert.False(t, math.IsNaN(tr.Length()))
		})
	}

	// collinear tour walks out and back along the line
	tr := mustCompute(t, tests[0].pts, Options{})
	assert.InDelta(t, 2*math.Hypot(3, 3), tr.Length(), 1e-9)
}

func TestCompute_RejectsNonFinite(t *testing.T) {
	_, err := Compute([]geom.Point{geom.Pt(0, 0), geom.Pt(math.Inf(1), 0), geom.Pt(1, 1)}, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, geom.ErrDegenerate))

	_, err = Compute([]geom.Point{geom.Pt(0, 0)}, Options{RadioRange: -1})
	assert.True(t, errors.Is(err, geom.ErrDegenerate))
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	pts := randomPoints(5, 10, 100)
	orig := append([]geom.Point(nil), pts...)
	mustCompute(t, pts, Options{RadioRange: 10})
	assert.Equal(t, orig, pts)
}

func TestIsValidScaling(t *testing.T) {
	assert.True(t, IsValidScaling("clamp"))
	assert.True(t, IsValidScaling("always"))
	assert.True(t, IsValidScaling(""))
	assert.False(t, IsValidScaling("sometimes"))
}

func TestCompute_ReferenceLayouts(t *testing.T) {
	set := testutil.LoadLayouts(t)
	require.NotEmpty(t, set.Layouts)
	for _, l := range set.Layouts {
		t.Run(l.Name, func(t *testing.T) {
			tr := mustCompute(t, l.Points(), Options{})
			assertPermutation(t, tr)
			testutil.AssertFloat64Equal(t, "tour_length", l.TourLength, tr.Length(), 1e-9)
		})
	}
}

func TestCompute_GridLayoutKeepsCornersOnHull(t *testing.T) {
	// GIVEN a 3×3 grid, where edge midpoints are collinear with the corners
	pts := testutil.GridPoints(3, 3, 10)

	// WHEN the tour is built with no radio range
	tr := mustCompute(t, pts, Options{})

	// THEN only the four corners are hull vertices
	assert.ElementsMatch(t, []int{0, 2, 6, 8}, tr.Hull)
	assertPermutation(t, tr)

	// AND the tour is at least the hull perimeter
	assert.GreaterOrEqual(t, tr.Length(), 80.0-1e-9)
	for i, p := range pts {
		assert.Equal(t, p, tr.CollectionPoints[i])
	}
}
