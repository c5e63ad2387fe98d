// Package testutil provides shared test infrastructure for the mdcsim
// packages: reference point layouts with known tour lengths and float
// assertion helpers.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/wsn-sims/mdcsim/sim/geom"
)

// LayoutSet represents the structure of testdata/layouts.json.
type LayoutSet struct {
	Layouts []Layout `json:"layouts"`
}

// Layout is a named point set with its expected tour length at radio range 0.
type Layout struct {
	Name       string       `json:"name"`
	Coords     [][2]float64 `json:"points"`
	TourLength float64      `json:"tour_length"`
}

// Points converts the layout coordinates to geometry points.
func (l Layout) Points() []geom.Point {
	pts := make([]geom.Point, len(l.Coords))
	for i, c := range l.Coords {
		pts[i] = geom.Pt(c[0], c[1])
	}
	return pts
}

// LoadLayouts loads the reference layouts from the testdata directory next to
// this source file.
func LoadLayouts(t *testing.T) *LayoutSet {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "testdata", "layouts.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read layouts: %v", err)
	}

	var set LayoutSet
	if err := json.Unmarshal(data, &set); err != nil {
		t.Fatalf("Failed to parse layouts: %v", err)
	}
	return &set
}

// GridPoints returns rows×cols points spaced step apart starting at the
// origin, in row-major order.
func GridPoints(rows, cols int, step float64) []geom.Point {
	pts := make([]geom.Point, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			pts = append(pts, geom.Pt(float64(c)*step, float64(r)*step))
		}
	}
	return pts
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
