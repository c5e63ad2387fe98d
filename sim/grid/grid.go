// Package grid lays a square cell grid over the field and picks a small set
// of cells whose radio footprints cover every segment.
//
// Cells have side comms_range/sqrt(2), so a collector parked at a cell
// centre reaches the whole cell. Cell mode lets a single stop serve several
// nearby segments.
package grid

import (
	"math"

	"github.com/wsn-sims/mdcsim/sim/geom"
)

// Cell is one grid square.
type Cell struct {
	ID       int
	Row, Col int
	Location geom.Point
	// Segments within radio range of the cell centre.
	Segments []int
	// Neighbors are the up to eight adjacent cells.
	Neighbors []*Cell
	// SingleHopCount is the number of segments reachable from neighbouring
	// cells but not from this one.
	SingleHopCount int
	// Proximity is the cell distance to the centre cell of the field.
	Proximity int
}

// Grid is the full cell layout.
type Grid struct {
	Rows, Cols int
	Side       float64
	cells      [][]*Cell
}

// SideLength returns the cell side for a radio range.
func SideLength(commsRange float64) float64 {
	return commsRange / math.Sqrt2
}

// New lays out a grid over width×height and records which segments each
// cell reaches. commsRange must be positive.
func New(segments []geom.Point, width, height, commsRange float64) *Grid {
	side := SideLength(commsRange)
	g := &Grid{
		Rows: int(math.Ceil(height / side)),
		Cols: int(math.Ceil(width / side)),
		Side: side,
	}

	id := 0
	g.cells = make([][]*Cell, g.Rows)
	for r := 0; r < g.Rows; r++ {
		g.cells[r] = make([]*Cell, g.Cols)
		for c := 0; c < g.Cols; c++ {
			g.cells[r][c] = &Cell{
				ID:       id,
				Row:      r,
				Col:      c,
				Location: geom.Pt(float64(c)*side+side/2, float64(r)*side+side/2),
			}
			id++
		}
	}

	for _, cell := range g.Cells() {
		cell.Neighbors = g.Neighbors(cell, 1)
		for i, seg := range segments {
			if geom.Distance(cell.Location, seg) < commsRange {
				cell.Segments = append(cell.Segments, i)
			}
		}
	}
	return g
}

// Cells returns every cell in row-major order.
func (g *Grid) Cells() []*Cell {
	all := make([]*Cell, 0, g.Rows*g.Cols)
	for _, row := range g.cells {
		all = append(all, row...)
	}
	return all
}

// Cell returns the cell at (row, col), or nil when off the grid.
func (g *Grid) Cell(row, col int) *Cell {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return nil
	}
	return g.cells[row][col]
}

// Neighbors returns the cells within Chebyshev distance radius of cell,
// excluding cell itself.
func (g *Grid) Neighbors(cell *Cell, radius int) []*Cell {
	var nbrs []*Cell
	for r := cell.Row - radius; r <= cell.Row+radius; r++ {
		for c := cell.Col - radius; c <= cell.Col+radius; c++ {
			if r == cell.Row && c == cell.Col {
				continue
			}
			if n := g.Cell(r, c); n != nil {
				nbrs = append(nbrs, n)
			}
		}
	}
	return nbrs
}

// Closest returns the cell whose centre is nearest to p.
func (g *Grid) Closest(p geom.Point) *Cell {
	var best *Cell
	bestDist := math.Inf(1)
	for _, cell := range g.Cells() {
		if d := geom.Distance(cell.Location, p); d < bestDist {
			best, bestDist = cell, d
		}
	}
	return best
}

// CellDistance is the Chebyshev distance between two cells.
func CellDistance(a, b *Cell) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return max(dr, dc)
}
