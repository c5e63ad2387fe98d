package grid

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
)

// ErrUncoverable is returned when some segment lies outside the radio range
// of every cell.
var ErrUncoverable = errors.New("segment not reachable from any cell")

// Cover picks cells that together reach all segmentCount segments and
// strips shared segments so each segment belongs to exactly one returned
// cell. Candidate cells reaching the same segment set are filtered to those
// with the most single-hop neighbours, then to those closest to the centre
// cell. The result is sorted by cell id. Cover rewrites the Segments,
// SingleHopCount and Proximity fields of the grid's cells.
func (g *Grid) Cover(segmentCount int) ([]*Cell, error) {
	center := g.Cell(g.Rows/2, g.Cols/2)
	for _, cell := range g.Cells() {
		if center != nil {
			cell.Proximity = CellDistance(cell, center)
		}
		reach := make(map[int]bool)
		for _, nbr := range cell.Neighbors {
			for _, s := range nbr.Segments {
				reach[s] = true
			}
		}
		for _, s := range cell.Segments {
			delete(reach, s)
		}
		cell.SingleHopCount = len(reach)
	}

	families := g.families()

	uncovered := make(map[int]bool, segmentCount)
	for i := 0; i < segmentCount; i++ {
		uncovered[i] = true
	}

	var cover []*Cell
	for len(uncovered) > 0 {
		var selected *Cell
		best := 0
		for _, cell := range families {
			gain := 0
			for _, s := range cell.Segments {
				if uncovered[s] {
					gain++
				}
			}
			if gain > best {
				selected, best = cell, gain
			}
		}
		if selected == nil {
			return nil, fmt.Errorf("%w: %d segments left", ErrUncoverable, len(uncovered))
		}
		for _, s := range selected.Segments {
			delete(uncovered, s)
		}
		cover = append(cover, selected)
	}
	logrus.Debugf("grid cover uses %d of %d cells", len(cover), g.Rows*g.Cols)

	// Larger cells keep shared segments.
	slices.SortStableFunc(cover, func(a, b *Cell) int {
		return len(b.Segments) - len(a.Segments)
	})
	claimed := make(map[int]bool, segmentCount)
	for _, cell := range cover {
		kept := cell.Segments[:0]
		for _, s := range cell.Segments {
			if !claimed[s] {
				claimed[s] = true
				kept = append(kept, s)
			}
		}
		cell.Segments = kept
	}

	slices.SortFunc(cover, func(a, b *Cell) int { return a.ID - b.ID })
	return cover, nil
}

// families groups cells with a non-empty footprint by the exact segment set
// they reach and keeps the best candidates of each group.
func (g *Grid) families() []*Cell {
	groups := make(map[string][]*Cell)
	var keys []string
	for _, cell := range g.Cells() {
		if len(cell.Segments) == 0 {
			continue
		}
		key := fmt.Sprint(cell.Segments)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], cell)
	}

	var families []*Cell
	for _, key := range keys {
		cells := groups[key]
		cells = keepBest(cells, func(c *Cell) int { return c.SingleHopCount })
		cells = keepBest(cells, func(c *Cell) int { return -c.Proximity })
		families = append(families, cells...)
	}
	return families
}

// keepBest returns the cells sharing the highest score.
func keepBest(cells []*Cell, score func(*Cell) int) []*Cell {
	if len(cells) <= 1 {
		return cells
	}
	var best []*Cell
	top := 0
	for i, c := range cells {
		s := score(c)
		switch {
		case i == 0 || s > top:
			top = s
			best = []*Cell{c}
		case s == top:
			best = append(best, c)
		}
	}
	return best
}
