// Package render draws a finished partition: segments, collector nodes and
// every cluster tour, with the hub tour highlighted.
package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/geom"
)

var (
	segmentColor = color.RGBA{R: 200, A: 255}
	nodeColor    = color.RGBA{B: 200, A: 255}
	tourColor    = color.RGBA{G: 150, A: 255}
	hubColor     = color.RGBA{R: 220, G: 30, B: 30, A: 255}
)

// Plot builds the plot of s under partition p.
func Plot(s *sim.Scenario, p sim.Partition) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = fmt.Sprintf("%d segments, %d collectors", len(s.Segments), len(p.Clusters)+1)
	pl.X.Label.Text = "x (m)"
	pl.Y.Label.Text = "y (m)"

	if err := addPoints(pl, "segments", s.Segments, draw.CrossGlyph{}, segmentColor); err != nil {
		return nil, err
	}
	if err := addPoints(pl, "nodes", sim.Locations(s.Nodes), draw.RingGlyph{}, nodeColor); err != nil {
		return nil, err
	}

	for _, c := range p.Clusters {
		if _, err := addTour(pl, c, tourColor, 1); err != nil {
			return nil, err
		}
	}
	if p.Hub != nil {
		line, err := addTour(pl, p.Hub, hubColor, 2)
		if err != nil {
			return nil, err
		}
		if line != nil {
			pl.Legend.Add("hub tour", line)
		}
	}
	return pl, nil
}

// Tours renders s under partition p to path. The image format follows the
// file extension (png, svg, pdf, ...).
func Tours(s *sim.Scenario, p sim.Partition, path string) error {
	pl, err := Plot(s, p)
	if err != nil {
		return err
	}
	if err := pl.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

func addPoints(pl *plot.Plot, name string, pts []geom.Point, shape draw.GlyphDrawer, col color.Color) error {
	if len(pts) == 0 {
		return nil
	}
	sc, err := plotter.NewScatter(xys(pts))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	sc.GlyphStyle.Shape = shape
	sc.GlyphStyle.Color = col
	pl.Add(sc)
	pl.Legend.Add(name, sc)
	return nil
}

// addTour draws c's closed tour over its collection points. Tours with
// fewer than two vertices have nothing to draw and return a nil line.
func addTour(pl *plot.Plot, c *sim.Cluster, col color.Color, width float64) (*plotter.Line, error) {
	t := c.Tour()
	if len(t.Vertices) < 2 {
		return nil, nil
	}
	pts := make([]geom.Point, len(t.Vertices))
	for i, v := range t.Vertices {
		pts[i] = t.CollectionPoints[v]
	}
	line, err := plotter.NewLine(xys(pts))
	if err != nil {
		return nil, fmt.Errorf("%s tour: %w", c, err)
	}
	line.Color = col
	line.Width = vg.Points(width)
	pl.Add(line)
	return line, nil
}

func xys(pts []geom.Point) plotter.XYs {
	out := make(plotter.XYs, len(pts))
	for i, p := range pts {
		out[i] = plotter.XY{X: p.X, Y: p.Y}
	}
	return out
}
