package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sims/mdcsim/sim/geom"
	"github.com/wsn-sims/mdcsim/sim/grid"
)

// Scenario is the fixed input of one run: where the segments are, which
// nodes the collectors serve and how much data flows between segments.
type Scenario struct {
	Segments []geom.Point
	Nodes    []*Node
	// Center is the centroid of the segments; the hub starts here.
	Center  geom.Point
	Traffic *TrafficMatrix
}

// NewScenario places Env.SegmentCount segments uniformly on the field using
// the placement RNG and samples their traffic. With Env.UseCells each node
// is a grid cell from the set cover; otherwise every segment is its own node.
func NewScenario(run *RunContext) (*Scenario, error) {
	env := run.Env
	rng := run.RNG.Stream(StreamPlacement)
	segments := make([]geom.Point, env.SegmentCount)
	for i := range segments {
		segments[i] = geom.Pt(rng.Float64()*env.GridWidth, rng.Float64()*env.GridHeight)
	}
	traffic := NewTrafficMatrix(env.SegmentCount,
		NewGaussianSampler(env.TrafficMean, env.TrafficStdDev),
		run.RNG.Stream(StreamTraffic))
	return NewScenarioFromPoints(run, segments, traffic)
}

// NewScenarioFromPoints builds a scenario over fixed segment locations.
// traffic must be sized for len(segments).
func NewScenarioFromPoints(run *RunContext, segments []geom.Point, traffic *TrafficMatrix) (*Scenario, error) {
	if traffic.Size() != len(segments) {
		return nil, fmt.Errorf("traffic matrix has %d segments, want %d", traffic.Size(), len(segments))
	}
	s := &Scenario{
		Segments: append([]geom.Point(nil), segments...),
		Center:   geom.Centroid(segments),
		Traffic:  traffic,
	}

	if run.Env.UseCells {
		g := grid.New(segments, run.Env.GridWidth, run.Env.GridHeight, run.Env.CommsRange)
		cells, err := g.Cover(len(segments))
		if err != nil {
			return nil, fmt.Errorf("covering segments: %w", err)
		}
		for _, cell := range cells {
			n, err := run.NewNode(cell.Location, cell.Segments...)
			if err != nil {
				return nil, err
			}
			s.Nodes = append(s.Nodes, n)
		}
		logrus.Debugf("%d segments served by %d cells", len(segments), len(cells))
		return s, nil
	}

	for i, p := range segments {
		n, err := run.NewNode(p, i)
		if err != nil {
			return nil, err
		}
		s.Nodes = append(s.Nodes, n)
	}
	return s, nil
}

// Unassigned returns the nodes that no real cluster owns, in scenario order.
func (s *Scenario) Unassigned() []*Node {
	var free []*Node
	for _, n := range s.Nodes {
		if n.ClusterID == Unassigned {
			free = append(free, n)
		}
	}
	return free
}
