// Package movement answers how far a collector-relayed message travels
// between two nodes. The graph has one vertex per node on any cluster tour
// and one edge per consecutive collection-point hop of each tour; anchors
// appear on both their cluster's tour and the hub's, which joins the tours.
package movement

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/geom"
)

// ErrUnreachable is returned for node pairs with no connecting path.
var ErrUnreachable = fmt.Errorf("unreachable node pair: %w", sim.ErrNumeric)

// Model holds the tour graph of a partition and its all-pairs shortest
// paths.
type Model struct {
	g     *simple.WeightedDirectedGraph
	paths path.AllShortest
	nodes map[int64]*sim.Node
}

// New builds the tour graph of p and solves all-pairs shortest paths.
func New(p sim.Partition) (*Model, error) {
	if p.Hub == nil {
		return nil, fmt.Errorf("%w: partition has no hub", sim.ErrCluster)
	}

	m := &Model{
		g:     simple.NewWeightedDirectedGraph(0, math.Inf(1)),
		nodes: make(map[int64]*sim.Node),
	}
	for _, c := range p.All() {
		m.addTour(c)
	}
	m.paths = path.DijkstraAllPaths(m.g)
	logrus.Debugf("movement graph: %d nodes, %d edges", m.g.Nodes().Len(), m.g.Edges().Len())
	return m, nil
}

// addTour adds c's tour nodes and hop edges. A hop seen on several tours
// keeps its shortest weight.
func (m *Model) addTour(c *sim.Cluster) {
	t := c.Tour()
	nodes := c.TourNodes()
	for _, n := range nodes {
		if _, ok := m.nodes[n.ID]; !ok {
			m.nodes[n.ID] = n
			m.g.AddNode(simple.Node(n.ID))
		}
	}
	t.Edges(func(from, to int) {
		u, v := nodes[from], nodes[to]
		if u == v {
			return
		}
		w := geom.Distance(t.CollectionPoints[from], t.CollectionPoints[to])
		if existing, ok := m.g.Weight(u.ID, v.ID); ok && existing <= w {
			return
		}
		m.g.SetWeightedEdge(m.g.NewWeightedEdge(simple.Node(u.ID), simple.Node(v.ID), w))
	})
}

// Len returns the number of graph vertices.
func (m *Model) Len() int { return len(m.nodes) }

// Contains reports whether n is on some tour.
func (m *Model) Contains(n *sim.Node) bool {
	_, ok := m.nodes[n.ID]
	return ok
}

func (m *Model) check(ns ...*sim.Node) error {
	for _, n := range ns {
		if !m.Contains(n) {
			return fmt.Errorf("%w: %v is not on any tour", sim.ErrLookup, n)
		}
	}
	return nil
}

// ShortestDistance returns the shortest travel distance from one node to
// another.
func (m *Model) ShortestDistance(from, to *sim.Node) (float64, error) {
	if err := m.check(from, to); err != nil {
		return 0, err
	}
	d := m.paths.Weight(from.ID, to.ID)
	if math.IsInf(d, 1) {
		return d, fmt.Errorf("%w: %v → %v", ErrUnreachable, from, to)
	}
	return d, nil
}

// ShortestPath returns the nodes on one shortest route, both ends included,
// and its length.
func (m *Model) ShortestPath(from, to *sim.Node) ([]*sim.Node, float64, error) {
	if err := m.check(from, to); err != nil {
		return nil, 0, err
	}
	route, d, _ := m.paths.Between(from.ID, to.ID)
	if math.IsInf(d, 1) || route == nil {
		return nil, math.Inf(1), fmt.Errorf("%w: %v → %v", ErrUnreachable, from, to)
	}
	return m.resolve(route), d, nil
}

// DistancesFrom runs a single-source search and returns the distance to
// every reachable node, keyed by node id.
func (m *Model) DistancesFrom(from *sim.Node) (map[int64]float64, error) {
	if err := m.check(from); err != nil {
		return nil, err
	}
	tree := path.DijkstraFrom(simple.Node(from.ID), m.g)
	dist := make(map[int64]float64, len(m.nodes))
	for id := range m.nodes {
		if d := tree.WeightTo(id); !math.IsInf(d, 1) {
			dist[id] = d
		}
	}
	return dist, nil
}

func (m *Model) resolve(route []graph.Node) []*sim.Node {
	out := make([]*sim.Node, len(route))
	for i, gn := range route {
		out[i] = m.nodes[gn.ID()]
	}
	return out
}
