package sim

import (
	"fmt"

	"github.com/wsn-sims/mdcsim/sim/geom"
)

// Unassigned marks a node that no cluster owns.
const Unassigned = -1

// Node is a fixed location a collector must serve: one segment, or a grid
// cell covering several segments.
type Node struct {
	ID       int64
	Location geom.Point
	// Segments lists the traffic-matrix indices this node collects from.
	Segments []int
	// ClusterID is the owning real cluster (regular or hub), or Unassigned.
	ClusterID int
	// VirtualClusterID is the owning virtual cluster, or Unassigned.
	VirtualClusterID int
	// Virtual nodes are placeholders with no segments (the hub seed).
	Virtual bool
}

func (n *Node) String() string {
	if n.Virtual {
		return fmt.Sprintf("VirtualNode %d", n.ID)
	}
	return fmt.Sprintf("Node %d", n.ID)
}

// Locations returns the locations of nodes in order.
func Locations(nodes []*Node) []geom.Point {
	pts := make([]geom.Point, len(nodes))
	for i, n := range nodes {
		pts[i] = n.Location
	}
	return pts
}

// ClosestPair returns the pair (a from as, b from bs) with the smallest
// distance. The first pair found wins ties. Panics on empty input.
func ClosestPair(as, bs []*Node) (*Node, *Node) {
	if len(as) == 0 || len(bs) == 0 {
		panic("ClosestPair: empty node list")
	}
	var bestA, bestB *Node
	best := -1.0
	for _, a := range as {
		for _, b := range bs {
			d := geom.Distance(a.Location, b.Location)
			if best < 0 || d < best {
				best, bestA, bestB = d, a, b
			}
		}
	}
	return bestA, bestB
}

// ClosestTo returns the node in nodes nearest to p, or nil for an empty list.
func ClosestTo(nodes []*Node, p geom.Point) *Node {
	var best *Node
	bestDist := -1.0
	for _, n := range nodes {
		d := geom.Distance(n.Location, p)
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
