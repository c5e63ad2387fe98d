package sim

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sims/mdcsim/sim/geom"
	"github.com/wsn-sims/mdcsim/sim/tour"
)

// Role distinguishes the handful of behaviours a cluster can have.
type Role int

const (
	// RoleRegular is a cluster served by its own collector and anchored on
	// the hub.
	RoleRegular Role = iota
	// RoleHub aggregates inter-cluster traffic and holds the anchors.
	RoleHub
	// RoleVirtual is a planning-only grouping produced by virtual merging.
	RoleVirtual
	// RoleVirtualHub is the planning-only hub used while merging.
	RoleVirtualHub
)

func (r Role) String() string {
	switch r {
	case RoleRegular:
		return "regular"
	case RoleHub:
		return "hub"
	case RoleVirtual:
		return "virtual"
	case RoleVirtualHub:
		return "virtual-hub"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// IsVirtual reports whether clusters of this role only exist for planning.
// Virtual roles stamp Node.VirtualClusterID instead of Node.ClusterID.
func (r Role) IsVirtual() bool {
	return r == RoleVirtual || r == RoleVirtualHub
}

// Cluster is a duplicate-free ordered set of nodes served by one collector,
// plus an optional anchor node linking it to the hub. Location and tour are
// derived lazily and invalidated by every mutation.
type Cluster struct {
	id       int
	role     Role
	nodes    []*Node
	anchor   *Node
	recent   *Node
	complete bool
	opts     tour.Options
	ids      *IDAllocator

	location      geom.Point
	locationValid bool
	tour          *tour.Tour
	tourNodes     []*Node
	tourValid     bool
}

func newCluster(id int, role Role, opts tour.Options, ids *IDAllocator) *Cluster {
	return &Cluster{id: id, role: role, opts: opts, ids: ids}
}

func (c *Cluster) String() string {
	return fmt.Sprintf("%s cluster %d", c.role, c.id)
}

// ID returns the cluster's current id.
func (c *Cluster) ID() int { return c.id }

// Role returns the cluster's role tag.
func (c *Cluster) Role() Role { return c.role }

// Nodes returns the member nodes in insertion order. The slice must not be
// modified.
func (c *Cluster) Nodes() []*Node { return c.nodes }

// Len returns the number of member nodes.
func (c *Cluster) Len() int { return len(c.nodes) }

// Anchor returns the relay node linking this cluster to the hub, or nil.
func (c *Cluster) Anchor() *Node { return c.anchor }

// Recent returns the most recently added node that is still a member.
func (c *Cluster) Recent() *Node { return c.recent }

// Completed reports whether greedy expansion has finished with this cluster.
func (c *Cluster) Completed() bool { return c.complete }

// MarkCompleted flags the cluster as finished for greedy expansion.
func (c *Cluster) MarkCompleted() { c.complete = true }

func (c *Cluster) invalidate() {
	c.locationValid = false
	c.tourValid = false
	c.tour = nil
	c.tourNodes = nil
}

func (c *Cluster) stamp(n *Node, id int) {
	if c.role.IsVirtual() {
		n.VirtualClusterID = id
	} else {
		n.ClusterID = id
	}
}

// SetID relabels the cluster and re-stamps every member.
func (c *Cluster) SetID(id int) {
	c.id = id
	for _, n := range c.nodes {
		c.stamp(n, id)
	}
}

// SetAnchor replaces the anchor node.
func (c *Cluster) SetAnchor(n *Node) {
	if c.anchor == n {
		return
	}
	logrus.Debugf("setting %s anchor to %v", c, n)
	c.anchor = n
	c.invalidate()
}

// Contains reports whether n is a member.
func (c *Cluster) Contains(n *Node) bool {
	return slices.Contains(c.nodes, n)
}

// Add appends n if it is not already a member and stamps its ownership.
// Re-adding a member only re-stamps it.
func (c *Cluster) Add(n *Node) {
	if c.Contains(n) {
		logrus.Debugf("re-added %v to %s", n, c)
	} else {
		logrus.Debugf("adding %v to %s", n, c)
		c.nodes = append(c.nodes, n)
	}
	c.stamp(n, c.id)
	c.recent = n
	c.invalidate()
}

// IndexOf returns n's position among the members, or -1.
func (c *Cluster) IndexOf(n *Node) int {
	return slices.Index(c.nodes, n)
}

// Insert places n at position i (clamped to the member range) and stamps
// its ownership. A node that is already a member is only re-stamped.
func (c *Cluster) Insert(i int, n *Node) {
	if !c.Contains(n) {
		i = max(0, min(i, len(c.nodes)))
		c.nodes = slices.Insert(c.nodes, i, n)
	}
	c.stamp(n, c.id)
	c.invalidate()
}

// Remove drops n from the cluster and clears its ownership.
func (c *Cluster) Remove(n *Node) error {
	idx := slices.Index(c.nodes, n)
	if idx < 0 {
		return fmt.Errorf("%w: %v is not a member of %s", ErrCluster, n, c)
	}
	logrus.Debugf("removing %v from %s", n, c)
	c.nodes = slices.Delete(c.nodes, idx, idx+1)
	c.stamp(n, Unassigned)
	if c.recent == n {
		c.recent = nil
	}
	c.invalidate()
	return nil
}

// pathNodes is the point set the collector visits: members plus anchor.
func (c *Cluster) pathNodes() []*Node {
	nodes := make([]*Node, 0, len(c.nodes)+1)
	nodes = append(nodes, c.nodes...)
	if c.anchor != nil && !slices.Contains(c.nodes, c.anchor) {
		nodes = append(nodes, c.anchor)
	}
	return nodes
}

// Location returns the centroid of the members and the anchor.
func (c *Cluster) Location() geom.Point {
	if !c.locationValid {
		c.location = geom.Centroid(Locations(c.pathNodes()))
		c.locationValid = true
	}
	return c.location
}

// Tour returns the collection tour over the members and the anchor.
// Node locations are validated on construction, so a tour failure here is
// an invariant violation and panics.
func (c *Cluster) Tour() *tour.Tour {
	if !c.tourValid {
		nodes := c.pathNodes()
		t, err := tour.Compute(Locations(nodes), c.opts)
		if err != nil {
			panic(fmt.Sprintf("%s: %v", c, err))
		}
		c.tour = t
		c.tourNodes = nodes
		c.tourValid = true
	}
	return c.tour
}

// TourNodes returns the nodes backing Tour().Points, index for index.
func (c *Cluster) TourNodes() []*Node {
	c.Tour()
	return c.tourNodes
}

// TourLength returns the length of the collection tour.
func (c *Cluster) TourLength() float64 {
	return c.Tour().Length()
}

// Merge returns a new cluster of the same role holding the order-preserving,
// de-duplicated union of both node sets. Neither input is modified and
// member ownership is not re-stamped.
func (c *Cluster) Merge(other *Cluster) *Cluster {
	merged := newCluster(int(c.ids.Next()), c.role, c.opts, c.ids)
	merged.nodes = make([]*Node, 0, len(c.nodes)+len(other.nodes))
	for _, n := range c.nodes {
		if !slices.Contains(merged.nodes, n) {
			merged.nodes = append(merged.nodes, n)
		}
	}
	for _, n := range other.nodes {
		if !slices.Contains(merged.nodes, n) {
			merged.nodes = append(merged.nodes, n)
		}
	}
	return merged
}

// Partition is a complete assignment of nodes to a hub and regular clusters.
type Partition struct {
	Hub      *Cluster
	Clusters []*Cluster
	// IdleCollector marks assignments where one collector has no dedicated
	// tour; it counts as a zero-energy entry in balance and averages.
	IdleCollector bool
}

// All returns the regular clusters followed by the hub.
func (p Partition) All() []*Cluster {
	all := make([]*Cluster, 0, len(p.Clusters)+1)
	all = append(all, p.Clusters...)
	if p.Hub != nil {
		all = append(all, p.Hub)
	}
	return all
}

// Find returns the cluster with the given id.
func (p Partition) Find(id int) (*Cluster, error) {
	for _, c := range p.All() {
		if c.id == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: cluster %d", ErrLookup, id)
}

// Owner returns the cluster that owns n.
func (p Partition) Owner(n *Node) (*Cluster, error) {
	if n.ClusterID == Unassigned {
		return nil, fmt.Errorf("%w: %v is unassigned", ErrLookup, n)
	}
	return p.Find(n.ClusterID)
}
