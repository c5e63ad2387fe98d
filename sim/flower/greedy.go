package flower

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/trace"
)

// greedyExpansion regrows one regular cluster per virtual cluster, each
// seeded with its node nearest the hub, by repeatedly extending whichever
// unfinished cluster currently needs the least energy. It ends once every
// cluster is completed, which cannot happen while nodes remain unassigned
// because the hub always accepts another node. Anchors are refreshed on
// the way out so rebalancing starts from the final membership.
func (o *Optimizer) greedyExpansion() {
	o.clusters = make([]*sim.Cluster, 0, len(o.virtual))
	for _, vc := range o.virtual {
		c := o.run.NewCluster(sim.RoleRegular)
		c.SetID(vc.ID())
		seed, _ := sim.ClosestPair(vc.Nodes(), o.hub.Nodes())
		c.Add(seed)
		o.clusters = append(o.clusters, c)
	}
	o.updateAnchors(o.clusters)

	for round := 2; o.incomplete(); round++ {
		least := o.leastEnergyIncomplete()
		energy := o.totalEnergy(least)

		free := o.scenario.Unassigned()
		if len(free) == 0 {
			least.MarkCompleted()
			o.recordExpansion(round, least, nil, energy, "all nodes assigned")
			continue
		}

		if least == o.hub {
			added := o.growHub(free)
			o.updateAnchors(o.clusters)
			o.recordExpansion(round, least, added, energy, "hub")
			continue
		}

		next, reason := o.nextForRegular(least)
		if next == nil {
			least.MarkCompleted()
			o.recordExpansion(round, least, nil, energy, reason)
			continue
		}
		least.Add(next)
		o.recordExpansion(round, least, next, energy, reason)
	}
	o.updateAnchors(o.clusters)
}

func (o *Optimizer) incomplete() bool {
	if !o.hub.Completed() {
		return true
	}
	return slices.ContainsFunc(o.clusters, func(c *sim.Cluster) bool { return !c.Completed() })
}

// leastEnergyIncomplete picks the unfinished cluster (hub last) with the
// lowest total energy. The first cluster found wins ties.
func (o *Optimizer) leastEnergyIncomplete() *sim.Cluster {
	var least *sim.Cluster
	lowest := 0.0
	for _, c := range o.partition().All() {
		if c.Completed() {
			continue
		}
		if e := o.totalEnergy(c); least == nil || e < lowest {
			least, lowest = c, e
		}
	}
	return least
}

// growHub moves the hub off its virtual seed on first activation, placing
// it on the free node nearest the field centre. Later activations add the
// free node nearest the hub's most recent member.
func (o *Optimizer) growHub(free []*sim.Node) *sim.Node {
	if o.hub.Len() == 1 && o.hub.Contains(o.center) {
		best := sim.ClosestTo(free, o.center.Location)
		if err := o.hub.Remove(o.center); err != nil {
			panic(err)
		}
		o.hub.Add(best)
		logrus.Debugf("moved %s to %v", o.hub, best)
		return best
	}

	from := o.center.Location
	if recent := o.hub.Recent(); recent != nil {
		from = recent.Location
	}
	best := sim.ClosestTo(free, from)
	o.hub.Add(best)
	return best
}

// nextForRegular finds the next node for regular cluster c: the free node
// of its own virtual cluster nearest its most recent member, or else the
// nearest node of a polar-adjacent virtual cluster when that node is still
// free. A nil node means c is done.
func (o *Optimizer) nextForRegular(c *sim.Cluster) (*sim.Node, string) {
	vc := o.virtual[c.ID()]
	from := c.Recent().Location

	var own []*sim.Node
	for _, n := range vc.Nodes() {
		if n.ClusterID == sim.Unassigned {
			own = append(own, n)
		}
	}
	if len(own) > 0 {
		return sim.ClosestTo(own, from), "own virtual cluster"
	}

	var border []*sim.Node
	for _, nbr := range o.adjacentVirtual(c.ID()) {
		border = append(border, nbr.Nodes()...)
	}
	nearest := sim.ClosestTo(border, from)
	switch {
	case nearest == nil:
		return nil, "no adjacent virtual cluster"
	case nearest.ClusterID != sim.Unassigned:
		return nil, "bordered by another cluster"
	default:
		return nearest, "adjacent virtual cluster"
	}
}

// adjacentVirtual returns the virtual clusters whose ids are polar
// neighbours of id, wrapping around.
func (o *Optimizer) adjacentVirtual(id int) []*sim.Cluster {
	var nbrs []*sim.Cluster
	for _, vc := range o.virtual {
		if polarNeighbors(vc.ID(), id, len(o.virtual)) {
			nbrs = append(nbrs, vc)
		}
	}
	return nbrs
}

// polarNeighbors reports whether ids a and b are adjacent in a ring of k.
func polarNeighbors(a, b, k int) bool {
	if a == b {
		return false
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return d == 1 || d == k-1
}

func (o *Optimizer) recordExpansion(round int, c *sim.Cluster, n *sim.Node, energy float64, reason string) {
	id := int64(-1)
	if n != nil {
		id = n.ID
		logrus.Debugf("expansion round %d: added %v to %s (%s)", round, n, c, reason)
	} else {
		logrus.Debugf("expansion round %d: %s completed (%s)", round, c, reason)
	}
	if o.trace != nil {
		o.trace.RecordExpansion(trace.ExpansionRecord{
			Round:     round,
			ClusterID: c.ID(),
			NodeID:    id,
			Energy:    energy,
			Completed: n == nil,
			Reason:    reason,
		})
	}
}
