package flower

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/trace"
)

// move is one single-node transfer between two clusters.
type move struct {
	node     *sim.Node
	from, to *sim.Cluster
	// index is the node's position in from before apply.
	index int
}

func (m *move) apply() error {
	m.index = m.from.IndexOf(m.node)
	if err := m.from.Remove(m.node); err != nil {
		return err
	}
	m.to.Add(m.node)
	return nil
}

// revert puts the node back at its old position in from.
func (m *move) revert() error {
	if err := m.to.Remove(m.node); err != nil {
		return err
	}
	m.from.Insert(m.index, m.node)
	return nil
}

// anchorSet is a snapshot of cluster anchors.
type anchorSet map[*sim.Cluster]*sim.Node

func snapshotAnchors(clusters []*sim.Cluster) anchorSet {
	s := make(anchorSet, len(clusters))
	for _, c := range clusters {
		s[c] = c.Anchor()
	}
	return s
}

func (s anchorSet) restore() {
	for c, a := range s {
		c.SetAnchor(a)
	}
}

// rebalance hill-climbs on the energy balance by moving one node per round
// between the hub and the least or most loaded cluster. A round that does
// not strictly reduce the balance is reverted and ends the phase. It returns
// the number of accepted moves.
func (o *Optimizer) rebalance() (int, error) {
	return o.hillClimb("rebalance", o.rebalanceMove)
}

// rebalanceMove picks the next rebalance move, or reports false when no
// legal move exists.
func (o *Optimizer) rebalanceMove() (move, bool) {
	least, most := o.extremes(o.partition().All())
	switch {
	case least == most:
		return move{}, false
	case least == o.hub:
		// pull most's node nearest its anchor into the hub
		if most.Len() <= 1 || most.Anchor() == nil {
			return move{}, false
		}
		n := sim.ClosestTo(most.Nodes(), most.Anchor().Location)
		return move{node: n, from: most, to: o.hub}, true
	case most == o.hub:
		// hand least's anchor over to least
		anchor := least.Anchor()
		if o.hub.Len() <= 1 || anchor == nil || !o.hub.Contains(anchor) {
			return move{}, false
		}
		return move{node: anchor, from: o.hub, to: least}, true
	default:
		// shrink the most loaded cluster into the hub
		if most.Len() <= 1 || most.Anchor() == nil {
			return move{}, false
		}
		n := sim.ClosestTo(most.Nodes(), most.Anchor().Location)
		return move{node: n, from: most, to: o.hub}, true
	}
}

// localSwap moves the node of the most loaded regular cluster nearest to its
// cheaper polar neighbour into that neighbour, one node per round, under the
// same acceptance rule as rebalance.
func (o *Optimizer) localSwap() (int, error) {
	return o.hillClimb("local-swap", o.localSwapMove)
}

func (o *Optimizer) localSwapMove() (move, bool) {
	_, most := o.extremes(o.clusters)
	if most == nil || most.Len() <= 1 {
		return move{}, false
	}

	var neighbor *sim.Cluster
	lowest := 0.0
	for _, c := range o.clusters {
		if !polarNeighbors(c.ID(), most.ID(), len(o.clusters)) {
			continue
		}
		if e := o.totalEnergy(c); neighbor == nil || e < lowest {
			neighbor, lowest = c, e
		}
	}
	if neighbor == nil {
		return move{}, false
	}
	n, _ := sim.ClosestPair(most.Nodes(), neighbor.Nodes())
	return move{node: n, from: most, to: neighbor}, true
}

// hillClimb applies next() until a move fails to strictly improve the
// balance or no move is possible. A rejected move is undone together with
// the anchors it changed, so the balance ends where it started or lower. A move that still improves after
// max_rebalance_rounds accepted moves is a divergence.
func (o *Optimizer) hillClimb(phase string, next func() (move, bool)) (int, error) {
	limit := o.env.MaxRebalanceRounds
	for round := 1; ; round++ {
		before := o.balance()
		m, ok := next()
		if !ok {
			logrus.Debugf("%s round %d: no legal move", phase, round)
			return round - 1, nil
		}
		anchors := snapshotAnchors(o.clusters)
		if err := m.apply(); err != nil {
			return round - 1, err
		}
		o.updateAnchors(o.clusters)
		after := o.balance()
		accepted := after < before
		o.recordMove(phase, round, m, before, after, accepted)

		if !accepted || round > limit {
			if err := m.revert(); err != nil {
				return round - 1, err
			}
			anchors.restore()
			if accepted {
				return limit, fmt.Errorf("%w: %s still improving after %d rounds", ErrDivergence, phase, limit)
			}
			return round - 1, nil
		}
	}
}

// extremes returns the lowest and highest energy clusters. The first
// cluster found wins ties.
func (o *Optimizer) extremes(clusters []*sim.Cluster) (least, most *sim.Cluster) {
	lo, hi := 0.0, 0.0
	for _, c := range clusters {
		e := o.totalEnergy(c)
		if least == nil || e < lo {
			least, lo = c, e
		}
		if most == nil || e > hi {
			most, hi = c, e
		}
	}
	return least, most
}

func (o *Optimizer) recordMove(phase string, round int, m move, before, after float64, accepted bool) {
	logrus.Debugf("%s round %d: %v %s → %s, balance %.4f → %.4f, accepted=%v",
		phase, round, m.node, m.from, m.to, before, after, accepted)
	if o.trace != nil {
		o.trace.RecordMove(trace.MoveRecord{
			Round:         round,
			Phase:         phase,
			NodeID:        m.node.ID,
			FromCluster:   m.from.ID(),
			ToCluster:     m.to.ID(),
			BalanceBefore: before,
			BalanceAfter:  after,
			Accepted:      accepted,
		})
	}
}
