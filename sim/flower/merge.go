package flower

import (
	"math"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/geom"
	"github.com/wsn-sims/mdcsim/sim/trace"
)

// virtualMerge combines virtual clusters until mdc_count-1 remain, then
// relabels them 0..k-1 in polar order around the field centre so that
// adjacent ids are geometric neighbours.
func (o *Optimizer) virtualMerge() {
	k := o.env.MDCCount - 1
	for round := 1; len(o.virtual) > k; round++ {
		left, right, cost := o.cheapestMerge()

		merged := left.Merge(right)
		merged.SetID(merged.ID())
		o.virtual = slices.DeleteFunc(o.virtual, func(c *sim.Cluster) bool {
			return c == left || c == right
		})
		o.virtual = append(o.virtual, merged)

		logrus.Debugf("merge round %d: %s + %s → %s (cost %.3f)", round, left, right, merged, cost)
		if o.trace != nil {
			o.trace.RecordMerge(trace.MergeRecord{
				Round:    round,
				Left:     left.ID(),
				Right:    right.ID(),
				Merged:   merged.ID(),
				Cost:     cost,
				Remained: len(o.virtual),
			})
		}
	}

	o.virtual = polarSort(o.virtual, o.center.Location)
	for i, vc := range o.virtual {
		vc.SetID(i)
	}
}

// cheapestMerge returns the pair (a, b), a before b in list order, that
// minimizes tour(a ∪ b ∪ hub) − tour(a ∪ hub). The first pair found wins
// ties.
func (o *Optimizer) cheapestMerge() (*sim.Cluster, *sim.Cluster, float64) {
	var left, right *sim.Cluster
	best := math.Inf(1)
	for i, a := range o.virtual {
		base := a.Merge(o.virtualHub).TourLength()
		for _, b := range o.virtual[i+1:] {
			cost := a.Merge(b).Merge(o.virtualHub).TourLength() - base
			if cost < best {
				left, right, best = a, b, cost
			}
		}
	}
	return left, right, best
}

// polarSort orders clusters by the polar angle of their location around
// origin. Equal angles keep their input order.
func polarSort(clusters []*sim.Cluster, origin geom.Point) []*sim.Cluster {
	sorted := slices.Clone(clusters)
	slices.SortStableFunc(sorted, func(a, b *sim.Cluster) int {
		pa := geom.PolarAngle(a.Location(), origin)
		pb := geom.PolarAngle(b.Location(), origin)
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		default:
			return 0
		}
	})
	return sorted
}
