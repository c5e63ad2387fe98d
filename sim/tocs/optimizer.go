// Package tocs partitions a scenario with the ToCS heuristic.
//
// Every node starts as its own cluster and the pair whose union adds the
// least tour length is merged until one cluster per regular collector is
// left. Each cluster then gets a rendezvous point halfway between the field
// centre and its tour, and a central collector tours all rendezvous points.
// Finally rendezvous points are pulled toward the centre for clusters whose
// tours are much shorter than the mean, and pushed away for clusters whose
// tours are much longer, trading boundary nodes with the central cluster
// on the way.
package tocs

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/geom"
	"github.com/wsn-sims/mdcsim/sim/tour"
)

const (
	// lengthRatio decides when one tour is much longer than another.
	lengthRatio = 0.5
	// growFactor and shrinkFactor scale a rendezvous point's offset from
	// the centre per step.
	growFactor   = 0.75
	shrinkFactor = 1.25
	// maxSteps bounds the rendezvous moves of one grow or shrink.
	maxSteps = 100
)

// Result is the outcome of a successful Run.
type Result struct {
	Partition sim.Partition
	// Rounds is the number of rendezvous optimization rounds.
	Rounds int
	// BalanceBefore and BalanceAfter bracket rendezvous optimization.
	BalanceBefore float64
	BalanceAfter  float64
}

// Optimizer owns the clusters of one ToCS run while they are being built.
type Optimizer struct {
	run      *sim.RunContext
	env      *sim.Environment
	scenario *sim.Scenario
	energy   *sim.EnergyModel

	// central is the hub: rendezvous points plus any nodes handed to it.
	central  *sim.Cluster
	clusters []*sim.Cluster

	hasRun bool
}

// New prepares an optimizer over the scenario's nodes. The scenario needs a
// node for every regular collector.
func New(run *sim.RunContext, scenario *sim.Scenario) (*Optimizer, error) {
	if len(scenario.Nodes) < run.Env.MDCCount-1 {
		return nil, fmt.Errorf("%w: %d nodes cannot fill %d regular collectors",
			sim.ErrCluster, len(scenario.Nodes), run.Env.MDCCount-1)
	}
	return &Optimizer{
		run:      run,
		env:      run.Env,
		scenario: scenario,
		energy:   sim.NewEnergyModel(run.Env, scenario.Traffic, scenario.Nodes),
		// the central collector drives to every rendezvous point
		central: run.NewClusterWithRange(sim.RoleHub, 0),
	}, nil
}

// Energy returns the energy model used for the balance figures.
func (o *Optimizer) Energy() *sim.EnergyModel { return o.energy }

// Run builds and optimizes the partition.
// Panics if called more than once.
func (o *Optimizer) Run() (Result, error) {
	if o.hasRun {
		panic("Optimizer.Run() called more than once")
	}
	o.hasRun = true

	o.combine()
	for _, c := range o.clusters {
		o.placeRendezvous(c)
	}

	res := Result{BalanceBefore: o.balance()}
	rounds, err := o.optimize()
	if err != nil {
		return Result{}, err
	}
	o.label()
	res.Rounds = rounds
	res.BalanceAfter = o.balance()
	res.Partition = o.partition()
	logrus.Debugf("tocs finished after %d rounds, balance %.3f → %.3f", rounds, res.BalanceBefore, res.BalanceAfter)
	return res, nil
}

func (o *Optimizer) partition() sim.Partition {
	return sim.Partition{Hub: o.central, Clusters: o.clusters}
}

func (o *Optimizer) balance() float64 {
	return sim.Balance(o.energy.Energies(o.partition()))
}

// label numbers the regular clusters 0..k-1 and the central cluster k.
func (o *Optimizer) label() {
	for i, c := range o.clusters {
		c.SetID(i)
	}
	o.central.SetID(len(o.clusters))
}

// center is the centre of the central cluster, or of the field while the
// central cluster is still empty.
func (o *Optimizer) center() geom.Point {
	if o.central.Len() == 0 {
		return o.scenario.Center
	}
	return o.central.Location()
}

// centralNodes returns the real nodes held by the central cluster.
func (o *Optimizer) centralNodes() []*sim.Node {
	var nodes []*sim.Node
	for _, n := range o.central.Nodes() {
		if !n.Virtual {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// combine starts from one cluster per node and merges the cheapest pair
// until mdc_count-1 clusters remain.
func (o *Optimizer) combine() {
	o.clusters = make([]*sim.Cluster, 0, len(o.scenario.Nodes))
	for _, n := range o.scenario.Nodes {
		c := o.run.NewCluster(sim.RoleRegular)
		c.Add(n)
		o.clusters = append(o.clusters, c)
	}
	for len(o.clusters) >= o.env.MDCCount {
		o.clusters = o.combineCheapest(o.clusters)
	}
}

// combineCheapest merges the pair whose union, toured together with the
// central cluster, adds the least length over the first cluster's own tour.
// The first pair found wins ties. The merged cluster goes last.
func (o *Optimizer) combineCheapest(clusters []*sim.Cluster) []*sim.Cluster {
	bi, bj := -1, -1
	best := math.Inf(1)
	for i := range clusters {
		base := clusters[i].Merge(o.central).TourLength()
		for j := i + 1; j < len(clusters); j++ {
			cost := clusters[i].Merge(clusters[j]).Merge(o.central).TourLength() - base
			if cost < best {
				best, bi, bj = cost, i, j
			}
		}
	}

	merged := clusters[bi].Merge(clusters[bj])
	merged.SetID(merged.ID())
	logrus.Debugf("combining %s and %s into %s (cost %.2f m)", clusters[bi], clusters[bj], merged, best)

	next := make([]*sim.Cluster, 0, len(clusters)-1)
	for k, c := range clusters {
		if k != bi && k != bj {
			next = append(next, c)
		}
	}
	return append(next, merged)
}

// placeRendezvous puts c's rendezvous point halfway between the centre and
// the point of c's member tour closest to it.
func (o *Optimizer) placeRendezvous(c *sim.Cluster) {
	center := o.center()
	t, err := tour.Compute(sim.Locations(c.Nodes()), o.env.TourOptions(o.env.CommsRange))
	if err != nil {
		panic(fmt.Sprintf("%s: %v", c, err))
	}

	nearest := t.Points[0]
	best := math.Inf(1)
	t.Edges(func(from, to int) {
		if d, p := geom.ClosestPointOnSegment(t.Points[from], t.Points[to], center); d < best {
			best, nearest = d, p
		}
	})
	o.moveRendezvous(c, scaleFrom(center, nearest, 0.5))
}

// moveRendezvous replaces c's rendezvous point with a new one at loc, both
// as c's anchor and as a member of the central cluster.
func (o *Optimizer) moveRendezvous(c *sim.Cluster, loc geom.Point) {
	if old := c.Anchor(); old != nil {
		if err := o.central.Remove(old); err != nil {
			panic(err)
		}
	}
	rp := o.run.NewVirtualNode(loc)
	c.SetAnchor(rp)
	o.central.Add(rp)
}

func (o *Optimizer) averageTourLength() float64 {
	lengths := make([]float64, 0, len(o.clusters)+1)
	for _, c := range o.partition().All() {
		lengths = append(lengths, c.TourLength())
	}
	return sim.Average(lengths)
}

// unbalanced reports whether some cluster's tour is much longer or much
// shorter than the mean. Clusters whose tour cannot reach the mean even
// with the trip to the centre added are ignored.
func (o *Optimizer) unbalanced() bool {
	avg := o.averageTourLength()
	center := o.center()
	for _, c := range o.clusters {
		length := c.TourLength()
		if length+geom.Distance(c.Anchor().Location, center) < avg {
			continue
		}
		if sim.MuchGreater(avg, length, lengthRatio) || sim.MuchGreater(length, avg, lengthRatio) {
			return true
		}
	}
	return false
}

// optimize runs rounds of rendezvous moves while the tours are unbalanced.
// A round that moves no rendezvous point leaves nothing to improve and ends
// the phase.
func (o *Optimizer) optimize() (int, error) {
	limit := o.env.MaxRebalanceRounds
	rounds := 0
	for o.unbalanced() {
		if rounds == limit {
			return rounds, fmt.Errorf("%w: rendezvous points still moving after %d rounds", sim.ErrDivergence, limit)
		}
		rounds++

		avg := o.averageTourLength()
		moved := false
		for _, c := range o.clusters {
			switch length := c.TourLength(); {
			case sim.MuchGreater(avg, length, lengthRatio):
				moved = o.grow(c, avg) || moved
			case sim.MuchGreater(length, avg, lengthRatio):
				moved = o.shrink(c, avg) || moved
			}
		}
		logrus.Debugf("rendezvous round %d: mean tour %.2f m, moved=%v", rounds, avg, moved)
		if !moved {
			break
		}
	}
	return rounds, nil
}

// grow pulls c's rendezvous point toward the centre until c's tour is no
// longer much shorter than avg, taking over central nodes the point passes.
// It reports whether the point moved.
func (o *Optimizer) grow(c *sim.Cluster, avg float64) bool {
	moved := false
	for step := 0; step < maxSteps && sim.MuchGreater(avg, c.TourLength(), lengthRatio); step++ {
		cur := c.Anchor().Location
		next := scaleFrom(o.center(), cur, growFactor)
		if geom.Close(cur, next) {
			break
		}
		o.moveRendezvous(c, next)
		moved = true
		o.pullFromCentral(c)
	}
	return moved
}

// shrink pushes c's rendezvous point away from the centre until c's tour is
// no longer much longer than avg, handing nodes nearer the centre than the
// point to the central cluster. A step that does not shorten the tour is
// undone and ends the shrink. It reports whether the point moved.
func (o *Optimizer) shrink(c *sim.Cluster, avg float64) bool {
	moved := false
	for step := 0; step < maxSteps && sim.MuchGreater(c.TourLength(), avg, lengthRatio); step++ {
		cur := c.Anchor().Location
		next := scaleFrom(o.center(), cur, shrinkFactor)
		if geom.Close(cur, next) {
			break
		}
		before := c.TourLength()
		o.moveRendezvous(c, next)
		if c.TourLength() >= before {
			o.moveRendezvous(c, cur)
			break
		}
		moved = true
		o.pushToCentral(c)
	}
	return moved
}

// pullFromCentral hands c the central node nearest to c once c's rendezvous
// point lies strictly inside the hull of the central tour.
func (o *Optimizer) pullFromCentral(c *sim.Cluster) {
	free := o.centralNodes()
	if len(free) == 0 {
		return
	}
	t := o.central.Tour()
	hull := make([]geom.Point, len(t.Hull))
	for i, v := range t.Hull {
		hull[i] = t.Points[v]
	}
	if !geom.InConvexPolygon(hull, c.Anchor().Location) {
		return
	}

	n := sim.ClosestTo(free, c.Location())
	if err := o.central.Remove(n); err != nil {
		panic(err)
	}
	c.Add(n)
	logrus.Debugf("pulled %v from the central cluster into %s", n, c)
	o.placeRendezvous(c)
}

// pushToCentral hands c's member nearest the centre to the central cluster
// when that member is no farther from the centre than c's rendezvous point.
// A cluster never gives up its last member.
func (o *Optimizer) pushToCentral(c *sim.Cluster) {
	if c.Len() <= 1 {
		return
	}
	center := o.center()
	n := sim.ClosestTo(c.Nodes(), center)
	if geom.Distance(n.Location, center) > geom.Distance(c.Anchor().Location, center) {
		return
	}
	if err := c.Remove(n); err != nil {
		panic(err)
	}
	o.central.Add(n)
	logrus.Debugf("pushed %v from %s to the central cluster", n, c)
	o.placeRendezvous(c)
}

// scaleFrom returns origin + f·(p - origin).
func scaleFrom(origin, p geom.Point, f float64) geom.Point {
	return r2.Add(origin, r2.Scale(f, r2.Sub(p, origin)))
}
