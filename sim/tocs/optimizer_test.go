package tocs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/geom"
	"github.com/wsn-sims/mdcsim/sim/report"
)

// newFixedOptimizer builds an optimizer over fixed points with no traffic
// and a zero radio range, so tours run exactly through the points.
func newFixedOptimizer(t *testing.T, mdcs int, pts ...geom.Point) *Optimizer {
	t.Helper()
	env := sim.DefaultEnvironment()
	env.MDCCount = mdcs
	env.CommsRange = 0
	run := sim.NewRunContext(env, 1)
	s, err := sim.NewScenarioFromPoints(run, pts, sim.NewTrafficMatrixFromVolumes(len(pts), make([]float64, len(pts)*len(pts))))
	require.NoError(t, err)
	o, err := New(run, s)
	require.NoError(t, err)
	return o
}

// assertOwnedOnce checks that every scenario node belongs to exactly one
// cluster of p and that its ClusterID agrees.
func assertOwnedOnce(t *testing.T, o *Optimizer, p sim.Partition) {
	t.Helper()
	owners := make(map[*sim.Node]int)
	for _, c := range p.All() {
		for _, n := range c.Nodes() {
			if n.Virtual {
				continue
			}
			owners[n]++
			assert.Equal(t, c.ID(), n.ClusterID, "%v", n)
		}
	}
	for _, n := range o.scenario.Nodes {
		assert.Equal(t, 1, owners[n], "%v owned %d times", n, owners[n])
	}
}

func TestNew_RejectsTooFewNodes(t *testing.T) {
	env := sim.DefaultEnvironment()
	env.SegmentCount = 3
	env.MDCCount = 9
	run := sim.NewRunContext(env, 1)
	s, err := sim.NewScenario(run)
	require.NoError(t, err)

	_, err = New(run, s)

	assert.True(t, errors.Is(err, sim.ErrCluster))
}

func TestCombineCheapest_MergesClosestPair(t *testing.T) {
	// GIVEN four singleton clusters on a line where only the first two are
	// close together
	o := newFixedOptimizer(t, 3, geom.Pt(0, 0), geom.Pt(1, 0), geom.Pt(100, 0), geom.Pt(250, 0))
	var clusters []*sim.Cluster
	for _, n := range o.scenario.Nodes {
		c := o.run.NewCluster(sim.RoleRegular)
		c.Add(n)
		clusters = append(clusters, c)
	}

	// WHEN the cheapest pair is combined
	got := o.combineCheapest(clusters)

	// THEN the close pair is merged and appended after the untouched clusters
	require.Len(t, got, 3)
	assert.Same(t, clusters[2], got[0])
	assert.Same(t, clusters[3], got[1])
	merged := got[2]
	assert.ElementsMatch(t, o.scenario.Nodes[:2], merged.Nodes())
	for _, n := range merged.Nodes() {
		assert.Equal(t, merged.ID(), n.ClusterID)
	}
}

func TestCombine_LeavesOneClusterPerRegularCollector(t *testing.T) {
	for _, mdcs := range []int{2, 4, 9} {
		t.Run(fmt.Sprintf("mdcs=%d", mdcs), func(t *testing.T) {
			env := sim.DefaultEnvironment()
			env.SegmentCount = 20
			env.MDCCount = mdcs
			run := sim.NewRunContext(env, 3)
			s, err := sim.NewScenario(run)
			require.NoError(t, err)
			o, err := New(run, s)
			require.NoError(t, err)

			o.combine()

			assert.Len(t, o.clusters, mdcs-1)
			assertOwnedOnce(t, o, o.partition())
		})
	}
}

func TestPlaceRendezvous_HalfwayToCentre(t *testing.T) {
	// GIVEN a two-node cluster whose tour passes (100, 0) and a field
	// centred on the origin
	o := newFixedOptimizer(t, 3, geom.Pt(100, -10), geom.Pt(100, 10), geom.Pt(-200, 0))
	c := o.run.NewCluster(sim.RoleRegular)
	c.Add(o.scenario.Nodes[0])
	c.Add(o.scenario.Nodes[1])

	// WHEN its rendezvous point is placed
	o.placeRendezvous(c)

	// THEN it sits halfway between the centre and the tour, on both tours
	rp := c.Anchor()
	require.NotNil(t, rp)
	assert.True(t, rp.Virtual)
	assert.InDelta(t, 50.0, rp.Location.X, 1e-9)
	assert.InDelta(t, 0.0, rp.Location.Y, 1e-9)
	assert.True(t, o.central.Contains(rp))
	assert.Contains(t, c.TourNodes(), rp)
}

func TestMoveRendezvous_ReplacesCentralMember(t *testing.T) {
	o := newFixedOptimizer(t, 3, geom.Pt(100, 0), geom.Pt(-100, 0))
	c := o.run.NewCluster(sim.RoleRegular)
	c.Add(o.scenario.Nodes[0])
	o.placeRendezvous(c)
	old := c.Anchor()

	o.moveRendezvous(c, geom.Pt(75, 0))

	assert.NotSame(t, old, c.Anchor())
	assert.False(t, o.central.Contains(old))
	assert.True(t, o.central.Contains(c.Anchor()))
	assert.Equal(t, 1, o.central.Len())
}

func TestPushToCentral(t *testing.T) {
	t.Run("member nearer the centre than the rendezvous point moves", func(t *testing.T) {
		// GIVEN a cluster {(10,0), (100,0)} with its rendezvous point at
		// (50,0) and another rendezvous point at (-50,0), so the central
		// cluster is centred on the origin
		o := newFixedOptimizer(t, 3, geom.Pt(10, 0), geom.Pt(100, 0), geom.Pt(-110, 0))
		inner, outer := o.scenario.Nodes[0], o.scenario.Nodes[1]
		o.central.Add(o.run.NewVirtualNode(geom.Pt(-50, 0)))
		c := o.run.NewCluster(sim.RoleRegular)
		c.Add(inner)
		c.Add(outer)
		o.moveRendezvous(c, geom.Pt(50, 0))

		// WHEN the cluster is checked against the centre
		o.pushToCentral(c)

		// THEN the inner node joins the central cluster
		assert.Equal(t, []*sim.Node{outer}, c.Nodes())
		assert.True(t, o.central.Contains(inner))
		assert.Equal(t, o.central.ID(), inner.ClusterID)
		assert.Equal(t, []*sim.Node{inner}, o.centralNodes())

		// AND the rendezvous point is recomputed halfway between (100,0)
		// and the new centre (10/3, 0)
		assert.InDelta(t, 155.0/3, c.Anchor().Location.X, 1e-9)
	})

	t.Run("last member stays", func(t *testing.T) {
		o := newFixedOptimizer(t, 3, geom.Pt(10, 0), geom.Pt(-10, 0))
		c := o.run.NewCluster(sim.RoleRegular)
		c.Add(o.scenario.Nodes[0])
		o.moveRendezvous(c, geom.Pt(50, 0))

		o.pushToCentral(c)

		assert.Equal(t, 1, c.Len())
		assert.Empty(t, o.centralNodes())
	})
}

func TestPullFromCentral(t *testing.T) {
	// GIVEN central nodes forming a triangle around the origin and a
	// cluster at (100,0) whose rendezvous point sits inside that triangle
	o := newFixedOptimizer(t, 3,
		geom.Pt(-10, -10), geom.Pt(10, -10), geom.Pt(0, 10), geom.Pt(100, 0))
	for _, n := range o.scenario.Nodes[:3] {
		o.central.Add(n)
	}
	c := o.run.NewCluster(sim.RoleRegular)
	c.Add(o.scenario.Nodes[3])
	o.moveRendezvous(c, geom.Pt(0, 0))

	// WHEN the cluster looks for central nodes to take over
	o.pullFromCentral(c)

	// THEN the central node nearest the cluster centre (50,0) moves over
	taken := o.scenario.Nodes[1]
	assert.True(t, c.Contains(taken))
	assert.False(t, o.central.Contains(taken))
	assert.Equal(t, c.ID(), taken.ClusterID)
	assert.Len(t, o.centralNodes(), 2)
}

func TestPullFromCentral_OutsideHullKeepsNodes(t *testing.T) {
	o := newFixedOptimizer(t, 3,
		geom.Pt(-10, -10), geom.Pt(10, -10), geom.Pt(0, 10), geom.Pt(100, 0))
	for _, n := range o.scenario.Nodes[:3] {
		o.central.Add(n)
	}
	c := o.run.NewCluster(sim.RoleRegular)
	c.Add(o.scenario.Nodes[3])
	o.moveRendezvous(c, geom.Pt(50, 0))

	o.pullFromCentral(c)

	assert.Equal(t, 1, c.Len())
	assert.Len(t, o.centralNodes(), 3)
}

func TestRun_RandomScenarios(t *testing.T) {
	for _, segments := range []int{12, 30} {
		for _, mdcs := range []int{2, 3, 5, 9} {
			t.Run(fmt.Sprintf("segments=%d/mdcs=%d", segments, mdcs), func(t *testing.T) {
				env := sim.DefaultEnvironment()
				env.SegmentCount = segments
				env.MDCCount = mdcs
				for seed := int64(0); seed < 4; seed++ {
					run := sim.NewRunContext(env, seed)
					s, err := sim.NewScenario(run)
					require.NoError(t, err)
					o, err := New(run, s)
					require.NoError(t, err)

					res, err := o.Run()
					if errors.Is(err, sim.ErrDivergence) {
						continue
					}
					require.NoError(t, err, "seed %d", seed)

					// one cluster per regular collector, each anchored on the hub
					p := res.Partition
					require.Len(t, p.Clusters, mdcs-1)
					assert.Equal(t, mdcs-1, p.Hub.ID())
					for i, c := range p.Clusters {
						assert.Equal(t, i, c.ID())
						assert.GreaterOrEqual(t, c.Len(), 1)
						require.NotNil(t, c.Anchor())
						assert.True(t, p.Hub.Contains(c.Anchor()))
					}
					assertOwnedOnce(t, o, p)

					// and the tours form one connected movement graph
					r, err := report.NewWithRelay(run.Env, s, p, report.RelayRendezvous)
					require.NoError(t, err)
					_, err = r.Results()
					require.NoError(t, err, "seed %d", seed)
				}
			})
		}
	}
}

func TestRun_SameSeedSamePartition(t *testing.T) {
	build := func() Result {
		env := sim.DefaultEnvironment()
		env.SegmentCount = 20
		env.MDCCount = 5
		run := sim.NewRunContext(env, 11)
		s, err := sim.NewScenario(run)
		require.NoError(t, err)
		o, err := New(run, s)
		require.NoError(t, err)
		res, err := o.Run()
		if errors.Is(err, sim.ErrDivergence) {
			t.Skip("seed diverges")
		}
		require.NoError(t, err)
		return res
	}

	a, b := build(), build()

	assert.Equal(t, a.Rounds, b.Rounds)
	assert.Equal(t, a.BalanceAfter, b.BalanceAfter)
	require.Len(t, b.Partition.Clusters, len(a.Partition.Clusters))
	for i := range a.Partition.Clusters {
		assert.Equal(t, sim.Locations(a.Partition.Clusters[i].Nodes()), sim.Locations(b.Partition.Clusters[i].Nodes()))
	}
}

func TestRun_PanicsWhenCalledTwice(t *testing.T) {
	o := newFixedOptimizer(t, 3, geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(0, 100), geom.Pt(100, 100))
	_, _ = o.Run()
	assert.Panics(t, func() { _, _ = o.Run() })
}

func TestScaleFrom(t *testing.T) {
	assert.Equal(t, geom.Pt(5, 5), scaleFrom(geom.Pt(0, 0), geom.Pt(10, 10), 0.5))
	assert.Equal(t, geom.Pt(12.5, 0), scaleFrom(geom.Pt(0, 0), geom.Pt(10, 0), 1.25))
}
