package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsn-sims/mdcsim/sim/geom"
)

func TestNewScenario_SegmentModeOneNodePerSegment(t *testing.T) {
	env := DefaultEnvironment()
	env.SegmentCount = 12
	run := NewRunContext(env, 3)

	s, err := NewScenario(run)

	require.NoError(t, err)
	require.Len(t, s.Segments, 12)
	require.Len(t, s.Nodes, 12)
	for i, n := range s.Nodes {
		assert.Equal(t, []int{i}, n.Segments)
		assert.Equal(t, s.Segments[i], n.Location)
		assert.Equal(t, Unassigned, n.ClusterID)
		assert.True(t, n.Location.X >= 0 && n.Location.X < env.GridWidth)
		assert.True(t, n.Location.Y >= 0 && n.Location.Y < env.GridHeight)
	}
	assert.Equal(t, geom.Centroid(s.Segments), s.Center)
	assert.Equal(t, 12, s.Traffic.Size())
}

func TestNewScenario_SameSeedSameLayout(t *testing.T) {
	env := DefaultEnvironment()
	a, err := NewScenario(NewRunContext(env, 11))
	require.NoError(t, err)
	b, err := NewScenario(NewRunContext(env, 11))
	require.NoError(t, err)
	c, err := NewScenario(NewRunContext(env, 12))
	require.NoError(t, err)

	assert.Equal(t, a.Segments, b.Segments)
	assert.Equal(t, a.Traffic.Segment(0, 1), b.Traffic.Segment(0, 1))
	assert.NotEqual(t, a.Segments, c.Segments)
}

func TestNewScenario_CellModeCoversEverySegmentOnce(t *testing.T) {
	// GIVEN cell mode on the default field
	env := DefaultEnvironment()
	env.UseCells = true
	run := NewRunContext(env, 5)

	s, err := NewScenario(run)
	require.NoError(t, err)

	// THEN every segment is served by exactly one node within radio range
	seen := make(map[int]int)
	for _, n := range s.Nodes {
		require.NotEmpty(t, n.Segments)
		for _, seg := range n.Segments {
			seen[seg]++
			assert.Less(t, geom.Distance(n.Location, s.Segments[seg]), env.CommsRange)
		}
	}
	assert.Len(t, seen, env.SegmentCount)
	for seg, count := range seen {
		assert.Equal(t, 1, count, "segment %d", seg)
	}
}

func TestNewScenarioFromPoints_TrafficSizeMismatch(t *testing.T) {
	run := newTestRun(t)
	_, err := NewScenarioFromPoints(run,
		[]geom.Point{geom.Pt(0, 0), geom.Pt(1, 1)},
		NewTrafficMatrixFromVolumes(1, []float64{0}))
	assert.Error(t, err)
}

func TestScenario_Unassigned(t *testing.T) {
	run := newTestRun(t)
	s, err := NewScenarioFromPoints(run,
		[]geom.Point{geom.Pt(0, 0), geom.Pt(1, 1), geom.Pt(2, 2)},
		NewTrafficMatrixFromVolumes(3, make([]float64, 9)))
	require.NoError(t, err)

	c := run.NewCluster(RoleRegular)
	c.Add(s.Nodes[1])

	assert.Equal(t, []*Node{s.Nodes[0], s.Nodes[2]}, s.Unassigned())
}
