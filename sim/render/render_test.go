package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/geom"
)

func newPartition(t *testing.T) (*sim.Scenario, sim.Partition) {
	t.Helper()
	env := sim.DefaultEnvironment()
	env.CommsRange = 5
	run := sim.NewRunContext(env, 1)
	pts := []geom.Point{geom.Pt(50, 50), geom.Pt(10, 10), geom.Pt(10, 30), geom.Pt(90, 80)}
	s, err := sim.NewScenarioFromPoints(run, pts, sim.NewTrafficMatrixFromVolumes(4, make([]float64, 16)))
	require.NoError(t, err)

	hub := run.NewCluster(sim.RoleHub)
	hub.Add(s.Nodes[0])
	a := run.NewCluster(sim.RoleRegular)
	a.Add(s.Nodes[1])
	a.Add(s.Nodes[2])
	a.SetAnchor(s.Nodes[0])
	b := run.NewCluster(sim.RoleRegular)
	b.Add(s.Nodes[3])
	b.SetAnchor(s.Nodes[0])
	return s, sim.Partition{Hub: hub, Clusters: []*sim.Cluster{a, b}}
}

func TestTours_WritesImage(t *testing.T) {
	s, p := newPartition(t)

	for _, name := range []string{"tours.png", "tours.svg"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)

			require.NoError(t, Tours(s, p, path))

			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		})
	}
}

func TestPlot_HubWithoutTour(t *testing.T) {
	// GIVEN a partition whose single-node hub has no tour to draw
	s, p := newPartition(t)
	p.Clusters = nil

	pl, err := Plot(s, p)

	require.NoError(t, err)
	assert.Equal(t, "4 segments, 1 collectors", pl.Title.Text)
}

func TestTours_UnknownFormat(t *testing.T) {
	s, p := newPartition(t)
	err := Tours(s, p, filepath.Join(t.TempDir(), "tours.unknown"))
	assert.Error(t, err)
}
