package sim

import (
	"fmt"

	"github.com/wsn-sims/mdcsim/sim/geom"
)

// IDAllocator hands out run-scoped integer ids for nodes and cluster labels.
// It replaces class-level counters so concurrent runs never share state.
type IDAllocator struct {
	next int64
}

// Next returns a fresh id. Ids start at 0 and increase by one.
func (a *IDAllocator) Next() int64 {
	id := a.next
	a.next++
	return id
}

// RunContext owns everything that is scoped to exactly one simulation run.
type RunContext struct {
	Env *Environment
	RNG *Streams
	IDs *IDAllocator
}

// NewRunContext creates the context for one run of env with the given seed.
// env is copied; later edits by the caller do not leak into the run.
func NewRunContext(env Environment, seed int64) *RunContext {
	return &RunContext{
		Env: &env,
		RNG: NewStreams(seed),
		IDs: &IDAllocator{},
	}
}

// NewCluster creates an empty cluster with a fresh label id whose tours use
// the run's comms range.
func (r *RunContext) NewCluster(role Role) *Cluster {
	return newCluster(int(r.IDs.Next()), role, r.Env.TourOptions(r.Env.CommsRange), r.IDs)
}

// NewClusterWithRange is NewCluster with a tour radio range of its own. A
// zero range makes the collector drive to every member.
func (r *RunContext) NewClusterWithRange(role Role, radioRange float64) *Cluster {
	return newCluster(int(r.IDs.Next()), role, r.Env.TourOptions(radioRange), r.IDs)
}

// NewNode creates a node at loc covering the given segment indices.
func (r *RunContext) NewNode(loc geom.Point, segments ...int) (*Node, error) {
	if !geom.Finite(loc) {
		return nil, fmt.Errorf("%w: node location %v", geom.ErrDegenerate, loc)
	}
	return &Node{
		ID:               r.IDs.Next(),
		Location:         loc,
		Segments:         segments,
		ClusterID:        Unassigned,
		VirtualClusterID: Unassigned,
	}, nil
}

// NewVirtualNode creates a placeholder node with no segments, such as the
// hub seed at the centre of the field or a rendezvous point.
func (r *RunContext) NewVirtualNode(loc geom.Point) *Node {
	return &Node{
		ID:               r.IDs.Next(),
		Location:         loc,
		ClusterID:        Unassigned,
		VirtualClusterID: Unassigned,
		Virtual:          true,
	}
}
