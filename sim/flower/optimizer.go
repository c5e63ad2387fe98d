// Package flower partitions a scenario's nodes into one hub and
// mdc_count-1 regular clusters so that every collector spends roughly the
// same energy per round.
//
// The optimizer is a small state machine:
//
//	init → virtual-merge → pre-check → greedy-expansion → rebalance → done
//	                                 ↘ local-swap → done
//	                                 ↘ done
//
// Virtual merging groups nodes by tour cost around the field centre.
// The pre-check compares aggregate movement and communication energy of
// those groups; when one dominates the other, the virtual groups are used
// directly (optionally refined by swaps between polar neighbours).
// Otherwise clusters are regrown greedily from the hub outward and then
// rebalanced against the hub.
package flower

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/trace"
)

// ErrDivergence is returned when rebalancing or the local swap is still
// improving after the configured number of rounds.
var ErrDivergence = sim.ErrDivergence

// State is the optimizer's current phase.
type State string

const (
	StateInit            State = "init"
	StateVirtualMerge    State = "virtual-merge"
	StatePreCheck        State = "pre-check"
	StateGreedyExpansion State = "greedy-expansion"
	StateRebalance       State = "rebalance"
	StateLocalSwap       State = "local-swap"
	StateDone            State = "done"
)

// Mode records which branch the pre-check selected.
type Mode string

const (
	// ModeStandard runs greedy expansion and hub rebalancing.
	ModeStandard Mode = "standard"
	// ModeMovementDominant keeps the virtual clusters as they are.
	ModeMovementDominant Mode = "movement-dominant"
	// ModeCommsDominant keeps the virtual clusters and refines them with
	// the local swap.
	ModeCommsDominant Mode = "comms-dominant"
)

// Config controls optional optimizer behaviour.
type Config struct {
	TraceLevel string // "none" (default) or "decisions"
}

// Result is the outcome of a successful Run.
type Result struct {
	Partition sim.Partition
	Mode      Mode
	// Rounds is the number of accepted rebalance or swap moves.
	Rounds int
	// BalanceBefore and BalanceAfter bracket the final optimization phase.
	BalanceBefore float64
	BalanceAfter  float64
}

// Optimizer owns the clusters of one run while they are being built.
type Optimizer struct {
	run      *sim.RunContext
	env      *sim.Environment
	scenario *sim.Scenario
	energy   *sim.EnergyModel
	trace    *trace.OptimizerTrace

	state State
	mode  Mode

	// center is the virtual seed node at the centre of the field.
	center     *sim.Node
	virtualHub *sim.Cluster
	virtual    []*sim.Cluster
	hub        *sim.Cluster
	clusters   []*sim.Cluster
	idle       bool

	hasRun bool
}

// New prepares an optimizer over the scenario's nodes. The scenario needs at
// least mdc_count nodes so every collector can own one.
func New(run *sim.RunContext, scenario *sim.Scenario, cfg Config) (*Optimizer, error) {
	if !trace.IsValidTraceLevel(cfg.TraceLevel) {
		return nil, fmt.Errorf("unknown trace level %q", cfg.TraceLevel)
	}
	if len(scenario.Nodes) < run.Env.MDCCount {
		return nil, fmt.Errorf("%w: %d nodes cannot fill %d collectors",
			sim.ErrCluster, len(scenario.Nodes), run.Env.MDCCount)
	}

	o := &Optimizer{
		run:      run,
		env:      run.Env,
		scenario: scenario,
		energy:   sim.NewEnergyModel(run.Env, scenario.Traffic, scenario.Nodes),
		state:    StateInit,
	}
	if trace.TraceLevel(cfg.TraceLevel) == trace.TraceLevelDecisions {
		o.trace = trace.NewOptimizerTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	}

	hubID := run.Env.MDCCount - 1
	o.center = run.NewVirtualNode(scenario.Center)
	o.virtualHub = run.NewCluster(sim.RoleVirtualHub)
	o.virtualHub.SetID(hubID)
	o.virtualHub.Add(o.center)
	o.hub = run.NewCluster(sim.RoleHub)
	o.hub.SetID(hubID)
	o.hub.Add(o.center)

	for _, n := range scenario.Nodes {
		vc := run.NewCluster(sim.RoleVirtual)
		vc.Add(n)
		o.virtual = append(o.virtual, vc)
	}
	return o, nil
}

// State returns the current phase.
func (o *Optimizer) State() State { return o.state }

// Mode returns the branch chosen by the pre-check (empty before it runs).
func (o *Optimizer) Mode() Mode { return o.mode }

// Trace returns the decision trace, or nil when tracing is off.
func (o *Optimizer) Trace() *trace.OptimizerTrace { return o.trace }

// VirtualClusters returns the polar-sorted virtual clusters after merging.
func (o *Optimizer) VirtualClusters() []*sim.Cluster { return o.virtual }

// Energy returns the energy model used for every decision.
func (o *Optimizer) Energy() *sim.EnergyModel { return o.energy }

// Run drives the state machine to completion.
// Panics if called more than once.
func (o *Optimizer) Run() (Result, error) {
	if o.hasRun {
		panic("Optimizer.Run() called more than once")
	}
	o.hasRun = true

	o.transition(StateVirtualMerge)
	o.virtualMerge()

	o.transition(StatePreCheck)
	o.mode = o.preCheck()
	logrus.Debugf("optimizer mode: %s", o.mode)

	res := Result{Mode: o.mode}
	var err error
	switch o.mode {
	case ModeMovementDominant:
		res.BalanceBefore = o.balance()
		res.BalanceAfter = res.BalanceBefore
	case ModeCommsDominant:
		o.transition(StateLocalSwap)
		res.BalanceBefore = o.balance()
		res.Rounds, err = o.localSwap()
		res.BalanceAfter = o.balance()
	default:
		o.transition(StateGreedyExpansion)
		o.greedyExpansion()
		o.transition(StateRebalance)
		res.BalanceBefore = o.balance()
		res.Rounds, err = o.rebalance()
		res.BalanceAfter = o.balance()
	}
	if err != nil {
		return Result{}, err
	}

	o.transition(StateDone)
	res.Partition = o.partition()
	return res, nil
}

func (o *Optimizer) transition(to State) {
	logrus.Debugf("optimizer %s → %s", o.state, to)
	if o.trace != nil {
		o.trace.RecordTransition(trace.TransitionRecord{From: string(o.state), To: string(to)})
	}
	o.state = to
}

func (o *Optimizer) partition() sim.Partition {
	return sim.Partition{Hub: o.hub, Clusters: o.clusters, IdleCollector: o.idle}
}

func (o *Optimizer) balance() float64 {
	return sim.Balance(o.energy.Energies(o.partition()))
}

func (o *Optimizer) totalEnergy(c *sim.Cluster) float64 {
	return o.energy.TotalEnergy(c, o.partition())
}

// updateAnchors links every non-empty cluster to the hub node nearest to
// any of its members.
func (o *Optimizer) updateAnchors(clusters []*sim.Cluster) {
	for _, c := range clusters {
		if o.hub.Len() == 0 {
			c.SetAnchor(nil)
			continue
		}
		if c.Len() == 0 {
			continue
		}
		_, anchor := sim.ClosestPair(c.Nodes(), o.hub.Nodes())
		c.SetAnchor(anchor)
	}
}

// preCheck turns the virtual clusters into real ones and compares the
// aggregate movement and communication energy. When neither dominates, the
// real clusters are discarded and greedy expansion rebuilds them.
func (o *Optimizer) preCheck() Mode {
	clusters := make([]*sim.Cluster, 0, len(o.virtual))
	for _, vc := range o.virtual {
		c := o.run.NewCluster(sim.RoleRegular)
		c.SetID(vc.ID())
		for _, n := range vc.Nodes() {
			c.Add(n)
		}
		clusters = append(clusters, c)
	}
	o.clusters = clusters
	o.updateAnchors(clusters)

	p := o.partition()
	em, ec := 0.0, 0.0
	for _, c := range clusters {
		em += o.energy.MovementEnergy(c)
		ec += o.energy.CommunicationEnergy(c, p)
	}
	logrus.Debugf("pre-check: Em=%.3f Ec=%.3f", em, ec)

	ratio := o.env.DominanceRatio
	switch {
	case sim.MuchGreater(em, ec, ratio):
		o.idle = true
		return ModeMovementDominant
	case sim.MuchGreater(ec, em, ratio):
		o.idle = true
		return ModeCommsDominant
	}

	for _, c := range clusters {
		for _, n := range c.Nodes() {
			n.ClusterID = sim.Unassigned
		}
	}
	o.clusters = nil
	return ModeStandard
}
