// Package report computes the end-of-run metrics of a partition: message
// delay, energy balance, average energy and buffer size.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/wsn-sims/mdcsim/sim"
	"github.com/wsn-sims/mdcsim/sim/movement"
)

// Relay names how inter-cluster data crosses the hub.
type Relay int

const (
	// RelayAnchored hands data over at hub nodes that double as the anchors
	// of regular clusters.
	RelayAnchored Relay = iota
	// RelayRendezvous has the hub collector tour one rendezvous point per
	// regular cluster and carry data between them.
	RelayRendezvous
)

// Runner evaluates one finished partition.
type Runner struct {
	env      *sim.Environment
	scenario *sim.Scenario
	p        sim.Partition
	relay    Relay
	energy   *sim.EnergyModel
	movement *movement.Model
}

// New prepares a runner over the final partition of an anchored run.
func New(env *sim.Environment, scenario *sim.Scenario, p sim.Partition) (*Runner, error) {
	return NewWithRelay(env, scenario, p, RelayAnchored)
}

// NewWithRelay prepares a runner whose holding times and buffers follow
// relay.
func NewWithRelay(env *sim.Environment, scenario *sim.Scenario, p sim.Partition, relay Relay) (*Runner, error) {
	mm, err := movement.New(p)
	if err != nil {
		return nil, fmt.Errorf("building movement model: %w", err)
	}
	return &Runner{
		env:      env,
		scenario: scenario,
		p:        p,
		relay:    relay,
		energy:   sim.NewEnergyModel(env, scenario.Traffic, scenario.Nodes),
		movement: mm,
	}, nil
}

// Movement returns the movement model of the partition.
func (r *Runner) Movement() *movement.Model { return r.movement }

// TourTime is the time for c's collector to drive its tour and transfer its
// data volume once.
func (r *Runner) TourTime(c *sim.Cluster) float64 {
	travel := c.TourLength() / r.env.MDCSpeed
	transmit := r.energy.DataVolume(c, r.p) / r.env.CommsRate
	return travel + transmit
}

// HoldingTime is how long data from src waits at relays before dst's
// collector picks it up. Data staying in one cluster is never held.
//
// With anchored relays, data exchanged through a shared anchor or with the
// hub waits one tour of the destination; anything else waits for the hub
// and then the destination. With rendezvous relays, data waits one hub tour
// plus one tour of every regular cluster other than the source's.
func (r *Runner) HoldingTime(src, dst *sim.Node) (float64, error) {
	from, to, err := r.owners(src, dst)
	if err != nil {
		return 0, err
	}
	if from == to {
		return 0, nil
	}
	if r.relay == RelayRendezvous {
		wait := r.TourTime(r.p.Hub)
		for _, c := range r.p.Clusters {
			if c != from {
				wait += r.TourTime(c)
			}
		}
		return wait, nil
	}
	switch {
	case from.Anchor() != nil && from.Anchor() == to.Anchor(),
		from == r.p.Hub, to == r.p.Hub:
		return r.TourTime(to), nil
	default:
		return r.TourTime(r.p.Hub) + r.TourTime(to), nil
	}
}

// CommunicationDelay is travel time along the shortest tour route plus the
// transmission time of src's volume to dst on every hop between collectors,
// plus the holding time at relays.
func (r *Runner) CommunicationDelay(src, dst *sim.Node) (float64, error) {
	distance, err := r.movement.ShortestDistance(src, dst)
	if err != nil {
		return 0, err
	}
	from, to, err := r.owners(src, dst)
	if err != nil {
		return 0, err
	}

	transmissions := 3
	switch {
	case from == to:
		transmissions = 1
	case from == r.p.Hub || to == r.p.Hub:
		transmissions = 2
	}

	holding, err := r.HoldingTime(src, dst)
	if err != nil {
		return 0, err
	}

	travel := distance / r.env.MDCSpeed
	transmit := float64(transmissions) * r.scenario.Traffic.Between(src, dst) / r.env.CommsRate
	return travel + transmit + holding, nil
}

// MaximumCommunicationDelay is the largest delay over all ordered pairs of
// distinct scenario nodes.
func (r *Runner) MaximumCommunicationDelay() (float64, error) {
	worst := 0.0
	for _, src := range r.scenario.Nodes {
		for _, dst := range r.scenario.Nodes {
			if src == dst {
				continue
			}
			d, err := r.CommunicationDelay(src, dst)
			if err != nil {
				return 0, err
			}
			worst = math.Max(worst, d)
		}
	}
	return worst, nil
}

// EnergyBalance is the population standard deviation of cluster energies.
func (r *Runner) EnergyBalance() float64 {
	return sim.Balance(r.energy.Energies(r.p))
}

// AverageEnergy is the mean cluster energy.
func (r *Runner) AverageEnergy() float64 {
	return sim.Average(r.energy.Energies(r.p))
}

// MaxBufferSize is the largest volume one relay point has to hold.
//
// With anchored relays that is, over the hub nodes, the summed inter-cluster
// volume of the regular clusters anchored on each. With rendezvous relays
// every collector carries its whole data volume, so it is the largest
// cluster data volume, hub included.
func (r *Runner) MaxBufferSize() float64 {
	largest := 0.0
	if r.relay == RelayRendezvous {
		for _, c := range r.p.All() {
			largest = math.Max(largest, r.energy.DataVolume(c, r.p))
		}
		return largest
	}
	for _, anchor := range r.p.Hub.Nodes() {
		volume := 0.0
		for _, c := range r.p.Clusters {
			if c.Anchor() == anchor {
				volume += r.energy.ClusterVolume(c, true)
			}
		}
		largest = math.Max(largest, volume)
	}
	return largest
}

func (r *Runner) owners(src, dst *sim.Node) (*sim.Cluster, *sim.Cluster, error) {
	from, err := r.p.Owner(src)
	if err != nil {
		return nil, nil, err
	}
	to, err := r.p.Owner(dst)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

// ClusterResult is the per-cluster line of a report.
type ClusterResult struct {
	ID         int
	Role       string
	Nodes      int
	TourLength float64 // m
	Energy     float64 // J
}

// Results holds the final metrics of one run.
type Results struct {
	MaxDelay      float64 // s
	EnergyBalance float64 // J
	AverageEnergy float64 // J
	MaxBuffer     float64 // Mb
	Clusters      []ClusterResult
}

// Results computes every metric. Any non-finite value means the model is
// broken (usually a disconnected movement graph) and is reported as
// sim.ErrNumeric.
func (r *Runner) Results() (Results, error) {
	delay, err := r.MaximumCommunicationDelay()
	if err != nil {
		return Results{}, err
	}
	res := Results{
		MaxDelay:      delay,
		EnergyBalance: r.EnergyBalance(),
		AverageEnergy: r.AverageEnergy(),
		MaxBuffer:     r.MaxBufferSize(),
	}
	for _, c := range r.p.All() {
		res.Clusters = append(res.Clusters, ClusterResult{
			ID:         c.ID(),
			Role:       c.Role().String(),
			Nodes:      c.Len(),
			TourLength: c.TourLength(),
			Energy:     r.energy.TotalEnergy(c, r.p),
		})
	}

	for name, v := range map[string]float64{
		"max_delay":      res.MaxDelay,
		"energy_balance": res.EnergyBalance,
		"average_energy": res.AverageEnergy,
		"max_buffer":     res.MaxBuffer,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Results{}, fmt.Errorf("%w: %s = %v", sim.ErrNumeric, name, v)
		}
	}
	return res, nil
}

// Print writes a human-readable summary of the results.
func (res Results) Print(w io.Writer) {
	fmt.Fprintln(w, "=== Simulation Metrics ===")
	fmt.Fprintf(w, "Max Comms Delay      : %.2f s\n", res.MaxDelay)
	fmt.Fprintf(w, "Energy Balance       : %.2f J\n", res.EnergyBalance)
	fmt.Fprintf(w, "Average Energy       : %.2f J\n", res.AverageEnergy)
	fmt.Fprintf(w, "Max Buffer Size      : %.2f Mb\n", res.MaxBuffer)
	fmt.Fprintln(w, "=== Clusters ===")
	for _, c := range res.Clusters {
		fmt.Fprintf(w, "%-8s %3d : %3d nodes, tour %8.2f m, energy %10.2f J\n",
			c.Role, c.ID, c.Nodes, c.TourLength, c.Energy)
	}
}
