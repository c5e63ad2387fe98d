package sim

import (
	"gonum.org/v1/gonum/stat"
)

// EnergyModel scores clusters by the energy their collector spends per
// round. Results depend only on current membership and the traffic matrix.
type EnergyModel struct {
	env     *Environment
	traffic *TrafficMatrix
	nodes   []*Node
}

// NewEnergyModel creates a model over the real (non-virtual) nodes of a run.
func NewEnergyModel(env *Environment, traffic *TrafficMatrix, nodes []*Node) *EnergyModel {
	owned := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if !n.Virtual {
			owned = append(owned, n)
		}
	}
	return &EnergyModel{env: env, traffic: traffic, nodes: owned}
}

// Traffic returns the traffic matrix backing the model.
func (m *EnergyModel) Traffic() *TrafficMatrix { return m.traffic }

// MovementEnergy is the energy to drive one full tour of c.
func (m *EnergyModel) MovementEnergy(c *Cluster) float64 {
	return c.TourLength() * m.env.MoveCost
}

// ClusterVolume sums the traffic of every ordered node pair with exactly one
// endpoint in c and, unless interOnly is set, every ordered pair inside c.
func (m *EnergyModel) ClusterVolume(c *Cluster, interOnly bool) float64 {
	members := make(map[*Node]bool, c.Len())
	for _, n := range c.Nodes() {
		if !n.Virtual {
			members[n] = true
		}
	}

	volume := 0.0
	for _, src := range c.Nodes() {
		if src.Virtual {
			continue
		}
		for _, other := range m.nodes {
			if members[other] {
				if !interOnly {
					volume += m.traffic.Between(src, other)
				}
				continue
			}
			volume += m.traffic.Between(src, other)
			volume += m.traffic.Between(other, src)
		}
	}
	return volume
}

// HubVolume is the hub's own volume plus the traffic it relays between
// regular clusters. Clusters that share an anchor exchange data directly, so
// their mutual traffic is not relayed.
func (m *EnergyModel) HubVolume(hub *Cluster, p Partition) float64 {
	volume := m.ClusterVolume(hub, false)
	for _, a := range p.Clusters {
		for _, b := range p.Clusters {
			if a == b || (a.Anchor() != nil && a.Anchor() == b.Anchor()) {
				continue
			}
			for _, src := range a.Nodes() {
				for _, dst := range b.Nodes() {
					volume += m.traffic.Between(src, dst)
				}
			}
		}
	}
	return volume
}

// DataVolume returns the volume c's collector must move per round.
func (m *EnergyModel) DataVolume(c *Cluster, p Partition) float64 {
	if c.Role() == RoleHub {
		return m.HubVolume(c, p)
	}
	return m.ClusterVolume(c, false)
}

// CommunicationEnergy is DataVolume at the flat per-Mb comms cost.
func (m *EnergyModel) CommunicationEnergy(c *Cluster, p Partition) float64 {
	return m.DataVolume(c, p) * m.env.CommsCost
}

// TotalEnergy is movement plus communication energy.
func (m *EnergyModel) TotalEnergy(c *Cluster, p Partition) float64 {
	return m.MovementEnergy(c) + m.CommunicationEnergy(c, p)
}

// Energies returns TotalEnergy for every cluster of p, regular clusters
// first and the hub last, plus a trailing zero when p has an idle collector.
func (m *EnergyModel) Energies(p Partition) []float64 {
	all := p.All()
	energies := make([]float64, 0, len(all)+1)
	for _, c := range all {
		energies = append(energies, m.TotalEnergy(c, p))
	}
	if p.IdleCollector {
		energies = append(energies, 0)
	}
	return energies
}

// Balance is the population standard deviation of energies.
func Balance(energies []float64) float64 {
	if len(energies) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(energies, nil)
	return std
}

// Average is the mean of energies.
func Average(energies []float64) float64 {
	if len(energies) == 0 {
		return 0
	}
	return stat.Mean(energies, nil)
}

// MuchGreater reports whether lhs dominates rhs, i.e. rhs/lhs < ratio.
// A non-positive lhs dominates nothing.
func MuchGreater(lhs, rhs, ratio float64) bool {
	if lhs <= 0 {
		return false
	}
	return rhs/lhs < ratio
}
