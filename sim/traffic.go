package sim

import (
	"math"
	"math/rand"
)

// GaussianSampler draws non-negative data volumes from N(mean, stdDev).
type GaussianSampler struct {
	mean, stdDev float64
}

// NewGaussianSampler creates a sampler for N(mean, stdDev).
func NewGaussianSampler(mean, stdDev float64) *GaussianSampler {
	return &GaussianSampler{mean: mean, stdDev: stdDev}
}

// Sample returns one draw; negative draws are clamped to zero.
func (s *GaussianSampler) Sample(rng *rand.Rand) float64 {
	return math.Max(0, rng.NormFloat64()*s.stdDev+s.mean)
}

type nodePair struct {
	src, dst int64
}

// TrafficMatrix holds the data volume (Mb) each segment sends to every other
// segment during one collection round. Every ordered pair is sampled exactly
// once, so the volumes are fixed for the lifetime of the run.
type TrafficMatrix struct {
	n       int
	volumes []float64
	byNode  map[nodePair]float64
}

// NewTrafficMatrix samples volumes for n segments in row-major order.
// The diagonal is zero.
func NewTrafficMatrix(n int, sampler *GaussianSampler, rng *rand.Rand) *TrafficMatrix {
	m := &TrafficMatrix{
		n:       n,
		volumes: make([]float64, n*n),
		byNode:  make(map[nodePair]float64),
	}
	for src := 0; src < n; src++ {
		for dst := 0; dst < n; dst++ {
			if src == dst {
				continue
			}
			m.volumes[src*n+dst] = sampler.Sample(rng)
		}
	}
	return m
}

// NewTrafficMatrixFromVolumes wraps a precomputed n×n row-major matrix.
func NewTrafficMatrixFromVolumes(n int, volumes []float64) *TrafficMatrix {
	if len(volumes) != n*n {
		panic("NewTrafficMatrixFromVolumes: volumes must have n*n entries")
	}
	return &TrafficMatrix{
		n:       n,
		volumes: append([]float64(nil), volumes...),
		byNode:  make(map[nodePair]float64),
	}
}

// Size returns the number of segments.
func (m *TrafficMatrix) Size() int { return m.n }

// Segment returns the volume segment src sends to segment dst.
func (m *TrafficMatrix) Segment(src, dst int) float64 {
	return m.volumes[src*m.n+dst]
}

// Between returns the volume node src sends to node dst: the sum over every
// segment pair the two nodes cover. Results are memoized by node id.
func (m *TrafficMatrix) Between(src, dst *Node) float64 {
	if src == dst {
		return 0
	}
	key := nodePair{src.ID, dst.ID}
	if v, ok := m.byNode[key]; ok {
		return v
	}
	total := 0.0
	for _, s := range src.Segments {
		for _, d := range dst.Segments {
			if s != d {
				total += m.Segment(s, d)
			}
		}
	}
	m.byNode[key] = total
	return total
}
