package sim

import (
	"hash/fnv"
	"math/rand"
)

// Random stream names. Segment placement draws from StreamPlacement and the
// traffic matrix from StreamTraffic.
const (
	StreamPlacement = "placement"
	StreamTraffic   = "traffic"
)

// Streams gives every random consumer of a run its own generator, all
// derived from the run seed. Drawing more segments therefore never changes
// the traffic volumes of the same seed, and the reverse.
//
// Placement is seeded with the run seed itself so that a seed always puts
// the segments on the same spots; other streams mix in a hash of their name.
// Not safe for concurrent use; each run owns its Streams.
type Streams struct {
	seed    int64
	streams map[string]*rand.Rand
}

// NewStreams returns the streams of the run with the given seed.
func NewStreams(seed int64) *Streams {
	return &Streams{seed: seed, streams: make(map[string]*rand.Rand)}
}

// Stream returns the generator for name, creating it on first use.
func (s *Streams) Stream(name string) *rand.Rand {
	if r, ok := s.streams[name]; ok {
		return r
	}
	seed := s.seed
	if name != StreamPlacement {
		seed ^= nameHash(name)
	}
	r := rand.New(rand.NewSource(seed))
	s.streams[name] = r
	return r
}

// Seed returns the run seed.
func (s *Streams) Seed() int64 { return s.seed }

func nameHash(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}
