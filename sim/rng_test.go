package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStreams_SameSeedSameValues(t *testing.T) {
	a, b := NewStreams(42), NewStreams(42)
	for i := 0; i < 3; i++ {
		assert.Equal(t, a.Stream(StreamTraffic).Float64(), b.Stream(StreamTraffic).Float64(), "draw %d", i)
	}
}

func TestStreams_PlacementDrawsDoNotShiftTraffic(t *testing.T) {
	// GIVEN two runs with the same seed
	a, b := NewStreams(42), NewStreams(42)

	// WHEN one places ten more segments before sampling traffic
	for i := 0; i < 10; i++ {
		a.Stream(StreamPlacement).Float64()
	}

	// THEN both see the same first traffic volume
	assert.Equal(t, b.Stream(StreamTraffic).Float64(), a.Stream(StreamTraffic).Float64())
}

func TestStreams_PlacementUsesRunSeed(t *testing.T) {
	placement := NewStreams(7).Stream(StreamPlacement)
	direct := rand.New(rand.NewSource(7))
	for i := 0; i < 5; i++ {
		assert.Equal(t, direct.Float64(), placement.Float64(), "draw %d", i)
	}
}

func TestStreams_StreamIsCached(t *testing.T) {
	s := NewStreams(1)
	assert.Same(t, s.Stream(StreamTraffic), s.Stream(StreamTraffic))
	assert.Len(t, s.streams, 1)
	assert.Equal(t, int64(1), s.Seed())
}

func TestNameHash_DistinctStreams(t *testing.T) {
	assert.NotEqual(t, nameHash(StreamPlacement), nameHash(StreamTraffic))
}
