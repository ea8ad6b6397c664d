// Package mockdata synthesises demo latency data: random sample pools
// around a base latency with rare spikes, and a small fixed cluster whose
// observations, health probes, latency series and queries are drawn from
// them.
package mockdata

import (
	"math"
	"math/rand"
)

// Spike multipliers applied to a sample chosen as a spike.
const (
	minSpikeFactor = 3.0
	maxSpikeFactor = 6.0
	floorMs        = 1.0
	ceilingFactor  = 10.0
)

// Latencies returns n samples of base ± uniform(variance) ms. With
// probability spikeRate a sample is multiplied by a factor in [3, 6).
// Every value is clamped to [1, base*10] (the ceiling never drops below
// the floor). n <= 0 returns an empty slice.
func Latencies(rng *rand.Rand, base, variance float64, n int, spikeRate float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	ceiling := math.Max(floorMs, base*ceilingFactor)

	out := make([]float64, n)
	for i := range out {
		v := base + (rng.Float64()*2-1)*variance
		if spikeRate > 0 && rng.Float64() < spikeRate {
			v *= minSpikeFactor + rng.Float64()*(maxSpikeFactor-minSpikeFactor)
		}
		out[i] = math.Min(math.Max(v, floorMs), ceiling)
	}
	return out
}
