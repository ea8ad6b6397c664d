// Package stats holds the small numeric helpers behind every latency view:
// interpolated percentiles, means and population standard deviation.
// Every function is total: empty input yields zero rather than an error.
package stats

import (
	"math"
	"sort"

	"github.com/jtsunne/qinsight/internal/model"
)

// Percentile returns the p-th percentile (0 <= p <= 1) of samples using
// linear interpolation between order statistics, the same method as
// NumPy's default. samples need not be sorted and is not modified.
// Returns 0 for an empty slice; p outside [0, 1] is clamped.
func Percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	return percentileSorted(sortedCopy(samples), p)
}

// percentileSorted is Percentile over an already ascending slice.
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	switch {
	case math.IsNaN(p) || p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if hi >= n {
		return sorted[n-1]
	}
	w := idx - float64(lo)
	if w == 0 || sorted[lo] == sorted[hi] {
		return sorted[lo]
	}
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Summarize computes the full PercentileSet of samples with a single sort.
// An empty slice yields the zero set.
func Summarize(samples []float64) model.PercentileSet {
	if len(samples) == 0 {
		return model.PercentileSet{}
	}
	sorted := sortedCopy(samples)
	return model.PercentileSet{
		P50: percentileSorted(sorted, 0.50),
		P90: percentileSorted(sorted, 0.90),
		P95: percentileSorted(sorted, 0.95),
		P99: percentileSorted(sorted, 0.99),
		Avg: Mean(sorted),
		Max: sorted[len(sorted)-1],
		Min: sorted[0],
	}
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopStdDev returns the population standard deviation (divide by n).
func PopStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}

// MeanStdDev returns both the mean and population standard deviation.
func MeanStdDev(values []float64) (mean, stddev float64) {
	return Mean(values), PopStdDev(values)
}

func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
