package engine

import (
	"github.com/jtsunne/qinsight/internal/model"
	"github.com/jtsunne/qinsight/internal/stats"
)

// maxLatencyMs bounds sample values fed into the cluster-wide summary so a
// single corrupt reading cannot dominate the overview.
const maxLatencyMs = 300_000.0

// clampLatency caps l at maxLatencyMs and floors it at 0.
func clampLatency(l float64) float64 {
	switch {
	case l > maxLatencyMs:
		return maxLatencyMs
	case l < 0:
		return 0
	}
	return l
}

// CalcOverview summarises a Record for the overview cards: the latency
// distribution over every shard sample, the overall success rate and the
// node health breakdown.
//
// Returns a zero ClusterOverview (all zero percentiles) when rec has no
// shards.
func CalcOverview(rec model.Record, anomalies []model.SeriesPoint, queries []model.QueryShape) model.ClusterOverview {
	var pool []float64
	var successes int
	for _, s := range rec.Shards {
		for _, v := range s.Samples {
			pool = append(pool, clampLatency(v))
		}
		successes += s.Successes
	}

	ov := model.ClusterOverview{
		Latency:      stats.Summarize(pool),
		SampleCount:  len(pool),
		SuccessRate:  safeDivide(float64(successes), float64(len(pool))) * 100,
		ShardCount:   len(rec.Shards),
		IndexCount:   len(rec.Indices),
		NodeCount:    len(rec.Nodes),
		AnomalyCount: len(anomalies),
	}

	for _, n := range rec.Nodes {
		switch n.Health {
		case model.HealthFailed:
			ov.FailedNodes++
		case model.HealthDegraded:
			ov.DegradedNodes++
		default:
			ov.HealthyNodes++
		}
	}
	for _, q := range queries {
		if q.Running {
			ov.RunningQueries++
		}
	}
	return ov
}
