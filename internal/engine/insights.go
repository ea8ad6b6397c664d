package engine

import (
	"time"

	"github.com/jtsunne/qinsight/internal/model"
)

// Analyze derives Insights from a snapshot with the default tunables.
func Analyze(snap *model.Snapshot) model.Insights {
	return defaultAnalyzer.Analyze(snap)
}

// Analyze runs every derivation over one snapshot: the shard, node and
// index record, the cluster overview, latency anomalies and bands, a phase
// waterfall per query and the recommendations. A nil snapshot yields empty
// (non-nil) collections.
func (a *Analyzer) Analyze(snap *model.Snapshot) model.Insights {
	if snap == nil {
		snap = &model.Snapshot{}
	}

	rec := a.BuildRecord(snap.Observations, snap.NodeStatus)
	anomalies := a.DetectAnomalies(snap.Series, 0)
	bands := a.AnomalyBands(snap.Series, 0)

	queries := make([]model.QueryInsight, 0, len(snap.Queries))
	for _, q := range snap.Queries {
		sig := DeriveSignals(q)
		queries = append(queries, model.QueryInsight{
			Query:   q,
			Signals: sig,
			Phases:  a.AllocatePhases(q.TotalLatencyMs, sig),
		})
	}

	generated := snap.FetchedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	return model.Insights{
		Record:          rec,
		Overview:        CalcOverview(rec, anomalies, snap.Queries),
		Anomalies:       anomalies,
		Bands:           bands,
		Queries:         queries,
		Recommendations: a.CalcRecommendations(rec, anomalies, queries),
		GeneratedAt:     generated,
	}
}
