package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jtsunne/qinsight/internal/model"
)

// maxListedItems caps how many shard or query ids are named in one detail.
const maxListedItems = 5

// CalcRecommendations generates recommendations with the default tunables.
// See Analyzer.CalcRecommendations.
func CalcRecommendations(rec model.Record, anomalies []model.SeriesPoint, queries []model.QueryInsight) []model.Recommendation {
	return defaultAnalyzer.CalcRecommendations(rec, anomalies, queries)
}

// CalcRecommendations generates actionable recommendations from an
// aggregated Record, the detected latency anomalies and the analysed
// queries. Critical items come first; within a severity the order follows
// the rule order below. Returns an empty (non-nil) slice when nothing
// needs attention.
func (a *Analyzer) CalcRecommendations(rec model.Record, anomalies []model.SeriesPoint, queries []model.QueryInsight) []model.Recommendation {
	result := []model.Recommendation{}

	result = append(result, a.nodeHealthRecs(rec.Nodes)...)
	result = append(result, a.successRateRecs(rec.Shards)...)
	result = append(result, a.anomalyRecs(anomalies)...)
	result = append(result, a.queryShapeRecs(queries)...)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Severity > result[j].Severity
	})
	return result
}

// nodeHealthRecs emits one item per failed or degraded node.
func (a *Analyzer) nodeHealthRecs(nodes []model.NodeAggregate) []model.Recommendation {
	var recs []model.Recommendation
	agg := a.cfg.Aggregation
	for _, n := range nodes {
		switch n.Health {
		case model.HealthFailed:
			recs = append(recs, model.Recommendation{
				Severity: model.SeverityCritical,
				Category: model.CategoryNodeHealth,
				Title:    fmt.Sprintf("Node %s failed", n.NodeID),
				Detail: fmt.Sprintf(
					"Node %s reports %.0f ms average latency (worst shard p99 %.0f ms), above the %.0f ms failure threshold. Move its %d shard(s) to other nodes or restart it.",
					n.NodeID, n.AvgLatency, n.MaxShardP99, agg.FailedLatencyMs, len(n.ShardIDs)),
			})
		case model.HealthDegraded:
			detail := fmt.Sprintf(
				"Node %s reports %.0f ms average latency (worst shard p99 %.0f ms), above the %.0f ms degraded threshold.",
				n.NodeID, n.AvgLatency, n.MaxShardP99, agg.DegradedLatencyMs)
			if n.AvgLatency <= agg.DegradedLatencyMs {
				detail = fmt.Sprintf(
					"Node %s passed only %.0f%% of recent health probes (want at least %.0f%%).",
					n.NodeID, n.HealthyFraction*100, agg.HealthyFraction*100)
			}
			recs = append(recs, model.Recommendation{
				Severity: model.SeverityWarning,
				Category: model.CategoryNodeHealth,
				Title:    fmt.Sprintf("Node %s degraded", n.NodeID),
				Detail:   detail,
			})
		}
	}
	return recs
}

// successRateRecs groups shards below the success-rate thresholds. Shards
// without samples have no rate and are skipped.
func (a *Analyzer) successRateRecs(shards []model.ShardAggregate) []model.Recommendation {
	agg := a.cfg.Aggregation
	var critical, warning []model.ShardAggregate
	for _, s := range shards {
		if s.SampleCount == 0 {
			continue
		}
		switch {
		case s.SuccessRate < agg.CriticalSuccessRate:
			critical = append(critical, s)
		case s.SuccessRate < agg.MinSuccessRate:
			warning = append(warning, s)
		}
	}

	var recs []model.Recommendation
	if len(critical) > 0 {
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityCritical,
			Category: model.CategoryShardHealth,
			Title:    "Shards failing most requests",
			Detail: fmt.Sprintf("%d shard(s) below %.0f%% success: %s. Check the hosting nodes for rejections and circuit breaker trips.",
				len(critical), agg.CriticalSuccessRate, shardList(critical)),
		})
	}
	if len(warning) > 0 {
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityWarning,
			Category: model.CategoryShardHealth,
			Title:    "Low shard success rate",
			Detail: fmt.Sprintf("%d shard(s) below %.0f%% success: %s.",
				len(warning), agg.MinSuccessRate, shardList(warning)),
		})
	}
	return recs
}

// shardList names up to maxListedItems shards, worst success rate first.
func shardList(shards []model.ShardAggregate) string {
	sorted := append([]model.ShardAggregate(nil), shards...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SuccessRate < sorted[j].SuccessRate
	})
	var parts []string
	for i, s := range sorted {
		if i == maxListedItems {
			parts = append(parts, fmt.Sprintf("and %d more", len(sorted)-maxListedItems))
			break
		}
		parts = append(parts, fmt.Sprintf("%s (%.1f%%)", s.ShardID, s.SuccessRate))
	}
	return strings.Join(parts, ", ")
}

func (a *Analyzer) anomalyRecs(anomalies []model.SeriesPoint) []model.Recommendation {
	if len(anomalies) == 0 {
		return nil
	}
	worst := anomalies[0]
	for _, p := range anomalies[1:] {
		if p.Value > worst.Value {
			worst = p
		}
	}
	return []model.Recommendation{{
		Severity: model.SeverityWarning,
		Category: model.CategoryLatency,
		Title:    "Latency anomalies detected",
		Detail: fmt.Sprintf("%d point(s) fell outside the rolling ±%.0fσ band over %d samples; worst %.0f ms at %s.",
			len(anomalies), a.cfg.Anomaly.Sigma, a.cfg.Anomaly.Window, worst.Value, worst.Timestamp.Format("15:04:05")),
	}}
}

// queryShapeRecs flags full-scan queries individually and summarises wide
// shard fan-out as an advisory.
func (a *Analyzer) queryShapeRecs(queries []model.QueryInsight) []model.Recommendation {
	var recs []model.Recommendation
	var fanout []string
	threshold := a.cfg.Phases.ShardFanoutThreshold

	for _, q := range queries {
		if q.Signals.ScanType == model.ScanFullScan {
			recs = append(recs, model.Recommendation{
				Severity: model.SeverityWarning,
				Category: model.CategoryQueryShape,
				Title:    fmt.Sprintf("Full scan in query %s", q.Query.ID),
				Detail: fmt.Sprintf("Query %q uses a leading or embedded wildcard and walks the whole term dictionary (%.0f ms). Use a keyword prefix, an n-gram field or the wildcard field type.",
					q.Query.QueryString, q.Query.TotalLatencyMs),
			})
		}
		if q.Signals.ShardCount > threshold {
			fanout = append(fanout, q.Query.ID)
		}
	}

	if len(fanout) > 0 {
		listed := fanout
		suffix := ""
		if len(listed) > maxListedItems {
			suffix = fmt.Sprintf(" and %d more", len(listed)-maxListedItems)
			listed = listed[:maxListedItems]
		}
		recs = append(recs, model.Recommendation{
			Severity: model.SeverityNormal,
			Category: model.CategoryQueryShape,
			Title:    "Wide shard fan-out",
			Detail: fmt.Sprintf("%d query(ies) hit more than %d shards: %s%s. Routing or fewer, larger shards cut coordination cost.",
				len(fanout), threshold, strings.Join(listed, ", "), suffix),
		})
	}
	return recs
}
