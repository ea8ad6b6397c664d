package engine

import (
	"math"
	"sort"

	"github.com/jtsunne/qinsight/internal/model"
	"github.com/jtsunne/qinsight/internal/stats"
)

// shardAcc accumulates every observation of one shard.
type shardAcc struct {
	agg    model.ShardAggregate
	docSum int64
	known  *model.PercentileSet // last authoritative set seen, if any
}

// authoritativeSet unwraps an Authoritative source. Derived and nil
// sources report ok=false.
func authoritativeSet(src model.PercentileSource) (model.PercentileSet, bool) {
	switch s := src.(type) {
	case model.Authoritative:
		return s.Set, true
	case *model.Authoritative:
		if s != nil {
			return s.Set, true
		}
	}
	return model.PercentileSet{}, false
}

// AggregateShards groups observations by shard id and summarises each
// group's concatenated sample pool. Percentiles supplied authoritatively by
// the source are used as-is; when several appearances carry them, the last
// one wins. Shards with no samples yield zero-valued statistics.
//
// A ShardID names one shard copy on one node. If the same id is reported
// from several nodes, the latest non-empty NodeID owns the whole pool, so
// node rollups credit every sample to that node.
// The result is sorted by ShardID.
func AggregateShards(obs []model.ShardObservation) []model.ShardAggregate {
	accs := make(map[string]*shardAcc)
	var ids []string

	for _, o := range obs {
		acc, ok := accs[o.ShardID]
		if !ok {
			acc = &shardAcc{agg: model.ShardAggregate{ShardID: o.ShardID}}
			accs[o.ShardID] = acc
			ids = append(ids, o.ShardID)
		}
		// Latest appearance decides placement and status.
		if o.NodeID != "" {
			acc.agg.NodeID = o.NodeID
		}
		if o.Index != "" {
			acc.agg.Index = o.Index
		}
		if o.Status != "" {
			acc.agg.Status = o.Status
		}
		acc.agg.Observations++
		acc.docSum += o.DocCount

		for _, s := range o.Samples {
			acc.agg.Samples = append(acc.agg.Samples, s.Value)
			if s.Success {
				acc.agg.Successes++
			}
		}
		if set, ok := authoritativeSet(o.Percentiles); ok {
			acc.known = &set
		}
	}

	sort.Strings(ids)
	out := make([]model.ShardAggregate, 0, len(ids))
	for _, id := range ids {
		acc := accs[id]
		agg := acc.agg
		agg.SampleCount = len(agg.Samples)
		if acc.known != nil {
			agg.Percentiles = *acc.known
			agg.Authoritative = true
		} else {
			agg.Percentiles = stats.Summarize(agg.Samples)
		}
		agg.SuccessRate = safeDivide(float64(agg.Successes), float64(agg.SampleCount)) * 100
		agg.TotalDocCount = acc.docSum
		agg.AvgDocCount = safeDivide(float64(acc.docSum), float64(agg.Observations))
		out = append(out, agg)
	}
	return out
}

// AggregateNodes rolls shard aggregates up per node using the default
// tunables. See Analyzer.AggregateNodes.
func AggregateNodes(shards []model.ShardAggregate, status []model.NodeStatusSample) []model.NodeAggregate {
	return defaultAnalyzer.AggregateNodes(shards, status)
}

// AggregateNodes groups shards by NodeID, pools their samples and derives
// the node's PercentileSet. The reported AvgLatency is
//
//	max(poolAvg, NodeFloorFactor * max(shard.P99))
//
// so a node never reads healthier than its worst shard tail. Shards without
// a node id are skipped. The result is sorted by NodeID.
func (a *Analyzer) AggregateNodes(shards []model.ShardAggregate, status []model.NodeStatusSample) []model.NodeAggregate {
	byNode := make(map[string][]model.ShardAggregate)
	var ids []string
	for _, s := range shards {
		if s.NodeID == "" {
			continue
		}
		if _, ok := byNode[s.NodeID]; !ok {
			ids = append(ids, s.NodeID)
		}
		byNode[s.NodeID] = append(byNode[s.NodeID], s)
	}

	type probeCount struct{ healthy, total int }
	probes := make(map[string]probeCount)
	for _, st := range status {
		pc := probes[st.NodeID]
		pc.total++
		if st.Healthy {
			pc.healthy++
		}
		probes[st.NodeID] = pc
	}

	sort.Strings(ids)
	out := make([]model.NodeAggregate, 0, len(ids))
	for _, id := range ids {
		group := byNode[id]

		var pool []float64
		var successes int
		var docs int64
		var maxP99 float64
		shardIDs := make([]string, 0, len(group))
		for _, s := range group {
			pool = append(pool, s.Samples...)
			successes += s.Successes
			docs += s.TotalDocCount
			maxP99 = math.Max(maxP99, s.Percentiles.P99)
			shardIDs = append(shardIDs, s.ShardID)
		}

		pct := stats.Summarize(pool)
		avg := math.Max(pct.Avg, a.cfg.Aggregation.NodeFloorFactor*maxP99)

		healthyFraction := 1.0
		if pc := probes[id]; pc.total > 0 {
			healthyFraction = float64(pc.healthy) / float64(pc.total)
		}

		out = append(out, model.NodeAggregate{
			NodeID:          id,
			ShardIDs:        shardIDs,
			Percentiles:     pct,
			PoolAvgLatency:  pct.Avg,
			MaxShardP99:     maxP99,
			AvgLatency:      avg,
			SampleCount:     len(pool),
			SuccessRate:     safeDivide(float64(successes), float64(len(pool))) * 100,
			TotalDocCount:   docs,
			HealthyFraction: healthyFraction,
			Health:          a.classifyHealth(avg, healthyFraction),
		})
	}
	return out
}

// classifyHealth maps a node's reported latency and healthy-probe share to
// a NodeHealth.
func (a *Analyzer) classifyHealth(avgLatency, healthyFraction float64) model.NodeHealth {
	agg := a.cfg.Aggregation
	switch {
	case avgLatency > agg.FailedLatencyMs:
		return model.HealthFailed
	case avgLatency > agg.DegradedLatencyMs:
		return model.HealthDegraded
	case healthyFraction >= agg.HealthyFraction:
		return model.HealthHealthy
	default:
		return model.HealthDegraded
	}
}

// AggregateIndices rolls shard aggregates up per index name. Shards without
// an index are skipped. The result is sorted by Index.
func AggregateIndices(shards []model.ShardAggregate) []model.IndexAggregate {
	byIndex := make(map[string][]model.ShardAggregate)
	var names []string
	for _, s := range shards {
		if s.Index == "" {
			continue
		}
		if _, ok := byIndex[s.Index]; !ok {
			names = append(names, s.Index)
		}
		byIndex[s.Index] = append(byIndex[s.Index], s)
	}

	sort.Strings(names)
	out := make([]model.IndexAggregate, 0, len(names))
	for _, name := range names {
		var pool []float64
		var successes int
		var docs int64
		for _, s := range byIndex[name] {
			pool = append(pool, s.Samples...)
			successes += s.Successes
			docs += s.TotalDocCount
		}
		out = append(out, model.IndexAggregate{
			Index:         name,
			ShardCount:    len(byIndex[name]),
			Percentiles:   stats.Summarize(pool),
			SampleCount:   len(pool),
			SuccessRate:   safeDivide(float64(successes), float64(len(pool))) * 100,
			TotalDocCount: docs,
		})
	}
	return out
}

// BuildRecord derives the full shard, node and index view from raw
// observations with the default tunables.
func BuildRecord(obs []model.ShardObservation, status []model.NodeStatusSample) model.Record {
	return defaultAnalyzer.BuildRecord(obs, status)
}

// BuildRecord derives the full shard, node and index view from raw
// observations. Inputs are not modified; every derived field is computed
// here once.
func (a *Analyzer) BuildRecord(obs []model.ShardObservation, status []model.NodeStatusSample) model.Record {
	shards := AggregateShards(obs)
	return model.Record{
		Shards:  shards,
		Nodes:   a.AggregateNodes(shards, status),
		Indices: AggregateIndices(shards),
	}
}
