package mockdata

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jtsunne/qinsight/internal/model"
)

// nodeProfile describes one demo node. The last node is deliberately slow
// and flaky so the dashboard has something to point at.
type nodeProfile struct {
	id          string
	baseMs      float64
	varianceMs  float64
	spikeRate   float64
	failureRate float64
	unhealthy   float64 // probability a status probe fails
}

var demoNodes = []nodeProfile{
	{id: "es-node-1", baseMs: 45, varianceMs: 20, spikeRate: 0.01, failureRate: 0.005},
	{id: "es-node-2", baseMs: 60, varianceMs: 25, spikeRate: 0.02, failureRate: 0.01},
	{id: "es-node-3", baseMs: 900, varianceMs: 400, spikeRate: 0.08, failureRate: 0.08, unhealthy: 0.3},
}

type indexProfile struct {
	name     string
	shards   int
	docCount int64
}

var demoIndices = []indexProfile{
	{name: "logs-2024.06", shards: 3, docCount: 1_200_000},
	{name: "metrics", shards: 2, docCount: 400_000},
	{name: "orders", shards: 1, docCount: 85_000},
}

const (
	windowsPerShard = 3
	samplesPerWin   = 20
)

// Cluster builds one observation per shard copy per query window for the
// demo cluster: every index has primaries and one replica, placed on
// different nodes.
func Cluster(rng *rand.Rand) []model.ShardObservation {
	var out []model.ShardObservation
	slot := 0
	for _, idx := range demoIndices {
		for shard := 0; shard < idx.shards; shard++ {
			for copyNo, kind := range []string{"p", "r"} {
				node := demoNodes[(slot+copyNo)%len(demoNodes)]
				shardID := fmt.Sprintf("%s[%d]%s", idx.name, shard, kind)
				for w := 0; w < windowsPerShard; w++ {
					out = append(out, model.ShardObservation{
						ShardID:     shardID,
						NodeID:      node.id,
						Index:       idx.name,
						DocCount:    idx.docCount / int64(idx.shards),
						Status:      "STARTED",
						Samples:     samplesFor(rng, node),
						Percentiles: model.Derived{},
					})
				}
			}
			slot++
		}
	}
	return out
}

func samplesFor(rng *rand.Rand, node nodeProfile) []model.LatencySample {
	values := Latencies(rng, node.baseMs, node.varianceMs, samplesPerWin, node.spikeRate)
	out := make([]model.LatencySample, len(values))
	for i, v := range values {
		out[i] = model.LatencySample{
			Value:   v,
			NodeID:  node.id,
			Success: rng.Float64() >= node.failureRate,
		}
	}
	return out
}

// NodeStatus returns n health probes per demo node, spaced by step and
// ending at now.
func NodeStatus(rng *rand.Rand, now time.Time, n int, step time.Duration) []model.NodeStatusSample {
	out := make([]model.NodeStatusSample, 0, n*len(demoNodes))
	for _, node := range demoNodes {
		for i := 0; i < n; i++ {
			ts := now.Add(-time.Duration(n-1-i) * step)
			out = append(out, model.NodeStatusSample{
				NodeID:    node.id,
				Timestamp: ts.UnixMilli(),
				Healthy:   rng.Float64() >= node.unhealthy,
			})
		}
	}
	return out
}

// Series returns n cluster latency points spaced by step and ending at
// now, with rare spikes.
func Series(rng *rand.Rand, now time.Time, n int, step time.Duration) []model.SeriesPoint {
	values := Latencies(rng, 120, 15, n, 0.04)
	out := make([]model.SeriesPoint, len(values))
	for i, v := range values {
		out[i] = model.SeriesPoint{
			Timestamp: now.Add(-time.Duration(n-1-i) * step),
			Value:     v,
		}
	}
	return out
}

// queryTemplate is a recurring query; latency is drawn around baseMs.
type queryTemplate struct {
	index        string
	query        string
	nested       bool
	script       bool
	aggregations int
	size         int
	sort         []string
	shards       int
	baseMs       float64
}

var demoQueries = []queryTemplate{
	{index: "orders", query: "customer_id:4711", size: 10, shards: 1, baseMs: 12},
	{index: "logs-2024.06", query: "level:error AND service:checkout", size: 50, sort: []string{"@timestamp"}, shards: 3, baseMs: 85},
	{index: "logs-2024.06", query: "message:*timeout*", size: 200, shards: 3, baseMs: 640},
	{index: "metrics", query: "host:web-*", aggregations: 2, size: 0, shards: 2, baseMs: 150},
	{index: "logs-*", query: "trace.id:* AND span.kind:server", nested: true, aggregations: 1, size: 500, sort: []string{"duration"}, shards: 12, baseMs: 1200},
	{index: "orders", query: "status:pending", script: true, size: 20, shards: 1, baseMs: 60},
}

// Queries returns one recent query per template. The first running
// queries started within the last second and are still in flight.
func Queries(rng *rand.Rand, now time.Time, running int) []model.QueryShape {
	out := make([]model.QueryShape, len(demoQueries))
	for i, q := range demoQueries {
		latency := Latencies(rng, q.baseMs, q.baseMs*0.3, 1, 0.05)[0]
		out[i] = model.QueryShape{
			ID:             fmt.Sprintf("q-%03d", i+1),
			Index:          q.index,
			QueryString:    q.query,
			HasNested:      q.nested,
			HasScript:      q.script,
			Aggregations:   q.aggregations,
			Size:           q.size,
			SortFields:     q.sort,
			ShardCount:     q.shards,
			TotalLatencyMs: latency,
			StartedAt:      now.Add(-time.Duration(latency) * time.Millisecond),
			Running:        i < running,
		}
	}
	return out
}
