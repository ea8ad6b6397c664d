package model

import "encoding/json"

// LatencySample is a single latency observation in milliseconds.
type LatencySample struct {
	Value   float64 `json:"value"`
	NodeID  string  `json:"nodeId,omitempty"`
	ShardID string  `json:"shardId,omitempty"`
	Success bool    `json:"success"`
}

// PercentileSet summarises a latency population. All values are ms.
// For any set derived from samples: Min <= P50 <= P90 <= P95 <= P99 <= Max.
type PercentileSet struct {
	P50 float64 `json:"p50"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Avg float64 `json:"avg"`
	Max float64 `json:"max"`
	Min float64 `json:"min"`
}

// PercentileSource says where a shard's percentiles come from: either
// Authoritative values summarised upstream, or Derived from raw samples.
// A nil PercentileSource behaves as Derived.
type PercentileSource interface {
	percentileSource()
}

// Authoritative carries percentiles that were already computed by the
// source. The aggregator uses them as-is instead of re-deriving.
type Authoritative struct {
	Set PercentileSet
}

// Derived asks the aggregator to compute percentiles from samples.
type Derived struct{}

func (Authoritative) percentileSource() {}
func (Derived) percentileSource()       {}

// ShardObservation is one appearance of a shard in a sampled query window.
type ShardObservation struct {
	ShardID     string
	NodeID      string
	Index       string
	DocCount    int64
	Status      string
	Samples     []LatencySample
	Percentiles PercentileSource
}

// shardObservationWire is the JSON shape of a ShardObservation. A present
// "percentiles" object marks the values as authoritative.
type shardObservationWire struct {
	ShardID     string          `json:"shardId"`
	NodeID      string          `json:"nodeId"`
	Index       string          `json:"index,omitempty"`
	DocCount    int64           `json:"docCount"`
	Status      string          `json:"status,omitempty"`
	Samples     []LatencySample `json:"samples"`
	Percentiles *PercentileSet  `json:"percentiles,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (o ShardObservation) MarshalJSON() ([]byte, error) {
	w := shardObservationWire{
		ShardID:  o.ShardID,
		NodeID:   o.NodeID,
		Index:    o.Index,
		DocCount: o.DocCount,
		Status:   o.Status,
		Samples:  o.Samples,
	}
	switch src := o.Percentiles.(type) {
	case Authoritative:
		set := src.Set
		w.Percentiles = &set
	case *Authoritative:
		if src != nil {
			set := src.Set
			w.Percentiles = &set
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *ShardObservation) UnmarshalJSON(b []byte) error {
	var w shardObservationWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*o = ShardObservation{
		ShardID:     w.ShardID,
		NodeID:      w.NodeID,
		Index:       w.Index,
		DocCount:    w.DocCount,
		Status:      w.Status,
		Samples:     w.Samples,
		Percentiles: Derived{},
	}
	if w.Percentiles != nil {
		o.Percentiles = Authoritative{Set: *w.Percentiles}
	}
	return nil
}

// ShardAggregate is the rollup of every observation sharing a shard id.
type ShardAggregate struct {
	ShardID       string        `json:"shardId"`
	NodeID        string        `json:"nodeId"`
	Index         string        `json:"index,omitempty"`
	Status        string        `json:"status,omitempty"`
	Percentiles   PercentileSet `json:"percentiles"`
	Authoritative bool          `json:"authoritative"`
	SampleCount   int           `json:"sampleCount"`
	Successes     int           `json:"successes"`
	SuccessRate   float64       `json:"successRate"` // percent
	TotalDocCount int64         `json:"totalDocCount"`
	AvgDocCount   float64       `json:"avgDocCount"`
	Observations  int           `json:"observations"`

	// Samples is the concatenated latency pool (ms) across observations.
	Samples []float64 `json:"-"`
}

// NodeHealth classifies a node's aggregate latency and status history.
type NodeHealth string

const (
	HealthHealthy  NodeHealth = "healthy"
	HealthDegraded NodeHealth = "degraded"
	HealthFailed   NodeHealth = "failed"
)

// NodeStatusSample is one point-in-time health probe of a node.
type NodeStatusSample struct {
	NodeID    string `json:"nodeId"`
	Timestamp int64  `json:"timestamp"` // unix ms
	Healthy   bool   `json:"healthy"`
}

// NodeAggregate rolls up every shard hosted on a node.
//
// AvgLatency is the reported latency and is never below the configured
// fraction of MaxShardP99, so a node cannot look healthier than its
// slowest shard's tail.
type NodeAggregate struct {
	NodeID          string        `json:"nodeId"`
	ShardIDs        []string      `json:"shardIds"`
	Percentiles     PercentileSet `json:"percentiles"`
	PoolAvgLatency  float64       `json:"poolAvgLatency"`
	MaxShardP99     float64       `json:"maxShardP99"`
	AvgLatency      float64       `json:"avgLatency"`
	SampleCount     int           `json:"sampleCount"`
	SuccessRate     float64       `json:"successRate"`
	TotalDocCount   int64         `json:"totalDocCount"`
	HealthyFraction float64       `json:"healthyFraction"`
	Health          NodeHealth    `json:"health"`
}

// IndexAggregate rolls up every shard of an index.
type IndexAggregate struct {
	Index         string        `json:"index"`
	ShardCount    int           `json:"shardCount"`
	Percentiles   PercentileSet `json:"percentiles"`
	SampleCount   int           `json:"sampleCount"`
	SuccessRate   float64       `json:"successRate"`
	TotalDocCount int64         `json:"totalDocCount"`
}

// Record is the derived cluster view built from one set of raw shard
// observations. It is constructed once and not modified afterwards.
type Record struct {
	Shards  []ShardAggregate `json:"shards"`
	Nodes   []NodeAggregate  `json:"nodes"`
	Indices []IndexAggregate `json:"indices"`
}
