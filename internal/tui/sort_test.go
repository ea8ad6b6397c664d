package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jtsunne/qinsight/internal/model"
)

func nodeIDs(rows []model.NodeAggregate) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.NodeID
	}
	return out
}

func shardIDs(rows []model.ShardAggregate) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ShardID
	}
	return out
}

func TestSortNodeRows(t *testing.T) {
	rows := []model.NodeAggregate{
		{NodeID: "b", Health: model.HealthFailed, AvgLatency: 9000, ShardIDs: []string{"x"}},
		{NodeID: "A", Health: model.HealthHealthy, AvgLatency: 100, ShardIDs: []string{"x", "y", "z"}},
		{NodeID: "c", Health: model.HealthDegraded, AvgLatency: 100, ShardIDs: []string{"x", "y"}},
	}

	tests := []struct {
		name string
		col  int
		desc bool
		want []string
	}{
		{"unsorted keeps order", -1, false, []string{"b", "A", "c"}},
		{"name ascending is case-insensitive", 0, false, []string{"A", "b", "c"}},
		{"name descending", 0, true, []string{"c", "b", "A"}},
		{"health worst first", 1, true, []string{"b", "c", "A"}},
		{"shard count ascending", 2, false, []string{"b", "c", "A"}},
		{"latency ties broken by name ascending", 3, true, []string{"b", "A", "c"}},
		{"latency ascending", 3, false, []string{"A", "c", "b"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sortNodeRows(rows, tc.col, tc.desc)
			assert.Equal(t, tc.want, nodeIDs(got))
		})
	}
	// Input is not reordered.
	assert.Equal(t, []string{"b", "A", "c"}, nodeIDs(rows))
}

func TestSortShardRows(t *testing.T) {
	rows := []model.ShardAggregate{
		{ShardID: "s1", Index: "orders", NodeID: "n2", Percentiles: model.PercentileSet{P99: 10}, SampleCount: 5, TotalDocCount: 300},
		{ShardID: "s2", Index: "logs", NodeID: "n1", Percentiles: model.PercentileSet{P99: 30}, SampleCount: 50, TotalDocCount: 100},
		{ShardID: "s3", Index: "metrics", NodeID: "n3", Percentiles: model.PercentileSet{P99: 20}, SampleCount: 20, TotalDocCount: 200},
	}

	assert.Equal(t, []string{"s2", "s3", "s1"}, shardIDs(sortShardRows(rows, 1, false)))
	assert.Equal(t, []string{"s2", "s1", "s3"}, shardIDs(sortShardRows(rows, 2, false)))
	assert.Equal(t, []string{"s2", "s3", "s1"}, shardIDs(sortShardRows(rows, 5, true)))
	assert.Equal(t, []string{"s1", "s3", "s2"}, shardIDs(sortShardRows(rows, 6, false)))
	assert.Equal(t, []string{"s1", "s3", "s2"}, shardIDs(sortShardRows(rows, 8, true)))
}

func TestFilterNodeRows(t *testing.T) {
	rows := []model.NodeAggregate{
		{NodeID: "es-node-1", Health: model.HealthHealthy},
		{NodeID: "es-node-2", Health: model.HealthDegraded},
	}
	assert.Len(t, filterNodeRows(rows, ""), 2)
	assert.Equal(t, []string{"es-node-2"}, nodeIDs(filterNodeRows(rows, "NODE-2")))
	assert.Equal(t, []string{"es-node-2"}, nodeIDs(filterNodeRows(rows, "degr")))
	assert.Empty(t, filterNodeRows(rows, "zzz"))
}

func TestFilterShardRows(t *testing.T) {
	rows := []model.ShardAggregate{
		{ShardID: "logs[0]p", Index: "logs", NodeID: "es-node-1"},
		{ShardID: "orders[0]r", Index: "orders", NodeID: "es-node-2"},
	}
	assert.Equal(t, []string{"orders[0]r"}, shardIDs(filterShardRows(rows, "ORDERS")))
	assert.Equal(t, []string{"logs[0]p"}, shardIDs(filterShardRows(rows, "node-1")))
	assert.Equal(t, []string{"logs[0]p"}, shardIDs(filterShardRows(rows, "[0]p")))
}
