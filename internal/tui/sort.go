package tui

import (
	"sort"
	"strings"

	"github.com/jtsunne/qinsight/internal/model"
)

// healthRank orders health classes from best to worst.
func healthRank(h model.NodeHealth) int {
	switch h {
	case model.HealthHealthy:
		return 0
	case model.HealthDegraded:
		return 1
	case model.HealthFailed:
		return 2
	default:
		return -1
	}
}

// sortByKey returns a sorted copy of rows. Text columns compare name
// case-insensitively; other columns compare the numeric key. Ties are broken
// by name ascending regardless of direction. col -1 preserves order.
func sortByKey[T any](rows []T, col int, desc bool, name func(T) string, text func(T, int) (string, bool), num func(T, int) float64) []T {
	out := make([]T, len(rows))
	copy(out, rows)

	if col < 0 {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		var less bool
		if sa, ok := text(a, col); ok {
			sb, _ := text(b, col)
			sa, sb = strings.ToLower(sa), strings.ToLower(sb)
			if sa == sb {
				return strings.ToLower(name(a)) < strings.ToLower(name(b))
			}
			less = sa < sb
		} else {
			ka, kb := num(a, col), num(b, col)
			if ka == kb {
				return strings.ToLower(name(a)) < strings.ToLower(name(b))
			}
			less = ka < kb
		}
		if desc {
			return !less
		}
		return less
	})
	return out
}

// sortNodeRows returns a sorted copy of rows.
// Column mapping:
//
//	0=Node, 1=Health, 2=Shards, 3=AvgLatency, 4=P50, 5=P99,
//	6=MaxShardP99, 7=SuccessRate, 8=HealthyFraction
func sortNodeRows(rows []model.NodeAggregate, col int, desc bool) []model.NodeAggregate {
	return sortByKey(rows, col, desc,
		func(n model.NodeAggregate) string { return n.NodeID },
		func(n model.NodeAggregate, col int) (string, bool) {
			if col == 0 {
				return n.NodeID, true
			}
			return "", false
		},
		func(n model.NodeAggregate, col int) float64 {
			switch col {
			case 1:
				return float64(healthRank(n.Health))
			case 2:
				return float64(len(n.ShardIDs))
			case 3:
				return n.AvgLatency
			case 4:
				return n.Percentiles.P50
			case 5:
				return n.Percentiles.P99
			case 6:
				return n.MaxShardP99
			case 7:
				return n.SuccessRate
			case 8:
				return n.HealthyFraction
			default:
				return 0
			}
		})
}

// sortShardRows returns a sorted copy of rows.
// Column mapping:
//
//	0=Shard, 1=Index, 2=Node, 3=P50, 4=P95, 5=P99,
//	6=Samples, 7=SuccessRate, 8=TotalDocCount
func sortShardRows(rows []model.ShardAggregate, col int, desc bool) []model.ShardAggregate {
	return sortByKey(rows, col, desc,
		func(s model.ShardAggregate) string { return s.ShardID },
		func(s model.ShardAggregate, col int) (string, bool) {
			switch col {
			case 0:
				return s.ShardID, true
			case 1:
				return s.Index, true
			case 2:
				return s.NodeID, true
			default:
				return "", false
			}
		},
		func(s model.ShardAggregate, col int) float64 {
			switch col {
			case 3:
				return s.Percentiles.P50
			case 4:
				return s.Percentiles.P95
			case 5:
				return s.Percentiles.P99
			case 6:
				return float64(s.SampleCount)
			case 7:
				return s.SuccessRate
			case 8:
				return float64(s.TotalDocCount)
			default:
				return 0
			}
		})
}

// filterNodeRows returns rows whose NodeID or Health contains search
// (case-insensitive). Returns all rows when search is empty.
func filterNodeRows(rows []model.NodeAggregate, search string) []model.NodeAggregate {
	if search == "" {
		return rows
	}
	lower := strings.ToLower(search)
	out := rows[:0:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.NodeID), lower) ||
			strings.Contains(string(r.Health), lower) {
			out = append(out, r)
		}
	}
	return out
}

// filterShardRows returns rows whose ShardID, Index or NodeID contains
// search (case-insensitive). Returns all rows when search is empty.
func filterShardRows(rows []model.ShardAggregate, search string) []model.ShardAggregate {
	if search == "" {
		return rows
	}
	lower := strings.ToLower(search)
	out := rows[:0:0]
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.ShardID), lower) ||
			strings.Contains(strings.ToLower(r.Index), lower) ||
			strings.Contains(strings.ToLower(r.NodeID), lower) {
			out = append(out, r)
		}
	}
	return out
}
