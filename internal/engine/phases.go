package engine

import (
	"strings"

	"github.com/jtsunne/qinsight/internal/config"
	"github.com/jtsunne/qinsight/internal/model"
)

// phaseInfo is the static presentation data for each execution phase, in
// waterfall order.
var phaseInfo = [5]struct {
	name, label, color, description string
}{
	{"parse", "Parsing", "#8b5cf6", "Parse the request body and query DSL"},
	{"plan", "Planning", "#6366f1", "Rewrite the query and build per-shard execution"},
	{"query", "Query", "#3b82f6", "Match and score documents on every target shard"},
	{"fetch", "Fetch", "#06b6d4", "Load stored fields and _source for the top hits"},
	{"reduce", "Reduce", "#f97316", "Merge shard results, sort and reduce aggregations"},
}

// PhaseNames returns the phase names in waterfall order.
func PhaseNames() []string {
	names := make([]string, len(phaseInfo))
	for i, p := range phaseInfo {
		names[i] = p.name
	}
	return names
}

// AllocatePhases splits totalLatency across the five execution phases using
// the default tunables. See Analyzer.AllocatePhases.
func AllocatePhases(totalLatency float64, sig model.QueryComplexitySignals) []model.ExecutionPhase {
	return defaultAnalyzer.AllocatePhases(totalLatency, sig)
}

// AllocatePhases splits totalLatency (ms) into parse, plan, query, fetch and
// reduce phases.
//
// The split is a heuristic estimate for visualisation, not a profiler
// trace: base fractions receive additive adjustments for each signal that
// fires, every fraction is floored at a small positive minimum, and the
// result is renormalised so the five durations sum to totalLatency. Phases
// are contiguous: StartTime[i+1] == StartTime[i] + Duration[i].
// A non-positive total yields five zero-length phases.
func (a *Analyzer) AllocatePhases(totalLatency float64, sig model.QueryComplexitySignals) []model.ExecutionPhase {
	fractions := a.phaseFractions(sig)

	var sum float64
	for _, f := range fractions {
		sum += f
	}

	total := totalLatency
	if !(total > 0) {
		total = 0
	}

	phases := make([]model.ExecutionPhase, len(phaseInfo))
	var start float64
	for i, info := range phaseInfo {
		d := total * fractions[i] / sum
		if i == len(phaseInfo)-1 {
			// last phase absorbs floating-point drift
			d = total - start
		}
		phases[i] = model.ExecutionPhase{
			Name:        info.name,
			Label:       info.label,
			Duration:    d,
			StartTime:   start,
			Color:       info.color,
			Description: info.description,
		}
		start += d
	}
	return phases
}

// phaseFractions returns the adjusted, floored (but not yet normalised)
// fraction for each phase.
func (a *Analyzer) phaseFractions(sig model.QueryComplexitySignals) [5]float64 {
	p := a.cfg.Phases
	w := p.Base

	switch sig.Level {
	case model.ComplexityModerate:
		w = w.Add(p.ModerateQuery)
	case model.ComplexityComplex:
		w = w.Add(p.ComplexQuery)
	}
	if sig.ShardCount > p.ShardFanoutThreshold {
		w = w.Add(p.ShardFanout)
	}
	if sig.ResultSize > p.LargeResultSize {
		w = w.Add(p.LargeResult)
	}
	if sig.HasAggregations {
		w = w.Add(p.Aggregations)
	}
	if sig.HasSort {
		w = w.Add(p.Sort)
	}
	if sig.ScanType == model.ScanFullScan {
		w = w.Add(p.FullScan)
	}

	fractions := w.Values()
	for i := range fractions {
		if fractions[i] < p.MinFraction {
			fractions[i] = p.MinFraction
		}
	}
	return fractions
}

// DeriveSignals extracts complexity signals from a query's structure.
//
// A term that starts with a wildcard ("*foo", "?oo") or has one before its
// last character ("fo*o") cannot use the term index and marks the query as
// a full scan; a trailing-only wildcard ("foo*") is a prefix lookup and
// only sets HasWildcard. The complexity level counts wildcard, nested,
// script and aggregation features: none is simple, one is moderate, more
// is complex.
func DeriveSignals(shape model.QueryShape) model.QueryComplexitySignals {
	hasWildcard, fullScan := scanWildcards(shape.QueryString)

	sig := model.QueryComplexitySignals{
		ShardCount:      shape.ShardCount,
		ResultSize:      shape.Size,
		HasAggregations: shape.Aggregations > 0,
		HasSort:         len(shape.SortFields) > 0,
		HasWildcard:     hasWildcard,
		HasNested:       shape.HasNested,
		HasScript:       shape.HasScript,
		ScanType:        model.ScanIndex,
	}
	if fullScan {
		sig.ScanType = model.ScanFullScan
	}

	features := 0
	for _, on := range []bool{sig.HasWildcard, sig.HasNested, sig.HasScript, sig.HasAggregations} {
		if on {
			features++
		}
	}
	switch {
	case features >= 2:
		sig.Level = model.ComplexityComplex
	case features == 1:
		sig.Level = model.ComplexityModerate
	default:
		sig.Level = model.ComplexitySimple
	}
	return sig
}

// scanWildcards inspects every term of a query-string query.
func scanWildcards(q string) (hasWildcard, fullScan bool) {
	for _, term := range strings.Fields(q) {
		// field:value, keep the value part
		if i := strings.LastIndexByte(term, ':'); i >= 0 {
			term = term[i+1:]
		}
		term = strings.Trim(term, `+-()"!`)
		if term == "" || term == "*" {
			// match-all, not a wildcard term lookup
			continue
		}
		pos := strings.IndexAny(term, "*?")
		if pos < 0 {
			continue
		}
		hasWildcard = true
		if pos < len(term)-1 {
			fullScan = true
		}
	}
	return hasWildcard, fullScan
}

// phaseConfigNames maps config weights to phase names for display.
func phaseConfigNames(w config.PhaseWeights) map[string]float64 {
	v := w.Values()
	out := make(map[string]float64, len(v))
	for i, info := range phaseInfo {
		out[info.name] = v[i]
	}
	return out
}

// BaseFractions reports the configured base fraction per phase name.
func (a *Analyzer) BaseFractions() map[string]float64 {
	return phaseConfigNames(a.cfg.Phases.Base)
}
