package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtsunne/qinsight/internal/config"
	"github.com/jtsunne/qinsight/internal/model"
)

func requireContiguous(t *testing.T, total float64, phases []model.ExecutionPhase) {
	t.Helper()
	require.Len(t, phases, 5)
	var sum float64
	for i, p := range phases {
		assert.GreaterOrEqual(t, p.Duration, 0.0, "phase %s", p.Name)
		if i == 0 {
			assert.Equal(t, 0.0, p.StartTime)
		} else {
			prev := phases[i-1]
			assert.InDelta(t, prev.StartTime+prev.Duration, p.StartTime, 1e-9, "phase %s start", p.Name)
		}
		sum += p.Duration
	}
	assert.InDelta(t, total, sum, 1e-6)
}

func TestAllocatePhases_SimpleQuery(t *testing.T) {
	sig := DeriveSignals(model.QueryShape{QueryString: "status:200", Size: 10, ShardCount: 3})
	require.Equal(t, model.ComplexitySimple, sig.Level)

	phases := AllocatePhases(1000, sig)
	requireContiguous(t, 1000, phases)

	assert.Equal(t, PhaseNames(), []string{"parse", "plan", "query", "fetch", "reduce"})
	for i, name := range PhaseNames() {
		assert.Equal(t, name, phases[i].Name)
		assert.NotEmpty(t, phases[i].Label)
		assert.NotEmpty(t, phases[i].Color)
	}
	assert.InDelta(t, 30.0, phases[0].Duration, 1e-9)
	assert.InDelta(t, 70.0, phases[1].Duration, 1e-9)
	assert.InDelta(t, 500.0, phases[2].Duration, 1e-9)
	assert.InDelta(t, 250.0, phases[3].Duration, 1e-9)
	assert.InDelta(t, 150.0, phases[4].Duration, 1e-9)
}

func TestAllocatePhases_FullScanShiftsToQuery(t *testing.T) {
	simple := AllocatePhases(1000, DeriveSignals(model.QueryShape{QueryString: "error"}))
	scan := AllocatePhases(1000, DeriveSignals(model.QueryShape{QueryString: "*error"}))
	requireContiguous(t, 1000, scan)

	assert.Greater(t, scan[2].Duration, simple[2].Duration, "query phase grows")
	assert.Less(t, scan[3].Duration, simple[3].Duration, "fetch phase shrinks")
	// moderate + full scan: 0.85 / 1.28 of the total
	assert.InDelta(t, 1000*0.85/1.28, scan[2].Duration, 1e-6)
}

func TestAllocatePhases_AllSignals(t *testing.T) {
	shape := model.QueryShape{
		QueryString:  "msg:*fail* AND host:web-?1",
		HasNested:    true,
		HasScript:    true,
		Aggregations: 3,
		Size:         500,
		SortFields:   []string{"@timestamp"},
		ShardCount:   40,
	}
	sig := DeriveSignals(shape)
	assert.Equal(t, model.ComplexityComplex, sig.Level)
	assert.Equal(t, model.ScanFullScan, sig.ScanType)

	for _, total := range []float64{0.001, 1, 17.3, 1000, 123456.789} {
		requireContiguous(t, total, AllocatePhases(total, sig))
	}
}

func TestAllocatePhases_NonPositiveTotal(t *testing.T) {
	for _, total := range []float64{0, -5, math.NaN()} {
		phases := AllocatePhases(total, model.QueryComplexitySignals{})
		require.Len(t, phases, 5)
		for _, p := range phases {
			assert.Equal(t, 0.0, p.Duration)
			assert.Equal(t, 0.0, p.StartTime)
		}
	}
}

func TestAllocatePhases_FractionFloor(t *testing.T) {
	cfg := config.Default()
	// Push fetch negative; it must be floored, not dropped.
	cfg.Phases.FullScan = config.PhaseWeights{Query: 0.30, Fetch: -0.50}
	a := NewAnalyzer(cfg)

	phases := a.AllocatePhases(1000, model.QueryComplexitySignals{ScanType: model.ScanFullScan})
	requireContiguous(t, 1000, phases)
	assert.Greater(t, phases[3].Duration, 0.0)
}

func TestDeriveSignals_Wildcards(t *testing.T) {
	tests := []struct {
		query        string
		wantWildcard bool
		wantScan     model.ScanType
	}{
		{"", false, model.ScanIndex},
		{"*", false, model.ScanIndex},
		{"*:*", false, model.ScanIndex},
		{"error", false, model.ScanIndex},
		{"error*", true, model.ScanIndex},
		{"host:web*", true, model.ScanIndex},
		{"*error", true, model.ScanFullScan},
		{"?rror", true, model.ScanFullScan},
		{"err*r", true, model.ScanFullScan},
		{"message:*timeout", true, model.ScanFullScan},
		{"status:500 AND (path:*login*)", true, model.ScanFullScan},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			sig := DeriveSignals(model.QueryShape{QueryString: tt.query})
			assert.Equal(t, tt.wantWildcard, sig.HasWildcard)
			assert.Equal(t, tt.wantScan, sig.ScanType)
		})
	}
}

func TestDeriveSignals_Complexity(t *testing.T) {
	tests := []struct {
		name  string
		shape model.QueryShape
		want  model.ComplexityLevel
	}{
		{"none", model.QueryShape{QueryString: "a"}, model.ComplexitySimple},
		{"sort only", model.QueryShape{SortFields: []string{"x"}, Size: 1000, ShardCount: 50}, model.ComplexitySimple},
		{"nested", model.QueryShape{HasNested: true}, model.ComplexityModerate},
		{"aggs", model.QueryShape{Aggregations: 1}, model.ComplexityModerate},
		{"script and wildcard", model.QueryShape{HasScript: true, QueryString: "ab*"}, model.ComplexityComplex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveSignals(tt.shape).Level)
		})
	}
}

func TestDeriveSignals_CopiesShape(t *testing.T) {
	sig := DeriveSignals(model.QueryShape{ShardCount: 12, Size: 250, SortFields: []string{"ts"}, Aggregations: 2})
	assert.Equal(t, 12, sig.ShardCount)
	assert.Equal(t, 250, sig.ResultSize)
	assert.True(t, sig.HasSort)
	assert.True(t, sig.HasAggregations)
}

func TestBaseFractions(t *testing.T) {
	f := DefaultAnalyzer().BaseFractions()
	assert.Len(t, f, 5)
	assert.Equal(t, 0.5, f["query"])
	var sum float64
	for _, v := range f {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
