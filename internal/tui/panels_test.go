package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtsunne/qinsight/internal/engine"
	"github.com/jtsunne/qinsight/internal/mockdata"
	"github.com/jtsunne/qinsight/internal/model"
)

func queryInsight(id string, total float64, shape model.QueryShape) model.QueryInsight {
	shape.ID = id
	shape.TotalLatencyMs = total
	sig := engine.DeriveSignals(shape)
	return model.QueryInsight{Query: shape, Signals: sig, Phases: engine.AllocatePhases(total, sig)}
}

func TestBarSpan(t *testing.T) {
	cases := []struct {
		name              string
		start, dur, total float64
		width             int
		wantOff, wantLen  int
	}{
		{"first half", 0, 50, 100, 20, 0, 10},
		{"second half", 50, 50, 100, 20, 10, 10},
		{"tiny phase still visible", 0, 0.1, 100, 20, 0, 1},
		{"zero total", 0, 0, 0, 20, 0, 0},
		{"clamped to width", 99.9, 5, 100, 20, 19, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			off, length := barSpan(tc.start, tc.dur, tc.total, tc.width)
			assert.Equal(t, tc.wantOff, off)
			assert.Equal(t, tc.wantLen, length)
		})
	}
}

func TestRenderWaterfall(t *testing.T) {
	q := queryInsight("q-042", 1000, model.QueryShape{QueryString: "status:error", ShardCount: 2})
	out := stripANSI(renderWaterfall(q, 80))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6, "header plus one bar per phase")
	assert.Contains(t, lines[0], "q-042")
	assert.Contains(t, lines[0], "1.00 s")
	for i, label := range []string{"Parsing", "Planning", "Query", "Fetch", "Reduce"} {
		assert.True(t, strings.HasPrefix(lines[i+1], label), "line %d: %q", i+1, lines[i+1])
	}
	assert.Contains(t, lines[3], "500ms")

	// Bars advance left to right in phase order.
	prevStart := -1
	for _, l := range lines[1:] {
		bar := []rune(l)[waterfallLabelWidth:]
		start := -1
		for i, r := range bar {
			if r == '█' {
				start = i
				break
			}
		}
		require.GreaterOrEqual(t, start, 0, "every non-empty phase draws a bar: %q", l)
		assert.Greater(t, start, prevStart)
		prevStart = start
	}
}

func TestQueryPanel_SlowestFirstAndNavigation(t *testing.T) {
	var m QueryPanelModel
	m.SetData([]model.QueryInsight{
		queryInsight("q-1", 100, model.QueryShape{QueryString: "a"}),
		queryInsight("q-2", 900, model.QueryShape{QueryString: "*foo", Running: true}),
		queryInsight("q-3", 400, model.QueryShape{QueryString: "b"}),
	})

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "q-2", sel.Query.ID)

	// Unfocused panels ignore keys.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor)

	m.focused = true
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, m.cursor)
	sel, _ = m.Selected()
	assert.Equal(t, "q-1", sel.Query.ID)

	out := stripANSI(m.render(100))
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "full-scan")
	assert.Contains(t, out, "Waterfall q-1")

	// Shrinking the list keeps the cursor in range.
	m.SetData(m.queries[:1])
	assert.Equal(t, 0, m.cursor)
}

func TestQueryPanel_Empty(t *testing.T) {
	var m QueryPanelModel
	_, ok := m.Selected()
	assert.False(t, ok)
	assert.Contains(t, stripANSI(m.render(80)), "(no queries)")
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, "short", wrapText("short", 20))
	assert.Equal(t, "one two\nthree", wrapText("one two three", 8))
	assert.Equal(t, "x", wrapText("x", 0))
}

func TestInsightsPanel(t *testing.T) {
	recs := []model.Recommendation{
		{Severity: model.SeverityCritical, Category: model.CategoryNodeHealth, Title: "Node es-node-3 failed", Detail: "reported latency 9.0 s"},
		{Severity: model.SeverityWarning, Category: model.CategoryLatency, Title: "Latency anomalies detected"},
		{Severity: model.SeverityNormal, Category: model.CategoryQueryShape, Title: "Wide shard fan-out"},
	}
	var m InsightsPanelModel
	m.SetData(recs)

	out := stripANSI(m.render(100, 30))
	assert.Contains(t, out, "3 recommendations")
	assert.Contains(t, out, "[CRITICAL] Node es-node-3 failed")
	assert.Contains(t, out, "Node Health")
	assert.Contains(t, out, "Query Shape")
	assert.NotContains(t, out, "scroll")
	assert.Less(t, strings.Index(out, "Node Health"), strings.Index(out, "Latency anomalies"))

	// A short panel scrolls.
	maxOff := m.maxOffset(100, 4)
	require.Greater(t, maxOff, 0)
	m.focused = true
	for i := 0; i < maxOff+5; i++ {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown}, maxOff)
	}
	assert.Equal(t, maxOff, m.offset)
	assert.Contains(t, stripANSI(m.render(100, 4)), "↑ scroll up")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp}, maxOff)
	assert.Equal(t, maxOff-1, m.offset)
}

func TestInsightsPanel_Empty(t *testing.T) {
	var m InsightsPanelModel
	assert.Contains(t, stripANSI(m.render(80, 10)), "No issues found")
	assert.Equal(t, 0, m.maxOffset(80, 10))
}

func TestRenderOverviewAndMetrics(t *testing.T) {
	app := NewApp(mockdata.NewSource(4), nil, 10*time.Second)
	assert.Empty(t, renderOverview(app))
	assert.Empty(t, renderMetricsRow(app))

	app.Update(makeFixtureMsg(t, 4))

	for _, width := range []int{60, 140} {
		app.width = width
		ov := stripANSI(renderOverview(app))
		assert.Contains(t, ov, "Nodes")
		assert.Contains(t, ov, "Shards")
		assert.Contains(t, ov, "P95")
		assert.Contains(t, ov, "Success")
		assert.Contains(t, ov, "Anomalies")

		mr := stripANSI(renderMetricsRow(app))
		assert.Contains(t, mr, "Cluster Latency")
		assert.Contains(t, mr, "Latency Series")
	}

	app.width = 8
	assert.Empty(t, renderMetricsRow(app), "too narrow for metric cards")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "10s", formatDuration(10*time.Second))
	assert.Equal(t, "2m", formatDuration(2*time.Minute))
}

func TestShortError(t *testing.T) {
	long := strings.Repeat("x", 60)
	got := shortError(errString(long))
	assert.Equal(t, strings.Repeat("x", maxHeaderErrLen)+"...", got)
	assert.Equal(t, "boom", shortError(errString("boom")))
}

type errString string

func (e errString) Error() string { return string(e) }
