package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jtsunne/qinsight/internal/model"
)

// testColor is a neutral color used for sparkline tests.
var testColor = lipgloss.Color("#ffffff")

func TestRenderSparkline_Empty(t *testing.T) {
	assert.Equal(t, strings.Repeat(" ", 10), stripANSI(RenderSparkline(nil, 10, testColor)))
	assert.Equal(t, "", RenderSparkline([]float64{1}, 0, testColor))
}

func TestRenderSparkline_AllZeros(t *testing.T) {
	got := stripANSI(RenderSparkline([]float64{0, 0, 0, 0, 0}, 5, testColor))
	assert.Equal(t, "▁▁▁▁▁", got)
}

func TestRenderSparkline_Ascending(t *testing.T) {
	result := []rune(stripANSI(RenderSparkline([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 8, testColor)))
	require.Len(t, result, 8)
	for i := 1; i < len(result); i++ {
		assert.GreaterOrEqual(t, result[i], result[i-1], "index %d", i)
	}
	assert.Equal(t, '█', result[7])
}

func TestRenderSparkline_PadsAndTrims(t *testing.T) {
	padded := []rune(stripANSI(RenderSparkline([]float64{1, 2}, 5, testColor)))
	require.Len(t, padded, 5)
	assert.Equal(t, "   ", string(padded[:3]))

	// Only the last width values are drawn; the early spike is dropped.
	trimmed := []rune(stripANSI(RenderSparkline([]float64{100, 1, 1, 1}, 3, testColor)))
	assert.Equal(t, "███", string(trimmed))
}

func TestRenderSeriesSparkline(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	series := make([]model.SeriesPoint, 6)
	for i := range series {
		series[i] = model.SeriesPoint{Timestamp: base.Add(time.Duration(i) * time.Second), Value: 10}
	}
	series[4].Value = 80
	anomalies := []model.SeriesPoint{series[4]}

	got := []rune(stripANSI(RenderSeriesSparkline(series, anomalies, 8, testColor)))
	require.Len(t, got, 8)
	assert.Equal(t, "  ", string(got[:2]))
	assert.Equal(t, '█', got[6], "spike is the tallest block")
	assert.Equal(t, '▁', got[2])

	assert.Equal(t, strings.Repeat(" ", 4), RenderSeriesSparkline(nil, nil, 4, testColor))
	assert.Equal(t, "", RenderSeriesSparkline(series, nil, 0, testColor))
}
