package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jtsunne/qinsight/internal/model"
)

// sparkBlocks is the 8-level block character set for sparklines.
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// sparkLevel maps v onto 0..7 relative to maxVal.
func sparkLevel(v, maxVal float64) int {
	var idx int
	if maxVal > 0 {
		idx = int(v / maxVal * 7)
	}
	if idx < 0 {
		idx = 0
	}
	if idx > 7 {
		idx = 7
	}
	return idx
}

// RenderSparkline converts a slice of float64 values into a block sparkline
// string of exactly `width` characters, colored with color.
//
// Rules:
//   - Empty values → return width spaces
//   - All zeros → return all '▁' (floor level)
//   - Values longer than width → use last width values
//   - Fewer values than width → left-pad with spaces
func RenderSparkline(values []float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if len(values) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	maxVal := slices.Max(values)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(values)))
	for _, v := range values {
		sb.WriteRune(sparkBlocks[sparkLevel(v, maxVal)])
	}
	return lipgloss.NewStyle().Foreground(color).Render(sb.String())
}

// RenderSeriesSparkline renders a latency series like RenderSparkline but
// draws every point whose timestamp appears in anomalies in red.
func RenderSeriesSparkline(series, anomalies []model.SeriesPoint, width int, color lipgloss.Color) string {
	if width <= 0 {
		return ""
	}
	if len(series) == 0 {
		return strings.Repeat(" ", width)
	}
	if len(series) > width {
		series = series[len(series)-width:]
	}

	flagged := make(map[int64]bool, len(anomalies))
	for _, a := range anomalies {
		flagged[a.Timestamp.UnixNano()] = true
	}

	var maxVal float64
	for _, p := range series {
		maxVal = max(maxVal, p.Value)
	}

	normal := lipgloss.NewStyle().Foreground(color)
	spike := lipgloss.NewStyle().Foreground(colorRed).Bold(true)

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", width-len(series)))
	// Runs of equally-styled points are rendered together to keep the
	// escape-sequence count low.
	var run strings.Builder
	runFlagged := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if runFlagged {
			sb.WriteString(spike.Render(run.String()))
		} else {
			sb.WriteString(normal.Render(run.String()))
		}
		run.Reset()
	}
	for _, p := range series {
		f := flagged[p.Timestamp.UnixNano()]
		if f != runFlagged {
			flush()
			runFlagged = f
		}
		run.WriteRune(sparkBlocks[sparkLevel(p.Value, maxVal)])
	}
	flush()
	return sb.String()
}
