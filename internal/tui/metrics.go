package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jtsunne/qinsight/internal/format"
)

// sparkFunc renders a sparkline of exactly width cells.
type sparkFunc func(width int) string

// historySpark renders values from the poll history.
func historySpark(values []float64, color lipgloss.Color) sparkFunc {
	return func(width int) string {
		return RenderSparkline(values, width, color)
	}
}

// renderMetricCard renders a single metric card with title, value, and sparkline.
//
// Layout (3 rows inside a rounded border):
//
//	╭──────────────────╮
//	│ Title            │   ← titleStyle (dim, or yellow/red past a threshold)
//	│ 123.45 ms        │   ← bold, metric color
//	│ ▁▂▃▅▇█▇▅▃▂       │   ← colored sparkline
//	╰──────────────────╯
func renderMetricCard(title, value string, spark sparkFunc, cardWidth int, color lipgloss.Color, titleStyle lipgloss.Style) string {
	const minCardWidth = 8
	if cardWidth < minCardWidth {
		cardWidth = minCardWidth
	}

	// Inner width = card width minus border (2) and padding (2), less the
	// padding lipgloss counts inside Width.
	innerWidth := max(1, cardWidth-6)

	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(color)

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorGray).
		Padding(0, 1).
		Width(cardWidth - 4)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		valueStyle.Render(value),
		spark(innerWidth),
	))
}

// latencyTitleStyle returns the dim title style, or the alert style for
// warning and critical severities.
func latencyTitleStyle(s severity) lipgloss.Style {
	if s == severityNormal {
		return StyleDim
	}
	return severityToStyle(s).Bold(true)
}

// renderMetricsRow renders the "Cluster Latency" section: p50, p95 and p99
// history across polls, plus the source's latency series with anomalous
// points highlighted.
// Wide terminals (>= 80 cols): 1x4 horizontal row.
// Narrow terminals (< 80 cols): 2x2 grid.
// Returns empty string when no data is available.
func renderMetricsRow(app *App) string {
	if app.current == nil {
		return ""
	}

	agg := app.analyzer.Config().Aggregation
	lat := app.insights.Overview.Latency

	var lastSeries string
	if n := len(app.current.Series); n > 0 {
		lastSeries = format.FormatLatency(app.current.Series[n-1].Value)
	} else {
		lastSeries = "---"
	}
	anomalies := len(app.insights.Anomalies)
	seriesValue := lastSeries
	if anomalies > 0 {
		seriesValue = fmt.Sprintf("%s  %d⚠", lastSeries, anomalies)
	}

	series := app.current.Series
	flagged := app.insights.Anomalies
	seriesSpark := func(width int) string {
		return RenderSeriesSparkline(series, flagged, width, colorGreen)
	}

	type card struct {
		title  string
		value  string
		spark  sparkFunc
		color  lipgloss.Color
		titleS lipgloss.Style
	}
	cards := []card{
		{"P50", format.FormatLatency(lat.P50), historySpark(app.history.Values("p50"), colorCyan), colorCyan, latencyTitleStyle(latencySeverity(lat.P50, agg))},
		{"P95", format.FormatLatency(lat.P95), historySpark(app.history.Values("p95"), colorPurple), colorPurple, latencyTitleStyle(latencySeverity(lat.P95, agg))},
		{"P99", format.FormatLatency(lat.P99), historySpark(app.history.Values("p99"), colorOrange), colorOrange, latencyTitleStyle(latencySeverity(lat.P99, agg))},
		{"Latency Series", seriesValue, seriesSpark, colorGreen, latencyTitleStyle(anomalySeverity(anomalies))},
	}

	if app.width > 0 && app.width < 80 {
		// Each card renders at (cardWidth-2) chars wide, so two cards fill
		// app.width when cardWidth=(app.width+4)/2.
		cardWidth := (app.width + 4) / 2
		if cardWidth < 8 {
			return ""
		}
		r := make([]string, len(cards))
		for i, c := range cards {
			r[i] = renderMetricCard(c.title, c.value, c.spark, cardWidth, c.color, c.titleS)
		}
		label := StyleDim.MaxWidth(app.width).Render("Cluster Latency")
		return lipgloss.JoinVertical(lipgloss.Left, label,
			lipgloss.JoinHorizontal(lipgloss.Top, r[0], r[1]),
			lipgloss.JoinHorizontal(lipgloss.Top, r[2], r[3]),
		)
	}

	cardWidth := max(20, (app.width+8)/4)
	r := make([]string, len(cards))
	for i, c := range cards {
		r[i] = renderMetricCard(c.title, c.value, c.spark, cardWidth, c.color, c.titleS)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		StyleDim.Render("Cluster Latency"),
		lipgloss.JoinHorizontal(lipgloss.Top, r...),
	)
}
