package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jtsunne/qinsight/internal/format"
)

const overviewCards = 9

// renderOverview renders the overview bar.
// Wide terminals (>= 80 cols): all cards in a single horizontal row.
// Narrow terminals (< 80 cols): cards stacked in rows of 2.
// Returns empty string if no snapshot is available yet.
func renderOverview(app *App) string {
	if app.current == nil {
		return ""
	}

	width := app.width
	if width <= 0 {
		width = 80
	}
	narrowMode := width < 80

	var cardWidth int
	if narrowMode {
		cardWidth = max(10, (width-4)/2)
	} else {
		cardWidth = max(8, (width-2*overviewCards)/overviewCards)
	}

	o := app.insights.Overview
	agg := app.analyzer.Config().Aggregation

	// Card 1: cluster status on a colored background.
	status := clusterStatus(o)
	var statusBg lipgloss.Color
	switch status {
	case "green":
		statusBg = colorGreen
	case "yellow":
		statusBg = colorYellow
	case "red":
		statusBg = colorRed
	default:
		statusBg = colorGray
	}
	cards := []string{
		StyleOverviewCard.
			Background(statusBg).
			Foreground(colorDark).
			Bold(true).
			Width(cardWidth).
			Render(strings.ToUpper(status) + "\nStatus"),
	}

	// Card 2: nodes with a health breakdown.
	nodeLine := fmt.Sprintf("%d", o.NodeCount)
	if o.DegradedNodes > 0 || o.FailedNodes > 0 {
		nodeLine += fmt.Sprintf(" (%s/%s)",
			StyleYellow.Render(fmt.Sprintf("%d", o.DegradedNodes)),
			StyleRed.Render(fmt.Sprintf("%d", o.FailedNodes)))
	}
	cards = append(cards,
		StyleOverviewCard.Foreground(colorBlue).Width(cardWidth).Render(nodeLine+"\nNodes"),
		StyleOverviewCard.Foreground(colorPurple).Width(cardWidth).Render(fmt.Sprintf("%d", o.IndexCount)+"\nIndices"),
		StyleOverviewCard.Foreground(colorIndigo).Width(cardWidth).Render(fmt.Sprintf("%d", o.ShardCount)+"\nShards"),
	)

	// Cards 5-7: cluster latency percentiles, threshold-colored.
	for _, c := range []struct {
		label string
		value float64
	}{
		{"P50", o.Latency.P50},
		{"P95", o.Latency.P95},
		{"P99", o.Latency.P99},
	} {
		sev := latencySeverity(c.value, agg)
		val := format.FormatLatency(c.value)
		if sev == severityCritical {
			val += "!"
		}
		cards = append(cards, StyleOverviewCard.
			Foreground(severityFg(sev)).
			Width(cardWidth).
			Render(val+"\n"+c.label))
	}

	// Cards 8-9: success rate and anomaly count.
	succSev := successSeverity(o.SuccessRate, o.SampleCount, agg)
	succ := "---"
	if o.SampleCount > 0 {
		succ = format.FormatPercent(o.SuccessRate)
	}
	anomSev := anomalySeverity(o.AnomalyCount)
	cards = append(cards,
		StyleOverviewCard.Foreground(severityFg(succSev)).Width(cardWidth).Render(succ+"\nSuccess"),
		StyleOverviewCard.Foreground(severityFg(anomSev)).Width(cardWidth).Render(fmt.Sprintf("%d", o.AnomalyCount)+"\nAnomalies"),
	)

	if narrowMode {
		var rows []string
		for i := 0; i < len(cards); i += 2 {
			end := min(i+2, len(cards))
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
		}
		return lipgloss.JoinVertical(lipgloss.Left, rows...)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}
