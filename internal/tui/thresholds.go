package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jtsunne/qinsight/internal/config"
	"github.com/jtsunne/qinsight/internal/model"
)

// severity represents the alert level for a metric value.
type severity int

const (
	severityNormal   severity = iota
	severityWarning           // yellow
	severityCritical          // red
)

// latencySeverity returns Warning at or above the degraded threshold and
// Critical at or above the failed threshold. Both come from the analyzer
// config so cell colors agree with node health.
func latencySeverity(ms float64, agg config.Aggregation) severity {
	switch {
	case ms >= agg.FailedLatencyMs:
		return severityCritical
	case ms >= agg.DegradedLatencyMs:
		return severityWarning
	default:
		return severityNormal
	}
}

// successSeverity flags a success rate (percent) below the configured
// minimum, and below the critical minimum as Critical. A zero sample count
// is never flagged.
func successSeverity(pct float64, samples int, agg config.Aggregation) severity {
	if samples == 0 {
		return severityNormal
	}
	switch {
	case pct < agg.CriticalSuccessRate:
		return severityCritical
	case pct < agg.MinSuccessRate:
		return severityWarning
	default:
		return severityNormal
	}
}

// healthSeverity maps a node health class onto the severity scale.
func healthSeverity(h model.NodeHealth) severity {
	switch h {
	case model.HealthFailed:
		return severityCritical
	case model.HealthDegraded:
		return severityWarning
	default:
		return severityNormal
	}
}

// anomalySeverity is Warning for any anomaly in the current window.
func anomalySeverity(n int) severity {
	if n > 0 {
		return severityWarning
	}
	return severityNormal
}

// severityToStyle maps a severity level to the appropriate lipgloss style.
func severityToStyle(s severity) lipgloss.Style {
	switch s {
	case severityWarning:
		return StyleYellow
	case severityCritical:
		return StyleRed
	default:
		return lipgloss.NewStyle()
	}
}

// severityFg returns the foreground color for a severity, white when normal.
func severityFg(s severity) lipgloss.Color {
	switch s {
	case severityWarning:
		return colorYellow
	case severityCritical:
		return colorRed
	default:
		return colorWhite
	}
}
