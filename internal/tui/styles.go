package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jtsunne/qinsight/internal/model"
)

// Color constants for the query insights palette.
var (
	colorGreen      = lipgloss.Color("#10b981")
	colorYellow     = lipgloss.Color("#f59e0b")
	colorRed        = lipgloss.Color("#ef4444")
	colorGray       = lipgloss.Color("#6b7280")
	colorBlue       = lipgloss.Color("#3b82f6")
	colorCyan       = lipgloss.Color("#06b6d4")
	colorPurple     = lipgloss.Color("#8b5cf6")
	colorIndigo     = lipgloss.Color("#6366f1")
	colorOrange     = lipgloss.Color("#f97316")
	colorWhite      = lipgloss.Color("#f8fafc")
	colorDark       = lipgloss.Color("#1e293b")
	colorAlt        = lipgloss.Color("#0f172a")
	colorSelectedBg = lipgloss.Color("#334155")
)

// Status styles: bold foreground, used for the cluster health indicator.
var (
	StyleStatusGreen   = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	StyleStatusYellow  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	StyleStatusRed     = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	StyleStatusUnknown = lipgloss.NewStyle().Foreground(colorGray)
)

// StyleHeader is the full-width dark header bar.
var StyleHeader = lipgloss.NewStyle().
	Background(colorDark).
	Foreground(colorWhite).
	Padding(0, 1)

// StyleOverviewCard is a card for the overview bar.
var StyleOverviewCard = lipgloss.NewStyle().
	Background(colorAlt).
	Foreground(colorWhite).
	Padding(0, 1).
	Margin(0).
	Align(lipgloss.Center)

// StyleSection is the dim title above each panel.
var StyleSection = lipgloss.NewStyle().Bold(true).Foreground(colorGray)

// StyleSectionFocused marks the panel that receives table keys.
var StyleSectionFocused = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)

// Utility styles.
var (
	StyleError = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	StyleDim   = lipgloss.NewStyle().Foreground(colorGray)
)

// Named color styles for table cell coloring.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	StyleOrange = lipgloss.NewStyle().Foreground(colorOrange)
	StyleBlue   = lipgloss.NewStyle().Foreground(colorBlue)
	StyleCyan   = lipgloss.NewStyle().Foreground(colorCyan)
	StylePurple = lipgloss.NewStyle().Foreground(colorPurple)
	StyleRed    = lipgloss.NewStyle().Foreground(colorRed)
)

// phaseColor returns the bar color for an execution phase, gray when the
// phase carries none.
func phaseColor(p model.ExecutionPhase) lipgloss.Color {
	if p.Color == "" {
		return colorGray
	}
	return lipgloss.Color(p.Color)
}

// clusterStatus summarises node health as green, yellow or red.
// Any failed node makes the cluster red; any degraded node makes it
// yellow. An overview with no nodes is "unknown".
func clusterStatus(o model.ClusterOverview) string {
	switch {
	case o.NodeCount == 0:
		return "unknown"
	case o.FailedNodes > 0:
		return "red"
	case o.DegradedNodes > 0:
		return "yellow"
	default:
		return "green"
	}
}

// StatusStyle returns the bold foreground style for a cluster status
// string: "green", "yellow" or "red".
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "green":
		return StyleStatusGreen
	case "yellow":
		return StyleStatusYellow
	case "red":
		return StyleStatusRed
	default:
		return StyleStatusUnknown
	}
}

// HealthStyle returns the cell style for a node health class.
func HealthStyle(h model.NodeHealth) lipgloss.Style {
	switch h {
	case model.HealthHealthy:
		return StyleGreen
	case model.HealthDegraded:
		return StyleYellow
	case model.HealthFailed:
		return StyleRed.Bold(true)
	default:
		return StyleDim
	}
}
