package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const maxHeaderErrLen = 40

// renderHeader renders the top header bar with source name, status, and timing info.
//
// Layout:
//
//	left:   source name (or "Connecting to <source>..." on first connect)
//	center: colored "● STATUS  n/m healthy" (or "● DISCONNECTED  <error>" when offline)
//	right:  "Last: HH:MM:SS  Poll: Ns" (or "Press r to retry" when offline)
func renderHeader(app *App) string {
	width := app.width
	if width <= 0 {
		width = 80
	}

	name := ""
	if app.src != nil {
		name = sanitize(app.src.Name())
	}

	var left, center, right string

	if app.current == nil {
		left = "Connecting to " + name + "..."
		if app.connState == stateDisconnected && app.lastError != nil {
			center = StyleError.Render("● DISCONNECTED  " + shortError(app.lastError))
			right = StyleError.Render("Press r to retry")
		}
	} else {
		left = name
		if app.connState == stateDisconnected {
			errDisplay := "● DISCONNECTED"
			if app.lastError != nil {
				errDisplay += "  " + shortError(app.lastError)
			}
			center = StyleError.Render(errDisplay)
			right = StyleError.Render("Press r to retry")
		} else {
			o := app.insights.Overview
			status := clusterStatus(o)
			center = StatusStyle(status).Render("● "+strings.ToUpper(status)) +
				StyleDim.Render(fmt.Sprintf("  %d/%d healthy", o.HealthyNodes, o.NodeCount))

			lastStr := "Connecting..."
			if !app.lastUpdated.IsZero() {
				lastStr = app.lastUpdated.Format("15:04:05")
			}
			right = StyleDim.Render(fmt.Sprintf("Last: %s  Poll: %s", lastStr, formatDuration(app.pollInterval)))
		}
	}

	// StyleHeader has Padding(0, 1) so inner content width = total width - 2.
	innerWidth := width - 2
	spacing := max(0, innerWidth-lipgloss.Width(left)-lipgloss.Width(center)-lipgloss.Width(right))
	leftSpacing := spacing / 2
	rightSpacing := spacing - leftSpacing

	row := left +
		strings.Repeat(" ", leftSpacing) +
		center +
		strings.Repeat(" ", rightSpacing) +
		right

	return StyleHeader.Width(width).Render(row)
}

// shortError truncates an error message for the header.
func shortError(err error) string {
	msg := sanitize(err.Error())
	if r := []rune(msg); len(r) > maxHeaderErrLen {
		return string(r[:maxHeaderErrLen]) + "..."
	}
	return msg
}

// formatDuration formats a poll interval as a compact string, e.g. "10s" or "2m".
func formatDuration(d time.Duration) string {
	if d >= time.Minute {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}
