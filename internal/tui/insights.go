package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtsunne/qinsight/internal/model"
)

// InsightsPanelModel is a scrollable list of recommendations grouped by
// category.
type InsightsPanelModel struct {
	recs    []model.Recommendation
	offset  int
	focused bool
}

// SetData replaces the recommendations. The scroll offset is kept and
// clamped at render time.
func (m *InsightsPanelModel) SetData(recs []model.Recommendation) {
	m.recs = recs
}

// Update scrolls with the up/down keys when focused. maxOffset bounds the
// downward scroll so the stored offset never runs past the content.
func (m InsightsPanelModel) Update(msg tea.Msg, maxOffset int) (InsightsPanelModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if m.offset > 0 {
				m.offset--
			}
		case key.Matches(msg, keys.Down):
			if m.offset < maxOffset {
				m.offset++
			}
		}
	}
	return m, nil
}

// categoryLabel returns the display name for a recommendation category.
func categoryLabel(cat model.RecommendationCategory) string {
	switch cat {
	case model.CategoryNodeHealth:
		return "Node Health"
	case model.CategoryShardHealth:
		return "Shard Health"
	case model.CategoryLatency:
		return "Latency"
	case model.CategoryQueryShape:
		return "Query Shape"
	default:
		return "Other"
	}
}

// severityBadge returns a colored, fixed-width badge for the given severity.
func severityBadge(sev model.RecommendationSeverity) string {
	switch sev {
	case model.SeverityCritical:
		return StyleRed.Bold(true).Render("[CRITICAL]")
	case model.SeverityWarning:
		return StyleYellow.Bold(true).Render("[WARN]    ")
	default:
		return StyleBlue.Bold(true).Render("[INFO]    ")
	}
}

// wrapText wraps text at maxWidth rune-columns, breaking at word boundaries.
// Returns the original string unchanged when it fits within maxWidth.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 || utf8.RuneCountInString(text) <= maxWidth {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}
	var lines []string
	var current strings.Builder
	var currentLen int
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		switch {
		case currentLen == 0:
			current.WriteString(word)
			currentLen = wordLen
		case currentLen+1+wordLen <= maxWidth:
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
		default:
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		}
	}
	if currentLen > 0 {
		lines = append(lines, current.String())
	}
	return strings.Join(lines, "\n")
}

// buildInsightLines returns every content line of the insights panel.
// Categories appear in a fixed order; within a category recommendations
// keep the engine's order (most severe first).
func buildInsightLines(recs []model.Recommendation, width int) []string {
	if len(recs) == 0 {
		return []string{"  " + StyleGreen.Bold(true).Render("No issues found, cluster looks healthy")}
	}
	categories := []model.RecommendationCategory{
		model.CategoryNodeHealth,
		model.CategoryShardHealth,
		model.CategoryLatency,
		model.CategoryQueryShape,
	}
	var lines []string
	for _, cat := range categories {
		first := true
		for _, r := range recs {
			if r.Category != cat {
				continue
			}
			if first {
				if len(lines) > 0 {
					lines = append(lines, "")
				}
				lines = append(lines, "  "+StyleDim.Bold(true).Underline(true).Render(categoryLabel(cat)))
				first = false
			}
			lines = append(lines, fmt.Sprintf("  %s %s", severityBadge(r.Severity), sanitize(r.Title)))
			if r.Detail != "" {
				for _, dline := range strings.Split(wrapText(sanitize(r.Detail), width-6), "\n") {
					lines = append(lines, "    "+dline)
				}
			}
		}
	}
	return lines
}

// maxOffset returns the largest useful scroll offset for height lines of
// content area.
func (m *InsightsPanelModel) maxOffset(width, height int) int {
	n := len(buildInsightLines(m.recs, width))
	contentH, _ := contentHeight(n, height)
	return max(0, n-contentH)
}

// contentHeight returns how many content lines fit under the title in
// height rows, reserving one for the scroll hint when n overflows.
func contentHeight(n, height int) (int, bool) {
	contentH := max(1, height-1)
	overflows := n > contentH
	if overflows && contentH > 1 {
		contentH--
	}
	return contentH, overflows
}

// render draws the title and up to height-1 content lines starting at the
// scroll offset, with a scroll hint on the last line when content overflows.
func (m *InsightsPanelModel) render(width, height int) string {
	style := StyleSection
	if m.focused {
		style = StyleSectionFocused
	}
	title := style.Render("Insights") + "  " + StyleDim.Render(fmt.Sprintf("%d recommendations", len(m.recs)))

	lines := buildInsightLines(m.recs, width)
	contentH, overflows := contentHeight(len(lines), height)
	maxOffset := max(0, len(lines)-contentH)
	offset := min(m.offset, maxOffset)
	end := min(len(lines), offset+contentH)

	out := []string{title}
	out = append(out, lines[offset:end]...)
	if overflows {
		switch {
		case offset == 0:
			out = append(out, StyleDim.Render("  ↓ scroll for more"))
		case offset >= maxOffset:
			out = append(out, StyleDim.Render("  ↑ scroll up"))
		default:
			out = append(out, StyleDim.Render("  ↑↓ scroll"))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, out...)
}
