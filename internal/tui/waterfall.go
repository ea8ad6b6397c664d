package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtsunne/qinsight/internal/format"
	"github.com/jtsunne/qinsight/internal/model"
)

const (
	waterfallLabelWidth = 10
	waterfallValueWidth = 8
	queryListRows       = 5
)

// QueryPanelModel lists queries slowest first and draws the phase
// waterfall of the selected one.
type QueryPanelModel struct {
	queries []model.QueryInsight // sorted by total latency, descending
	cursor  int
	focused bool
}

// SetData replaces the query list, keeping the cursor in range.
func (m *QueryPanelModel) SetData(queries []model.QueryInsight) {
	m.queries = sortQueriesByLatency(queries)
	if m.cursor >= len(m.queries) {
		m.cursor = len(m.queries) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update moves the selection with the up/down keys when focused.
func (m QueryPanelModel) Update(msg tea.Msg) (QueryPanelModel, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.queries)-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

// Selected returns the highlighted query; the slowest one until the user
// moves the cursor.
func (m *QueryPanelModel) Selected() (model.QueryInsight, bool) {
	if len(m.queries) == 0 {
		return model.QueryInsight{}, false
	}
	return m.queries[m.cursor], true
}

// sortQueriesByLatency returns a copy of qs ordered by TotalLatencyMs
// descending, ties by ID.
func sortQueriesByLatency(qs []model.QueryInsight) []model.QueryInsight {
	out := make([]model.QueryInsight, len(qs))
	copy(out, qs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Query, out[j].Query
		if a.TotalLatencyMs != b.TotalLatencyMs {
			return a.TotalLatencyMs > b.TotalLatencyMs
		}
		return a.ID < b.ID
	})
	return out
}

// render draws the query list followed by the selected query's waterfall.
func (m *QueryPanelModel) render(width int) string {
	style := StyleSection
	if m.focused {
		style = StyleSectionFocused
	}
	title := style.Render("Queries") + "  " + StyleDim.Render(fmt.Sprintf("%d recent  [↑↓: select]", len(m.queries)))
	if len(m.queries) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, StyleDim.Render("  (no queries)"))
	}

	// Window of queryListRows around the cursor.
	start := 0
	if m.cursor >= queryListRows {
		start = m.cursor - queryListRows + 1
	}
	end := min(len(m.queries), start+queryListRows)

	lines := []string{title}
	for i := start; i < end; i++ {
		lines = append(lines, m.queryLine(i, width))
	}
	if sel, ok := m.Selected(); ok {
		lines = append(lines, "", renderWaterfall(sel, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *QueryPanelModel) queryLine(i, width int) string {
	q := m.queries[i]
	marker := "  "
	if i == m.cursor {
		marker = "▶ "
	}
	state := ""
	if q.Query.Running {
		state = StyleCyan.Render(" running")
	}
	scan := ""
	if q.Signals.ScanType == model.ScanFullScan {
		scan = StyleYellow.Render(" full-scan")
	}
	head := fmt.Sprintf("%s%-8s %8s  %-8s ", marker,
		sanitize(q.Query.ID), format.FormatLatencyShort(q.Query.TotalLatencyMs), q.Signals.Level)
	room := width - lipgloss.Width(head) - lipgloss.Width(state) - lipgloss.Width(scan)
	qs := sanitize(q.Query.QueryString)
	if room > 0 {
		qs = truncateName(qs, room)
	} else {
		qs = ""
	}
	line := head + StyleDim.Render(qs) + state + scan
	if i == m.cursor && m.focused {
		return lipgloss.NewStyle().Background(colorSelectedBg).Render(line)
	}
	return line
}

// renderWaterfall draws one bar per execution phase. Each bar is offset by
// the phase's start time and sized by its duration, both scaled to the
// query's total latency.
func renderWaterfall(q model.QueryInsight, width int) string {
	if width <= 0 {
		width = 80
	}
	barWidth := width - waterfallLabelWidth - waterfallValueWidth - 2
	if barWidth < 10 {
		barWidth = 10
	}

	total := q.Query.TotalLatencyMs
	header := StyleDim.Render(fmt.Sprintf("Waterfall %s  total %s  %d shards",
		sanitize(q.Query.ID), format.FormatLatency(total), q.Signals.ShardCount))

	lines := []string{header}
	for _, p := range q.Phases {
		offset, length := barSpan(p.StartTime, p.Duration, total, barWidth)
		bar := strings.Repeat(" ", offset) +
			lipgloss.NewStyle().Foreground(phaseColor(p)).Render(strings.Repeat("█", length)) +
			strings.Repeat(" ", barWidth-offset-length)
		label := fmt.Sprintf("%-*s", waterfallLabelWidth, truncateName(p.Label, waterfallLabelWidth))
		value := fmt.Sprintf("%*s", waterfallValueWidth, format.FormatLatencyShort(p.Duration))
		lines = append(lines, label+bar+" "+value)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// barSpan converts a phase's start and duration into a column offset and
// length within width cells. Non-empty phases get at least one cell.
func barSpan(start, duration, total float64, width int) (offset, length int) {
	if total <= 0 || width <= 0 {
		return 0, 0
	}
	offset = int(start / total * float64(width))
	length = int(duration / total * float64(width))
	if duration > 0 && length == 0 {
		length = 1
	}
	if offset >= width {
		offset = width - 1
	}
	if offset+length > width {
		length = width - offset
	}
	return offset, length
}
