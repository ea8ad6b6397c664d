package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtsunne/qinsight/internal/config"
	"github.com/jtsunne/qinsight/internal/format"
	"github.com/jtsunne/qinsight/internal/model"
)

// NodeTableModel is a sortable, paginated, searchable table of node aggregates.
type NodeTableModel struct {
	tableModel
	allRows     []model.NodeAggregate // unfiltered source data
	displayRows []model.NodeAggregate // after filter + sort applied
}

// NewNodeTable returns a NodeTableModel sorted by reported latency
// (col 3) descending, slowest node first.
func NewNodeTable() NodeTableModel {
	cols := []columnDef{
		{Title: "Node", Width: 18},
		{Title: "Health", Width: 9, Desc: true},
		{Title: "Shards", Width: 7, Desc: true},
		{Title: "Latency", Width: 10, Desc: true},
		{Title: "P50", Width: 10, Desc: true},
		{Title: "P99", Width: 10, Desc: true},
		{Title: "Max P99", Width: 10, Desc: true},
		{Title: "Success", Width: 8},
		{Title: "Probes", Width: 7},
	}
	m := NodeTableModel{
		tableModel: newTableModel(cols),
	}
	m.sortCol = 3
	m.sortDesc = true
	return m
}

// SetData applies the current search filter and sort to rows, storing the
// result as displayRows ready for rendering.
func (m *NodeTableModel) SetData(rows []model.NodeAggregate) {
	m.allRows = rows
	m.refresh()
}

func (m *NodeTableModel) refresh() {
	filtered := filterNodeRows(m.allRows, m.search)
	m.displayRows = sortNodeRows(filtered, m.sortCol, m.sortDesc)
	m.clampPage(len(m.displayRows))
	m.clampCursor(m.currentPageRowCount(len(m.displayRows)))
}

// Update handles keyboard events for sorting, pagination, and search. It
// delegates to the embedded tableModel and re-applies filter/sort when the
// sort column, direction, or search term changes.
func (m NodeTableModel) Update(msg tea.Msg) (NodeTableModel, tea.Cmd) {
	prevSort, prevDesc, prevSearch := m.sortCol, m.sortDesc, m.search

	base, cmd := m.tableModel.Update(msg)
	m.tableModel = base

	if m.sortCol != prevSort || m.sortDesc != prevDesc || m.search != prevSearch {
		m.refresh()
		return m, cmd
	}
	m.clampPage(len(m.displayRows))
	m.clampCursor(m.currentPageRowCount(len(m.displayRows)))
	return m, cmd
}

// Selected returns the node under the cursor.
func (m *NodeTableModel) Selected() (model.NodeAggregate, bool) {
	i := m.selectedIndex(len(m.displayRows))
	if i < 0 || i >= len(m.displayRows) {
		return model.NodeAggregate{}, false
	}
	return m.displayRows[i], true
}

// renderTable renders the "Nodes" section: a title bar followed by the
// lipgloss table body for the current page.
func (m *NodeTableModel) renderTable(width int, agg config.Aggregation) string {
	hdr := m.renderTitle("Nodes", len(m.displayRows))

	colWidths := columnWidths(width, m.columns)
	headers := m.sortHeaders(colWidths)

	allIdx := make([]int, len(m.displayRows))
	for i := range m.displayRows {
		allIdx[i] = i
	}
	pageIdx := currentPageIndices(allIdx, m.page, m.pageSize)
	if len(pageIdx) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, hdr, StyleDim.Render("  (no nodes)"))
	}

	page := make([]model.NodeAggregate, len(pageIdx))
	for i, idx := range pageIdx {
		page[i] = m.displayRows[idx]
	}

	sortCol, focused, cursor := m.sortCol, m.focused, m.cursor
	t := ltable.New().
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == ltable.HeaderRow {
				if col == sortCol {
					return lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
				}
				return lipgloss.NewStyle().Bold(true).Foreground(colorGray)
			}
			base := lipgloss.NewStyle()
			if focused && row == cursor {
				base = base.Background(colorSelectedBg)
			} else if row%2 == 0 {
				base = base.Background(colorAlt)
			}
			if row < 0 || row >= len(page) {
				return base.Foreground(colorWhite)
			}
			n := page[row]
			switch col {
			case 1:
				return base.Inherit(HealthStyle(n.Health))
			case 3:
				return base.Foreground(severityFg(latencySeverity(n.AvgLatency, agg)))
			case 4:
				return base.Foreground(colorCyan)
			case 5:
				return base.Foreground(colorPurple)
			case 6:
				return base.Foreground(colorOrange)
			case 7:
				return base.Foreground(severityFg(successSeverity(n.SuccessRate, n.SampleCount, agg)))
			default:
				return base.Foreground(colorWhite)
			}
		}).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(true).
		BorderColumn(false)

	if width > 0 {
		t = t.Width(width)
	}

	for _, n := range page {
		cells := make([]string, len(m.columns))
		for col := range m.columns {
			cells[col] = nodeCellValue(n, col)
		}
		if len(colWidths) > 0 {
			cells[0] = truncateName(cells[0], colWidths[0])
		}
		t = t.Row(cells...)
	}

	parts := []string{hdr, t.String()}
	if sel, ok := m.Selected(); ok && m.focused {
		parts = append(parts, StyleDim.Render(nodeDetail(sel, agg)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// nodeDetail is the one-line explanation shown under the focused node row.
func nodeDetail(n model.NodeAggregate, agg config.Aggregation) string {
	s := fmt.Sprintf("  %s  pool avg %s  max shard p99 %s",
		sanitize(n.NodeID), format.FormatLatency(n.PoolAvgLatency), format.FormatLatency(n.MaxShardP99))
	if n.AvgLatency > n.PoolAvgLatency {
		s += fmt.Sprintf("  (floored at %.0f%% of max p99)", agg.NodeFloorFactor*100)
	}
	return s
}

// nodeCellValue formats a NodeAggregate field for a given column index.
func nodeCellValue(n model.NodeAggregate, col int) string {
	switch col {
	case 0:
		return sanitize(n.NodeID)
	case 1:
		return string(n.Health)
	case 2:
		return strconv.Itoa(len(n.ShardIDs))
	case 3:
		return format.FormatLatency(n.AvgLatency)
	case 4:
		return format.FormatLatency(n.Percentiles.P50)
	case 5:
		return format.FormatLatency(n.Percentiles.P99)
	case 6:
		return format.FormatLatency(n.MaxShardP99)
	case 7:
		if n.SampleCount == 0 {
			return "---"
		}
		return format.FormatPercent(n.SuccessRate)
	case 8:
		return format.FormatFraction(n.HealthyFraction)
	default:
		return ""
	}
}
