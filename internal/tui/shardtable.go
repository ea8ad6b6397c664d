package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtsunne/qinsight/internal/config"
	"github.com/jtsunne/qinsight/internal/format"
	"github.com/jtsunne/qinsight/internal/model"
)

// ShardTableModel is a sortable, paginated, searchable table of shard aggregates.
type ShardTableModel struct {
	tableModel
	allRows     []model.ShardAggregate
	displayRows []model.ShardAggregate
}

// NewShardTable returns a ShardTableModel sorted by P99 (col 5) descending.
func NewShardTable() ShardTableModel {
	cols := []columnDef{
		{Title: "Shard", Width: 18},
		{Title: "Index", Width: 14},
		{Title: "Node", Width: 12},
		{Title: "P50", Width: 10, Desc: true},
		{Title: "P95", Width: 10, Desc: true},
		{Title: "P99", Width: 10, Desc: true},
		{Title: "Samples", Width: 8, Desc: true},
		{Title: "Success", Width: 8},
		{Title: "Docs", Width: 8, Desc: true},
	}
	m := ShardTableModel{
		tableModel: newTableModel(cols),
	}
	m.sortCol = 5
	m.sortDesc = true
	return m
}

// SetData applies the current search filter and sort to rows.
func (m *ShardTableModel) SetData(rows []model.ShardAggregate) {
	m.allRows = rows
	m.refresh()
}

func (m *ShardTableModel) refresh() {
	filtered := filterShardRows(m.allRows, m.search)
	m.displayRows = sortShardRows(filtered, m.sortCol, m.sortDesc)
	m.clampPage(len(m.displayRows))
	m.clampCursor(m.currentPageRowCount(len(m.displayRows)))
}

// Update handles keyboard events and re-sorts on sort or search changes.
func (m ShardTableModel) Update(msg tea.Msg) (ShardTableModel, tea.Cmd) {
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

// Selected returns the shard under the cursor.
func (m *ShardTableModel) Selected() (model.ShardAggregate, bool) {
	i := m.selectedIndex(len(m.displayRows))
	if i < 0 || i >= len(m.displayRows) {
		return model.ShardAggregate{}, false
	}
	return m.displayRows[i], true
}

// renderTable renders the "Shards" section.
func (m *ShardTableModel) renderTable(width int, agg config.Aggregation) string {
	hdr := m.renderTitle("Shards", len(m.displayRows))

	colWidths := columnWidths(width, m.columns)
	headers := m.sortHeaders(colWidths)

	allIdx := make([]int, len(m.displayRows))
	for i := range m.displayRows {
		allIdx[i] = i
	}
	pageIdx := currentPageIndices(allIdx, m.page, m.pageSize)
	if len(pageIdx) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, hdr, StyleDim.Render("  (no shards)"))
	}

	page := make([]model.ShardAggregate, len(pageIdx))
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
			s := page[row]
			switch col {
			case 1:
				return base.Foreground(colorPurple)
			case 2:
				return base.Foreground(colorBlue)
			case 3, 4:
				return base.Foreground(colorCyan)
			case 5:
				return base.Foreground(severityFg(latencySeverity(s.Percentiles.P99, agg)))
			case 7:
				return base.Foreground(severityFg(successSeverity(s.SuccessRate, s.SampleCount, agg)))
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

	for _, s := range page {
		cells := make([]string, len(m.columns))
		for col := range m.columns {
			cells[col] = shardCellValue(s, col)
		}
		if len(colWidths) > 0 {
			cells[0] = truncateName(cells[0], colWidths[0])
		}
		t = t.Row(cells...)
	}

	parts := []string{hdr, t.String()}
	if sel, ok := m.Selected(); ok && m.focused {
		parts = append(parts, StyleDim.Render(shardDetail(sel)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// shardDetail is the line shown under the focused shard row.
func shardDetail(s model.ShardAggregate) string {
	src := "derived from samples"
	if s.Authoritative {
		src = "reported by source"
	}
	return fmt.Sprintf("  %s  %d observations  avg %s  max %s  (%s)",
		sanitize(s.ShardID), s.Observations,
		format.FormatLatency(s.Percentiles.Avg), format.FormatLatency(s.Percentiles.Max), src)
}

// shardCellValue formats a ShardAggregate field for a given column index.
func shardCellValue(s model.ShardAggregate, col int) string {
	switch col {
	case 0:
		return sanitize(s.ShardID)
	case 1:
		return sanitize(s.Index)
	case 2:
		return sanitize(s.NodeID)
	case 3:
		return format.FormatLatency(s.Percentiles.P50)
	case 4:
		return format.FormatLatency(s.Percentiles.P95)
	case 5:
		return format.FormatLatency(s.Percentiles.P99)
	case 6:
		return format.FormatCount(int64(s.SampleCount))
	case 7:
		if s.SampleCount == 0 {
			return "---"
		}
		return format.FormatPercent(s.SuccessRate)
	case 8:
		return format.FormatCount(s.TotalDocCount)
	default:
		return ""
	}
}
