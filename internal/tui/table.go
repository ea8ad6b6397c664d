package tui

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// columnDef describes a single column in a table.
type columnDef struct {
	Title string
	Width int  // preferred width, used as a proportion of the terminal
	Desc  bool // initial direction when the column is first selected
}

// tableModel is the generic base for sortable, paginated, searchable tables.
type tableModel struct {
	columns   []columnDef
	sortCol   int // -1 = unsorted
	sortDesc  bool
	page      int // 0-indexed
	pageSize  int // default 10
	cursor    int // row within the current page
	search    string
	searching bool
	input     textinput.Model
	focused   bool
}

// newTableModel initialises a tableModel with sensible defaults.
func newTableModel(cols []columnDef) tableModel {
	ti := textinput.New()
	ti.Placeholder = "filter..."
	ti.CharLimit = 80
	return tableModel{
		columns:  cols,
		sortCol:  -1,
		pageSize: 10,
		input:    ti,
	}
}

// Update handles keyboard input for sorting, pagination, cursor movement
// and search.
func (t tableModel) Update(msg tea.Msg) (tableModel, tea.Cmd) {
	if !t.focused {
		return t, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if t.searching {
			switch {
			case key.Matches(msg, keys.Escape):
				t.searching = false
				t.input.Blur()
				if t.input.Value() == "" {
					t.search = ""
				}
				return t, nil
			case msg.String() == "enter":
				t.search = t.input.Value()
				t.searching = false
				t.input.Blur()
				t.page = 0
				t.cursor = 0
				return t, nil
			default:
				var cmd tea.Cmd
				t.input, cmd = t.input.Update(msg)
				return t, cmd
			}
		}

		switch {
		case key.Matches(msg, keys.Search):
			t.searching = true
			t.input.SetValue(t.search)
			t.input.Focus()
			return t, textinput.Blink
		case key.Matches(msg, keys.Escape):
			t.search = ""
			t.input.SetValue("")
			t.page = 0
			t.cursor = 0
			return t, nil
		case key.Matches(msg, keys.PrevPage):
			if t.page > 0 {
				t.page--
				t.cursor = 0
			}
			return t, nil
		case key.Matches(msg, keys.NextPage):
			t.page++
			t.cursor = 0
			return t, nil
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
			return t, nil
		case key.Matches(msg, keys.Down):
			t.cursor++
			return t, nil
		default:
			col := digitToCol(msg.String())
			if col >= 0 && col < len(t.columns) {
				if col == t.sortCol {
					t.sortDesc = !t.sortDesc
				} else {
					t.sortCol = col
					t.sortDesc = t.columns[col].Desc
				}
				t.page = 0
				t.cursor = 0
				return t, nil
			}
		}
	}
	return t, nil
}

// digitToCol converts a "1"–"9" key string to a 0-indexed column number.
// Returns -1 for any other string.
func digitToCol(s string) int {
	if len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		return int(s[0] - '1')
	}
	return -1
}

// pageCount returns the total number of pages for totalRows rows at pageSize rows per page.
// Always at least 1.
func pageCount(totalRows, pageSize int) int {
	if totalRows == 0 || pageSize <= 0 {
		return 1
	}
	c := totalRows / pageSize
	if totalRows%pageSize != 0 {
		c++
	}
	return c
}

// currentPageIndices returns the slice of row indices visible on the current page.
// allIndices is typically [0, 1, 2, ... n-1] or a pre-filtered subset.
func currentPageIndices(allIndices []int, page, pageSize int) []int {
	if pageSize <= 0 || len(allIndices) == 0 {
		return allIndices
	}
	start := page * pageSize
	if start >= len(allIndices) {
		start = 0
	}
	end := start + pageSize
	if end > len(allIndices) {
		end = len(allIndices)
	}
	return allIndices[start:end]
}

// clampPage ensures the page index stays within valid bounds given the total
// number of rows and the configured pageSize.
func (t *tableModel) clampPage(totalRows int) {
	pc := pageCount(totalRows, t.pageSize)
	if t.page >= pc {
		t.page = pc - 1
	}
	if t.page < 0 {
		t.page = 0
	}
}

// currentPageRowCount returns how many rows the current page shows.
func (t *tableModel) currentPageRowCount(totalRows int) int {
	if t.pageSize <= 0 {
		return totalRows
	}
	remaining := totalRows - t.page*t.pageSize
	return max(0, min(remaining, t.pageSize))
}

// clampCursor keeps the cursor on a visible row.
func (t *tableModel) clampCursor(rows int) {
	if t.cursor >= rows {
		t.cursor = rows - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// selectedIndex returns the index into the display rows of the cursor row,
// or -1 when the page is empty.
func (t *tableModel) selectedIndex(totalRows int) int {
	if t.currentPageRowCount(totalRows) == 0 {
		return -1
	}
	return t.page*t.pageSize + t.cursor
}

// sortHeaders returns column titles with an arrow on the active sort column,
// padded to widths when widths matches the column count.
func (t *tableModel) sortHeaders(widths []int) []string {
	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		h := c.Title
		if i == t.sortCol {
			if t.sortDesc {
				h += "↓"
			} else {
				h += "↑"
			}
		}
		if len(widths) == len(t.columns) {
			if n := len([]rune(h)); n < widths[i] {
				h += strings.Repeat(" ", widths[i]-n)
			}
		}
		headers[i] = h
	}
	return headers
}

// renderTitle renders the title bar with search/sort/page hints. When the
// table is searching the live textinput view replaces the hints.
func (t *tableModel) renderTitle(title string, totalRows int) string {
	style := StyleSection
	if t.focused {
		style = StyleSectionFocused
	}
	pageInfo := fmt.Sprintf("Page %d/%d", t.page+1, pageCount(totalRows, t.pageSize))

	var right string
	switch {
	case t.searching:
		right = "Search: " + t.input.View()
	case t.search != "":
		right = fmt.Sprintf("filter=%q  %s", t.search, pageInfo)
	default:
		right = fmt.Sprintf("[/: search]  [1-%d: sort]  [←→: page]  %s", len(t.columns), pageInfo)
	}
	return style.Render(title) + "  " + StyleDim.Render(right)
}

// columnWidths distributes total terminal width across columns in
// proportion to their preferred widths. Every column gets at least 3.
func columnWidths(total int, cols []columnDef) []int {
	if total <= 0 || len(cols) == 0 {
		return nil
	}
	var pref int
	for _, c := range cols {
		pref += c.Width
	}
	out := make([]int, len(cols))
	if pref <= 0 {
		for i := range out {
			out[i] = max(3, total/len(cols))
		}
		return out
	}
	used := 0
	for i, c := range cols {
		out[i] = max(3, total*c.Width/pref)
		used += out[i]
	}
	// hand rounding slack to the first column
	if slack := total - used; slack > 0 {
		out[0] += slack
	}
	return out
}

// truncateName shortens s to width runes, ending with "…" when cut.
func truncateName(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// sanitize strips control characters (ESC included) from upstream strings.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
