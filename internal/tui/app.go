package tui

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtsunne/qinsight/internal/client"
	"github.com/jtsunne/qinsight/internal/engine"
	"github.com/jtsunne/qinsight/internal/model"
	"github.com/jtsunne/qinsight/internal/telemetry"
)

type connState int

const (
	stateConnected connState = iota
	stateDisconnected
)

// panel identifies which lower panel has keyboard focus.
type panel int

const (
	panelNodes panel = iota
	panelShards
	panelQueries
	panelInsights
	panelCount
)

// String returns the panel's tab label.
func (p panel) String() string {
	switch p {
	case panelShards:
		return "Shards"
	case panelQueries:
		return "Queries"
	case panelInsights:
		return "Insights"
	default:
		return "Nodes"
	}
}

// App is the root Bubble Tea model for qinsight.
type App struct {
	src          client.Source
	analyzer     *engine.Analyzer
	metrics      *telemetry.Metrics
	logger       *slog.Logger
	pollInterval time.Duration

	// Poll state
	fetching bool // true while a fetchCmd goroutine is in-flight
	current  *model.Snapshot
	previous *model.Snapshot
	insights model.Insights
	history  *model.LatencyHistory

	// Connection state
	connState        connState
	consecutiveFails int
	lastError        error
	lastUpdated      time.Time

	// Layout
	width, height int

	// Panels
	focus    panel
	nodes    NodeTableModel
	shards   ShardTableModel
	queries  QueryPanelModel
	insightP InsightsPanelModel

	// UI state
	showHelp bool
}

// Option customises an App.
type Option func(*App)

// WithMetrics records every analysis into m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(app *App) { app.metrics = m }
}

// WithLogger sets the logger for poll failures. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(app *App) { app.logger = l }
}

// NewApp creates a new App polling src every interval and analysing each
// snapshot with analyzer (engine.DefaultAnalyzer when nil).
func NewApp(src client.Source, analyzer *engine.Analyzer, interval time.Duration, opts ...Option) *App {
	if analyzer == nil {
		analyzer = engine.DefaultAnalyzer()
	}
	app := &App{
		src:          src,
		analyzer:     analyzer,
		metrics:      telemetry.Noop(),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		pollInterval: interval,
		history:      model.NewLatencyHistory(0),
		connState:    stateDisconnected,
		fetching:     true, // Init() always issues an immediate fetchCmd
		nodes:        NewNodeTable(),
		shards:       NewShardTable(),
	}
	for _, opt := range opts {
		opt(app)
	}
	app.setFocus(panelNodes)
	return app
}

// Init implements tea.Model. Starts the first fetch immediately on launch.
func (app *App) Init() tea.Cmd {
	return app.fetch()
}

// Update implements tea.Model. It is the single state-mutation entry point.
func (app *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		app.width = msg.Width
		app.height = msg.Height

	case SnapshotMsg:
		app.fetching = false
		app.previous = app.current
		app.current = msg.Snapshot
		app.insights = msg.Insights
		lat := msg.Insights.Overview.Latency
		app.history.Push(model.HistoryPoint{
			Timestamp: msg.Snapshot.FetchedAt,
			P50:       lat.P50,
			P95:       lat.P95,
			P99:       lat.P99,
			Anomalies: len(msg.Insights.Anomalies),
		})
		app.nodes.SetData(msg.Insights.Record.Nodes)
		app.shards.SetData(msg.Insights.Record.Shards)
		app.queries.SetData(msg.Insights.Queries)
		app.insightP.SetData(msg.Insights.Recommendations)
		app.consecutiveFails = 0
		app.lastError = nil
		app.connState = stateConnected
		app.lastUpdated = msg.Snapshot.FetchedAt
		return app, tickCmd(app.pollInterval)

	case FetchErrorMsg:
		app.fetching = false
		app.consecutiveFails++
		app.lastError = msg.Err
		app.connState = stateDisconnected
		backoff := backoffDuration(app.consecutiveFails)
		app.logger.Warn("poll failed",
			"source", app.sourceName(),
			"fails", app.consecutiveFails,
			"retry_in", backoff,
			"error", msg.Err)
		return app, tea.Tick(backoff, func(t time.Time) tea.Msg {
			return TickMsg(t)
		})

	case TickMsg:
		if app.fetching {
			return app, nil
		}
		app.fetching = true
		return app, app.fetch()

	case tea.KeyMsg:
		// A table in search mode owns every key until it exits.
		if app.searching() {
			return app, app.updatePanel(msg)
		}
		switch {
		case key.Matches(msg, keys.Quit):
			return app, tea.Quit
		case key.Matches(msg, keys.Refresh):
			if app.fetching {
				return app, nil
			}
			app.fetching = true
			return app, app.fetch()
		case key.Matches(msg, keys.Help):
			app.showHelp = !app.showHelp
			return app, nil
		case key.Matches(msg, keys.Tab):
			app.setFocus((app.focus + 1) % panelCount)
			return app, nil
		case key.Matches(msg, keys.ShiftTab):
			app.setFocus((app.focus + panelCount - 1) % panelCount)
			return app, nil
		}
		return app, app.updatePanel(msg)
	}

	return app, nil
}

// searching reports whether the focused table is capturing a search term.
func (app *App) searching() bool {
	switch app.focus {
	case panelNodes:
		return app.nodes.searching
	case panelShards:
		return app.shards.searching
	default:
		return false
	}
}

// setFocus moves keyboard focus to p.
func (app *App) setFocus(p panel) {
	app.focus = p
	app.nodes.focused = p == panelNodes
	app.shards.focused = p == panelShards
	app.queries.focused = p == panelQueries
	app.insightP.focused = p == panelInsights
}

// updatePanel forwards msg to the focused panel.
func (app *App) updatePanel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch app.focus {
	case panelNodes:
		app.nodes, cmd = app.nodes.Update(msg)
	case panelShards:
		app.shards, cmd = app.shards.Update(msg)
	case panelQueries:
		app.queries, cmd = app.queries.Update(msg)
	case panelInsights:
		maxOff := app.insightP.maxOffset(app.contentWidth(), app.panelHeight())
		app.insightP, cmd = app.insightP.Update(msg, maxOff)
	}
	return cmd
}

// View implements tea.Model. Renders the full TUI.
func (app *App) View() string {
	parts := []string{renderHeader(app)}
	if o := renderOverview(app); o != "" {
		parts = append(parts, o)
	}
	if m := renderMetricsRow(app); m != "" {
		parts = append(parts, m)
	}
	if app.current != nil {
		parts = append(parts, renderTabs(app.focus), app.renderPanel())
	}
	parts = append(parts, renderFooter(app))

	return strings.Join(parts, "\n")
}

// renderPanel renders the focused lower panel.
func (app *App) renderPanel() string {
	width := app.contentWidth()
	agg := app.analyzer.Config().Aggregation
	switch app.focus {
	case panelShards:
		return app.shards.renderTable(width, agg)
	case panelQueries:
		return app.queries.render(width)
	case panelInsights:
		return app.insightP.render(width, app.panelHeight())
	default:
		return app.nodes.renderTable(width, agg)
	}
}

// renderTabs renders the panel selector with the active tab highlighted.
func renderTabs(active panel) string {
	tabs := make([]string, 0, panelCount)
	for p := panel(0); p < panelCount; p++ {
		label := " " + p.String() + " "
		if p == active {
			tabs = append(tabs, lipgloss.NewStyle().Bold(true).Foreground(colorWhite).Background(colorBlue).Render(label))
		} else {
			tabs = append(tabs, StyleDim.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func (app *App) contentWidth() int {
	if app.width <= 0 {
		return 80
	}
	return app.width
}

// panelHeight is the number of rows left for the lower panel once the
// header, overview, metrics, tabs and footer are drawn.
func (app *App) panelHeight() int {
	height := app.height
	if height <= 0 {
		height = 24
	}
	used := renderedHeight(renderHeader(app)) +
		renderedHeight(renderOverview(app)) +
		renderedHeight(renderMetricsRow(app)) +
		1 + // tabs
		renderedHeight(renderFooter(app))
	return max(3, height-used)
}

// renderedHeight returns the line count of s, 0 for the empty string.
func renderedHeight(s string) int {
	if s == "" {
		return 0
	}
	return lipgloss.Height(s)
}

func (app *App) sourceName() string {
	if app.src == nil {
		return ""
	}
	return app.src.Name()
}

// fetch returns the poll command for the app's current configuration.
func (app *App) fetch() tea.Cmd {
	return fetchCmd(app.src, app.analyzer, app.metrics, app.pollInterval)
}

// tickCmd schedules the next poll after duration d.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchCmd is a Bubble Tea command that fetches all four datasets, runs the
// analysis, and returns a SnapshotMsg or FetchErrorMsg.
func fetchCmd(src client.Source, analyzer *engine.Analyzer, metrics *telemetry.Metrics, interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		timeout := interval - 500*time.Millisecond
		if timeout < 500*time.Millisecond {
			timeout = 500 * time.Millisecond
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		snap, err := engine.FetchAll(ctx, src)
		if err != nil {
			return FetchErrorMsg{Err: err}
		}

		ins := analyzer.Analyze(snap)
		metrics.RecordInsights(ctx, ins)

		return SnapshotMsg{Snapshot: snap, Insights: ins}
	}
}

// backoffDuration returns min(2^fails * time.Second, 60*time.Second).
// At fails=1: 2s, fails=2: 4s, fails=3: 8s, ..., fails>=6: 60s.
func backoffDuration(fails int) time.Duration {
	const maxBackoff = 60 * time.Second
	if fails <= 0 {
		return time.Second
	}
	if fails >= 6 {
		return maxBackoff
	}
	return time.Duration(1<<fails) * time.Second
}
