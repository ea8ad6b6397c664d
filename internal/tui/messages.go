package tui

import (
	"time"

	"github.com/jtsunne/qinsight/internal/model"
)

// SnapshotMsg delivers successful poll results to the TUI.
type SnapshotMsg struct {
	Snapshot *model.Snapshot
	Insights model.Insights
}

// FetchErrorMsg signals a poll failure.
type FetchErrorMsg struct{ Err error }

// TickMsg triggers the next scheduled poll.
type TickMsg time.Time
