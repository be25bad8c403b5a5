package stats

import (
	"time"

	"github.com/velafocus/vela/internal/session"
)

// Daily holds the work totals for one calendar day. Breaks never count
// toward these totals.
type Daily struct {
	Date              string `json:"date"`
	SessionsStarted   int    `json:"sessions_started"`
	SessionsCompleted int    `json:"sessions_completed"`
	FocusMinutes      int    `json:"focus_minutes"`
}

// Record is one entry in the session history.
type Record struct {
	StartTime      time.Time    `json:"start_time"`
	EndTime        time.Time    `json:"end_time,omitzero"`
	ID             string       `json:"id"`
	Type           session.Type `json:"session_type"`
	PlannedMinutes int          `json:"planned_minutes"`
	ActualMinutes  int          `json:"actual_minutes"`
	PausedMinutes  int          `json:"paused_minutes"`
	Completed      bool         `json:"completed"`
}

// Summary aggregates statistics over a reporting period.
type Summary struct {
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	Days              []Daily   `json:"days"`
	Sessions          []Record  `json:"sessions"`
	SessionsStarted   int       `json:"sessions_started"`
	SessionsCompleted int       `json:"sessions_completed"`
	SessionsAbandoned int       `json:"sessions_abandoned"`
	BreaksCompleted   int       `json:"breaks_completed"`
	FocusMinutes      int       `json:"focus_minutes"`
}

// AvgFocusMinutes returns the mean focus time per day with activity.
func (s *Summary) AvgFocusMinutes() int {
	if len(s.Days) == 0 {
		return 0
	}

	return s.FocusMinutes / len(s.Days)
}
