// Package session defines focus sessions and the clock bookkeeping that
// tracks them
package session

import (
	"time"

	"github.com/velafocus/vela/internal/timeutil"
)

// Type represents the kind of session.
type Type string

const (
	Work  Type = "work"
	Break Type = "break"
)

// Valid reports whether t is a known session type.
func (t Type) Valid() bool {
	return t == Work || t == Break
}

// Session represents one work or break interval. Durations are in minutes.
type Session struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	ID              string    `json:"id"`
	Type            Type      `json:"session_type"`
	PlannedDuration int       `json:"planned_duration"`
	ActualDuration  int       `json:"actual_duration"`
	// PausedTime is the cumulative time spent paused, each pause rounded up
	// to the next minute
	PausedTime int  `json:"paused_time"`
	Completed  bool `json:"completed"`
	IsActive   bool `json:"is_active"`
	IsPaused   bool `json:"is_paused"`
}

// New returns an active session that starts at the given time.
func New(id string, t Type, minutes int, now time.Time) *Session {
	return &Session{
		ID:              id,
		Type:            t,
		StartTime:       now,
		PlannedDuration: minutes,
		IsActive:        true,
	}
}

// AddPause folds a pause interval into the session's paused minutes.
func (s *Session) AddPause(d time.Duration) {
	s.PausedTime += timeutil.CeilMinutes(d.Milliseconds())
}

// Finalize marks the session as completed at the given time.
func (s *Session) Finalize(now time.Time) {
	s.EndTime = now
	s.Completed = true
	s.IsActive = false
	s.IsPaused = false

	s.ActualDuration = s.PlannedDuration - s.PausedTime
	if s.ActualDuration < 0 {
		s.ActualDuration = 0
	}
}

// TimerState is the durable clock bookkeeping for the active session. All
// values are in milliseconds.
type TimerState struct {
	PausedAt        *int64 `json:"paused_at,omitempty"`
	RemainingTime   *int64 `json:"remaining_time,omitempty"`
	StartTime       int64  `json:"start_time"`
	PlannedDuration int64  `json:"planned_duration"`
	PausedTime      int64  `json:"paused_time"`
	IsActive        bool   `json:"is_active"`
	IsPaused        bool   `json:"is_paused"`
}

// NewTimerState returns the running timer state for a session of the given
// length in minutes.
func NewTimerState(minutes int, now time.Time) *TimerState {
	return &TimerState{
		IsActive:        true,
		StartTime:       now.UnixMilli(),
		PlannedDuration: int64(minutes) * timeutil.MillisPerMinute,
	}
}

// Elapsed returns the running time of the session at nowMs, excluding
// completed pauses.
func (ts *TimerState) Elapsed(nowMs int64) int64 {
	return nowMs - ts.StartTime - ts.PausedTime
}

// Remaining returns the time left at nowMs. While paused, the value frozen at
// pause time is returned.
func (ts *TimerState) Remaining(nowMs int64) int64 {
	if ts.IsPaused && ts.RemainingTime != nil {
		return *ts.RemainingTime
	}

	return max(0, ts.PlannedDuration-ts.Elapsed(nowMs))
}

// Expired reports whether the planned duration has fully elapsed at nowMs.
func (ts *TimerState) Expired(nowMs int64) bool {
	return ts.Elapsed(nowMs) >= ts.PlannedDuration
}

// Pause freezes the remaining time at nowMs.
func (ts *TimerState) Pause(nowMs int64) {
	remaining := ts.Remaining(nowMs)

	ts.IsPaused = true
	ts.PausedAt = &nowMs
	ts.RemainingTime = &remaining
}

// Resume folds the pause that began at PausedAt into the cumulative paused
// time and returns its length.
func (ts *TimerState) Resume(nowMs int64) time.Duration {
	var pauseMs int64
	if ts.PausedAt != nil {
		pauseMs = max(0, nowMs-*ts.PausedAt)
	}

	ts.PausedTime += pauseMs
	ts.IsPaused = false
	ts.PausedAt = nil
	ts.RemainingTime = nil

	return time.Duration(pauseMs) * time.Millisecond
}
