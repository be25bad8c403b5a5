// Package alarm schedules named one-shot alarms with minute granularity.
// Alarms live in memory only and are lost when the process exits.
package alarm

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/velafocus/vela/internal/apperr"
)

var (
	errInvalidDelay = &apperr.Error{
		Message: "alarm %q: delay must be at least 1 minute, got %d",
	}

	errSchedulerClosed = &apperr.Error{
		Message: "alarm scheduler is closed",
	}
)

// Alarm describes a pending alarm.
type Alarm struct {
	ScheduledTime time.Time `json:"scheduled_time"`
	Name          string    `json:"name"`
}

// Handler is invoked when an alarm fires.
type Handler func(Alarm)

type entry struct {
	timer *clock.Timer
	alarm Alarm
}

// Scheduler owns the timers backing each named alarm. Creating an alarm with
// a name that is already pending replaces it.
type Scheduler struct {
	clock    clock.Clock
	pending  map[string]*entry
	handlers []Handler
	mu       sync.Mutex
	closed   bool
}

// New returns a scheduler driven by the given clock.
func New(c clock.Clock) *Scheduler {
	if c == nil {
		c = clock.New()
	}

	return &Scheduler{
		clock:   c,
		pending: make(map[string]*entry),
	}
}

// OnAlarm registers a handler that is called every time an alarm fires.
func (s *Scheduler) OnAlarm(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers = append(s.handlers, h)
}

// Create schedules the named alarm to fire after delayInMinutes.
func (s *Scheduler) Create(
	_ context.Context,
	name string,
	delayInMinutes int,
) error {
	if delayInMinutes < 1 {
		return errInvalidDelay.Fmt(name, delayInMinutes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errSchedulerClosed
	}

	s.clearLocked(name)

	delay := time.Duration(delayInMinutes) * time.Minute

	e := &entry{
		alarm: Alarm{
			Name:          name,
			ScheduledTime: s.clock.Now().Add(delay),
		},
	}

	s.pending[name] = e

	e.timer = s.clock.AfterFunc(delay, func() {
		s.fire(e)
	})

	return nil
}

// Clear cancels the named alarm. It reports whether an alarm was pending.
func (s *Scheduler) Clear(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked(name), nil
}

// Get returns the named alarm, or nil if none is pending.
func (s *Scheduler) Get(_ context.Context, name string) (*Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.pending[name]
	if !ok {
		return nil, nil
	}

	a := e.alarm

	return &a, nil
}

// Close cancels every pending alarm. Further calls to Create fail.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name := range s.pending {
		s.clearLocked(name)
	}

	s.closed = true
}

func (s *Scheduler) clearLocked(name string) bool {
	e, ok := s.pending[name]
	if !ok {
		return false
	}

	e.timer.Stop()
	delete(s.pending, name)

	return true
}

// fire delivers the alarm to all handlers. The alarm stays visible to Get
// until the handlers return so that callers never observe a gap between
// expiry and completion.
func (s *Scheduler) fire(e *entry) {
	s.mu.Lock()
	if s.pending[e.alarm.Name] != e {
		// cleared or replaced before the timer went off
		s.mu.Unlock()
		return
	}

	handlers := make([]Handler, len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.Unlock()

	for _, h := range handlers {
		h(e.alarm)
	}

	s.mu.Lock()
	if s.pending[e.alarm.Name] == e {
		delete(s.pending, e.alarm.Name)
	}
	s.mu.Unlock()
}
