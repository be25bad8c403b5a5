package timer

import (
	"context"
	"time"

	"github.com/velafocus/vela/internal/session"
)

// EventTimerComplete is broadcast when a session runs to completion.
const EventTimerComplete = "TIMER_COMPLETE"

// Event is a lifecycle notification delivered to subscribers.
type Event struct {
	Timestamp   time.Time
	Session     *session.Session
	Type        string
	SessionType session.Type
	// Duration is the planned length of the session in minutes
	Duration int
}

// Subscribe returns a channel that receives completion events until ctx is
// cancelled or the manager is closed. Events are dropped for subscribers
// whose buffer is full.
func (m *Manager) Subscribe(ctx context.Context, buffer int) <-chan Event {
	ch := make(chan Event, max(buffer, 1))

	m.subMu.Lock()

	if m.closed {
		m.subMu.Unlock()
		close(ch)

		return ch
	}

	m.subs[ch] = struct{}{}
	m.watchers.Add(1)
	m.subMu.Unlock()

	go func() {
		defer m.watchers.Done()

		select {
		case <-ctx.Done():
			m.unsubscribe(ch)
		case <-m.done:
		}
	}()

	return ch
}

func (m *Manager) unsubscribe(ch chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	if _, ok := m.subs[ch]; ok {
		delete(m.subs, ch)
		close(ch)
	}
}

// broadcast delivers e to every subscriber without blocking. Having no
// subscribers is not an error.
func (m *Manager) broadcast(e Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	if len(m.subs) == 0 {
		m.log.Debug("no listeners for timer event", "type", e.Type)
		return
	}

	for ch := range m.subs {
		select {
		case ch <- e:
		default:
			m.log.Warn("dropping timer event for slow listener", "type", e.Type)
		}
	}
}

// Close disconnects all subscribers. It is safe to call more than once.
func (m *Manager) Close() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	if m.closed {
		return
	}

	close(m.done)

	for ch := range m.subs {
		delete(m.subs, ch)
		close(ch)
	}

	m.closed = true
}
