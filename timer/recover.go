package timer

import (
	"context"

	"github.com/velafocus/vela/internal/metrics"
	"github.com/velafocus/vela/internal/timeutil"
)

// Outcomes of RecoverTimerState.
const (
	RecoveryNone      = "none"
	RecoveryCompleted = "completed"
	RecoveryRearmed   = "rearmed"
	RecoveryPaused    = "paused"
)

// RecoverTimerState reconciles the persisted session with the wall clock
// after a restart. It must run once before any other operation since alarms
// do not survive the process.
//
// A session whose time ran out is completed, paused or not. Elapsed time
// excludes only finished pauses, so a pause still open at restart counts as
// running time. Otherwise a paused session is left alone and a running one
// gets its alarm re-armed for the remaining minutes, rounded up.
func (m *Manager) RecoverTimerState(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outcome, err := m.recover(ctx)
	if err != nil {
		return m.fail("recover", err)
	}

	metrics.Recoveries.WithLabelValues(outcome).Inc()

	return nil
}

func (m *Manager) recover(ctx context.Context) (string, error) {
	sess, ts, err := m.load(ctx)
	if err != nil {
		return "", err
	}

	if sess == nil || !ts.IsActive {
		return RecoveryNone, nil
	}

	nowMs := m.clock.Now().UnixMilli()

	if ts.Expired(nowMs) {
		m.log.Info("session expired while vela was not running",
			"id", sess.ID,
			"paused", ts.IsPaused,
		)

		return RecoveryCompleted, m.complete(ctx, sess)
	}

	if ts.IsPaused {
		m.log.Info("recovered paused session", "id", sess.ID)
		return RecoveryPaused, nil
	}

	remainingMin := timeutil.CeilMinutes(ts.Remaining(nowMs))
	if remainingMin < 1 {
		return RecoveryCompleted, m.complete(ctx, sess)
	}

	err = m.scheduler.Create(ctx, AlarmName, remainingMin)
	if err != nil {
		return "", ErrScheduler.Wrap(err)
	}

	m.log.Info("re-armed recovered session",
		"id", sess.ID,
		"alarm_minutes", remainingMin,
	)

	return RecoveryRearmed, nil
}
