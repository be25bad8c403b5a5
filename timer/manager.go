// Package timer owns the lifecycle of the active focus or break session. It
// persists the session and its clock bookkeeping, keeps a single alarm armed
// for the session's end and recovers both after a restart.
package timer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/velafocus/vela/alarm"
	"github.com/velafocus/vela/internal/metrics"
	"github.com/velafocus/vela/internal/session"
	"github.com/velafocus/vela/internal/timeutil"
	"github.com/velafocus/vela/stats"
	"github.com/velafocus/vela/store"
)

const (
	// AlarmName is the only alarm the manager schedules.
	AlarmName = "focusTimer"

	keySession    = "currentSession"
	keyTimerState = "timerState"

	// alarms that fire slightly ahead of the computed end still count as due
	dueTolerance = time.Second
)

// Scheduler arms and cancels named one-shot alarms.
type Scheduler interface {
	Create(ctx context.Context, name string, delayInMinutes int) error
	Clear(ctx context.Context, name string) (bool, error)
	Get(ctx context.Context, name string) (*alarm.Alarm, error)
	OnAlarm(h alarm.Handler)
}

// Notifier presents completion and milestone alerts. Each method reports
// whether the alert was shown.
type Notifier interface {
	ShowSessionComplete(t session.Type, minutes, completedToday int) bool
	ShowStreakAchievement(streak int) bool
	ShowDailyAchievement(count, totalMinutes int) bool
}

// Aggregator accumulates session statistics.
type Aggregator interface {
	RecordSessionStarted(ctx context.Context, sess *session.Session) error
	RecordSessionCompleted(
		ctx context.Context,
		sess *session.Session,
	) (stats.Daily, error)
	RecordSessionStopped(
		ctx context.Context,
		sess *session.Session,
		at time.Time,
	) error
}

// Deps are the collaborators of a Manager. Store and Scheduler are
// required.
type Deps struct {
	Store     store.DB
	Scheduler Scheduler
	Notifier  Notifier
	Stats     Aggregator
}

// Milestones controls how often achievement alerts are shown.
type Milestones struct {
	StreakEvery      int
	AchievementEvery int
}

// View is a snapshot of the timer. Durations are in seconds.
type View struct {
	Session         *session.Session
	IsActive        bool
	IsPaused        bool
	TimeRemaining   int
	PlannedDuration int
}

// Manager serializes every timer operation behind a single mutex.
type Manager struct {
	store      store.DB
	scheduler  Scheduler
	notifier   Notifier
	stats      Aggregator
	clock      clock.Clock
	log        *slog.Logger
	newID      func() string
	subs       map[chan Event]struct{}
	sessionCmd string
	milestones Milestones
	mu         sync.Mutex
	subMu      sync.Mutex
	closed     bool
	// done is closed by Close to release subscription watchers
	done     chan struct{}
	watchers sync.WaitGroup
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		m.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithMilestones sets the milestone thresholds. Non-positive values keep the
// defaults.
func WithMilestones(ms Milestones) Option {
	return func(m *Manager) {
		if ms.StreakEvery > 0 {
			m.milestones.StreakEvery = ms.StreakEvery
		}

		if ms.AchievementEvery > 0 {
			m.milestones.AchievementEvery = ms.AchievementEvery
		}
	}
}

// WithSessionCmd sets a command that is executed after every completed
// session.
func WithSessionCmd(cmd string) Option {
	return func(m *Manager) {
		m.sessionCmd = cmd
	}
}

// WithIDGenerator overrides how session IDs are generated.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// New returns a Manager and registers it for the scheduler's alarms.
func New(deps Deps, opts ...Option) *Manager {
	m := &Manager{
		store:     deps.Store,
		scheduler: deps.Scheduler,
		notifier:  deps.Notifier,
		stats:     deps.Stats,
		clock:     clock.New(),
		log:       slog.Default(),
		newID:     uuid.NewString,
		subs:      make(map[chan Event]struct{}),
		done:      make(chan struct{}),
		milestones: Milestones{
			StreakEvery:      5,
			AchievementEvery: 3,
		},
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.notifier == nil {
		m.notifier = nopNotifier{}
	}

	if m.stats == nil {
		m.stats = nopAggregator{}
	}

	m.scheduler.OnAlarm(m.onAlarm)

	return m
}

// StartSession replaces any existing session with a new running one.
func (m *Manager) StartSession(
	ctx context.Context,
	minutes int,
	t session.Type,
	id string,
) (*session.Session, error) {
	if minutes <= 0 {
		return nil, m.fail("start", ErrInvalidDuration.Fmt(minutes))
	}

	if !t.Valid() {
		return nil, m.fail("start", ErrInvalidSessionType.Fmt(t))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := m.scheduler.Clear(ctx, AlarmName)
	if err != nil {
		return nil, m.fail("start", ErrScheduler.Wrap(err))
	}

	if id == "" {
		id = m.newID()
	}

	now := m.clock.Now()

	sess := session.New(id, t, minutes, now)
	ts := session.NewTimerState(minutes, now)

	err = m.save(ctx, sess, ts)
	if err != nil {
		return nil, m.fail("start", err)
	}

	err = m.scheduler.Create(ctx, AlarmName, minutes)
	if err != nil {
		return nil, m.fail("start", ErrScheduler.Wrap(err))
	}

	err = m.stats.RecordSessionStarted(ctx, sess)
	if err != nil {
		m.log.Warn("unable to record session start", "id", id, "error", err)
	}

	metrics.SessionsStarted.WithLabelValues(string(t)).Inc()

	m.log.Info("session started",
		"id", id,
		"type", t,
		"minutes", minutes,
	)

	started := *sess

	return &started, nil
}

// PauseSession freezes the remaining time of the running session.
func (m *Manager) PauseSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ts, err := m.load(ctx)
	if err != nil {
		return m.fail("pause", err)
	}

	if sess == nil || !ts.IsActive || ts.IsPaused {
		return m.fail("pause", ErrNoActiveSession)
	}

	a, err := m.scheduler.Get(ctx, AlarmName)
	if err != nil {
		return m.fail("pause", ErrScheduler.Wrap(err))
	}

	if a == nil {
		return m.fail("pause", ErrNoActiveAlarm)
	}

	ts.Pause(m.clock.Now().UnixMilli())

	_, err = m.scheduler.Clear(ctx, AlarmName)
	if err != nil {
		return m.fail("pause", ErrScheduler.Wrap(err))
	}

	sess.IsPaused = true

	err = m.save(ctx, sess, ts)
	if err != nil {
		return m.fail("pause", err)
	}

	m.log.Info("session paused",
		"id", sess.ID,
		"remaining_ms", *ts.RemainingTime,
	)

	return nil
}

// ResumeSession re-arms the alarm for the remaining time of a paused
// session. The alarm has minute granularity so the remaining time is rounded
// up.
func (m *Manager) ResumeSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ts, err := m.load(ctx)
	if err != nil {
		return m.fail("resume", err)
	}

	if sess == nil || !ts.IsPaused {
		return m.fail("resume", ErrNoPausedSession)
	}

	nowMs := m.clock.Now().UnixMilli()
	remainingMin := timeutil.CeilMinutes(ts.Remaining(nowMs))

	if remainingMin > 0 {
		err = m.scheduler.Create(ctx, AlarmName, remainingMin)
		if err != nil {
			return m.fail("resume", ErrScheduler.Wrap(err))
		}
	}

	sess.AddPause(ts.Resume(nowMs))
	sess.IsPaused = false

	err = m.save(ctx, sess, ts)
	if err != nil {
		return m.fail("resume", err)
	}

	m.log.Info("session resumed",
		"id", sess.ID,
		"alarm_minutes", remainingMin,
		"paused_minutes", sess.PausedTime,
	)

	if remainingMin == 0 {
		// paused right at the end, nothing left to run
		return m.complete(ctx, sess)
	}

	return nil
}

// StopSession cancels the alarm and discards the session. It is a no-op
// when nothing is active.
func (m *Manager) StopSession(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stop(ctx)
}

func (m *Manager) stop(ctx context.Context) error {
	_, err := m.scheduler.Clear(ctx, AlarmName)
	if err != nil {
		return m.fail("stop", ErrScheduler.Wrap(err))
	}

	sess, _, err := m.load(ctx)
	if err != nil {
		m.log.Warn("unable to read session being stopped", "error", err)
	}

	err = m.clear(ctx)
	if err != nil {
		return m.fail("stop", err)
	}

	if sess == nil {
		return nil
	}

	err = m.stats.RecordSessionStopped(ctx, sess, m.clock.Now())
	if err != nil {
		m.log.Warn("unable to record stopped session", "id", sess.ID, "error", err)
	}

	m.log.Info("session stopped", "id", sess.ID, "type", sess.Type)

	return nil
}

// GetTimerState reports the current timer. An active session whose alarm has
// gone missing is stopped and reported as inactive.
func (m *Manager) GetTimerState(ctx context.Context) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ts, err := m.load(ctx)
	if err != nil {
		return View{}, m.fail("state", err)
	}

	if sess == nil || !ts.IsActive {
		return View{}, nil
	}

	planned := timeutil.CeilSeconds(ts.PlannedDuration)

	if ts.IsPaused {
		return View{
			Session:         sess,
			IsActive:        true,
			IsPaused:        true,
			TimeRemaining:   timeutil.CeilSeconds(ts.Remaining(m.clock.Now().UnixMilli())),
			PlannedDuration: planned,
		}, nil
	}

	a, err := m.scheduler.Get(ctx, AlarmName)
	if err != nil {
		return View{}, m.fail("state", ErrScheduler.Wrap(err))
	}

	if a == nil {
		m.log.Warn("active session has no alarm, stopping it", "id", sess.ID)

		err = m.stop(ctx)
		if err != nil {
			return View{}, err
		}

		return View{}, nil
	}

	remaining := max(0, a.ScheduledTime.Sub(m.clock.Now()))

	return View{
		Session:         sess,
		IsActive:        true,
		TimeRemaining:   timeutil.CeilSeconds(remaining.Milliseconds()),
		PlannedDuration: planned,
	}, nil
}

// HandleTimerComplete finalizes the current session. Completing when no
// session exists is logged and ignored.
func (m *Manager) HandleTimerComplete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, _, err := m.load(ctx)
	if err != nil {
		return m.fail("complete", err)
	}

	return m.complete(ctx, sess)
}

// onAlarm drops deliveries that no longer match the stored session, such as
// a callback from an alarm that was replaced while it was firing.
func (m *Manager) onAlarm(a alarm.Alarm) {
	if a.Name != AlarmName {
		return
	}

	ctx := context.Background()

	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ts, err := m.load(ctx)
	if err != nil {
		m.log.Error("unable to load session for alarm", "error", err)
		return
	}

	if sess == nil {
		m.log.Info("alarm fired with no active session")
		return
	}

	if ts.IsPaused {
		m.log.Info("ignoring alarm for paused session", "id", sess.ID)
		return
	}

	nowMs := m.clock.Now().UnixMilli()
	if ts.Elapsed(nowMs)+dueTolerance.Milliseconds() < ts.PlannedDuration {
		m.log.Info("ignoring stale alarm",
			"id", sess.ID,
			"remaining_ms", ts.Remaining(nowMs),
		)

		return
	}

	err = m.complete(ctx, sess)
	if err != nil {
		m.log.Error("unable to complete session", "id", sess.ID, "error", err)
	}
}

func (m *Manager) complete(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		m.log.Info("timer completed with no active session")
		return nil
	}

	now := m.clock.Now()

	sess.Finalize(now)

	_, err := m.scheduler.Clear(ctx, AlarmName)
	if err != nil {
		m.log.Warn("unable to clear alarm on completion", "error", err)
	}

	daily, err := m.stats.RecordSessionCompleted(ctx, sess)
	if err != nil {
		m.log.Warn("unable to record completed session",
			"id", sess.ID,
			"error", err,
		)
	}

	err = m.clear(ctx)
	if err != nil {
		return m.fail("complete", err)
	}

	metrics.SessionsCompleted.WithLabelValues(string(sess.Type)).Inc()

	m.log.Info("session completed",
		"id", sess.ID,
		"type", sess.Type,
		"actual_minutes", sess.ActualDuration,
		"completed_today", daily.SessionsCompleted,
	)

	shown := m.notifier.ShowSessionComplete(
		sess.Type,
		sess.PlannedDuration,
		daily.SessionsCompleted,
	)
	metrics.Notifications.WithLabelValues("complete", metrics.Shown(shown)).Inc()

	if sess.Type == session.Work {
		m.checkMilestones(daily)
	}

	if m.sessionCmd != "" {
		go func() {
			err := runSessionCmd(context.Background(), m.sessionCmd)
			if err != nil {
				m.log.Warn("session command failed", "error", err)
			}
		}()
	}

	m.broadcast(Event{
		Type:        EventTimerComplete,
		Timestamp:   now,
		SessionType: sess.Type,
		Duration:    sess.PlannedDuration,
		Session:     sess,
	})

	return nil
}

// checkMilestones shows the streak and daily achievement alerts whose
// thresholds the day's completed count has just reached.
func (m *Manager) checkMilestones(d stats.Daily) {
	count := d.SessionsCompleted
	if count == 0 {
		return
	}

	if count%m.milestones.StreakEvery == 0 {
		shown := m.notifier.ShowStreakAchievement(
			count / m.milestones.StreakEvery,
		)
		metrics.Notifications.WithLabelValues("streak", metrics.Shown(shown)).Inc()
	}

	if count%m.milestones.AchievementEvery == 0 {
		shown := m.notifier.ShowDailyAchievement(count, d.FocusMinutes)
		metrics.Notifications.WithLabelValues("daily", metrics.Shown(shown)).Inc()
	}
}

// load returns the persisted session pair, or nil values if either half is
// missing.
func (m *Manager) load(
	ctx context.Context,
) (*session.Session, *session.TimerState, error) {
	values, err := m.store.Get(ctx, keySession, keyTimerState)
	if err != nil {
		return nil, nil, ErrPersistence.Wrap(err)
	}

	sb, ok := values[keySession]
	if !ok {
		return nil, nil, nil
	}

	tb, ok := values[keyTimerState]
	if !ok {
		return nil, nil, nil
	}

	var (
		sess session.Session
		ts   session.TimerState
	)

	err = json.Unmarshal(sb, &sess)
	if err != nil {
		return nil, nil, ErrPersistence.Wrap(err)
	}

	err = json.Unmarshal(tb, &ts)
	if err != nil {
		return nil, nil, ErrPersistence.Wrap(err)
	}

	return &sess, &ts, nil
}

func (m *Manager) save(
	ctx context.Context,
	sess *session.Session,
	ts *session.TimerState,
) error {
	sb, err := json.Marshal(sess)
	if err != nil {
		return ErrPersistence.Wrap(err)
	}

	tb, err := json.Marshal(ts)
	if err != nil {
		return ErrPersistence.Wrap(err)
	}

	err = m.store.Set(ctx, map[string][]byte{
		keySession:    sb,
		keyTimerState: tb,
	})
	if err != nil {
		return ErrPersistence.Wrap(err)
	}

	return nil
}

func (m *Manager) clear(ctx context.Context) error {
	err := m.store.Set(ctx, map[string][]byte{
		keySession:    nil,
		keyTimerState: nil,
	})
	if err != nil {
		return ErrPersistence.Wrap(err)
	}

	return nil
}

func (m *Manager) fail(op string, err error) error {
	metrics.TimerErrors.WithLabelValues(op).Inc()

	return err
}

type nopNotifier struct{}

func (nopNotifier) ShowSessionComplete(session.Type, int, int) bool { return false }

func (nopNotifier) ShowStreakAchievement(int) bool { return false }

func (nopNotifier) ShowDailyAchievement(int, int) bool { return false }

type nopAggregator struct{}

func (nopAggregator) RecordSessionStarted(context.Context, *session.Session) error {
	return nil
}

func (nopAggregator) RecordSessionCompleted(
	context.Context,
	*session.Session,
) (stats.Daily, error) {
	return stats.Daily{}, nil
}

func (nopAggregator) RecordSessionStopped(
	context.Context,
	*session.Session,
	time.Time,
) error {
	return nil
}
