package timer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velafocus/vela/alarm"
	"github.com/velafocus/vela/internal/session"
	"github.com/velafocus/vela/stats"
	"github.com/velafocus/vela/store"
)

var epoch = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	complete []completeCall
	streaks  []int
	daily    [][2]int
	mu       sync.Mutex
}

type completeCall struct {
	Type           session.Type
	Minutes        int
	CompletedToday int
}

func (n *fakeNotifier) ShowSessionComplete(
	t session.Type,
	minutes, completedToday int,
) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.complete = append(n.complete, completeCall{t, minutes, completedToday})

	return true
}

func (n *fakeNotifier) ShowStreakAchievement(streak int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.streaks = append(n.streaks, streak)

	return true
}

func (n *fakeNotifier) ShowDailyAchievement(count, totalMinutes int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.daily = append(n.daily, [2]int{count, totalMinutes})

	return true
}

func (n *fakeNotifier) completions() []completeCall {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]completeCall(nil), n.complete...)
}

type fakeStats struct {
	stopped   []string
	started   int
	completed int
	minutes   int
	mu        sync.Mutex
}

func (s *fakeStats) RecordSessionStarted(
	_ context.Context,
	_ *session.Session,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started++

	return nil
}

func (s *fakeStats) RecordSessionCompleted(
	_ context.Context,
	sess *session.Session,
) (stats.Daily, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Type == session.Work {
		s.completed++
		s.minutes += sess.ActualDuration
	}

	return stats.Daily{
		Date:              "2025-01-06",
		SessionsStarted:   s.started,
		SessionsCompleted: s.completed,
		FocusMinutes:      s.minutes,
	}, nil
}

func (s *fakeStats) RecordSessionStopped(
	_ context.Context,
	sess *session.Session,
	_ time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = append(s.stopped, sess.ID)

	return nil
}

type failingStore struct{}

var errDiskFull = errors.New("disk full")

func (failingStore) Get(context.Context, ...string) (map[string][]byte, error) {
	return nil, errDiskFull
}

func (failingStore) Set(context.Context, map[string][]byte) error {
	return errDiskFull
}

func (failingStore) Close() error { return nil }

type env struct {
	m        *Manager
	clock    *clock.Mock
	db       store.DB
	sched    *alarm.Scheduler
	notifier *fakeNotifier
	stats    *fakeStats
	events   <-chan Event
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(epoch)

	db, err := store.NewClient(filepath.Join(t.TempDir(), "vela.db"))
	require.NoError(t, err)

	sched := alarm.New(mock)

	e := &env{
		clock:    mock,
		db:       db,
		sched:    sched,
		notifier: &fakeNotifier{},
		stats:    &fakeStats{},
	}

	opts = append([]Option{
		WithClock(mock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	e.m = New(Deps{
		Store:     db,
		Scheduler: sched,
		Notifier:  e.notifier,
		Stats:     e.stats,
	}, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	e.events = e.m.Subscribe(ctx, 10)

	t.Cleanup(func() {
		cancel()
		e.m.Close()
		sched.Close()
		_ = db.Close()
	})

	return e
}

// seed persists a session pair directly, bypassing the manager.
func (e *env) seed(
	t *testing.T,
	sess *session.Session,
	ts *session.TimerState,
) {
	t.Helper()

	sb, err := json.Marshal(sess)
	require.NoError(t, err)

	tb, err := json.Marshal(ts)
	require.NoError(t, err)

	require.NoError(t, e.db.Set(context.Background(), map[string][]byte{
		keySession:    sb,
		keyTimerState: tb,
	}))
}

func (e *env) stored(t *testing.T) map[string][]byte {
	t.Helper()

	values, err := e.db.Get(context.Background(), keySession, keyTimerState)
	require.NoError(t, err)

	return values
}

func waitEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for timer event")
	}

	return Event{}
}

func assertNoEvent(t *testing.T, ch <-chan Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event for session %s", ev.Session.ID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStopWithoutSessionIsNoop(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.m.StopSession(ctx))
	require.NoError(t, e.m.StopSession(ctx))

	view, err := e.m.GetTimerState(ctx)
	require.NoError(t, err)

	assert.Equal(t, View{}, view)
	assert.Empty(t, e.stats.stopped)
}

func TestStopClearsSessionAndAlarm(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)

	require.NoError(t, e.m.StopSession(ctx))

	a, err := e.sched.Get(ctx, AlarmName)
	require.NoError(t, err)
	assert.Nil(t, a)
	assert.Empty(t, e.stored(t))
	assert.Equal(t, []string{"s1"}, e.stats.stopped)

	e.clock.Add(30 * time.Minute)

	assertNoEvent(t, e.events)
	assert.Empty(t, e.notifier.completions())
}

func TestStartSession(t *testing.T) {
	e := newEnv(t, WithIDGenerator(func() string { return "generated" }))
	ctx := context.Background()

	sess, err := e.m.StartSession(ctx, 25, session.Work, "")
	require.NoError(t, err)

	assert.Equal(t, &session.Session{
		ID:              "generated",
		Type:            session.Work,
		StartTime:       epoch,
		PlannedDuration: 25,
		IsActive:        true,
	}, sess)

	a, err := e.sched.Get(ctx, AlarmName)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, epoch.Add(25*time.Minute), a.ScheduledTime)

	view, err := e.m.GetTimerState(ctx)
	require.NoError(t, err)

	assert.True(t, view.IsActive)
	assert.False(t, view.IsPaused)
	assert.Equal(t, 1500, view.TimeRemaining)
	assert.Equal(t, 1500, view.PlannedDuration)
	assert.Equal(t, 1, e.stats.started)
}

func TestStartValidatesInput(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 0, session.Work, "")
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = e.m.StartSession(ctx, -5, session.Break, "")
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = e.m.StartSession(ctx, 5, session.Type("nap"), "")
	assert.ErrorIs(t, err, ErrInvalidSessionType)

	assert.Empty(t, e.stored(t))
}

func TestStartReplacesActiveSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Work, "first")
	require.NoError(t, err)

	e.clock.Add(5 * time.Minute)
	require.NoError(t, e.m.PauseSession(ctx))
	e.clock.Add(2 * time.Minute)
	require.NoError(t, e.m.ResumeSession(ctx))

	_, err = e.m.StartSession(ctx, 10, session.Break, "second")
	require.NoError(t, err)

	view, err := e.m.GetTimerState(ctx)
	require.NoError(t, err)

	require.NotNil(t, view.Session)
	assert.Equal(t, "second", view.Session.ID)
	assert.Equal(t, 0, view.Session.PausedTime)
	assert.Equal(t, 600, view.TimeRemaining)
	assert.Equal(t, 600, view.PlannedDuration)

	e.clock.Add(10 * time.Minute)

	ev := waitEvent(t, e.events)
	assert.Equal(t, "second", ev.Session.ID)
	assert.Equal(t, session.Break, ev.SessionType)

	// the first session's alarm was cancelled and never fires
	e.clock.Add(20 * time.Minute)
	assertNoEvent(t, e.events)
	assert.Len(t, e.notifier.completions(), 1)
}

func TestPauseFreezesRemainingTime(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)

	e.clock.Add(10 * time.Minute)
	require.NoError(t, e.m.PauseSession(ctx))

	a, err := e.sched.Get(ctx, AlarmName)
	require.NoError(t, err)
	assert.Nil(t, a, "pausing should cancel the alarm")

	for range 3 {
		view, err := e.m.GetTimerState(ctx)
		require.NoError(t, err)

		assert.True(t, view.IsActive)
		assert.True(t, view.IsPaused)
		assert.Equal(t, 900, view.TimeRemaining)
		assert.True(t, view.Session.IsPaused)

		e.clock.Add(7 * time.Minute)
	}

	assertNoEvent(t, e.events)
}

func TestPauseResumeKeepsRemainingTime(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)

	e.clock.Add(10 * time.Minute)
	require.NoError(t, e.m.PauseSession(ctx))

	view, err := e.m.GetTimerState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 900, view.TimeRemaining)

	require.NoError(t, e.m.ResumeSession(ctx))

	e.clock.Add(500 * time.Millisecond)

	view, err = e.m.GetTimerState(ctx)
	require.NoError(t, err)

	assert.False(t, view.IsPaused)
	assert.InDelta(t, 900, view.TimeRemaining, 1)
}

func TestResumeRoundsUpToWholeMinutes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)

	// leaves 90,500ms on the clock
	e.clock.Add(25*time.Minute - 90500*time.Millisecond)
	require.NoError(t, e.m.PauseSession(ctx))

	e.clock.Add(3 * time.Minute)
	require.NoError(t, e.m.ResumeSession(ctx))

	a, err := e.sched.Get(ctx, AlarmName)
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.Equal(t, e.clock.Now().Add(2*time.Minute), a.ScheduledTime)
}

func TestPausedTimeIsSubtractedOnCompletion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)

	e.clock.Add(5 * time.Minute)
	require.NoError(t, e.m.PauseSession(ctx))

	e.clock.Add(2 * time.Minute)
	require.NoError(t, e.m.ResumeSession(ctx))

	e.clock.Add(20 * time.Minute)

	ev := waitEvent(t, e.events)

	assert.Equal(t, EventTimerComplete, ev.Type)
	assert.True(t, ev.Session.Completed)
	assert.Equal(t, 2, ev.Session.PausedTime)
	assert.Equal(t, 23, ev.Session.ActualDuration)
	assert.Equal(t, epoch.Add(27*time.Minute), ev.Session.EndTime)
}

func TestResumeErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.m.ResumeSession(ctx), ErrNoPausedSession)

	_, err := e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)

	assert.ErrorIs(t, e.m.ResumeSession(ctx), ErrNoPausedSession)
}

func TestPauseErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	assert.ErrorIs(t, e.m.PauseSession(ctx), ErrNoActiveSession)

	// state without an armed alarm
	e.seed(t,
		session.New("orphan", session.Work, 25, epoch),
		session.NewTimerState(25, epoch),
	)

	err := e.m.PauseSession(ctx)
	assert.ErrorIs(t, err, ErrNoActiveAlarm)
	assert.NotErrorIs(t, err, ErrNoActiveSession)

	_, err = e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)
	require.NoError(t, e.m.PauseSession(ctx))

	assert.ErrorIs(t, e.m.PauseSession(ctx), ErrNoActiveSession)
}

func TestGetTimerStateSelfHealsMissingAlarm(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.seed(t,
		session.New("lost", session.Work, 25, epoch),
		session.NewTimerState(25, epoch),
	)

	view, err := e.m.GetTimerState(ctx)
	require.NoError(t, err)

	assert.Equal(t, View{}, view)
	assert.Empty(t, e.stored(t))
}

func TestSessionRunsToCompletion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 1, session.Work, "s1")
	require.NoError(t, err)

	e.clock.Add(time.Minute)

	ev := waitEvent(t, e.events)
	assert.Equal(t, session.Work, ev.SessionType)
	assert.Equal(t, 1, ev.Duration)

	view, err := e.m.GetTimerState(ctx)
	require.NoError(t, err)

	assert.False(t, view.IsActive)
	assert.Nil(t, view.Session)
	assert.Equal(t, []completeCall{
		{Type: session.Work, Minutes: 1, CompletedToday: 1},
	}, e.notifier.completions())
	assert.Empty(t, e.stored(t))
}

func TestHandleTimerCompleteWithoutSession(t *testing.T) {
	e := newEnv(t)

	require.NoError(t, e.m.HandleTimerComplete(context.Background()))

	assertNoEvent(t, e.events)
	assert.Empty(t, e.notifier.completions())
}

func TestHandleTimerCompleteFinalizesSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Break, "b1")
	require.NoError(t, err)

	e.clock.Add(3 * time.Minute)
	require.NoError(t, e.m.HandleTimerComplete(ctx))

	ev := waitEvent(t, e.events)
	assert.Equal(t, "b1", ev.Session.ID)
	assert.Equal(t, 25, ev.Session.ActualDuration)
	assert.False(t, ev.Session.IsActive)

	a, err := e.sched.Get(ctx, AlarmName)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestStaleAlarmIsIgnored(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.m.StartSession(ctx, 25, session.Work, "s1")
	require.NoError(t, err)

	e.clock.Add(5 * time.Minute)

	e.m.onAlarm(alarm.Alarm{Name: AlarmName, ScheduledTime: epoch})

	assertNoEvent(t, e.events)

	view, err := e.m.GetTimerState(ctx)
	require.NoError(t, err)
	assert.True(t, view.IsActive)
	assert.Equal(t, 1200, view.TimeRemaining)
}

func TestMilestones(t *testing.T) {
	cases := []struct {
		name       string
		before     int
		sessType   session.Type
		wantStreak []int
		wantDaily  [][2]int
	}{
		{"below thresholds", 0, session.Work, nil, nil},
		{"third session", 2, session.Work, nil, [][2]int{{3, 75}}},
		{"fifth session", 4, session.Work, []int{1}, nil},
		{"tenth session", 9, session.Work, []int{2}, nil},
		{"fifteenth session", 14, session.Work, []int{3}, [][2]int{{15, 375}}},
		{"breaks never count", 4, session.Break, nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()

			e.stats.completed = tc.before
			e.stats.minutes = tc.before * 25

			_, err := e.m.StartSession(ctx, 25, tc.sessType, "s1")
			require.NoError(t, err)

			e.clock.Add(25 * time.Minute)
			waitEvent(t, e.events)

			assert.Equal(t, tc.wantStreak, e.notifier.streaks)
			assert.Equal(t, tc.wantDaily, e.notifier.daily)
		})
	}
}

func TestCustomMilestones(t *testing.T) {
	e := newEnv(t, WithMilestones(Milestones{StreakEvery: 2, AchievementEvery: 4}))
	ctx := context.Background()

	e.stats.completed = 3
	e.stats.minutes = 60

	_, err := e.m.StartSession(ctx, 20, session.Work, "s1")
	require.NoError(t, err)
	require.NoError(t, e.m.HandleTimerComplete(ctx))

	waitEvent(t, e.events)

	assert.Equal(t, []int{2}, e.notifier.streaks)
	assert.Equal(t, [][2]int{{4, 80}}, e.notifier.daily)
}

func TestPersistenceErrorsPropagate(t *testing.T) {
	mock := clock.NewMock()
	sched := alarm.New(mock)

	t.Cleanup(sched.Close)

	m := New(Deps{
		Store:     failingStore{},
		Scheduler: sched,
	}, WithClock(mock), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx := context.Background()

	_, err := m.StartSession(ctx, 25, session.Work, "")
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errDiskFull)

	assert.ErrorIs(t, m.PauseSession(ctx), ErrPersistence)
	assert.ErrorIs(t, m.ResumeSession(ctx), ErrPersistence)
	assert.ErrorIs(t, m.StopSession(ctx), ErrPersistence)
	assert.ErrorIs(t, m.RecoverTimerState(ctx), ErrPersistence)

	_, err = m.GetTimerState(ctx)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	e := newEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch := e.m.Subscribe(ctx, 1)

	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestCloseReleasesSubscribers(t *testing.T) {
	e := newEnv(t)

	// never cancelled
	ch := e.m.Subscribe(context.Background(), 1)

	e.m.Close()
	e.m.Close()

	_, ok := <-ch
	assert.False(t, ok)

	released := make(chan struct{})

	go func() {
		e.m.watchers.Wait()
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("subscription watchers still running after Close")
	}

	assert.Empty(t, e.m.subs)

	late := e.m.Subscribe(context.Background(), 1)

	_, ok = <-late
	assert.False(t, ok)
}
