package alarm_test

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velafocus/vela/alarm"
)

const name = "focusTimer"

func newScheduler(t *testing.T) (*alarm.Scheduler, *clock.Mock, chan alarm.Alarm) {
	t.Helper()

	mock := clock.NewMock()
	mock.Set(time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC))

	s := alarm.New(mock)
	t.Cleanup(s.Close)

	fired := make(chan alarm.Alarm, 4)
	s.OnAlarm(func(a alarm.Alarm) {
		fired <- a
	})

	return s, mock, fired
}

func waitFired(t *testing.T, fired <-chan alarm.Alarm) alarm.Alarm {
	t.Helper()

	select {
	case a := <-fired:
		return a
	case <-time.After(2 * time.Second):
		t.Fatal("alarm did not fire")
	}

	return alarm.Alarm{}
}

func TestCreateAndGet(t *testing.T) {
	s, mock, _ := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, name, 25))

	a, err := s.Get(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.Equal(t, name, a.Name)
	assert.Equal(t, mock.Now().Add(25*time.Minute), a.ScheduledTime)
}

func TestGetMissing(t *testing.T) {
	s, _, _ := newScheduler(t)

	a, err := s.Get(context.Background(), name)

	assert.NoError(t, err)
	assert.Nil(t, a)
}

func TestCreateRejectsShortDelay(t *testing.T) {
	s, _, _ := newScheduler(t)

	err := s.Create(context.Background(), name, 0)

	assert.Error(t, err)
}

func TestAlarmFires(t *testing.T) {
	s, mock, fired := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, name, 1))

	mock.Add(time.Minute)

	a := waitFired(t, fired)
	assert.Equal(t, name, a.Name)

	assert.Eventually(t, func() bool {
		got, _ := s.Get(ctx, name)
		return got == nil
	}, time.Second, 10*time.Millisecond)
}

func TestClearCancelsAlarm(t *testing.T) {
	s, mock, fired := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, name, 1))

	cleared, err := s.Clear(ctx, name)
	require.NoError(t, err)
	assert.True(t, cleared)

	mock.Add(2 * time.Minute)

	select {
	case <-fired:
		t.Fatal("cleared alarm fired")
	case <-time.After(50 * time.Millisecond):
	}

	cleared, err = s.Clear(ctx, name)
	require.NoError(t, err)
	assert.False(t, cleared)
}

func TestCreateReplacesPendingAlarm(t *testing.T) {
	s, mock, fired := newScheduler(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, name, 1))
	require.NoError(t, s.Create(ctx, name, 5))

	mock.Add(2 * time.Minute)

	select {
	case <-fired:
		t.Fatal("replaced alarm fired")
	case <-time.After(50 * time.Millisecond):
	}

	mock.Add(3 * time.Minute)

	a := waitFired(t, fired)
	assert.Equal(t, name, a.Name)
}

func TestCloseRejectsCreate(t *testing.T) {
	s, _, _ := newScheduler(t)

	s.Close()

	assert.Error(t, s.Create(context.Background(), name, 1))
}
