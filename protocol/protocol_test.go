package protocol_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velafocus/vela/internal/session"
	"github.com/velafocus/vela/protocol"
	"github.com/velafocus/vela/timer"
)

type call struct {
	op      string
	typ     session.Type
	id      string
	minutes int
}

type fakeManager struct {
	err   error
	view  timer.View
	calls []call
}

func (f *fakeManager) StartSession(
	_ context.Context,
	minutes int,
	t session.Type,
	id string,
) (*session.Session, error) {
	f.calls = append(f.calls, call{op: "start", minutes: minutes, typ: t, id: id})
	return &session.Session{}, f.err
}

func (f *fakeManager) PauseSession(context.Context) error {
	f.calls = append(f.calls, call{op: "pause"})
	return f.err
}

func (f *fakeManager) ResumeSession(context.Context) error {
	f.calls = append(f.calls, call{op: "resume"})
	return f.err
}

func (f *fakeManager) StopSession(context.Context) error {
	f.calls = append(f.calls, call{op: "stop"})
	return f.err
}

func (f *fakeManager) GetTimerState(context.Context) (timer.View, error) {
	f.calls = append(f.calls, call{op: "state"})
	return f.view, f.err
}

func TestDecode(t *testing.T) {
	cases := []struct {
		in   string
		want protocol.Request
	}{
		{
			`{"type":"START_TIMER","duration":25,"sessionType":"break","sessionId":"abc"}`,
			protocol.StartTimer{Duration: 25, SessionType: session.Break, SessionID: "abc"},
		},
		{
			`{"type":"START_TIMER","duration":50}`,
			protocol.StartTimer{Duration: 50, SessionType: session.Work},
		},
		{`{"type":"PAUSE_TIMER"}`, protocol.PauseTimer{}},
		{`{"type":"RESUME_TIMER"}`, protocol.ResumeTimer{}},
		{`{"type":"STOP_TIMER"}`, protocol.StopTimer{}},
		{`{"type":"GET_TIMER_STATE"}`, protocol.GetTimerState{}},
	}

	for _, tc := range cases {
		got, err := protocol.Decode([]byte(tc.in))
		require.NoError(t, err, tc.in)

		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("Decode(%s) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := protocol.Decode([]byte(`{"type":"SNOOZE"}`))
	assert.ErrorContains(t, err, "SNOOZE")

	_, err = protocol.Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = protocol.Decode([]byte(`{"type":"START_TIMER","duration":"ten"}`))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	reqs := []protocol.Request{
		protocol.StartTimer{Duration: 25, SessionType: session.Work, SessionID: "x"},
		protocol.PauseTimer{},
		protocol.GetTimerState{},
	}

	for _, req := range reqs {
		b, err := protocol.Encode(req)
		require.NoError(t, err)

		var env map[string]any
		require.NoError(t, json.Unmarshal(b, &env))
		assert.Equal(t, string(req.Type()), env["type"])

		got, err := protocol.Decode(b)
		require.NoError(t, err)
		assert.Equal(t, req, got)
	}
}

func TestDispatchRoutesCommands(t *testing.T) {
	m := &fakeManager{}
	ctx := context.Background()

	reqs := []protocol.Request{
		protocol.StartTimer{Duration: 25, SessionType: session.Work, SessionID: "s1"},
		protocol.PauseTimer{},
		protocol.ResumeTimer{},
		protocol.StopTimer{},
	}

	for _, req := range reqs {
		assert.Equal(t, protocol.Response{Success: true}, protocol.Dispatch(ctx, m, req))
	}

	assert.Equal(t, []call{
		{op: "start", minutes: 25, typ: session.Work, id: "s1"},
		{op: "pause"},
		{op: "resume"},
		{op: "stop"},
	}, m.calls)
}

func TestDispatchReportsErrors(t *testing.T) {
	m := &fakeManager{err: timer.ErrNoPausedSession}

	got := protocol.Dispatch(context.Background(), m, protocol.ResumeTimer{})

	assert.Equal(t, protocol.Response{
		Error: timer.ErrNoPausedSession.Error(),
	}, got)

	m.err = errors.New("boom")
	got = protocol.Dispatch(context.Background(), m, protocol.GetTimerState{})
	assert.Equal(t, protocol.Response{Error: "boom"}, got)
}

func TestDispatchTimerState(t *testing.T) {
	sess := &session.Session{ID: "s1", Type: session.Work, PlannedDuration: 25}
	m := &fakeManager{view: timer.View{
		Session:         sess,
		IsActive:        true,
		TimeRemaining:   900,
		PlannedDuration: 1500,
	}}

	got := protocol.Dispatch(context.Background(), m, protocol.GetTimerState{})

	assert.Equal(t, protocol.TimerStateView{
		Session:         sess,
		IsActive:        true,
		TimeRemaining:   900,
		PlannedDuration: 1500,
	}, got)

	b, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"timeRemaining":900`)
	assert.Contains(t, string(b), `"isPaused":false`)
}

func TestCompleteFrom(t *testing.T) {
	at := time.Date(2025, time.January, 6, 9, 25, 0, 0, time.UTC)
	sess := &session.Session{ID: "s1", Type: session.Work, Completed: true}

	got := protocol.CompleteFrom(timer.Event{
		Type:        timer.EventTimerComplete,
		Timestamp:   at,
		SessionType: session.Work,
		Duration:    25,
		Session:     sess,
	})

	assert.Equal(t, protocol.TimerComplete{
		Type:        protocol.TypeTimerComplete,
		Timestamp:   at.UnixMilli(),
		SessionType: session.Work,
		Duration:    25,
		Session:     sess,
	}, got)
}
