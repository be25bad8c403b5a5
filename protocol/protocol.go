// Package protocol defines the messages callers exchange with the timer
// daemon and routes them to the timer manager
package protocol

import (
	"context"
	"encoding/json"

	"github.com/velafocus/vela/internal/apperr"
	"github.com/velafocus/vela/internal/session"
	"github.com/velafocus/vela/timer"
)

var (
	errMalformedMessage = &apperr.Error{
		Message: "malformed message",
	}

	errUnknownMessage = &apperr.Error{
		Message: "unknown message type %q",
	}
)

// MessageType identifies a message on the wire.
type MessageType string

const (
	TypeStartTimer    MessageType = "START_TIMER"
	TypePauseTimer    MessageType = "PAUSE_TIMER"
	TypeResumeTimer   MessageType = "RESUME_TIMER"
	TypeStopTimer     MessageType = "STOP_TIMER"
	TypeGetTimerState MessageType = "GET_TIMER_STATE"
	TypeTimerComplete MessageType = "TIMER_COMPLETE"
)

// Request is one of the closed set of caller requests.
type Request interface {
	Type() MessageType
	isRequest()
}

// StartTimer starts a new session. SessionType defaults to work and
// SessionID is generated when empty.
type StartTimer struct {
	SessionType session.Type `json:"sessionType,omitempty"`
	SessionID   string       `json:"sessionId,omitempty"`
	Duration    int          `json:"duration"`
}

type PauseTimer struct{}

type ResumeTimer struct{}

type StopTimer struct{}

type GetTimerState struct{}

func (StartTimer) Type() MessageType    { return TypeStartTimer }
func (PauseTimer) Type() MessageType    { return TypePauseTimer }
func (ResumeTimer) Type() MessageType   { return TypeResumeTimer }
func (StopTimer) Type() MessageType     { return TypeStopTimer }
func (GetTimerState) Type() MessageType { return TypeGetTimerState }

func (StartTimer) isRequest()    {}
func (PauseTimer) isRequest()    {}
func (ResumeTimer) isRequest()   {}
func (StopTimer) isRequest()     {}
func (GetTimerState) isRequest() {}

// Response acknowledges a command.
type Response struct {
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
}

// TimerStateView answers GET_TIMER_STATE. Durations are in seconds.
type TimerStateView struct {
	Session         *session.Session `json:"session"`
	IsActive        bool             `json:"isActive"`
	IsPaused        bool             `json:"isPaused"`
	TimeRemaining   int              `json:"timeRemaining"`
	PlannedDuration int              `json:"plannedDuration"`
}

// TimerComplete is broadcast when a session ends naturally. Timestamp is in
// epoch milliseconds and Duration in minutes.
type TimerComplete struct {
	Session     *session.Session `json:"session"`
	Type        MessageType      `json:"type"`
	SessionType session.Type     `json:"sessionType"`
	Timestamp   int64            `json:"timestamp"`
	Duration    int              `json:"duration"`
}

type envelope struct {
	Type MessageType `json:"type"`
}

// Decode parses a message envelope into its request variant.
func Decode(b []byte) (Request, error) {
	var env envelope

	err := json.Unmarshal(b, &env)
	if err != nil {
		return nil, errMalformedMessage.Wrap(err)
	}

	var req Request

	switch env.Type {
	case TypeStartTimer:
		var st StartTimer

		err = json.Unmarshal(b, &st)
		if err != nil {
			return nil, errMalformedMessage.Wrap(err)
		}

		if st.SessionType == "" {
			st.SessionType = session.Work
		}

		req = st
	case TypePauseTimer:
		req = PauseTimer{}
	case TypeResumeTimer:
		req = ResumeTimer{}
	case TypeStopTimer:
		req = StopTimer{}
	case TypeGetTimerState:
		req = GetTimerState{}
	default:
		return nil, errUnknownMessage.Fmt(env.Type)
	}

	return req, nil
}

// Encode serializes req with its type tag.
func Encode(req Request) ([]byte, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]json.RawMessage)

	err = json.Unmarshal(b, &fields)
	if err != nil {
		return nil, err
	}

	fields["type"], err = json.Marshal(req.Type())
	if err != nil {
		return nil, err
	}

	return json.Marshal(fields)
}

// Manager is the set of timer operations reachable through messages.
type Manager interface {
	StartSession(
		ctx context.Context,
		minutes int,
		t session.Type,
		id string,
	) (*session.Session, error)
	PauseSession(ctx context.Context) error
	ResumeSession(ctx context.Context) error
	StopSession(ctx context.Context) error
	GetTimerState(ctx context.Context) (timer.View, error)
}

// Dispatch routes req to m and returns the reply to send back: a Response
// for commands or a TimerStateView for GET_TIMER_STATE.
func Dispatch(ctx context.Context, m Manager, req Request) any {
	var err error

	switch r := req.(type) {
	case StartTimer:
		_, err = m.StartSession(ctx, r.Duration, r.SessionType, r.SessionID)
	case PauseTimer:
		err = m.PauseSession(ctx)
	case ResumeTimer:
		err = m.ResumeSession(ctx)
	case StopTimer:
		err = m.StopSession(ctx)
	case GetTimerState:
		v, err := m.GetTimerState(ctx)
		if err != nil {
			return Response{Error: err.Error()}
		}

		return ViewFrom(v)
	default:
		return Response{Error: errUnknownMessage.Fmt(req.Type()).Error()}
	}

	if err != nil {
		return Response{Error: err.Error()}
	}

	return Response{Success: true}
}

// ViewFrom converts a timer snapshot to its wire form.
func ViewFrom(v timer.View) TimerStateView {
	return TimerStateView{
		Session:         v.Session,
		IsActive:        v.IsActive,
		IsPaused:        v.IsPaused,
		TimeRemaining:   v.TimeRemaining,
		PlannedDuration: v.PlannedDuration,
	}
}

// CompleteFrom converts a completion event to its wire form.
func CompleteFrom(e timer.Event) TimerComplete {
	return TimerComplete{
		Type:        TypeTimerComplete,
		Timestamp:   e.Timestamp.UnixMilli(),
		SessionType: e.SessionType,
		Duration:    e.Duration,
		Session:     e.Session,
	}
}
