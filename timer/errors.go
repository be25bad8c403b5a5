package timer

import "github.com/velafocus/vela/internal/apperr"

var (
	ErrNoActiveSession = &apperr.Error{
		Message: "no active session",
	}

	ErrNoActiveAlarm = &apperr.Error{
		Message: "session is active but no timer alarm is pending",
	}

	ErrNoPausedSession = &apperr.Error{
		Message: "no paused session to resume",
	}

	ErrPersistence = &apperr.Error{
		Message: "unable to persist timer state",
	}

	ErrScheduler = &apperr.Error{
		Message: "timer alarm scheduler failed",
	}

	ErrInvalidDuration = &apperr.Error{
		Message: "session duration must be a positive number of minutes, got %d",
	}

	ErrInvalidSessionType = &apperr.Error{
		Message: "unknown session type %q",
	}
)
