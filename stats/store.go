// Package stats records daily session totals and session history in SQLite
package stats

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/velafocus/vela/internal/apperr"
	"github.com/velafocus/vela/internal/pathutil"
	"github.com/velafocus/vela/internal/session"
	"github.com/velafocus/vela/internal/timeutil"
)

var (
	errOpenStats = &apperr.Error{
		Message: "unable to open statistics database",
	}

	errStatsQuery = &apperr.Error{
		Message: "statistics query failed",
	}
)

const schema = `
CREATE TABLE IF NOT EXISTS daily_stats (
	date TEXT PRIMARY KEY,
	sessions_started INTEGER NOT NULL DEFAULT 0,
	sessions_completed INTEGER NOT NULL DEFAULT 0,
	focus_minutes INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	session_type TEXT NOT NULL,
	started_at INTEGER NOT NULL,
	ended_at INTEGER,
	planned_minutes INTEGER NOT NULL,
	actual_minutes INTEGER NOT NULL DEFAULT 0,
	paused_minutes INTEGER NOT NULL DEFAULT 0,
	completed BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
`

// Store manages persistence of statistics using SQLite.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithLocation sets the time zone that decides which calendar day a session
// belongs to. Defaults to the local time zone.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		s.loc = loc
	}
}

// Open opens or creates the statistics database at dbPath.
func Open(dbPath string, opts ...Option) (*Store, error) {
	err := os.MkdirAll(filepath.Dir(dbPath), pathutil.DirPermission)
	if err != nil {
		return nil, errOpenStats.Wrap(err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errOpenStats.Wrap(err)
	}

	// a single connection serializes writers and avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	s := &Store{
		db:  db,
		loc: time.Local,
	}

	for _, opt := range opts {
		opt(s)
	}

	_, err = db.Exec(schema)
	if err != nil {
		_ = db.Close()
		return nil, errOpenStats.Wrap(err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSessionStarted adds the session to the history and bumps the
// started counter for work sessions.
func (s *Store) RecordSessionStarted(
	ctx context.Context,
	sess *session.Session,
) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, session_type, started_at, planned_minutes)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				session_type = excluded.session_type,
				started_at = excluded.started_at,
				planned_minutes = excluded.planned_minutes,
				ended_at = NULL,
				actual_minutes = 0,
				paused_minutes = 0,
				completed = 0`,
			sess.ID,
			string(sess.Type),
			sess.StartTime.UnixMilli(),
			sess.PlannedDuration,
		)
		if err != nil {
			return err
		}

		if sess.Type != session.Work {
			return nil
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO daily_stats (date, sessions_started) VALUES (?, 1)
			ON CONFLICT(date) DO UPDATE SET
				sessions_started = sessions_started + 1`,
			s.dayKey(sess.StartTime),
		)

		return err
	})
}

// RecordSessionCompleted stores the finalized session and returns the
// totals of the day it ended on.
func (s *Store) RecordSessionCompleted(
	ctx context.Context,
	sess *session.Session,
) (Daily, error) {
	var d Daily

	day := s.dayKey(sess.EndTime)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (id, session_type, started_at, ended_at,
				planned_minutes, actual_minutes, paused_minutes, completed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				ended_at = excluded.ended_at,
				actual_minutes = excluded.actual_minutes,
				paused_minutes = excluded.paused_minutes,
				completed = excluded.completed`,
			sess.ID,
			string(sess.Type),
			sess.StartTime.UnixMilli(),
			sess.EndTime.UnixMilli(),
			sess.PlannedDuration,
			sess.ActualDuration,
			sess.PausedTime,
			sess.Completed,
		)
		if err != nil {
			return err
		}

		if sess.Type == session.Work {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO daily_stats (date, sessions_completed, focus_minutes)
				VALUES (?, 1, ?)
				ON CONFLICT(date) DO UPDATE SET
					sessions_completed = sessions_completed + 1,
					focus_minutes = focus_minutes + excluded.focus_minutes`,
				day,
				sess.ActualDuration,
			)
			if err != nil {
				return err
			}
		}

		d, err = queryDay(ctx, tx, day)

		return err
	})
	if err != nil {
		return Daily{}, err
	}

	return d, nil
}

// Day returns the totals for the calendar day containing t.
func (s *Store) Day(ctx context.Context, t time.Time) (Daily, error) {
	d, err := queryDay(ctx, s.db, s.dayKey(t))
	if err != nil {
		return Daily{}, errStatsQuery.Wrap(err)
	}

	return d, nil
}

// Summary computes the statistics for sessions that started within
// [from, to].
func (s *Store) Summary(
	ctx context.Context,
	from, to time.Time,
) (*Summary, error) {
	sum := &Summary{
		From: from,
		To:   to,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, sessions_started, sessions_completed, focus_minutes
		FROM daily_stats
		WHERE date >= ? AND date <= ?
		ORDER BY date`,
		s.dayKey(from),
		s.dayKey(to),
	)
	if err != nil {
		return nil, errStatsQuery.Wrap(err)
	}

	for rows.Next() {
		var d Daily

		err = rows.Scan(
			&d.Date,
			&d.SessionsStarted,
			&d.SessionsCompleted,
			&d.FocusMinutes,
		)
		if err != nil {
			_ = rows.Close()
			return nil, errStatsQuery.Wrap(err)
		}

		sum.Days = append(sum.Days, d)
		sum.SessionsStarted += d.SessionsStarted
		sum.SessionsCompleted += d.SessionsCompleted
		sum.FocusMinutes += d.FocusMinutes
	}

	_ = rows.Close()

	if err = rows.Err(); err != nil {
		return nil, errStatsQuery.Wrap(err)
	}

	sum.Sessions, err = s.history(ctx, from, to)
	if err != nil {
		return nil, errStatsQuery.Wrap(err)
	}

	for i := range sum.Sessions {
		r := &sum.Sessions[i]

		switch {
		case r.Type == session.Break && r.Completed:
			sum.BreaksCompleted++
		case r.Type == session.Work && !r.Completed && !r.EndTime.IsZero():
			sum.SessionsAbandoned++
		}
	}

	return sum, nil
}

// RecordSessionStopped marks a session that was stopped before it
// completed as abandoned.
func (s *Store) RecordSessionStopped(
	ctx context.Context,
	sess *session.Session,
	at time.Time,
) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET ended_at = ?, paused_minutes = ?
		WHERE id = ? AND completed = 0`,
		at.UnixMilli(),
		sess.PausedTime,
		sess.ID,
	)
	if err != nil {
		return errStatsQuery.Wrap(err)
	}

	return nil
}

func (s *Store) history(
	ctx context.Context,
	from, to time.Time,
) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_type, started_at, ended_at, planned_minutes,
			actual_minutes, paused_minutes, completed
		FROM sessions
		WHERE started_at >= ? AND started_at <= ?
		ORDER BY started_at`,
		from.UnixMilli(),
		to.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var records []Record

	for rows.Next() {
		var (
			r       Record
			typ     string
			started int64
			ended   sql.NullInt64
		)

		err = rows.Scan(
			&r.ID,
			&typ,
			&started,
			&ended,
			&r.PlannedMinutes,
			&r.ActualMinutes,
			&r.PausedMinutes,
			&r.Completed,
		)
		if err != nil {
			return nil, err
		}

		r.Type = session.Type(typ)
		r.StartTime = time.UnixMilli(started).In(s.loc)

		if ended.Valid {
			r.EndTime = time.UnixMilli(ended.Int64).In(s.loc)
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *Store) dayKey(t time.Time) string {
	return timeutil.DayKey(t.In(s.loc))
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errStatsQuery.Wrap(err)
	}

	err = fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return errStatsQuery.Wrap(err)
	}

	err = tx.Commit()
	if err != nil {
		return errStatsQuery.Wrap(err)
	}

	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryDay(ctx context.Context, q queryer, day string) (Daily, error) {
	d := Daily{Date: day}

	err := q.QueryRowContext(ctx, `
		SELECT sessions_started, sessions_completed, focus_minutes
		FROM daily_stats
		WHERE date = ?`,
		day,
	).Scan(&d.SessionsStarted, &d.SessionsCompleted, &d.FocusMinutes)
	if errors.Is(err, sql.ErrNoRows) {
		return d, nil
	}

	return d, err
}
