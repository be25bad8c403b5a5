// Package server exposes the timer manager over a local HTTP API
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/velafocus/vela/internal/metrics"
	"github.com/velafocus/vela/internal/timeutil"
	"github.com/velafocus/vela/protocol"
	"github.com/velafocus/vela/stats"
	"github.com/velafocus/vela/timer"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
	eventBuffer       = 16
	defaultStatsDays  = 7
)

// Timer is the manager surface the server needs.
type Timer interface {
	protocol.Manager
	Subscribe(ctx context.Context, buffer int) <-chan timer.Event
}

// StatsReader answers statistics queries.
type StatsReader interface {
	Summary(ctx context.Context, from, to time.Time) (*stats.Summary, error)
}

// Server is the daemon's HTTP front end.
type Server struct {
	timer Timer
	stats StatsReader
	log   *slog.Logger
	now   func() time.Time
	addr  string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithNow overrides the clock used to resolve relative stats ranges.
func WithNow(fn func() time.Time) Option {
	return func(s *Server) {
		s.now = fn
	}
}

// New returns a server for t listening on addr.
func New(addr string, t Timer, sr StatsReader, opts ...Option) *Server {
	s := &Server{
		addr:  addr,
		timer: t,
		stats: sr,
		log:   slog.Default(),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/message", errorHandler(s.message))
	mux.HandleFunc("GET /api/events", s.events)
	mux.Handle("GET /api/stats", errorHandler(s.summary))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}

// Run serves until ctx is cancelled. A systemd-activated socket takes
// precedence over the configured address.
func (s *Server) Run(ctx context.Context) error {
	ln, err := activatedListener()
	if err != nil {
		return err
	}

	if ln == nil {
		ln, err = net.Listen("tcp", s.addr)
		if err != nil {
			return fmt.Errorf("unable to listen on %s: %w", s.addr, err)
		}
	} else {
		s.log.Info("using systemd socket-activated listener")
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("api server listening", "addr", ln.Addr().String())
		notifyReady(s.log)

		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	})

	g.Go(func() error {
		<-gctx.Done()

		notifyStopping(s.log)

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *Server) message(w http.ResponseWriter, r *http.Request) error {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		return err
	}

	req, err := protocol.Decode(b)
	if err != nil {
		return err
	}

	s.log.Debug("message received", "type", req.Type())

	reply := protocol.Dispatch(r.Context(), s.timer, req)

	writeJSON(w, http.StatusOK, reply)

	return nil
}

// events streams TIMER_COMPLETE broadcasts as server-sent events.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}

	ch := s.timer.Subscribe(r.Context(), eventBuffer)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range ch {
		b, err := json.Marshal(protocol.CompleteFrom(ev))
		if err != nil {
			s.log.Error("unable to encode event", "error", err)
			continue
		}

		_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", protocol.TypeTimerComplete, b)
		if err != nil {
			return
		}

		flusher.Flush()
	}
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) error {
	now := s.now()

	to := now
	from := timeutil.RoundToStart(now.AddDate(0, 0, -(defaultStatsDays - 1)))

	var err error

	if v := r.URL.Query().Get("since"); v != "" {
		from, err = timeutil.FromStr(v, now)
		if err != nil {
			return err
		}
	}

	if v := r.URL.Query().Get("until"); v != "" {
		to, err = timeutil.FromStr(v, now)
		if err != nil {
			return err
		}
	}

	if to.Before(from) {
		return errInvalidRange
	}

	sum, err := s.stats.Summary(r.Context(), from, to)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, sum)

	return nil
}
