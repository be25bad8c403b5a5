// Package metrics exposes Prometheus counters for the timer daemon
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session metrics
	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_sessions_started_total",
			Help: "Total number of sessions started",
		},
		[]string{"type"},
	)

	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_sessions_completed_total",
			Help: "Total number of sessions that ran to completion",
		},
		[]string{"type"},
	)

	TimerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_timer_errors_total",
			Help: "Timer operations that failed",
		},
		[]string{"op"},
	)

	// Notification metrics
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_notifications_total",
			Help: "Notifications requested, by kind and whether they were shown",
		},
		[]string{"kind", "shown"},
	)

	// Recovery metrics
	Recoveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vela_recoveries_total",
			Help: "Timer recoveries at startup, by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsCompleted,
		TimerErrors,
		Notifications,
		Recoveries,
	)
}

// Handler serves the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Shown converts a notification result to its label value.
func Shown(ok bool) string {
	if ok {
		return "true"
	}

	return "false"
}
