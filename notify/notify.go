// Package notify presents desktop notifications for completed sessions and
// milestones
package notify

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/velafocus/vela/internal/session"
)

const appName = "Vela"

// Notifier shows desktop notifications and optionally plays a sound with
// each of them.
type Notifier struct {
	log     *slog.Logger
	notify  func(title, message, icon string) error
	play    func(path string) error
	sound   string
	icon    string
	enabled bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSound plays the sound file at path with every notification.
func WithSound(path string) Option {
	return func(n *Notifier) {
		n.sound = path
	}
}

// WithIcon sets the notification icon.
func WithIcon(path string) Option {
	return func(n *Notifier) {
		n.icon = path
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		n.log = l
	}
}

// New returns a Notifier. A disabled notifier shows nothing and reports
// false for every alert.
func New(enabled bool, opts ...Option) *Notifier {
	n := &Notifier{
		enabled: enabled,
		log:     slog.Default(),
		notify:  beeep.Notify,
		play:    playSound,
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// ShowSessionComplete announces the end of a session.
func (n *Notifier) ShowSessionComplete(
	t session.Type,
	minutes, completedToday int,
) bool {
	var title, msg string

	switch t {
	case session.Work:
		title = "Focus session complete"
		msg = fmt.Sprintf(
			"%d minutes of focus done. Sessions completed today: %d. Time for a break!",
			minutes,
			completedToday,
		)
	default:
		title = "Break is over"
		msg = fmt.Sprintf("Your %d minute break has ended. Ready to focus?", minutes)
	}

	return n.show(title, msg)
}

// ShowStreakAchievement celebrates every streak of completed work sessions.
func (n *Notifier) ShowStreakAchievement(streak int) bool {
	return n.show(
		"Streak achieved",
		fmt.Sprintf("You've reached focus streak #%d today. Keep it going!", streak),
	)
}

// ShowDailyAchievement reports the day's progress.
func (n *Notifier) ShowDailyAchievement(count, totalMinutes int) bool {
	return n.show(
		"Daily achievement",
		fmt.Sprintf(
			"%d sessions and %d minutes of focus today.",
			count,
			totalMinutes,
		),
	)
}

func (n *Notifier) show(title, msg string) bool {
	if !n.enabled {
		return false
	}

	err := n.notify(appName+": "+title, msg, n.icon)
	if err != nil {
		n.log.Warn("unable to display notification", "title", title, "error", err)
		return false
	}

	if n.sound != "" {
		go func() {
			err := n.play(n.sound)
			if err != nil {
				n.log.Warn("unable to play sound", "sound", n.sound, "error", err)
			}
		}()
	}

	return true
}
