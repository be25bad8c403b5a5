package config

import (
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
)

var (
	// Minimum and maximum session lengths in minutes.
	minSessionMinutes = 1
	maxSessionMinutes = 720 // 12 hours

	validSoundExts = []string{".mp3", ".ogg", ".flac", ".wav"}
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if err := validateMinutes("work", c.Timer.WorkDuration); err != nil {
		return err
	}

	if err := validateMinutes("break", c.Timer.BreakDuration); err != nil {
		return err
	}

	if c.Milestones.StreakEvery < 1 {
		return errInvalidMilestone.Fmt("streak_every", c.Milestones.StreakEvery)
	}

	if c.Milestones.AchievementEvery < 1 {
		return errInvalidMilestone.Fmt(
			"achievement_every",
			c.Milestones.AchievementEvery,
		)
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		return errMissingServerAddr
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return errInvalidLogLevel.Fmt(c.Log.Level)
	}

	if c.Notifications.Sound != "" {
		ext := strings.ToLower(filepath.Ext(c.Notifications.Sound))
		if !slices.Contains(validSoundExts, ext) {
			return errInvalidSoundFormat.Fmt(c.Notifications.Sound)
		}
	}

	return nil
}

// ValidateSessionMinutes reports whether minutes is an acceptable session
// length.
func ValidateSessionMinutes(minutes int) error {
	return validateMinutes("session", minutes)
}

func validateMinutes(name string, minutes int) error {
	if minutes < minSessionMinutes || minutes > maxSessionMinutes {
		return errInvalidDuration.Fmt(
			name,
			minSessionMinutes,
			maxSessionMinutes,
			minutes,
		)
	}

	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Type {
	case StorageBolt:
		return nil
	case StorageRedis:
		if strings.TrimSpace(c.Storage.Redis.Addr) == "" {
			return errMissingRedisAddr
		}

		return nil
	default:
		return errUnknownStorage.Fmt(c.Storage.Type)
	}
}
