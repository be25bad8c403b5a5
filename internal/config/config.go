// Package config loads and validates the Vela configuration
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

type (
	// Config holds all configuration settings.
	Config struct {
		Storage       StorageConfig      `mapstructure:"storage"`
		Server        ServerConfig       `mapstructure:"server"`
		Log           LogConfig          `mapstructure:"log"`
		Settings      SettingsConfig     `mapstructure:"settings"`
		Timer         TimerConfig        `mapstructure:"timer"`
		Milestones    MilestoneConfig    `mapstructure:"milestones"`
		Notifications NotificationConfig `mapstructure:"notifications"`
	}

	// TimerConfig holds the default session lengths in minutes.
	TimerConfig struct {
		WorkDuration  int `mapstructure:"work_duration"`
		BreakDuration int `mapstructure:"break_duration"`
	}

	// MilestoneConfig controls when achievement notifications are shown.
	// Both values count completed work sessions in the current day.
	MilestoneConfig struct {
		StreakEvery      int `mapstructure:"streak_every"`
		AchievementEvery int `mapstructure:"achievement_every"`
	}

	// NotificationConfig holds notification settings.
	NotificationConfig struct {
		Sound   string `mapstructure:"sound"`
		Enabled bool   `mapstructure:"enabled"`
	}

	// SettingsConfig holds miscellaneous settings.
	SettingsConfig struct {
		Cmd string `mapstructure:"cmd"`
	}

	// StorageConfig selects the durable store for the timer state.
	StorageConfig struct {
		Type  string      `mapstructure:"type"`
		Redis RedisConfig `mapstructure:"redis"`
	}

	// RedisConfig configures the redis storage backend.
	RedisConfig struct {
		Addr      string `mapstructure:"addr"`
		Password  string `mapstructure:"password"`
		KeyPrefix string `mapstructure:"key_prefix"`
		DB        int    `mapstructure:"db"`
	}

	// ServerConfig configures the local API server.
	ServerConfig struct {
		Addr string `mapstructure:"addr"`
	}

	// LogConfig configures the rotating log file.
	LogConfig struct {
		Level      string `mapstructure:"level"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
	}

	// Option is a function that modifies Config.
	Option func(*Config) error
)

const Version = "v0.3.0"

const (
	StorageBolt  = "bolt"
	StorageRedis = "redis"
)

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// New creates a new Config and applies the options in order.
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}

	return level
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"work=%dm break=%dm storage=%s addr=%s",
		c.Timer.WorkDuration,
		c.Timer.BreakDuration,
		c.Storage.Type,
		c.Server.Addr,
	)
}
