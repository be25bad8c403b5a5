package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/velafocus/vela/internal/pathutil"
)

// viper keys for every configurable setting.
const (
	keyWorkDuration         = "timer.work_duration"
	keyBreakDuration        = "timer.break_duration"
	keyStreakEvery          = "milestones.streak_every"
	keyAchievementEvery     = "milestones.achievement_every"
	keyNotificationsEnabled = "notifications.enabled"
	keyNotificationSound    = "notifications.sound"
	keySessionCmd           = "settings.cmd"
	keyStorageType          = "storage.type"
	keyRedisAddr            = "storage.redis.addr"
	keyRedisPassword        = "storage.redis.password"
	keyRedisDB              = "storage.redis.db"
	keyRedisKeyPrefix       = "storage.redis.key_prefix"
	keyServerAddr           = "server.addr"
	keyLogLevel             = "log.level"
	keyLogMaxSize           = "log.max_size_mb"
	keyLogMaxBackups        = "log.max_backups"
)

const DefaultServerAddr = "127.0.0.1:7331"

// WithViperConfig returns an Option that loads configuration from the YAML
// file at configPath. The file is created with default values if it does
// not exist.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setDefaults(v)

		err := v.ReadInConfig()
		if err == nil {
			return v.Unmarshal(c)
		}

		if !errors.Is(err, os.ErrNotExist) {
			return errReadConfig.Wrap(err)
		}

		err = os.MkdirAll(filepath.Dir(configPath), pathutil.DirPermission)
		if err != nil {
			return errWriteConfig.Wrap(err)
		}

		if err := v.WriteConfig(); err != nil {
			return errWriteConfig.Wrap(err)
		}

		return v.Unmarshal(c)
	}
}

// setDefaults registers the default value of every key.
func setDefaults(v *viper.Viper) {
	v.SetDefault(keyWorkDuration, 25)
	v.SetDefault(keyBreakDuration, 5)
	v.SetDefault(keyStreakEvery, 5)
	v.SetDefault(keyAchievementEvery, 3)
	v.SetDefault(keyNotificationsEnabled, true)
	v.SetDefault(keyNotificationSound, "")
	v.SetDefault(keySessionCmd, "")
	v.SetDefault(keyStorageType, StorageBolt)
	v.SetDefault(keyRedisAddr, "")
	v.SetDefault(keyRedisPassword, "")
	v.SetDefault(keyRedisDB, 0)
	v.SetDefault(keyRedisKeyPrefix, "vela:")
	v.SetDefault(keyServerAddr, DefaultServerAddr)
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogMaxSize, 10)
	v.SetDefault(keyLogMaxBackups, 3)
}
