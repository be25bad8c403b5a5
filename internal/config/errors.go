package config

import "github.com/velafocus/vela/internal/apperr"

var (
	errConfigOption = &apperr.Error{
		Message: "config option error",
	}

	errConfigValidation = &apperr.Error{
		Message: "config validation error",
	}

	errReadConfig = &apperr.Error{
		Message: "reading config file failed",
	}

	errWriteConfig = &apperr.Error{
		Message: "writing default config failed",
	}

	errInvalidDuration = &apperr.Error{
		Message: "%s duration must be between %d and %d minutes, got %d",
	}

	errInvalidMilestone = &apperr.Error{
		Message: "milestone %s must be at least 1, got %d",
	}

	errUnknownStorage = &apperr.Error{
		Message: "unknown storage type: %q (must be bolt or redis)",
	}

	errMissingRedisAddr = &apperr.Error{
		Message: "storage.redis.addr is required when storage.type is redis",
	}

	errMissingServerAddr = &apperr.Error{
		Message: "server.addr cannot be empty",
	}

	errInvalidLogLevel = &apperr.Error{
		Message: "unknown log level: %q",
	}

	errInvalidSoundFormat = &apperr.Error{
		Message: "invalid sound file format: %s (must be mp3, ogg, flac, or wav)",
	}
)
