package config

import (
	"github.com/urfave/cli/v2"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	Addr          string
	SessionCmd    string
	Storage       string
	RedisAddr     string
	LogLevel      string
	DisableNotify bool
}

// WithCLIConfig returns an Option that applies command-line flags on top of
// the file configuration.
func WithCLIConfig(ctx *cli.Context) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			Addr:          ctx.String("addr"),
			SessionCmd:    ctx.String("session-cmd"),
			Storage:       ctx.String("storage"),
			RedisAddr:     ctx.String("redis-addr"),
			LogLevel:      ctx.String("log-level"),
			DisableNotify: ctx.Bool("disable-notification"),
		}

		applyCLIOptions(c, opts)

		return nil
	}
}

// applyCLIOptions applies CLI options to the config.
func applyCLIOptions(c *Config, opts CLIOptions) {
	if opts.Addr != "" {
		c.Server.Addr = opts.Addr
	}

	if opts.SessionCmd != "" {
		c.Settings.Cmd = opts.SessionCmd
	}

	if opts.Storage != "" {
		c.Storage.Type = opts.Storage
	}

	if opts.RedisAddr != "" {
		c.Storage.Redis.Addr = opts.RedisAddr
	}

	if opts.LogLevel != "" {
		c.Log.Level = opts.LogLevel
	}

	if opts.DisableNotify {
		c.Notifications.Enabled = false
	}
}
