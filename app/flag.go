package app

import "github.com/urfave/cli/v2"

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	addrFlag = &cli.StringFlag{
		Name:    "addr",
		EnvVars: []string{"VELA_ADDR"},
		Usage:   "Address of the vela daemon API (default: 127.0.0.1:7331)",
	}

	disableNotificationFlag = &cli.BoolFlag{
		Name:    "disable-notification",
		Aliases: []string{"d"},
		Usage:   "Disable the system notification that appears after a session is completed",
	}

	sessionCmdFlag = &cli.StringFlag{
		Name:    "session-cmd",
		Aliases: []string{"cmd"},
		Usage:   "Execute an arbitrary command after each completed session",
	}

	storageFlag = &cli.StringFlag{
		Name:  "storage",
		Usage: "Backend for the timer state: bolt or redis",
	}

	redisAddrFlag = &cli.StringFlag{
		Name:  "redis-addr",
		Usage: "Address of the redis server when --storage=redis",
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn or error",
	}

	minutesFlag = &cli.IntFlag{
		Name:    "minutes",
		Aliases: []string{"m"},
		Usage:   "Session length in minutes (default: timer.work_duration or timer.break_duration)",
	}

	breakFlag = &cli.BoolFlag{
		Name:    "break",
		Aliases: []string{"b"},
		Usage:   "Start a break instead of a work session",
	}

	idFlag = &cli.StringFlag{
		Name:  "id",
		Usage: "Identifier for the new session. Generated when omitted",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Start of the reporting period (e.g. '2 weeks ago', '2025-03-01'). Defaults to 7 days ago",
	}

	untilFlag = &cli.StringFlag{
		Name:  "until",
		Usage: "End of the reporting period. Defaults to now",
	}

	sessionsFlag = &cli.BoolFlag{
		Name:  "sessions",
		Usage: "List every session in the reporting period",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the output as JSON",
	}
)
