package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/velafocus/vela/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the vela app instance. The help template is rendered here
// because --help is answered before Before runs.
func Get() *cli.App {
	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	if noColorFromEnv() {
		disableStyling()
	}

	velaApp := &cli.App{
		Name:                  "vela",
		Usage:                 "focus timer daemon and its command line client",
		HideHelpCommand:       true,
		CustomAppHelpTemplate: helpText(),
		UsageText:             "[COMMAND] [OPTIONS]",
		Version:               config.Version,
		EnableBashCompletion:  true,
		Commands: []*cli.Command{
			{
				Name:     "serve",
				Category: categoryDaemon,
				Usage:    "Run the timer daemon",
				Action:   serveAction,
				Flags: []cli.Flag{
					disableNotificationFlag,
					sessionCmdFlag,
					storageFlag,
					redisAddrFlag,
					logLevelFlag,
				},
			},
			{
				Name:     "start",
				Category: categorySession,
				Usage:    "Start a work or break session, replacing the current one",
				Action:   startAction,
				Flags: []cli.Flag{
					minutesFlag,
					breakFlag,
					idFlag,
				},
			},
			{
				Name:     "pause",
				Category: categorySession,
				Usage:    "Pause the running session",
				Action:   pauseAction,
			},
			{
				Name:     "resume",
				Category: categorySession,
				Usage:    "Resume the paused session",
				Action:   resumeAction,
			},
			{
				Name:     "stop",
				Category: categorySession,
				Usage:    "Stop the current session without completing it",
				Action:   stopAction,
			},
			{
				Name:     "status",
				Category: categorySession,
				Usage:    "Print the status of the timer",
				Action:   statusAction,
				Flags: []cli.Flag{
					jsonFlag,
				},
			},
			{
				Name:     "watch",
				Category: categorySession,
				Usage:    "Print completed sessions as they happen",
				Action:   watchAction,
			},
			{
				Name:     "stats",
				Category: categoryReports,
				Usage: `
				Track your progress with detailed statistics reporting. Defaults to a 
				reporting period of 7 days`,
				Action: statsAction,
				Flags: []cli.Flag{
					sinceFlag,
					untilFlag,
					sessionsFlag,
					jsonFlag,
				},
			},
			{
				Name:     "edit-config",
				Category: categoryDaemon,
				Usage:    "Edit the configuration file",
				Action:   editConfigAction,
			},
		},
		Flags: []cli.Flag{
			addrFlag,
			noColorFlag,
		},
		Before: beforeAction,
	}

	return velaApp
}
