package app

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/velafocus/vela/internal/config"
	"github.com/velafocus/vela/internal/pathutil"
	"github.com/velafocus/vela/internal/session"
	"github.com/velafocus/vela/internal/timeutil"
	"github.com/velafocus/vela/internal/ui"
	"github.com/velafocus/vela/protocol"
	"github.com/velafocus/vela/stats"
)

const (
	envNoColor     = "NO_COLOR"
	envVelaNoColor = "VELA_NO_COLOR"

	defaultStatsDays = 7
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	return config.New(
		config.WithViperConfig(pathutil.ConfigFilePath()),
		config.WithCLIConfig(ctx),
	)
}

func clientFromContext(ctx *cli.Context) (*client, *config.Config, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	return newClient(cfg.Server.Addr), cfg, nil
}

// sessionMinutes picks the requested length or the configured default for
// the session type.
func sessionMinutes(ctx *cli.Context, cfg *config.Config, t session.Type) int {
	if ctx.IsSet(minutesFlag.Name) {
		return ctx.Int(minutesFlag.Name)
	}

	if t == session.Break {
		return cfg.Timer.BreakDuration
	}

	return cfg.Timer.WorkDuration
}

// startAction handles the start command.
func startAction(ctx *cli.Context) error {
	c, cfg, err := clientFromContext(ctx)
	if err != nil {
		return err
	}

	t := session.Work
	if ctx.Bool(breakFlag.Name) {
		t = session.Break
	}

	minutes := sessionMinutes(ctx, cfg, t)

	err = config.ValidateSessionMinutes(minutes)
	if err != nil {
		return err
	}

	err = c.command(ctx.Context, protocol.StartTimer{
		Duration:    minutes,
		SessionType: t,
		SessionID:   ctx.String(idFlag.Name),
	})
	if err != nil {
		return err
	}

	pterm.Success.Printfln(
		"%s session started (until %s)",
		sessionLabel(t),
		ui.Highlight(time.Now().Add(time.Duration(minutes)*time.Minute).Format("03:04:05 PM")),
	)

	return nil
}

// pauseAction handles the pause command.
func pauseAction(ctx *cli.Context) error {
	c, _, err := clientFromContext(ctx)
	if err != nil {
		return err
	}

	err = c.command(ctx.Context, protocol.PauseTimer{})
	if err != nil {
		return err
	}

	pterm.Success.Println("session paused")

	return nil
}

// resumeAction handles the resume command.
func resumeAction(ctx *cli.Context) error {
	c, _, err := clientFromContext(ctx)
	if err != nil {
		return err
	}

	err = c.command(ctx.Context, protocol.ResumeTimer{})
	if err != nil {
		return err
	}

	pterm.Success.Println("session resumed")

	return nil
}

// stopAction handles the stop command.
func stopAction(ctx *cli.Context) error {
	c, _, err := clientFromContext(ctx)
	if err != nil {
		return err
	}

	err = c.command(ctx.Context, protocol.StopTimer{})
	if err != nil {
		return err
	}

	pterm.Success.Println("session stopped")

	return nil
}

func sessionLabel(t session.Type) string {
	if t == session.Break {
		return ui.Blue("[Break]")
	}

	return ui.Green("[Work]")
}

// formatStatus renders a timer view for the status command.
func formatStatus(v *protocol.TimerStateView) string {
	if !v.IsActive || v.Session == nil {
		return "No active session"
	}

	mins, secs := timeutil.SecsToMinsAndSecs(v.TimeRemaining)

	text := fmt.Sprintf(
		"%s: %s remaining of %s",
		sessionLabel(v.Session.Type),
		ui.Yellow(fmt.Sprintf("%02d:%02d", mins, secs)),
		stats.FormatMinutes(v.Session.PlannedDuration),
	)

	if v.IsPaused {
		text += " " + ui.Magenta("(paused)")
	}

	return text + fmt.Sprintf(", started %s", humanize.Time(v.Session.StartTime))
}

// statusAction handles the status command and prints the status of the
// current session.
func statusAction(ctx *cli.Context) error {
	c, _, err := clientFromContext(ctx)
	if err != nil {
		return err
	}

	v, err := c.state(ctx.Context)
	if err != nil {
		return err
	}

	if ctx.Bool(jsonFlag.Name) {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	pterm.Println(formatStatus(v))

	return nil
}

// watchAction prints every completed session until interrupted.
func watchAction(ctx *cli.Context) error {
	c, _, err := clientFromContext(ctx)
	if err != nil {
		return err
	}

	pterm.Info.Println("waiting for sessions to complete (Ctrl-C to exit)")

	return c.watch(ctx.Context, func(ev protocol.TimerComplete) {
		pterm.Success.Printfln(
			"%s session of %s completed at %s",
			sessionLabel(ev.SessionType),
			stats.FormatMinutes(ev.Duration),
			time.UnixMilli(ev.Timestamp).Format("03:04:05 PM"),
		)
	})
}

// statsRange resolves the --since and --until flags.
func statsRange(ctx *cli.Context, now time.Time) (from, to time.Time, err error) {
	to = now
	from = timeutil.RoundToStart(now.AddDate(0, 0, -(defaultStatsDays - 1)))

	if v := ctx.String(sinceFlag.Name); v != "" {
		from, err = timeutil.FromStr(v, now)
		if err != nil {
			return
		}
	}

	if v := ctx.String(untilFlag.Name); v != "" {
		to, err = timeutil.FromStr(v, now)
		if err != nil {
			return
		}
	}

	if to.Before(from) {
		err = errInvalidStatsRange
	}

	return
}

// statsAction reports the statistics for the specified time period.
func statsAction(ctx *cli.Context) error {
	from, to, err := statsRange(ctx, time.Now())
	if err != nil {
		return err
	}

	statsDB, err := stats.Open(pathutil.StatsFilePath())
	if err != nil {
		return err
	}

	defer statsDB.Close()

	sum, err := statsDB.Summary(ctx.Context, from, to)
	if err != nil {
		return err
	}

	if ctx.Bool(jsonFlag.Name) {
		b, err := json.Marshal(sum)
		if err != nil {
			return err
		}

		pterm.Println(string(b))

		return nil
	}

	return stats.Render(config.Stdout, sum, ctx.Bool(sessionsFlag.Name))
}

// editConfigAction handles the edit-config command which opens the vela
// config file in the user's default text editor.
func editConfigAction(ctx *cli.Context) error {
	// loading writes the default config on first run
	_, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	defaultEditor := "nano"

	if runtime.GOOS == "windows" {
		defaultEditor = "C:\\Windows\\system32\\notepad.exe"
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		defaultEditor,
	)

	cmd := exec.Command(editor, pathutil.ConfigFilePath())

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	return cmd.Run()
}

// noColorFromEnv reports whether NO_COLOR or VELA_NO_COLOR is set.
func noColorFromEnv() bool {
	for _, key := range []string{envNoColor, envVelaNoColor} {
		if _, exists := os.LookupEnv(key); exists {
			return true
		}
	}

	return false
}

func beforeAction(ctx *cli.Context) error {
	if ctx.Bool(noColorFlag.Name) {
		disableStyling()
	}

	return pathutil.Initialize()
}
