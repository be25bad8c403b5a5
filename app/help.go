package app

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// Command categories, in the order they appear in the help output.
const (
	categoryDaemon  = "Daemon"
	categorySession = "Session"
	categoryReports = "Reports"
)

// helpText builds the top-level help template. Commands are listed under
// the Category each one declares in Get.
func helpText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\t{{.Name}} {{.Version}}: {{.Usage}}\n\n",
		pterm.Yellow("NAME"),
	)

	fmt.Fprintf(&b, "%s\n\t{{.HelpName}} [global options] <command> [options]\n\n",
		pterm.Yellow("USAGE"),
	)

	fmt.Fprintf(&b,
		"{{range .VisibleCategories}}%s\n{{range .VisibleCommands}}\t%s\t{{.Usage}}\n{{end}}\n{{end}}",
		pterm.Yellow("{{.Name}} commands"),
		pterm.Green("{{join .Names `, `}}"),
	)

	fmt.Fprintf(&b, "%s\n{{range .VisibleFlags}}\t{{.}}\n{{end}}\n",
		pterm.Yellow("GLOBAL OPTIONS"),
	)

	fmt.Fprintf(&b, "%s\n%s\n\n", pterm.Yellow("ENVIRONMENT"), envHelp)

	fmt.Fprintf(&b, "%s\n%s\n", pterm.Yellow("EXAMPLES"), examplesHelp)

	return b.String()
}

const envHelp = `	VELA_ADDR        address of the daemon, read by serve and every client command
	VELA_ENV         suffix for the config, database and log files ("dev" uses config_dev.yml)
	VELA_NO_COLOR    disable colour output (NO_COLOR is honoured too)`

const examplesHelp = `	vela serve &               run the daemon, keeping the timer across restarts
	vela start -m 50           start a 50 minute work session
	vela start --break         start a break of the configured length
	vela status --json         print the timer state as the daemon reports it
	vela stats --since "last monday" --sessions`
