package stats

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"github.com/velafocus/vela/internal/timeutil"
	"github.com/velafocus/vela/internal/ui"
)

const (
	noSessionsMsg = "No sessions found for the specified time range"
	dateFormat    = "January 02, 2006"
	timeFormat    = "Jan 02 03:04 PM"
)

// FormatMinutes expresses a minutes value as "1h 5m".
func FormatMinutes(minutes int) string {
	hrs, mins := timeutil.MinsToHoursAndMins(minutes)
	if hrs == 0 {
		return fmt.Sprintf("%dm", mins)
	}

	return fmt.Sprintf("%dh %dm", hrs, mins)
}

func getSummary(sum *Summary) string {
	header := fmt.Sprintf("%s\n", ui.Blue("Summary"))

	timeLogged := fmt.Sprintf(
		"Time logged: %s\n",
		ui.Green(FormatMinutes(sum.FocusMinutes)),
	)

	completed := fmt.Sprintln(
		"Sessions completed:",
		ui.Green(humanize.Comma(int64(sum.SessionsCompleted))),
	)

	abandoned := fmt.Sprintln(
		"Sessions abandoned:",
		ui.Green(humanize.Comma(int64(sum.SessionsAbandoned))),
	)

	breaks := fmt.Sprintln(
		"Breaks taken:",
		ui.Green(humanize.Comma(int64(sum.BreaksCompleted))),
	)

	avg := fmt.Sprintln(
		"Average focus per active day:",
		ui.Green(FormatMinutes(sum.AvgFocusMinutes())),
	)

	return header + timeLogged + completed + abandoned + breaks + avg
}

var (
	dailyHeader    = []string{"DATE", "STARTED", "COMPLETED", "FOCUS"}
	sessionsHeader = []string{"#", "START", "TYPE", "PLANNED", "ACTUAL", "STATUS"}
)

func dailyTable(days []Daily) [][]string {
	data := make([][]string, 0, len(days))

	for _, d := range days {
		data = append(data, []string{
			d.Date,
			strconv.Itoa(d.SessionsStarted),
			strconv.Itoa(d.SessionsCompleted),
			FormatMinutes(d.FocusMinutes),
		})
	}

	return data
}

func sessionsTable(records []Record) [][]string {
	data := make([][]string, 0, len(records))

	for i := range records {
		r := &records[i]

		status := ui.Green("completed")

		switch {
		case r.EndTime.IsZero():
			status = ui.Yellow("in progress")
		case !r.Completed:
			status = ui.Red("abandoned")
		}

		data = append(data, []string{
			strconv.Itoa(i + 1),
			r.StartTime.Format(timeFormat),
			string(r.Type),
			FormatMinutes(r.PlannedMinutes),
			FormatMinutes(r.ActualMinutes),
			status,
		})
	}

	return data
}

// Render writes a human readable report of sum to w.
func Render(w io.Writer, sum *Summary, withSessions bool) error {
	if len(sum.Sessions) == 0 && len(sum.Days) == 0 {
		_, err := fmt.Fprintln(w, noSessionsMsg)
		return err
	}

	timePeriod := "Reporting period: " + sum.From.Format(dateFormat) +
		" - " + sum.To.Format(dateFormat)

	header := pterm.DefaultHeader.WithBackgroundStyle(pterm.NewStyle(pterm.BgYellow)).
		WithTextStyle(pterm.NewStyle(pterm.FgBlack)).
		Sprintln(timePeriod)

	fmt.Fprint(w, header)
	fmt.Fprintln(w, strings.TrimSpace(getSummary(sum)))
	fmt.Fprintln(w)

	if len(sum.Days) > 0 {
		err := ui.Table(w, dailyHeader, dailyTable(sum.Days))
		if err != nil {
			return err
		}
	}

	if withSessions && len(sum.Sessions) > 0 {
		return ui.Table(w, sessionsHeader, sessionsTable(sum.Sessions))
	}

	return nil
}
