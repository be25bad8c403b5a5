package ui

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// Table writes a boxed table with the given header row to w.
func Table(w io.Writer, header []string, rows [][]string) error {
	data := make([][]string, 0, len(rows)+1)
	data = append(data, header)
	data = append(data, rows...)

	str, err := pterm.DefaultTable.
		WithBoxed().
		WithHasHeader().
		WithData(data).
		Srender()
	if err != nil {
		return fmt.Errorf("unable to render table: %w", err)
	}

	_, err = fmt.Fprintln(w, str)

	return err
}
