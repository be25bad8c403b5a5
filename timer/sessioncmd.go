package timer

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/kballard/go-shellquote"
)

// runSessionCmd executes the specified command.
func runSessionCmd(ctx context.Context, sessionCmd string) error {
	if sessionCmd == "" {
		return nil
	}

	cmdSlice, err := shellquote.Split(sessionCmd)
	if err != nil {
		return fmt.Errorf("unable to parse session command: %w", err)
	}

	if len(cmdSlice) == 0 {
		return nil
	}

	name := cmdSlice[0]
	args := cmdSlice[1:]

	cmd := exec.CommandContext(ctx, name, args...)

	return cmd.Run()
}
