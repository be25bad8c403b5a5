package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pterm/pterm"

	"github.com/velafocus/vela/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := app.Get().RunContext(ctx, os.Args)

	stop()

	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
