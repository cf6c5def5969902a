package main

import (
	"context"
	"os"

	"github.com/yndnr/webstore-go/internal/cli/command"
	"github.com/yndnr/webstore-go/internal/infra/shutdown"
)

func main() {
	ctx, stop := shutdown.SignalContext(context.Background())
	app := command.App()

	err := app.RunContext(ctx, os.Args)
	stop()
	if err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}
