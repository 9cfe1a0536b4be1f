package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"nestboard/internal/cmd"
	"nestboard/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.NewApp().Run(ctx, os.Args); err != nil {
		log := logging.New("error", logging.FormatConsole, os.Stderr)
		log.Error().Err(err).Msg("nestboard failed")
		return 1
	}
	return 0
}
