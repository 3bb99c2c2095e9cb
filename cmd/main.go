package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ytmd/internal/shared"
	"github.com/urfave/cli/v3"
)

// exitInterrupted is the conventional exit status after SIGINT.
const exitInterrupted = 130

func main() {
	logger := shared.NewLogger(os.Stderr)
	runner := NewRunner(RunnerOpts{Logger: logger, LogOutput: os.Stderr})

	app := &cli.Command{
		Name:     "ytmd",
		Usage:    "Download YouTube tracks and playlists as tagged MP3 files",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrInterrupted), errors.Is(err, context.Canceled):
			logger.Warn("interrupted")
			os.Exit(exitInterrupted)
		case errors.Is(err, shared.ErrNotImplemented):
			logger.Warn("not implemented")
			os.Exit(0)
		default:
			logger.Fatalf("application error: %v", err)
		}
	}
}
