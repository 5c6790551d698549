package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/evanpardo/ccdwatch/internal/pipeline"

	"github.com/urfave/cli/v3"
)

// startPipelineCommand returns the CLI command that runs the notification
// pipeline until an interrupt arrives or the liveness watch reports a stall.
// A stall is returned as an error so the surrounding process manager can
// restart from the last persisted checkpoint.
func startPipelineCommand(p pipeline.Service) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the block notification pipeline: ingestion, extraction, routing and dispatch.",
		Usage:       "Runs the pipeline until Ctrl+C, a termination signal, or a liveness failure.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			healthCh, err := p.Start(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			select {
			case <-quit:
				return nil
			case err := <-healthCh:
				return err
			}
		},
	}
}
