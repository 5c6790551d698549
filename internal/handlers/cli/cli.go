// Package cli exposes the ccdwatch commands: running the notification
// pipeline and managing watched accounts.
package cli

import (
	"context"
	"os"

	"github.com/evanpardo/ccdwatch/internal/accountregistry"
	"github.com/evanpardo/ccdwatch/internal/pipeline"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the ccdwatch CLI application.
//
// It registers all available commands:
//
//   - `start`: runs the block notification pipeline.
//   - `watch-account`: registers an account on a user's watch list.
//   - `unwatch-account`: removes an account from a user's watch list.
func Run(ctx context.Context, ar accountregistry.Service, p pipeline.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "ccdwatch",
		Description:           "Command-line interface for running the ccdwatch notification pipeline.",
		Usage:                 "ccdwatch [command] [flags]",
		Commands: []*cli.Command{
			startPipelineCommand(p),
			watchAccountCommand(ar),
			unwatchAccountCommand(ar),
		},
	}

	return app.Run(ctx, os.Args)
}
