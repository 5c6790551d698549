package cli

import (
	"context"

	"github.com/evanpardo/ccdwatch/internal/accountregistry"

	"github.com/urfave/cli/v3"
)

// watchAccountCommand returns the CLI command that registers an account on
// a user's watch list.
//
// Usage example:
//
//	ccdwatch watch-account --token u-123 --address 3kBx2h5Y... --label savings
func watchAccountCommand(ar accountregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch-account",
		Description: "Register an account on a user's watch list for on-chain activity notifications.",
		Usage:       "Adds an account to the watch list. Must provide both token and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "token",
				Usage:    "User token identifying the notification recipient",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to start watching",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "Display label for the account in notifications",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				token   = c.String("token")
				address = c.String("address")
				label   = c.String("label")
			)

			return ar.Watch(ctx, token, address, label)
		},
	}
}

// unwatchAccountCommand returns the CLI command that removes an account
// from a user's watch list.
//
// Usage example:
//
//	ccdwatch unwatch-account --token u-123 --address 3kBx2h5Y...
func unwatchAccountCommand(ar accountregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch-account",
		Description: "Remove an account from a user's watch list.",
		Usage:       "Stops watching an account. Must provide both token and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "token",
				Usage:    "User token identifying the notification recipient",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to stop watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				token   = c.String("token")
				address = c.String("address")
			)

			return ar.Unwatch(ctx, token, address)
		},
	}
}
