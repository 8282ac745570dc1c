package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/charms/cmd/app/commands"
	"github.com/allisson/charms/internal/app"
	"github.com/allisson/charms/internal/config"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
	}
}

func getOrderCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "fulfill-order",
			Usage: "Render and deliver the charm of one paid order",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Session handle or correlation token",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				fulfillmentUseCase, err := container.FulfillmentUseCase()
				if err != nil {
					return err
				}

				return commands.RunFulfillOrder(
					ctx,
					fulfillmentUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("key"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "fulfill-pending",
			Usage: "Fulfill paid orders that were never delivered",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   100,
					Usage:   "Maximum number of orders to process",
				},
				&cli.IntFlag{
					Name:    "concurrency",
					Aliases: []string{"c"},
					Value:   4,
					Usage:   "Number of orders fulfilled in parallel",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				fulfillmentUseCase, err := container.FulfillmentUseCase()
				if err != nil {
					return err
				}

				return commands.RunFulfillPending(
					ctx,
					fulfillmentUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("limit")),
					int(cmd.Int("concurrency")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "show-order",
			Usage: "Show the status of an order",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "key",
					Aliases:  []string{"k"},
					Required: true,
					Usage:    "Session handle or correlation token",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				orderUseCase, err := container.OrderUseCase()
				if err != nil {
					return err
				}

				return commands.RunShowOrder(
					ctx,
					orderUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("key"),
					cmd.String("format"),
				)
			},
		},
	}
}
