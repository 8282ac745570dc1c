package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/charms/cmd/app/commands"
	"github.com/allisson/charms/internal/app"
	"github.com/allisson/charms/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Create or migrate the order store schema",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				logger := container.Logger()

				switch cfg.DBDriver {
				case "postgres", "mysql":
					connectionString, err := container.UnsealedDBConnectionString()
					if err != nil {
						return err
					}
					return commands.RunMigrations(logger, cfg.DBDriver, connectionString)
				case "dynamodb":
					orderRepo, err := container.OrderRepository()
					if err != nil {
						return err
					}
					ensurer, ok := orderRepo.(commands.TableEnsurer)
					if !ok {
						return fmt.Errorf("order repository %T cannot create its table", orderRepo)
					}
					return commands.RunEnsureTable(ctx, ensurer, logger, cfg.DynamoDBTable)
				case "memory":
					logger.Info("memory order store needs no migrations")
					return nil
				default:
					return fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
				}
			},
		},
		{
			Name:  "seal-secret",
			Usage: "Encrypt a configuration value with SECRETS_KEEPER_URI",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "value",
					Aliases: []string{"v"},
					Usage:   "Plaintext value (omit to read from stdin)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				k, err := container.Keeper()
				if err != nil {
					return err
				}

				return commands.RunSealSecret(ctx, k, commands.DefaultIO(), cmd.String("value"))
			},
		},
	}
}
