package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// TableEnsurer creates the schema of a store that has no migration files.
type TableEnsurer interface {
	EnsureTable(ctx context.Context) error
}

// RunMigrations applies pending SQL migrations from migrations/postgresql or
// migrations/mysql. Returns nil when there is nothing to apply.
func RunMigrations(logger *slog.Logger, dbDriver, dbConnectionString string) error {
	logger.Info("running database migrations",
		slog.String("driver", dbDriver),
	)

	migrationsPath := "file://migrations/postgresql"
	if dbDriver == "mysql" {
		migrationsPath = "file://migrations/mysql"
	}

	m, err := migrate.New(migrationsPath, dbConnectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}

// RunEnsureTable creates the DynamoDB orders table and its index when missing.
func RunEnsureTable(ctx context.Context, ensurer TableEnsurer, logger *slog.Logger, table string) error {
	logger.Info("ensuring dynamodb table", slog.String("table", table))

	if err := ensurer.EnsureTable(ctx); err != nil {
		return fmt.Errorf("failed to ensure dynamodb table: %w", err)
	}

	logger.Info("dynamodb table ready", slog.String("table", table))
	return nil
}
