package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/allisson/charms/internal/database"
	"github.com/allisson/charms/internal/http"
	"github.com/allisson/charms/internal/keeper"
	"github.com/allisson/charms/internal/metrics"
	ordersRepository "github.com/allisson/charms/internal/orders/repository"
	ordersUseCase "github.com/allisson/charms/internal/orders/usecase"
)

const (
	driverDynamoDB = "dynamodb"
	driverMemory   = "memory"
)

// Keeper returns the secrets keeper used to unseal "sealed:" configuration values.
func (c *Container) Keeper() (*keeper.Keeper, error) {
	err := c.once(&c.keeperInit, "keeper", func() error {
		k, err := keeper.Open(context.Background(), c.config.SecretsKeeperURI)
		if err != nil {
			return err
		}
		c.keeper = k
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.keeper, nil
}

// unseal resolves a configuration value that may be sealed with the keeper.
func (c *Container) unseal(name, value string) (string, error) {
	if !keeper.IsSealed(value) {
		return value, nil
	}
	k, err := c.Keeper()
	if err != nil {
		return "", fmt.Errorf("failed to get keeper for %s: %w", name, err)
	}
	plain, err := k.Unseal(context.Background(), value)
	if err != nil {
		return "", fmt.Errorf("failed to unseal %s: %w", name, err)
	}
	return plain, nil
}

// UnsealedDBConnectionString returns DB_CONNECTION_STRING with any seal removed.
func (c *Container) UnsealedDBConnectionString() (string, error) {
	return c.unseal("DB_CONNECTION_STRING", c.config.DBConnectionString)
}

// DB returns the SQL database connection. It fails for non SQL order stores.
func (c *Container) DB() (*sql.DB, error) {
	err := c.once(&c.dbInit, "db", func() error {
		db, err := c.initDB()
		if err != nil {
			return err
		}
		c.db = db
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.db, nil
}

// DynamoDBClient returns the DynamoDB client configured from the AWS default chain.
func (c *Container) DynamoDBClient() (*dynamodb.Client, error) {
	err := c.once(&c.dynamoDBClientInit, "dynamoDBClient", func() error {
		client, err := c.initDynamoDBClient()
		if err != nil {
			return err
		}
		c.dynamoDBClient = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.dynamoDBClient, nil
}

// OrderRepository returns the order store selected by DBDriver.
func (c *Container) OrderRepository() (ordersUseCase.OrderRepository, error) {
	err := c.once(&c.orderRepoInit, "orderRepository", func() error {
		repo, err := c.initOrderRepository()
		if err != nil {
			return err
		}
		c.orderRepo = repo
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.orderRepo, nil
}

// HealthChecker returns the readiness check of the configured order store.
func (c *Container) HealthChecker() (http.HealthChecker, error) {
	if database.IsSQLDriver(c.config.DBDriver) {
		db, err := c.DB()
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	repo, err := c.OrderRepository()
	if err != nil {
		return nil, err
	}
	checker, ok := repo.(http.HealthChecker)
	if !ok {
		return nil, fmt.Errorf("order repository for driver %s has no health check", c.config.DBDriver)
	}
	return checker, nil
}

// MetricsProvider returns the OpenTelemetry metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	err := c.once(&c.metricsProviderInit, "metricsProvider", func() error {
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create metrics provider: %w", err)
		}
		c.metricsProvider = provider
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder; a no-op recorder when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	err := c.once(&c.businessMetricsInit, "businessMetrics", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return err
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return nil
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to create business metrics: %w", err)
		}
		c.businessMetrics = businessMetrics
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.businessMetrics, nil
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	if !database.IsSQLDriver(c.config.DBDriver) {
		return nil, fmt.Errorf("driver %s is not a sql database", c.config.DBDriver)
	}

	connectionString, err := c.UnsealedDBConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   connectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initDynamoDBClient loads the AWS configuration and applies the optional endpoint override.
func (c *Container) initDynamoDBClient() (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(c.config.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	endpoint := c.config.DynamoDBEndpoint
	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// initOrderRepository selects the order store implementation from DBDriver.
func (c *Container) initOrderRepository() (ordersUseCase.OrderRepository, error) {
	switch c.config.DBDriver {
	case "postgres":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for order repository: %w", err)
		}
		return ordersRepository.NewPostgreSQLOrderRepository(db), nil
	case "mysql":
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for order repository: %w", err)
		}
		return ordersRepository.NewMySQLOrderRepository(db), nil
	case driverDynamoDB:
		client, err := c.DynamoDBClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get dynamodb client for order repository: %w", err)
		}
		return ordersRepository.NewDynamoDBOrderRepository(client, c.config.DynamoDBTable), nil
	case driverMemory:
		c.Logger().Warn("using in-memory order store, orders are lost on restart")
		return ordersRepository.NewMemoryOrderRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}
