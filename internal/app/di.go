// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"

	artifactHTTP "github.com/allisson/charms/internal/artifact/http"
	artifactService "github.com/allisson/charms/internal/artifact/service"
	"github.com/allisson/charms/internal/config"
	"github.com/allisson/charms/internal/http"
	"github.com/allisson/charms/internal/keeper"
	"github.com/allisson/charms/internal/metrics"
	ordersHTTP "github.com/allisson/charms/internal/orders/http"
	ordersUseCase "github.com/allisson/charms/internal/orders/usecase"
	paymentService "github.com/allisson/charms/internal/payment/service"
	renderService "github.com/allisson/charms/internal/render/service"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	config *config.Config

	// Infrastructure
	logger         *slog.Logger
	keeper         *keeper.Keeper
	db             *sql.DB
	dynamoDBClient *dynamodb.Client
	bucket         *blob.Bucket
	urlSigner      *fileblob.URLSignerHMAC

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Adapters
	orderRepo     ordersUseCase.OrderRepository
	gateway       *paymentService.StripeGateway
	artifactStore *artifactService.BlobStore
	renderer      *renderService.Renderer

	// Use Cases
	checkoutUseCase     ordersUseCase.CheckoutUseCase
	paymentEventUseCase ordersUseCase.PaymentEventUseCase
	fulfillmentUseCase  ordersUseCase.FulfillmentUseCase
	orderUseCase        ordersUseCase.OrderUseCase

	// Handlers
	checkoutHandler    *ordersHTTP.CheckoutHandler
	webhookHandler     *ordersHTTP.WebhookHandler
	fulfillmentHandler *ordersHTTP.FulfillmentHandler
	orderHandler       *ordersHTTP.OrderHandler
	downloadHandler    *artifactHTTP.DownloadHandler

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	mu                      sync.Mutex
	loggerInit              sync.Once
	keeperInit              sync.Once
	dbInit                  sync.Once
	dynamoDBClientInit      sync.Once
	bucketInit              sync.Once
	urlSignerInit           sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	orderRepoInit           sync.Once
	gatewayInit             sync.Once
	artifactStoreInit       sync.Once
	rendererInit            sync.Once
	checkoutUseCaseInit     sync.Once
	paymentEventUseCaseInit sync.Once
	fulfillmentUseCaseInit  sync.Once
	orderUseCaseInit        sync.Once
	checkoutHandlerInit     sync.Once
	webhookHandlerInit      sync.Once
	fulfillmentHandlerInit  sync.Once
	orderHandlerInit        sync.Once
	downloadHandlerInit     sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// once runs init under the given sync.Once and remembers its error under name,
// so later calls return the same failure.
func (c *Container) once(o *sync.Once, name string, init func() error) error {
	o.Do(func() {
		if err := init(); err != nil {
			c.mu.Lock()
			c.initErrors[name] = err
			c.mu.Unlock()
		}
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[name]
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.bucket != nil {
		if err := c.bucket.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("artifact bucket close: %w", err))
		}
	}

	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("secrets keeper close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
