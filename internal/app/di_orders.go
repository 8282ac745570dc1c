package app

import (
	"context"
	"fmt"

	artifactHTTP "github.com/allisson/charms/internal/artifact/http"
	"github.com/allisson/charms/internal/http"
	"github.com/allisson/charms/internal/metrics"
	"github.com/allisson/charms/internal/orders/domain"
	ordersHTTP "github.com/allisson/charms/internal/orders/http"
	ordersUseCase "github.com/allisson/charms/internal/orders/usecase"
)

// CheckoutUseCase returns the checkout initiator, wrapped with metrics when enabled.
func (c *Container) CheckoutUseCase() (ordersUseCase.CheckoutUseCase, error) {
	err := c.once(&c.checkoutUseCaseInit, "checkoutUseCase", func() error {
		orderRepo, err := c.OrderRepository()
		if err != nil {
			return fmt.Errorf("failed to get order repository for checkout use case: %w", err)
		}
		gateway, err := c.PaymentGateway()
		if err != nil {
			return fmt.Errorf("failed to get payment gateway for checkout use case: %w", err)
		}

		useCase := ordersUseCase.NewCheckoutUseCase(orderRepo, gateway, ordersUseCase.CheckoutConfig{
			PublicBaseURL:  c.config.PublicBaseURL,
			ProductName:    c.config.ProductName,
			PriceCents:     c.config.ProductPriceCents,
			MaxPriceCents:  c.config.ProductMaxPriceCents,
			Currency:       c.config.ProductCurrency,
			GatewayTimeout: c.config.GatewayTimeout,
			StoreTimeout:   c.config.StoreTimeout,
		}, c.Logger())

		if c.config.MetricsEnabled {
			businessMetrics, err := c.BusinessMetrics()
			if err != nil {
				return fmt.Errorf("failed to get business metrics for checkout use case: %w", err)
			}
			useCase = ordersUseCase.NewCheckoutUseCaseWithMetrics(useCase, businessMetrics)
		}
		c.checkoutUseCase = useCase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.checkoutUseCase, nil
}

// PaymentEventUseCase returns the webhook processor, wrapped with metrics when enabled.
func (c *Container) PaymentEventUseCase() (ordersUseCase.PaymentEventUseCase, error) {
	err := c.once(&c.paymentEventUseCaseInit, "paymentEventUseCase", func() error {
		orderRepo, err := c.OrderRepository()
		if err != nil {
			return fmt.Errorf("failed to get order repository for payment event use case: %w", err)
		}
		gateway, err := c.PaymentGateway()
		if err != nil {
			return fmt.Errorf("failed to get payment gateway for payment event use case: %w", err)
		}

		useCase := ordersUseCase.NewPaymentEventUseCase(orderRepo, gateway, c.config.StoreTimeout, c.Logger())

		if c.config.MetricsEnabled {
			businessMetrics, err := c.BusinessMetrics()
			if err != nil {
				return fmt.Errorf("failed to get business metrics for payment event use case: %w", err)
			}
			useCase = ordersUseCase.NewPaymentEventUseCaseWithMetrics(useCase, businessMetrics)
		}
		c.paymentEventUseCase = useCase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.paymentEventUseCase, nil
}

// FulfillmentUseCase returns the fulfillment orchestrator, wrapped with metrics when enabled.
func (c *Container) FulfillmentUseCase() (ordersUseCase.FulfillmentUseCase, error) {
	err := c.once(&c.fulfillmentUseCaseInit, "fulfillmentUseCase", func() error {
		orderRepo, err := c.OrderRepository()
		if err != nil {
			return fmt.Errorf("failed to get order repository for fulfillment use case: %w", err)
		}
		gateway, err := c.PaymentGateway()
		if err != nil {
			return fmt.Errorf("failed to get payment gateway for fulfillment use case: %w", err)
		}
		renderer, err := c.Renderer()
		if err != nil {
			return fmt.Errorf("failed to get renderer for fulfillment use case: %w", err)
		}
		artifactStore, err := c.ArtifactStore()
		if err != nil {
			return fmt.Errorf("failed to get artifact store for fulfillment use case: %w", err)
		}

		useCase := ordersUseCase.NewFulfillmentUseCase(
			orderRepo,
			gateway,
			renderer,
			artifactStore,
			ordersUseCase.FulfillmentConfig{
				URLTTL:         c.config.ArtifactURLTTL,
				GatewayTimeout: c.config.GatewayTimeout,
				RenderTimeout:  c.config.RenderTimeout,
				StoreTimeout:   c.config.StoreTimeout,
			},
			c.Logger(),
		)

		if c.config.MetricsEnabled {
			businessMetrics, err := c.BusinessMetrics()
			if err != nil {
				return fmt.Errorf("failed to get business metrics for fulfillment use case: %w", err)
			}
			useCase = ordersUseCase.NewFulfillmentUseCaseWithMetrics(useCase, businessMetrics)
		}
		c.fulfillmentUseCase = useCase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.fulfillmentUseCase, nil
}

// OrderUseCase returns the order status reader.
func (c *Container) OrderUseCase() (ordersUseCase.OrderUseCase, error) {
	err := c.once(&c.orderUseCaseInit, "orderUseCase", func() error {
		orderRepo, err := c.OrderRepository()
		if err != nil {
			return fmt.Errorf("failed to get order repository for order use case: %w", err)
		}
		gateway, err := c.PaymentGateway()
		if err != nil {
			return fmt.Errorf("failed to get payment gateway for order use case: %w", err)
		}
		c.orderUseCase = ordersUseCase.NewOrderUseCase(orderRepo, gateway, c.config.StoreTimeout)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.orderUseCase, nil
}

// CheckoutHandler returns the checkout HTTP handler.
func (c *Container) CheckoutHandler() (*ordersHTTP.CheckoutHandler, error) {
	err := c.once(&c.checkoutHandlerInit, "checkoutHandler", func() error {
		useCase, err := c.CheckoutUseCase()
		if err != nil {
			return fmt.Errorf("failed to get checkout use case for checkout handler: %w", err)
		}
		c.checkoutHandler = ordersHTTP.NewCheckoutHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.checkoutHandler, nil
}

// WebhookHandler returns the payment webhook HTTP handler.
func (c *Container) WebhookHandler() (*ordersHTTP.WebhookHandler, error) {
	err := c.once(&c.webhookHandlerInit, "webhookHandler", func() error {
		useCase, err := c.PaymentEventUseCase()
		if err != nil {
			return fmt.Errorf("failed to get payment event use case for webhook handler: %w", err)
		}
		c.webhookHandler = ordersHTTP.NewWebhookHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.webhookHandler, nil
}

// FulfillmentHandler returns the fulfillment HTTP handler.
func (c *Container) FulfillmentHandler() (*ordersHTTP.FulfillmentHandler, error) {
	err := c.once(&c.fulfillmentHandlerInit, "fulfillmentHandler", func() error {
		useCase, err := c.FulfillmentUseCase()
		if err != nil {
			return fmt.Errorf("failed to get fulfillment use case for fulfillment handler: %w", err)
		}
		c.fulfillmentHandler = ordersHTTP.NewFulfillmentHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.fulfillmentHandler, nil
}

// OrderHandler returns the order status HTTP handler.
func (c *Container) OrderHandler() (*ordersHTTP.OrderHandler, error) {
	err := c.once(&c.orderHandlerInit, "orderHandler", func() error {
		useCase, err := c.OrderUseCase()
		if err != nil {
			return fmt.Errorf("failed to get order use case for order handler: %w", err)
		}
		c.orderHandler = ordersHTTP.NewOrderHandler(useCase, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.orderHandler, nil
}

// DownloadHandler returns the signed download handler, or nil when artifacts
// are not stored in a file bucket.
func (c *Container) DownloadHandler() (*artifactHTTP.DownloadHandler, error) {
	if !c.usesFileBucket() {
		return nil, nil
	}
	err := c.once(&c.downloadHandlerInit, "downloadHandler", func() error {
		store, err := c.ArtifactStore()
		if err != nil {
			return fmt.Errorf("failed to get artifact store for download handler: %w", err)
		}
		signer, err := c.URLSigner()
		if err != nil {
			return fmt.Errorf("failed to get url signer for download handler: %w", err)
		}
		c.downloadHandler = artifactHTTP.NewDownloadHandler(store, signer, c.Logger())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.downloadHandler, nil
}

// HTTPServer returns the API server with every route mounted. Background work
// started by the router (rate limiter cleanup) stops when ctx is done.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	err := c.once(&c.httpServerInit, "httpServer", func() error {
		server, err := c.initHTTPServer(ctx)
		if err != nil {
			return err
		}
		c.httpServer = server
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	err := c.once(&c.metricsServerInit, "metricsServer", func() error {
		provider, err := c.MetricsProvider()
		if err != nil {
			return fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
		}
		store, err := c.HealthChecker()
		if err != nil {
			return fmt.Errorf("failed to get health checker for metrics server: %w", err)
		}
		repo, err := c.OrderRepository()
		if err != nil {
			return fmt.Errorf("failed to get order repository for metrics server: %w", err)
		}
		server, err := http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			provider,
			store,
			fulfillmentBacklog(repo),
			c.Logger(),
		)
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		c.metricsServer = server
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.metricsServer, nil
}

// backlogScanLimit caps the PAID orders counted per scrape.
const backlogScanLimit = 1000

// fulfillmentBacklog counts PAID orders, which are paid but not yet fulfilled.
func fulfillmentBacklog(repo ordersUseCase.OrderRepository) metrics.BacklogCounter {
	return func(ctx context.Context) (int64, error) {
		orders, err := repo.ListByStatus(ctx, domain.StatusPaid, backlogScanLimit)
		if err != nil {
			return 0, err
		}
		return int64(len(orders)), nil
	}
}

func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	var handlers http.Handlers
	var err error

	if handlers.Checkout, err = c.CheckoutHandler(); err != nil {
		return nil, fmt.Errorf("failed to get checkout handler for http server: %w", err)
	}
	if handlers.Webhook, err = c.WebhookHandler(); err != nil {
		return nil, fmt.Errorf("failed to get webhook handler for http server: %w", err)
	}
	if handlers.Fulfillment, err = c.FulfillmentHandler(); err != nil {
		return nil, fmt.Errorf("failed to get fulfillment handler for http server: %w", err)
	}
	if handlers.Order, err = c.OrderHandler(); err != nil {
		return nil, fmt.Errorf("failed to get order handler for http server: %w", err)
	}
	if handlers.Download, err = c.DownloadHandler(); err != nil {
		return nil, fmt.Errorf("failed to get download handler for http server: %w", err)
	}

	healthChecker, err := c.HealthChecker()
	if err != nil {
		return nil, fmt.Errorf("failed to get health checker for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(healthChecker, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(ctx, c.config, handlers, metricsProvider)
	return server, nil
}
