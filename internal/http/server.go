// Package http provides the HTTP server, router wiring and shared middleware.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	artifactHTTP "github.com/allisson/charms/internal/artifact/http"
	"github.com/allisson/charms/internal/config"
	"github.com/allisson/charms/internal/metrics"
	ordersHTTP "github.com/allisson/charms/internal/orders/http"
)

// HealthChecker reports whether the order store is reachable.
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// Handlers groups the route handlers mounted by SetupRouter.
type Handlers struct {
	Checkout    *ordersHTTP.CheckoutHandler
	Webhook     *ordersHTTP.WebhookHandler
	Fulfillment *ordersHTTP.FulfillmentHandler
	Order       *ordersHTTP.OrderHandler
	// Download is nil unless artifacts live in a file bucket.
	Download *artifactHTTP.DownloadHandler
}

// Server represents the HTTP server.
type Server struct {
	db     HealthChecker
	server *http.Server
	logger *slog.Logger
	router *gin.Engine
}

// NewServer creates a new HTTP server. A nil db makes the readiness check fail.
func NewServer(db HealthChecker, host string, port int, logger *slog.Logger) *Server {
	return &Server{
		db:     db,
		logger: logger,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", host, port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// SetupRouter mounts middleware and every route on a new Gin engine.
func (s *Server) SetupRouter(
	ctx context.Context,
	cfg *config.Config,
	handlers Handlers,
	metricsProvider *metrics.Provider,
) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(s.logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, s.logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(
			metricsProvider.MeterProvider(),
			cfg.MetricsNamespace,
			"/health",
			"/ready",
		))
	}

	router.GET("/health", s.healthHandler)
	router.GET("/ready", storeReadiness(s.db, s.logger))

	// Browser facing routes share one per-IP limiter. Webhooks are exempt: the
	// provider retries rejected deliveries and authenticates every payload.
	public := router.Group("")
	if cfg.RateLimitEnabled {
		public.Use(IPRateLimitMiddleware(ctx, cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, s.logger))
	}

	v1 := public.Group("/v1")
	v1.POST("/checkout", handlers.Checkout.CreateHandler)
	v1.POST("/fulfillments", handlers.Fulfillment.FulfillHandler)
	v1.GET("/orders/:key", handlers.Order.GetHandler)
	if handlers.Download != nil {
		v1.GET("/artifacts/download", handlers.Download.DownloadHandler)
	}

	router.POST("/v1/webhooks/stripe", handlers.Webhook.StripeHandler)

	// Routes kept for clients of the first release
	legacy := public.Group("/api")
	legacy.POST("/create-checkout-session", handlers.Checkout.CreateHandler)
	legacy.POST("/generate-charm", handlers.Fulfillment.FulfillHandler)
	router.POST("/api/stripe-webhook", handlers.Webhook.StripeHandler)

	s.router = router
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start serves the API until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server.Handler = s.router
	return listen(s.server, s.logger, "api server")
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down api server")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// listen runs srv until it is shut down; http.ErrServerClosed is not an error.
func listen(srv *http.Server, logger *slog.Logger, name string) error {
	logger.Info("starting "+name, slog.String("addr", srv.Addr))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", name, err)
	}
	return nil
}

// storeReadiness reports 503 while the order store cannot be reached. A nil
// store is never ready.
func storeReadiness(store HealthChecker, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		var err error
		if store == nil {
			err = errors.New("order store not configured")
		} else {
			err = store.PingContext(ctx)
		}

		if err != nil {
			logger.Warn("readiness check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"components": gin.H{"order_store": "error"},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"components": gin.H{"order_store": "ok"},
		})
	}
}
