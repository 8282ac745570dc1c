package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/allisson/charms/internal/metrics"
)

// MetricsServer is the operator port. It serves Prometheus metrics, including
// the fulfillment backlog gauge, and a readiness check that bypasses the public
// rate limiter so scrapers and orchestrators are never throttled.
type MetricsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewMetricsServer mounts /metrics and /ready. When backlog is non-nil it is
// registered on provider as the orders awaiting fulfillment gauge.
func NewMetricsServer(
	host string,
	port int,
	provider *metrics.Provider,
	store HealthChecker,
	backlog metrics.BacklogCounter,
	logger *slog.Logger,
) (*MetricsServer, error) {
	if backlog != nil {
		if err := provider.ObserveBacklog(backlog); err != nil {
			return nil, err
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/metrics", gin.WrapH(provider.Handler()))
	router.GET("/ready", storeReadiness(store, logger))

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		logger: logger,
	}, nil
}

// GetHandler returns the http.Handler for testing purposes.
func (s *MetricsServer) GetHandler() http.Handler {
	return s.server.Handler
}

// Start serves the operator port until Shutdown.
func (s *MetricsServer) Start(ctx context.Context) error {
	return listen(s.server, s.logger, "metrics server")
}

// Shutdown gracefully shuts down the operator port.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.server.Shutdown(ctx)
}
