package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alicecomoura/hook-shopping-cart/internal/catalog"
	"github.com/alicecomoura/hook-shopping-cart/internal/service"
	"github.com/alicecomoura/hook-shopping-cart/pkg/health"
	"github.com/alicecomoura/hook-shopping-cart/pkg/middleware"
)

// RouterConfig holds the HTTP-facing settings of the router.
type RouterConfig struct {
	ServiceName    string
	CORS           middleware.CORSConfig
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a chi router with all cart service routes registered.
// Canceling ctx stops the rate limiter's eviction loop and ends open event
// streams.
func NewRouter(
	ctx context.Context,
	manager *service.Manager,
	products catalog.ProductCatalog,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(manager, logger)
	productHandler := NewProductHandler(products, manager, logger)
	eventsHandler := NewEventsHandler(ctx, manager, logger)

	r.Route("/api/v1", func(r chi.Router) {
		// Long-lived stream, kept out of the timeout and compression group.
		r.Get("/cart/events", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(chimw.Timeout(30 * time.Second))
			r.Use(ContentTypeJSON)

			r.Get("/cart", cartHandler.GetCart)
			r.Get("/products", productHandler.ListProducts)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, logger))

				r.Post("/cart/products/{productId}", cartHandler.AddProduct)
				r.Put("/cart/products/{productId}", cartHandler.UpdateProductAmount)
				r.Delete("/cart/products/{productId}", cartHandler.RemoveProduct)
			})
		})
	})

	return r
}
