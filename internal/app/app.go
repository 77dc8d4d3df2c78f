package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/alicecomoura/hook-shopping-cart/internal/catalog"
	"github.com/alicecomoura/hook-shopping-cart/internal/config"
	"github.com/alicecomoura/hook-shopping-cart/internal/event"
	handler "github.com/alicecomoura/hook-shopping-cart/internal/handler/http"
	"github.com/alicecomoura/hook-shopping-cart/internal/notify"
	"github.com/alicecomoura/hook-shopping-cart/internal/repository/snapshot"
	"github.com/alicecomoura/hook-shopping-cart/internal/service"
	"github.com/alicecomoura/hook-shopping-cart/pkg/database"
	"github.com/alicecomoura/hook-shopping-cart/pkg/health"
	"github.com/alicecomoura/hook-shopping-cart/pkg/httpclient"
	pkgkafka "github.com/alicecomoura/hook-shopping-cart/pkg/kafka"
	"github.com/alicecomoura/hook-shopping-cart/pkg/middleware"
	"github.com/alicecomoura/hook-shopping-cart/pkg/tracing"
)

const slowQueryThreshold = 200 * time.Millisecond

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	manager        *service.Manager
	producer       *pkgkafka.Producer
	closeStorage   func()
	shutdownTracer func(context.Context) error
	stopBackground context.CancelFunc
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	return newApp(cfg, prometheus.DefaultRegisterer, logger)
}

func newApp(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.Tracing())
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	database.SetSlowQueryLogging(slowQueryThreshold, logger)

	// Persisted snapshot.
	kv, closeStorage, err := openStorage(ctx, cfg, reg, logger)
	if err != nil {
		_ = shutdownTracer(context.Background())
		return nil, err
	}
	repo := snapshot.New(kv, cfg.StorageKey)

	// Catalog collaborator behind retries and a circuit breaker.
	breaker := catalog.NewBreaker(httpclient.New(cfg.HTTPClient()), cfg.CircuitBreaker(), logger)
	catalogClient := catalog.NewClient(breaker, cfg.CatalogURL)

	manager, err := service.NewManager(ctx, repo, catalogClient, catalogClient, notify.NewLogNotifier(logger), logger)
	if err != nil {
		closeStorage()
		_ = shutdownTracer(context.Background())
		return nil, fmt.Errorf("init cart: %w", err)
	}

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("storage", kv.Ping)

	// Optional cart.updated events.
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		manager.Subscribe(event.NewProducer(producer, repo.Key(), logger).CartUpdated)
		healthHandler.Register("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// HTTP router.
	bgCtx, stopBackground := context.WithCancel(context.Background())
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(bgCtx, manager, catalogClient, healthHandler, handler.RouterConfig{
		ServiceName:    config.ServiceName,
		CORS:           cors,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	// No WriteTimeout: the cart event stream is long-lived; other routes
	// are bounded by the router's timeout middleware.
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		manager:        manager,
		producer:       producer,
		closeStorage:   closeStorage,
		shutdownTracer: shutdownTracer,
		stopBackground: stopBackground,
		httpServer:     httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Ends open event streams so Shutdown does not wait on them.
	a.stopBackground()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Flushes queued cart.updated events before the producer goes away.
	a.manager.Close()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	a.closeStorage()

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
