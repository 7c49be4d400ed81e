package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/rocketshoes/internal/catalog"
	"github.com/utafrali/rocketshoes/internal/config"
	"github.com/utafrali/rocketshoes/internal/event"
	handler "github.com/utafrali/rocketshoes/internal/handler/http"
	"github.com/utafrali/rocketshoes/internal/notify"
	"github.com/utafrali/rocketshoes/internal/service"
	"github.com/utafrali/rocketshoes/pkg/health"
	"github.com/utafrali/rocketshoes/pkg/httpclient"
	pkgkafka "github.com/utafrali/rocketshoes/pkg/kafka"
	"github.com/utafrali/rocketshoes/pkg/middleware"
	"github.com/utafrali/rocketshoes/pkg/tracing"
)

// App wires together all dependencies and runs the cart service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	storage        *storage
	producer       *pkgkafka.Producer // nil unless Kafka is enabled
	manager        *service.CartManager
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// The cart is restored from its snapshot before NewApp returns.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "cart",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	// Catalog client: retries inside a circuit breaker.
	baseClient := httpclient.New(httpclient.Config{
		Timeout:         cfg.CatalogTimeout,
		MaxRetries:      cfg.CatalogMaxRetries,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 50,
	})
	cbCfg := httpclient.CircuitBreakerConfig{
		Name:         "catalog-api",
		MaxRequests:  cfg.CBMaxRequests,
		Interval:     cfg.CBInterval,
		Timeout:      cfg.CBTimeout,
		FailureRatio: cfg.CBFailureRatio,
		MinRequests:  cfg.CBMinRequests,
	}
	cbClient := httpclient.NewCircuitBreakerClient(baseClient, cbCfg, logger).
		WithFallback(catalog.CircuitOpenFallback)
	catalogClient := catalog.NewClient(cfg.CatalogURL, cbClient, logger)
	logger.Info("catalog client initialized",
		slog.String("url", cfg.CatalogURL),
		slog.Duration("timeout", cfg.CatalogTimeout),
		slog.Int("max_retries", cfg.CatalogMaxRetries),
		slog.String("breaker", cbCfg.Name),
	)

	healthHandler := health.NewHandler()
	healthHandler.Register("storage", store.repo.Ping)

	deps := service.Dependencies{
		Repo:       store.repo,
		StorageKey: cfg.StorageKey,
		Stock:      catalogClient,
		Catalog:    catalogClient,
		Notifier:   notify.NewLogNotifier(logger),
		Logger:     logger,
	}

	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer := event.NewProducer(producer, cfg.StorageKey, logger)
		deps.Events = eventProducer
		deps.Notifier = notify.Multi{deps.Notifier, eventProducer}
		healthHandler.Register("kafka", producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	manager := service.NewCartManager(ctx, deps)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	limit := middleware.RateLimitConfig{RPS: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
	router := handler.NewRouter(manager, healthHandler, logger, handler.RouterConfig{CORS: cors, RateLimit: limit})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		storage:        store,
		producer:       producer,
		manager:        manager,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("storage_backend", a.cfg.StorageBackend),
			slog.String("storage_key", a.manager.StorageKey()),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown stops all components: the HTTP server first so in-flight
// mutations finish writing their snapshot, then the tracer, Kafka and the
// storage connection.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.storage.close(); err != nil {
		a.logger.Error("storage close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
