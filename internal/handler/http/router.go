package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/rocketshoes/internal/service"
	"github.com/utafrali/rocketshoes/pkg/health"
	"github.com/utafrali/rocketshoes/pkg/middleware"
)

// RouterConfig holds the HTTP policies applied by NewRouter.
type RouterConfig struct {
	CORS middleware.CORSConfig
	// RateLimit applies to cart mutations only.
	RateLimit middleware.RateLimitConfig
}

// NewRouter creates a chi router with all cart service routes registered.
func NewRouter(
	manager *service.CartManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cart"))
	r.Use(middleware.Tracing("cart"))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	cartHandler := NewCartHandler(manager, logger)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(ContentTypeJSON)

		r.Get("/", cartHandler.GetCart)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimit, logger))
			r.Post("/products/{productId}", cartHandler.AddProduct)
			r.Put("/products/{productId}", cartHandler.UpdateProductAmount)
			r.Delete("/products/{productId}", cartHandler.RemoveProduct)
		})
	})

	return r
}
